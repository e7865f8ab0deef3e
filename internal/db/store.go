// Copyright (c) 2026 ToeiRei
// Certmigrate - managed certificate configuration migration
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"

	"github.com/toeirei/certmigrate/internal/model"
)

// Reader is the read side of the configuration store. Exporting and
// previewing an import only ever need a Reader.
type Reader interface {
	// ListManagedCertificates returns the certificates selected by filter in
	// the store's natural order. MaxResults is not applied here.
	ListManagedCertificates(ctx context.Context, filter model.ManagedCertificateFilter) ([]model.ManagedCertificate, error)
	// GetEntity returns the live entity for ref, or (nil, nil) when the
	// store has no entity with that identity.
	GetEntity(ctx context.Context, ref model.EntityRef) (model.Entity, error)
	GetUISettings(ctx context.Context) (model.UISettings, error)
}

// Writer persists configuration entities.
type Writer interface {
	// CreateEntity inserts e. It returns ErrDuplicate when an entity of the
	// same kind and identity exists.
	CreateEntity(ctx context.Context, e model.Entity) error
	// UpdateEntity replaces the stored entity with e's identity. It returns
	// ErrNotFound when there is nothing to update.
	UpdateEntity(ctx context.Context, e model.Entity) error
	SaveUISettings(ctx context.Context, s model.UISettings) error
}

// Locker serializes mutating imports against the same store.
type Locker interface {
	// AcquireImportLock takes the store-wide import lock for holder. When
	// another holder owns it a *LockHeldError is returned. The returned
	// function releases the lock.
	AcquireImportLock(ctx context.Context, holder string) (func(context.Context) error, error)
}

// Store defines the interface for all database operations in Certmigrate.
// This allows for multiple database backends to be implemented.
type Store interface {
	Reader
	Writer
	Locker
	Close() error
}
