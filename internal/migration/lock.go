// Copyright (c) 2026 ToeiRei
// Certmigrate - managed certificate configuration migration
// This source code is licensed under the MIT license found in the LICENSE file.

package migration

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/toeirei/certmigrate/internal/db"
	"github.com/toeirei/certmigrate/internal/logging"
)

// lockHolder names this process in the import lock row.
func lockHolder() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "unknown"
	}
	return fmt.Sprintf("%s:%d", host, os.Getpid())
}

// acquireImportLock takes the store's import lock and maps a held lock to
// *ConflictError. The returned release function logs instead of failing.
func acquireImportLock(ctx context.Context, store db.Locker) (func(), error) {
	release, err := store.AcquireImportLock(ctx, lockHolder())
	if err != nil {
		var held *db.LockHeldError
		if errors.As(err, &held) {
			return nil, &ConflictError{Holder: held.Holder, Since: held.Since, Err: err}
		}
		return nil, fmt.Errorf("acquire import lock: %w", err)
	}
	return func() {
		// The run's context may already be cancelled; release regardless.
		if err := release(context.Background()); err != nil {
			logging.Warnf("import: %v", err)
		}
	}, nil
}
