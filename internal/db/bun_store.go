// Copyright (c) 2026 ToeiRei
// Certmigrate - managed certificate configuration migration
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/toeirei/certmigrate/internal/model"
	"github.com/uptrace/bun"
)

const (
	importLockName = "import"

	settingUITheme = "ui_theme"
	settingCulture = "culture"

	// DefaultLockStaleAfter is how long an import lock is honoured before a
	// new import may take it over.
	DefaultLockStaleAfter = time.Hour
)

// BunStore implements Store on top of a *bun.DB for every supported dialect.
type BunStore struct {
	bun        *bun.DB
	dbType     string
	staleAfter time.Duration
	now        func() time.Time
}

var _ Store = (*BunStore)(nil)

func newBunStore(bdb *bun.DB, dbType string) *BunStore {
	return &BunStore{bun: bdb, dbType: dbType, staleAfter: DefaultLockStaleAfter, now: time.Now}
}

// DBType returns the configured database type.
func (s *BunStore) DBType() string { return s.dbType }

// SetLockStaleAfter changes how long a held import lock blocks other
// imports. Zero disables stale takeover.
func (s *BunStore) SetLockStaleAfter(d time.Duration) { s.staleAfter = d }

// Close closes the underlying database.
func (s *BunStore) Close() error { return s.bun.Close() }

// ListManagedCertificates narrows by store path and IDs in SQL and applies the
// remaining filter fields in Go.
func (s *BunStore) ListManagedCertificates(ctx context.Context, filter model.ManagedCertificateFilter) ([]model.ManagedCertificate, error) {
	var rows []ManagedCertificateModel
	q := s.bun.NewSelect().Model(&rows).OrderExpr("seq ASC")
	if filter.StorePath != "" {
		q = q.Where("LOWER(store_path) = LOWER(?)", filter.StorePath)
	}
	if len(filter.IDs) > 0 {
		q = q.Where("id IN (?)", bun.In(filter.IDs))
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list managed certificates: %w", err)
	}
	out := make([]model.ManagedCertificate, 0, len(rows))
	for _, r := range rows {
		c := managedCertificateModelToModel(r)
		if filter.Matches(c) {
			out = append(out, c)
		}
	}
	return out, nil
}

// GetEntity returns the live entity for ref, or (nil, nil) when absent.
func (s *BunStore) GetEntity(ctx context.Context, ref model.EntityRef) (model.Entity, error) {
	row, err := emptyRowFor(ref.Kind)
	if err != nil {
		return nil, err
	}
	err = s.bun.NewSelect().Model(row).Where("id = ?", ref.ID).Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get %s: %w", ref, err)
	}
	return rowToEntity(row), nil
}

// CreateEntity inserts e within a transaction.
func (s *BunStore) CreateEntity(ctx context.Context, e model.Entity) error {
	if e == nil || e.Identity() == "" {
		return errors.New("entity has no identity")
	}
	row, err := rowFor(e)
	if err != nil {
		return err
	}
	err = WithTx(ctx, s.bun, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().Model(row).Exec(ctx)
		return MapDBError(err)
	})
	if err != nil {
		return fmt.Errorf("create %s: %w", model.RefOf(e), err)
	}
	dbLogf("db: created %s", model.RefOf(e))
	return nil
}

// UpdateEntity replaces every column of the stored entity with e's values.
func (s *BunStore) UpdateEntity(ctx context.Context, e model.Entity) error {
	if e == nil || e.Identity() == "" {
		return errors.New("entity has no identity")
	}
	row, err := rowFor(e)
	if err != nil {
		return err
	}
	err = WithTx(ctx, s.bun, func(ctx context.Context, tx bun.Tx) error {
		// MySQL reports zero affected rows for unchanged values, so check
		// existence explicitly instead of relying on RowsAffected.
		n, err := tx.NewSelect().Model(row).Where("id = ?", e.Identity()).Count(ctx)
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		_, err = tx.NewUpdate().Model(row).ExcludeColumn("seq").Where("id = ?", e.Identity()).Exec(ctx)
		return MapDBError(err)
	})
	if err != nil {
		return fmt.Errorf("update %s: %w", model.RefOf(e), err)
	}
	dbLogf("db: updated %s", model.RefOf(e))
	return nil
}

// GetUISettings reads the display preferences. Missing rows yield zero values.
func (s *BunStore) GetUISettings(ctx context.Context) (model.UISettings, error) {
	var rows []UISettingModel
	if err := s.bun.NewSelect().Model(&rows).Scan(ctx); err != nil {
		return model.UISettings{}, fmt.Errorf("get ui settings: %w", err)
	}
	var out model.UISettings
	for _, r := range rows {
		switch r.Name {
		case settingUITheme:
			out.UITheme = r.Value
		case settingCulture:
			out.Culture = r.Value
		}
	}
	return out, nil
}

// SaveUISettings replaces the stored display preferences.
func (s *BunStore) SaveUISettings(ctx context.Context, settings model.UISettings) error {
	rows := []UISettingModel{
		{Name: settingUITheme, Value: settings.UITheme},
		{Name: settingCulture, Value: settings.Culture},
	}
	return WithTx(ctx, s.bun, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*UISettingModel)(nil)).Where("name IN (?)", bun.In([]string{settingUITheme, settingCulture})).Exec(ctx); err != nil {
			return err
		}
		_, err := tx.NewInsert().Model(&rows).Exec(ctx)
		return MapDBError(err)
	})
}

// AcquireImportLock inserts the lock row. A lock older than the stale
// timeout is taken over; any other existing lock yields *LockHeldError.
func (s *BunStore) AcquireImportLock(ctx context.Context, holder string) (func(context.Context) error, error) {
	token := uuid.NewString()
	for attempt := 0; attempt < 3; attempt++ {
		now := s.now().UTC()
		row := &ImportLockModel{Name: importLockName, Holder: holder, Token: token, AcquiredAt: now}
		_, err := s.bun.NewInsert().Model(row).Exec(ctx)
		if err == nil {
			dbLogf("db: import lock acquired by %s", holder)
			return func(ctx context.Context) error { return s.releaseImportLock(ctx, token) }, nil
		}
		if !errors.Is(MapDBError(err), ErrDuplicate) {
			return nil, fmt.Errorf("acquire import lock: %w", err)
		}

		var existing ImportLockModel
		if err := s.bun.NewSelect().Model(&existing).Where("name = ?", importLockName).Scan(ctx); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				// Released between our insert and select.
				continue
			}
			return nil, fmt.Errorf("read import lock: %w", err)
		}
		if s.staleAfter <= 0 || now.Sub(existing.AcquiredAt) <= s.staleAfter {
			return nil, &LockHeldError{Holder: existing.Holder, Since: existing.AcquiredAt}
		}
		dbLogf("db: taking over stale import lock held by %s since %s", existing.Holder, existing.AcquiredAt)
		if err := s.releaseImportLock(ctx, existing.Token); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("acquire import lock: %w", ErrLocked)
}

func (s *BunStore) releaseImportLock(ctx context.Context, token string) error {
	_, err := s.bun.NewDelete().Model((*ImportLockModel)(nil)).
		Where("name = ?", importLockName).
		Where("token = ?", token).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("release import lock: %w", err)
	}
	return nil
}
