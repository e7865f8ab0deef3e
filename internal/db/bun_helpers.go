// Copyright (c) 2026 ToeiRei
// Certmigrate - managed certificate configuration migration
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"database/sql"

	"github.com/uptrace/bun"
)

// rawRunner is satisfied by *bun.DB and bun.Tx.
type rawRunner interface {
	NewRaw(query string, args ...interface{}) *bun.RawQuery
}

// ExecRaw runs an engine-specific statement that has no query builder
// equivalent (PRAGMA, VACUUM, OPTIMIZE TABLE).
func ExecRaw(ctx context.Context, r rawRunner, query string, args ...interface{}) (sql.Result, error) {
	return r.NewRaw(query, args...).Exec(ctx)
}

// QueryRawInto scans the rows of a raw query into dest, which may be a
// pointer to a scalar or to a slice.
func QueryRawInto(ctx context.Context, r rawRunner, dest interface{}, query string, args ...interface{}) error {
	return r.NewRaw(query, args...).Scan(ctx, dest)
}

// WithTx runs fn inside a transaction that is committed when fn returns nil
// and rolled back otherwise. fn must only use tx; with a single-connection
// pool (in-memory SQLite) touching bdb inside fn would block.
func WithTx(ctx context.Context, bdb *bun.DB, fn func(ctx context.Context, tx bun.Tx) error) error {
	return bdb.RunInTx(ctx, nil, fn)
}
