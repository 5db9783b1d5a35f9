package postgres

import (
	"context"
	_ "embed"
)

// Schema is the DDL of every table the billing engine owns. All statements
// are idempotent so it can be applied on every deploy.
//
//go:embed schema.sql
var Schema string

// Migrate applies Schema inside a transaction
func (db *DB) Migrate(ctx context.Context) error {
	return db.WithTx(ctx, func(ctx context.Context) error {
		_, err := db.GetQuerier(ctx).ExecContext(ctx, Schema)
		return err
	})
}
