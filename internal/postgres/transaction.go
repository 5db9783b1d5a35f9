package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	ierr "github.com/practicedesk/billing/internal/errors"
	"github.com/practicedesk/billing/internal/types"
)

// TxKey is the context key of the running transaction
type TxKey struct{}

// Tx is a running transaction. ID ties its statements together in the logs.
type Tx struct {
	*sqlx.Tx
	ID string
}

// GetTx retrieves the transaction running in ctx, if any
func GetTx(ctx context.Context) (*Tx, bool) {
	tx, ok := ctx.Value(TxKey{}).(*Tx)
	return tx, ok
}

// WithTx runs fn in a transaction and commits when fn succeeds. A call made
// while a transaction is already running in ctx joins it and leaves commit or
// rollback to the outer call.
func (db *DB) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := GetTx(ctx); ok {
		return fn(ctx)
	}

	sqlxTx, err := db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return ierr.WithError(err).
			WithHint("Could not start a database transaction").
			Mark(ierr.ErrDatabase)
	}
	tx := &Tx{Tx: sqlxTx, ID: types.GenerateUUID()}
	ctx = context.WithValue(ctx, TxKey{}, tx)
	db.logger.Debugw("transaction started", "tx_id", tx.ID)

	defer func() {
		if r := recover(); r != nil {
			db.logger.Errorw("panic in transaction", "tx_id", tx.ID, "panic", r)
			_ = tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(ctx); err != nil {
		db.logger.Errorw("transaction rolled back", "tx_id", tx.ID, "error", err)
		if rbErr := tx.Rollback(); rbErr != nil {
			db.logger.Errorw("rollback failed", "tx_id", tx.ID, "error", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return ierr.WithError(err).
			WithHint("Could not commit the database transaction").
			Mark(ierr.ErrDatabase)
	}
	db.logger.Debugw("transaction committed", "tx_id", tx.ID)
	return nil
}
