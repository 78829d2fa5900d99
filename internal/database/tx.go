package database

import (
	"context"
	"database/sql"
	"fmt"
)

// Transactor runs a function inside a single database transaction.
type Transactor struct {
	db *sql.DB
}

// NewTransactor binds a Transactor to db.
func NewTransactor(db *sql.DB) *Transactor { return &Transactor{db: db} }

// WithTx begins a transaction, calls fn and commits when fn returns nil.
// Any error from fn, or a panic, rolls the transaction back; the
// transaction is released on every exit path.
func (t *Transactor) WithTx(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	committed = true
	return nil
}
