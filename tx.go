package sealite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sealite/sealite/internal/stats"
)

// Tx is a transaction on a single pooled connection.
type Tx struct {
	tx    *sql.Tx
	stats *stats.DBStats
}

// Begin starts a transaction.
func (db *DB) Begin(ctx context.Context) (*Tx, error) {
	pool, err := db.acquire()
	if err != nil {
		return nil, err
	}

	tx, err := pool.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", translateError(err))
	}

	db.stats.IncBegins()
	return &Tx{tx: tx, stats: db.stats}, nil
}

// WithTx runs fn in a transaction, committing when it returns nil and
// rolling back when it returns an error or panics.
func (db *DB) WithTx(ctx context.Context, fn func(tx *Tx) error) (err error) {
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}

	return tx.Commit()
}

// Commit commits the transaction.
func (tx *Tx) Commit() error {
	if err := tx.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", translateError(err))
	}
	tx.stats.IncCommits()
	return nil
}

// Rollback aborts the transaction.
func (tx *Tx) Rollback() error {
	if err := tx.tx.Rollback(); err != nil {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}
	tx.stats.IncRollbacks()
	return nil
}

// ExecContext runs a statement that returns no rows inside the transaction.
func (tx *Tx) ExecContext(
	ctx context.Context, query string, args ...any,
) (sql.Result, error) {
	result, err := tx.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, translateError(err)
	}
	tx.stats.IncWrites()
	return result, nil
}

// QueryContext runs a statement that returns rows inside the transaction.
func (tx *Tx) QueryContext(
	ctx context.Context, query string, args ...any,
) (*sql.Rows, error) {
	rows, err := tx.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translateError(err)
	}
	tx.stats.IncReads()
	return rows, nil
}

// PrepareContext prepares a statement bound to the transaction.
func (tx *Tx) PrepareContext(ctx context.Context, query string) (*sql.Stmt, error) {
	stmt, err := tx.tx.PrepareContext(ctx, query)
	if err != nil {
		return nil, translateError(err)
	}
	return stmt, nil
}
