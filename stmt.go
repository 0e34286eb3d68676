package sealite

import (
	"context"
	"database/sql"
	"fmt"
)

// Stmt is a prepared statement whose rows map to T. Use any for statements
// that return no rows.
type Stmt[T any] struct {
	stmt *sql.Stmt
}

// Prepare prepares query for repeated use.
func Prepare[T any](ctx context.Context, q Querier, query string) (*Stmt[T], error) {
	stmt, err := q.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare statement: %w", translateError(err))
	}
	return &Stmt[T]{stmt: stmt}, nil
}

// Execute runs the statement with bound parameters.
func (s *Stmt[T]) Execute(ctx context.Context, args ...any) (Result, error) {
	result, err := s.stmt.ExecContext(ctx, args...)
	if err != nil {
		return Result{}, fmt.Errorf("failed to execute statement: %w", translateError(err))
	}
	return newResult(result)
}

// Row maps the first row to T. It returns ErrNoRows when there are no rows.
func (s *Stmt[T]) Row(ctx context.Context, args ...any) (T, error) {
	cursor, err := s.Cursor(ctx, args...)
	if err != nil {
		var zero T
		return zero, err
	}
	return cursor.first()
}

// Rows maps every row to T.
func (s *Stmt[T]) Rows(ctx context.Context, args ...any) ([]T, error) {
	cursor, err := s.Cursor(ctx, args...)
	if err != nil {
		return nil, err
	}
	return cursor.collect()
}

// Cursor returns a cursor over the rows mapped to T.
func (s *Stmt[T]) Cursor(ctx context.Context, args ...any) (*Cursor[T], error) {
	rows, err := s.stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute statement: %w", translateError(err))
	}
	return newCursor[T](rows)
}

// Close releases the statement.
func (s *Stmt[T]) Close() error {
	return s.stmt.Close()
}
