package sealite

import (
	"database/sql"
	"fmt"
	"iter"
)

// Cursor iterates over the rows of a query mapped to T.
//
//	cursor, err := sealite.ExecuteCursor[user](ctx, db, "SELECT * FROM users")
//	if err != nil { ... }
//	defer cursor.Close()
//	for cursor.Next() {
//		u := cursor.Value()
//	}
//	if err := cursor.Err(); err != nil { ... }
type Cursor[T any] struct {
	rows   *sql.Rows
	scan   scanFunc[T]
	value  T
	err    error
	closed bool
}

func newCursor[T any](rows *sql.Rows) (*Cursor[T], error) {
	columns, err := rows.Columns()
	if err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	scan, err := newScanFunc[T](columns)
	if err != nil {
		_ = rows.Close()
		return nil, err
	}

	return &Cursor[T]{
		rows: rows,
		scan: scan,
	}, nil
}

// Next advances to the next row, returning false when there are no more
// rows or an error happened. The cursor closes itself when it returns false.
func (c *Cursor[T]) Next() bool {
	if c.closed {
		return false
	}

	if !c.rows.Next() {
		if err := c.rows.Err(); err != nil {
			c.err = fmt.Errorf("failed to read row: %w", translateError(err))
		}
		_ = c.Close()
		return false
	}

	value, err := c.scan(c.rows)
	if err != nil {
		c.err = fmt.Errorf("failed to scan row: %w", err)
		_ = c.Close()
		return false
	}

	c.value = value
	return true
}

// Value returns the current row.
func (c *Cursor[T]) Value() T {
	return c.value
}

// Err returns the error that stopped the iteration, if any.
func (c *Cursor[T]) Err() error {
	return c.err
}

// Close releases the rows. It is safe to call more than once.
func (c *Cursor[T]) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return c.rows.Close()
}

// All returns an iterator over the remaining rows. An error is yielded
// once, as the last element. The cursor is closed when the loop ends.
func (c *Cursor[T]) All() iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		defer c.Close()

		for c.Next() {
			if !yield(c.value, nil) {
				return
			}
		}
		if c.err != nil {
			var zero T
			yield(zero, c.err)
		}
	}
}

func (c *Cursor[T]) first() (T, error) {
	defer c.Close()

	if !c.Next() {
		var zero T
		if c.err != nil {
			return zero, c.err
		}
		return zero, ErrNoRows
	}
	return c.value, nil
}

func (c *Cursor[T]) collect() ([]T, error) {
	defer c.Close()

	values := []T{}
	for c.Next() {
		values = append(values, c.value)
	}
	if c.err != nil {
		return nil, c.err
	}
	return values, nil
}
