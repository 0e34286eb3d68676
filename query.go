package sealite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Querier runs statements. It is implemented by *DB and *Tx, and also by
// *sql.DB, *sql.Tx and *sql.Conn.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

var (
	_ Querier = (*DB)(nil)
	_ Querier = (*Tx)(nil)
)

// Result describes the outcome of a statement that returns no rows.
type Result struct {
	LastInsertID int64
	RowsAffected int64
}

// Execute runs a statement with bound parameters. Parameters may be
// positional (?, ?NNN) or sql.Named values.
func Execute(
	ctx context.Context, q Querier, query string, args ...any,
) (Result, error) {
	result, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return Result{}, fmt.Errorf("failed to execute query: %w", translateError(err))
	}
	return newResult(result)
}

func newResult(result sql.Result) (Result, error) {
	lastInsertID, err := result.LastInsertId()
	if err != nil {
		return Result{}, fmt.Errorf("failed to get last insert id: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return Result{}, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return Result{
		LastInsertID: lastInsertID,
		RowsAffected: rowsAffected,
	}, nil
}

// ExecuteValue returns the first column of the first row. Other columns and
// rows are ignored. It returns ErrNoRows when there are no rows.
func ExecuteValue[T any](
	ctx context.Context, q Querier, query string, args ...any,
) (T, error) {
	var value T

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return value, fmt.Errorf("failed to execute query: %w", translateError(err))
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return value, fmt.Errorf("failed to get columns: %w", err)
	}
	if len(columns) == 0 {
		return value, fmt.Errorf("%w: query returned no columns", ErrColumnMismatch)
	}

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return value, fmt.Errorf("failed to read row: %w", translateError(err))
		}
		return value, ErrNoRows
	}

	dest := make([]any, len(columns))
	dest[0] = &value
	for i := 1; i < len(dest); i++ {
		dest[i] = new(any)
	}
	if err := rows.Scan(dest...); err != nil {
		return value, fmt.Errorf("failed to scan value: %w", err)
	}

	return value, nil
}

// ExecuteRow maps the first row to T. It returns ErrNoRows when there are
// no rows.
func ExecuteRow[T any](
	ctx context.Context, q Querier, query string, args ...any,
) (T, error) {
	cursor, err := ExecuteCursor[T](ctx, q, query, args...)
	if err != nil {
		var zero T
		return zero, err
	}
	return cursor.first()
}

// ExecuteRows maps every row to T.
func ExecuteRows[T any](
	ctx context.Context, q Querier, query string, args ...any,
) ([]T, error) {
	cursor, err := ExecuteCursor[T](ctx, q, query, args...)
	if err != nil {
		return nil, err
	}
	return cursor.collect()
}

// ExecuteCursor runs a query and returns a cursor over its rows mapped to T.
// The cursor must be closed unless it is drained.
func ExecuteCursor[T any](
	ctx context.Context, q Querier, query string, args ...any,
) (*Cursor[T], error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", translateError(err))
	}
	return newCursor[T](rows)
}

// Table is a result whose shape is only known at run time.
type Table struct {
	Columns []string
	// Types holds the lowercase declared type of each column, inferred from
	// the first row for expressions without one.
	Types []string
	Rows  [][]any
}

// QueryTable runs a query and loads the whole result.
func QueryTable(
	ctx context.Context, q Querier, query string, args ...any,
) (*Table, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", translateError(err))
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	types, err := declaredTypes(rows)
	if err != nil {
		return nil, err
	}

	table := &Table{
		Columns: columns,
		Types:   types,
		Rows:    [][]any{},
	}

	for rows.Next() {
		row := make([]any, len(columns))
		scans := make([]any, len(columns))
		for i := range scans {
			scans[i] = &row[i]
		}

		if err := rows.Scan(scans...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		if len(table.Rows) == 0 {
			inferTypes(table.Types, row)
		}
		table.Rows = append(table.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", translateError(err))
	}

	return table, nil
}

// declaredTypes returns the lowercase declared type of each column, empty
// for expressions.
func declaredTypes(rows *sql.Rows) ([]string, error) {
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to get column types: %w", err)
	}

	typeNames := make([]string, len(types))
	for i, t := range types {
		typeNames[i] = strings.ToLower(t.DatabaseTypeName())
	}
	return typeNames, nil
}

// inferTypes fills the empty type names from the values of a row following
// https://www.sqlite.org/datatype3.html.
func inferTypes(typeNames []string, row []any) {
	for i := range typeNames {
		if typeNames[i] != "" || i >= len(row) {
			continue
		}

		switch row[i].(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			typeNames[i] = "integer"
		case float32, float64:
			typeNames[i] = "real"
		case bool:
			typeNames[i] = "boolean"
		case []byte:
			typeNames[i] = "blob"
		case string:
			typeNames[i] = "text"
		}
	}
}
