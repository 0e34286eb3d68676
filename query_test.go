package sealite

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type user struct {
	ID    int64  `db:"id"`
	Name  string `db:"name"`
	Email string
}

func newUsersDB(t *testing.T) *DB {
	t.Helper()
	ctx := context.Background()
	db := newMemoryDB(t)

	_, err := Execute(ctx, db, `
		CREATE TABLE users (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT
		)
	`)
	require.NoError(t, err)

	for _, name := range []string{"ana", "bob", "cid"} {
		_, err := Execute(ctx, db,
			"INSERT INTO users (name, email) VALUES (?, ?)", name, name+"@example.com",
		)
		require.NoError(t, err)
	}

	return db
}

func TestExecute(t *testing.T) {
	ctx := context.Background()
	db := newUsersDB(t)

	t.Run("Result", func(t *testing.T) {
		result, err := Execute(ctx, db, "INSERT INTO users (name) VALUES (?)", "dan")
		require.NoError(t, err)
		assert.EqualValues(t, 4, result.LastInsertID)
		assert.EqualValues(t, 1, result.RowsAffected)

		result, err = Execute(ctx, db, "UPDATE users SET email = NULL WHERE id > ?", 2)
		require.NoError(t, err)
		assert.EqualValues(t, 2, result.RowsAffected)
	})

	t.Run("NumberedParameters", func(t *testing.T) {
		name, err := ExecuteValue[string](ctx, db,
			"SELECT name FROM users WHERE id = ?2 AND name != ?1", "zzz", 1,
		)
		require.NoError(t, err)
		assert.Equal(t, "ana", name)
	})

	t.Run("NamedParameters", func(t *testing.T) {
		name, err := ExecuteValue[string](ctx, db,
			"SELECT name FROM users WHERE id = :id", sql.Named("id", 2),
		)
		require.NoError(t, err)
		assert.Equal(t, "bob", name)
	})

	t.Run("SyntaxError", func(t *testing.T) {
		_, err := Execute(ctx, db, "INSERT INTO nowhere VALUES (1)")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrWrongPassword)
	})
}

func TestExecuteValue(t *testing.T) {
	ctx := context.Background()
	db := newUsersDB(t)

	count, err := ExecuteValue[int](ctx, db, "SELECT COUNT(*) FROM users")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	name, err := ExecuteValue[string](ctx, db, "SELECT name, email FROM users ORDER BY id")
	require.NoError(t, err)
	assert.Equal(t, "ana", name)

	_, err = ExecuteValue[string](ctx, db, "SELECT name FROM users WHERE id = 99")
	assert.ErrorIs(t, err, ErrNoRows)

	var email sql.NullString
	email, err = ExecuteValue[sql.NullString](ctx, db, "SELECT NULL")
	require.NoError(t, err)
	assert.False(t, email.Valid)

	blob := []byte{0, 1, 2, 255}
	got, err := ExecuteValue[[]byte](ctx, db, "SELECT ?", blob)
	require.NoError(t, err)
	assert.Equal(t, blob, got)
}

func TestExecuteRow(t *testing.T) {
	ctx := context.Background()
	db := newUsersDB(t)

	u, err := ExecuteRow[user](ctx, db, "SELECT id, name, email FROM users WHERE id = ?", 2)
	require.NoError(t, err)
	assert.Equal(t, user{ID: 2, Name: "bob", Email: "bob@example.com"}, u)

	_, err = ExecuteRow[user](ctx, db, "SELECT id, name, email FROM users WHERE id = ?", 99)
	assert.ErrorIs(t, err, ErrNoRows)

	_, err = ExecuteRow[user](ctx, db, "SELECT id, name, 1 AS extra FROM users")
	assert.ErrorIs(t, err, ErrColumnMismatch)
}

func TestExecuteRows(t *testing.T) {
	ctx := context.Background()
	db := newUsersDB(t)

	users, err := ExecuteRows[user](ctx, db, "SELECT id, name, email FROM users ORDER BY id")
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, "cid", users[2].Name)

	names, err := ExecuteRows[string](ctx, db, "SELECT name FROM users WHERE id > 5")
	require.NoError(t, err)
	assert.Empty(t, names)
	assert.NotNil(t, names)

	rows, err := ExecuteRows[[]any](ctx, db, "SELECT id, name FROM users ORDER BY id LIMIT 1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Len(t, rows[0], 2)
	assert.EqualValues(t, 1, rows[0][0])
}

func TestCursor(t *testing.T) {
	ctx := context.Background()
	db := newUsersDB(t)

	t.Run("Next", func(t *testing.T) {
		cursor, err := ExecuteCursor[user](ctx, db, "SELECT id, name, email FROM users ORDER BY id")
		require.NoError(t, err)
		defer cursor.Close()

		names := []string{}
		for cursor.Next() {
			names = append(names, cursor.Value().Name)
		}
		require.NoError(t, cursor.Err())
		assert.Equal(t, []string{"ana", "bob", "cid"}, names)
		assert.False(t, cursor.Next())
		assert.NoError(t, cursor.Close())
	})

	t.Run("All", func(t *testing.T) {
		cursor, err := ExecuteCursor[int64](ctx, db, "SELECT id FROM users ORDER BY id")
		require.NoError(t, err)

		ids := []int64{}
		for id, err := range cursor.All() {
			require.NoError(t, err)
			ids = append(ids, id)
		}
		assert.Equal(t, []int64{1, 2, 3}, ids)
	})

	t.Run("AllBreak", func(t *testing.T) {
		cursor, err := ExecuteCursor[int64](ctx, db, "SELECT id FROM users ORDER BY id")
		require.NoError(t, err)

		for id := range cursor.All() {
			assert.EqualValues(t, 1, id)
			break
		}
		assert.False(t, cursor.Next())

		// The single in-memory connection is free again.
		count, err := ExecuteValue[int](ctx, db, "SELECT COUNT(*) FROM users")
		require.NoError(t, err)
		assert.Equal(t, 3, count)
	})

	t.Run("ScanError", func(t *testing.T) {
		cursor, err := ExecuteCursor[int64](ctx, db, "SELECT name FROM users ORDER BY id")
		require.NoError(t, err)

		var lastErr error
		for _, err := range cursor.All() {
			lastErr = err
		}
		assert.Error(t, lastErr)
	})

	t.Run("ColumnMismatch", func(t *testing.T) {
		_, err := ExecuteCursor[int64](ctx, db, "SELECT id, name FROM users")
		assert.ErrorIs(t, err, ErrColumnMismatch)

		count, err := ExecuteValue[int](ctx, db, "SELECT COUNT(*) FROM users")
		require.NoError(t, err)
		assert.Equal(t, 3, count)
	})
}

func TestStmt(t *testing.T) {
	ctx := context.Background()
	db := newUsersDB(t)

	insert, err := Prepare[any](ctx, db, "INSERT INTO users (name) VALUES (?)")
	require.NoError(t, err)
	for range 3 {
		_, err := insert.Execute(ctx, uuid.NewString())
		require.NoError(t, err)
	}
	require.NoError(t, insert.Close())

	byID, err := Prepare[user](ctx, db, "SELECT id, name, email FROM users WHERE id = ?")
	require.NoError(t, err)
	defer byID.Close()

	u, err := byID.Row(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "ana", u.Name)

	_, err = byID.Row(ctx, 100)
	assert.ErrorIs(t, err, ErrNoRows)

	ids, err := Prepare[int64](ctx, db, "SELECT id FROM users WHERE id > ? ORDER BY id")
	require.NoError(t, err)
	defer ids.Close()

	got, err := ids.Rows(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, []int64{5, 6}, got)

	cursor, err := ids.Cursor(ctx, 5)
	require.NoError(t, err)
	require.True(t, cursor.Next())
	assert.EqualValues(t, 6, cursor.Value())
	assert.False(t, cursor.Next())
	assert.NoError(t, cursor.Err())

	// Engines may defer parsing to the first step.
	bad, err := Prepare[int64](ctx, db, "SELEKT 1")
	if err == nil {
		defer bad.Close()
		_, err = bad.Row(ctx)
	}
	assert.Error(t, err)
}

func TestQueryTable(t *testing.T) {
	ctx := context.Background()
	db := newUsersDB(t)

	table, err := QueryTable(ctx, db, "SELECT id, name, 1.5 AS ratio FROM users ORDER BY id")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name", "ratio"}, table.Columns)
	assert.Equal(t, []string{"integer", "text", "real"}, table.Types)
	require.Len(t, table.Rows, 3)
	assert.EqualValues(t, 1, table.Rows[0][0])

	empty, err := QueryTable(ctx, db, "SELECT id, name FROM users WHERE id < 0")
	require.NoError(t, err)
	assert.Equal(t, []string{"integer", "text"}, empty.Types)
	assert.Empty(t, empty.Rows)
}

func TestTx(t *testing.T) {
	ctx := context.Background()

	count := func(t *testing.T, db *DB) int {
		t.Helper()
		n, err := ExecuteValue[int](ctx, db, "SELECT COUNT(*) FROM users")
		require.NoError(t, err)
		return n
	}

	t.Run("Commit", func(t *testing.T) {
		db := newUsersDB(t)
		tx, err := db.Begin(ctx)
		require.NoError(t, err)

		_, err = Execute(ctx, tx, "INSERT INTO users (name) VALUES ('eve')")
		require.NoError(t, err)
		n, err := ExecuteValue[int](ctx, tx, "SELECT COUNT(*) FROM users")
		require.NoError(t, err)
		assert.Equal(t, 4, n)

		require.NoError(t, tx.Commit())
		assert.Equal(t, 4, count(t, db))
		assert.Error(t, tx.Commit())
	})

	t.Run("Rollback", func(t *testing.T) {
		db := newUsersDB(t)
		tx, err := db.Begin(ctx)
		require.NoError(t, err)

		_, err = Execute(ctx, tx, "DELETE FROM users")
		require.NoError(t, err)
		require.NoError(t, tx.Rollback())
		assert.Equal(t, 3, count(t, db))
	})

	t.Run("WithTxError", func(t *testing.T) {
		db := newUsersDB(t)
		boom := errors.New("boom")

		err := db.WithTx(ctx, func(tx *Tx) error {
			if _, err := Execute(ctx, tx, "DELETE FROM users"); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 3, count(t, db))
	})

	t.Run("WithTxPanic", func(t *testing.T) {
		db := newUsersDB(t)

		assert.Panics(t, func() {
			_ = db.WithTx(ctx, func(tx *Tx) error {
				_, _ = Execute(ctx, tx, "DELETE FROM users")
				panic("boom")
			})
		})
		assert.Equal(t, 3, count(t, db))
	})

	t.Run("WithTxCommit", func(t *testing.T) {
		db := newUsersDB(t)

		err := db.WithTx(ctx, func(tx *Tx) error {
			stmt, err := Prepare[any](ctx, tx, "INSERT INTO users (name) VALUES (?)")
			if err != nil {
				return err
			}
			defer stmt.Close()
			_, err = stmt.Execute(ctx, "fay")
			return err
		})
		require.NoError(t, err)
		assert.Equal(t, 4, count(t, db))
	})
}
