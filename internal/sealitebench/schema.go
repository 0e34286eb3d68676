package sealitebench

import (
	"context"

	"github.com/sealite/sealite"
)

// benchUser is a row of the users table.
type benchUser struct {
	ID      int64 `db:"id"`
	Created int64 `db:"created"`
	Email   string
	Active  bool
}

// recreateSchema drops all tables and recreates them.
func recreateSchema(ctx context.Context, db *sealite.DB) error {
	stmts := []string{
		`DROP TABLE IF EXISTS blobs`,
		`DROP TABLE IF EXISTS users`,

		`CREATE TABLE users (
			id INTEGER PRIMARY KEY NOT NULL,
			created INTEGER NOT NULL,
			email TEXT NOT NULL,
			active INTEGER NOT NULL
		)`,
		`CREATE INDEX users_created ON users(created)`,

		`CREATE TABLE blobs (
			id INTEGER PRIMARY KEY NOT NULL,
			created INTEGER NOT NULL,
			data BLOB NOT NULL
		)`,
	}

	for _, s := range stmts {
		if _, err := sealite.Execute(ctx, db, s); err != nil {
			return err
		}
	}

	return nil
}
