//go:build !cgo

package sqlitedrv

import (
	"database/sql/driver"
	"errors"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// EncryptionSupported indicates whether the active engine supports page
// encryption. False when built without cgo.
const EncryptionSupported = false

// EngineName is the name of the active engine.
const EngineName = "sqlite"

var supportedCiphers = []string{}

func newEngineDriver() driver.Driver {
	return &sqlite.Driver{}
}

func isNotADatabase(err error) bool {
	var sqliteErr *sqlite.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3.SQLITE_NOTADB
}
