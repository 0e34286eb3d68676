//go:build cgo

package sqlitedrv

import (
	"database/sql/driver"
	"errors"

	sqlite3 "github.com/mutecomm/go-sqlcipher/v4"
)

// EncryptionSupported indicates whether the active engine supports page
// encryption. True when built with cgo.
const EncryptionSupported = true

// EngineName is the name of the active engine.
const EngineName = "sqlcipher"

// SQLCipher implements a single page cipher (AES-256-CBC with HMAC).
var supportedCiphers = []string{"sqlcipher"}

func newEngineDriver() driver.Driver {
	return &sqlite3.SQLiteDriver{}
}

func isNotADatabase(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrNotADB
}
