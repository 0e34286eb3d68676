package sealite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/sealite/sealite/internal/cipher"
	"github.com/sealite/sealite/internal/sqlitedrv"
)

var (
	ErrWrongPassword         = errors.New("wrong password or not a database")
	ErrUnsupportedCipher     = errors.New("cipher not supported by the engine")
	ErrEncryptionUnavailable = errors.New("encryption is not available in this build")
	ErrNotEncrypted          = errors.New("database is not encrypted")
	ErrColumnMismatch        = errors.New("result columns do not match destination")
	ErrClosed                = errors.New("database is closed")
	ErrDestinationExists     = errors.New("destination database already exists")
	ErrMemoryNotEmpty        = errors.New("an in-memory database can only be keyed while empty")

	// ErrNoRows is returned when a single row or value was expected and the
	// query returned none. It is the same value as sql.ErrNoRows.
	ErrNoRows = sql.ErrNoRows
)

// Cipher setting errors.
var (
	ErrUnknownCipher        = cipher.ErrUnknownCipher
	ErrUnknownHMACAlgorithm = cipher.ErrUnknownHMACAlgorithm
	ErrUnknownKDFAlgorithm  = cipher.ErrUnknownKDFAlgorithm
	ErrInvalidKdfIter       = cipher.ErrInvalidKdfIter
	ErrInvalidPageSize      = cipher.ErrInvalidPageSize
	ErrInvalidLegacy        = cipher.ErrInvalidLegacy
	ErrEmptyPassword        = cipher.ErrEmptyPassword
	ErrInvalidKey           = cipher.ErrInvalidKey
)

// translateError maps the engine "not a database" error to ErrWrongPassword,
// keeping the engine error in the chain.
func translateError(err error) error {
	if err == nil || errors.Is(err, ErrWrongPassword) {
		return err
	}
	if sqlitedrv.IsNotADatabase(err) {
		return fmt.Errorf("%w: %w", ErrWrongPassword, err)
	}
	return err
}
