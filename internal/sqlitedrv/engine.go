package sqlitedrv

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
)

// plaintextHeader starts every unencrypted database file.
var plaintextHeader = []byte("SQLite format 3\x00")

// SupportedCiphers returns the cipher names the active engine implements.
// The first one is the engine default.
func SupportedCiphers() []string {
	return slices.Clone(supportedCiphers)
}

// SupportsCipher reports whether the active engine implements the cipher.
func SupportsCipher(name string) bool {
	return slices.Contains(supportedCiphers, name)
}

// DefaultCipher returns the cipher used when none is chosen, or "" when the
// engine cannot encrypt.
func DefaultCipher() string {
	if len(supportedCiphers) == 0 {
		return ""
	}
	return supportedCiphers[0]
}

// IsNotADatabase reports whether err is the engine telling that the file
// could not be read as a database, which for a keyed connection means the
// key is wrong.
func IsNotADatabase(err error) bool {
	if err == nil {
		return false
	}
	if isNotADatabase(err) {
		return true
	}
	return strings.Contains(err.Error(), "file is not a database")
}

// IsEncrypted reports whether the database file at path is encrypted, that
// is, it has content but does not start with the plaintext header. Empty
// files are not encrypted yet.
func IsEncrypted(path string) (bool, error) {
	file, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("failed to open database file: %w", err)
	}
	defer file.Close()

	header := make([]byte, len(plaintextHeader))
	if _, err := io.ReadFull(file, header); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read database header: %w", err)
	}

	return !bytes.Equal(header, plaintextHeader), nil
}
