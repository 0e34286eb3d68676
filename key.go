package sealite

import (
	"fmt"

	"github.com/sealite/sealite/internal/cipher"
	"github.com/sealite/sealite/internal/util/cryptoutil"
)

type (
	// Key is a database key: a passphrase run through the engine KDF or a
	// raw 32 byte key used as is.
	Key = cipher.Key
	// Settings holds the cipher parameters of a database.
	Settings = cipher.Settings
)

// Passphrase returns a key the engine derives from password.
func Passphrase(password string) (Key, error) {
	return cipher.Passphrase(password)
}

// RawKey returns a key from exactly 32 bytes.
func RawKey(key []byte) (Key, error) {
	return cipher.RawKey(key)
}

// DeriveKey derives a raw key from password and salt with Argon2id. The
// engine KDF is skipped for raw keys, so kdf_iter has no effect on them.
func DeriveKey(password string, salt []byte) (Key, error) {
	if password == "" {
		return Key{}, ErrEmptyPassword
	}
	raw, err := cryptoutil.Argon2DeriveKey(password, salt, cipher.RawKeySize)
	if err != nil {
		return Key{}, fmt.Errorf("failed to derive key: %w", err)
	}
	return cipher.RawKey(raw)
}

// NewSalt returns a random salt for DeriveKey.
func NewSalt() ([]byte, error) {
	return cryptoutil.NewSalt(cryptoutil.Argon2MinSaltSize)
}
