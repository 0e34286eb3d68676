package cryptoutil

import (
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/matthewhartstonge/argon2"
)

// Argon2MinSaltSize is the smallest salt accepted by Argon2DeriveKey.
const Argon2MinSaltSize = 16

// Argon2DeriveKey derives a key of keyLen bytes from the given password and
// salt using Argon2id with the library default cost parameters. The same
// password and salt always produce the same key.
func Argon2DeriveKey(password string, salt []byte, keyLen uint32) ([]byte, error) {
	if password == "" {
		return nil, errors.New("password must not be empty")
	}
	if len(salt) < Argon2MinSaltSize {
		return nil, fmt.Errorf("salt must be at least %d bytes", Argon2MinSaltSize)
	}
	if keyLen == 0 {
		return nil, errors.New("key length must be greater than zero")
	}

	argon := argon2.DefaultConfig()
	argon.Mode = argon2.ModeArgon2id
	argon.HashLength = keyLen

	raw, err := argon.Hash([]byte(password), salt)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}

	return raw.Hash, nil
}

// NewSalt returns size random bytes.
func NewSalt(size int) ([]byte, error) {
	if size < Argon2MinSaltSize {
		size = Argon2MinSaltSize
	}
	salt := make([]byte, size)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}
