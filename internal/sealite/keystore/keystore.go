// Package keystore keeps database passwords in the OS keyring, one entry per
// database file.
package keystore

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/zalando/go-keyring"
)

// ServiceName is the keyring service the passwords are stored under.
const ServiceName = "sealite"

// Keystore stores passwords keyed by the absolute database path.
type Keystore struct {
	service string
}

// New returns a Keystore using ServiceName.
func New() Keystore {
	return Keystore{service: ServiceName}
}

// Get returns the password saved for the database at path. found is false
// when there is none.
func (k Keystore) Get(path string) (password string, found bool, err error) {
	account, err := account(path)
	if err != nil {
		return "", false, err
	}

	password, err = keyring.Get(k.service, account)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read keyring: %w", err)
	}

	return password, true, nil
}

// Set saves the password of the database at path, replacing any previous
// one.
func (k Keystore) Set(path string, password string) error {
	account, err := account(path)
	if err != nil {
		return err
	}

	if err := keyring.Set(k.service, account, password); err != nil {
		return fmt.Errorf("failed to write keyring: %w", err)
	}
	return nil
}

// Delete removes the password of the database at path. Removing a missing
// entry is not an error.
func (k Keystore) Delete(path string) error {
	account, err := account(path)
	if err != nil {
		return err
	}

	err = keyring.Delete(k.service, account)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}
	return nil
}

func account(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve database path: %w", err)
	}
	return abs, nil
}
