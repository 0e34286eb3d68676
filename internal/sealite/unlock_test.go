package sealite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	sealitedb "github.com/sealite/sealite"
	"github.com/sealite/sealite/internal/log"
	"github.com/sealite/sealite/internal/sealite/config"
	"github.com/sealite/sealite/internal/sqlitedrv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func requireEncryption(t *testing.T) {
	t.Helper()
	if !sqlitedrv.EncryptionSupported {
		t.Skip("the engine of this build cannot encrypt")
	}
}

// newTestUnlocker returns an unlocker whose prompt answers with passwords in
// order and fails when they run out.
func newTestUnlocker(t *testing.T, conf config.Config, passwords ...string) *unlocker {
	t.Helper()

	if conf.LogLevel == "" {
		conf.LogLevel = "error"
	}
	u, err := newUnlocker(conf, log.NewNopLogger())
	require.NoError(t, err)

	u.prompt = func(string) (string, error) {
		if len(passwords) == 0 {
			return "", errors.New("no terminal")
		}
		password := passwords[0]
		passwords = passwords[1:]
		return password, nil
	}
	return u
}

func createEncrypted(t *testing.T, path string, password string) {
	t.Helper()
	db, err := sealitedb.Open(path, sealitedb.WithPassword(password))
	require.NoError(t, err)
	_, err = sealitedb.Execute(context.Background(), db, "CREATE TABLE t (v TEXT)")
	require.NoError(t, err)
	require.NoError(t, db.Close())
}

func TestUnlockPlaintext(t *testing.T) {
	ctx := context.Background()

	t.Run("Memory", func(t *testing.T) {
		u := newTestUnlocker(t, config.Config{Database: sealitedb.MemoryPath, Keyring: true})
		assert.Nil(t, u.keystore)

		db, err := u.open(ctx)
		require.NoError(t, err)
		defer db.Close()
		assert.False(t, db.Encrypted())
	})

	t.Run("NewFileWithoutPassword", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "plain.db")
		u := newTestUnlocker(t, config.Config{Database: path})

		db, err := u.open(ctx)
		require.NoError(t, err)
		defer db.Close()
		assert.False(t, db.Encrypted())
	})
}

func TestUnlockEncrypted(t *testing.T) {
	requireEncryption(t)
	ctx := context.Background()

	t.Run("Flag", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "secret.db")
		createEncrypted(t, path, "pw")

		u := newTestUnlocker(t, config.Config{Database: path, Password: "pw"})
		db, err := u.open(ctx)
		require.NoError(t, err)
		defer db.Close()
		assert.True(t, db.Encrypted())
	})

	t.Run("PromptWhenEncrypted", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "secret.db")
		createEncrypted(t, path, "pw")

		u := newTestUnlocker(t, config.Config{Database: path}, "pw")
		db, err := u.open(ctx)
		require.NoError(t, err)
		require.NoError(t, db.Close())

		u = newTestUnlocker(t, config.Config{Database: path}, "wrong")
		_, err = u.open(ctx)
		assert.ErrorIs(t, err, sealitedb.ErrWrongPassword)

		u = newTestUnlocker(t, config.Config{Database: path}, "")
		_, err = u.open(ctx)
		assert.ErrorIs(t, err, sealitedb.ErrEmptyPassword)
	})

	t.Run("AskPasswordCreatesEncrypted", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "new.db")

		u := newTestUnlocker(t, config.Config{Database: path, AskPassword: true}, "pw")
		db, err := u.open(ctx)
		require.NoError(t, err)
		_, err = sealitedb.Execute(ctx, db, "CREATE TABLE t (v TEXT)")
		require.NoError(t, err)
		require.NoError(t, db.Close())

		encrypted, err := sqlitedrv.IsEncrypted(path)
		require.NoError(t, err)
		assert.True(t, encrypted)
	})

	t.Run("Keyring", func(t *testing.T) {
		keyring.MockInit()
		path := filepath.Join(t.TempDir(), "secret.db")
		createEncrypted(t, path, "pw")

		// The first unlock saves the prompted password.
		u := newTestUnlocker(t, config.Config{Database: path, Keyring: true}, "pw")
		db, err := u.open(ctx)
		require.NoError(t, err)
		require.NoError(t, db.Close())

		saved, found, err := u.keystore.Get(path)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "pw", saved)

		// The second one needs no prompt.
		u = newTestUnlocker(t, config.Config{Database: path, Keyring: true})
		db, err = u.open(ctx)
		require.NoError(t, err)
		require.NoError(t, db.Close())

		// A stale keyring password falls back to the prompt.
		require.NoError(t, u.keystore.Set(path, "stale"))
		u = newTestUnlocker(t, config.Config{Database: path, Keyring: true}, "pw")
		db, err = u.open(ctx)
		require.NoError(t, err)
		require.NoError(t, db.Close())
	})

	t.Run("Argon2idProfile", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "argon.db")
		profilePath := filepath.Join(dir, "profiles", "argon.toml")

		conf := config.Config{Database: path, Password: "pw", KDF: config.KDFArgon2id, Profile: profilePath}
		u := newTestUnlocker(t, conf)
		db, err := u.open(ctx)
		require.NoError(t, err)
		_, err = sealitedb.Execute(ctx, db, "CREATE TABLE t (v TEXT)")
		require.NoError(t, err)
		require.NoError(t, db.Close())

		profile, err := config.LoadProfile(profilePath)
		require.NoError(t, err)
		salt, err := profile.Salt()
		require.NoError(t, err)
		assert.Len(t, salt, 16)
		assert.Equal(t, config.KDFArgon2id, profile.Cipher.KDF)

		// The saved salt derives the same key on the next run.
		u = newTestUnlocker(t, config.Config{Database: path, Password: "pw", Profile: profilePath})
		db, err = u.open(ctx)
		require.NoError(t, err)
		require.NoError(t, db.Close())

		// The engine KDF does not open it.
		u = newTestUnlocker(t, config.Config{Database: path, Password: "pw"})
		_, err = u.open(ctx)
		assert.ErrorIs(t, err, sealitedb.ErrWrongPassword)
	})
}

func TestDeriveKey(t *testing.T) {
	u := newTestUnlocker(t, config.Config{Database: sealitedb.MemoryPath})

	key, err := u.deriveKey("pw")
	require.NoError(t, err)
	assert.False(t, key.IsRaw())

	_, err = u.deriveKey("")
	assert.ErrorIs(t, err, sealitedb.ErrEmptyPassword)
}
