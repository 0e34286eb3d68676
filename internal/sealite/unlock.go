package sealite

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/peterh/liner"
	sealitedb "github.com/sealite/sealite"
	"github.com/sealite/sealite/internal/log"
	"github.com/sealite/sealite/internal/sealite/config"
	"github.com/sealite/sealite/internal/sealite/keystore"
	"github.com/sealite/sealite/internal/sqlitedrv"
)

// passwordSource tells where a password came from.
type passwordSource int

const (
	sourceNone passwordSource = iota
	sourceFlag
	sourceKeyring
	sourcePrompt
)

// unlocker opens the database named in the configuration, finding its
// password and key on the way.
type unlocker struct {
	conf     config.Config
	profile  config.Profile
	resolved config.Resolved
	keystore *keystore.Keystore
	logger   log.Logger
	// prompt reads a password from the terminal without echo.
	prompt func(label string) (string, error)
}

func newUnlocker(conf config.Config, logger log.Logger) (*unlocker, error) {
	profile := config.Profile{}
	if conf.Profile != "" {
		loaded, err := config.LoadProfile(conf.Profile)
		switch {
		case err == nil:
			profile = loaded
		case errors.Is(err, fs.ErrNotExist):
			logger.InfoNs(log.NsShell, "profile not found, starting an empty one", log.KV{
				"profile": conf.Profile,
			})
		default:
			return nil, err
		}
	}

	resolved, err := config.Resolve(conf, profile)
	if err != nil {
		return nil, err
	}

	u := &unlocker{
		conf:     conf,
		profile:  profile,
		resolved: resolved,
		logger:   logger,
		prompt:   terminalPassword,
	}

	if conf.Keyring {
		if conf.Database == sealitedb.MemoryPath {
			logger.WarnNs(log.NsShell, "the keyring is not used for in-memory databases")
		} else {
			ks := keystore.New()
			u.keystore = &ks
		}
	}

	return u, nil
}

// open opens the database, trying the password from the flags, then the
// keyring, then the terminal. A keyring password that does not unlock the
// database falls back to the terminal.
func (u *unlocker) open(ctx context.Context) (*sealitedb.DB, error) {
	encrypted, err := u.encryptedOnDisk()
	if err != nil {
		return nil, err
	}

	password, source, err := u.password(encrypted)
	if err != nil {
		return nil, err
	}
	if encrypted && password == "" {
		return nil, sealitedb.ErrEmptyPassword
	}

	db, err := u.openWith(ctx, password)
	if errors.Is(err, sealitedb.ErrWrongPassword) && source == sourceKeyring {
		u.logger.WarnNs(log.NsShell, "the keyring password did not unlock the database", log.KV{
			"path": u.conf.Database,
		})
		password, err = u.prompt("Password: ")
		if err != nil {
			return nil, fmt.Errorf("failed to read password: %w", err)
		}
		source = sourcePrompt
		db, err = u.openWith(ctx, password)
	}
	if err != nil {
		return nil, err
	}

	if password != "" && u.keystore != nil && source != sourceKeyring {
		if err := u.keystore.Set(u.conf.Database, password); err != nil {
			u.logger.WarnNs(log.NsShell, "failed to save the password in the keyring", log.KV{
				"error": err.Error(),
			})
		}
	}

	return db, nil
}

// password returns the password to open the database with, or "" when it is
// opened in plaintext.
func (u *unlocker) password(encrypted bool) (string, passwordSource, error) {
	if u.conf.Password != "" {
		return u.conf.Password, sourceFlag, nil
	}

	if u.keystore != nil {
		password, found, err := u.keystore.Get(u.conf.Database)
		if err != nil {
			u.logger.WarnNs(log.NsShell, "failed to read the keyring", log.KV{
				"error": err.Error(),
			})
		}
		if found {
			return password, sourceKeyring, nil
		}
	}

	if encrypted || u.conf.AskPassword {
		password, err := u.prompt("Password: ")
		if err != nil {
			return "", sourceNone, fmt.Errorf("failed to read password: %w", err)
		}
		return password, sourcePrompt, nil
	}

	return "", sourceNone, nil
}

func (u *unlocker) openWith(ctx context.Context, password string) (*sealitedb.DB, error) {
	opts := []sealitedb.Option{
		sealitedb.WithSettings(u.resolved.Settings),
		sealitedb.WithReadOnly(u.conf.ReadOnly),
		sealitedb.WithLogger(u.logger),
	}

	if password != "" {
		key, err := u.deriveKey(password)
		if err != nil {
			return nil, err
		}
		opts = append(opts, sealitedb.WithKey(key))
	}

	return sealitedb.OpenContext(ctx, u.conf.Database, opts...)
}

// deriveKey turns a password into a key. With the argon2id kdf the salt
// comes from the profile; the first use generates and saves one.
func (u *unlocker) deriveKey(password string) (sealitedb.Key, error) {
	if u.resolved.KDF != config.KDFArgon2id {
		return sealitedb.Passphrase(password)
	}

	salt, err := u.profile.Salt()
	if err != nil {
		return sealitedb.Key{}, err
	}

	if len(salt) == 0 {
		salt, err = sealitedb.NewSalt()
		if err != nil {
			return sealitedb.Key{}, err
		}

		u.profile.SetSalt(salt)
		u.profile.Cipher.KDF = config.KDFArgon2id
		if err := config.SaveProfile(u.conf.Profile, u.profile); err != nil {
			return sealitedb.Key{}, err
		}
		u.logger.InfoNs(log.NsShell, "argon2id salt saved to the profile", log.KV{
			"profile": u.conf.Profile,
		})
	}

	return sealitedb.DeriveKey(password, salt)
}

// encryptedOnDisk reports whether the database file exists and is
// encrypted.
func (u *unlocker) encryptedOnDisk() (bool, error) {
	if u.conf.Database == sealitedb.MemoryPath {
		return false, nil
	}

	encrypted, err := sqlitedrv.IsEncrypted(u.conf.Database)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return encrypted, err
}

func terminalPassword(label string) (string, error) {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	return line.PasswordPrompt(label)
}
