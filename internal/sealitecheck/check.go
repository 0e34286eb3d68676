package sealitecheck

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/orsinium-labs/enum"
	"github.com/sealite/sealite"
	"github.com/sealite/sealite/internal/cipher"
	"github.com/sealite/sealite/internal/log"
	"github.com/sealite/sealite/internal/sqlitedrv"
)

const (
	checkPassword = "test_password"
	wrongPassword = "wrong_password"
	checkKdfIter  = 10000
	// honoredKdfIter differs from every engine default.
	honoredKdfIter = 50000
)

// status is the outcome of a check.
type status enum.Member[string]

var (
	statusPassed  = status{Value: "passed"}
	statusFailed  = status{Value: "failed"}
	statusSkipped = status{Value: "skipped"}

	statuses = enum.New(statusPassed, statusFailed, statusSkipped)
)

// errSkipped marks a check the engine cannot run.
var errSkipped = errors.New("skipped")

func skip(reason string) error {
	return fmt.Errorf("%w: %s", errSkipped, reason)
}

// checkResult stores the outcome of a check.
type checkResult struct {
	Name     string
	Status   status
	Err      error
	Duration time.Duration
}

// checker runs the engine checks on database files under dir.
type checker struct {
	dir    string
	logger log.Logger
}

func newChecker(dir string, logger log.Logger) *checker {
	return &checker{
		dir:    dir,
		logger: logger,
	}
}

// run runs every check in order: one round trip per cipher name, the
// default cipher, then the KDF iteration count.
func (c *checker) run(ctx context.Context) []checkResult {
	results := []checkResult{}

	for _, member := range cipher.Ciphers.Members() {
		name := member.Value
		results = append(results, c.runCheck(ctx, "cipher "+name, func(ctx context.Context) error {
			return c.checkCipher(ctx, name)
		}))
	}

	results = append(results, c.runCheck(ctx, "default cipher", c.checkDefaultCipher))
	results = append(results, c.runCheck(ctx, "kdf iterations", c.checkKdfIter))

	return results
}

func (c *checker) runCheck(
	ctx context.Context, name string, check func(ctx context.Context) error,
) checkResult {
	start := time.Now()
	err := check(ctx)
	res := checkResult{
		Name:     name,
		Status:   statusPassed,
		Err:      err,
		Duration: time.Since(start),
	}

	switch {
	case errors.Is(err, errSkipped):
		res.Status = statusSkipped
	case err != nil:
		res.Status = statusFailed
	}

	kv := log.KV{"check": name, "status": res.Status.Value, "duration": res.Duration.String()}
	if err != nil {
		kv["error"] = err.Error()
	}
	c.logger.InfoNs(log.NsCheck, "check finished", kv)

	return res
}

// checkCipher creates a keyed database with the cipher, reopens it to read
// the row back, and makes sure a wrong password is rejected.
func (c *checker) checkCipher(ctx context.Context, name string) error {
	if !sqlitedrv.EncryptionSupported {
		return skip("encryption is not available in this build")
	}
	if !sqlitedrv.SupportsCipher(name) {
		return skip(fmt.Sprintf("not supported by the %s engine", sqlitedrv.EngineName))
	}

	path := c.path("test_" + name)
	defer c.remove(path)

	err := c.withDB(ctx, path, name, checkKdfIter, checkPassword, func(db *sealite.DB) error {
		if _, err := sealite.Execute(ctx, db, `
			CREATE TABLE test_table (
				id INTEGER PRIMARY KEY,
				data TEXT
			)
		`); err != nil {
			return err
		}
		_, err := sealite.Execute(ctx, db, "INSERT INTO test_table (data) VALUES (?)", "Hello "+name)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}

	err = c.withDB(ctx, path, name, checkKdfIter, checkPassword, func(db *sealite.DB) error {
		data, err := sealite.ExecuteValue[string](ctx, db, "SELECT data FROM test_table WHERE id = 1")
		if err != nil {
			return err
		}
		if data != "Hello "+name {
			return fmt.Errorf("read %q back, want %q", data, "Hello "+name)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to reopen database: %w", err)
	}

	return c.expectWrongPassword(ctx, path, name, checkKdfIter, wrongPassword)
}

// checkDefaultCipher round trips a database keyed without choosing a
// cipher.
func (c *checker) checkDefaultCipher(ctx context.Context) error {
	if !sqlitedrv.EncryptionSupported {
		return skip("encryption is not available in this build")
	}

	path := c.path("test_default")
	defer c.remove(path)

	err := c.withDB(ctx, path, "", 0, "default_password", func(db *sealite.DB) error {
		if _, err := sealite.Execute(ctx, db, "CREATE TABLE test (id INTEGER)"); err != nil {
			return err
		}
		_, err := sealite.Execute(ctx, db, "INSERT INTO test VALUES (1)")
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}

	return c.withDB(ctx, path, "", 0, "default_password", func(db *sealite.DB) error {
		count, err := sealite.ExecuteValue[int](ctx, db, "SELECT COUNT(*) FROM test")
		if err != nil {
			return err
		}
		if count != 1 {
			return fmt.Errorf("counted %d rows, want 1", count)
		}
		return nil
	})
}

// checkKdfIter creates a database with a non-default iteration count, then
// checks the same count opens it and the default one does not.
func (c *checker) checkKdfIter(ctx context.Context) error {
	if !sqlitedrv.EncryptionSupported {
		return skip("encryption is not available in this build")
	}

	path := c.path("test_kdf")
	defer c.remove(path)

	err := c.withDB(ctx, path, "", honoredKdfIter, "kdf_test", func(db *sealite.DB) error {
		_, err := sealite.Execute(ctx, db, "CREATE TABLE test (id INTEGER)")
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}

	err = c.withDB(ctx, path, "", honoredKdfIter, "kdf_test", func(db *sealite.DB) error {
		_, err := sealite.ExecuteValue[int](ctx, db, "SELECT COUNT(*) FROM test")
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to reopen with the same iterations: %w", err)
	}

	if err := c.expectWrongPassword(ctx, path, "", 0, "kdf_test"); err != nil {
		return fmt.Errorf("default iterations: %w", err)
	}
	return nil
}

// withDB opens path, applies the cipher settings and the password one by
// one, runs fn and closes the database. An empty cipher or zero kdfIter
// keeps the engine default.
func (c *checker) withDB(
	ctx context.Context, path string, cipherName string, kdfIter int, password string,
	fn func(db *sealite.DB) error,
) (err error) {
	db, err := sealite.OpenContext(ctx, path, sealite.WithLogger(c.logger))
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, db.Close())
	}()

	if cipherName != "" {
		if err := db.SetCipher(cipherName); err != nil {
			return err
		}
	}
	if kdfIter != 0 {
		if err := db.SetKdfIter(kdfIter); err != nil {
			return err
		}
	}
	if err := db.SetPassword(ctx, password); err != nil {
		return err
	}

	return fn(db)
}

// expectWrongPassword checks that opening path with the given settings is
// rejected as a wrong password.
func (c *checker) expectWrongPassword(
	ctx context.Context, path string, cipherName string, kdfIter int, password string,
) error {
	err := c.withDB(ctx, path, cipherName, kdfIter, password, func(db *sealite.DB) error {
		_, err := sealite.ExecuteValue[int](ctx, db, "SELECT COUNT(*) FROM sqlite_master")
		return err
	})
	if err == nil {
		return errors.New("a wrong key opened the database")
	}
	if !errors.Is(err, sealite.ErrWrongPassword) {
		return fmt.Errorf("a wrong key failed with an unexpected error: %w", err)
	}
	return nil
}

func (c *checker) path(name string) string {
	return filepath.Join(c.dir, name+".db")
}

// remove deletes the database file and its journals.
func (c *checker) remove(path string) {
	for _, suffix := range []string{"", "-wal", "-shm", "-journal"} {
		_ = os.Remove(path + suffix)
	}
}
