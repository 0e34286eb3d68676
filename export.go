package sealite

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/sealite/sealite/internal/cipher"
	"github.com/sealite/sealite/internal/log"
	"github.com/sealite/sealite/internal/sqlitedrv"
)

// exportSchema is the name the destination is attached under.
const exportSchema = "sealite_export"

// EncryptTo writes an encrypted copy of the database to dst, keyed with key
// and the current cipher settings. The source may be plaintext or
// encrypted; dst must not exist.
func (db *DB) EncryptTo(ctx context.Context, dst string, key Key) error {
	if key.IsZero() {
		return ErrEmptyPassword
	}

	settings := db.Settings()
	if settings.Cipher.IsZero() {
		settings.Cipher = defaultCipher()
	}

	if err := db.export(ctx, dst, key, settings.Pragmas(exportSchema)); err != nil {
		return err
	}

	if err := os.Chmod(dst, 0o600); err != nil {
		return fmt.Errorf("failed to set file permissions: %w", err)
	}
	return nil
}

// DecryptTo writes a plaintext copy of an encrypted database to dst, which
// must not exist.
func (db *DB) DecryptTo(ctx context.Context, dst string) error {
	if !db.Encrypted() {
		return ErrNotEncrypted
	}
	return db.export(ctx, dst, cipher.Key{}, nil)
}

// export attaches dst with key (empty for plaintext), applies the schema
// pragmas and copies schema and data with sqlcipher_export, all over one
// connection.
func (db *DB) export(
	ctx context.Context, dst string, key cipher.Key, pragmas []string,
) error {
	if !sqlitedrv.EncryptionSupported {
		return ErrEncryptionUnavailable
	}
	if dst == "" || dst == MemoryPath {
		return errors.New("destination must be a file path")
	}
	if _, err := os.Stat(dst); err == nil {
		return fmt.Errorf("%w: %s", ErrDestinationExists, dst)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to stat destination: %w", err)
	}

	pool, err := db.acquire()
	if err != nil {
		return err
	}

	conn, err := pool.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", translateError(err))
	}
	defer conn.Close()

	keyLiteral := "''"
	if !key.IsZero() {
		keyLiteral = key.Literal()
	}

	attach := fmt.Sprintf(
		"ATTACH DATABASE %s AS %s KEY %s", quoteLiteral(dst), exportSchema, keyLiteral,
	)
	if _, err := conn.ExecContext(ctx, attach); err != nil {
		return fmt.Errorf("failed to attach destination: %w", translateError(err))
	}

	exportErr := func() error {
		for i, pragma := range pragmas {
			if _, err := conn.ExecContext(ctx, pragma); err != nil {
				return fmt.Errorf("failed to configure destination, pragma #%d: %w", i+1, err)
			}
		}
		_, err := conn.ExecContext(ctx, fmt.Sprintf("SELECT sqlcipher_export('%s')", exportSchema))
		if err != nil {
			return fmt.Errorf("failed to export database: %w", translateError(err))
		}
		return nil
	}()

	_, detachErr := conn.ExecContext(ctx, "DETACH DATABASE "+exportSchema)
	if exportErr != nil {
		_ = os.Remove(dst)
		return exportErr
	}
	if detachErr != nil {
		return fmt.Errorf("failed to detach destination: %w", detachErr)
	}

	db.logger.InfoNs(log.NsCipher, "database exported", log.KV{
		"path":      db.path,
		"dst":       dst,
		"encrypted": !key.IsZero(),
	})
	return nil
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
