package sealite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/sealite/sealite/internal/cipher"
	"github.com/sealite/sealite/internal/log"
	"github.com/sealite/sealite/internal/sqlitedrv"
	"github.com/sealite/sealite/internal/stats"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = sqlitedrv.MemoryPath

type (
	// Stats is a point in time copy of the statement counters of a handle.
	Stats = stats.Snapshot
	// Stat holds the counters of one minute or the totals.
	Stat = stats.Stat
	// MinuteStat holds the counters of one minute.
	MinuteStat = stats.MinuteStat
)

// DB is a handle to a database file. It is safe for concurrent use.
//
// Every pooled connection is keyed and configured as soon as it is opened,
// so changing the key or the cipher settings rebuilds the pool.
type DB struct {
	mu       sync.RWMutex
	path     string
	opts     options
	settings cipher.Settings
	key      cipher.Key
	pool     *sql.DB
	stats    *stats.DBStats
	logger   log.Logger
	closed   bool
}

// Open opens the database at path, creating it if missing. See OpenContext.
func Open(path string, opts ...Option) (*DB, error) {
	return OpenContext(context.Background(), path, opts...)
}

// OpenContext opens the database at path, creating it if missing.
//
// When the options carry a key the database is keyed and the key verified
// before returning. Without a key, an existing plaintext file is verified
// while a new or encrypted one is left for SetPassword or SetKey.
func OpenContext(ctx context.Context, path string, opts ...Option) (*DB, error) {
	if path == "" {
		return nil, errors.New("database path is required")
	}

	o := defaultOptions()
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, err
		}
	}
	if err := o.settings.Validate(); err != nil {
		return nil, err
	}
	if err := checkCipher(o.settings.Cipher); err != nil {
		return nil, err
	}

	if !o.key.IsZero() {
		if !sqlitedrv.EncryptionSupported {
			return nil, ErrEncryptionUnavailable
		}
		if o.settings.Cipher.IsZero() {
			o.settings.Cipher = defaultCipher()
		}
	}

	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db := &DB{
		path:     path,
		opts:     o,
		settings: o.settings,
		key:      o.key,
		logger:   o.logger,
	}

	verify, err := db.shouldVerify()
	if err != nil {
		return nil, err
	}

	pool, err := db.openPool(ctx, db.key, db.settings, verify)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.pool = pool
	db.stats = stats.NewDBStats()
	if db.Encrypted() {
		db.securePermissions()
	}

	db.logger.InfoNs(log.NsDatabase, "database opened", log.KV{
		"path":      path,
		"engine":    sqlitedrv.EngineName,
		"encrypted": db.Encrypted(),
		"readOnly":  o.readOnly,
	})

	return db, nil
}

// IsOpen reports whether the handle has not been closed.
func (db *DB) IsOpen() bool {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return !db.closed
}

// Path returns the path the database was opened with.
func (db *DB) Path() string {
	return db.path
}

// Close closes the connection pool. Calling it more than once is a no-op.
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.closed {
		return nil
	}
	db.closed = true
	db.stats.Close()

	if err := db.pool.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	db.logger.InfoNs(log.NsDatabase, "database closed", log.KV{"path": db.path})
	return nil
}

// SetCipher selects the page cipher used by the next SetPassword or SetKey.
func (db *DB) SetCipher(name string) error {
	c, err := cipher.ParseCipher(name)
	if err != nil {
		return err
	}
	if err := checkCipher(c); err != nil {
		return err
	}
	return db.updateSettings(func(s *cipher.Settings) { s.Cipher = c })
}

// SetKdfIter sets the key derivation iterations used by the next
// SetPassword or SetKey.
func (db *DB) SetKdfIter(iterations int) error {
	if iterations < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidKdfIter, iterations)
	}
	return db.updateSettings(func(s *cipher.Settings) { s.KdfIter = iterations })
}

// SetPageSize sets the encrypted page size used by the next SetPassword or
// SetKey. Zero restores the engine default.
func (db *DB) SetPageSize(size int) error {
	if err := (cipher.Settings{PageSize: size}).Validate(); err != nil {
		return err
	}
	return db.updateSettings(func(s *cipher.Settings) { s.PageSize = size })
}

// SetLegacy sets the compatibility level used by the next SetPassword or
// SetKey. Zero restores the engine default.
func (db *DB) SetLegacy(level int) error {
	if err := (cipher.Settings{Legacy: level}).Validate(); err != nil {
		return err
	}
	return db.updateSettings(func(s *cipher.Settings) { s.Legacy = level })
}

// SetSettings replaces every cipher setting used by the next SetPassword or
// SetKey.
func (db *DB) SetSettings(settings Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	if err := checkCipher(settings.Cipher); err != nil {
		return err
	}
	return db.updateSettings(func(s *cipher.Settings) { *s = settings })
}

func (db *DB) updateSettings(update func(*cipher.Settings)) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.closed {
		return ErrClosed
	}
	update(&db.settings)

	db.logger.DebugNs(log.NsCipher, "cipher settings updated", log.KV{
		"path":     db.path,
		"cipher":   db.settings.Cipher.String(),
		"kdfIter":  db.settings.KdfIter,
		"pageSize": db.settings.PageSize,
		"legacy":   db.settings.Legacy,
	})
	return nil
}

// SetPassword keys the database with a passphrase and the current cipher
// settings, then verifies it by reading the schema. On failure the handle
// keeps its previous key.
func (db *DB) SetPassword(ctx context.Context, password string) error {
	key, err := cipher.Passphrase(password)
	if err != nil {
		return err
	}
	return db.SetKey(ctx, key)
}

// SetKey is SetPassword for a prepared key. An in-memory database can only
// be keyed while it is empty, ErrMemoryNotEmpty otherwise.
func (db *DB) SetKey(ctx context.Context, key Key) error {
	if key.IsZero() {
		return ErrEmptyPassword
	}
	if !sqlitedrv.EncryptionSupported {
		return ErrEncryptionUnavailable
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	if db.closed {
		return ErrClosed
	}
	if db.isMemory() {
		if err := db.requireEmptyMemory(ctx); err != nil {
			return err
		}
	}

	settings := db.settings
	if settings.Cipher.IsZero() {
		settings.Cipher = defaultCipher()
	}

	pool, err := db.openPool(ctx, key, settings, true)
	if err != nil {
		db.logger.WarnNs(log.NsCipher, "failed to key database", log.KV{
			"path":  db.path,
			"error": err.Error(),
		})
		return fmt.Errorf("failed to key database: %w", err)
	}

	_ = db.pool.Close()
	db.pool = pool
	db.key = key
	db.settings = settings
	db.securePermissions()

	db.logger.InfoNs(log.NsCipher, "database keyed", log.KV{
		"path":    db.path,
		"cipher":  settings.Cipher.String(),
		"kdfIter": settings.KdfIter,
		"rawKey":  key.IsRaw(),
	})
	return nil
}

// Rekey re-encrypts the database with a new passphrase, keeping the cipher
// settings. Plaintext databases give ErrNotEncrypted.
func (db *DB) Rekey(ctx context.Context, password string) error {
	key, err := cipher.Passphrase(password)
	if err != nil {
		return err
	}
	return db.RekeyWithKey(ctx, key)
}

// RekeyWithKey is Rekey for a prepared key.
func (db *DB) RekeyWithKey(ctx context.Context, key Key) error {
	if key.IsZero() {
		return ErrEmptyPassword
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	if db.closed {
		return ErrClosed
	}
	if db.key.IsZero() {
		return ErrNotEncrypted
	}

	if db.isMemory() {
		if _, err := db.pool.ExecContext(ctx, key.RekeyPragma()); err != nil {
			return fmt.Errorf("failed to rekey database: %w", translateError(err))
		}
		db.key = key
		return nil
	}

	// The pragma needs the file to itself.
	if err := db.pool.Close(); err != nil {
		return fmt.Errorf("failed to close connections before rekey: %w", err)
	}

	rekeyErr := db.rekeyFile(ctx, key)
	if rekeyErr == nil {
		db.key = key
	}

	pool, err := db.openPool(ctx, db.key, db.settings, true)
	if err != nil {
		db.closed = true
		db.stats.Close()
		return fmt.Errorf("failed to reopen database after rekey: %w", errors.Join(rekeyErr, err))
	}
	db.pool = pool

	if rekeyErr != nil {
		return fmt.Errorf("failed to rekey database: %w", rekeyErr)
	}

	db.securePermissions()
	db.logger.InfoNs(log.NsCipher, "database rekeyed", log.KV{"path": db.path})
	return nil
}

// rekeyFile runs PRAGMA rekey over a dedicated connection keyed with the
// current key. The journal is switched out of WAL first; the pool turns it
// back on when it reopens.
func (db *DB) rekeyFile(ctx context.Context, key cipher.Key) error {
	single := sql.OpenDB(sqlitedrv.NewConnector(
		db.path, sqlitedrv.WithKey(db.key.PragmaValue(), db.settings.DefaultPragmas()),
	))
	single.SetMaxOpenConns(1)
	defer single.Close()

	conn, err := single.Conn(ctx)
	if err != nil {
		return translateError(err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "PRAGMA journal_mode = DELETE"); err != nil {
		return translateError(err)
	}
	if _, err := conn.ExecContext(ctx, key.RekeyPragma()); err != nil {
		return translateError(err)
	}
	return nil
}

// CipherVersion returns the version of the cipher engine, or "" when the
// engine has no cipher.
func (db *DB) CipherVersion(ctx context.Context) (string, error) {
	if !sqlitedrv.EncryptionSupported {
		return "", nil
	}

	version, err := ExecuteValue[string](ctx, db, "PRAGMA cipher_version")
	if errors.Is(err, ErrNoRows) {
		return "", nil
	}
	return version, err
}

// Settings returns the current cipher settings.
func (db *DB) Settings() Settings {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.settings
}

// Encrypted reports whether the handle is keyed.
func (db *DB) Encrypted() bool {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return !db.key.IsZero()
}

// Stats returns the statement counters of this handle.
func (db *DB) Stats() Stats {
	return db.stats.Snapshot()
}

// ExecContext runs a statement that returns no rows.
func (db *DB) ExecContext(
	ctx context.Context, query string, args ...any,
) (sql.Result, error) {
	pool, err := db.acquire()
	if err != nil {
		return nil, err
	}

	result, err := pool.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, translateError(err)
	}

	db.stats.IncWrites()
	return result, nil
}

// QueryContext runs a statement that returns rows.
func (db *DB) QueryContext(
	ctx context.Context, query string, args ...any,
) (*sql.Rows, error) {
	pool, err := db.acquire()
	if err != nil {
		return nil, err
	}

	rows, err := pool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translateError(err)
	}

	db.stats.IncReads()
	return rows, nil
}

// PrepareContext prepares a statement on the current pool. Statements do
// not survive SetPassword, SetKey or Rekey.
func (db *DB) PrepareContext(ctx context.Context, query string) (*sql.Stmt, error) {
	pool, err := db.acquire()
	if err != nil {
		return nil, err
	}

	stmt, err := pool.PrepareContext(ctx, query)
	if err != nil {
		return nil, translateError(err)
	}
	return stmt, nil
}

// PingContext opens a connection if none is open and checks it can read the
// schema.
func (db *DB) PingContext(ctx context.Context) error {
	pool, err := db.acquire()
	if err != nil {
		return err
	}
	return verifyPool(ctx, pool)
}

func (db *DB) acquire() (*sql.DB, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if db.closed {
		return nil, ErrClosed
	}
	return db.pool, nil
}

func (db *DB) isMemory() bool {
	return db.path == MemoryPath
}

// requireEmptyMemory refuses to key an in-memory database holding data:
// keying replaces its only connection and with it the data.
func (db *DB) requireEmptyMemory(ctx context.Context) error {
	var count int
	err := db.pool.QueryRowContext(ctx, "SELECT COUNT(*) FROM sqlite_master").Scan(&count)
	if err != nil {
		return fmt.Errorf("failed to read database schema: %w", translateError(err))
	}
	if count > 0 {
		return ErrMemoryNotEmpty
	}
	return nil
}

// shouldVerify decides whether Open reads the schema right away. Files
// that are new or encrypted without a key are opened lazily so they can be
// keyed afterwards.
func (db *DB) shouldVerify() (bool, error) {
	if !db.key.IsZero() {
		return true, nil
	}
	if db.isMemory() {
		return false, nil
	}

	info, err := os.Stat(db.path)
	if errors.Is(err, fs.ErrNotExist) {
		return db.opts.readOnly, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat database file: %w", err)
	}
	if info.Size() == 0 {
		return false, nil
	}

	encrypted, err := sqlitedrv.IsEncrypted(db.path)
	if err != nil {
		return false, err
	}
	return !encrypted, nil
}

// openPool builds a connection pool whose connections are keyed with key
// and settings while they open, then run the tuning pragmas.
func (db *DB) openPool(
	ctx context.Context, key cipher.Key, settings cipher.Settings, verify bool,
) (*sql.DB, error) {
	connector := sqlitedrv.NewConnector(
		db.path,
		sqlitedrv.WithReadOnly(db.opts.readOnly),
		sqlitedrv.WithKey(key.PragmaValue(), settings.DefaultPragmas()),
		sqlitedrv.WithPostConnectQueries(db.connectionQueries()),
	)

	size := db.poolSize()
	pool := sql.OpenDB(connector)
	pool.SetConnMaxIdleTime(0)
	pool.SetConnMaxLifetime(0)
	pool.SetMaxIdleConns(size)
	pool.SetMaxOpenConns(size)

	if verify {
		if err := verifyPool(ctx, pool); err != nil {
			_ = pool.Close()
			return nil, err
		}
	}

	return pool, nil
}

func (db *DB) connectionQueries() []string {
	queries := []string{}
	if !db.opts.disableOptimizations {
		queries = append(queries, optimizations(db.isMemory() || db.opts.readOnly)...)
	}
	if db.opts.readOnly {
		queries = append(queries, "PRAGMA query_only = true")
	}
	return append(queries, db.opts.pragmas...)
}

func (db *DB) poolSize() int {
	if db.isMemory() {
		return 1
	}
	if db.opts.maxOpenConns > 0 {
		return db.opts.maxOpenConns
	}
	return runtime.NumCPU()
}

// securePermissions restricts an encrypted database and its journal files
// to the owner.
func (db *DB) securePermissions() {
	if db.isMemory() {
		return
	}

	for _, suffix := range []string{"", "-wal", "-shm"} {
		err := os.Chmod(db.path+suffix, 0o600)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			db.logger.WarnNs(log.NsDatabase, "failed to set file permissions", log.KV{
				"path":  db.path + suffix,
				"error": err.Error(),
			})
		}
	}
}

// optimizations returns the tuning pragmas. The journal mode is left alone
// for in-memory and read-only databases.
func optimizations(keepJournal bool) []string {
	pragmas := []string{"PRAGMA busy_timeout = 5000"}
	if !keepJournal {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL")
	}
	return append(pragmas,
		"PRAGMA synchronous = NORMAL",
		"PRAGMA cache_size = 10000",
		"PRAGMA foreign_keys = true",
		"PRAGMA temp_store = MEMORY",
	)
}

func verifyPool(ctx context.Context, pool *sql.DB) error {
	var count int
	err := pool.QueryRowContext(ctx, "SELECT COUNT(*) FROM sqlite_master").Scan(&count)
	if err != nil {
		return fmt.Errorf("failed to read database schema: %w", translateError(err))
	}
	return nil
}

func checkCipher(c cipher.Cipher) error {
	if c.IsZero() || sqlitedrv.SupportsCipher(c.Value) {
		return nil
	}
	return fmt.Errorf(
		"%w: %s, the %s engine supports: %v",
		ErrUnsupportedCipher, c.Value, sqlitedrv.EngineName, sqlitedrv.SupportedCiphers(),
	)
}

func defaultCipher() cipher.Cipher {
	c, _ := cipher.ParseCipher(sqlitedrv.DefaultCipher())
	return c
}
