package sqlitedrv

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
)

var _ driver.Connector = (*Connector)(nil)

// MemoryPath is the special path of a private in-memory database.
const MemoryPath = ":memory:"

// resetCipherDefaults puts the engine defaults back to the current
// on-disk format.
const resetCipherDefaults = "PRAGMA cipher_default_compatibility = 4"

// cipherDefaultsMu guards the engine's process wide cipher defaults from
// the moment a keyed connection sets them until it has been keyed.
var cipherDefaultsMu sync.Mutex

type connectorOption func(*Connector)

// WithPostConnectQueries sets a slice of queries to be executed after a
// connection is established, in order. The first one that fails aborts the
// connection.
func WithPostConnectQueries(queries []string) connectorOption {
	return func(connector *Connector) {
		connector.postConnectQueries = queries
	}
}

// WithReadOnly opens the database file in read-only mode.
func WithReadOnly(readOnly bool) connectorOption {
	return func(connector *Connector) {
		connector.readOnly = readOnly
	}
}

// WithKey keys every connection while the engine opens it, before the
// first page is read. key is the text of PRAGMA key = "<key>" and
// cipherDefaults are cipher_default_* pragmas in force while the key is
// applied. An empty key leaves the connection unkeyed.
func WithKey(key string, cipherDefaults []string) connectorOption {
	return func(connector *Connector) {
		connector.key = key
		connector.cipherDefaults = cipherDefaults
	}
}

// Connector implements the database/sql/driver.Connector interface
type Connector struct {
	driver             driver.Driver
	path               string
	readOnly           bool
	key                string
	cipherDefaults     []string
	postConnectQueries []string
}

// NewConnector creates a new connector to the database file at path.
func NewConnector(path string, options ...connectorOption) *Connector {
	connector := &Connector{
		driver: newEngineDriver(),
		path:   path,
	}

	for _, option := range options {
		option(connector)
	}

	return connector
}

// Connect opens a raw engine connection and runs the post-connect queries
// on it.
func (connector *Connector) Connect(_ context.Context) (driver.Conn, error) {
	conn, err := connector.open()
	if err != nil {
		return nil, fmt.Errorf("failed to open connection: %w", err)
	}

	for i, query := range connector.postConnectQueries {
		if err := exec(conn, query); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to execute post-connect query #%d: %w", i+1, err)
		}
	}

	return conn, nil
}

// Driver returns the engine driver
func (connector *Connector) Driver() driver.Driver {
	return connector.driver
}

// open opens the engine connection. The engine reads the schema before
// returning it, so a keyed connection gets its key and cipher settings
// through the DSN and the engine defaults rather than as queries.
func (connector *Connector) open() (driver.Conn, error) {
	if connector.key == "" {
		return connector.driver.Open(connector.dsn())
	}

	cipherDefaultsMu.Lock()
	defer cipherDefaultsMu.Unlock()

	if len(connector.cipherDefaults) == 0 {
		return connector.driver.Open(connector.dsn())
	}

	if err := connector.execScratch(connector.cipherDefaults); err != nil {
		_ = connector.execScratch([]string{resetCipherDefaults})
		return nil, fmt.Errorf("failed to set cipher defaults: %w", err)
	}

	conn, err := connector.driver.Open(connector.dsn())
	if resetErr := connector.execScratch([]string{resetCipherDefaults}); resetErr != nil {
		if conn != nil {
			_ = conn.Close()
		}
		return nil, errors.Join(err, fmt.Errorf("failed to reset cipher defaults: %w", resetErr))
	}
	return conn, err
}

// execScratch runs queries on a throwaway in-memory connection, which is
// enough for pragmas acting on the whole engine.
func (connector *Connector) execScratch(queries []string) error {
	conn, err := connector.driver.Open(MemoryPath)
	if err != nil {
		return err
	}
	defer conn.Close()

	for _, query := range queries {
		if err := exec(conn, query); err != nil {
			return err
		}
	}
	return nil
}

// dsn is BuildDSN plus the key parameter.
func (connector *Connector) dsn() string {
	dsn := BuildDSN(connector.path, connector.readOnly)
	if connector.key == "" {
		return dsn
	}

	separator := "?"
	if strings.Contains(dsn, "?") {
		separator = "&"
	}
	return dsn + separator + url.Values{"_pragma_key": {connector.key}}.Encode()
}

// BuildDSN returns the data source name for path. The path is escaped, so
// characters a file URI gives a meaning to (? # %) name the same file the
// caller sees.
func BuildDSN(path string, readOnly bool) string {
	if path == MemoryPath {
		return MemoryPath
	}

	dsn := "file:" + (&url.URL{Path: path}).EscapedPath()
	if !readOnly {
		return dsn
	}

	qp := url.Values{}
	qp.Add("mode", "ro")
	return dsn + "?" + qp.Encode()
}

func exec(conn driver.Conn, query string) error {
	stmt, err := conn.Prepare(query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	_, err = stmt.Exec(nil)
	return err
}
