// Package sqlitedrv opens raw connections to the embedded engine, keyed and
// configured while the engine opens them, and runs the post-connect
// statements on each of them before database/sql gets to use it.
//
// The engine is chosen at build time. With cgo it is SQLCipher through
// github.com/mutecomm/go-sqlcipher/v4; without cgo it is the pure Go
// modernc.org/sqlite, which works but cannot encrypt.
//
// This package is used to take advantage of the connection pooling provided
// by database/sql and should not be used directly outside of sealite.
package sqlitedrv
