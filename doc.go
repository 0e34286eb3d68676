// Package sealite is a typed convenience layer over an embedded SQL engine
// with optional transparent page encryption.
//
// A database is opened with Open and, when encrypted, keyed either through
// options or with SetPassword/SetKey after the cipher settings are chosen:
//
//	db, err := sealite.Open("app.db")
//	if err != nil { ... }
//	defer db.Close()
//
//	_ = db.SetKdfIter(10000)
//	if err := db.SetPassword(ctx, "secret"); err != nil { ... }
//
//	type user struct {
//		ID   int64  `db:"id"`
//		Name string `db:"name"`
//	}
//	users, err := sealite.ExecuteRows[user](ctx, db, "SELECT id, name FROM users")
//
// Page encryption needs the SQLCipher engine, which is linked when building
// with cgo. Without cgo the pure Go engine is used and keying fails with
// ErrEncryptionUnavailable.
package sealite
