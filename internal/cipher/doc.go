// Package cipher translates cipher names, key material and KDF settings into
// the pragmas understood by the encrypted engine.
//
// Nothing here encrypts anything: the page cipher and the key derivation
// live inside the engine. This package only validates what callers ask for
// and renders it as SQL in the order the engine expects.
//
//   - https://www.zetetic.net/sqlcipher/sqlcipher-api/
package cipher
