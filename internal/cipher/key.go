package cipher

import (
	"encoding/hex"
	"strings"
)

// RawKeySize is the size of a raw (already derived) key.
const RawKeySize = 32

// Key is the secret used to key a database: either a passphrase the engine
// runs through its KDF, or a raw key that skips it. The zero Key means no
// encryption.
type Key struct {
	passphrase string
	raw        []byte
}

// Passphrase returns a key derived by the engine from the given password.
func Passphrase(password string) (Key, error) {
	if password == "" {
		return Key{}, ErrEmptyPassword
	}
	return Key{passphrase: password}, nil
}

// RawKey returns a key that is handed to the engine as is.
func RawKey(key []byte) (Key, error) {
	if len(key) != RawKeySize {
		return Key{}, ErrInvalidKey
	}
	raw := make([]byte, RawKeySize)
	copy(raw, key)
	return Key{raw: raw}, nil
}

// IsZero reports whether the key is empty.
func (k Key) IsZero() bool {
	return k.passphrase == "" && len(k.raw) == 0
}

// IsRaw reports whether the key bypasses the engine KDF.
func (k Key) IsRaw() bool {
	return len(k.raw) > 0
}

// Equal reports whether both keys carry the same secret.
func (k Key) Equal(other Key) bool {
	return k.passphrase == other.passphrase && string(k.raw) == string(other.raw)
}

// Literal renders the key as the SQL literal accepted by PRAGMA rekey and
// ATTACH ... KEY.
func (k Key) Literal() string {
	if k.IsRaw() {
		return `"` + k.rawValue() + `"`
	}
	return "'" + strings.ReplaceAll(k.passphrase, "'", "''") + "'"
}

// PragmaValue renders the key as the text the engine places between double
// quotes in PRAGMA key = "...", which is what its _pragma_key connection
// parameter carries. The zero Key renders as "".
func (k Key) PragmaValue() string {
	if k.IsRaw() {
		return k.rawValue()
	}
	return strings.ReplaceAll(k.passphrase, `"`, `""`)
}

func (k Key) rawValue() string {
	return "x'" + strings.ToUpper(hex.EncodeToString(k.raw)) + "'"
}

// RekeyPragma renders the PRAGMA rekey statement that re-encrypts the main
// database with this key.
func (k Key) RekeyPragma() string {
	return "PRAGMA rekey = " + k.Literal()
}

// String hides the secret so keys can be passed to fmt safely.
func (k Key) String() string {
	if k.IsZero() {
		return "Key(none)"
	}
	return "Key(****)"
}

// GoString hides the secret from %#v as well.
func (k Key) GoString() string {
	return k.String()
}
