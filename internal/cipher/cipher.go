package cipher

import (
	"fmt"
	"strings"

	"github.com/orsinium-labs/enum"
)

// Cipher names a page cipher. The full family of names is recognized so that
// callers get a precise error when the linked engine lacks one, instead of a
// generic parse failure.
type Cipher enum.Member[string]

var (
	AES128CBC = Cipher{Value: "aes128cbc"}
	AES256CBC = Cipher{Value: "aes256cbc"}
	ChaCha20  = Cipher{Value: "chacha20"}
	SQLCipher = Cipher{Value: "sqlcipher"}
	RC4       = Cipher{Value: "rc4"}
	Ascon128  = Cipher{Value: "ascon128"}
	AEGIS     = Cipher{Value: "aegis"}

	Ciphers = enum.New(AES128CBC, AES256CBC, ChaCha20, SQLCipher, RC4, Ascon128, AEGIS)
)

// String returns the cipher name.
func (c Cipher) String() string {
	return c.Value
}

// IsZero reports whether no cipher was chosen, meaning the engine default.
func (c Cipher) IsZero() bool {
	return c.Value == ""
}

// ParseCipher parses a cipher name. Matching ignores case and surrounding
// spaces.
func ParseCipher(name string) (Cipher, error) {
	parsed := Ciphers.Parse(strings.ToLower(strings.TrimSpace(name)))
	if parsed == nil {
		return Cipher{}, fmt.Errorf(
			"%w %q, valid values are: %s",
			ErrUnknownCipher, name, strings.Join(Ciphers.Values(), ", "),
		)
	}
	return *parsed, nil
}

// HMACAlgorithm is the page authentication algorithm.
type HMACAlgorithm enum.Member[string]

var (
	HMACSHA1   = HMACAlgorithm{Value: "HMAC_SHA1"}
	HMACSHA256 = HMACAlgorithm{Value: "HMAC_SHA256"}
	HMACSHA512 = HMACAlgorithm{Value: "HMAC_SHA512"}

	HMACAlgorithms = enum.New(HMACSHA1, HMACSHA256, HMACSHA512)
)

// String returns the algorithm name as the engine spells it.
func (a HMACAlgorithm) String() string {
	return a.Value
}

// ParseHMACAlgorithm parses an HMAC algorithm name, ignoring case.
func ParseHMACAlgorithm(name string) (HMACAlgorithm, error) {
	parsed := HMACAlgorithms.Parse(strings.ToUpper(strings.TrimSpace(name)))
	if parsed == nil {
		return HMACAlgorithm{}, fmt.Errorf(
			"%w %q, valid values are: %s",
			ErrUnknownHMACAlgorithm, name, strings.Join(HMACAlgorithms.Values(), ", "),
		)
	}
	return *parsed, nil
}

// KDFAlgorithm is the password based key derivation algorithm.
type KDFAlgorithm enum.Member[string]

var (
	PBKDF2SHA1   = KDFAlgorithm{Value: "PBKDF2_HMAC_SHA1"}
	PBKDF2SHA256 = KDFAlgorithm{Value: "PBKDF2_HMAC_SHA256"}
	PBKDF2SHA512 = KDFAlgorithm{Value: "PBKDF2_HMAC_SHA512"}

	KDFAlgorithms = enum.New(PBKDF2SHA1, PBKDF2SHA256, PBKDF2SHA512)
)

// String returns the algorithm name as the engine spells it.
func (a KDFAlgorithm) String() string {
	return a.Value
}

// ParseKDFAlgorithm parses a KDF algorithm name, ignoring case.
func ParseKDFAlgorithm(name string) (KDFAlgorithm, error) {
	parsed := KDFAlgorithms.Parse(strings.ToUpper(strings.TrimSpace(name)))
	if parsed == nil {
		return KDFAlgorithm{}, fmt.Errorf(
			"%w %q, valid values are: %s",
			ErrUnknownKDFAlgorithm, name, strings.Join(KDFAlgorithms.Values(), ", "),
		)
	}
	return *parsed, nil
}
