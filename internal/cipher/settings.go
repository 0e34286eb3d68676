package cipher

import (
	"fmt"
	"strconv"
)

// Settings holds the tunable parameters of the engine cipher. Zero values
// leave the engine default in place.
type Settings struct {
	// Cipher is the page cipher. The engine checks it is available; it is
	// not rendered as a pragma.
	Cipher Cipher
	// KdfIter is the number of key derivation iterations.
	KdfIter int
	// PageSize is the encrypted page size in bytes.
	PageSize int
	// Legacy selects an older on-disk compatibility level (1-4).
	Legacy int
	// HMACAlgorithm is the page authentication algorithm.
	HMACAlgorithm HMACAlgorithm
	// KDFAlgorithm is the key derivation algorithm.
	KDFAlgorithm KDFAlgorithm
}

// Validate checks every non-zero field.
func (s Settings) Validate() error {
	if s.KdfIter < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidKdfIter, s.KdfIter)
	}
	if s.PageSize != 0 && !validPageSize(s.PageSize) {
		return fmt.Errorf("%w: %d", ErrInvalidPageSize, s.PageSize)
	}
	if s.Legacy < 0 || s.Legacy > 4 {
		return fmt.Errorf("%w: %d", ErrInvalidLegacy, s.Legacy)
	}
	if s.HMACAlgorithm.Value != "" && !HMACAlgorithms.Contains(s.HMACAlgorithm) {
		return fmt.Errorf("%w %q", ErrUnknownHMACAlgorithm, s.HMACAlgorithm.Value)
	}
	if s.KDFAlgorithm.Value != "" && !KDFAlgorithms.Contains(s.KDFAlgorithm) {
		return fmt.Errorf("%w %q", ErrUnknownKDFAlgorithm, s.KDFAlgorithm.Value)
	}
	return nil
}

// pragmaNames names the pragma behind every setting.
type pragmaNames struct {
	compatibility string
	kdfIter       string
	pageSize      string
	hmacAlgorithm string
	kdfAlgorithm  string
}

var (
	connectionPragmas = pragmaNames{
		compatibility: "cipher_compatibility",
		kdfIter:       "kdf_iter",
		pageSize:      "cipher_page_size",
		hmacAlgorithm: "cipher_hmac_algorithm",
		kdfAlgorithm:  "cipher_kdf_algorithm",
	}
	defaultPragmas = pragmaNames{
		compatibility: "cipher_default_compatibility",
		kdfIter:       "cipher_default_kdf_iter",
		pageSize:      "cipher_default_page_size",
		hmacAlgorithm: "cipher_default_hmac_algorithm",
		kdfAlgorithm:  "cipher_default_kdf_algorithm",
	}
)

// Pragmas renders the settings as engine pragmas, in the order the engine
// requires: the compatibility level first because it resets every other
// parameter. They must run after the key and before the first read.
//
// A non-empty schema qualifies every pragma, which is how an attached
// database is configured.
func (s Settings) Pragmas(schema string) []string {
	return s.render(connectionPragmas, schema)
}

// DefaultPragmas renders the settings as the engine's process wide
// defaults, which a connection copies at the moment it is keyed. They are
// the way to configure a connection keyed while it opens.
func (s Settings) DefaultPragmas() []string {
	return s.render(defaultPragmas, "")
}

func (s Settings) render(names pragmaNames, schema string) []string {
	pragmas := []string{}
	add := func(name string, value string) {
		pragmas = append(pragmas, "PRAGMA "+qualify(schema, name)+" = "+value)
	}

	if s.Legacy > 0 {
		add(names.compatibility, strconv.Itoa(s.Legacy))
	}
	if s.KdfIter > 0 {
		add(names.kdfIter, strconv.Itoa(s.KdfIter))
	}
	if s.PageSize > 0 {
		add(names.pageSize, strconv.Itoa(s.PageSize))
	}
	if s.HMACAlgorithm.Value != "" {
		add(names.hmacAlgorithm, s.HMACAlgorithm.Value)
	}
	if s.KDFAlgorithm.Value != "" {
		add(names.kdfAlgorithm, s.KDFAlgorithm.Value)
	}

	return pragmas
}

func qualify(schema string, name string) string {
	if schema == "" {
		return name
	}
	return schema + "." + name
}

func validPageSize(size int) bool {
	if size < 512 || size > 65536 {
		return false
	}
	return size&(size-1) == 0
}
