package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/sealite/sealite/internal/cipher"
)

// Profile is the TOML file holding the non-secret settings of a database:
//
//	[cipher]
//	name = "sqlcipher"
//	kdf_iter = 256000
//	page_size = 4096
//	kdf = "argon2id"
//	argon2_salt = "9f86d081884c7d659a2feaa0c55ad015"
type Profile struct {
	Cipher CipherProfile `toml:"cipher"`
}

// CipherProfile is the [cipher] table of a profile.
type CipherProfile struct {
	Name          string `toml:"name,omitempty"`
	KdfIter       int    `toml:"kdf_iter,omitempty"`
	PageSize      int    `toml:"page_size,omitempty"`
	Legacy        int    `toml:"legacy,omitempty"`
	HMACAlgorithm string `toml:"hmac_algorithm,omitempty"`
	KDFAlgorithm  string `toml:"kdf_algorithm,omitempty"`
	KDF           string `toml:"kdf,omitempty"`
	Argon2Salt    string `toml:"argon2_salt,omitempty"`
}

// LoadProfile reads the profile at path. A missing file gives an error
// matching fs.ErrNotExist.
func LoadProfile(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("failed to read profile: %w", err)
	}

	profile := Profile{}
	if err := toml.Unmarshal(data, &profile); err != nil {
		return Profile{}, fmt.Errorf("failed to parse profile %s: %w", path, err)
	}

	if err := validateKDF(profile.Cipher.KDF); err != nil {
		return Profile{}, fmt.Errorf("invalid profile %s: %w", path, err)
	}
	if _, err := profile.Salt(); err != nil {
		return Profile{}, fmt.Errorf("invalid profile %s: %w", path, err)
	}

	return profile, nil
}

// SaveProfile writes the profile to path, readable by the owner only.
func SaveProfile(path string, profile Profile) error {
	data, err := toml.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create profile directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write profile: %w", err)
	}

	return nil
}

// Salt returns the decoded Argon2 salt, nil when there is none.
func (p Profile) Salt() ([]byte, error) {
	if p.Cipher.Argon2Salt == "" {
		return nil, nil
	}
	salt, err := hex.DecodeString(p.Cipher.Argon2Salt)
	if err != nil {
		return nil, errors.New("argon2_salt must be hex encoded")
	}
	return salt, nil
}

// SetSalt stores salt hex encoded.
func (p *Profile) SetSalt(salt []byte) {
	p.Cipher.Argon2Salt = hex.EncodeToString(salt)
}

// Resolved is the outcome of merging the flags over a profile.
type Resolved struct {
	Settings cipher.Settings
	// KDF is KDFEngine or KDFArgon2id.
	KDF string
}

// Resolve merges the command line configuration over the profile. Flags
// win over the profile when set.
func Resolve(c Config, p Profile) (Resolved, error) {
	pick := func(flag string, profile string) string {
		if flag != "" {
			return flag
		}
		return profile
	}
	pickInt := func(flag int, profile int) int {
		if flag != 0 {
			return flag
		}
		return profile
	}

	settings := cipher.Settings{
		KdfIter:  pickInt(c.KdfIter, p.Cipher.KdfIter),
		PageSize: pickInt(c.PageSize, p.Cipher.PageSize),
		Legacy:   pickInt(c.Legacy, p.Cipher.Legacy),
	}

	if name := pick(c.Cipher, p.Cipher.Name); name != "" {
		parsed, err := cipher.ParseCipher(name)
		if err != nil {
			return Resolved{}, err
		}
		settings.Cipher = parsed
	}
	if name := pick(c.HMACAlgorithm, p.Cipher.HMACAlgorithm); name != "" {
		parsed, err := cipher.ParseHMACAlgorithm(name)
		if err != nil {
			return Resolved{}, err
		}
		settings.HMACAlgorithm = parsed
	}
	if name := pick(c.KDFAlgorithm, p.Cipher.KDFAlgorithm); name != "" {
		parsed, err := cipher.ParseKDFAlgorithm(name)
		if err != nil {
			return Resolved{}, err
		}
		settings.KDFAlgorithm = parsed
	}

	if err := settings.Validate(); err != nil {
		return Resolved{}, err
	}

	kdf := pick(c.KDF, p.Cipher.KDF)
	if kdf == "" {
		kdf = KDFEngine
	}
	if err := validateKDF(kdf); err != nil {
		return Resolved{}, err
	}

	return Resolved{
		Settings: settings,
		KDF:      kdf,
	}, nil
}
