package config

import (
	"errors"
	"fmt"
	"log"
	"log/slog"
	"strings"

	"github.com/alexflint/go-arg"
	"github.com/sealite/sealite/internal/cipher"
	"github.com/sealite/sealite/internal/version"
)

// Config represents the configuration for the sealite shell.
type Config struct {
	Database      string `arg:"positional" help:"Path of the database file, or :memory: for a private in-memory database" default:":memory:"`
	Password      string `arg:"--password,env:SEALITE_PASSWORD" help:"Database password (prefer the environment variable, flags end up in the shell history)"`
	AskPassword   bool   `arg:"--ask-password" help:"Prompt for the database password even if the file is not encrypted yet"`
	Cipher        string `arg:"--cipher,env:SEALITE_CIPHER" help:"Page cipher (aes128cbc, aes256cbc, chacha20, sqlcipher, rc4, ascon128, aegis), the engine default if empty"`
	KdfIter       int    `arg:"--kdf-iter,env:SEALITE_KDF_ITER" help:"Key derivation iterations, the engine default if zero"`
	PageSize      int    `arg:"--page-size,env:SEALITE_PAGE_SIZE" help:"Encrypted page size in bytes, the engine default if zero"`
	Legacy        int    `arg:"--legacy,env:SEALITE_LEGACY" help:"SQLCipher compatibility level (1-4), the current one if zero"`
	HMACAlgorithm string `arg:"--hmac-algorithm,env:SEALITE_HMAC_ALGORITHM" help:"Page HMAC algorithm (HMAC_SHA1, HMAC_SHA256, HMAC_SHA512)"`
	KDFAlgorithm  string `arg:"--kdf-algorithm,env:SEALITE_KDF_ALGORITHM" help:"Key derivation algorithm (PBKDF2_HMAC_SHA1, PBKDF2_HMAC_SHA256, PBKDF2_HMAC_SHA512)"`
	KDF           string `arg:"--kdf,env:SEALITE_KDF" help:"Who derives the key from the password: engine (PBKDF2) or argon2id (needs a profile to keep the salt)"`
	Keyring       bool   `arg:"--keyring,env:SEALITE_KEYRING" help:"Read the password from the OS keyring and save it there after the first unlock"`
	Profile       string `arg:"--profile,env:SEALITE_PROFILE" help:"Path of a TOML profile with the cipher settings"`
	ReadOnly      bool   `arg:"--read-only,env:SEALITE_READ_ONLY" help:"Open the database in read-only mode"`
	Command       string `arg:"-c,--command" help:"Run a single statement or dot command and exit"`
	LogLevel      string `arg:"--log-level,env:SEALITE_LOG_LEVEL" help:"Log level of the JSON logs written to stderr (debug, info, warn, error)" default:"error"`
}

func (Config) Version() string {
	return fmt.Sprintf("%s\n", version.ShellVersion())
}

// MustParse parses and validates the configuration from the command
// line arguments. It returns a Config struct or exits the program
// with an error.
func MustParse(args []string) Config {
	cfg := Config{}

	parser, err := arg.NewParser(
		arg.Config{},
		&cfg,
	)
	if err != nil {
		log.Fatal(err)
	}
	parser.MustParse(args[1:])

	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	return cfg
}

// Validate checks the values the parser cannot check by itself.
func (c Config) Validate() error {
	if c.Database == "" {
		return errors.New("database path is required")
	}
	if c.Cipher != "" {
		if _, err := cipher.ParseCipher(c.Cipher); err != nil {
			return err
		}
	}
	if c.KdfIter < 0 {
		return fmt.Errorf("%w: %d", cipher.ErrInvalidKdfIter, c.KdfIter)
	}
	if c.HMACAlgorithm != "" {
		if _, err := cipher.ParseHMACAlgorithm(c.HMACAlgorithm); err != nil {
			return err
		}
	}
	if c.KDFAlgorithm != "" {
		if _, err := cipher.ParseKDFAlgorithm(c.KDFAlgorithm); err != nil {
			return err
		}
	}
	if err := (cipher.Settings{PageSize: c.PageSize, Legacy: c.Legacy}).Validate(); err != nil {
		return err
	}
	if err := validateKDF(c.KDF); err != nil {
		return err
	}
	if c.KDF == KDFArgon2id && c.Profile == "" {
		return errors.New("the argon2id kdf needs a --profile to keep its salt")
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel returns the parsed log level.
func (c Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return level, fmt.Errorf("invalid log level %q, valid values are: debug, info, warn, error", c.LogLevel)
	}
	return level, nil
}

// Key derivation modes.
const (
	KDFEngine   = "engine"
	KDFArgon2id = "argon2id"
)

func validateKDF(kdf string) error {
	valid := []string{"", KDFEngine, KDFArgon2id}

	for _, v := range valid {
		if kdf == v {
			return nil
		}
	}

	return fmt.Errorf(
		"invalid kdf, valid values are: %s",
		strings.Join(valid[1:], ", "),
	)
}
