package sealite

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/sealite/sealite/internal/cipher"
	"github.com/sealite/sealite/internal/log"
)

// Option configures a database handle in Open.
type Option func(*options) error

type options struct {
	settings             cipher.Settings
	key                  cipher.Key
	logger               log.Logger
	maxOpenConns         int
	readOnly             bool
	pragmas              []string
	disableOptimizations bool
}

func defaultOptions() options {
	return options{
		logger: log.NewNopLogger(),
	}
}

// WithCipher selects the page cipher by name.
func WithCipher(name string) Option {
	return func(o *options) error {
		c, err := cipher.ParseCipher(name)
		if err != nil {
			return err
		}
		o.settings.Cipher = c
		return nil
	}
}

// WithKdfIter sets the number of key derivation iterations.
func WithKdfIter(iterations int) Option {
	return func(o *options) error {
		if iterations < 1 {
			return fmt.Errorf("%w: %d", ErrInvalidKdfIter, iterations)
		}
		o.settings.KdfIter = iterations
		return nil
	}
}

// WithPageSize sets the encrypted page size.
func WithPageSize(size int) Option {
	return func(o *options) error {
		o.settings.PageSize = size
		return nil
	}
}

// WithLegacy sets the SQLCipher compatibility level, 1 to 4.
func WithLegacy(level int) Option {
	return func(o *options) error {
		o.settings.Legacy = level
		return nil
	}
}

// WithHMACAlgorithm sets the page authentication algorithm by name.
func WithHMACAlgorithm(name string) Option {
	return func(o *options) error {
		a, err := cipher.ParseHMACAlgorithm(name)
		if err != nil {
			return err
		}
		o.settings.HMACAlgorithm = a
		return nil
	}
}

// WithKDFAlgorithm sets the key derivation algorithm by name.
func WithKDFAlgorithm(name string) Option {
	return func(o *options) error {
		a, err := cipher.ParseKDFAlgorithm(name)
		if err != nil {
			return err
		}
		o.settings.KDFAlgorithm = a
		return nil
	}
}

// WithSettings replaces every cipher setting at once.
func WithSettings(settings Settings) Option {
	return func(o *options) error {
		o.settings = settings
		return nil
	}
}

// WithPassword keys the database with a passphrase.
func WithPassword(password string) Option {
	return func(o *options) error {
		key, err := cipher.Passphrase(password)
		if err != nil {
			return err
		}
		o.key = key
		return nil
	}
}

// WithKey keys the database with a prepared key.
func WithKey(key Key) Option {
	return func(o *options) error {
		if key.IsZero() {
			return ErrEmptyPassword
		}
		o.key = key
		return nil
	}
}

// WithLogOutput writes JSON logs at or above level to w. By default nothing
// is logged.
func WithLogOutput(w io.Writer, level slog.Level) Option {
	return func(o *options) error {
		o.logger = log.NewLoggerWithLevel(w, level)
		return nil
	}
}

// WithLogger logs through logger, shared with the tools built on sealite.
func WithLogger(logger log.Logger) Option {
	return func(o *options) error {
		if !logger.IsInitialized() {
			return errors.New("logger is not initialized")
		}
		o.logger = logger
		return nil
	}
}

// WithMaxOpenConns limits the connection pool. In-memory databases always
// use a single connection.
func WithMaxOpenConns(n int) Option {
	return func(o *options) error {
		o.maxOpenConns = n
		return nil
	}
}

// WithReadOnly opens the database file in read-only mode.
func WithReadOnly(readOnly bool) Option {
	return func(o *options) error {
		o.readOnly = readOnly
		return nil
	}
}

// WithPragmas adds statements run on every new connection after the
// built-in ones.
func WithPragmas(pragmas ...string) Option {
	return func(o *options) error {
		o.pragmas = append(o.pragmas, pragmas...)
		return nil
	}
}

// WithoutOptimizations skips the performance pragmas (WAL journal, cache
// size and the like) normally run on every connection.
func WithoutOptimizations() Option {
	return func(o *options) error {
		o.disableOptimizations = true
		return nil
	}
}
