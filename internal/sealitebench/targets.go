package sealitebench

import (
	"sync"

	"github.com/sealite/sealite"
	"github.com/sealite/sealite/internal/sqlitedrv"
)

const benchPassword = "bench_password"

// benchTarget is a database configuration the benchmarks run against.
type benchTarget struct {
	Name      string
	Encrypted bool
	// Options returns the options every handle of the target is opened with.
	Options func() ([]sealite.Option, error)
}

// benchTargets returns plaintext first, then the encrypted configurations
// when the engine can encrypt.
func benchTargets() []benchTarget {
	targets := []benchTarget{
		{
			Name:    "plaintext",
			Options: staticOptions(),
		},
	}

	if !sqlitedrv.EncryptionSupported {
		return targets
	}

	return append(targets,
		benchTarget{
			Name:      "encrypted, engine defaults",
			Encrypted: true,
			Options:   staticOptions(sealite.WithPassword(benchPassword)),
		},
		benchTarget{
			Name:      "encrypted, kdf_iter 10000",
			Encrypted: true,
			Options: staticOptions(
				sealite.WithPassword(benchPassword),
				sealite.WithKdfIter(10_000),
			),
		},
		benchTarget{
			Name:      "encrypted, kdf_iter 10000, page 16384",
			Encrypted: true,
			Options: staticOptions(
				sealite.WithPassword(benchPassword),
				sealite.WithKdfIter(10_000),
				sealite.WithPageSize(16_384),
			),
		},
		benchTarget{
			Name:      "encrypted, argon2id raw key",
			Encrypted: true,
			Options:   argon2Options(),
		},
	)
}

func staticOptions(opts ...sealite.Option) func() ([]sealite.Option, error) {
	return func() ([]sealite.Option, error) {
		return opts, nil
	}
}

// argon2Options derives the raw key once, like the shell does with a
// profile salt, so reopening skips the engine KDF.
func argon2Options() func() ([]sealite.Option, error) {
	derive := sync.OnceValues(func() (sealite.Key, error) {
		salt, err := sealite.NewSalt()
		if err != nil {
			return sealite.Key{}, err
		}
		return sealite.DeriveKey(benchPassword, salt)
	})

	return func() ([]sealite.Option, error) {
		key, err := derive()
		if err != nil {
			return nil, err
		}
		return []sealite.Option{sealite.WithKey(key)}, nil
	}
}
