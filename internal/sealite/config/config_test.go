package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/alexflint/go-arg"
	"github.com/sealite/sealite/internal/cipher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, args ...string) Config {
	t.Helper()
	cfg := Config{}
	parser, err := arg.NewParser(arg.Config{}, &cfg)
	require.NoError(t, err)
	require.NoError(t, parser.Parse(args))
	return cfg
}

func TestParse(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		cfg := parse(t)
		assert.Equal(t, ":memory:", cfg.Database)
		assert.Equal(t, "error", cfg.LogLevel)
		assert.NoError(t, cfg.Validate())
	})

	t.Run("Flags", func(t *testing.T) {
		cfg := parse(t,
			"app.db", "--cipher", "sqlcipher", "--kdf-iter", "10000",
			"--page-size", "8192", "--read-only", "-c", ".tables",
		)
		assert.Equal(t, "app.db", cfg.Database)
		assert.Equal(t, "sqlcipher", cfg.Cipher)
		assert.Equal(t, 10000, cfg.KdfIter)
		assert.Equal(t, 8192, cfg.PageSize)
		assert.True(t, cfg.ReadOnly)
		assert.Equal(t, ".tables", cfg.Command)
		assert.NoError(t, cfg.Validate())
	})

	t.Run("Environment", func(t *testing.T) {
		t.Setenv("SEALITE_PASSWORD", "from-env")
		t.Setenv("SEALITE_KDF_ITER", "4000")
		cfg := parse(t, "app.db")
		assert.Equal(t, "from-env", cfg.Password)
		assert.Equal(t, 4000, cfg.KdfIter)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		err  error
	}{
		{name: "EmptyDatabase", cfg: Config{LogLevel: "error"}},
		{name: "UnknownCipher", cfg: Config{Database: "a.db", LogLevel: "error", Cipher: "des"}, err: cipher.ErrUnknownCipher},
		{name: "NegativeKdfIter", cfg: Config{Database: "a.db", LogLevel: "error", KdfIter: -1}, err: cipher.ErrInvalidKdfIter},
		{name: "PageSize", cfg: Config{Database: "a.db", LogLevel: "error", PageSize: 100}, err: cipher.ErrInvalidPageSize},
		{name: "Legacy", cfg: Config{Database: "a.db", LogLevel: "error", Legacy: 7}, err: cipher.ErrInvalidLegacy},
		{name: "HMAC", cfg: Config{Database: "a.db", LogLevel: "error", HMACAlgorithm: "crc"}, err: cipher.ErrUnknownHMACAlgorithm},
		{name: "KDFAlgorithm", cfg: Config{Database: "a.db", LogLevel: "error", KDFAlgorithm: "scrypt"}, err: cipher.ErrUnknownKDFAlgorithm},
		{name: "KDF", cfg: Config{Database: "a.db", LogLevel: "error", KDF: "bcrypt"}},
		{name: "Argon2idWithoutProfile", cfg: Config{Database: "a.db", LogLevel: "error", KDF: KDFArgon2id}},
		{name: "LogLevel", cfg: Config{Database: "a.db", LogLevel: "loud"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			require.Error(t, err)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
			}
		})
	}
}

func TestProfile(t *testing.T) {
	dir := t.TempDir()

	t.Run("Missing", func(t *testing.T) {
		_, err := LoadProfile(filepath.Join(dir, "missing.toml"))
		assert.True(t, errors.Is(err, fs.ErrNotExist))
	})

	t.Run("Load", func(t *testing.T) {
		path := filepath.Join(dir, "load.toml")
		content := `
[cipher]
name = "sqlcipher"
kdf_iter = 64000
page_size = 4096
hmac_algorithm = "hmac_sha256"
kdf = "argon2id"
argon2_salt = "00112233445566778899aabbccddeeff"
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		profile, err := LoadProfile(path)
		require.NoError(t, err)
		assert.Equal(t, "sqlcipher", profile.Cipher.Name)
		assert.Equal(t, 64000, profile.Cipher.KdfIter)
		assert.Equal(t, KDFArgon2id, profile.Cipher.KDF)

		salt, err := profile.Salt()
		require.NoError(t, err)
		assert.Len(t, salt, 16)
	})

	t.Run("InvalidSalt", func(t *testing.T) {
		path := filepath.Join(dir, "salt.toml")
		require.NoError(t, os.WriteFile(path, []byte("[cipher]\nargon2_salt = \"zz\"\n"), 0o600))
		_, err := LoadProfile(path)
		assert.Error(t, err)
	})

	t.Run("InvalidTOML", func(t *testing.T) {
		path := filepath.Join(dir, "broken.toml")
		require.NoError(t, os.WriteFile(path, []byte("[cipher\nname ="), 0o600))
		_, err := LoadProfile(path)
		assert.Error(t, err)
	})

	t.Run("SaveAndLoad", func(t *testing.T) {
		path := filepath.Join(dir, "nested", "saved.toml")
		profile := Profile{Cipher: CipherProfile{Name: "sqlcipher", KdfIter: 1000, KDF: KDFArgon2id}}
		profile.SetSalt([]byte{1, 2, 3, 4})
		require.NoError(t, SaveProfile(path, profile))

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

		loaded, err := LoadProfile(path)
		require.NoError(t, err)
		assert.Equal(t, profile, loaded)
	})
}

func TestResolve(t *testing.T) {
	profile := Profile{Cipher: CipherProfile{
		Name:          "sqlcipher",
		KdfIter:       64000,
		PageSize:      4096,
		HMACAlgorithm: "HMAC_SHA256",
		KDF:           KDFArgon2id,
	}}

	t.Run("ProfileOnly", func(t *testing.T) {
		resolved, err := Resolve(Config{}, profile)
		require.NoError(t, err)
		assert.Equal(t, cipher.SQLCipher, resolved.Settings.Cipher)
		assert.Equal(t, 64000, resolved.Settings.KdfIter)
		assert.Equal(t, 4096, resolved.Settings.PageSize)
		assert.Equal(t, cipher.HMACSHA256, resolved.Settings.HMACAlgorithm)
		assert.Equal(t, KDFArgon2id, resolved.KDF)
	})

	t.Run("FlagsWin", func(t *testing.T) {
		resolved, err := Resolve(Config{KdfIter: 1000, KDF: KDFEngine, KDFAlgorithm: "pbkdf2_hmac_sha1"}, profile)
		require.NoError(t, err)
		assert.Equal(t, 1000, resolved.Settings.KdfIter)
		assert.Equal(t, 4096, resolved.Settings.PageSize)
		assert.Equal(t, cipher.PBKDF2SHA1, resolved.Settings.KDFAlgorithm)
		assert.Equal(t, KDFEngine, resolved.KDF)
	})

	t.Run("Empty", func(t *testing.T) {
		resolved, err := Resolve(Config{}, Profile{})
		require.NoError(t, err)
		assert.True(t, resolved.Settings.Cipher.IsZero())
		assert.Equal(t, KDFEngine, resolved.KDF)
	})

	t.Run("InvalidProfileValue", func(t *testing.T) {
		_, err := Resolve(Config{}, Profile{Cipher: CipherProfile{PageSize: 1000}})
		assert.ErrorIs(t, err, cipher.ErrInvalidPageSize)
	})
}
