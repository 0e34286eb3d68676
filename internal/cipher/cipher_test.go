package cipher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCipher(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Cipher
		wantErr bool
	}{
		{name: "sqlcipher", input: "sqlcipher", want: SQLCipher},
		{name: "chacha20", input: "chacha20", want: ChaCha20},
		{name: "uppercase", input: "AES256CBC", want: AES256CBC},
		{name: "surrounding spaces", input: "  aegis ", want: AEGIS},
		{name: "empty", input: "", wantErr: true},
		{name: "unknown", input: "des", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCipher(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownCipher)
				assert.Contains(t, err.Error(), "valid values are")
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCiphersFamily(t *testing.T) {
	assert.Equal(t, []string{
		"aes128cbc", "aes256cbc", "chacha20", "sqlcipher", "rc4", "ascon128", "aegis",
	}, Ciphers.Values())
	assert.True(t, Cipher{}.IsZero())
	assert.Equal(t, "rc4", RC4.String())
}

func TestParseAlgorithms(t *testing.T) {
	t.Run("HMAC", func(t *testing.T) {
		got, err := ParseHMACAlgorithm("hmac_sha256")
		assert.NoError(t, err)
		assert.Equal(t, HMACSHA256, got)

		_, err = ParseHMACAlgorithm("md5")
		assert.ErrorIs(t, err, ErrUnknownHMACAlgorithm)
	})

	t.Run("KDF", func(t *testing.T) {
		got, err := ParseKDFAlgorithm("PBKDF2_HMAC_SHA1")
		assert.NoError(t, err)
		assert.Equal(t, PBKDF2SHA1, got)

		_, err = ParseKDFAlgorithm("scrypt")
		assert.ErrorIs(t, err, ErrUnknownKDFAlgorithm)
	})
}
