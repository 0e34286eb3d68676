package cipher

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPassphrase(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		_, err := Passphrase("")
		assert.ErrorIs(t, err, ErrEmptyPassword)
	})

	t.Run("Literal", func(t *testing.T) {
		key, err := Passphrase("test_password")
		require.NoError(t, err)
		assert.False(t, key.IsZero())
		assert.False(t, key.IsRaw())
		assert.Equal(t, "'test_password'", key.Literal())
		assert.Equal(t, "test_password", key.PragmaValue())
		assert.Equal(t, "PRAGMA rekey = 'test_password'", key.RekeyPragma())
	})

	t.Run("QuotesEscaped", func(t *testing.T) {
		key, err := Passphrase("it's'; DROP TABLE x; --")
		require.NoError(t, err)
		assert.Equal(t, "'it''s''; DROP TABLE x; --'", key.Literal())
	})

	t.Run("DoubleQuotesEscaped", func(t *testing.T) {
		key, err := Passphrase(`say "hi"`)
		require.NoError(t, err)
		assert.Equal(t, `say ""hi""`, key.PragmaValue())
		assert.Equal(t, `'say "hi"'`, key.Literal())
	})

	t.Run("Zero", func(t *testing.T) {
		assert.Equal(t, "", Key{}.PragmaValue())
	})
}

func TestRawKey(t *testing.T) {
	t.Run("WrongSize", func(t *testing.T) {
		_, err := RawKey([]byte("short"))
		assert.ErrorIs(t, err, ErrInvalidKey)
	})

	t.Run("Literal", func(t *testing.T) {
		material := bytes.Repeat([]byte{0xab}, RawKeySize)
		key, err := RawKey(material)
		require.NoError(t, err)
		assert.True(t, key.IsRaw())

		want := `"x'` + fmt.Sprintf("%X", material) + `'"`
		assert.Equal(t, want, key.Literal())
		assert.Equal(t, "x'"+fmt.Sprintf("%X", material)+"'", key.PragmaValue())
	})

	t.Run("CopiesInput", func(t *testing.T) {
		material := bytes.Repeat([]byte{0x01}, RawKeySize)
		key, err := RawKey(material)
		require.NoError(t, err)
		material[0] = 0xff

		again, err := RawKey(bytes.Repeat([]byte{0x01}, RawKeySize))
		require.NoError(t, err)
		assert.True(t, key.Equal(again))
	})
}

func TestKeyDoesNotLeak(t *testing.T) {
	key, err := Passphrase("hunter2")
	require.NoError(t, err)

	for _, format := range []string{"%v", "%s", "%+v", "%#v"} {
		assert.NotContains(t, fmt.Sprintf(format, key), "hunter2")
	}
	assert.Equal(t, "Key(none)", Key{}.String())
}
