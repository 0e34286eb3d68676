package keystore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestKeystore(t *testing.T) {
	keyring.MockInit()
	ks := New()
	path := filepath.Join(t.TempDir(), "app.db")

	t.Run("Missing", func(t *testing.T) {
		_, found, err := ks.Get(path)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("SetGet", func(t *testing.T) {
		require.NoError(t, ks.Set(path, "secret"))

		password, found, err := ks.Get(path)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "secret", password)
	})

	t.Run("RelativePath", func(t *testing.T) {
		wd, err := os.Getwd()
		require.NoError(t, err)
		require.NoError(t, ks.Set("relative.db", "rel"))

		password, found, err := ks.Get(filepath.Join(wd, "relative.db"))
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "rel", password)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, ks.Delete(path))
		require.NoError(t, ks.Delete(path))

		_, found, err := ks.Get(path)
		require.NoError(t, err)
		assert.False(t, found)
	})
}
