package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/approval-desk/internal/storage"
)

func TestStoreLifecycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", storage.DefaultKey)
	store := NewTokenStore(path)

	_, err := store.Load()
	require.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, store.Save("first"))
	require.NoError(t, store.Save("second"))

	token, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "second", token)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	require.NoError(t, store.Delete())
	require.NoError(t, store.Delete(), "delete must be idempotent")

	_, err = store.Load()
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStoreTreatsBlankFileAsAbsent(t *testing.T) {
	path := filepath.Join(t.TempDir(), storage.DefaultKey)
	require.NoError(t, os.WriteFile(path, []byte("  \n"), 0o600))

	_, err := NewTokenStore(path).Load()
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
