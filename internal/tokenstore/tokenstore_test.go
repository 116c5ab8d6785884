package tokenstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_SaveLoadClear(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	token, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, token, "missing file must read as empty token")

	require.NoError(t, store.Save("abc123"))

	token, err = store.Load()
	require.NoError(t, err)
	assert.Equal(t, "abc123", token)

	require.NoError(t, store.Clear())

	token, err = store.Load()
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestFileStore_ClearIsIdempotent(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())
}

func TestFileStore_SaveOverwrites(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Save("first"))
	require.NoError(t, store.Save("second"))

	token, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "second", token)
}

func TestFileStore_FilePermissions(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Save("secret"))

	info, err := os.Stat(filepath.Join(dir, "dealerflow_token"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileStore_CreatesMissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "config")
	store, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Save("tok"))

	token, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "tok", token)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore("seed")

	token, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "seed", token)

	require.NoError(t, store.Save("next"))
	token, _ = store.Load()
	assert.Equal(t, "next", token)

	require.NoError(t, store.Clear())
	token, _ = store.Load()
	assert.Empty(t, token)
}
