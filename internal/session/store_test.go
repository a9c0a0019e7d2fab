package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store := NewFileStore(path)

	_, ok := store.Get()
	assert.False(t, ok, "empty store has no identity")

	id := uuid.New()
	require.NoError(t, store.Set(id))

	// A fresh store over the same file simulates a process restart.
	reopened := NewFileStore(path)
	got, ok := reopened.Get()
	require.True(t, ok)
	assert.Equal(t, id, got)
}

func TestFileStoreClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store := NewFileStore(path)

	require.NoError(t, store.Set(uuid.New()))
	require.NoError(t, store.Clear())

	_, ok := store.Get()
	assert.False(t, ok)

	// Clearing an already-empty store is fine.
	require.NoError(t, store.Clear())
}

func TestFileStoreCorruptRecordIgnored(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	store := NewFileStore(path)
	_, ok := store.Get()
	assert.False(t, ok)
}
