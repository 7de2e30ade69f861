package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/hubd/internal/index"
)

func testIndex() *index.Index {
	return &index.Index{
		Version:       index.SchemaVersion,
		LastFullIndex: time.Now().UTC().Truncate(time.Second),
		Repositories: []index.RepoRecord{
			{Name: "hubd", Path: "/src/hubd", Languages: []string{"Go"}},
		},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := NewStore(t.TempDir(), nil)

	ix := testIndex()
	require.NoError(t, store.Save(ix))

	got, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, ix.Version, got.Version)
	assert.Equal(t, ix.Repositories, got.Repositories)
	assert.True(t, ix.LastFullIndex.Equal(got.LastFullIndex))
}

func TestLoadMissingFileIsAbsent(t *testing.T) {
	store := NewStore(t.TempDir(), nil)

	got, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLoadCorruptFileIsAbsent(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.json"), []byte("{not json"), 0o600))

	store := NewStore(dir, nil)
	got, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLoadVersionMismatchIsAbsent(t *testing.T) {
	dir := t.TempDir()
	stale := testIndex()
	stale.Version = "0"
	content, err := json.Marshal(stale)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.json"), content, 0o600))

	store := NewStore(dir, nil)
	got, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, got, "a version-mismatched cache must read as absent")
}

func TestSaveCreatesCacheDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "cache")
	store := NewStore(dir, nil)

	require.NoError(t, store.Save(testIndex()))
	_, err := os.Stat(filepath.Join(dir, "index.json"))
	assert.NoError(t, err)
}

func TestSyncStateRoundTrip(t *testing.T) {
	store := NewStore(t.TempDir(), nil)

	state := index.NewSyncState()
	state.Repos["hubd"] = index.RepoSync{
		Name:   "hubd",
		Path:   "/src/hubd",
		Status: index.StatusSynced,
	}
	require.NoError(t, store.SaveSyncState(state))

	got := store.LoadSyncState()
	require.NotNil(t, got)
	assert.Equal(t, state.Repos, got.Repos)
}

func TestLoadSyncStateNeverFails(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, nil)

	// Missing file.
	got := store.LoadSyncState()
	require.NotNil(t, got)
	assert.Empty(t, got.Repos)

	// Corrupt file.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sync-state.json"), []byte("]["), 0o600))
	got = store.LoadSyncState()
	require.NotNil(t, got)
	assert.Empty(t, got.Repos)
}

func TestIsStale(t *testing.T) {
	maxAge := time.Hour

	assert.True(t, IsStale(nil, maxAge), "absent index is always stale")

	fresh := &index.Index{LastFullIndex: time.Now().Add(-time.Minute)}
	assert.False(t, IsStale(fresh, maxAge))

	old := &index.Index{LastFullIndex: time.Now().Add(-2 * time.Hour)}
	assert.True(t, IsStale(old, maxAge))
}
