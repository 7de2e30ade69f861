package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRepoByName(t *testing.T) {
	ix := &Index{
		Repositories: []RepoRecord{
			{Name: "alpha", Path: "/src/alpha"},
			{Name: "beta", Path: "/src/beta"},
		},
	}

	r, ok := ix.RepoByName("beta")
	assert.True(t, ok)
	assert.Equal(t, "/src/beta", r.Path)

	_, ok = ix.RepoByName("gamma")
	assert.False(t, ok)

	var nilIx *Index
	_, ok = nilIx.RepoByName("alpha")
	assert.False(t, ok)
}

func TestRepoPaths(t *testing.T) {
	ix := &Index{
		Repositories: []RepoRecord{
			{Name: "alpha", Path: "/src/alpha"},
			{Name: "beta", Path: "/src/beta"},
		},
	}
	assert.Equal(t, []string{"/src/alpha", "/src/beta"}, ix.RepoPaths())

	var nilIx *Index
	assert.Nil(t, nilIx.RepoPaths())
}

func TestNewSyncState(t *testing.T) {
	state := NewSyncState()
	assert.NotNil(t, state.Repos)
	assert.Empty(t, state.Repos)
}

func TestLanguageForExt(t *testing.T) {
	lang, ok := LanguageForExt(".go")
	assert.True(t, ok)
	assert.Equal(t, "Go", lang)

	lang, ok = LanguageForExt(".rs")
	assert.True(t, ok)
	assert.Equal(t, "Rust", lang)

	_, ok = LanguageForExt(".xyz")
	assert.False(t, ok)

	_, ok = LanguageForExt("")
	assert.False(t, ok)
}
