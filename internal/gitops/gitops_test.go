package gitops

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/hubd/internal/config"
)

func commitFile(t *testing.T, repo *git.Repository, dir, name, content string) string {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))

	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add(name)
	require.NoError(t, err)

	hash, err := wt.Commit("add "+name, &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)
	return hash.String()
}

func initRepo(t *testing.T) (*git.Repository, string) {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	return repo, dir
}

func TestIsRepo(t *testing.T) {
	assert.False(t, IsRepo(t.TempDir()))

	_, dir := initRepo(t)
	assert.True(t, IsRepo(dir))
}

func TestIsMainBranch(t *testing.T) {
	assert.True(t, IsMainBranch("main"))
	assert.True(t, IsMainBranch("master"))
	assert.False(t, IsMainBranch("develop"))
	assert.False(t, IsMainBranch(""))
}

func TestDetectBranch(t *testing.T) {
	repo, dir := initRepo(t)
	commitFile(t, repo, dir, "a.txt", "a\n")

	branch, err := DetectBranch(dir)
	require.NoError(t, err)
	assert.Equal(t, "master", branch)
}

func TestLastCommit(t *testing.T) {
	repo, dir := initRepo(t)
	want := commitFile(t, repo, dir, "a.txt", "a\n")

	c := NewClient(config.Secret(""))
	commit, err := c.LastCommit(dir)
	require.NoError(t, err)
	assert.Equal(t, want, commit.SHA)
	assert.False(t, commit.When.IsZero())
}

func TestLastCommitNotARepo(t *testing.T) {
	c := NewClient(config.Secret(""))
	_, err := c.LastCommit(t.TempDir())
	assert.ErrorIs(t, err, ErrNotRepo)
}

func TestRemoteURL(t *testing.T) {
	repo, dir := initRepo(t)
	c := NewClient(config.Secret(""))

	url, err := c.RemoteURL(dir)
	require.NoError(t, err)
	assert.Empty(t, url, "no origin means empty url, not an error")

	_, err = repo.CreateRemote(&gitconfig.RemoteConfig{
		Name: git.DefaultRemoteName,
		URLs: []string{"https://example.com/octocat/repo.git"},
	})
	require.NoError(t, err)

	url, err = c.RemoteURL(dir)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/octocat/repo.git", url)
}

func TestAuthOnlyForHTTPSRemotes(t *testing.T) {
	withToken := NewClient(config.Secret("tok"))
	assert.NotNil(t, withToken.authFor("https://example.com/repo.git"))
	assert.Nil(t, withToken.authFor("git@example.com:repo.git"))
	assert.Nil(t, withToken.authFor("/local/path/repo"))

	noToken := NewClient(config.Secret(""))
	assert.Nil(t, noToken.authFor("https://example.com/repo.git"))
}

// cloneFixture builds an upstream repository with one commit and a local
// clone of it, both on the local filesystem.
func cloneFixture(t *testing.T) (upstream *git.Repository, upstreamDir, cloneDir string) {
	t.Helper()
	upstream, upstreamDir = initRepo(t)
	commitFile(t, upstream, upstreamDir, "a.txt", "a\n")

	cloneDir = filepath.Join(t.TempDir(), "clone")
	c := NewClient(config.Secret(""))
	require.NoError(t, c.Clone(context.Background(), upstreamDir, cloneDir))
	return upstream, upstreamDir, cloneDir
}

func TestCloneStatusUpToDate(t *testing.T) {
	_, _, cloneDir := cloneFixture(t)
	c := NewClient(config.Secret(""))

	st, err := c.Status(cloneDir)
	require.NoError(t, err)
	assert.Equal(t, "master", st.Branch)
	assert.False(t, st.Dirty)
	assert.Zero(t, st.Ahead)
	assert.Zero(t, st.Behind)
}

func TestFetchDetectsBehind(t *testing.T) {
	upstream, upstreamDir, cloneDir := cloneFixture(t)
	c := NewClient(config.Secret(""))

	commitFile(t, upstream, upstreamDir, "b.txt", "b\n")
	require.NoError(t, c.Fetch(context.Background(), cloneDir))

	st, err := c.Status(cloneDir)
	require.NoError(t, err)
	assert.Equal(t, 0, st.Ahead)
	assert.Equal(t, 1, st.Behind)
}

func TestPullFastForwards(t *testing.T) {
	upstream, upstreamDir, cloneDir := cloneFixture(t)
	c := NewClient(config.Secret(""))

	want := commitFile(t, upstream, upstreamDir, "b.txt", "b\n")
	require.NoError(t, c.Fetch(context.Background(), cloneDir))

	changed, err := c.Pull(context.Background(), cloneDir)
	require.NoError(t, err)
	assert.True(t, changed)

	commit, err := c.LastCommit(cloneDir)
	require.NoError(t, err)
	assert.Equal(t, want, commit.SHA)

	// A second pull is a no-op.
	changed, err = c.Pull(context.Background(), cloneDir)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestStatusDetectsAheadAndDirty(t *testing.T) {
	_, _, cloneDir := cloneFixture(t)
	c := NewClient(config.Secret(""))

	cloneRepo, err := git.PlainOpen(cloneDir)
	require.NoError(t, err)
	commitFile(t, cloneRepo, cloneDir, "local.txt", "local\n")
	require.NoError(t, os.WriteFile(filepath.Join(cloneDir, "dirty.txt"), []byte("x\n"), 0o644))

	st, err := c.Status(cloneDir)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Ahead)
	assert.Equal(t, 0, st.Behind)
	assert.True(t, st.Dirty)
}

func TestFetchAlreadyUpToDate(t *testing.T) {
	_, _, cloneDir := cloneFixture(t)
	c := NewClient(config.Secret(""))

	assert.NoError(t, c.Fetch(context.Background(), cloneDir))
}
