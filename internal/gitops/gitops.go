// Package gitops provides local repository primitives for hubd.
//
// All operations go through go-git; a directory without a .git marker is
// reported as "not a repository" rather than as an error condition callers
// must special-case.
package gitops

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"

	"github.com/fyrsmithlabs/hubd/internal/config"
)

var (
	// ErrNotRepo indicates the directory is not a Git repository.
	ErrNotRepo = errors.New("not a git repository")

	// ErrNonFastForward indicates a pull would require a merge. Pulls fail
	// closed in that case; the repository is left untouched.
	ErrNonFastForward = errors.New("non-fast-forward pull rejected")
)

// Commit identifies the tip of a repository's current branch.
type Commit struct {
	SHA  string
	When time.Time
}

// Status summarizes a repository's relation to its upstream.
type Status struct {
	Branch string
	Dirty  bool
	Ahead  int
	Behind int
}

// Client performs git operations with optional token authentication for
// HTTPS remotes.
type Client struct {
	token config.Secret
}

// NewClient creates a git client. token may be empty for anonymous access.
func NewClient(token config.Secret) *Client {
	return &Client{token: token}
}

// IsRepo reports whether path directly contains version-control metadata.
func IsRepo(path string) bool {
	info, err := os.Stat(filepath.Join(path, git.GitDirName))
	return err == nil && info.IsDir()
}

// DetectBranch returns the current branch name, or "detached" when HEAD does
// not point at a branch.
func DetectBranch(path string) (string, error) {
	repo, err := open(path)
	if err != nil {
		return "", err
	}
	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("resolving HEAD: %w", err)
	}
	if !head.Name().IsBranch() {
		return "detached", nil
	}
	return head.Name().Short(), nil
}

// IsMainBranch checks if the given branch name is a main branch.
func IsMainBranch(branch string) bool {
	return branch == "main" || branch == "master"
}

// RemoteURL returns the first URL of the origin remote, or "" when the
// repository has no origin.
func (c *Client) RemoteURL(path string) (string, error) {
	repo, err := open(path)
	if err != nil {
		return "", err
	}
	remote, err := repo.Remote(git.DefaultRemoteName)
	if err != nil {
		if errors.Is(err, git.ErrRemoteNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("looking up origin: %w", err)
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", nil
	}
	return urls[0], nil
}

// LastCommit returns the SHA and commit time at HEAD.
func (c *Client) LastCommit(path string) (Commit, error) {
	repo, err := open(path)
	if err != nil {
		return Commit{}, err
	}
	head, err := repo.Head()
	if err != nil {
		return Commit{}, fmt.Errorf("resolving HEAD: %w", err)
	}
	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return Commit{}, fmt.Errorf("reading commit %s: %w", head.Hash(), err)
	}
	return Commit{SHA: commit.Hash.String(), When: commit.Committer.When}, nil
}

// Fetch updates remote-tracking refs from origin. Already-up-to-date is not
// an error.
func (c *Client) Fetch(ctx context.Context, path string) error {
	repo, err := open(path)
	if err != nil {
		return err
	}
	err = repo.FetchContext(ctx, &git.FetchOptions{
		RemoteName: git.DefaultRemoteName,
		Auth:       c.authForRepo(repo),
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("fetch: %w", err)
	}
	return nil
}

// Status reports branch, dirtiness, and ahead/behind counts relative to the
// remote-tracking branch. A repository without an upstream reports 0/0.
func (c *Client) Status(path string) (Status, error) {
	repo, err := open(path)
	if err != nil {
		return Status{}, err
	}

	head, err := repo.Head()
	if err != nil {
		return Status{}, fmt.Errorf("resolving HEAD: %w", err)
	}

	st := Status{Branch: "detached"}
	if head.Name().IsBranch() {
		st.Branch = head.Name().Short()
	}

	wt, err := repo.Worktree()
	if err == nil {
		if wtStatus, err := wt.Status(); err == nil {
			st.Dirty = !wtStatus.IsClean()
		}
	}

	if st.Branch == "detached" {
		return st, nil
	}

	remoteRef, err := repo.Reference(plumbing.NewRemoteReferenceName(git.DefaultRemoteName, st.Branch), true)
	if err != nil {
		// No upstream tracking ref; nothing to compare against.
		return st, nil
	}

	ahead, behind, err := aheadBehind(repo, head.Hash(), remoteRef.Hash())
	if err != nil {
		return st, fmt.Errorf("computing ahead/behind: %w", err)
	}
	st.Ahead = ahead
	st.Behind = behind
	return st, nil
}

// Pull fast-forwards the current branch from origin. It returns true when
// HEAD moved. Non-fast-forward situations return ErrNonFastForward.
func (c *Client) Pull(ctx context.Context, path string) (bool, error) {
	repo, err := open(path)
	if err != nil {
		return false, err
	}
	before, err := repo.Head()
	if err != nil {
		return false, fmt.Errorf("resolving HEAD: %w", err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return false, fmt.Errorf("opening worktree: %w", err)
	}

	err = wt.PullContext(ctx, &git.PullOptions{
		RemoteName: git.DefaultRemoteName,
		Auth:       c.authForRepo(repo),
	})
	switch {
	case errors.Is(err, git.NoErrAlreadyUpToDate):
		return false, nil
	case errors.Is(err, git.ErrNonFastForwardUpdate):
		return false, fmt.Errorf("%w: %s", ErrNonFastForward, path)
	case err != nil:
		return false, fmt.Errorf("pull: %w", err)
	}

	after, err := repo.Head()
	if err != nil {
		return false, fmt.Errorf("resolving HEAD after pull: %w", err)
	}
	return before.Hash() != after.Hash(), nil
}

// Clone clones url into dest.
func (c *Client) Clone(ctx context.Context, url, dest string) error {
	_, err := git.PlainCloneContext(ctx, dest, false, &git.CloneOptions{
		URL:  url,
		Auth: c.authFor(url),
	})
	if err != nil {
		return fmt.Errorf("clone %s: %w", url, err)
	}
	return nil
}

// auth returns HTTP basic auth for the configured token, or nil.
// The return type is the transport interface so a nil result stays nil
// inside go-git option structs.
func (c *Client) auth() transport.AuthMethod {
	if !c.token.IsSet() {
		return nil
	}
	return &githttp.BasicAuth{Username: "x-access-token", Password: c.token.Value()}
}

// authForRepo resolves the origin URL and applies authFor. Local and SSH
// remotes get no explicit auth.
func (c *Client) authForRepo(repo *git.Repository) transport.AuthMethod {
	remote, err := repo.Remote(git.DefaultRemoteName)
	if err != nil || len(remote.Config().URLs) == 0 {
		return nil
	}
	return c.authFor(remote.Config().URLs[0])
}

// authFor returns auth only for HTTPS URLs; SSH URLs use the ambient agent.
func (c *Client) authFor(url string) transport.AuthMethod {
	if !strings.HasPrefix(url, "https://") {
		return nil
	}
	return c.auth()
}

func open(path string) (*git.Repository, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("%w: %s", ErrNotRepo, path)
		}
		return nil, fmt.Errorf("opening repository %s: %w", path, err)
	}
	return repo, nil
}

// aheadBehind counts commits reachable from one tip but not the other, via
// their merge base.
func aheadBehind(repo *git.Repository, local, remote plumbing.Hash) (int, int, error) {
	if local == remote {
		return 0, 0, nil
	}

	localCommit, err := repo.CommitObject(local)
	if err != nil {
		return 0, 0, err
	}
	remoteCommit, err := repo.CommitObject(remote)
	if err != nil {
		return 0, 0, err
	}

	bases, err := localCommit.MergeBase(remoteCommit)
	if err != nil || len(bases) == 0 {
		// Unrelated histories; report full distances.
		ahead, aerr := countToBase(localCommit, plumbing.ZeroHash)
		behind, berr := countToBase(remoteCommit, plumbing.ZeroHash)
		if aerr != nil || berr != nil {
			return 0, 0, fmt.Errorf("no merge base between %s and %s", local, remote)
		}
		return ahead, behind, nil
	}

	base := bases[0].Hash
	ahead, err := countToBase(localCommit, base)
	if err != nil {
		return 0, 0, err
	}
	behind, err := countToBase(remoteCommit, base)
	if err != nil {
		return 0, 0, err
	}
	return ahead, behind, nil
}

// countToBase counts commits from tip down to (excluding) base.
func countToBase(tip *object.Commit, base plumbing.Hash) (int, error) {
	var ignore []plumbing.Hash
	if base != plumbing.ZeroHash {
		ignore = append(ignore, base)
	}
	count := 0
	iter := object.NewCommitPreorderIter(tip, nil, ignore)
	err := iter.ForEach(func(c *object.Commit) error {
		count++
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}
