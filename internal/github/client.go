// Package github lists the authenticated user's remote repositories.
//
// All API calls go through the rate limiter; rate-limit responses (403/429)
// are retried with backoff there, everything else propagates.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	gh "github.com/google/go-github/v57/github"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/fyrsmithlabs/hubd/internal/config"
	"github.com/fyrsmithlabs/hubd/internal/logging"
	"github.com/fyrsmithlabs/hubd/internal/ratelimit"
)

// Repo describes one remote repository, reduced to what reconciliation needs.
type Repo struct {
	Name     string
	SSHURL   string
	CloneURL string
	Private  bool
}

// Client fetches the configured account's owned, non-fork repositories.
type Client struct {
	api      *gh.Client
	username string
	limiter  *ratelimit.Limiter
	logger   *logging.Logger
}

// NewClient creates an authenticated client for the configured account.
func NewClient(ctx context.Context, cfg config.GitHubConfig, limiter *ratelimit.Limiter, logger *logging.Logger) (*Client, error) {
	if !cfg.Token.IsSet() {
		return nil, errors.New("github token not set")
	}
	if cfg.Username == "" {
		return nil, errors.New("github username not set")
	}
	if logger == nil {
		logger = logging.Nop()
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token.Value()})
	tc := oauth2.NewClient(ctx, ts)

	return &Client{
		api:      gh.NewClient(tc),
		username: cfg.Username,
		limiter:  limiter,
		logger:   logger.Named("github"),
	}, nil
}

// ListOwnedRepos returns the account's owned, non-fork repositories, sorted
// by most recently pushed. Results are filtered client-side to the
// configured owner: the affiliation filter alone can include repositories
// reachable through organization membership.
func (c *Client) ListOwnedRepos(ctx context.Context) ([]Repo, error) {
	opts := &gh.RepositoryListByAuthenticatedUserOptions{
		Affiliation: "owner",
		Sort:        "pushed",
		ListOptions: gh.ListOptions{PerPage: 100},
	}

	var out []Repo
	for {
		var (
			page []*gh.Repository
			resp *gh.Response
		)
		err := c.limiter.Do(ctx, func() error {
			var apiErr error
			page, resp, apiErr = c.api.Repositories.ListByAuthenticatedUser(ctx, opts)
			return apiErr
		})
		if err != nil {
			return nil, fmt.Errorf("listing repositories: %w", err)
		}

		for _, r := range page {
			if r.GetFork() {
				continue
			}
			if !strings.EqualFold(r.GetOwner().GetLogin(), c.username) {
				continue
			}
			out = append(out, Repo{
				Name:     r.GetName(),
				SSHURL:   r.GetSSHURL(),
				CloneURL: r.GetCloneURL(),
				Private:  r.GetPrivate(),
			})
		}

		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	c.logger.Debug(ctx, "fetched remote repository list", zap.Int("count", len(out)))
	return out, nil
}

// CloneURLFor returns the URL a clone should use: the HTTPS URL when a token
// is configured (the transport supplies the credentials), the SSH URL
// otherwise.
func CloneURLFor(r Repo, token config.Secret) string {
	if token.IsSet() && r.CloneURL != "" {
		return r.CloneURL
	}
	return r.SSHURL
}

// IsRateLimit classifies an error as a rate-limit signal (HTTP 403/429).
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	var rle *gh.RateLimitError
	if errors.As(err, &rle) {
		return true
	}
	var arle *gh.AbuseRateLimitError
	if errors.As(err, &arle) {
		return true
	}
	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		code := ghErr.Response.StatusCode
		return code == http.StatusForbidden || code == http.StatusTooManyRequests
	}
	return false
}
