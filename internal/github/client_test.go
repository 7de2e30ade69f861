package github

import (
	"context"
	"errors"
	"net/http"
	"testing"

	gh "github.com/google/go-github/v57/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/hubd/internal/config"
)

func TestNewClientRequiresCredentials(t *testing.T) {
	ctx := context.Background()

	_, err := NewClient(ctx, config.GitHubConfig{Username: "octocat"}, nil, nil)
	assert.Error(t, err)

	_, err = NewClient(ctx, config.GitHubConfig{Token: config.Secret("tok")}, nil, nil)
	assert.Error(t, err)

	c, err := NewClient(ctx, config.GitHubConfig{
		Username: "octocat",
		Token:    config.Secret("tok"),
	}, nil, nil)
	require.NoError(t, err)
	assert.NotNil(t, c)
}

func TestCloneURLFor(t *testing.T) {
	r := Repo{
		SSHURL:   "git@example.com:octocat/repo.git",
		CloneURL: "https://example.com/octocat/repo.git",
	}

	assert.Equal(t, r.CloneURL, CloneURLFor(r, config.Secret("tok")))
	assert.Equal(t, r.SSHURL, CloneURLFor(r, config.Secret("")))

	// No HTTPS URL falls back to SSH even with a token.
	sshOnly := Repo{SSHURL: r.SSHURL}
	assert.Equal(t, r.SSHURL, CloneURLFor(sshOnly, config.Secret("tok")))
}

func TestIsRateLimit(t *testing.T) {
	assert.False(t, IsRateLimit(nil))
	assert.False(t, IsRateLimit(errors.New("plain error")))

	assert.True(t, IsRateLimit(&gh.RateLimitError{}))
	assert.True(t, IsRateLimit(&gh.AbuseRateLimitError{}))

	forbidden := &gh.ErrorResponse{Response: &http.Response{StatusCode: http.StatusForbidden}}
	assert.True(t, IsRateLimit(forbidden))

	tooMany := &gh.ErrorResponse{Response: &http.Response{StatusCode: http.StatusTooManyRequests}}
	assert.True(t, IsRateLimit(tooMany))

	notFound := &gh.ErrorResponse{Response: &http.Response{StatusCode: http.StatusNotFound}}
	assert.False(t, IsRateLimit(notFound))
}
