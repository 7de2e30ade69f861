package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "sources:\n  dirs: [/src]\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"/src"}, cfg.Sources.Dirs)
	assert.Equal(t, "hubd", cfg.Sources.ExcludeSegment)
	assert.Equal(t, 60*time.Minute, cfg.Cache.MaxAge.Duration())
	assert.Equal(t, 60*time.Minute, cfg.Sync.Interval.Duration())
	assert.Equal(t, 10*time.Second, cfg.Sync.InitialDelay.Duration())
	assert.Equal(t, 50, cfg.Search.MaxResults)
	assert.Equal(t, 2.0, cfg.Search.WikiBoost)
	assert.Equal(t, 100*time.Millisecond, cfg.RateLimit.MinInterval.Duration())
	assert.Equal(t, time.Second, cfg.RateLimit.BaseDelay.Duration())
	assert.Equal(t, 60*time.Second, cfg.RateLimit.MaxDelay.Duration())
	assert.Equal(t, 5, cfg.RateLimit.MaxRetries)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 9877, cfg.Metrics.Port)
	assert.False(t, cfg.RemoteConfigured())
}

func TestLoadYAMLValues(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
sources:
  dirs: [/src, /work]
  exclude_segment: tooling
wiki:
  root: /wiki
  watch: true
github:
  username: octocat
  token: sekrit
sync:
  enabled: true
  interval: 30m
search:
  max_results: 10
  wiki_boost: 3.5
`))
	require.NoError(t, err)

	assert.Equal(t, []string{"/src", "/work"}, cfg.Sources.Dirs)
	assert.Equal(t, "tooling", cfg.Sources.ExcludeSegment)
	assert.True(t, cfg.Wiki.Watch)
	assert.Equal(t, "octocat", cfg.GitHub.Username)
	assert.Equal(t, "sekrit", cfg.GitHub.Token.Value())
	assert.True(t, cfg.Sync.Enabled)
	assert.Equal(t, 30*time.Minute, cfg.Sync.Interval.Duration())
	assert.Equal(t, 10, cfg.Search.MaxResults)
	assert.Equal(t, 3.5, cfg.Search.WikiBoost)
	assert.True(t, cfg.RemoteConfigured())
}

func TestLoadEnvOverridesFile(t *testing.T) {
	t.Setenv("HUBD_GITHUB_USERNAME", "fromenv")
	t.Setenv("HUBD_GITHUB_TOKEN", "envtoken")
	t.Setenv("HUBD_SYNC_INTERVAL", "15m")

	cfg, err := Load(writeConfig(t, `
sources:
  dirs: [/src]
github:
  username: fromfile
  token: filetoken
`))
	require.NoError(t, err)

	assert.Equal(t, "fromenv", cfg.GitHub.Username)
	assert.Equal(t, "envtoken", cfg.GitHub.Token.Value())
	assert.Equal(t, 15*time.Minute, cfg.Sync.Interval.Duration())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.Sources.Dirs)
}

func TestLoadRejectsTokenWithoutUsername(t *testing.T) {
	_, err := Load(writeConfig(t, `
sources:
  dirs: [/src]
github:
  token: sekrit
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "username")
}

func TestValidateRejectsBadValues(t *testing.T) {
	base := func() Config {
		var cfg Config
		applyDefaults(&cfg)
		cfg.Sources.Dirs = []string{"/src"}
		cfg.Cache.Dir = "/cache"
		return cfg
	}

	cfg := base()
	cfg.Sources.Dirs = nil
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Search.MaxResults = 0
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Search.WikiBoost = -1
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Metrics.Enabled = true
	cfg.Metrics.Port = 70000
	assert.Error(t, cfg.Validate())

	cfg = base()
	assert.NoError(t, cfg.Validate())
}

func TestSecretRedaction(t *testing.T) {
	s := Secret("hunter2")

	assert.Equal(t, "[REDACTED]", s.String())
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%s", s))
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%v", s))
	assert.NotContains(t, fmt.Sprintf("%#v", s), "hunter2")
	assert.Equal(t, "hunter2", s.Value())
	assert.True(t, s.IsSet())

	out, err := json.Marshal(s)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "hunter2")

	empty := Secret("")
	assert.Equal(t, "", empty.String())
	assert.False(t, empty.IsSet())
}

func TestDurationUnmarshalText(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("90s")))
	assert.Equal(t, 90*time.Second, d.Duration())

	assert.Error(t, d.UnmarshalText([]byte("-5s")))
	assert.Error(t, d.UnmarshalText([]byte("soon")))
}
