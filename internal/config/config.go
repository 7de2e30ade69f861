// Package config provides configuration loading for hubd.
//
// Configuration is loaded from a YAML file and overridden by environment
// variables. See Load for precedence rules.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config holds the complete hubd configuration.
type Config struct {
	Sources   SourcesConfig   `koanf:"sources"`
	Wiki      WikiConfig      `koanf:"wiki"`
	Cache     CacheConfig     `koanf:"cache"`
	GitHub    GitHubConfig    `koanf:"github"`
	Sync      SyncConfig      `koanf:"sync"`
	Search    SearchConfig    `koanf:"search"`
	RateLimit RateLimitConfig `koanf:"ratelimit"`
	Logging   LoggingConfig   `koanf:"logging"`
	Metrics   MetricsConfig   `koanf:"metrics"`
}

// SourcesConfig describes where repositories are discovered.
type SourcesConfig struct {
	// Dirs are the directories scanned for repositories. Each directory is
	// itself a candidate repository, and its immediate children are scanned.
	Dirs []string `koanf:"dirs"`

	// ExcludeSegment is a path segment that is always skipped during
	// discovery, so the indexer never indexes its own deployment.
	ExcludeSegment string `koanf:"exclude_segment"`

	// IndexOnStartup triggers a full index build when the daemon starts.
	IndexOnStartup bool `koanf:"index_on_startup"`
}

// WikiConfig describes the curated document collection.
type WikiConfig struct {
	Root  string `koanf:"root"`
	Watch bool   `koanf:"watch"`
}

// CacheConfig controls on-disk persistence of the index and sync state.
type CacheConfig struct {
	Dir    string   `koanf:"dir"`
	MaxAge Duration `koanf:"max_age"`
}

// GitHubConfig holds remote account identity and credentials.
// When Username or Token is empty, remote reconciliation is skipped.
type GitHubConfig struct {
	Username string `koanf:"username"`
	Token    Secret `koanf:"token"`
}

// SyncConfig controls the background reconciliation cycle.
type SyncConfig struct {
	Enabled      bool     `koanf:"enabled"`
	Interval     Duration `koanf:"interval"`
	InitialDelay Duration `koanf:"initial_delay"`
}

// SearchConfig controls result ranking.
type SearchConfig struct {
	MaxResults int     `koanf:"max_results"`
	WikiBoost  float64 `koanf:"wiki_boost"`
}

// RateLimitConfig controls pacing and retry of remote API calls.
type RateLimitConfig struct {
	MinInterval Duration `koanf:"min_interval"`
	BaseDelay   Duration `koanf:"base_delay"`
	MaxDelay    Duration `koanf:"max_delay"`
	MaxRetries  int      `koanf:"max_retries"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// MetricsConfig controls the Prometheus endpoint exposed by serve.
type MetricsConfig struct {
	Enabled bool `koanf:"enabled"`
	Port    int  `koanf:"port"`
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	home, _ := os.UserHomeDir()

	if len(cfg.Sources.Dirs) == 0 && home != "" {
		cfg.Sources.Dirs = []string{filepath.Join(home, "src")}
	}
	if cfg.Sources.ExcludeSegment == "" {
		cfg.Sources.ExcludeSegment = "hubd"
	}
	if cfg.Wiki.Root == "" && home != "" {
		cfg.Wiki.Root = filepath.Join(home, ".local", "share", "hubd", "wiki")
	}
	if cfg.Cache.Dir == "" && home != "" {
		cfg.Cache.Dir = filepath.Join(home, ".cache", "hubd")
	}
	if cfg.Cache.MaxAge == 0 {
		cfg.Cache.MaxAge = Duration(60 * time.Minute)
	}
	if cfg.Sync.Interval == 0 {
		cfg.Sync.Interval = Duration(60 * time.Minute)
	}
	if cfg.Sync.InitialDelay == 0 {
		cfg.Sync.InitialDelay = Duration(10 * time.Second)
	}
	if cfg.Search.MaxResults == 0 {
		cfg.Search.MaxResults = 50
	}
	if cfg.Search.WikiBoost == 0 {
		cfg.Search.WikiBoost = 2.0
	}
	if cfg.RateLimit.MinInterval == 0 {
		cfg.RateLimit.MinInterval = Duration(100 * time.Millisecond)
	}
	if cfg.RateLimit.BaseDelay == 0 {
		cfg.RateLimit.BaseDelay = Duration(time.Second)
	}
	if cfg.RateLimit.MaxDelay == 0 {
		cfg.RateLimit.MaxDelay = Duration(60 * time.Second)
	}
	if cfg.RateLimit.MaxRetries == 0 {
		cfg.RateLimit.MaxRetries = 5
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = 9877
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if len(c.Sources.Dirs) == 0 {
		return errors.New("at least one source directory is required")
	}
	if c.Cache.Dir == "" {
		return errors.New("cache directory is required")
	}
	if c.Sync.Interval.Duration() <= 0 {
		return errors.New("sync interval must be positive")
	}
	if c.Search.MaxResults < 1 {
		return fmt.Errorf("search max_results must be at least 1, got %d", c.Search.MaxResults)
	}
	if c.Search.WikiBoost <= 0 {
		return fmt.Errorf("search wiki_boost must be positive, got %v", c.Search.WikiBoost)
	}
	if c.RateLimit.MaxRetries < 0 {
		return fmt.Errorf("ratelimit max_retries cannot be negative, got %d", c.RateLimit.MaxRetries)
	}
	if c.Metrics.Enabled && (c.Metrics.Port < 1 || c.Metrics.Port > 65535) {
		return fmt.Errorf("invalid metrics port: %d (must be 1-65535)", c.Metrics.Port)
	}
	// GitHub credentials are optional, but a token without a username cannot
	// be filtered to owned repositories.
	if c.GitHub.Token.IsSet() && c.GitHub.Username == "" {
		return errors.New("github username required when a token is configured")
	}
	return nil
}

// RemoteConfigured reports whether remote reconciliation can run.
func (c *Config) RemoteConfigured() bool {
	return c.GitHub.Username != "" && c.GitHub.Token.IsSet()
}
