package main

import (
	"context"
	"fmt"

	"github.com/fyrsmithlabs/hubd/internal/cache"
	"github.com/fyrsmithlabs/hubd/internal/config"
	"github.com/fyrsmithlabs/hubd/internal/github"
	"github.com/fyrsmithlabs/hubd/internal/gitops"
	"github.com/fyrsmithlabs/hubd/internal/index"
	"github.com/fyrsmithlabs/hubd/internal/logging"
	"github.com/fyrsmithlabs/hubd/internal/ratelimit"
	"github.com/fyrsmithlabs/hubd/internal/ripgrep"
	"github.com/fyrsmithlabs/hubd/internal/search"
	"github.com/fyrsmithlabs/hubd/internal/services"
	"github.com/fyrsmithlabs/hubd/internal/syncer"
	"github.com/fyrsmithlabs/hubd/internal/wiki"
)

// app bundles the loaded configuration, logger, and wired services shared by
// every subcommand.
type app struct {
	cfg    *config.Config
	logger *logging.Logger
	reg    services.Registry
}

// bootstrap loads configuration and wires the full service graph. The remote
// client and scheduler stay nil when their configuration is absent.
func bootstrap(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := config.EnsureDirs(cfg); err != nil {
		return nil, err
	}

	logger, err := initLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	store := cache.NewStore(cfg.Cache.Dir, logger)
	git := gitops.NewClient(cfg.GitHub.Token)
	builder := index.NewBuilder(cfg.Sources, cfg.Wiki.Root, git, store, logger)
	rg := ripgrep.New(logger)
	engine := search.NewEngine(builder, rg, cfg.Search, logger)

	var remote *github.Client
	if cfg.RemoteConfigured() {
		limiter := ratelimit.New(ratelimit.Config{
			MinInterval: cfg.RateLimit.MinInterval.Duration(),
			BaseDelay:   cfg.RateLimit.BaseDelay.Duration(),
			MaxDelay:    cfg.RateLimit.MaxDelay.Duration(),
			MaxRetries:  cfg.RateLimit.MaxRetries,
			IsRateLimit: github.IsRateLimit,
		}, logger)
		remote, err = github.NewClient(ctx, cfg.GitHub, limiter, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create remote client: %w", err)
		}
	}

	// The nil check matters: a nil *github.Client stored directly into the
	// RemoteLister interface would not compare equal to nil inside the engine.
	var lister syncer.RemoteLister
	if remote != nil {
		lister = remote
	}
	sync := syncer.NewEngine(*cfg, git, lister, builder, store, logger)

	var scheduler *syncer.Scheduler
	if cfg.Sync.Enabled {
		scheduler = syncer.NewScheduler(sync,
			cfg.Sync.Interval.Duration(),
			cfg.Sync.InitialDelay.Duration(),
			logger)
	}

	var watcher *wiki.Watcher
	if cfg.Wiki.Watch && cfg.Wiki.Root != "" {
		watcher = wiki.NewWatcher(cfg.Wiki.Root, builder.RefreshDocuments, logger)
	}

	return &app{
		cfg:    cfg,
		logger: logger,
		reg: services.NewRegistry(services.Options{
			Cache:     store,
			Builder:   builder,
			Search:    engine,
			Syncer:    sync,
			Scheduler: scheduler,
			Git:       git,
			Remote:    remote,
			Watcher:   watcher,
		}),
	}, nil
}

// loadOrBuild installs the cached index when fresh, otherwise runs a full
// build. Returns the installed snapshot.
func (a *app) loadOrBuild(ctx context.Context) *index.Index {
	cached, _ := a.reg.Cache().Load()
	if !cache.IsStale(cached, a.cfg.Cache.MaxAge.Duration()) {
		a.reg.Builder().Install(cached)
		return cached
	}
	return a.reg.Builder().BuildFull(ctx)
}

func initLogger(cfg *config.Config) (*logging.Logger, error) {
	lcfg := logging.NewDefaultConfig()
	lcfg.Format = cfg.Logging.Format
	level, err := logging.LevelFromString(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	lcfg.Level = level
	return logging.NewLogger(lcfg)
}
