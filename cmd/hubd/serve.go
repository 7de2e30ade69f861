package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/hubd/internal/cache"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the hubd daemon",
	Long: `Run the daemon: build or load the index, watch the wiki for edits,
run periodic sync cycles, and expose Prometheus metrics when enabled.

The daemon shuts down gracefully on SIGINT or SIGTERM.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	app, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = app.logger.Sync()
	}()

	logger := app.logger
	logger.Info(ctx, "starting hubd",
		zap.String("version", version),
		zap.Strings("source_dirs", app.cfg.Sources.Dirs),
		zap.String("wiki_root", app.cfg.Wiki.Root),
		zap.Bool("sync_enabled", app.cfg.Sync.Enabled),
		zap.Bool("remote_configured", app.cfg.RemoteConfigured()))

	// Startup index: reuse a fresh cache, rebuild otherwise. IndexOnStartup
	// forces the rebuild regardless of cache age.
	if app.cfg.Sources.IndexOnStartup {
		app.reg.Builder().BuildFull(ctx)
	} else {
		app.loadOrBuild(ctx)
	}
	if snapshot := app.reg.Builder().Current(); snapshot != nil {
		logger.Info(ctx, "index ready",
			zap.Int("repositories", len(snapshot.Repositories)),
			zap.Int("documents", len(snapshot.Documents)))
	}

	if watcher := app.reg.Watcher(); watcher != nil {
		if err := watcher.Start(ctx); err != nil {
			logger.Warn(ctx, "wiki watcher failed to start", zap.Error(err))
		} else {
			defer watcher.Stop()
		}
	}

	if scheduler := app.reg.Scheduler(); scheduler != nil {
		scheduler.Start(ctx)
		defer scheduler.Stop()
	}

	var metricsSrv *http.Server
	if app.cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			stale := cache.IsStale(app.reg.Builder().Current(), app.cfg.Cache.MaxAge.Duration())
			if stale {
				w.WriteHeader(http.StatusServiceUnavailable)
				fmt.Fprintln(w, "index stale")
				return
			}
			fmt.Fprintln(w, "ok")
		})
		metricsSrv = &http.Server{
			Addr:              fmt.Sprintf(":%d", app.cfg.Metrics.Port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info(ctx, "metrics endpoint listening", zap.Int("port", app.cfg.Metrics.Port))
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error(ctx, "metrics server failed", zap.Error(err))
			}
		}()
	}

	sig := <-sigCh
	logger.Info(ctx, "shutting down", zap.String("signal", sig.String()))
	cancel()

	if metricsSrv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
	}

	logger.Info(context.Background(), "shutdown complete")
	return nil
}
