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

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/indexer"
	"github.com/hyperjump/kotae/internal/metrics"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/pipeline"
	"github.com/hyperjump/kotae/internal/server"
	"github.com/hyperjump/kotae/internal/watcher"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var watchDirs []string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Starts the HTTP API. Files are ingested with POST /api/v1/ingest, or
automatically from watched directories: any change to an accepted file
under a watched directory re-ingests every accepted file there.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, watchDirs)
		},
	}
	cmd.Flags().StringArrayVar(&watchDirs, "watch", nil, "directory to watch and ingest (repeatable)")
	return cmd
}

func runServe(opts *rootOptions, watchDirs []string) error {
	cfg, resolvedConfigPath, logger, err := setup(opts, false)
	if err != nil {
		return err
	}
	defer logger.Sync()

	m := metrics.New()
	p, err := pipeline.New(cfg, logger, pipeline.WithMetrics(m))
	if err != nil {
		return fmt.Errorf("failed to initialize pipeline: %w", err)
	}
	defer p.Close()

	dirs := append(append([]string(nil), cfg.Watch.Directories...), watchDirs...)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var srv *server.Server
	reingest := func() {
		err := srv.Reingest(ctx)
		switch {
		case errors.Is(err, indexer.ErrEmptyIndex):
			logger.Warn("watched directories have no content to index")
		case err != nil:
			logger.Error("re-ingest failed", zap.Error(err))
		}
	}
	watchOpts := []watcher.WatcherOption{
		watcher.WithDebounce(time.Duration(cfg.Watch.DebounceMillis) * time.Millisecond),
	}
	if cfg.Debug || opts.debug {
		watchOpts = append(watchOpts, watcher.WithLogger(logger))
	}
	watchSvc := watcher.NewWatcher(dirs, models.AcceptedExtensions(), cfg.Watch.RecursiveOrDefault(), reingest, watchOpts...)

	srvOpts := []server.Option{
		server.WithMetricsHandler(server.MetricsHandler(m.Registry)),
		server.WithWatch(watchSvc),
	}
	if resolvedConfigPath != "" {
		srvOpts = append(srvOpts, server.WithConfigPersistence(resolvedConfigPath, cfg))
	}
	srv = server.NewServer(p, &cfg.Server, logger, srvOpts...)

	if err := watchSvc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer watchSvc.Stop()
	if len(watchSvc.Files()) > 0 {
		go reingest()
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	select {
	case <-sigChan:
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	}

	logger.Info("Shutting down...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return srv.Stop(shutdownCtx)
}
