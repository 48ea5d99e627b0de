package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/citadelrisk/graphbuilder/internal/api"
	"github.com/citadelrisk/graphbuilder/internal/config"
	"github.com/citadelrisk/graphbuilder/internal/middleware"
	"github.com/citadelrisk/graphbuilder/internal/service"
)

const (
	shutdownTimeout = 15 * time.Second
	purgeInterval   = 24 * time.Hour
)

func newServeCmd() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the graph-builder HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg, newLogger(cfg), migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "Apply pending migrations before serving")

	return cmd
}

func serve(ctx context.Context, cfg *config.Config, log *logrus.Logger, migrate bool) error {
	b, err := openBackend(ctx, cfg, log, migrate)
	if err != nil {
		return err
	}
	defer b.Close()

	deps := &api.RouterDeps{
		Log:         log,
		Graph:       b.graph,
		Runs:        b.runs,
		DB:          b.lookup,
		Catalog:     b.catalog,
		CORSOrigins: cfg.CORSOrigins,
		Version:     config.Version,
		Driver:      cfg.DatabaseDriver,
	}

	if keys := cfg.APIKeys.Value(); keys != "" {
		static, err := middleware.ParseStaticKeys(keys)
		if err != nil {
			return fmt.Errorf("parsing API_KEYS: %w", err)
		}
		deps.Keys = static
		log.WithField("keys", static.Len()).Info("API key authentication enabled")
	} else {
		log.Warn("API_KEYS not set; authentication disabled")
	}

	apiServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           api.NewRouter(ctx, deps),
		ReadHeaderTimeout: 10 * time.Second,
	}
	metricsServer := &http.Server{
		Addr:              cfg.MetricsAddr(),
		Handler:           api.NewMetricsHandler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Requests still draining during Shutdown enqueue runs, so the worker
	// outlives the servers.
	stopLog := startRunLog(b.runLog)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		service.PurgeLoop(gctx, b.runs, cfg.RunRetentionDays, purgeInterval, log)
		return nil
	})
	g.Go(func() error {
		log.WithFields(logrus.Fields{
			"addr":       apiServer.Addr,
			"driver":     cfg.DatabaseDriver,
			"connectors": len(b.catalog.Types),
		}).Info("graph-builder listening")
		return listen(apiServer)
	})
	g.Go(func() error {
		log.WithField("addr", metricsServer.Addr).Info("metrics listening")
		return listen(metricsServer)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return errors.Join(apiServer.Shutdown(shutdownCtx), metricsServer.Shutdown(shutdownCtx))
	})

	err = g.Wait()
	stopLog()

	return err
}

func listen(srv *http.Server) error {
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving %s: %w", srv.Addr, err)
	}
	return nil
}
