package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/citadelrisk/graphbuilder/internal/config"
	"github.com/citadelrisk/graphbuilder/internal/connector"
	"github.com/citadelrisk/graphbuilder/internal/db"
	"github.com/citadelrisk/graphbuilder/internal/db/migrations"
	"github.com/citadelrisk/graphbuilder/internal/dbpool"
	"github.com/citadelrisk/graphbuilder/internal/engine"
	"github.com/citadelrisk/graphbuilder/internal/render"
	"github.com/citadelrisk/graphbuilder/internal/service"
	"github.com/citadelrisk/graphbuilder/internal/store"
)

const (
	connectTimeout = 30 * time.Second
	runQueueSize   = 1000
)

// backend is everything a traversal needs, opened for one configured database.
type backend struct {
	catalog  *connector.Catalog
	lookup   *store.Lookup
	engine   *engine.Engine
	renderer *render.Renderer
	runs     *store.RunStore
	runLog   *service.RunLog
	graph    *service.GraphService

	pool  *dbpool.Pool
	sqlDB *sql.DB
}

func (b *backend) Close() {
	if b.pool != nil {
		b.pool.Close()
	}
	if b.sqlDB != nil {
		b.sqlDB.Close()
	}
}

// newLogger builds the process logger from the configured level and format.
func newLogger(cfg *config.Config) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)

	if cfg.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	return log
}

// loadCatalog reads CONNECTORS_FILE, or returns the built-in catalogue.
func loadCatalog(cfg *config.Config) (*connector.Catalog, error) {
	if cfg.ConnectorsFile == "" {
		return connector.Default(), nil
	}

	catalog, err := connector.Load(cfg.ConnectorsFile)
	if err != nil {
		return nil, fmt.Errorf("loading connectors: %w", err)
	}

	return catalog, nil
}

// openBackend connects to the configured database and assembles the traversal stack.
// When migrate is set, pending schema migrations are applied first.
func openBackend(ctx context.Context, cfg *config.Config, log *logrus.Logger, migrate bool) (*backend, error) {
	catalog, err := loadCatalog(cfg)
	if err != nil {
		return nil, err
	}

	b := &backend{catalog: catalog}

	if err := b.connect(ctx, cfg, log, migrate); err != nil {
		b.Close()
		return nil, err
	}

	b.engine, err = engine.New(
		engine.SourcesFor(catalog, store.WithRetries(b.lookup, cfg.LookupRetries, cfg.LookupRetryInterval, log)),
		log,
		engine.WithConcurrency(cfg.TraversalConcurrent),
		engine.WithLookupTimeout(cfg.LookupTimeout),
	)
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("creating engine: %w", err)
	}

	b.renderer = render.New(cfg.DotBinary, log)
	b.runs = store.NewRunStore(b.sqlDB, cfg.DatabaseDriver, log)
	b.runLog = service.NewRunLog(b.runs, log, runQueueSize)
	b.graph = service.NewGraphService(b.engine, b.renderer, b.runLog, log)

	return b, nil
}

// startRunLog runs the run log worker on its own lifetime. The returned stop
// drains queued records and waits for the worker to exit.
func startRunLog(runLog *service.RunLog) (stop func()) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)
		runLog.Run(ctx)
	}()

	return func() {
		cancel()
		<-done
	}
}

func (b *backend) connect(ctx context.Context, cfg *config.Config, log *logrus.Logger, migrate bool) error {
	dsn := cfg.DatabaseURL.Value()

	var err error

	// Run history always goes through database/sql, including on PostgreSQL.
	b.sqlDB, err = store.OpenSQL(ctx, cfg.DatabaseDriver, dsn, connectTimeout)
	if err != nil {
		return err
	}

	if migrate {
		if err := db.RunMigrations(ctx, b.sqlDB, cfg.DatabaseDriver, log, migrations.FS); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
	}

	if cfg.DatabaseDriver == db.DriverPostgres {
		b.pool, err = dbpool.NewPool(ctx, dsn, int32(cfg.DBMaxConns)) //nolint:gosec // bounded by config validation.
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}

		b.lookup = store.NewPGLookup(b.pool, b.catalog, log, cfg.LookupBatchSize)

		return nil
	}

	if cfg.DatabaseDriver == db.DriverMySQL {
		b.sqlDB.SetMaxOpenConns(cfg.DBMaxConns)
	}
	b.lookup = store.NewSQLLookup(b.sqlDB, cfg.DatabaseDriver, b.catalog, log, cfg.LookupBatchSize)

	return nil
}
