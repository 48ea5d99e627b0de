// Migration runner using goose (github.com/pressly/goose/v3).
//
// Migration files live in internal/db/migrations/ and are embedded via //go:embed.
// The same files serve PostgreSQL, MySQL and SQLite, so they stick to the
// portable subset of DDL.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	_ "github.com/go-sql-driver/mysql" // register mysql as database/sql driver
	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as database/sql driver
	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite" // register sqlite as database/sql driver

	"github.com/citadelrisk/graphbuilder/internal/dbpool"
)

// Supported DATABASE_DRIVER values.
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
)

// Dialect maps a driver name to its goose dialect.
func Dialect(driver string) (goose.Dialect, error) {
	switch driver {
	case DriverPostgres:
		return goose.DialectPostgres, nil
	case DriverMySQL:
		return goose.DialectMySQL, nil
	case DriverSQLite:
		return goose.DialectSQLite3, nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", driver)
	}
}

// SQLDriverName returns the database/sql driver name registered for driver.
func SQLDriverName(driver string) string {
	if driver == DriverPostgres {
		return "pgx"
	}

	return driver
}

// RunPoolMigrations applies pending migrations to the database behind a pgx pool.
func RunPoolMigrations(ctx context.Context, pool *dbpool.Pool, log *logrus.Logger, fsys fs.FS) error {
	// goose requires a *sql.DB; open one over the pool's connection string.
	sqlDB, err := sql.Open("pgx", pool.ConnString())
	if err != nil {
		return fmt.Errorf("opening sql.DB for migrations: %w", err)
	}
	defer sqlDB.Close()

	return RunMigrations(ctx, sqlDB, DriverPostgres, log, fsys)
}

// RunMigrations applies all pending migrations from fsys to sqlDB.
// The fsys should contain goose-annotated SQL files (e.g. "00001_account_connectors.sql").
func RunMigrations(ctx context.Context, sqlDB *sql.DB, driver string, log *logrus.Logger, fsys fs.FS) error {
	dialect, err := Dialect(driver)
	if err != nil {
		return err
	}

	provider, err := goose.NewProvider(dialect, sqlDB, fsys)
	if err != nil {
		return fmt.Errorf("creating goose provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}

	for _, r := range results {
		if r.Error != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", r.Source.Version, r.Source.Path, r.Error)
		}

		log.WithFields(logrus.Fields{
			"version":  r.Source.Version,
			"file":     r.Source.Path,
			"duration": r.Duration,
			"driver":   driver,
		}).Info("migration applied")
	}

	if len(results) == 0 {
		log.Debug("all migrations already applied")
	}

	return nil
}
