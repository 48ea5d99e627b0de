package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/citadelrisk/graphbuilder/internal/config"
	"github.com/citadelrisk/graphbuilder/internal/db"
	"github.com/citadelrisk/graphbuilder/internal/db/migrations"
	"github.com/citadelrisk/graphbuilder/internal/dbpool"
	"github.com/citadelrisk/graphbuilder/internal/store"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			return migrate(cmd.Context(), cfg, newLogger(cfg))
		},
	}
}

func migrate(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	dsn := cfg.DatabaseURL.Value()

	if cfg.DatabaseDriver == db.DriverPostgres {
		pool, err := dbpool.NewPool(ctx, dsn, 2)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer pool.Close()

		if err := db.RunPoolMigrations(ctx, pool, log, migrations.FS); err != nil {
			return err
		}
	} else {
		sqlDB, err := store.OpenSQL(ctx, cfg.DatabaseDriver, dsn, connectTimeout)
		if err != nil {
			return err
		}
		defer sqlDB.Close()

		if err := db.RunMigrations(ctx, sqlDB, cfg.DatabaseDriver, log, migrations.FS); err != nil {
			return err
		}
	}

	log.WithField("schema_version", db.SchemaVersion()).Info("database schema up to date")

	return nil
}
