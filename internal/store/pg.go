package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/citadelrisk/graphbuilder/internal/connector"
	"github.com/citadelrisk/graphbuilder/internal/db"
	"github.com/citadelrisk/graphbuilder/internal/dbpool"
)

// NewPGLookup creates a Lookup over a PostgreSQL pool. Each lookup call runs
// all of its batches in one read-only transaction.
func NewPGLookup(pool *dbpool.Pool, catalog *connector.Catalog, log *logrus.Logger, batchSize int) *Lookup {
	return &Lookup{
		log:       log,
		catalog:   catalog,
		queries:   newQueryBuilder(db.DriverPostgres),
		batchSize: batchSize,
		open: func(ctx context.Context) (session, error) {
			tx, err := pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
			if err != nil {
				return nil, fmt.Errorf("beginning read transaction: %w", err)
			}

			return pgSession{tx: tx}, nil
		},
		ping: pool.HealthCheck,
	}
}

type pgSession struct {
	tx pgx.Tx
}

func (s pgSession) query(ctx context.Context, sql string, args []any, scan func(rowScanner) error) error {
	rows, err := s.tx.Query(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("running query: %w", err)
	}
	defer rows.Close()

	return scan(rows)
}

func (s pgSession) close(ctx context.Context) {
	s.tx.Rollback(ctx) //nolint:errcheck // read-only, nothing to commit.
}
