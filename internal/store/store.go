// Package store reads connector holdings from a SQL database.
//
// A Lookup answers both directions for every catalogued connector type: the
// values a set of accounts holds, and the accounts holding a set of values.
// Backends differ only in how a read session is opened: a read-only pgx
// transaction for PostgreSQL, a database/sql handle for MySQL and SQLite.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/citadelrisk/graphbuilder/internal/connector"
	"github.com/citadelrisk/graphbuilder/internal/domain"
	"github.com/citadelrisk/graphbuilder/internal/models"
)

const defaultQueryTimeout = 30 * time.Second

// DefaultBatchSize caps the ids or values bound into one query.
const DefaultBatchSize = 500

// ErrUnknownConnector is returned for a connector type missing from the catalogue.
var ErrUnknownConnector = errors.New("connector type not configured")

// Compile-time check: *Lookup must satisfy domain.Lookup.
var _ domain.Lookup = (*Lookup)(nil)

// rowScanner is the subset of pgx.Rows and *sql.Rows the scanners need.
type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

// session runs the queries of one lookup call.
type session interface {
	query(ctx context.Context, sql string, args []any, scan func(rowScanner) error) error
	close(ctx context.Context)
}

// Lookup serves connector and connection lookups from SQL.
type Lookup struct {
	log       *logrus.Logger
	catalog   *connector.Catalog
	queries   queryBuilder
	batchSize int
	open      func(ctx context.Context) (session, error)
	ping      func(ctx context.Context) error
}

// withTimeout bounds ctx by the default query timeout unless the caller
// already set a deadline, such as the engine's per-lookup timeout.
func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, defaultQueryTimeout)
}

func (l *Lookup) connectorType(typ models.ConnectorType) (connector.Type, error) {
	t, ok := l.catalog.Get(typ)
	if !ok {
		return connector.Type{}, fmt.Errorf("%w: %s", ErrUnknownConnector, typ)
	}

	return t, nil
}

// Connectors returns the non-empty values of typ held by each of ids.
// Accounts holding nothing are absent from the result.
func (l *Lookup) Connectors(ctx context.Context, typ models.ConnectorType, ids []models.AccountID) (models.ConnectorMap, error) {
	t, err := l.connectorType(typ)
	if err != nil {
		return nil, err
	}

	out := models.ConnectorMap{}
	if len(ids) == 0 {
		return out, nil
	}

	raw := make([]int64, len(ids))
	for i, id := range ids {
		raw[i] = int64(id)
	}

	err = l.run(ctx, len(raw), func(lo, hi int) (string, []any, error) {
		return l.queries.connectors(t, raw[lo:hi])
	}, func(rows rowScanner) error {
		return scanConnectors(rows, out)
	})
	if err != nil {
		return nil, fmt.Errorf("querying %s connectors: %w", typ, err)
	}

	l.log.WithFields(logrus.Fields{
		"connector_type": typ,
		"accounts":       len(ids),
		"holders":        len(out),
	}).Debug("store.connectors")

	return out, nil
}

// Connections returns every account holding each of values for typ.
// Values nobody holds are absent from the result.
func (l *Lookup) Connections(ctx context.Context, typ models.ConnectorType, values []models.ConnectorValue) (models.ConnectionMap, error) {
	t, err := l.connectorType(typ)
	if err != nil {
		return nil, err
	}

	out := models.ConnectionMap{}

	raw := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			raw = append(raw, string(v))
		}
	}

	if len(raw) == 0 {
		return out, nil
	}

	err = l.run(ctx, len(raw), func(lo, hi int) (string, []any, error) {
		return l.queries.connections(t, raw[lo:hi])
	}, func(rows rowScanner) error {
		return scanConnections(rows, out)
	})
	if err != nil {
		return nil, fmt.Errorf("querying %s connections: %w", typ, err)
	}

	l.log.WithFields(logrus.Fields{
		"connector_type": typ,
		"values":         len(raw),
		"shared":         len(out),
	}).Debug("store.connections")

	return out, nil
}

// HealthCheck verifies the backing database is reachable.
func (l *Lookup) HealthCheck(ctx context.Context) error {
	return l.ping(ctx)
}

// run executes one query per batch of n inputs inside a single session.
func (l *Lookup) run(
	ctx context.Context,
	n int,
	build func(lo, hi int) (string, []any, error),
	scan func(rowScanner) error,
) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	s, err := l.open(ctx)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	size := l.batchSize
	if size <= 0 {
		size = DefaultBatchSize
	}

	for lo := 0; lo < n; lo += size {
		hi := min(lo+size, n)

		query, args, err := build(lo, hi)
		if err != nil {
			return fmt.Errorf("building query: %w", err)
		}

		if err := s.query(ctx, query, args, scan); err != nil {
			return err
		}
	}

	return nil
}
