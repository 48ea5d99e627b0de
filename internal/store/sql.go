package store

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"

	"github.com/citadelrisk/graphbuilder/internal/connector"
	"github.com/citadelrisk/graphbuilder/internal/db"
)

// NewSQLLookup creates a Lookup over a database/sql handle opened with OpenSQL.
func NewSQLLookup(sqlDB *sql.DB, driver string, catalog *connector.Catalog, log *logrus.Logger, batchSize int) *Lookup {
	return &Lookup{
		log:       log,
		catalog:   catalog,
		queries:   newQueryBuilder(driver),
		batchSize: batchSize,
		open: func(context.Context) (session, error) {
			return sqlSession{db: sqlDB}, nil
		},
		ping: sqlDB.PingContext,
	}
}

type sqlSession struct {
	db *sql.DB
}

func (s sqlSession) query(ctx context.Context, query string, args []any, scan func(rowScanner) error) error {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("running query: %w", err)
	}
	defer rows.Close()

	return scan(rows)
}

func (sqlSession) close(context.Context) {}

// OpenSQL opens a database/sql handle for driver and waits up to timeout for
// it to answer a ping.
func OpenSQL(ctx context.Context, driver, dsn string, timeout time.Duration) (*sql.DB, error) {
	var err error

	switch driver {
	case db.DriverSQLite:
		dsn, err = PrepareSQLiteDSN(dsn)
	case db.DriverMySQL:
		dsn, err = PrepareMySQLDSN(dsn)
	}

	if err != nil {
		return nil, err
	}

	sqlDB, err := sql.Open(db.SQLDriverName(driver), dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s connection: %w", driver, err)
	}

	// Every connection to an in-memory SQLite database sees its own empty database.
	if driver == db.DriverSQLite && isMemoryDSN(dsn) {
		sqlDB.SetMaxOpenConns(1)
	}

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = timeout

	err = backoff.Retry(func() error {
		return sqlDB.PingContext(ctx)
	}, backoff.WithContext(policy, ctx))
	if err != nil {
		sqlDB.Close()

		return nil, fmt.Errorf("initializing %s connection: %w", driver, err)
	}

	return sqlDB, nil
}

// PrepareSQLiteDSN sets journal mode and busy timeout pragmas unless dsn already does.
func PrepareSQLiteDSN(dsn string) (string, error) {
	query := url.Values{}

	if i := strings.Index(dsn, "?"); i != -1 {
		var err error
		if query, err = url.ParseQuery(dsn[i+1:]); err != nil {
			return dsn, fmt.Errorf("parsing sqlite dsn: %w", err)
		}

		dsn = dsn[:i]
	}

	foundJournalMode, foundBusyTimeout := false, false

	for _, val := range query["_pragma"] {
		switch {
		case strings.HasPrefix(val, "journal_mode"):
			foundJournalMode = true
		case strings.HasPrefix(val, "busy_timeout"):
			foundBusyTimeout = true
		}
	}

	if !foundJournalMode {
		query.Add("_pragma", "journal_mode(WAL)")
	}

	if !foundBusyTimeout {
		query.Add("_pragma", "busy_timeout(100)")
	}

	return dsn + "?" + query.Encode(), nil
}

// PrepareMySQLDSN enables DATETIME parsing so run timestamps scan into time.Time.
func PrepareMySQLDSN(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return dsn, fmt.Errorf("parsing mysql dsn: %w", err)
	}

	cfg.ParseTime = true

	return cfg.FormatDSN(), nil
}

func isMemoryDSN(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}
