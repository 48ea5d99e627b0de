package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/citadelrisk/graphbuilder/internal/models"
)

const (
	runsTable        = "traversal_runs"
	defaultRunsLimit = 50
	maxListLimit     = 1000
)

var runColumns = []string{
	"run_id", "start_account", "caller", "state",
	"total_accounts", "layers", "depth", "relationships",
	"error_message", "duration_ms", "created_at",
}

// RunStore persists the traversal audit log.
type RunStore struct {
	db  *sql.DB
	sb  sq.StatementBuilderType
	log *logrus.Logger
}

// NewRunStore creates a RunStore over sqlDB.
func NewRunStore(sqlDB *sql.DB, driver string, log *logrus.Logger) *RunStore {
	return &RunStore{
		db:  sqlDB,
		sb:  newQueryBuilder(driver).sb.RunWith(sqlDB),
		log: log,
	}
}

// RecordRun inserts rec, assigning an id and timestamp when missing.
func (s *RunStore) RecordRun(ctx context.Context, rec *models.RunRecord) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	var errMsg *string
	if rec.Error != "" {
		errMsg = &rec.Error
	}

	_, err := s.sb.Insert(runsTable).
		Columns(runColumns...).
		Values(
			rec.ID, int64(rec.Start), rec.Caller, rec.State,
			rec.Summary.TotalAccounts, rec.Summary.Layers, rec.Summary.Depth, rec.Summary.Relationships,
			errMsg, rec.DurationMS, rec.CreatedAt,
		).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("recording run: %w", err)
	}

	return nil
}

// ListRuns returns runs matching opts, newest first, plus whether more exist.
func (s *RunStore) ListRuns(ctx context.Context, opts models.RunQueryOpts) ([]models.RunRecord, bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	limit := opts.Limit
	if limit <= 0 {
		limit = defaultRunsLimit
	}

	if limit > maxListLimit {
		limit = maxListLimit
	}

	q := s.sb.Select(runColumns...).From(runsTable)

	if opts.Start > 0 {
		q = q.Where(sq.Eq{"start_account": int64(opts.Start)})
	}

	if opts.State != "" {
		q = q.Where(sq.Eq{"state": opts.State})
	}

	if opts.Since != nil {
		q = q.Where(sq.GtOrEq{"created_at": opts.Since.UTC()})
	}

	rows, err := q.OrderBy("created_at DESC", "run_id").
		Limit(uint64(limit + 1)).
		Offset(uint64(max(opts.Offset, 0))).
		QueryContext(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []models.RunRecord

	for rows.Next() {
		var (
			r      models.RunRecord
			start  int64
			errMsg sql.NullString
		)

		if err := rows.Scan(
			&r.ID, &start, &r.Caller, &r.State,
			&r.Summary.TotalAccounts, &r.Summary.Layers, &r.Summary.Depth, &r.Summary.Relationships,
			&errMsg, &r.DurationMS, &r.CreatedAt,
		); err != nil {
			return nil, false, fmt.Errorf("scanning run: %w", err)
		}

		r.Start = models.AccountID(start)
		r.Error = errMsg.String
		runs = append(runs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterating runs: %w", err)
	}

	hasMore := len(runs) > limit
	if hasMore {
		runs = runs[:limit]
	}

	return runs, hasMore, nil
}

// PurgeRuns deletes runs older than retentionDays and returns how many were removed.
func (s *RunStore) PurgeRuns(ctx context.Context, retentionDays int) (int, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)

	res, err := s.sb.Delete(runsTable).
		Where(sq.Lt{"created_at": cutoff}).
		ExecContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("purging runs: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting purged runs: %w", err)
	}

	if n > 0 {
		s.log.WithFields(logrus.Fields{
			"deleted":        n,
			"retention_days": retentionDays,
		}).Info("purged traversal runs")
	}

	return int(n), nil
}
