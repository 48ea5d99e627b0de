package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/citadelrisk/graphbuilder/internal/db"
	"github.com/citadelrisk/graphbuilder/internal/models"
	"github.com/citadelrisk/graphbuilder/internal/store"
)

func newRunStore(t *testing.T) *store.RunStore {
	t.Helper()

	return store.NewRunStore(openSQLite(t), db.DriverSQLite, testLogger())
}

func TestRunStore_RecordAndList(t *testing.T) {
	s := newRunStore(t)
	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Hour).Truncate(time.Second)

	runs := []*models.RunRecord{
		{Start: 1, State: "completed", Caller: "alice", Summary: models.Summary{TotalAccounts: 3, Layers: 3, Depth: 2, Relationships: 2}, CreatedAt: base},
		{Start: 2, State: "failed", Error: "phone lookup: boom", CreatedAt: base.Add(time.Minute)},
		{Start: 1, State: "completed", CreatedAt: base.Add(2 * time.Minute)},
	}

	for _, r := range runs {
		if err := s.RecordRun(ctx, r); err != nil {
			t.Fatalf("RecordRun: %v", err)
		}

		if r.ID == "" {
			t.Fatal("RecordRun did not assign an id")
		}
	}

	got, hasMore, err := s.ListRuns(ctx, models.RunQueryOpts{})
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}

	if hasMore {
		t.Error("hasMore = true, want false")
	}

	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}

	if got[0].ID != runs[2].ID {
		t.Errorf("newest run = %s, want %s", got[0].ID, runs[2].ID)
	}

	first := got[2]
	if first.Caller != "alice" || first.Summary != runs[0].Summary {
		t.Errorf("oldest run = %+v", first)
	}

	if got[1].Error != "phone lookup: boom" {
		t.Errorf("error = %q", got[1].Error)
	}

	byStart, _, err := s.ListRuns(ctx, models.RunQueryOpts{Start: 1})
	if err != nil {
		t.Fatalf("ListRuns(start): %v", err)
	}

	if len(byStart) != 2 {
		t.Errorf("runs for account 1 = %d, want 2", len(byStart))
	}

	failed, _, err := s.ListRuns(ctx, models.RunQueryOpts{State: "failed"})
	if err != nil {
		t.Fatalf("ListRuns(state): %v", err)
	}

	if len(failed) != 1 || failed[0].Start != 2 {
		t.Errorf("failed runs = %+v", failed)
	}
}

func TestRunStore_ListPagination(t *testing.T) {
	s := newRunStore(t)
	ctx := context.Background()

	for i := range 5 {
		rec := &models.RunRecord{Start: models.AccountID(i + 1), State: "completed"}
		if err := s.RecordRun(ctx, rec); err != nil {
			t.Fatalf("RecordRun: %v", err)
		}
	}

	page, hasMore, err := s.ListRuns(ctx, models.RunQueryOpts{Limit: 2})
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}

	if len(page) != 2 || !hasMore {
		t.Errorf("page = %d hasMore = %v, want 2 true", len(page), hasMore)
	}

	last, hasMore, err := s.ListRuns(ctx, models.RunQueryOpts{Limit: 2, Offset: 4})
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}

	if len(last) != 1 || hasMore {
		t.Errorf("last page = %d hasMore = %v, want 1 false", len(last), hasMore)
	}
}

func TestRunStore_PurgeRuns(t *testing.T) {
	s := newRunStore(t)
	ctx := context.Background()

	old := &models.RunRecord{Start: 1, State: "completed", CreatedAt: time.Now().UTC().AddDate(0, 0, -40)}
	recent := &models.RunRecord{Start: 2, State: "completed"}

	for _, r := range []*models.RunRecord{old, recent} {
		if err := s.RecordRun(ctx, r); err != nil {
			t.Fatalf("RecordRun: %v", err)
		}
	}

	n, err := s.PurgeRuns(ctx, 30)
	if err != nil {
		t.Fatalf("PurgeRuns: %v", err)
	}

	if n != 1 {
		t.Errorf("purged = %d, want 1", n)
	}

	left, _, err := s.ListRuns(ctx, models.RunQueryOpts{})
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}

	if len(left) != 1 || left[0].ID != recent.ID {
		t.Errorf("remaining = %+v", left)
	}
}
