package service

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/citadelrisk/graphbuilder/internal/engine"
	"github.com/citadelrisk/graphbuilder/internal/linkgraph"
	"github.com/citadelrisk/graphbuilder/internal/models"
	"github.com/citadelrisk/graphbuilder/internal/render"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.ErrorLevel)

	return l
}

// mockTraverser serves a fixed graph or error.
type mockTraverser struct {
	runFn func(ctx context.Context, start models.AccountID, observe engine.Observer) (*linkgraph.Graph, models.Summary, error)
}

func (m *mockTraverser) Run(ctx context.Context, start models.AccountID, observe engine.Observer) (*linkgraph.Graph, models.Summary, error) {
	return m.runFn(ctx, start, observe)
}

// mockRenderer records the format it was asked for.
type mockRenderer struct {
	format render.Format
	out    []byte
	err    error
}

func (m *mockRenderer) Render(_ context.Context, f render.Format, _ *models.GraphView) ([]byte, error) {
	m.format = f
	return m.out, m.err
}

// mockRecorder records run calls.
type mockRecorder struct {
	mu    sync.Mutex
	calls []models.RunRecord

	err error
}

func (m *mockRecorder) RecordRun(_ context.Context, rec *models.RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, *rec)

	return m.err
}

func (m *mockRecorder) getCalls() []models.RunRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]models.RunRecord, len(m.calls))
	copy(cp, m.calls)

	return cp
}

// mockPurger counts purge calls.
type mockPurger struct {
	mu    sync.Mutex
	calls int
	days  int
}

func (m *mockPurger) PurgeRuns(_ context.Context, retentionDays int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.days = retentionDays

	return 0, nil
}

func (m *mockPurger) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.calls
}
