package api_test

import (
	"context"
	"sync"

	"github.com/citadelrisk/graphbuilder/internal/engine"
	"github.com/citadelrisk/graphbuilder/internal/models"
	"github.com/citadelrisk/graphbuilder/internal/render"
	"github.com/citadelrisk/graphbuilder/internal/service"
)

// mockGraphBuilder serves canned views and records the caller it saw.
type mockGraphBuilder struct {
	mu     sync.Mutex
	caller string

	events []engine.Event
	view   *models.GraphView
	out    []byte
	err    error

	// block, when set, is waited on before Build returns.
	block <-chan struct{}
}

func (m *mockGraphBuilder) Build(ctx context.Context, start models.AccountID, observe engine.Observer) (*models.GraphView, error) {
	m.mu.Lock()
	m.caller = service.CallerFromContext(ctx)
	m.mu.Unlock()

	if err := start.Validate(); err != nil {
		return nil, err
	}

	for _, ev := range m.events {
		if observe != nil {
			observe(ev)
		}
	}

	if m.block != nil {
		select {
		case <-m.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if m.err != nil {
		return nil, m.err
	}

	return m.view, nil
}

func (m *mockGraphBuilder) Render(ctx context.Context, start models.AccountID, _ render.Format) ([]byte, *models.GraphView, error) {
	view, err := m.Build(ctx, start, nil)
	if err != nil {
		return nil, nil, err
	}

	return m.out, view, nil
}

func (m *mockGraphBuilder) seenCaller() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.caller
}

// mockRunRepo is a func-field mock of RunRepository.
type mockRunRepo struct {
	listFn  func(ctx context.Context, opts models.RunQueryOpts) ([]models.RunRecord, bool, error)
	purgeFn func(ctx context.Context, retentionDays int) (int, error)
}

func (m *mockRunRepo) ListRuns(ctx context.Context, opts models.RunQueryOpts) ([]models.RunRecord, bool, error) {
	return m.listFn(ctx, opts)
}

func (m *mockRunRepo) PurgeRuns(ctx context.Context, retentionDays int) (int, error) {
	return m.purgeFn(ctx, retentionDays)
}

// mockHealth reports a fixed health check result.
type mockHealth struct {
	err error
}

func (m *mockHealth) HealthCheck(context.Context) error {
	return m.err
}

func sampleView() *models.GraphView {
	return &models.GraphView{
		Start:    1,
		Accounts: []models.AccountID{1, 2, 3},
		Relationships: []models.Relationship{
			{A: 1, B: 2, Type: "device", Value: "d1", Label: "d1", Color: "blue"},
			{A: 2, B: 3, Type: "phone", Value: "555", Label: "555", Color: "red"},
		},
		Summary: models.Summary{TotalAccounts: 3, Layers: 3, Depth: 2, Relationships: 2},
	}
}
