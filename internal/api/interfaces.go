package api

import (
	"context"

	"github.com/citadelrisk/graphbuilder/internal/engine"
	"github.com/citadelrisk/graphbuilder/internal/models"
	"github.com/citadelrisk/graphbuilder/internal/render"
)

// GraphBuilder builds and renders link graphs for GraphHandler.
type GraphBuilder interface {
	Build(ctx context.Context, start models.AccountID, observe engine.Observer) (*models.GraphView, error)
	Render(ctx context.Context, start models.AccountID, f render.Format) ([]byte, *models.GraphView, error)
}

// RunRepository defines traversal run log operations used by RunHandler.
type RunRepository interface {
	ListRuns(ctx context.Context, opts models.RunQueryOpts) ([]models.RunRecord, bool, error)
	PurgeRuns(ctx context.Context, retentionDays int) (int, error)
}

// HealthChecker reports whether the lookup database answers.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
