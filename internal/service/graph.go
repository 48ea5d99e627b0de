// Package service sits between the transports (REST, WebSocket, CLI) and the
// traversal engine: it shapes results, renders them and records every run.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/citadelrisk/graphbuilder/internal/engine"
	"github.com/citadelrisk/graphbuilder/internal/linkgraph"
	"github.com/citadelrisk/graphbuilder/internal/models"
	"github.com/citadelrisk/graphbuilder/internal/render"
)

// Traverser runs one traversal, reporting progress to observe.
type Traverser interface {
	Run(ctx context.Context, start models.AccountID, observe engine.Observer) (*linkgraph.Graph, models.Summary, error)
}

// Renderer turns a graph view into bytes of the requested format.
type Renderer interface {
	Render(ctx context.Context, f render.Format, view *models.GraphView) ([]byte, error)
}

type callerKey struct{}

// WithCaller attaches the authenticated caller to ctx for run records.
func WithCaller(ctx context.Context, caller string) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// CallerFromContext returns the caller set by WithCaller, or "".
func CallerFromContext(ctx context.Context) string {
	caller, _ := ctx.Value(callerKey{}).(string)
	return caller
}

// GraphService builds, renders and records link graphs.
type GraphService struct {
	traverser Traverser
	renderer  Renderer
	runs      *RunLog
	log       *logrus.Logger
}

// NewGraphService creates a GraphService. runs may be nil to skip run records.
func NewGraphService(traverser Traverser, renderer Renderer, runs *RunLog, log *logrus.Logger) *GraphService {
	return &GraphService{traverser: traverser, renderer: renderer, runs: runs, log: log}
}

// Build traverses from start and returns the resulting graph view.
// observe may be nil.
func (s *GraphService) Build(ctx context.Context, start models.AccountID, observe engine.Observer) (*models.GraphView, error) {
	s.log.WithFields(logrus.Fields{
		"start_account": start,
		"caller":        CallerFromContext(ctx),
	}).Debug("graph.build")

	began := time.Now()
	g, summary, err := s.traverser.Run(ctx, start, observe)
	s.record(ctx, start, summary, err, time.Since(began))

	if err != nil {
		return nil, err
	}

	view := g.View(start, summary)

	return &view, nil
}

// Render builds the graph from start and renders it in format f.
func (s *GraphService) Render(ctx context.Context, start models.AccountID, f render.Format) ([]byte, *models.GraphView, error) {
	view, err := s.Build(ctx, start, nil)
	if err != nil {
		return nil, nil, err
	}

	out, err := s.renderer.Render(ctx, f, view)
	if err != nil {
		return nil, view, fmt.Errorf("rendering %s: %w", f, err)
	}

	return out, view, nil
}

func (s *GraphService) record(ctx context.Context, start models.AccountID, summary models.Summary, err error, took time.Duration) {
	if s.runs == nil || errors.Is(err, models.ErrInvalidInput) {
		return
	}

	rec := &models.RunRecord{
		Start:      start,
		Caller:     CallerFromContext(ctx),
		State:      engine.StateDone.String(),
		Summary:    summary,
		DurationMS: took.Milliseconds(),
		CreatedAt:  time.Now().UTC(),
	}

	if err != nil {
		rec.State = engine.StateFailed.String()
		rec.Error = err.Error()
	}

	s.runs.Enqueue(rec)
}
