// Package engine runs the layered breadth-first link analysis.
//
// Each layer expands the current frontier once per connector type: look up the
// frontier's connector values, look up every account sharing them, and merge
// the new accounts and relationships into the graph. The union of accounts seen
// for the first time becomes the next frontier. Traversal ends on an empty frontier.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/citadelrisk/graphbuilder/internal/linkgraph"
	"github.com/citadelrisk/graphbuilder/internal/metrics"
	"github.com/citadelrisk/graphbuilder/internal/models"
)

var tracer = otel.Tracer("github.com/citadelrisk/graphbuilder/internal/engine")

// Engine holds collaborators and settings only; every Run owns its own graph
// and frontier, so one Engine serves any number of sequential or parallel runs.
type Engine struct {
	sources    []Source
	log        *logrus.Logger
	concurrent bool
	timeout    time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithConcurrency toggles running connector types of one layer in parallel.
func WithConcurrency(enabled bool) Option {
	return func(e *Engine) { e.concurrent = enabled }
}

// WithLookupTimeout bounds every individual lookup. Zero disables the bound.
func WithLookupTimeout(d time.Duration) Option {
	return func(e *Engine) { e.timeout = d }
}

// New creates an Engine over sources, processed in the given order.
func New(sources []Source, log *logrus.Logger, opts ...Option) (*Engine, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("engine requires at least one connector source")
	}

	seen := make(map[models.ConnectorType]bool, len(sources))

	for _, s := range sources {
		if s.Type.Name == "" {
			return nil, fmt.Errorf("connector source has no type name")
		}

		if s.Connectors == nil || s.Connections == nil {
			return nil, fmt.Errorf("connector source %s is missing a lookup", s.Type.Name)
		}

		if seen[s.Type.Name] {
			return nil, fmt.Errorf("connector source %s configured twice", s.Type.Name)
		}
		seen[s.Type.Name] = true
	}

	e := &Engine{
		sources:    sources,
		log:        log,
		concurrent: true,
		timeout:    30 * time.Second,
	}

	for _, o := range opts {
		o(e)
	}

	return e, nil
}

// Build runs a traversal without progress reporting.
func (e *Engine) Build(ctx context.Context, start models.AccountID) (*linkgraph.Graph, models.Summary, error) {
	return e.Run(ctx, start, nil)
}

// Run traverses from start and returns the relationship graph and summary.
// On any failure no graph is returned. Cancellation of ctx is honored between
// layers only; a layer in flight always completes or fails as a whole.
func (e *Engine) Run(ctx context.Context, start models.AccountID, observe Observer) (*linkgraph.Graph, models.Summary, error) { //nolint:funlen // state machine with reporting.
	if err := start.Validate(); err != nil {
		return nil, models.Summary{}, err
	}

	ctx, span := tracer.Start(ctx, "engine.Run")
	defer span.End()

	span.SetAttributes(attribute.Int64("start_account", int64(start)))

	log := e.log.WithField("start_account", start)
	state := StateIdle

	emit := func(ev Event) {
		if observe != nil {
			ev.State = state
			observe(ev)
		}
	}

	g := linkgraph.New()
	g.AddNode(start)

	frontier := []models.AccountID{start}
	layers, discovered, depth := 0, 0, 0
	began := time.Now()

	fail := func(err error) (*linkgraph.Graph, models.Summary, error) {
		state = StateFailed
		metrics.TraversalsTotal.WithLabelValues(state.String()).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.WithError(err).WithField("layer", layers+1).Warn("traversal failed")
		emit(Event{Layer: layers, TotalAccounts: g.NodeCount(), Relationships: g.EdgeCount(), Error: err.Error()})

		return nil, models.Summary{}, err
	}

	state = StateRunning

	for len(frontier) > 0 {
		if err := ctx.Err(); err != nil {
			return fail(fmt.Errorf("traversal canceled before layer %d: %w", layers+1, err))
		}

		next, err := e.layer(ctx, g, frontier)
		if err != nil {
			return fail(fmt.Errorf("layer %d: %w", layers+1, err))
		}

		layers++
		discovered += len(next)

		if len(next) > 0 {
			depth = layers
		}

		log.WithFields(logrus.Fields{
			"layer":      layers,
			"frontier":   len(frontier),
			"discovered": len(next),
		}).Debug("traversal.layer")

		emit(Event{
			Layer:         layers,
			Frontier:      len(frontier),
			Discovered:    next,
			TotalAccounts: g.NodeCount(),
			Relationships: g.EdgeCount(),
		})

		frontier = next
	}

	summary := models.Summary{
		TotalAccounts: 1 + discovered,
		Layers:        layers,
		Depth:         depth,
		Relationships: g.EdgeCount(),
	}

	if summary.TotalAccounts != g.NodeCount() {
		return fail(fmt.Errorf("%w: discovered %d accounts but graph holds %d",
			models.ErrInvariantViolation, summary.TotalAccounts, g.NodeCount()))
	}

	state = StateDone
	metrics.TraversalsTotal.WithLabelValues(state.String()).Inc()
	metrics.TraversalLayers.Observe(float64(layers))
	metrics.TraversalAccounts.Observe(float64(summary.TotalAccounts))

	log.WithFields(logrus.Fields{
		"connected_accounts": discovered,
		"layers":             layers,
		"depth":              depth,
		"relationships":      summary.Relationships,
		"duration":           time.Since(began).String(),
	}).Info("traversal complete")

	emit(Event{Layer: layers, TotalAccounts: summary.TotalAccounts, Relationships: summary.Relationships})

	return g, summary, nil
}

// layer expands frontier once per connector type and returns the next frontier.
func (e *Engine) layer(ctx context.Context, g *linkgraph.Graph, frontier []models.AccountID) ([]models.AccountID, error) {
	// Lookups keep the caller's values but not its cancellation: a layer is
	// never torn mid-mutation. The per-lookup timeout still applies.
	lctx := context.WithoutCancel(ctx)

	results := make([][]models.AccountID, len(e.sources))

	if e.concurrent && len(e.sources) > 1 {
		eg, gctx := errgroup.WithContext(lctx)

		for i, src := range e.sources {
			x := &expander{src: src, graph: g, timeout: e.timeout}

			eg.Go(func() error {
				found, err := x.expand(gctx, frontier)
				results[i] = found

				return err
			})
		}

		if err := eg.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i, src := range e.sources {
			x := &expander{src: src, graph: g, timeout: e.timeout}

			found, err := x.expand(lctx, frontier)
			if err != nil {
				return nil, err
			}

			results[i] = found
		}
	}

	return union(results)
}

// union concatenates per-type discoveries. Link hands out each account at most
// once across all types, so a repeat means the merge logic is broken.
func union(results [][]models.AccountID) ([]models.AccountID, error) {
	var n int
	for _, r := range results {
		n += len(r)
	}

	next := make([]models.AccountID, 0, n)
	seen := make(map[models.AccountID]struct{}, n)

	for _, r := range results {
		for _, id := range r {
			if _, dup := seen[id]; dup {
				return nil, fmt.Errorf("%w: account %d discovered twice in one layer", models.ErrInvariantViolation, id)
			}

			seen[id] = struct{}{}
			next = append(next, id)
		}
	}

	return models.SortAccounts(next), nil
}
