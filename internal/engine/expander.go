package engine

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/citadelrisk/graphbuilder/internal/connector"
	"github.com/citadelrisk/graphbuilder/internal/domain"
	"github.com/citadelrisk/graphbuilder/internal/linkgraph"
	"github.com/citadelrisk/graphbuilder/internal/metrics"
	"github.com/citadelrisk/graphbuilder/internal/models"
)

// Source binds a connector type to the collaborators that serve its lookups.
type Source struct {
	Type        connector.Type
	Connectors  domain.ConnectorLookup
	Connections domain.ConnectionLookup
}

// SourcesFor binds every type in catalog to the same lookup.
func SourcesFor(catalog *connector.Catalog, lookup domain.Lookup) []Source {
	out := make([]Source, len(catalog.Types))
	for i, t := range catalog.Types {
		out[i] = Source{Type: t, Connectors: lookup, Connections: lookup}
	}

	return out
}

// expander expands one frontier for one connector type.
type expander struct {
	src     Source
	graph   *linkgraph.Graph
	timeout time.Duration
}

// expand merges every relationship reachable from frontier through src's
// connector type into the graph and returns the accounts seen for the first time.
func (x *expander) expand(ctx context.Context, frontier []models.AccountID) ([]models.AccountID, error) {
	typ := x.src.Type.Name

	ctx, span := tracer.Start(ctx, "engine.expand", trace.WithAttributes(
		attribute.String("connector_type", string(typ)),
		attribute.Int("frontier", len(frontier)),
	))
	defer span.End()

	var connectors models.ConnectorMap

	err := x.timed(ctx, models.OpConnectors, func(ctx context.Context) error {
		var err error
		connectors, err = x.src.Connectors.Connectors(ctx, typ, frontier)
		return err
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if len(connectors) == 0 {
		return nil, nil
	}

	values := connectors.Values()

	var connections models.ConnectionMap

	err = x.timed(ctx, models.OpConnections, func(ctx context.Context) error {
		var err error
		connections, err = x.src.Connections.Connections(ctx, typ, values)
		return err
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if len(connections) == 0 {
		return nil, nil
	}

	var discovered []models.AccountID

	for _, u := range frontier {
		for _, v := range connectors.ValuesOf(u) {
			if _, shared := connections[v]; !shared {
				continue
			}

			key := models.EdgeKey{Type: typ, Value: v}
			label := x.src.Type.Label(v)

			for _, peer := range connections.Holders(v) {
				if peer == u {
					continue
				}

				isNew, err := x.graph.Link(u, peer, key, label, x.src.Type.Color)
				if err != nil {
					span.RecordError(err)
					return nil, err
				}

				if isNew {
					discovered = append(discovered, peer)
				}
			}
		}
	}

	span.SetAttributes(attribute.Int("discovered", len(discovered)))

	return discovered, nil
}

// timed runs one lookup under the per-lookup timeout, records its duration,
// and normalizes failures to LookupError.
func (x *expander) timed(ctx context.Context, op string, fn func(context.Context) error) error {
	typ := x.src.Type.Name

	if x.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, x.timeout)
		defer cancel()
	}

	start := time.Now()
	err := fn(ctx)
	metrics.LookupDuration.WithLabelValues(string(typ), op).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.LookupFailures.WithLabelValues(string(typ), op).Inc()
		return models.NewLookupError(typ, op, err)
	}

	return nil
}
