package engine_test

import (
	"context"
	"sync"

	"github.com/citadelrisk/graphbuilder/internal/connector"
	"github.com/citadelrisk/graphbuilder/internal/engine"
	"github.com/citadelrisk/graphbuilder/internal/models"
)

// fakeLookup serves lookups from an in-memory holdings table and records calls.
// connectorsFn / connectionsFn, when set, replace the table-driven behavior.
type fakeLookup struct {
	mu       sync.Mutex
	holdings map[models.ConnectorType]map[models.AccountID][]models.ConnectorValue
	calls    []string

	connectorsFn  func(ctx context.Context, typ models.ConnectorType, ids []models.AccountID) (models.ConnectorMap, error)
	connectionsFn func(ctx context.Context, typ models.ConnectorType, values []models.ConnectorValue) (models.ConnectionMap, error)
}

func newFakeLookup() *fakeLookup {
	return &fakeLookup{holdings: make(map[models.ConnectorType]map[models.AccountID][]models.ConnectorValue)}
}

// hold records that every id in ids holds value of typ.
func (f *fakeLookup) hold(typ models.ConnectorType, value models.ConnectorValue, ids ...models.AccountID) *fakeLookup {
	byAccount, ok := f.holdings[typ]
	if !ok {
		byAccount = make(map[models.AccountID][]models.ConnectorValue)
		f.holdings[typ] = byAccount
	}

	for _, id := range ids {
		byAccount[id] = append(byAccount[id], value)
	}

	return f
}

func (f *fakeLookup) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
}

func (f *fakeLookup) callCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, c := range f.calls {
		if c == name {
			n++
		}
	}

	return n
}

func (f *fakeLookup) Connectors(ctx context.Context, typ models.ConnectorType, ids []models.AccountID) (models.ConnectorMap, error) {
	f.record("Connectors:" + string(typ))

	if f.connectorsFn != nil {
		return f.connectorsFn(ctx, typ, ids)
	}

	out := models.ConnectorMap{}
	for _, id := range ids {
		for _, v := range f.holdings[typ][id] {
			out.Add(id, v)
		}
	}

	return out, nil
}

func (f *fakeLookup) Connections(ctx context.Context, typ models.ConnectorType, values []models.ConnectorValue) (models.ConnectionMap, error) {
	f.record("Connections:" + string(typ))

	if f.connectionsFn != nil {
		return f.connectionsFn(ctx, typ, values)
	}

	wanted := make(map[models.ConnectorValue]bool, len(values))
	for _, v := range values {
		wanted[v] = true
	}

	out := models.ConnectionMap{}
	for id, held := range f.holdings[typ] {
		for _, v := range held {
			if wanted[v] {
				out.Add(v, id)
			}
		}
	}

	return out, nil
}

func sourcesFor(f *fakeLookup) []engine.Source {
	return engine.SourcesFor(connector.Default(), f)
}
