// Package linkgraph holds the relationship multigraph built by a traversal.
//
// Nodes are accounts; node presence doubles as the traversal's visited set.
// Edges are undirected and keyed by (account pair, connector type, connector value),
// so two accounts sharing a device and a phone carry two edges, and
// rediscovering the same shared device never adds a third.
package linkgraph

import (
	"fmt"
	"sort"
	"sync"

	"github.com/citadelrisk/graphbuilder/internal/models"
)

// pairKey is the unordered account pair plus edge key.
type pairKey struct {
	lo, hi models.AccountID
	key    models.EdgeKey
}

func newPairKey(a, b models.AccountID, key models.EdgeKey) pairKey {
	if a > b {
		a, b = b, a
	}

	return pairKey{lo: a, hi: b, key: key}
}

// Graph is safe for concurrent use. Mutations are serialized by one mutex.
type Graph struct {
	mu    sync.RWMutex
	nodes map[models.AccountID]struct{}
	order []models.AccountID
	edges map[pairKey]int
	lines []models.Relationship
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[models.AccountID]struct{}),
		edges: make(map[pairKey]int),
	}
}

// HasNode reports whether id has entered the graph.
func (g *Graph) HasNode(id models.AccountID) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	_, ok := g.nodes[id]

	return ok
}

// AddNode inserts id. It is a no-op when id is already present.
// It reports whether the node was inserted.
func (g *Graph) AddNode(id models.AccountID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.addNode(id)
}

// HasEdge reports whether a and b are already related by key, in either order.
func (g *Graph) HasEdge(a, b models.AccountID, key models.EdgeKey) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	_, ok := g.edges[newPairKey(a, b, key)]

	return ok
}

// AddEdge relates a and b by key. An existing edge with the same key is left untouched.
// It reports whether the edge was inserted. Self edges and edges touching
// an absent node are invariant violations.
func (g *Graph) AddEdge(a, b models.AccountID, key models.EdgeKey, label, color string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.addEdge(a, b, key, label, color)
}

// Link atomically discovers peer from u: peer is added as a node if absent and
// the (u, peer, key) edge is added if absent. It reports whether peer was new.
func (g *Graph) Link(u, peer models.AccountID, key models.EdgeKey, label, color string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.nodes[u]; !ok {
		return false, fmt.Errorf("%w: linking from unknown account %d", models.ErrInvariantViolation, u)
	}

	discovered := g.addNode(peer)

	if _, err := g.addEdge(u, peer, key, label, color); err != nil {
		return false, err
	}

	return discovered, nil
}

func (g *Graph) addNode(id models.AccountID) bool {
	if _, ok := g.nodes[id]; ok {
		return false
	}

	g.nodes[id] = struct{}{}
	g.order = append(g.order, id)

	return true
}

func (g *Graph) addEdge(a, b models.AccountID, key models.EdgeKey, label, color string) (bool, error) {
	if a == b {
		return false, fmt.Errorf("%w: self edge on account %d", models.ErrInvariantViolation, a)
	}

	if _, ok := g.nodes[a]; !ok {
		return false, fmt.Errorf("%w: edge endpoint %d not in graph", models.ErrInvariantViolation, a)
	}

	if _, ok := g.nodes[b]; !ok {
		return false, fmt.Errorf("%w: edge endpoint %d not in graph", models.ErrInvariantViolation, b)
	}

	pk := newPairKey(a, b, key)
	if _, ok := g.edges[pk]; ok {
		return false, nil
	}

	g.edges[pk] = len(g.lines)
	g.lines = append(g.lines, models.Relationship{
		A:     pk.lo,
		B:     pk.hi,
		Type:  key.Type,
		Value: key.Value,
		Label: label,
		Color: color,
	})

	return true, nil
}

// NodeCount returns the number of accounts in the graph.
func (g *Graph) NodeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return len(g.nodes)
}

// EdgeCount returns the number of distinct relationships in the graph.
func (g *Graph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return len(g.lines)
}

// Nodes returns the accounts in insertion (discovery) order.
func (g *Graph) Nodes() []models.AccountID {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]models.AccountID, len(g.order))
	copy(out, g.order)

	return out
}

// Edges returns all relationships sorted by account pair, type, then value.
func (g *Graph) Edges() []models.Relationship {
	g.mu.RLock()
	out := make([]models.Relationship, len(g.lines))
	copy(out, g.lines)
	g.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		x, y := out[i], out[j]
		if x.A != y.A {
			return x.A < y.A
		}
		if x.B != y.B {
			return x.B < y.B
		}
		if x.Type != y.Type {
			return x.Type < y.Type
		}
		return x.Value < y.Value
	})

	return out
}

// View returns a serializable snapshot of the graph.
func (g *Graph) View(start models.AccountID, summary models.Summary) models.GraphView {
	return models.GraphView{
		Start:         start,
		Accounts:      models.SortAccounts(g.Nodes()),
		Relationships: g.Edges(),
		Summary:       summary,
	}
}
