package render

import (
	"fmt"
	"strconv"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/encoding/dot"
	"gonum.org/v1/gonum/graph/multi"

	"github.com/citadelrisk/graphbuilder/internal/models"
)

// accountNode is an account drawn under its own id.
type accountNode struct {
	id    models.AccountID
	attrs []encoding.Attribute
}

var (
	_ dot.Node            = (*accountNode)(nil)
	_ encoding.Attributer = (*accountNode)(nil)
)

func (n *accountNode) ID() int64                        { return int64(n.id) }
func (n *accountNode) DOTID() string                    { return n.id.String() }
func (n *accountNode) Attributes() []encoding.Attribute { return n.attrs }

// relationshipLine is one labeled, colored edge between two accounts.
type relationshipLine struct {
	graph.Line
	attrs []encoding.Attribute
}

var _ encoding.Attributer = (*relationshipLine)(nil)

func (l *relationshipLine) Attributes() []encoding.Attribute { return l.attrs }

func (l *relationshipLine) ReversedLine() graph.Line {
	return &relationshipLine{Line: l.Line.ReversedLine(), attrs: l.attrs}
}

// DOT encodes view as an undirected Graphviz multigraph. Each relationship is
// its own edge with the connector label and color; the start account is filled.
func DOT(view *models.GraphView) ([]byte, error) {
	g := multi.NewUndirectedGraph()
	nodes := make(map[models.AccountID]*accountNode, len(view.Accounts))

	for _, id := range view.Accounts {
		n := &accountNode{id: id}
		if id == view.Start {
			n.attrs = []encoding.Attribute{
				{Key: "style", Value: "filled"},
				{Key: "fillcolor", Value: "lightgrey"},
			}
		}

		g.AddNode(n)
		nodes[id] = n
	}

	for _, r := range view.Relationships {
		a, b := nodes[r.A], nodes[r.B]
		if a == nil || b == nil {
			return nil, fmt.Errorf("%w: relationship %d-%d references an account outside the graph",
				models.ErrInvariantViolation, r.A, r.B)
		}

		g.SetLine(&relationshipLine{
			Line: g.NewLine(a, b),
			attrs: []encoding.Attribute{
				{Key: "label", Value: r.Label},
				{Key: "color", Value: r.Color},
				{Key: "tooltip", Value: string(r.Type) + ":" + string(r.Value)},
			},
		})
	}

	out, err := dot.MarshalMulti(g, "links_"+strconv.FormatInt(int64(view.Start), 10), "", "\t")
	if err != nil {
		return nil, fmt.Errorf("encoding dot: %w", err)
	}

	return out, nil
}
