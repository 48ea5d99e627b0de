package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/citadelrisk/graphbuilder/internal/engine"
	"github.com/citadelrisk/graphbuilder/internal/linkgraph"
	"github.com/citadelrisk/graphbuilder/internal/models"
	"github.com/citadelrisk/graphbuilder/internal/render"
)

func pairGraph(t *testing.T) (*linkgraph.Graph, models.Summary) {
	t.Helper()

	g := linkgraph.New()
	g.AddNode(1)

	if _, err := g.Link(1, 2, models.EdgeKey{Type: "device", Value: "d1"}, "d1", "red"); err != nil {
		t.Fatalf("Link: %v", err)
	}

	return g, models.Summary{TotalAccounts: 2, Layers: 2, Depth: 1, Relationships: 1}
}

func newTestService(t *testing.T, runFn func(context.Context, models.AccountID, engine.Observer) (*linkgraph.Graph, models.Summary, error)) (*GraphService, *mockRenderer, *RunLog) {
	t.Helper()

	r := &mockRenderer{out: []byte("<svg/>")}
	rl := NewRunLog(&mockRecorder{}, testLogger(), 10)

	return NewGraphService(&mockTraverser{runFn: runFn}, r, rl, testLogger()), r, rl
}

func TestGraphService_Build(t *testing.T) {
	g, summary := pairGraph(t)

	svc, _, rl := newTestService(t, func(ctx context.Context, start models.AccountID, observe engine.Observer) (*linkgraph.Graph, models.Summary, error) {
		if observe == nil {
			t.Error("observer not passed through")
		}

		return g, summary, nil
	})

	ctx := WithCaller(context.Background(), "analyst")

	view, err := svc.Build(ctx, 1, func(engine.Event) {})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if view.Start != 1 || len(view.Accounts) != 2 || len(view.Relationships) != 1 {
		t.Errorf("view = %+v", view)
	}

	if view.Summary != summary {
		t.Errorf("summary = %+v, want %+v", view.Summary, summary)
	}

	select {
	case rec := <-rl.jobs:
		if rec.State != "done" || rec.Caller != "analyst" || rec.Start != 1 || rec.Summary != summary {
			t.Errorf("run record = %+v", rec)
		}
	default:
		t.Fatal("no run record enqueued")
	}
}

func TestGraphService_BuildFailureRecorded(t *testing.T) {
	boom := models.NewLookupError("phone", models.OpConnections, errors.New("boom"))

	svc, _, rl := newTestService(t, func(context.Context, models.AccountID, engine.Observer) (*linkgraph.Graph, models.Summary, error) {
		return nil, models.Summary{}, fmt.Errorf("layer 2: %w", boom)
	})

	_, err := svc.Build(context.Background(), 1, nil)
	if !errors.Is(err, models.ErrLookupFailure) {
		t.Fatalf("err = %v, want ErrLookupFailure", err)
	}

	select {
	case rec := <-rl.jobs:
		if rec.State != "failed" || rec.Error == "" {
			t.Errorf("run record = %+v", rec)
		}
	default:
		t.Fatal("no run record enqueued")
	}
}

func TestGraphService_InvalidInputNotRecorded(t *testing.T) {
	svc, _, rl := newTestService(t, func(_ context.Context, start models.AccountID, _ engine.Observer) (*linkgraph.Graph, models.Summary, error) {
		return nil, models.Summary{}, start.Validate()
	})

	_, err := svc.Build(context.Background(), -3, nil)
	if !errors.Is(err, models.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}

	if len(rl.jobs) != 0 {
		t.Errorf("queued records = %d, want 0", len(rl.jobs))
	}
}

func TestGraphService_Render(t *testing.T) {
	g, summary := pairGraph(t)

	svc, r, _ := newTestService(t, func(context.Context, models.AccountID, engine.Observer) (*linkgraph.Graph, models.Summary, error) {
		return g, summary, nil
	})

	out, view, err := svc.Render(context.Background(), 1, render.FormatSVG)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	if string(out) != "<svg/>" {
		t.Errorf("out = %q", out)
	}

	if r.format != render.FormatSVG {
		t.Errorf("format = %q, want svg", r.format)
	}

	if view == nil || view.Summary.TotalAccounts != 2 {
		t.Errorf("view = %+v", view)
	}
}

func TestGraphService_RenderUnavailable(t *testing.T) {
	g, summary := pairGraph(t)

	svc, r, _ := newTestService(t, func(context.Context, models.AccountID, engine.Observer) (*linkgraph.Graph, models.Summary, error) {
		return g, summary, nil
	})
	r.err = render.ErrRendererUnavailable

	_, view, err := svc.Render(context.Background(), 1, render.FormatSVG)
	if !errors.Is(err, render.ErrRendererUnavailable) {
		t.Fatalf("err = %v, want ErrRendererUnavailable", err)
	}

	if view == nil {
		t.Error("view should survive a render failure")
	}
}

func TestGraphService_NilRunLog(t *testing.T) {
	g, summary := pairGraph(t)

	svc := NewGraphService(&mockTraverser{runFn: func(context.Context, models.AccountID, engine.Observer) (*linkgraph.Graph, models.Summary, error) {
		return g, summary, nil
	}}, &mockRenderer{}, nil, testLogger())

	if _, err := svc.Build(context.Background(), 1, nil); err != nil {
		t.Fatalf("Build: %v", err)
	}
}

func TestCallerFromContext_Unset(t *testing.T) {
	if got := CallerFromContext(context.Background()); got != "" {
		t.Errorf("caller = %q, want empty", got)
	}
}
