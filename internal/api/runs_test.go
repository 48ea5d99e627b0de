package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/citadelrisk/graphbuilder/internal/api"
	"github.com/citadelrisk/graphbuilder/internal/models"
)

func newRunsRouter(repo api.RunRepository) http.Handler {
	h := api.NewRunHandler(repo, testLogger())
	r := newTestRouter()
	r.GET("/api/v1/runs", h.List)
	r.DELETE("/api/v1/runs", h.Purge)

	return r
}

func TestRunHandler_List(t *testing.T) {
	var got models.RunQueryOpts

	repo := &mockRunRepo{
		listFn: func(_ context.Context, opts models.RunQueryOpts) ([]models.RunRecord, bool, error) {
			got = opts
			return []models.RunRecord{{ID: "r1", Start: 42, State: "done"}}, true, nil
		},
	}

	w := doRequest(newRunsRouter(repo), http.MethodGet,
		"/api/v1/runs?account=42&state=done&limit=10&offset=5&since=2026-01-02T15:04:05Z", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	if got.Start != 42 || got.State != "done" || got.Limit != 10 || got.Offset != 5 || got.Since == nil {
		t.Errorf("opts = %+v", got)
	}

	var body struct {
		Data    []models.RunRecord `json:"data"`
		HasMore bool               `json:"has_more"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}

	if len(body.Data) != 1 || body.Data[0].ID != "r1" || !body.HasMore {
		t.Errorf("body = %+v", body)
	}
}

func TestRunHandler_ListEmptyIsArray(t *testing.T) {
	repo := &mockRunRepo{
		listFn: func(context.Context, models.RunQueryOpts) ([]models.RunRecord, bool, error) {
			return nil, false, nil
		},
	}

	w := doRequest(newRunsRouter(repo), http.MethodGet, "/api/v1/runs", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	if want := `{"data":[],"has_more":false}`; w.Body.String() != want {
		t.Errorf("body = %s, want %s", w.Body.String(), want)
	}
}

func TestRunHandler_ListBadInput(t *testing.T) {
	repo := &mockRunRepo{
		listFn: func(context.Context, models.RunQueryOpts) ([]models.RunRecord, bool, error) {
			t.Error("repository should not be called")
			return nil, false, nil
		},
	}

	for _, path := range []string{"/api/v1/runs?since=yesterday", "/api/v1/runs?account=-1"} {
		if w := doRequest(newRunsRouter(repo), http.MethodGet, path, ""); w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", path, w.Code)
		}
	}
}

func TestRunHandler_ListStoreError(t *testing.T) {
	repo := &mockRunRepo{
		listFn: func(context.Context, models.RunQueryOpts) ([]models.RunRecord, bool, error) {
			return nil, false, errors.New("db down")
		},
	}

	if w := doRequest(newRunsRouter(repo), http.MethodGet, "/api/v1/runs", ""); w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

func TestRunHandler_Purge(t *testing.T) {
	var gotDays int

	repo := &mockRunRepo{
		purgeFn: func(_ context.Context, days int) (int, error) {
			gotDays = days
			return 7, nil
		},
	}

	w := doRequest(newRunsRouter(repo), http.MethodDelete, "/api/v1/runs?retention_days=30", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	if gotDays != 30 {
		t.Errorf("retention days = %d, want 30", gotDays)
	}

	if w := doRequest(newRunsRouter(repo), http.MethodDelete, "/api/v1/runs?retention_days=0", ""); w.Code != http.StatusBadRequest {
		t.Errorf("zero retention: status = %d, want 400", w.Code)
	}
}
