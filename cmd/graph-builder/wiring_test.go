package main

import (
	"context"
	"sync"
	"testing"

	"github.com/citadelrisk/graphbuilder/internal/models"
	"github.com/citadelrisk/graphbuilder/internal/service"
)

type recordingStore struct {
	mu   sync.Mutex
	runs []models.RunRecord
}

func (s *recordingStore) RecordRun(_ context.Context, rec *models.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, *rec)
	return nil
}

func (s *recordingStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.runs)
}

func TestStartRunLogDrainsOnStop(t *testing.T) {
	rec := &recordingStore{}
	runLog := service.NewRunLog(rec, quietLogger(), 10)

	stop := startRunLog(runLog)

	// Runs finished while the servers shut down arrive just before stop.
	runLog.Enqueue(&models.RunRecord{Start: 4, State: "done"})
	runLog.Enqueue(&models.RunRecord{Start: 5, State: "failed"})

	stop()

	if got := rec.count(); got != 2 {
		t.Fatalf("recorded %d runs, want 2", got)
	}
}

func TestStartRunLogStopIsPrompt(t *testing.T) {
	runLog := service.NewRunLog(&recordingStore{}, quietLogger(), 10)

	stop := startRunLog(runLog)
	stop()
}
