package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/citadelrisk/graphbuilder/internal/models"
)

const defaultRunQueueSize = 1000

// RunRecorder persists finished traversal runs.
type RunRecorder interface {
	RecordRun(ctx context.Context, rec *models.RunRecord) error
}

// RunPurger removes traversal runs older than a retention window.
type RunPurger interface {
	PurgeRuns(ctx context.Context, retentionDays int) (int, error)
}

// RunLog buffers run records and writes them via a single worker goroutine.
type RunLog struct {
	recorder RunRecorder
	log      *logrus.Logger
	jobs     chan *models.RunRecord
}

// NewRunLog creates a RunLog with the given queue capacity.
func NewRunLog(recorder RunRecorder, log *logrus.Logger, queueSize int) *RunLog {
	if queueSize <= 0 {
		queueSize = defaultRunQueueSize
	}

	return &RunLog{
		recorder: recorder,
		log:      log,
		jobs:     make(chan *models.RunRecord, queueSize),
	}
}

// Enqueue adds a run record. Non-blocking; drops the record if the queue is full.
func (w *RunLog) Enqueue(rec *models.RunRecord) {
	select {
	case w.jobs <- rec:
	default:
		w.log.WithField("start_account", rec.Start).Warn("run log queue full, dropping record")
	}
}

// Run processes run records until the context is cancelled, then drains remaining records.
func (w *RunLog) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return
		case rec := <-w.jobs:
			w.process(rec)
		}
	}
}

func (w *RunLog) drain() {
	for {
		select {
		case rec := <-w.jobs:
			w.process(rec)
		default:
			return
		}
	}
}

func (w *RunLog) process(rec *models.RunRecord) {
	if err := w.recorder.RecordRun(context.Background(), rec); err != nil {
		w.log.WithError(err).Warn("run record failed")
	}
}

// PurgeLoop deletes runs older than retentionDays every interval until ctx is done.
func PurgeLoop(ctx context.Context, purger RunPurger, retentionDays int, interval time.Duration, log *logrus.Logger) {
	if retentionDays <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := purger.PurgeRuns(ctx, retentionDays); err != nil && ctx.Err() == nil {
			log.WithError(err).Warn("purging traversal runs failed")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
