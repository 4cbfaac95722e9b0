package pipeline

import (
	"context"
	"fmt"

	"github.com/panjf2000/ants/v2"
	"github.com/phuslu/log"
)

// Worker drains ingest events into a bounded goroutine pool. Each document's
// pipeline runs independently; the only shared mutable state is the
// job/document rows, which are keyed per document and never contended.
type Worker struct {
	pipeline *Pipeline
	pool     *ants.Pool
	events   chan IngestEvent
	logger   log.Logger
}

// NewWorker builds a worker with a pool of size workers and a bounded queue
// (64). Enqueue blocks when the queue is full.
func NewWorker(p *Pipeline, workers int, logger log.Logger) (*Worker, error) {
	if workers <= 0 {
		workers = 4
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("worker pool: %w", err)
	}
	return &Worker{
		pipeline: p,
		pool:     pool,
		events:   make(chan IngestEvent, 64),
		logger:   logger,
	}, nil
}

// Start consumes events until the context is cancelled.
func (w *Worker) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				w.logger.Info().Msg("ingest worker shutting down")
				return
			case ev := <-w.events:
				event := ev
				if err := w.pool.Submit(func() {
					if err := w.pipeline.Process(ctx, event); err != nil {
						w.logger.Error().Err(err).Str("job_id", event.JobID).Msg("ingest failed")
					}
				}); err != nil {
					w.logger.Error().Err(err).Str("job_id", event.JobID).Msg("submit to pool failed")
				}
			}
		}
	}()
}

// Enqueue schedules one pipeline run. Blocks if the queue is full.
func (w *Worker) Enqueue(ev IngestEvent) {
	w.events <- ev
}

func (w *Worker) Stop() {
	w.pool.Release()
}
