package persistence

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

const (
	defaultWriterCapacity = 256
	writeAttempts         = 3
	writeBackoff          = 300 * time.Millisecond
)

type writeJob struct {
	name string
	run  func(context.Context) error
}

// WriterQueue serializes database writes on one background goroutine so
// callers on the event path never wait for sqlite.
type WriterQueue struct {
	jobs    chan writeJob
	logger  *slog.Logger
	backoff time.Duration

	dropped atomic.Int64
	failed  atomic.Int64
}

func NewWriterQueue(logger *slog.Logger, capacity int) *WriterQueue {
	if logger == nil {
		logger = slog.Default().With("component", "persistence.writer")
	}
	if capacity <= 0 {
		capacity = defaultWriterCapacity
	}

	return &WriterQueue{
		jobs:    make(chan writeJob, capacity),
		logger:  logger,
		backoff: writeBackoff,
	}
}

// Enqueue schedules fn without blocking. When the queue is full the job is
// dropped and counted.
func (w *WriterQueue) Enqueue(name string, fn func(context.Context) error) {
	select {
	case w.jobs <- writeJob{name: name, run: fn}:
	default:
		w.dropped.Add(1)
		w.logger.Warn("write queue full, dropping job", "job", name, "dropped_total", w.dropped.Load())
	}
}

// Start drains the queue until ctx is done.
func (w *WriterQueue) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case job := <-w.jobs:
				w.run(ctx, job)
			}
		}
	}()
}

// Flush waits until every job queued before the call has run.
func (w *WriterQueue) Flush(ctx context.Context) error {
	done := make(chan struct{})
	marker := writeJob{name: "flush", run: func(context.Context) error {
		close(done)

		return nil
	}}

	select {
	case w.jobs <- marker:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dropped reports how many jobs were rejected by a full queue.
func (w *WriterQueue) Dropped() int64 {
	return w.dropped.Load()
}

// Failed reports how many jobs gave up after all attempts.
func (w *WriterQueue) Failed() int64 {
	return w.failed.Load()
}

func (w *WriterQueue) run(ctx context.Context, job writeJob) {
	var err error
	for attempt := 1; attempt <= writeAttempts; attempt++ {
		if err = job.run(ctx); err == nil {
			return
		}
		w.logger.Warn("write failed", "job", job.name, "attempt", attempt, "error", err)
		if attempt == writeAttempts {
			break
		}

		timer := time.NewTimer(time.Duration(attempt) * w.backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			w.failed.Add(1)

			return
		case <-timer.C:
		}
	}

	w.failed.Add(1)
	w.logger.Error("write abandoned", "job", job.name, "attempts", writeAttempts, "error", err)
}
