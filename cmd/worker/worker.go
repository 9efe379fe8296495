package main

import (
	"context"
	"time"

	"stockbook/pkg/logger"
)

// Relay moves outbox rows to their destination.
type Relay interface {
	ProcessBatch(ctx context.Context) (int, error)
	Purge(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Cleaner drops expired idempotency keys.
type Cleaner interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// Options tune the worker loops.
type Options struct {
	PollInterval    time.Duration
	CleanupInterval time.Duration
	// RetainPublished is how long delivered outbox rows are kept.
	RetainPublished time.Duration
}

func (o Options) withDefaults() Options {
	if o.PollInterval <= 0 {
		o.PollInterval = 2 * time.Second
	}
	if o.CleanupInterval <= 0 {
		o.CleanupInterval = time.Hour
	}
	if o.RetainPublished <= 0 {
		o.RetainPublished = 7 * 24 * time.Hour
	}
	return o
}

// Worker drains the outbox and runs periodic cleanup.
type Worker struct {
	relay   Relay
	cleaner Cleaner
	opts    Options
	log     *logger.Logger
}

// NewWorker creates a worker.
func NewWorker(relay Relay, cleaner Cleaner, opts Options, log *logger.Logger) *Worker {
	return &Worker{relay: relay, cleaner: cleaner, opts: opts.withDefaults(), log: log.WithComponent("worker")}
}

// Run blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	poll := time.NewTicker(w.opts.PollInterval)
	defer poll.Stop()
	cleanup := time.NewTicker(w.opts.CleanupInterval)
	defer cleanup.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-poll.C:
			w.drain(ctx)
		case <-cleanup.C:
			w.cleanup(ctx)
		}
	}
}

// drain processes full batches until the outbox is empty or a batch fails.
func (w *Worker) drain(ctx context.Context) int {
	total := 0
	for ctx.Err() == nil {
		n, err := w.relay.ProcessBatch(ctx)
		if err != nil {
			w.log.WithContext(ctx).Errorw("outbox batch failed", "error", err)
			break
		}
		total += n
		if n == 0 {
			break
		}
	}
	if total > 0 {
		w.log.WithContext(ctx).Debugw("outbox drained", "published", total)
	}
	return total
}

func (w *Worker) cleanup(ctx context.Context) {
	if n, err := w.relay.Purge(ctx, w.opts.RetainPublished); err != nil {
		w.log.WithContext(ctx).Warnw("outbox purge failed", "error", err)
	} else if n > 0 {
		w.log.WithContext(ctx).Infow("purged published outbox rows", "count", n)
	}

	if n, err := w.cleaner.CleanupExpired(ctx); err != nil {
		w.log.WithContext(ctx).Warnw("idempotency cleanup failed", "error", err)
	} else if n > 0 {
		w.log.WithContext(ctx).Infow("cleaned up idempotency keys", "count", n)
	}
}
