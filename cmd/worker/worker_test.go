package main

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"stockbook/pkg/logger"
)

type scriptedRelay struct {
	batches []int
	err     error
	calls   int
	purged  time.Duration
}

func (r *scriptedRelay) ProcessBatch(context.Context) (int, error) {
	r.calls++
	if r.err != nil {
		return 0, r.err
	}
	if len(r.batches) == 0 {
		return 0, nil
	}
	n := r.batches[0]
	r.batches = r.batches[1:]
	return n, nil
}

func (r *scriptedRelay) Purge(_ context.Context, olderThan time.Duration) (int64, error) {
	r.purged = olderThan
	return 3, nil
}

type tickingRelay struct{ calls atomic.Int32 }

func (r *tickingRelay) ProcessBatch(context.Context) (int, error) {
	r.calls.Add(1)
	return 0, nil
}

func (r *tickingRelay) Purge(context.Context, time.Duration) (int64, error) { return 0, nil }

type countingCleaner struct{ calls int }

func (c *countingCleaner) CleanupExpired(context.Context) (int64, error) {
	c.calls++
	return 0, errors.New("table missing")
}

func TestWorker_DrainUntilEmpty(t *testing.T) {
	relay := &scriptedRelay{batches: []int{100, 100, 7}}
	w := NewWorker(relay, &countingCleaner{}, Options{}, logger.NewNop())

	assert.Equal(t, 207, w.drain(context.Background()))
	assert.Equal(t, 4, relay.calls)
}

func TestWorker_DrainStopsOnError(t *testing.T) {
	relay := &scriptedRelay{err: errors.New("db down")}
	w := NewWorker(relay, &countingCleaner{}, Options{}, logger.NewNop())

	assert.Zero(t, w.drain(context.Background()))
	assert.Equal(t, 1, relay.calls)
}

func TestWorker_Cleanup(t *testing.T) {
	relay := &scriptedRelay{}
	cleaner := &countingCleaner{}
	w := NewWorker(relay, cleaner, Options{RetainPublished: time.Hour}, logger.NewNop())

	w.cleanup(context.Background())
	assert.Equal(t, time.Hour, relay.purged)
	assert.Equal(t, 1, cleaner.calls)
}

func TestWorker_RunStopsOnCancel(t *testing.T) {
	relay := &tickingRelay{}
	w := NewWorker(relay, &countingCleaner{}, Options{PollInterval: time.Millisecond}, logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return relay.calls.Load() > 0 }, time.Second, time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
