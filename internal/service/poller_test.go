package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPollerDrainsAndStops(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	store := newMemStore()
	source := newStubSource()
	for _, id := range []string{"a", "b", "c"} {
		store.addFood(id, id, nil)
		source.payloads[id] = fullPayload()
	}

	worker := newTestWorker(store, source, 2)
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, worker.queue.Enqueue(ctx, id))
	}

	poller := NewPoller(worker, PollerConfig{
		Interval:     10 * time.Millisecond,
		DrainAndStop: true,
	})
	require.NoError(t, poller.Run(ctx))

	pending, err := worker.queue.Pending(ctx)
	require.NoError(t, err)
	assert.Zero(t, pending)
}

func TestPollerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	store := newMemStore()
	worker := newTestWorker(store, newStubSource(), 10)
	poller := NewPoller(worker, PollerConfig{Interval: 5 * time.Millisecond})

	done := make(chan error, 1)
	go func() { done <- poller.Run(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop after cancellation")
	}
}

func TestPollerReclaimsStaleLeases(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	store := newMemStore()
	source := newStubSource()
	store.addFood("stuck", "Stuck Food", nil)
	source.payloads["stuck"] = fullPayload()

	queue := NewQueue(store, QueueConfig{LeaseTimeout: time.Minute})
	aggregator := NewAggregator(store, nil, 0)
	worker := NewWorker(queue, store, source, aggregator, nil, WorkerConfig{BatchSize: 10})

	// Simulate a crashed worker: claim normally, then backdate the lease
	require.NoError(t, queue.Enqueue(ctx, "stuck"))
	claimed, err := store.ClaimPending(ctx, 1, time.Now())
	require.NoError(t, err)
	require.Len(t, claimed, 1)

	stale := time.Now().Add(-time.Hour)
	store.mu.Lock()
	store.items["stuck"].ClaimedAt = &stale
	store.mu.Unlock()

	poller := NewPoller(worker, PollerConfig{
		Interval:     10 * time.Millisecond,
		DrainAndStop: true,
	})
	require.NoError(t, poller.Run(ctx))

	// The reclaimed item was processed to completion
	assert.Equal(t, "done", string(store.item("stuck").Status))
}
