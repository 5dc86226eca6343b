package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fitstack/nutridb/internal/db"
	"github.com/fitstack/nutridb/internal/models"
)

// QueueConfig tunes retry and lease behavior.
type QueueConfig struct {
	MaxAttempts  int
	BackoffBase  time.Duration
	BackoffMax   time.Duration
	LeaseTimeout time.Duration
}

// DefaultQueueConfig returns production retry settings.
func DefaultQueueConfig() QueueConfig {
	return QueueConfig{
		MaxAttempts:  3,
		BackoffBase:  30 * time.Second,
		BackoffMax:   15 * time.Minute,
		LeaseTimeout: 10 * time.Minute,
	}
}

// Queue manages enrichment queue items on top of a QueueStore, adding
// retry accounting, exponential backoff, and lease reclaim.
type Queue struct {
	store QueueStore
	cfg   QueueConfig

	// now is swappable for tests
	now func() time.Time
}

// NewQueue creates a queue service. Zero config fields fall back to
// defaults.
func NewQueue(store QueueStore, cfg QueueConfig) *Queue {
	defaults := DefaultQueueConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaults.MaxAttempts
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = defaults.BackoffBase
	}
	if cfg.BackoffMax <= 0 {
		cfg.BackoffMax = defaults.BackoffMax
	}
	if cfg.LeaseTimeout <= 0 {
		cfg.LeaseTimeout = defaults.LeaseTimeout
	}
	return &Queue{
		store: store,
		cfg:   cfg,
		now:   time.Now,
	}
}

// Enqueue adds a food for enrichment. Safe to call repeatedly: a food
// already waiting or in flight is left alone, a terminal item is re-armed.
// A concurrent enqueue racing the item's creation counts as success.
func (q *Queue) Enqueue(ctx context.Context, foodID string) error {
	if err := q.store.EnqueueFood(ctx, foodID, q.now().UTC()); err != nil {
		if errors.Is(err, db.ErrAlreadyExists) {
			return nil
		}
		return fmt.Errorf("enqueue %s: %w", foodID, err)
	}
	return nil
}

// claimRetries bounds retries when concurrent claims hit a transaction
// conflict. Conflicts resolve as soon as the competing claim commits.
const claimRetries = 3

// Claim atomically takes up to limit eligible items for processing.
func (q *Queue) Claim(ctx context.Context, limit int) ([]ClaimedItem, error) {
	var items []models.QueueItem
	var err error
	for attempt := 0; attempt < claimRetries; attempt++ {
		items, err = q.store.ClaimPending(ctx, limit, q.now().UTC())
		if err == nil || !errors.Is(err, db.ErrTransactionConflict) {
			break
		}
		slog.Debug("claim hit transaction conflict, retrying", "attempt", attempt+1)
	}
	if err != nil {
		return nil, fmt.Errorf("claim: %w", err)
	}

	claimed := make([]ClaimedItem, len(items))
	for i, item := range items {
		claimed[i] = ClaimedItem{FoodID: item.FoodID, Attempts: item.Attempts}
	}
	return claimed, nil
}

// ClaimedItem is a queue item handed to the worker.
type ClaimedItem struct {
	FoodID   string
	Attempts int
}

// MarkDone records a successful enrichment.
func (q *Queue) MarkDone(ctx context.Context, foodID string) error {
	return q.store.CompleteItem(ctx, foodID, q.now().UTC())
}

// MarkTransientFailure counts the attempt and either requeues the item
// with backoff or, once attempts are exhausted, moves it to failed.
// Returns true when the item reached the terminal failed state.
func (q *Queue) MarkTransientFailure(ctx context.Context, item ClaimedItem, cause error) (bool, error) {
	attempts := item.Attempts + 1
	now := q.now().UTC()

	if attempts >= q.cfg.MaxAttempts {
		slog.Warn("enrichment attempts exhausted", "food", item.FoodID, "attempts", attempts, "error", cause)
		if err := q.store.FailItem(ctx, item.FoodID, attempts, cause.Error(), now); err != nil {
			return false, fmt.Errorf("fail %s: %w", item.FoodID, err)
		}
		return true, nil
	}

	delay := q.backoffDelay(attempts)
	slog.Info("requeueing after transient failure", "food", item.FoodID, "attempts", attempts, "retry_in", delay, "error", cause)
	if err := q.store.RequeueItem(ctx, item.FoodID, attempts, cause.Error(), now.Add(delay)); err != nil {
		return false, fmt.Errorf("requeue %s: %w", item.FoodID, err)
	}
	return false, nil
}

// MarkPermanentFailure moves the item straight to failed regardless of
// remaining attempts.
func (q *Queue) MarkPermanentFailure(ctx context.Context, item ClaimedItem, cause error) error {
	slog.Warn("permanent enrichment failure", "food", item.FoodID, "error", cause)
	if err := q.store.FailItem(ctx, item.FoodID, item.Attempts+1, cause.Error(), q.now().UTC()); err != nil {
		return fmt.Errorf("fail %s: %w", item.FoodID, err)
	}
	return nil
}

// ReclaimStale returns items stuck in processing past the lease timeout
// to the pending pool. Reclaim does not consume an attempt.
func (q *Queue) ReclaimStale(ctx context.Context) (int, error) {
	cutoff := q.now().UTC().Add(-q.cfg.LeaseTimeout)
	n, err := q.store.ReclaimStaleItems(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("reclaim stale: %w", err)
	}
	if n > 0 {
		slog.Info("reclaimed stale queue items", "count", n)
	}
	return n, nil
}

// Pending returns the number of items waiting to be claimed, including
// those still inside a backoff window.
func (q *Queue) Pending(ctx context.Context) (int, error) {
	return q.store.CountPending(ctx)
}

// backoffDelay doubles per attempt starting from the base, capped.
func (q *Queue) backoffDelay(attempts int) time.Duration {
	delay := q.cfg.BackoffBase
	for i := 1; i < attempts; i++ {
		delay *= 2
		if delay >= q.cfg.BackoffMax {
			return q.cfg.BackoffMax
		}
	}
	if delay > q.cfg.BackoffMax {
		return q.cfg.BackoffMax
	}
	return delay
}
