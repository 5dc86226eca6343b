// Package db provides SurrealDB query functions for the enrichment queue.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/surrealdb/surrealdb.go"

	"github.com/fitstack/nutridb/internal/models"
)

// EnqueueFood creates a pending queue item for a food, or re-arms the
// existing item if it reached a terminal state. A food that is already
// pending or processing is left untouched, which makes the call idempotent.
// The single multi-statement query runs in one transaction.
func (c *Client) EnqueueFood(ctx context.Context, foodID string, now time.Time) error {
	sql := `
		LET $item = (SELECT status FROM type::record("enrichment_queue", $food_id));

		IF array::len($item) == 0 {
			CREATE type::record("enrichment_queue", $food_id) SET
				food_id = $food_id,
				status = 'pending',
				attempts = 0,
				enqueued_at = $now,
				next_eligible_at = $now;
		} ELSE IF $item[0].status INSIDE ['done', 'failed'] {
			UPDATE type::record("enrichment_queue", $food_id) SET
				status = 'pending',
				attempts = 0,
				last_error = NONE,
				claimed_at = NONE,
				completed_at = NONE,
				enqueued_at = $now,
				next_eligible_at = $now;
		};
	`

	start := time.Now()
	_, err := surrealdb.Query[any](ctx, c.db, sql, map[string]any{
		"food_id": foodID,
		"now":     now,
	})
	c.recordQuery(start, err)
	if err != nil {
		return fmt.Errorf("enqueue food: %w", wrapQueryError(err))
	}
	return nil
}

// ClaimPending atomically transitions up to limit eligible pending items to
// processing and returns them. The select and the conditional update execute
// in a single transaction, and the WHERE guard on the update means an item
// already taken by a concurrent claim is silently skipped: two concurrent
// claims can never return overlapping foods.
func (c *Client) ClaimPending(ctx context.Context, limit int, now time.Time) ([]models.QueueItem, error) {
	sql := `
		LET $batch = (
			SELECT VALUE id FROM enrichment_queue
			WHERE status = 'pending' AND next_eligible_at <= $now
			ORDER BY enqueued_at ASC
			LIMIT $limit
		);

		UPDATE $batch SET
			status = 'processing',
			claimed_at = $now
		WHERE status = 'pending'
		RETURN AFTER;
	`

	start := time.Now()
	results, err := surrealdb.Query[[]models.QueueItem](ctx, c.db, sql, map[string]any{
		"limit": limit,
		"now":   now,
	})
	c.recordQuery(start, err)
	if err != nil {
		return nil, fmt.Errorf("claim pending: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 {
		return []models.QueueItem{}, nil
	}
	// The LET statement contributes an empty result; the claimed batch is
	// the final statement's result.
	return (*results)[len(*results)-1].Result, nil
}

// CompleteItem transitions a processing item to done. The WHERE guard makes
// the transition conditional: done is terminal and never re-entered.
func (c *Client) CompleteItem(ctx context.Context, foodID string, now time.Time) error {
	start := time.Now()
	_, err := surrealdb.Query[any](ctx, c.db, `
		UPDATE type::record("enrichment_queue", $food_id) SET
			status = 'done',
			completed_at = $now
		WHERE status = 'processing'
	`, map[string]any{"food_id": foodID, "now": now})
	c.recordQuery(start, err)
	if err != nil {
		return fmt.Errorf("complete item: %w", wrapQueryError(err))
	}
	return nil
}

// RequeueItem returns a processing item to pending after a transient failure,
// recording the attempt count, the error, and the backoff gate.
func (c *Client) RequeueItem(ctx context.Context, foodID string, attempts int, lastErr string, nextEligible time.Time) error {
	start := time.Now()
	_, err := surrealdb.Query[any](ctx, c.db, `
		UPDATE type::record("enrichment_queue", $food_id) SET
			status = 'pending',
			attempts = $attempts,
			last_error = $last_error,
			claimed_at = NONE,
			next_eligible_at = $next_eligible
		WHERE status = 'processing'
	`, map[string]any{
		"food_id":       foodID,
		"attempts":      attempts,
		"last_error":    lastErr,
		"next_eligible": nextEligible,
	})
	c.recordQuery(start, err)
	if err != nil {
		return fmt.Errorf("requeue item: %w", wrapQueryError(err))
	}
	return nil
}

// FailItem transitions a processing item to the terminal failed state.
func (c *Client) FailItem(ctx context.Context, foodID string, attempts int, lastErr string, now time.Time) error {
	start := time.Now()
	_, err := surrealdb.Query[any](ctx, c.db, `
		UPDATE type::record("enrichment_queue", $food_id) SET
			status = 'failed',
			attempts = $attempts,
			last_error = $last_error,
			completed_at = $now
		WHERE status = 'processing'
	`, map[string]any{
		"food_id":    foodID,
		"attempts":   attempts,
		"last_error": lastErr,
		"now":        now,
	})
	c.recordQuery(start, err)
	if err != nil {
		return fmt.Errorf("fail item: %w", wrapQueryError(err))
	}
	return nil
}

// ReclaimStaleItems reverts processing items claimed before the cutoff back
// to pending, attempts unchanged. Returns the number of reclaimed items.
func (c *Client) ReclaimStaleItems(ctx context.Context, cutoff time.Time) (int, error) {
	start := time.Now()
	results, err := surrealdb.Query[[]models.QueueItem](ctx, c.db, `
		UPDATE enrichment_queue SET
			status = 'pending',
			claimed_at = NONE
		WHERE status = 'processing' AND claimed_at != NONE AND claimed_at < $cutoff
		RETURN AFTER
	`, map[string]any{"cutoff": cutoff})
	c.recordQuery(start, err)
	if err != nil {
		return 0, fmt.Errorf("reclaim stale items: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 {
		return 0, nil
	}
	return len((*results)[0].Result), nil
}

// CountPending returns the number of items in the pending state, including
// those still gated by a backoff delay.
func (c *Client) CountPending(ctx context.Context) (int, error) {
	type countRow struct {
		Count int `json:"count"`
	}

	start := time.Now()
	results, err := surrealdb.Query[[]countRow](ctx, c.db, `
		SELECT count() AS count FROM enrichment_queue WHERE status = 'pending' GROUP ALL
	`, nil)
	c.recordQuery(start, err)
	if err != nil {
		return 0, fmt.Errorf("count pending: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return 0, nil
	}
	return (*results)[0].Result[0].Count, nil
}

// ListQueueItems returns queue items for inspection, most recent first.
func (c *Client) ListQueueItems(ctx context.Context, limit int) ([]models.QueueItem, error) {
	start := time.Now()
	results, err := surrealdb.Query[[]models.QueueItem](ctx, c.db, `
		SELECT * FROM enrichment_queue ORDER BY enqueued_at DESC LIMIT $limit
	`, map[string]any{"limit": limit})
	c.recordQuery(start, err)
	if err != nil {
		return nil, fmt.Errorf("list queue items: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 {
		return []models.QueueItem{}, nil
	}
	return (*results)[0].Result, nil
}

// GetQueueItem retrieves the queue item for a food. Returns ErrNotFound if
// the food was never enqueued.
func (c *Client) GetQueueItem(ctx context.Context, foodID string) (*models.QueueItem, error) {
	start := time.Now()
	results, err := surrealdb.Query[[]models.QueueItem](ctx, c.db, `
		SELECT * FROM type::record("enrichment_queue", $food_id)
	`, map[string]any{"food_id": foodID})
	c.recordQuery(start, err)
	if err != nil {
		return nil, fmt.Errorf("get queue item: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("queue item %s: %w", foodID, ErrNotFound)
	}
	return &(*results)[0].Result[0], nil
}
