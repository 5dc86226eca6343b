package db

import (
	"context"
	"fmt"
	"time"

	"github.com/surrealdb/surrealdb.go"

	"github.com/fitstack/nutridb/internal/models"
)

// AggregateStatus computes a full pipeline snapshot in a single query so the
// counters are internally consistent. total_pending covers foods whose score
// is absent or below the threshold; foods_below_threshold only scored ones.
// The average covers only foods with a positive score (a zero score means
// "no usable data") and is 0 when none qualify. queue_size counts pending
// items only, so it matches the live pending count at snapshot time.
func (c *Client) AggregateStatus(ctx context.Context, threshold int, now time.Time) (*models.PipelineStatus, error) {
	sql := `
		LET $scores = (SELECT VALUE quality_score FROM food);
		LET $scored = array::filter($scores, |$s| $s != NONE AND $s > 0);

		RETURN {
			total_foods: array::len($scores),
			total_verified: array::len((SELECT VALUE id FROM food WHERE quality_score != NONE AND quality_score >= $threshold)),
			total_pending: array::len((SELECT VALUE id FROM food WHERE quality_score = NONE OR quality_score < $threshold)),
			foods_below_threshold: array::len((SELECT VALUE id FROM food WHERE quality_score != NONE AND quality_score < $threshold)),
			average_quality_score: IF array::len($scored) > 0 { math::mean($scored) } ELSE { 0 },
			queue_size: array::len((SELECT VALUE id FROM enrichment_queue WHERE status = 'pending')),
			last_updated: $now
		};
	`

	start := time.Now()
	results, err := surrealdb.Query[models.PipelineStatus](ctx, c.db, sql, map[string]any{
		"threshold": threshold,
		"now":       now,
	})
	c.recordQuery(start, err)
	if err != nil {
		return nil, fmt.Errorf("aggregate status: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 {
		return nil, fmt.Errorf("aggregate status: empty result")
	}
	status := (*results)[len(*results)-1].Result
	return &status, nil
}

// ReplacePipelineStatus stores the snapshot under a fixed singleton record,
// replacing the previous snapshot wholesale.
func (c *Client) ReplacePipelineStatus(ctx context.Context, status *models.PipelineStatus) error {
	start := time.Now()
	_, err := surrealdb.Query[any](ctx, c.db, `
		UPSERT pipeline_status:current CONTENT {
			total_foods: $total_foods,
			total_verified: $total_verified,
			total_pending: $total_pending,
			foods_below_threshold: $foods_below_threshold,
			average_quality_score: $average_quality_score,
			queue_size: $queue_size,
			last_updated: $last_updated
		}
	`, map[string]any{
		"total_foods":           status.TotalFoods,
		"total_verified":        status.TotalVerified,
		"total_pending":         status.TotalPending,
		"foods_below_threshold": status.FoodsBelowThreshold,
		"average_quality_score": status.AverageQualityScore,
		"queue_size":            status.QueueSize,
		"last_updated":          status.LastUpdated,
	})
	c.recordQuery(start, err)
	if err != nil {
		return fmt.Errorf("replace pipeline status: %w", wrapQueryError(err))
	}
	return nil
}

// GetPipelineStatus returns the stored snapshot, or a zero snapshot when no
// aggregation has run yet.
func (c *Client) GetPipelineStatus(ctx context.Context) (*models.PipelineStatus, error) {
	start := time.Now()
	results, err := surrealdb.Query[[]models.PipelineStatus](ctx, c.db, `
		SELECT * FROM pipeline_status:current
	`, nil)
	c.recordQuery(start, err)
	if err != nil {
		return nil, fmt.Errorf("get pipeline status: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return &models.PipelineStatus{}, nil
	}
	return &(*results)[0].Result[0], nil
}
