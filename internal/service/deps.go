// Package service implements the enrichment pipeline: queue management,
// enrichment cycles, and status aggregation.
package service

import (
	"context"
	"time"

	"github.com/fitstack/nutridb/internal/models"
)

// QueueStore persists enrichment queue items. Implemented by db.Client.
type QueueStore interface {
	EnqueueFood(ctx context.Context, foodID string, now time.Time) error
	ClaimPending(ctx context.Context, limit int, now time.Time) ([]models.QueueItem, error)
	CompleteItem(ctx context.Context, foodID string, now time.Time) error
	RequeueItem(ctx context.Context, foodID string, attempts int, lastErr string, nextEligible time.Time) error
	FailItem(ctx context.Context, foodID string, attempts int, lastErr string, now time.Time) error
	ReclaimStaleItems(ctx context.Context, cutoff time.Time) (int, error)
	CountPending(ctx context.Context) (int, error)
}

// Catalog reads and updates food records. Implemented by db.Client.
type Catalog interface {
	GetFood(ctx context.Context, id string) (*models.FoodRecord, error)
	FoodsNeedingEnrichment(ctx context.Context, threshold int) ([]models.FoodRecord, error)
	ApplyEnrichment(ctx context.Context, foodID string, n models.Nutrients, score int, status string) error
	MarkFoodFailed(ctx context.Context, foodID string) error
}

// StatusStore computes and persists pipeline status snapshots.
// Implemented by db.Client.
type StatusStore interface {
	AggregateStatus(ctx context.Context, threshold int, now time.Time) (*models.PipelineStatus, error)
	ReplacePipelineStatus(ctx context.Context, status *models.PipelineStatus) error
	GetPipelineStatus(ctx context.Context) (*models.PipelineStatus, error)
}
