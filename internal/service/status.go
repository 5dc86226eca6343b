package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fitstack/nutridb/internal/metrics"
	"github.com/fitstack/nutridb/internal/models"
)

// Aggregator maintains the pipeline status snapshot. Recompute replaces
// the whole snapshot in one pass so readers never see partial updates;
// a failed recompute leaves the previous snapshot in place.
type Aggregator struct {
	store     StatusStore
	collector *metrics.Collector
	threshold int

	now func() time.Time
}

// NewAggregator creates an aggregator. The collector may be nil.
func NewAggregator(store StatusStore, collector *metrics.Collector, threshold int) *Aggregator {
	if threshold <= 0 {
		threshold = models.DefaultVerifiedThreshold
	}
	return &Aggregator{
		store:     store,
		collector: collector,
		threshold: threshold,
		now:       time.Now,
	}
}

// Recompute builds a fresh snapshot from the catalog and queue and stores
// it, returning the new snapshot.
func (a *Aggregator) Recompute(ctx context.Context) (*models.PipelineStatus, error) {
	start := time.Now()

	status, err := a.store.AggregateStatus(ctx, a.threshold, a.now().UTC())
	if a.collector != nil {
		a.collector.RecordOutcome(metrics.OpAggregation, time.Since(start), err)
	}
	if err != nil {
		return nil, fmt.Errorf("recompute status: %w", err)
	}

	if err := a.store.ReplacePipelineStatus(ctx, status); err != nil {
		return nil, fmt.Errorf("store status: %w", err)
	}

	slog.Debug("pipeline status recomputed",
		"total_foods", status.TotalFoods,
		"verified", status.TotalVerified,
		"below_threshold", status.FoodsBelowThreshold,
		"queue_size", status.QueueSize)
	return status, nil
}

// Current returns the stored snapshot without recomputing. A store with
// no snapshot yet yields zero counts.
func (a *Aggregator) Current(ctx context.Context) (*models.PipelineStatus, error) {
	status, err := a.store.GetPipelineStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("read status: %w", err)
	}
	return status, nil
}
