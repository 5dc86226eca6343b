package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/fitstack/nutridb/internal/db"
	"github.com/fitstack/nutridb/internal/enrich"
	"github.com/fitstack/nutridb/internal/metrics"
	"github.com/fitstack/nutridb/internal/models"
)

// ErrCycleRunning is returned when a cycle is requested while another is
// still in flight.
var ErrCycleRunning = errors.New("enrichment cycle already running")

// WorkerConfig tunes a single enrichment cycle.
type WorkerConfig struct {
	BatchSize         int
	Concurrency       int
	FetchTimeout      time.Duration
	VerifiedThreshold int
}

// Worker runs enrichment cycles: claim a batch, fetch nutrition data for
// each food with bounded parallelism, write results back, refresh the
// status snapshot.
type Worker struct {
	queue      *Queue
	catalog    Catalog
	source     enrich.Source
	aggregator *Aggregator
	collector  *metrics.Collector
	cfg        WorkerConfig

	// runMu guards against overlapping cycles within this process
	runMu sync.Mutex
}

// NewWorker creates a worker. The collector may be nil.
func NewWorker(queue *Queue, catalog Catalog, source enrich.Source, aggregator *Aggregator, collector *metrics.Collector, cfg WorkerConfig) *Worker {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 10 * time.Second
	}
	if cfg.VerifiedThreshold <= 0 {
		cfg.VerifiedThreshold = models.DefaultVerifiedThreshold
	}
	return &Worker{
		queue:      queue,
		catalog:    catalog,
		source:     source,
		aggregator: aggregator,
		collector:  collector,
		cfg:        cfg,
	}
}

// CycleError records a single food's failure within a cycle.
type CycleError struct {
	FoodName string `json:"food_name"`
	Error    string `json:"error"`
}

// CycleSummary reports the outcome of one enrichment cycle.
type CycleSummary struct {
	CycleID    string       `json:"cycle_id"`
	Processed  int          `json:"processed"`
	Successful int          `json:"successful"`
	Failed     int          `json:"failed"`
	Remaining  int          `json:"remaining"`
	Errors     []CycleError `json:"errors"`
}

// ScanAndEnqueue finds foods below the quality threshold and enqueues
// them. Returns the number of foods enqueued.
func (w *Worker) ScanAndEnqueue(ctx context.Context) (int, error) {
	foods, err := w.catalog.FoodsNeedingEnrichment(ctx, w.cfg.VerifiedThreshold)
	if err != nil {
		return 0, fmt.Errorf("scan foods: %w", err)
	}

	enqueued := 0
	for _, food := range foods {
		id, err := models.RecordIDString(food.ID)
		if err != nil {
			slog.Warn("skipping food with unusable id", "name", food.Name, "error", err)
			continue
		}
		if err := w.queue.Enqueue(ctx, id); err != nil {
			return enqueued, err
		}
		enqueued++
	}

	// Queue contents changed, so the snapshot must reflect it
	if enqueued > 0 && w.aggregator != nil {
		if _, err := w.aggregator.Recompute(ctx); err != nil {
			slog.Warn("status recompute failed after scan", "error", err)
		}
	}

	slog.Info("scan complete", "candidates", len(foods), "enqueued", enqueued)
	return enqueued, nil
}

// RunCycle executes one enrichment cycle. Only one cycle runs at a time;
// a concurrent call fails fast with ErrCycleRunning. One food's failure
// never aborts the rest of the batch.
func (w *Worker) RunCycle(ctx context.Context) (*CycleSummary, error) {
	if !w.runMu.TryLock() {
		return nil, ErrCycleRunning
	}
	defer w.runMu.Unlock()

	cycleStart := time.Now()
	cycleID := uuid.New().String()

	// Recover items stranded by a crashed worker before claiming
	reclaimed, err := w.queue.ReclaimStale(ctx)
	if err != nil {
		slog.Warn("failed to reclaim stale items", "cycle", cycleID, "error", err)
	} else if reclaimed > 0 {
		slog.Info("reclaimed stale queue items", "cycle", cycleID, "count", reclaimed)
	}

	items, err := w.queue.Claim(ctx, w.cfg.BatchSize)
	if err != nil {
		return nil, err
	}

	slog.Info("starting enrichment cycle", "cycle", cycleID, "batch", len(items), "concurrency", w.cfg.Concurrency)

	// Result aggregation with thread-safe counters
	var (
		successful atomic.Int32
		failed     atomic.Int32
		errorsMu   sync.Mutex
		cycleErrs  []CycleError
	)

	itemChan := make(chan ClaimedItem, len(items))
	var wg sync.WaitGroup

	for i := 0; i < w.cfg.Concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for item := range itemChan {
				if ctx.Err() != nil {
					return
				}

				name, err := w.processItem(ctx, item)
				if err != nil {
					failed.Add(1)
					errorsMu.Lock()
					cycleErrs = append(cycleErrs, CycleError{FoodName: name, Error: err.Error()})
					errorsMu.Unlock()
					continue
				}

				successful.Add(1)
				slog.Debug("food enriched", "worker", workerID, "food", name)
			}
		}(i)
	}

	for _, item := range items {
		itemChan <- item
	}
	close(itemChan)
	wg.Wait()

	remaining, err := w.queue.Pending(ctx)
	if err != nil {
		slog.Warn("failed to count remaining queue items", "error", err)
		remaining = -1
	}

	// Refresh the status snapshot once per cycle rather than per food
	if w.aggregator != nil && (len(items) > 0 || reclaimed > 0) {
		if _, err := w.aggregator.Recompute(ctx); err != nil {
			slog.Warn("status recompute failed after cycle", "cycle", cycleID, "error", err)
		}
	}

	summary := &CycleSummary{
		CycleID:    cycleID,
		Processed:  len(items),
		Successful: int(successful.Load()),
		Failed:     int(failed.Load()),
		Remaining:  remaining,
		Errors:     cycleErrs,
	}

	if w.collector != nil {
		w.collector.RecordTiming(metrics.OpCycle, time.Since(cycleStart))
	}
	slog.Info("enrichment cycle complete", "cycle", cycleID,
		"processed", summary.Processed, "successful", summary.Successful,
		"failed", summary.Failed, "remaining", summary.Remaining,
		"duration_ms", time.Since(cycleStart).Milliseconds())

	return summary, nil
}

// processItem enriches one food. Returns the food's display name and the
// terminal error, if any. Queue bookkeeping errors take precedence over
// the fetch error because they indicate a broken pipeline, not bad data.
func (w *Worker) processItem(ctx context.Context, item ClaimedItem) (string, error) {
	food, err := w.catalog.GetFood(ctx, item.FoodID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			// Food vanished from the catalog: nothing to enrich
			if qErr := w.queue.MarkPermanentFailure(ctx, item, err); qErr != nil {
				return item.FoodID, qErr
			}
		} else {
			// Catalog read failed, not the food: retry later
			if _, qErr := w.queue.MarkTransientFailure(ctx, item, err); qErr != nil {
				return item.FoodID, qErr
			}
		}
		return item.FoodID, fmt.Errorf("load food: %w", err)
	}

	identity := enrich.FoodIdentity{ID: item.FoodID, Name: food.Name}
	if food.Brand != nil {
		identity.Brand = *food.Brand
	}

	fetchCtx, cancel := context.WithTimeout(ctx, w.cfg.FetchTimeout)
	fetchStart := time.Now()
	payload, fetchErr := w.source.Fetch(fetchCtx, identity)
	cancel()
	if w.collector != nil {
		w.collector.RecordOutcome(metrics.OpSourceFetch, time.Since(fetchStart), fetchErr)
	}

	if fetchErr != nil {
		return food.Name, w.handleFetchFailure(ctx, item, food.Name, fetchErr)
	}

	merged := enrich.Merge(food.Nutrients(), payload.Nutrients)
	score := enrich.QualityScore(merged, payload.Confidence)
	status := models.FoodStatusPending
	if score >= w.cfg.VerifiedThreshold {
		status = models.FoodStatusVerified
	}

	if err := w.catalog.ApplyEnrichment(ctx, item.FoodID, merged, score, status); err != nil {
		// The write failed, not the source: retry later
		if _, qErr := w.queue.MarkTransientFailure(ctx, item, err); qErr != nil {
			return food.Name, qErr
		}
		return food.Name, fmt.Errorf("apply enrichment: %w", err)
	}

	if err := w.queue.MarkDone(ctx, item.FoodID); err != nil {
		return food.Name, err
	}
	return food.Name, nil
}

// handleFetchFailure routes a source error through the retry policy and
// keeps the food record in sync when the item dies.
func (w *Worker) handleFetchFailure(ctx context.Context, item ClaimedItem, name string, fetchErr error) error {
	if enrich.IsPermanent(fetchErr) {
		if err := w.queue.MarkPermanentFailure(ctx, item, fetchErr); err != nil {
			return err
		}
		if err := w.catalog.MarkFoodFailed(ctx, item.FoodID); err != nil {
			return err
		}
		return fetchErr
	}

	exhausted, err := w.queue.MarkTransientFailure(ctx, item, fetchErr)
	if err != nil {
		return err
	}
	if exhausted {
		if err := w.catalog.MarkFoodFailed(ctx, item.FoodID); err != nil {
			return err
		}
	}
	return fetchErr
}
