package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/fitstack/nutridb/internal/db"
	"github.com/fitstack/nutridb/internal/models"
)

// memStore is a mutex-guarded in-memory stand-in for the database client.
// It mirrors the store's transition guards: claims only take pending
// eligible items, completion and failure only apply to processing items.
type memStore struct {
	mu     sync.Mutex
	items  map[string]*models.QueueItem
	foods  map[string]*models.FoodRecord
	status *models.PipelineStatus

	// One-shot error injections, consumed in order
	enqueueErrs []error
	claimErrs   []error

	statusErr  error
	getFoodErr error
	replaced   int
}

// popErr consumes the next injected error from a queue, or nil.
func popErr(errs *[]error) error {
	if len(*errs) == 0 {
		return nil
	}
	err := (*errs)[0]
	*errs = (*errs)[1:]
	return err
}

func newMemStore() *memStore {
	return &memStore{
		items: make(map[string]*models.QueueItem),
		foods: make(map[string]*models.FoodRecord),
	}
}

func (m *memStore) addFood(id, name string, score *int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.foods[id] = &models.FoodRecord{
		ID:           surrealmodels.NewRecordID("food", id),
		Name:         name,
		QualityScore: score,
	}
}

func (m *memStore) item(id string) models.QueueItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.items[id]
}

// --- QueueStore ---

func (m *memStore) EnqueueFood(_ context.Context, foodID string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := popErr(&m.enqueueErrs); err != nil {
		return err
	}

	item, ok := m.items[foodID]
	if !ok {
		m.items[foodID] = &models.QueueItem{
			FoodID:         foodID,
			Status:         models.QueuePending,
			EnqueuedAt:     now,
			NextEligibleAt: now,
		}
		return nil
	}
	if item.Status.Terminal() {
		*item = models.QueueItem{
			FoodID:         foodID,
			Status:         models.QueuePending,
			EnqueuedAt:     now,
			NextEligibleAt: now,
		}
	}
	return nil
}

func (m *memStore) ClaimPending(_ context.Context, limit int, now time.Time) ([]models.QueueItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := popErr(&m.claimErrs); err != nil {
		return nil, err
	}

	var eligible []*models.QueueItem
	for _, item := range m.items {
		if item.Status == models.QueuePending && !item.NextEligibleAt.After(now) {
			eligible = append(eligible, item)
		}
	}
	sort.Slice(eligible, func(i, j int) bool {
		return eligible[i].EnqueuedAt.Before(eligible[j].EnqueuedAt)
	})
	if len(eligible) > limit {
		eligible = eligible[:limit]
	}

	claimed := make([]models.QueueItem, 0, len(eligible))
	for _, item := range eligible {
		item.Status = models.QueueProcessing
		claimedAt := now
		item.ClaimedAt = &claimedAt
		claimed = append(claimed, *item)
	}
	return claimed, nil
}

func (m *memStore) CompleteItem(_ context.Context, foodID string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[foodID]
	if !ok || item.Status != models.QueueProcessing {
		return nil
	}
	item.Status = models.QueueDone
	item.CompletedAt = &now
	return nil
}

func (m *memStore) RequeueItem(_ context.Context, foodID string, attempts int, lastErr string, nextEligible time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[foodID]
	if !ok || item.Status != models.QueueProcessing {
		return nil
	}
	item.Status = models.QueuePending
	item.Attempts = attempts
	item.LastError = &lastErr
	item.ClaimedAt = nil
	item.NextEligibleAt = nextEligible
	return nil
}

func (m *memStore) FailItem(_ context.Context, foodID string, attempts int, lastErr string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[foodID]
	if !ok || item.Status != models.QueueProcessing {
		return nil
	}
	item.Status = models.QueueFailed
	item.Attempts = attempts
	item.LastError = &lastErr
	item.CompletedAt = &now
	return nil
}

func (m *memStore) ReclaimStaleItems(_ context.Context, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, item := range m.items {
		if item.Status == models.QueueProcessing && item.ClaimedAt != nil && item.ClaimedAt.Before(cutoff) {
			item.Status = models.QueuePending
			item.ClaimedAt = nil
			n++
		}
	}
	return n, nil
}

func (m *memStore) CountPending(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, item := range m.items {
		if item.Status == models.QueuePending {
			n++
		}
	}
	return n, nil
}

// --- Catalog ---

func (m *memStore) GetFood(_ context.Context, id string) (*models.FoodRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.getFoodErr != nil {
		return nil, m.getFoodErr
	}
	food, ok := m.foods[id]
	if !ok {
		return nil, fmt.Errorf("food %s: %w", id, db.ErrNotFound)
	}
	copied := *food
	return &copied, nil
}

func (m *memStore) FoodsNeedingEnrichment(_ context.Context, threshold int) ([]models.FoodRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.FoodRecord
	for _, food := range m.foods {
		if food.EnrichmentStatus != nil && *food.EnrichmentStatus == models.FoodStatusFailed {
			continue
		}
		if food.QualityScore == nil || *food.QualityScore < threshold {
			out = append(out, *food)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memStore) ApplyEnrichment(_ context.Context, foodID string, n models.Nutrients, score int, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	food, ok := m.foods[foodID]
	if !ok {
		return fmt.Errorf("food %s not found", foodID)
	}
	if n.Calories != nil {
		food.Calories = n.Calories
	}
	if n.Protein != nil {
		food.Protein = n.Protein
	}
	if n.Carbs != nil {
		food.Carbs = n.Carbs
	}
	if n.Fat != nil {
		food.Fat = n.Fat
	}
	if n.Fiber != nil {
		food.Fiber = n.Fiber
	}
	if n.Sugar != nil {
		food.Sugar = n.Sugar
	}
	if n.Sodium != nil {
		food.Sodium = n.Sodium
	}
	food.QualityScore = &score
	food.EnrichmentStatus = &status
	return nil
}

func (m *memStore) MarkFoodFailed(_ context.Context, foodID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	food, ok := m.foods[foodID]
	if !ok {
		return nil
	}
	failed := models.FoodStatusFailed
	food.EnrichmentStatus = &failed
	return nil
}

// --- StatusStore ---

func (m *memStore) AggregateStatus(_ context.Context, threshold int, now time.Time) (*models.PipelineStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.statusErr != nil {
		return nil, m.statusErr
	}

	status := &models.PipelineStatus{LastUpdated: now}
	var scoreSum float64
	var scored int
	for _, food := range m.foods {
		status.TotalFoods++
		if food.QualityScore != nil {
			if *food.QualityScore > 0 {
				scored++
				scoreSum += float64(*food.QualityScore)
			}
			if *food.QualityScore >= threshold {
				status.TotalVerified++
			} else {
				status.FoodsBelowThreshold++
				status.TotalPending++
			}
		} else {
			status.TotalPending++
		}
	}
	if scored > 0 {
		status.AverageQualityScore = scoreSum / float64(scored)
	}
	for _, item := range m.items {
		if item.Status == models.QueuePending {
			status.QueueSize++
		}
	}
	return status, nil
}

func (m *memStore) ReplacePipelineStatus(_ context.Context, status *models.PipelineStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := *status
	m.status = &copied
	m.replaced++
	return nil
}

func (m *memStore) GetPipelineStatus(_ context.Context) (*models.PipelineStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.status == nil {
		return &models.PipelineStatus{}, nil
	}
	copied := *m.status
	return &copied, nil
}
