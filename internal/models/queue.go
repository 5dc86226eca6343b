package models

import (
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// QueueStatus represents the processing state of an enrichment queue item.
type QueueStatus string

const (
	QueuePending    QueueStatus = "pending"
	QueueProcessing QueueStatus = "processing"
	QueueDone       QueueStatus = "done"
	QueueFailed     QueueStatus = "failed"
)

// Terminal reports whether the status is an end state.
func (s QueueStatus) Terminal() bool {
	return s == QueueDone || s == QueueFailed
}

// QueueItem represents one persisted unit of enrichment work.
// There is exactly one item per food: the record ID is keyed by the food ID,
// which makes Enqueue structurally idempotent.
type QueueItem struct {
	ID             surrealmodels.RecordID `json:"id"`
	FoodID         string                 `json:"food_id"`
	Status         QueueStatus            `json:"status"`
	Attempts       int                    `json:"attempts"`
	LastError      *string                `json:"last_error,omitempty"`
	EnqueuedAt     time.Time              `json:"enqueued_at"`
	ClaimedAt      *time.Time             `json:"claimed_at,omitempty"`
	CompletedAt    *time.Time             `json:"completed_at,omitempty"`
	NextEligibleAt time.Time              `json:"next_eligible_at"`
}
