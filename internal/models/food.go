// Package models defines data structures for the nutridb data store.
package models

import (
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// Enrichment status values for a food record.
const (
	FoodStatusPending  = "pending"
	FoodStatusVerified = "verified"
	FoodStatusFailed   = "failed"
)

// DefaultVerifiedThreshold is the quality score at which a food record is
// considered reliable and exits the enrichment queue.
const DefaultVerifiedThreshold = 70

// Nutrients holds the per-serving nutrition fields of a food record.
// All fields are nullable: an unenriched record has no values at all.
type Nutrients struct {
	Calories *float64 `json:"calories,omitempty"`
	Protein  *float64 `json:"protein,omitempty"`
	Carbs    *float64 `json:"carbs,omitempty"`
	Fat      *float64 `json:"fat,omitempty"`
	Fiber    *float64 `json:"fiber,omitempty"`
	Sugar    *float64 `json:"sugar,omitempty"`
	Sodium   *float64 `json:"sodium,omitempty"`
}

// FoodRecord represents one food in the catalog.
type FoodRecord struct {
	ID                 surrealmodels.RecordID `json:"id"`
	Name               string                 `json:"name"`
	Brand              *string                `json:"brand,omitempty"`
	ServingDescription *string                `json:"serving_description,omitempty"`
	Category           *string                `json:"category,omitempty"`
	Source             *string                `json:"source,omitempty"`

	Calories *float64 `json:"calories,omitempty"`
	Protein  *float64 `json:"protein,omitempty"`
	Carbs    *float64 `json:"carbs,omitempty"`
	Fat      *float64 `json:"fat,omitempty"`
	Fiber    *float64 `json:"fiber,omitempty"`
	Sugar    *float64 `json:"sugar,omitempty"`
	Sodium   *float64 `json:"sodium,omitempty"`

	QualityScore     *int       `json:"quality_score,omitempty"`
	EnrichmentStatus *string    `json:"enrichment_status,omitempty"`
	TimesLogged      int        `json:"times_logged,omitempty"`
	LastLoggedAt     *time.Time `json:"last_logged_at,omitempty"`
}

// Nutrients collects the record's nutrition fields.
func (f *FoodRecord) Nutrients() Nutrients {
	return Nutrients{
		Calories: f.Calories,
		Protein:  f.Protein,
		Carbs:    f.Carbs,
		Fat:      f.Fat,
		Fiber:    f.Fiber,
		Sugar:    f.Sugar,
		Sodium:   f.Sodium,
	}
}

// Verified reports whether the record's quality score meets the threshold.
func (f *FoodRecord) Verified(threshold int) bool {
	return f.QualityScore != nil && *f.QualityScore >= threshold
}

// FoodInput is the write shape used by seeding and catalog updates.
type FoodInput struct {
	ID                 string
	Name               string
	Brand              *string
	ServingDescription *string
	Category           *string
	Source             *string
	Nutrients          Nutrients
	QualityScore       *int
	EnrichmentStatus   *string
}
