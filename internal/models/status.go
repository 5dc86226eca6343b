package models

import "time"

// PipelineStatus is the single aggregate snapshot of enrichment pipeline
// health. It is always computed in one pass over the catalog and queue and
// replaced wholesale; readers never observe a partial merge.
type PipelineStatus struct {
	TotalFoods          int       `json:"total_foods"`
	TotalVerified       int       `json:"total_verified"`
	TotalPending        int       `json:"total_pending"`
	FoodsBelowThreshold int       `json:"foods_below_threshold"`
	AverageQualityScore float64   `json:"average_quality_score"`
	QueueSize           int       `json:"queue_size"`
	LastUpdated         time.Time `json:"last_updated"`
}
