// Package db provides SurrealDB query functions for the food catalog.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/surrealdb/surrealdb.go"

	"github.com/fitstack/nutridb/internal/models"
)

// UpsertFood creates or replaces a food record by ID. Used by seeding;
// nutrition fields already present are overwritten by the input.
func (c *Client) UpsertFood(ctx context.Context, input models.FoodInput) (*models.FoodRecord, error) {
	sql := `
		UPSERT type::record("food", $id) SET
			name = $name,
			brand = $brand,
			serving_description = $serving,
			category = $category,
			source = $source,
			calories = $calories,
			protein = $protein,
			carbs = $carbs,
			fat = $fat,
			fiber = $fiber,
			sugar = $sugar,
			sodium = $sodium,
			quality_score = $quality_score,
			enrichment_status = $enrichment_status
		RETURN AFTER
	`

	start := time.Now()
	results, err := surrealdb.Query[[]models.FoodRecord](ctx, c.db, sql, map[string]any{
		"id":                input.ID,
		"name":              input.Name,
		"brand":             input.Brand,
		"serving":           input.ServingDescription,
		"category":          input.Category,
		"source":            input.Source,
		"calories":          input.Nutrients.Calories,
		"protein":           input.Nutrients.Protein,
		"carbs":             input.Nutrients.Carbs,
		"fat":               input.Nutrients.Fat,
		"fiber":             input.Nutrients.Fiber,
		"sugar":             input.Nutrients.Sugar,
		"sodium":            input.Nutrients.Sodium,
		"quality_score":     input.QualityScore,
		"enrichment_status": input.EnrichmentStatus,
	})
	c.recordQuery(start, err)
	if err != nil {
		return nil, fmt.Errorf("upsert food: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("upsert food: no result returned")
	}
	return &(*results)[0].Result[0], nil
}

// GetFood retrieves a food record by ID. Returns ErrNotFound if absent.
func (c *Client) GetFood(ctx context.Context, id string) (*models.FoodRecord, error) {
	start := time.Now()
	results, err := surrealdb.Query[[]models.FoodRecord](ctx, c.db, `
		SELECT * FROM type::record("food", $id)
	`, map[string]any{"id": id})
	c.recordQuery(start, err)
	if err != nil {
		return nil, fmt.Errorf("get food: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("get food %s: %w", id, ErrNotFound)
	}
	return &(*results)[0].Result[0], nil
}

// FoodsNeedingEnrichment returns foods whose quality score is absent or below
// the threshold, excluding those already marked failed.
func (c *Client) FoodsNeedingEnrichment(ctx context.Context, threshold int) ([]models.FoodRecord, error) {
	start := time.Now()
	results, err := surrealdb.Query[[]models.FoodRecord](ctx, c.db, `
		SELECT * FROM food
		WHERE (quality_score == NONE OR quality_score < $threshold)
			AND (enrichment_status == NONE OR enrichment_status != 'failed')
		ORDER BY name ASC
	`, map[string]any{"threshold": threshold})
	c.recordQuery(start, err)
	if err != nil {
		return nil, fmt.Errorf("foods needing enrichment: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 {
		return []models.FoodRecord{}, nil
	}
	return (*results)[0].Result, nil
}

// ListFoods returns foods ordered by name, up to limit.
func (c *Client) ListFoods(ctx context.Context, limit int) ([]models.FoodRecord, error) {
	start := time.Now()
	results, err := surrealdb.Query[[]models.FoodRecord](ctx, c.db, `
		SELECT * FROM food ORDER BY name ASC LIMIT $limit
	`, map[string]any{"limit": limit})
	c.recordQuery(start, err)
	if err != nil {
		return nil, fmt.Errorf("list foods: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 {
		return []models.FoodRecord{}, nil
	}
	return (*results)[0].Result, nil
}

// ApplyEnrichment writes fetched nutrition fields, the computed quality score
// and the resulting enrichment status onto a food record in one statement.
// Fields the source did not provide are left untouched.
func (c *Client) ApplyEnrichment(ctx context.Context, foodID string, n models.Nutrients, score int, status string) error {
	sql := `
		UPDATE type::record("food", $id) SET
			calories = $calories ?? calories,
			protein = $protein ?? protein,
			carbs = $carbs ?? carbs,
			fat = $fat ?? fat,
			fiber = $fiber ?? fiber,
			sugar = $sugar ?? sugar,
			sodium = $sodium ?? sodium,
			quality_score = $score,
			enrichment_status = $status
	`

	start := time.Now()
	_, err := surrealdb.Query[any](ctx, c.db, sql, map[string]any{
		"id":       foodID,
		"calories": n.Calories,
		"protein":  n.Protein,
		"carbs":    n.Carbs,
		"fat":      n.Fat,
		"fiber":    n.Fiber,
		"sugar":    n.Sugar,
		"sodium":   n.Sodium,
		"score":    score,
		"status":   status,
	})
	c.recordQuery(start, err)
	if err != nil {
		return fmt.Errorf("apply enrichment: %w", wrapQueryError(err))
	}
	return nil
}

// MarkFoodFailed flags a food whose enrichment terminally failed.
func (c *Client) MarkFoodFailed(ctx context.Context, foodID string) error {
	start := time.Now()
	_, err := surrealdb.Query[any](ctx, c.db, `
		UPDATE type::record("food", $id) SET enrichment_status = 'failed'
	`, map[string]any{"id": foodID})
	c.recordQuery(start, err)
	if err != nil {
		return fmt.Errorf("mark food failed: %w", wrapQueryError(err))
	}
	return nil
}
