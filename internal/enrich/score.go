package enrich

import (
	"math"

	"github.com/fitstack/nutridb/internal/models"
)

// Core macros carry most of the score; the extras round it out. A food
// with all four core macros from a fully trusted source scores 80.
const (
	coreWeight  = 20.0
	extraWeight = 20.0 / 3.0
)

// QualityScore rates nutrient completeness on a 0-100 scale, scaled by the
// source's confidence. Calories, protein, carbs, and fat are the core
// fields; fiber, sugar, and sodium are extras.
func QualityScore(n models.Nutrients, confidence float64) int {
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	var completeness float64
	for _, field := range []*float64{n.Calories, n.Protein, n.Carbs, n.Fat} {
		if field != nil {
			completeness += coreWeight
		}
	}
	for _, field := range []*float64{n.Fiber, n.Sugar, n.Sodium} {
		if field != nil {
			completeness += extraWeight
		}
	}

	score := int(math.Round(completeness * confidence))
	if score > 100 {
		score = 100
	}
	return score
}

// Merge fills gaps in existing nutrients from the fetched payload without
// overwriting values already present. Locally entered data wins over
// source data.
func Merge(existing, fetched models.Nutrients) models.Nutrients {
	merged := existing
	if merged.Calories == nil {
		merged.Calories = fetched.Calories
	}
	if merged.Protein == nil {
		merged.Protein = fetched.Protein
	}
	if merged.Carbs == nil {
		merged.Carbs = fetched.Carbs
	}
	if merged.Fat == nil {
		merged.Fat = fetched.Fat
	}
	if merged.Fiber == nil {
		merged.Fiber = fetched.Fiber
	}
	if merged.Sugar == nil {
		merged.Sugar = fetched.Sugar
	}
	if merged.Sodium == nil {
		merged.Sodium = fetched.Sodium
	}
	return merged
}
