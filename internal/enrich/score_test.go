package enrich

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fitstack/nutridb/internal/models"
)

func f(v float64) *float64 { return &v }

func TestQualityScore(t *testing.T) {
	full := models.Nutrients{
		Calories: f(100), Protein: f(10), Carbs: f(20), Fat: f(5),
		Fiber: f(3), Sugar: f(8), Sodium: f(200),
	}
	coreOnly := models.Nutrients{
		Calories: f(100), Protein: f(10), Carbs: f(20), Fat: f(5),
	}

	tests := []struct {
		name       string
		nutrients  models.Nutrients
		confidence float64
		want       int
	}{
		{"complete trusted", full, 1.0, 100},
		{"complete branded", full, 0.8, 80},
		{"complete survey", full, 0.6, 60},
		{"core macros only", coreOnly, 1.0, 80},
		{"calories only", models.Nutrients{Calories: f(100)}, 1.0, 20},
		{"empty", models.Nutrients{}, 1.0, 0},
		{"confidence clamped high", full, 1.5, 100},
		{"confidence clamped low", coreOnly, -0.5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, QualityScore(tt.nutrients, tt.confidence))
		})
	}
}

func TestQualityScoreRange(t *testing.T) {
	// Partial extras land between the fixed points but always in range
	n := models.Nutrients{Calories: f(1), Protein: f(1), Fiber: f(1)}
	score := QualityScore(n, 0.9)
	assert.GreaterOrEqual(t, score, 0)
	assert.LessOrEqual(t, score, 100)
}

func TestMergePrefersExisting(t *testing.T) {
	existing := models.Nutrients{Calories: f(150), Fat: f(2)}
	fetched := models.Nutrients{Calories: f(165), Protein: f(31), Fat: f(3.6)}

	merged := Merge(existing, fetched)

	assert.Equal(t, 150.0, *merged.Calories, "existing calories win")
	assert.Equal(t, 2.0, *merged.Fat, "existing fat wins")
	assert.Equal(t, 31.0, *merged.Protein, "gap filled from source")
	assert.Nil(t, merged.Carbs)
}

func TestMergeEmptyExisting(t *testing.T) {
	fetched := models.Nutrients{Calories: f(100), Sodium: f(50)}
	merged := Merge(models.Nutrients{}, fetched)

	assert.Equal(t, 100.0, *merged.Calories)
	assert.Equal(t, 50.0, *merged.Sodium)
}
