package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/fitstack/nutridb/internal/models"
)

var seedEnqueue bool

var seedCmd = &cobra.Command{
	Use:   "seed <file.yaml>",
	Short: "Load foods into the catalog from a YAML file",
	Long: `Load foods from a YAML file. Existing foods with the same ID are
replaced. Serving sizes are normalized into a compact serving
description ("100g", "1cup").

File format:
  foods:
    - name: Chicken Breast
      brand: ""
      serving_size: 100
      serving_unit: g
      calories: 165
      protein: 31
      fat: 3.6
      category: protein

Examples:
  nutridb seed foods.yaml
  nutridb seed foods.yaml --enqueue`,
	Args: cobra.ExactArgs(1),
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().BoolVar(&seedEnqueue, "enqueue", false, "queue seeded foods for enrichment")
}

// seedFile is the YAML shape of a seed file.
type seedFile struct {
	Foods []seedFood `yaml:"foods"`
}

type seedFood struct {
	Name        string   `yaml:"name"`
	Brand       string   `yaml:"brand"`
	ServingSize float64  `yaml:"serving_size"`
	ServingUnit string   `yaml:"serving_unit"`
	Category    string   `yaml:"category"`
	Calories    *float64 `yaml:"calories"`
	Protein     *float64 `yaml:"protein"`
	Carbs       *float64 `yaml:"carbs"`
	Fat         *float64 `yaml:"fat"`
	Fiber       *float64 `yaml:"fiber"`
	Sugar       *float64 `yaml:"sugar"`
	Sodium      *float64 `yaml:"sodium"`
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}

	var file seedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse seed file: %w", err)
	}

	queue, aggregator, _ := buildPipeline()

	seeded := 0
	for _, f := range file.Foods {
		if f.Name == "" {
			fmt.Fprintf(os.Stderr, "Warning: skipping food without a name\n")
			continue
		}

		input := seedInput(f)
		if _, err := dbClient.UpsertFood(ctx, input); err != nil {
			return fmt.Errorf("seed %q: %w", f.Name, err)
		}
		seeded++

		if seedEnqueue {
			if err := queue.Enqueue(ctx, input.ID); err != nil {
				return fmt.Errorf("enqueue %q: %w", f.Name, err)
			}
		}

		if verbose {
			fmt.Printf("- %s (%s)\n", f.Name, input.ID)
		}
	}

	if seeded > 0 {
		if _, err := aggregator.Recompute(ctx); err != nil {
			return fmt.Errorf("refresh status: %w", err)
		}
	}

	fmt.Printf("Seeded %d food(s).\n", seeded)
	if seedEnqueue {
		fmt.Printf("Queued %d food(s) for enrichment.\n", seeded)
	}
	return nil
}

// seedInput converts a YAML food into a catalog input, deriving the record
// ID from the brand and name and normalizing the serving description.
func seedInput(f seedFood) models.FoodInput {
	slug := models.Slugify(strings.TrimSpace(f.Brand + " " + f.Name))

	input := models.FoodInput{
		ID:   slug,
		Name: f.Name,
		Nutrients: models.Nutrients{
			Calories: f.Calories,
			Protein:  f.Protein,
			Carbs:    f.Carbs,
			Fat:      f.Fat,
			Fiber:    f.Fiber,
			Sugar:    f.Sugar,
			Sodium:   f.Sodium,
		},
	}
	if f.Brand != "" {
		brand := f.Brand
		input.Brand = &brand
	}
	if f.Category != "" {
		category := f.Category
		input.Category = &category
	}
	if desc := servingDescription(f.ServingSize, f.ServingUnit); desc != "" {
		input.ServingDescription = &desc
	}
	source := "seed"
	input.Source = &source
	return input
}

// servingDescription renders a size and unit as a compact display string
// ("100g", "0.5cup"), dropping a trailing ".0" on whole sizes.
func servingDescription(size float64, unit string) string {
	if size <= 0 || unit == "" {
		return ""
	}
	if size == float64(int(size)) {
		return fmt.Sprintf("%d%s", int(size), unit)
	}
	return fmt.Sprintf("%.1f%s", size, unit)
}
