package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var foodsLimit int

var foodsCmd = &cobra.Command{
	Use:   "foods",
	Short: "List foods in the catalog",
	Long: `List foods with their quality scores and enrichment state.

Examples:
  nutridb foods
  nutridb foods --limit 200 -v`,
	RunE: runFoods,
}

func init() {
	foodsCmd.Flags().IntVarP(&foodsLimit, "limit", "n", 50, "max results")
}

func runFoods(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	foods, err := dbClient.ListFoods(ctx, foodsLimit)
	if err != nil {
		return fmt.Errorf("list foods: %w", err)
	}

	if len(foods) == 0 {
		fmt.Println("No foods found.")
		return nil
	}

	fmt.Printf("Foods (%d):\n\n", len(foods))
	for _, food := range foods {
		score := "unscored"
		if food.QualityScore != nil {
			score = fmt.Sprintf("quality=%d", *food.QualityScore)
		}
		state := ""
		if food.EnrichmentStatus != nil {
			state = fmt.Sprintf(" [%s]", *food.EnrichmentStatus)
		}
		fmt.Printf("- %s (%s)%s\n", food.Name, score, state)
		if verbose {
			if food.Brand != nil {
				fmt.Printf("  brand: %s\n", *food.Brand)
			}
			if food.ServingDescription != nil {
				fmt.Printf("  serving: %s\n", *food.ServingDescription)
			}
			if food.Calories != nil {
				fmt.Printf("  calories: %.1f\n", *food.Calories)
			}
		}
	}

	return nil
}
