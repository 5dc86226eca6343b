package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	enrichBatch int
	enrichOnce  bool
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Run enrichment cycles until the queue drains",
	Long: `Run the enrichment pipeline: claim queued foods, fetch nutrition data
from the configured source, score data quality, and update the catalog.

By default cycles repeat until the queue is empty. Use --once to run a
single cycle.

Examples:
  nutridb enrich
  nutridb enrich --once
  nutridb enrich --batch 25`,
	RunE: runEnrich,
}

func init() {
	enrichCmd.Flags().IntVarP(&enrichBatch, "batch", "b", 0, "items per cycle (default from config)")
	enrichCmd.Flags().BoolVar(&enrichOnce, "once", false, "run a single cycle and exit")
}

func runEnrich(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if enrichBatch > 0 {
		cfg.BatchSize = enrichBatch
	}
	_, _, worker := buildPipeline()

	cycles := 0
	for {
		summary, err := worker.RunCycle(ctx)
		if err != nil {
			return fmt.Errorf("cycle %d: %w", cycles+1, err)
		}
		cycles++

		fmt.Printf("Cycle %d: processed %d, successful %d, failed %d, remaining %d\n",
			cycles, summary.Processed, summary.Successful, summary.Failed, summary.Remaining)
		if verbose {
			for _, e := range summary.Errors {
				fmt.Printf("  ! %s: %s\n", e.FoodName, e.Error)
			}
		}

		if enrichOnce || summary.Remaining == 0 || summary.Processed == 0 {
			break
		}
	}

	fmt.Printf("Done after %d cycle(s).\n", cycles)
	return nil
}
