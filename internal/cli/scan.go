package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Enqueue foods with missing or low-quality nutrition data",
	Long: `Scan the catalog for foods below the verified quality threshold and add
them to the enrichment queue. Foods already queued or permanently failed
are skipped.

Examples:
  nutridb scan
  nutridb scan && nutridb enrich`,
	RunE: runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	_, _, worker := buildPipeline()
	n, err := worker.ScanAndEnqueue(ctx)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}

	fmt.Printf("Enqueued %d food(s) for enrichment.\n", n)
	return nil
}
