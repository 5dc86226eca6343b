package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fitstack/nutridb/internal/models"
)

var statusRecompute bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the pipeline status snapshot",
	Long: `Show catalog and queue health: food counts, verification progress,
average data quality, and queue depth.

The snapshot is refreshed after every enrichment cycle; pass --recompute
to rebuild it from the live data first.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusRecompute, "recompute", false, "rebuild the snapshot before showing it")
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	_, aggregator, _ := buildPipeline()

	var status *models.PipelineStatus
	var err error
	if statusRecompute {
		status, err = aggregator.Recompute(ctx)
	} else {
		status, err = aggregator.Current(ctx)
	}
	if err != nil {
		return fmt.Errorf("status: %w", err)
	}

	fmt.Println("Pipeline status:")
	fmt.Printf("  Total foods:      %d\n", status.TotalFoods)
	fmt.Printf("  Verified:         %d\n", status.TotalVerified)
	fmt.Printf("  Pending:          %d\n", status.TotalPending)
	fmt.Printf("  Below threshold:  %d\n", status.FoodsBelowThreshold)
	fmt.Printf("  Average quality:  %.1f\n", status.AverageQualityScore)
	fmt.Printf("  Queue size:       %d\n", status.QueueSize)
	if !status.LastUpdated.IsZero() {
		fmt.Printf("  Last updated:     %s\n", status.LastUpdated.Format("2006-01-02 15:04:05 MST"))
	}

	return nil
}
