package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fitstack/nutridb/internal/models"
)

var queueLimit int

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Inspect the enrichment queue",
	Long: `List enrichment queue items with their state, attempt counts, and last
errors.

Subcommands:
  reclaim   Return items stuck in processing to the pending pool

Examples:
  nutridb queue
  nutridb queue --limit 100
  nutridb queue reclaim`,
	RunE: runQueue,
}

var queueReclaimCmd = &cobra.Command{
	Use:   "reclaim",
	Short: "Return stale processing items to pending",
	RunE:  runQueueReclaim,
}

func init() {
	queueCmd.Flags().IntVarP(&queueLimit, "limit", "n", 50, "max items")
	queueCmd.AddCommand(queueReclaimCmd)
}

func runQueue(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	items, err := dbClient.ListQueueItems(ctx, queueLimit)
	if err != nil {
		return fmt.Errorf("list queue: %w", err)
	}

	if len(items) == 0 {
		fmt.Println("Queue is empty.")
		return nil
	}

	fmt.Printf("Queue items (%d):\n\n", len(items))
	for _, item := range items {
		fmt.Printf("- %s [%s] attempts=%d\n", item.FoodID, item.Status, item.Attempts)
		if verbose {
			if item.Status == models.QueuePending && item.NextEligibleAt.After(item.EnqueuedAt) {
				fmt.Printf("  next eligible: %s\n", item.NextEligibleAt.Format("15:04:05"))
			}
			if item.LastError != nil {
				fmt.Printf("  last error: %s\n", *item.LastError)
			}
		}
	}

	return nil
}

func runQueueReclaim(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	queue, aggregator, _ := buildPipeline()
	n, err := queue.ReclaimStale(ctx)
	if err != nil {
		return fmt.Errorf("reclaim: %w", err)
	}
	if n > 0 {
		if _, err := aggregator.Recompute(ctx); err != nil {
			return fmt.Errorf("refresh status: %w", err)
		}
	}

	fmt.Printf("Reclaimed %d item(s).\n", n)
	return nil
}
