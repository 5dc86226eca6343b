// Package cli provides the command-line interface for nutridb.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fitstack/nutridb/internal/config"
	"github.com/fitstack/nutridb/internal/db"
	"github.com/fitstack/nutridb/internal/enrich"
	"github.com/fitstack/nutridb/internal/service"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose bool

	// Global config and db client
	cfg      config.Config
	dbClient *db.Client
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "nutridb",
	Short: "Nutrition data store with quality enrichment",
	Long: `Nutridb is the food catalog behind the fitness tracker: a SurrealDB-backed
store of foods and their nutrition data, plus an enrichment pipeline that
fills gaps from external sources and scores every record's data quality.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip DB connection for version and help commands
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		cfg = config.Load()

		ctx := context.Background()
		dbCfg := db.Config{
			URL:       cfg.SurrealDBURL,
			Namespace: cfg.SurrealDBNamespace,
			Database:  cfg.SurrealDBDatabase,
			Username:  cfg.SurrealDBUser,
			Password:  cfg.SurrealDBPass,
			AuthLevel: cfg.SurrealDBAuthLevel,
		}

		var err error
		dbClient, err = db.NewClient(ctx, dbCfg, nil)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}

		if err := dbClient.InitSchema(ctx); err != nil {
			return fmt.Errorf("initialize schema: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if dbClient != nil {
			if err := dbClient.Close(context.Background()); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
			}
		}
	},
}

// buildPipeline wires the queue, aggregator, and worker from config.
func buildPipeline() (*service.Queue, *service.Aggregator, *service.Worker) {
	queue := service.NewQueue(dbClient, service.QueueConfig{
		MaxAttempts:  cfg.MaxAttempts,
		BackoffBase:  cfg.BackoffBase,
		BackoffMax:   cfg.BackoffMax,
		LeaseTimeout: cfg.LeaseTimeout,
	})
	aggregator := service.NewAggregator(dbClient, nil, cfg.VerifiedThreshold)
	source := enrich.NewFDCSource(cfg.SourceURL, cfg.SourceAPIKey, cfg.FetchTimeout)
	worker := service.NewWorker(queue, dbClient, source, aggregator, nil, service.WorkerConfig{
		BatchSize:         cfg.BatchSize,
		Concurrency:       cfg.Concurrency,
		FetchTimeout:      cfg.FetchTimeout,
		VerifiedThreshold: cfg.VerifiedThreshold,
	})
	return queue, aggregator, worker
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(enrichCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(queueCmd)
	rootCmd.AddCommand(foodsCmd)
	rootCmd.AddCommand(seedCmd)
}
