// Package main provides the nutridb HTTP server and enrichment poller.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/fitstack/nutridb/internal/config"
	"github.com/fitstack/nutridb/internal/db"
	"github.com/fitstack/nutridb/internal/enrich"
	"github.com/fitstack/nutridb/internal/metrics"
	"github.com/fitstack/nutridb/internal/server"
	"github.com/fitstack/nutridb/internal/service"
)

const version = "0.1.0"

func main() {
	noPoller := flag.Bool("no-poller", false, "serve the API without the background enrichment poller")
	wipeDB := flag.Bool("wipe", false, "wipe all data from database on startup (testing only)")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	// Dual output: text to stderr, JSON to file
	logger, cleanup := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer cleanup()

	logger.Info("nutridb-server starting",
		"version", version,
		"port", cfg.ServerPort,
		"surrealdb_url", cfg.SurrealDBURL,
		"source_url", cfg.SourceURL,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	dbClient, err := db.NewClient(ctx, db.Config{
		URL:       cfg.SurrealDBURL,
		Namespace: cfg.SurrealDBNamespace,
		Database:  cfg.SurrealDBDatabase,
		Username:  cfg.SurrealDBUser,
		Password:  cfg.SurrealDBPass,
		AuthLevel: cfg.SurrealDBAuthLevel,
	}, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		logger.Info("closing database connection")
		_ = dbClient.Close(context.Background())
	}()

	if err := dbClient.InitSchema(ctx); err != nil {
		logger.Error("failed to initialize database schema", "error", err)
		os.Exit(1)
	}

	if *wipeDB || os.Getenv("NUTRIDB_WIPE_DB") == "true" {
		if err := dbClient.WipeData(ctx); err != nil {
			logger.Error("failed to wipe database", "error", err)
			os.Exit(1)
		}
		logger.Warn("database wiped")
	}

	// Wire the pipeline
	collector := metrics.NewCollector()
	dbClient.SetCollector(collector)
	queue := service.NewQueue(dbClient, service.QueueConfig{
		MaxAttempts:  cfg.MaxAttempts,
		BackoffBase:  cfg.BackoffBase,
		BackoffMax:   cfg.BackoffMax,
		LeaseTimeout: cfg.LeaseTimeout,
	})
	aggregator := service.NewAggregator(dbClient, collector, cfg.VerifiedThreshold)
	source := enrich.NewFDCSource(cfg.SourceURL, cfg.SourceAPIKey, cfg.FetchTimeout)
	worker := service.NewWorker(queue, dbClient, source, aggregator, collector, service.WorkerConfig{
		BatchSize:         cfg.BatchSize,
		Concurrency:       cfg.Concurrency,
		FetchTimeout:      cfg.FetchTimeout,
		VerifiedThreshold: cfg.VerifiedThreshold,
	})

	var wg sync.WaitGroup

	if !*noPoller {
		poller := service.NewPoller(worker, service.PollerConfig{Interval: cfg.PollInterval})
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := poller.Run(ctx); err != nil {
				logger.Error("poller error", "error", err)
			}
		}()
	}

	srv := server.New(cfg.ServerPort, worker, aggregator, collector, logger)
	go func() {
		if err := srv.Run(); err != nil {
			logger.Error("server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	wg.Wait()
	logger.Info("shutdown complete")
}
