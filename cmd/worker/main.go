package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/storage"

	"github.com/cianhughes/bank-analyzer/internal/analyze"
	"github.com/cianhughes/bank-analyzer/internal/config"
	"github.com/cianhughes/bank-analyzer/internal/extractor"
	"github.com/cianhughes/bank-analyzer/internal/gcs"
	"github.com/cianhughes/bank-analyzer/internal/jobs/inmemory"
	"github.com/cianhughes/bank-analyzer/internal/logger"
	"github.com/cianhughes/bank-analyzer/internal/store"
	"github.com/cianhughes/bank-analyzer/internal/vat"
	"github.com/cianhughes/bank-analyzer/internal/worker"
)

// Standalone queue consumer. With the in-memory queue this only receives
// jobs published inside the same process; it exists so the consumer side can
// move to Cloud Tasks or Pub/Sub without touching cmd/api.
func main() {
	log := logger.New()
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create storage client")
	}
	defer storageClient.Close()

	bqClient, err := bigquery.NewClient(ctx, cfg.BigQueryProject)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery client")
	}
	defer bqClient.Close()

	objectStore := gcs.New(storageClient, cfg.StatementBucket)
	analysisStore := store.NewBigQueryStore(bqClient, cfg.BigQueryProject, cfg.BigQueryDataset, cfg.AnalysesTable)

	var modelParser analyze.ModelParser
	if cfg.ModelFallback {
		gemini, err := analyze.NewGeminiParser(ctx, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create model parser")
		}
		modelParser = gemini
	}

	analyzer := analyze.NewAnalyzer(extractor.New(log), vat.NewRateTable(), modelParser, log)
	processor := worker.NewProcessor(objectStore, analyzer, analysisStore, log)

	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(cfg.QueueBuffer, cfg.WorkerCount, jobStore)

	log.Info().Int("workers", cfg.WorkerCount).Msg("Starting worker service")

	if err := jobQueue.Start(ctx, processor.Handle); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job consumer")
	}

	log.Info().Msg("Worker service started, waiting for jobs...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down worker service...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during graceful shutdown")
	}

	log.Info().Msg("Worker service exited")
}
