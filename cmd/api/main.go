package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/storage"

	"github.com/cianhughes/bank-analyzer/internal/analyze"
	"github.com/cianhughes/bank-analyzer/internal/api/handlers"
	"github.com/cianhughes/bank-analyzer/internal/api/middleware"
	"github.com/cianhughes/bank-analyzer/internal/config"
	"github.com/cianhughes/bank-analyzer/internal/extractor"
	"github.com/cianhughes/bank-analyzer/internal/gcs"
	"github.com/cianhughes/bank-analyzer/internal/jobs/inmemory"
	"github.com/cianhughes/bank-analyzer/internal/logger"
	"github.com/cianhughes/bank-analyzer/internal/store"
	"github.com/cianhughes/bank-analyzer/internal/vat"
	"github.com/cianhughes/bank-analyzer/internal/worker"
)

func main() {
	log := logger.New()
	cfg := config.Load()

	if cfg.StatementBucket == "" {
		log.Warn().Msg("No statement bucket configured - uploads will fail")
	}

	ctx := context.Background()

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

	// Job infrastructure; in-memory, so analyses run inside this process.
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(cfg.QueueBuffer, cfg.WorkerCount, jobStore)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	go func() {
		log.Info().Int("workers", cfg.WorkerCount).Msg("Starting job workers")
		if err := jobQueue.Start(workerCtx, processor.Handle); err != nil {
			log.Error().Err(err).Msg("Job workers stopped with error")
		}
	}()

	statementsHandler := handlers.NewStatementsHandler(objectStore, jobQueue, cfg.DefaultCountryCode, cfg.MaxUploadSizeBytes, log)
	analysesHandler := handlers.NewAnalysesHandler(analysisStore, log)
	jobsHandler := handlers.NewJobsHandler(jobStore, log)

	mux := http.NewServeMux()

	mux.HandleFunc("/api/statements/upload", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			statementsHandler.Upload(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/statements/analyze", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			statementsHandler.EnqueueAnalysis(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/statements/delete", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			statementsHandler.DeleteStatement(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/analyses", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			analysesHandler.Save(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/analyses/list", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			analysesHandler.List(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/analyses/delete", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			analysesHandler.Delete(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobsHandler.ListJobs(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
			if jobID == "" {
				middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
				return
			}
			jobsHandler.GetJob(w, r, jobID)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/health", handlers.Health)

	// RequestID must wrap Logger so the access log sees the ID on the
	// request context.
	handler := middleware.Recovery(log)(
		middleware.RequestID(
			middleware.Logger(log)(
				middleware.CORS(mux),
			),
		),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	cancelWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	// Stop the queue and wait for in-flight analyses.
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}

	log.Info().Msg("Server exited")
}
