package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// AppConfig holds all runtime configuration for the API server and worker.
// It is loaded once at startup and passed explicitly to the components that
// need it; there are no package-level singletons.
type AppConfig struct {
	Port string

	// Object storage for uploaded statements.
	StatementBucket string

	// BigQuery location of the saved-analyses table.
	BigQueryProject string
	BigQueryDataset string
	AnalysesTable   string

	// Country code applied when a request does not specify one.
	DefaultCountryCode string

	// Job queue sizing.
	QueueBuffer int
	WorkerCount int

	// When true, the worker falls back to the model-assisted parser for
	// statements the heuristic parser cannot read.
	ModelFallback bool

	MaxUploadSizeBytes int64
}

// Load reads configuration from a .env file (if present) and the process
// environment, applying defaults for anything unset.
func Load() *AppConfig {
	// A missing .env is fine; OS environment still applies.
	_ = godotenv.Load()

	return &AppConfig{
		Port:               getEnv("PORT", "8080"),
		StatementBucket:    getEnv("STATEMENT_BUCKET", ""),
		BigQueryProject:    getEnv("BIGQUERY_PROJECT", ""),
		BigQueryDataset:    getEnv("BIGQUERY_DATASET", "bank_analyzer"),
		AnalysesTable:      getEnv("ANALYSES_TABLE", "user_analyses"),
		DefaultCountryCode: getEnv("DEFAULT_COUNTRY_CODE", "IE"),
		QueueBuffer:        getEnvAsInt("QUEUE_BUFFER", 100),
		WorkerCount:        getEnvAsInt("WORKER_COUNT", 5),
		ModelFallback:      getEnvAsBool("MODEL_FALLBACK", false),
		MaxUploadSizeBytes: int64(getEnvAsInt("MAX_UPLOAD_SIZE_BYTES", 10*1024*1024)),
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
