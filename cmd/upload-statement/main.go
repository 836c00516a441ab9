package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"cloud.google.com/go/storage"

	"github.com/cianhughes/bank-analyzer/internal/config"
	"github.com/cianhughes/bank-analyzer/internal/gcs"
	"github.com/cianhughes/bank-analyzer/internal/logger"
)

// Upload a local statement file to the configured GCS bucket.
func main() {
	log := logger.New()
	cfg := config.Load()

	var (
		bucketName string
		objectName string
		filePath   string
	)

	flag.StringVar(&bucketName, "bucket", cfg.StatementBucket, "GCS bucket name (defaults to STATEMENT_BUCKET)")
	flag.StringVar(&objectName, "object", "", "GCS object name (optional; defaults to file name)")
	flag.StringVar(&filePath, "file", "", "Path to local statement file (required)")
	flag.Parse()

	if bucketName == "" || filePath == "" {
		log.Fatal().Msg("Usage: upload-statement -bucket BUCKET_NAME -file /path/to/statement.pdf [-object OBJECT_NAME]")
	}

	if objectName == "" {
		objectName = filepath.Base(filePath)
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		log.Fatal().Err(err).Str("file", filePath).Msg("Failed to read statement")
	}

	ctx := context.Background()
	ctx = logger.WithContext(ctx, log)

	client, err := storage.NewClient(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create storage client")
	}
	defer client.Close()

	log.Info().
		Str("bucket", bucketName).
		Str("object", objectName).
		Str("file", filePath).
		Msg("Uploading statement")

	uri, err := gcs.New(client, bucketName).Upload(ctx, objectName, data)
	if err != nil {
		log.Fatal().Err(err).Msg("Upload failed")
	}

	fmt.Printf("Uploaded %s to %s\n", filePath, uri)
}
