// Package gcs stores uploaded statement documents in Google Cloud Storage.
package gcs

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
)

// Storage abstracts the statement object store for handlers and the worker.
type Storage interface {
	// Upload stores a document under the given object name and returns its
	// gs:// URI.
	Upload(ctx context.Context, objectName string, data []byte) (string, error)

	// Fetch downloads the document bytes behind a gs:// URI.
	Fetch(ctx context.Context, uri string) ([]byte, error)

	// Delete removes the object behind a gs:// URI.
	Delete(ctx context.Context, uri string) error

	// FilenameFromURI extracts the bare file name from a gs:// URI.
	FilenameFromURI(uri string) string
}

// GCS is the Cloud Storage implementation of Storage. The client is shared
// and injected; callers own its lifecycle.
type GCS struct {
	client *storage.Client
	bucket string
}

// New wraps an existing storage client for the given bucket. Application
// Default Credentials are assumed to be configured.
func New(client *storage.Client, bucket string) *GCS {
	return &GCS{client: client, bucket: bucket}
}

// Upload writes the document to the bucket. Uploads are bounded by a
// 2-minute timeout.
func (g *GCS) Upload(ctx context.Context, objectName string, data []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := g.client.Bucket(g.bucket).Object(objectName).NewWriter(ctx)
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("copy document to GCS writer: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize upload: %w", err)
	}
	return fmt.Sprintf("gs://%s/%s", g.bucket, objectName), nil
}

// Fetch downloads an object by URI. The URI may point at any bucket this
// client can read, not only the configured one.
func (g *GCS) Fetch(ctx context.Context, uri string) ([]byte, error) {
	bucket, object, err := splitURI(uri)
	if err != nil {
		return nil, err
	}

	rc, err := g.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading object %s/%s: %w", bucket, object, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("reading object bytes: %w", err)
	}
	return data, nil
}

// Delete removes an object by URI.
func (g *GCS) Delete(ctx context.Context, uri string) error {
	bucket, object, err := splitURI(uri)
	if err != nil {
		return err
	}

	if err := g.client.Bucket(bucket).Object(object).Delete(ctx); err != nil {
		return fmt.Errorf("deleting object %s/%s: %w", bucket, object, err)
	}
	return nil
}

// FilenameFromURI extracts the file name from a gs:// URI,
// e.g. "gs://bucket/folder/file.pdf" becomes "file.pdf".
func (g *GCS) FilenameFromURI(uri string) string {
	trimmed := strings.TrimPrefix(uri, "gs://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) < 2 {
		return trimmed
	}
	return path.Base(parts[1])
}

func splitURI(uri string) (bucket, object string, err error) {
	if !strings.HasPrefix(uri, "gs://") {
		return "", "", fmt.Errorf("invalid GCS URI: %s", uri)
	}
	trimmed := strings.TrimPrefix(uri, "gs://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no object path): %s", uri)
	}
	return parts[0], parts[1], nil
}
