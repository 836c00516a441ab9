// Package store persists analysis results to BigQuery with fingerprint-based
// duplicate suppression.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"

	"github.com/cianhughes/bank-analyzer/internal/analyze"
	"github.com/cianhughes/bank-analyzer/internal/domain"
)

// AnalysisRecord is one saved analysis row.
type AnalysisRecord struct {
	UserEmail        string    `bigquery:"user_email"`
	AnalysisID       string    `bigquery:"analysis_id"`
	SavedAt          time.Time `bigquery:"saved_at"`
	FileName         string    `bigquery:"file_name"`
	Fingerprint      string    `bigquery:"fingerprint"`
	CountryCode      string    `bigquery:"country_code"`
	TotalGross       float64   `bigquery:"total_gross"`
	TotalNet         float64   `bigquery:"total_net"`
	TotalVAT         float64   `bigquery:"total_vat"`
	TransactionCount int       `bigquery:"transaction_count"`

	// Summaries are stored as JSON documents rather than nested columns.
	MonthlySummary  string `bigquery:"monthly_summary"`
	CategorySummary string `bigquery:"category_summary"`
}

// MarshalJSON inlines the stored summary documents instead of re-encoding
// them as strings.
func (r *AnalysisRecord) MarshalJSON() ([]byte, error) {
	type alias struct {
		UserEmail        string          `json:"user_email"`
		AnalysisID       string          `json:"analysis_id"`
		SavedAt          time.Time       `json:"saved_at"`
		FileName         string          `json:"file_name"`
		CountryCode      string          `json:"country_code"`
		TotalGross       float64         `json:"total_gross"`
		TotalNet         float64         `json:"total_net"`
		TotalVAT         float64         `json:"total_vat"`
		TransactionCount int             `json:"transaction_count"`
		MonthlySummary   json.RawMessage `json:"monthly_summary,omitempty"`
		CategorySummary  json.RawMessage `json:"category_summary,omitempty"`
	}
	return json.Marshal(alias{
		UserEmail:        r.UserEmail,
		AnalysisID:       r.AnalysisID,
		SavedAt:          r.SavedAt,
		FileName:         r.FileName,
		CountryCode:      r.CountryCode,
		TotalGross:       r.TotalGross,
		TotalNet:         r.TotalNet,
		TotalVAT:         r.TotalVAT,
		TransactionCount: r.TransactionCount,
		MonthlySummary:   json.RawMessage(r.MonthlySummary),
		CategorySummary:  json.RawMessage(r.CategorySummary),
	})
}

// SaveResult reports the outcome of a save: either a fresh row or the
// previously saved analysis the fingerprint matched.
type SaveResult struct {
	AnalysisID  string
	SavedAt     time.Time
	IsDuplicate bool
}

// AnalysisStore abstracts analysis persistence for handlers and the worker.
type AnalysisStore interface {
	// Save persists an analysis unless an identical one (by fingerprint)
	// already exists for the user, in which case the existing record is
	// reported instead.
	Save(ctx context.Context, userEmail, fileName string, res *domain.AnalysisResult) (*SaveResult, error)

	// List returns the user's saved analyses, newest first.
	List(ctx context.Context, userEmail string) ([]*AnalysisRecord, error)

	// Delete removes one saved analysis.
	Delete(ctx context.Context, userEmail, analysisID string) error
}

// BigQueryStore is the BigQuery implementation of AnalysisStore. It holds a
// shared client to avoid creating a new connection for each operation.
type BigQueryStore struct {
	client  *bigquery.Client
	project string
	dataset string
	table   string
}

// NewBigQueryStore wraps an existing BigQuery client. Callers own the
// client's lifecycle.
func NewBigQueryStore(client *bigquery.Client, project, dataset, table string) *BigQueryStore {
	return &BigQueryStore{client: client, project: project, dataset: dataset, table: table}
}

// newRecord assembles the row for a fresh save: totals and fingerprint from
// the result, summaries rendered to JSON.
func newRecord(userEmail, fileName string, res *domain.AnalysisResult) (*AnalysisRecord, error) {
	// Stored file name and fingerprint prefix must agree, so truncate once
	// up front.
	if r := []rune(fileName); len(r) > domain.MaxDescriptionLen {
		fileName = string(r[:domain.MaxDescriptionLen])
	}

	gross, net, vatTotal := analyze.Totals(res)

	monthlyJSON, err := json.Marshal(res.MonthlySummary)
	if err != nil {
		return nil, fmt.Errorf("marshal monthly summary: %w", err)
	}
	categoryJSON, err := json.Marshal(res.CategorySummary)
	if err != nil {
		return nil, fmt.Errorf("marshal category summary: %w", err)
	}

	return &AnalysisRecord{
		UserEmail:        userEmail,
		AnalysisID:       uuid.New().String(),
		SavedAt:          time.Now().UTC(),
		FileName:         fileName,
		Fingerprint:      analyze.ResultFingerprint(fileName, res),
		CountryCode:      res.CountryCode,
		TotalGross:       gross,
		TotalNet:         net,
		TotalVAT:         vatTotal,
		TransactionCount: res.TransactionCount,
		MonthlySummary:   string(monthlyJSON),
		CategorySummary:  string(categoryJSON),
	}, nil
}

// Save checks for an existing row with the same (user_email, fingerprint)
// and inserts only when none exists. The check and insert are not atomic;
// concurrent saves of the same statement may both land, which is accepted.
func (s *BigQueryStore) Save(ctx context.Context, userEmail, fileName string, res *domain.AnalysisResult) (*SaveResult, error) {
	record, err := newRecord(userEmail, fileName, res)
	if err != nil {
		return nil, fmt.Errorf("Save: %w", err)
	}

	existing, err := s.findByFingerprint(ctx, userEmail, record.Fingerprint)
	if err != nil {
		return nil, fmt.Errorf("Save: duplicate check: %w", err)
	}
	if existing != nil {
		return &SaveResult{
			AnalysisID:  existing.AnalysisID,
			SavedAt:     existing.SavedAt,
			IsDuplicate: true,
		}, nil
	}

	inserter := s.client.Dataset(s.dataset).Table(s.table).Inserter()
	if err := inserter.Put(ctx, record); err != nil {
		return nil, fmt.Errorf("Save: inserting row: %w", err)
	}

	return &SaveResult{AnalysisID: record.AnalysisID, SavedAt: record.SavedAt}, nil
}

func (s *BigQueryStore) findByFingerprint(ctx context.Context, userEmail, fingerprint string) (*AnalysisRecord, error) {
	query := fmt.Sprintf(`
		SELECT
			user_email,
			analysis_id,
			saved_at,
			file_name,
			fingerprint,
			country_code,
			total_gross,
			total_net,
			total_vat,
			transaction_count,
			monthly_summary,
			category_summary
		FROM `+"`%s.%s.%s`"+`
		WHERE user_email = @user_email AND fingerprint = @fingerprint
		LIMIT 1
	`, s.project, s.dataset, s.table)

	q := s.client.Query(query)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_email", Value: userEmail},
		{Name: "fingerprint", Value: fingerprint},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading query: %w", err)
	}

	var row AnalysisRecord
	err = it.Next(&row)
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("iterating: %w", err)
	}
	return &row, nil
}

// List returns the user's saved analyses, newest first.
func (s *BigQueryStore) List(ctx context.Context, userEmail string) ([]*AnalysisRecord, error) {
	query := fmt.Sprintf(`
		SELECT
			user_email,
			analysis_id,
			saved_at,
			file_name,
			fingerprint,
			country_code,
			total_gross,
			total_net,
			total_vat,
			transaction_count,
			monthly_summary,
			category_summary
		FROM `+"`%s.%s.%s`"+`
		WHERE user_email = @user_email
		ORDER BY saved_at DESC
	`, s.project, s.dataset, s.table)

	q := s.client.Query(query)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_email", Value: userEmail},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("List: reading query: %w", err)
	}

	var records []*AnalysisRecord
	for {
		var row AnalysisRecord
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("List: iterating: %w", err)
		}
		records = append(records, &row)
	}
	return records, nil
}

// Delete removes one saved analysis by owner and ID.
func (s *BigQueryStore) Delete(ctx context.Context, userEmail, analysisID string) error {
	query := fmt.Sprintf(
		"DELETE FROM `%s.%s.%s` WHERE user_email = @user_email AND analysis_id = @analysis_id",
		s.project, s.dataset, s.table,
	)

	q := s.client.Query(query)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_email", Value: userEmail},
		{Name: "analysis_id", Value: analysisID},
	}

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("Delete: running query: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("Delete: waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("Delete: job failed: %w", err)
	}
	return nil
}

var _ AnalysisStore = (*BigQueryStore)(nil)
