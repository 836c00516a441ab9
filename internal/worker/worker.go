// Package worker processes queued statement analysis jobs: fetch the
// document from object storage, run the analysis, persist the result.
package worker

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/cianhughes/bank-analyzer/internal/analyze"
	"github.com/cianhughes/bank-analyzer/internal/extractor"
	"github.com/cianhughes/bank-analyzer/internal/gcs"
	"github.com/cianhughes/bank-analyzer/internal/jobs"
	"github.com/cianhughes/bank-analyzer/internal/store"
)

// Processor is the job handler behind the queue consumer.
type Processor struct {
	storage  gcs.Storage
	analyzer *analyze.Analyzer
	analyses store.AnalysisStore
	log      zerolog.Logger
}

// NewProcessor wires the processing dependencies.
func NewProcessor(storage gcs.Storage, analyzer *analyze.Analyzer, analyses store.AnalysisStore, log zerolog.Logger) *Processor {
	return &Processor{storage: storage, analyzer: analyzer, analyses: analyses, log: log}
}

// Handle implements jobs.JobHandler. A returned error means the queue may
// retry the job; unreadable statements keep failing until the retry budget
// runs out, then land in the failed state.
func (p *Processor) Handle(ctx context.Context, job jobs.Job) error {
	aj, ok := job.(*jobs.AnalyzeStatementJob)
	if !ok {
		return fmt.Errorf("unexpected job type: %T", job)
	}

	p.log.Info().
		Str("job_id", aj.JobID).
		Str("object_uri", aj.ObjectURI).
		Str("user_email", aj.UserEmail).
		Msg("Processing analysis job")

	data, err := p.storage.Fetch(ctx, aj.ObjectURI)
	if err != nil {
		return fmt.Errorf("fetching statement: %w", err)
	}

	res, err := p.analyzer.Analyze(ctx, data, extractor.DetectKind(data), aj.CountryCode)
	if err != nil {
		return fmt.Errorf("analyzing statement: %w", err)
	}

	fileName := aj.FileName
	if fileName == "" {
		fileName = p.storage.FilenameFromURI(aj.ObjectURI)
	}

	saved, err := p.analyses.Save(ctx, aj.UserEmail, fileName, res)
	if err != nil {
		return fmt.Errorf("saving analysis: %w", err)
	}

	p.log.Info().
		Str("job_id", aj.JobID).
		Str("analysis_id", saved.AnalysisID).
		Bool("is_duplicate", saved.IsDuplicate).
		Int("transactions", res.TransactionCount).
		Msg("Analysis job completed")

	return nil
}
