// Package analyze runs the full statement analysis: text extraction,
// transaction parsing, categorization, VAT decomposition and aggregation
// into a single AnalysisResult.
package analyze

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/cianhughes/bank-analyzer/internal/category"
	"github.com/cianhughes/bank-analyzer/internal/domain"
	"github.com/cianhughes/bank-analyzer/internal/extractor"
	"github.com/cianhughes/bank-analyzer/internal/parser"
	"github.com/cianhughes/bank-analyzer/internal/vat"
)

// ErrNoTransactions is returned when a statement yields no usable debit
// transactions. There are never partial results: the analysis either covers
// every parsed row or fails.
var ErrNoTransactions = errors.New("no transactions found in statement")

// ModelParser is the optional fallback parser consulted when the heuristic
// parser finds nothing in a document.
type ModelParser interface {
	ParseStatement(ctx context.Context, data []byte, kind extractor.Kind) ([]domain.RawTransaction, error)
}

// Analyzer wires the pipeline collaborators together. All dependencies are
// injected; the zero value is not usable.
type Analyzer struct {
	extractor  *extractor.Extractor
	calculator vat.Calculator
	model      ModelParser // nil disables the fallback
	log        zerolog.Logger
}

// NewAnalyzer builds an Analyzer. Pass a nil model to run on heuristics only.
func NewAnalyzer(ex *extractor.Extractor, calc vat.Calculator, model ModelParser, log zerolog.Logger) *Analyzer {
	return &Analyzer{extractor: ex, calculator: calc, model: model, log: log}
}

// Analyze runs the pipeline over one statement document.
//
// Rows the calculator rejects (unknown country code) are dropped
// individually; the remaining rows still produce a result. If extraction
// succeeds but nothing survives parsing and enrichment, the error is
// ErrNoTransactions.
func (a *Analyzer) Analyze(ctx context.Context, data []byte, kind extractor.Kind, countryCode string) (*domain.AnalysisResult, error) {
	text, err := a.extractor.Extract(data, kind)
	if err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}

	raw, report := parser.Parse(text)
	a.log.Info().
		Int("lines", report.Lines).
		Int("parsed", report.Parsed).
		Interface("skipped", report.Skipped).
		Msg("statement parsed")

	if len(raw) == 0 && a.model != nil {
		a.log.Info().Msg("heuristic parse found nothing, trying model parser")
		raw, err = a.model.ParseStatement(ctx, data, kind)
		if err != nil {
			return nil, fmt.Errorf("analyze: model fallback: %w", err)
		}
	}
	if len(raw) == 0 {
		return nil, ErrNoTransactions
	}

	enriched := make([]domain.EnrichedTransaction, 0, len(raw))
	for _, tx := range raw {
		vatAmount, netAmount, err := a.calculator.ExtractVAT(tx.GrossAmount, countryCode)
		if err != nil {
			a.log.Warn().Err(err).
				Str("description", tx.Description).
				Msg("dropping transaction, VAT decomposition failed")
			continue
		}
		enriched = append(enriched, domain.EnrichedTransaction{
			Date:        tx.Date,
			Month:       tx.Month,
			Description: tx.Description,
			GrossAmount: tx.GrossAmount,
			Category:    category.Categorize(tx.Description),
			NetAmount:   netAmount,
			VATAmount:   vatAmount,
			CountryCode: countryCode,
		})
	}
	if len(enriched) == 0 {
		return nil, ErrNoTransactions
	}

	monthly, categories := Aggregate(enriched)
	return &domain.AnalysisResult{
		CountryCode:      countryCode,
		TransactionCount: len(enriched),
		Transactions:     enriched,
		MonthlySummary:   monthly,
		CategorySummary:  categories,
	}, nil
}
