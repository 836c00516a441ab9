package store

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/cianhughes/bank-analyzer/internal/domain"
)

func sampleResult() *domain.AnalysisResult {
	return &domain.AnalysisResult{
		CountryCode:      "IE",
		TransactionCount: 2,
		MonthlySummary: map[string]*domain.MonthlySummary{
			"2025-11": {NetTotal: 43.67, VATTotal: 10.04, GrossTotal: 53.71,
				ByCategory: map[string]float64{"Food & Groceries": 53.71}},
		},
		CategorySummary: map[string]*domain.CategorySummary{
			"Food & Groceries": {Net: 43.67, VAT: 10.04, Gross: 53.71, Count: 2,
				ByMonth: map[string]domain.MonthCell{
					"2025-11": {Net: 43.67, VAT: 10.04, Gross: 53.71, Count: 2},
				}},
		},
	}
}

func TestNewRecord(t *testing.T) {
	rec, err := newRecord("user@example.com", "nov.pdf", sampleResult())
	if err != nil {
		t.Fatalf("newRecord: %v", err)
	}

	if rec.UserEmail != "user@example.com" || rec.FileName != "nov.pdf" {
		t.Errorf("identity fields: %+v", rec)
	}
	if rec.AnalysisID == "" {
		t.Error("missing analysis ID")
	}
	if rec.Fingerprint != "nov.pdf_53.71_2_2025-11" {
		t.Errorf("fingerprint = %q", rec.Fingerprint)
	}
	if rec.TotalGross != 53.71 || rec.TotalNet != 43.67 || rec.TotalVAT != 10.04 {
		t.Errorf("totals: %+v", rec)
	}
	if rec.TransactionCount != 2 || rec.CountryCode != "IE" {
		t.Errorf("count/country: %+v", rec)
	}

	var monthly map[string]*domain.MonthlySummary
	if err := json.Unmarshal([]byte(rec.MonthlySummary), &monthly); err != nil {
		t.Fatalf("stored monthly summary is not valid JSON: %v", err)
	}
	if monthly["2025-11"].GrossTotal != 53.71 {
		t.Errorf("stored summary: %+v", monthly["2025-11"])
	}
}

func TestNewRecordTruncatesFileName(t *testing.T) {
	longName := strings.Repeat("a", 150) + ".pdf"
	rec, err := newRecord("u@example.com", longName, sampleResult())
	if err != nil {
		t.Fatalf("newRecord: %v", err)
	}

	if got := len([]rune(rec.FileName)); got != domain.MaxDescriptionLen {
		t.Errorf("stored file name is %d runes, want %d", got, domain.MaxDescriptionLen)
	}
	// The stored name and the fingerprint prefix must be the same string.
	if !strings.HasPrefix(rec.Fingerprint, rec.FileName+"_") {
		t.Errorf("fingerprint %q does not start with stored file name %q", rec.Fingerprint, rec.FileName)
	}
}

func TestNewRecordFingerprintStable(t *testing.T) {
	a, err := newRecord("u@example.com", "nov.pdf", sampleResult())
	if err != nil {
		t.Fatalf("newRecord: %v", err)
	}
	b, err := newRecord("u@example.com", "nov.pdf", sampleResult())
	if err != nil {
		t.Fatalf("newRecord: %v", err)
	}
	if a.Fingerprint != b.Fingerprint {
		t.Errorf("fingerprints differ: %q vs %q", a.Fingerprint, b.Fingerprint)
	}
	if a.AnalysisID == b.AnalysisID {
		t.Error("analysis IDs should be unique per record")
	}
}

func TestAnalysisRecordMarshalJSON(t *testing.T) {
	rec, err := newRecord("u@example.com", "nov.pdf", sampleResult())
	if err != nil {
		t.Fatalf("newRecord: %v", err)
	}

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(data)

	// Summaries must appear as objects, not double-encoded strings.
	if !strings.Contains(s, `"monthly_summary":{`) {
		t.Errorf("monthly summary not inlined: %s", s)
	}
	if strings.Contains(s, "fingerprint") {
		t.Errorf("fingerprint leaked to the wire: %s", s)
	}
}
