package domain

// MonthlySummary holds the running totals for one YYYY-MM bucket.
// Values are accumulated with fixed-point arithmetic during aggregation and
// rounded to 2 decimals exactly once, at finalization.
type MonthlySummary struct {
	NetTotal   float64            `json:"net_total"`
	VATTotal   float64            `json:"vat_total"`
	GrossTotal float64            `json:"gross_total"`
	ByCategory map[string]float64 `json:"by_category"`
}

// MonthCell is the per-month slice of a category bucket.
type MonthCell struct {
	Net   float64 `json:"net"`
	VAT   float64 `json:"vat"`
	Gross float64 `json:"gross"`
	Count int     `json:"count"`
}

// CategorySummary holds the totals for one spending category, with a
// month-by-month breakdown.
type CategorySummary struct {
	Net     float64              `json:"net"`
	VAT     float64              `json:"vat"`
	Gross   float64              `json:"gross"`
	Count   int                  `json:"count"`
	ByMonth map[string]MonthCell `json:"by_month"`
}

// AnalysisResult is the complete output of one statement analysis.
// It is produced once per request and passed whole to persistence; no partial
// aggregation is ever exposed.
type AnalysisResult struct {
	CountryCode      string                      `json:"country_code"`
	TransactionCount int                         `json:"transaction_count"`
	Transactions     []EnrichedTransaction       `json:"transactions"`
	MonthlySummary   map[string]*MonthlySummary  `json:"monthly_summary"`
	CategorySummary  map[string]*CategorySummary `json:"category_summary"`
}
