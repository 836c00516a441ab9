package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the wire format for transaction dates.
const DateLayout = "2006-01-02"

// MonthLayout is the wire format for month bucket keys (YYYY-MM).
const MonthLayout = "2006-01"

// MaxDescriptionLen caps transaction descriptions at parse time.
const MaxDescriptionLen = 100

// RawTransaction is one debit line extracted from a statement.
// It is produced by the parser and never mutated afterwards.
type RawTransaction struct {
	Date        time.Time // calendar date of the transaction
	Month       string    // YYYY-MM bucket key, derived from Date
	Description string    // trimmed description, at most MaxDescriptionLen chars
	GrossAmount float64   // absolute value, rounded to 2 decimals
}

// EnrichedTransaction is a RawTransaction with category and VAT decomposition
// applied. NetAmount + VATAmount reconstructs GrossAmount within 2-decimal
// rounding.
type EnrichedTransaction struct {
	Date        time.Time
	Month       string
	Description string
	GrossAmount float64
	Category    string
	NetAmount   float64
	VATAmount   float64
	CountryCode string
}

// MarshalJSON emits the fixed wire shape: ISO date, YYYY-MM month, and the
// gross amount under "total_amount".
func (t EnrichedTransaction) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Date        string  `json:"date"`
		Month       string  `json:"month"`
		Description string  `json:"description"`
		Category    string  `json:"category"`
		NetAmount   float64 `json:"net_amount"`
		VATAmount   float64 `json:"vat_amount"`
		TotalAmount float64 `json:"total_amount"`
		CountryCode string  `json:"country_code"`
	}{
		Date:        t.Date.Format(DateLayout),
		Month:       t.Month,
		Description: t.Description,
		Category:    t.Category,
		NetAmount:   t.NetAmount,
		VATAmount:   t.VATAmount,
		TotalAmount: t.GrossAmount,
		CountryCode: t.CountryCode,
	})
}

// UnmarshalJSON accepts the same wire shape MarshalJSON produces.
func (t *EnrichedTransaction) UnmarshalJSON(data []byte) error {
	var aux struct {
		Date        string  `json:"date"`
		Month       string  `json:"month"`
		Description string  `json:"description"`
		Category    string  `json:"category"`
		NetAmount   float64 `json:"net_amount"`
		VATAmount   float64 `json:"vat_amount"`
		TotalAmount float64 `json:"total_amount"`
		CountryCode string  `json:"country_code"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	date, err := time.Parse(DateLayout, aux.Date)
	if err != nil {
		return fmt.Errorf("transaction date %q: %w", aux.Date, err)
	}

	t.Date = date
	t.Month = aux.Month
	t.Description = aux.Description
	t.Category = aux.Category
	t.NetAmount = aux.NetAmount
	t.VATAmount = aux.VATAmount
	t.GrossAmount = aux.TotalAmount
	t.CountryCode = aux.CountryCode
	return nil
}
