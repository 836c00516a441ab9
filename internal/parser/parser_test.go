package parser

import (
	"strings"
	"testing"
	"time"

	"github.com/cianhughes/bank-analyzer/internal/domain"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseLineCSV(t *testing.T) {
	res := ParseLine("2025-11-03,Centra,8.51")
	if res.Tx == nil {
		t.Fatalf("expected transaction, got skip %q", res.Reason)
	}
	want := domain.RawTransaction{
		Date:        date(2025, time.November, 3),
		Month:       "2025-11",
		Description: "Centra",
		GrossAmount: 8.51,
	}
	if *res.Tx != want {
		t.Errorf("got %+v, want %+v", *res.Tx, want)
	}
}

func TestParseLineCSVVariants(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		date   time.Time
		desc   string
		amount float64
	}{
		{"month-name date", "3 Nov 2025,Tesco,12.00", date(2025, time.November, 3), "Tesco", 12.00},
		{"slash date", "03/11/2025,Lidl,5.99", date(2025, time.November, 3), "Lidl", 5.99},
		{"euro symbol in amount", "2025-11-03,Spar,€4.20", date(2025, time.November, 3), "Spar", 4.20},
		{"negative amount stored absolute", "2025-11-03,Dunnes,-19.50", date(2025, time.November, 3), "Dunnes", 19.50},
		{"empty description placeholder", "2025-11-03,,3.00", date(2025, time.November, 3), "Transaction", 3.00},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ParseLine(tt.line)
			if res.Tx == nil {
				t.Fatalf("expected transaction, got skip %q", res.Reason)
			}
			if !res.Tx.Date.Equal(tt.date) {
				t.Errorf("date = %v, want %v", res.Tx.Date, tt.date)
			}
			if res.Tx.Description != tt.desc {
				t.Errorf("description = %q, want %q", res.Tx.Description, tt.desc)
			}
			if res.Tx.GrossAmount != tt.amount {
				t.Errorf("gross = %v, want %v", res.Tx.GrossAmount, tt.amount)
			}
		})
	}
}

func TestParseLineFreeText(t *testing.T) {
	res := ParseLine("3 Nov 2025 Tesco €45.20")
	if res.Tx == nil {
		t.Fatalf("expected transaction, got skip %q", res.Reason)
	}
	if !res.Tx.Date.Equal(date(2025, time.November, 3)) {
		t.Errorf("date = %v", res.Tx.Date)
	}
	if res.Tx.Description != "Tesco" {
		t.Errorf("description = %q, want Tesco", res.Tx.Description)
	}
	if res.Tx.GrossAmount != 45.20 {
		t.Errorf("gross = %v, want 45.20", res.Tx.GrossAmount)
	}
	if res.Tx.Month != "2025-11" {
		t.Errorf("month = %q, want 2025-11", res.Tx.Month)
	}
}

func TestParseLineFreeTextVariants(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		desc   string
		amount float64
	}{
		{"symbol after number", "03/11/2025 Lidl 12.50€", "Lidl", 12.50},
		{"bare amount", "2025-11-03 Luas 2.10", "Luas", 2.10},
		{"decimal comma", "3 Nov 2025 Aldi 7,35", "Aldi", 7.35},
		{"negative amount", "3 Nov 2025 Netflix -€12.99", "Netflix", 12.99},
		{"description collapses whitespace", "3 Nov 2025   Boots   Pharmacy   €9.99", "Boots Pharmacy", 9.99},
		{"missing description placeholder", "3 Nov 2025 €5.00", "Transaction", 5.00},
		{"single multibyte rune placeholder", "3 Nov 2025 é €5.00", "Transaction", 5.00},
		{"two runes kept", "3 Nov 2025 éà €5.00", "éà", 5.00},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ParseLine(tt.line)
			if res.Tx == nil {
				t.Fatalf("expected transaction, got skip %q", res.Reason)
			}
			if res.Tx.Description != tt.desc {
				t.Errorf("description = %q, want %q", res.Tx.Description, tt.desc)
			}
			if res.Tx.GrossAmount != tt.amount {
				t.Errorf("gross = %v, want %v", res.Tx.GrossAmount, tt.amount)
			}
		})
	}
}

func TestParseLineSkips(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		reason SkipReason
	}{
		{"blank", "   ", SkipBlank},
		{"comment", "# statement export", SkipComment},
		{"header without digits", "Date Description Money Out Balance", SkipHeader},
		{"credit top-up", "01 Nov 2025 Top-up from card €50.00", SkipCredit},
		{"credit transfer in", "2025-11-01,Transfer in,100.00", SkipCredit},
		{"csv bad date skipped not retried", "someday,Tesco,8.51", SkipBadDate},
		{"csv bad amount", "2025-11-03,Tesco,n/a", SkipBadAmount},
		{"free text without date", "Tesco €45.20", SkipNoDate},
		{"free text without amount", "3 Nov 2025 Tesco", SkipNoAmount},
		{"full month name not parseable", "3 November 2025 Tesco €45.20", SkipNoDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ParseLine(tt.line)
			if res.Tx != nil {
				t.Fatalf("expected skip, got transaction %+v", *res.Tx)
			}
			if res.Reason != tt.reason {
				t.Errorf("reason = %q, want %q", res.Reason, tt.reason)
			}
		})
	}
}

func TestParseLineHeaderWithDigitsIsNotHeader(t *testing.T) {
	// "account" is a header keyword, but the digits mean this is a real row.
	res := ParseLine("3 Nov 2025 Account fee €2.00")
	if res.Tx == nil {
		t.Fatalf("expected transaction, got skip %q", res.Reason)
	}
	if res.Tx.Description != "Account fee" {
		t.Errorf("description = %q", res.Tx.Description)
	}
}

func TestParseLineTruncatesDescription(t *testing.T) {
	long := strings.Repeat("x", 150)
	res := ParseLine("3 Nov 2025 " + long + " €9.99")
	if res.Tx == nil {
		t.Fatalf("expected transaction, got skip %q", res.Reason)
	}
	if len(res.Tx.Description) != domain.MaxDescriptionLen {
		t.Errorf("description length = %d, want %d", len(res.Tx.Description), domain.MaxDescriptionLen)
	}
}

func TestParsePreservesLineOrder(t *testing.T) {
	text := strings.Join([]string{
		"5 Nov 2025 Spar €3.00",
		"3 Nov 2025 Tesco €45.20",
		"2025-11-04,Centra,8.51",
	}, "\n")

	txs, report := Parse(text)
	if len(txs) != 3 {
		t.Fatalf("got %d transactions, want 3", len(txs))
	}
	// Source order, not date order.
	if txs[0].Description != "Spar" || txs[1].Description != "Tesco" || txs[2].Description != "Centra" {
		t.Errorf("order not preserved: %+v", txs)
	}
	if report.Parsed != 3 || report.Lines != 3 {
		t.Errorf("report = %+v", report)
	}
}

func TestParseSkipsDoNotAbort(t *testing.T) {
	text := strings.Join([]string{
		"# exported 2025",
		"Date Description Balance",
		"garbage line",
		"3 Nov 2025 Tesco €45.20",
		"",
		"01 Nov 2025 Top-up from card €50.00",
	}, "\n")

	txs, report := Parse(text)
	if len(txs) != 1 {
		t.Fatalf("got %d transactions, want 1", len(txs))
	}
	if report.Skipped[SkipComment] != 1 || report.Skipped[SkipHeader] != 1 ||
		report.Skipped[SkipCredit] != 1 || report.Skipped[SkipBlank] != 1 ||
		report.Skipped[SkipNoDate] != 1 {
		t.Errorf("skip counts = %+v", report.Skipped)
	}
}

func TestParseEmptyInput(t *testing.T) {
	txs, report := Parse("")
	if len(txs) != 0 {
		t.Fatalf("got %d transactions, want 0", len(txs))
	}
	if report.Parsed != 0 {
		t.Errorf("report = %+v", report)
	}
}
