// Package parser extracts debit transactions from bank-statement text.
//
// Statements arrive in wildly inconsistent shapes: CSV exports, free-text
// PDF rows, mixed date and currency notations. The parser processes the text
// line by line with two competing strategies (a CSV field split and a
// regex-based free-text scan) and keeps whichever produces a usable record.
// A malformed line is never an error; it is skipped with an inspectable
// reason.
package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/cianhughes/bank-analyzer/internal/domain"
)

// SkipReason explains why a line produced no transaction.
type SkipReason string

const (
	SkipNone      SkipReason = ""           // line produced a transaction
	SkipBlank     SkipReason = "blank"      // empty after trimming
	SkipComment   SkipReason = "comment"    // leading '#'
	SkipHeader    SkipReason = "header"     // tabular header row, no digits
	SkipCredit    SkipReason = "credit"     // inbound movement, debits only
	SkipBadDate   SkipReason = "bad_date"   // CSV field 0 matched no date format
	SkipBadAmount SkipReason = "bad_amount" // CSV field 2 was not a number
	SkipNoDate    SkipReason = "no_date"    // free text: no date pattern matched
	SkipNoAmount  SkipReason = "no_amount"  // free text: no amount pattern matched
)

// LineResult is the outcome of parsing a single line: either a transaction
// or a skip reason, never both.
type LineResult struct {
	Tx     *domain.RawTransaction
	Reason SkipReason
}

// Report summarizes a full parse for logging and tests.
type Report struct {
	Lines   int
	Parsed  int
	Skipped map[SkipReason]int
}

// Header rows are dropped when they contain one of these keywords and no
// digit anywhere in the line.
var headerKeywords = []string{
	"date", "description", "money out", "money in", "balance",
	"account", "opening", "closing", "statement",
}

// Lines matching these keywords are inbound (credit) movements. Only debits
// are extracted; this is a deliberate keyword heuristic, kept in sync with
// the behaviour of the legacy analyzer rather than replaced by a sign check.
var creditKeywords = []string{
	"top-up", "money in", "credit", "deposit", "from:", "apple pay", "transfer in",
}

// csvDateLayouts are tried in order for CSV field 0; isoFallbackLayouts are
// the generic ISO-8601 forms tried when none of them match.
var csvDateLayouts = []string{"2 Jan 2006", "2006-01-02", "2/1/2006"}

var isoFallbackLayouts = []string{"2006-01-02T15:04:05", "2006-01-02T15:04:05Z07:00"}

// datePattern pairs a free-text regex with the layout used to parse its match.
type datePattern struct {
	re     *regexp.Regexp
	layout string
}

var datePatterns = []datePattern{
	{regexp.MustCompile(`(?i)(\d{1,2}\s+(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+202[0-9])`), "2 Jan 2006"},
	{regexp.MustCompile(`(\d{1,2}/\d{1,2}/202[0-9])`), "2/1/2006"},
	{regexp.MustCompile(`(202[0-9]-\d{2}-\d{2})`), "2006-01-02"},
}

// Amount patterns, tried in order: symbol before number, symbol after number,
// bare decimal with two fraction digits.
var amountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`-?€\s*(\d+[.,]\d{2})`),
	regexp.MustCompile(`-?\s*(\d+[.,]\d{2})\s*€`),
	regexp.MustCompile(`-?\s*(\d+[.,]\d{2})`),
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// placeholderDescription substitutes descriptions that vanish after date and
// amount stripping.
const placeholderDescription = "Transaction"

// Parse processes statement text line by line, in original order. Lines are
// independent: one malformed line never aborts the parse. The returned slice
// preserves source order; an empty result is reported through the Report, and
// the caller decides whether that is fatal.
func Parse(text string) ([]domain.RawTransaction, Report) {
	report := Report{Skipped: make(map[SkipReason]int)}

	var txs []domain.RawTransaction
	for _, rawLine := range strings.Split(text, "\n") {
		report.Lines++
		res := ParseLine(rawLine)
		if res.Tx != nil {
			txs = append(txs, *res.Tx)
			report.Parsed++
			continue
		}
		report.Skipped[res.Reason]++
	}
	return txs, report
}

// ParseLine classifies and parses a single statement line.
func ParseLine(rawLine string) LineResult {
	line := strings.TrimSpace(rawLine)
	if line == "" {
		return LineResult{Reason: SkipBlank}
	}
	if strings.HasPrefix(line, "#") {
		return LineResult{Reason: SkipComment}
	}

	lower := strings.ToLower(line)
	if isHeaderLine(line, lower) {
		return LineResult{Reason: SkipHeader}
	}
	if containsAny(lower, creditKeywords) {
		return LineResult{Reason: SkipCredit}
	}

	// CSV branch: date,description,amount[,...]. A line that splits into
	// fewer than three fields falls through to the free-text scan; a line
	// that splits but fails to parse is skipped outright, not retried.
	if strings.Contains(line, ",") {
		parts := strings.Split(line, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		if len(parts) >= 3 {
			return parseCSVFields(parts)
		}
	}

	return parseFreeText(line)
}

func isHeaderLine(line, lower string) bool {
	if !containsAny(lower, headerKeywords) {
		return false
	}
	for _, ch := range line {
		if ch >= '0' && ch <= '9' {
			return false
		}
	}
	return true
}

func parseCSVFields(parts []string) LineResult {
	amount, err := parseAmountField(parts[2])
	if err != nil {
		return LineResult{Reason: SkipBadAmount}
	}

	date, ok := parseCSVDate(parts[0])
	if !ok {
		return LineResult{Reason: SkipBadDate}
	}

	desc := parts[1]
	if desc == "" {
		desc = placeholderDescription
	}

	return LineResult{Tx: newRawTransaction(date, desc, amount)}
}

func parseCSVDate(field string) (time.Time, bool) {
	for _, layout := range csvDateLayouts {
		if dt, err := time.Parse(layout, field); err == nil {
			return dt, true
		}
	}
	for _, layout := range isoFallbackLayouts {
		if dt, err := time.Parse(layout, field); err == nil {
			return dt, true
		}
	}
	return time.Time{}, false
}

func parseFreeText(line string) LineResult {
	var date time.Time
	var haveDate bool
	for _, p := range datePatterns {
		m := p.re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		dt, err := time.Parse(p.layout, m[1])
		if err != nil {
			continue
		}
		date, haveDate = dt, true
		break
	}
	if !haveDate {
		return LineResult{Reason: SkipNoDate}
	}

	var amount float64
	var haveAmount bool
	for _, re := range amountPatterns {
		m := re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		a, err := parseAmountField(m[1])
		if err != nil {
			continue
		}
		amount, haveAmount = a, true
		break
	}
	if !haveAmount {
		return LineResult{Reason: SkipNoAmount}
	}

	// Whatever is left after stripping the date and amount is the
	// description.
	desc := line
	for _, p := range datePatterns {
		desc = p.re.ReplaceAllString(desc, "")
	}
	for _, re := range amountPatterns {
		desc = re.ReplaceAllString(desc, "")
	}
	desc = strings.TrimSpace(whitespaceRun.ReplaceAllString(desc, " "))
	if utf8.RuneCountInString(desc) < 2 {
		desc = placeholderDescription
	}

	return LineResult{Tx: newRawTransaction(date, desc, amount)}
}

// parseAmountField normalizes a currency field: strip the Euro symbol,
// decimal comma becomes a dot.
func parseAmountField(field string) (float64, error) {
	s := strings.TrimSpace(field)
	s = strings.ReplaceAll(s, "€", "")
	s = strings.ReplaceAll(s, ",", ".")
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

func newRawTransaction(date time.Time, desc string, amount float64) *domain.RawTransaction {
	if r := []rune(desc); len(r) > domain.MaxDescriptionLen {
		desc = string(r[:domain.MaxDescriptionLen])
	}
	gross := decimal.NewFromFloat(amount).Abs().Round(2)
	return &domain.RawTransaction{
		Date:        date,
		Month:       date.Format(domain.MonthLayout),
		Description: desc,
		GrossAmount: gross.InexactFloat64(),
	}
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
