package analyze

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cianhughes/bank-analyzer/internal/domain"
)

// Fingerprint derives the duplicate-detection key for a saved analysis:
// the file name (truncated to 100 characters), the total gross amount with
// two fixed decimals, the transaction count, and the sorted distinct month
// keys, joined by underscores. Underscores inside the file name are not
// escaped; the key is a heuristic, not a cryptographic identity.
func Fingerprint(fileName string, totalGross float64, txCount int, months []string) string {
	if r := []rune(fileName); len(r) > domain.MaxDescriptionLen {
		fileName = string(r[:domain.MaxDescriptionLen])
	}

	seen := make(map[string]struct{}, len(months))
	uniq := make([]string, 0, len(months))
	for _, m := range months {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		uniq = append(uniq, m)
	}
	sort.Strings(uniq)

	gross := decimal.NewFromFloat(totalGross).StringFixed(2)
	return fmt.Sprintf("%s_%s_%d_%s", fileName, gross, txCount, strings.Join(uniq, ","))
}

// ResultFingerprint computes the fingerprint of a full analysis result the
// way the save path does: total gross summed from the monthly buckets.
func ResultFingerprint(fileName string, res *domain.AnalysisResult) string {
	gross, _, _ := Totals(res)
	months := make([]string, 0, len(res.MonthlySummary))
	for m := range res.MonthlySummary {
		months = append(months, m)
	}
	return Fingerprint(fileName, gross, res.TransactionCount, months)
}

// Totals sums the monthly buckets into overall gross, net and VAT figures,
// each rounded to two decimals.
func Totals(res *domain.AnalysisResult) (gross, net, vat float64) {
	var g, n, v decimal.Decimal
	for _, m := range res.MonthlySummary {
		g = g.Add(decimal.NewFromFloat(m.GrossTotal))
		n = n.Add(decimal.NewFromFloat(m.NetTotal))
		v = v.Add(decimal.NewFromFloat(m.VATTotal))
	}
	return round2(g), round2(n), round2(v)
}
