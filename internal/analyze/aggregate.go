package analyze

import (
	"github.com/shopspring/decimal"

	"github.com/cianhughes/bank-analyzer/internal/domain"
)

// Accumulators keep exact fixed-point sums; rounding to the 2-decimal wire
// representation happens once, at finalization.
type monthAcc struct {
	net, vat, gross decimal.Decimal
	byCategory      map[string]decimal.Decimal
}

type cellAcc struct {
	net, vat, gross decimal.Decimal
	count           int
}

type categoryAcc struct {
	net, vat, gross decimal.Decimal
	count           int
	byMonth         map[string]*cellAcc
}

// Aggregate folds enriched transactions into per-month and per-category
// summaries. Buckets are created on first use; input order does not affect
// the result.
func Aggregate(txs []domain.EnrichedTransaction) (map[string]*domain.MonthlySummary, map[string]*domain.CategorySummary) {
	months := make(map[string]*monthAcc)
	categories := make(map[string]*categoryAcc)

	for _, tx := range txs {
		net := decimal.NewFromFloat(tx.NetAmount)
		vat := decimal.NewFromFloat(tx.VATAmount)
		gross := decimal.NewFromFloat(tx.GrossAmount)

		m, ok := months[tx.Month]
		if !ok {
			m = &monthAcc{byCategory: make(map[string]decimal.Decimal)}
			months[tx.Month] = m
		}
		m.net = m.net.Add(net)
		m.vat = m.vat.Add(vat)
		m.gross = m.gross.Add(gross)
		m.byCategory[tx.Category] = m.byCategory[tx.Category].Add(gross)

		c, ok := categories[tx.Category]
		if !ok {
			c = &categoryAcc{byMonth: make(map[string]*cellAcc)}
			categories[tx.Category] = c
		}
		c.net = c.net.Add(net)
		c.vat = c.vat.Add(vat)
		c.gross = c.gross.Add(gross)
		c.count++

		cell, ok := c.byMonth[tx.Month]
		if !ok {
			cell = &cellAcc{}
			c.byMonth[tx.Month] = cell
		}
		cell.net = cell.net.Add(net)
		cell.vat = cell.vat.Add(vat)
		cell.gross = cell.gross.Add(gross)
		cell.count++
	}

	monthly := make(map[string]*domain.MonthlySummary, len(months))
	for key, m := range months {
		byCategory := make(map[string]float64, len(m.byCategory))
		for cat, g := range m.byCategory {
			byCategory[cat] = round2(g)
		}
		monthly[key] = &domain.MonthlySummary{
			NetTotal:   round2(m.net),
			VATTotal:   round2(m.vat),
			GrossTotal: round2(m.gross),
			ByCategory: byCategory,
		}
	}

	byCategory := make(map[string]*domain.CategorySummary, len(categories))
	for name, c := range categories {
		byMonth := make(map[string]domain.MonthCell, len(c.byMonth))
		for key, cell := range c.byMonth {
			byMonth[key] = domain.MonthCell{
				Net:   round2(cell.net),
				VAT:   round2(cell.vat),
				Gross: round2(cell.gross),
				Count: cell.count,
			}
		}
		byCategory[name] = &domain.CategorySummary{
			Net:     round2(c.net),
			VAT:     round2(c.vat),
			Gross:   round2(c.gross),
			Count:   c.count,
			ByMonth: byMonth,
		}
	}

	return monthly, byCategory
}

func round2(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
