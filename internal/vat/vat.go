// Package vat decomposes gross amounts into net and VAT portions using
// country-specific standard rates.
package vat

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Calculator splits a gross amount into its VAT and net portions for a
// country. Implementations must guarantee that vat and net, each rounded to
// two decimal places, sum back to the rounded gross.
type Calculator interface {
	ExtractVAT(gross float64, countryCode string) (vat, net float64, err error)
}

// UnknownCountryError reports a country code with no configured rate.
type UnknownCountryError struct {
	CountryCode string
}

func (e *UnknownCountryError) Error() string {
	return fmt.Sprintf("no VAT rate configured for country %q", e.CountryCode)
}

// Standard VAT rates in percent.
var standardRates = map[string]int64{
	"IE": 23,
	"GB": 20,
	"DE": 19,
	"FR": 20,
	"ES": 21,
	"IT": 22,
	"NL": 21,
	"PT": 23,
}

// RateTable is a Calculator backed by a fixed map of standard rates.
type RateTable struct {
	rates map[string]decimal.Decimal
}

// NewRateTable returns a Calculator covering the built-in standard rates.
func NewRateTable() *RateTable {
	rates := make(map[string]decimal.Decimal, len(standardRates))
	for cc, pct := range standardRates {
		rates[cc] = decimal.New(pct, -2)
	}
	return &RateTable{rates: rates}
}

// Rate returns the fractional rate for a country code, e.g. 0.23 for "IE".
func (t *RateTable) Rate(countryCode string) (decimal.Decimal, bool) {
	r, ok := t.rates[countryCode]
	return r, ok
}

// ExtractVAT decomposes a gross amount: net = gross / (1 + rate) rounded to
// two decimals, vat = gross - net. Computing VAT as the remainder rather
// than rounding both halves keeps net + vat exactly equal to gross.
func (t *RateTable) ExtractVAT(gross float64, countryCode string) (float64, float64, error) {
	rate, ok := t.rates[countryCode]
	if !ok {
		return 0, 0, &UnknownCountryError{CountryCode: countryCode}
	}

	g := decimal.NewFromFloat(gross).Round(2)
	net := g.Div(decimal.NewFromInt(1).Add(rate)).Round(2)
	vat := g.Sub(net)
	return vat.InexactFloat64(), net.InexactFloat64(), nil
}
