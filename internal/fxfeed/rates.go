package fxfeed

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// RatePlaces is the stored precision of rate_to_base
const RatePlaces = 8

// Row is one stored rate: 1 unit of FromCurrency = RateToBase units of ToCurrency
type Row struct {
	Date         time.Time
	FromCurrency string
	ToCurrency   string
	RateToBase   decimal.Decimal
	Source       string
}

// CrossRates converts USD-quoted rates to base-currency rates.
//
//	rate_to_base = base_per_usd / ccy_per_usd
//
// The base currency itself is always 1. Symbols missing from the quote or with a
// non-positive rate are skipped.
func CrossRates(base string, symbols []string, q *Quote) ([]Row, error) {
	basePerUSD, ok := q.PerUSD[base]
	if !ok || !basePerUSD.IsPositive() {
		return nil, fmt.Errorf("%s rate missing or invalid in fx payload", base)
	}

	y, m, d := q.AsOf.UTC().Date()
	date := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	rows := make([]Row, 0, len(symbols))
	for _, ccy := range NormalizeSymbols(symbols, base) {
		var rate decimal.Decimal
		if ccy == base {
			rate = decimal.NewFromInt(1)
		} else {
			perUSD, ok := q.PerUSD[ccy]
			if !ok || !perUSD.IsPositive() {
				continue
			}
			rate = basePerUSD.DivRound(perUSD, RatePlaces)
		}
		rows = append(rows, Row{
			Date:         date,
			FromCurrency: ccy,
			ToCurrency:   base,
			RateToBase:   rate,
			Source:       q.Source,
		})
	}
	return rows, nil
}

// NormalizeSymbols trims, uppercases and dedups symbols, appending base when absent
func NormalizeSymbols(symbols []string, base string) []string {
	seen := make(map[string]bool, len(symbols)+1)
	out := make([]string, 0, len(symbols)+1)
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	if !seen[base] {
		out = append(out, base)
	}
	return out
}
