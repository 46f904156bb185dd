package s3_exposure

import (
	"time"

	"github.com/wonny/fundtrace/internal/contracts"
)

type stockKey struct {
	ftTicker, name, ticker, typ string
	date                        time.Time
}

type categoryKey struct {
	ftTicker, category string
	date               time.Time
}

// dedupStocks keeps one row per (ft_ticker, name, ticker, type, date) with the
// largest weight (null = 0). First-seen order is kept.
func dedupStocks(rows []contracts.StockHolding) []contracts.StockHolding {
	out := make([]contracts.StockHolding, 0, len(rows))
	pos := make(map[stockKey]int, len(rows))

	for _, r := range rows {
		r.WeightPct = contracts.Float(r.WeightPct.Or(0))
		k := stockKey{r.FtTicker, r.HoldingName, r.HoldingTicker, r.HoldingType, r.AsOfDate}
		if i, ok := pos[k]; ok {
			if r.WeightPct.Value > out[i].WeightPct.Value {
				out[i].WeightPct = r.WeightPct
			}
			continue
		}
		pos[k] = len(out)
		out = append(out, r)
	}
	return out
}

// dedupCategories keeps one row per (ft_ticker, category, date) with the largest weight
func dedupCategories(rows []contracts.CategoryWeight) []contracts.CategoryWeight {
	out := make([]contracts.CategoryWeight, 0, len(rows))
	pos := make(map[categoryKey]int, len(rows))

	for _, r := range rows {
		r.WeightPct = contracts.Float(r.WeightPct.Or(0))
		k := categoryKey{r.FtTicker, r.Category, r.AsOfDate}
		if i, ok := pos[k]; ok {
			if r.WeightPct.Value > out[i].WeightPct.Value {
				out[i].WeightPct = r.WeightPct
			}
			continue
		}
		pos[k] = len(out)
		out = append(out, r)
	}
	return out
}

func groupStocks(rows []contracts.StockHolding) map[string][]contracts.StockHolding {
	g := make(map[string][]contracts.StockHolding)
	for _, r := range rows {
		g[r.FtTicker] = append(g[r.FtTicker], r)
	}
	return g
}

func groupCategories(rows []contracts.CategoryWeight) map[string][]contracts.CategoryWeight {
	g := make(map[string][]contracts.CategoryWeight)
	for _, r := range rows {
		g[r.FtTicker] = append(g[r.FtTicker], r)
	}
	return g
}
