package s4_aggregate

import (
	"sort"

	"github.com/wonny/fundtrace/internal/contracts"
)

// RankHoldings groups stock rows by (holding_key, ticker_norm, type) and ranks by value.
// The first holding name seen in fact order is kept.
// Ranks are row numbers: holdings with tied totals still get distinct
// ranks, ordered by holding_key, ticker_norm, then type.
func RankHoldings(rows []contracts.StockExposure) []contracts.RankedHolding {
	type groupKey struct{ key, ticker, typ string }

	pos := make(map[groupKey]int)
	out := make([]contracts.RankedHolding, 0)

	for _, r := range rows {
		k := groupKey{r.HoldingKey, r.HoldingTickerNorm, r.HoldingType}
		i, ok := pos[k]
		if !ok {
			i = len(out)
			pos[k] = i
			out = append(out, contracts.RankedHolding{
				HoldingKey:        r.HoldingKey,
				HoldingName:       r.HoldingName,
				HoldingTickerNorm: r.HoldingTickerNorm,
				HoldingType:       r.HoldingType,
			})
		}
		out[i].TotalTrueValue += r.TrueValue
		out[i].TotalTrueWeightPct += r.TrueWeightPct
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if c := compareTotals(a.TotalTrueValue, a.TotalTrueWeightPct, b.TotalTrueValue, b.TotalTrueWeightPct); c != 0 {
			return c < 0
		}
		if a.HoldingKey != b.HoldingKey {
			return a.HoldingKey < b.HoldingKey
		}
		if a.HoldingTickerNorm != b.HoldingTickerNorm {
			return a.HoldingTickerNorm < b.HoldingTickerNorm
		}
		return a.HoldingType < b.HoldingType
	})

	total := 0.0
	for _, h := range out {
		total += h.TotalTrueValue
	}
	for i := range out {
		out[i].RankNo = i + 1
		out[i].AllocationSharePct = share(out[i].TotalTrueValue, total)
	}
	return out
}

// RankSectors groups sector rows by name and ranks by value
func RankSectors(rows []contracts.SectorExposure) []contracts.RankedCategory {
	pos := make(map[string]int)
	out := make([]contracts.RankedCategory, 0)

	for _, r := range rows {
		i, ok := pos[r.SectorName]
		if !ok {
			i = len(out)
			pos[r.SectorName] = i
			out = append(out, contracts.RankedCategory{Name: r.SectorName})
		}
		out[i].TotalTrueValue += r.TrueValue
		out[i].TotalTrueWeightPct += r.TrueWeightPct
	}

	return rankCategories(out)
}

// GroupRegions groups region rows by (name, is_country_like), sorted like a ranking
func GroupRegions(rows []contracts.RegionExposure) []contracts.RegionAggregate {
	type groupKey struct {
		name    string
		country bool
	}

	pos := make(map[groupKey]int)
	out := make([]contracts.RegionAggregate, 0)

	for _, r := range rows {
		k := groupKey{r.RegionName, r.IsCountryLike}
		i, ok := pos[k]
		if !ok {
			i = len(out)
			pos[k] = i
			out = append(out, contracts.RegionAggregate{RegionName: r.RegionName, IsCountryLike: r.IsCountryLike})
		}
		out[i].TotalTrueValue += r.TrueValue
		out[i].TotalTrueWeightPct += r.TrueWeightPct
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if c := compareTotals(a.TotalTrueValue, a.TotalTrueWeightPct, b.TotalTrueValue, b.TotalTrueWeightPct); c != 0 {
			return c < 0
		}
		if a.RegionName != b.RegionName {
			return a.RegionName < b.RegionName
		}
		return !a.IsCountryLike && b.IsCountryLike
	})

	total := 0.0
	for _, g := range out {
		total += g.TotalTrueValue
	}
	for i := range out {
		out[i].AllocationSharePct = share(out[i].TotalTrueValue, total)
	}
	return out
}

// RankCountries ranks the country-like region groups; shares are of the country total
func RankCountries(groups []contracts.RegionAggregate) []contracts.RankedCategory {
	out := make([]contracts.RankedCategory, 0)
	for _, g := range groups {
		if !g.IsCountryLike {
			continue
		}
		out = append(out, contracts.RankedCategory{
			Name:               g.RegionName,
			TotalTrueValue:     g.TotalTrueValue,
			TotalTrueWeightPct: g.TotalTrueWeightPct,
		})
	}
	return rankCategories(out)
}

// rankCategories sorts by value desc, weight desc, name asc and assigns ranks 1..n.
// Ties are not shared: equal totals get consecutive ranks in name order.
func rankCategories(out []contracts.RankedCategory) []contracts.RankedCategory {
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if c := compareTotals(a.TotalTrueValue, a.TotalTrueWeightPct, b.TotalTrueValue, b.TotalTrueWeightPct); c != 0 {
			return c < 0
		}
		return a.Name < b.Name
	})

	total := 0.0
	for _, c := range out {
		total += c.TotalTrueValue
	}
	for i := range out {
		out[i].RankNo = i + 1
		out[i].AllocationSharePct = share(out[i].TotalTrueValue, total)
	}
	return out
}

// compareTotals orders by value desc then weight desc; -1 means a ranks first
func compareTotals(aValue, aWeight, bValue, bWeight float64) int {
	switch {
	case aValue > bValue:
		return -1
	case aValue < bValue:
		return 1
	case aWeight > bWeight:
		return -1
	case aWeight < bWeight:
		return 1
	default:
		return 0
	}
}

// share = value / total × 100, 0 when total is 0
func share(value, total float64) float64 {
	if total == 0 {
		return 0
	}
	return value / total * 100
}
