package s0_source

import "github.com/wonny/fundtrace/internal/contracts"

// tickerIndex maps a master ticker to every ft_ticker carrying it, in master order
func tickerIndex(masters []contracts.MasterSecurity) map[string][]string {
	idx := make(map[string][]string, len(masters))
	for _, m := range masters {
		if m.Ticker == "" {
			continue
		}
		idx[m.Ticker] = append(idx[m.Ticker], m.FtTicker)
	}
	return idx
}

// attachStocks re-keys ticker-keyed holdings onto ft_ticker.
// A ticker shared by several masters yields one row per master; unknown tickers are dropped.
func attachStocks(rows []contracts.StockHolding, idx map[string][]string) []contracts.StockHolding {
	out := make([]contracts.StockHolding, 0, len(rows))
	for _, r := range rows {
		for _, ft := range idx[r.FtTicker] {
			c := r
			c.FtTicker = ft
			out = append(out, c)
		}
	}
	return out
}

// attachCategories does the same for sector/region rows
func attachCategories(rows []contracts.CategoryWeight, idx map[string][]string) []contracts.CategoryWeight {
	out := make([]contracts.CategoryWeight, 0, len(rows))
	for _, r := range rows {
		for _, ft := range idx[r.FtTicker] {
			c := r
			c.FtTicker = ft
			out = append(out, c)
		}
	}
	return out
}
