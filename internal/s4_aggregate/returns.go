package s4_aggregate

import "github.com/wonny/fundtrace/internal/contracts"

// WeightedReturns returns the AUM-weighted average 1y and 3y return over the
// distinct (fund, ft_ticker, ticker) triples of the active bridge.
// Rows without a positive AUM or a return are skipped; no rows gives null.
func WeightedReturns(active []contracts.BridgeLink, returns []contracts.ReturnMetric, navs map[string]*contracts.NavFx) (avg1y, avg3y contracts.OptFloat) {
	type masterKey struct{ ftTicker, ticker string }
	byMaster := make(map[masterKey]contracts.ReturnMetric, len(returns))
	for _, r := range returns {
		k := masterKey{r.FtTicker, r.Ticker}
		if _, seen := byMaster[k]; !seen {
			byMaster[k] = r
		}
	}

	type triple struct{ fund, ftTicker, ticker string }
	seen := make(map[triple]bool)

	var acc1, acc3 weightedMean
	for _, l := range active {
		t := triple{l.FundCode, l.FtTicker, l.Ticker}
		if seen[t] {
			continue
		}
		seen[t] = true

		nav := navs[l.FundCode]
		if nav == nil || nav.AUM <= 0 {
			continue
		}
		r, ok := byMaster[masterKey{l.FtTicker, l.Ticker}]
		if !ok {
			continue
		}
		acc1.add(r.Return1Y, nav.AUM)
		acc3.add(r.Return3Y, nav.AUM)
	}

	return acc1.result(), acc3.result()
}

type weightedMean struct {
	sum, weight float64
}

func (m *weightedMean) add(v contracts.OptFloat, w float64) {
	if !v.Valid {
		return
	}
	m.sum += v.Value * w
	m.weight += w
}

func (m weightedMean) result() contracts.OptFloat {
	if m.weight == 0 {
		return contracts.OptFloat{}
	}
	return contracts.Float(m.sum / m.weight)
}
