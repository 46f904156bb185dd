package s1_bridge

import "github.com/wonny/fundtrace/internal/contracts"

// MaxFundWeightPct caps the normalised feeder weight total of one fund
const MaxFundWeightPct = 100.0

// Normalize rescales feeder weights per fund so their total is min(S, 100),
// where S is the fund's raw total over active links (raw > 0).
// Each active link keeps its share of S; inactive links stay at 0.
//
// all is the full bridge with FeederWeightPctNorm filled, active the subset
// used downstream. Input order is preserved and the input is not modified.
func Normalize(links []contracts.BridgeLink) (all []contracts.BridgeLink, active []contracts.BridgeLink) {
	sums := make(map[string]float64)
	for _, l := range links {
		if l.Active() {
			sums[l.FundCode] += l.FeederWeightPct
		}
	}

	all = make([]contracts.BridgeLink, len(links))
	active = make([]contracts.BridgeLink, 0, len(links))

	for i, l := range links {
		l.FeederWeightPctNorm = 0
		if l.Active() {
			l.FeederWeightPctNorm = normalizedWeight(l.FeederWeightPct, sums[l.FundCode])
			active = append(active, l)
		}
		all[i] = l
	}
	return all, active
}

// normalizedWeight = raw / S × min(S, 100); 0 when S = 0
func normalizedWeight(raw, sum float64) float64 {
	if sum == 0 {
		return 0
	}
	target := sum
	if target > MaxFundWeightPct {
		target = MaxFundWeightPct
	}
	return raw / sum * target
}

// FundTotals sums normalised weights per fund
func FundTotals(links []contracts.BridgeLink) map[string]float64 {
	totals := make(map[string]float64)
	for _, l := range links {
		totals[l.FundCode] += l.FeederWeightPctNorm
	}
	return totals
}
