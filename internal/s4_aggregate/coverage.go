package s4_aggregate

import (
	"sort"

	"github.com/wonny/fundtrace/internal/contracts"
)

// BuildCoverage computes one coverage row per fund with disclosed feeder holdings.
// raw total is over every disclosed feeder row (null = 0); mapped total is the
// normalised weight of the fund's active links.
func BuildCoverage(feeders []contracts.FeederHolding, active []contracts.BridgeLink, navs map[string]*contracts.NavFx) []contracts.FundCoverage {
	raw := make(map[string]float64)
	funds := make([]string, 0)
	for _, f := range feeders {
		if _, seen := raw[f.FundCode]; !seen {
			funds = append(funds, f.FundCode)
		}
		raw[f.FundCode] += f.WeightPct.Or(0)
	}

	mapped := make(map[string]float64)
	for _, l := range active {
		mapped[l.FundCode] += l.FeederWeightPctNorm
	}

	sort.Strings(funds)
	out := make([]contracts.FundCoverage, 0, len(funds))
	for _, code := range funds {
		total := raw[code]
		if total > 100 {
			total = 100
		}

		cov := contracts.FundCoverage{
			FundCode:    code,
			RawTotalPct: raw[code],
			TotalPct:    total,
			MappedPct:   mapped[code],
			Nav:         navs[code],
		}
		if total != 0 {
			cov.CoverageRatio = contracts.Float(clip01(mapped[code] / total))
		}
		out = append(out, cov)
	}
	return out
}

func clip01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
