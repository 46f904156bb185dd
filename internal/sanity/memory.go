package sanity

import (
	"math"

	"github.com/wonny/fundtrace/internal/contracts"
)

const (
	// FundWeightTolerancePct is the allowed per-fund Σ true_weight_pct
	FundWeightTolerancePct = 100.5

	// DashboardToleranceValue is the allowed |dashboard − Σ stock true_value|
	DashboardToleranceValue = 1.0

	normEpsilon = 1e-6
)

// CheckOutput runs the acceptance checks against an in-memory output set,
// before anything is written.
func CheckOutput(out *contracts.OutputSet) *Report {
	r := &Report{Title: "In-memory acceptance checks"}

	// 브리지 유일성
	dup := 0
	seen := make(map[string]bool, len(out.Bridge))
	for _, l := range out.Bridge {
		if seen[l.Key()] {
			dup++
		}
		seen[l.Key()] = true
	}
	r.Add("bridge_duplicate_pairs", float64(dup), 0, "(fund_code, ft_ticker) unique in bridge")

	// 정규화 비중 합 ≤ 100
	norm := make(map[string]float64)
	for _, l := range out.Bridge {
		norm[l.FundCode] += l.FeederWeightPctNorm
	}
	overNorm := 0
	for _, total := range norm {
		if total > 100+normEpsilon {
			overNorm++
		}
	}
	r.Add("fund_norm_weight_over_100", float64(overNorm), 0, "sum(feeder_weight_pct_norm) per fund <= 100")

	// 음수 노출
	negative := 0
	for _, s := range out.Stocks {
		if s.TrueWeightPct < 0 || s.TrueValue < 0 {
			negative++
		}
	}
	for _, s := range out.Sectors {
		if s.TrueWeightPct < 0 || s.TrueValue < 0 {
			negative++
		}
	}
	for _, s := range out.Regions {
		if s.TrueWeightPct < 0 || s.TrueValue < 0 {
			negative++
		}
	}
	r.Add("exposure_negative_values", float64(negative), 0, "true_weight_pct/true_value non-negative")

	fundWeight := make(map[string]float64)
	for _, s := range out.Stocks {
		fundWeight[s.FundCode] += s.TrueWeightPct
	}
	overWeight := 0
	for _, total := range fundWeight {
		if total > FundWeightTolerancePct {
			overWeight++
		}
	}
	r.Add("fund_weight_over_100", float64(overWeight), 0, "sum(true_weight_pct) per fund <= 100.5")

	badCoverage := 0
	for _, c := range out.Coverage {
		if c.CoverageRatio.Valid && (c.CoverageRatio.Value < 0 || c.CoverageRatio.Value > 1) {
			badCoverage++
		}
	}
	r.Add("coverage_ratio_out_of_range", float64(badCoverage), 0, "coverage_ratio should be in [0,1]")

	r.Add("duplicate_topn_rank", float64(duplicateRanks(out)), 0, "rank_no uniqueness in top-N tables")

	badBase := 0
	for _, n := range out.Navs {
		if n.FundCurrency == out.BaseCurrency && (n.FxRateToBase != 1 || n.FxStatus != contracts.FxBaseCurrency) {
			badBase++
		}
		if n.FxStatus == "" {
			badBase++
		}
	}
	r.Add("fx_base_currency_identity", float64(badBase), 0, "base currency rows have rate 1 and status base_currency")

	factTotal := 0.0
	for _, s := range out.Stocks {
		factTotal += s.TrueValue
	}
	r.Add("dashboard_total_diff", math.Abs(out.Dashboard.TotalHoldingsValue-factTotal), DashboardToleranceValue, "dashboard total matches fact total")

	return r
}

func duplicateRanks(out *contracts.OutputSet) int {
	dup := 0
	holdings := make(map[int]bool)
	for _, h := range out.TopHoldingsN() {
		if holdings[h.RankNo] {
			dup++
		}
		holdings[h.RankNo] = true
	}
	for _, rows := range [][]contracts.RankedCategory{out.SectoralN(), out.CountriesN()} {
		ranks := make(map[int]bool)
		for _, c := range rows {
			if ranks[c.RankNo] {
				dup++
			}
			ranks[c.RankNo] = true
		}
	}
	return dup
}
