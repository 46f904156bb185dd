package s4_aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fundtrace/internal/contracts"
	"github.com/wonny/fundtrace/internal/traceconfig"
	"github.com/wonny/fundtrace/pkg/logger"
)

func active(fund, ft string, norm float64) contracts.BridgeLink {
	return contracts.BridgeLink{FundCode: fund, FtTicker: ft, Ticker: ft, FeederWeightPct: norm, FeederWeightPctNorm: norm}
}

func stockRow(fund, key, ticker, name string, value, weight float64) contracts.StockExposure {
	return contracts.StockExposure{
		Provenance:        contracts.Provenance{FundCode: fund},
		HoldingKey:        key,
		HoldingTickerNorm: ticker,
		HoldingName:       name,
		HoldingType:       "Equity",
		TrueValue:         value,
		TrueWeightPct:     weight,
	}
}

func TestBuildCoverage(t *testing.T) {
	feeders := []contracts.FeederHolding{
		{FundCode: "F2", WeightPct: contracts.Float(60)},
		{FundCode: "F1", WeightPct: contracts.Float(70)},
		{FundCode: "F1", WeightPct: contracts.Float(50)}, // raw 120 → total 100
		{FundCode: "F2", WeightPct: contracts.ParseFloat("bad")},
		{FundCode: "F3", WeightPct: contracts.Float(0)},
	}
	links := []contracts.BridgeLink{
		active("F1", "M1", 58.333),
		active("F1", "M2", 41.667),
		active("F2", "M1", 30),
		active("F9", "M1", 100), // fallback fund without feeder rows
	}
	navs := map[string]*contracts.NavFx{"F1": {FundCode: "F1", AUM: 10}}

	cov := BuildCoverage(feeders, links, navs)
	require.Len(t, cov, 3)

	assert.Equal(t, "F1", cov[0].FundCode)
	assert.Equal(t, 120.0, cov[0].RawTotalPct)
	assert.Equal(t, 100.0, cov[0].TotalPct)
	assert.InDelta(t, 1.0, cov[0].CoverageRatio.Value, 1e-9)
	require.NotNil(t, cov[0].Nav)

	assert.Equal(t, "F2", cov[1].FundCode)
	assert.Equal(t, 60.0, cov[1].TotalPct)
	assert.InDelta(t, 0.5, cov[1].CoverageRatio.Value, 1e-12)
	assert.Nil(t, cov[1].Nav)

	assert.Equal(t, "F3", cov[2].FundCode)
	assert.False(t, cov[2].CoverageRatio.Valid)
}

// P4: coverage ratio clipped to [0, 1]
func TestBuildCoverage_Clipped(t *testing.T) {
	feeders := []contracts.FeederHolding{{FundCode: "F", WeightPct: contracts.Float(20)}}
	cov := BuildCoverage(feeders, []contracts.BridgeLink{active("F", "M", 100)}, nil)

	require.Len(t, cov, 1)
	assert.Equal(t, 1.0, cov[0].CoverageRatio.Value)

	neg := BuildCoverage([]contracts.FeederHolding{{FundCode: "N", WeightPct: contracts.Float(-5)}}, []contracts.BridgeLink{active("N", "M", 10)}, nil)
	assert.Equal(t, 0.0, neg[0].CoverageRatio.Value)
	assert.True(t, neg[0].CoverageRatio.Valid)
}

func TestRankHoldings(t *testing.T) {
	rows := []contracts.StockExposure{
		stockRow("F1", "AAPL", "AAPL", "Apple Inc", 100, 5),
		stockRow("F2", "AAPL", "AAPL", "APPLE INC.", 50, 2),
		stockRow("F1", "MSFT", "MSFT", "Microsoft", 150, 4),
		stockRow("F1", "PRIVATE CO", "", "Private Co", 0, 1),
		stockRow("F1", "ZERO", "", "Zero", 0, 1),
	}

	ranked := RankHoldings(rows)
	require.Len(t, ranked, 4)

	assert.Equal(t, "AAPL", ranked[0].HoldingKey)
	assert.Equal(t, "Apple Inc", ranked[0].HoldingName)
	assert.Equal(t, 150.0, ranked[0].TotalTrueValue)
	assert.Equal(t, 7.0, ranked[0].TotalTrueWeightPct)
	assert.Equal(t, "MSFT", ranked[1].HoldingKey) // 같은 value → weight 큰 쪽 우선
	// value, weight 모두 같으면 key 오름차순
	assert.Equal(t, "PRIVATE CO", ranked[2].HoldingKey)
	assert.Equal(t, "ZERO", ranked[3].HoldingKey)

	for i, r := range ranked {
		assert.Equal(t, i+1, r.RankNo)
	}
	assert.InDelta(t, 50.0, ranked[0].AllocationSharePct, 1e-9)
}

func TestRankSectors(t *testing.T) {
	rows := []contracts.SectorExposure{
		{SectorName: "Technology", TrueValue: 60, TrueWeightPct: 6},
		{SectorName: "Financials", TrueValue: 30, TrueWeightPct: 3},
		{SectorName: "Technology", TrueValue: 10, TrueWeightPct: 1},
	}

	ranked := RankSectors(rows)
	require.Len(t, ranked, 2)
	assert.Equal(t, "Technology", ranked[0].Name)
	assert.Equal(t, 1, ranked[0].RankNo)
	assert.InDelta(t, 70.0, ranked[0].AllocationSharePct, 1e-9)
	assert.InDelta(t, 30.0, ranked[1].AllocationSharePct, 1e-9)
}

func TestRank_ZeroTotalShare(t *testing.T) {
	ranked := RankSectors([]contracts.SectorExposure{{SectorName: "A"}, {SectorName: "B"}})
	require.Len(t, ranked, 2)
	assert.Equal(t, 0.0, ranked[0].AllocationSharePct)
	assert.Equal(t, "A", ranked[0].Name)
	assert.Equal(t, 2, ranked[1].RankNo)
}

func TestRankSectors_TiedTotalsGetDistinctRanks(t *testing.T) {
	rows := []contracts.SectorExposure{
		{SectorName: "Utilities", TrueValue: 40, TrueWeightPct: 4},
		{SectorName: "Energy", TrueValue: 40, TrueWeightPct: 4},
		{SectorName: "Materials", TrueValue: 10, TrueWeightPct: 1},
	}

	ranked := RankSectors(rows)
	require.Len(t, ranked, 3)
	assert.Equal(t, "Energy", ranked[0].Name)
	assert.Equal(t, 1, ranked[0].RankNo)
	assert.Equal(t, "Utilities", ranked[1].Name)
	assert.Equal(t, 2, ranked[1].RankNo)
	assert.Equal(t, 3, ranked[2].RankNo)
}

// Region-like labels never reach the country ranking
func TestRankCountries(t *testing.T) {
	regions := []contracts.RegionExposure{
		{RegionName: "Asia", IsCountryLike: false, TrueValue: 400},
		{RegionName: "Japan", IsCountryLike: true, TrueValue: 300},
		{RegionName: "United States", IsCountryLike: true, TrueValue: 100},
		{RegionName: "Japan", IsCountryLike: true, TrueValue: 100},
	}

	groups := GroupRegions(regions)
	require.Len(t, groups, 3)
	assert.Equal(t, "Asia", groups[0].RegionName)
	assert.InDelta(t, 400.0/900*100, groups[0].AllocationSharePct, 1e-9)

	countries := RankCountries(groups)
	require.Len(t, countries, 2)
	assert.Equal(t, "Japan", countries[0].Name)
	assert.Equal(t, 400.0, countries[0].TotalTrueValue)
	assert.InDelta(t, 80.0, countries[0].AllocationSharePct, 1e-9)
	assert.Equal(t, "United States", countries[1].Name)
	for _, c := range countries {
		assert.NotEqual(t, "Asia", c.Name)
	}
}

func TestWeightedReturns(t *testing.T) {
	links := []contracts.BridgeLink{
		active("F1", "M1", 50),
		active("F1", "M1", 50), // 중복 triple
		active("F2", "M2", 100),
		active("F3", "M1", 100), // AUM 0
		active("F4", "M3", 100), // 수익률 없음
	}
	returns := []contracts.ReturnMetric{
		{FtTicker: "M1", Ticker: "M1", Return1Y: contracts.Float(10), Return3Y: contracts.Float(30)},
		{FtTicker: "M2", Ticker: "M2", Return1Y: contracts.Float(4)},
		{FtTicker: "M3", Ticker: "OTHER", Return1Y: contracts.Float(99)},
	}
	navs := map[string]*contracts.NavFx{
		"F1": {AUM: 300},
		"F2": {AUM: 100},
		"F3": {AUM: 0},
		"F4": {AUM: 1000},
	}

	avg1y, avg3y := WeightedReturns(links, returns, navs)
	require.True(t, avg1y.Valid)
	assert.InDelta(t, (10*300+4*100)/400.0, avg1y.Value, 1e-9)
	require.True(t, avg3y.Valid)
	assert.InDelta(t, 30.0, avg3y.Value, 1e-9)
}

func TestWeightedReturns_Empty(t *testing.T) {
	avg1y, avg3y := WeightedReturns(nil, nil, nil)
	assert.False(t, avg1y.Valid)
	assert.False(t, avg3y.Valid)
}

func TestAggregate_Dashboard(t *testing.T) {
	cfg := traceconfig.Default()
	cfg.Aggregation.TopN = 1

	in := Input{
		Feeders: []contracts.FeederHolding{{FundCode: "F1", WeightPct: contracts.Float(90)}},
		Bridge: []contracts.BridgeLink{
			active("F1", "M1", 90),
			{FundCode: "F1", FtTicker: "M9", FeederWeightPct: 0}, // inactive
		},
		Navs: []contracts.NavFx{{FundCode: "F1", AUM: 1000}},
		Stocks: []contracts.StockExposure{
			stockRow("F1", "AAPL", "AAPL", "Apple", 45, 4.5),
			stockRow("F1", "MSFT", "MSFT", "Microsoft", 27, 2.7),
		},
		Sectors: []contracts.SectorExposure{{SectorName: "Technology", TrueValue: 72}},
		Regions: []contracts.RegionExposure{
			{RegionName: "North America", TrueValue: 50},
			{RegionName: "United States", IsCountryLike: true, TrueValue: 40},
		},
		Returns: []contracts.ReturnMetric{{FtTicker: "M1", Ticker: "M1", Return1Y: contracts.Float(12.5)}},
	}

	out := NewAggregator(cfg, logger.Nop()).Aggregate(in)

	d := out.Dashboard
	assert.InDelta(t, 72.0, d.TotalHoldingsValue, 1e-9)
	assert.Equal(t, "Technology", d.TopSector)
	assert.Equal(t, 100.0, d.TopSectorSharePct.Value)
	assert.Equal(t, "United States", d.TopCountry)
	assert.Equal(t, 100.0, d.TopCountrySharePct.Value)
	assert.Equal(t, 12.5, d.Avg1YReturn.Value)
	assert.False(t, d.Avg3YReturn.Valid)
	assert.Equal(t, 1, d.MappedFunds)
	assert.Equal(t, 1, d.MappedMasters)

	assert.Len(t, out.TopHoldings, 2)
	assert.Len(t, out.TopHoldingsN(), 1)
	assert.Len(t, out.Bridge, 2)
	assert.Equal(t, "THB", out.BaseCurrency)
	require.Len(t, out.Coverage, 1)
	assert.InDelta(t, 1.0, out.Coverage[0].CoverageRatio.Value, 1e-12)
}

func TestAggregate_EmptyInputStillOneDashboard(t *testing.T) {
	out := NewAggregator(traceconfig.Default(), logger.Nop()).Aggregate(Input{})

	assert.Equal(t, 0.0, out.Dashboard.TotalHoldingsValue)
	assert.Empty(t, out.Dashboard.TopSector)
	assert.False(t, out.Dashboard.TopSectorSharePct.Valid)
	assert.False(t, out.Dashboard.Avg1YReturn.Valid)
	assert.Equal(t, 1, out.RowCounts()["agg_dashboard_cards"])
}
