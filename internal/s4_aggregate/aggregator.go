package s4_aggregate

import (
	"github.com/wonny/fundtrace/internal/contracts"
	"github.com/wonny/fundtrace/internal/s2_fx"
	"github.com/wonny/fundtrace/internal/traceconfig"
	"github.com/wonny/fundtrace/pkg/logger"
)

// Aggregator builds coverage, rankings and the dashboard record
type Aggregator struct {
	topN         int
	baseCurrency string
	logger       *logger.Logger
}

// Input is everything upstream stages produced
type Input struct {
	Feeders []contracts.FeederHolding
	Returns []contracts.ReturnMetric
	Bridge  []contracts.BridgeLink // full bridge, normalised
	Navs    []contracts.NavFx
	Stocks  []contracts.StockExposure
	Sectors []contracts.SectorExposure
	Regions []contracts.RegionExposure
}

// NewAggregator creates a new Aggregator
func NewAggregator(cfg *traceconfig.Config, log *logger.Logger) *Aggregator {
	return &Aggregator{
		topN:         cfg.Aggregation.TopN,
		baseCurrency: cfg.Currency.Base,
		logger:       log,
	}
}

// Aggregate assembles the complete output set
// ⭐ SSOT: S4 → S5 출력 테이블 구성
func (a *Aggregator) Aggregate(in Input) *contracts.OutputSet {
	active := make([]contracts.BridgeLink, 0, len(in.Bridge))
	for _, l := range in.Bridge {
		if l.Active() {
			active = append(active, l)
		}
	}
	navs := s2_fx.IndexByFund(in.Navs)

	out := &contracts.OutputSet{
		BaseCurrency: a.baseCurrency,
		TopN:         a.topN,
		Navs:         in.Navs,
		Bridge:       in.Bridge,
		Stocks:       in.Stocks,
		Sectors:      in.Sectors,
		Regions:      in.Regions,
	}

	out.Coverage = BuildCoverage(in.Feeders, active, navs)
	out.TopHoldings = RankHoldings(in.Stocks)
	out.Sectoral = RankSectors(in.Sectors)
	out.RegionGroups = GroupRegions(in.Regions)
	out.Countries = RankCountries(out.RegionGroups)

	avg1y, avg3y := WeightedReturns(active, in.Returns, navs)
	out.Dashboard = BuildDashboard(in.Stocks, out.Sectoral, out.Countries, active, avg1y, avg3y)

	a.logger.WithFields(map[string]interface{}{
		"coverage_rows":  len(out.Coverage),
		"holdings":       len(out.TopHoldings),
		"sectors":        len(out.Sectoral),
		"countries":      len(out.Countries),
		"region_groups":  len(out.RegionGroups),
		"mapped_funds":   out.Dashboard.MappedFunds,
		"mapped_masters": out.Dashboard.MappedMasters,
		"total_value":    out.Dashboard.TotalHoldingsValue,
	}).Info("Aggregates built")

	return out
}

// BuildDashboard builds the single summary record
func BuildDashboard(
	stocks []contracts.StockExposure,
	sectors []contracts.RankedCategory,
	countries []contracts.RankedCategory,
	active []contracts.BridgeLink,
	avg1y, avg3y contracts.OptFloat,
) contracts.Dashboard {
	d := contracts.Dashboard{
		Avg1YReturn: avg1y,
		Avg3YReturn: avg3y,
	}

	for _, s := range stocks {
		d.TotalHoldingsValue += s.TrueValue
	}

	if len(sectors) > 0 {
		d.TopSector = sectors[0].Name
		d.TopSectorSharePct = contracts.Float(sectors[0].AllocationSharePct)
	}
	if len(countries) > 0 {
		d.TopCountry = countries[0].Name
		d.TopCountrySharePct = contracts.Float(countries[0].AllocationSharePct)
	}

	funds := make(map[string]bool)
	masters := make(map[string]bool)
	for _, l := range active {
		funds[l.FundCode] = true
		masters[l.FtTicker] = true
	}
	d.MappedFunds = len(funds)
	d.MappedMasters = len(masters)

	return d
}
