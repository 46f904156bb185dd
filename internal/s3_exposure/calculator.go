package s3_exposure

import (
	"sort"
	"strings"
	"time"

	"github.com/wonny/fundtrace/internal/contracts"
	"github.com/wonny/fundtrace/internal/traceconfig"
	"github.com/wonny/fundtrace/pkg/logger"
)

// Calculator cascades bridge weights through master breakdowns
type Calculator struct {
	regions *RegionClassifier
	logger  *logger.Logger
}

// Result holds the three exposure fact tables
type Result struct {
	Stocks  []contracts.StockExposure
	Sectors []contracts.SectorExposure
	Regions []contracts.RegionExposure
}

// NewCalculator creates a new exposure Calculator
func NewCalculator(cfg *traceconfig.Config, log *logger.Logger) *Calculator {
	return &Calculator{
		regions: NewRegionClassifier(cfg.Regions),
		logger:  log,
	}
}

// Calculate joins active links to the deduplicated stock/sector/region weights
// of their master and values each row with the fund's base-currency AUM.
//
//	true_weight_pct = feeder_weight_pct_norm × weight_pct / 100
//	true_value      = aum × true_weight_pct / 100
//
// ⭐ SSOT: S3 노출 계산
func (c *Calculator) Calculate(
	links []contracts.BridgeLink,
	navs map[string]*contracts.NavFx,
	ds *contracts.Dataset,
) *Result {
	stocksByMaster := groupStocks(dedupStocks(ds.Stocks))
	sectorsByMaster := groupCategories(dedupCategories(ds.Sectors))
	regionsByMaster := groupCategories(dedupCategories(ds.Regions))

	res := &Result{
		Stocks:  make([]contracts.StockExposure, 0),
		Sectors: make([]contracts.SectorExposure, 0),
		Regions: make([]contracts.RegionExposure, 0),
	}

	for _, link := range links {
		if !link.Active() {
			continue
		}
		nav := navs[link.FundCode]

		for _, h := range stocksByMaster[link.FtTicker] {
			w := h.WeightPct.Or(0)
			tw, tv := cascade(link.FeederWeightPctNorm, w, nav)

			tickerNorm := normalizeLabel(h.HoldingTicker)
			nameNorm := normalizeLabel(h.HoldingName)
			key := tickerNorm
			if key == "" {
				key = nameNorm
			}

			res.Stocks = append(res.Stocks, contracts.StockExposure{
				Provenance:         provenance(link, nav, h.AsOfDate),
				HoldingName:        h.HoldingName,
				HoldingTicker:      h.HoldingTicker,
				HoldingType:        h.HoldingType,
				PortfolioWeightPct: w,
				TrueWeightPct:      tw,
				TrueValue:          tv,
				HoldingTickerNorm:  tickerNorm,
				HoldingNameNorm:    nameNorm,
				HoldingKey:         key,
			})
		}

		for _, s := range sectorsByMaster[link.FtTicker] {
			w := s.WeightPct.Or(0)
			tw, tv := cascade(link.FeederWeightPctNorm, w, nav)
			res.Sectors = append(res.Sectors, contracts.SectorExposure{
				Provenance:      provenance(link, nav, s.AsOfDate),
				SectorName:      s.Category,
				SectorWeightPct: w,
				TrueWeightPct:   tw,
				TrueValue:       tv,
			})
		}

		for _, r := range regionsByMaster[link.FtTicker] {
			w := r.WeightPct.Or(0)
			tw, tv := cascade(link.FeederWeightPctNorm, w, nav)
			res.Regions = append(res.Regions, contracts.RegionExposure{
				Provenance:      provenance(link, nav, r.AsOfDate),
				RegionName:      r.Category,
				RegionWeightPct: w,
				TrueWeightPct:   tw,
				TrueValue:       tv,
				IsCountryLike:   c.regions.IsCountryLike(r.Category),
			})
		}
	}

	sortStocks(res.Stocks)
	sortSectors(res.Sectors)
	sortRegions(res.Regions)

	c.logger.WithFields(map[string]interface{}{
		"links":        len(links),
		"stock_rows":   len(res.Stocks),
		"sector_rows":  len(res.Sectors),
		"region_rows":  len(res.Regions),
		"missing_navs": countMissingNavs(links, navs),
	}).Info("Exposure calculated")

	return res
}

// cascade returns (true_weight_pct, true_value); negative source weights count as 0
func cascade(normPct, weightPct float64, nav *contracts.NavFx) (float64, float64) {
	if normPct < 0 {
		normPct = 0
	}
	if weightPct < 0 {
		weightPct = 0
	}
	tw := normPct * weightPct / 100
	aum := 0.0
	if nav != nil && nav.AUM > 0 {
		aum = nav.AUM
	}
	return tw, aum * tw / 100
}

func provenance(link contracts.BridgeLink, nav *contracts.NavFx, asOf time.Time) contracts.Provenance {
	p := contracts.Provenance{
		FundCode:            link.FundCode,
		FtTicker:            link.FtTicker,
		Ticker:              link.Ticker,
		MapMethod:           link.MapMethod,
		FeederName:          link.FeederName,
		FeederWeightPct:     link.FeederWeightPct,
		FeederWeightPctNorm: link.FeederWeightPctNorm,
		AsOfDate:            asOf,
	}
	if nav != nil {
		p.AUM = nav.AUM
		p.Nav = nav
	}
	return p
}

func normalizeLabel(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func countMissingNavs(links []contracts.BridgeLink, navs map[string]*contracts.NavFx) int {
	missing := make(map[string]bool)
	for _, l := range links {
		if l.Active() && navs[l.FundCode] == nil {
			missing[l.FundCode] = true
		}
	}
	return len(missing)
}

func sortStocks(rows []contracts.StockExposure) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.FundCode != b.FundCode {
			return a.FundCode < b.FundCode
		}
		if a.FtTicker != b.FtTicker {
			return a.FtTicker < b.FtTicker
		}
		if a.HoldingKey != b.HoldingKey {
			return a.HoldingKey < b.HoldingKey
		}
		if a.HoldingName != b.HoldingName {
			return a.HoldingName < b.HoldingName
		}
		if a.HoldingType != b.HoldingType {
			return a.HoldingType < b.HoldingType
		}
		return a.AsOfDate.Before(b.AsOfDate)
	})
}

func sortSectors(rows []contracts.SectorExposure) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.FundCode != b.FundCode {
			return a.FundCode < b.FundCode
		}
		if a.FtTicker != b.FtTicker {
			return a.FtTicker < b.FtTicker
		}
		if a.SectorName != b.SectorName {
			return a.SectorName < b.SectorName
		}
		return a.AsOfDate.Before(b.AsOfDate)
	})
}

func sortRegions(rows []contracts.RegionExposure) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.FundCode != b.FundCode {
			return a.FundCode < b.FundCode
		}
		if a.FtTicker != b.FtTicker {
			return a.FtTicker < b.FtTicker
		}
		if a.RegionName != b.RegionName {
			return a.RegionName < b.RegionName
		}
		return a.AsOfDate.Before(b.AsOfDate)
	})
}
