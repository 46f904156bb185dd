package contracts

// FundCoverage measures how much of a fund's disclosed feeder book resolved through the bridge
// ⭐ SSOT: S4 커버리지 (fund_code 당 1 row)
type FundCoverage struct {
	FundCode      string   `json:"fund_code"`
	RawTotalPct   float64  `json:"feeder_weight_pct_total_raw"` // pre-filter, unclipped
	TotalPct      float64  `json:"feeder_weight_pct_total"`     // min(raw, 100)
	MappedPct     float64  `json:"mapped_feeder_weight_pct"`
	CoverageRatio OptFloat `json:"coverage_ratio"` // null when TotalPct == 0
	Nav           *NavFx   `json:"nav,omitempty"`
}

// RankedHolding is one row of the top holdings ranking
type RankedHolding struct {
	RankNo             int     `json:"rank_no"` // 1-based, unique
	HoldingKey         string  `json:"holding_key"`
	HoldingName        string  `json:"holding_name"`
	HoldingTickerNorm  string  `json:"holding_ticker_norm"`
	HoldingType        string  `json:"holding_type"`
	TotalTrueValue     float64 `json:"total_true_value"`
	TotalTrueWeightPct float64 `json:"total_true_weight_pct"`
	AllocationSharePct float64 `json:"allocation_share_pct"`
}

// RankedCategory is one row of a sector or country ranking
type RankedCategory struct {
	RankNo             int     `json:"rank_no"`
	Name               string  `json:"name"`
	TotalTrueValue     float64 `json:"total_true_value"`
	TotalTrueWeightPct float64 `json:"total_true_weight_pct"`
	AllocationSharePct float64 `json:"allocation_share_pct"`
}

// RegionAggregate is one (region label, country-like flag) group of region exposure
type RegionAggregate struct {
	RegionName         string  `json:"region_name"`
	IsCountryLike      bool    `json:"is_country_like"`
	TotalTrueValue     float64 `json:"total_true_value"`
	TotalTrueWeightPct float64 `json:"total_true_weight_pct"`
	AllocationSharePct float64 `json:"allocation_share_pct"`
}

// Dashboard is the single summary record of a run
type Dashboard struct {
	TotalHoldingsValue float64  `json:"total_holdings_value"`
	TopSector          string   `json:"top_sector"`
	TopSectorSharePct  OptFloat `json:"top_sector_share_pct"`
	TopCountry         string   `json:"top_country"`
	TopCountrySharePct OptFloat `json:"top_country_share_pct"`
	Avg1YReturn        OptFloat `json:"avg_1y_return"`
	Avg3YReturn        OptFloat `json:"avg_3y_return"`
	MappedFunds        int      `json:"mapped_funds"`
	MappedMasters      int      `json:"mapped_masters"`
}

// OutputSet is the complete result of one run
// ⭐ SSOT: S4 → S5 마트 전체 교체 단위
type OutputSet struct {
	BaseCurrency string `json:"base_currency"`
	TopN         int    `json:"top_n"`

	Navs    []NavFx          `json:"navs"`
	Bridge  []BridgeLink     `json:"bridge"`
	Stocks  []StockExposure  `json:"stocks"`
	Sectors []SectorExposure `json:"sectors"`
	Regions []RegionExposure `json:"regions"`

	Coverage     []FundCoverage    `json:"coverage"`
	TopHoldings  []RankedHolding   `json:"top_holdings"`
	Sectoral     []RankedCategory  `json:"sector_exposure"`
	Countries    []RankedCategory  `json:"country_exposure"`
	RegionGroups []RegionAggregate `json:"region_exposure"`
	Dashboard    Dashboard         `json:"dashboard"`
}

// TopHoldingsN returns the head(TopN) of the holdings ranking
func (o *OutputSet) TopHoldingsN() []RankedHolding {
	return headHoldings(o.TopHoldings, o.TopN)
}

// SectoralN returns the head(TopN) of the sector ranking
func (o *OutputSet) SectoralN() []RankedCategory {
	return headCategories(o.Sectoral, o.TopN)
}

// CountriesN returns the head(TopN) of the country ranking
func (o *OutputSet) CountriesN() []RankedCategory {
	return headCategories(o.Countries, o.TopN)
}

// ActiveBridge returns the links that took part in normalisation
func (o *OutputSet) ActiveBridge() []BridgeLink {
	active := make([]BridgeLink, 0, len(o.Bridge))
	for _, l := range o.Bridge {
		if l.Active() {
			active = append(active, l)
		}
	}
	return active
}

// RowCounts returns row counts per output table
func (o *OutputSet) RowCounts() map[string]int {
	return map[string]int{
		"stg_nav_aum_native":             len(o.Navs),
		"bridge_thai_master":             len(o.Bridge),
		"fact_effective_exposure_stock":  len(o.Stocks),
		"fact_effective_exposure_sector": len(o.Sectors),
		"fact_effective_exposure_region": len(o.Regions),
		"agg_fund_coverage":              len(o.Coverage),
		"agg_top_holdings":               len(o.TopHoldings),
		"agg_top_holdings_topn":          len(o.TopHoldingsN()),
		"agg_sector_exposure":            len(o.Sectoral),
		"agg_sector_exposure_topn":       len(o.SectoralN()),
		"agg_country_exposure":           len(o.Countries),
		"agg_country_exposure_topn":      len(o.CountriesN()),
		"agg_region_exposure":            len(o.RegionGroups),
		"agg_dashboard_cards":            1,
	}
}

func headHoldings(rows []RankedHolding, n int) []RankedHolding {
	if n <= 0 || n >= len(rows) {
		return rows
	}
	return rows[:n]
}

func headCategories(rows []RankedCategory, n int) []RankedCategory {
	if n <= 0 || n >= len(rows) {
		return rows
	}
	return rows[:n]
}
