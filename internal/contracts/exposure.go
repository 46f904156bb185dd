package contracts

import "time"

// FxStatus explains how a fund's conversion rate was obtained
type FxStatus string

const (
	FxBaseCurrency   FxStatus = "base_currency"
	FxExactOrLatest  FxStatus = "exact_or_latest"
	FxDefaultMissing FxStatus = "default_1_missing_fx"
	FxDefaultNoTable FxStatus = "default_1_no_fx_table"
)

// AllFxStatuses returns every status in resolution order
func AllFxStatuses() []FxStatus {
	return []FxStatus{FxBaseCurrency, FxExactOrLatest, FxDefaultMissing, FxDefaultNoTable}
}

// IsDefaulted reports whether the rate fell back to 1 for a non-base currency
func (s FxStatus) IsDefaulted() bool {
	return s == FxDefaultMissing || s == FxDefaultNoTable
}

// NavFx is a NAV row resolved to the base currency
// ⭐ SSOT: S2 → S3 기준통화 환산 AUM
type NavFx struct {
	FundCode     string    `json:"fund_code"`
	NavAsOfDate  time.Time `json:"nav_as_of_date"`
	AUMNative    float64   `json:"aum_native"`
	AUM          float64   `json:"aum"` // base currency
	FundCurrency string    `json:"fund_currency"`
	FxRateToBase float64   `json:"fx_rate_to_base"`
	FxRateDate   time.Time `json:"fx_rate_date"`
	FxStatus     FxStatus  `json:"fx_rate_status"`
}

// Provenance carries the bridge and FX context of an exposure fact row.
// Nav is nil when the fund has no NAV row; AUM is then 0.
type Provenance struct {
	FundCode            string    `json:"fund_code"`
	FtTicker            string    `json:"ft_ticker"`
	Ticker              string    `json:"ticker"`
	MapMethod           MapMethod `json:"map_method"`
	FeederName          string    `json:"feeder_name"`
	FeederWeightPct     float64   `json:"feeder_weight_pct"`
	FeederWeightPctNorm float64   `json:"feeder_weight_pct_norm"`
	AUM                 float64   `json:"aum"`
	Nav                 *NavFx    `json:"nav,omitempty"`
	AsOfDate            time.Time `json:"date_scraper"` // holding breakdown date
}

// StockExposure is one (fund, master, holding) look-through row
type StockExposure struct {
	Provenance
	HoldingName        string  `json:"holding_name"`
	HoldingTicker      string  `json:"holding_ticker"`
	HoldingType        string  `json:"holding_type"`
	PortfolioWeightPct float64 `json:"portfolio_weight_pct"`
	TrueWeightPct      float64 `json:"true_weight_pct"`
	TrueValue          float64 `json:"true_value"`
	HoldingTickerNorm  string  `json:"holding_ticker_norm"`
	HoldingNameNorm    string  `json:"holding_name_norm"`
	HoldingKey         string  `json:"holding_key"`
}

// SectorExposure is one (fund, master, sector) look-through row
type SectorExposure struct {
	Provenance
	SectorName      string  `json:"sector_name"`
	SectorWeightPct float64 `json:"sector_weight_pct"`
	TrueWeightPct   float64 `json:"true_weight_pct"`
	TrueValue       float64 `json:"true_value"`
}

// RegionExposure is one (fund, master, region) look-through row
type RegionExposure struct {
	Provenance
	RegionName      string  `json:"region_name"`
	RegionWeightPct float64 `json:"region_weight_pct"`
	TrueWeightPct   float64 `json:"true_weight_pct"`
	TrueValue       float64 `json:"true_value"`
	IsCountryLike   bool    `json:"is_country_like"`
}
