package contracts

import "time"

// FundRecord is a domestic fund from the registry
// ⭐ SSOT: S0 → S1/S2 펀드 기준 정보
type FundRecord struct {
	FundCode string `json:"fund_code"`
	NameTH   string `json:"full_name_th"`
	NameEN   string `json:"full_name_en"`
	AMC      string `json:"amc"`
	Category string `json:"category"`
	Currency string `json:"currency"` // native currency, may be empty
	Country  string `json:"country"`
}

// FundISIN is one row of the fund-identifier-to-ISIN lookup (already normalised)
type FundISIN struct {
	FundCode string `json:"fund_code"`
	ISIN     string `json:"isin_code"`
}

// FeederHolding is a disclosed holding of type Fund in a domestic fund's latest portfolio
type FeederHolding struct {
	FundCode   string    `json:"fund_code"`
	FeederName string    `json:"feeder_name"`
	WeightPct  OptFloat  `json:"feeder_weight_pct"` // % of fund NAV
	AsOfDate   time.Time `json:"as_of_date"`
	SourceURL  string    `json:"source_url,omitempty"`
}

// MasterSecurity is the latest static record of an externally tracked fund/ETF
type MasterSecurity struct {
	FtTicker   string    `json:"ft_ticker"`
	Ticker     string    `json:"ticker"`
	Name       string    `json:"name"`
	TickerType string    `json:"ticker_type"` // Fund, ETF, ...
	ISIN       string    `json:"isin_number"`
	TotalAUM   OptFloat  `json:"assets_aum_full_value"`
	AsOfDate   time.Time `json:"date_scraper"`
}

// NavRecord is the latest NAV row per fund (non-null AUM preferred)
type NavRecord struct {
	FundCode string    `json:"fund_code"`
	AsOfDate time.Time `json:"nav_as_of_date"`
	AUM      OptFloat  `json:"aum"` // native currency
}

// FxRate is one row of the rate history; missing entries are a valid state
type FxRate struct {
	Date         time.Time `json:"date_rate"`
	FromCurrency string    `json:"from_ccy"`
	RateToBase   OptFloat  `json:"rate_to_base"`
	Source       string    `json:"source_system,omitempty"`
}

// StockHolding is a top-holding row of a master security
type StockHolding struct {
	FtTicker      string    `json:"ft_ticker"`
	HoldingName   string    `json:"holding_name"`
	HoldingTicker string    `json:"holding_ticker"`
	HoldingType   string    `json:"holding_type"`
	WeightPct     OptFloat  `json:"portfolio_weight_pct"` // % of master NAV
	AsOfDate      time.Time `json:"date_scraper"`
}

// CategoryWeight is a sector or region allocation row of a master security
type CategoryWeight struct {
	FtTicker  string    `json:"ft_ticker"`
	Category  string    `json:"category_name"`
	WeightPct OptFloat  `json:"weight_pct"`
	AsOfDate  time.Time `json:"date_scraper"`
}

// ReturnMetric is the latest average return of a master security
type ReturnMetric struct {
	FtTicker string    `json:"ft_ticker"`
	Ticker   string    `json:"ticker"`
	Return1Y OptFloat  `json:"avg_fund_return_1y"`
	Return3Y OptFloat  `json:"avg_fund_return_3y"`
	AsOfDate time.Time `json:"date_scraper"`
}

// Dataset is the complete input snapshot of one run
// ⭐ SSOT: S0 → S1 입력 스냅샷 (한 번 로드 후 불변)
type Dataset struct {
	Funds     []FundRecord     `json:"funds"`
	FundISINs []FundISIN       `json:"fund_isins"`
	Navs      []NavRecord      `json:"navs"`
	Feeders   []FeederHolding  `json:"feeders"`
	Masters   []MasterSecurity `json:"masters"`
	Stocks    []StockHolding   `json:"stocks"`
	Sectors   []CategoryWeight `json:"sectors"`
	Regions   []CategoryWeight `json:"regions"`
	Returns   []ReturnMetric   `json:"returns"`
	FxRates   []FxRate         `json:"fx_rates"` // empty when the rate table is absent
}

// Counts returns row counts per input collection, for logging
func (d *Dataset) Counts() map[string]interface{} {
	return map[string]interface{}{
		"funds":      len(d.Funds),
		"fund_isins": len(d.FundISINs),
		"navs":       len(d.Navs),
		"feeders":    len(d.Feeders),
		"masters":    len(d.Masters),
		"stocks":     len(d.Stocks),
		"sectors":    len(d.Sectors),
		"regions":    len(d.Regions),
		"returns":    len(d.Returns),
		"fx_rates":   len(d.FxRates),
	}
}
