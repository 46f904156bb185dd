package mart

import (
	"time"

	"github.com/wonny/fundtrace/internal/contracts"
)

// Column is one mart column with its Postgres type
type Column struct {
	Name string
	Type string
}

// Table describes one materialized mart table and how to flatten the output set into it
type Table struct {
	Name    string
	Columns []Column
	Rows    func(out *contracts.OutputSet) [][]any
}

// ColumnNames returns the column names in order
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

var (
	fxColumns = []Column{
		{"nav_as_of_date", "date"},
		{"aum_native", "double precision"},
		{"fund_currency", "text"},
		{"fx_rate_to_base", "double precision"},
		{"fx_rate_date", "date"},
		{"fx_rate_status", "text"},
	}

	holdingColumns = []Column{
		{"rank_no", "integer"},
		{"holding_key", "text"},
		{"holding_name", "text"},
		{"holding_ticker", "text"},
		{"holding_type", "text"},
		{"total_true_weight_pct", "double precision"},
		{"total_true_value", "double precision"},
		{"allocation_share_pct", "double precision"},
	}
)

func rankedCategory(nameCol string) []Column {
	return []Column{
		{"rank_no", "integer"},
		{nameCol, "text"},
		{"total_true_weight_pct", "double precision"},
		{"total_true_value", "double precision"},
		{"allocation_share_pct", "double precision"},
	}
}

func concat(groups ...[]Column) []Column {
	var out []Column
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// Tables lists every mart table in write order
// ⭐ SSOT: 마트 테이블 스키마
func Tables() []Table {
	provenanceHead := []Column{
		{"fund_code", "text"},
		{"ft_ticker", "text"},
		{"ticker", "text"},
		{"map_method", "text"},
		{"feeder_name", "text"},
	}
	provenanceTail := concat([]Column{
		{"feeder_weight_pct", "double precision"},
		{"feeder_weight_pct_norm", "double precision"},
		{"true_weight_pct", "double precision"},
		{"aum", "double precision"},
	}, fxColumns, []Column{
		{"true_value", "double precision"},
		{"as_of_date", "date"},
	})

	return []Table{
		{
			Name: "bridge_thai_master",
			Columns: []Column{
				{"fund_code", "text"},
				{"feeder_name", "text"},
				{"feeder_weight_pct", "double precision"},
				{"feeder_weight_pct_norm", "double precision"},
				{"as_of_date", "date"},
				{"token", "text"},
				{"token_isin", "text"},
				{"ft_ticker", "text"},
				{"ticker", "text"},
				{"master_name", "text"},
				{"ticker_type", "text"},
				{"map_method", "text"},
				{"map_priority", "integer"},
			},
			Rows: bridgeRows,
		},
		{
			Name: "stg_nav_aum_native",
			Columns: concat([]Column{{"fund_code", "text"}}, fxColumns, []Column{
				{"aum", "double precision"},
			}),
			Rows: navRows,
		},
		{
			Name: "fact_effective_exposure_stock",
			Columns: concat(provenanceHead, []Column{
				{"holding_name", "text"},
				{"holding_ticker", "text"},
				{"holding_type", "text"},
				{"portfolio_weight_pct", "double precision"},
			}, provenanceTail, []Column{
				{"holding_ticker_norm", "text"},
				{"holding_name_norm", "text"},
				{"holding_key", "text"},
			}),
			Rows: stockRows,
		},
		{
			Name: "fact_effective_exposure_sector",
			Columns: concat(provenanceHead, []Column{
				{"sector_name", "text"},
				{"sector_weight_pct", "double precision"},
			}, provenanceTail),
			Rows: sectorRows,
		},
		{
			Name: "fact_effective_exposure_region",
			Columns: concat(provenanceHead, []Column{
				{"region_name", "text"},
				{"region_weight_pct", "double precision"},
			}, provenanceTail, []Column{
				{"is_country_like", "boolean"},
			}),
			Rows: regionRows,
		},
		{
			Name:    "agg_top_holdings",
			Columns: holdingColumns,
			Rows:    func(out *contracts.OutputSet) [][]any { return holdingRows(out.TopHoldings) },
		},
		{
			Name:    "agg_top_holdings_topn",
			Columns: holdingColumns,
			Rows:    func(out *contracts.OutputSet) [][]any { return holdingRows(out.TopHoldingsN()) },
		},
		{
			Name:    "agg_sector_exposure",
			Columns: rankedCategory("sector_name"),
			Rows:    func(out *contracts.OutputSet) [][]any { return categoryRows(out.Sectoral) },
		},
		{
			Name:    "agg_sector_exposure_topn",
			Columns: rankedCategory("sector_name"),
			Rows:    func(out *contracts.OutputSet) [][]any { return categoryRows(out.SectoralN()) },
		},
		{
			Name:    "agg_country_exposure",
			Columns: rankedCategory("region_name"),
			Rows:    func(out *contracts.OutputSet) [][]any { return categoryRows(out.Countries) },
		},
		{
			Name:    "agg_country_exposure_topn",
			Columns: rankedCategory("region_name"),
			Rows:    func(out *contracts.OutputSet) [][]any { return categoryRows(out.CountriesN()) },
		},
		{
			Name: "agg_region_exposure",
			Columns: []Column{
				{"region_name", "text"},
				{"is_country_like", "boolean"},
				{"total_true_weight_pct", "double precision"},
				{"total_true_value", "double precision"},
				{"allocation_share_pct", "double precision"},
			},
			Rows: regionGroupRows,
		},
		{
			Name: "agg_fund_coverage",
			Columns: concat([]Column{
				{"fund_code", "text"},
				{"raw_total_fund_holdings_pct", "double precision"},
				{"total_fund_holdings_pct", "double precision"},
				{"mapped_holdings_pct", "double precision"},
				{"coverage_ratio", "double precision"},
			}, fxColumns, []Column{
				{"aum", "double precision"},
			}),
			Rows: coverageRows,
		},
		{
			Name: "agg_dashboard_cards",
			Columns: []Column{
				{"base_currency", "text"},
				{"total_holdings_value", "double precision"},
				{"top_sector_name", "text"},
				{"top_sector_weight_pct", "double precision"},
				{"top_country_name", "text"},
				{"top_country_weight_pct", "double precision"},
				{"avg_fund_return_1y", "double precision"},
				{"avg_fund_return_3y", "double precision"},
				{"mapped_fund_count", "integer"},
				{"mapped_master_count", "integer"},
			},
			Rows: dashboardRows,
		},
	}
}

func bridgeRows(out *contracts.OutputSet) [][]any {
	rows := make([][]any, 0, len(out.Bridge))
	for _, l := range out.Bridge {
		rows = append(rows, []any{
			l.FundCode, l.FeederName, l.FeederWeightPct, l.FeederWeightPctNorm, nullDate(l.AsOfDate),
			nullString(l.Token), nullString(l.TokenISIN), l.FtTicker, l.Ticker, l.MasterName, l.TickerType,
			l.MapMethod.String(), l.MapMethod.Priority(),
		})
	}
	return rows
}

func navRows(out *contracts.OutputSet) [][]any {
	rows := make([][]any, 0, len(out.Navs))
	for i := range out.Navs {
		n := &out.Navs[i]
		rows = append(rows, concatValues([]any{n.FundCode}, fxValues(n), []any{n.AUM}))
	}
	return rows
}

func stockRows(out *contracts.OutputSet) [][]any {
	rows := make([][]any, 0, len(out.Stocks))
	for _, s := range out.Stocks {
		rows = append(rows, concatValues(
			provenanceHeadValues(s.Provenance),
			[]any{s.HoldingName, nullString(s.HoldingTicker), s.HoldingType, s.PortfolioWeightPct},
			provenanceTailValues(s.Provenance, s.TrueWeightPct, s.TrueValue),
			[]any{s.HoldingTickerNorm, s.HoldingNameNorm, s.HoldingKey},
		))
	}
	return rows
}

func sectorRows(out *contracts.OutputSet) [][]any {
	rows := make([][]any, 0, len(out.Sectors))
	for _, s := range out.Sectors {
		rows = append(rows, concatValues(
			provenanceHeadValues(s.Provenance),
			[]any{s.SectorName, s.SectorWeightPct},
			provenanceTailValues(s.Provenance, s.TrueWeightPct, s.TrueValue),
		))
	}
	return rows
}

func regionRows(out *contracts.OutputSet) [][]any {
	rows := make([][]any, 0, len(out.Regions))
	for _, r := range out.Regions {
		rows = append(rows, concatValues(
			provenanceHeadValues(r.Provenance),
			[]any{r.RegionName, r.RegionWeightPct},
			provenanceTailValues(r.Provenance, r.TrueWeightPct, r.TrueValue),
			[]any{r.IsCountryLike},
		))
	}
	return rows
}

func holdingRows(holdings []contracts.RankedHolding) [][]any {
	rows := make([][]any, 0, len(holdings))
	for _, h := range holdings {
		rows = append(rows, []any{
			h.RankNo, h.HoldingKey, h.HoldingName, nullString(h.HoldingTickerNorm), h.HoldingType,
			h.TotalTrueWeightPct, h.TotalTrueValue, h.AllocationSharePct,
		})
	}
	return rows
}

func categoryRows(cats []contracts.RankedCategory) [][]any {
	rows := make([][]any, 0, len(cats))
	for _, c := range cats {
		rows = append(rows, []any{c.RankNo, c.Name, c.TotalTrueWeightPct, c.TotalTrueValue, c.AllocationSharePct})
	}
	return rows
}

func regionGroupRows(out *contracts.OutputSet) [][]any {
	rows := make([][]any, 0, len(out.RegionGroups))
	for _, g := range out.RegionGroups {
		rows = append(rows, []any{g.RegionName, g.IsCountryLike, g.TotalTrueWeightPct, g.TotalTrueValue, g.AllocationSharePct})
	}
	return rows
}

func coverageRows(out *contracts.OutputSet) [][]any {
	rows := make([][]any, 0, len(out.Coverage))
	for _, c := range out.Coverage {
		var aum any
		if c.Nav != nil {
			aum = c.Nav.AUM
		}
		rows = append(rows, concatValues(
			[]any{c.FundCode, c.RawTotalPct, c.TotalPct, c.MappedPct, c.CoverageRatio.Ptr()},
			fxValues(c.Nav),
			[]any{aum},
		))
	}
	return rows
}

func dashboardRows(out *contracts.OutputSet) [][]any {
	d := out.Dashboard
	return [][]any{{
		out.BaseCurrency,
		d.TotalHoldingsValue,
		nullString(d.TopSector), d.TopSectorSharePct.Ptr(),
		nullString(d.TopCountry), d.TopCountrySharePct.Ptr(),
		d.Avg1YReturn.Ptr(), d.Avg3YReturn.Ptr(),
		d.MappedFunds, d.MappedMasters,
	}}
}

// provenanceHeadValues: fund_code, ft_ticker, ticker, map_method, feeder_name
func provenanceHeadValues(p contracts.Provenance) []any {
	return []any{p.FundCode, p.FtTicker, p.Ticker, p.MapMethod.String(), p.FeederName}
}

// provenanceTailValues: weights, aum, fx provenance, true_value, as_of_date
func provenanceTailValues(p contracts.Provenance, trueWeight, trueValue float64) []any {
	return concatValues(
		[]any{p.FeederWeightPct, p.FeederWeightPctNorm, trueWeight, p.AUM},
		fxValues(p.Nav),
		[]any{trueValue, nullDate(p.AsOfDate)},
	)
}

// fxValues: nav_as_of_date, aum_native, fund_currency, fx_rate_to_base, fx_rate_date, fx_rate_status.
// All null when the fund has no NAV row.
func fxValues(n *contracts.NavFx) []any {
	if n == nil {
		return []any{nil, nil, nil, nil, nil, nil}
	}
	return []any{
		nullDate(n.NavAsOfDate), n.AUMNative, n.FundCurrency, n.FxRateToBase,
		nullDate(n.FxRateDate), string(n.FxStatus),
	}
}

func concatValues(groups ...[]any) []any {
	n := 0
	for _, g := range groups {
		n += len(g)
	}
	out := make([]any, 0, n)
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullDate(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

