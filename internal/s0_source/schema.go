package s0_source

import (
	"context"
	"strings"

	"github.com/wonny/fundtrace/internal/contracts"
	"github.com/wonny/fundtrace/pkg/database"
)

// Source tables (domestic fund registry)
const (
	TableFundMaster  = "funds_master_info"
	TableFundCodes   = "funds_codes"
	TableFundDaily   = "funds_daily"
	TableFundHolding = "funds_holding"
)

// Master feed tables
const (
	TableStaticDetail     = "ft_static_detail"
	TableHoldings         = "ft_holdings"
	TableSectorAllocation = "ft_sector_allocation"
	TableRegionAllocation = "ft_region_allocation"
	TableFundReturn       = "ft_avg_fund_return"
)

// requiredColumns lists the fixed columns each table must carry.
// Drifting columns are resolved separately (see resolve* below).
var requiredColumns = map[string][]string{
	TableFundMaster:       {"fund_code", "full_name_th", "full_name_en", "amc", "category", "currency", "country"},
	TableFundCodes:        {"fund_code", "type", "code"},
	TableFundDaily:        {"fund_code", "nav_date", "aum"},
	TableFundHolding:      {"fund_code", "name", "percent", "as_of_date", "type", "source_url"},
	TableStaticDetail:     {"ft_ticker", "ticker", "name", "ticker_type", "isin_number", "date_scraper", "assets_aum_full_value"},
	TableHoldings:         {"ticker", "holding_name", "holding_ticker", "holding_type", "portfolio_weight_pct", "date_scraper", "allocation_type"},
	TableSectorAllocation: {"ticker", "date_scraper"},
	TableRegionAllocation: {"ticker", "date_scraper"},
	TableFundReturn:       {"ticker"},
}

// checkColumns returns an InputShapeError for the first missing column.
// An empty column set means the table itself is missing.
func checkColumns(table string, cols map[string]bool, required []string) error {
	if len(cols) == 0 {
		return contracts.MissingTable(table)
	}
	for _, c := range required {
		if !cols[c] {
			return contracts.MissingColumn(table, c)
		}
	}
	return nil
}

// inspect reads the column set of table and checks its fixed columns
func inspect(ctx context.Context, q database.Querier, table string) (map[string]bool, error) {
	cols, err := database.TableColumns(ctx, q, table)
	if err != nil {
		return nil, err
	}
	if err := checkColumns(table, cols, requiredColumns[table]); err != nil {
		return nil, err
	}
	return cols, nil
}

// categoryColumns are the resolved column names of a sector/region allocation table
type categoryColumns struct {
	Category string
	Weight   string
}

// resolveCategory picks category_name|<dim>_name and weight_pct|<dim>_weight_pct
func resolveCategory(table, dim string, cols map[string]bool) (categoryColumns, error) {
	c := categoryColumns{
		Category: database.FirstPresent(cols, "category_name", dim+"_name"),
		Weight:   database.FirstPresent(cols, "weight_pct", dim+"_weight_pct"),
	}
	if c.Category == "" {
		return c, contracts.MissingColumn(table, "category_name|"+dim+"_name")
	}
	if c.Weight == "" {
		return c, contracts.MissingColumn(table, "weight_pct|"+dim+"_weight_pct")
	}
	return c, nil
}

// returnColumns are the resolved column names of the return metric table.
// Return3Y is "" when the feed has no 3y column.
type returnColumns struct {
	Key      string
	Date     string
	Return1Y string
	Return3Y string
	Created  string
}

func resolveReturns(cols map[string]bool) (returnColumns, error) {
	c := returnColumns{
		Key:      database.FirstPresent(cols, "ft_ticker", "ticker"),
		Date:     database.FirstPresent(cols, "date_scraper", "as_of_date"),
		Return1Y: database.FirstPresent(cols, "avg_fund_return_1y", "avg_return_1y_pct"),
		Return3Y: database.FirstPresent(cols, "avg_fund_return_3y"),
	}
	if c.Date == "" {
		return c, contracts.MissingColumn(TableFundReturn, "date_scraper|as_of_date")
	}
	if c.Return1Y == "" {
		return c, contracts.MissingColumn(TableFundReturn, "avg_fund_return_1y|avg_return_1y_pct")
	}
	c.Created = database.FirstPresent(cols, "created_at")
	if c.Created == "" {
		c.Created = c.Date
	}
	return c, nil
}

// fxColumns are the resolved columns of the FX rate table
type fxColumns struct {
	Rate   string
	Source string // "" when the table has no source_system column
}

func resolveFx(table, base string, cols map[string]bool) (fxColumns, error) {
	if err := checkColumns(table, cols, []string{"date_rate", "from_ccy", "to_ccy"}); err != nil {
		return fxColumns{}, err
	}
	rate := database.FirstPresent(cols, "rate_to_base", "rate_to_"+strings.ToLower(base))
	if rate == "" {
		return fxColumns{}, contracts.MissingColumn(table, "rate_to_base")
	}
	return fxColumns{Rate: rate, Source: database.FirstPresent(cols, "source_system")}, nil
}
