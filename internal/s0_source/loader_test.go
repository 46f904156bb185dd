package s0_source

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fundtrace/internal/contracts"
)

func colset(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

func TestCheckColumns(t *testing.T) {
	var shape *contracts.InputShapeError

	err := checkColumns(TableFundDaily, nil, requiredColumns[TableFundDaily])
	require.ErrorAs(t, err, &shape)
	assert.Equal(t, TableFundDaily, shape.Table)
	assert.Empty(t, shape.Column)

	err = checkColumns(TableFundDaily, colset("fund_code", "nav_date"), requiredColumns[TableFundDaily])
	require.ErrorAs(t, err, &shape)
	assert.Equal(t, "aum", shape.Column)

	assert.NoError(t, checkColumns(TableFundDaily, colset("fund_code", "nav_date", "aum", "extra"), requiredColumns[TableFundDaily]))
}

func TestResolveCategory(t *testing.T) {
	tests := []struct {
		name         string
		cols         map[string]bool
		wantCategory string
		wantWeight   string
		wantErr      bool
	}{
		{"current feed", colset("category_name", "weight_pct"), "category_name", "weight_pct", false},
		{"legacy feed", colset("sector_name", "sector_weight_pct"), "sector_name", "sector_weight_pct", false},
		{"mixed prefers current", colset("category_name", "sector_name", "sector_weight_pct"), "category_name", "sector_weight_pct", false},
		{"no category", colset("weight_pct"), "", "", true},
		{"no weight", colset("sector_name"), "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := resolveCategory(TableSectorAllocation, "sector", tt.cols)
			if tt.wantErr {
				var shape *contracts.InputShapeError
				assert.ErrorAs(t, err, &shape)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCategory, c.Category)
			assert.Equal(t, tt.wantWeight, c.Weight)
		})
	}
}

func TestResolveReturns(t *testing.T) {
	c, err := resolveReturns(colset("ft_ticker", "ticker", "date_scraper", "avg_fund_return_1y", "avg_fund_return_3y", "created_at"))
	require.NoError(t, err)
	assert.Equal(t, returnColumns{Key: "ft_ticker", Date: "date_scraper", Return1Y: "avg_fund_return_1y", Return3Y: "avg_fund_return_3y", Created: "created_at"}, c)

	legacy, err := resolveReturns(colset("ticker", "as_of_date", "avg_return_1y_pct"))
	require.NoError(t, err)
	assert.Equal(t, "ticker", legacy.Key)
	assert.Empty(t, legacy.Return3Y)
	assert.Equal(t, "as_of_date", legacy.Created)

	sql := returnsSQL(legacy)
	assert.Contains(t, sql, "NULL AS r3y")
	assert.Contains(t, sql, `"avg_return_1y_pct"::text`)

	_, err = resolveReturns(colset("ticker", "avg_fund_return_1y"))
	assert.Error(t, err)
}

func TestResolveFx(t *testing.T) {
	c, err := resolveFx("daily_fx_rates", "THB", colset("date_rate", "from_ccy", "to_ccy", "rate_to_thb"))
	require.NoError(t, err)
	assert.Equal(t, "rate_to_thb", c.Rate)
	assert.Empty(t, c.Source)
	assert.Contains(t, fxSQL("fx.daily_fx_rates", c), `FROM "fx"."daily_fx_rates"`)
	// NULL from_ccy 는 빈 문자열로 읽혀 resolver 에서 무시됨
	assert.Contains(t, fxSQL("fx.daily_fx_rates", c), `COALESCE(UPPER(TRIM(from_ccy::text)), '')`)

	c, err = resolveFx("daily_fx_rates", "THB", colset("date_rate", "from_ccy", "to_ccy", "rate_to_base", "rate_to_thb", "source_system"))
	require.NoError(t, err)
	assert.Equal(t, "rate_to_base", c.Rate)
	assert.Contains(t, fxSQL("daily_fx_rates", c), `COALESCE("source_system"::text, '')`)

	_, err = resolveFx("daily_fx_rates", "THB", colset("date_rate", "from_ccy", "to_ccy", "rate"))
	assert.Error(t, err)
}

func TestCategorySQL_QuotesIdentifiers(t *testing.T) {
	sql := categorySQL(TableRegionAllocation, categoryColumns{Category: "region_name", Weight: "region_weight_pct"})
	assert.Contains(t, sql, `FROM "ft_region_allocation" a`)
	assert.Contains(t, sql, `a."region_name"::text`)
	assert.Contains(t, sql, `a."region_weight_pct"::text`)
}

func TestMastersSQL_CreatedAtFallback(t *testing.T) {
	assert.Contains(t, mastersSQL(colset("created_at")), `"created_at" DESC`)
	assert.Contains(t, mastersSQL(colset()), `date_scraper DESC, "date_scraper" DESC`)
}

func TestAttach(t *testing.T) {
	masters := []contracts.MasterSecurity{
		{FtTicker: "FT1", Ticker: "T1"},
		{FtTicker: "FT2", Ticker: "T1"},
		{FtTicker: "FT3", Ticker: "T3"},
		{FtTicker: "FT4"},
	}
	idx := tickerIndex(masters)

	stocks := attachStocks([]contracts.StockHolding{
		{FtTicker: "T1", HoldingName: "Apple"},
		{FtTicker: "T9", HoldingName: "Orphan"},
		{FtTicker: "T3", HoldingName: "Sony"},
	}, idx)
	require.Len(t, stocks, 3)
	assert.Equal(t, []string{"FT1", "FT2", "FT3"}, []string{stocks[0].FtTicker, stocks[1].FtTicker, stocks[2].FtTicker})
	assert.Equal(t, "Apple", stocks[1].HoldingName)

	cats := attachCategories([]contracts.CategoryWeight{{FtTicker: "T3", Category: "Japan"}, {FtTicker: ""}}, idx)
	require.Len(t, cats, 1)
	assert.Equal(t, "FT3", cats[0].FtTicker)
}

func TestParseOpt(t *testing.T) {
	assert.False(t, parseOpt(nil).Valid)
	s := " 1,234.5 "
	assert.Equal(t, contracts.Float(1234.5), parseOpt(&s))
	bad := "n/a"
	assert.False(t, parseOpt(&bad).Valid)
}

func TestPrintInventory(t *testing.T) {
	d := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	PrintInventory(&buf, []TableStat{
		{Database: "source", Table: TableFundDaily, Exists: true, Rows: 42, LatestDate: &d},
		{Database: "fx", Table: "daily_fx_rates"},
	})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "2026-10-01")
	assert.Contains(t, lines[2], "false")
}

// Key columns scanned into plain strings must never come back NULL
func TestQueries_NullSafeKeyColumns(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want []string
	}{
		{"fund isins", fundISINsSQL, []string{"COALESCE(fund_code::text, '')", "fund_code IS NOT NULL"}},
		{"navs", navsSQL, []string{"COALESCE(fund_code::text, '')", "WHERE fund_code IS NOT NULL"}},
		{"feeders", feedersSQL, []string{"COALESCE(h.fund_code::text, '')"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, w := range tt.want {
				assert.Contains(t, tt.sql, w)
			}
		})
	}
}
