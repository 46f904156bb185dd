package s0_source

import (
	"fmt"

	"github.com/wonny/fundtrace/pkg/database"
)

// Numeric columns are read as text and parsed with contracts.ParseFloat so that
// unparseable values become null instead of failing the whole load.

const fundsSQL = `
	SELECT
		COALESCE(fund_code::text, ''),
		COALESCE(full_name_th::text, ''),
		COALESCE(full_name_en::text, ''),
		COALESCE(amc::text, ''),
		COALESCE(category::text, ''),
		COALESCE(currency::text, ''),
		COALESCE(country::text, '')
	FROM funds_master_info
	ORDER BY fund_code
`

const fundISINsSQL = `
	SELECT COALESCE(fund_code::text, ''), UPPER(TRIM(code::text))
	FROM funds_codes
	WHERE type = 'ISIN' AND fund_code IS NOT NULL AND code IS NOT NULL AND TRIM(code::text) <> ''
	ORDER BY fund_code, code
`

// 최신 NAV: AUM 있는 행 우선, 그 다음 최신 날짜
const navsSQL = `
	WITH ranked AS (
		SELECT
			fund_code,
			nav_date,
			aum,
			ROW_NUMBER() OVER (
				PARTITION BY fund_code
				ORDER BY (aum IS NOT NULL) DESC, nav_date DESC
			) AS rn
		FROM funds_daily
		WHERE fund_code IS NOT NULL
	)
	SELECT COALESCE(fund_code::text, ''), nav_date::date, aum::text
	FROM ranked
	WHERE rn = 1
	ORDER BY fund_code
`

const feedersSQL = `
	WITH latest AS (
		SELECT fund_code, MAX(as_of_date) AS as_of_date
		FROM funds_holding
		GROUP BY fund_code
	)
	SELECT
		COALESCE(h.fund_code::text, ''),
		COALESCE(h.name::text, ''),
		h.percent::text,
		h.as_of_date::date,
		COALESCE(h.source_url::text, '')
	FROM funds_holding h
	JOIN latest l
	  ON l.fund_code = h.fund_code
	 AND l.as_of_date = h.as_of_date
	WHERE h.type = 'Fund'
	ORDER BY h.fund_code, h.name
`

// mastersSQL keeps the latest static row per ft_ticker
func mastersSQL(cols map[string]bool) string {
	created := database.FirstPresent(cols, "created_at")
	if created == "" {
		created = "date_scraper"
	}
	return fmt.Sprintf(`
	WITH ranked AS (
		SELECT
			ft_ticker,
			ticker,
			name,
			ticker_type,
			UPPER(TRIM(isin_number::text)) AS isin_number,
			date_scraper,
			assets_aum_full_value,
			ROW_NUMBER() OVER (
				PARTITION BY ft_ticker
				ORDER BY date_scraper DESC, %s DESC
			) AS rn
		FROM ft_static_detail
		WHERE ft_ticker IS NOT NULL
	)
	SELECT
		ft_ticker::text,
		COALESCE(ticker::text, ''),
		COALESCE(name::text, ''),
		COALESCE(ticker_type::text, ''),
		COALESCE(isin_number, ''),
		assets_aum_full_value::text,
		date_scraper::date
	FROM ranked
	WHERE rn = 1
	ORDER BY ft_ticker
`, database.QuoteIdent(created))
}

const holdingsSQL = `
	WITH latest AS (
		SELECT ticker, MAX(date_scraper) AS date_scraper
		FROM ft_holdings
		GROUP BY ticker
	)
	SELECT
		h.ticker::text,
		COALESCE(h.holding_name::text, ''),
		COALESCE(h.holding_ticker::text, ''),
		COALESCE(h.holding_type::text, ''),
		h.portfolio_weight_pct::text,
		h.date_scraper::date
	FROM ft_holdings h
	JOIN latest l
	  ON l.ticker = h.ticker
	 AND l.date_scraper = h.date_scraper
	WHERE h.allocation_type = 'top_10_holdings'
	ORDER BY h.ticker, h.holding_name
`

// categorySQL reads the latest allocation snapshot per ticker of a sector/region table
func categorySQL(table string, c categoryColumns) string {
	return fmt.Sprintf(`
	WITH latest AS (
		SELECT ticker, MAX(date_scraper) AS date_scraper
		FROM %[1]s
		GROUP BY ticker
	)
	SELECT
		a.ticker::text,
		COALESCE(a.%[2]s::text, ''),
		a.%[3]s::text,
		a.date_scraper::date
	FROM %[1]s a
	JOIN latest l
	  ON l.ticker = a.ticker
	 AND l.date_scraper = a.date_scraper
	ORDER BY a.ticker, a.%[2]s
`, database.QuoteIdent(table), database.QuoteIdent(c.Category), database.QuoteIdent(c.Weight))
}

// returnsSQL keeps the latest return row per key column
func returnsSQL(c returnColumns) string {
	r3y := "NULL"
	if c.Return3Y != "" {
		r3y = database.QuoteIdent(c.Return3Y) + "::text"
	}
	return fmt.Sprintf(`
	WITH ranked AS (
		SELECT
			%[1]s AS key_ticker,
			ticker,
			%[2]s::text AS r1y,
			%[3]s AS r3y,
			%[4]s AS as_of,
			ROW_NUMBER() OVER (
				PARTITION BY %[1]s
				ORDER BY %[4]s DESC, %[5]s DESC
			) AS rn
		FROM ft_avg_fund_return
	)
	SELECT
		COALESCE(key_ticker::text, ''),
		COALESCE(ticker::text, ''),
		r1y,
		r3y,
		as_of::date
	FROM ranked
	WHERE rn = 1
	ORDER BY key_ticker
`, database.QuoteIdent(c.Key), database.QuoteIdent(c.Return1Y), r3y, database.QuoteIdent(c.Date), database.QuoteIdent(c.Created))
}

// fxSQL reads every rate quoted into the base currency; $1 is the base currency
func fxSQL(table string, c fxColumns) string {
	source := "''"
	if c.Source != "" {
		source = fmt.Sprintf("COALESCE(%s::text, '')", database.QuoteIdent(c.Source))
	}
	return fmt.Sprintf(`
	SELECT
		date_rate::date,
		COALESCE(UPPER(TRIM(from_ccy::text)), ''),
		%s::text,
		%s
	FROM %s
	WHERE UPPER(TRIM(to_ccy::text)) = $1
	ORDER BY date_rate, from_ccy
`, database.QuoteIdent(c.Rate), source, database.QuoteQualified(table))
}
