package mart

// Dashboard views read by the API and the exporter
var viewNames = []string{
	"vw_dashboard_cards",
	"vw_top_holdings",
	"vw_sector_allocation",
	"vw_country_allocation",
	"vw_search_by_fund",
	"vw_search_by_asset",
}

var viewSQL = []string{
	`CREATE VIEW vw_dashboard_cards AS
	SELECT d.*, r.finished_at AS built_at
	FROM agg_dashboard_cards d
	LEFT JOIN LATERAL (
		SELECT finished_at FROM etl_run_log ORDER BY finished_at DESC LIMIT 1
	) r ON true`,

	`CREATE VIEW vw_top_holdings AS
	SELECT rank_no, holding_key, holding_name, holding_ticker, holding_type,
	       total_true_weight_pct, total_true_value, allocation_share_pct
	FROM agg_top_holdings_topn
	ORDER BY rank_no`,

	`CREATE VIEW vw_sector_allocation AS
	SELECT rank_no, sector_name, total_true_weight_pct, total_true_value, allocation_share_pct
	FROM agg_sector_exposure
	ORDER BY rank_no`,

	`CREATE VIEW vw_country_allocation AS
	SELECT rank_no, region_name AS country_name, total_true_weight_pct, total_true_value, allocation_share_pct
	FROM agg_country_exposure
	ORDER BY rank_no`,

	`CREATE VIEW vw_search_by_fund AS
	SELECT
		fund_code,
		holding_key,
		MIN(holding_name) AS holding_name,
		NULLIF(holding_ticker_norm, '') AS holding_ticker,
		holding_type,
		SUM(true_weight_pct) AS total_true_weight_pct,
		SUM(true_value) AS total_true_value
	FROM fact_effective_exposure_stock
	GROUP BY fund_code, holding_key, holding_ticker_norm, holding_type`,

	`CREATE VIEW vw_search_by_asset AS
	SELECT
		holding_key,
		MIN(holding_name) AS holding_name,
		NULLIF(holding_ticker_norm, '') AS holding_ticker,
		holding_type,
		fund_code,
		SUM(true_weight_pct) AS total_true_weight_pct,
		SUM(true_value) AS total_true_value
	FROM fact_effective_exposure_stock
	GROUP BY holding_key, holding_ticker_norm, holding_type, fund_code`,
}

const runLogDDL = `
	CREATE TABLE IF NOT EXISTS etl_run_log (
		run_id        text PRIMARY KEY,
		config_hash   text NOT NULL,
		base_currency text NOT NULL,
		top_n         integer NOT NULL,
		started_at    timestamptz NOT NULL,
		finished_at   timestamptz NOT NULL,
		duration_ms   bigint NOT NULL,
		row_counts    jsonb NOT NULL
	)
`

const runLogInsert = `
	INSERT INTO etl_run_log (
		run_id, config_hash, base_currency, top_n, started_at, finished_at, duration_ms, row_counts
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`
