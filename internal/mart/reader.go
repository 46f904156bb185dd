package mart

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/wonny/fundtrace/pkg/database"
)

// MaxSearchRows caps search-by-fund / search-by-asset results
const MaxSearchRows = 500

// DashboardCard is the vw_dashboard_cards row
type DashboardCard struct {
	BaseCurrency        string     `json:"base_currency"`
	TotalHoldingsValue  float64    `json:"total_holdings_value"`
	TopSectorName       *string    `json:"top_sector_name"`
	TopSectorWeightPct  *float64   `json:"top_sector_weight_pct"`
	TopCountryName      *string    `json:"top_country_name"`
	TopCountryWeightPct *float64   `json:"top_country_weight_pct"`
	AvgFundReturn1Y     *float64   `json:"avg_fund_return_1y"`
	AvgFundReturn3Y     *float64   `json:"avg_fund_return_3y"`
	MappedFundCount     int        `json:"mapped_fund_count"`
	MappedMasterCount   int        `json:"mapped_master_count"`
	BuiltAt             *time.Time `json:"built_at"`
}

// HoldingRow is a ranked holding row
type HoldingRow struct {
	RankNo             int     `json:"rank_no"`
	HoldingKey         string  `json:"holding_key"`
	HoldingName        string  `json:"holding_name"`
	HoldingTicker      *string `json:"holding_ticker"`
	HoldingType        string  `json:"holding_type"`
	TotalTrueWeightPct float64 `json:"total_true_weight_pct"`
	TotalTrueValue     float64 `json:"total_true_value"`
	AllocationSharePct float64 `json:"allocation_share_pct"`
}

// AllocationRow is a ranked sector or country row
type AllocationRow struct {
	RankNo             int     `json:"rank_no"`
	Name               string  `json:"name"`
	TotalTrueWeightPct float64 `json:"total_true_weight_pct"`
	TotalTrueValue     float64 `json:"total_true_value"`
	AllocationSharePct float64 `json:"allocation_share_pct"`
}

// SearchRow is one (fund, holding) exposure from the search views
type SearchRow struct {
	FundCode           string  `json:"fund_code"`
	HoldingKey         string  `json:"holding_key"`
	HoldingName        string  `json:"holding_name"`
	HoldingTicker      *string `json:"holding_ticker"`
	HoldingType        string  `json:"holding_type"`
	TotalTrueWeightPct float64 `json:"total_true_weight_pct"`
	TotalTrueValue     float64 `json:"total_true_value"`
}

// RunLog is one etl_run_log row
type RunLog struct {
	RunID        string         `json:"run_id"`
	ConfigHash   string         `json:"config_hash"`
	BaseCurrency string         `json:"base_currency"`
	TopN         int            `json:"top_n"`
	StartedAt    time.Time      `json:"started_at"`
	FinishedAt   time.Time      `json:"finished_at"`
	DurationMS   int64          `json:"duration_ms"`
	RowCounts    map[string]int `json:"row_counts"`
}

// Reader reads the dashboard views
type Reader struct {
	db database.Querier
}

// NewReader creates a new Reader
func NewReader(db database.Querier) *Reader {
	return &Reader{db: db}
}

// Dashboard returns the single dashboard card
func (r *Reader) Dashboard(ctx context.Context) (*DashboardCard, error) {
	query := `
		SELECT
			base_currency, total_holdings_value,
			top_sector_name, top_sector_weight_pct,
			top_country_name, top_country_weight_pct,
			avg_fund_return_1y, avg_fund_return_3y,
			mapped_fund_count, mapped_master_count, built_at
		FROM vw_dashboard_cards
		LIMIT 1
	`

	var d DashboardCard
	err := r.db.QueryRow(ctx, query).Scan(
		&d.BaseCurrency, &d.TotalHoldingsValue,
		&d.TopSectorName, &d.TopSectorWeightPct,
		&d.TopCountryName, &d.TopCountryWeightPct,
		&d.AvgFundReturn1Y, &d.AvgFundReturn3Y,
		&d.MappedFundCount, &d.MappedMasterCount, &d.BuiltAt,
	)
	if err != nil {
		return nil, fmt.Errorf("query dashboard: %w", err)
	}
	return &d, nil
}

// TopHoldings returns the top-N holdings, or the full ranking when all is set
func (r *Reader) TopHoldings(ctx context.Context, all bool) ([]HoldingRow, error) {
	source := "vw_top_holdings"
	if all {
		source = "agg_top_holdings"
	}
	query := `
		SELECT rank_no, holding_key, holding_name, holding_ticker, holding_type,
		       total_true_weight_pct, total_true_value, allocation_share_pct
		FROM ` + source + `
		ORDER BY rank_no
	`
	return collect(ctx, r.db, "top holdings", query, nil, func(row pgx.CollectableRow) (HoldingRow, error) {
		var h HoldingRow
		err := row.Scan(&h.RankNo, &h.HoldingKey, &h.HoldingName, &h.HoldingTicker, &h.HoldingType,
			&h.TotalTrueWeightPct, &h.TotalTrueValue, &h.AllocationSharePct)
		return h, err
	})
}

// Sectors returns the sector allocation; limit ≤ 0 means all
func (r *Reader) Sectors(ctx context.Context, limit int) ([]AllocationRow, error) {
	query := `
		SELECT rank_no, sector_name, total_true_weight_pct, total_true_value, allocation_share_pct
		FROM vw_sector_allocation
		ORDER BY rank_no
		LIMIT NULLIF($1, 0)
	`
	return collect(ctx, r.db, "sectors", query, []any{clampLimit(limit)}, scanAllocation)
}

// Countries returns the country allocation; limit ≤ 0 means all
func (r *Reader) Countries(ctx context.Context, limit int) ([]AllocationRow, error) {
	query := `
		SELECT rank_no, country_name, total_true_weight_pct, total_true_value, allocation_share_pct
		FROM vw_country_allocation
		ORDER BY rank_no
		LIMIT NULLIF($1, 0)
	`
	return collect(ctx, r.db, "countries", query, []any{clampLimit(limit)}, scanAllocation)
}

// SearchByFund returns the holdings of one fund (all funds when fundCode is empty)
func (r *Reader) SearchByFund(ctx context.Context, fundCode string, limit int) ([]SearchRow, error) {
	query := `
		SELECT fund_code, holding_key, holding_name, holding_ticker, holding_type,
		       total_true_weight_pct, total_true_value
		FROM vw_search_by_fund
		WHERE ($1 = '' OR fund_code = $1)
		ORDER BY fund_code, total_true_value DESC, holding_key
		LIMIT $2
	`
	return collect(ctx, r.db, "search by fund", query, []any{fundCode, searchLimit(limit)}, scanSearch)
}

// SearchByAsset returns the funds holding assets whose key or name contains q
func (r *Reader) SearchByAsset(ctx context.Context, q string, limit int) ([]SearchRow, error) {
	query := `
		SELECT fund_code, holding_key, holding_name, holding_ticker, holding_type,
		       total_true_weight_pct, total_true_value
		FROM vw_search_by_asset
		WHERE ($1 = '' OR holding_key ILIKE '%' || $1 || '%' OR holding_name ILIKE '%' || $1 || '%')
		ORDER BY holding_key, total_true_value DESC, fund_code
		LIMIT $2
	`
	return collect(ctx, r.db, "search by asset", query, []any{q, searchLimit(limit)}, scanSearch)
}

// LatestRun returns the most recent run log row
func (r *Reader) LatestRun(ctx context.Context) (*RunLog, error) {
	query := `
		SELECT run_id, config_hash, base_currency, top_n, started_at, finished_at, duration_ms, row_counts
		FROM etl_run_log
		ORDER BY finished_at DESC
		LIMIT 1
	`
	var l RunLog
	err := r.db.QueryRow(ctx, query).Scan(
		&l.RunID, &l.ConfigHash, &l.BaseCurrency, &l.TopN,
		&l.StartedAt, &l.FinishedAt, &l.DurationMS, &l.RowCounts,
	)
	if err != nil {
		return nil, fmt.Errorf("query latest run: %w", err)
	}
	return &l, nil
}

func scanAllocation(row pgx.CollectableRow) (AllocationRow, error) {
	var a AllocationRow
	err := row.Scan(&a.RankNo, &a.Name, &a.TotalTrueWeightPct, &a.TotalTrueValue, &a.AllocationSharePct)
	return a, err
}

func scanSearch(row pgx.CollectableRow) (SearchRow, error) {
	var s SearchRow
	err := row.Scan(&s.FundCode, &s.HoldingKey, &s.HoldingName, &s.HoldingTicker, &s.HoldingType,
		&s.TotalTrueWeightPct, &s.TotalTrueValue)
	return s, err
}

func collect[T any](ctx context.Context, q database.Querier, what, sql string, args []any, fn pgx.RowToFunc[T]) ([]T, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", what, err)
	}
	out, err := pgx.CollectRows(rows, fn)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", what, err)
	}
	return out, nil
}

func clampLimit(limit int) int {
	if limit < 0 {
		return 0
	}
	return limit
}

// searchLimit returns limit within (0, MaxSearchRows]
func searchLimit(limit int) int {
	if limit <= 0 || limit > MaxSearchRows {
		return MaxSearchRows
	}
	return limit
}
