package sanity

import (
	"context"
	"fmt"

	"github.com/wonny/fundtrace/pkg/database"
	"github.com/wonny/fundtrace/pkg/logger"
)

// Check is one SQL acceptance check: the query returns a single numeric metric
// which must not exceed MaxAllowed.
type Check struct {
	Name       string
	SQL        string
	MaxAllowed float64
	Note       string
}

// RequiredTables are the mart tables a complete build produces
var RequiredTables = []string{
	"bridge_thai_master",
	"fact_effective_exposure_stock",
	"fact_effective_exposure_sector",
	"fact_effective_exposure_region",
	"agg_top_holdings",
	"agg_top_holdings_topn",
	"agg_sector_exposure",
	"agg_sector_exposure_topn",
	"agg_country_exposure",
	"agg_country_exposure_topn",
	"agg_region_exposure",
	"agg_dashboard_cards",
}

// SmokeTables must contain at least one row after a build on real data
var SmokeTables = []string{
	"bridge_thai_master",
	"fact_effective_exposure_stock",
	"fact_effective_exposure_sector",
	"fact_effective_exposure_region",
	"agg_top_holdings",
	"agg_dashboard_cards",
}

// MartChecks returns the acceptance checks run against a built mart
func MartChecks() []Check {
	return []Check{
		{
			Name: "required_tables_present",
			SQL: fmt.Sprintf(`
				SELECT %d - COUNT(*)
				FROM information_schema.tables
				WHERE table_schema = current_schema()
				  AND table_name = ANY($1)
			`, len(RequiredTables)),
			MaxAllowed: 0,
			Note:       "missing required tables",
		},
		{
			Name: "stock_negative_values",
			SQL: `
				SELECT COUNT(*)
				FROM fact_effective_exposure_stock
				WHERE COALESCE(true_weight_pct, -1) < 0
				   OR COALESCE(true_value, -1) < 0
			`,
			MaxAllowed: 0,
			Note:       "true_weight_pct/true_value should be non-negative",
		},
		{
			Name: "fund_weight_over_100",
			SQL: fmt.Sprintf(`
				SELECT COUNT(*)
				FROM (
					SELECT fund_code, SUM(true_weight_pct) AS w
					FROM fact_effective_exposure_stock
					GROUP BY fund_code
				) t
				WHERE w > %g
			`, FundWeightTolerancePct),
			MaxAllowed: 0,
			Note:       "sum(true_weight_pct) per fund should be <= 100.5",
		},
		{
			Name: "coverage_ratio_out_of_range",
			SQL: `
				SELECT COUNT(*)
				FROM agg_fund_coverage
				WHERE coverage_ratio IS NOT NULL
				  AND (coverage_ratio < 0 OR coverage_ratio > 1)
			`,
			MaxAllowed: 0,
			Note:       "coverage_ratio should be in [0,1]",
		},
		{
			Name: "duplicate_topn_rank",
			SQL: `
				SELECT COUNT(*) - COUNT(DISTINCT rank_no)
				FROM agg_top_holdings_topn
			`,
			MaxAllowed: 0,
			Note:       "rank_no uniqueness in top-N holdings",
		},
		{
			Name: "dashboard_total_diff",
			SQL: `
				SELECT ABS(
					COALESCE((SELECT total_holdings_value FROM agg_dashboard_cards LIMIT 1), 0)
					- COALESCE((SELECT SUM(true_value) FROM fact_effective_exposure_stock), 0)
				)
			`,
			MaxAllowed: DashboardToleranceValue,
			Note:       "dashboard total should match fact total",
		},
		{
			Name:       "dashboard_cards_rowcount",
			SQL:        `SELECT ABS(COUNT(*) - 1) FROM agg_dashboard_cards`,
			MaxAllowed: 0,
			Note:       "dashboard should have exactly 1 row",
		},
	}
}

// Checker runs SQL acceptance checks against the mart database
type Checker struct {
	db     database.Querier
	logger *logger.Logger
}

// NewChecker creates a new Checker
func NewChecker(db database.Querier, log *logger.Logger) *Checker {
	return &Checker{db: db, logger: log}
}

// RunChecks evaluates MartChecks. A check whose query fails is recorded as failed
// and the remaining checks still run.
func (c *Checker) RunChecks(ctx context.Context) *Report {
	r := &Report{Title: "Mart acceptance checks"}

	for _, chk := range MartChecks() {
		var args []any
		if chk.Name == "required_tables_present" {
			args = append(args, RequiredTables)
		}

		var metric float64
		if err := c.db.QueryRow(ctx, chk.SQL, args...).Scan(&metric); err != nil {
			c.logger.WithError(err).WithField("check", chk.Name).Warn("Check query failed")
			r.AddError(chk.Name, err, chk.Note)
			continue
		}
		r.Add(chk.Name, metric, chk.MaxAllowed, chk.Note)
	}

	c.logger.WithFields(map[string]interface{}{
		"checks": len(r.Results),
		"passed": r.Passed(),
	}).Info("Mart checks completed")

	return r
}

// RunSmoke counts rows in SmokeTables; each must hold at least one row
func (c *Checker) RunSmoke(ctx context.Context) *Report {
	r := &Report{Title: "Mart smoke test"}

	for _, table := range SmokeTables {
		var n int64
		q := "SELECT COUNT(*) FROM " + database.QuoteIdent(table)
		if err := c.db.QueryRow(ctx, q).Scan(&n); err != nil {
			r.AddError(table, err, "row count")
			continue
		}
		r.AddMin(table, float64(n), 1, "row count")
	}

	return r
}
