package s0_source

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/wonny/fundtrace/internal/contracts"
	"github.com/wonny/fundtrace/internal/traceconfig"
	"github.com/wonny/fundtrace/pkg/database"
	"github.com/wonny/fundtrace/pkg/logger"
)

// Loader reads the latest input snapshot from the source, master and FX databases.
// The three may be the same database.
type Loader struct {
	source database.Querier
	master database.Querier
	fx     database.Querier

	fxTable      string
	baseCurrency string

	logger *logger.Logger
}

// NewLoader creates a new Loader
func NewLoader(source, master, fx database.Querier, cfg *traceconfig.Config, log *logger.Logger) *Loader {
	return &Loader{
		source:       source,
		master:       master,
		fx:           fx,
		fxTable:      cfg.Currency.FxTable,
		baseCurrency: cfg.Currency.Base,
		logger:       log,
	}
}

// Load reads every input set. A missing required table or column returns a
// *contracts.InputShapeError; the FX table is optional.
// ⭐ SSOT: S0 원천 로딩
func (l *Loader) Load(ctx context.Context) (*contracts.Dataset, error) {
	ds := &contracts.Dataset{}
	var err error

	// 국내 펀드 원천
	if ds.Funds, err = l.loadFunds(ctx); err != nil {
		return nil, err
	}
	if ds.FundISINs, err = l.loadFundISINs(ctx); err != nil {
		return nil, err
	}
	if ds.Navs, err = l.loadNavs(ctx); err != nil {
		return nil, err
	}
	if ds.Feeders, err = l.loadFeeders(ctx); err != nil {
		return nil, err
	}

	// 마스터 피드
	if ds.Masters, err = l.loadMasters(ctx); err != nil {
		return nil, err
	}
	stocks, err := l.loadHoldings(ctx)
	if err != nil {
		return nil, err
	}
	sectors, err := l.loadCategories(ctx, TableSectorAllocation, "sector")
	if err != nil {
		return nil, err
	}
	regions, err := l.loadCategories(ctx, TableRegionAllocation, "region")
	if err != nil {
		return nil, err
	}
	if ds.Returns, err = l.loadReturns(ctx); err != nil {
		return nil, err
	}

	// Holding feeds are keyed by ticker; the engine joins on ft_ticker
	index := tickerIndex(ds.Masters)
	ds.Stocks = attachStocks(stocks, index)
	ds.Sectors = attachCategories(sectors, index)
	ds.Regions = attachCategories(regions, index)

	if ds.FxRates, err = l.loadFxRates(ctx); err != nil {
		return nil, err
	}

	l.logger.WithFields(ds.Counts()).Info("Source snapshot loaded")
	return ds, nil
}

func (l *Loader) loadFunds(ctx context.Context) ([]contracts.FundRecord, error) {
	if _, err := inspect(ctx, l.source, TableFundMaster); err != nil {
		return nil, err
	}
	return collect(ctx, l.source, TableFundMaster, fundsSQL, nil, func(row pgx.CollectableRow) (contracts.FundRecord, error) {
		var f contracts.FundRecord
		err := row.Scan(&f.FundCode, &f.NameTH, &f.NameEN, &f.AMC, &f.Category, &f.Currency, &f.Country)
		return f, err
	})
}

func (l *Loader) loadFundISINs(ctx context.Context) ([]contracts.FundISIN, error) {
	if _, err := inspect(ctx, l.source, TableFundCodes); err != nil {
		return nil, err
	}
	return collect(ctx, l.source, TableFundCodes, fundISINsSQL, nil, func(row pgx.CollectableRow) (contracts.FundISIN, error) {
		var f contracts.FundISIN
		err := row.Scan(&f.FundCode, &f.ISIN)
		return f, err
	})
}

func (l *Loader) loadNavs(ctx context.Context) ([]contracts.NavRecord, error) {
	if _, err := inspect(ctx, l.source, TableFundDaily); err != nil {
		return nil, err
	}
	return collect(ctx, l.source, TableFundDaily, navsSQL, nil, func(row pgx.CollectableRow) (contracts.NavRecord, error) {
		var (
			n    contracts.NavRecord
			date *time.Time
			aum  *string
		)
		if err := row.Scan(&n.FundCode, &date, &aum); err != nil {
			return n, err
		}
		n.AsOfDate = derefTime(date)
		n.AUM = parseOpt(aum)
		return n, nil
	})
}

func (l *Loader) loadFeeders(ctx context.Context) ([]contracts.FeederHolding, error) {
	if _, err := inspect(ctx, l.source, TableFundHolding); err != nil {
		return nil, err
	}
	return collect(ctx, l.source, TableFundHolding, feedersSQL, nil, func(row pgx.CollectableRow) (contracts.FeederHolding, error) {
		var (
			f      contracts.FeederHolding
			weight *string
			date   *time.Time
		)
		if err := row.Scan(&f.FundCode, &f.FeederName, &weight, &date, &f.SourceURL); err != nil {
			return f, err
		}
		f.WeightPct = parseOpt(weight)
		f.AsOfDate = derefTime(date)
		return f, nil
	})
}

func (l *Loader) loadMasters(ctx context.Context) ([]contracts.MasterSecurity, error) {
	cols, err := inspect(ctx, l.master, TableStaticDetail)
	if err != nil {
		return nil, err
	}
	return collect(ctx, l.master, TableStaticDetail, mastersSQL(cols), nil, func(row pgx.CollectableRow) (contracts.MasterSecurity, error) {
		var (
			m    contracts.MasterSecurity
			aum  *string
			date *time.Time
		)
		if err := row.Scan(&m.FtTicker, &m.Ticker, &m.Name, &m.TickerType, &m.ISIN, &aum, &date); err != nil {
			return m, err
		}
		m.TotalAUM = parseOpt(aum)
		m.AsOfDate = derefTime(date)
		return m, nil
	})
}

// loadHoldings returns top-10 holdings keyed by master ticker (in FtTicker until attached)
func (l *Loader) loadHoldings(ctx context.Context) ([]contracts.StockHolding, error) {
	if _, err := inspect(ctx, l.master, TableHoldings); err != nil {
		return nil, err
	}
	return collect(ctx, l.master, TableHoldings, holdingsSQL, nil, func(row pgx.CollectableRow) (contracts.StockHolding, error) {
		var (
			h      contracts.StockHolding
			weight *string
			date   *time.Time
		)
		if err := row.Scan(&h.FtTicker, &h.HoldingName, &h.HoldingTicker, &h.HoldingType, &weight, &date); err != nil {
			return h, err
		}
		h.WeightPct = parseOpt(weight)
		h.AsOfDate = derefTime(date)
		return h, nil
	})
}

func (l *Loader) loadCategories(ctx context.Context, table, dim string) ([]contracts.CategoryWeight, error) {
	cols, err := inspect(ctx, l.master, table)
	if err != nil {
		return nil, err
	}
	c, err := resolveCategory(table, dim, cols)
	if err != nil {
		return nil, err
	}
	return collect(ctx, l.master, table, categorySQL(table, c), nil, scanCategory)
}

func (l *Loader) loadReturns(ctx context.Context) ([]contracts.ReturnMetric, error) {
	cols, err := inspect(ctx, l.master, TableFundReturn)
	if err != nil {
		return nil, err
	}
	c, err := resolveReturns(cols)
	if err != nil {
		return nil, err
	}
	return collect(ctx, l.master, TableFundReturn, returnsSQL(c), nil, func(row pgx.CollectableRow) (contracts.ReturnMetric, error) {
		var (
			r        contracts.ReturnMetric
			r1y, r3y *string
			date     *time.Time
		)
		if err := row.Scan(&r.FtTicker, &r.Ticker, &r1y, &r3y, &date); err != nil {
			return r, err
		}
		r.Return1Y = parseOpt(r1y)
		r.Return3Y = parseOpt(r3y)
		r.AsOfDate = derefTime(date)
		return r, nil
	})
}

// loadFxRates returns nil when the FX table does not exist
func (l *Loader) loadFxRates(ctx context.Context) ([]contracts.FxRate, error) {
	exists, err := database.TableExists(ctx, l.fx, l.fxTable)
	if err != nil {
		return nil, err
	}
	if !exists {
		l.logger.WithField("table", l.fxTable).Warn("FX table not found, all non-base NAVs will use rate 1")
		return nil, nil
	}

	cols, err := database.TableColumns(ctx, l.fx, l.fxTable)
	if err != nil {
		return nil, err
	}
	c, err := resolveFx(l.fxTable, l.baseCurrency, cols)
	if err != nil {
		return nil, err
	}

	return collect(ctx, l.fx, l.fxTable, fxSQL(l.fxTable, c), []any{l.baseCurrency}, func(row pgx.CollectableRow) (contracts.FxRate, error) {
		var (
			r    contracts.FxRate
			date *time.Time
			rate *string
		)
		if err := row.Scan(&date, &r.FromCurrency, &rate, &r.Source); err != nil {
			return r, err
		}
		r.Date = derefTime(date)
		r.RateToBase = parseOpt(rate)
		return r, nil
	})
}

func scanCategory(row pgx.CollectableRow) (contracts.CategoryWeight, error) {
	var (
		c      contracts.CategoryWeight
		weight *string
		date   *time.Time
	)
	if err := row.Scan(&c.FtTicker, &c.Category, &weight, &date); err != nil {
		return c, err
	}
	c.WeightPct = parseOpt(weight)
	c.AsOfDate = derefTime(date)
	return c, nil
}

// collect runs sql and maps every row with fn
func collect[T any](ctx context.Context, q database.Querier, table, sql string, args []any, fn pgx.RowToFunc[T]) ([]T, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	out, err := pgx.CollectRows(rows, fn)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", table, err)
	}
	return out, nil
}

func parseOpt(raw *string) contracts.OptFloat {
	if raw == nil {
		return contracts.OptFloat{}
	}
	return contracts.ParseFloat(*raw)
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
