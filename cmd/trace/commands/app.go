package commands

import (
	"fmt"

	"github.com/wonny/fundtrace/internal/brain"
	"github.com/wonny/fundtrace/internal/fxfeed"
	"github.com/wonny/fundtrace/internal/mart"
	"github.com/wonny/fundtrace/internal/s0_source"
	"github.com/wonny/fundtrace/internal/traceconfig"
	"github.com/wonny/fundtrace/pkg/config"
	"github.com/wonny/fundtrace/pkg/database"
	"github.com/wonny/fundtrace/pkg/httputil"
	"github.com/wonny/fundtrace/pkg/logger"
	"github.com/wonny/fundtrace/pkg/redis"
)

// cachePrefix namespaces every Redis key of this service
const cachePrefix = "fundtrace"

// app holds the wiring shared by every command
type app struct {
	cfg    *config.Config
	engine *traceconfig.Config
	log    *logger.Logger

	mart   *database.DB
	source *database.DB // 국내 펀드 원천 + FX 테이블
	master *database.DB

	appName string // pg application_name
	pools   []*database.DB
	byURL   map[string]*database.DB
	rdb     *redis.Client // REDIS_ENABLED=false 면 no-op 클라이언트
}

// loadApp loads env config, the logger and the engine config
func loadApp(topN int) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	log := logger.New(cfg)

	engine, err := engineConfig(cfg, engineConfigPath, topN)
	if err != nil {
		return nil, err
	}
	for _, w := range traceconfig.Warn(engine) {
		log.WithField("code", w.Code).Warn(w.Message)
	}

	return &app{cfg: cfg, engine: engine, log: log, appName: database.DefaultApplicationName}, nil
}

// engineConfig resolves the engine config: flag path > TRACE_CONFIG > built-in,
// then env overrides, then the --top-n flag
func engineConfig(cfg *config.Config, path string, topN int) (*traceconfig.Config, error) {
	if path == "" {
		path = cfg.Engine.ConfigPath
	}
	engine, err := traceconfig.LoadOrDefault(path)
	if err != nil {
		return nil, fmt.Errorf("load engine config: %w", err)
	}

	engine.Apply(traceconfig.Overrides{
		BaseCurrency: cfg.Engine.BaseCurrency,
		TopN:         cfg.Engine.TopN,
		FxTable:      cfg.FX.Table,
	})
	engine.Apply(traceconfig.Overrides{TopN: topN})

	if err := traceconfig.Validate(engine); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}
	return engine, nil
}

// connect opens the mart pool and the source/master pools.
// Pools are shared between roles that point at the same URL.
// The master pool is read-only unless it is also the mart or source pool.
func (a *app) connect() error {
	var err error
	if a.mart, err = a.open(a.cfg.Database.URL); err != nil {
		return fmt.Errorf("connect mart database: %w", err)
	}
	if a.source, err = a.open(a.cfg.SourceDatabaseURL); err != nil {
		return fmt.Errorf("connect source database: %w", err)
	}
	if a.master, err = a.open(a.cfg.MasterDatabaseURL, database.ReadOnly()); err != nil {
		return fmt.Errorf("connect master database: %w", err)
	}
	a.log.WithField("pools", len(a.pools)).Debug("Connected to databases")
	return nil
}

// open returns the pool for url, reusing an existing one. An empty url means the mart.
func (a *app) open(url string, opts ...database.Option) (*database.DB, error) {
	if url == "" {
		url = a.cfg.Database.URL
	}
	if db, ok := a.byURL[url]; ok {
		return db, nil
	}

	opts = append([]database.Option{database.WithApplicationName(a.appName)}, opts...)
	db, err := database.NewWithURL(a.cfg, url, opts...)
	if err != nil {
		return nil, err
	}
	if a.byURL == nil {
		a.byURL = make(map[string]*database.DB)
	}
	a.byURL[url] = db
	a.pools = append(a.pools, db)
	return db, nil
}

// connectRedis opens the Redis client used for the API cache and the shared FX rate limit
func (a *app) connectRedis() error {
	rdb, err := redis.New(a.cfg)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	a.rdb = rdb
	return nil
}

func (a *app) cache() *redis.Cache {
	if a.rdb == nil {
		return nil
	}
	return redis.NewCache(a.rdb, cachePrefix)
}

// close closes every opened pool and the Redis client
func (a *app) close() {
	for _, db := range a.pools {
		db.Close()
	}
	a.pools = nil
	a.byURL = nil
	if a.rdb != nil {
		a.rdb.Close()
		a.rdb = nil
	}
}

func (a *app) loader() *s0_source.Loader {
	return s0_source.NewLoader(a.source.Pool, a.master.Pool, a.source.Pool, a.engine, a.log.WithComponent("s0_source"))
}

func (a *app) orchestrator() (*brain.Orchestrator, error) {
	writer := mart.NewWriter(a.mart.Pool, a.log.WithComponent("mart"))
	return brain.NewOrchestrator(a.loader(), writer, a.engine, a.log)
}

func (a *app) reader() *mart.Reader {
	return mart.NewReader(a.mart.Pool)
}

// fxFetcher builds the FX refresh step; rates land in the engine's FX table
func (a *app) fxFetcher() *fxfeed.Fetcher {
	client := httputil.New(a.cfg, a.log).WithLocalRateLimit(a.cfg.FX.RatePerSecond, 1)
	if a.rdb != nil && a.rdb.Enabled() {
		client = client.WithRateLimiter(redis.NewRateLimiter(a.rdb, cachePrefix), redis.FXProviderRateLimit)
	}
	provider := fxfeed.NewHTTPProvider(client, a.cfg.FX.APIURL, a.engine.Currency.Base)
	store := fxfeed.NewStore(a.source.Pool, a.engine.Currency.FxTable)

	return fxfeed.NewFetcher(
		provider,
		store,
		a.engine.Currency.Base,
		a.cfg.FX.Symbols,
		a.cfg.FX.StaleMaxDays,
		a.log.WithComponent("fxfeed"),
	)
}
