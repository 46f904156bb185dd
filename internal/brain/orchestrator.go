package brain

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/fundtrace/internal/contracts"
	"github.com/wonny/fundtrace/internal/s1_bridge"
	"github.com/wonny/fundtrace/internal/s2_fx"
	"github.com/wonny/fundtrace/internal/s3_exposure"
	"github.com/wonny/fundtrace/internal/s4_aggregate"
	"github.com/wonny/fundtrace/internal/sanity"
	"github.com/wonny/fundtrace/internal/traceconfig"
	"github.com/wonny/fundtrace/pkg/logger"
)

// Orchestrator coordinates the 6-stage traceability pipeline
// ⭐ SSOT: 파이프라인 조율은 여기서만
type Orchestrator struct {
	loader contracts.SourceLoader
	writer contracts.MartWriter

	cfg        *traceconfig.Config
	configHash string

	// Stage components
	bridgeResolver *s1_bridge.Resolver
	calculator     *s3_exposure.Calculator
	aggregator     *s4_aggregate.Aggregator

	logger *logger.Logger
}

// RunConfig holds configuration for a pipeline run
type RunConfig struct {
	RunID  string // empty → new uuid
	DryRun bool   // If true, skip the mart write (S5)
	Strict bool   // If true, failed in-memory checks abort before S5
}

// RunResult holds the results of a complete pipeline run
type RunResult struct {
	RunID           string
	ConfigHash      string
	Success         bool
	Error           error
	CompletedStages []string
	SourceCounts    map[string]interface{}
	BridgeStats     s1_bridge.Stats
	Output          *contracts.OutputSet
	Sanity          *sanity.Report
	Duration        time.Duration
}

// NewOrchestrator creates a new orchestrator.
// writer may be nil when every run is a dry run.
func NewOrchestrator(
	loader contracts.SourceLoader,
	writer contracts.MartWriter,
	cfg *traceconfig.Config,
	log *logger.Logger,
) (*Orchestrator, error) {
	if err := traceconfig.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}
	hash, err := traceconfig.Hash(cfg)
	if err != nil {
		return nil, fmt.Errorf("hash engine config: %w", err)
	}

	return &Orchestrator{
		loader:         loader,
		writer:         writer,
		cfg:            cfg,
		configHash:     hash,
		bridgeResolver: s1_bridge.NewResolver(log.WithComponent("s1_bridge")),
		calculator:     s3_exposure.NewCalculator(cfg, log.WithComponent("s3_exposure")),
		aggregator:     s4_aggregate.NewAggregator(cfg, log.WithComponent("s4_aggregate")),
		logger:         log,
	}, nil
}

// ConfigHash returns the hash of the engine config recorded with every run
func (o *Orchestrator) ConfigHash() string {
	return o.configHash
}

// Run executes the complete pipeline
// S0 → S1 → S2 → S3 → S4 → S5
func (o *Orchestrator) Run(ctx context.Context, config RunConfig) (*RunResult, error) {
	startTime := time.Now()
	if config.RunID == "" {
		config.RunID = uuid.NewString()
	}

	result := &RunResult{
		RunID:           config.RunID,
		ConfigHash:      o.configHash,
		Success:         false,
		CompletedStages: make([]string, 0, len(contracts.AllStages())),
	}

	runLog := o.logger.WithRun(config.RunID)
	runLog.WithFields(map[string]interface{}{
		"config_id":     o.cfg.Meta.ConfigID,
		"config_hash":   o.configHash,
		"base_currency": o.cfg.Currency.Base,
		"top_n":         o.cfg.Aggregation.TopN,
		"dry_run":       config.DryRun,
		"strict":        config.Strict,
	}).Info("Starting pipeline run")

	// S0: Source load
	ds, err := o.runS0(ctx)
	if err != nil {
		result.Error = fmt.Errorf("S0 failed: %w", err)
		return result, result.Error
	}
	result.SourceCounts = ds.Counts()
	result.CompletedStages = append(result.CompletedStages, contracts.StageSource.Label())

	// S1: Bridge + normalisation
	bridge, stats := o.runS1(ds)
	result.BridgeStats = stats
	result.CompletedStages = append(result.CompletedStages, contracts.StageBridge.Label())

	// S2: FX
	navs := o.runS2(ds)
	result.CompletedStages = append(result.CompletedStages, contracts.StageFX.Label())

	// S3: Exposure
	exposure := o.runS3(bridge, navs, ds)
	result.CompletedStages = append(result.CompletedStages, contracts.StageExposure.Label())

	// S4: Aggregate
	out := o.runS4(ds, bridge, navs, exposure)
	result.Output = out
	result.CompletedStages = append(result.CompletedStages, contracts.StageAggregate.Label())

	// In-memory acceptance checks before anything is written
	result.Sanity = sanity.CheckOutput(out)
	if err := result.Sanity.Err(); err != nil {
		if config.Strict {
			result.Error = fmt.Errorf("acceptance checks: %w", err)
			return result, result.Error
		}
		runLog.WithError(err).Warn("Acceptance checks failed (non-strict, continuing)")
	}

	// S5: Mart (skip if dry run)
	if !config.DryRun {
		run := contracts.RunInfo{RunID: config.RunID, ConfigHash: o.configHash, StartedAt: startTime}
		if err := o.runS5(ctx, run, out); err != nil {
			result.Error = fmt.Errorf("S5 failed: %w", err)
			return result, result.Error
		}
		result.CompletedStages = append(result.CompletedStages, contracts.StageMart.Label())
	} else {
		o.logger.Info("Skipping S5:Mart (dry run mode)")
	}

	// Mark success
	result.Success = true
	result.Duration = time.Since(startTime)

	runLog.WithFields(map[string]interface{}{
		"duration": result.Duration.Seconds(),
		"stages":   len(result.CompletedStages),
	}).Info("Pipeline run completed successfully")

	return result, nil
}

// Compute runs S1–S4 over an already loaded dataset. It performs no I/O.
func (o *Orchestrator) Compute(ds *contracts.Dataset) *contracts.OutputSet {
	bridge, _ := o.runS1(ds)
	navs := o.runS2(ds)
	exposure := o.runS3(bridge, navs, ds)
	return o.runS4(ds, bridge, navs, exposure)
}

// runS0 executes S0: Source load
func (o *Orchestrator) runS0(ctx context.Context) (*contracts.Dataset, error) {
	o.logger.Info("Running S0: Source load")

	ds, err := o.loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load source: %w", err)
	}

	o.logger.WithFields(ds.Counts()).Info("S0 completed")
	return ds, nil
}

// runS1 executes S1: Bridge resolution and weight normalisation
func (o *Orchestrator) runS1(ds *contracts.Dataset) ([]contracts.BridgeLink, s1_bridge.Stats) {
	o.logger.Info("Running S1: Bridge")

	links, stats := o.bridgeResolver.Resolve(ds)
	all, active := s1_bridge.Normalize(links)

	o.logger.WithFields(map[string]interface{}{
		"bridge_links": len(all),
		"active_links": len(active),
		"fallback":     stats.FallbackLinks,
	}).Info("S1 completed")

	return all, stats
}

// runS2 executes S2: NAV base-currency conversion
func (o *Orchestrator) runS2(ds *contracts.Dataset) []contracts.NavFx {
	o.logger.Info("Running S2: FX")

	fx := s2_fx.NewResolver(o.cfg.Currency.Base, ds.FxRates, o.cfg.Currency.LatestPolicy, o.logger.WithComponent("s2_fx"))
	navs := fx.ResolveNav(ds.Funds, ds.Navs)

	o.logger.WithFields(map[string]interface{}{
		"nav_rows": len(navs),
		"fx_rows":  len(ds.FxRates),
	}).Info("S2 completed")

	return navs
}

// runS3 executes S3: Exposure cascade
func (o *Orchestrator) runS3(bridge []contracts.BridgeLink, navs []contracts.NavFx, ds *contracts.Dataset) *s3_exposure.Result {
	o.logger.Info("Running S3: Exposure")

	res := o.calculator.Calculate(bridge, s2_fx.IndexByFund(navs), ds)

	o.logger.WithFields(map[string]interface{}{
		"stock_rows":  len(res.Stocks),
		"sector_rows": len(res.Sectors),
		"region_rows": len(res.Regions),
	}).Info("S3 completed")

	return res
}

// runS4 executes S4: Aggregation
func (o *Orchestrator) runS4(
	ds *contracts.Dataset,
	bridge []contracts.BridgeLink,
	navs []contracts.NavFx,
	exposure *s3_exposure.Result,
) *contracts.OutputSet {
	o.logger.Info("Running S4: Aggregate")

	out := o.aggregator.Aggregate(s4_aggregate.Input{
		Feeders: ds.Feeders,
		Returns: ds.Returns,
		Bridge:  bridge,
		Navs:    navs,
		Stocks:  exposure.Stocks,
		Sectors: exposure.Sectors,
		Regions: exposure.Regions,
	})

	o.logger.WithFields(map[string]interface{}{
		"total_value": out.Dashboard.TotalHoldingsValue,
		"top_sector":  out.Dashboard.TopSector,
		"top_country": out.Dashboard.TopCountry,
	}).Info("S4 completed")

	return out
}

// runS5 executes S5: Mart write (single transaction, full replace)
func (o *Orchestrator) runS5(ctx context.Context, run contracts.RunInfo, out *contracts.OutputSet) error {
	o.logger.Info("Running S5: Mart")

	if o.writer == nil {
		return fmt.Errorf("no mart writer configured")
	}
	if err := o.writer.Write(ctx, run, out); err != nil {
		return fmt.Errorf("write mart: %w", err)
	}

	o.logger.WithFields(map[string]interface{}{
		"tables": len(out.RowCounts()),
	}).Info("S5 completed")

	return nil
}
