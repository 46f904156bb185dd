package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/fundtrace/internal/brain"
	"github.com/wonny/fundtrace/pkg/logger"
	"github.com/wonny/fundtrace/pkg/redis"
)

// PipelineRunner runs the S0-S5 pipeline
type PipelineRunner interface {
	Run(ctx context.Context, config brain.RunConfig) (*brain.RunResult, error)
}

// CacheInvalidator drops cached API responses
type CacheInvalidator interface {
	DeletePrefix(ctx context.Context, keyPrefix string) (int, error)
}

// BuildJobConfig wires the mart build job. FX, Cache and Export are optional.
type BuildJobConfig struct {
	Schedule string
	Strict   bool

	Pipeline PipelineRunner
	FX       FXRefresher
	Cache    CacheInvalidator
	Export   func(ctx context.Context) error
}

// BuildJob refreshes FX, rebuilds the mart, then drops stale API cache entries
// ⭐ SSOT: mart 재빌드 스케줄은 이 Job에서만
type BuildJob struct {
	cfg    BuildJobConfig
	logger *logger.Logger
}

// NewBuildJob creates a new mart build job
func NewBuildJob(cfg BuildJobConfig, log *logger.Logger) *BuildJob {
	return &BuildJob{
		cfg:    cfg,
		logger: log,
	}
}

// Name returns the job name
func (j *BuildJob) Name() string {
	return "mart_build"
}

// Schedule returns the cron schedule (default every 6 hours)
func (j *BuildJob) Schedule() string {
	return j.cfg.Schedule
}

// Run executes the scheduled build
func (j *BuildJob) Run(ctx context.Context) error {
	j.logger.Info("Starting scheduled mart build")

	// 1. FX 테이블 갱신 (stale 허용 범위 밖이면 빌드 중단)
	if j.cfg.FX != nil {
		if _, err := refreshFX(ctx, j.cfg.FX, j.logger); err != nil {
			return err
		}
	}

	// 2. Pipeline
	result, err := j.cfg.Pipeline.Run(ctx, brain.RunConfig{Strict: j.cfg.Strict})
	if err != nil {
		return fmt.Errorf("mart build: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"run_id":   result.RunID,
		"duration": result.Duration,
		"stages":   len(result.CompletedStages),
	}).Info("Mart rebuilt")

	// 3. Cache invalidation. 실패해도 빌드는 성공으로 처리 (TTL 로 만료됨)
	if j.cfg.Cache != nil {
		n, err := j.cfg.Cache.DeletePrefix(ctx, redis.MartPrefix)
		if err != nil {
			j.logger.WithError(err).Warn("Failed to invalidate mart cache")
		} else {
			j.logger.WithField("deleted", n).Debug("Mart cache invalidated")
		}
	}

	// 4. Dashboard payload export
	if j.cfg.Export != nil {
		if err := j.cfg.Export(ctx); err != nil {
			return fmt.Errorf("export payload: %w", err)
		}
	}

	return nil
}
