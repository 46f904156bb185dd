package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/fundtrace/internal/fxfeed"
	"github.com/wonny/fundtrace/pkg/logger"
)

// FXRefresher refreshes the FX rate table
type FXRefresher interface {
	Run(ctx context.Context) (*fxfeed.Result, error)
}

// FXFetchJob refreshes the daily FX table ahead of the mart build
// ⭐ SSOT: FX 테이블 갱신 스케줄은 이 Job에서만
type FXFetchJob struct {
	fetcher  FXRefresher
	schedule string
	logger   *logger.Logger
}

// NewFXFetchJob creates a new FX fetch job
func NewFXFetchJob(fetcher FXRefresher, schedule string, log *logger.Logger) *FXFetchJob {
	return &FXFetchJob{
		fetcher:  fetcher,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *FXFetchJob) Name() string {
	return "fx_fetch"
}

// Schedule returns the cron schedule
func (j *FXFetchJob) Schedule() string {
	return j.schedule
}

// Run executes the FX refresh
func (j *FXFetchJob) Run(ctx context.Context) error {
	_, err := refreshFX(ctx, j.fetcher, j.logger)
	return err
}

func refreshFX(ctx context.Context, fetcher FXRefresher, log *logger.Logger) (*fxfeed.Result, error) {
	res, err := fetcher.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("fx refresh: %w", err)
	}

	entry := log.WithFields(map[string]interface{}{
		"date":  res.Date.Format("2006-01-02"),
		"rows":  res.Rows,
		"stale": res.Stale,
	})
	if res.Stale {
		entry.WithField("age_days", res.AgeDays).Warn("FX provider unavailable, using stored rates")
	} else {
		entry.Info("FX rates refreshed")
	}
	return res, nil
}
