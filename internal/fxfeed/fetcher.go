package fxfeed

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/fundtrace/pkg/logger"
)

// RateStore is the persistence used by Fetcher (implemented by *Store)
type RateStore interface {
	EnsureTable(ctx context.Context) error
	Upsert(ctx context.Context, rows []Row) (int, error)
	LatestDate(ctx context.Context) (*time.Time, error)
}

// Fetcher refreshes the FX table from a provider
type Fetcher struct {
	provider     Provider
	store        RateStore
	base         string
	symbols      []string
	staleMaxDays int
	logger       *logger.Logger
	now          func() time.Time
}

// Result describes what a fetch did
type Result struct {
	Date     time.Time `json:"date"`
	Rows     int       `json:"rows"`
	Stale    bool      `json:"stale"` // provider failed, existing data still fresh enough
	AgeDays  int       `json:"age_days,omitempty"`
	Provider string    `json:"provider,omitempty"`
}

// NewFetcher creates a new Fetcher
func NewFetcher(provider Provider, store RateStore, base string, symbols []string, staleMaxDays int, log *logger.Logger) *Fetcher {
	return &Fetcher{
		provider:     provider,
		store:        store,
		base:         base,
		symbols:      symbols,
		staleMaxDays: staleMaxDays,
		logger:       log,
		now:          time.Now,
	}
}

// Run fetches today's rates and upserts them. When the provider fails, the run
// still succeeds if the stored data is at most staleMaxDays old.
func (f *Fetcher) Run(ctx context.Context) (*Result, error) {
	if err := f.store.EnsureTable(ctx); err != nil {
		return nil, err
	}

	rows, source, fetchErr := f.fetch(ctx)
	if fetchErr == nil {
		n, err := f.store.Upsert(ctx, rows)
		if err != nil {
			return nil, err
		}
		res := &Result{Rows: n, Provider: source}
		if len(rows) > 0 {
			res.Date = rows[0].Date
		}
		f.logger.WithFields(map[string]interface{}{
			"date":     res.Date.Format("2006-01-02"),
			"rows":     n,
			"provider": source,
		}).Info("FX rates upserted")
		return res, nil
	}

	latest, err := f.store.LatestDate(ctx)
	if err != nil {
		return nil, fmt.Errorf("fx fetch failed (%v); %w", fetchErr, err)
	}
	if latest != nil {
		age := daysBetween(*latest, f.now())
		if age <= f.staleMaxDays {
			f.logger.WithError(fetchErr).WithFields(map[string]interface{}{
				"latest":   latest.Format("2006-01-02"),
				"age_days": age,
				"max_days": f.staleMaxDays,
			}).Warn("FX provider unavailable, using stale FX data")
			return &Result{Date: *latest, Stale: true, AgeDays: age}, nil
		}
	}

	return nil, fmt.Errorf("fx fetch failed: %w", fetchErr)
}

func (f *Fetcher) fetch(ctx context.Context) ([]Row, string, error) {
	q, err := f.provider.Latest(ctx)
	if err != nil {
		return nil, "", err
	}
	rows, err := CrossRates(f.base, f.symbols, q)
	if err != nil {
		return nil, "", err
	}
	return rows, q.Source, nil
}

// daysBetween counts calendar days (UTC) from a to b
func daysBetween(a, b time.Time) int {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}
