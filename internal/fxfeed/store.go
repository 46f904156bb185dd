package fxfeed

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/fundtrace/pkg/database"
)

// Store persists daily rates in the FX table read by the source loader
type Store struct {
	db    database.Querier
	table string
}

// NewStore creates a Store for table ("name" or "schema.name")
func NewStore(db database.Querier, table string) *Store {
	return &Store{db: db, table: table}
}

// EnsureTable creates the FX table when missing
func (s *Store) EnsureTable(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			date_rate     date NOT NULL,
			from_ccy      varchar(10) NOT NULL,
			to_ccy        varchar(10) NOT NULL,
			rate_to_base  numeric(20, 8) NOT NULL,
			source_system varchar(100),
			updated_at    timestamptz NOT NULL DEFAULT NOW(),
			PRIMARY KEY (date_rate, from_ccy, to_ccy)
		)
	`, database.QuoteQualified(s.table))

	if _, err := s.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("create fx table %s: %w", s.table, err)
	}
	return nil
}

// Upsert writes rows in one statement; existing (date, from, to) rows are updated
func (s *Store) Upsert(ctx context.Context, rows []Row) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	dates := make([]time.Time, len(rows))
	from := make([]string, len(rows))
	to := make([]string, len(rows))
	rates := make([]string, len(rows))
	sources := make([]string, len(rows))
	for i, r := range rows {
		dates[i] = r.Date
		from[i] = r.FromCurrency
		to[i] = r.ToCurrency
		rates[i] = r.RateToBase.StringFixed(RatePlaces)
		sources[i] = r.Source
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (date_rate, from_ccy, to_ccy, rate_to_base, source_system)
		SELECT * FROM unnest($1::date[], $2::text[], $3::text[], $4::numeric[], $5::text[])
		ON CONFLICT (date_rate, from_ccy, to_ccy) DO UPDATE SET
			rate_to_base = EXCLUDED.rate_to_base,
			source_system = EXCLUDED.source_system,
			updated_at = NOW()
	`, database.QuoteQualified(s.table))

	tag, err := s.db.Exec(ctx, query, dates, from, to, rates, sources)
	if err != nil {
		return 0, fmt.Errorf("upsert fx rates: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// LatestDate returns the newest date_rate, or nil for an empty table
func (s *Store) LatestDate(ctx context.Context) (*time.Time, error) {
	var latest *time.Time
	query := "SELECT MAX(date_rate) FROM " + database.QuoteQualified(s.table)
	if err := s.db.QueryRow(ctx, query).Scan(&latest); err != nil {
		return nil, fmt.Errorf("query latest fx date: %w", err)
	}
	return latest, nil
}
