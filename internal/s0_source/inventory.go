package s0_source

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/wonny/fundtrace/pkg/database"
)

// TableStat is one line of the source inventory
type TableStat struct {
	Database   string     `json:"database"`
	Table      string     `json:"table"`
	Exists     bool       `json:"exists"`
	Rows       int64      `json:"rows"`
	LatestDate *time.Time `json:"latest_date,omitempty"`
}

// inventoryTables lists each input table with its as-of column ("" = none)
var inventoryTables = []struct {
	db, table, dateCol string
}{
	{"source", TableFundMaster, ""},
	{"source", TableFundCodes, ""},
	{"source", TableFundDaily, "nav_date"},
	{"source", TableFundHolding, "as_of_date"},
	{"master", TableStaticDetail, "date_scraper"},
	{"master", TableHoldings, "date_scraper"},
	{"master", TableSectorAllocation, "date_scraper"},
	{"master", TableRegionAllocation, "date_scraper"},
	{"master", TableFundReturn, ""},
}

// Inventory reports row counts and latest as-of dates of every input table.
// Missing tables are reported, not treated as errors.
func (l *Loader) Inventory(ctx context.Context) ([]TableStat, error) {
	stats := make([]TableStat, 0, len(inventoryTables)+1)

	for _, t := range inventoryTables {
		q := l.source
		if t.db == "master" {
			q = l.master
		}
		s, err := tableStat(ctx, q, t.db, t.table, t.dateCol)
		if err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}

	fx, err := tableStat(ctx, l.fx, "fx", l.fxTable, "date_rate")
	if err != nil {
		return nil, err
	}
	return append(stats, fx), nil
}

func tableStat(ctx context.Context, q database.Querier, db, table, dateCol string) (TableStat, error) {
	s := TableStat{Database: db, Table: table}

	exists, err := database.TableExists(ctx, q, table)
	if err != nil || !exists {
		return s, err
	}
	s.Exists = true

	sql := "SELECT COUNT(*), NULL::date FROM " + database.QuoteQualified(table)
	if dateCol != "" {
		sql = fmt.Sprintf("SELECT COUNT(*), MAX(%s)::date FROM %s", database.QuoteIdent(dateCol), database.QuoteQualified(table))
	}
	if err := q.QueryRow(ctx, sql).Scan(&s.Rows, &s.LatestDate); err != nil {
		return s, fmt.Errorf("inventory %s: %w", table, err)
	}
	return s, nil
}

// PrintInventory writes the inventory as a table
func PrintInventory(w io.Writer, stats []TableStat) {
	fmt.Fprintf(w, "%-8s %-28s %-7s %10s  %s\n", "DB", "TABLE", "EXISTS", "ROWS", "LATEST")
	for _, s := range stats {
		latest := "-"
		if s.LatestDate != nil {
			latest = s.LatestDate.Format("2006-01-02")
		}
		fmt.Fprintf(w, "%-8s %-28s %-7t %10d  %s\n", s.Database, s.Table, s.Exists, s.Rows, latest)
	}
}
