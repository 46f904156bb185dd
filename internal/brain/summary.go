package brain

import (
	"fmt"
	"io"
	"sort"

	"github.com/wonny/fundtrace/internal/contracts"
)

// PrintSummary writes a short human-readable run summary
func PrintSummary(w io.Writer, r *RunResult) {
	fmt.Fprintln(w, "=== Traceability build summary ===")
	fmt.Fprintf(w, "run_id:        %s\n", r.RunID)
	fmt.Fprintf(w, "config_hash:   %s\n", shortHash(r.ConfigHash))
	fmt.Fprintf(w, "stages:        %v\n", r.CompletedStages)
	fmt.Fprintf(w, "duration:      %.2fs\n", r.Duration.Seconds())

	if r.Output == nil {
		return
	}
	out := r.Output
	d := out.Dashboard

	fmt.Fprintf(w, "base currency: %s\n", out.BaseCurrency)
	fmt.Fprintf(w, "mapped funds:  %d\n", d.MappedFunds)
	fmt.Fprintf(w, "mapped master: %d\n", d.MappedMasters)
	fmt.Fprintf(w, "total value:   %.2f\n", d.TotalHoldingsValue)
	fmt.Fprintf(w, "top sector:    %s\n", labelWithShare(d.TopSector, d.TopSectorSharePct))
	fmt.Fprintf(w, "top country:   %s\n", labelWithShare(d.TopCountry, d.TopCountrySharePct))
	fmt.Fprintf(w, "avg 1y return: %s\n", optPct(d.Avg1YReturn))
	fmt.Fprintf(w, "avg 3y return: %s\n", optPct(d.Avg3YReturn))

	fmt.Fprintln(w, "--- row counts ---")
	counts := out.RowCounts()
	tables := make([]string, 0, len(counts))
	for t := range counts {
		tables = append(tables, t)
	}
	sort.Strings(tables)
	for _, t := range tables {
		fmt.Fprintf(w, "%-34s %8d\n", t, counts[t])
	}
}

func labelWithShare(name string, share contracts.OptFloat) string {
	if name == "" {
		return "-"
	}
	return fmt.Sprintf("%s (%s)", name, optPct(share))
}

func optPct(v contracts.OptFloat) string {
	if !v.Valid {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", v.Value)
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
