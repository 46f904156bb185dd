package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/wonny/fundtrace/internal/mart"
	"github.com/wonny/fundtrace/pkg/logger"
)

// Source is the read side of the mart needed for an export
type Source interface {
	Dashboard(ctx context.Context) (*mart.DashboardCard, error)
	TopHoldings(ctx context.Context, all bool) ([]mart.HoldingRow, error)
	Sectors(ctx context.Context, limit int) ([]mart.AllocationRow, error)
	Countries(ctx context.Context, limit int) ([]mart.AllocationRow, error)
	SearchByFund(ctx context.Context, fundCode string, limit int) ([]mart.SearchRow, error)
	SearchByAsset(ctx context.Context, q string, limit int) ([]mart.SearchRow, error)
}

// Payload is the dashboard snapshot written by the export command
type Payload struct {
	GeneratedAt       time.Time            `json:"generated_at"`
	Dashboard         *mart.DashboardCard  `json:"dashboard_summary"`
	TopHoldings       []mart.HoldingRow    `json:"top_holdings_topn"`
	AllHoldings       []mart.HoldingRow    `json:"top_holdings_all"`
	SectorAllocation  []mart.AllocationRow `json:"sector_allocation"`
	CountryAllocation []mart.AllocationRow `json:"country_allocation"`
	SearchByFund      []mart.SearchRow     `json:"search_by_fund"`
	SearchByAsset     []mart.SearchRow     `json:"search_by_asset"`
}

// Builder reads every dashboard section from the mart
type Builder struct {
	src    Source
	logger *logger.Logger
	now    func() time.Time
}

// NewBuilder creates a new Builder
func NewBuilder(src Source, log *logger.Logger) *Builder {
	return &Builder{
		src:    src,
		logger: log.WithComponent("export"),
		now:    time.Now,
	}
}

// Build collects the payload; search sections are capped at mart.MaxSearchRows
func (b *Builder) Build(ctx context.Context) (*Payload, error) {
	p := &Payload{GeneratedAt: b.now().UTC()}

	var err error
	if p.Dashboard, err = b.src.Dashboard(ctx); err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}
	if p.TopHoldings, err = b.src.TopHoldings(ctx, false); err != nil {
		return nil, fmt.Errorf("top holdings: %w", err)
	}
	if p.AllHoldings, err = b.src.TopHoldings(ctx, true); err != nil {
		return nil, fmt.Errorf("all holdings: %w", err)
	}
	if p.SectorAllocation, err = b.src.Sectors(ctx, 0); err != nil {
		return nil, fmt.Errorf("sector allocation: %w", err)
	}
	if p.CountryAllocation, err = b.src.Countries(ctx, 0); err != nil {
		return nil, fmt.Errorf("country allocation: %w", err)
	}
	if p.SearchByFund, err = b.src.SearchByFund(ctx, "", mart.MaxSearchRows); err != nil {
		return nil, fmt.Errorf("search by fund: %w", err)
	}
	if p.SearchByAsset, err = b.src.SearchByAsset(ctx, "", mart.MaxSearchRows); err != nil {
		return nil, fmt.Errorf("search by asset: %w", err)
	}

	b.logger.WithFields(map[string]interface{}{
		"top_holdings":    len(p.TopHoldings),
		"all_holdings":    len(p.AllHoldings),
		"sectors":         len(p.SectorAllocation),
		"countries":       len(p.CountryAllocation),
		"search_by_fund":  len(p.SearchByFund),
		"search_by_asset": len(p.SearchByAsset),
	}).Info("Dashboard payload built")

	return p, nil
}

// WriteJSON writes the payload as indented JSON
func WriteJSON(w io.Writer, p *Payload) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(p); err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	return nil
}

// Format is an export file format
type Format string

const (
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
)

// ParseFormat validates a --format value
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatJSON, FormatXLSX:
		return f, nil
	default:
		return "", fmt.Errorf("unknown export format %q (json|xlsx)", s)
	}
}

// Write encodes the payload in the given format
func Write(w io.Writer, format Format, p *Payload) error {
	if format == FormatXLSX {
		return WriteXLSX(w, p)
	}
	return WriteJSON(w, p)
}
