package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/wonny/fundtrace/internal/mart"
)

// Sheet names, in workbook order
const (
	SheetDashboard     = "Dashboard"
	SheetTopHoldings   = "TopHoldings"
	SheetAllHoldings   = "AllHoldings"
	SheetSectors       = "Sectors"
	SheetCountries     = "Countries"
	SheetSearchByFund  = "SearchByFund"
	SheetSearchByAsset = "SearchByAsset"
)

var (
	holdingHeader    = []interface{}{"rank_no", "holding_key", "holding_name", "holding_ticker", "holding_type", "total_true_weight_pct", "total_true_value", "allocation_share_pct"}
	allocationHeader = []interface{}{"rank_no", "name", "total_true_weight_pct", "total_true_value", "allocation_share_pct"}
	searchHeader     = []interface{}{"fund_code", "holding_key", "holding_name", "holding_ticker", "holding_type", "total_true_weight_pct", "total_true_value"}
)

// WriteXLSX writes one sheet per payload section
func WriteXLSX(w io.Writer, p *Payload) error {
	f := excelize.NewFile()
	defer f.Close()

	sheets := []struct {
		name string
		rows [][]interface{}
	}{
		{SheetDashboard, dashboardRows(p)},
		{SheetTopHoldings, holdingRows(p.TopHoldings)},
		{SheetAllHoldings, holdingRows(p.AllHoldings)},
		{SheetSectors, allocationRows(p.SectorAllocation)},
		{SheetCountries, allocationRows(p.CountryAllocation)},
		{SheetSearchByFund, searchRows(p.SearchByFund)},
		{SheetSearchByAsset, searchRows(p.SearchByAsset)},
	}

	for i, s := range sheets {
		if i == 0 {
			// 기본 Sheet1 을 첫 시트로 재사용
			if err := f.SetSheetName(f.GetSheetName(0), s.name); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			return fmt.Errorf("create sheet %s: %w", s.name, err)
		}

		for r, row := range s.rows {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(s.name, cell, &row); err != nil {
				return fmt.Errorf("write %s row %d: %w", s.name, r+1, err)
			}
		}
	}
	f.SetActiveSheet(0)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// dashboardRows renders the dashboard card as key/value pairs
func dashboardRows(p *Payload) [][]interface{} {
	rows := [][]interface{}{
		{"field", "value"},
		{"generated_at", p.GeneratedAt.Format(time.RFC3339)},
	}
	d := p.Dashboard
	if d == nil {
		return rows
	}

	builtAt := ""
	if d.BuiltAt != nil {
		builtAt = d.BuiltAt.UTC().Format(time.RFC3339)
	}

	return append(rows,
		[]interface{}{"base_currency", d.BaseCurrency},
		[]interface{}{"total_holdings_value", d.TotalHoldingsValue},
		[]interface{}{"top_sector_name", str(d.TopSectorName)},
		[]interface{}{"top_sector_weight_pct", num(d.TopSectorWeightPct)},
		[]interface{}{"top_country_name", str(d.TopCountryName)},
		[]interface{}{"top_country_weight_pct", num(d.TopCountryWeightPct)},
		[]interface{}{"avg_fund_return_1y", num(d.AvgFundReturn1Y)},
		[]interface{}{"avg_fund_return_3y", num(d.AvgFundReturn3Y)},
		[]interface{}{"mapped_fund_count", d.MappedFundCount},
		[]interface{}{"mapped_master_count", d.MappedMasterCount},
		[]interface{}{"built_at", builtAt},
	)
}

func holdingRows(in []mart.HoldingRow) [][]interface{} {
	rows := [][]interface{}{holdingHeader}
	for _, h := range in {
		rows = append(rows, []interface{}{
			h.RankNo, h.HoldingKey, h.HoldingName, str(h.HoldingTicker), h.HoldingType,
			h.TotalTrueWeightPct, h.TotalTrueValue, h.AllocationSharePct,
		})
	}
	return rows
}

func allocationRows(in []mart.AllocationRow) [][]interface{} {
	rows := [][]interface{}{allocationHeader}
	for _, a := range in {
		rows = append(rows, []interface{}{a.RankNo, a.Name, a.TotalTrueWeightPct, a.TotalTrueValue, a.AllocationSharePct})
	}
	return rows
}

func searchRows(in []mart.SearchRow) [][]interface{} {
	rows := [][]interface{}{searchHeader}
	for _, s := range in {
		rows = append(rows, []interface{}{
			s.FundCode, s.HoldingKey, s.HoldingName, str(s.HoldingTicker), s.HoldingType,
			s.TotalTrueWeightPct, s.TotalTrueValue,
		})
	}
	return rows
}

// null → empty cell
func str(s *string) interface{} {
	if s == nil {
		return ""
	}
	return *s
}

func num(f *float64) interface{} {
	if f == nil {
		return ""
	}
	return *f
}
