package s3_exposure

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fundtrace/internal/contracts"
	"github.com/wonny/fundtrace/internal/traceconfig"
	"github.com/wonny/fundtrace/pkg/logger"
)

var scraped = time.Date(2026, 9, 28, 0, 0, 0, 0, time.UTC)

func link(fund, ft string, raw, norm float64) contracts.BridgeLink {
	return contracts.BridgeLink{
		FundCode:            fund,
		FtTicker:            ft,
		Ticker:              ft,
		FeederWeightPct:     raw,
		FeederWeightPctNorm: norm,
		MapMethod:           contracts.MapFeederHoldingISIN,
	}
}

func stock(ft, name, ticker string, w float64) contracts.StockHolding {
	return contracts.StockHolding{FtTicker: ft, HoldingName: name, HoldingTicker: ticker, HoldingType: "Equity", WeightPct: contracts.Float(w), AsOfDate: scraped}
}

func category(ft, name string, w float64) contracts.CategoryWeight {
	return contracts.CategoryWeight{FtTicker: ft, Category: name, WeightPct: contracts.Float(w), AsOfDate: scraped}
}

func newCalculator() *Calculator {
	return NewCalculator(traceconfig.Default(), logger.Nop())
}

func TestCalculate_StockCascade(t *testing.T) {
	nav := &contracts.NavFx{FundCode: "F1", AUM: 1_000_000, FxStatus: contracts.FxBaseCurrency}
	ds := &contracts.Dataset{
		Stocks: []contracts.StockHolding{
			stock("M1", "Apple Inc", " aapl ", 10),
			stock("M1", "Private Co", "", 5),
			stock("M2", "Other", "OTH", 50), // 연결되지 않은 마스터
		},
	}

	res := newCalculator().Calculate(
		[]contracts.BridgeLink{link("F1", "M1", 80, 80)},
		map[string]*contracts.NavFx{"F1": nav},
		ds,
	)
	require.Len(t, res.Stocks, 2)

	// holding_key 정렬: AAPL < PRIVATE CO
	apple := res.Stocks[0]
	assert.Equal(t, "AAPL", apple.HoldingKey)
	assert.Equal(t, "AAPL", apple.HoldingTickerNorm)
	assert.Equal(t, "APPLE INC", apple.HoldingNameNorm)
	assert.InDelta(t, 8.0, apple.TrueWeightPct, 1e-12)
	assert.InDelta(t, 80_000.0, apple.TrueValue, 1e-6)
	assert.Equal(t, 10.0, apple.PortfolioWeightPct)
	assert.Equal(t, 1_000_000.0, apple.AUM)
	assert.Same(t, nav, apple.Nav)
	assert.Equal(t, scraped, apple.AsOfDate)

	private := res.Stocks[1]
	assert.Equal(t, "PRIVATE CO", private.HoldingKey)
	assert.Empty(t, private.HoldingTickerNorm)
	assert.InDelta(t, 4.0, private.TrueWeightPct, 1e-12)
}

func TestCalculate_DedupKeepsMaxWeight(t *testing.T) {
	ds := &contracts.Dataset{
		Stocks: []contracts.StockHolding{
			stock("M1", "Apple Inc", "AAPL", 4),
			stock("M1", "Apple Inc", "AAPL", 6),
			stock("M1", "Apple Inc", "AAPL", 5),
		},
		Sectors: []contracts.CategoryWeight{
			category("M1", "Technology", 30),
			category("M1", "Technology", 35),
		},
	}

	res := newCalculator().Calculate([]contracts.BridgeLink{link("F1", "M1", 100, 100)}, nil, ds)
	require.Len(t, res.Stocks, 1)
	assert.Equal(t, 6.0, res.Stocks[0].PortfolioWeightPct)
	require.Len(t, res.Sectors, 1)
	assert.Equal(t, 35.0, res.Sectors[0].SectorWeightPct)
}

func TestCalculate_DifferentDatesAreDistinct(t *testing.T) {
	later := category("M1", "Technology", 20)
	later.AsOfDate = scraped.AddDate(0, 0, 1)
	ds := &contracts.Dataset{Sectors: []contracts.CategoryWeight{category("M1", "Technology", 30), later}}

	res := newCalculator().Calculate([]contracts.BridgeLink{link("F1", "M1", 100, 100)}, nil, ds)
	assert.Len(t, res.Sectors, 2)
}

func TestCalculate_NoNavMeansZeroValue(t *testing.T) {
	ds := &contracts.Dataset{Stocks: []contracts.StockHolding{stock("M1", "Apple Inc", "AAPL", 10)}}

	res := newCalculator().Calculate([]contracts.BridgeLink{link("F1", "M1", 50, 50)}, map[string]*contracts.NavFx{}, ds)
	require.Len(t, res.Stocks, 1)
	assert.InDelta(t, 5.0, res.Stocks[0].TrueWeightPct, 1e-12)
	assert.Equal(t, 0.0, res.Stocks[0].TrueValue)
	assert.Nil(t, res.Stocks[0].Nav)
}

func TestCalculate_InactiveLinksSkipped(t *testing.T) {
	ds := &contracts.Dataset{Stocks: []contracts.StockHolding{stock("M1", "Apple Inc", "AAPL", 10)}}

	res := newCalculator().Calculate([]contracts.BridgeLink{link("F1", "M1", 0, 0)}, nil, ds)
	assert.Empty(t, res.Stocks)
}

// "Asia" is region-like, "Japan" is country-like
func TestCalculate_RegionClassification(t *testing.T) {
	ds := &contracts.Dataset{
		Regions: []contracts.CategoryWeight{
			category("M1", "Asia", 40),
			category("M1", "Japan", 60),
		},
	}

	res := newCalculator().Calculate([]contracts.BridgeLink{link("F1", "M1", 100, 100)}, nil, ds)
	require.Len(t, res.Regions, 2)

	assert.Equal(t, "Asia", res.Regions[0].RegionName)
	assert.False(t, res.Regions[0].IsCountryLike)
	assert.Equal(t, "Japan", res.Regions[1].RegionName)
	assert.True(t, res.Regions[1].IsCountryLike)
}

// P3: all true weights and values are non-negative
func TestCalculate_NonNegative(t *testing.T) {
	ds := &contracts.Dataset{
		Stocks:  []contracts.StockHolding{stock("M1", "Short", "SHRT", -3), stock("M1", "Long", "LONG", 7)},
		Sectors: []contracts.CategoryWeight{category("M1", "Cash", -2)},
		Regions: []contracts.CategoryWeight{{FtTicker: "M1", Category: "US", AsOfDate: scraped}},
	}
	navs := map[string]*contracts.NavFx{"F1": {FundCode: "F1", AUM: -100}}

	res := newCalculator().Calculate([]contracts.BridgeLink{link("F1", "M1", 90, 90)}, navs, ds)
	for _, r := range res.Stocks {
		assert.GreaterOrEqual(t, r.TrueWeightPct, 0.0)
		assert.GreaterOrEqual(t, r.TrueValue, 0.0)
	}
	for _, r := range res.Sectors {
		assert.GreaterOrEqual(t, r.TrueWeightPct, 0.0)
		assert.GreaterOrEqual(t, r.TrueValue, 0.0)
	}
	require.Len(t, res.Regions, 1)
	assert.Equal(t, 0.0, res.Regions[0].RegionWeightPct)
}

func TestCalculate_Deterministic(t *testing.T) {
	ds := &contracts.Dataset{
		Stocks: []contracts.StockHolding{
			stock("M2", "B", "B", 1), stock("M1", "C", "C", 1), stock("M1", "A", "A", 1),
		},
	}
	links := []contracts.BridgeLink{link("F2", "M1", 10, 10), link("F1", "M2", 10, 10), link("F1", "M1", 10, 10)}

	first := newCalculator().Calculate(links, nil, ds)
	second := newCalculator().Calculate(links, nil, ds)
	assert.Equal(t, first, second)

	var order []string
	for _, r := range first.Stocks {
		order = append(order, r.FundCode+"/"+r.FtTicker+"/"+r.HoldingKey)
	}
	assert.Equal(t, []string{"F1/M1/A", "F1/M1/C", "F1/M2/B", "F2/M1/A", "F2/M1/C"}, order)
}

func TestRegionClassifier(t *testing.T) {
	c := NewRegionClassifier(traceconfig.Default().Regions)

	tests := []struct {
		label string
		want  bool
	}{
		{"Japan", true},
		{"United States", true},
		{" Thailand ", true},
		{"Asia", false},
		{"Asia Pacific ex Japan", false},
		{"North America", false},
		{"Latin America", false},
		{"Emerging Markets", false},
		{"World", false},
		{"Others", false},
		{"", false},
		{"   ", false},
		{"asia", true}, // 대소문자 구분
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.want, c.IsCountryLike(tt.label))
		})
	}
}

func TestRegionClassifier_Empty(t *testing.T) {
	c := NewRegionClassifier(traceconfig.Regions{})
	assert.True(t, c.IsCountryLike("Asia"))
	assert.False(t, c.IsCountryLike(""))
}
