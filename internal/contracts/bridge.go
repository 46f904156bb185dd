package contracts

import (
	"fmt"
	"time"
)

// MapMethod tells which pass of the bridge resolver produced a link
type MapMethod int

const (
	// MapFeederHoldingISIN: ISIN token in a feeder holding name matched a master
	MapFeederHoldingISIN MapMethod = iota + 1

	// MapFundISINFallback: fund's own ISIN matched a master (fund had no primary match)
	MapFundISINFallback
)

// String returns the persisted map_method value
func (m MapMethod) String() string {
	switch m {
	case MapFeederHoldingISIN:
		return "feeder_holding_isin"
	case MapFundISINFallback:
		return "thai_fund_isin_fallback"
	default:
		return "unknown"
	}
}

// Priority returns the merge priority; lower wins
func (m MapMethod) Priority() int {
	switch m {
	case MapFeederHoldingISIN:
		return 1
	case MapFundISINFallback:
		return 2
	default:
		return 9
	}
}

// Outranks reports whether m wins over other when both link the same (fund, master) pair
func (m MapMethod) Outranks(other MapMethod) bool {
	return m.Priority() < other.Priority()
}

// MarshalText implements encoding.TextMarshaler
func (m MapMethod) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (m *MapMethod) UnmarshalText(b []byte) error {
	parsed, err := ParseMapMethod(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ParseMapMethod parses a persisted map_method value
func ParseMapMethod(s string) (MapMethod, error) {
	switch s {
	case "feeder_holding_isin":
		return MapFeederHoldingISIN, nil
	case "thai_fund_isin_fallback":
		return MapFundISINFallback, nil
	default:
		return 0, fmt.Errorf("unknown map_method %q", s)
	}
}

// BridgeLink links a domestic fund to one master security
// ⭐ SSOT: S1 → S3 브리지 (fund_code, ft_ticker) 유일
type BridgeLink struct {
	FundCode            string    `json:"fund_code"`
	FeederName          string    `json:"feeder_name"`
	FeederWeightPct     float64   `json:"feeder_weight_pct"`      // raw, null coerced to 0
	FeederWeightPctNorm float64   `json:"feeder_weight_pct_norm"` // 0 for links with raw <= 0
	AsOfDate            time.Time `json:"as_of_date"`             // zero for fallback links
	Token               string    `json:"token,omitempty"`
	TokenISIN           string    `json:"token_isin,omitempty"`
	FtTicker            string    `json:"ft_ticker"`
	Ticker              string    `json:"ticker"`
	MasterName          string    `json:"name"`
	TickerType          string    `json:"ticker_type"`
	MapMethod           MapMethod `json:"map_method"`
}

// Key returns the (fund_code, ft_ticker) uniqueness key
func (b BridgeLink) Key() string {
	return b.FundCode + "\x00" + b.FtTicker
}

// Active reports whether the link takes part in normalisation and exposure
func (b BridgeLink) Active() bool {
	return b.FeederWeightPct > 0
}
