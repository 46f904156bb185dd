package traceconfig

import "strings"

// Config는 look-through 엔진의 전체 설정
// 엔진 컴포넌트에 명시적으로 주입 (전역 상태 없음)
type Config struct {
	Meta        Meta        `yaml:"meta" json:"meta"`
	Currency    Currency    `yaml:"currency" json:"currency"`
	Aggregation Aggregation `yaml:"aggregation" json:"aggregation"`
	Regions     Regions     `yaml:"regions" json:"regions"`
}

// Meta 메타 정보
type Meta struct {
	ConfigID string `yaml:"config_id" json:"config_id"`
	Version  string `yaml:"version" json:"version"`
}

// Currency S2: 기준통화/환율 해석
type Currency struct {
	Base         string         `yaml:"base" json:"base"`                   // ISO 4217, e.g. THB
	FxTable      string         `yaml:"fx_table" json:"fx_table"`           // source table for rate history
	LatestPolicy FxLatestPolicy `yaml:"latest_policy" json:"latest_policy"` // unbounded | as_of_bounded
}

// FxLatestPolicy decides which rates the "latest" fallback may use
type FxLatestPolicy string

const (
	// FxLatestUnbounded uses the newest rate of the currency, even if dated after the NAV
	FxLatestUnbounded FxLatestPolicy = "unbounded"

	// FxLatestAsOfBounded uses the newest rate dated on or before the NAV as-of date
	FxLatestAsOfBounded FxLatestPolicy = "as_of_bounded"
)

// Aggregation S4: 순위/대시보드
type Aggregation struct {
	TopN int `yaml:"top_n" json:"top_n"`
}

// Regions S3: 국가/지역 분류
type Regions struct {
	RegionLikeValues []string `yaml:"region_like_values" json:"region_like_values"` // exact labels
	RegionLikeTokens []string `yaml:"region_like_tokens" json:"region_like_tokens"` // substrings
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Meta: Meta{
			ConfigID: "fundtrace_default",
			Version:  "1",
		},
		Currency: Currency{
			Base:         "THB",
			FxTable:      "daily_fx_rates",
			LatestPolicy: FxLatestUnbounded,
		},
		Aggregation: Aggregation{
			TopN: 10,
		},
		Regions: Regions{
			RegionLikeValues: []string{
				"Americas",
				"North America",
				"South America",
				"Europe",
				"Asia",
				"Africa",
				"Middle East",
				"Pacific",
				"Global",
				"Other",
				"Others",
				"Greater Asia",
				"Greater China",
				"Developed Markets",
				"Emerging Markets",
			},
			RegionLikeTokens: []string{
				"Asia",
				"Europe",
				"America",
				"Pacific",
				"Global",
				"World",
				"Emerging",
				"Developed",
				"Middle East",
				"Africa",
				"Greater",
				"Other",
			},
		},
	}
}

// Overrides are env/flag values applied on top of the YAML (zero value = keep)
type Overrides struct {
	BaseCurrency string
	TopN         int
	FxTable      string
}

// Apply applies non-zero overrides and returns cfg
func (cfg *Config) Apply(o Overrides) *Config {
	if base := strings.ToUpper(strings.TrimSpace(o.BaseCurrency)); base != "" {
		cfg.Currency.Base = base
	}
	if o.TopN > 0 {
		cfg.Aggregation.TopN = o.TopN
	}
	if table := strings.TrimSpace(o.FxTable); table != "" {
		cfg.Currency.FxTable = table
	}
	return cfg
}

// Normalize trims and uppercases the currency fields
func (cfg *Config) Normalize() {
	cfg.Currency.Base = strings.ToUpper(strings.TrimSpace(cfg.Currency.Base))
	cfg.Currency.FxTable = strings.TrimSpace(cfg.Currency.FxTable)
	if cfg.Currency.LatestPolicy == "" {
		cfg.Currency.LatestPolicy = FxLatestUnbounded
	}
}
