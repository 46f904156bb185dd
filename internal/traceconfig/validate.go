package traceconfig

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	currencyPattern   = regexp.MustCompile(`^[A-Z]{3}$`)
	identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

// Validate checks all required constraints
// 실패 시 error 반환 (프로그램 중단)
func Validate(cfg *Config) error {
	// === Currency ===
	if !currencyPattern.MatchString(cfg.Currency.Base) {
		return ValidationError{"currency.base", "must be a 3-letter uppercase currency code"}
	}
	if !identifierPattern.MatchString(cfg.Currency.FxTable) {
		return ValidationError{"currency.fx_table", fmt.Sprintf("invalid table name %q", cfg.Currency.FxTable)}
	}
	switch cfg.Currency.LatestPolicy {
	case FxLatestUnbounded, FxLatestAsOfBounded:
	default:
		return ValidationError{"currency.latest_policy", fmt.Sprintf("must be %q or %q", FxLatestUnbounded, FxLatestAsOfBounded)}
	}

	// === Aggregation ===
	if cfg.Aggregation.TopN < 1 {
		return ValidationError{"aggregation.top_n", "must be >= 1"}
	}

	// === Regions ===
	if err := validateLabels(cfg.Regions.RegionLikeValues, "regions.region_like_values"); err != nil {
		return err
	}
	if err := validateLabels(cfg.Regions.RegionLikeTokens, "regions.region_like_tokens"); err != nil {
		return err
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	// 미래 환율 사용 가능
	if cfg.Currency.LatestPolicy == FxLatestUnbounded {
		warnings = append(warnings, Warning{
			Code:    "FX_LATEST_UNBOUNDED",
			Message: "latest FX fallback may use a rate dated after the NAV as-of date",
		})
	}

	// 분류 목록 비어 있음 → 모든 라벨이 국가로 집계
	if len(cfg.Regions.RegionLikeValues) == 0 && len(cfg.Regions.RegionLikeTokens) == 0 {
		warnings = append(warnings, Warning{
			Code:    "EMPTY_REGION_LIST",
			Message: "no region-like values or tokens: every region label counts as a country",
		})
	}

	if cfg.Aggregation.TopN > 100 {
		warnings = append(warnings, Warning{
			Code:    "LARGE_TOP_N",
			Message: "top_n > 100: dashboard tables become large",
		})
	}

	return warnings
}

// === Helper Functions ===

func validateLabels(labels []string, field string) error {
	seen := make(map[string]bool, len(labels))
	for i, l := range labels {
		if strings.TrimSpace(l) == "" {
			return ValidationError{fmt.Sprintf("%s[%d]", field, i), "must not be blank"}
		}
		if seen[l] {
			return ValidationError{fmt.Sprintf("%s[%d]", field, i), fmt.Sprintf("duplicate label %q", l)}
		}
		seen[l] = true
	}
	return nil
}
