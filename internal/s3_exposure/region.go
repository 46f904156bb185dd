package s3_exposure

import (
	"strings"

	"github.com/wonny/fundtrace/internal/traceconfig"
)

// RegionClassifier splits region labels into country-like and region-like
type RegionClassifier struct {
	values map[string]bool
	tokens []string
}

// NewRegionClassifier builds a classifier from the configured block-lists
func NewRegionClassifier(cfg traceconfig.Regions) *RegionClassifier {
	c := &RegionClassifier{
		values: make(map[string]bool, len(cfg.RegionLikeValues)),
		tokens: append([]string(nil), cfg.RegionLikeTokens...),
	}
	for _, v := range cfg.RegionLikeValues {
		c.values[v] = true
	}
	return c
}

// IsCountryLike reports whether label names a single country.
// Blank labels, exact region values and labels containing a region token are not.
func (c *RegionClassifier) IsCountryLike(label string) bool {
	val := strings.TrimSpace(label)
	if val == "" {
		return false
	}
	if c.values[val] {
		return false
	}
	for _, tok := range c.tokens {
		if strings.Contains(val, tok) {
			return false
		}
	}
	return true
}
