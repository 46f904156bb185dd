package contracts

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// OptFloat is a nullable numeric read from a source column.
// ⭐ SSOT: null 치환 정책은 호출하는 쪽에서 명시적으로 결정
//
// Substitution policy per field:
//   - weights (feeder / holding / sector / region): null → 0
//   - AUM (native and master total): null → 0
//   - FX rate: null → 1, always with an fx_rate_status flag
//   - returns: stay null and are skipped by the weighted average
type OptFloat struct {
	Value float64
	Valid bool
}

// Float wraps a known value
func Float(v float64) OptFloat {
	return OptFloat{Value: v, Valid: true}
}

// ParseFloat coerces raw text to a number. Anything unparsable is null, never an error.
func ParseFloat(raw string) OptFloat {
	s := strings.TrimSpace(raw)
	if s == "" {
		return OptFloat{}
	}
	// 천 단위 구분자 허용 ("1,234.5")
	s = strings.ReplaceAll(s, ",", "")

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return OptFloat{}
	}
	return Float(v)
}

// Or returns the value, or def when null
func (o OptFloat) Or(def float64) float64 {
	if !o.Valid {
		return def
	}
	return o.Value
}

// Ptr returns nil for null, for drivers and encoders that map nil to NULL
func (o OptFloat) Ptr() *float64 {
	if !o.Valid {
		return nil
	}
	v := o.Value
	return &v
}

// MarshalJSON encodes null or the number
func (o OptFloat) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// UnmarshalJSON accepts null or a number
func (o *OptFloat) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*o = OptFloat{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Float(v)
	return nil
}
