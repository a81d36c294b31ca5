package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Number is a float64 with lenient JSON decoding: plain numbers pass
// through, numeric strings are parsed, and null, absent or garbage
// values decode to 0. This is the single coercion point for user-typed
// quantities, rates, tax and shipping; the preview must never show NaN,
// so invalid numeric input is treated as zero rather than rejected.
type Number float64

// UnmarshalJSON implements the coercion policy.
func (n *Number) UnmarshalJSON(data []byte) error {
	*n = 0
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil
		}
		*n = Coerce(s)
		return nil
	}
	var f float64
	if err := json.Unmarshal(trimmed, &f); err != nil {
		return nil
	}
	*n = Number(f)
	return nil
}

// MarshalJSON emits the plain numeric value.
func (n Number) MarshalJSON() ([]byte, error) {
	return json.Marshal(float64(n))
}

// Float64 returns the underlying value.
func (n Number) Float64() float64 {
	return float64(n)
}

// Coerce parses a user-typed numeric string. Invalid or empty input
// coerces to 0.
func Coerce(raw string) Number {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return Number(f)
}
