package utils

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Monetary helpers. Balances are accumulated across hundreds of entries, so
// every sum that leaves this package is rounded to 2 decimal places.

// RoundTo2 rounds a float64 to 2 decimal places, half away from zero.
// A small epsilon is added before rounding so that values sitting just
// below a half boundary due to binary representation (1.005 stored as
// 1.00499999...) still round up.
func RoundTo2(val float64) float64 {
	return math.Round(val*100+math.Copysign(1e-9, val)) / 100
}

// Add sums an arbitrary list of amounts and rounds the result once.
func Add(amounts ...float64) float64 {
	sum := 0.0
	for _, a := range amounts {
		sum += a
	}
	return RoundTo2(sum)
}

// Sub returns a-b rounded to 2 decimal places.
func Sub(a, b float64) float64 {
	return RoundTo2(a - b)
}

// ParseAmount coerces a stored or user-supplied value into a float64.
// Numbers pass through unrounded; numeric strings are parsed; nil, empty
// and non-numeric values all degrade to 0. It never returns an error:
// this is the only sanctioned entry point for turning untyped input into
// an amount, so downstream math can assume finite numbers.
func ParseAmount(v interface{}) float64 {
	switch n := v.(type) {
	case nil:
		return 0
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0
		}
		return f
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0
		}
		return f
	default:
		return 0
	}
}
