package utils

import "math"

// Rounding convention for every presented metric: round half away from zero
// (math.Round). 67.5 rounds to 68. Golden tests depend on this.

// Round rounds to the nearest whole unit. Used for currency and whole-percent
// fields.
func Round(v float64) float64 {
	return math.Round(v)
}

// Round2 rounds ratio-like fields to 2 decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ClampScore normalizes a radar score into [0, 100].
func ClampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	return math.Min(v, 100)
}

// SafeDiv divides a by b, returning fallback when b is zero. The calculator
// never propagates NaN or Inf into a result.
func SafeDiv(a, b, fallback float64) float64 {
	if b == 0 {
		return fallback
	}
	return a / b
}
