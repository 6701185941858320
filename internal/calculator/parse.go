package calculator

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// maxInputLength bounds a typed number, digits and exponent included
	maxInputLength = 64
	// maxMagnitude bounds the decimal exponent of a typed number in either direction
	maxMagnitude = 400
)

// ParseOptional parses a user-typed number. Empty, non-numeric, negative and
// out-of-range input yields nil; a literal zero is a valid value.
func ParseOptional(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > maxInputLength {
		return nil
	}

	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return nil
	}
	if d.IsZero() {
		zero := 0.0
		return &zero
	}
	if mag := int(d.Exponent()) + d.NumDigits(); mag > maxMagnitude || mag < -maxMagnitude {
		return nil
	}

	f, _ := d.Float64()
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return nil
	}
	return &f
}

// ParsePercent parses a percentage, treating absent or invalid input as 0
func ParsePercent(s string) float64 {
	if v := ParseOptional(s); v != nil {
		return *v
	}
	return 0
}

// roundTo rounds half away from zero to the given number of decimal places.
// Non-finite values are returned unchanged.
func roundTo(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}
