package schedule

import "github.com/shopspring/decimal"

// =============================================================================
// CURRENCY ROUNDING
// =============================================================================

// RoundCurrency rounds an amount half-up to the smallest currency unit.
// CLP has no decimal subunit, so places is 0 for peso amounts; where
// subunits exist the same rule applies at 2 places.
//
// decimal.Round rounds half away from zero, which for the non-negative
// amounts this engine produces is exactly round-half-up.
func RoundCurrency(d decimal.Decimal, places int32) decimal.Decimal {
	return d.Round(places)
}

// decPtr is a convenience for optional amounts in definitions and tests.
func decPtr(d decimal.Decimal) *decimal.Decimal { return &d }

// intPtr is a convenience for optional day/count fields.
func intPtr(n int) *int { return &n }
