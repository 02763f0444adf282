// Package apportion converts between the three units a two-party share of a
// transaction can be expressed in: absolute amount, percentage, and
// ratio-of-shares.
//
// All functions are pure and operate on integer cents. The owed share is
// always derived as total minus personal, so the two always sum exactly to
// the total. Behavior is defined for non-negative totals.
package apportion

import (
	"math"

	"fintrack/internal/core"
)

// FromAmount apportions by absolute personal amount. The value is clamped to
// [0, total].
func FromAmount(total, value core.Money) (personal, owed core.Money) {
	personal = value
	if personal.Cents < 0 {
		personal.Cents = 0
	}
	if personal.Cents > total.Cents {
		personal.Cents = total.Cents
	}
	return personal, total.Sub(personal)
}

// FromPercentage apportions by percentage of the total. The percentage is
// clamped to [0, 100] and the clamped value is returned for display.
func FromPercentage(total core.Money, pct float64) (personal, owed core.Money, clamped float64) {
	clamped = pct
	if math.IsNaN(clamped) || clamped < 0 {
		clamped = 0
	}
	if clamped > 100 {
		clamped = 100
	}
	personal = core.Money{Cents: int64(math.Round(float64(total.Cents) * clamped / 100))}
	return personal, total.Sub(personal), clamped
}

// FromShares apportions by a ratio of shares: personal = total * your/all.
// When the inputs do not describe a ratio (all <= 0, negative yours, or
// yours > all) it reports ok=false and the caller must keep its prior values;
// no partial update ever happens, so a zero divisor can never leak NaN.
func FromShares(total core.Money, yours, all int64) (personal, owed core.Money, ok bool) {
	if all <= 0 || yours < 0 || yours > all {
		return core.Money{}, core.Money{}, false
	}
	// Integer half-up rounding of total*yours/all.
	personal = core.Money{Cents: (total.Cents*yours + all/2) / all}
	return personal, total.Sub(personal), true
}
