// Package numeric implements the fixed-point scalar used throughout the
// layout pipeline. No float comparisons decide geometry: all layout math
// happens in millipoints and only converts to float64 at the paint/PDF
// emission boundary.
package numeric

import "math"

// Length is a fixed-point length in millipoints (1/1000 of a PDF point).
// Arithmetic saturates instead of overflowing silently.
type Length int64

const (
	// PointLength is one PDF point expressed in millipoints.
	PointLength Length = 1000
	// Zero is the additive identity.
	Zero Length = 0

	maxLength = Length(math.MaxInt64)
	minLength = Length(math.MinInt64)
)

// FromPoints converts a float64 point value to a Length, rounding
// half-to-even at the conversion boundary.
func FromPoints(pt float64) Length {
	return Length(roundHalfToEven(pt * 1000))
}

// FromInches converts inches (72 points per inch) to a Length.
func FromInches(in float64) Length { return FromPoints(in * 72) }

// FromMillimeters converts millimeters (1in = 25.4mm) to a Length.
func FromMillimeters(mm float64) Length { return FromPoints(mm * 72 / 25.4) }

// Points converts back to a float64 point value. This must only be called
// at paint/PDF emission boundaries (§4.3).
func (l Length) Points() float64 { return float64(l) / 1000 }

// Add returns l+o, saturating on overflow.
func (l Length) Add(o Length) Length {
	sum := l + o
	if (o > 0 && sum < l) || (o < 0 && sum > l) {
		if o > 0 {
			return maxLength
		}
		return minLength
	}
	return sum
}

// Sub returns l-o, saturating on overflow.
func (l Length) Sub(o Length) Length { return l.Add(-o) }

// Mul multiplies a Length by a dimensionless scalar, rounding half-to-even.
func (l Length) Mul(scalar float64) Length {
	return Length(roundHalfToEven(float64(l) * scalar))
}

// Div divides a Length by a dimensionless scalar; division by zero returns
// the saturated extreme of the correct sign.
func (l Length) Div(scalar float64) Length {
	if scalar == 0 {
		if l >= 0 {
			return maxLength
		}
		return minLength
	}
	return Length(roundHalfToEven(float64(l) / scalar))
}

// Min returns the smaller of a and b.
func Min(a, b Length) Length {
	if a < b {
		return a
	}
	return b
}

// Max returns the larger of a and b.
func Max(a, b Length) Length {
	if a > b {
		return a
	}
	return b
}

// Clamp constrains l to [lo, hi]; if hi < lo, hi wins (matches CSS clamp()
// order-independence rule used by the cascade's min/max/clamp functions).
func Clamp(l, lo, hi Length) Length {
	if hi < lo {
		lo, hi = hi, lo
	}
	return Max(lo, Min(hi, l))
}

// Percent resolves a percentage against an explicit containing-block basis.
// Percentages are never resolved implicitly; the caller must thread the
// basis down during wrap (§4.3, §9 "no back-references").
func Percent(pct float64, basis Length) Length {
	return basis.Mul(pct / 100)
}

// roundHalfToEven implements banker's rounding, the canonical rounding
// policy at paint and PDF emission boundaries (§4.3).
func roundHalfToEven(v float64) int64 {
	floor := math.Floor(v)
	diff := v - floor
	switch {
	case diff < 0.5:
		return int64(floor)
	case diff > 0.5:
		return int64(floor) + 1
	default:
		// Exactly .5: round to even.
		i := int64(floor)
		if i%2 == 0 {
			return i
		}
		return i + 1
	}
}
