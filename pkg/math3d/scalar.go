package math3d

import (
	"math"

	"golang.org/x/exp/constraints"
)

// Epsilon is the length below which a vector is treated as zero.
const Epsilon = 1e-9

// Radians converts degrees to radians.
func Radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

// IsFinite reports whether f is neither NaN nor infinite.
func IsFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Clamp limits v to the closed range [lo, hi].
func Clamp[T constraints.Integer | constraints.Float](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Wrap maps v into the half-open range [lo, hi).
// hi must be greater than lo.
func Wrap[T constraints.Float](v, lo, hi T) T {
	span := hi - lo
	r := T(math.Mod(float64(v-lo), float64(span)))
	if r < 0 {
		r += span
	}
	if r >= span { // -tiny + span rounds up to span
		r = 0
	}
	return lo + r
}
