// math/core.go
// Copyright(c) 2025 scopesim contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

import (
	gomath "math"

	"golang.org/x/exp/constraints"
)

// Degrees converts an angle expressed in radians to degrees
func Degrees(r float64) float64 {
	return r * 180 / gomath.Pi
}

// Radians converts an angle expressed in degrees to radians
func Radians(d float64) float64 {
	return d / 180 * gomath.Pi
}

// The kinematics work in float64 throughout; these thin wrappers keep
// call sites free of the gomath prefix.

func Sin(a float64) float64 { return gomath.Sin(a) }
func Cos(a float64) float64 { return gomath.Cos(a) }
func Sqrt(a float64) float64 { return gomath.Sqrt(a) }
func Pow(a, b float64) float64 { return gomath.Pow(a, b) }
func Exp(x float64) float64 { return gomath.Exp(x) }
func Atan2(y, x float64) float64 { return gomath.Atan2(y, x) }
func Round(v float64) float64 { return gomath.Round(v) }
func Floor(v float64) float64 { return gomath.Floor(v) }
func Ceil(v float64) float64 { return gomath.Ceil(v) }

func NaN() float64 { return gomath.NaN() }
func Inf(sign int) float64 { return gomath.Inf(sign) }

func Mod(a, b float64) float64 {
	return gomath.Mod(a, b)
}

// IsFinite reports whether v is neither NaN nor an infinity.
func IsFinite(v float64) bool {
	return !gomath.IsNaN(v) && !gomath.IsInf(v, 0)
}

// FiniteOr returns v if it is finite and def otherwise.
func FiniteOr(v, def float64) float64 {
	if IsFinite(v) {
		return v
	}
	return def
}

func Sign[V constraints.Signed | constraints.Float](v V) V {
	if v > 0 {
		return 1
	} else if v < 0 {
		return -1
	}
	return 0
}

func Abs[V constraints.Integer | constraints.Float](x V) V {
	if x < 0 {
		return -x
	}
	return x
}

func Clamp[T constraints.Ordered](x T, low T, high T) T {
	if x < low {
		return low
	} else if x > high {
		return high
	}
	return x
}

func Lerp(x, a, b float64) float64 {
	return (1-x)*a + x*b
}

// MoveToward steps cur toward target by at most maxStep, landing exactly
// on target when it is within reach.
func MoveToward(cur, target, maxStep float64) float64 {
	d := target - cur
	if Abs(d) <= maxStep {
		return target
	}
	return cur + Sign(d)*maxStep
}
