// math/vecmat.go
// Copyright(c) 2025 scopesim contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

import gomath "math"

///////////////////////////////////////////////////////////////////////////
// point 2f

// Various useful functions for arithmetic with 2D points/vectors.
// Names are brief in order to avoid clutter when they're used.

// a+b
func Add2f(a [2]float64, b [2]float64) [2]float64 {
	return [2]float64{a[0] + b[0], a[1] + b[1]}
}

// a-b
func Sub2f(a [2]float64, b [2]float64) [2]float64 {
	return [2]float64{a[0] - b[0], a[1] - b[1]}
}

// a*s
func Scale2f(a [2]float64, s float64) [2]float64 {
	return [2]float64{s * a[0], s * a[1]}
}

// Length of v
func Length2f(v [2]float64) float64 {
	return gomath.Hypot(v[0], v[1])
}

// SinCos returns (sin(a), cos(a)), which for a heading in radians is the
// (east, north) unit vector.
func SinCos(a float64) [2]float64 {
	s, c := gomath.Sincos(a)
	return [2]float64{s, c}
}
