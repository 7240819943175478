// math/heading.go
// Copyright(c) 2025 scopesim contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

///////////////////////////////////////////////////////////////////////////
// headings and directions

// NormalizeHeading reduces h to [0,360). Non-finite headings are treated
// as north.
func NormalizeHeading(h float64) float64 {
	if !IsFinite(h) {
		return 0
	}
	h = Mod(h, 360)
	if h < 0 {
		h += 360
	}
	if h >= 360 {
		// -1e-15 + 360 rounds to 360.
		h = 0
	}
	return h
}

// HeadingDifference returns the minimum difference between two
// headings. (i.e., the result is always in the range [0,180].)
func HeadingDifference(a float64, b float64) float64 {
	return Abs(HeadingSignedTurn(a, b))
}

// HeadingSignedTurn returns the signed shortest turn from cur to target,
// in (-180,180]; positive is a right turn.
//
// Rotate the target heading so that it's aligned with 180 degrees. This
// lets us not worry about the complexities of the wrap around at 0/360..
func HeadingSignedTurn(cur, target float64) float64 {
	rot := NormalizeHeading(180 - target)
	return 180 - NormalizeHeading(cur+rot) // w.r.t. 180 target
}

func OppositeHeading(h float64) float64 {
	return NormalizeHeading(h + 180)
}

// HeadingVector returns the unit vector (east, north) for the given
// heading.
func HeadingVector(hdg float64) [2]float64 {
	return SinCos(Radians(NormalizeHeading(hdg)))
}

// VectorHeading returns the heading that the (east, north) vector v points
// along.
func VectorHeading(v [2]float64) float64 {
	return NormalizeHeading(Degrees(Atan2(v[0], v[1])))
}
