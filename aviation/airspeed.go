// aviation/airspeed.go
// Copyright(c) 2025 scopesim contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package aviation

import (
	"github.com/mmp/scopesim/math"
	"github.com/mmp/scopesim/wx"
)

const (
	MetersPerSecondPerKnot = 0.514444
	KnotsPerMeterPerSecond = 1 / MetersPerSecondPerKnot
)

// IASToTAS converts indicated airspeed to true airspeed using the ISA
// density ratio at the given altitude. Both speeds are in knots.
func IASToTAS(ias, altitudeFeet float64) float64 {
	if !math.IsFinite(ias) || ias <= 0 {
		return 0
	}
	return ias * math.Sqrt(wx.Lookup(altitudeFeet).DensityRatio())
}

// MachToTAS converts a Mach number to true airspeed in knots using the ISA
// speed of sound at the given altitude.
func MachToTAS(mach, altitudeFeet float64) float64 {
	if !math.IsFinite(mach) || mach <= 0 {
		return 0
	}
	return mach * wx.Lookup(altitudeFeet).SpeedOfSound * KnotsPerMeterPerSecond
}

// TASToIAS is the inverse of IASToTAS.
func TASToIAS(tas, altitudeFeet float64) float64 {
	if !math.IsFinite(tas) || tas <= 0 {
		return 0
	}
	return tas / math.Sqrt(wx.Lookup(altitudeFeet).DensityRatio())
}

// TASToMach is the inverse of MachToTAS.
func TASToMach(tas, altitudeFeet float64) float64 {
	if !math.IsFinite(tas) || tas <= 0 {
		return 0
	}
	return tas * MetersPerSecondPerKnot / wx.Lookup(altitudeFeet).SpeedOfSound
}

// TrueAirspeed returns the true airspeed in knots for a speed instruction
// flown at the given altitude. It returns false if the instruction has no
// value.
func TrueAirspeed(si SpeedInstruction, altitudeFeet float64) (float64, bool) {
	v, ok := si.Speed()
	if !ok {
		return 0, false
	}
	if si.Mode == SpeedModeMach {
		return MachToTAS(v, altitudeFeet), true
	}
	return IASToTAS(v, altitudeFeet), true
}

// GroundSpeed returns the speed over the ground in knots for an aircraft
// flying the given instruction at the given altitude and heading through
// wind. It returns false if the instruction has no value.
func GroundSpeed(si SpeedInstruction, altitudeFeet, heading float64, wind wx.Wind) (float64, bool) {
	tas, ok := TrueAirspeed(si, math.FiniteOr(altitudeFeet, 0))
	if !ok {
		return 0, false
	}
	if wind.IsCalm() {
		return max(0, tas), true
	}

	air := math.Scale2f(math.HeadingVector(math.FiniteOr(heading, 0)), tas)
	gs := math.Length2f(math.Add2f(air, wind.Vector()))
	return max(0, math.FiniteOr(gs, 0)), true
}
