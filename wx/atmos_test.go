// wx/atmos_test.go
// Copyright(c) 2025 scopesim contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package wx

import (
	gomath "math"
	"testing"

	"github.com/mmp/scopesim/math"
)

func TestTemperatureAt(t *testing.T) {
	for _, c := range []struct {
		alt, temp float64
	}{
		{0, 288.15},
		{1000, 281.65},
		{11000, 216.65},
		{15000, 216.65},
		{30000, 216.65},
		{-500, 288.15},
		{gomath.NaN(), 288.15},
		{gomath.Inf(1), 288.15},
	} {
		if got := TemperatureAt(c.alt); math.Abs(got-c.temp) > 1e-9 {
			t.Errorf("TemperatureAt(%f) = %f, want %f", c.alt, got, c.temp)
		}
	}
}

func TestPressureAt(t *testing.T) {
	if p := PressureAt(0); p != P0 {
		t.Errorf("PressureAt(0) = %f, want %f", p, float64(P0))
	}
	if p := PressureAt(-100); p != P0 {
		t.Errorf("PressureAt(-100) = %f, want %f", p, float64(P0))
	}

	// Standard tables give 22632 Pa at 11km.
	if p := PressureAt(11000); math.Abs(p-22632)/22632 > 0.005 {
		t.Errorf("PressureAt(11000) = %f, expected about 22632", p)
	}

	// The two regimes meet at the tropopause.
	below, above := PressureAt(TropopauseMeters), PressureAt(TropopauseMeters+1e-6)
	if math.Abs(below-above) > 1e-3 {
		t.Errorf("pressure discontinuity at tropopause: %f vs %f", below, above)
	}
}

func TestDensityAt(t *testing.T) {
	if d := DensityAt(0); math.Abs(d-Rho0) > 1e-3 {
		t.Errorf("DensityAt(0) = %f, want about %f", d, Rho0)
	}

	// Density must strictly decrease with altitude up to 60,000'.
	prev := DensityAt(0)
	for ft := 100.0; ft <= MaxAltitudeFeet; ft += 100 {
		d := DensityAt(ft * math.FeetToMeters)
		if d >= prev {
			t.Fatalf("density did not decrease at %.0f': %f >= %f", ft, d, prev)
		}
		prev = d
	}
}

func TestSpeedOfSoundAt(t *testing.T) {
	if a := SpeedOfSoundAt(0); math.Abs(a-340.29) > 0.05 {
		t.Errorf("SpeedOfSoundAt(0) = %f, expected about 340.29", a)
	}
	if a := SpeedOfSoundAt(12000); math.Abs(a-295.07) > 0.05 {
		t.Errorf("SpeedOfSoundAt(12000) = %f, expected about 295.07", a)
	}
}

func TestLookup(t *testing.T) {
	a := Lookup(35000)
	b := makeAtmosphere(35000 * math.FeetToMeters)
	if a != b {
		t.Errorf("Lookup(35000) = %+v, want %+v", a, b)
	}
	// Cached value is returned on the second lookup.
	if c := Lookup(35000); c != a {
		t.Errorf("second Lookup(35000) = %+v, want %+v", c, a)
	}

	// Altitudes within a foot share a sample.
	n := atmosphereCache.Len()
	for _, alt := range []float64{12345.2, 12344.6, 12345.49} {
		if Lookup(alt) != Lookup(12345) {
			t.Errorf("Lookup(%v) differs from Lookup(12345)", alt)
		}
	}
	if d := atmosphereCache.Len() - n; d != 1 {
		t.Errorf("climb within a foot added %d cache entries, want 1", d)
	}

	if Lookup(-200) != Lookup(0) {
		t.Errorf("negative altitude should clamp to sea level")
	}
	if Lookup(gomath.NaN()) != Lookup(0) {
		t.Errorf("NaN altitude should clamp to sea level")
	}
	if Lookup(90000) != Lookup(MaxAltitudeFeet) {
		t.Errorf("altitude above %d' should clamp", MaxAltitudeFeet)
	}

	if r := Lookup(0).DensityRatio(); math.Abs(r-1) > 1e-3 {
		t.Errorf("sea level density ratio = %f, expected about 1", r)
	}
}
