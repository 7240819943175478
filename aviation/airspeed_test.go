// aviation/airspeed_test.go
// Copyright(c) 2025 scopesim contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package aviation

import (
	"testing"

	"github.com/mmp/scopesim/math"
	"github.com/mmp/scopesim/wx"
)

func TestIASToTAS(t *testing.T) {
	if tas := IASToTAS(250, 0); math.Abs(tas-250) > 0.1 {
		t.Errorf("IASToTAS(250, 0) = %f, want ~250", tas)
	}

	// TAS grows with altitude for a fixed IAS.
	prev := IASToTAS(250, 0)
	for alt := 5000.0; alt <= 40000; alt += 5000 {
		tas := IASToTAS(250, alt)
		if tas <= prev {
			t.Errorf("IASToTAS(250, %f) = %f, not greater than %f", alt, tas, prev)
		}
		if ias := TASToIAS(tas, alt); math.Abs(ias-250) > 1e-6 {
			t.Errorf("TASToIAS(%f, %f) = %f, want 250", tas, alt, ias)
		}
		prev = tas
	}

	for _, ias := range []float64{0, -10, math.NaN()} {
		if tas := IASToTAS(ias, 10000); tas != 0 {
			t.Errorf("IASToTAS(%f) = %f, want 0", ias, tas)
		}
	}
}

func TestMachToTAS(t *testing.T) {
	// ISA speed of sound at FL350 is ~296.5 m/s.
	if tas := MachToTAS(0.78, 35000); math.Abs(tas-449.6) > 1 {
		t.Errorf("MachToTAS(0.78, 35000) = %f, want ~449.6", tas)
	}
	// Speed of sound is constant in the lower stratosphere.
	if a, b := MachToTAS(0.8, 37000), MachToTAS(0.8, 41000); math.Abs(a-b) > 1e-9 {
		t.Errorf("MachToTAS differs above the tropopause: %f vs %f", a, b)
	}
	tas := MachToTAS(0.82, 30000)
	if m := TASToMach(tas, 30000); math.Abs(m-0.82) > 1e-9 {
		t.Errorf("TASToMach(%f) = %f, want 0.82", tas, m)
	}
}

func TestGroundSpeed(t *testing.T) {
	if _, ok := GroundSpeed(SpeedInstruction{}, 0, 90, wx.Wind{}); ok {
		t.Errorf("GroundSpeed with no speed value returned ok")
	}

	tas, _ := TrueAirspeed(IASSpeed(250), 0)
	for _, test := range []struct {
		heading float64
		wind    wx.Wind
		want    float64
	}{
		{90, wx.Wind{}, tas},
		{90, wx.Wind{Direction: 270, Speed: 20}, tas + 20},
		{90, wx.Wind{Direction: 90, Speed: 20}, tas - 20},
		{90, wx.Wind{Direction: 360, Speed: 20}, math.Sqrt(tas*tas + 400)},
		{math.NaN(), wx.Wind{Direction: 180, Speed: 20}, tas + 20},
		{90, wx.Wind{Direction: 90, Speed: 1000}, 1000 - tas},
	} {
		gs, ok := GroundSpeed(IASSpeed(250), 0, test.heading, test.wind)
		if !ok || math.Abs(gs-test.want) > 1e-6 {
			t.Errorf("GroundSpeed(hdg %f, wind %s) = %f (%v), want %f", test.heading, test.wind, gs, ok, test.want)
		}
	}

	if gs, ok := GroundSpeed(IASSpeed(250), math.NaN(), 90, wx.Wind{}); !ok || math.Abs(gs-tas) > 1e-9 {
		t.Errorf("GroundSpeed at NaN altitude = %f, want %f", gs, tas)
	}
}
