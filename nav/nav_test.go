// nav/nav_test.go
// Copyright(c) 2025 scopesim contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package nav

import (
	"testing"
	"time"

	av "github.com/mmp/scopesim/aviation"
	"github.com/mmp/scopesim/math"
	"github.com/mmp/scopesim/wx"
)

func ptr(v float64) *float64 { return &v }

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestUpdateHeadingConvergence(t *testing.T) {
	limits := DefaultLimits()
	for _, test := range []struct {
		from, to, dt float64
	}{
		{0, 90, 1},
		{350, 10, 1},
		{10, 350, 0.5},
		{278, 354, 1},
		{0, 180, 1},
		{45, 44.5, 1},
		{100, 100, 1},
		{359, 0, 0.25},
	} {
		nav := &Nav{FlightState: FlightState{Heading: test.from}}
		nav.AssignHeading(test.to)

		delta := math.HeadingSignedTurn(test.from, test.to)
		maxTicks := int(math.Ceil(math.Abs(delta) / (limits.TurnRate * test.dt)))

		ticks := 0
		for nav.FlightState.Heading != math.NormalizeHeading(test.to) {
			if ticks > maxTicks {
				t.Errorf("%v -> %v: not converged after %d ticks (heading %v)", test.from, test.to,
					ticks, nav.FlightState.Heading)
				break
			}
			before := math.HeadingSignedTurn(nav.FlightState.Heading, test.to)
			nav.UpdateHeading("TEST", test.dt, limits, t0)
			after := math.HeadingSignedTurn(nav.FlightState.Heading, test.to)
			if after != 0 && math.Sign(after) != math.Sign(before) {
				t.Errorf("%v -> %v: overshot to %v", test.from, test.to, nav.FlightState.Heading)
			}
			if h := nav.FlightState.Heading; h < 0 || h >= 360 {
				t.Errorf("%v -> %v: heading %v out of range", test.from, test.to, h)
			}
			ticks++
		}
	}
}

func TestUpdateHeadingUnassigned(t *testing.T) {
	nav := &Nav{FlightState: FlightState{Heading: 123}}
	nav.UpdateHeading("TEST", 1, DefaultLimits(), t0)
	if nav.FlightState.Heading != 123 {
		t.Errorf("heading changed to %v without an assignment", nav.FlightState.Heading)
	}

	nav.Heading.Assigned = ptr(math.NaN())
	nav.UpdateHeading("TEST", 1, DefaultLimits(), t0)
	if nav.FlightState.Heading != 123 {
		t.Errorf("heading changed to %v with a NaN assignment", nav.FlightState.Heading)
	}
}

func TestSpeedAltitudeFeet(t *testing.T) {
	for _, test := range []struct {
		afl, cfl, pel, xfl *float64
		want               float64
	}{
		{ptr(350), ptr(200), ptr(100), ptr(50), 35000},
		{nil, ptr(200), ptr(100), ptr(50), 20000},
		{nil, nil, ptr(100), ptr(50), 10000},
		{ptr(math.NaN()), nil, nil, ptr(50), 5000},
		{nil, nil, nil, nil, 0},
	} {
		nav := &Nav{
			FlightState: FlightState{Altitude: test.afl},
			Altitude:    NavAltitude{Cleared: test.cfl, PlannedEntry: test.pel, Exit: test.xfl},
		}
		if got := nav.SpeedAltitudeFeet(); got != test.want {
			t.Errorf("SpeedAltitudeFeet() = %v, want %v", got, test.want)
		}
	}
}

func TestTargetFlightLevel(t *testing.T) {
	for _, test := range []struct {
		afl, cfl, pel, xfl *float64
		want               float64
		ok                 bool
	}{
		{ptr(350), ptr(200), ptr(100), ptr(50), 200, true},
		{ptr(350), nil, ptr(100), ptr(50), 350, true},
		{nil, nil, ptr(100), ptr(50), 100, true},
		{nil, nil, nil, ptr(50), 50, true},
		{nil, nil, nil, nil, 0, false},
	} {
		nav := &Nav{
			FlightState: FlightState{Altitude: test.afl},
			Altitude:    NavAltitude{Cleared: test.cfl, PlannedEntry: test.pel, Exit: test.xfl},
		}
		if got, ok := nav.TargetFlightLevel(); got != test.want || ok != test.ok {
			t.Errorf("TargetFlightLevel() = %v, %v, want %v, %v", got, ok, test.want, test.ok)
		}
	}
}

func TestUpdateSpeed(t *testing.T) {
	limits := DefaultLimits()
	target, _ := av.GroundSpeed(av.IASSpeed(250), 0, 90, wx.Calm)

	nav := &Nav{FlightState: FlightState{Heading: 90, GS: 200}}
	nav.UpdateSpeed("TEST", 1, limits, t0)
	if nav.FlightState.GS != 200 {
		t.Errorf("GS changed to %v without an assigned speed", nav.FlightState.GS)
	}

	nav.AssignSpeed(av.SpeedInstruction{Mode: av.SpeedModeIAS})
	nav.UpdateSpeed("TEST", 1, limits, t0)
	if nav.FlightState.GS != 200 {
		t.Errorf("GS changed to %v with an empty speed instruction", nav.FlightState.GS)
	}

	nav.AssignSpeed(av.IASSpeed(250))
	nav.UpdateSpeed("TEST", 1, limits, t0)
	if nav.FlightState.GS != 205 {
		t.Errorf("GS = %v after one second, want 205", nav.FlightState.GS)
	}

	for range 20 {
		nav.UpdateSpeed("TEST", 1, limits, t0)
	}
	if math.Abs(nav.FlightState.GS-target) > 1e-9 {
		t.Errorf("GS = %v, want %v", nav.FlightState.GS, target)
	}

	nav.Speed.ChangeRate = 2
	nav.AssignSpeed(av.IASSpeed(150))
	nav.UpdateSpeed("TEST", 0.5, limits, t0)
	if math.Abs(nav.FlightState.GS-(target-1)) > 1e-9 {
		t.Errorf("GS = %v with a custom change rate, want %v", nav.FlightState.GS, target-1)
	}
}

func TestUpdateSpeedWind(t *testing.T) {
	nav := &Nav{
		FlightState: FlightState{Heading: 90, GS: 0},
		Wind:        wx.Wind{Direction: 270, Speed: 40},
	}
	nav.AssignSpeed(av.IASSpeed(250))
	want, _ := av.GroundSpeed(av.IASSpeed(250), 0, 90, wx.Calm)
	if got, ok := nav.TargetGroundSpeed(); !ok || math.Abs(got-(want+40)) > 1e-6 {
		t.Errorf("TargetGroundSpeed() = %v, want %v", got, want+40)
	}
}

func TestDesiredVerticalRate(t *testing.T) {
	limits := DefaultLimits()
	for _, test := range []struct {
		diff    float64
		va      *av.VerticalAssignment
		honored bool
		current float64
		want    float64
	}{
		{10, nil, false, 0, 2000},
		{2, nil, false, 0, 1500},
		{-30, nil, false, 0, -4000},
		{10, &av.VerticalAssignment{Rate: 2500}, false, 0, 2000},
		{10, &av.VerticalAssignment{Rate: 2500}, true, 0, 2500},
		{-10, &av.VerticalAssignment{Rate: 2500}, true, 0, -2500},
		{10, &av.VerticalAssignment{Rate: 9000}, true, 0, 4000},
		{10, &av.VerticalAssignment{Rate: 1000, Comparator: av.VerticalOrGreater}, true, 3000, 3000},
		{10, &av.VerticalAssignment{Rate: 1000, Comparator: av.VerticalOrGreater}, true, 0, 1000},
		{10, &av.VerticalAssignment{Rate: 3000, Comparator: av.VerticalOrLess}, true, 0, 2000},
		{10, &av.VerticalAssignment{Rate: 1000, Comparator: av.VerticalOrLess}, true, 0, 1000},
		{-10, &av.VerticalAssignment{Rate: -1000, Comparator: av.VerticalOrLess}, true, 0, -1000},
	} {
		nav := &Nav{
			FlightState: FlightState{AltitudeRate: test.current},
			Altitude:    NavAltitude{Vertical: test.va, RateAssigned: test.honored},
		}
		if got := nav.DesiredVerticalRate(test.diff, limits); got != test.want {
			t.Errorf("DesiredVerticalRate(%v) with %+v (honored %v) = %v, want %v", test.diff, test.va,
				test.honored, got, test.want)
		}
	}
}

func flyToLevel(t *testing.T, nav *Nav, dt float64, maxTicks int) int {
	t.Helper()
	limits := DefaultLimits()
	target, _ := nav.TargetFlightLevel()
	start := *nav.FlightState.Altitude
	climbing := target > start

	for i := range maxTicks {
		nav.UpdateAltitude("TEST", dt, limits, t0)
		fl, rate := *nav.FlightState.Altitude, nav.FlightState.AltitudeRate
		if math.Abs(rate) > limits.MaxVerticalRate {
			t.Fatalf("tick %d: vertical rate %v exceeds limit", i, rate)
		}
		if (climbing && fl > target) || (!climbing && fl < target) {
			t.Fatalf("tick %d: overshot to FL %v", i, fl)
		}
		if fl == target && rate == 0 {
			return i + 1
		}
	}
	t.Fatalf("did not reach FL %v after %d ticks: FL %v rate %v", target, maxTicks,
		*nav.FlightState.Altitude, nav.FlightState.AltitudeRate)
	return 0
}

func TestVerticalConvergence(t *testing.T) {
	nav := &Nav{
		FlightState: FlightState{Altitude: ptr(100)},
		Altitude:    NavAltitude{Cleared: ptr(200)},
	}
	ticks := flyToLevel(t, nav, 1, 1000)
	// 10,000ft at no more than 4000fpm takes at least 150s.
	if ticks < 150 {
		t.Errorf("reached FL200 in %d ticks; faster than the rate limit allows", ticks)
	}

	nav.Altitude.Cleared = ptr(90)
	flyToLevel(t, nav, 1.0/30, 100000)
}

func TestVerticalAssignedRate(t *testing.T) {
	nav := &Nav{
		FlightState: FlightState{Altitude: ptr(100)},
		Altitude:    NavAltitude{Cleared: ptr(200)},
	}
	nav.AssignVerticalRate(av.VerticalAssignment{Rate: 1000})
	limits := DefaultLimits()
	for range 10 {
		nav.UpdateAltitude("TEST", 1, limits, t0)
	}
	if nav.FlightState.AltitudeRate != 1000 {
		t.Errorf("rate = %v, want the assigned 1000", nav.FlightState.AltitudeRate)
	}

	nav.CancelVerticalRate()
	for range 10 {
		nav.UpdateAltitude("TEST", 1, limits, t0)
	}
	if nav.FlightState.AltitudeRate != 4000 {
		t.Errorf("rate = %v after cancelling the assignment, want 4000", nav.FlightState.AltitudeRate)
	}
}

func TestUpdateAltitudeEdgeCases(t *testing.T) {
	limits := DefaultLimits()

	// No levels at all: the rate decays to level flight.
	nav := &Nav{FlightState: FlightState{AltitudeRate: 2000}}
	nav.UpdateAltitude("TEST", 1, limits, t0)
	if nav.FlightState.AltitudeRate != 500 {
		t.Errorf("rate = %v, want 500", nav.FlightState.AltitudeRate)
	}
	nav.UpdateAltitude("TEST", 1, limits, t0)
	if nav.FlightState.AltitudeRate != 0 || nav.FlightState.Altitude != nil {
		t.Errorf("rate = %v altitude %v, want 0 and nil", nav.FlightState.AltitudeRate, nav.FlightState.Altitude)
	}

	// Within the snap tolerance.
	nav = &Nav{
		FlightState: FlightState{Altitude: ptr(199.97), AltitudeRate: 800},
		Altitude:    NavAltitude{Cleared: ptr(200)},
	}
	nav.UpdateAltitude("TEST", 1, limits, t0)
	if *nav.FlightState.Altitude != 200 || nav.FlightState.AltitudeRate != 0 {
		t.Errorf("FL %v rate %v, want FL200 level", *nav.FlightState.Altitude, nav.FlightState.AltitudeRate)
	}

	// Unknown actual level snaps to the target.
	nav = &Nav{Altitude: NavAltitude{Cleared: ptr(240)}}
	nav.UpdateAltitude("TEST", 1, limits, t0)
	if nav.FlightState.Altitude == nil || *nav.FlightState.Altitude != 240 {
		t.Errorf("FL %v, want 240", nav.FlightState.Altitude)
	}

	// Levels beyond the flight level range are clamped.
	nav = &Nav{
		FlightState: FlightState{Altitude: ptr(599.99)},
		Altitude:    NavAltitude{Cleared: ptr(900)},
	}
	nav.UpdateAltitude("TEST", 1, limits, t0)
	if *nav.FlightState.Altitude != 600 {
		t.Errorf("FL %v, want 600", *nav.FlightState.Altitude)
	}

	// An excessive initial rate is brought back within limits.
	nav = &Nav{
		FlightState: FlightState{Altitude: ptr(100), AltitudeRate: 9000},
		Altitude:    NavAltitude{Cleared: ptr(300)},
	}
	nav.UpdateAltitude("TEST", 1, limits, t0)
	if nav.FlightState.AltitudeRate != 4000 {
		t.Errorf("rate %v, want 4000", nav.FlightState.AltitudeRate)
	}

	// Likewise while decaying with no level to fly to.
	for _, rate := range []float64{9000, -9000} {
		nav = &Nav{FlightState: FlightState{AltitudeRate: rate}}
		nav.UpdateAltitude("TEST", 1, limits, t0)
		if r := nav.FlightState.AltitudeRate; math.Abs(r) != 4000 || math.Sign(r) != math.Sign(rate) {
			t.Errorf("decay from %v: rate %v, want magnitude 4000", rate, r)
		}
	}
}

func TestUpdatePosition(t *testing.T) {
	nav := &Nav{FlightState: FlightState{Heading: 90, GS: 360}}
	nav.UpdatePosition(10)
	p := nav.FlightState.Position
	if math.Abs(p[0]-1.0/60) > 1e-9 || math.Abs(p[1]) > 1e-9 {
		t.Errorf("position %v, want [%v 0]", p, 1.0/60)
	}

	nav = &Nav{FlightState: FlightState{Position: math.Point2LL{20, 52}, Heading: 0, GS: -50}}
	nav.UpdatePosition(10)
	if nav.FlightState.Position != (math.Point2LL{20, 52}) {
		t.Errorf("position changed to %v with negative ground speed", nav.FlightState.Position)
	}
}

func TestUpdate(t *testing.T) {
	nav := &Nav{FlightState: FlightState{Position: math.Point2LL{math.NaN(), 52}, Heading: 10, GS: 300}}
	nav.AssignHeading(90)
	if nav.Update("TEST", 1, DefaultLimits(), t0) {
		t.Errorf("Update succeeded with a NaN position")
	}
	if nav.FlightState.Heading != 10 {
		t.Errorf("heading changed to %v with a NaN position", nav.FlightState.Heading)
	}

	nav.FlightState.Position = math.Point2LL{20, 52}
	for _, dt := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		if nav.Update("TEST", dt, DefaultLimits(), t0) {
			t.Errorf("Update succeeded with dt %v", dt)
		}
	}

	if !nav.Update("TEST", 1, DefaultLimits(), t0) {
		t.Errorf("Update failed")
	}
	if nav.FlightState.Heading != 13 {
		t.Errorf("heading %v, want 13", nav.FlightState.Heading)
	}
	if nav.FlightState.Position[1] <= 52 || nav.FlightState.Position[0] <= 20 {
		t.Errorf("position %v did not move north-east", nav.FlightState.Position)
	}
}

func TestLookaheadPosition(t *testing.T) {
	nav := &Nav{FlightState: FlightState{Position: math.Point2LL{10, 50}, Heading: 0, GS: 600}}
	p, ok := nav.LookaheadPosition(1)
	if !ok || math.Abs(p[1]-(50+10.0/60)) > 1e-9 || math.Abs(p[0]-10) > 1e-9 {
		t.Errorf("LookaheadPosition(1) = %v, %v", p, ok)
	}

	nav.FlightState.GS = 0
	if _, ok := nav.LookaheadPosition(1); ok {
		t.Errorf("LookaheadPosition succeeded with zero ground speed")
	}
}

func TestSnapshot(t *testing.T) {
	nav := &Nav{}
	nav.AssignHeading(270)
	nav.AssignSpeed(av.MachSpeed(0.78))
	nav.AssignClearedLevel(350)

	snap := nav.TakeSnapshot()
	*nav.Heading.Assigned = 90
	nav.AssignClearedLevel(100)
	nav.CancelSpeed()

	nav.RestoreSnapshot(snap)
	if *nav.Heading.Assigned != 270 || *nav.Altitude.Cleared != 350 || nav.Speed.Assigned.String() != "MN 0.78" {
		t.Errorf("restored assignments %+v %+v %+v", nav.Heading, nav.Altitude, nav.Speed)
	}
}

func TestSayAltitude(t *testing.T) {
	nav := &Nav{
		FlightState: FlightState{Altitude: ptr(100), AltitudeRate: 1500},
		Altitude:    NavAltitude{Cleared: ptr(200)},
	}
	if s := nav.SayAltitude(); s != "FL 100 climbing FL 200" {
		t.Errorf("SayAltitude() = %q", s)
	}
	nav.FlightState.AltitudeRate = 0
	if s := nav.SayAltitude(); s != "FL 100" {
		t.Errorf("SayAltitude() = %q", s)
	}
}
