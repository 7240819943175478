// nav/speed.go
// Copyright(c) 2025 scopesim contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package nav

import (
	"time"

	av "github.com/mmp/scopesim/aviation"
	"github.com/mmp/scopesim/math"
)

// SpeedAltitudeFeet returns the altitude used to convert the assigned
// speed to true airspeed: the first known of the actual, cleared, planned
// entry and exit flight levels, or sea level.
func (nav *Nav) SpeedAltitudeFeet() float64 {
	for _, fl := range []*float64{nav.FlightState.Altitude, nav.Altitude.Cleared,
		nav.Altitude.PlannedEntry, nav.Altitude.Exit} {
		if fl != nil && math.IsFinite(*fl) {
			return *fl * 100
		}
	}
	return 0
}

// TargetGroundSpeed returns the ground speed that results from flying the
// assigned speed on the current heading through the current wind. It
// returns false if there is no assigned speed value.
func (nav *Nav) TargetGroundSpeed() (float64, bool) {
	if nav.Speed.Assigned == nil {
		return 0, false
	}
	return av.GroundSpeed(*nav.Speed.Assigned, nav.SpeedAltitudeFeet(), nav.FlightState.Heading, nav.Wind)
}

func (nav *Nav) speedChangeRate(limits Limits) float64 {
	if r := nav.Speed.ChangeRate; math.IsFinite(r) && r > 0 {
		return r
	}
	return limits.SpeedChangeRate
}

// UpdateSpeed accelerates or decelerates toward the target ground speed;
// without one the current speed is held.
func (nav *Nav) UpdateSpeed(callsign string, dt float64, limits Limits, simTime time.Time) {
	target, ok := nav.TargetGroundSpeed()
	if !ok {
		return
	}

	rate := nav.speedChangeRate(limits)
	cur := math.FiniteOr(nav.FlightState.GS, 0)
	NavLog(callsign, simTime, NavLogSpeed, "target=%.1f current=%.1f rate=%.1f instruction=%q",
		target, cur, rate, nav.Speed.Assigned.String())

	nav.FlightState.GS = max(0, math.MoveToward(cur, target, rate*dt))
}
