// nav/lateral.go
// Copyright(c) 2025 scopesim contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package nav

import (
	"time"

	"github.com/mmp/scopesim/math"
)

// StandardTurnRate is in degrees per second.
const StandardTurnRate = 3

// TargetHeading returns the assigned heading, normalized, if there is a
// usable one.
func (nav *Nav) TargetHeading() (float64, bool) {
	if nav.Heading.Assigned == nil || !math.IsFinite(*nav.Heading.Assigned) {
		return 0, false
	}
	return math.NormalizeHeading(*nav.Heading.Assigned), true
}

// UpdateHeading turns toward the assigned heading the shortest way, at no
// more than limits.TurnRate, and rolls out exactly on it.
func (nav *Nav) UpdateHeading(callsign string, dt float64, limits Limits, simTime time.Time) {
	target, ok := nav.TargetHeading()
	if !ok {
		return
	}

	cur := math.NormalizeHeading(nav.FlightState.Heading)
	turn := math.HeadingSignedTurn(cur, target)
	maxTurn := limits.TurnRate * dt
	NavLog(callsign, simTime, NavLogHeading, "target=%.1f current=%.1f turn=%.1f max=%.2f",
		target, cur, turn, maxTurn)

	if math.Abs(turn) <= maxTurn {
		nav.FlightState.Heading = target
		return
	}
	nav.FlightState.Heading = math.NormalizeHeading(cur + math.Sign(turn)*maxTurn)
}

// UpdatePosition moves the track along its heading for dt seconds at its
// current ground speed.
func (nav *Nav) UpdatePosition(dt float64) {
	speed := max(math.FiniteOr(nav.FlightState.GS, 0), 0)
	if d := speed * dt / 3600; d > 0 {
		nav.FlightState.Position = math.Offset2LL(nav.FlightState.Position, nav.FlightState.Heading, d)
	}
}
