// nav/alt.go
// Copyright(c) 2025 scopesim contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package nav

import (
	"time"

	av "github.com/mmp/scopesim/aviation"
	"github.com/mmp/scopesim/math"
)

// Vertical rates below this magnitude (fpm) are treated as level flight.
const minVerticalRate = 1

// TargetFlightLevel returns the level the track is working toward: the
// first known of the cleared, actual, planned entry and exit flight
// levels.
func (nav *Nav) TargetFlightLevel() (float64, bool) {
	for _, fl := range []*float64{nav.Altitude.Cleared, nav.FlightState.Altitude,
		nav.Altitude.PlannedEntry, nav.Altitude.Exit} {
		if fl != nil && math.IsFinite(*fl) {
			return *fl, true
		}
	}
	return 0, false
}

// DesiredVerticalRate returns the signed rate, in fpm, to fly given the
// remaining level difference (target minus current). A vertical assignment
// is only used when RateAssigned is set.
func (nav *Nav) DesiredVerticalRate(diff float64, limits Limits) float64 {
	def := math.Clamp(max(limits.DefaultVerticalRate, math.Abs(diff)*200), 0, limits.MaxVerticalRate)

	rate := def
	if va := nav.Altitude.Vertical; va != nil && nav.Altitude.RateAssigned {
		assigned := math.Abs(math.FiniteOr(va.Rate, 0))
		switch va.Comparator {
		case av.VerticalOrGreater:
			rate = max(assigned, math.Abs(math.FiniteOr(nav.FlightState.AltitudeRate, 0)))
		case av.VerticalOrLess:
			rate = min(assigned, def)
		default:
			rate = assigned
		}
		rate = math.Clamp(rate, 0, limits.MaxVerticalRate)
	}
	return math.Sign(diff) * rate
}

// UpdateAltitude changes the vertical rate toward the desired rate and
// integrates the flight level, levelling off exactly at the target.
func (nav *Nav) UpdateAltitude(callsign string, dt float64, limits Limits, simTime time.Time) {
	fs := &nav.FlightState
	maxRateChange := limits.VerticalRateChange * dt

	target, ok := nav.TargetFlightLevel()
	if !ok {
		rate := levelOff(math.MoveToward(math.FiniteOr(fs.AltitudeRate, 0), 0, maxRateChange))
		fs.AltitudeRate = math.Clamp(rate, -limits.MaxVerticalRate, limits.MaxVerticalRate)
		NavLog(callsign, simTime, NavLogAltitude, "no target level, rate=%.0f", fs.AltitudeRate)
		return
	}
	target = math.Clamp(target, limits.MinFlightLevel, limits.MaxFlightLevel)

	cur := target
	if fs.Altitude != nil && math.IsFinite(*fs.Altitude) {
		cur = *fs.Altitude
	}

	diff := target - cur
	if math.Abs(diff) <= limits.LevelSnapTolerance {
		fs.Altitude = &target
		fs.AltitudeRate = 0
		return
	}

	desired := nav.DesiredVerticalRate(diff, limits)
	rate := levelOff(math.MoveToward(math.FiniteOr(fs.AltitudeRate, 0), desired, maxRateChange))
	rate = math.Clamp(rate, -limits.MaxVerticalRate, limits.MaxVerticalRate)

	next := cur + rate*dt/6000
	if (diff > 0 && next >= target) || (diff < 0 && next <= target) {
		next, rate = target, 0
	}
	next = math.Clamp(next, limits.MinFlightLevel, limits.MaxFlightLevel)

	NavLog(callsign, simTime, NavLogAltitude, "target=%.2f current=%.2f desired=%.0f rate=%.0f next=%.2f",
		target, cur, desired, rate, next)

	fs.Altitude = &next
	fs.AltitudeRate = rate
}

func levelOff(rate float64) float64 {
	if math.Abs(rate) < minVerticalRate {
		return 0
	}
	return rate
}
