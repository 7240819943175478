// nav/commands.go
// Copyright(c) 2025 scopesim contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package nav

import (
	"fmt"

	av "github.com/mmp/scopesim/aviation"
	"github.com/mmp/scopesim/math"
)

func (nav *Nav) AssignHeading(hdg float64) {
	hdg = math.NormalizeHeading(hdg)
	nav.Heading = NavHeading{Assigned: &hdg}
}

// FlyPresentHeading cancels any heading assignment; the track keeps its
// current heading.
func (nav *Nav) FlyPresentHeading() {
	nav.Heading = NavHeading{}
}

// AssignSpeed sets the speed instruction; an instruction without a value
// is kept so that the mode is remembered for later entries.
func (nav *Nav) AssignSpeed(si av.SpeedInstruction) {
	nav.Speed.Assigned = &si
}

func (nav *Nav) CancelSpeed() {
	nav.Speed.Assigned = nil
}

func (nav *Nav) AssignClearedLevel(fl float64) {
	nav.Altitude.Cleared = &fl
}

// AssignVerticalRate hands over a vertical rate; it is flown immediately.
func (nav *Nav) AssignVerticalRate(va av.VerticalAssignment) {
	nav.Altitude.Vertical = &va
	nav.Altitude.RateAssigned = true
}

// CancelVerticalRate stops flying the assigned rate but keeps it staged.
func (nav *Nav) CancelVerticalRate() {
	nav.Altitude.RateAssigned = false
}

// SayHeading and friends return short readbacks for the command log.

func (nav *Nav) SayHeading() string {
	if hdg, ok := nav.TargetHeading(); ok && hdg != nav.FlightState.Heading {
		return fmt.Sprintf("heading %03d turning %03d", int(math.Round(nav.FlightState.Heading))%360,
			int(math.Round(hdg))%360)
	}
	return fmt.Sprintf("heading %03d", int(math.Round(nav.FlightState.Heading))%360)
}

func (nav *Nav) SaySpeed() string {
	if nav.Speed.Assigned != nil && nav.Speed.Assigned.IsSet() {
		return fmt.Sprintf("ground speed %.0f, assigned %s", nav.FlightState.GS, nav.Speed.Assigned)
	}
	return fmt.Sprintf("ground speed %.0f", nav.FlightState.GS)
}

func (nav *Nav) SayAltitude() string {
	cur := "FL ---"
	if fl := nav.FlightState.Altitude; fl != nil {
		cur = fmt.Sprintf("FL %03d", int(math.Round(*fl)))
	}
	if target, ok := nav.TargetFlightLevel(); ok && nav.FlightState.AltitudeRate > 0 {
		return fmt.Sprintf("%s climbing FL %03d", cur, int(math.Round(target)))
	} else if ok && nav.FlightState.AltitudeRate < 0 {
		return fmt.Sprintf("%s descending FL %03d", cur, int(math.Round(target)))
	}
	return cur
}
