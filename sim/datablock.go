// sim/datablock.go
// Copyright(c) 2025 scopesim contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"fmt"
	"strings"

	av "github.com/mmp/scopesim/aviation"
	"github.com/mmp/scopesim/math"
)

// DataBlock holds the text fields of a track's label.
type DataBlock struct {
	Alerts       []string
	Callsign     string
	GroundSpeed  string
	VerticalRate string
	FlightLevel  string
	Climbing     bool
	Descending   bool
	Levels       string
	LevelTooltip string
	Condensed    bool
	AircraftType string
	Squawk       string
	Wake         string
	Destination  string
	Heading      string
	Speed        string
	Vertical     string
	ECL          string
}

func formatFlightLevel(fl *float64) string {
	if fl == nil || !math.IsFinite(*fl) {
		return "---"
	}
	return fmt.Sprintf("%03d", int(math.Round(*fl)))
}

func formatGroundSpeed(gs float64) string {
	if !math.IsFinite(gs) {
		return "---"
	}
	return fmt.Sprintf("%d", int(math.Round(gs)))
}

// formatVerticalRate gives the rate in hundreds of feet per minute.
func formatVerticalRate(fpm float64) string {
	if !math.IsFinite(fpm) {
		return "±00"
	}
	v := int(math.Round(fpm / 100))
	switch {
	case v > 0:
		return fmt.Sprintf("+%02d", v)
	case v < 0:
		return fmt.Sprintf("-%02d", -v)
	default:
		return "±00"
	}
}

func formatAssignedHeading(hdg *float64) string {
	if hdg == nil || !math.IsFinite(*hdg) {
		return "h"
	}
	h := int(math.Round(math.NormalizeHeading(*hdg))) % 360
	return fmt.Sprintf("%03d°", h)
}

func formatExpectedLevel(fl *float64) string {
	if fl == nil || !math.IsFinite(*fl) {
		return "--"
	}
	return fmt.Sprintf("%02d", int(math.Floor(math.Round(*fl)/10)))
}

type levelItem struct {
	label string
	value *float64
}

func finiteLevel(fl *float64) bool {
	return fl != nil && math.IsFinite(*fl)
}

// levelItems returns the levels shown for a track: its actual level, then
// the cleared or planned entry level depending on status, then the exit
// level.
func levelItems(t *Track) []levelItem {
	alt := &t.Nav.Altitude
	var items []levelItem
	if finiteLevel(t.Nav.FlightState.Altitude) {
		items = append(items, levelItem{"AFL", t.Nav.FlightState.Altitude})
	}

	switch t.Status {
	case TrackInbound, TrackPreInbound:
		if finiteLevel(alt.PlannedEntry) {
			items = append(items, levelItem{"PEL", alt.PlannedEntry})
		} else if finiteLevel(alt.Cleared) {
			items = append(items, levelItem{"CFL", alt.Cleared})
		}
	default:
		if finiteLevel(alt.Cleared) {
			items = append(items, levelItem{"CFL", alt.Cleared})
		}
	}

	if finiteLevel(alt.Exit) {
		items = append(items, levelItem{"XFL", alt.Exit})
	}
	return items
}

// levelDisplay returns the level field text, the full tooltip, and whether
// repeated values were collapsed.
func levelDisplay(t *Track) (text, tooltip string, condensed bool) {
	items := levelItems(t)

	var tips, values []string
	n := 0
	for _, item := range items {
		v := formatFlightLevel(item.value)
		tips = append(tips, item.label+" "+v)
		if item.label == "AFL" {
			continue
		}
		n++
		if len(values) == 0 || values[len(values)-1] != v {
			values = append(values, v)
		}
	}
	return strings.Join(values, " "), strings.Join(tips, " | "), len(values) < n
}

func displayAlerts(t *Track) []string {
	if t.Status != TrackIntruder {
		return t.Alerts
	}
	var alerts []string
	for _, a := range t.Alerts {
		if !strings.EqualFold(a, "INTRUDER") {
			alerts = append(alerts, a)
		}
	}
	return alerts
}

func orString(s ...string) string {
	for _, v := range s {
		if v != "" {
			return v
		}
	}
	return ""
}

// DataBlock returns the formatted label for the track.
func (t *Track) DataBlock() DataBlock {
	fs := &t.Nav.FlightState
	db := DataBlock{
		Alerts:       displayAlerts(t),
		Callsign:     orString(t.Callsign, "UNKNOWN"),
		GroundSpeed:  formatGroundSpeed(fs.GS),
		VerticalRate: formatVerticalRate(fs.AltitudeRate),
		FlightLevel:  formatFlightLevel(fs.Altitude),
		Climbing:     fs.AltitudeRate > 0,
		Descending:   fs.AltitudeRate < 0,
		AircraftType: orString(t.AircraftType, "---"),
		Squawk:       orString(t.Squawk, "----"),
		Wake:         orString(t.Wake, "-"),
		Destination:  orString(t.Destination, t.ExitPoint, "----"),
		Heading:      formatAssignedHeading(t.Nav.Heading.Assigned),
		Speed:        orString(av.FormatSpeedInstruction(t.Nav.Speed.Assigned), "s"),
		Vertical:     "r",
		ECL:          formatExpectedLevel(t.ExpectedCruiseLevel),
	}
	db.Levels, db.LevelTooltip, db.Condensed = levelDisplay(t)
	if t.Nav.Altitude.RateAssigned {
		db.Vertical = "R"
	}
	return db
}

// Lines renders the data block as it appears on the scope.
func (db DataBlock) Lines() []string {
	var lines []string
	if len(db.Alerts) > 0 {
		lines = append(lines, strings.Join(db.Alerts, " · "))
	}

	arrow := ""
	if db.Climbing {
		arrow = "↑"
	} else if db.Descending {
		arrow = "↓"
	}
	lines = append(lines,
		db.Callsign+" "+db.GroundSpeed,
		strings.TrimSpace(db.FlightLevel+arrow+" "+db.Levels),
		db.AircraftType+" "+db.Wake+" "+db.Destination,
		db.Heading+" "+db.Speed+" "+db.Vertical+" "+db.ECL)
	return lines
}

func (db DataBlock) String() string {
	return strings.Join(db.Lines(), "\n")
}
