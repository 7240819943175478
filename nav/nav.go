// nav/nav.go
// Copyright(c) 2025 scopesim contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package nav

import (
	"fmt"
	"log/slog"
	"time"

	av "github.com/mmp/scopesim/aviation"
	"github.com/mmp/scopesim/math"
	"github.com/mmp/scopesim/wx"

	"github.com/brunoga/deep"
)

// Limits collects the rates and bounds that govern track kinematics.
type Limits struct {
	TurnRate            float64 `yaml:"turn_rate"`             // degrees per second
	SpeedChangeRate     float64 `yaml:"speed_change_rate"`     // knots per second, for tracks without their own
	VerticalRateChange  float64 `yaml:"vertical_rate_change"`  // feet per minute per second
	DefaultVerticalRate float64 `yaml:"default_vertical_rate"` // lower bound of the computed climb/descent rate, fpm
	MaxVerticalRate     float64 `yaml:"max_vertical_rate"`     // fpm
	MinFlightLevel      float64 `yaml:"min_flight_level"`
	MaxFlightLevel      float64 `yaml:"max_flight_level"`
	LevelSnapTolerance  float64 `yaml:"level_snap_tolerance"` // flight levels
}

func DefaultLimits() Limits {
	return Limits{
		TurnRate:            StandardTurnRate,
		SpeedChangeRate:     5,
		VerticalRateChange:  1500,
		DefaultVerticalRate: 1500,
		MaxVerticalRate:     av.MaxVerticalRate,
		MinFlightLevel:      0,
		MaxFlightLevel:      600,
		LevelSnapTolerance:  0.05,
	}
}

func (l Limits) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Float64("turn_rate", l.TurnRate),
		slog.Float64("speed_change_rate", l.SpeedChangeRate),
		slog.Float64("vertical_rate_change", l.VerticalRateChange),
		slog.Float64("default_vertical_rate", l.DefaultVerticalRate),
		slog.Float64("max_vertical_rate", l.MaxVerticalRate),
		slog.Float64("min_flight_level", l.MinFlightLevel),
		slog.Float64("max_flight_level", l.MaxFlightLevel),
		slog.Float64("level_snap_tolerance", l.LevelSnapTolerance),
	)
}

// State related to navigation. Pointers are used for optional values; nil
// -> unset/unspecified.
type Nav struct {
	FlightState FlightState
	Heading     NavHeading
	Speed       NavSpeed
	Altitude    NavAltitude
	Wind        wx.Wind
}

type FlightState struct {
	Position     math.Point2LL
	Heading      float64
	GS           float64  // knots
	AltitudeRate float64  // fpm; + -> climb, - -> descent
	Altitude     *float64 // actual flight level, if known
}

func (fs *FlightState) Summary() string {
	alt := "---"
	if fs.Altitude != nil {
		alt = fmt.Sprintf("%.1f", *fs.Altitude)
	}
	return fmt.Sprintf("heading %03d FL %s gs %.1f rate %.0f",
		int(fs.Heading), alt, fs.GS, fs.AltitudeRate)
}

func (fs FlightState) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Any("position", fs.Position),
		slog.Float64("heading", fs.Heading),
		slog.Float64("gs", fs.GS),
		slog.Float64("altitude_rate", fs.AltitudeRate),
	}
	if fs.Altitude != nil {
		attrs = append(attrs, slog.Float64("flight_level", *fs.Altitude))
	}
	return slog.GroupValue(attrs...)
}

type NavHeading struct {
	Assigned *float64
}

type NavSpeed struct {
	Assigned   *av.SpeedInstruction
	ChangeRate float64 // knots per second; zero selects Limits.SpeedChangeRate
}

type NavAltitude struct {
	Cleared      *float64 // CFL
	PlannedEntry *float64 // PEL
	Exit         *float64 // XFL

	// Vertical is only flown when RateAssigned is set; the two are kept
	// separate so that a rate can be staged before it is handed over.
	Vertical     *av.VerticalAssignment
	RateAssigned bool
}

// NavSnapshot captures the assignments in Nav so they can be restored if
// a batch of instructions fails part-way through. It does not include
// FlightState or the wind.
type NavSnapshot struct {
	Heading  NavHeading
	Speed    NavSpeed
	Altitude NavAltitude
}

func (nav *Nav) TakeSnapshot() NavSnapshot {
	return deep.MustCopy(NavSnapshot{
		Heading:  nav.Heading,
		Speed:    nav.Speed,
		Altitude: nav.Altitude,
	})
}

func (nav *Nav) RestoreSnapshot(snap NavSnapshot) {
	nav.Heading = snap.Heading
	nav.Speed = snap.Speed
	nav.Altitude = snap.Altitude
}

// Update advances the flight state by dt seconds: heading, then ground
// speed, then position, then flight level. It returns false without
// changing anything if the position is not finite or dt is not a positive
// finite number.
func (nav *Nav) Update(callsign string, dt float64, limits Limits, simTime time.Time) bool {
	if !nav.FlightState.Position.IsFinite() || !math.IsFinite(dt) || dt <= 0 {
		return false
	}

	NavLog(callsign, simTime, NavLogState, "pos=%.4f,%.4f fl=%s hdg=%.1f gs=%.1f rate=%.0f wind=%s",
		nav.FlightState.Position[0], nav.FlightState.Position[1], flString(nav.FlightState.Altitude),
		nav.FlightState.Heading, nav.FlightState.GS, nav.FlightState.AltitudeRate, nav.Wind)

	nav.UpdateHeading(callsign, dt, limits, simTime)
	nav.UpdateSpeed(callsign, dt, limits, simTime)
	nav.UpdatePosition(dt)
	nav.UpdateAltitude(callsign, dt, limits, simTime)
	return true
}

// LookaheadPosition returns where the track will be after the given number
// of minutes at its current heading and ground speed. It returns false if
// the track is not moving or its position is not finite.
func (nav *Nav) LookaheadPosition(minutes float64) (math.Point2LL, bool) {
	p := nav.FlightState.Position
	speed := max(math.FiniteOr(nav.FlightState.GS, 0), 0)
	if !p.IsFinite() || speed <= 0 || !math.IsFinite(minutes) {
		return p, false
	}
	return math.Offset2LL(p, nav.FlightState.Heading, speed*minutes/60), true
}

func flString(fl *float64) string {
	if fl == nil {
		return "nil"
	}
	return fmt.Sprintf("%.2f", *fl)
}
