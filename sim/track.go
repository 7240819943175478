// sim/track.go
// Copyright(c) 2025 scopesim contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"log/slog"
	"strings"

	"github.com/mmp/scopesim/math"
	"github.com/mmp/scopesim/nav"
)

type TrackStatus int

const (
	TrackAccepted TrackStatus = iota
	TrackInbound
	TrackPreInbound
	TrackIntruder
	TrackUnconcerned
)

var trackStatusNames = []string{"accepted", "inbound", "preinbound", "intruder", "unconcerned"}

func (s TrackStatus) String() string {
	if s < 0 || int(s) >= len(trackStatusNames) {
		return trackStatusNames[TrackAccepted]
	}
	return trackStatusNames[s]
}

// ParseTrackStatus returns the status with the given name; unknown names
// give TrackAccepted.
func ParseTrackStatus(s string) TrackStatus {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range trackStatusNames {
		if s == name {
			return TrackStatus(i)
		}
	}
	return TrackAccepted
}

func (s TrackStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *TrackStatus) UnmarshalText(b []byte) error {
	*s = ParseTrackStatus(string(b))
	return nil
}

// Track is a single simulated aircraft as seen on the scope.
type Track struct {
	ID       string
	Callsign string
	Status   TrackStatus

	AircraftType        string
	Squawk              string
	Wake                string
	Destination         string
	ExitPoint           string
	ExpectedCruiseLevel *float64
	Alerts              []string
	VectorMinutes       float64 // length of the drawn motion vector

	Nav nav.Nav

	// Planar position from the projector and the offset to the position
	// one minute ahead.
	X, Y               float64
	VectorDx, VectorDy float64
}

const DefaultVectorMinutes = 6

func (t *Track) Position() math.Point2LL {
	return t.Nav.FlightState.Position
}

func (t *Track) Heading() float64 {
	return t.Nav.FlightState.Heading
}

func (t *Track) GroundSpeed() float64 {
	return t.Nav.FlightState.GS
}

func (t *Track) VerticalSpeed() float64 {
	return t.Nav.FlightState.AltitudeRate
}

// FlightLevel returns the actual flight level, if known.
func (t *Track) FlightLevel() (float64, bool) {
	if fl := t.Nav.FlightState.Altitude; fl != nil && math.IsFinite(*fl) {
		return *fl, true
	}
	return 0, false
}

func (t *Track) atClearedLevel() bool {
	fl, ok := t.FlightLevel()
	return ok && t.Nav.Altitude.Cleared != nil && fl == *t.Nav.Altitude.Cleared && t.VerticalSpeed() == 0
}

// IsInert reports whether the track has a malformed position; such tracks
// are not advanced.
func (t *Track) IsInert() bool {
	return !t.Nav.FlightState.Position.IsFinite()
}

func (t *Track) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("id", t.ID),
		slog.String("callsign", t.Callsign),
		slog.String("status", t.Status.String()),
		slog.Any("flight_state", t.Nav.FlightState),
		slog.Float64("x", t.X),
		slog.Float64("y", t.Y),
		slog.Float64("vector_dx", t.VectorDx),
		slog.Float64("vector_dy", t.VectorDy),
	)
}

// Projector maps geographic positions to the planar coordinates used for
// display. Project returns false if it cannot place the point.
type Projector interface {
	Project(p math.Point2LL) ([2]float64, bool)
}

// ProjectorFunc adapts a function to the Projector interface.
type ProjectorFunc func(p math.Point2LL) ([2]float64, bool)

func (f ProjectorFunc) Project(p math.Point2LL) ([2]float64, bool) {
	return f(p)
}
