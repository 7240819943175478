// sim/sim.go
// Copyright(c) 2025 scopesim contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/mmp/scopesim/log"
	"github.com/mmp/scopesim/math"
	"github.com/mmp/scopesim/nav"
	"github.com/mmp/scopesim/wx"

	"github.com/brunoga/deep"
	"github.com/goforj/godump"
	"github.com/google/uuid"
)

// Sim owns the set of tracks and advances them. It is not safe for
// concurrent use; a single scheduler goroutine drives it.
type Sim struct {
	Limits  nav.Limits
	SimTime time.Time

	tracks      []*Track
	projector   Projector
	wind        wx.WindProvider
	eventStream *EventStream

	lg *log.Logger
}

type NewSimConfiguration struct {
	Limits      nav.Limits
	StartTime   time.Time
	Projector   Projector       // may be nil
	Wind        wx.WindProvider // may be nil; tracks then keep their own wind
	EventStream *EventStream    // may be nil
}

func NewSim(config NewSimConfiguration, lg *log.Logger) *Sim {
	if config.Limits == (nav.Limits{}) {
		config.Limits = nav.DefaultLimits()
	}
	if config.StartTime.IsZero() {
		config.StartTime = time.Now().UTC().Truncate(time.Second)
	}

	s := &Sim{
		Limits:      config.Limits,
		SimTime:     config.StartTime,
		projector:   config.Projector,
		wind:        config.Wind,
		eventStream: config.EventStream,
		lg:          lg,
	}
	lg.Info("created sim", slog.Any("limits", s.Limits), slog.Time("start", s.SimTime))
	return s
}

func (s *Sim) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Time("sim_time", s.SimTime),
		slog.Int("tracks", len(s.tracks)),
		slog.Bool("projector", s.projector != nil),
		slog.Bool("wind_provider", s.wind != nil),
	)
}

// SetProjector replaces the projector and reprojects every track.
func (s *Sim) SetProjector(p Projector) {
	s.projector = p
	for _, t := range s.tracks {
		s.projectTrack(t)
	}
	s.Refresh()
}

func (s *Sim) SetWindProvider(w wx.WindProvider) {
	s.wind = w
}

func (s *Sim) SetEventStream(es *EventStream) {
	s.eventStream = es
}

func (s *Sim) postEvent(t *Track, typ EventType, text string) {
	if s.eventStream != nil {
		s.eventStream.Post(Event{Type: typ, Callsign: t.Callsign, Time: s.SimTime, WrittenText: text})
	}
}

// Add adds a track to the sim. Tracks without an id are given one; the
// callsign defaults to the id.
func (s *Sim) Add(t *Track) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	} else if slices.ContainsFunc(s.tracks, func(o *Track) bool { return o.ID == t.ID }) {
		return fmt.Errorf("%s: %w", t.ID, ErrDuplicateTrack)
	}
	if t.Callsign == "" {
		t.Callsign = strings.ToUpper(t.ID)
	}
	if t.VectorMinutes <= 0 {
		t.VectorMinutes = DefaultVectorMinutes
	}
	t.Nav.FlightState.Heading = math.NormalizeHeading(t.Nav.FlightState.Heading)

	s.projectTrack(t)
	s.updateVector(t)
	s.tracks = append(s.tracks, t)

	s.lg.Debug("added track", slog.Any("track", t))
	s.postEvent(t, TrackAddedEvent, "")
	return nil
}

// Remove removes the track with the given id.
func (s *Sim) Remove(id string) error {
	idx := slices.IndexFunc(s.tracks, func(t *Track) bool { return t.ID == id })
	if idx == -1 {
		return fmt.Errorf("%s: %w", id, ErrNoTrack)
	}
	s.lg.Debug("removed track", slog.Any("track", s.tracks[idx]))
	s.postEvent(s.tracks[idx], TrackRemovedEvent, "")
	s.tracks = slices.Delete(s.tracks, idx, idx+1)
	return nil
}

// Track returns the track with the given id.
func (s *Sim) Track(id string) (*Track, error) {
	if idx := slices.IndexFunc(s.tracks, func(t *Track) bool { return t.ID == id }); idx != -1 {
		return s.tracks[idx], nil
	}
	return nil, fmt.Errorf("%s: %w", id, ErrNoTrack)
}

// TrackByCallsign returns the track with the given callsign, ignoring
// case.
func (s *Sim) TrackByCallsign(callsign string) (*Track, error) {
	if idx := slices.IndexFunc(s.tracks, func(t *Track) bool {
		return strings.EqualFold(t.Callsign, callsign)
	}); idx != -1 {
		return s.tracks[idx], nil
	}
	return nil, fmt.Errorf("%s: %w", callsign, ErrNoTrack)
}

// Tracks returns the tracks in the order they were added. The tracks
// themselves are shared with the sim.
func (s *Sim) Tracks() []*Track {
	return slices.Clone(s.tracks)
}

// Snapshot returns an independent copy of all tracks.
func (s *Sim) Snapshot() []Track {
	snap := make([]Track, len(s.tracks))
	for i, t := range s.tracks {
		snap[i] = deep.MustCopy(*t)
	}
	return snap
}

// Tick advances every track by dt seconds. A dt that is not a positive
// finite number only refreshes the motion vectors.
func (s *Sim) Tick(dt float64) {
	if !math.IsFinite(dt) || dt <= 0 {
		s.Refresh()
		return
	}

	s.SimTime = s.SimTime.Add(time.Duration(dt * float64(time.Second)))
	for _, t := range s.tracks {
		s.advance(t, dt)
	}
}

// Refresh recomputes the motion vectors of all tracks without advancing
// them.
func (s *Sim) Refresh() {
	for _, t := range s.tracks {
		s.updateVector(t)
	}
}

func (s *Sim) advance(t *Track, dt float64) {
	if t.IsInert() {
		t.VectorDx, t.VectorDy = 0, 0
		return
	}

	if s.wind != nil {
		t.Nav.Wind = s.wind.WindAt(t.Position(), t.Nav.SpeedAltitudeFeet()/100, s.SimTime)
	}

	turning := t.Nav.Heading.Assigned != nil && *t.Nav.Heading.Assigned != t.Heading()
	leveling := t.Nav.Altitude.Cleared != nil && !t.atClearedLevel()

	t.Nav.Update(t.Callsign, dt, s.Limits, s.SimTime)
	s.projectTrack(t)
	s.updateVector(t)

	if turning && *t.Nav.Heading.Assigned == t.Heading() {
		s.postEvent(t, HeadingReachedEvent, fmt.Sprintf("heading %03d", int(math.Round(t.Heading()))%360))
	}
	if leveling && t.atClearedLevel() {
		fl, _ := t.FlightLevel()
		s.postEvent(t, LevelReachedEvent, fmt.Sprintf("FL %03d", int(math.Round(fl))))
	}
}

func (s *Sim) project(p math.Point2LL, fallback [2]float64) [2]float64 {
	if s.projector == nil || !p.IsFinite() {
		return fallback
	}
	if xy, ok := s.projector.Project(p); ok && math.IsFinite(xy[0]) && math.IsFinite(xy[1]) {
		return xy
	}
	return fallback
}

func (s *Sim) projectTrack(t *Track) {
	xy := s.project(t.Position(), [2]float64{t.X, t.Y})
	t.X, t.Y = xy[0], xy[1]
}

func (s *Sim) updateVector(t *Track) {
	future, ok := t.Nav.LookaheadPosition(1)
	if !ok {
		t.VectorDx, t.VectorDy = 0, 0
		return
	}
	v := math.Sub2f(s.project(future, [2]float64{t.X, t.Y}), [2]float64{t.X, t.Y})
	t.VectorDx, t.VectorDy = v[0], v[1]
}

// TrackDisplayState is a debugging view of a track.
type TrackDisplayState struct {
	Spew        string
	FlightState string
}

func (s *Sim) GetTrackDisplayState(callsign string) (TrackDisplayState, error) {
	t, err := s.TrackByCallsign(callsign)
	if err != nil {
		return TrackDisplayState{}, err
	}
	return TrackDisplayState{
		Spew:        godump.DumpStr(t),
		FlightState: t.Nav.FlightState.Summary(),
	}, nil
}
