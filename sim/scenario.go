// sim/scenario.go
// Copyright(c) 2025 scopesim contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	av "github.com/mmp/scopesim/aviation"
	"github.com/mmp/scopesim/log"
	"github.com/mmp/scopesim/math"
	"github.com/mmp/scopesim/nav"
	"github.com/mmp/scopesim/wx"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

// Scenario is the on-disk description of a set of tracks and the winds
// aloft they fly through.
type Scenario struct {
	Name      string          `json:"name"`
	StartTime time.Time       `json:"start_time,omitzero"`
	Winds     []wx.WindLayer  `json:"winds,omitempty"`
	Tracks    []ScenarioTrack `json:"tracks"`
}

// ScenarioTrack holds the initial state of a track. Speed assignments may
// be given as {"mode":..,"value":..} objects, shorthand text such as "N25"
// or "M78", or bare numbers in SpeedMode.
type ScenarioTrack struct {
	ID       string `json:"id"`
	Callsign string `json:"callsign"`
	Status   string `json:"status"`

	Lon *float64 `json:"lon"`
	Lat *float64 `json:"lat"`
	X   float64  `json:"x"`
	Y   float64  `json:"y"`

	Heading       float64 `json:"heading"`
	GroundSpeed   float64 `json:"ground_speed"`
	VerticalSpeed float64 `json:"vertical_speed"`

	ActualFlightLevel  *float64 `json:"actual_flight_level"`
	ClearedFlightLevel *float64 `json:"cleared_flight_level"`
	PlannedEntryLevel  *float64 `json:"planned_entry_level"`
	ExitFlightLevel    *float64 `json:"exit_flight_level"`

	AssignedHeading      *float64               `json:"assigned_heading"`
	AssignedSpeed        any                    `json:"assigned_speed"`
	SpeedMode            string                 `json:"speed_mode"`
	SpeedChangeRate      float64                `json:"speed_change_rate"`
	AssignedVertical     *av.VerticalAssignment `json:"assigned_vertical"`
	VerticalRateAssigned bool                   `json:"vertical_rate_assigned"`
	Wind                 *wx.Wind               `json:"wind"`

	AircraftType        string   `json:"aircraft_type"`
	Squawk              string   `json:"squawk"`
	Wake                string   `json:"wake"`
	Destination         string   `json:"destination"`
	ExitPoint           string   `json:"exit_point"`
	ExpectedCruiseLevel *float64 `json:"expected_cruise_level"`
	Alerts              []string `json:"alerts"`
	VectorMinutes       float64  `json:"vector_minutes"`
}

func LoadScenario(r io.Reader) (*Scenario, error) {
	var sc Scenario
	if err := json.NewDecoder(r).Decode(&sc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScenario, err)
	}
	return &sc, nil
}

func LoadScenarioFile(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sc, err := LoadScenario(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if sc.Name == "" {
		sc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return sc, nil
}

// MakeTrack builds the track described by st; index is its position in
// the scenario and is used to name tracks without an id.
func (st ScenarioTrack) MakeTrack(index int) *Track {
	id := st.ID
	if id == "" {
		id = fmt.Sprintf("track-%d", index+1)
	}

	pos := math.Point2LL{math.NaN(), math.NaN()}
	if st.Lon != nil && st.Lat != nil {
		pos = math.Point2LL{*st.Lon, *st.Lat}
	}

	t := &Track{
		ID:                  id,
		Callsign:            st.Callsign,
		Status:              ParseTrackStatus(st.Status),
		AircraftType:        st.AircraftType,
		Squawk:              st.Squawk,
		Wake:                st.Wake,
		Destination:         st.Destination,
		ExitPoint:           st.ExitPoint,
		ExpectedCruiseLevel: st.ExpectedCruiseLevel,
		Alerts:              st.Alerts,
		VectorMinutes:       st.VectorMinutes,
		X:                   st.X,
		Y:                   st.Y,
		Nav: nav.Nav{
			FlightState: nav.FlightState{
				Position:     pos,
				Heading:      math.NormalizeHeading(st.Heading),
				GS:           max(0, math.FiniteOr(st.GroundSpeed, 0)),
				AltitudeRate: math.Clamp(math.FiniteOr(st.VerticalSpeed, 0), -av.MaxVerticalRate, av.MaxVerticalRate),
				Altitude:     st.ActualFlightLevel,
			},
			Speed: nav.NavSpeed{ChangeRate: st.SpeedChangeRate},
			Altitude: nav.NavAltitude{
				Cleared:      st.ClearedFlightLevel,
				PlannedEntry: st.PlannedEntryLevel,
				Exit:         st.ExitFlightLevel,
				Vertical:     st.AssignedVertical,
				RateAssigned: st.VerticalRateAssigned,
			},
		},
	}
	if t.Callsign == "" {
		t.Callsign = strings.ToUpper(id)
	}
	if h := st.AssignedHeading; h != nil && math.IsFinite(*h) {
		t.Nav.AssignHeading(*h)
	}
	if st.AssignedSpeed != nil {
		si := av.ParseSpeedValue(st.AssignedSpeed, av.ParseSpeedMode(st.SpeedMode))
		t.Nav.Speed.Assigned = &si
	}
	if st.Wind != nil {
		t.Nav.Wind = *st.Wind
	}
	return t
}

// LoadScenario adds the scenario's tracks to the sim and installs its
// winds aloft, if it has any.
func (s *Sim) LoadScenario(sc *Scenario) error {
	if len(sc.Winds) > 0 {
		lw, err := wx.MakeLayeredWind(sc.Winds)
		if err != nil {
			return fmt.Errorf("%s: %w", sc.Name, err)
		}
		s.SetWindProvider(lw)
	}
	if !sc.StartTime.IsZero() {
		s.SimTime = sc.StartTime
	}

	for i, st := range sc.Tracks {
		if err := s.Add(st.MakeTrack(i)); err != nil {
			return fmt.Errorf("%s: %w", sc.Name, err)
		}
	}
	s.lg.Info("loaded scenario", slog.String("name", sc.Name), slog.Int("tracks", len(sc.Tracks)))
	return nil
}

// DemoScenario returns a small set of tracks over Poland with a mix of
// statuses and assignments.
func DemoScenario() *Scenario {
	fl := func(v float64) *float64 { return &v }
	ll := func(lon, lat float64) (*float64, *float64) { return &lon, &lat }

	sc := &Scenario{
		Name: "demo",
		Winds: []wx.WindLayer{
			{FlightLevel: 0, Wind: wx.Wind{Direction: 240, Speed: 10}},
			{FlightLevel: 180, Wind: wx.Wind{Direction: 260, Speed: 45}},
			{FlightLevel: 350, Wind: wx.Wind{Direction: 270, Speed: 80}},
		},
		Tracks: []ScenarioTrack{
			{
				ID:                   "WZZ1891",
				Status:               "accepted",
				Heading:              278,
				VectorMinutes:        7,
				GroundSpeed:          451,
				ActualFlightLevel:    fl(380),
				ClearedFlightLevel:   fl(380),
				ExitFlightLevel:      fl(380),
				AircraftType:         "A21N",
				Squawk:               "4632",
				Wake:                 "M",
				Destination:          "EPKK",
				AssignedHeading:      fl(354),
				AssignedSpeed:        "N25",
				VerticalRateAssigned: true,
				ExpectedCruiseLevel:  fl(380),
			},
			{
				ID:                  "LOT612",
				Status:              "preinbound",
				Heading:             186,
				VectorMinutes:       5,
				GroundSpeed:         320,
				VerticalSpeed:       -1400,
				ActualFlightLevel:   fl(140),
				PlannedEntryLevel:   fl(180),
				ExitFlightLevel:     fl(220),
				AircraftType:        "E75L",
				Squawk:              "4132",
				Wake:                "M",
				Destination:         "EPWA",
				ExitPoint:           "DOSAP",
				ExpectedCruiseLevel: fl(220),
			},
			{
				ID:                  "RYR9021",
				Status:              "intruder",
				Heading:             42,
				VectorMinutes:       6,
				GroundSpeed:         482,
				ActualFlightLevel:   fl(330),
				ClearedFlightLevel:  fl(360),
				ExitFlightLevel:     fl(360),
				AircraftType:        "B738",
				Squawk:              "7001",
				Wake:                "M",
				Destination:         "EPGD",
				AssignedHeading:     fl(20),
				AssignedSpeed:       "N28",
				ExpectedCruiseLevel: fl(360),
				Alerts:              []string{"INTRUDER"},
			},
			{
				ID:                   "SAS442",
				Status:               "inbound",
				Heading:              122,
				VectorMinutes:        8,
				GroundSpeed:          410,
				VerticalSpeed:        500,
				ActualFlightLevel:    fl(240),
				PlannedEntryLevel:    fl(230),
				ClearedFlightLevel:   fl(260),
				ExitFlightLevel:      fl(260),
				AircraftType:         "CRJ9",
				Squawk:               "4521",
				Wake:                 "M",
				Destination:          "ESSA",
				AssignedHeading:      fl(118),
				AssignedSpeed:        "N23",
				VerticalRateAssigned: true,
				ExpectedCruiseLevel:  fl(260),
			},
			{
				ID:                   "BAW77",
				Status:               "accepted",
				Heading:              302,
				VectorMinutes:        9,
				GroundSpeed:          430,
				VerticalSpeed:        -800,
				ActualFlightLevel:    fl(280),
				ClearedFlightLevel:   fl(290),
				ExitFlightLevel:      fl(310),
				AircraftType:         "B789",
				Squawk:               "6234",
				Wake:                 "H",
				ExitPoint:            "MABUR",
				AssignedHeading:      fl(302),
				AssignedSpeed:        "M78",
				VerticalRateAssigned: true,
				ExpectedCruiseLevel:  fl(310),
			},
		},
	}

	positions := [][2]float64{{20.967, 52.165}, {18.466, 54.377}, {19.79, 50.072}, {16.83, 52.4}, {14.5, 53.4}}
	for i, p := range positions {
		sc.Tracks[i].Lon, sc.Tracks[i].Lat = ll(p[0], p[1])
		sc.Tracks[i].Callsign = sc.Tracks[i].ID
	}
	return sc
}

///////////////////////////////////////////////////////////////////////////
// Binary state export

const stateVersion = 1

// ExportedState is a point-in-time copy of the sim that can be written out
// and later resumed.
type ExportedState struct {
	Version int
	SimTime time.Time
	Limits  nav.Limits
	Winds   []wx.WindLayer
	Tracks  []Track
}

// Export writes the current state as zstd-compressed msgpack.
func (s *Sim) Export(w io.Writer) error {
	st := ExportedState{
		Version: stateVersion,
		SimTime: s.SimTime,
		Limits:  s.Limits,
		Tracks:  s.Snapshot(),
	}
	if lw, ok := s.wind.(*wx.LayeredWind); ok {
		st.Winds = lw.Layers()
	}

	zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		return fmt.Errorf("failed to create zstd writer: %w", err)
	}
	defer zw.Close()

	if err := msgpack.NewEncoder(zw).Encode(st); err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to close zstd writer: %w", err)
	}
	return nil
}

func ImportState(r io.Reader) (*ExportedState, error) {
	zr, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(0))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd reader: %w", err)
	}
	defer zr.Close()

	var st ExportedState
	if err := msgpack.NewDecoder(zr).Decode(&st); err != nil {
		return nil, fmt.Errorf("failed to decode state: %w", err)
	}
	if st.Version != stateVersion {
		return nil, fmt.Errorf("state version %d: %w", st.Version, ErrUnsupportedFormat)
	}
	return &st, nil
}

// NewSimFromState creates a sim that resumes from an exported state.
func NewSimFromState(st *ExportedState, projector Projector, lg *log.Logger) (*Sim, error) {
	config := NewSimConfiguration{
		Limits:    st.Limits,
		StartTime: st.SimTime,
		Projector: projector,
	}
	if len(st.Winds) > 0 {
		lw, err := wx.MakeLayeredWind(st.Winds)
		if err != nil {
			return nil, err
		}
		config.Wind = lw
	}

	s := NewSim(config, lg)
	for i := range st.Tracks {
		if err := s.Add(&st.Tracks[i]); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// IsStateFile reports whether path names an exported state rather than a
// JSON scenario.
func IsStateFile(path string) bool {
	return strings.HasSuffix(path, ".msgpack.zst") || strings.HasSuffix(path, ".zst")
}

// LoadStateFile reads an exported state from disk.
func LoadStateFile(path string) (*ExportedState, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	st, err := ImportState(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return st, nil
}

// ExportFile writes the current state to path.
func (s *Sim) ExportFile(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if err := s.Export(f); err != nil {
		return errors.Join(fmt.Errorf("%s: export failed", path), err)
	}
	return nil
}
