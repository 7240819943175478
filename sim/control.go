// sim/control.go
// Copyright(c) 2025 scopesim contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	av "github.com/mmp/scopesim/aviation"
	"github.com/mmp/scopesim/math"
	"github.com/mmp/scopesim/nav"
)

func (s *Sim) dispatchTrackCommand(callsign string, cmd func(t *Track) error) error {
	t, err := s.TrackByCallsign(callsign)
	if err != nil {
		return err
	}
	return cmd(t)
}

// AssignHeading assigns a heading in degrees; 360 is accepted for north.
func (s *Sim) AssignHeading(callsign string, hdg float64) error {
	return s.dispatchTrackCommand(callsign, func(t *Track) error { return assignHeading(t, hdg) })
}

func (s *Sim) CancelHeading(callsign string) error {
	return s.dispatchTrackCommand(callsign, func(t *Track) error {
		t.Nav.FlyPresentHeading()
		return nil
	})
}

// AssignSpeed assigns a manually entered speed instruction, limited to the
// assignable range for its mode. An instruction without a value cancels
// the speed assignment.
func (s *Sim) AssignSpeed(callsign string, si av.SpeedInstruction) error {
	return s.dispatchTrackCommand(callsign, func(t *Track) error { return assignSpeed(t, si) })
}

// ClearFlightLevel sets the cleared flight level.
func (s *Sim) ClearFlightLevel(callsign string, fl float64) error {
	return s.dispatchTrackCommand(callsign, func(t *Track) error { return s.clearFlightLevel(t, fl) })
}

func (s *Sim) AssignVertical(callsign string, va av.VerticalAssignment) error {
	return s.dispatchTrackCommand(callsign, func(t *Track) error {
		t.Nav.AssignVerticalRate(va)
		return nil
	})
}

func (s *Sim) CancelVertical(callsign string) error {
	return s.dispatchTrackCommand(callsign, func(t *Track) error {
		t.Nav.CancelVerticalRate()
		return nil
	})
}

func assignHeading(t *Track, hdg float64) error {
	if !math.IsFinite(hdg) || hdg < 0 || hdg > 360 {
		return ErrInvalidHeading
	}
	t.Nav.AssignHeading(hdg)
	return nil
}

func assignSpeed(t *Track, si av.SpeedInstruction) error {
	if !si.IsSet() {
		t.Nav.CancelSpeed()
		return nil
	}
	if v, _ := si.Speed(); v <= 0 {
		return ErrInvalidSpeed
	}
	t.Nav.AssignSpeed(si.Clamped())
	return nil
}

func (s *Sim) clearFlightLevel(t *Track, fl float64) error {
	if !math.IsFinite(fl) || fl < s.Limits.MinFlightLevel || fl > s.Limits.MaxFlightLevel {
		return ErrInvalidLevel
	}
	t.Nav.AssignClearedLevel(fl)
	return nil
}

// RunCommands runs a space-separated list of control commands for a
// track:
//
//	H090     fly heading 090
//	FPH      fly present heading
//	C200     cleared FL200 (A200 and D200 are equivalent)
//	SN25     speed instruction text after the S, here IAS 250; S alone cancels
//	M78      Mach .78
//	V2000+   vertical rate with an optional + (or greater) or - (or less); V alone cancels
//
// Either all commands are applied or, if one fails, none are.
func (s *Sim) RunCommands(callsign string, commands string) error {
	t, err := s.TrackByCallsign(callsign)
	if err != nil {
		return err
	}

	snap := t.Nav.TakeSnapshot()
	fields := strings.Fields(strings.ToUpper(commands))
	for _, command := range fields {
		if err := s.runOneCommand(t, command); err != nil {
			t.Nav.RestoreSnapshot(snap)
			s.lg.Info("control command failed", slog.String("callsign", t.Callsign),
				slog.String("command", command), slog.Any("error", err))
			s.postEvent(t, CommandRejectedEvent, command)
			return fmt.Errorf("%s: %w", command, err)
		}
		nav.NavLog(t.Callsign, s.SimTime, nav.NavLogCommand, "%s", command)
	}

	if s.eventStream != nil && len(fields) > 0 {
		s.eventStream.Post(Event{
			Type:        CommandEvent,
			Callsign:    t.Callsign,
			Time:        s.SimTime,
			WrittenText: strings.Join(fields, " "),
			Readback:    strings.Join([]string{t.Nav.SayHeading(), t.Nav.SaySpeed(), t.Nav.SayAltitude()}, ", "),
		})
	}
	return nil
}

func (s *Sim) runOneCommand(t *Track, command string) error {
	if len(command) == 0 {
		return ErrInvalidCommand
	}

	if command == "FPH" {
		t.Nav.FlyPresentHeading()
		return nil
	}

	switch command[0] {
	case 'A', 'C', 'D':
		fl, err := strconv.ParseFloat(command[1:], 64)
		if err != nil {
			return ErrInvalidCommand
		}
		return s.clearFlightLevel(t, fl)

	case 'H':
		hdg, err := strconv.ParseFloat(command[1:], 64)
		if err != nil {
			return ErrInvalidCommand
		}
		return assignHeading(t, hdg)

	case 'S':
		if command == "S" {
			return assignSpeed(t, av.SpeedInstruction{})
		}
		hint := av.SpeedModeIAS
		if a := t.Nav.Speed.Assigned; a != nil {
			hint = a.Mode
		}
		si := av.ParseSpeedInstruction(command[1:], hint)
		if !si.IsSet() {
			return ErrInvalidSpeed
		}
		return assignSpeed(t, si)

	case 'M':
		si := av.ParseSpeedInstruction(command, av.SpeedModeMach)
		if !si.IsSet() {
			return ErrInvalidSpeed
		}
		return assignSpeed(t, si)

	case 'V':
		if command == "V" {
			t.Nav.CancelVerticalRate()
			return nil
		}
		va, err := av.ParseVerticalAssignment(command[1:])
		if err != nil {
			return err
		}
		t.Nav.AssignVerticalRate(va)
		return nil

	default:
		return ErrInvalidCommand
	}
}
