// sim/control_test.go
// Copyright(c) 2025 scopesim contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"errors"
	"testing"

	av "github.com/mmp/scopesim/aviation"
)

func makeCommandSim(t *testing.T) (*Sim, *Track) {
	t.Helper()
	s := makeTestSim(nil)
	tr := makeTestTrack("wzz1891")
	if err := s.Add(tr); err != nil {
		t.Fatal(err)
	}
	return s, tr
}

func TestRunCommands(t *testing.T) {
	s, tr := makeCommandSim(t)

	if err := s.RunCommands("WZZ1891", "h180 C300 SN25 V2000+"); err != nil {
		t.Fatalf("RunCommands: %v", err)
	}
	if a := tr.Nav.Heading.Assigned; a == nil || *a != 180 {
		t.Errorf("assigned heading = %v, want 180", a)
	}
	if c := tr.Nav.Altitude.Cleared; c == nil || *c != 300 {
		t.Errorf("cleared level = %v, want 300", c)
	}
	if got := av.FormatSpeedInstruction(tr.Nav.Speed.Assigned); got != "IAS 250" {
		t.Errorf("speed = %q, want IAS 250", got)
	}
	if v := tr.Nav.Altitude.Vertical; v == nil || v.Rate != 2000 || v.Comparator != av.VerticalOrGreater {
		t.Errorf("vertical = %+v, want 2000 or-greater", v)
	} else if !tr.Nav.Altitude.RateAssigned {
		t.Errorf("rate not assigned")
	}

	if err := s.RunCommands("WZZ1891", "M78 FPH V"); err != nil {
		t.Fatalf("RunCommands: %v", err)
	}
	if got := av.FormatSpeedInstruction(tr.Nav.Speed.Assigned); got != "MN 0.78" {
		t.Errorf("speed = %q, want MN 0.78", got)
	}
	if tr.Nav.Heading.Assigned != nil {
		t.Errorf("FPH left heading %v assigned", *tr.Nav.Heading.Assigned)
	}
	if tr.Nav.Altitude.RateAssigned {
		t.Errorf("V did not cancel the rate")
	}

	// A bare number after S is taken in the current mode.
	if err := s.RunCommands("WZZ1891", "S.80"); err != nil {
		t.Fatalf("RunCommands: %v", err)
	}
	if got := av.FormatSpeedInstruction(tr.Nav.Speed.Assigned); got != "MN 0.80" {
		t.Errorf("speed = %q, want MN 0.80", got)
	}

	if err := s.RunCommands("WZZ1891", "S"); err != nil {
		t.Fatalf("RunCommands: %v", err)
	}
	if tr.Nav.Speed.Assigned != nil {
		t.Errorf("S did not cancel the speed")
	}

	if err := s.RunCommands("WZZ1891", "H360"); err != nil {
		t.Fatalf("RunCommands: %v", err)
	}
	if a := tr.Nav.Heading.Assigned; a == nil || *a != 0 {
		t.Errorf("assigned heading = %v, want 0", a)
	}
}

func TestRunCommandsErrors(t *testing.T) {
	for _, test := range []struct {
		commands string
		want     error
	}{
		{"X12", ErrInvalidCommand},
		{"HABC", ErrInvalidCommand},
		{"H400", ErrInvalidHeading},
		{"H-10", ErrInvalidHeading},
		{"C999", ErrInvalidLevel},
		{"C", ErrInvalidCommand},
		{"SXYZ", ErrInvalidSpeed},
		{"S0", ErrInvalidSpeed},
		{"VFAST", av.ErrInvalidVerticalRate},
	} {
		s, tr := makeCommandSim(t)
		err := s.RunCommands("WZZ1891", "H090 "+test.commands)
		if !errors.Is(err, test.want) {
			t.Errorf("RunCommands(%q) = %v, want %v", test.commands, err, test.want)
		}
		if tr.Nav.Heading.Assigned != nil {
			t.Errorf("RunCommands(%q) kept heading %v after failing", test.commands, *tr.Nav.Heading.Assigned)
		}
	}

	s, _ := makeCommandSim(t)
	if err := s.RunCommands("NONE", "H090"); !errors.Is(err, ErrNoTrack) {
		t.Errorf("unknown callsign: got %v, want ErrNoTrack", err)
	}
}

func TestAssignSpeed(t *testing.T) {
	s, tr := makeCommandSim(t)

	for _, test := range []struct {
		si   av.SpeedInstruction
		want string
		err  error
	}{
		{av.IASSpeed(250), "IAS 250", nil},
		{av.IASSpeed(600), "IAS 480", nil},
		{av.IASSpeed(90), "IAS 120", nil},
		{av.MachSpeed(0.95), "MN 0.90", nil},
		{av.IASSpeed(0), "MN 0.90", ErrInvalidSpeed},
		{av.SpeedInstruction{}, "", nil},
	} {
		err := s.AssignSpeed("WZZ1891", test.si)
		if !errors.Is(err, test.err) {
			t.Errorf("AssignSpeed(%v) error = %v, want %v", test.si, err, test.err)
		}
		if got := av.FormatSpeedInstruction(tr.Nav.Speed.Assigned); got != test.want {
			t.Errorf("AssignSpeed(%v) = %q, want %q", test.si, got, test.want)
		}
	}
}

func TestDirectControl(t *testing.T) {
	s, tr := makeCommandSim(t)

	if err := s.AssignHeading("wzz1891", 45); err != nil {
		t.Fatal(err)
	}
	if err := s.CancelHeading("wzz1891"); err != nil || tr.Nav.Heading.Assigned != nil {
		t.Errorf("CancelHeading: %v, assigned %v", err, tr.Nav.Heading.Assigned)
	}

	if err := s.ClearFlightLevel("wzz1891", 601); !errors.Is(err, ErrInvalidLevel) {
		t.Errorf("ClearFlightLevel(601) = %v, want ErrInvalidLevel", err)
	}
	if err := s.ClearFlightLevel("wzz1891", 600); err != nil {
		t.Errorf("ClearFlightLevel(600) = %v", err)
	}

	va := av.MakeVerticalAssignment(-1500, av.VerticalOrLess)
	if err := s.AssignVertical("wzz1891", va); err != nil || !tr.Nav.Altitude.RateAssigned {
		t.Errorf("AssignVertical: %v, assigned %v", err, tr.Nav.Altitude.RateAssigned)
	}
	if err := s.CancelVertical("wzz1891"); err != nil || tr.Nav.Altitude.RateAssigned {
		t.Errorf("CancelVertical: %v, assigned %v", err, tr.Nav.Altitude.RateAssigned)
	}
	if tr.Nav.Altitude.Vertical == nil || tr.Nav.Altitude.Vertical.Rate != -1500 {
		t.Errorf("CancelVertical dropped the staged rate: %v", tr.Nav.Altitude.Vertical)
	}
}
