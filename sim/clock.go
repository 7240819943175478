// sim/clock.go
// Copyright(c) 2025 scopesim contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"context"
	"log/slog"
	"time"
)

// DefaultTickRate is the number of simulation steps per second.
const DefaultTickRate = 30

// FixedStep converts irregular wall-clock intervals into a whole number of
// fixed-size simulation steps, carrying the remainder forward.
type FixedStep struct {
	Step time.Duration
	acc  time.Duration
}

func MakeFixedStep(hz int) FixedStep {
	if hz <= 0 {
		hz = DefaultTickRate
	}
	return FixedStep{Step: time.Second / time.Duration(hz)}
}

// Advance accumulates elapsed time and returns how many steps are now due.
func (f *FixedStep) Advance(elapsed time.Duration) int {
	if elapsed > 0 {
		f.acc += elapsed
	}
	n := int(f.acc / f.Step)
	f.acc -= time.Duration(n) * f.Step
	return n
}

// Seconds returns the step size in seconds.
func (f FixedStep) Seconds() float64 {
	return f.Step.Seconds()
}

// RunFor advances the sim by the given number of fixed steps.
func (s *Sim) RunFor(steps int, hz int) {
	step := MakeFixedStep(hz)
	for range steps {
		s.Tick(step.Seconds())
	}
}

// Run drives the sim in real time at hz steps per second until ctx is
// cancelled. frame, if non-nil, is called after each batch of steps.
func (s *Sim) Run(ctx context.Context, hz int, frame func(*Sim)) error {
	step := MakeFixedStep(hz)
	ticker := time.NewTicker(step.Step)
	defer ticker.Stop()

	s.lg.Info("running sim", slog.Duration("step", step.Step))
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			s.lg.Info("sim stopped", slog.Time("sim_time", s.SimTime))
			return nil

		case now := <-ticker.C:
			elapsed := now.Sub(last)
			last = now

			n := step.Advance(elapsed)
			if n > 10*int(time.Second/step.Step) {
				s.lg.Warn("unexpected hitch in update rate", slog.Duration("elapsed", elapsed),
					slog.Int("steps", n))
			}
			for range n {
				s.Tick(step.Seconds())
			}
			if n > 0 && frame != nil {
				frame(s)
			}
		}
	}
}
