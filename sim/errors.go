// sim/errors.go
// Copyright(c) 2025 scopesim contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"errors"
)

var (
	ErrDuplicateTrack    = errors.New("Duplicate track id")
	ErrInvalidCommand    = errors.New("Invalid command syntax")
	ErrInvalidHeading    = errors.New("Invalid heading")
	ErrInvalidLevel      = errors.New("Invalid flight level")
	ErrInvalidScenario   = errors.New("Invalid scenario")
	ErrInvalidSpeed      = errors.New("Invalid speed")
	ErrNoTrack           = errors.New("No matching track")
	ErrUnsupportedFormat = errors.New("Unsupported scenario format")
)
