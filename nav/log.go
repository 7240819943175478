// nav/log.go
// Copyright(c) 2025 scopesim contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package nav

// Available logging categories
const (
	NavLogState    = "state"
	NavLogAltitude = "altitude"
	NavLogSpeed    = "speed"
	NavLogHeading  = "heading"
	NavLogCommand  = "command"
)

var navLogCategories = []string{NavLogState, NavLogAltitude, NavLogSpeed, NavLogHeading, NavLogCommand}
