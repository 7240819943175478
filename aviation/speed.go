// aviation/speed.go
// Copyright(c) 2025 scopesim contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package aviation

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/mmp/scopesim/math"
)

///////////////////////////////////////////////////////////////////////////
// SpeedMode

type SpeedMode int

const (
	SpeedModeIAS SpeedMode = iota
	SpeedModeMach
)

func (m SpeedMode) String() string {
	if m == SpeedModeMach {
		return "Mach"
	}
	return "IAS"
}

// ParseSpeedMode interprets a mode hint: "MACH" and "MN" (in any case)
// select Mach and everything else is IAS.
func ParseSpeedMode(s string) SpeedMode {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "MACH", "MN":
		return SpeedModeMach
	default:
		return SpeedModeIAS
	}
}

// speedModeFromField is used for the mode field of structured speed
// assignments, where anything starting with an M is Mach.
func speedModeFromField(s string) SpeedMode {
	if strings.HasPrefix(strings.ToUpper(strings.TrimSpace(s)), "M") {
		return SpeedModeMach
	}
	return SpeedModeIAS
}

func (m SpeedMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *SpeedMode) UnmarshalText(b []byte) error {
	*m = speedModeFromField(string(b))
	return nil
}

///////////////////////////////////////////////////////////////////////////
// SpeedInstruction

// Ranges offered by speed pickers and used to clamp manually entered
// values.
const (
	MinAssignableIAS  = 120
	MaxAssignableIAS  = 480
	IASStep           = 10
	MinAssignableMach = 0.30
	MaxAssignableMach = 0.90
	MachStep          = 0.01
)

// SpeedInstruction is a controller speed assignment, either indicated
// airspeed in knots or a Mach number. A nil Value means the assignment
// exists but no speed has been given yet.
type SpeedInstruction struct {
	Mode  SpeedMode `json:"mode" msgpack:"mode"`
	Value *float64  `json:"value" msgpack:"value"`
}

func IASSpeed(knots float64) SpeedInstruction {
	return makeSpeed(SpeedModeIAS, knots)
}

func MachSpeed(mach float64) SpeedInstruction {
	return makeSpeed(SpeedModeMach, mach)
}

func makeSpeed(mode SpeedMode, v float64) SpeedInstruction {
	if !math.IsFinite(v) {
		return SpeedInstruction{Mode: mode}
	}
	return SpeedInstruction{Mode: mode, Value: &v}
}

// IsSet reports whether the instruction carries a usable speed.
func (si SpeedInstruction) IsSet() bool {
	return si.Value != nil && math.IsFinite(*si.Value)
}

// Speed returns the numeric value of the instruction, if it has one.
func (si SpeedInstruction) Speed() (float64, bool) {
	if !si.IsSet() {
		return 0, false
	}
	return *si.Value, true
}

// String returns the instruction as shown in a data block: "MN 0.78" or
// "IAS 250"; an instruction without a value gives the empty string.
func (si SpeedInstruction) String() string {
	v, ok := si.Speed()
	if !ok {
		return ""
	}
	if si.Mode == SpeedModeMach {
		// Hundredths round half up; %.2f alone rounds ties to even.
		return fmt.Sprintf("MN %.2f", math.Round(v*100)/100)
	}
	return fmt.Sprintf("IAS %d", int(math.Round(v)))
}

// FormatSpeedInstruction is a nil-tolerant wrapper around
// SpeedInstruction.String.
func FormatSpeedInstruction(si *SpeedInstruction) string {
	if si == nil {
		return ""
	}
	return si.String()
}

// Clamped returns the instruction limited to the assignable range for its
// mode.
func (si SpeedInstruction) Clamped() SpeedInstruction {
	v, ok := si.Speed()
	if !ok {
		return si
	}
	if si.Mode == SpeedModeMach {
		return MachSpeed(math.Clamp(v, MinAssignableMach, MaxAssignableMach))
	}
	return IASSpeed(math.Clamp(v, MinAssignableIAS, MaxAssignableIAS))
}

// SpeedChoices returns the values offered by a speed picker for the given
// mode, lowest first.
func SpeedChoices(mode SpeedMode) []SpeedInstruction {
	var choices []SpeedInstruction
	if mode == SpeedModeMach {
		for i := 30; i <= 90; i++ {
			choices = append(choices, MachSpeed(float64(i)/100))
		}
	} else {
		for kt := MinAssignableIAS; kt <= MaxAssignableIAS; kt += IASStep {
			choices = append(choices, IASSpeed(float64(kt)))
		}
	}
	return choices
}

// ParseSpeedInstruction normalizes a textual speed assignment.  Shorthand
// forms are:
//
//	M78, M082, M.78  Mach number; values of 10 or more are hundredths
//	N25, N5          IAS in knots, scaled up to three digits (250, 500)
//	N082             a leading zero gives the literal value (82 knots)
//
// Any other text is scanned for a number, which is taken literally in the
// hinted mode. This also accepts the String() forms "MN 0.78" and
// "IAS 250" (the latter when hint is SpeedModeIAS).
func ParseSpeedInstruction(s string, hint SpeedMode) SpeedInstruction {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return SpeedInstruction{Mode: hint}
	}

	switch s[0] {
	case 'M':
		v, ok := leadingFloat(keepOnly(s[1:], "0123456789."))
		if !ok {
			return SpeedInstruction{Mode: SpeedModeMach}
		}
		if v >= 10 {
			v /= 100
		}
		return MachSpeed(v)

	case 'N':
		digits := keepOnly(s[1:], "0123456789")
		if digits == "" {
			return SpeedInstruction{Mode: SpeedModeIAS}
		}
		return makeSpeed(SpeedModeIAS, knotsShorthand(digits))
	}

	if v, ok := leadingFloat(keepOnly(s, "0123456789.")); ok {
		return makeSpeed(hint, v)
	}
	return SpeedInstruction{Mode: hint}
}

// knotsShorthand expands the digits of an N-prefixed speed: a leading zero
// means the digits are the literal speed; otherwise they are the leading
// digits of a three-digit speed.
func knotsShorthand(digits string) float64 {
	v, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		return v // +Inf for absurdly long input, which makeSpeed rejects
	}
	if digits[0] == '0' || v == 0 {
		return v
	}
	for n := len(digits); n < 3; n++ {
		v *= 10
	}
	return v
}

// ParseSpeedValue normalizes a speed assignment that may arrive as a
// structured instruction, a map decoded from JSON or YAML, shorthand text,
// or a bare number.
func ParseSpeedValue(v any, hint SpeedMode) SpeedInstruction {
	switch sv := v.(type) {
	case nil:
		return SpeedInstruction{Mode: hint}
	case SpeedInstruction:
		return makeSpeedFromPtr(sv.Mode, sv.Value)
	case *SpeedInstruction:
		if sv == nil {
			return SpeedInstruction{Mode: hint}
		}
		return makeSpeedFromPtr(sv.Mode, sv.Value)
	case map[string]any:
		mode := hint
		if ms, ok := sv["mode"].(string); ok && ms != "" {
			mode = speedModeFromField(ms)
		}
		if f, ok := toFloat(sv["value"]); ok {
			return makeSpeed(mode, f)
		}
		return SpeedInstruction{Mode: mode}
	case string:
		return ParseSpeedInstruction(sv, hint)
	default:
		if f, ok := toFloat(v); ok {
			return makeSpeed(hint, f)
		}
		return SpeedInstruction{Mode: hint}
	}
}

func makeSpeedFromPtr(mode SpeedMode, v *float64) SpeedInstruction {
	if v == nil {
		return SpeedInstruction{Mode: mode}
	}
	return makeSpeed(mode, *v)
}

// UnmarshalJSON accepts the canonical {"mode":..., "value":...} object as
// well as shorthand strings and bare numbers (taken as IAS).
func (si *SpeedInstruction) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*si = ParseSpeedValue(v, SpeedModeIAS)
	return nil
}

///////////////////////////////////////////////////////////////////////////
// parsing helpers

func keepOnly(s string, chars string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(chars, r) {
			return r
		}
		return -1
	}, s)
}

// leadingFloat parses the longest prefix of s of the form digits[.digits];
// at least one digit is required.
func leadingFloat(s string) (float64, bool) {
	n, digits := 0, 0
	for n < len(s) && s[n] >= '0' && s[n] <= '9' {
		n++
		digits++
	}
	if n < len(s) && s[n] == '.' {
		n++
		for n < len(s) && s[n] >= '0' && s[n] <= '9' {
			n++
			digits++
		}
	}
	if digits == 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(s[:n], "."), 64)
	if err != nil || !math.IsFinite(v) {
		return 0, false
	}
	return v, true
}

func toFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int8:
		f = float64(n)
	case int16:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint8:
		f = float64(n)
	case uint16:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		var err error
		if f, err = n.Float64(); err != nil {
			return 0, false
		}
	default:
		return 0, false
	}
	return f, math.IsFinite(f)
}
