// aviation/vertical.go
// Copyright(c) 2025 scopesim contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package aviation

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mmp/scopesim/math"
)

// MaxVerticalRate is the largest vertical rate magnitude, in feet per
// minute, that the engine will fly or accept as an assignment.
const MaxVerticalRate = 4000

var ErrInvalidVerticalRate = errors.New("invalid vertical rate")

// VerticalComparator qualifies an assigned vertical rate.
type VerticalComparator int

const (
	VerticalExact VerticalComparator = iota
	VerticalOrGreater
	VerticalOrLess
)

func (c VerticalComparator) String() string {
	switch c {
	case VerticalOrGreater:
		return "or-greater"
	case VerticalOrLess:
		return "or-less"
	default:
		return "exact"
	}
}

// ParseVerticalComparator accepts the String() forms as well as "+", "-",
// ">=" and "<="; anything unrecognized is exact.
func ParseVerticalComparator(s string) VerticalComparator {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "or-greater", "orgreater", "greater", "+", ">=":
		return VerticalOrGreater
	case "or-less", "orless", "less", "-", "<=":
		return VerticalOrLess
	default:
		return VerticalExact
	}
}

func (c VerticalComparator) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *VerticalComparator) UnmarshalText(b []byte) error {
	*c = ParseVerticalComparator(string(b))
	return nil
}

// VerticalAssignment is an assigned climb (positive) or descent (negative)
// rate in feet per minute.
type VerticalAssignment struct {
	Rate       float64            `json:"value" msgpack:"value"`
	Comparator VerticalComparator `json:"comparator" msgpack:"comparator"`
}

// MakeVerticalAssignment rounds the rate to whole feet per minute and
// limits its magnitude to MaxVerticalRate.
func MakeVerticalAssignment(rate float64, cmp VerticalComparator) VerticalAssignment {
	rate = math.Round(math.FiniteOr(rate, 0))
	rate = math.Clamp(rate, -MaxVerticalRate, MaxVerticalRate)
	return VerticalAssignment{Rate: rate, Comparator: cmp}
}

// ParseVerticalAssignment parses text such as "2000", "2000+" (2000 fpm or
// greater) and "-1500-" (1500 fpm descent or less).
func ParseVerticalAssignment(s string) (VerticalAssignment, error) {
	s = strings.TrimSpace(s)
	cmp := VerticalExact
	if len(s) > 1 {
		switch s[len(s)-1] {
		case '+':
			cmp, s = VerticalOrGreater, s[:len(s)-1]
		case '-':
			cmp, s = VerticalOrLess, s[:len(s)-1]
		}
	}

	rate, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || !math.IsFinite(rate) {
		return VerticalAssignment{}, fmt.Errorf("%q: %w", s, ErrInvalidVerticalRate)
	}
	return MakeVerticalAssignment(rate, cmp), nil
}

func (va VerticalAssignment) String() string {
	s := strconv.Itoa(int(va.Rate))
	switch va.Comparator {
	case VerticalOrGreater:
		s += "+"
	case VerticalOrLess:
		s += "-"
	}
	return s
}

// UnmarshalJSON accepts {"value": 2000, "comparator": "or-greater"}, the
// text form "2000+", or a bare number.
func (va *VerticalAssignment) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch jv := v.(type) {
	case map[string]any:
		rate, ok := toFloat(jv["value"])
		if !ok {
			return fmt.Errorf("%s: %w", string(b), ErrInvalidVerticalRate)
		}
		cs, _ := jv["comparator"].(string)
		*va = MakeVerticalAssignment(rate, ParseVerticalComparator(cs))
	case string:
		a, err := ParseVerticalAssignment(jv)
		if err != nil {
			return err
		}
		*va = a
	default:
		rate, ok := toFloat(v)
		if !ok {
			return fmt.Errorf("%s: %w", string(b), ErrInvalidVerticalRate)
		}
		*va = MakeVerticalAssignment(rate, VerticalExact)
	}
	return nil
}
