// wx/wind.go
// Copyright(c) 2025 scopesim contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package wx

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/mmp/scopesim/math"
)

// Wind follows the aviation convention: Direction is where the wind blows
// from, in degrees, and Speed is in knots.
type Wind struct {
	Direction float64 `json:"direction" yaml:"direction" msgpack:"direction"`
	Speed     float64 `json:"speed" yaml:"speed" msgpack:"speed"`
}

// Calm is the zero wind.
var Calm = Wind{}

// Below this speed in knots the wind is ignored.
const calmWindSpeed = 1e-3

func (w Wind) IsCalm() bool {
	return !math.IsFinite(w.Speed) || math.Abs(w.Speed) < calmWindSpeed
}

// Vector returns the (east, north) velocity of the air mass in knots; it
// points toward Direction+180.
func (w Wind) Vector() [2]float64 {
	if w.IsCalm() {
		return [2]float64{}
	}
	to := math.FiniteOr(w.Direction, 0) + 180
	return math.Scale2f(math.HeadingVector(to), w.Speed)
}

func (w Wind) String() string {
	if w.IsCalm() {
		return "calm"
	}
	return fmt.Sprintf("%03d/%d", int(math.Round(math.NormalizeHeading(w.Direction))), int(math.Round(w.Speed)))
}

func (w Wind) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Float64("direction", w.Direction),
		slog.Float64("speed", w.Speed))
}

// windFromVector is the inverse of Wind.Vector.
func windFromVector(v [2]float64) Wind {
	spd := math.Length2f(v)
	if spd < calmWindSpeed {
		return Calm
	}
	return Wind{Direction: math.OppositeHeading(math.VectorHeading(v)), Speed: spd}
}

///////////////////////////////////////////////////////////////////////////
// WindProvider

// WindProvider supplies the wind an aircraft experiences at a position and
// flight level.
type WindProvider interface {
	WindAt(p math.Point2LL, fl float64, t time.Time) Wind
}

// ConstantWind is the same everywhere.
type ConstantWind Wind

func (c ConstantWind) WindAt(math.Point2LL, float64, time.Time) Wind {
	return Wind(c)
}

// WindLayer gives the wind at a single flight level.
type WindLayer struct {
	FlightLevel float64 `json:"flight_level" yaml:"flight_level" msgpack:"flight_level"`
	Wind        Wind    `json:"wind" yaml:"wind" msgpack:"wind"`
}

// LayeredWind is a winds-aloft table: the wind between two layers is
// interpolated in its east/north components and it is held constant below
// the lowest and above the highest layer.
type LayeredWind struct {
	layers []WindLayer
}

var ErrNoWindLayers = errors.New("no wind layers specified")

func MakeLayeredWind(layers []WindLayer) (*LayeredWind, error) {
	if len(layers) == 0 {
		return nil, ErrNoWindLayers
	}
	for _, l := range layers {
		if !math.IsFinite(l.FlightLevel) || !math.IsFinite(l.Wind.Speed) || !math.IsFinite(l.Wind.Direction) {
			return nil, fmt.Errorf("invalid wind layer at FL%v: %v", l.FlightLevel, l.Wind)
		}
	}

	lw := &LayeredWind{layers: slices.Clone(layers)}
	slices.SortFunc(lw.layers, func(a, b WindLayer) int {
		if a.FlightLevel < b.FlightLevel {
			return -1
		} else if a.FlightLevel > b.FlightLevel {
			return 1
		}
		return 0
	})
	return lw, nil
}

// Layers returns the table's layers, lowest first.
func (lw *LayeredWind) Layers() []WindLayer {
	return slices.Clone(lw.layers)
}

func (lw *LayeredWind) WindAt(_ math.Point2LL, fl float64, _ time.Time) Wind {
	n := len(lw.layers)
	if !math.IsFinite(fl) || fl <= lw.layers[0].FlightLevel {
		return lw.layers[0].Wind
	}
	if fl >= lw.layers[n-1].FlightLevel {
		return lw.layers[n-1].Wind
	}

	i, _ := slices.BinarySearchFunc(lw.layers, fl, func(l WindLayer, fl float64) int {
		if l.FlightLevel < fl {
			return -1
		} else if l.FlightLevel > fl {
			return 1
		}
		return 0
	})
	hi := lw.layers[i]
	if hi.FlightLevel == fl {
		return hi.Wind
	}
	lo := lw.layers[i-1]

	x := (fl - lo.FlightLevel) / (hi.FlightLevel - lo.FlightLevel)
	vlo, vhi := lo.Wind.Vector(), hi.Wind.Vector()
	return windFromVector([2]float64{math.Lerp(x, vlo[0], vhi[0]), math.Lerp(x, vlo[1], vhi[1])})
}
