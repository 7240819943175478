// airspace/projection.go
// Copyright(c) 2025 scopesim contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package airspace

import (
	"log/slog"

	"github.com/mmp/scopesim/math"

	"github.com/paulmach/orb"
)

// Equirectangular maps latitude-longitude to nautical miles east and
// south of an origin, with longitude scaled by the cosine of a fixed
// latitude. Screen y grows downward.
type Equirectangular struct {
	Origin         math.Point2LL
	NMPerLongitude float64
}

func NewEquirectangular(origin math.Point2LL, latitude float64) *Equirectangular {
	return &Equirectangular{
		Origin:         origin,
		NMPerLongitude: math.NMPerLatitude * math.Cos(math.Radians(latitude)),
	}
}

// ProjectionForBound returns a projection centered on the bound, scaled
// for its mean latitude.
func ProjectionForBound(b orb.Bound) *Equirectangular {
	c := b.Center()
	return NewEquirectangular(math.Point2LL{c[0], c[1]}, c[1])
}

// Projection returns the projection for the loaded datasets.
func (d *Datasets) Projection() (*Equirectangular, error) {
	b, ok := d.Bound()
	if !ok {
		return nil, ErrNoFeatures
	}
	return ProjectionForBound(b), nil
}

func (e *Equirectangular) Project(p math.Point2LL) ([2]float64, bool) {
	if !p.IsFinite() {
		return [2]float64{}, false
	}
	return [2]float64{
		(p[0] - e.Origin[0]) * e.NMPerLongitude,
		-(p[1] - e.Origin[1]) * math.NMPerLatitude,
	}, true
}

// Unproject is the inverse of Project.
func (e *Equirectangular) Unproject(xy [2]float64) math.Point2LL {
	lon := e.Origin[0]
	if e.NMPerLongitude != 0 {
		lon += xy[0] / e.NMPerLongitude
	}
	return math.Point2LL{lon, e.Origin[1] - xy[1]/math.NMPerLatitude}
}

func (e *Equirectangular) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Any("origin", e.Origin),
		slog.Float64("nm_per_longitude", e.NMPerLongitude))
}

// Outline is a feature in projected coordinates.
type Outline struct {
	Layer  string       `json:"layer"`
	Type   string       `json:"type"`
	Points [][2]float64 `json:"points"`
}

// Outlines projects the outer rings of polygons and the positions of
// points, for drawing.
func (d *Datasets) Outlines(e *Equirectangular) []Outline {
	var out []Outline
	add := func(layer, typ string, pts []orb.Point) {
		o := Outline{Layer: layer, Type: typ}
		for _, p := range pts {
			if xy, ok := e.Project(math.Point2LL{p[0], p[1]}); ok {
				o.Points = append(o.Points, xy)
			}
		}
		if len(o.Points) > 0 {
			out = append(out, o)
		}
	}

	for _, l := range d.Layers {
		for _, f := range l.Features {
			switch g := f.Geometry.(type) {
			case orb.Polygon:
				if len(g) > 0 {
					add(l.Name, "polygon", g[0])
				}
			case orb.MultiPolygon:
				for _, poly := range g {
					if len(poly) > 0 {
						add(l.Name, "polygon", poly[0])
					}
				}
			case orb.Point:
				add(l.Name, "point", []orb.Point{g})
			case orb.MultiPoint:
				for _, p := range g {
					add(l.Name, "point", []orb.Point{p})
				}
			}
		}
	}
	return out
}
