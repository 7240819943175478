// math/latlong.go
// Copyright(c) 2025 scopesim contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

import "log/slog"

const NMPerLatitude = 60

const FeetToMeters = 0.3048

///////////////////////////////////////////////////////////////////////////
// Point2LL

// Point2LL represents a 2D point on the Earth in latitude-longitude.
// Important: 0 (x) is longitude, 1 (y) is latitude
type Point2LL [2]float64

func (p Point2LL) Longitude() float64 {
	return p[0]
}

func (p Point2LL) Latitude() float64 {
	return p[1]
}

// IsFinite reports whether both coordinates are usable.
func (p Point2LL) IsFinite() bool {
	return IsFinite(p[0]) && IsFinite(p[1])
}

func (p Point2LL) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Float64("lat", p[1]),
		slog.Float64("lon", p[0]))
}

// minCosLatitude keeps the longitude scale finite near the poles.
const minCosLatitude = 1e-6

// Offset2LL returns the point reached by flying distanceNm along heading
// from p, using a flat-earth approximation: one minute of latitude is one
// nautical mile and longitude is scaled by the cosine of the starting
// latitude.
func Offset2LL(p Point2LL, heading float64, distanceNm float64) Point2LL {
	hdg := Radians(NormalizeHeading(heading))
	dlat := distanceNm * Cos(hdg) / NMPerLatitude

	cosLat := Cos(Radians(FiniteOr(p[1], 0)))
	if Abs(cosLat) < minCosLatitude {
		if cosLat >= 0 {
			cosLat = minCosLatitude
		} else {
			cosLat = -minCosLatitude
		}
	}
	dlon := distanceNm * Sin(hdg) / (NMPerLatitude * cosLat)

	return Point2LL{p[0] + dlon, p[1] + dlat}
}
