// wx/atmos.go
// Copyright(c) 2025 scopesim contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package wx

import (
	"log/slog"

	"github.com/mmp/scopesim/math"

	lru "github.com/hashicorp/golang-lru/v2"
)

// International Standard Atmosphere constants.
const (
	T0    = 288.15  // sea level temperature, K
	P0    = 101325  // sea level pressure, Pa
	Rho0  = 1.225   // sea level density, kg/m^3
	L     = 0.0065  // temperature lapse rate, K/m
	G     = 9.80665 // gravitational acceleration, m/s^2
	R     = 287.058 // specific gas constant for dry air, J/(kg K)
	Gamma = 1.4     // ratio of specific heats
)

// TropopauseMeters is the top of the modeled troposphere; above it the
// temperature is held constant.
const TropopauseMeters = 11000

// MaxAltitudeFeet bounds the altitudes that airspeed conversions consider.
const MaxAltitudeFeet = 60000

var (
	tropopauseTemperature = T0 - L*TropopauseMeters
	tropopausePressure    = P0 * math.Pow(1-L*TropopauseMeters/T0, G/(R*L))
)

// seaLevelIfInvalid maps negative and non-finite altitudes to 0.
func seaLevelIfInvalid(altMeters float64) float64 {
	if !math.IsFinite(altMeters) || altMeters < 0 {
		return 0
	}
	return altMeters
}

// TemperatureAt returns the ISA temperature in Kelvin at the given
// altitude in meters. Only the troposphere lapse is modeled; any altitude
// above the tropopause gets the tropopause temperature.
func TemperatureAt(altMeters float64) float64 {
	altMeters = seaLevelIfInvalid(altMeters)
	if altMeters <= TropopauseMeters {
		return T0 - L*altMeters
	}
	return tropopauseTemperature
}

// PressureAt returns the ISA pressure in Pascals at the given altitude in
// meters: the barometric formula up to the tropopause and isothermal
// exponential decay above it.
func PressureAt(altMeters float64) float64 {
	altMeters = seaLevelIfInvalid(altMeters)
	if altMeters <= TropopauseMeters {
		return P0 * math.Pow(1-L*altMeters/T0, G/(R*L))
	}
	return tropopausePressure * math.Exp(-G*(altMeters-TropopauseMeters)/(R*tropopauseTemperature))
}

// DensityAt returns the air density in kg/m^3 at the given altitude in
// meters.
func DensityAt(altMeters float64) float64 {
	t := TemperatureAt(altMeters)
	if t <= 0 {
		return Rho0
	}
	return PressureAt(altMeters) / (R * t)
}

// SpeedOfSoundAt returns the speed of sound in m/s at the given altitude
// in meters.
func SpeedOfSoundAt(altMeters float64) float64 {
	return math.Sqrt(Gamma * R * TemperatureAt(altMeters))
}

///////////////////////////////////////////////////////////////////////////
// Atmosphere

// Atmosphere is the ISA state at a single altitude.
type Atmosphere struct {
	AltitudeMeters float64
	Temperature    float64 // Kelvin
	Pressure       float64 // Pascals
	Density        float64 // kg/m^3
	SpeedOfSound   float64 // m/s
}

func (a Atmosphere) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Float64("altitude_m", a.AltitudeMeters),
		slog.Float64("temperature_k", a.Temperature),
		slog.Float64("pressure_pa", a.Pressure),
		slog.Float64("density", a.Density))
}

// DensityRatio returns rho0/rho, the factor relating indicated and true
// airspeed (squared).
func (a Atmosphere) DensityRatio() float64 {
	if a.Density <= 0 {
		return 1
	}
	return Rho0 / a.Density
}

func makeAtmosphere(altMeters float64) Atmosphere {
	return Atmosphere{
		AltitudeMeters: altMeters,
		Temperature:    TemperatureAt(altMeters),
		Pressure:       PressureAt(altMeters),
		Density:        DensityAt(altMeters),
		SpeedOfSound:   SpeedOfSoundAt(altMeters),
	}
}

// Samples are cached by altitude rounded to the nearest foot.
const atmosphereCacheSize = 1024

var atmosphereCache *lru.Cache[int, Atmosphere]

func init() {
	var err error
	if atmosphereCache, err = lru.New[int, Atmosphere](atmosphereCacheSize); err != nil {
		panic(err)
	}
}

// ClampAltitudeFeet limits an altitude to the range the airspeed
// conversions consider; non-finite values become 0.
func ClampAltitudeFeet(altFeet float64) float64 {
	if !math.IsFinite(altFeet) {
		return 0
	}
	return math.Clamp(altFeet, 0, MaxAltitudeFeet)
}

// Lookup returns the standard atmosphere at the given altitude in feet,
// after clamping it to [0, MaxAltitudeFeet] and rounding it to the nearest
// foot.
func Lookup(altFeet float64) Atmosphere {
	ft := int(math.Round(ClampAltitudeFeet(altFeet)))
	if a, ok := atmosphereCache.Get(ft); ok {
		return a
	}
	a := makeAtmosphere(float64(ft) * math.FeetToMeters)
	atmosphereCache.Add(ft, a)
	return a
}
