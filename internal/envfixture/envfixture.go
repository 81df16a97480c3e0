// Package envfixture is a deterministic stand-in for the external
// environment providers (weather, ocean, waves, geographic water
// classification, magnetic declination, celestial ephemeris), which are
// out of scope for this repository. It lets cmd/sailnavsim run end to end
// without those services wired up, the same way a mock serial port stands
// in for a physical device in tests. Production deployments are expected
// to replace this with real providers behind the same
// environment.Provider/environment.CelestialProvider interfaces.
package envfixture

import (
	"math"
	"time"

	"github.com/banshee-data/sailnavsim/internal/environment"
	"github.com/banshee-data/sailnavsim/internal/geo"
)

// Provider is a synthetic environment.Provider built from smooth analytic
// fields plus a coarse, deterministic land mask, so land-avoidance and
// damage/repair behavior are exercisable without a real data feed.
type Provider struct{}

// New constructs a fixture Provider.
func New() *Provider { return &Provider{} }

// Weather returns a smoothly varying synthetic wind field: a prevailing
// westerly whose speed increases with latitude (crudely modeling the
// trade-wind/roaring-forties gradient) plus a small positional gust term.
func (Provider) Weather(pos geo.Pos) environment.Weather {
	base := 4.0 + 6.0*math.Abs(math.Sin(geo.NewPos(pos.Lat, pos.Lon).Lat*math.Pi/180.0))
	gustTerm := 1.5 * math.Abs(math.Sin(pos.Lon*math.Pi/45.0))

	return environment.Weather{
		Wind:       geo.Vec{Angle: geo.NormalizeAngle(250.0 + 20.0*math.Sin(pos.Lon*math.Pi/180.0)), Mag: base},
		WindGust:   base + gustTerm,
		Temp:       15.0 - 0.3*math.Abs(pos.Lat),
		Dewpoint:   10.0 - 0.3*math.Abs(pos.Lat),
		Pressure:   1013.0,
		Cloud:      50.0 + 30.0*math.Sin((pos.Lat+pos.Lon)*math.Pi/180.0),
		Visibility: 10000.0,
		Prate:      0.0,
		Cond:       0,
	}
}

// Ocean reports a weak synthetic gyre current everywhere except the coarse
// land mask, where there is by definition no ocean sample.
func (p Provider) Ocean(pos geo.Pos) environment.Ocean {
	if !p.IsWater(pos) {
		return environment.Ocean{}
	}
	return environment.Ocean{
		Current:     geo.Vec{Angle: geo.NormalizeAngle(pos.Lon + 90.0), Mag: 0.2},
		SurfaceTemp: 18.0 - 0.25*math.Abs(pos.Lat),
		Salinity:    35.0,
		Ice:         iceFraction(pos.Lat),
		Valid:       true,
	}
}

// Wave reports a modest sea state scaled by the same synthetic wind speed
// used by Weather, present everywhere there is water.
func (p Provider) Wave(pos geo.Pos) environment.Wave {
	if !p.IsWater(pos) {
		return environment.Wave{}
	}
	wx := p.Weather(pos)
	return environment.Wave{WaveHeight: 0.1 * wx.Wind.Mag, Valid: true}
}

// IsWater implements a coarse, deterministic land mask: the poles are land
// (ice shelf), and a low-frequency sinusoidal "continent" pattern covers
// roughly 15% of the remaining surface, leaving broad ocean basins for
// boats to actually sail in.
func (p Provider) IsWater(pos geo.Pos) bool {
	if math.Abs(pos.Lat) >= 85.0 {
		return false
	}
	landSignal := math.Sin(pos.Lat*math.Pi/45.0) * math.Cos(pos.Lon*math.Pi/60.0)
	return landSignal < 0.6
}

// MagneticDeclination returns a simple linear approximation of declination
// as a function of longitude, zero at the Greenwich meridian.
func (Provider) MagneticDeclination(pos geo.Pos, _ time.Time) float64 {
	return pos.Lon / 18.0
}

func iceFraction(lat float64) float64 {
	abs := math.Abs(lat)
	if abs < 60.0 {
		return 0.0
	}
	if abs >= 85.0 {
		return 100.0
	}
	return (abs - 60.0) / 25.0 * 100.0
}
