// Package environment defines the read-only façade over the external data
// providers the simulator consumes: weather, ocean, wave, geographic
// water/land classification, magnetic declination and celestial ephemeris.
// These providers are out of scope for this repository; their
// interpolation and on-disk formats belong to separate services. This
// package only declares the contracts and the vector arithmetic
// (AdjustWindForCurrent) that sits in front of them.
package environment

import (
	"time"

	"github.com/banshee-data/sailnavsim/internal/geo"
)

// Weather is a point-in-time sample at some position. It never fails: a
// provider with no local data returns its best fallback/climatological
// estimate.
type Weather struct {
	Wind       geo.Vec
	WindGust   float64
	Temp       float64
	Dewpoint   float64
	Pressure   float64
	Cloud      float64
	Visibility float64
	Prate      float64
	Cond       int
}

// Ocean is a point-in-time ocean sample; Valid is false over land or where
// no ocean model data exists.
type Ocean struct {
	Current     geo.Vec
	SurfaceTemp float64
	Salinity    float64
	Ice         float64
	Valid       bool
}

// Wave is a point-in-time sea-state sample; Valid is false where no wave
// model data exists.
type Wave struct {
	WaveHeight float64
	Valid      bool
}

// Provider is the façade the boat physics and request server consume.
// Implementations are expected to be safe for concurrent use by many
// goroutines; none of the Registry's locks are held while a Provider method
// runs.
type Provider interface {
	Weather(pos geo.Pos) Weather
	Ocean(pos geo.Pos) Ocean
	Wave(pos geo.Pos) Wave
	IsWater(pos geo.Pos) bool
	MagneticDeclination(pos geo.Pos, now time.Time) float64
}

// AdjustWindForCurrent vector-adds the ocean current into both the wind and
// the gust (treated as a vector at the wind's angle), mutating wx in place,
// and returns the resulting gust bearing, mirroring WxUtils_adjustWindForCurrent.
func AdjustWindForCurrent(wx *Weather, current geo.Vec) float64 {
	gustVec := geo.Vec{Angle: wx.Wind.Angle, Mag: wx.WindGust}

	wx.Wind = geo.AddVec(wx.Wind, current)

	gustVec = geo.AddVec(gustVec, current)
	wx.WindGust = gustVec.Mag

	return gustVec.Angle
}
