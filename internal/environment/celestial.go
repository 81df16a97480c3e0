package environment

import (
	"time"

	"github.com/banshee-data/sailnavsim/internal/geo"
)

// CelestialObject identifies the Sun or one of a fixed catalog of
// navigational stars. ObjSun is distinguished from the star range; stars are
// numbered 1..ObjPolaris inclusive, matching the historical catalog's
// convention that Polaris is itself a selectable sight target.
type CelestialObject int

const (
	ObjSun     CelestialObject = 0
	ObjPolaris CelestialObject = 57 // catalog size is a provider concern; this bounds random star selection
)

// EquatorialCoord is a right-ascension/declination pair for an instant in
// time (implicitly tied to the Julian Day it was computed for).
type EquatorialCoord struct {
	RA  float64
	Dec float64
}

// HorizontalCoord is a local azimuth/altitude pair, both in degrees.
type HorizontalCoord struct {
	Az  float64
	Alt float64
}

// CelestialProvider is the external ephemeris service the celestial sight
// simulation consumes. Out of scope for this repository per SPEC_FULL.md.
type CelestialProvider interface {
	JulianDay(now time.Time) float64
	Equatorial(jd float64, obj CelestialObject) (EquatorialCoord, error)
	ToHorizontal(jd float64, pos geo.Pos, ec EquatorialCoord, applyRefraction bool, pressure, temp float64) (HorizontalCoord, error)
}
