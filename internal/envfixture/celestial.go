package envfixture

import (
	"math"
	"time"

	"github.com/banshee-data/sailnavsim/internal/environment"
	"github.com/banshee-data/sailnavsim/internal/geo"
)

// Celestial is a low-precision stand-in for the external ephemeris service:
// a standard low-precision solar position formula (see Meeus, "Astronomical
// Algorithms", ch. 25, low-accuracy variant) for the Sun, and a small
// synthetic star catalog spread evenly in right ascension for
// nautical-twilight sights.
type Celestial struct{}

// NewCelestial constructs a fixture Celestial provider.
func NewCelestial() *Celestial { return &Celestial{} }

// JulianDay converts now to a Julian Day number.
func (Celestial) JulianDay(now time.Time) float64 {
	u := now.UTC()
	return float64(u.Unix())/86400.0 + 2440587.5
}

// Equatorial returns the Sun's low-precision apparent position for ObjSun,
// or a synthetic catalog star's fixed position otherwise.
func (Celestial) Equatorial(jd float64, obj environment.CelestialObject) (environment.EquatorialCoord, error) {
	if obj == environment.ObjSun {
		return sunEquatorial(jd), nil
	}
	return starEquatorial(obj), nil
}

// ToHorizontal converts an equatorial coordinate to local azimuth/altitude
// at pos and jd, optionally nudging altitude upward by a fixed refraction
// term near the horizon the way real atmospheric refraction does.
func (Celestial) ToHorizontal(jd float64, pos geo.Pos, ec environment.EquatorialCoord, applyRefraction bool, _, _ float64) (environment.HorizontalCoord, error) {
	lst := localSiderealTime(jd, pos.Lon)
	ha := deg2rad(lst*15.0 - ec.RA)

	latR := deg2rad(pos.Lat)
	decR := deg2rad(ec.Dec)

	sinAlt := math.Sin(latR)*math.Sin(decR) + math.Cos(latR)*math.Cos(decR)*math.Cos(ha)
	alt := rad2deg(math.Asin(clamp(sinAlt, -1, 1)))

	cosAz := (math.Sin(decR) - math.Sin(latR)*sinAlt) / (math.Cos(latR) * math.Cos(deg2rad(alt)))
	az := rad2deg(math.Acos(clamp(cosAz, -1, 1)))
	if math.Sin(ha) > 0 {
		az = 360.0 - az
	}

	if applyRefraction && alt > -1.0 {
		alt += 0.0167 / math.Tan(deg2rad(alt+7.31/(alt+4.4)))
	}

	return environment.HorizontalCoord{Az: geo.NormalizeAngle(az), Alt: alt}, nil
}

func sunEquatorial(jd float64) environment.EquatorialCoord {
	d := jd - 2451545.0
	meanLon := geo.NormalizeAngle(280.460 + 0.9856474*d)
	meanAnom := deg2rad(geo.NormalizeAngle(357.528 + 0.9856003*d))

	eclipticLon := meanLon + 1.915*math.Sin(meanAnom) + 0.020*math.Sin(2*meanAnom)
	obliquity := deg2rad(23.439 - 0.0000004*d)
	lonR := deg2rad(eclipticLon)

	ra := rad2deg(math.Atan2(math.Cos(obliquity)*math.Sin(lonR), math.Cos(lonR)))
	dec := rad2deg(math.Asin(math.Sin(obliquity) * math.Sin(lonR)))

	return environment.EquatorialCoord{RA: geo.NormalizeAngle(ra), Dec: dec}
}

// starEquatorial spreads the synthetic catalog evenly around the celestial
// equator with a small declination spread, enough variety for the
// nautical-twilight sampling loop to pick distinct bearings per attempt.
func starEquatorial(obj environment.CelestialObject) environment.EquatorialCoord {
	n := float64(environment.ObjPolaris)
	idx := float64(obj)
	ra := geo.NormalizeAngle(idx / n * 360.0)
	dec := 40.0 * math.Sin(idx/n*2*math.Pi)
	return environment.EquatorialCoord{RA: ra, Dec: dec}
}

func localSiderealTime(jd, lon float64) float64 {
	d := jd - 2451545.0
	gmst := geo.NormalizeAngle(280.46061837+360.98564736629*d) / 15.0
	return math.Mod(gmst+lon/15.0+24.0, 24.0)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func deg2rad(d float64) float64 { return d * math.Pi / 180.0 }
func rad2deg(r float64) float64 { return r * 180.0 / math.Pi }
