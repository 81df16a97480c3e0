// Package geo provides the position and vector primitives shared by the
// boat physics engine, the land-proximity sampler, and the request server.
package geo

import "math"

// metresPerDegree is the approximate great-circle distance covered by one
// degree of latitude, used to convert metre offsets into lat/lon deltas.
const metresPerDegree = 111120.0

// Pos is a geographic position. Lon is always normalized to [-180, 180).
type Pos struct {
	Lat float64
	Lon float64
}

// NewPos constructs a Pos, normalizing a longitude received as >= 180.
func NewPos(lat, lon float64) Pos {
	if lon >= 180.0 {
		lon -= 360.0
	}
	return Pos{Lat: lat, Lon: lon}
}

// Vec is a compass vector: Angle is a true bearing in [0, 360) unless the
// caller documents otherwise (e.g. a magnetic bearing prior to conversion).
// Mag may be transiently negative; Normalized() restores the invariant that
// externally observed vectors carry non-negative magnitude.
type Vec struct {
	Angle float64
	Mag   float64
}

// Normalized returns v with a non-negative magnitude, flipping Angle by
// 180 degrees if Mag was negative.
func (v Vec) Normalized() Vec {
	if v.Mag < 0 {
		v.Mag = -v.Mag
		v.Angle += 180.0
	}
	return Vec{Angle: NormalizeAngle(v.Angle), Mag: v.Mag}
}

// NormalizeAngle folds a bearing into [0, 360).
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a, 360.0)
	if a < 0 {
		a += 360.0
	}
	return a
}

// AddVec adds b into a by converting both to Cartesian components, summing,
// and converting back to angle/magnitude form.
func AddVec(a, b Vec) Vec {
	ar := deg2rad(a.Angle)
	br := deg2rad(b.Angle)

	x := a.Mag*math.Sin(ar) + b.Mag*math.Sin(br)
	y := a.Mag*math.Cos(ar) + b.Mag*math.Cos(br)

	mag := math.Hypot(x, y)
	if mag == 0 {
		return Vec{Angle: 0, Mag: 0}
	}

	angle := rad2deg(math.Atan2(x, y))
	return Vec{Angle: NormalizeAngle(angle), Mag: mag}
}

// CompassDiff returns the signed shortest angular distance from 'from' to
// 'to', in (-180, 180].
func CompassDiff(from, to float64) float64 {
	d := math.Mod(to-from, 360.0)
	if d > 180.0 {
		d -= 360.0
	} else if d <= -180.0 {
		d += 360.0
	}
	return d
}

// Advance moves pos by the ground vector v (metres per second, applied as a
// one-second step) using an equirectangular approximation.
func Advance(pos *Pos, v Vec) {
	if v.Mag == 0 {
		return
	}

	ar := deg2rad(v.Angle)
	cosLat := math.Cos(deg2rad(pos.Lat))

	pos.Lat += v.Mag * math.Cos(ar) / metresPerDegree

	if cosLat != 0 {
		pos.Lon += v.Mag * math.Sin(ar) / (metresPerDegree * cosLat)
	}

	if pos.Lat > 90.0 {
		pos.Lat = 90.0
	} else if pos.Lat < -90.0 {
		pos.Lat = -90.0
	}

	if pos.Lon >= 180.0 {
		pos.Lon -= 360.0
	} else if pos.Lon < -180.0 {
		pos.Lon += 360.0
	}
}

// OffsetMetres returns the position r metres from pos along a bearing of
// angleDeg degrees, following the same approximation GeoUtils' land-proximity
// sampler uses, including its pole/antimeridian collapse behavior.
//
// ok is false when the computed longitude wraps out of range near a pole; in
// that case isWaterHint reports the conventional result (true near the north
// pole, false near the south pole) that callers should use in place of an
// actual land/water lookup.
func OffsetMetres(pos Pos, r, angleDeg float64) (p Pos, ok bool, isWaterHint bool) {
	cosLat := math.Cos(deg2rad(pos.Lat))
	ar := deg2rad(angleDeg)

	p.Lat = pos.Lat + (r*math.Cos(ar))/metresPerDegree
	p.Lon = pos.Lon + (r*math.Sin(ar))/(metresPerDegree*cosLat)

	if p.Lat > 90.0 {
		p.Lat = 90.0
	} else if p.Lat < -90.0 {
		p.Lat = -90.0
	}

	lonModified := false
	if p.Lon >= 180.0 {
		p.Lon -= 360.0
		lonModified = true
	} else if p.Lon < -180.0 {
		p.Lon += 360.0
		lonModified = true
	}

	if lonModified && (p.Lon < -180.0 || p.Lon >= 180.0) {
		if p.Lat >= 0 {
			return p, false, true
		}
		return p, false, false
	}

	return p, true, false
}

func deg2rad(d float64) float64 { return d * math.Pi / 180.0 }
func rad2deg(r float64) float64 { return r * 180.0 / math.Pi }
