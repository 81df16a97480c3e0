// Package geoproximity samples concentric rings of points around a position
// to approximate whether land is visible nearby, without needing an exact
// coastline lookup at every radius.
package geoproximity

import (
	"github.com/banshee-data/sailnavsim/internal/geo"
)

const (
	startRadiusMetres = 30.0
	maxRadiusMetres   = 31000.0
	startPointCount   = 4
	maxPointCount     = 32
)

// IsWaterFunc classifies a single point as water (true) or land (false).
type IsWaterFunc func(pos geo.Pos) bool

// IsApproximatelyNearVisibleLand samples rings of points of doubling radius
// (30m up to 31000m) and doubling point count (4 up to 32) around pos, plus
// a final ring at the given visibility radius, and reports whether any
// sampled point lands on terrain. A point that wraps past a pole or the
// antimeridian in a way OffsetMetres cannot resolve is treated per its
// north/south hemisphere hint: northward wraps count as water, southward
// wraps count as land, matching the coastline-sampling convention that polar
// wrap usually means open ocean while an antimeridian/pole wrap near the
// south is more often a continental landmass.
func IsApproximatelyNearVisibleLand(pos geo.Pos, visibilityMetres float64, isWater IsWaterFunc) bool {
	if !isWater(pos) {
		return true
	}

	radius := startRadiusMetres
	points := startPointCount

	for radius <= visibilityMetres && radius <= maxRadiusMetres {
		if sampleRingHasLand(pos, radius, points, isWater) {
			return true
		}
		radius *= 2.0
		if points < maxPointCount {
			points *= 2
		}
	}

	if visibilityMetres > startRadiusMetres {
		return sampleRingHasLand(pos, visibilityMetres, maxPointCount, isWater)
	}

	return false
}

func sampleRingHasLand(pos geo.Pos, radius float64, points int, isWater IsWaterFunc) bool {
	step := 360.0 / float64(points)
	for i := 0; i < points; i++ {
		angle := float64(i) * step
		p, ok, isWaterHint := geo.OffsetMetres(pos, radius, angle)
		if !ok {
			if !isWaterHint {
				return true
			}
			continue
		}
		if !isWater(p) {
			return true
		}
	}
	return false
}
