// Package windresponse holds the per-boat-type polar response tables and
// the bilinear interpolation that turns a (wind speed, angle-off-bow) pair
// into a boat's speed through water, plus each type's course-change rate,
// speed-change inertia, wave-effect resistance and damage gust threshold.
// The speed axis is interpolated by hand (the breakpoints are irregular);
// the angle axis, which is evenly spaced, is fit with gonum's
// interp.PiecewiseLinear.
package windresponse

import (
	"math"

	"gonum.org/v1/gonum/interp"
)

const (
	angleBucketDeg = 10.0
	numAngleRows   = 19 // 0..180 deg in 10 deg steps
	numSpeedCols   = 7  // breakpoints: 1,2,4,8,12,16,24 m/s
)

var speedBreakpoints = []float64{1, 2, 4, 8, 12, 16, 24}

// BoatSpeed returns the boat's speed through water given a true wind speed
// (m/s), the angle between true wind direction and boat heading (deg, any
// range), and boat type. Unknown types return 0.
func BoatSpeed(windSpd, angleFromWind float64, t Type) float64 {
	table, ok := responseTables[t]
	if !ok {
		return 0.0
	}

	for angleFromWind > 180.0 {
		angleFromWind -= 180.0
	}

	angle := math.Abs(angleFromWind)
	iAngle := int(angle / angleBucketDeg)
	// The row above iAngle is read below (base+numSpeedCols), so iAngle must
	// leave room for it; clamping to numAngleRows-1 here would read past the
	// table's last row.
	if iAngle > numAngleRows-2 {
		iAngle = numAngleRows - 2
	}

	iSpd, spdFrac := speedBucket(windSpd)

	base := iAngle*numSpeedCols + iSpd

	r0 := table[base]*(1.0-spdFrac) + table[base+1]*spdFrac
	r1 := table[base+numSpeedCols]*(1.0-spdFrac) + table[base+numSpeedCols+1]*spdFrac

	lowAngle := float64(iAngle) * angleBucketDeg
	highAngle := lowAngle + angleBucketDeg
	clamped := angle
	if clamped < lowAngle {
		clamped = lowAngle
	} else if clamped > highAngle {
		clamped = highAngle
	}

	var pl interp.PiecewiseLinear
	if err := pl.Fit([]float64{lowAngle, highAngle}, []float64{r0, r1}); err != nil {
		return windSpd * r0
	}

	return windSpd * pl.Predict(clamped)
}

// speedBucket classifies windSpd into one of the seven breakpoint segments
// and returns the lower bucket index plus the linear fraction into it.
func speedBucket(windSpd float64) (int, float64) {
	iWindSpd := int(windSpd)

	switch {
	case iWindSpd >= 24:
		return 6, 0
	case iWindSpd >= 16:
		return 5, (windSpd - 16.0) / 8.0
	case iWindSpd >= 12:
		return 4, (windSpd - 12.0) / 4.0
	case iWindSpd >= 8:
		return 3, (windSpd - 8.0) / 4.0
	case iWindSpd >= 4:
		return 2, (windSpd - 4.0) / 4.0
	case iWindSpd >= 2:
		return 1, (windSpd - 2.0) / 2.0
	case iWindSpd >= 1:
		return 0, windSpd - 1.0
	default:
		return 0, 0
	}
}

// CourseChangeRate returns the per-tick turn rate (deg/s). Unknown types
// get zero rate (never turn).
func CourseChangeRate(t Type) float64 {
	if v, ok := courseChangeRates[t]; ok {
		return v
	}
	return 0.0
}

// SpeedChangeResponse returns the first-order-lag "inertia" constant used in
// the speed update. Unknown types get effectively infinite inertia (speed
// never changes).
func SpeedChangeResponse(t Type) float64 {
	if v, ok := boatInertias[t]; ok {
		return v
	}
	return 1.0e30
}

// WaveEffectResistance returns the denominator used to damp speed and
// celestial sight geometry by wave height. Unknown types get a very low
// resistance (waves dominate).
func WaveEffectResistance(t Type) float64 {
	if v, ok := waveEffectResistances[t]; ok {
		return v
	}
	return 0.001
}

// DamageWindGustThreshold returns the gust magnitude (m/s) above which the
// boat starts taking damage. Unknown types never take damage in practice
// since this threshold is effectively unreachable.
func DamageWindGustThreshold(t Type) float64 {
	if v, ok := damageWindGustThresholds[t]; ok {
		return v
	}
	return math.Inf(1)
}
