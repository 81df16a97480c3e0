// Package boat implements the per-boat physics: course and velocity update,
// the basic/advanced speed models, ice and wave speed adjustment, hull
// damage accumulation, and land-proximity handling.
package boat

import (
	"math"
	"math/rand"
	"time"

	"github.com/banshee-data/sailnavsim/internal/advancedboats"
	"github.com/banshee-data/sailnavsim/internal/environment"
	"github.com/banshee-data/sailnavsim/internal/geo"
	"github.com/banshee-data/sailnavsim/internal/windresponse"
)

// Flags is a bitset of optional per-boat behaviors.
type Flags uint32

const (
	FlagTakesDamage         Flags = 0x01
	FlagWaveSpeedEffect     Flags = 0x02
	FlagCelestial           Flags = 0x04
	FlagCelestialWaveEffect Flags = 0x08
	FlagDamageApparentWind  Flags = 0x10
	FlagLiveSharingHidden   Flags = 0x20
)

const (
	forbiddenLat          = 0.0001
	moveToWaterDistance   = 100.0
	startingFromLandTicks = 10

	ktsInMps             = 1.943844
	damageDecreaseThresh = 25.0 / ktsInMps
	damageTakeFactor     = 0.25 * ktsInMps * ktsInMps / 3600.0
	damageRepairFactor   = 0.25 * ktsInMps / 3600.0
)

// Boat is one simulated sailing vessel.
type Boat struct {
	Pos geo.Pos

	V       geo.Vec // velocity over water, true bearing
	VGround geo.Vec // velocity over ground, true bearing

	DesiredCourse     float64
	DistanceTravelled float64
	Damage            float64

	Type  windresponse.Type
	Flags Flags

	startingFromLandCount int

	Stop        bool
	SailsDown   bool
	MovingToSea bool

	setImmediateDesiredCourse bool
	CourseMagnetic            bool

	SailArea     float64
	LeewaySpeed  float64
	HeelingAngle float64

	rng *rand.Rand
}

// New constructs a Boat at rest on the given position, matching Boat_new's
// zeroed/defaulted fields. Longitude is normalized into [-180, 180).
func New(lat, lon float64, boatType windresponse.Type, flags Flags) *Boat {
	b := &Boat{
		Pos:                       geo.NewPos(lat, lon),
		Type:                      boatType,
		Flags:                     flags,
		Stop:                      true,
		setImmediateDesiredCourse: true,
		CourseMagnetic:            flags&FlagCelestial != 0,
		rng:                       rand.New(rand.NewSource(time.Now().UnixNano() ^ int64(boatType))),
	}
	return b
}

// Advance steps the boat forward by one tick at curTime, using env for
// weather/ocean/wave/water lookups and adv for advanced-type hydrodynamics
// (adv may be nil when the boat's type is never advanced).
func (b *Boat) Advance(curTime time.Time, env environment.Provider, adv advancedboats.Model) {
	if b.Stop {
		if b.Damage > 0.0 {
			b.updateDamage(env, curTime, -1.0, 0.0, false)
		}
		return
	}

	if b.Pos.Lat >= 90.0-forbiddenLat || b.Pos.Lat <= -90.0+forbiddenLat {
		b.stopBoat()
		return
	}

	if b.MovingToSea {
		if env.IsWater(b.Pos) {
			b.MovingToSea = false
			if b.setImmediateDesiredCourse {
				b.V.Angle = b.desiredCourseTrue(env, curTime)
				b.setImmediateDesiredCourse = false
			}
		} else {
			if b.IsHeadingTowardWater(env, curTime) {
				b.V.Angle = b.desiredCourseTrue(env, curTime)
				b.V.Mag = 0.5
				b.LeewaySpeed = 0.0
				b.VGround = b.V
				geo.Advance(&b.Pos, b.VGround)
			} else {
				b.stopBoat()
			}
			return
		}
	}

	wx := env.Weather(b.Pos)
	ocean := env.Ocean(b.Pos)
	oceanValid := ocean.Valid

	if oceanValid {
		environment.AdjustWindForCurrent(&wx, ocean.Current)
	}

	wave := env.Wave(b.Pos)

	advancedType := windresponse.IsAdvanced(b.Type)

	if !advancedType && b.SailsDown {
		windVec := wx.Wind

		b.V.Angle = geo.NormalizeAngle(windVec.Angle + 180.0)

		// With sails down we take no additional damage, but can still repair.
		b.updateDamage(env, curTime, wx.WindGust, windVec.Angle, false)

		b.V.Mag = windVec.Mag * 0.1 *
			oceanIceSpeedAdjustmentFactor(oceanValid, ocean) *
			b.waveSpeedAdjustmentFactor(wave)
	} else {
		takeDamage := !advancedType || b.SailArea > 0.0
		b.updateDamage(env, curTime, wx.WindGust, wx.Wind.Angle, takeDamage)

		b.updateCourse(env, curTime)
		b.updateVelocity(wx, oceanValid, ocean, wave, adv)
	}

	b.VGround = b.V

	if oceanValid {
		current := ocean.Current
		if b.startingFromLandCount > 0 {
			factor := float64(startingFromLandTicks-b.startingFromLandCount) / float64(startingFromLandTicks)
			current.Mag *= factor
		}
		b.VGround = geo.AddVec(b.VGround, current)
	}

	if b.LeewaySpeed != 0.0 {
		leeway := geo.Vec{Angle: geo.NormalizeAngle(b.V.Angle + 90.0), Mag: b.LeewaySpeed}
		b.VGround = geo.AddVec(b.VGround, leeway)
	}

	b.VGround = b.VGround.Normalized()

	if b.startingFromLandCount > 0 {
		b.startingFromLandCount--
	}

	geo.Advance(&b.Pos, b.VGround)
	b.DistanceTravelled += b.VGround.Mag

	if !env.IsWater(b.Pos) {
		b.stopBoat()
		b.startingFromLandCount = startingFromLandTicks
	}
}

// IsHeadingTowardWater samples points along the desired course looking for
// water within moveToWaterDistance+10 metres. Used both by the land-escape
// branch of Advance and by the scheduler's "start" command handling, which
// must not clear a stopped/landed boat's stop flag unless the commanded
// course actually leads back to water.
func (b *Boat) IsHeadingTowardWater(env environment.Provider, curTime time.Time) bool {
	pos := b.Pos
	v := geo.Vec{Angle: b.desiredCourseTrue(env, curTime), Mag: 10.0}

	for d := 0.0; d <= moveToWaterDistance+10; d += 10.0 {
		if env.IsWater(pos) {
			return true
		}
		geo.Advance(&pos, v)
	}

	return false
}

// WaveAdjustedCelestialAzAlt perturbs a raw az/alt sight by sea state, when
// the boat carries the celestial-wave-effect flag. ok is false when the
// adjusted altitude falls below the horizon.
func (b *Boat) WaveAdjustedCelestialAzAlt(env environment.Provider, az, alt float64) (newAz, newAlt float64, ok bool) {
	if b.Flags&FlagCelestialWaveEffect == 0 {
		return az, alt, true
	}

	wave := env.Wave(b.Pos)
	if !wave.Valid {
		return az, alt, true
	}

	wer := windresponse.WaveEffectResistance(b.Type)

	newAlt = alt + (1.666667 * b.randDouble(wave.WaveHeight) * b.randDouble(wave.WaveHeight) / wer)
	if newAlt > 90.0 {
		newAlt = 90.0 - (newAlt - 90.0)
	}
	if newAlt < 0.0 {
		return 0, 0, false
	}

	newAz = geo.NormalizeAngle(az + (100.0 * b.randDouble(wave.WaveHeight) * b.randDouble(wave.WaveHeight) / wer))

	return newAz, newAlt, true
}

func (b *Boat) updateCourse(env environment.Provider, curTime time.Time) {
	desired := b.desiredCourseTrue(env, curTime)
	courseDiff := geo.CompassDiff(b.V.Angle, desired)
	rate := windresponse.CourseChangeRate(b.Type)

	if math.Abs(courseDiff) <= rate {
		b.V.Angle = desired
		return
	}

	if courseDiff < 0.0 && courseDiff >= -179.0 {
		b.V.Angle -= rate
	} else if courseDiff > 0.0 && courseDiff <= 179.0 {
		b.V.Angle += rate
	} else {
		if b.rng.Intn(2) == 0 {
			b.V.Angle -= rate
		} else {
			b.V.Angle += rate
		}
	}

	b.V.Angle = geo.NormalizeAngle(b.V.Angle)
}

func (b *Boat) updateVelocity(wx environment.Weather, odv bool, ocean environment.Ocean, wave environment.Wave, adv advancedboats.Model) {
	windVec := wx.Wind
	angleFromWind := geo.CompassDiff(windVec.Angle, b.V.Angle)

	saf := oceanIceSpeedAdjustmentFactor(odv, ocean) * b.waveSpeedAdjustmentFactor(wave)

	if windresponse.IsAdvanced(b.Type) {
		if b.SailArea > 0.0 {
			saf *= b.damageSpeedAdjustmentFactor()
		}

		safModified := saf
		if safModified < 0.01 {
			safModified = 0.01
		}

		in := advancedboats.UpdateInput{
			WindAngle:      -angleFromWind,
			WindSpeed:      windVec.Mag,
			BoatSpeedAhead: b.V.Mag / safModified,
			BoatSpeedAbeam: b.LeewaySpeed / safModified,
			SailArea:       b.SailArea,
		}

		out, err := adv.Update(windresponse.AdjustForAdvanced(b.Type), in)
		if err != nil {
			b.V.Mag = 0.0
			b.LeewaySpeed = 0.0
			b.HeelingAngle = 0.0
			return
		}

		b.V.Mag = out.Ahead * safModified
		b.LeewaySpeed = out.Abeam * safModified
		b.HeelingAngle = out.Heel
		return
	}

	spd := windresponse.BoatSpeed(windVec.Mag, angleFromWind, b.Type) * saf * b.damageSpeedAdjustmentFactor()
	response := windresponse.SpeedChangeResponse(b.Type)

	b.V.Mag = ((response * b.V.Mag) + spd) / (response + 1.0)
}

func (b *Boat) updateDamage(env environment.Provider, curTime time.Time, windGust, windAngle float64, takeDamage bool) {
	if b.Flags&FlagTakesDamage == 0 {
		return
	}

	if windGust < 0.0 {
		wx := env.Weather(b.Pos)
		windGust = wx.WindGust
		windAngle = wx.Wind.Angle
	}

	if b.Flags&FlagDamageApparentWind != 0 {
		appWindGust := geo.AddVec(geo.Vec{Angle: windAngle, Mag: windGust}, b.V)

		if b.LeewaySpeed != 0.0 {
			leeway := geo.Vec{Angle: geo.NormalizeAngle(b.V.Angle + 90.0), Mag: b.LeewaySpeed}
			appWindGust = geo.AddVec(appWindGust, leeway)
		}

		windGust = appWindGust.Mag
	}

	takeThreshold := windresponse.DamageWindGustThreshold(b.Type)

	switch {
	case windGust < damageDecreaseThresh:
		if b.Damage > 0.0 {
			b.Damage -= (damageDecreaseThresh - windGust) * damageRepairFactor
			if b.Damage < 0.0 {
				b.Damage = 0.0
			}
		}
	case windGust > takeThreshold && takeDamage && b.Damage < 100.0:
		diff := windGust - takeThreshold
		b.Damage += (100.0 - b.Damage) * (diff * diff * damageTakeFactor * 0.01)
		if b.Damage > 100.0 {
			b.Damage = 100.0
		}
	}
}

func (b *Boat) stopBoat() {
	b.Stop = true
	b.V.Mag = 0.0
	b.LeewaySpeed = 0.0
	b.HeelingAngle = 0.0
	b.VGround = b.V
}

func (b *Boat) desiredCourseTrue(env environment.Provider, curTime time.Time) float64 {
	if b.CourseMagnetic {
		magdec := env.MagneticDeclination(b.Pos, curTime)
		t := b.DesiredCourse + magdec
		return geo.NormalizeAngle(t)
	}
	return b.DesiredCourse
}

func (b *Boat) damageSpeedAdjustmentFactor() float64 {
	if b.Flags&FlagTakesDamage != 0 {
		return 1.0 - b.Damage*0.01
	}
	return 1.0
}

func (b *Boat) waveSpeedAdjustmentFactor(wave environment.Wave) float64 {
	if b.Flags&FlagWaveSpeedEffect != 0 && wave.Valid {
		wer := windresponse.WaveEffectResistance(b.Type)
		return 1.0 / math.Exp(wave.WaveHeight*wave.WaveHeight/wer)
	}
	return 1.0
}

func oceanIceSpeedAdjustmentFactor(valid bool, ocean environment.Ocean) float64 {
	if valid {
		return 1.0 - ocean.Ice/100.0
	}
	return 1.0
}

func (b *Boat) randDouble(scale float64) float64 {
	return (float64(b.rng.Intn(257)-128) / 128.0) * scale
}
