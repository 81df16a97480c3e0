// Package celestial implements the stochastic sun/star sight shot used for
// boats carrying the CELESTIAL flag, including the cloud-obscuration roll
// and the wave-induced altitude/azimuth perturbation.
package celestial

import (
	"math"
	"math/rand"
	"time"

	"github.com/banshee-data/sailnavsim/internal/environment"
	"github.com/banshee-data/sailnavsim/internal/geo"
)

// Sight is the outcome of one shot attempt. HasSight is false when clouds,
// darkness, or (after a wave perturbation) a below-horizon result prevented
// a usable sight.
type Sight struct {
	HasSight bool
	Obj      environment.CelestialObject
	Az       float64
	Alt      float64
}

const maxStarAttempts = 20

// Shooter owns a private PRNG, matching the simulator's convention of one
// seeded random source per subsystem rather than shared process-wide state.
type Shooter struct {
	rng *rand.Rand
}

// NewShooter constructs a Shooter seeded from the current time.
func NewShooter() *Shooter {
	return &Shooter{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// Shoot attempts a sight at the given instant and position. cloudPercent is
// the local cloud cover [0,100]; airPressure/airTemp feed atmospheric
// refraction in the horizontal-coordinate conversion.
func (s *Shooter) Shoot(provider environment.CelestialProvider, now time.Time, pos geo.Pos, cloudPercent, airPressure, airTemp float64) Sight {
	if s.isObscuredByCloud(cloudPercent) {
		return Sight{}
	}

	jd := provider.JulianDay(now)

	sunEq, err := provider.Equatorial(jd, environment.ObjSun)
	if err != nil {
		return Sight{}
	}

	hc, err := provider.ToHorizontal(jd, pos, sunEq, true, airPressure, airTemp)
	if err != nil {
		return Sight{}
	}

	if hc.Alt > 0.0 {
		return Sight{HasSight: true, Obj: environment.ObjSun, Az: hc.Az, Alt: hc.Alt}
	}
	if hc.Alt < -12.0 {
		// Too dark to see a horizon.
		return Sight{}
	}
	if hc.Alt > -6.0 {
		// Still too bright for stars.
		return Sight{}
	}

	// Nautical twilight: shoot a random star.
	for attempt := 0; attempt < maxStarAttempts; attempt++ {
		star := environment.CelestialObject(s.rng.Intn(int(environment.ObjPolaris)) + 1)

		starEq, err := provider.Equatorial(jd, star)
		if err != nil {
			return Sight{}
		}

		hc, err := provider.ToHorizontal(jd, pos, starEq, true, airPressure, airTemp)
		if err != nil {
			return Sight{}
		}

		if hc.Alt < 0.0 {
			continue
		}

		return Sight{HasSight: true, Obj: star, Az: hc.Az, Alt: hc.Alt}
	}

	return Sight{}
}

func (s *Shooter) isObscuredByCloud(cloudPercent float64) bool {
	adjusted := int(math.Sqrt(cloudPercent * 100.0))
	return s.rng.Intn(100)+1 <= adjusted
}

// AdjustForWaves perturbs az/alt by pseudo-random multiples of
// waveHeight^2/waveEffectResistance, matching Boat_getWaveAdjustedCelestialAzAlt.
// ok is false when the perturbed altitude falls below the horizon, meaning
// the sight should be dropped.
func (s *Shooter) AdjustForWaves(az, alt, waveHeight, waveEffectResistance float64) (newAz, newAlt float64, ok bool) {
	r1 := s.randScaled(waveHeight)
	r2 := s.randScaled(waveHeight)

	newAlt = alt + (1.666667 * r1 * r2 / waveEffectResistance)
	if newAlt > 90.0 {
		newAlt = 90.0 - (newAlt - 90.0)
	}
	if newAlt < 0.0 {
		return 0, 0, false
	}

	r3 := s.randScaled(waveHeight)
	r4 := s.randScaled(waveHeight)

	newAz = geo.NormalizeAngle(az + (100.0 * r3 * r4 / waveEffectResistance))

	return newAz, newAlt, true
}

// randScaled mirrors getRandDouble: a uniform value in [-1, 1] times scale.
func (s *Shooter) randScaled(scale float64) float64 {
	return (float64(s.rng.Intn(257)-128) / 128.0) * scale
}
