package boat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/sailnavsim/internal/advancedboats"
	"github.com/banshee-data/sailnavsim/internal/environment"
	"github.com/banshee-data/sailnavsim/internal/geo"
	"github.com/banshee-data/sailnavsim/internal/windresponse"
)

type fakeEnv struct {
	wind   geo.Vec
	gust   float64
	ocean  environment.Ocean
	wave   environment.Wave
	water  bool
	magdec float64
}

func (f fakeEnv) Weather(pos geo.Pos) environment.Weather {
	return environment.Weather{Wind: f.wind, WindGust: f.gust}
}
func (f fakeEnv) Ocean(pos geo.Pos) environment.Ocean { return f.ocean }
func (f fakeEnv) Wave(pos geo.Pos) environment.Wave   { return f.wave }
func (f fakeEnv) IsWater(pos geo.Pos) bool            { return f.water }
func (f fakeEnv) MagneticDeclination(pos geo.Pos, now time.Time) float64 { return f.magdec }

type fakeAdvModel struct {
	out advancedboats.UpdateOutput
	err error
}

func (m fakeAdvModel) Update(boatType int, in advancedboats.UpdateInput) (advancedboats.UpdateOutput, error) {
	return m.out, m.err
}

func TestNewBoatStartsStopped(t *testing.T) {
	b := New(45.0, 190.0, windresponse.SailNavSimClassic, 0)
	assert.True(t, b.Stop)
	assert.Equal(t, -170.0, b.Pos.Lon)
}

func TestAdvanceStoppedBoatDoesNothing(t *testing.T) {
	b := New(45.0, -60.0, windresponse.SailNavSimClassic, 0)
	env := fakeEnv{water: true}
	b.Advance(time.Now(), env, nil)
	assert.True(t, b.Stop)
	assert.Equal(t, 0.0, b.V.Mag)
}

func TestAdvanceNearPoleStops(t *testing.T) {
	b := New(89.9999, 0, windresponse.SailNavSimClassic, 0)
	b.Stop = false
	env := fakeEnv{water: true, wind: geo.Vec{Angle: 90, Mag: 10}}
	b.Advance(time.Now(), env, nil)
	assert.True(t, b.Stop)
}

func TestAdvanceSailingBasicBoatMovesForward(t *testing.T) {
	b := New(10.0, 10.0, windresponse.SailNavSimClassic, 0)
	b.Stop = false
	b.DesiredCourse = 90.0
	b.V.Angle = 90.0

	env := fakeEnv{water: true, wind: geo.Vec{Angle: 0, Mag: 15}}
	for i := 0; i < 5; i++ {
		b.Advance(time.Now(), env, nil)
	}

	assert.False(t, b.Stop)
	assert.Greater(t, b.V.Mag, 0.0)
	assert.Greater(t, b.DistanceTravelled, 0.0)
}

func TestAdvanceStopsWhenRunningAground(t *testing.T) {
	b := New(10.0, 10.0, windresponse.SailNavSimClassic, 0)
	b.Stop = false
	b.DesiredCourse = 90.0
	b.V = geo.Vec{Angle: 90, Mag: 5}

	env := fakeEnv{water: false, wind: geo.Vec{Angle: 0, Mag: 10}}
	b.Advance(time.Now(), env, nil)

	assert.True(t, b.Stop)
	assert.Equal(t, startingFromLandTicks, b.startingFromLandCount)
}

func TestMovingToSeaClearsFlagOnceOnWater(t *testing.T) {
	b := New(10.0, 10.0, windresponse.SailNavSimClassic, 0)
	b.Stop = false
	b.MovingToSea = true
	b.DesiredCourse = 90.0

	env := fakeEnv{water: true}
	b.Advance(time.Now(), env, nil)

	assert.False(t, b.MovingToSea)
}

func TestUpdateDamageRepairsBelowThreshold(t *testing.T) {
	b := New(10, 10, windresponse.SailNavSimClassic, FlagTakesDamage)
	b.Damage = 50.0
	env := fakeEnv{wind: geo.Vec{Angle: 0, Mag: 5}, gust: 2.0}
	b.updateDamage(env, time.Now(), 2.0, 0.0, true)
	assert.Less(t, b.Damage, 50.0)
}

func TestUpdateDamageNoFlagIsNoop(t *testing.T) {
	b := New(10, 10, windresponse.SailNavSimClassic, 0)
	b.Damage = 50.0
	env := fakeEnv{}
	b.updateDamage(env, time.Now(), 100.0, 0.0, true)
	assert.Equal(t, 50.0, b.Damage)
}

func TestUpdateDamageTakesDamageAboveThreshold(t *testing.T) {
	threshold := windresponse.DamageWindGustThreshold(windresponse.SailNavSimClassic)
	b := New(10, 10, windresponse.SailNavSimClassic, FlagTakesDamage)
	env := fakeEnv{}
	b.updateDamage(env, time.Now(), threshold+50.0, 0.0, true)
	assert.Greater(t, b.Damage, 0.0)
}

func TestAdvancedBoatUsesModel(t *testing.T) {
	b := New(10, 10, windresponse.MaxiTrimaran, 0)
	b.Stop = false
	b.SailArea = 50.0
	b.DesiredCourse = 90
	b.V.Angle = 90

	model := fakeAdvModel{out: advancedboats.UpdateOutput{Ahead: 8.0, Abeam: 1.0, Heel: 15.0}}
	env := fakeEnv{water: true, wind: geo.Vec{Angle: 0, Mag: 12}}

	b.Advance(time.Now(), env, model)

	require.False(t, b.Stop)
	assert.Greater(t, b.V.Mag, 0.0)
	assert.Equal(t, 15.0, b.HeelingAngle)
}

func TestAdvancedBoatModelErrorZeroesVelocity(t *testing.T) {
	b := New(10, 10, windresponse.MaxiTrimaran, 0)
	b.Stop = false
	b.SailArea = 50.0
	b.V.Mag = 5.0

	model := fakeAdvModel{err: assertError{}}
	env := fakeEnv{water: true, wind: geo.Vec{Angle: 0, Mag: 12}}

	b.Advance(time.Now(), env, model)

	assert.Equal(t, 0.0, b.V.Mag)
	assert.Equal(t, 0.0, b.LeewaySpeed)
}

type assertError struct{}

func (assertError) Error() string { return "model error" }

func TestWaveAdjustedCelestialAzAltNoFlagPassesThrough(t *testing.T) {
	b := New(10, 10, windresponse.SailNavSimClassic, 0)
	env := fakeEnv{wave: environment.Wave{Valid: true, WaveHeight: 2.0}}
	az, alt, ok := b.WaveAdjustedCelestialAzAlt(env, 90.0, 45.0)
	assert.True(t, ok)
	assert.Equal(t, 90.0, az)
	assert.Equal(t, 45.0, alt)
}

func TestWaveAdjustedCelestialAzAltCalmSeaNearlyUnchanged(t *testing.T) {
	b := New(10, 10, windresponse.SailNavSimClassic, FlagCelestialWaveEffect)
	env := fakeEnv{wave: environment.Wave{Valid: true, WaveHeight: 0.0}}
	_, alt, ok := b.WaveAdjustedCelestialAzAlt(env, 90.0, 45.0)
	assert.True(t, ok)
	assert.InDelta(t, 45.0, alt, 1e-9)
}
