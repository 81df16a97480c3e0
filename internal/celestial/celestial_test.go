package celestial

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/sailnavsim/internal/environment"
	"github.com/banshee-data/sailnavsim/internal/geo"
)

type fakeProvider struct {
	sunAlt float64
}

func (f fakeProvider) JulianDay(now time.Time) float64 { return 2460000.5 }

func (f fakeProvider) Equatorial(jd float64, obj environment.CelestialObject) (environment.EquatorialCoord, error) {
	return environment.EquatorialCoord{RA: 10, Dec: 20}, nil
}

func (f fakeProvider) ToHorizontal(jd float64, pos geo.Pos, ec environment.EquatorialCoord, applyRefraction bool, pressure, temp float64) (environment.HorizontalCoord, error) {
	return environment.HorizontalCoord{Az: 123, Alt: f.sunAlt}, nil
}

type erroringProvider struct{}

func (erroringProvider) JulianDay(now time.Time) float64 { return 2460000.5 }
func (erroringProvider) Equatorial(jd float64, obj environment.CelestialObject) (environment.EquatorialCoord, error) {
	return environment.EquatorialCoord{}, errors.New("no ephemeris")
}
func (erroringProvider) ToHorizontal(jd float64, pos geo.Pos, ec environment.EquatorialCoord, applyRefraction bool, pressure, temp float64) (environment.HorizontalCoord, error) {
	return environment.HorizontalCoord{}, errors.New("no ephemeris")
}

func TestShootSunAboveHorizon(t *testing.T) {
	s := NewShooter()
	sight := s.Shoot(fakeProvider{sunAlt: 30}, time.Now(), geo.Pos{Lat: 10, Lon: 20}, 0, 1013, 20)
	assert.True(t, sight.HasSight)
	assert.Equal(t, environment.ObjSun, sight.Obj)
}

func TestShootFullyClouded(t *testing.T) {
	s := NewShooter()
	sight := s.Shoot(fakeProvider{sunAlt: 30}, time.Now(), geo.Pos{Lat: 10, Lon: 20}, 100, 1013, 20)
	assert.False(t, sight.HasSight)
}

func TestShootTooDarkForStars(t *testing.T) {
	s := NewShooter()
	sight := s.Shoot(fakeProvider{sunAlt: -20}, time.Now(), geo.Pos{Lat: 10, Lon: 20}, 0, 1013, 20)
	assert.False(t, sight.HasSight)
}

func TestShootProviderErrorYieldsNoSight(t *testing.T) {
	s := NewShooter()
	sight := s.Shoot(erroringProvider{}, time.Now(), geo.Pos{Lat: 10, Lon: 20}, 0, 1013, 20)
	assert.False(t, sight.HasSight)
}

func TestAdjustForWavesCalmSeaLeavesAltitudeNearUnchanged(t *testing.T) {
	s := NewShooter()
	_, alt, ok := s.AdjustForWaves(90, 45, 0, 0.001)
	require.True(t, ok)
	assert.InDelta(t, 45, alt, 1e-9)
}

func TestAdjustForWavesNeverReturnsAltitudeBelowHorizon(t *testing.T) {
	s := NewShooter()
	for i := 0; i < 50; i++ {
		az, alt, ok := s.AdjustForWaves(10, 0.001, 5, 0.0001)
		if !ok {
			continue
		}
		assert.GreaterOrEqual(t, alt, 0.0)
		assert.GreaterOrEqual(t, az, 0.0)
		assert.Less(t, az, 360.0)
	}
}
