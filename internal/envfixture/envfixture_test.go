package envfixture

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/sailnavsim/internal/environment"
	"github.com/banshee-data/sailnavsim/internal/geo"
)

func TestProviderOceanInvalidOverLand(t *testing.T) {
	p := New()

	var landPos geo.Pos
	found := false
	for lat := -89.0; lat <= 89.0; lat += 1.0 {
		pos := geo.NewPos(lat, 0)
		if !p.IsWater(pos) {
			landPos = pos
			found = true
			break
		}
	}
	require.True(t, found, "fixture land mask should mark at least one sampled point as land")

	ocean := p.Ocean(landPos)
	assert.False(t, ocean.Valid)

	wave := p.Wave(landPos)
	assert.False(t, wave.Valid)
}

func TestProviderWeatherNeverFails(t *testing.T) {
	p := New()
	wx := p.Weather(geo.NewPos(45, -60))
	assert.Greater(t, wx.Wind.Mag, 0.0)
	assert.GreaterOrEqual(t, wx.Wind.Angle, 0.0)
	assert.Less(t, wx.Wind.Angle, 360.0)
}

func TestCelestialJulianDayMonotonic(t *testing.T) {
	c := NewCelestial()
	t1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(24 * time.Hour)

	jd1 := c.JulianDay(t1)
	jd2 := c.JulianDay(t2)
	assert.InDelta(t, 1.0, jd2-jd1, 1e-9)
}

func TestCelestialSunRoughlyOverheadAtLocalNoon(t *testing.T) {
	c := NewCelestial()
	now := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC) // near equinox
	jd := c.JulianDay(now)

	eq, err := c.Equatorial(jd, environment.ObjSun)
	require.NoError(t, err)

	hc, err := c.ToHorizontal(jd, geo.NewPos(0, 0), eq, false, 1013, 15)
	require.NoError(t, err)

	assert.Greater(t, hc.Alt, 60.0)
}
