package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPosNormalizesLongitude(t *testing.T) {
	p := NewPos(45.0, 200.0)
	assert.Equal(t, 45.0, p.Lat)
	assert.InDelta(t, -160.0, p.Lon, 1e-9)
}

func TestCompassDiff(t *testing.T) {
	cases := []struct {
		from, to, want float64
	}{
		{0, 90, 90},
		{90, 0, -90},
		{350, 10, 20},
		{10, 350, -20},
		{0, 180, 180},
	}
	for _, c := range cases {
		got := CompassDiff(c.from, c.to)
		assert.InDelta(t, c.want, got, 1e-9)
	}
}

func TestAddVecIdentityWithZero(t *testing.T) {
	v := Vec{Angle: 45, Mag: 5}
	sum := AddVec(v, Vec{Angle: 0, Mag: 0})
	assert.InDelta(t, v.Angle, sum.Angle, 1e-9)
	assert.InDelta(t, v.Mag, sum.Mag, 1e-9)
}

func TestAddVecAndSubtractReturnsOriginal(t *testing.T) {
	wind := Vec{Angle: 30, Mag: 10}
	current := Vec{Angle: 200, Mag: 3}

	adjusted := AddVec(wind, current)
	back := AddVec(adjusted, Vec{Angle: NormalizeAngle(current.Angle + 180), Mag: current.Mag})

	assert.InDelta(t, wind.Mag, back.Mag, 1e-6)
}

func TestNormalizedFlipsNegativeMagnitude(t *testing.T) {
	v := Vec{Angle: 10, Mag: -5}.Normalized()
	require.Greater(t, v.Mag, 0.0)
	assert.InDelta(t, 190.0, v.Angle, 1e-9)
}

func TestAdvanceMovesNorth(t *testing.T) {
	p := Pos{Lat: 0, Lon: 0}
	Advance(&p, Vec{Angle: 0, Mag: 111120})
	assert.InDelta(t, 1.0, p.Lat, 1e-6)
}

func TestOffsetMetresPoleCollapse(t *testing.T) {
	_, ok, isWater := OffsetMetres(Pos{Lat: 89.9999, Lon: 179.9999}, 30000, 90)
	if !ok {
		assert.True(t, isWater)
	}
}

func TestNormalizeAngleWraps(t *testing.T) {
	assert.InDelta(t, 10.0, NormalizeAngle(370.0), 1e-9)
	assert.InDelta(t, 350.0, NormalizeAngle(-10.0), 1e-9)
	assert.InDelta(t, 0.0, math.Mod(NormalizeAngle(360.0), 360.0), 1e-9)
}
