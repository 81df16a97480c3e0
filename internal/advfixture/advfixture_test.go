package advfixture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/sailnavsim/internal/advancedboats"
	"github.com/banshee-data/sailnavsim/internal/windresponse"
)

func TestUpdateRejectsBasicBoatTypes(t *testing.T) {
	m := New()
	_, err := m.Update(int(windresponse.SailNavSimClassic), advancedboats.UpdateInput{
		WindSpeed: 10, WindAngle: 45, SailArea: 50,
	})
	assert.ErrorIs(t, err, advancedboats.ErrUnsupported)
}

func TestUpdateAdvancedBoatReturnsBoundedHeel(t *testing.T) {
	m := New()
	out, err := m.Update(int(windresponse.IMOCA60), advancedboats.UpdateInput{
		WindSpeed: 40, WindAngle: 90, SailArea: 100,
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, out.Heel, 45.0)
	assert.Greater(t, out.Abeam, 0.0)
}

func TestUpdateZeroSailAreaYieldsNoForce(t *testing.T) {
	m := New()
	out, err := m.Update(int(windresponse.MaxiTrimaran), advancedboats.UpdateInput{
		WindSpeed: 20, WindAngle: 30, SailArea: 0,
	})
	require.NoError(t, err)
	assert.Equal(t, 0.0, out.Ahead)
	assert.Equal(t, 0.0, out.Abeam)
	assert.Equal(t, 0.0, out.Heel)
}
