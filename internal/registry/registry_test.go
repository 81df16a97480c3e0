package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/sailnavsim/internal/boat"
	"github.com/banshee-data/sailnavsim/internal/windresponse"
)

func newTestBoat() *boat.Boat {
	return boat.New(10, 10, windresponse.SailNavSimClassic, 0)
}

func TestAddAndGet(t *testing.T) {
	r := New()
	b := newTestBoat()

	require.NoError(t, r.Add(b, "alpha", "", ""))

	got, ok := r.Get("alpha")
	require.True(t, ok)
	assert.Same(t, b, got)
}

func TestAddDuplicateNameFails(t *testing.T) {
	r := New()
	require.NoError(t, r.Add(newTestBoat(), "alpha", "", ""))
	assert.ErrorIs(t, r.Add(newTestBoat(), "alpha", "", ""), ErrExists)
}

func TestRemoveReturnsBoatAndDropsFromGroup(t *testing.T) {
	r := New()
	b := newTestBoat()
	require.NoError(t, r.Add(b, "alpha", "fleet", "A"))

	removed, ok := r.Remove("alpha")
	require.True(t, ok)
	assert.Same(t, b, removed)

	_, ok = r.Get("alpha")
	assert.False(t, ok)

	assert.Empty(t, r.GroupMembershipLines("fleet"))
}

func TestIterateIsInsertionOrder(t *testing.T) {
	r := New()
	require.NoError(t, r.Add(newTestBoat(), "a", "", ""))
	require.NoError(t, r.Add(newTestBoat(), "b", "", ""))
	require.NoError(t, r.Add(newTestBoat(), "c", "", ""))

	var names []string
	r.Iterate(func(e *Entry) bool {
		names = append(names, e.Name)
		return true
	})

	assert.Equal(t, []string{"a", "b", "c"}, names)
}

func TestIterateStopsEarly(t *testing.T) {
	r := New()
	require.NoError(t, r.Add(newTestBoat(), "a", "", ""))
	require.NoError(t, r.Add(newTestBoat(), "b", "", ""))

	var names []string
	r.Iterate(func(e *Entry) bool {
		names = append(names, e.Name)
		return false
	})

	assert.Equal(t, []string{"a"}, names)
}

func TestGroupMembershipLinesFormat(t *testing.T) {
	r := New()
	require.NoError(t, r.Add(newTestBoat(), "alpha", "fleet", "Alpha"))
	require.NoError(t, r.Add(newTestBoat(), "beta", "fleet", "Beta"))

	lines := r.GroupMembershipLines("fleet")
	assert.ElementsMatch(t, []string{"alpha,Alpha", "beta,Beta"}, lines)
}

func TestGroupMembershipLinesNoAltNameUsesBang(t *testing.T) {
	r := New()
	require.NoError(t, r.Add(newTestBoat(), "alpha", "fleet", ""))

	lines := r.GroupMembershipLines("fleet")
	assert.Equal(t, []string{"alpha,!"}, lines)
}

func TestGroupMembershipLinesUnknownGroup(t *testing.T) {
	r := New()
	assert.Nil(t, r.GroupMembershipLines("nope"))
}

func TestLen(t *testing.T) {
	r := New()
	assert.Equal(t, 0, r.Len())
	require.NoError(t, r.Add(newTestBoat(), "a", "", ""))
	assert.Equal(t, 1, r.Len())
}
