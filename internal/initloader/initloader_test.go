package initloader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/banshee-data/sailnavsim/internal/registry"
	"github.com/banshee-data/sailnavsim/internal/store"
)

type fakeSnapshotSource struct {
	rows []store.SnapshotRow
	err  error
}

func (f fakeSnapshotSource) LoadSnapshots() ([]store.SnapshotRow, error) {
	return f.rows, f.err
}

func TestFromStoreDerivesStopFromBoatState(t *testing.T) {
	reg := registry.New()
	src := fakeSnapshotSource{rows: []store.SnapshotRow{
		{Name: "stopped", Lat: 10, Lon: 10, BoatType: 0, BoatState: 0, LocState: 0},
		{Name: "sailing", Lat: 10, Lon: 10, BoatType: 0, BoatState: 1, LocState: 0},
		{Name: "sailsdown", Lat: 10, Lon: 10, BoatType: 0, BoatState: 2, LocState: 0},
		{Name: "stranded", Lat: 10, Lon: 10, BoatType: 0, BoatState: 1, LocState: 1},
	}}

	n, err := FromStore(reg, src)
	require.NoError(t, err)
	require.Equal(t, 4, n)

	b, ok := reg.Get("stopped")
	require.True(t, ok)
	require.True(t, b.Stop)

	b, ok = reg.Get("sailing")
	require.True(t, ok)
	require.False(t, b.Stop)
	require.False(t, b.SailsDown)

	b, ok = reg.Get("sailsdown")
	require.True(t, ok)
	require.False(t, b.Stop)
	require.True(t, b.SailsDown)

	b, ok = reg.Get("stranded")
	require.True(t, ok)
	require.False(t, b.Stop)
	require.True(t, b.MovingToSea)
}

func TestFromStoreSkipsDuplicateNames(t *testing.T) {
	reg := registry.New()
	src := fakeSnapshotSource{rows: []store.SnapshotRow{
		{Name: "dup", Lat: 1, Lon: 1},
		{Name: "dup", Lat: 2, Lon: 2},
	}}

	n, err := FromStore(reg, src)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestFromCSVHydratesBoats(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seed.csv")
	content := "alice,,,45.0,-60.0,90,4.5,90,1000,0,0,0,0,0,1,1,0\n" +
		"bob,fleet,Bobby,10,10,0,0,0,0,0,0,0,0,0,0,0,0\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	reg := registry.New()
	n, err := FromCSV(reg, path)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	alice, ok := reg.Get("alice")
	require.True(t, ok)
	require.False(t, alice.Stop)
	require.Equal(t, 90.0, alice.V.Angle)
	require.Equal(t, 4.5, alice.V.Mag)

	entry, ok := reg.GetEntry("bob")
	require.True(t, ok)
	require.Equal(t, "fleet", entry.Group)
	require.Equal(t, "Bobby", entry.AltName)
	require.True(t, entry.Boat.Stop)
}
