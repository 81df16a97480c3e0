package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/sailnavsim/internal/boat"
	"github.com/banshee-data/sailnavsim/internal/celestial"
	"github.com/banshee-data/sailnavsim/internal/environment"
	"github.com/banshee-data/sailnavsim/internal/geo"
	"github.com/banshee-data/sailnavsim/internal/scheduler"
	"github.com/banshee-data/sailnavsim/internal/windresponse"
)

func readFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	return string(data), err
}

func splitCSVLine(data string) []string {
	return strings.Split(strings.TrimRight(data, "\n"), ",")
}

func testLogEntry(name string, oceanOK bool) scheduler.LogEntry {
	b := boat.New(45.0, -60.0, windresponse.SailNavSimClassic, boat.FlagTakesDamage)
	b.Stop = false
	b.V = geo.Vec{Angle: 90, Mag: 5}
	b.VGround = b.V

	e := scheduler.LogEntry{
		Time: time.Unix(1700000000, 0),
		Name: name,
		Boat: *b,
		Weather: environment.Weather{
			Wind:     geo.Vec{Angle: 270, Mag: 8.3},
			WindGust: 10.0,
			Temp:     15.0,
			Dewpoint: 10.0,
			Pressure: 1013.0,
			Cloud:    40.0,
			Visibility: 20000,
			Prate:    0,
			Cond:     1,
		},
		OceanOK: oceanOK,
	}
	if oceanOK {
		e.Ocean = environment.Ocean{
			Current:     geo.Vec{Angle: 45, Mag: 0.5},
			SurfaceTemp: 12.0,
			Salinity:    35.0,
			Ice:         0,
			Valid:       true,
		}
	}
	return e
}

func TestWriteCSVRowCreatesFileWithExpectedFieldCount(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(Config{CSVDir: dir})

	e := testLogEntry("alice", true)
	require.NoError(t, w.writeCSVRow(e))
	w.closeCSVFiles()

	data, err := readFile(filepath.Join(dir, "alice.csv"))
	require.NoError(t, err)

	fields := splitCSVLine(data)
	assert.Len(t, fields, 29)
}

func TestWriteCSVRowEmptyOceanFieldsWhenInvalid(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(Config{CSVDir: dir})

	e := testLogEntry("bob", false)
	require.NoError(t, w.writeCSVRow(e))
	w.closeCSVFiles()

	data, err := readFile(filepath.Join(dir, "bob.csv"))
	require.NoError(t, err)

	fields := splitCSVLine(data)
	// currentDir, currentSpd, waterTemp are fields 10, 11, 12 (1-indexed)
	assert.Equal(t, "", fields[9])
	assert.Equal(t, "", fields[10])
	assert.Equal(t, "", fields[11])
}

func TestFlushInsertsBoatLogAndCelestialSight(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	defer db.Close()

	w := NewWriter(Config{DB: db, CSVDir: t.TempDir()})

	batch := scheduler.Batch{
		Logs: []scheduler.LogEntry{testLogEntry("alice", true)},
		Sightings: []scheduler.CelestialSightEntry{
			{
				Time: time.Unix(1700000000, 0),
				Name: "alice",
				Sight: celestial.Sight{
					HasSight: true,
					Obj:      environment.ObjSun,
					Az:       120,
					Alt:      30,
				},
				ReportInvisible: false,
			},
		},
	}

	w.flush(batch)

	var logCount, sightCount int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM boat_log`).Scan(&logCount))
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM celestial_sight`).Scan(&sightCount))
	assert.Equal(t, 1, logCount)
	assert.Equal(t, 1, sightCount)
}

func TestEnqueueDropsWhenQueueFull(t *testing.T) {
	w := NewWriter(Config{})
	for i := 0; i < queueDepth+4; i++ {
		w.Enqueue(scheduler.Batch{})
	}
	assert.LessOrEqual(t, len(w.batches), queueDepth)
}

func TestBoatStateDerivation(t *testing.T) {
	b := boat.New(0, 0, windresponse.SailNavSimClassic, 0)
	b.Stop = true
	assert.Equal(t, 0, boatState(*b))

	b.Stop = false
	b.SailsDown = true
	assert.Equal(t, 2, boatState(*b))

	b.SailsDown = false
	assert.Equal(t, 1, boatState(*b))
}
