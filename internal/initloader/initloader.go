// Package initloader hydrates a fresh registry.Registry from a persisted
// boat_snapshot table or, failing that, a CSV seed file, reconstructing each
// boat's stop/sailsDown/movingToSea state from its last-observed location
// rather than requiring those fields in the persisted row directly.
package initloader

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/banshee-data/sailnavsim/internal/boat"
	"github.com/banshee-data/sailnavsim/internal/registry"
	"github.com/banshee-data/sailnavsim/internal/store"
	"github.com/banshee-data/sailnavsim/internal/windresponse"
)

// SnapshotSource supplies persisted boat rows from the relational store.
type SnapshotSource interface {
	LoadSnapshots() ([]store.SnapshotRow, error)
}

// FromStore hydrates reg from every row in src, returning the number of
// boats added. A row whose name already exists in reg is skipped.
func FromStore(reg *registry.Registry, src SnapshotSource) (int, error) {
	rows, err := src.LoadSnapshots()
	if err != nil {
		return 0, fmt.Errorf("initloader: load snapshots: %w", err)
	}

	n := 0
	for _, r := range rows {
		b := hydrate(r.Lat, r.Lon, r.BoatType, r.Flags, r.CourseWater, r.SpeedWater,
			r.DesiredCourse, r.Distance, r.Damage, r.Leeway, r.Heel, r.SailArea,
			r.BoatState, r.LocState)

		if err := reg.Add(b, r.Name, r.Group, r.AltName); err != nil {
			if err == registry.ErrExists {
				continue
			}
			return n, fmt.Errorf("initloader: add %q: %w", r.Name, err)
		}
		n++
	}
	return n, nil
}

// csvColumns is the CSV seed file's column order: a cold-start alternative
// to a relational snapshot, matching the field list in store.SnapshotRow
// but as plain text for hand-authored or scripted seed data.
var csvColumns = []string{
	"name", "group", "altname", "lat", "lon", "course_water", "speed_water",
	"desired_course", "distance", "damage", "leeway", "heel", "sail_area",
	"boat_type", "flags", "boat_state", "loc_state",
}

// FromCSV hydrates reg from a headerless CSV seed file at path, in the
// column order documented by csvColumns.
func FromCSV(reg *registry.Registry, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("initloader: open seed file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(bufio.NewReader(f))
	r.FieldsPerRecord = len(csvColumns)

	n := 0
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return n, fmt.Errorf("initloader: parse seed file: %w", err)
		}

		name, group, altName := rec[0], rec[1], rec[2]

		lat, err1 := strconv.ParseFloat(rec[3], 64)
		lon, err2 := strconv.ParseFloat(rec[4], 64)
		courseWater, err3 := strconv.ParseFloat(rec[5], 64)
		speedWater, err4 := strconv.ParseFloat(rec[6], 64)
		desiredCourse, err5 := strconv.ParseFloat(rec[7], 64)
		distance, err6 := strconv.ParseFloat(rec[8], 64)
		damage, err7 := strconv.ParseFloat(rec[9], 64)
		leeway, err8 := strconv.ParseFloat(rec[10], 64)
		heel, err9 := strconv.ParseFloat(rec[11], 64)
		sailArea, err10 := strconv.ParseFloat(rec[12], 64)
		boatType, err11 := strconv.Atoi(rec[13])
		flags, err12 := strconv.ParseUint(rec[14], 10, 32)
		boatState, err13 := strconv.Atoi(rec[15])
		locState, err14 := strconv.Atoi(rec[16])

		if err := firstErr(err1, err2, err3, err4, err5, err6, err7, err8, err9, err10, err11, err12, err13, err14); err != nil {
			return n, fmt.Errorf("initloader: malformed seed row for %q: %w", name, err)
		}

		b := hydrate(lat, lon, boatType, uint32(flags), courseWater, speedWater,
			desiredCourse, distance, damage, leeway, heel, sailArea, boatState, locState)

		if err := reg.Add(b, name, group, altName); err != nil {
			if err == registry.ErrExists {
				continue
			}
			return n, fmt.Errorf("initloader: add %q: %w", name, err)
		}
		n++
	}

	return n, nil
}

// hydrate builds a Boat from persisted kinematics and derives its
// stop/sailsDown/movingToSea state from the last-observed boatState/locState
// pair: boatState 0 leaves the boat stopped; a started boat last seen on
// land resumes its interrupted land-escape as MovingToSea; any other started
// boat sails, with its sails down when boatState is 2 and its type is basic.
func hydrate(lat, lon float64, boatType int, flags uint32, courseWater, speedWater,
	desiredCourse, distance, damage, leeway, heel, sailArea float64,
	boatState, locState int) *boat.Boat {

	t := windresponse.Type(boatType)
	b := boat.New(lat, lon, t, boat.Flags(flags))

	b.V.Angle = courseWater
	b.V.Mag = speedWater
	b.VGround = b.V
	b.DesiredCourse = desiredCourse
	b.DistanceTravelled = distance
	b.Damage = damage
	b.LeewaySpeed = leeway
	b.HeelingAngle = heel
	b.SailArea = sailArea

	started := boatState != 0
	onLand := locState == 1

	switch {
	case !started:
		b.Stop = true
	case onLand:
		// Last observed mid-tick on land with the engine still running:
		// resume the land-escape probe instead of sailing through terrain.
		b.Stop = false
		b.MovingToSea = true
	default:
		b.Stop = false
		b.SailsDown = boatState == 2 && windresponse.IsBasic(t)
	}

	return b
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
