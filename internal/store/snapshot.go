package store

import (
	"database/sql"
	"fmt"

	"github.com/banshee-data/sailnavsim/internal/scheduler"
)

// SnapshotRow is one row of the boat_snapshot table: enough of a boat's
// state to reconstruct it on the next process start, per Boat_new's
// hydration contract (§4.9).
type SnapshotRow struct {
	Name          string
	Group         string
	AltName       string
	Lat, Lon      float64
	CourseWater   float64
	SpeedWater    float64
	DesiredCourse float64
	Distance      float64
	Damage        float64
	Leeway        float64
	Heel          float64
	SailArea      float64
	BoatType      int
	Flags         uint32
	BoatState     int
	LocState      int
	UpdatedUnix   int64
}

func locState(landed bool) int {
	if landed {
		return 1
	}
	return 0
}

func snapshotRowFromLogEntry(e scheduler.LogEntry) SnapshotRow {
	return SnapshotRow{
		Name:          e.Name,
		Group:         e.Group,
		AltName:       e.AltName,
		Lat:           e.Boat.Pos.Lat,
		Lon:           e.Boat.Pos.Lon,
		CourseWater:   e.Boat.V.Angle,
		SpeedWater:    e.Boat.V.Mag,
		DesiredCourse: e.Boat.DesiredCourse,
		Distance:      e.Boat.DistanceTravelled,
		Damage:        e.Boat.Damage,
		Leeway:        e.Boat.LeewaySpeed,
		Heel:          e.Boat.HeelingAngle,
		SailArea:      e.Boat.SailArea,
		BoatType:      int(e.Boat.Type),
		Flags:         uint32(e.Boat.Flags),
		BoatState:     boatState(e.Boat),
		LocState:      locState(e.Landed),
		UpdatedUnix:   e.Time.Unix(),
	}
}

// upsertSnapshots replaces the boat_snapshot row for every boat in entries,
// keeping the table live so a restart can resume from the last log tick
// instead of only a cold CSV seed.
func (w *Writer) upsertSnapshots(entries []scheduler.LogEntry) error {
	return busyRetryOnce(w.db.DB, w.busyWait, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`INSERT INTO boat_snapshot (
			name, group_name, alt_name, lat, lon, course_water, speed_water,
			desired_course, distance, damage, leeway, heel, sail_area,
			boat_type, flags, boat_state, loc_state, updated_unix
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(name) DO UPDATE SET
			group_name=excluded.group_name, alt_name=excluded.alt_name,
			lat=excluded.lat, lon=excluded.lon,
			course_water=excluded.course_water, speed_water=excluded.speed_water,
			desired_course=excluded.desired_course, distance=excluded.distance,
			damage=excluded.damage, leeway=excluded.leeway, heel=excluded.heel,
			sail_area=excluded.sail_area, boat_type=excluded.boat_type,
			flags=excluded.flags, boat_state=excluded.boat_state,
			loc_state=excluded.loc_state, updated_unix=excluded.updated_unix`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, e := range entries {
			r := snapshotRowFromLogEntry(e)
			if _, err := stmt.Exec(
				r.Name, r.Group, r.AltName, r.Lat, r.Lon, r.CourseWater, r.SpeedWater,
				r.DesiredCourse, r.Distance, r.Damage, r.Leeway, r.Heel, r.SailArea,
				r.BoatType, r.Flags, r.BoatState, r.LocState, r.UpdatedUnix,
			); err != nil {
				return fmt.Errorf("upsert boat_snapshot for %q: %w", e.Name, err)
			}
		}
		return nil
	})
}

// LoadSnapshots returns every persisted boat_snapshot row, for the init
// loader to hydrate the registry from on startup.
func (db *DB) LoadSnapshots() ([]SnapshotRow, error) {
	rows, err := db.Query(`SELECT
		name, group_name, alt_name, lat, lon, course_water, speed_water,
		desired_course, distance, damage, leeway, heel, sail_area,
		boat_type, flags, boat_state, loc_state, updated_unix
		FROM boat_snapshot`)
	if err != nil {
		return nil, fmt.Errorf("query boat_snapshot: %w", err)
	}
	defer rows.Close()

	var out []SnapshotRow
	for rows.Next() {
		var r SnapshotRow
		var flags int64
		if err := rows.Scan(
			&r.Name, &r.Group, &r.AltName, &r.Lat, &r.Lon, &r.CourseWater, &r.SpeedWater,
			&r.DesiredCourse, &r.Distance, &r.Damage, &r.Leeway, &r.Heel, &r.SailArea,
			&r.BoatType, &flags, &r.BoatState, &r.LocState, &r.UpdatedUnix,
		); err != nil {
			return nil, fmt.Errorf("scan boat_snapshot row: %w", err)
		}
		r.Flags = uint32(flags)
		out = append(out, r)
	}
	return out, rows.Err()
}
