package store

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/banshee-data/sailnavsim/internal/boat"
	"github.com/banshee-data/sailnavsim/internal/scheduler"
)

// queueDepth bounds the number of undrained batches; the scheduler ticks
// once a second and a batch only arrives once a minute, so this is far
// more headroom than the writer should ever need.
const queueDepth = 16

// Writer drains scheduler.Batch values onto CSV files and a sqlite
// database. Enqueue never blocks the caller once the queue has room,
// matching "the tick loop never waits for I/O".
type Writer struct {
	db       *DB
	csvDir   string
	busyWait time.Duration
	logger   *log.Logger

	batches chan scheduler.Batch

	mu    sync.Mutex
	files map[string]*csvFile

	stopCh chan struct{}
	doneCh chan struct{}
}

// Config bundles Writer's dependencies.
type Config struct {
	DB       *DB
	CSVDir   string
	BusyWait time.Duration
	Logger   *log.Logger
}

// NewWriter constructs a Writer. BusyWait defaults to one second.
func NewWriter(cfg Config) *Writer {
	busyWait := cfg.BusyWait
	if busyWait <= 0 {
		busyWait = time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Writer{
		db:       cfg.DB,
		csvDir:   cfg.CSVDir,
		busyWait: busyWait,
		logger:   logger,
		batches:  make(chan scheduler.Batch, queueDepth),
		files:    make(map[string]*csvFile),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Enqueue implements scheduler.LogSink. A full queue drops the batch
// rather than block the tick loop, logging so the operator notices.
func (w *Writer) Enqueue(b scheduler.Batch) {
	select {
	case w.batches <- b:
	default:
		w.logger.Printf("store: writer queue full, dropping batch of %d log rows", len(b.Logs))
	}
}

// Run drains batches until ctx is cancelled, then drains whatever is
// already queued before returning.
func (w *Writer) Run(ctx context.Context) {
	defer close(w.doneCh)
	for {
		select {
		case b := <-w.batches:
			w.flush(b)
		case <-ctx.Done():
			w.drainRemaining()
			w.closeCSVFiles()
			return
		}
	}
}

func (w *Writer) drainRemaining() {
	for {
		select {
		case b := <-w.batches:
			w.flush(b)
		default:
			return
		}
	}
}

func (w *Writer) flush(b scheduler.Batch) {
	for _, e := range b.Logs {
		if err := w.writeCSVRow(e); err != nil {
			w.logger.Printf("store: csv write failed for %q: %v", e.Name, err)
		}
	}

	if w.db == nil {
		return
	}

	if len(b.Logs) > 0 {
		if err := w.insertBoatLogs(b.Logs); err != nil {
			w.logger.Printf("store: boat_log insert failed: %v", err)
		}
		if err := w.upsertSnapshots(b.Logs); err != nil {
			w.logger.Printf("store: boat_snapshot upsert failed: %v", err)
		}
	}
	if len(b.Sightings) > 0 {
		if err := w.insertCelestialSights(b.Sightings); err != nil {
			w.logger.Printf("store: celestial_sight insert failed: %v", err)
		}
	}
}

func (w *Writer) insertBoatLogs(entries []scheduler.LogEntry) error {
	return busyRetryOnce(w.db.DB, w.busyWait, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`INSERT INTO boat_log (
			time_unix, name, lat, lon, course_water, speed_water, track_ground,
			speed_ground, wind_dir, wind_spd, current_dir, current_spd, water_temp,
			air_temp, dewpoint, pressure, cloud, visibility, prate, cond,
			boat_state, loc_state, salinity, ice, distance, damage, wind_gust,
			wave_height, compass_mag_dec, report_invisible
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, e := range entries {
			r := rowFromLogEntry(e)
			reportInvisible := 0
			if r.reportInvisible {
				reportInvisible = 1
			}
			if _, err := stmt.Exec(
				r.timeUnix, r.name, r.lat, r.lon, r.courseWater, r.speedWater,
				r.trackGround, r.speedGround, r.windDir, r.windSpd,
				r.currentDir, r.currentSpd, r.waterTemp,
				r.airTemp, r.dewpoint, r.pressure, r.cloud, r.visibility, r.prate, r.cond,
				r.boatState, r.locState, r.salinity, r.ice, r.distance, r.damage,
				r.windGust, r.waveHeight, r.compassMagDec, reportInvisible,
			); err != nil {
				return fmt.Errorf("insert boat_log for %q: %w", e.Name, err)
			}
		}
		return nil
	})
}

func (w *Writer) insertCelestialSights(entries []scheduler.CelestialSightEntry) error {
	return busyRetryOnce(w.db.DB, w.busyWait, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`INSERT INTO celestial_sight (
			time_unix, name, has_sight, object, azimuth, altitude, report_invisible
		) VALUES (?,?,?,?,?,?,?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, e := range entries {
			hasSight := 0
			if e.Sight.HasSight {
				hasSight = 1
			}
			reportInvisible := 0
			if e.ReportInvisible {
				reportInvisible = 1
			}
			if _, err := stmt.Exec(
				e.Time.Unix(), e.Name, hasSight, int(e.Sight.Obj),
				e.Sight.Az, e.Sight.Alt, reportInvisible,
			); err != nil {
				return fmt.Errorf("insert celestial_sight for %q: %w", e.Name, err)
			}
		}
		return nil
	})
}

// boatState derives the 0/1/2 CSV/relational state code from flags the
// Boat type keeps unexported; LogEntry carries a snapshotted Boat value
// so the derivation lives here rather than requiring boat to export it.
func boatState(b boat.Boat) int {
	switch {
	case b.Stop:
		return 0
	case b.SailsDown:
		return 2
	default:
		return 1
	}
}
