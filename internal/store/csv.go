package store

import (
	"bufio"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/banshee-data/sailnavsim/internal/scheduler"
	"github.com/banshee-data/sailnavsim/internal/security"
)

// csvFile is one boat's append-only log file, kept open across flushes.
type csvFile struct {
	f *os.File
	w *bufio.Writer
}

// row is the 29-field CSV/relational record shared by both sinks; the
// Null* fields are empty in the CSV and NULL in sqlite whenever the ocean
// sample was invalid, per the "current/temp/salinity/ice fields are
// empty" rule.
type row struct {
	timeUnix int64
	name     string

	lat, lon                 float64
	courseWater, speedWater  float64
	trackGround, speedGround float64
	windDir, windSpd         float64

	currentDir, currentSpd sql.NullFloat64
	waterTemp              sql.NullFloat64

	airTemp, dewpoint, pressure float64
	cloud, visibility, prate    float64
	cond                        int

	boatState, locState int

	salinity, ice sql.NullFloat64

	distance, damage       float64
	windGust, waveHeight   float64
	compassMagDec          float64
	reportInvisible        bool
}

func rowFromLogEntry(e scheduler.LogEntry) row {
	r := row{
		timeUnix:      e.Time.Unix(),
		name:          e.Name,
		lat:           e.Boat.Pos.Lat,
		lon:           e.Boat.Pos.Lon,
		courseWater:   e.Boat.V.Angle,
		speedWater:    e.Boat.V.Mag,
		trackGround:   e.Boat.VGround.Angle,
		speedGround:   e.Boat.VGround.Mag,
		windDir:       e.Weather.Wind.Angle,
		windSpd:       e.Weather.Wind.Mag,
		airTemp:       e.Weather.Temp,
		dewpoint:      e.Weather.Dewpoint,
		pressure:      e.Weather.Pressure,
		cloud:         e.Weather.Cloud,
		visibility:    e.Weather.Visibility,
		prate:         e.Weather.Prate,
		cond:          e.Weather.Cond,
		boatState:     boatState(e.Boat),
		distance:      e.Boat.DistanceTravelled,
		damage:        e.Boat.Damage,
		windGust:        e.Weather.WindGust,
		waveHeight:      e.WaveHeight,
		compassMagDec:   e.MagDec,
		reportInvisible: e.ReportInvisible,
	}

	if e.Landed {
		r.locState = 1
	}

	if e.OceanOK {
		r.currentDir = sql.NullFloat64{Float64: e.Ocean.Current.Angle, Valid: true}
		r.currentSpd = sql.NullFloat64{Float64: e.Ocean.Current.Mag, Valid: true}
		r.waterTemp = sql.NullFloat64{Float64: e.Ocean.SurfaceTemp, Valid: true}
		r.salinity = sql.NullFloat64{Float64: e.Ocean.Salinity, Valid: true}
		r.ice = sql.NullFloat64{Float64: e.Ocean.Ice, Valid: true}
	}

	return r
}

// writeCSVRow appends one line to the boat's CSV file, opening it on
// first use and keeping it open across subsequent flushes.
func (w *Writer) writeCSVRow(e scheduler.LogEntry) error {
	if w.csvDir == "" {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	cf, ok := w.files[e.Name]
	if !ok {
		path := filepath.Join(w.csvDir, e.Name+".csv")
		if err := security.ValidatePathWithinDirectory(path, w.csvDir); err != nil {
			return fmt.Errorf("csv path for %q: %w", e.Name, err)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open csv for %q: %w", e.Name, err)
		}
		cf = &csvFile{f: f, w: bufio.NewWriter(f)}
		w.files[e.Name] = cf
	}

	r := rowFromLogEntry(e)
	if _, err := cf.w.WriteString(formatCSVRow(r)); err != nil {
		return err
	}
	return cf.w.Flush()
}

func (w *Writer) closeCSVFiles() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for name, cf := range w.files {
		cf.w.Flush()
		cf.f.Close()
		delete(w.files, name)
	}
}

func formatCSVRow(r row) string {
	fields := []string{
		strconv.FormatInt(r.timeUnix, 10),
		formatFloat(r.lat),
		formatFloat(r.lon),
		formatFloat(r.courseWater),
		formatFloat(r.speedWater),
		formatFloat(r.trackGround),
		formatFloat(r.speedGround),
		formatFloat(r.windDir),
		formatFloat(r.windSpd),
		formatNullFloat(r.currentDir),
		formatNullFloat(r.currentSpd),
		formatNullFloat(r.waterTemp),
		formatFloat(r.airTemp),
		formatFloat(r.dewpoint),
		formatFloat(r.pressure),
		formatFloat(r.cloud),
		formatFloat(r.visibility),
		formatFloat(r.prate),
		strconv.Itoa(r.cond),
		strconv.Itoa(r.boatState),
		strconv.Itoa(r.locState),
		formatNullFloat(r.salinity),
		formatNullFloat(r.ice),
		formatFloat(r.distance),
		formatFloat(r.damage),
		formatFloat(r.windGust),
		formatFloat(r.waveHeight),
		formatFloat(r.compassMagDec),
		formatBool(r.reportInvisible),
	}
	return strings.Join(fields, ",") + "\n"
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func formatNullFloat(v sql.NullFloat64) string {
	if !v.Valid {
		return ""
	}
	return formatFloat(v.Float64)
}

func formatBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
