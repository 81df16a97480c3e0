// Package store persists boat-log and celestial-sight batches to a
// per-boat CSV file and a sqlite relational database, and exposes a
// debug SQL surface over the database. It drains batches off a buffered
// channel so the scheduler's tick loop never blocks on I/O, matching the
// teacher's BackgroundFlusher/Persister split between a fast producer and
// a slower, independently-scheduled writer.
package store

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DB wraps the sqlite connection used by Writer and the admin routes.
type DB struct {
	*sql.DB
}

// applyPragmas matches db.go's pragma set: WAL for concurrent readers
// alongside the writer goroutine, a bounded busy_timeout as the first
// line of defense before the Writer's own BUSY retry kicks in.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
		"PRAGMA busy_timeout = 5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("failed to execute %q: %w", p, err)
		}
	}
	return nil
}

// Open connects to path, applies pragmas, and migrates the schema to the
// latest version.
func Open(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := applyPragmas(sqlDB); err != nil {
		return nil, err
	}

	db := &DB{sqlDB}
	if err := db.migrateUp(); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return db, nil
}

func (db *DB) migrateUp() error {
	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("failed to create iofs source driver: %w", err)
	}
	driver, err := sqlite.WithInstance(db.DB, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create sqlite driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to build migrator: %w", err)
	}
	// Note: m.Close() is not called here; its sqlite driver Close() would
	// close db.DB, which this struct continues to own after migrating.
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// busyRetryOnce runs fn in a transaction; if sqlite reports the database
// busy, it waits busyWait and retries exactly once more, matching the
// "on BUSY, retry after 1s" policy for the batch transactions.
func busyRetryOnce(db *sql.DB, busyWait time.Duration, fn func(*sql.Tx) error) error {
	run := func() error {
		tx, err := db.Begin()
		if err != nil {
			return err
		}
		if err := fn(tx); err != nil {
			tx.Rollback()
			return err
		}
		return tx.Commit()
	}

	err := run()
	if err == nil {
		return nil
	}
	if !isBusy(err) {
		return err
	}

	time.Sleep(busyWait)
	return run()
}

// isBusy reports whether err is sqlite's SQLITE_BUSY/SQLITE_BUSY_SNAPSHOT,
// matched on the driver's error text rather than an internal error type.
func isBusy(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "busy")
}
