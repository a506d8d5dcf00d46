package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// Supported database/sql driver names.
const (
	DriverSQLite3  = "sqlite3"  // mattn/go-sqlite3 (cgo)
	DriverSQLite   = "sqlite"   // modernc.org/sqlite (pure Go)
	DriverPostgres = "postgres" // lib/pq
)

// Options selects and tunes the database connection.
type Options struct {
	Driver       string
	DSN          string
	MaxOpenConns int
	MaxIdleTime  time.Duration
}

// Open connects to the configured database and applies per-driver setup.
func Open(opts Options) (*sql.DB, error) {
	driver := strings.TrimSpace(opts.Driver)
	if driver == "" {
		driver = DriverSQLite3
	}
	if !isSupported(driver) {
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}
	if strings.TrimSpace(opts.DSN) == "" {
		return nil, fmt.Errorf("db dsn required for driver %s", driver)
	}
	db, err := sql.Open(driver, opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	switch {
	case isSQLite(driver) && strings.Contains(opts.DSN, ":memory:"):
		// each connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	case opts.MaxOpenConns > 0:
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleTime > 0 {
		db.SetConnMaxIdleTime(opts.MaxIdleTime)
	}
	if isSQLite(driver) {
		if err := applyPragmas(db, opts.DSN); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return db, nil
}

func applyPragmas(db *sql.DB, dsn string) error {
	pragmas := []string{"PRAGMA foreign_keys = ON", "PRAGMA busy_timeout = 5000"}
	if !strings.Contains(dsn, ":memory:") {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL", "PRAGMA synchronous = NORMAL")
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("apply sqlite pragma %q: %w", stmt, err)
		}
	}
	return nil
}

func isSupported(driver string) bool {
	return isSQLite(driver) || driver == DriverPostgres
}

func isSQLite(driver string) bool {
	return driver == DriverSQLite3 || driver == DriverSQLite
}
