// Package sqlite opens SQLite databases through whichever driver the build
// selected.
//
// Build modes:
//   - Default: pure Go modernc.org/sqlite, no CGO needed
//   - CGO_ENABLED=1 -tags cgo_sqlite: mattn/go-sqlite3 via contrib/sqlite-external
//
// Use Open rather than sql.Open so the driver name always matches the build.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// DriverName returns the database/sql driver name of the build.
func DriverName() string {
	return driverName
}

// DriverType returns "cgo" for mattn/go-sqlite3 and "purego" for
// modernc.org/sqlite.
func DriverType() string {
	return driverType
}

// IsCGO reports whether the CGO driver is in use.
func IsCGO() bool {
	return driverType == "cgo"
}

// Open opens a database and applies the pragmas a segment store relies on.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, err
	}
	// One writer at a time; SQLite serialises writes anyway.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite: %s: %w", pragma, err)
		}
	}
	return db, nil
}

// OpenReadOnly opens an existing database without write access.
func OpenReadOnly(path string) (*sql.DB, error) {
	return sql.Open(driverName, "file:"+path+"?mode=ro")
}

// MustOpen is Open for tests; it panics on error.
func MustOpen(path string) *sql.DB {
	db, err := Open(path)
	if err != nil {
		panic(fmt.Sprintf("sqlite: failed to open %s: %v", path, err))
	}
	return db
}

// WithTx runs fn inside a transaction, committing on success and rolling
// back when fn returns an error.
func WithTx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Info describes the driver configuration.
type Info struct {
	DriverName string `json:"driver_name"`
	DriverType string `json:"driver_type"`
	IsCGO      bool   `json:"is_cgo"`
	Package    string `json:"package"`
}

// GetInfo returns the driver configuration of the build.
func GetInfo() Info {
	return Info{
		DriverName: driverName,
		DriverType: driverType,
		IsCGO:      IsCGO(),
		Package:    driverPackage,
	}
}
