//go:build cgo_sqlite

// CGO SQLite driver, selected with the cgo_sqlite build tag.
//
// Build with: CGO_ENABLED=1 go build -tags cgo_sqlite
package sqlite

import (
	sqliteexternal "github.com/FocuswithJustin/sfimport/contrib/sqlite-external"
)

const (
	driverName    = sqliteexternal.DriverName
	driverType    = sqliteexternal.DriverType
	driverPackage = sqliteexternal.DriverPackage + " (via contrib/sqlite-external)"
)
