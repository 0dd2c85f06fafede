// Package sqliteexternal provides the optional CGO SQLite driver.
//
// It is compiled only with the cgo_sqlite build tag:
//
//	CGO_ENABLED=1 go build -tags cgo_sqlite ./cmd/sfimport
//
// Without the tag, core/sqlite uses the pure Go modernc.org/sqlite driver.
package sqliteexternal
