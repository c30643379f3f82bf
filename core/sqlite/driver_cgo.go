//go:build cgo_sqlite

// CGO driver selection. Build with CGO_ENABLED=1 and -tags cgo_sqlite.
package sqlite

import (
	_ "github.com/mattn/go-sqlite3" // CGO SQLite driver
)

const (
	driverName    = "sqlite3"
	driverType    = "cgo"
	driverPackage = "github.com/mattn/go-sqlite3"
)
