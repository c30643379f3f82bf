// Package sqlite selects the embedded SQLite driver. The default build
// uses the pure Go modernc.org/sqlite driver; building with
// CGO_ENABLED=1 and -tags cgo_sqlite switches to mattn/go-sqlite3.
//
// Both drivers register under different names ("sqlite" vs "sqlite3"),
// so databases must be opened through Open rather than sql.Open.
package sqlite

import (
	"database/sql"
	"net/url"
)

// DriverName returns the registered database/sql driver name.
func DriverName() string {
	return driverName
}

// DriverType identifies the implementation: "purego" or "cgo".
func DriverType() string {
	return driverType
}

// IsCGO reports whether the mattn/go-sqlite3 driver is compiled in.
func IsCGO() bool {
	return driverType == "cgo"
}

// Open opens the SQLite database at path with the selected driver.
// The path ":memory:" opens a private in-memory database.
func Open(path string) (*sql.DB, error) {
	return sql.Open(driverName, DSN(path, false))
}

// OpenReadOnly opens the database at path rejecting all writes.
func OpenReadOnly(path string) (*sql.DB, error) {
	return sql.Open(driverName, DSN(path, true))
}

// DSN builds the data source name for path. File paths go through the
// file: URI form so that query parameters survive both drivers;
// ":memory:" is passed through untouched.
func DSN(path string, readOnly bool) string {
	if path == ":memory:" || path == "" {
		return ":memory:"
	}
	dsn := "file:" + path
	if readOnly {
		dsn += "?" + url.Values{"mode": {"ro"}}.Encode()
	}
	return dsn
}

// Info describes the compiled-in driver.
type Info struct {
	DriverName string `json:"driver_name"`
	DriverType string `json:"driver_type"`
	IsCGO      bool   `json:"is_cgo"`
	Package    string `json:"package"`
}

// GetInfo returns the compiled-in driver description.
func GetInfo() Info {
	return Info{
		DriverName: driverName,
		DriverType: driverType,
		IsCGO:      IsCGO(),
		Package:    driverPackage,
	}
}
