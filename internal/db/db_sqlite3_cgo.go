//go:build cgo && sqlite3_cgo

// Opt-in cgo driver for builds where the wazero-based default is too slow.
package db

import (
	_ "github.com/mattn/go-sqlite3"
)

const driverID = "mattn/go-sqlite3"
const driverName = "sqlite3"
