// SPDX-License-Identifier: AGPL-3.0-or-later
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// Package radiodb is the built-in Radio-ID metadata store: a
// compressed default callsign/city/country snapshot, unpacked once
// into a GORM-backed database and queried for log-line enrichment by
// internal/lookups/radioid. It is deliberately NOT consulted for the
// ACL allow/deny decision itself (spec.md §3's Radio-ID entry is
// {enabled?, is-default?} only) — this is purely the descriptive
// metadata a rejection log line benefits from, the same separation the
// teacher draws between its ACL-bearing repeater config and its
// purely-descriptive internal/repeaterdb snapshot.
//
// Grounded on internal/repeaterdb/repeaterdb.go: the embed-xz-then-
// gorm.AutoMigrate-into-sqlite "unpack once" idiom, the builtInDate
// companion file, and the atomic-bool single-init guard are reproduced
// directly; the DSN is widened to also accept MySQL/Postgres per
// SPEC_FULL.md §C so the same dependency set the teacher's top-level
// internal/db package offers (gorm.io/driver/{mysql,postgres} alongside
// glebarez/sqlite) has a home here instead of requiring the dropped
// HTTP/account-management database.
package radiodb

import (
	"bytes"

	// Embed the compressed built-in snapshot into the binary.
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"
	"sync/atomic"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/ulikunitz/xz"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

//go:embed builtin-date.txt
var builtInDateStr string

//go:embed builtin.json.xz
var compressedBuiltIn []byte

// Driver selects the GORM dialect radiodb opens. Sqlite is the
// default, single-binary-friendly mode; MySQL/Postgres let an operator
// point several air-interface hosts at one shared metadata store.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverMySQL    Driver = "mysql"
	DriverPostgres Driver = "postgres"
)

// Entry is one built-in Radio-ID metadata record.
type Entry struct {
	ID       uint32 `gorm:"primaryKey" json:"id"`
	Callsign string `json:"callsign"`
	City     string `json:"city"`
	State    string `json:"state"`
	Country  string `json:"country"`
}

type builtInSnapshot struct {
	Radios []Entry `json:"radios"`
}

// DB is the unpacked built-in Radio-ID metadata store.
type DB struct {
	db          *gorm.DB
	builtInDate time.Time
	inited      atomic.Bool
}

// Open opens (creating/migrating as needed) a radiodb.DB using the
// given driver and data-source name. For DriverSQLite, dsn is a
// filesystem path (or "" for an in-memory database, matching the
// teacher's TEST-mode branch in internal/db/db.go).
func Open(driver Driver, dsn string) (*DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverSQLite, "":
		dialector = sqlite.Open(dsn)
	case DriverMySQL:
		dialector = mysql.Open(dsn)
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("radiodb: unknown driver %q", driver)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("radiodb: open: %w", err)
	}
	if err := gdb.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("radiodb: migrate: %w", err)
	}

	d := &DB{db: gdb}
	builtInDate, err := time.Parse(time.RFC3339, strings.TrimSpace(builtInDateStr))
	if err != nil {
		return nil, fmt.Errorf("radiodb: parse builtin date: %w", err)
	}
	d.builtInDate = builtInDate
	return d, nil
}

// BuiltInDate reports the snapshot date embedded in the binary.
func (d *DB) BuiltInDate() time.Time { return d.builtInDate }

// UnpackBuiltIn decompresses the embedded snapshot and upserts every
// entry, the same one-time "unpack on first run" step
// internal/repeaterdb.UnpackDB performs. Safe to call repeatedly;
// subsequent calls are no-ops.
func (d *DB) UnpackBuiltIn() error {
	if d.inited.Swap(true) {
		return nil
	}

	xr, err := xz.NewReader(bytes.NewReader(compressedBuiltIn))
	if err != nil {
		return fmt.Errorf("radiodb: xz reader: %w", err)
	}
	raw, err := io.ReadAll(xr)
	if err != nil {
		return fmt.Errorf("radiodb: xz decompress: %w", err)
	}

	var snap builtInSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return fmt.Errorf("radiodb: unmarshal builtin snapshot: %w", err)
	}

	for _, e := range snap.Radios {
		if err := d.db.Save(&e).Error; err != nil {
			return fmt.Errorf("radiodb: save entry %d: %w", e.ID, err)
		}
	}
	return nil
}

// Lookup returns the metadata entry for id, if the built-in snapshot
// (or a caller-added record) carries one.
func (d *DB) Lookup(id uint32) (Entry, bool) {
	var e Entry
	result := d.db.First(&e, "id = ?", id)
	if result.Error != nil || result.RowsAffected == 0 {
		return Entry{}, false
	}
	return e, true
}

// SQLiteFilePath is a small helper mirroring the teacher's
// path.Join(dataDir, "repeaters.sqlite") convention for callers that
// want a deterministic on-disk file rather than an in-memory database.
func SQLiteFilePath(dataDir string) string {
	return path.Join(dataDir, "radiodb.sqlite")
}
