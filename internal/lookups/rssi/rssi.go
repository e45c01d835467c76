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

// Package rssi implements the RSSI calibration-table interpolator: a
// sparse map of raw modem DSP RSSI readings to calibrated dBm values,
// linearly interpolated between the two bracketing calibration points,
// per spec.md §3/§4.4.
//
// Grounded on original_source/lookups/RSSIInterpolator.cpp: the
// "# comment, whitespace-separated raw/rssi pairs" file format, the
// lower_bound-bracketed linear interpolation (clamping to the nearest
// endpoint outside the calibrated range), and the empty-map-returns-zero
// convention are all reproduced directly.
package rssi

import (
	"bufio"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/USA-RedDragon/dvmcore/internal/lookups"
)

type point struct {
	raw  uint16
	rssi int
}

// Table is the background-reloading RSSI calibration table.
type Table struct {
	tbl    *lookups.Table
	path   string
	points []point // sorted ascending by raw
}

// New constructs a Table over the given calibration file, loading it
// synchronously and scheduling background reloads at reloadMinutes (0
// disables the background thread).
func New(path string, reloadMinutes int) (*Table, error) {
	t := &Table{path: path}
	tbl, err := lookups.NewTable(reloadMinutes, t.load)
	if err != nil {
		return nil, err
	}
	t.tbl = tbl
	if err := t.load(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Table) load() error {
	f, err := os.Open(t.path)
	if err != nil {
		return err
	}
	defer f.Close()

	var points []point
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		raw, err := strconv.ParseUint(fields[0], 10, 16)
		if err != nil {
			continue
		}
		rssi, err := strconv.Atoi(fields[1])
		if err != nil {
			continue
		}
		points = append(points, point{raw: uint16(raw), rssi: rssi})
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	sort.Slice(points, func(i, j int) bool { return points[i].raw < points[j].raw })
	t.points = points
	return nil
}

// Interpolate returns the calibrated RSSI for a raw modem reading,
// linearly interpolating between the two bracketing calibration points.
// Returns 0 if the table is empty, the nearest endpoint's value if val
// falls outside the calibrated range.
func (t *Table) Interpolate(val uint16) int {
	unlock := t.tbl.Guard()
	defer unlock()

	if len(t.points) == 0 {
		return 0
	}

	idx := sort.Search(len(t.points), func(i int) bool { return t.points[i].raw >= val })
	if idx == len(t.points) {
		return t.points[len(t.points)-1].rssi
	}
	if idx == 0 {
		return t.points[0].rssi
	}

	hi := t.points[idx]
	lo := t.points[idx-1]
	p := float64(val-lo.raw) / float64(hi.raw-lo.raw)
	return int((1.0-p)*float64(lo.rssi) + p*float64(hi.rssi))
}

// Stop halts the background reload scheduler.
func (t *Table) Stop() error { return t.tbl.Stop() }
