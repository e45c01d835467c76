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

// Package lookups provides the background-reloading table scaffold shared
// by radioid, talkgroups, rssi, and adjsite: a one-slot channel used as an
// exclusive lock over in-memory state, taken by polling (2ms sleep between
// attempts, with no limit on the wait) rather than by blocking, and a
// minute-granularity reload timer (zero disables the background thread),
// per spec.md §4.4.
package lookups

import (
	"time"

	"github.com/go-co-op/gocron/v2"
)

const spinWait = 2 * time.Millisecond

// Table is the generic reloadable-lookup scaffold. Embedders hold a
// *Table and bracket reads and writes with Guard and the unlock func it
// returns, or hand a whole write (such as a reload) to RunLocked.
type Table struct {
	locked   chan struct{} // capacity 1; held = "locked"
	reloadFn func() error
	sched    gocron.Scheduler
	job      gocron.Job
}

// NewTable constructs a Table. reloadMinutes of zero disables the
// background reload thread entirely (the scheduler is never started).
func NewTable(reloadMinutes int, reloadFn func() error) (*Table, error) {
	t := &Table{
		locked:   make(chan struct{}, 1),
		reloadFn: reloadFn,
	}
	if reloadMinutes <= 0 {
		return t, nil
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	job, err := sched.NewJob(
		gocron.DurationJob(time.Duration(reloadMinutes)*time.Minute),
		gocron.NewTask(func() {
			t.RunLocked(func() error { return t.reloadFn() })
		}),
	)
	if err != nil {
		return nil, err
	}
	t.sched = sched
	t.job = job
	sched.Start()
	return t, nil
}

// Stop halts the background reload scheduler, if one was started.
func (t *Table) Stop() error {
	if t.sched == nil {
		return nil
	}
	return t.sched.Shutdown()
}

// Guard blocks (spin-waiting, not a hard mutex wait) until no one else
// holds the table, takes it exclusively, and returns an unlock func.
func (t *Table) Guard() func() {
	for {
		select {
		case t.locked <- struct{}{}:
			return func() { <-t.locked }
		default:
			time.Sleep(spinWait)
		}
	}
}

// RunLocked runs fn with the table's writer lock held, spin-waiting for
// any reader/writer in progress exactly like Guard does.
func (t *Table) RunLocked(fn func() error) error {
	unlock := t.Guard()
	defer unlock()
	return fn()
}

// ReloadNow forces an out-of-band reload regardless of the background
// timer's schedule.
func (t *Table) ReloadNow() error {
	return t.RunLocked(t.reloadFn)
}
