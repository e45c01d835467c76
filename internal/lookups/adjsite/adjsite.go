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

// Package adjsite implements the adjacent-peer-map lookup used for
// site-broadcast routing: {active?, peer-id, neighbors=[peer-id…]}
// entries keyed by peer-id, per spec.md §3.
//
// Grounded on
// original_source/src/common/lookups/AdjSiteMapLookup.{h,cpp}: the YAML
// "peers" list shape, addEntry/eraseEntry/find's peerId-keyed
// find-or-replace semantics, and clear() are reproduced directly.
package adjsite

import (
	"errors"
	"os"

	"github.com/USA-RedDragon/dvmcore/internal/lookups"
	"gopkg.in/yaml.v3"
)

// errNoPeers mirrors AdjSiteMapLookup::load()'s refusal of an empty
// "peers" list.
var errNoPeers = errors.New("adjsite: no adjacent site map peer list defined")

// errCommitSizeMismatch is returned by Commit when the saved file, read
// back, does not carry the same number of entries that were written.
var errCommitSizeMismatch = errors.New("adjsite: commit round-trip size mismatch")

// Entry is one adjacent-peer-map record.
type Entry struct {
	Active    bool     `yaml:"active"`
	PeerID    uint32   `yaml:"peer_id"`
	Neighbors []uint32 `yaml:"neighbors"`
}

// NeighborCount returns the number of neighbor peer IDs.
func (e Entry) NeighborCount() int { return len(e.Neighbors) }

type fileFormat struct {
	Peers []Entry `yaml:"peers"`
}

// Lookup is the background-reloading adjacent-site-map table.
type Lookup struct {
	tbl   *lookups.Table
	path  string
	peers []Entry
}

// New constructs a Lookup over the given YAML file, loading it
// synchronously and scheduling background reloads at reloadMinutes (0
// disables the background thread).
func New(path string, reloadMinutes int) (*Lookup, error) {
	l := &Lookup{path: path}
	tbl, err := lookups.NewTable(reloadMinutes, l.load)
	if err != nil {
		return nil, err
	}
	l.tbl = tbl
	if err := l.load(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Lookup) load() error {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return err
	}
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return err
	}
	if len(f.Peers) == 0 {
		return errNoPeers
	}
	l.peers = f.Peers
	return nil
}

// Clear removes all entries from the table.
func (l *Lookup) Clear() {
	unlock := l.tbl.Guard()
	defer unlock()
	l.peers = nil
}

// AddEntry inserts or replaces the entry for entry.PeerID.
func (l *Lookup) AddEntry(entry Entry) {
	unlock := l.tbl.Guard()
	defer unlock()

	for i := range l.peers {
		if l.peers[i].PeerID == entry.PeerID {
			l.peers[i] = entry
			return
		}
	}
	l.peers = append(l.peers, entry)
}

// EraseEntry removes the entry for id, if present.
func (l *Lookup) EraseEntry(id uint32) {
	unlock := l.tbl.Guard()
	defer unlock()

	for i := range l.peers {
		if l.peers[i].PeerID == id {
			l.peers = append(l.peers[:i], l.peers[i+1:]...)
			return
		}
	}
}

// Find returns the entry for id, or the zero-value Entry if absent.
func (l *Lookup) Find(id uint32) Entry {
	unlock := l.tbl.Guard()
	defer unlock()

	for _, e := range l.peers {
		if e.PeerID == id {
			return e
		}
	}
	return Entry{}
}

// Commit serializes the in-memory table back to the source file and
// validates the round-trip by reloading and comparing entry counts.
func (l *Lookup) Commit() error {
	unlock := l.tbl.Guard()
	entries := append([]Entry{}, l.peers...)
	unlock()

	out, err := yaml.Marshal(fileFormat{Peers: entries})
	if err != nil {
		return err
	}
	if err := os.WriteFile(l.path, out, 0o644); err != nil {
		return err
	}

	roundTrip, err := os.ReadFile(l.path)
	if err != nil {
		return err
	}
	var f fileFormat
	if err := yaml.Unmarshal(roundTrip, &f); err != nil {
		return err
	}
	if len(f.Peers) != len(entries) {
		return errCommitSizeMismatch
	}
	return nil
}

// Stop halts the background reload scheduler.
func (l *Lookup) Stop() error { return l.tbl.Stop() }
