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

// Package talkgroups implements the talkgroup-rules lookup: a YAML file of
// entries keyed by (tg-id, slot), with a second rewrite-table lookup keyed
// by (peer-id, tg-id, slot), per spec.md §3's talkgroup-rule entry and
// §4.4's hot-reload discipline.
//
// Grounded on
// original_source/src/common/lookups/TalkgroupRulesLookup.cpp: addEntry's
// slot-aware find-or-replace, eraseEntry, find (slot 0 = "any slot"), and
// findByRewrite's nested rewrite-list scan are all reproduced directly.
package talkgroups

import (
	"errors"
	"os"

	"github.com/USA-RedDragon/dvmcore/internal/lookups"
	"gopkg.in/yaml.v3"
)

// errCommitSizeMismatch is returned by Commit when the saved file, read
// back, does not carry the same number of entries that were written —
// spec.md §4.4's "validates round-trip size before writing" check.
var errCommitSizeMismatch = errors.New("talkgroups: commit round-trip size mismatch")

// Rewrite is one {peer-id, tg-id, slot} rewrite target.
type Rewrite struct {
	PeerID uint32 `yaml:"peerId"`
	TGID   uint32 `yaml:"tgId"`
	Slot   uint8  `yaml:"tgSlot"`
}

// Config carries the per-rule policy flags and lists.
type Config struct {
	Active     bool      `yaml:"active"`
	Affiliated bool      `yaml:"affiliated"`
	Parrot     bool      `yaml:"parrot"`
	Inclusion  []uint32  `yaml:"inclusion"`
	Exclusion  []uint32  `yaml:"exclusion"`
	Rewrite    []Rewrite `yaml:"rewrite"`
}

// Source identifies the talkgroup and DMR slot (0 = valid on any slot).
type Source struct {
	TGID uint32 `yaml:"tgId"`
	Slot uint8  `yaml:"tgSlot"`
}

// GroupVoice is one decoded talkgroup-rule entry.
type GroupVoice struct {
	Name   string `yaml:"name"`
	Source Source `yaml:"source"`
	Config Config `yaml:"config"`
}

// IsInvalid reports the zero-value sentinel entry returned by Find/
// FindByRewrite when nothing matches.
func (g GroupVoice) IsInvalid() bool {
	return g.Source.TGID == 0 && g.Name == ""
}

type fileFormat struct {
	GroupVoice []GroupVoice `yaml:"groupVoice"`
}

// Lookup is the background-reloading talkgroup-rules table.
type Lookup struct {
	tbl        *lookups.Table
	path       string
	acl        bool
	groupVoice []GroupVoice
}

// New constructs a Lookup over the given YAML file, performing the
// initial load synchronously, then scheduling background reloads at
// reloadMinutes (0 disables the background thread).
func New(path string, reloadMinutes int, acl bool) (*Lookup, error) {
	l := &Lookup{path: path, acl: acl}
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

// ACL reports whether talkgroup-ID access control is enabled.
func (l *Lookup) ACL() bool { return l.acl }

func (l *Lookup) load() error {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return err
	}
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return err
	}
	l.groupVoice = f.GroupVoice
	return nil
}

// Clear removes all entries from the table.
func (l *Lookup) Clear() {
	unlock := l.tbl.Guard()
	defer unlock()
	l.groupVoice = nil
}

func matches(x GroupVoice, id uint32, slot uint8) bool {
	if slot != 0 {
		return x.Source.TGID == id && x.Source.Slot == slot
	}
	return x.Source.TGID == id
}

// AddEntry inserts or replaces the rule for (id, slot), toggling Active.
func (l *Lookup) AddEntry(id uint32, slot uint8, enabled bool) {
	unlock := l.tbl.Guard()
	defer unlock()

	for i := range l.groupVoice {
		if matches(l.groupVoice[i], id, slot) {
			l.groupVoice[i].Source.TGID = id
			l.groupVoice[i].Source.Slot = slot
			l.groupVoice[i].Config.Active = enabled
			return
		}
	}
	l.groupVoice = append(l.groupVoice, GroupVoice{
		Source: Source{TGID: id, Slot: slot},
		Config: Config{Active: enabled},
	})
}

// AddGroupVoice inserts or replaces a full rule entry, keyed the same way
// AddEntry is. A zero-value (IsInvalid) entry is silently ignored.
func (l *Lookup) AddGroupVoice(entry GroupVoice) {
	if entry.IsInvalid() {
		return
	}
	unlock := l.tbl.Guard()
	defer unlock()

	for i := range l.groupVoice {
		if matches(l.groupVoice[i], entry.Source.TGID, entry.Source.Slot) {
			l.groupVoice[i] = entry
			return
		}
	}
	l.groupVoice = append(l.groupVoice, entry)
}

// EraseEntry removes the rule for (id, slot), if present.
func (l *Lookup) EraseEntry(id uint32, slot uint8) {
	unlock := l.tbl.Guard()
	defer unlock()

	for i := range l.groupVoice {
		if l.groupVoice[i].Source.TGID == id && l.groupVoice[i].Source.Slot == slot {
			l.groupVoice = append(l.groupVoice[:i], l.groupVoice[i+1:]...)
			return
		}
	}
}

// Find returns the rule for (id, slot); slot 0 matches any slot. Returns
// the zero-value (IsInvalid) entry when absent.
func (l *Lookup) Find(id uint32, slot uint8) GroupVoice {
	unlock := l.tbl.Guard()
	defer unlock()

	for _, x := range l.groupVoice {
		if matches(x, id, slot) {
			return x
		}
	}
	return GroupVoice{}
}

// FindByRewrite scans every rule's rewrite list for one matching
// (peerId, id, slot); slot 0 matches any slot within a rewrite entry.
func (l *Lookup) FindByRewrite(peerID, id uint32, slot uint8) GroupVoice {
	unlock := l.tbl.Guard()
	defer unlock()

	for _, x := range l.groupVoice {
		for _, rw := range x.Config.Rewrite {
			if slot != 0 {
				if rw.PeerID == peerID && rw.TGID == id && rw.Slot == slot {
					return x
				}
				continue
			}
			if rw.PeerID == peerID && rw.TGID == id {
				return x
			}
		}
	}
	return GroupVoice{}
}

// Commit serializes the in-memory table back to the source file, and
// validates the round-trip by reloading and comparing entry counts.
func (l *Lookup) Commit() error {
	unlock := l.tbl.Guard()
	entries := append([]GroupVoice{}, l.groupVoice...)
	unlock()

	out, err := yaml.Marshal(fileFormat{GroupVoice: entries})
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
	if len(f.GroupVoice) != len(entries) {
		return errCommitSizeMismatch
	}
	return nil
}

// Stop halts the background reload scheduler.
func (l *Lookup) Stop() error { return l.tbl.Stop() }
