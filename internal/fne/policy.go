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

package fne

import (
	"errors"

	"github.com/USA-RedDragon/dvmcore/internal/affiliation"
	"github.com/USA-RedDragon/dvmcore/internal/lookups/radioid"
	"github.com/USA-RedDragon/dvmcore/internal/lookups/talkgroups"
)

// ErrSenderNotPermitted, ErrDestinationNotPermitted are the two ACL
// rejection reasons a Tagger.Validate call can return; callers use these to
// debounce one rejection log line per new offending src-id, per spec.md
// §7's ACL/Policy-rejection handling.
var (
	ErrSenderNotPermitted      = errors.New("fne: sender radio ID not permitted")
	ErrDestinationNotPermitted = errors.New("fne: destination not permitted")
)

// Tagger implements the per-protocol routing step of spec.md §4.7: ACL
// validation of the sender, talkgroup-rule lookup for group calls, and
// the IsPeerPermitted gate per candidate receiving peer. One Tagger
// instance is constructed per payload tag (DMRD/P25D/NXDD); the logic is
// identical across all three air interfaces (only the LC-summary fields
// embedded in Payload differ, and those are parsed generically by
// wire.go), matching how CSBKFactory/TSBKFactory/RCCHFactory each keep
// FEC at the factory layer while sharing one dispatch shape.
type Tagger struct {
	Tag    string
	Radios *radioid.Lookup
	Rules  *talkgroups.Lookup
	Aff    *affiliation.Engine
}

// Validate applies spec.md §4.7 step 3: the sender's radio ID must be
// ACL-permitted; for a private call the destination must also be
// permitted; for a group call the talkgroup rule for (dst, slot) must
// exist and be active (and carry the matching slot, for DMR).
func (t *Tagger) Validate(p Payload) (rule talkgroups.GroupVoice, err error) {
	if !t.Radios.Permitted(p.SrcID) {
		return talkgroups.GroupVoice{}, ErrSenderNotPermitted
	}
	if !p.GroupCall {
		if !t.Radios.Permitted(p.DstID) {
			return talkgroups.GroupVoice{}, ErrDestinationNotPermitted
		}
		return talkgroups.GroupVoice{}, nil
	}

	rule = t.Rules.Find(p.DstID, p.Slot)
	if rule.IsInvalid() || !rule.Config.Active {
		return talkgroups.GroupVoice{}, ErrDestinationNotPermitted
	}
	return rule, nil
}

// PermittedReceivers filters candidates (every Running peer other than
// the sender) down to the ones is_peer_permitted allows, per spec.md
// §4.7 step 4. Private calls pass every candidate through; group calls
// consult the rule's inclusion/exclusion lists and affiliated flag.
func (t *Tagger) PermittedReceivers(p Payload, rule talkgroups.GroupVoice, candidates []uint32) []uint32 {
	out := make([]uint32, 0, len(candidates))
	for _, peerID := range candidates {
		if peerID == p.PeerID {
			continue // never echo back to the sender
		}
		if t.Aff.IsPeerPermitted(peerID, p.DstID, !p.GroupCall, rule.Config.Inclusion, rule.Config.Exclusion, rule.Config.Affiliated) {
			out = append(out, peerID)
		}
	}
	return out
}

// IsParrot reports whether the destination talkgroup is configured to
// loop calls back to the sender after end-of-call, per spec.md §4.7's
// parrot-TG behavior.
func (t *Tagger) IsParrot(p Payload) bool {
	if !p.GroupCall {
		return false
	}
	return t.Rules.Find(p.DstID, p.Slot).Config.Parrot
}
