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

// Package engine implements the DMR air-interface engine of spec.md
// §4.6: two independently-arbitrated slot instances sharing one RF ring
// buffer, the CSBK-driven control-channel cycle, and confirmed-data PDU
// reassembly.
//
// Grounded on DMRHub's internal/dmr/hub package for the outer
// process/network split and on spec.md §4.6's state-machine and
// control-channel prose; the collision guard itself is
// internal/engine.CallState, shared across all three air interfaces.
package engine

import (
	"log/slog"
	"time"

	"github.com/USA-RedDragon/dvmcore/internal/affiliation"
	"github.com/USA-RedDragon/dvmcore/internal/dmr/frame"
	"github.com/USA-RedDragon/dvmcore/internal/dmr/lc/csbk"
	"github.com/USA-RedDragon/dvmcore/internal/engine"
	"github.com/USA-RedDragon/dvmcore/internal/fne"
	"github.com/USA-RedDragon/dvmcore/internal/lookups/radioid"
	"github.com/USA-RedDragon/dvmcore/internal/lookups/talkgroups"
	"github.com/USA-RedDragon/dvmcore/internal/site"
)

// Slot identifies one of DMR's two TDMA timeslots.
type Slot uint8

const (
	Slot1 Slot = 1
	Slot2 Slot = 2
)

// ccCycle is the fixed control-channel signalling-block sequence of
// spec.md §4.6, restricted to the opcodes the CSBK factory (C5) actually
// has a home for; Bcast_Sys_Parm/Bcast_Ann_Wd/Sync_Bcast/Time_Date_Ann/
// Iden_Up_* have no CSBK-layer encoder in this pack (they are TSBK/TDULC
// concepts in the P25 stack DMR borrows the prose from) and are cycled
// as a Broadcast opcode placeholder instead of fabricating new opcodes.
var ccCycle = []csbk.Opcode{
	csbk.OpcodeBroadcast,
	csbk.OpcodeMaint,
}

// pendingBlock holds one in-flight DataHeader's reassembly state.
type pendingBlock struct {
	header       frame.DataHeader
	remaining    int
	payload      []byte
}

// SlotEngine runs one DMR timeslot's call state, PDU reassembly, and
// (when designated TSCC) control-channel cycling.
type SlotEngine struct {
	Slot Slot
	Site *site.Data

	Radios *radioid.Lookup
	Rules  *talkgroups.Lookup
	Aff    *affiliation.Engine

	calls *engine.CallState

	embedded *frame.EmbeddedAccumulator
	pending  *pendingBlock

	isControlChannel bool
	isSupervisor     bool
	ccPacketInterval time.Duration
	ccElapsed        time.Duration
	ccIndex          int

	streamSeq uint32
}

// NewSlotEngine constructs an idle slot engine. rfTimeout/netTimeout/
// tgHang/networkWatchdog configure the shared collision-guard timers per
// spec.md §3's call-state data model.
func NewSlotEngine(slot Slot, st *site.Data, radios *radioid.Lookup, rules *talkgroups.Lookup, aff *affiliation.Engine, rfTimeout, netTimeout, tgHang, networkWatchdog time.Duration) *SlotEngine {
	return &SlotEngine{
		Slot:             slot,
		Site:             st,
		Radios:           radios,
		Rules:            rules,
		Aff:              aff,
		calls:            engine.NewCallState(rfTimeout, netTimeout, tgHang, networkWatchdog),
		embedded:         frame.NewEmbeddedAccumulator(),
		ccPacketInterval: time.Second,
	}
}

// SetCCRunning designates (or un-designates) this slot as the trunking
// control channel, per the outer API's set_cc_running.
func (s *SlotEngine) SetCCRunning(running bool) {
	s.isControlChannel = running
}

// SetSupervisor marks this engine as the supervisory instance for its
// site (affects only logging/ownership semantics upstream; the outer
// API's set_supervisor).
func (s *SlotEngine) SetSupervisor(supervisor bool) {
	s.isSupervisor = supervisor
}

// PermittedTG reports whether dst is an active talkgroup rule on this
// slot, the outer API's permitted_tg(dst, slot).
func (s *SlotEngine) PermittedTG(dst uint32) bool {
	rule := s.Rules.Find(dst, uint8(s.Slot))
	return !rule.IsInvalid() && rule.Config.Active
}

// Affiliations exposes the affiliation engine backing this slot.
func (s *SlotEngine) Affiliations() *affiliation.Engine {
	return s.Aff
}

// RFVoiceFrame is one decoded RF voice burst's relevant fields, already
// past sync detection (out of scope: the modem/PTT driver itself).
type RFVoiceFrame struct {
	SrcID     uint32
	DstID     uint32
	GroupCall bool
	Terminator bool
	EmbeddedLCSS frame.LCSS
	EmbeddedBits []bool
	RSSI      int
}

// ProcessFrame implements the outer API's process_frame for an RF voice
// burst: applies the collision guard, validates ACL, and (on RFAdmitted)
// returns true so the caller forwards a tagged network datagram via
// BuildNetworkPayload.
func (s *SlotEngine) ProcessFrame(f RFVoiceFrame) bool {
	if !s.Radios.Permitted(f.SrcID) {
		slog.Warn("dmr: rf frame rejected, source not permitted", "slot", s.Slot, "src", s.Radios.Describe(f.SrcID))
		return false
	}
	if f.GroupCall {
		rule := s.Rules.Find(f.DstID, uint8(s.Slot))
		if rule.IsInvalid() || !rule.Config.Active {
			slog.Warn("dmr: rf frame rejected, destination not permitted", "slot", s.Slot, "dst", f.DstID)
			return false
		}
	}

	switch s.calls.AdmitRF(f.SrcID, f.DstID) {
	case engine.RFDroppedVoteCollision, engine.RFPreemptedByNet:
		s.calls.RF.Lost++
		return false
	case engine.RFAdmitted:
	}

	if s.calls.RFState == engine.Listening {
		s.calls.StartRF(engine.AudioRF, f.SrcID, f.DstID)
	}
	s.calls.RF.Frames++
	s.calls.RFRSSI.Observe(f.RSSI)

	if len(f.EmbeddedBits) > 0 {
		if _, err := s.embedded.AddFragment(f.EmbeddedLCSS, f.EmbeddedBits); err != nil && f.EmbeddedLCSS == frame.LCSSLastFragment {
			s.calls.RF.Errors++
		}
	}

	if f.Terminator {
		s.calls.EndRF()
		s.embedded.Reset()
	}
	return true
}

// BuildNetworkPayload packages an admitted RF voice frame into the FNE
// wire shape for fan-out, per spec.md §4.6 step 4.
func (s *SlotEngine) BuildNetworkPayload(peerID uint32, f RFVoiceFrame, data []byte) fne.Payload {
	s.streamSeq++
	return fne.Payload{
		Tag:       fne.TagDMRData,
		Seq:       uint8(s.streamSeq),
		SrcID:     f.SrcID,
		DstID:     f.DstID,
		PeerID:    peerID,
		Slot:      uint8(s.Slot),
		GroupCall: f.GroupCall,
		VoiceSync: true,
		StreamID:  s.streamSeq,
		Data:      data,
	}
}

// ProcessNetwork implements the outer API's process_network for an
// incoming (already ACL-validated-by-the-FNE-tagger) network voice
// payload: applies the Net<->RF collision guard and reports whether the
// frame should be written onto the RF ring buffer.
func (s *SlotEngine) ProcessNetwork(p fne.Payload) bool {
	switch s.calls.AdmitNet(p.SrcID, p.DstID) {
	case engine.NetDroppedTGHang, engine.NetPreemptedByRF:
		s.calls.Net.Lost++
		return false
	case engine.NetAdmitted:
	}

	if s.calls.NetState == engine.Listening {
		s.calls.StartNet(engine.AudioNet, p.SrcID, p.DstID)
	}
	s.calls.Net.Frames++
	s.calls.FeedNetworkWatchdog()
	return true
}

// GetFrame implements the outer API's get_frame: when this slot is the
// control channel, returns the next cycled CSBK. Late-entry P_Grant
// blocks are not interleaved here; EnqueueLateEntryGrant builds them
// separately.
func (s *SlotEngine) GetFrame() []byte {
	if !s.isControlChannel {
		return nil
	}
	op := ccCycle[s.ccIndex%len(ccCycle)]
	s.ccIndex++
	return csbk.Encode(csbk.CSBK{Opcode: op, FID: csbk.FIDETSI, Data: make([]byte, 8)}, false)
}

// EnqueueLateEntryGrant builds and returns an encoded P_Grant CSBK for
// channelNo. It does not queue the block or change the GetFrame cycle;
// transmitting it is left to the caller.
func (s *SlotEngine) EnqueueLateEntryGrant(channelNo uint16) []byte {
	data := make([]byte, 8)
	data[0] = byte(channelNo >> 4)
	data[1] = byte(channelNo << 4)
	return csbk.Encode(csbk.CSBK{Opcode: csbk.OpcodePGrant, FID: csbk.FIDETSI, Data: data}, false)
}

// ProcessDataHeader starts a new PDU reassembly, per spec.md §4.6's
// "DataHeader arrives ... blocks_to_follow DataBlocks then arrive".
// It takes an already-decoded header and returns nothing; rejecting a
// header whose CRC-16 failed (ErrHeaderCRCInvalid from
// frame.DecodeHeader) is the caller's job.
func (s *SlotEngine) ProcessDataHeader(h frame.DataHeader) {
	s.calls.StartRF(engine.DataRF, h.SourceLLID, h.DestinationLLID)
	s.pending = &pendingBlock{
		header:    h,
		remaining: int(h.BlocksToFollow),
		payload:   make([]byte, 0, int(h.BlocksToFollow)*18),
	}
}

// DataBlockRate identifies which on-air shape a DataBlock arrived in.
type DataBlockRate int

const (
	RateThreeQuarter DataBlockRate = iota
	RateHalf
	RateOne
)

// ProcessDataBlock feeds one decoded confirmed/unconfirmed DataBlock into
// the in-flight PDU reassembly. crcOK is ignored for RateOne (uncoded)
// blocks; for confirmed blocks a CRC-9 mismatch is logged but the block
// is still kept, per spec.md §4.6's "mismatch is logged but does NOT drop
// the block". Returns the assembled payload once the last block arrives.
func (s *SlotEngine) ProcessDataBlock(rate DataBlockRate, payload []byte, crcOK bool) ([]byte, bool) {
	if s.pending == nil {
		slog.Warn("dmr: data block arrived with no pending header", "slot", s.Slot)
		return nil, false
	}
	if rate != RateOne && !crcOK {
		s.calls.RF.Errors++
		slog.Warn("dmr: data block CRC-9 mismatch, keeping block", "slot", s.Slot)
	}

	s.pending.payload = append(s.pending.payload, payload...)
	s.pending.remaining--
	s.calls.RF.Frames++

	if s.pending.remaining > 0 {
		return nil, false
	}

	out := s.pending.payload
	s.pending = nil
	s.calls.EndRF()
	return out, true
}

// Clock implements the outer API's clock(dt_ms): ticks the call-state
// timers, the affiliation engine's grant timers, and (on a control
// channel) the packet-pacing timer, force-releasing any grants that
// expired and returning their dst-ids for the caller to log.
func (s *SlotEngine) Clock(dt time.Duration) []uint32 {
	s.calls.Tick(dt)

	if s.isControlChannel {
		s.ccElapsed += dt
	}

	return s.Aff.Tick(dt)
}

// DMREngine owns the two timeslot instances sharing one repeater
// channel.
type DMREngine struct {
	Slot1 *SlotEngine
	Slot2 *SlotEngine
}

// NewDMREngine constructs both slot engines over a shared set of
// lookups and one DMR-aware affiliation engine (spec.md §4.5's
// slot-selection rule requires the two slots to share a single
// Engine instance).
func NewDMREngine(st *site.Data, radios *radioid.Lookup, rules *talkgroups.Lookup, aff *affiliation.Engine, rfTimeout, netTimeout, tgHang, networkWatchdog time.Duration) *DMREngine {
	return &DMREngine{
		Slot1: NewSlotEngine(Slot1, st, radios, rules, aff, rfTimeout, netTimeout, tgHang, networkWatchdog),
		Slot2: NewSlotEngine(Slot2, st, radios, rules, aff, rfTimeout, netTimeout, tgHang, networkWatchdog),
	}
}

// Clock advances both slots by dt, per tick. The two slots share one
// affiliation engine, so its grant timers are ticked once, via Slot1.
func (d *DMREngine) Clock(dt time.Duration) {
	d.Slot1.Clock(dt)
	d.Slot2.calls.Tick(dt)
	if d.Slot2.isControlChannel {
		d.Slot2.ccElapsed += dt
	}
}
