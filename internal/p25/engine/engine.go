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

// Package engine implements the P25 Phase 1 air-interface engine of
// spec.md §4.6: one FDMA channel's voice/data/trunk call state (a single
// CallState, unlike DMR's two TDMA slot instances), and the
// TSBK-driven control-channel cycle.
//
// Grounded on spec.md §4.6's outer-API prose, internal/engine.CallState
// for the shared collision guard, and internal/p25/lc/tsbk for the
// control-channel signalling blocks.
package engine

import (
	"log/slog"
	"time"

	"github.com/USA-RedDragon/dvmcore/internal/affiliation"
	p25frame "github.com/USA-RedDragon/dvmcore/internal/p25/frame"
	"github.com/USA-RedDragon/dvmcore/internal/p25/lc/tsbk"
	"github.com/USA-RedDragon/dvmcore/internal/engine"
	"github.com/USA-RedDragon/dvmcore/internal/fne"
	"github.com/USA-RedDragon/dvmcore/internal/lookups/radioid"
	"github.com/USA-RedDragon/dvmcore/internal/lookups/talkgroups"
	"github.com/USA-RedDragon/dvmcore/internal/site"
)

// ccCycle is the fixed control-channel signalling-block sequence of
// spec.md §4.6, restricted to four LCOs that tsbk (C5) defines;
// Aloha/Bcast_Ann_Wd have no TSBK-layer LCO in this pack and are left out
// rather than fabricating new opcodes (see DESIGN.md), and
// Bcast_Sys_Parm/Iden_Up_* are not cycled either.
var ccCycle = []tsbk.LCO{
	tsbk.LCONetStsBcast,
	tsbk.LCOAdjStsBcast,
	tsbk.LCOSyncBcast,
	tsbk.LCOTimeDateAnn,
}

// Engine runs one P25 channel's call state, trunk-grant signalling, and
// control-channel cycling.
type Engine struct {
	Site *site.Data

	Radios *radioid.Lookup
	Rules  *talkgroups.Lookup
	Aff    *affiliation.Engine

	calls *engine.CallState

	isControlChannel bool
	isSupervisor     bool
	ccIndex          int

	streamSeq uint32
}

// New constructs an idle P25 engine.
func New(st *site.Data, radios *radioid.Lookup, rules *talkgroups.Lookup, aff *affiliation.Engine, rfTimeout, netTimeout, tgHang, networkWatchdog time.Duration) *Engine {
	return &Engine{
		Site:   st,
		Radios: radios,
		Rules:  rules,
		Aff:    aff,
		calls:  engine.NewCallState(rfTimeout, netTimeout, tgHang, networkWatchdog),
	}
}

func (e *Engine) SetCCRunning(running bool) { e.isControlChannel = running }
func (e *Engine) SetSupervisor(s bool)      { e.isSupervisor = s }

// PermittedTG reports whether dst is an active talkgroup rule (P25 has
// no DMR-style slot, so slot 0 — "any slot" — is always used).
func (e *Engine) PermittedTG(dst uint32) bool {
	rule := e.Rules.Find(dst, 0)
	return !rule.IsInvalid() && rule.Config.Active
}

// Affiliations exposes the affiliation engine backing this channel.
func (e *Engine) Affiliations() *affiliation.Engine { return e.Aff }

// RFVoiceFrame is one decoded RF voice unit's relevant fields (an LDU1/
// LDU2's LC summary), already past NID/sync detection.
type RFVoiceFrame struct {
	SrcID      uint32
	DstID      uint32
	GroupCall  bool
	DUID       p25frame.DUID
	Terminator bool
	RSSI       int
}

// ProcessFrame implements the outer API's process_frame for an RF voice
// unit.
func (e *Engine) ProcessFrame(f RFVoiceFrame) bool {
	if !e.Radios.Permitted(f.SrcID) {
		slog.Warn("p25: rf frame rejected, source not permitted", "src", f.SrcID)
		return false
	}
	if f.GroupCall {
		rule := e.Rules.Find(f.DstID, 0)
		if rule.IsInvalid() || !rule.Config.Active {
			slog.Warn("p25: rf frame rejected, destination not permitted", "dst", f.DstID)
			return false
		}
	}

	switch e.calls.AdmitRF(f.SrcID, f.DstID) {
	case engine.RFDroppedVoteCollision, engine.RFPreemptedByNet:
		e.calls.RF.Lost++
		return false
	case engine.RFAdmitted:
	}

	if e.calls.RFState == engine.Listening {
		e.calls.StartRF(engine.AudioRF, f.SrcID, f.DstID)
	}
	e.calls.RF.Frames++
	e.calls.RFRSSI.Observe(f.RSSI)

	if f.Terminator || f.DUID == p25frame.DUIDTerminator {
		e.calls.EndRF()
	}
	return true
}

// BuildNetworkPayload packages an admitted RF voice frame for FNE
// fan-out.
func (e *Engine) BuildNetworkPayload(peerID uint32, f RFVoiceFrame, data []byte) fne.Payload {
	e.streamSeq++
	return fne.Payload{
		Tag:       fne.TagP25Data,
		Seq:       uint8(e.streamSeq),
		SrcID:     f.SrcID,
		DstID:     f.DstID,
		PeerID:    peerID,
		GroupCall: f.GroupCall,
		VoiceSync: true,
		StreamID:  e.streamSeq,
		Data:      data,
	}
}

// ProcessNetwork implements process_network for an incoming network
// voice payload.
func (e *Engine) ProcessNetwork(p fne.Payload) bool {
	switch e.calls.AdmitNet(p.SrcID, p.DstID) {
	case engine.NetDroppedTGHang, engine.NetPreemptedByRF:
		e.calls.Net.Lost++
		return false
	case engine.NetAdmitted:
	}

	if e.calls.NetState == engine.Listening {
		e.calls.StartNet(engine.AudioNet, p.SrcID, p.DstID)
	}
	e.calls.Net.Frames++
	e.calls.FeedNetworkWatchdog()
	return true
}

// GetFrame implements get_frame: cycles the control-channel TSBK
// sequence (raw back-haul carriage form) when designated TSCC.
func (e *Engine) GetFrame() []byte {
	if !e.isControlChannel {
		return nil
	}
	lco := ccCycle[e.ccIndex%len(ccCycle)]
	e.ccIndex++
	return tsbk.EncodeRaw(tsbk.TSBK{LCO: lco, MFId: 0, Payload: 0})
}

// EnqueueLateEntryGrant builds an SNDCP_CH_GNT-style trunk grant TSBK
// for immediate transmission ahead of the next cycle slot.
func (e *Engine) EnqueueLateEntryGrant(channelNo uint16, dstID uint32) []byte {
	payload := uint64(channelNo)<<32 | uint64(dstID)
	return tsbk.EncodeRaw(tsbk.TSBK{LCO: tsbk.LCOSNDCPChGnt, MFId: 0, Payload: payload})
}

// Clock implements clock(dt_ms): ticks call-state timers and the
// affiliation engine's grant timers.
func (e *Engine) Clock(dt time.Duration) []uint32 {
	e.calls.Tick(dt)
	return e.Aff.Tick(dt)
}
