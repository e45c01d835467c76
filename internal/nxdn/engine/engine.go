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

// Package engine implements the NXDN air-interface engine of spec.md
// §4.6: one FDMA channel's voice/data/trunk call state and the
// RCCH-driven control-channel cycle.
//
// Grounded on spec.md §4.6's outer-API prose, internal/engine.CallState
// for the shared collision guard, and internal/nxdn/lc/rcch for the
// SITE_INFO/DST_ID_INFO control-channel signalling.
package engine

import (
	"log/slog"
	"time"

	"github.com/USA-RedDragon/dvmcore/internal/affiliation"
	"github.com/USA-RedDragon/dvmcore/internal/engine"
	"github.com/USA-RedDragon/dvmcore/internal/fne"
	"github.com/USA-RedDragon/dvmcore/internal/lookups/radioid"
	"github.com/USA-RedDragon/dvmcore/internal/lookups/talkgroups"
	"github.com/USA-RedDragon/dvmcore/internal/nxdn/lc/rcch"
	"github.com/USA-RedDragon/dvmcore/internal/site"
)

// Engine runs one NXDN channel's call state, trunk-grant signalling, and
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

// New constructs an idle NXDN engine.
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

// PermittedTG reports whether dst is an active talkgroup rule.
func (e *Engine) PermittedTG(dst uint32) bool {
	rule := e.Rules.Find(dst, 0)
	return !rule.IsInvalid() && rule.Config.Active
}

// Affiliations exposes the affiliation engine backing this channel.
func (e *Engine) Affiliations() *affiliation.Engine { return e.Aff }

// RFVoiceFrame is one decoded RF voice unit's relevant fields (a
// SACCH/FACCH1 LC summary), already past LICH/sync detection.
type RFVoiceFrame struct {
	SrcID      uint32
	DstID      uint32
	GroupCall  bool
	Terminator bool
	RSSI       int
}

// ProcessFrame implements process_frame for an RF voice unit.
func (e *Engine) ProcessFrame(f RFVoiceFrame) bool {
	if !e.Radios.Permitted(f.SrcID) {
		slog.Warn("nxdn: rf frame rejected, source not permitted", "src", f.SrcID)
		return false
	}
	if f.GroupCall {
		rule := e.Rules.Find(f.DstID, 0)
		if rule.IsInvalid() || !rule.Config.Active {
			slog.Warn("nxdn: rf frame rejected, destination not permitted", "dst", f.DstID)
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

	if f.Terminator {
		e.calls.EndRF()
	}
	return true
}

// BuildNetworkPayload packages an admitted RF voice frame for FNE
// fan-out.
func (e *Engine) BuildNetworkPayload(peerID uint32, f RFVoiceFrame, data []byte) fne.Payload {
	e.streamSeq++
	return fne.Payload{
		Tag:       fne.TagNXDNData,
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

// GetFrame implements get_frame: cycles SITE_INFO/DST_ID_INFO RCCH
// messages when designated control channel, per spec.md §4.3's SITE_INFO
// network-active-flag behavior.
func (e *Engine) GetFrame() []byte {
	if !e.isControlChannel {
		return nil
	}
	e.ccIndex++
	if e.ccIndex%2 == 1 {
		return rcch.EncodeSiteInfo(rcch.SiteInfo{
			LocationID:    uint32(e.Site.SystemID)<<8 | uint32(e.Site.SiteID),
			ServiceClass:  e.Site.ServiceClass,
			NetworkActive: e.Site.NetworkActive,
			ChannelNo:     e.Site.ChannelNumber,
		})
	}
	return rcch.EncodeDstIDInfo(rcch.DstIDInfo{})
}

// EnqueueLateEntryGrant builds and returns a DST_ID_INFO advertisement
// for the granted destination; it does not queue it, and GetFrame's
// cycle is unchanged.
func (e *Engine) EnqueueLateEntryGrant(dstID uint32) []byte {
	return rcch.EncodeDstIDInfo(rcch.DstIDInfo{DstID: uint16(dstID)})
}

// Clock implements clock(dt_ms): ticks call-state timers and the
// affiliation engine's grant timers.
func (e *Engine) Clock(dt time.Duration) []uint32 {
	e.calls.Tick(dt)
	return e.Aff.Tick(dt)
}
