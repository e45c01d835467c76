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

// Package engine implements the call-state machine shared by every
// air-interface engine (spec.md §4.6): the {Listening, Audio_RF,
// Audio_Net, Data_RF, Data_Net, Rejected} states, the RF<->Net collision
// guard, the RF-TG-hang timer, and the per-call counters. DMR, P25 and
// NXDN engines each embed one CallState per independently-arbitrated
// traffic path (DMR: one per slot; P25/NXDN: one for the whole channel).
//
// Grounded on spec.md §4.6's prose state-machine description (no single
// original_source file holds this exact shape; DMRHub's hub package
// routing state in internal/dmr/hub informed the "last dst/src,
// times-out-via-clock-tick" structuring idiom adapted here).
package engine

import "time"

// State is one of the six call states a traffic path can occupy.
type State int

const (
	Listening State = iota
	AudioRF
	AudioNet
	DataRF
	DataNet
	Rejected
)

func (s State) String() string {
	switch s {
	case Listening:
		return "listening"
	case AudioRF:
		return "audio-rf"
	case AudioNet:
		return "audio-net"
	case DataRF:
		return "data-rf"
	case DataNet:
		return "data-net"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Counters tracks per-call statistics, spec.md §3's "per-call counters".
type Counters struct {
	Frames uint64
	Bits   uint64
	Errors uint64
	Lost   uint64
	Missed uint64
}

// RSSIStats accumulates a running mean/min/max over a call, spec.md §3's
// "running RSSI statistics".
type RSSIStats struct {
	Count int
	Sum   int64
	Min   int
	Max   int
}

// Observe folds one RSSI sample (signed dBm-ish scale) into the running
// statistics.
func (r *RSSIStats) Observe(v int) {
	if r.Count == 0 || v < r.Min {
		r.Min = v
	}
	if r.Count == 0 || v > r.Max {
		r.Max = v
	}
	r.Sum += int64(v)
	r.Count++
}

// Mean returns the running average RSSI, or 0 if no samples were
// observed.
func (r *RSSIStats) Mean() float64 {
	if r.Count == 0 {
		return 0
	}
	return float64(r.Sum) / float64(r.Count)
}

// CallState holds one traffic path's arbitration state: independent
// rf_state/net_state, the last destination seen on each side, the
// RF-TG-hang timer, and timeout timers. Tick(dt) advances every timer and
// returns a TickResult whose RFExpired/NetExpired/HangExpired/WatchdogExpired
// flags tell callers what expired during that tick.
type CallState struct {
	RFState  State
	NetState State

	RFLastDstID  uint32
	RFLastSrcID  uint32
	NetLastDstID uint32
	NetLastSrcID uint32

	RFTimeout      time.Duration
	NetTimeout     time.Duration
	TGHang         time.Duration
	NetworkWatchdog time.Duration

	rfRemaining      time.Duration
	netRemaining     time.Duration
	hangRemaining    time.Duration
	watchdogRemaining time.Duration

	RF  Counters
	Net Counters

	RFRSSI RSSIStats
}

// NewCallState constructs an idle CallState with the given timeout
// durations; a zero duration disables that timer.
func NewCallState(rfTimeout, netTimeout, tgHang, networkWatchdog time.Duration) *CallState {
	return &CallState{
		RFState:         Listening,
		NetState:        Listening,
		RFTimeout:       rfTimeout,
		NetTimeout:      netTimeout,
		TGHang:          tgHang,
		NetworkWatchdog: networkWatchdog,
	}
}

// StartRF transitions into rfState (Audio_RF or Data_RF), arming the RF
// timeout timer and recording the stream identity.
func (c *CallState) StartRF(rfState State, srcID, dstID uint32) {
	c.RFState = rfState
	c.RFLastSrcID = srcID
	c.RFLastDstID = dstID
	c.rfRemaining = c.RFTimeout
	c.RF = Counters{}
	c.RFRSSI = RSSIStats{}
}

// EndRF returns the path to Listening and, if TGHang is configured,
// starts the RF-TG-hang timer so a same-dst Net call is briefly favored.
func (c *CallState) EndRF() {
	c.RFState = Listening
	if c.TGHang > 0 {
		c.hangRemaining = c.TGHang
	}
}

// StartNet transitions into netState (Audio_Net or Data_Net), arming the
// network timeout and watchdog timers.
func (c *CallState) StartNet(netState State, srcID, dstID uint32) {
	c.NetState = netState
	c.NetLastSrcID = srcID
	c.NetLastDstID = dstID
	c.netRemaining = c.NetTimeout
	c.watchdogRemaining = c.NetworkWatchdog
	c.Net = Counters{}
}

// EndNet returns the network path to Listening.
func (c *CallState) EndNet() {
	c.NetState = Listening
}

// FeedNetworkWatchdog re-arms the watchdog timer; called on every
// network frame received during an active net call.
func (c *CallState) FeedNetworkWatchdog() {
	c.watchdogRemaining = c.NetworkWatchdog
}

// TickResult reports which timers expired on a given Tick call.
type TickResult struct {
	RFExpired       bool
	NetExpired      bool
	HangExpired     bool
	WatchdogExpired bool
}

// Tick advances every armed timer by dt and reports which ones expired
// this tick (an already-expired/disabled timer never re-fires). On
// RFExpired/NetExpired the corresponding path is reset to Listening.
func (c *CallState) Tick(dt time.Duration) TickResult {
	var r TickResult

	if c.RFState != Listening && c.rfRemaining > 0 {
		c.rfRemaining -= dt
		if c.rfRemaining <= 0 {
			r.RFExpired = true
			c.RFState = Listening
		}
	}
	if c.NetState != Listening && c.netRemaining > 0 {
		c.netRemaining -= dt
		if c.netRemaining <= 0 {
			r.NetExpired = true
			c.NetState = Listening
		}
	}
	if c.hangRemaining > 0 {
		c.hangRemaining -= dt
		if c.hangRemaining <= 0 {
			r.HangExpired = true
			c.hangRemaining = 0
		}
	}
	if c.NetState != Listening && c.NetworkWatchdog > 0 && c.watchdogRemaining > 0 {
		c.watchdogRemaining -= dt
		if c.watchdogRemaining <= 0 {
			r.WatchdogExpired = true
			c.NetState = Listening
		}
	}
	return r
}

// hangActive reports whether the RF-TG-hang timer is still running.
func (c *CallState) hangActive() bool {
	return c.hangRemaining > 0
}

// RFArbitration is the outcome of AdmitRF's collision-guard evaluation.
type RFArbitration int

const (
	// RFAdmitted means the RF stream may proceed (preempting any active
	// net call).
	RFAdmitted RFArbitration = iota
	// RFPreemptedByNet means net traffic wins; the RF frame is dropped
	// and RF state is reset.
	RFPreemptedByNet
	// RFDroppedVoteCollision means the RF frame is a different call
	// colliding with an established net call from the same source to a
	// different destination; it is dropped without resetting net state.
	RFDroppedVoteCollision
)

// AdmitRF implements spec.md §4.6's RF<->Net collision guard for an
// incoming RF frame with the given src/dst. Call this before starting or
// continuing an RF stream. Per the canonical collision guard: a dst
// match with the active net call means net traffic wins and the new RF
// is preempted/reset; a same-source vote collision against a
// differently-destined net call also drops the new RF without
// disturbing net; otherwise RF wins and the net call is torn down.
func (c *CallState) AdmitRF(srcID, dstID uint32) RFArbitration {
	if c.NetState == Listening {
		return RFAdmitted
	}
	if dstID == c.NetLastDstID {
		c.EndRF()
		return RFPreemptedByNet
	}
	if srcID == c.NetLastSrcID {
		c.EndRF()
		return RFDroppedVoteCollision
	}
	c.EndNet()
	return RFAdmitted
}

// NetArbitration is the outcome of AdmitNet's collision-guard evaluation.
type NetArbitration int

const (
	NetAdmitted NetArbitration = iota
	NetPreemptedByRF
	NetDroppedTGHang
)

// AdmitNet implements the symmetric Net<->RF collision guard, plus the
// RF-TG-hang rule: when the RF path's last destination differs from the
// incoming network destination and the hang timer is still running, the
// incoming network frame is dropped rather than preempting RF. A dst
// match with the active RF call means RF wins and the new net frame is
// preempted/dropped rather than tearing down RF.
func (c *CallState) AdmitNet(srcID, dstID uint32) NetArbitration {
	if c.RFState == Listening {
		if c.RFLastDstID != dstID && c.hangActive() {
			return NetDroppedTGHang
		}
		return NetAdmitted
	}
	if dstID == c.RFLastDstID {
		c.EndNet()
		return NetPreemptedByRF
	}
	return NetDroppedTGHang
}
