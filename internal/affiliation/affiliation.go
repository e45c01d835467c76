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

// Package affiliation implements the affiliation/registration table and
// channel-grant engine of spec.md §4.5: per-unit registration, per-group
// affiliation, channel-grant allocation with DMR slot rules, and the
// is_peer_permitted policy gate consulted by the FNE fabric (§4.7) on
// every routed call.
//
// Grounded on original_source/src/dmr/lookups/DMRAffiliationLookup.cpp
// for the DMR-specific slot-selection behavior in grantChannel, and on
// the teacher's per-peer/per-unit concurrent-map idiom seen in
// internal/dmr/hub/routing.go's ID-range classification (xsync.Map
// instead of a plain map + mutex, since this table is read from every
// engine concurrently per spec.md §5's shared-resource policy).
package affiliation

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/puzpuzpuz/xsync/v4"
)

// ErrNoFreeChannel is returned by GrantChannel when the free-channel list
// is exhausted.
var ErrNoFreeChannel = errors.New("affiliation: no free channel available")

// ErrNoFreeSlot is returned by GrantChannel when a DMR engine's first
// free channel has no free slot left (both slots already granted, or the
// slot opposite the TSCC is also in use).
var ErrNoFreeSlot = errors.New("affiliation: no free slot on channel")

// Grant is one active channel-grant record, spec.md §3's "Channel
// grant" data-model entry.
type Grant struct {
	DstID     uint32
	SrcID     uint32
	ChannelNo uint16
	// Slot is 0 for non-DMR engines (single-slot channels).
	Slot uint8
}

type grantState struct {
	Grant
	remainingMs int64
}

// Engine is the per-air-interface-engine affiliation and grant table.
// One Engine instance is owned by each engine (spec.md §5: "Grant state
// is owned by each engine's affiliations instance").
type Engine struct {
	dmr          bool
	tsccEnabled  bool
	tsccChannel  uint16
	freeChannels []uint16
	usedSlots    map[uint16]map[uint8]bool // DMR only; guarded by chMu

	registrations *xsync.Map[uint32, time.Time]   // src-id -> last-seen
	affiliations  *xsync.Map[uint32, *xsync.Map[uint32, struct{}]] // dst-group -> src-id set
	grants        *xsync.Map[uint32, *grantState]                 // dst-id -> grant

	metrics *metrics
}

type metrics struct {
	granted  prometheus.Counter
	released prometheus.Counter
	denied   prometheus.Counter
	expired  prometheus.Counter
	active   prometheus.Gauge
}

func newMetrics(engineLabel string) *metrics {
	m := &metrics{
		granted: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "dvmcore_affiliation_grants_total",
			Help:        "Total channel grants issued.",
			ConstLabels: prometheus.Labels{"engine": engineLabel},
		}),
		released: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "dvmcore_affiliation_releases_total",
			Help:        "Total channel grants released (normal or forced).",
			ConstLabels: prometheus.Labels{"engine": engineLabel},
		}),
		denied: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "dvmcore_affiliation_grant_denials_total",
			Help:        "Total channel grant requests rejected (no channel/slot free).",
			ConstLabels: prometheus.Labels{"engine": engineLabel},
		}),
		expired: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "dvmcore_affiliation_grant_timeouts_total",
			Help:        "Total channel grants force-released by timer expiry.",
			ConstLabels: prometheus.Labels{"engine": engineLabel},
		}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "dvmcore_affiliation_active_grants",
			Help:        "Currently active channel grants.",
			ConstLabels: prometheus.Labels{"engine": engineLabel},
		}),
	}
	return m
}

// Collectors returns every prometheus collector so callers can register
// them against their own registry (the engine does not self-register,
// matching spec.md §1's stance that logging/metrics sinks are thin
// collaborators outside the CORE).
func (e *Engine) Collectors() []prometheus.Collector {
	return []prometheus.Collector{e.metrics.granted, e.metrics.released, e.metrics.denied, e.metrics.expired, e.metrics.active}
}

// NewDMR constructs a two-slot DMR affiliation engine over the given
// repeater channel numbers. If tsccEnabled, grantChannel on tsccChannel
// picks the slot opposite the control channel's reserved slot first.
func NewDMR(engineLabel string, channels []uint16, tsccEnabled bool, tsccChannel uint16) *Engine {
	usedSlots := map[uint16]map[uint8]bool{}
	if tsccEnabled {
		// Slot 1 on the TSCC channel carries the control signalling
		// itself and is never grantable; only slot 2 is ever free.
		usedSlots[tsccChannel] = map[uint8]bool{1: true}
	}
	return &Engine{
		dmr:           true,
		tsccEnabled:   tsccEnabled,
		tsccChannel:   tsccChannel,
		freeChannels:  append([]uint16{}, channels...),
		usedSlots:     usedSlots,
		registrations: xsync.NewMap[uint32, time.Time](),
		affiliations:  xsync.NewMap[uint32, *xsync.Map[uint32, struct{}]](),
		grants:        xsync.NewMap[uint32, *grantState](),
		metrics:       newMetrics(engineLabel),
	}
}

// NewSingleSlot constructs a single-slot-per-channel affiliation engine
// for P25 or NXDN, where a channel-number carries at most one grant.
func NewSingleSlot(engineLabel string, channels []uint16) *Engine {
	return &Engine{
		dmr:           false,
		freeChannels:  append([]uint16{}, channels...),
		registrations: xsync.NewMap[uint32, time.Time](),
		affiliations:  xsync.NewMap[uint32, *xsync.Map[uint32, struct{}]](),
		grants:        xsync.NewMap[uint32, *grantState](),
		metrics:       newMetrics(engineLabel),
	}
}

// Register stamps the last-seen time for a unit registration.
func (e *Engine) Register(srcID uint32, now time.Time) {
	e.registrations.Store(srcID, now)
}

// LastSeen returns the last registration time for srcID, if any.
func (e *Engine) LastSeen(srcID uint32) (time.Time, bool) {
	return e.registrations.Load(srcID)
}

// Affiliate records srcID as affiliated with the group dstID.
func (e *Engine) Affiliate(dstID, srcID uint32) {
	set, _ := e.affiliations.LoadOrCompute(dstID, func() (*xsync.Map[uint32, struct{}], bool) {
		return xsync.NewMap[uint32, struct{}](), false
	})
	set.Store(srcID, struct{}{})
}

// Unaffiliate removes srcID's affiliation with the group dstID.
func (e *Engine) Unaffiliate(dstID, srcID uint32) {
	set, ok := e.affiliations.Load(dstID)
	if !ok {
		return
	}
	set.Delete(srcID)
}

// IsAffiliated reports whether any unit is currently affiliated with the
// group dstID, per spec.md §4.5's affiliated-TG gate.
func (e *Engine) IsAffiliated(dstID uint32) bool {
	set, ok := e.affiliations.Load(dstID)
	if !ok {
		return false
	}
	found := false
	set.Range(func(uint32, struct{}) bool {
		found = true
		return false
	})
	return found
}

// FindGrant returns the active grant for dstID, if any.
func (e *Engine) FindGrant(dstID uint32) (Grant, bool) {
	g, ok := e.grants.Load(dstID)
	if !ok {
		return Grant{}, false
	}
	return g.Grant, true
}

// GrantChannel implements spec.md §4.5's grant_ch procedure: pick the
// first free channel, select a DMR slot per the TSCC/slot-1-else-slot-2
// rule, publish the grant, and start its timeout. Per spec.md §3's
// channel-grant invariant, a channel-number carries at most one grant —
// the TSCC exception is that its reserved control slot doesn't count as
// a grant, so the channel still yields exactly one further voice grant
// before leaving the free list like any other channel.
func (e *Engine) GrantChannel(dstID, srcID uint32, timeout time.Duration) (Grant, error) {
	if len(e.freeChannels) == 0 {
		e.metrics.denied.Inc()
		return Grant{}, ErrNoFreeChannel
	}
	ch := e.freeChannels[0]

	var slot uint8
	if e.dmr {
		used := e.usedSlots[ch]
		if used == nil {
			used = map[uint8]bool{}
			e.usedSlots[ch] = used
		}
		switch {
		case e.tsccEnabled && ch == e.tsccChannel:
			if !used[2] {
				slot = 2
			} else if !used[1] {
				slot = 1
			} else {
				e.metrics.denied.Inc()
				return Grant{}, ErrNoFreeSlot
			}
		case !used[1]:
			slot = 1
		case !used[2]:
			slot = 2
		default:
			e.metrics.denied.Inc()
			return Grant{}, ErrNoFreeSlot
		}
		used[slot] = true
	}
	e.freeChannels = e.freeChannels[1:]

	g := &grantState{
		Grant:       Grant{DstID: dstID, SrcID: srcID, ChannelNo: ch, Slot: slot},
		remainingMs: timeout.Milliseconds(),
	}
	e.grants.Store(dstID, g)
	e.metrics.granted.Inc()
	e.metrics.active.Inc()
	return g.Grant, nil
}

// ReleaseGrant stops the grant's timer (logically; see Tick) and
// restores its channel/slot to the free pool.
func (e *Engine) ReleaseGrant(dstID uint32) {
	e.release(dstID)
}

// ReleaseAll force-releases every active grant, spec.md §4.5's
// release_grant(0, release_all=true).
func (e *Engine) ReleaseAll() {
	var dsts []uint32
	e.grants.Range(func(dst uint32, _ *grantState) bool {
		dsts = append(dsts, dst)
		return true
	})
	for _, dst := range dsts {
		e.release(dst)
	}
}

func (e *Engine) release(dstID uint32) {
	g, ok := e.grants.LoadAndDelete(dstID)
	if !ok {
		return
	}
	e.metrics.released.Inc()
	e.metrics.active.Dec()

	if used := e.usedSlots[g.ChannelNo]; used != nil {
		delete(used, g.Slot)
	}

	for _, c := range e.freeChannels {
		if c == g.ChannelNo {
			return
		}
	}
	e.freeChannels = append(e.freeChannels, g.ChannelNo)
}

// Tick advances every active grant's timer by dt and force-releases any
// that expired, returning the set of dst-ids released this way so the
// caller can log the release reason (spec.md §5: "Timer expiry forces
// grant release and prints the release reason").
func (e *Engine) Tick(dt time.Duration) []uint32 {
	dtMs := dt.Milliseconds()
	var expired []uint32
	e.grants.Range(func(dst uint32, g *grantState) bool {
		g.remainingMs -= dtMs
		if g.remainingMs <= 0 {
			expired = append(expired, dst)
		}
		return true
	})
	for _, dst := range expired {
		e.release(dst)
		e.metrics.expired.Inc()
	}
	return expired
}

// IsPeerPermitted implements spec.md §4.5's is_peer_permitted: private
// calls are always permitted; otherwise inclusion (if non-empty) governs
// exclusively, else exclusion (if non-empty); an affiliated-only group
// additionally requires a live affiliation for dstID.
func (e *Engine) IsPeerPermitted(peer, dstID uint32, private bool, inclusion, exclusion []uint32, affiliatedOnly bool) bool {
	if private {
		return true
	}

	permitted := true
	switch {
	case len(inclusion) > 0:
		permitted = contains(inclusion, peer)
	case len(exclusion) > 0:
		permitted = !contains(exclusion, peer)
	}
	if !permitted {
		return false
	}
	if affiliatedOnly {
		return e.IsAffiliated(dstID)
	}
	return true
}

func contains(list []uint32, v uint32) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
