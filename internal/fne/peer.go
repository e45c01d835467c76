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
	"net"
	"time"
)

// ConnectionState is the per-peer handshake state, spec.md §3's
// {WaitingAuth, WaitingConfig, Running}.
type ConnectionState int

const (
	StateWaitingAuth ConnectionState = iota
	StateWaitingConfig
	StateRunning
)

func (s ConnectionState) String() string {
	switch s {
	case StateWaitingAuth:
		return "waiting-auth"
	case StateWaitingConfig:
		return "waiting-config"
	case StateRunning:
		return "running"
	default:
		return "unknown"
	}
}

// Peer is one FNE peer connection, spec.md §3's FNEPeerConnection
// record. At most one Peer exists per PeerID at a time (enforced by
// Server.peers being keyed on PeerID).
type Peer struct {
	PeerID uint32
	Addr   *net.UDPAddr
	Salt   uint32
	State  ConnectionState
	Config map[string]any

	LastPing      time.Time
	PingsReceived uint64
	Connected     bool
}
