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

// Package site holds the immutable site-identity record spec.md §3
// describes: the {network-id, system-id, site-id, rfss-id, channel-id,
// channel-number, base-frequency, ...} tuple mutated only at startup and
// shared by reference into every air-interface engine and link-control
// factory that needs it.
package site

// Bandwidth enumerates the two P25/NXDN channel-bandwidth classes spec.md
// §4.3's IDEN_UP packing distinguishes.
type Bandwidth uint8

const (
	// Bandwidth12500 is the standard 12.5kHz analog-equivalent channel.
	Bandwidth12500 Bandwidth = iota
	// Bandwidth6250 is the narrowband 6.25kHz channel.
	Bandwidth6250
)

// Data is the immutable site-identity record. It is constructed once at
// startup and passed by reference (never copied or mutated afterward)
// into every engine, signalling-block factory, and lookup table that
// needs to read it.
type Data struct {
	NetworkID     uint32
	SystemID      uint32
	SiteID        uint8
	RFSSID        uint8
	ChannelID     uint8
	ChannelNumber uint16

	BaseFrequencyHz     uint64
	ChannelBandwidthKHz float64
	ChannelSpacingKHz   float64
	TxOffsetMHz         float64
	Bandwidth           Bandwidth

	ServiceClass  uint8
	NetworkActive bool

	// LocalTimeOffsetHours is signed, e.g. -5.0 for US Eastern Standard
	// Time, per spec.md §8 scenario 3's SYNC_BCAST example.
	LocalTimeOffsetHours float64
}
