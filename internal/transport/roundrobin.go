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

package transport

import "sync/atomic"

// MultiSocketReader drains several open UDP sockets (e.g. one IPv4 and
// one IPv6 listener) in round-robin order, per spec.md §4.8's "neither
// family starves" guarantee: a monotonically incrementing counter
// selects which socket is polled next.
type MultiSocketReader struct {
	sockets []*UDPSocket
	next    atomic.Uint64
}

// NewMultiSocketReader wraps the given sockets for round-robin draining.
func NewMultiSocketReader(sockets ...*UDPSocket) *MultiSocketReader {
	return &MultiSocketReader{sockets: sockets}
}

// NextSocket returns the socket to read from next, advancing the
// internal counter. Callers loop calling NextSocket then a
// non-blocking/short-timeout Read on it; on no-data they move to the
// next socket rather than blocking one family out.
func (m *MultiSocketReader) NextSocket() *UDPSocket {
	idx := m.next.Add(1) - 1
	return m.sockets[idx%uint64(len(m.sockets))]
}

// Len returns the number of sockets being drained.
func (m *MultiSocketReader) Len() int { return len(m.sockets) }
