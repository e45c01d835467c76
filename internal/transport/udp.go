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

// Package transport implements the socket layer of spec.md §4.8: a
// connectionless UDP socket (OpenUDP; Read, Write, WriteBatch, Close) and
// a stream TCP socket (OpenTCP/DialTCP; Read, Write, Close, with no peer
// address arguments and no WriteBatch), optional AES-256-ECB
// datagram wrapping, and round-robin draining across multiple open
// sockets (e.g. one per address family) so neither starves.
//
// Grounded on internal/dmr/servers/hbrp/server.go's net.ListenUDP/
// ReadFromUDP/WriteToUDP buffer-size-and-listen pattern and
// internal/dmr/servers/openbridge/server.go's authenticated-datagram
// wrap idiom (HMAC there; AES-256-ECB here per spec.md §4.8 — both wrap
// conventions coexist in this module, one per transport concern).
package transport

import (
	"net"
	"strconv"
)

// MaxDatagramSize is the UDP receive buffer size, matching the
// MTU-bounded payloads spec.md §6's wire-protocol table describes.
const MaxDatagramSize = 65507

// UDPSocket is a connectionless IPv4/IPv6 UDP socket. The zero value is
// not usable; construct with OpenUDP.
type UDPSocket struct {
	conn *net.UDPConn
	wrap *AESWrap // nil when preshared-key wrapping is disabled
}

// OpenUDP binds a UDP socket to address:port. net.ListenUDP accepts
// both "udp4" and "udp6" network names; "udp" binds dual-stack when the
// platform supports it.
func OpenUDP(network, address string, port int) (*UDPSocket, error) {
	addr, err := net.ResolveUDPAddr(network, net.JoinHostPort(address, strconv.Itoa(port)))
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenUDP(network, addr)
	if err != nil {
		return nil, err
	}
	return &UDPSocket{conn: conn}, nil
}

// SetAESWrap enables AES-256-ECB datagram wrapping with the given
// wrapper (built from a 32-byte key by NewAESWrap), per spec.md §4.8/§6. Passing a nil wrap disables it.
func (s *UDPSocket) SetAESWrap(w *AESWrap) { s.wrap = w }

// Read blocks for the next datagram, unwrapping it first if AES wrap is
// enabled. A datagram missing the wrap magic while wrapping is enabled
// is silently discarded (spec.md §4.8) and Read tries again.
func (s *UDPSocket) Read(buf []byte) (int, *net.UDPAddr, error) {
	for {
		n, addr, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			return 0, addr, err
		}
		if s.wrap == nil {
			return n, addr, nil
		}
		plain, ok := s.wrap.Unwrap(buf[:n])
		if !ok {
			continue
		}
		copy(buf, plain)
		return len(plain), addr, nil
	}
}

// Write sends one datagram to addr, wrapping it first if AES wrap is
// enabled.
func (s *UDPSocket) Write(buf []byte, addr *net.UDPAddr) (int, error) {
	payload := buf
	if s.wrap != nil {
		payload = s.wrap.Wrap(buf)
	}
	return s.conn.WriteToUDP(payload, addr)
}

// WriteBatch sends every buffer to addr. Go's standard library has no
// portable sendmmsg binding, so this issues one WriteToUDP per buffer;
// spec.md §5's "single kernel scheduling quantum" batching guarantee is
// best-effort on platforms without vectored UDP send, same tradeoff the
// teacher's hbrp/openbridge servers make by writing one datagram at a
// time.
func (s *UDPSocket) WriteBatch(bufs [][]byte, addr *net.UDPAddr) (int, error) {
	total := 0
	for _, b := range bufs {
		n, err := s.Write(b, addr)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// LocalAddr returns the socket's bound local address.
func (s *UDPSocket) LocalAddr() net.Addr { return s.conn.LocalAddr() }

// Close releases the socket.
func (s *UDPSocket) Close() error { return s.conn.Close() }
