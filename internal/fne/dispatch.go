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
	"bytes"
	"encoding/binary"
	"fmt"
	"log/slog"
	"net"
	"time"
)

// inboundTags lists every tag a peer can originate, longest first so a
// prefix like RPTC never shadows RPTCL.
var inboundTags = []string{
	TagRepeaterPing,
	TagRepeaterClosing,
	TagRepeaterLogin,
	TagRepeaterAuth,
	TagRepeaterConfig,
	TagDMRData,
	TagP25Data,
	TagNXDNData,
}

func splitTag(buf []byte) (tag string, rest []byte, ok bool) {
	for _, t := range inboundTags {
		if len(buf) >= len(t) && bytes.Equal(buf[:len(t)], []byte(t)) {
			return t, buf[len(t):], true
		}
	}
	return "", nil, false
}

func readPeerID(rest []byte) (peerID uint32, body []byte) {
	if len(rest) < 4 {
		return 0, nil
	}
	return binary.BigEndian.Uint32(rest[:4]), rest[4:]
}

// HandleDatagram dispatches one inbound UDP datagram to the matching
// handshake step or, for a DMRD/P25D/NXDD payload, routes and fans it
// out to every permitted peer via Send. It is the single entry point
// production wiring (cmd/root.go) calls from its socket read loop.
func (s *Server) HandleDatagram(buf []byte, addr *net.UDPAddr, now time.Time) error {
	tag, rest, ok := splitTag(buf)
	if !ok {
		return fmt.Errorf("fne: unrecognized or short datagram (%d bytes)", len(buf))
	}

	switch tag {
	case TagRepeaterLogin:
		peerID, _ := readPeerID(rest)
		return s.HandleLogin(peerID, addr)
	case TagRepeaterAuth:
		peerID, body := readPeerID(rest)
		return s.HandleAuth(peerID, body, addr)
	case TagRepeaterConfig:
		peerID, body := readPeerID(rest)
		return s.HandleConfig(peerID, body, addr)
	case TagRepeaterPing:
		peerID, _ := readPeerID(rest)
		return s.HandlePing(peerID, now)
	case TagRepeaterClosing:
		peerID, _ := readPeerID(rest)
		s.HandleClosing(peerID)
		return nil
	case TagDMRData, TagP25Data, TagNXDNData:
		return s.routeAndFanOut(tag, buf, addr)
	default:
		return fmt.Errorf("fne: unhandled tag %q", tag)
	}
}

func (s *Server) routeAndFanOut(tag string, buf []byte, addr *net.UDPAddr) error {
	p, ok := ParsePayload(tag, buf)
	if !ok {
		return fmt.Errorf("fne: malformed %s payload", tag)
	}

	targets, _, firstRejection, err := s.RoutePayload(p, addr)
	if err != nil {
		if firstRejection {
			slog.Warn("fne: payload rejected", "tag", tag, "src", p.SrcID, "dst", p.DstID, "error", err)
		}
		return err
	}

	encoded := EncodePayload(p)
	for _, id := range targets {
		peer, ok := s.Peer(id)
		if !ok || s.Send == nil {
			continue
		}
		if err := s.Send(encoded, peer.Addr); err != nil {
			slog.Warn("fne: fan-out send failed", "peer", id, "tag", tag, "error", err)
		}
	}
	return nil
}
