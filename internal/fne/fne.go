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
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/binary"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"time"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/USA-RedDragon/dvmcore/internal/fne/relay"
)

// ErrPeerUnknown is returned by handlers that require an existing
// connection (AUTH/CONFIG/PING/payload tags) when no REPEATER_LOGIN has
// been seen for that peer ID yet.
var ErrPeerUnknown = errors.New("fne: unknown peer")

// Server is the FNE peer fabric: a UDP control-plane listener, the peer
// connection table, and the per-tag Taggers used to route DMR/P25/NXDN
// payload datagrams. Exactly one Server per fleet-facing UDP port.
type Server struct {
	Password       string
	PingInterval   time.Duration
	MaxMissedPings uint32

	peers   *xsync.Map[uint32, *Peer]
	taggers map[string]*Tagger

	rejectedOnce *xsync.Map[uint32, struct{}] // debounce: one log line per new offending src-id

	// relayBus fans locally-routed payloads out to other FNE processes
	// sharing this fleet over Redis Pub/Sub (internal/fne/relay); nil
	// means single-process mode, the spec.md §5 default.
	relayBus *relay.Bus

	// Send is how the server writes a reply datagram; abstracted behind
	// a func so unit tests don't need a live socket (the production
	// wiring passes *transport.UDPSocket.Write).
	Send func(buf []byte, addr *net.UDPAddr) error
}

// NewServer constructs an empty peer fabric. RegisterTagger must be
// called once per payload tag (DMRD/P25D/NXDD) before routing works.
func NewServer(password string, pingInterval time.Duration, maxMissedPings uint32) *Server {
	return &Server{
		Password:       password,
		PingInterval:   pingInterval,
		MaxMissedPings: maxMissedPings,
		peers:          xsync.NewMap[uint32, *Peer](),
		taggers:        map[string]*Tagger{},
		rejectedOnce:   xsync.NewMap[uint32, struct{}](),
	}
}

// RegisterTagger wires the routing policy for one payload tag.
func (s *Server) RegisterTagger(t *Tagger) {
	s.taggers[t.Tag] = t
}

// SetRelay wires an optional cross-process relay bus. Every payload
// this Server routes locally is also published on bus so sibling FNE
// processes (sharing the fleet, each owning a disjoint set of peer UDP
// sockets) can re-route it through their own local peer table.
func (s *Server) SetRelay(bus *relay.Bus) {
	s.relayBus = bus
}

// IngestRelayed decodes an Envelope received from another FNE process
// (via relay.Bus.Subscribe) and reports the local peers it should be
// forwarded to. Unlike RoutePayload, no ACL/rule re-validation is
// performed: the originating process already applied policy, and the
// relay channel is a trusted inter-process link.
func (s *Server) IngestRelayed(env relay.Envelope) (Payload, []uint32, bool) {
	p, ok := ParsePayload(env.Tag, env.Datagram)
	if !ok {
		return Payload{}, nil, false
	}
	return p, s.RunningPeers(0), true
}

// Peer returns the connection for peerID, if any.
func (s *Server) Peer(peerID uint32) (*Peer, bool) {
	return s.peers.Load(peerID)
}

// RunningPeers returns the peer IDs of every connection currently in
// the Running state, excluding excludePeerID (typically the sender of
// the frame being routed).
func (s *Server) RunningPeers(excludePeerID uint32) []uint32 {
	var ids []uint32
	s.peers.Range(func(id uint32, p *Peer) bool {
		if id != excludePeerID && p.State == StateRunning {
			ids = append(ids, id)
		}
		return true
	})
	return ids
}

func randomSalt() uint32 {
	var b [4]byte
	_, _ = rand.Read(b[:])
	return binary.BigEndian.Uint32(b[:])
}

// HandleLogin implements spec.md §4.7 handshake step 1:
// REPEATER_LOGIN peer_id -> draw a salt, create the connection in
// WaitingAuth, reply REPEATER_ACK salt.
func (s *Server) HandleLogin(peerID uint32, addr *net.UDPAddr) error {
	salt := randomSalt()
	s.peers.Store(peerID, &Peer{
		PeerID: peerID,
		Addr:   addr,
		Salt:   salt,
		State:  StateWaitingAuth,
	})
	return s.reply(TagRepeaterAck, peerID, saltPayload(salt), addr)
}

// HandleAuth implements handshake step 2: REPEATER_AUTH peer_id hash ->
// compare against SHA256(salt||password); on match advance to
// WaitingConfig, on mismatch send MASTER_NAK and delete the connection.
func (s *Server) HandleAuth(peerID uint32, hash []byte, addr *net.UDPAddr) error {
	p, ok := s.peers.Load(peerID)
	if !ok {
		return ErrPeerUnknown
	}

	h := sha256.New()
	var saltBuf [4]byte
	binary.BigEndian.PutUint32(saltBuf[:], p.Salt)
	h.Write(saltBuf[:])
	h.Write([]byte(s.Password))
	want := h.Sum(nil)

	if subtle.ConstantTimeCompare(want, hash) != 1 {
		s.peers.Delete(peerID)
		if err := s.reply(TagMasterNak, peerID, nil, addr); err != nil {
			return err
		}
		return errors.New("fne: auth hash mismatch for peer")
	}

	p.State = StateWaitingConfig
	return s.reply(TagRepeaterAck, peerID, nil, addr)
}

// HandleConfig implements handshake step 3: REPEATER_CONFIG peer_id
// json_body -> store config, advance to Running, reply REPEATER_ACK.
func (s *Server) HandleConfig(peerID uint32, body []byte, addr *net.UDPAddr) error {
	p, ok := s.peers.Load(peerID)
	if !ok {
		return ErrPeerUnknown
	}

	var cfg map[string]any
	if err := json.Unmarshal(body, &cfg); err != nil {
		return err
	}
	p.Config = cfg
	p.State = StateRunning
	p.Connected = true
	return s.reply(TagRepeaterAck, peerID, nil, addr)
}

// HandlePing implements handshake step 4: bump pings_received and stamp
// last_ping.
func (s *Server) HandlePing(peerID uint32, now time.Time) error {
	p, ok := s.peers.Load(peerID)
	if !ok {
		return ErrPeerUnknown
	}
	p.PingsReceived++
	p.LastPing = now
	return nil
}

// HandleClosing implements handshake step 5: REPEATER_CLOSING deletes
// the connection immediately.
func (s *Server) HandleClosing(peerID uint32) {
	s.peers.Delete(peerID)
}

// EvictStalePeers implements the ping-timeout half of spec.md §3's
// connection invariant: a peer with no PING for
// ping_interval * max_missed_pings is removed. Returns the evicted peer
// IDs so the caller can log the eviction.
func (s *Server) EvictStalePeers(now time.Time) []uint32 {
	timeout := s.PingInterval * time.Duration(s.MaxMissedPings)
	var evicted []uint32
	s.peers.Range(func(id uint32, p *Peer) bool {
		if p.State == StateRunning && now.Sub(p.LastPing) > timeout {
			evicted = append(evicted, id)
		}
		return true
	})
	for _, id := range evicted {
		s.peers.Delete(id)
	}
	return evicted
}

// RoutePayload implements spec.md §4.7's tagged-payload routing: look up
// the sender, reject if not Running or the source address differs,
// validate ACL/rule, compute the permitted receiver set, and return the
// encoded datagrams to fan out. A rejection is returned as an error
// along with a flag telling the caller whether this is a new offender
// (debounced per spec.md §7's "one log line per new offender").
func (s *Server) RoutePayload(p Payload, fromAddr *net.UDPAddr) (targets []uint32, rule any, firstRejection bool, err error) {
	tagger, ok := s.taggers[p.Tag]
	if !ok {
		return nil, nil, false, errors.New("fne: no tagger registered for tag " + p.Tag)
	}

	sender, ok := s.peers.Load(p.PeerID)
	if !ok || sender.State != StateRunning {
		return nil, nil, false, ErrPeerUnknown
	}
	if fromAddr != nil && sender.Addr != nil && fromAddr.String() != sender.Addr.String() {
		return nil, nil, false, errors.New("fne: source address mismatch for peer")
	}

	groupRule, verr := tagger.Validate(p)
	if verr != nil {
		_, seen := s.rejectedOnce.LoadOrStore(p.SrcID, struct{}{})
		return nil, nil, !seen, verr
	}
	s.rejectedOnce.Delete(p.SrcID)

	candidates := s.RunningPeers(p.PeerID)
	targets = tagger.PermittedReceivers(p, groupRule, candidates)

	if s.relayBus != nil {
		go func(p Payload) {
			if err := s.relayBus.Publish(context.Background(), p.Tag, EncodePayload(p)); err != nil {
				slog.Warn("fne: relay publish failed", "tag", p.Tag, "stream", p.StreamID, "error", err)
			}
		}(p)
	}

	return targets, groupRule, false, nil
}

func (s *Server) reply(tag string, peerID uint32, body []byte, addr *net.UDPAddr) error {
	if s.Send == nil {
		return nil
	}
	buf := make([]byte, len(tag)+4+len(body))
	copy(buf, tag)
	binary.BigEndian.PutUint32(buf[len(tag):], peerID)
	copy(buf[len(tag)+4:], body)
	if err := s.Send(buf, addr); err != nil {
		slog.Warn("fne: reply send failed", "peer", peerID, "tag", tag, "error", err)
		return err
	}
	return nil
}

func saltPayload(salt uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], salt)
	return b[:]
}
