package fne_test

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/USA-RedDragon/dvmcore/internal/affiliation"
	"github.com/USA-RedDragon/dvmcore/internal/fne"
	"github.com/USA-RedDragon/dvmcore/internal/fne/relay"
	"github.com/USA-RedDragon/dvmcore/internal/lookups/radioid"
	"github.com/USA-RedDragon/dvmcore/internal/lookups/talkgroups"
)

func relayEnvelope(tag string, datagram []byte) relay.Envelope {
	return relay.Envelope{Tag: tag, OriginPID: 0xFEED, Datagram: datagram}
}

func newRadioIDLookup(t *testing.T) *radioid.Lookup {
	t.Helper()
	path := filepath.Join(t.TempDir(), "radioid.csv")
	if err := os.WriteFile(path, []byte("100,true\n200,true\n300,true\n"), 0o600); err != nil {
		t.Fatalf("write radioid fixture: %v", err)
	}
	l, err := radioid.New(path, 0, true)
	if err != nil {
		t.Fatalf("radioid.New: %v", err)
	}
	return l
}

func newTalkgroupsLookup(t *testing.T) *talkgroups.Lookup {
	t.Helper()
	path := filepath.Join(t.TempDir(), "talkgroups.yaml")
	if err := os.WriteFile(path, []byte("groupVoice: []\n"), 0o600); err != nil {
		t.Fatalf("write talkgroups fixture: %v", err)
	}
	l, err := talkgroups.New(path, 0, true)
	if err != nil {
		t.Fatalf("talkgroups.New: %v", err)
	}
	return l
}

func authHash(salt uint32, password string) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], salt)
	h := sha256.New()
	h.Write(b[:])
	h.Write([]byte(password))
	return h.Sum(nil)
}

func TestHandshakeAdvancesToRunning(t *testing.T) {
	s := fne.NewServer("secret", time.Second, 3)
	addr := &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 62031}

	if err := s.HandleLogin(1, addr); err != nil {
		t.Fatalf("HandleLogin: %v", err)
	}
	p, ok := s.Peer(1)
	if !ok || p.State != fne.StateWaitingAuth {
		t.Fatalf("expected waiting-auth, got %+v", p)
	}

	if err := s.HandleAuth(1, authHash(p.Salt, "secret"), addr); err != nil {
		t.Fatalf("HandleAuth: %v", err)
	}
	p, _ = s.Peer(1)
	if p.State != fne.StateWaitingConfig {
		t.Fatalf("expected waiting-config, got %v", p.State)
	}

	body, _ := json.Marshal(map[string]any{"Callsign": "W1AW"})
	if err := s.HandleConfig(1, body, addr); err != nil {
		t.Fatalf("HandleConfig: %v", err)
	}
	p, _ = s.Peer(1)
	if p.State != fne.StateRunning || !p.Connected {
		t.Fatalf("expected running+connected, got %+v", p)
	}
}

func TestHandleAuthRejectsWrongPassword(t *testing.T) {
	s := fne.NewServer("secret", time.Second, 3)
	addr := &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 62032}

	_ = s.HandleLogin(2, addr)
	p, _ := s.Peer(2)

	if err := s.HandleAuth(2, authHash(p.Salt, "wrong"), addr); err == nil {
		t.Fatal("expected auth failure")
	}
	if _, ok := s.Peer(2); ok {
		t.Fatal("peer should have been evicted after failed auth")
	}
}

func TestEvictStalePeers(t *testing.T) {
	s := fne.NewServer("secret", time.Second, 2)
	addr := &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 62033}

	_ = s.HandleLogin(3, addr)
	p, _ := s.Peer(3)
	_ = s.HandleAuth(3, authHash(p.Salt, "secret"), addr)
	body, _ := json.Marshal(map[string]any{})
	_ = s.HandleConfig(3, body, addr)

	p, _ = s.Peer(3)
	p.LastPing = time.Now().Add(-10 * time.Second)

	evicted := s.EvictStalePeers(time.Now())
	if len(evicted) != 1 || evicted[0] != 3 {
		t.Fatalf("expected peer 3 evicted, got %v", evicted)
	}
	if _, ok := s.Peer(3); ok {
		t.Fatal("peer 3 should be gone after eviction")
	}
}

func TestRoutePayloadGroupCallFanOut(t *testing.T) {
	s := fne.NewServer("secret", time.Second, 3)
	radios := newRadioIDLookup(t)
	rules := newTalkgroupsLookup(t)
	rules.AddGroupVoice(talkgroups.GroupVoice{
		Name:   "Test",
		Source: talkgroups.Source{TGID: 9, Slot: 1},
		Config: talkgroups.Config{Active: true},
	})
	aff := affiliation.NewSingleSlot("test", []uint16{1})

	s.RegisterTagger(&fne.Tagger{Tag: fne.TagDMRData, Radios: radios, Rules: rules, Aff: aff})

	for _, id := range []uint32{1, 2, 3} {
		addr := &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 62100 + int(id)}
		_ = s.HandleLogin(id, addr)
		p, _ := s.Peer(id)
		_ = s.HandleAuth(id, authHash(p.Salt, "secret"), addr)
		body, _ := json.Marshal(map[string]any{})
		_ = s.HandleConfig(id, body, addr)
	}

	payload := fne.Payload{
		Tag:       fne.TagDMRData,
		PeerID:    1,
		SrcID:     100,
		DstID:     9,
		Slot:      1,
		GroupCall: true,
	}

	targets, _, firstReject, err := s.RoutePayload(payload, nil)
	if err != nil {
		t.Fatalf("RoutePayload: %v (firstReject=%v)", err, firstReject)
	}
	if len(targets) != 2 {
		t.Fatalf("expected fan-out to peers 2 and 3, got %v", targets)
	}
}

func TestRoutePayloadRejectsUnknownSender(t *testing.T) {
	s := fne.NewServer("secret", time.Second, 3)
	radios := newRadioIDLookup(t)
	rules := newTalkgroupsLookup(t)
	aff := affiliation.NewSingleSlot("test", []uint16{1})
	s.RegisterTagger(&fne.Tagger{Tag: fne.TagDMRData, Radios: radios, Rules: rules, Aff: aff})

	_, _, _, err := s.RoutePayload(fne.Payload{Tag: fne.TagDMRData, PeerID: 99}, nil)
	if err == nil {
		t.Fatal("expected rejection for unknown peer")
	}
}

func TestIngestRelayedDecodesAndReturnsRunningPeers(t *testing.T) {
	s := fne.NewServer("secret", time.Second, 3)

	for _, id := range []uint32{1, 2} {
		addr := &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 62200 + int(id)}
		_ = s.HandleLogin(id, addr)
		p, _ := s.Peer(id)
		_ = s.HandleAuth(id, authHash(p.Salt, "secret"), addr)
		body, _ := json.Marshal(map[string]any{})
		_ = s.HandleConfig(id, body, addr)
	}

	payload := fne.Payload{Tag: fne.TagDMRData, PeerID: 1, SrcID: 100, DstID: 9, GroupCall: true}
	raw := fne.EncodePayload(payload)

	p, targets, ok := s.IngestRelayed(relayEnvelope(fne.TagDMRData, raw))
	if !ok {
		t.Fatal("expected IngestRelayed to decode the envelope")
	}
	if p.SrcID != 100 || p.DstID != 9 {
		t.Fatalf("unexpected decoded payload: %+v", p)
	}
	if len(targets) != 2 {
		t.Fatalf("expected both running peers as relay targets, got %v", targets)
	}
}

func TestIngestRelayedRejectsShortDatagram(t *testing.T) {
	s := fne.NewServer("secret", time.Second, 3)
	_, _, ok := s.IngestRelayed(relayEnvelope(fne.TagDMRData, []byte{1, 2, 3}))
	if ok {
		t.Fatal("expected short datagram to fail to decode")
	}
}
