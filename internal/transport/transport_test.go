package transport_test

import (
	"bytes"
	"net"
	"testing"

	"github.com/USA-RedDragon/dvmcore/internal/transport"
)

func TestAESWrapRoundTrip(t *testing.T) {
	var key [32]byte
	for i := range key {
		key[i] = byte(i)
	}
	w, err := transport.NewAESWrap(key)
	if err != nil {
		t.Fatalf("NewAESWrap: %v", err)
	}

	payload := bytes.Repeat([]byte{0xAB}, 32)
	wrapped := w.Wrap(payload)

	plain, ok := w.Unwrap(wrapped)
	if !ok {
		t.Fatal("Unwrap rejected a validly wrapped datagram")
	}
	if !bytes.Equal(plain, payload) {
		t.Fatalf("round-trip mismatch: got %x want %x", plain, payload)
	}
}

// TestAESWrapRoundTripArbitraryLength covers spec.md §8's testable
// property for payload lengths that don't land on a 16-byte boundary,
// where the embedded length prefix (not the block padding) determines
// where the original payload ends.
func TestAESWrapRoundTripArbitraryLength(t *testing.T) {
	var key [32]byte
	for i := range key {
		key[i] = byte(i * 7)
	}
	w, err := transport.NewAESWrap(key)
	if err != nil {
		t.Fatalf("NewAESWrap: %v", err)
	}

	for _, n := range []int{0, 1, 15, 17, 33, 63, 255} {
		payload := bytes.Repeat([]byte{0x5A}, n)
		wrapped := w.Wrap(payload)

		plain, ok := w.Unwrap(wrapped)
		if !ok {
			t.Fatalf("Unwrap rejected a validly wrapped %d-byte datagram", n)
		}
		if !bytes.Equal(plain, payload) {
			t.Fatalf("round-trip mismatch for len %d: got %x want %x", n, plain, payload)
		}
	}
}

func TestAESUnwrapRejectsMissingMagic(t *testing.T) {
	var key [32]byte
	w, err := transport.NewAESWrap(key)
	if err != nil {
		t.Fatalf("NewAESWrap: %v", err)
	}

	if _, ok := w.Unwrap(bytes.Repeat([]byte{0x11}, 18)); ok {
		t.Fatal("Unwrap accepted a datagram without the wrap magic")
	}
}

func TestUDPSocketRoundTrip(t *testing.T) {
	server, err := transport.OpenUDP("udp4", "127.0.0.1", 0)
	if err != nil {
		t.Fatalf("OpenUDP server: %v", err)
	}
	defer server.Close()

	client, err := transport.OpenUDP("udp4", "127.0.0.1", 0)
	if err != nil {
		t.Fatalf("OpenUDP client: %v", err)
	}
	defer client.Close()

	serverAddr := server.LocalAddr().(*net.UDPAddr)
	if _, err := client.Write([]byte("hello"), serverAddr); err != nil {
		t.Fatalf("Write: %v", err)
	}

	buf := make([]byte, transport.MaxDatagramSize)
	n, _, err := server.Read(buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(buf[:n]) != "hello" {
		t.Fatalf("got %q, want %q", buf[:n], "hello")
	}
}

func TestMultiSocketReaderRoundRobin(t *testing.T) {
	a, err := transport.OpenUDP("udp4", "127.0.0.1", 0)
	if err != nil {
		t.Fatalf("OpenUDP a: %v", err)
	}
	defer a.Close()
	b, err := transport.OpenUDP("udp4", "127.0.0.1", 0)
	if err != nil {
		t.Fatalf("OpenUDP b: %v", err)
	}
	defer b.Close()

	mr := transport.NewMultiSocketReader(a, b)
	seen := map[*transport.UDPSocket]int{}
	for i := 0; i < 4; i++ {
		seen[mr.NextSocket()]++
	}
	if seen[a] != 2 || seen[b] != 2 {
		t.Fatalf("round-robin not balanced: %v", seen)
	}
}
