package affiliation_test

import (
	"testing"
	"time"

	"github.com/USA-RedDragon/dvmcore/internal/affiliation"
)

// TestGrantUnderLoad reproduces spec.md §8 scenario 6: two DMR channels,
// 100 is the TSCC, both channels otherwise free. The first grant must
// land on channel 100 slot 2 (opposite the TSCC's reserved slot 1), the
// second on channel 101 slot 1, and the third must fail outright.
func TestGrantUnderLoad(t *testing.T) {
	e := affiliation.NewDMR("test", []uint16{100, 101}, true, 100)

	g1, err := e.GrantChannel(500, 42, 60*time.Second)
	if err != nil {
		t.Fatalf("first grant: %v", err)
	}
	if g1.ChannelNo != 100 || g1.Slot != 2 {
		t.Fatalf("first grant = %+v, want channel 100 slot 2", g1)
	}

	g2, err := e.GrantChannel(600, 43, 60*time.Second)
	if err != nil {
		t.Fatalf("second grant: %v", err)
	}
	if g2.ChannelNo != 101 || g2.Slot != 1 {
		t.Fatalf("second grant = %+v, want channel 101 slot 1", g2)
	}

	if _, err := e.GrantChannel(700, 44, 60*time.Second); err == nil {
		t.Fatal("third grant unexpectedly succeeded")
	}
}

func TestGrantReleaseFreesChannel(t *testing.T) {
	e := affiliation.NewSingleSlot("test", []uint16{1})

	g, err := e.GrantChannel(10, 1, time.Second)
	if err != nil {
		t.Fatalf("grant: %v", err)
	}
	e.ReleaseGrant(10)

	g2, err := e.GrantChannel(11, 2, time.Second)
	if err != nil {
		t.Fatalf("grant after release: %v", err)
	}
	if g2.ChannelNo != g.ChannelNo {
		t.Fatalf("expected channel %d to be reused, got %d", g.ChannelNo, g2.ChannelNo)
	}
}

func TestGrantTimerExpiry(t *testing.T) {
	e := affiliation.NewSingleSlot("test", []uint16{1})

	if _, err := e.GrantChannel(10, 1, 50*time.Millisecond); err != nil {
		t.Fatalf("grant: %v", err)
	}
	if expired := e.Tick(10 * time.Millisecond); len(expired) != 0 {
		t.Fatalf("grant expired too early: %v", expired)
	}
	expired := e.Tick(100 * time.Millisecond)
	if len(expired) != 1 || expired[0] != 10 {
		t.Fatalf("expired = %v, want [10]", expired)
	}
	if _, ok := e.FindGrant(10); ok {
		t.Fatal("grant still present after expiry")
	}
}

func TestIsPeerPermittedInclusionExclusionAffiliated(t *testing.T) {
	e := affiliation.NewSingleSlot("test", []uint16{1})

	if !e.IsPeerPermitted(4, 10, true, nil, nil, false) {
		t.Fatal("private calls must always be permitted")
	}
	if e.IsPeerPermitted(4, 10, false, []uint32{1, 2, 3}, nil, false) {
		t.Fatal("peer 4 not in inclusion list must be rejected")
	}
	if !e.IsPeerPermitted(2, 10, false, []uint32{1, 2, 3}, nil, false) {
		t.Fatal("peer 2 in inclusion list must be permitted")
	}
	if !e.IsPeerPermitted(9, 10, false, nil, []uint32{7}, false) {
		t.Fatal("peer 9 not in exclusion list must be permitted")
	}
	if e.IsPeerPermitted(7, 10, false, nil, []uint32{7}, false) {
		t.Fatal("peer 7 in exclusion list must be rejected")
	}

	if e.IsPeerPermitted(2, 99, false, nil, nil, true) {
		t.Fatal("affiliated-only group with no affiliation must be rejected")
	}
	e.Affiliate(99, 55)
	if !e.IsPeerPermitted(2, 99, false, nil, nil, true) {
		t.Fatal("affiliated-only group with a live affiliation must be permitted")
	}
}
