package engine_test

import (
	"testing"
	"time"

	"github.com/USA-RedDragon/dvmcore/internal/engine"
)

func TestAdmitRFPreemptsListeningNet(t *testing.T) {
	c := engine.NewCallState(time.Second, time.Second, 0, 0)
	if got := c.AdmitRF(100, 9); got != engine.RFAdmitted {
		t.Fatalf("got %v, want RFAdmitted", got)
	}
}

// TestAdmitRFPreemptedByNetSameDst reproduces spec.md §8's collision-guard
// scenario: with net_last_dst=100, an RF frame for dst=100 must be
// preempted/reset while the net call is left running untouched.
func TestAdmitRFPreemptedByNetSameDst(t *testing.T) {
	c := engine.NewCallState(time.Second, time.Second, 0, 0)
	c.StartNet(engine.AudioNet, 200, 100)
	c.StartRF(engine.AudioRF, 100, 100)

	got := c.AdmitRF(100, 100)
	if got != engine.RFPreemptedByNet {
		t.Fatalf("got %v, want RFPreemptedByNet", got)
	}
	if c.RFState != engine.Listening {
		t.Fatal("RF state should have been reset to Listening")
	}
	if c.NetState != engine.AudioNet {
		t.Fatal("net call must not be disturbed when it wins the collision")
	}
}

// TestAdmitRFDifferentDstAlsoLosesToNet reproduces the dst=101 half of
// spec.md §8's scenario: a same-source RF frame for a different dst than
// the active net call is a vote collision, so the net call still wins.
func TestAdmitRFDifferentDstAlsoLosesToNet(t *testing.T) {
	c := engine.NewCallState(time.Second, time.Second, 0, 0)
	c.StartNet(engine.AudioNet, 100, 100)

	got := c.AdmitRF(100, 101)
	if got != engine.RFDroppedVoteCollision {
		t.Fatalf("got %v, want RFDroppedVoteCollision", got)
	}
	if c.NetState != engine.AudioNet {
		t.Fatal("net call must not be disturbed by a losing vote collision")
	}
}

// TestAdmitRFWinsAgainstUnrelatedNetCall confirms a genuinely different
// src/dst RF transmission still preempts and tears down an unrelated net
// call (the "otherwise" branch of the collision guard).
func TestAdmitRFWinsAgainstUnrelatedNetCall(t *testing.T) {
	c := engine.NewCallState(time.Second, time.Second, 0, 0)
	c.StartNet(engine.AudioNet, 200, 9)

	got := c.AdmitRF(300, 10)
	if got != engine.RFAdmitted {
		t.Fatalf("got %v, want RFAdmitted", got)
	}
	if c.NetState != engine.Listening {
		t.Fatal("net call should have been torn down")
	}
}

// TestAdmitNetPreemptedByRFSameDst mirrors the RF-wins direction: with
// rf_last_dst=100, a net frame for dst=100 must be preempted/dropped
// while the RF call keeps running.
func TestAdmitNetPreemptedByRFSameDst(t *testing.T) {
	c := engine.NewCallState(time.Second, time.Second, 0, 0)
	c.StartRF(engine.AudioRF, 100, 100)
	c.StartNet(engine.AudioNet, 200, 100)

	got := c.AdmitNet(200, 100)
	if got != engine.NetPreemptedByRF {
		t.Fatalf("got %v, want NetPreemptedByRF", got)
	}
	if c.NetState != engine.Listening {
		t.Fatal("net state should have been reset to Listening")
	}
	if c.RFState != engine.AudioRF {
		t.Fatal("RF call must not be disturbed when it wins the collision")
	}
}

func TestAdmitNetTGHangDropsDifferentDst(t *testing.T) {
	c := engine.NewCallState(time.Second, time.Second, 5*time.Second, 0)
	c.StartRF(engine.AudioRF, 100, 9)
	c.EndRF() // arms the hang timer

	got := c.AdmitNet(200, 10)
	if got != engine.NetDroppedTGHang {
		t.Fatalf("got %v, want NetDroppedTGHang", got)
	}
}

func TestTickExpiresRFTimeout(t *testing.T) {
	c := engine.NewCallState(100*time.Millisecond, time.Second, 0, 0)
	c.StartRF(engine.AudioRF, 100, 9)

	r := c.Tick(150 * time.Millisecond)
	if !r.RFExpired {
		t.Fatal("expected RF timeout to expire")
	}
	if c.RFState != engine.Listening {
		t.Fatal("RF state should be Listening after timeout")
	}
}

func TestRSSIStatsObserve(t *testing.T) {
	var r engine.RSSIStats
	r.Observe(-80)
	r.Observe(-60)
	r.Observe(-100)

	if r.Min != -100 || r.Max != -60 {
		t.Fatalf("got min=%d max=%d", r.Min, r.Max)
	}
	if mean := r.Mean(); mean != -80 {
		t.Fatalf("got mean=%v, want -80", mean)
	}
}
