package engine_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/USA-RedDragon/dvmcore/internal/affiliation"
	"github.com/USA-RedDragon/dvmcore/internal/lookups/radioid"
	"github.com/USA-RedDragon/dvmcore/internal/lookups/talkgroups"
	"github.com/USA-RedDragon/dvmcore/internal/nxdn/engine"
	"github.com/USA-RedDragon/dvmcore/internal/site"
)

func newRadios(t *testing.T) *radioid.Lookup {
	t.Helper()
	path := filepath.Join(t.TempDir(), "radioid.csv")
	if err := os.WriteFile(path, []byte("100,true\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	l, err := radioid.New(path, 0, true)
	if err != nil {
		t.Fatal(err)
	}
	return l
}

func newRules(t *testing.T) *talkgroups.Lookup {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tg.yaml")
	if err := os.WriteFile(path, []byte("groupVoice:\n  - name: Test\n    source:\n      tgId: 9\n    config:\n      active: true\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	l, err := talkgroups.New(path, 0, true)
	if err != nil {
		t.Fatal(err)
	}
	return l
}

func newEngine(t *testing.T) *engine.Engine {
	t.Helper()
	st := &site.Data{NetworkID: 1, SystemID: 1, SiteID: 1, ServiceClass: 0x01, ChannelNumber: 3}
	aff := affiliation.NewSingleSlot("test", []uint16{1, 2})
	return engine.New(st, newRadios(t), newRules(t), aff, time.Second, time.Second, time.Second, time.Second)
}

func TestProcessFrameAdmitsPermittedCall(t *testing.T) {
	e := newEngine(t)
	if !e.ProcessFrame(engine.RFVoiceFrame{SrcID: 100, DstID: 9, GroupCall: true}) {
		t.Fatal("expected permitted call to be admitted")
	}
}

func TestProcessFrameRejectsUnknownSource(t *testing.T) {
	e := newEngine(t)
	if e.ProcessFrame(engine.RFVoiceFrame{SrcID: 999, DstID: 9, GroupCall: true}) {
		t.Fatal("expected unknown source to be rejected")
	}
}

func TestGetFrameCyclesSiteInfoThenDstIDInfo(t *testing.T) {
	e := newEngine(t)
	e.SetCCRunning(true)
	first := e.GetFrame()
	second := e.GetFrame()
	if first == nil || second == nil {
		t.Fatal("expected both cycle entries to produce a frame")
	}
	if len(first) == len(second) && string(first) == string(second) {
		t.Fatal("expected SITE_INFO and DST_ID_INFO frames to differ")
	}
}
