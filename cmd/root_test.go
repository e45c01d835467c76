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

package cmd

import (
	"testing"
	"time"

	"github.com/USA-RedDragon/dvmcore/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		LogLevel: config.LogLevelInfo,
		Site: config.SiteConfig{
			ChannelNumber: 1,
		},
		Channels: []config.ChannelConfig{
			{Protocol: config.ProtocolDMR, ListenAddr: "0.0.0.0", Port: 62031, IsControlChannel: true},
		},
		Lookups: config.LookupsConfig{
			RadioIDPath:    "testdata/radioid.csv",
			TalkgroupsPath: "testdata/talkgroups.yaml",
		},
		Timers: config.TimersConfig{
			RFTimeout:       2 * time.Second,
			NetTimeout:      2 * time.Second,
			TGHang:          10 * time.Second,
			NetworkWatchdog: 15 * time.Second,
			ClockTick:       20 * time.Millisecond,
		},
		FNE: config.FNEConfig{
			Port:           62031,
			Password:       "testpassword",
			PingInterval:   5 * time.Second,
			MaxMissedPings: 5,
		},
	}
}

func TestNewCommand_SetsVersionAnnotations(t *testing.T) {
	t.Parallel()
	cmd := NewCommand("1.2.3", "abc123")
	if cmd.Annotations["version"] != "1.2.3" {
		t.Errorf("expected version annotation 1.2.3, got %s", cmd.Annotations["version"])
	}
	if cmd.Annotations["commit"] != "abc123" {
		t.Errorf("expected commit annotation abc123, got %s", cmd.Annotations["commit"])
	}
}

func TestBuildFabric_SingleDMRChannel(t *testing.T) {
	t.Parallel()
	fab, err := buildFabric(testConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fab.dmr == nil {
		t.Fatal("expected a DMR engine to be constructed")
	}
	if fab.p25 != nil || fab.nxdn != nil {
		t.Error("expected only the DMR engine to be constructed")
	}
	if len(fab.channels) != 1 {
		t.Errorf("expected one clocked channel, got %d", len(fab.channels))
	}
	if _, ok := fab.fneServer.Peer(1); ok {
		t.Error("expected no peers registered on a freshly built fabric")
	}
}

func TestBuildFabric_RejectsUnknownProtocol(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.Channels[0].Protocol = "fusion"
	if _, err := buildFabric(cfg); err == nil {
		t.Error("expected an error for an unsupported channel protocol")
	}
}

func TestSetupTracing_EmptyEndpoint_ReturnsNoopCleanup(t *testing.T) {
	t.Parallel()
	cfg := &config.Config{}
	cfg.Metrics.OTLPEndpoint = ""

	cleanup, err := setupTracing(cfg)
	if err != nil {
		t.Fatalf("expected no error for empty OTLP endpoint, got: %v", err)
	}
	if cleanup == nil {
		t.Fatal("expected non-nil no-op cleanup function for empty OTLP endpoint")
	}
	// The no-op cleanup should succeed without error.
	if err := cleanup(t.Context()); err != nil {
		t.Fatalf("expected no-op cleanup to return nil error, got: %v", err)
	}
}

func TestInitTracer_ValidEndpoint_ReturnsCleanup(t *testing.T) {
	t.Parallel()
	cfg := &config.Config{}
	cfg.Metrics.OTLPEndpoint = "localhost:4317"

	// gRPC connections are lazy, so a well-formed endpoint won't fail at
	// creation time. Verify that initTracer returns a non-nil cleanup
	// and no error.
	cleanup, err := initTracer(cfg)
	if err != nil {
		t.Fatalf("expected no error for well-formed endpoint, got: %v", err)
	}
	if cleanup == nil {
		t.Fatal("expected non-nil cleanup function for well-formed endpoint")
	}
}

func TestSetupTracing_WithEndpoint_ReturnsCleanupAndNoError(t *testing.T) {
	t.Parallel()
	cfg := &config.Config{}
	cfg.Metrics.OTLPEndpoint = "localhost:4317"

	cleanup, err := setupTracing(cfg)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if cleanup == nil {
		t.Fatal("expected non-nil cleanup function when OTLP endpoint is set")
	}
}
