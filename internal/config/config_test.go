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

package config_test

import (
	"errors"
	"testing"

	"github.com/USA-RedDragon/dvmcore/internal/config"
)

func makeValidConfig() config.Config {
	return config.Config{
		LogLevel: config.LogLevelInfo,
		Channels: []config.ChannelConfig{
			{Protocol: config.ProtocolDMR, ListenAddr: "0.0.0.0", Port: 62031, IsControlChannel: true},
		},
		Lookups: config.LookupsConfig{
			RadioIDPath:    "radioid.csv",
			TalkgroupsPath: "talkgroups.yaml",
		},
		FNE: config.FNEConfig{
			Port:     62031,
			Password: "testpassword",
		},
	}
}

// --- Channel validation ---

func TestChannelValidateRejectsUnknownProtocol(t *testing.T) {
	t.Parallel()
	c := config.ChannelConfig{Protocol: "fusion", Port: 1}
	if err := c.Validate(); !errors.Is(err, config.ErrInvalidProtocol) {
		t.Errorf("expected ErrInvalidProtocol, got %v", err)
	}
}

func TestChannelValidateRejectsBadPort(t *testing.T) {
	t.Parallel()
	c := config.ChannelConfig{Protocol: config.ProtocolP25, Port: 0}
	if err := c.Validate(); !errors.Is(err, config.ErrInvalidChannelPort) {
		t.Errorf("expected ErrInvalidChannelPort, got %v", err)
	}
}

func TestChannelValidateAcceptsEachProtocol(t *testing.T) {
	t.Parallel()
	for _, p := range []config.Protocol{config.ProtocolDMR, config.ProtocolP25, config.ProtocolNXDN} {
		c := config.ChannelConfig{Protocol: p, Port: 1}
		if err := c.Validate(); err != nil {
			t.Errorf("protocol %s: unexpected error %v", p, err)
		}
	}
}

// --- Lookups validation ---

func TestLookupsValidateRejectsEmptyPaths(t *testing.T) {
	t.Parallel()
	l := config.LookupsConfig{}
	if err := l.Validate(); !errors.Is(err, config.ErrInvalidLookupPath) {
		t.Errorf("expected ErrInvalidLookupPath, got %v", err)
	}
}

// --- FNE validation ---

func TestFNEValidateRejectsMissingPassword(t *testing.T) {
	t.Parallel()
	f := config.FNEConfig{Port: 62031}
	if err := f.Validate(); !errors.Is(err, config.ErrFNEPasswordRequired) {
		t.Errorf("expected ErrFNEPasswordRequired, got %v", err)
	}
}

func TestFNEValidateRejectsBadPort(t *testing.T) {
	t.Parallel()
	f := config.FNEConfig{Port: 0, Password: "x"}
	if err := f.Validate(); !errors.Is(err, config.ErrInvalidFNEPort) {
		t.Errorf("expected ErrInvalidFNEPort, got %v", err)
	}
}

// --- Transport validation ---

func TestTransportValidateDisabledSkipsPassphraseCheck(t *testing.T) {
	t.Parallel()
	tc := config.TransportConfig{Enabled: false}
	if err := tc.Validate(); err != nil {
		t.Errorf("expected nil error when disabled, got %v", err)
	}
}

func TestTransportValidateEnabledRequiresPassphrase(t *testing.T) {
	t.Parallel()
	tc := config.TransportConfig{Enabled: true}
	if err := tc.Validate(); !errors.Is(err, config.ErrTransportPassphraseRequired) {
		t.Errorf("expected ErrTransportPassphraseRequired, got %v", err)
	}
}

// --- Metrics validation ---

func TestMetricsValidateDisabled(t *testing.T) {
	t.Parallel()
	m := config.Metrics{Enabled: false}
	if err := m.Validate(); err != nil {
		t.Errorf("expected nil error when disabled, got %v", err)
	}
}

func TestMetricsValidateEnabledRequiresBindAndPort(t *testing.T) {
	t.Parallel()
	m := config.Metrics{Enabled: true, Bind: "[::]", Port: 9100}
	if err := m.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	m = config.Metrics{Enabled: true, Port: 9100}
	if err := m.Validate(); !errors.Is(err, config.ErrInvalidMetricsBindAddress) {
		t.Errorf("expected ErrInvalidMetricsBindAddress, got %v", err)
	}

	m = config.Metrics{Enabled: true, Bind: "[::]", Port: -1}
	if err := m.Validate(); !errors.Is(err, config.ErrInvalidMetricsPort) {
		t.Errorf("expected ErrInvalidMetricsPort, got %v", err)
	}
}

// --- PProf validation ---

func TestPProfValidateDisabled(t *testing.T) {
	t.Parallel()
	p := config.PProf{Enabled: false}
	if err := p.Validate(); err != nil {
		t.Errorf("expected nil error when disabled, got %v", err)
	}
}

// --- Top level validation ---

func TestConfigValidateAcceptsValidConfig(t *testing.T) {
	t.Parallel()
	c := makeValidConfig()
	if err := c.Validate(); err != nil {
		t.Errorf("expected valid config to pass validation, got %v", err)
	}
}

func TestConfigValidateRejectsBadLogLevel(t *testing.T) {
	t.Parallel()
	c := makeValidConfig()
	c.LogLevel = "verbose"
	if err := c.Validate(); !errors.Is(err, config.ErrInvalidLogLevel) {
		t.Errorf("expected ErrInvalidLogLevel, got %v", err)
	}
}

func TestConfigValidateRejectsNoChannels(t *testing.T) {
	t.Parallel()
	c := makeValidConfig()
	c.Channels = nil
	if err := c.Validate(); !errors.Is(err, config.ErrNoChannels) {
		t.Errorf("expected ErrNoChannels, got %v", err)
	}
}

func TestConfigValidateRejectsMultipleControlChannels(t *testing.T) {
	t.Parallel()
	c := makeValidConfig()
	c.Channels = append(c.Channels, config.ChannelConfig{Protocol: config.ProtocolP25, Port: 62032, IsControlChannel: true})
	if err := c.Validate(); !errors.Is(err, config.ErrMultipleControlChannels) {
		t.Errorf("expected ErrMultipleControlChannels, got %v", err)
	}
}
