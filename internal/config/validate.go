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

package config

import "errors"

var (
	// ErrInvalidLogLevel indicates that the provided log level is not valid.
	ErrInvalidLogLevel = errors.New("invalid log level provided")
	// ErrNoChannels indicates that no channel configs were provided.
	ErrNoChannels = errors.New("at least one channel must be configured")
	// ErrInvalidProtocol indicates that a channel's protocol is not one of dmr, p25, nxdn.
	ErrInvalidProtocol = errors.New("invalid channel protocol provided")
	// ErrInvalidChannelPort indicates that a channel's listen port is not valid.
	ErrInvalidChannelPort = errors.New("invalid channel port provided")
	// ErrMultipleControlChannels indicates more than one channel claimed control-channel status.
	ErrMultipleControlChannels = errors.New("at most one channel may be the designated control channel")
	// ErrInvalidLookupPath indicates a lookup table path was left empty.
	ErrInvalidLookupPath = errors.New("lookup table path must not be empty")
	// ErrInvalidFNEPort indicates that the FNE listen port is not valid.
	ErrInvalidFNEPort = errors.New("invalid FNE port provided")
	// ErrFNEPasswordRequired indicates that the FNE shared password was left empty.
	ErrFNEPasswordRequired = errors.New("FNE password is required")
	// ErrInvalidMetricsBindAddress indicates that the provided metrics server bind address is not valid.
	ErrInvalidMetricsBindAddress = errors.New("invalid metrics server bind address provided")
	// ErrInvalidMetricsPort indicates that the provided metrics server port is not valid.
	ErrInvalidMetricsPort = errors.New("invalid metrics server port provided")
	// ErrInvalidPProfBindAddress indicates that the provided PProf server bind address is not valid.
	ErrInvalidPProfBindAddress = errors.New("invalid PProf server bind address provided")
	// ErrInvalidPProfPort indicates that the provided PProf server port is not valid.
	ErrInvalidPProfPort = errors.New("invalid PProf server port provided")
	// ErrTransportPassphraseRequired indicates AES wrapping is enabled without a passphrase.
	ErrTransportPassphraseRequired = errors.New("transport AES passphrase is required when transport encryption is enabled")
)

// Validate validates one channel's configuration.
func (c ChannelConfig) Validate() error {
	switch c.Protocol {
	case ProtocolDMR, ProtocolP25, ProtocolNXDN:
	default:
		return ErrInvalidProtocol
	}
	if c.Port <= 0 || c.Port > 65535 {
		return ErrInvalidChannelPort
	}
	return nil
}

// Validate validates the lookup-table configuration.
func (l LookupsConfig) Validate() error {
	if l.RadioIDPath == "" || l.TalkgroupsPath == "" {
		return ErrInvalidLookupPath
	}
	return nil
}

// Validate validates the FNE configuration.
func (f FNEConfig) Validate() error {
	if f.Port <= 0 || f.Port > 65535 {
		return ErrInvalidFNEPort
	}
	if f.Password == "" {
		return ErrFNEPasswordRequired
	}
	return nil
}

// Validate validates the transport-encryption configuration.
func (t TransportConfig) Validate() error {
	if !t.Enabled {
		return nil
	}
	if t.Passphrase == "" {
		return ErrTransportPassphraseRequired
	}
	return nil
}

// Validate validates the Metrics configuration.
func (m Metrics) Validate() error {
	if !m.Enabled {
		return nil
	}
	if m.Bind == "" {
		return ErrInvalidMetricsBindAddress
	}
	if m.Port <= 0 || m.Port > 65535 {
		return ErrInvalidMetricsPort
	}
	return nil
}

// Validate validates the PProf configuration.
func (p PProf) Validate() error {
	if !p.Enabled {
		return nil
	}
	if p.Bind == "" {
		return ErrInvalidPProfBindAddress
	}
	if p.Port <= 0 || p.Port > 65535 {
		return ErrInvalidPProfPort
	}
	return nil
}

// Validate validates the entire configuration, composing each
// component's own Validate method.
func (c Config) Validate() error {
	switch c.LogLevel {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
	default:
		return ErrInvalidLogLevel
	}

	if len(c.Channels) == 0 {
		return ErrNoChannels
	}
	controlChannels := 0
	for _, ch := range c.Channels {
		if err := ch.Validate(); err != nil {
			return err
		}
		if ch.IsControlChannel {
			controlChannels++
		}
	}
	if controlChannels > 1 {
		return ErrMultipleControlChannels
	}

	if err := c.Lookups.Validate(); err != nil {
		return err
	}
	if err := c.FNE.Validate(); err != nil {
		return err
	}
	if err := c.Transport.Validate(); err != nil {
		return err
	}
	if err := c.Metrics.Validate(); err != nil {
		return err
	}
	if err := c.PProf.Validate(); err != nil {
		return err
	}

	return nil
}
