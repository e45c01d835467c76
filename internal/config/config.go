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

// Package config declares the host's Config struct, loaded by
// configulator from the environment (and, if present, a config file),
// the same way the rest of the pack's ambient-stack configuration is
// loaded.
package config

import "time"

// SiteConfig is the immutable site-identity tuple of spec.md §3,
// applied once at startup to an internal/site.Data.
type SiteConfig struct {
	NetworkID     uint32 `env:"SITE_NETWORK_ID" default:"1"`
	SystemID      uint32 `env:"SITE_SYSTEM_ID" default:"1"`
	SiteID        uint8  `env:"SITE_ID" default:"1"`
	RFSSID        uint8  `env:"SITE_RFSS_ID" default:"1"`
	ChannelID     uint8  `env:"SITE_CHANNEL_ID" default:"1"`
	ChannelNumber uint16 `env:"SITE_CHANNEL_NUMBER" default:"1"`
	ServiceClass  uint8  `env:"SITE_SERVICE_CLASS" default:"1"`

	BaseFrequencyHz     uint64  `env:"SITE_BASE_FREQUENCY_HZ" default:"450000000"`
	ChannelBandwidthKHz float64 `env:"SITE_CHANNEL_BANDWIDTH_KHZ" default:"12.5"`
	ChannelSpacingKHz   float64 `env:"SITE_CHANNEL_SPACING_KHZ" default:"12.5"`
	TxOffsetMHz         float64 `env:"SITE_TX_OFFSET_MHZ" default:"5"`
	NarrowBandwidth     bool    `env:"SITE_NARROW_BANDWIDTH" default:"false"`
	NetworkActive       bool    `env:"SITE_NETWORK_ACTIVE" default:"true"`

	LocalTimeOffsetHours float64 `env:"SITE_LOCAL_TIME_OFFSET_HOURS" default:"0"`
}

// ChannelConfig configures one protocol-engine instance: which air
// interface it runs, whether it is the site's designated control
// channel, and the UDP transport it listens on for RF-side framing.
type ChannelConfig struct {
	Protocol         Protocol `env:"PROTOCOL" default:"dmr"`
	ListenAddr       string   `env:"LISTEN_ADDR" default:"0.0.0.0"`
	Port             int      `env:"PORT" default:"62031"`
	IsControlChannel bool     `env:"IS_CONTROL_CHANNEL" default:"false"`
}

// LookupsConfig points at the on-disk radio-ID and talkgroup-rule
// tables, and the background reload interval internal/lookups.Table
// enforces.
type LookupsConfig struct {
	RadioIDPath     string `env:"RADIOID_PATH" default:"radioid.csv"`
	RadioIDACL      bool   `env:"RADIOID_ACL" default:"true"`
	TalkgroupsPath  string `env:"TALKGROUPS_PATH" default:"talkgroups.yaml"`
	TalkgroupsACL   bool   `env:"TALKGROUPS_ACL" default:"true"`
	ReloadMinutes   int    `env:"LOOKUPS_RELOAD_MINUTES" default:"60"`
}

// RadioDBConfig configures the built-in Radio-ID metadata store
// (internal/lookups/radiodb): a GORM-backed, log-enrichment-only
// dataset separate from the ACL-bearing RadioIDPath table above.
type RadioDBConfig struct {
	Enabled bool   `env:"RADIODB_ENABLED" default:"true"`
	Driver  string `env:"RADIODB_DRIVER" default:"sqlite"`
	DSN     string `env:"RADIODB_DSN" default:""`
}

// RelayConfig configures the optional cross-process FNE relay bus
// (internal/fne/relay) used when several FNE instances share one
// fleet, each owning a disjoint slice of peer UDP sockets.
type RelayConfig struct {
	Enabled    bool   `env:"RELAY_ENABLED" default:"false"`
	RedisAddr  string `env:"RELAY_REDIS_ADDR" default:"127.0.0.1:6379"`
	Channel    string `env:"RELAY_CHANNEL" default:"dvmcore:relay"`
	InstanceID uint32 `env:"RELAY_INSTANCE_ID" default:"1"`
}

// TimersConfig holds the call-state and FNE timers of spec.md §4.6/§4.7,
// applied identically across every protocol engine.
type TimersConfig struct {
	RFTimeout       time.Duration `env:"RF_TIMEOUT" default:"2s"`
	NetTimeout      time.Duration `env:"NET_TIMEOUT" default:"2s"`
	TGHang          time.Duration `env:"TG_HANG" default:"10s"`
	NetworkWatchdog time.Duration `env:"NETWORK_WATCHDOG" default:"15s"`
	ClockTick       time.Duration `env:"CLOCK_TICK" default:"20ms"`
}

// FNEConfig configures the authenticated peer fabric of spec.md §4.7.
type FNEConfig struct {
	ListenAddr     string        `env:"FNE_LISTEN_ADDR" default:"0.0.0.0"`
	Port           int           `env:"FNE_PORT" default:"62031"`
	Password       string        `env:"FNE_PASSWORD" default:"PASSWORD"`
	PingInterval   time.Duration `env:"FNE_PING_INTERVAL" default:"5s"`
	MaxMissedPings uint32        `env:"FNE_MAX_MISSED_PINGS" default:"5"`
}

// TransportConfig configures the optional AES-ECB datagram wrapper
// internal/transport applies to homebrew-protocol UDP traffic.
type TransportConfig struct {
	Enabled    bool   `env:"TRANSPORT_AES_ENABLED" default:"false"`
	Passphrase string `env:"TRANSPORT_AES_PASSPHRASE"`
	Salt       string `env:"TRANSPORT_AES_SALT" default:"dvmcore"`
}

// Metrics configures the Prometheus scrape endpoint.
type Metrics struct {
	Enabled      bool   `env:"METRICS_ENABLED" default:"true"`
	Bind         string `env:"METRICS_BIND" default:"0.0.0.0"`
	Port         int    `env:"METRICS_PORT" default:"9100"`
	OTLPEndpoint string `env:"OTLP_ENDPOINT"`
}

// PProf configures the net/http/pprof profiling endpoint.
type PProf struct {
	Enabled bool   `env:"PPROF_ENABLED" default:"false"`
	Bind    string `env:"PPROF_BIND" default:"127.0.0.1"`
	Port    int    `env:"PPROF_PORT" default:"6060"`
}

// Config is the top-level application configuration, loaded once at
// startup via configulator.
type Config struct {
	LogLevel LogLevel `env:"LOG_LEVEL" default:"info"`
	Debug    bool     `env:"DEBUG" default:"false"`

	Site      SiteConfig      `envPrefix:"SITE_"`
	Channels  []ChannelConfig `env:"CHANNELS"`
	Lookups   LookupsConfig   `envPrefix:"LOOKUPS_"`
	RadioDB   RadioDBConfig   `envPrefix:"RADIODB_"`
	Relay     RelayConfig     `envPrefix:"RELAY_"`
	Timers    TimersConfig    `envPrefix:"TIMERS_"`
	FNE       FNEConfig       `envPrefix:"FNE_"`
	Transport TransportConfig `envPrefix:"TRANSPORT_"`
	Metrics   Metrics         `envPrefix:"METRICS_"`
	PProf     PProf           `envPrefix:"PPROF_"`
}
