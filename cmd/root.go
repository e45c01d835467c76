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

// Package cmd wires the dvmcore host's entrypoint: config load, logger
// setup, and construction of the site's lookups, per-channel protocol
// engines and FNE peer fabric. It deliberately stops short of a full
// management surface (web UI, REST API, database-backed repeater
// directory) — those are out of scope for a protocol-host core.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/USA-RedDragon/configulator"
	"github.com/lmittmann/tint"
	goredis "github.com/redis/go-redis/v9"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"golang.org/x/sync/errgroup"

	"github.com/USA-RedDragon/dvmcore/internal/affiliation"
	"github.com/USA-RedDragon/dvmcore/internal/config"
	dmrengine "github.com/USA-RedDragon/dvmcore/internal/dmr/engine"
	"github.com/USA-RedDragon/dvmcore/internal/fne"
	"github.com/USA-RedDragon/dvmcore/internal/fne/relay"
	"github.com/USA-RedDragon/dvmcore/internal/lookups/radiodb"
	"github.com/USA-RedDragon/dvmcore/internal/lookups/radioid"
	"github.com/USA-RedDragon/dvmcore/internal/lookups/talkgroups"
	"github.com/USA-RedDragon/dvmcore/internal/metrics"
	nxdnengine "github.com/USA-RedDragon/dvmcore/internal/nxdn/engine"
	p25engine "github.com/USA-RedDragon/dvmcore/internal/p25/engine"
	"github.com/USA-RedDragon/dvmcore/internal/pprof"
	"github.com/USA-RedDragon/dvmcore/internal/site"
	"github.com/USA-RedDragon/dvmcore/internal/transport"
)

func NewCommand(version, commit string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "dvmcore",
		Version: fmt.Sprintf("%s - %s", version, commit),
		Annotations: map[string]string{
			"version": version,
			"commit":  commit,
		},
		RunE:              runRoot,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}
	return cmd
}

func runRoot(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	fmt.Printf("dvmcore - %s (%s)\n", cmd.Annotations["version"], cmd.Annotations["commit"])

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	setupLogger(cfg)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	cleanup, err := setupTracing(cfg)
	if err != nil {
		return fmt.Errorf("failed to setup tracing: %w", err)
	}
	defer func() {
		if err := cleanup(ctx); err != nil {
			slog.Error("failed to shutdown tracer", "error", err)
		}
	}()

	startBackgroundServices(cfg)

	fab, err := buildFabric(cfg)
	if err != nil {
		return fmt.Errorf("failed to build protocol fabric: %w", err)
	}

	if err := fab.start(ctx); err != nil {
		return fmt.Errorf("failed to start fabric: %w", err)
	}

	setupShutdownHandlers(ctx, fab, cleanup)

	return nil
}

// loadConfig loads the configuration from context.
func loadConfig(ctx context.Context) (*config.Config, error) {
	c, err := configulator.FromContext[config.Config](ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get config from context: %w", err)
	}

	cfg, err := c.LoadWithoutValidation()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// setupLogger configures the structured logger.
func setupLogger(cfg *config.Config) {
	var logger *slog.Logger
	switch cfg.LogLevel {
	case config.LogLevelDebug:
		logger = slog.New(tint.NewHandler(os.Stdout, &tint.Options{Level: slog.LevelDebug}))
	case config.LogLevelInfo:
		logger = slog.New(tint.NewHandler(os.Stdout, &tint.Options{Level: slog.LevelInfo}))
	case config.LogLevelWarn:
		logger = slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: slog.LevelWarn}))
	case config.LogLevelError:
		logger = slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: slog.LevelError}))
	default:
		logger = slog.New(tint.NewHandler(os.Stdout, &tint.Options{Level: slog.LevelInfo}))
	}
	slog.SetDefault(logger)
}

// setupTracing initializes OpenTelemetry tracing if configured. When
// tracing is not configured it returns a no-op cleanup function.
func setupTracing(cfg *config.Config) (func(context.Context) error, error) {
	if cfg.Metrics.OTLPEndpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	return initTracer(cfg)
}

func initTracer(cfg *config.Config) (func(context.Context) error, error) {
	exporter, err := otlptrace.New(
		context.Background(),
		otlptracegrpc.NewClient(
			otlptracegrpc.WithInsecure(),
			otlptracegrpc.WithEndpoint(cfg.Metrics.OTLPEndpoint),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}
	resources, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			attribute.String("service.name", "dvmcore"),
			attribute.String("library.language", "go"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace resources: %w", err)
	}

	otel.SetTracerProvider(
		sdktrace.NewTracerProvider(
			sdktrace.WithSampler(sdktrace.AlwaysSample()),
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(resources),
		),
	)
	return exporter.Shutdown, nil
}

// startBackgroundServices starts the metrics and pprof servers.
func startBackgroundServices(cfg *config.Config) {
	go func() {
		if err := metrics.CreateMetricsServer(cfg); err != nil {
			slog.Error("failed to start metrics server", "error", err)
		}
	}()
	go func() {
		if err := pprof.CreatePProfServer(cfg); err != nil {
			slog.Error("failed to start pprof server", "error", err)
		}
	}()
}

// channelSocket is one configured channel's per-tick clock advance,
// collected so the clock loop can drive every engine without a type
// switch on each tick.
type channelSocket struct {
	tick func(dt time.Duration)
}

// fabric is the running collection of lookups, per-channel engines, and
// the FNE peer fabric a single dvmcore process hosts.
type fabric struct {
	cfg *config.Config

	radios *radioid.Lookup
	rules  *talkgroups.Lookup

	dmr  *dmrengine.DMREngine
	p25  *p25engine.Engine
	nxdn *nxdnengine.Engine

	fneServer *fne.Server
	socket    *transport.UDPSocket

	channels []channelSocket

	eg     *errgroup.Group
	cancel context.CancelFunc
}

// buildFabric constructs the site identity, lookup tables, affiliation
// engines, one protocol engine per configured channel, and the FNE peer
// fabric those engines route payloads through.
func buildFabric(cfg *config.Config) (*fabric, error) {
	st := &site.Data{
		NetworkID:     cfg.Site.NetworkID,
		SystemID:      cfg.Site.SystemID,
		SiteID:        cfg.Site.SiteID,
		RFSSID:        cfg.Site.RFSSID,
		ChannelID:     cfg.Site.ChannelID,
		ChannelNumber: cfg.Site.ChannelNumber,

		BaseFrequencyHz:     cfg.Site.BaseFrequencyHz,
		ChannelBandwidthKHz: cfg.Site.ChannelBandwidthKHz,
		ChannelSpacingKHz:   cfg.Site.ChannelSpacingKHz,
		TxOffsetMHz:         cfg.Site.TxOffsetMHz,
		ServiceClass:        cfg.Site.ServiceClass,
		NetworkActive:       cfg.Site.NetworkActive,

		LocalTimeOffsetHours: cfg.Site.LocalTimeOffsetHours,
	}
	if cfg.Site.NarrowBandwidth {
		st.Bandwidth = site.Bandwidth6250
	}

	radios, err := radioid.New(cfg.Lookups.RadioIDPath, cfg.Lookups.ReloadMinutes, cfg.Lookups.RadioIDACL)
	if err != nil {
		return nil, fmt.Errorf("failed to load radio ID lookup: %w", err)
	}
	rules, err := talkgroups.New(cfg.Lookups.TalkgroupsPath, cfg.Lookups.ReloadMinutes, cfg.Lookups.TalkgroupsACL)
	if err != nil {
		return nil, fmt.Errorf("failed to load talkgroup rule lookup: %w", err)
	}

	if cfg.RadioDB.Enabled {
		db, err := radiodb.Open(radiodb.Driver(cfg.RadioDB.Driver), cfg.RadioDB.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open radio ID metadata store: %w", err)
		}
		if err := db.UnpackBuiltIn(); err != nil {
			return nil, fmt.Errorf("failed to unpack built-in radio ID metadata: %w", err)
		}
		radios.SetMetadata(db)
	}

	fneServer := fne.NewServer(cfg.FNE.Password, cfg.FNE.PingInterval, cfg.FNE.MaxMissedPings)
	if cfg.Relay.Enabled {
		rdb := goredis.NewClient(&goredis.Options{Addr: cfg.Relay.RedisAddr})
		if cfg.Metrics.OTLPEndpoint != "" {
			if err := redisotel.InstrumentTracing(rdb); err != nil {
				return nil, fmt.Errorf("failed to trace relay redis client: %w", err)
			}
			if err := redisotel.InstrumentMetrics(rdb); err != nil {
				return nil, fmt.Errorf("failed to instrument relay redis client: %w", err)
			}
		}
		fneServer.SetRelay(relay.New(rdb, cfg.Relay.Channel, cfg.Relay.InstanceID))
	}

	f := &fabric{
		cfg:       cfg,
		radios:    radios,
		rules:     rules,
		fneServer: fneServer,
	}

	for _, ch := range cfg.Channels {
		channels := []uint16{cfg.Site.ChannelNumber}
		switch ch.Protocol {
		case config.ProtocolDMR:
			aff := affiliation.NewDMR("dmr", channels, ch.IsControlChannel, cfg.Site.ChannelNumber)
			f.dmr = dmrengine.NewDMREngine(st, radios, rules, aff,
				cfg.Timers.RFTimeout, cfg.Timers.NetTimeout, cfg.Timers.TGHang, cfg.Timers.NetworkWatchdog)
			f.fneServer.RegisterTagger(&fne.Tagger{Tag: fne.TagDMRData, Radios: radios, Rules: rules, Aff: aff})
			f.channels = append(f.channels, channelSocket{tick: f.dmr.Clock})
		case config.ProtocolP25:
			aff := affiliation.NewSingleSlot("p25", channels)
			f.p25 = p25engine.New(st, radios, rules, aff,
				cfg.Timers.RFTimeout, cfg.Timers.NetTimeout, cfg.Timers.TGHang, cfg.Timers.NetworkWatchdog)
			f.fneServer.RegisterTagger(&fne.Tagger{Tag: fne.TagP25Data, Radios: radios, Rules: rules, Aff: aff})
			f.channels = append(f.channels, channelSocket{tick: wrapReporting(f.p25.Clock)})
		case config.ProtocolNXDN:
			aff := affiliation.NewSingleSlot("nxdn", channels)
			f.nxdn = nxdnengine.New(st, radios, rules, aff,
				cfg.Timers.RFTimeout, cfg.Timers.NetTimeout, cfg.Timers.TGHang, cfg.Timers.NetworkWatchdog)
			f.fneServer.RegisterTagger(&fne.Tagger{Tag: fne.TagNXDNData, Radios: radios, Rules: rules, Aff: aff})
			f.channels = append(f.channels, channelSocket{tick: wrapReporting(f.nxdn.Clock)})
		default:
			return nil, fmt.Errorf("unsupported channel protocol %q", ch.Protocol)
		}
	}

	return f, nil
}

// wrapReporting adapts a Clock that reports force-released destinations
// into the plain func(time.Duration) shape channelSocket.tick holds; the
// destinations are logged rather than dropped.
func wrapReporting(clock func(time.Duration) []uint32) func(time.Duration) {
	return func(dt time.Duration) {
		for _, dst := range clock(dt) {
			slog.Debug("grant force-released on clock tick", "dst", dst)
		}
	}
}

// start opens the FNE UDP socket, wires its Send callback, and launches
// the receive loop and clock-tick ticker.
func (f *fabric) start(ctx context.Context) error {
	socket, err := transport.OpenUDP("udp", f.cfg.FNE.ListenAddr, f.cfg.FNE.Port)
	if err != nil {
		return fmt.Errorf("failed to open FNE socket: %w", err)
	}
	f.socket = socket

	if f.cfg.Transport.Enabled {
		key := transport.DeriveKey(f.cfg.Transport.Passphrase, f.cfg.Transport.Salt)
		wrap, err := transport.NewAESWrap(key)
		if err != nil {
			return fmt.Errorf("failed to initialize transport encryption: %w", err)
		}
		socket.SetAESWrap(wrap)
	}

	f.fneServer.Send = socket.Write

	runCtx, cancel := context.WithCancel(ctx)
	f.cancel = cancel

	eg, egCtx := errgroup.WithContext(runCtx)
	f.eg = eg
	eg.Go(func() error { return f.receiveLoop(egCtx) })
	eg.Go(func() error { return f.clockLoop(egCtx) })

	slog.Info("FNE peer fabric listening", "addr", socket.LocalAddr())
	return nil
}

// receiveLoop reads datagrams off the FNE socket and dispatches them
// through the Server's handshake/routing state machine. It returns nil
// on context cancellation, satisfying errgroup.Group.Go's signature so
// start's two loops share one lifecycle and error channel.
func (f *fabric) receiveLoop(ctx context.Context) error {
	buf := make([]byte, 4096)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		n, addr, err := f.socket.Read(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			slog.Warn("FNE socket read failed", "error", err)
			continue
		}

		if err := f.fneServer.HandleDatagram(buf[:n], addr, time.Now()); err != nil {
			slog.Debug("FNE datagram rejected", "addr", addr, "error", err)
		}
	}
}

// clockLoop advances every configured protocol engine and evicts stale
// FNE peers on a fixed tick, per spec.md §4.6/§4.7's shared collision
// and ping-timeout timers.
func (f *fabric) clockLoop(ctx context.Context) error {
	tick := f.cfg.Timers.ClockTick
	if tick <= 0 {
		tick = 20 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			for _, ch := range f.channels {
				ch.tick(tick)
			}
			for _, peerID := range f.fneServer.EvictStalePeers(now) {
				slog.Info("evicted stale FNE peer", "peer", peerID)
			}
		}
	}
}

// shutdown stops the receive and clock loops and closes the FNE socket,
// waiting for both via the errgroup.Group started in start.
func (f *fabric) shutdown() error {
	if f.cancel != nil {
		f.cancel()
	}
	if f.socket != nil {
		if err := f.socket.Close(); err != nil {
			slog.Error("failed to close FNE socket", "error", err)
		}
	}
	if f.eg == nil {
		return nil
	}
	return f.eg.Wait()
}

// setupShutdownHandlers blocks until SIGINT/SIGTERM/SIGQUIT/SIGHUP is
// received, then tears down the fabric and tracer within a bounded
// timeout.
func setupShutdownHandlers(ctx context.Context, fab *fabric, cleanup func(context.Context) error) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP)

	sig := <-sigCh
	slog.Error("shutting down due to signal", "signal", sig)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := fab.shutdown(); err != nil {
			slog.Error("fabric loop returned an error during shutdown", "error", err)
		}
		if cleanup != nil {
			shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			if err := cleanup(shutdownCtx); err != nil {
				slog.Error("failed to shutdown tracer", "error", err)
			}
		}
	}()

	const timeout = 10 * time.Second
	select {
	case <-done:
		slog.Info("fabric stopped, shutting down gracefully")
		os.Exit(0)
	case <-time.After(timeout):
		slog.Error("shutdown timed out, forcing exit")
		os.Exit(1)
	}
}
