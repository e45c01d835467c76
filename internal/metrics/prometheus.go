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

// Package metrics exposes a Prometheus scrape endpoint over the
// collectors the rest of the host publishes: each affiliation.Engine's
// grant counters and an FNE peer-count gauge.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/USA-RedDragon/dvmcore/internal/fne"
)

// Registry wraps the collectors registered with the process's default
// Prometheus registerer, so Register can be called once per engine
// without each call needing to know about the others.
type Registry struct {
	peersRunning prometheus.Gauge
}

// NewRegistry constructs and registers the host-wide metrics (peer
// counts) alongside whatever per-engine collectors callers register
// with RegisterCollectors.
func NewRegistry() *Registry {
	r := &Registry{
		peersRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dvmcore_fne_peers_running",
			Help: "Number of FNE peers currently in the RUNNING state",
		}),
	}
	prometheus.MustRegister(r.peersRunning)
	return r
}

// Observe updates the gauge metrics from a live FNE server snapshot.
// Callers invoke this periodically (e.g. alongside the engine clock
// tick) rather than on every payload, since peer counts change slowly.
func (r *Registry) Observe(server *fne.Server) {
	r.peersRunning.Set(float64(len(server.RunningPeers(0))))
}

// RegisterCollectors registers additional collectors (e.g. the
// per-engine affiliation.Engine.Collectors()) with the default
// Prometheus registerer.
func RegisterCollectors(collectors ...prometheus.Collector) {
	for _, c := range collectors {
		prometheus.MustRegister(c)
	}
}
