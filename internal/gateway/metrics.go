// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	// requests counts API requests by outcome code
	requests *prometheus.CounterVec

	// duration observes API request latency
	duration prometheus.Histogram

	// inflight tracks requests currently being forwarded
	inflight prometheus.Gauge

	// rejected counts requests turned away before forwarding, by reason
	rejected *prometheus.CounterVec

	// upstreamErrors counts failed upstream round trips by proxy
	upstreamErrors *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relay_requests_total",
				Help: "Total API requests by status code",
			},
			[]string{"code"},
		),
		duration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "relay_request_duration_seconds",
				Help:    "API request latency",
				Buckets: prometheus.DefBuckets,
			},
		),
		inflight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "relay_requests_in_flight",
				Help: "API requests currently being forwarded",
			},
		),
		rejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relay_requests_rejected_total",
				Help: "API requests rejected before forwarding, by reason",
			},
			[]string{"reason"},
		),
		upstreamErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relay_upstream_errors_total",
				Help: "Failed upstream round trips by proxy",
			},
			[]string{"proxy"},
		),
	}
}
