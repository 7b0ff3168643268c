/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package stats

import (
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ptptsu"

// PrometheusStats exposes the same counters as JSONStats in Prometheus format.
// Values are published on Snapshot.
type PrometheusStats struct {
	*JSONStats

	registry   *prometheus.Registry
	perStore   map[string]*prometheus.GaugeVec
	skipped    *prometheus.GaugeVec
	rtcEvents  *prometheus.GaugeVec
	flushTotal prometheus.Gauge
}

// NewPrometheusStats creates a new instance of PrometheusStats with its own registry
func NewPrometheusStats() *PrometheusStats {
	s := &PrometheusStats{
		JSONStats: NewJSONStats(),
		registry:  prometheus.NewRegistry(),
		perStore:  map[string]*prometheus.GaugeVec{},
	}
	for name, help := range map[string]string{
		"captures_total":          "Timestamps captured",
		"lookup_hits_total":       "Lookups answered on first attempt",
		"lookup_retry_hits_total": "Lookups answered on retry",
		"lookup_misses_total":     "Lookups without a match",
		"store_inserts_total":     "Records inserted into the store",
		"store_overwrites_total":  "Records dropped by inserts into a full store",
		"store_drops_total":       "Records dropped by misses on a full store",
	} {
		g := prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: namespace, Name: name, Help: help}, []string{"direction", "class"})
		s.registry.MustRegister(g)
		s.perStore[name] = g
	}
	s.skipped = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "skipped_total",
		Help:      "Frames without a correlated PTP event message",
	}, []string{"direction"})
	s.rtcEvents = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "rtc_events_total",
		Help:      "RTC alarm, pulse and trigger events",
	}, []string{"event"})
	s.flushTotal = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "flushes_total",
		Help:      "Store flushes",
	})
	s.registry.MustRegister(s.skipped, s.rtcEvents, s.flushTotal)
	return s
}

// Registry returns the registry metrics are published to
func (s *PrometheusStats) Registry() *prometheus.Registry {
	return s.registry
}

// Handler serves the registry
func (s *PrometheusStats) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(
		s.registry,
		promhttp.HandlerOpts{
			// Opt into OpenMetrics to support exemplars.
			EnableOpenMetrics: true,
		},
	))
	mux.HandleFunc("/", s.handleRequest)
	return mux
}

// Snapshot the values and publish them to the registry
func (s *PrometheusStats) Snapshot() {
	s.JSONStats.Snapshot()
	for key, value := range s.report.toMap() {
		s.publish(key, float64(value))
	}
}

// publish maps a flat counter name back to its metric and labels
func (s *PrometheusStats) publish(key string, value float64) {
	parts := strings.Split(key, ".")
	switch {
	case parts[0] == "capture" && len(parts) == 3:
		s.perStore["captures_total"].WithLabelValues(parts[1], parts[2]).Set(value)
	case parts[0] == "lookup" && len(parts) == 4:
		name := map[string]string{"hit": "lookup_hits_total", "retry_hit": "lookup_retry_hits_total", "miss": "lookup_misses_total"}[parts[1]]
		if g, ok := s.perStore[name]; ok {
			g.WithLabelValues(parts[2], parts[3]).Set(value)
		}
	case parts[0] == "store" && len(parts) == 4:
		if g, ok := s.perStore["store_"+parts[3]+"_total"]; ok {
			g.WithLabelValues(parts[1], parts[2]).Set(value)
		}
	case parts[0] == "skipped" && len(parts) == 2:
		s.skipped.WithLabelValues(parts[1]).Set(value)
	case parts[0] == "rtc" && len(parts) == 2:
		s.rtcEvents.WithLabelValues(parts[1]).Set(value)
	case key == "flush":
		s.flushTotal.Set(value)
	}
}
