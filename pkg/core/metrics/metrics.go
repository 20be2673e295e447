// Package metrics holds the Prometheus collectors shared by the SDK client,
// the heartbeat loop and the local sidecar.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "agones_sdk"

// Health ping results
const (
	PingSent    = "sent"
	PingSkipped = "skipped"
	PingFailed  = "failed"
)

var registry = prometheus.NewRegistry()

var (
	ClientRequests = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "client",
		Name:      "requests_total",
		Help:      "gRPC calls made to the sidecar by method and status code.",
	}, []string{"method", "code"})

	ClientRequestDuration = promauto.With(registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "client",
		Name:      "request_duration_seconds",
		Help:      "Latency of gRPC calls made to the sidecar.",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
	}, []string{"method"})

	HealthPings = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "health_pings_total",
		Help:      "Health pings by result (sent, skipped, failed).",
	}, []string{"result"})

	LocalRequests = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "local",
		Name:      "requests_total",
		Help:      "Requests handled by the local development sidecar.",
	}, []string{"method"})
)

func init() {
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Registry returns the registry all collectors are registered with
func Registry() *prometheus.Registry {
	return registry
}

// Handler serves the registry in the Prometheus exposition format
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
}
