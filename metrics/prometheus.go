// Package metrics exposes prometheus collectors and tracing helpers.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Rank recompute latency, sub-millisecond for the graphs this tool handles
	recomputeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rankgraph_recompute_seconds",
			Help:    "Rank recompute duration in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
	)

	// Power iterations needed per recompute
	recomputeIterations = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rankgraph_recompute_iterations",
			Help:    "Power iterations performed per rank recompute",
			Buckets: []float64{1, 5, 10, 20, 50, 100, 250, 500, 1000},
		},
	)

	// Recomputes that hit the iteration cap
	lowConfidence = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rankgraph_recompute_unconverged_total",
			Help: "Total number of rank recomputes that stopped at the iteration cap",
		},
	)

	// Graph mutations by kind
	mutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rankgraph_mutations_total",
			Help: "Total number of graph mutations by kind",
		},
		[]string{"kind"}, // add_node, remove_node, link, strengthen, unlink
	)

	// Notices surfaced to presentation
	notices = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rankgraph_notices_total",
			Help: "Total number of user-facing notices by kind",
		},
		[]string{"kind"},
	)

	activeSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rankgraph_active_sessions",
			Help: "Current number of live editing sessions",
		},
	)
)

// RecordRecompute records one rank recompute
func RecordRecompute(durationSeconds float64, iterations int, converged bool) {
	recomputeDuration.Observe(durationSeconds)
	recomputeIterations.Observe(float64(iterations))
	if !converged {
		lowConfidence.Inc()
	}
}

// RecordMutation increments the mutation counter
func RecordMutation(kind string) {
	mutations.WithLabelValues(kind).Inc()
}

// RecordNotice increments the notice counter
func RecordNotice(kind string) {
	notices.WithLabelValues(kind).Inc()
}

// IncrementActiveSessions increments the active sessions gauge
func IncrementActiveSessions() {
	activeSessions.Inc()
}

// DecrementActiveSessions decrements the active sessions gauge
func DecrementActiveSessions() {
	activeSessions.Dec()
}

// Handler returns the HTTP handler for Prometheus metrics endpoint
func Handler() http.Handler {
	return promhttp.Handler()
}
