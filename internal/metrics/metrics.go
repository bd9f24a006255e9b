// Package metrics exposes Prometheus instrumentation for the
// classification pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the pipeline's Prometheus collectors.
type Metrics struct {
	ClassificationsTotal *prometheus.CounterVec
	RemoteFailuresTotal  prometheus.Counter
	TokensUsedTotal      prometheus.Counter
	ChunkFallbacksTotal  prometheus.Counter
}

// New registers and returns the pipeline collectors. Pass
// prometheus.DefaultRegisterer outside tests.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ClassificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ledgerlens",
			Name:      "classifications_total",
			Help:      "Transactions classified, labeled by cascade tier.",
		}, []string{"tier"}),
		RemoteFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ledgerlens",
			Name:      "remote_failures_total",
			Help:      "Remote classifier calls that failed.",
		}),
		TokensUsedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ledgerlens",
			Name:      "tokens_used_total",
			Help:      "Tokens consumed by remote classification calls.",
		}),
		ChunkFallbacksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ledgerlens",
			Name:      "chunk_fallbacks_total",
			Help:      "Bulk chunks repaired through per-transaction fallback.",
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.ClassificationsTotal,
			m.RemoteFailuresTotal,
			m.TokensUsedTotal,
			m.ChunkFallbacksTotal,
		)
	}
	return m
}

// Nop returns unregistered collectors for callers that do not report metrics.
func Nop() *Metrics { return New(nil) }
