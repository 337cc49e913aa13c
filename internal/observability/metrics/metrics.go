// Package metrics exposes the engine's Prometheus instruments.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

// Metrics groups the emission instruments. Instruments are registered on
// construction; fx guarantees a single instance per process.
type Metrics struct {
	DocumentsEmitted   *prometheus.CounterVec
	EmissionFailures   *prometheus.CounterVec
	SchemaFallbacks    prometheus.Counter
	IncompleteProfiles prometheus.Counter
	EmissionDuration   prometheus.Histogram
}

func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers the instruments on the given registerer. Tests pass a
// fresh registry to avoid duplicate-registration panics.
func NewWith(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		DocumentsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fiscal",
			Name:      "documents_emitted_total",
			Help:      "Documents successfully assembled, by model.",
		}, []string{"model"}),
		EmissionFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fiscal",
			Name:      "emission_failures_total",
			Help:      "Failed emission attempts, by reason.",
		}, []string{"reason"}),
		SchemaFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fiscal",
			Name:      "schema_fallbacks_total",
			Help:      "Order resolutions served by the secondary store schema.",
		}),
		IncompleteProfiles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fiscal",
			Name:      "incomplete_tax_profiles_total",
			Help:      "Line items whose tax profile needed default fills.",
		}),
		EmissionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "fiscal",
			Name:      "emission_duration_seconds",
			Help:      "End-to-end emission latency.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		m.DocumentsEmitted,
		m.EmissionFailures,
		m.SchemaFallbacks,
		m.IncompleteProfiles,
		m.EmissionDuration,
	)
	return m
}

var Module = fx.Module("observability.metrics",
	fx.Provide(New),
)
