package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for invoice validation and registry lookups.
// All methods are safe to call on a nil *Metrics.
type Metrics struct {
	// Registry attempts by provider and outcome (success, failure)
	ProviderAttempts *prometheus.CounterVec

	// Registry request latency by provider
	ProviderLatency *prometheus.HistogramVec

	// Final validation outcomes
	ValidationOutcome *prometheus.CounterVec

	// Winning extraction strategy per validation
	ExtractionStrategy *prometheus.CounterVec

	ValidationLatency prometheus.Histogram
}

// New creates a Metrics instance registered with the default prometheus registry.
// Call it once per process.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith creates a Metrics instance registered with reg.
func NewWith(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ProviderAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fidelis_registry_attempts_total",
			Help: "Authority registry lookups by provider and outcome",
		}, []string{"provider", "outcome"}),

		ProviderLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fidelis_registry_request_duration_seconds",
			Help:    "Duration of authority registry requests by provider",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"provider"}),

		ValidationOutcome: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fidelis_invoice_validations_total",
			Help: "Invoice validation outcomes by validation type",
		}, []string{"validation_type", "success"}),

		ExtractionStrategy: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fidelis_key_extractions_total",
			Help: "Access key extractions by winning strategy (none when extraction failed)",
		}, []string{"strategy"}),

		ValidationLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "fidelis_invoice_validation_duration_seconds",
			Help:    "Duration of a full invoice validation including registry lookups",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}
}

// ObserveProvider records one registry attempt.
func (m *Metrics) ObserveProvider(provider, outcome string, d time.Duration) {
	if m != nil {
		m.ProviderAttempts.WithLabelValues(provider, outcome).Inc()
		m.ProviderLatency.WithLabelValues(provider).Observe(d.Seconds())
	}
}

// IncrementOutcome records a final validation outcome.
func (m *Metrics) IncrementOutcome(validationType string, success bool) {
	if m != nil {
		s := "false"
		if success {
			s = "true"
		}
		m.ValidationOutcome.WithLabelValues(validationType, s).Inc()
	}
}

// IncrementStrategy records which extraction strategy produced the key.
func (m *Metrics) IncrementStrategy(strategy string) {
	if m != nil {
		if strategy == "" {
			strategy = "none"
		}
		m.ExtractionStrategy.WithLabelValues(strategy).Inc()
	}
}

// ObserveValidationLatency records the total validation duration.
func (m *Metrics) ObserveValidationLatency(d time.Duration) {
	if m != nil {
		m.ValidationLatency.Observe(d.Seconds())
	}
}
