package metrics_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"fidelis/internal/metrics"
)

func TestMetrics_NilSafe(t *testing.T) {
	var m *metrics.Metrics
	assert.NotPanics(t, func() {
		m.ObserveProvider("primary", "success", time.Second)
		m.IncrementOutcome("authority-key", true)
		m.IncrementStrategy("")
		m.ObserveValidationLatency(time.Second)
	})
}

func TestMetrics_Counts(t *testing.T) {
	m := metrics.NewWith(prometheus.NewRegistry())

	m.ObserveProvider("primary", "http_error", 20*time.Millisecond)
	m.ObserveProvider("primary", "http_error", 20*time.Millisecond)
	m.IncrementOutcome("ocr-restricted", true)
	m.IncrementStrategy("")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ProviderAttempts.WithLabelValues("primary", "http_error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ValidationOutcome.WithLabelValues("ocr-restricted", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ExtractionStrategy.WithLabelValues("none")))
}
