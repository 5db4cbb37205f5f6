package linter

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "classlint"

// Metrics records lint activity. A nil *Metrics is valid and records nothing.
type Metrics struct {
	filesLinted   prometheus.Counter
	diagnostics   *prometheus.CounterVec
	parseFailures prometheus.Counter
	duration      prometheus.Histogram
}

// NewMetrics creates the lint metrics and registers them on reg.
// A nil reg creates unregistered metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		filesLinted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_linted_total",
			Help:      "Number of files linted",
		}),
		diagnostics: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "diagnostics_total",
			Help:      "Number of diagnostics reported, by rule",
		}, []string{"rule"}),
		parseFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parse_failures_total",
			Help:      "Number of files that could not be read or parsed",
		}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "lint_duration_seconds",
			Help:      "Time spent parsing and linting a single file",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
	}
}

// observe records one linted file.
func (m *Metrics) observe(fr FileResult, elapsed time.Duration) {
	if m == nil {
		return
	}

	m.duration.Observe(elapsed.Seconds())
	if fr.Err != nil {
		m.parseFailures.Inc()
		return
	}

	m.filesLinted.Inc()
	for _, d := range fr.Diagnostics {
		m.diagnostics.WithLabelValues(d.Rule).Inc()
	}
}
