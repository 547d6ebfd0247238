package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for roster comparisons.
type Metrics struct {
	ComparisonsTotal          *prometheus.CounterVec
	ComparisonDurationSeconds prometheus.Histogram
	NamesTotal                *prometheus.CounterVec
	BaseEntries               prometheus.Histogram
}

func New(registry *prometheus.Registry) *Metrics {
	return &Metrics{
		ComparisonsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "rostermatch_comparisons_total",
				Help: "Total number of roster comparisons by status",
			},
			[]string{"status"}, // status: success, input_error, error
		),

		ComparisonDurationSeconds: promauto.With(registry).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "rostermatch_comparison_duration_seconds",
				Help:    "Wall time of a full comparison including file parsing",
				Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
			},
		),

		NamesTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "rostermatch_names_total",
				Help: "Total number of input roster names by outcome",
			},
			[]string{"outcome"}, // outcome: matched, unmatched
		),

		BaseEntries: promauto.With(registry).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "rostermatch_base_entries",
				Help:    "Number of base roster entries that survived filtering per comparison",
				Buckets: prometheus.ExponentialBuckets(10, 2, 10), // 10 .. 5120
			},
		),
	}
}

func (m *Metrics) RecordComparison(status string, seconds float64) {
	if m == nil {
		return
	}
	m.ComparisonsTotal.WithLabelValues(status).Inc()
	m.ComparisonDurationSeconds.Observe(seconds)
}

func (m *Metrics) RecordNames(matched, unmatched int) {
	if m == nil {
		return
	}
	m.NamesTotal.WithLabelValues("matched").Add(float64(matched))
	m.NamesTotal.WithLabelValues("unmatched").Add(float64(unmatched))
}

func (m *Metrics) RecordBaseEntries(n int) {
	if m == nil {
		return
	}
	m.BaseEntries.Observe(float64(n))
}
