package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the search module.
type Metrics struct {
	// Searches by use-case and outcome ("ok", "invalid", "error")
	SearchesTotal *prometheus.CounterVec

	// Execution latency by use-case
	SearchLatency *prometheus.HistogramVec
}

// New creates a Metrics instance with all module metrics registered.
func New() *Metrics {
	return &Metrics{
		SearchesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "regoffice_searches_total",
			Help: "Total searches by use-case and outcome",
		}, []string{"usecase", "outcome"}),

		SearchLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "regoffice_search_duration_seconds",
			Help:    "Duration of search execution by use-case",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"usecase"}),
	}
}

// Record counts one finished search and its duration.
func (m *Metrics) Record(usecase, outcome string, d time.Duration) {
	if m != nil {
		m.SearchesTotal.WithLabelValues(usecase, outcome).Inc()
		m.SearchLatency.WithLabelValues(usecase).Observe(d.Seconds())
	}
}
