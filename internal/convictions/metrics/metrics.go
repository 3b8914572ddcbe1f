package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the conviction matching module.
type Metrics struct {
	// Match outcomes by subject kind and winning tier ("none" for misses)
	MatchOutcome *prometheus.CounterVec

	// End-to-end check latency including cache lookups
	CheckLatency prometheus.Histogram

	// Match cache effectiveness
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter

	// Reference entities loaded by the last import
	ImportedEntities prometheus.Gauge
}

// New creates a Metrics instance with all module metrics registered.
func New() *Metrics {
	return &Metrics{
		MatchOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "regoffice_convictions_match_outcomes_total",
			Help: "Total conviction match outcomes by subject kind and winning tier",
		}, []string{"kind", "tier"}),

		CheckLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "regoffice_convictions_check_duration_seconds",
			Help:    "Duration of conviction checks including cache lookups",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),

		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "regoffice_convictions_cache_hits_total",
			Help: "Total conviction check cache hits",
		}),

		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "regoffice_convictions_cache_misses_total",
			Help: "Total conviction check cache misses",
		}),

		ImportedEntities: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "regoffice_convictions_reference_entities",
			Help: "Reference entities loaded by the most recent import",
		}),
	}
}

// RecordOutcome counts one finished match by kind and tier.
func (m *Metrics) RecordOutcome(kind, tier string) {
	if m != nil {
		m.MatchOutcome.WithLabelValues(kind, tier).Inc()
	}
}

// ObserveCheck records the duration of a full conviction check.
func (m *Metrics) ObserveCheck(d time.Duration) {
	if m != nil {
		m.CheckLatency.Observe(d.Seconds())
	}
}

// RecordCacheHit and RecordCacheMiss track cache effectiveness.
func (m *Metrics) RecordCacheHit() {
	if m != nil {
		m.CacheHits.Inc()
	}
}

func (m *Metrics) RecordCacheMiss() {
	if m != nil {
		m.CacheMisses.Inc()
	}
}

// SetImportedEntities records the size of the reference collection after an
// import.
func (m *Metrics) SetImportedEntities(n int) {
	if m != nil {
		m.ImportedEntities.Set(float64(n))
	}
}
