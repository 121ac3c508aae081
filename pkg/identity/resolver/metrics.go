package resolver

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the resolution engine.
type Metrics struct {
	ResolutionsTotal  *prometheus.CounterVec
	ResolveSeconds    *prometheus.HistogramVec
	MatchConfidence   *prometheus.HistogramVec
	QueuedTotal       *prometheus.CounterVec
	ConflictsTotal    *prometheus.CounterVec
	CacheHitsTotal    *prometheus.CounterVec
	FuzzyPoolSize     prometheus.Histogram
}

// DefaultMetrics creates metrics on the default registerer.
func DefaultMetrics() *Metrics {
	return NewMetrics(prometheus.DefaultRegisterer)
}

// NewMetrics creates a new set of resolution metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ResolutionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "playerlink_resolutions_total",
				Help: "Total resolution attempts by source, outcome and method",
			},
			[]string{"source", "outcome", "method"},
		),
		ResolveSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "playerlink_resolve_seconds",
				Help:    "Resolution latency per call",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
			},
			[]string{"source"},
		),
		MatchConfidence: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "playerlink_match_confidence",
				Help:    "Confidence distribution of resolved matches",
				Buckets: []float64{0.6, 0.65, 0.7, 0.75, 0.8, 0.85, 0.9, 0.95, 1.0},
			},
			[]string{"source", "method"},
		),
		QueuedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "playerlink_queued_total",
				Help: "Records sent to the review queue by reason",
			},
			[]string{"source", "reason"},
		),
		ConflictsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "playerlink_identifier_conflicts_total",
				Help: "Identifier writes rejected by the uniqueness constraint",
			},
			[]string{"source"},
		),
		CacheHitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "playerlink_cache_hits_total",
				Help: "Name-cache lookups by result",
			},
			[]string{"result"},
		),
		FuzzyPoolSize: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "playerlink_fuzzy_pool_size",
				Help:    "Candidate pool sizes scored by the fuzzy pass",
				Buckets: []float64{1, 10, 50, 100, 500, 1000, 5000},
			},
		),
	}
}
