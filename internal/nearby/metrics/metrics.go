package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for nearby lookups.
type Metrics struct {
	Resolutions       *prometheus.CounterVec
	ResolveDuration   prometheus.Histogram
	CandidateCache    *prometheus.CounterVec
	SkippedCandidates prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Resolutions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "bloodlink_nearby_resolutions_total",
			Help: "Nearby lookups, by outcome",
		}, []string{"outcome"}),
		ResolveDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "bloodlink_nearby_resolve_duration_seconds",
			Help:    "Duration of nearby lookups including the snapshot write",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		CandidateCache: f.NewCounterVec(prometheus.CounterOpts{
			Name: "bloodlink_nearby_candidate_cache_total",
			Help: "Candidate cache lookups, by entity type and result",
		}, []string{"type", "result"}),
		SkippedCandidates: f.NewCounter(prometheus.CounterOpts{
			Name: "bloodlink_nearby_skipped_candidates_total",
			Help: "Candidates left out of a ranking for an unknown location",
		}),
	}
}

func (m *Metrics) ObserveResolve(outcome string, start time.Time) {
	if m == nil {
		return
	}
	m.Resolutions.WithLabelValues(outcome).Inc()
	m.ResolveDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncrementCache(entityType, result string) {
	if m == nil {
		return
	}
	m.CandidateCache.WithLabelValues(entityType, result).Inc()
}

func (m *Metrics) AddSkipped(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.SkippedCandidates.Add(float64(n))
}
