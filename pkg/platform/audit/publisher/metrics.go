package publisher

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	audit "bloodlink/pkg/platform/audit"
)

// Metrics holds Prometheus metrics for activity persistence. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	Persisted      *prometheus.CounterVec
	Dropped        *prometheus.CounterVec
	Failures       prometheus.Counter
	PersistLatency prometheus.Histogram
	CircuitState   prometheus.Gauge
}

// NewMetrics registers the publisher metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Persisted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "bloodlink_activity_persisted_total",
			Help: "Activity events persisted, by action",
		}, []string{"action"}),
		Dropped: f.NewCounterVec(prometheus.CounterOpts{
			Name: "bloodlink_activity_dropped_total",
			Help: "Activity events dropped without persistence, by reason",
		}, []string{"reason"}),
		Failures: f.NewCounter(prometheus.CounterOpts{
			Name: "bloodlink_activity_persist_failures_total",
			Help: "Activity event persistence failures",
		}),
		PersistLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "bloodlink_activity_persist_duration_seconds",
			Help:    "Time spent writing one activity event",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
		CircuitState: f.NewGauge(prometheus.GaugeOpts{
			Name: "bloodlink_activity_circuit_open",
			Help: "Activity store circuit state (0=closed, 1=open)",
		}),
	}
}

func (m *Metrics) IncPersisted(action audit.Action) {
	if m == nil {
		return
	}
	m.Persisted.WithLabelValues(action.String()).Inc()
}

func (m *Metrics) IncDropped(reason string) {
	if m == nil {
		return
	}
	m.Dropped.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncFailure() {
	if m == nil {
		return
	}
	m.Failures.Inc()
}

func (m *Metrics) ObservePersist(d time.Duration) {
	if m == nil {
		return
	}
	m.PersistLatency.Observe(d.Seconds())
}

func (m *Metrics) SetCircuitOpen(open bool) {
	if m == nil {
		return
	}
	if open {
		m.CircuitState.Set(1)
		return
	}
	m.CircuitState.Set(0)
}
