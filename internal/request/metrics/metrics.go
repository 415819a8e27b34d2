package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the request lifecycle.
type Metrics struct {
	RequestsCreated    *prometheus.CounterVec
	Transitions        *prometheus.CounterVec
	TransitionDuration prometheus.Histogram
	DonationsCredited  prometheus.Counter
}

// New registers the request metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RequestsCreated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "bloodlink_requests_created_total",
			Help: "Blood requests created, by urgency",
		}, []string{"urgency"}),
		Transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "bloodlink_request_transitions_total",
			Help: "Request transitions attempted, by target status and outcome",
		}, []string{"target", "outcome"}),
		TransitionDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "bloodlink_request_transition_duration_seconds",
			Help:    "Duration of request transitions including the unit of work",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		DonationsCredited: f.NewCounter(prometheus.CounterOpts{
			Name: "bloodlink_donations_credited_total",
			Help: "Completed donations credited to a donor",
		}),
	}
}

func (m *Metrics) IncrementCreated(urgency string) {
	if m == nil {
		return
	}
	m.RequestsCreated.WithLabelValues(urgency).Inc()
}

// ObserveTransition records one transition attempt. Call with time.Now() at
// the start of the operation.
func (m *Metrics) ObserveTransition(target, outcome string, start time.Time) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(target, outcome).Inc()
	m.TransitionDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncrementDonationsCredited() {
	if m == nil {
		return
	}
	m.DonationsCredited.Inc()
}
