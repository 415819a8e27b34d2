// Package audit is the activity recorder used by every service that mutates
// state. Recording is best-effort: failures are logged and counted, never
// returned to the caller.
package audit

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	id "bloodlink/pkg/domain"
	audit "bloodlink/pkg/platform/audit"
	"bloodlink/pkg/requestcontext"
)

// Publisher is the sink the recorder writes through.
type Publisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Entry is what a service knows about an activity. Request metadata is
// filled from the context.
type Entry struct {
	ActorID     id.UserID
	Action      audit.Action
	Description string
	Metadata    map[string]any
}

// Recorder turns entries into audit events.
type Recorder struct {
	publisher Publisher
	logger    *slog.Logger
	failures  *prometheus.CounterVec
}

type Option func(*Recorder)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) {
		r.logger = logger
	}
}

// WithRegisterer registers the failure counter on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(r *Recorder) {
		r.failures = promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "bloodlink_activity_record_failures_total",
			Help: "Activity entries that could not be recorded, by action",
		}, []string{"action"})
	}
}

func NewRecorder(publisher Publisher, opts ...Option) *Recorder {
	r := &Recorder{publisher: publisher, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record emits the entry. It never fails the caller.
func (r *Recorder) Record(ctx context.Context, entry Entry) {
	if r == nil || r.publisher == nil {
		return
	}
	event := audit.Event{
		Timestamp:   requestcontext.Now(ctx),
		ActorID:     entry.ActorID,
		Action:      entry.Action,
		Description: entry.Description,
		ClientIP:    requestcontext.ClientIP(ctx),
		UserAgent:   requestcontext.UserAgent(ctx),
		RequestID:   requestcontext.RequestID(ctx),
		Metadata:    withDevice(entry.Metadata, requestcontext.Device(ctx)),
	}
	// the transition already committed; a cancelled request must not drop its entry
	if err := r.publisher.Emit(context.WithoutCancel(ctx), event); err != nil {
		if r.failures != nil {
			r.failures.WithLabelValues(entry.Action.String()).Inc()
		}
		r.logger.ErrorContext(ctx, "failed to record activity",
			"event", entry.Action.String(),
			"log_type", "audit",
			"request_id", event.RequestID,
			"error", err,
		)
	}
}

// withDevice copies metadata and adds the caller's device name when known.
func withDevice(metadata map[string]any, device string) map[string]any {
	if device == "" {
		return metadata
	}
	out := make(map[string]any, len(metadata)+1)
	for k, v := range metadata {
		out[k] = v
	}
	out["device"] = device
	return out
}
