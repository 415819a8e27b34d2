package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	id "bloodlink/pkg/domain"
)

// Action is the activity tag stored with every event. Values round-trip
// unchanged to the activity log and the outbox topic.
type Action string

const (
	ActionRequestCreated    Action = "REQUEST_CREATED"
	ActionRequestApproved   Action = "REQUEST_APPROVED"
	ActionRequestRejected   Action = "REQUEST_REJECTED"
	ActionRequestCancelled  Action = "REQUEST_CANCELLED"
	ActionRequestUpdated    Action = "REQUEST_UPDATED"
	ActionRequestReset      Action = "REQUEST_RESET"
	ActionDonationCompleted Action = "DONATION_COMPLETED"
	ActionInventoryUpdated  Action = "INVENTORY_UPDATED"
	ActionNearbyResolved    Action = "NEARBY_RESOLVED"
)

func (a Action) String() string {
	return string(a)
}

// Event is one append-only activity log entry. Keep it transport-agnostic so
// stores and sinks can fan out.
type Event struct {
	ID          uuid.UUID
	Timestamp   time.Time
	ActorID     id.UserID
	Action      Action
	Description string
	ClientIP    string
	UserAgent   string
	// RequestID is the HTTP correlation ID, not a blood request.
	RequestID string
	Metadata  map[string]any
}

// Store persists activity events. Implementations must be safe for
// concurrent use.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByActor(ctx context.Context, actorID id.UserID, limit int) ([]Event, error)
}
