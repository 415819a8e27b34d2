package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	id "bloodlink/pkg/domain"
	audit "bloodlink/pkg/platform/audit"
	txcontext "bloodlink/pkg/platform/tx"
)

// Store implements audit.Store using the transactional outbox pattern.
// Each event is written to activity_logs for querying and to the outbox
// table in the same statement; the outbox relay publishes it to Kafka.
type Store struct {
	db *sql.DB
}

// New creates a new PostgreSQL activity store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// OutboxPayload is the JSON document published to the activity topic.
type OutboxPayload struct {
	ID          string         `json:"id"`
	Timestamp   string         `json:"timestamp"`
	ActorID     string         `json:"actor_id,omitempty"`
	Action      string         `json:"action"`
	Description string         `json:"description"`
	IPAddress   string         `json:"ip_address,omitempty"`
	UserAgent   string         `json:"user_agent,omitempty"`
	RequestID   string         `json:"request_id,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

const appendQuery = `
	WITH log AS (
		INSERT INTO activity_logs (id, actor_id, action, description, ip_address, user_agent, request_id, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	)
	INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at)
	VALUES ($10, 'activity', $11, $3, $12, $9)
`

// Append writes the activity row and its outbox entry atomically.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	metadata, err := json.Marshal(nonNilMetadata(event.Metadata))
	if err != nil {
		return fmt.Errorf("marshal activity metadata: %w", err)
	}

	payload := OutboxPayload{
		ID:          event.ID.String(),
		Timestamp:   event.Timestamp.Format(time.RFC3339Nano),
		Action:      event.Action.String(),
		Description: event.Description,
		IPAddress:   event.ClientIP,
		UserAgent:   event.UserAgent,
		RequestID:   event.RequestID,
		Metadata:    event.Metadata,
	}
	var actor *string
	if !event.ActorID.IsNil() {
		a := event.ActorID.String()
		actor = &a
		payload.ActorID = a
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal outbox payload: %w", err)
	}

	_, err = s.execer(ctx).ExecContext(ctx, appendQuery,
		event.ID,
		actor,
		event.Action.String(),
		event.Description,
		nullString(event.ClientIP),
		nullString(event.UserAgent),
		event.RequestID,
		metadata,
		event.Timestamp,
		uuid.New(),
		event.ID.String(),
		payloadBytes,
	)
	if err != nil {
		return fmt.Errorf("insert activity log: %w", err)
	}
	return nil
}

// ListByActor returns the actor's events, most recent first.
func (s *Store) ListByActor(ctx context.Context, actorID id.UserID, limit int) ([]audit.Event, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
		SELECT id, actor_id, action, description, ip_address, user_agent, request_id, metadata, created_at
		FROM activity_logs
		WHERE actor_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, actorID, limit)
	if err != nil {
		return nil, fmt.Errorf("query activity logs: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var (
			event    audit.Event
			actor    uuid.NullUUID
			action   string
			ip, ua   sql.NullString
			metadata []byte
		)
		if err := rows.Scan(&event.ID, &actor, &action, &event.Description, &ip, &ua, &event.RequestID, &metadata, &event.Timestamp); err != nil {
			return nil, fmt.Errorf("scan activity log: %w", err)
		}
		if actor.Valid {
			event.ActorID = id.UserID(actor.UUID)
		}
		event.Action = audit.Action(action)
		event.ClientIP = ip.String
		event.UserAgent = ua.String
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &event.Metadata); err != nil {
				return nil, fmt.Errorf("decode activity metadata: %w", err)
			}
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activity logs: %w", err)
	}
	return events, nil
}

func nonNilMetadata(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
