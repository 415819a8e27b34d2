package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "bloodlink/pkg/domain"
	audit "bloodlink/pkg/platform/audit"
	txcontext "bloodlink/pkg/platform/tx"
)

func newMockStore(t *testing.T) (*Store, *sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(db), db, mock
}

func TestAppendWritesActivityAndOutbox(t *testing.T) {
	store, _, mock := newMockStore(t)
	actor := id.UserID(uuid.New())
	eventID := uuid.New()
	ts := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

	mock.ExpectExec(`WITH log AS \(\s*INSERT INTO activity_logs .*INSERT INTO outbox`).
		WithArgs(
			eventID,
			actor.String(),
			"REQUEST_APPROVED",
			"Approved request",
			sql.NullString{String: "10.0.0.1", Valid: true},
			sql.NullString{},
			"req-1",
			sqlmock.AnyArg(),
			ts,
			sqlmock.AnyArg(),
			eventID.String(),
			sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.Append(context.Background(), audit.Event{
		ID:          eventID,
		Timestamp:   ts,
		ActorID:     actor,
		Action:      audit.ActionRequestApproved,
		Description: "Approved request",
		ClientIP:    "10.0.0.1",
		RequestID:   "req-1",
		Metadata:    map[string]any{"old_status": "PENDING", "new_status": "APPROVED"},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendUsesContextTransaction(t *testing.T) {
	store, db, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO activity_logs`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(t, err)
	ctx := txcontext.WithTx(context.Background(), tx)
	require.NoError(t, store.Append(ctx, audit.Event{Action: audit.ActionRequestReset}))
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListByActorDecodesRows(t *testing.T) {
	store, _, mock := newMockStore(t)
	actor := id.UserID(uuid.New())
	eventID := uuid.New()
	ts := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	metadata, _ := json.Marshal(map[string]any{"request_id": "abc"})

	rows := sqlmock.NewRows([]string{"id", "actor_id", "action", "description", "ip_address", "user_agent", "request_id", "metadata", "created_at"}).
		AddRow(eventID.String(), actor.String(), "REQUEST_CREATED", "Created request", "10.0.0.1", nil, "", metadata, ts)
	mock.ExpectQuery(`FROM activity_logs`).WithArgs(actor, 100).WillReturnRows(rows)

	events, err := store.ListByActor(context.Background(), actor, 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, eventID, events[0].ID)
	assert.Equal(t, actor, events[0].ActorID)
	assert.Equal(t, audit.ActionRequestCreated, events[0].Action)
	assert.Equal(t, "10.0.0.1", events[0].ClientIP)
	assert.Empty(t, events[0].UserAgent)
	assert.Equal(t, "abc", events[0].Metadata["request_id"])
	require.NoError(t, mock.ExpectationsWereMet())
}
