package publisher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "bloodlink/pkg/domain"
	audit "bloodlink/pkg/platform/audit"
	"bloodlink/pkg/platform/audit/store/memory"
	"bloodlink/pkg/platform/circuit"
)

func TestPublisher_SyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	actorID := id.UserID(uuid.New())
	err := pub.Emit(context.Background(), audit.Event{
		ActorID: actorID,
		Action:  audit.ActionRequestCreated,
	})
	require.NoError(t, err)

	events, err := pub.List(context.Background(), actorID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, audit.ActionRequestCreated, events[0].Action)
}

func TestPublisher_AsyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(10))

	actorID := id.UserID(uuid.New())
	err := pub.Emit(context.Background(), audit.Event{
		ActorID: actorID,
		Action:  audit.ActionDonationCompleted,
	})
	require.NoError(t, err)

	pub.Close()

	events, err := store.ListByActor(context.Background(), actorID, 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, audit.ActionDonationCompleted, events[0].Action)
}

func TestPublisher_AsyncDrainsOnClose(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(100))

	actorID := id.UserID(uuid.New())
	for range 10 {
		err := pub.Emit(context.Background(), audit.Event{
			ActorID: actorID,
			Action:  audit.ActionRequestApproved,
		})
		require.NoError(t, err)
	}

	pub.Close()

	events, err := store.ListByActor(context.Background(), actorID, 0)
	require.NoError(t, err)
	assert.Len(t, events, 10, "all events should be drained on close")
}

func TestPublisher_BufferFull_DropsEvent(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(1))
	defer pub.Close()

	actorID := id.UserID(uuid.New())

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = pub.Emit(context.Background(), audit.Event{
				ActorID: actorID,
				Action:  audit.ActionRequestCreated,
			})
		}()
	}
	wg.Wait()
}

func TestPublisher_EmitAfterClose(t *testing.T) {
	pub := NewPublisher(memory.NewInMemoryStore(), WithAsyncBuffer(1))
	pub.Close()
	pub.Close()

	err := pub.Emit(context.Background(), audit.Event{Action: audit.ActionRequestReset})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestPublisher_SetsTimestamp(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	actorID := id.UserID(uuid.New())

	before := time.Now()
	err := pub.Emit(context.Background(), audit.Event{ActorID: actorID, Action: audit.ActionRequestCreated})
	require.NoError(t, err)
	after := time.Now()

	events, err := pub.List(context.Background(), actorID)
	require.NoError(t, err)
	require.Len(t, events, 1)

	assert.False(t, events[0].Timestamp.Before(before), "timestamp should be >= before")
	assert.False(t, events[0].Timestamp.After(after), "timestamp should be <= after")
}

func TestPublisher_PreservesExistingTimestamp(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	actorID := id.UserID(uuid.New())
	customTime := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	err := pub.Emit(context.Background(), audit.Event{
		ActorID:   actorID,
		Action:    audit.ActionRequestCreated,
		Timestamp: customTime,
	})
	require.NoError(t, err)

	events, err := pub.List(context.Background(), actorID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, customTime, events[0].Timestamp)
}

func TestPublisher_DifferentActors(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	actor1 := id.UserID(uuid.New())
	actor2 := id.UserID(uuid.New())

	require.NoError(t, pub.Emit(context.Background(), audit.Event{ActorID: actor1, Action: audit.ActionRequestCreated}))
	require.NoError(t, pub.Emit(context.Background(), audit.Event{ActorID: actor2, Action: audit.ActionInventoryUpdated}))

	events1, err := pub.List(context.Background(), actor1)
	require.NoError(t, err)
	require.Len(t, events1, 1)
	assert.Equal(t, audit.ActionRequestCreated, events1[0].Action)

	events2, err := pub.List(context.Background(), actor2)
	require.NoError(t, err)
	require.Len(t, events2, 1)
	assert.Equal(t, audit.ActionInventoryUpdated, events2[0].Action)
}

type failingStore struct {
	memory.InMemoryStore
	calls int
}

func (s *failingStore) Append(context.Context, audit.Event) error {
	s.calls++
	return errors.New("db down")
}

func TestPublisher_CircuitOpensAfterFailures(t *testing.T) {
	store := &failingStore{}
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	pub := NewPublisher(store,
		WithMetrics(metrics),
		WithCircuitBreaker(circuit.New("test", circuit.WithFailureThreshold(2), circuit.WithCooldown(time.Hour))),
	)
	defer pub.Close()

	ctx := context.Background()
	event := audit.Event{Action: audit.ActionRequestApproved}

	assert.EqualError(t, pub.Emit(ctx, event), "db down")
	assert.EqualError(t, pub.Emit(ctx, event), "db down")
	assert.ErrorIs(t, pub.Emit(ctx, event), ErrCircuitOpen)

	assert.Equal(t, 2, store.calls)
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.Failures))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.CircuitState))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.Dropped.WithLabelValues("circuit_open")))
}
