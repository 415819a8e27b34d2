package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

type fakeProducer struct {
	records []*kgo.Record
	err     error
}

func (p *fakeProducer) ProduceSync(_ context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	p.records = append(p.records, rs...)
	results := make(kgo.ProduceResults, 0, len(rs))
	for _, r := range rs {
		results = append(results, kgo.ProduceResult{Record: r, Err: p.err})
	}
	return results
}

var fixedNow = time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)

func TestRunOncePublishesAndMarksBatch(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	producer := &fakeProducer{}
	w := NewWorker(db, producer, "bloodlink.activity", WithBatchSize(10))
	w.now = func() time.Time { return fixedNow }

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, aggregate_id, event_type, payload\s+FROM outbox`).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "aggregate_id", "event_type", "payload"}).
			AddRow("11111111-1111-1111-1111-111111111111", "evt-1", "REQUEST_APPROVED", []byte(`{"action":"REQUEST_APPROVED"}`)).
			AddRow("22222222-2222-2222-2222-222222222222", "evt-2", "DONATION_COMPLETED", []byte(`{"action":"DONATION_COMPLETED"}`)))
	mock.ExpectExec(`UPDATE outbox SET published_at`).
		WithArgs(fixedNow, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	n, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.Len(t, producer.records, 2)
	assert.Equal(t, "bloodlink.activity", producer.records[0].Topic)
	assert.Equal(t, []byte("evt-1"), producer.records[0].Key)
	assert.Equal(t, "event_type", producer.records[1].Headers[0].Key)
	assert.Equal(t, []byte("DONATION_COMPLETED"), producer.records[1].Headers[0].Value)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunOnceEmptyOutbox(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	producer := &fakeProducer{}
	w := NewWorker(db, producer, "bloodlink.activity")

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM outbox`).WillReturnRows(sqlmock.NewRows([]string{"id", "aggregate_id", "event_type", "payload"}))
	mock.ExpectRollback()

	n, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, producer.records)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunOnceProduceFailureLeavesRowsUnpublished(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	w := NewWorker(db, &fakeProducer{err: errors.New("broker unavailable")}, "bloodlink.activity")

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM outbox`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "aggregate_id", "event_type", "payload"}).
			AddRow("11111111-1111-1111-1111-111111111111", "evt-1", "REQUEST_CREATED", []byte(`{}`)))
	mock.ExpectRollback()

	_, err = w.RunOnce(context.Background())
	require.ErrorContains(t, err, "broker unavailable")
	require.NoError(t, mock.ExpectationsWereMet())
}

type fakeAdmin struct {
	resp kadm.CreateTopicResponse
	err  error
}

func (a fakeAdmin) CreateTopic(context.Context, int32, int16, map[string]*string, string) (kadm.CreateTopicResponse, error) {
	return a.resp, a.err
}

func TestEnsureTopic(t *testing.T) {
	ctx := context.Background()

	assert.NoError(t, EnsureTopic(ctx, fakeAdmin{}, "t", 3, 1))
	assert.NoError(t, EnsureTopic(ctx, fakeAdmin{resp: kadm.CreateTopicResponse{Err: kerr.TopicAlreadyExists}}, "t", 3, 1))
	assert.Error(t, EnsureTopic(ctx, fakeAdmin{resp: kadm.CreateTopicResponse{Err: kerr.InvalidReplicationFactor}}, "t", 3, 1))
	assert.Error(t, EnsureTopic(ctx, fakeAdmin{err: errors.New("dial")}, "t", 3, 1))
}
