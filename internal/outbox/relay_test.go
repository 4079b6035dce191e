package outbox

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockStore struct{ mock.Mock }

func (m *MockStore) LockBatch(ctx context.Context, relayID string, batchSize int, lease time.Duration) ([]Event, error) {
	args := m.Called(ctx, relayID, batchSize, lease)
	events, _ := args.Get(0).([]Event)
	return events, args.Error(1)
}

func (m *MockStore) MarkSent(ctx context.Context, ids []int64) error {
	return m.Called(ctx, ids).Error(0)
}

func (m *MockStore) MarkFailed(ctx context.Context, id int64, errMsg string) error {
	return m.Called(ctx, id, errMsg).Error(0)
}

type fakeProducer struct {
	sent   []kafka.Message
	failOn string
}

func (p *fakeProducer) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		if string(m.Key) == p.failOn {
			return errors.New("broker down")
		}
		p.sent = append(p.sent, m)
	}
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRelayTick_PublishesAndMarksSent(t *testing.T) {
	store := &MockStore{}
	prod := &fakeProducer{}
	events := []Event{
		{ID: 1, AggregateID: "order-1", Type: "ProductSold", Payload: []byte(`{"a":1}`), Headers: map[string]string{"traceparent": "00-abc"}},
		{ID: 2, AggregateID: "order-1", Type: "ProductSold", Payload: []byte(`{"a":2}`)},
	}
	store.On("LockBatch", mock.Anything, "relay-1", 100, 30*time.Second).Return(events, nil)
	store.On("MarkSent", mock.Anything, []int64{1, 2}).Return(nil)

	r := NewRelay(discardLogger(), store, NewDispatcher(discardLogger(), prod), "relay-1")
	n, err := r.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.Len(t, prod.sent, 2)
	assert.Equal(t, "order-1", string(prod.sent[0].Key))
	headers := map[string]string{}
	for _, h := range prod.sent[0].Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "00-abc", headers["traceparent"])
	assert.Equal(t, "ProductSold", headers["x-event-type"])
	store.AssertExpectations(t)
}

func TestRelayTick_FailedDispatchIsRequeued(t *testing.T) {
	store := &MockStore{}
	prod := &fakeProducer{failOn: "order-bad"}
	events := []Event{
		{ID: 7, AggregateID: "order-bad", Type: "ProductSold"},
		{ID: 8, AggregateID: "order-ok", Type: "ProductSold"},
	}
	store.On("LockBatch", mock.Anything, "relay-1", 100, 30*time.Second).Return(events, nil)
	store.On("MarkFailed", mock.Anything, int64(7), "broker down").Return(nil)
	store.On("MarkSent", mock.Anything, []int64{8}).Return(nil)

	r := NewRelay(discardLogger(), store, NewDispatcher(discardLogger(), prod), "relay-1")
	n, err := r.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	store.AssertExpectations(t)
}

func TestRelayTick_EmptyBatch(t *testing.T) {
	store := &MockStore{}
	store.On("LockBatch", mock.Anything, "relay-1", 100, 30*time.Second).Return(nil, nil)

	r := NewRelay(discardLogger(), store, NewDispatcher(discardLogger(), &fakeProducer{}), "relay-1")
	n, err := r.Tick(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	store.AssertNotCalled(t, "MarkSent", mock.Anything, mock.Anything)
}

func TestRelayTick_LockError(t *testing.T) {
	store := &MockStore{}
	store.On("LockBatch", mock.Anything, "relay-1", 100, 30*time.Second).Return(nil, errors.New("db down"))

	r := NewRelay(discardLogger(), store, NewDispatcher(discardLogger(), &fakeProducer{}), "relay-1")
	_, err := r.Tick(context.Background())
	assert.Error(t, err)
}
