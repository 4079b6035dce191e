package payments

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/ariefcatur/rephone-market/internal/orders"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

const testOrderID = "9b2f3c1e-4d5a-4b6c-8d7e-0f1a2b3c4d5e"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type MockSettler struct{ mock.Mock }

func (m *MockSettler) Settle(ctx context.Context, n Notification) (SettleResult, error) {
	args := m.Called(ctx, n)
	return args.Get(0).(SettleResult), args.Error(1)
}

type MockFailures struct{ mock.Mock }

func (m *MockFailures) Record(ctx context.Context, n Notification, cause error) error {
	return m.Called(ctx, n, cause).Error(0)
}

func (m *MockFailures) Resolve(ctx context.Context, orderID string) error {
	return m.Called(ctx, orderID).Error(0)
}

func (m *MockFailures) Open(ctx context.Context, orderID string) (Failure, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).(Failure), args.Error(1)
}

func (m *MockFailures) List(ctx context.Context) ([]Failure, error) {
	args := m.Called(ctx)
	return args.Get(0).([]Failure), args.Error(1)
}

// memCache is an in-memory StatusCache.
type memCache struct {
	mu       sync.Mutex
	settled  map[string]bool
	statuses map[string]orders.PaymentStatus
}

func newMemCache() *memCache {
	return &memCache{settled: map[string]bool{}, statuses: map[string]orders.PaymentStatus{}}
}

func (c *memCache) IsSettled(_ context.Context, id string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settled[id], nil
}

func (c *memCache) MarkSettled(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settled[id] = true
	return nil
}

func (c *memCache) Status(_ context.Context, id string) (orders.PaymentStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statuses[id], nil
}

func (c *memCache) SetStatus(_ context.Context, id string, st orders.PaymentStatus) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.statuses[id] = st
	return nil
}

type MockOrders struct{ mock.Mock }

func (m *MockOrders) GetOrder(ctx context.Context, id string) (orders.Order, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(orders.Order), args.Error(1)
}

type MockGateway struct{ mock.Mock }

func (m *MockGateway) OpenSession(ctx context.Context, orderID string, amount decimal.Decimal) (string, error) {
	args := m.Called(ctx, orderID, amount)
	return args.String(0), args.Error(1)
}

type MockStatuses struct{ mock.Mock }

func (m *MockStatuses) PaymentStatus(ctx context.Context, id string) (orders.PaymentStatus, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(orders.PaymentStatus), args.Error(1)
}

func confirmedBody(orderID string) []byte {
	return []byte(`{"data":{"state":"TRACKER_ENDED","tracker":"track_123","metadata":{"order_id":"` + orderID + `","source":"rephone"}}}`)
}
