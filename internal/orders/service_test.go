package orders

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) CreateOrderTx(ctx context.Context, in CreateOrderInput) (Receipt, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(Receipt), args.Error(1)
}

func (m *MockLedger) GetOrderDetails(ctx context.Context, orderID string) (OrderDetails, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).(OrderDetails), args.Error(1)
}

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestService_CreateOrder(t *testing.T) {
	ledger := new(MockLedger)
	svc := NewService(ledger, discardLogger())

	want := Receipt{OrderID: "o1", PaymentID: "p1", PaymentMethod: MethodSafepay, Amount: dec("36490")}
	ledger.On("CreateOrderTx", mock.Anything, mock.AnythingOfType("orders.CreateOrderInput")).
		Return(want, nil).
		Run(func(args mock.Arguments) {
			in := args.Get(1).(CreateOrderInput)
			assert.Equal(t, "ayesha@example.com", in.Buyer.Email)
			assert.Equal(t, []string{prodA, prodB}, in.ProductIDs)
			assert.Equal(t, MethodSafepay, in.PaymentMethod)
		})

	req := validRequest()
	req.Email = "Ayesha@Example.com"
	got, err := svc.CreateOrder(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, want, got)
	ledger.AssertExpectations(t)
}

func TestService_CreateOrder_ValidationSkipsLedger(t *testing.T) {
	ledger := new(MockLedger)
	svc := NewService(ledger, discardLogger())

	req := validRequest()
	req.Items = nil
	_, err := svc.CreateOrder(context.Background(), req)

	assert.ErrorIs(t, err, ErrValidation)
	ledger.AssertNotCalled(t, "CreateOrderTx", mock.Anything, mock.Anything)
}

func TestService_CreateOrder_PropagatesLedgerError(t *testing.T) {
	ledger := new(MockLedger)
	svc := NewService(ledger, discardLogger())

	ledger.On("CreateOrderTx", mock.Anything, mock.Anything).
		Return(Receipt{}, errors.Join(ErrConflict, errors.New("sold")))

	_, err := svc.CreateOrder(context.Background(), validRequest())
	assert.ErrorIs(t, err, ErrConflict)
}

func TestService_GetOrderDetails_BadID(t *testing.T) {
	ledger := new(MockLedger)
	svc := NewService(ledger, discardLogger())

	_, err := svc.GetOrderDetails(context.Background(), "42")
	assert.ErrorIs(t, err, ErrNotFound)
	ledger.AssertNotCalled(t, "GetOrderDetails", mock.Anything, mock.Anything)
}
