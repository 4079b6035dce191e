package orders

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

type Ledger interface {
	CreateOrderTx(ctx context.Context, in CreateOrderInput) (Receipt, error)
	GetOrderDetails(ctx context.Context, orderID string) (OrderDetails, error)
}

type Service struct {
	ledger Ledger
	log    *slog.Logger
}

func NewService(ledger Ledger, log *slog.Logger) *Service {
	return &Service{ledger: ledger, log: log}
}

// CreateOrder validates the checkout and assembles the order graph atomically.
// Nothing is written when validation fails.
func (s *Service) CreateOrder(ctx context.Context, req CreateOrderRequest) (Receipt, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return Receipt{}, err
	}

	rc, err := s.ledger.CreateOrderTx(ctx, CreateOrderInput{
		Buyer:         req.Buyer(),
		ProductIDs:    req.Items,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		s.log.Error("create order failed", "email", req.Email, "items", len(req.Items), "err", err)
		return Receipt{}, err
	}
	s.log.Info("order created", "order_id", rc.OrderID, "payment_id", rc.PaymentID, "amount", rc.Amount.String())
	return rc, nil
}

func (s *Service) GetOrderDetails(ctx context.Context, orderID string) (OrderDetails, error) {
	if _, err := uuid.Parse(orderID); err != nil {
		return OrderDetails{}, fmt.Errorf("%w: order %s", ErrNotFound, orderID)
	}
	return s.ledger.GetOrderDetails(ctx, orderID)
}
