package payments

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ariefcatur/rephone-market/internal/orders"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderReader interface {
	GetOrder(ctx context.Context, orderID string) (orders.Order, error)
}

type SessionOpener interface {
	OpenSession(ctx context.Context, orderID string, amount decimal.Decimal) (string, error)
}

type StatusReader interface {
	PaymentStatus(ctx context.Context, orderID string) (orders.PaymentStatus, error)
}

type Service struct {
	log      *slog.Logger
	orders   OrderReader
	gateway  SessionOpener
	statuses StatusReader
	cache    StatusCache
}

func NewService(log *slog.Logger, or OrderReader, gw SessionOpener, sr StatusReader, cache StatusCache) *Service {
	return &Service{log: log, orders: or, gateway: gw, statuses: sr, cache: cache}
}

// InitiatePayment opens a checkout session for the order total. The provider
// is not contacted when the order does not exist.
func (s *Service) InitiatePayment(ctx context.Context, orderID string) (string, error) {
	if _, err := uuid.Parse(orderID); err != nil {
		return "", fmt.Errorf("%w: order %s", orders.ErrNotFound, orderID)
	}
	o, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return "", err
	}

	redirect, err := s.gateway.OpenSession(ctx, o.ID, o.TotalPrice)
	if err != nil {
		s.log.Error("payment session failed", "order_id", o.ID, "err", err)
		return "", err
	}
	s.log.Info("payment session opened", "order_id", o.ID, "amount", o.TotalPrice.String())
	return redirect, nil
}

func (s *Service) PaymentStatus(ctx context.Context, orderID string) (orders.PaymentStatus, error) {
	if _, err := uuid.Parse(orderID); err != nil {
		return "", fmt.Errorf("%w: order %s", orders.ErrNotFound, orderID)
	}
	if st, err := s.cache.Status(ctx, orderID); err == nil && st != "" {
		return st, nil
	}

	st, err := s.statuses.PaymentStatus(ctx, orderID)
	if err != nil {
		return "", err
	}
	if err := s.cache.SetStatus(ctx, orderID, st); err != nil {
		s.log.Warn("cache payment status", "order_id", orderID, "err", err)
	}
	return st, nil
}
