package payments

import (
	"context"

	"github.com/ariefcatur/rephone-market/internal/orders"
	"github.com/ariefcatur/rephone-market/internal/redisx"
	"github.com/redis/go-redis/v9"
)

type StatusCache interface {
	IsSettled(ctx context.Context, orderID string) (bool, error)
	MarkSettled(ctx context.Context, orderID string) error
	Status(ctx context.Context, orderID string) (orders.PaymentStatus, error)
	SetStatus(ctx context.Context, orderID string, st orders.PaymentStatus) error
}

// RedisCache keeps the settled marker and a short-lived copy of payment status.
// Postgres stays the source of truth.
type RedisCache struct {
	RDB redis.Cmdable
}

func (c RedisCache) IsSettled(ctx context.Context, orderID string) (bool, error) {
	return redisx.Exists(ctx, c.RDB, redisx.Settled(orderID))
}

func (c RedisCache) MarkSettled(ctx context.Context, orderID string) error {
	return c.RDB.Set(ctx, redisx.Settled(orderID), "1", redisx.TTLSettled).Err()
}

// Status returns "" on a miss.
func (c RedisCache) Status(ctx context.Context, orderID string) (orders.PaymentStatus, error) {
	s, err := redisx.GetString(ctx, c.RDB, redisx.PaymentStatus(orderID))
	return orders.PaymentStatus(s), err
}

func (c RedisCache) SetStatus(ctx context.Context, orderID string, st orders.PaymentStatus) error {
	return c.RDB.Set(ctx, redisx.PaymentStatus(orderID), string(st), redisx.TTLStatusCache).Err()
}
