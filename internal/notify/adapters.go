package notify

import (
	"context"
	"log/slog"

	"github.com/ariefcatur/rephone-market/internal/orders"
	"github.com/ariefcatur/rephone-market/internal/redisx"
	"github.com/redis/go-redis/v9"
)

const dedupService = "notifier"

type RedisDeduper struct {
	RDB redis.Cmdable
}

func (d RedisDeduper) Claim(ctx context.Context, eventID string) (bool, error) {
	return redisx.Claim(ctx, d.RDB, redisx.Dedup(dedupService, eventID), redisx.TTLDedup)
}

func (d RedisDeduper) Release(ctx context.Context, eventID string) error {
	return d.RDB.Del(ctx, redisx.Dedup(dedupService, eventID)).Err()
}

// LogMailer writes the seller message to the log. Email delivery is handled
// by an external provider.
type LogMailer struct {
	Log *slog.Logger
}

func (m LogMailer) ProductSold(_ context.Context, p orders.ProductSoldPayload) error {
	m.Log.Info("Your product has been sold",
		"to", p.SellerEmail, "product_id", p.ProductID, "order_id", p.OrderID)
	return nil
}
