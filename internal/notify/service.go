package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	kafkax "github.com/ariefcatur/rephone-market/internal/kafka"
	"github.com/ariefcatur/rephone-market/internal/orders"
	"github.com/ariefcatur/rephone-market/internal/tracing"
	kafkago "github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("seller-notifier")

// Deduper claims an event id. Claim returns false when the id was seen before.
type Deduper interface {
	Claim(ctx context.Context, eventID string) (bool, error)
	Release(ctx context.Context, eventID string) error
}

type Mailer interface {
	ProductSold(ctx context.Context, p orders.ProductSoldPayload) error
}

type Service struct {
	Log    *slog.Logger
	Dedup  Deduper
	Mailer Mailer
}

// HandleProductSold is the consumer handler for seller.notifications.
func (s *Service) HandleProductSold(ctx context.Context, m kafkago.Message) (err error) {
	ctx = tracing.ExtractKafkaHeaders(ctx, m.Headers)
	ctx, span := tracer.Start(ctx, "ConsumeProductSold", trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(attribute.Int64("messaging.kafka.offset", m.Offset)))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "notify failed")
		}
		span.End()
	}()

	if t := kafkax.HeaderValue(m.Headers, "x-event-type"); t != "" && t != orders.EventProductSold {
		return nil
	}

	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		// poison message, committing it is the only way past it
		s.Log.Error("undecodable notification", "offset", m.Offset, "err", err)
		return nil
	}
	if env.EventType != orders.EventProductSold {
		return nil
	}

	first, err := s.Dedup.Claim(ctx, env.EventID)
	if err != nil {
		return fmt.Errorf("dedup %s: %w", env.EventID, err)
	}
	if !first {
		s.Log.Info("duplicate notification", "event_id", env.EventID)
		return nil
	}

	p, err := kafkax.UnwrapPayload[orders.ProductSoldPayload](env.Payload)
	if err != nil {
		s.Log.Error("bad notification payload", "event_id", env.EventID, "err", err)
		return nil
	}

	if err := s.Mailer.ProductSold(ctx, p); err != nil {
		// the consumer retries the message, so the next attempt must be able to claim it
		if rErr := s.Dedup.Release(ctx, env.EventID); rErr != nil {
			s.Log.Error("release dedup", "event_id", env.EventID, "err", rErr)
		}
		return fmt.Errorf("notify seller %s: %w", p.SellerEmail, err)
	}
	s.Log.Info("seller notified", "event_id", env.EventID, "order_id", p.OrderID, "product_id", p.ProductID)
	return nil
}
