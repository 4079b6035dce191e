package payments

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/ariefcatur/rephone-market/internal/orders"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("payments-reconciler")

var errInboxFull = errors.New("settlement inbox full")

type Settler interface {
	Settle(ctx context.Context, n Notification) (SettleResult, error)
}

type FailureLog interface {
	Record(ctx context.Context, n Notification, cause error) error
	Resolve(ctx context.Context, orderID string) error
	Open(ctx context.Context, orderID string) (Failure, error)
	List(ctx context.Context) ([]Failure, error)
}

// Reconciler applies webhook notifications off the request path. Accepted
// notifications wait in a bounded inbox drained by a fixed set of workers.
type Reconciler struct {
	log      *slog.Logger
	settler  Settler
	failures FailureLog
	cache    StatusCache

	inbox   chan Notification
	workers int
	wg      sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

func NewReconciler(log *slog.Logger, settler Settler, failures FailureLog, cache StatusCache, workers, inboxSize int) *Reconciler {
	if workers <= 0 {
		workers = 1
	}
	if inboxSize <= 0 {
		inboxSize = 256
	}
	return &Reconciler{
		log:      log,
		settler:  settler,
		failures: failures,
		cache:    cache,
		inbox:    make(chan Notification, inboxSize),
		workers:  workers,
	}
}

func (r *Reconciler) Start(ctx context.Context) {
	for i := 0; i < r.workers; i++ {
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			for n := range r.inbox {
				_ = r.apply(ctx, n)
			}
		}()
	}
}

// Stop closes the inbox and waits until queued notifications are applied.
func (r *Reconciler) Stop() {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.inbox)
	}
	r.mu.Unlock()
	r.wg.Wait()
}

// Enqueue never blocks. Unconfirmed states and already settled orders are
// dropped here; a full inbox is recorded as a failure so it can be replayed.
func (r *Reconciler) Enqueue(ctx context.Context, n Notification) {
	log := r.log.With("order_id", n.OrderID, "state", n.State, "tracker", n.Tracker)
	if !n.Confirmed() {
		log.Warn("payment not completed, ignoring notification")
		return
	}
	if ok, err := r.cache.IsSettled(ctx, n.OrderID); err == nil && ok {
		log.Info("order already settled, ignoring notification")
		return
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		r.recordFailure(ctx, n, errInboxFull)
		return
	}
	select {
	case r.inbox <- n:
	default:
		r.recordFailure(ctx, n, errInboxFull)
	}
}

// Replay applies the notification kept with the order's open failure record.
func (r *Reconciler) Replay(ctx context.Context, orderID string) (SettleResult, error) {
	f, err := r.failures.Open(ctx, orderID)
	if err != nil {
		return SettleResult{}, err
	}
	n, err := ParseNotification(f.Payload)
	if err != nil {
		return SettleResult{}, err
	}
	r.log.Info("replaying settlement", "order_id", orderID, "attempts", f.Attempts)
	return r.applyResult(ctx, n)
}

func (r *Reconciler) Failures(ctx context.Context) ([]Failure, error) {
	return r.failures.List(ctx)
}

func (r *Reconciler) apply(ctx context.Context, n Notification) error {
	_, err := r.applyResult(ctx, n)
	return err
}

func (r *Reconciler) applyResult(ctx context.Context, n Notification) (SettleResult, error) {
	log := r.log.With("order_id", n.OrderID, "tracker", n.Tracker)

	if n.Trace.IsValid() {
		ctx = trace.ContextWithRemoteSpanContext(ctx, n.Trace)
	}
	ctx, span := tracer.Start(ctx, "SettlePayment", trace.WithAttributes(
		attribute.String("order.id", n.OrderID),
		attribute.String("payment.tracker", n.Tracker),
	))
	defer span.End()

	res, err := r.settler.Settle(ctx, n)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "settlement failed")
		log.Error("settlement failed", "err", err)
		r.recordFailure(ctx, n, err)
		return SettleResult{}, err
	}

	if err := r.failures.Resolve(ctx, n.OrderID); err != nil {
		log.Error("resolve settlement failures", "err", err)
	}
	if err := r.cache.SetStatus(ctx, n.OrderID, orders.PaymentPaid); err != nil {
		log.Warn("cache payment status", "err", err)
	}
	if err := r.cache.MarkSettled(ctx, n.OrderID); err != nil {
		log.Warn("mark settled", "err", err)
	}

	switch res.Outcome {
	case OutcomeAlreadyPaid:
		log.Info("payment already settled", "payment_id", res.PaymentID)
	default:
		log.Info("payment settled", "payment_id", res.PaymentID, "notifications", res.Notifications)
	}
	return res, nil
}

func (r *Reconciler) recordFailure(ctx context.Context, n Notification, cause error) {
	if err := r.failures.Record(ctx, n, cause); err != nil {
		r.log.Error("record settlement failure", "order_id", n.OrderID, "cause", cause, "err", err)
	}
}
