package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ariefcatur/rephone-market/internal/kafka"
	"github.com/ariefcatur/rephone-market/internal/orders"
	"github.com/ariefcatur/rephone-market/internal/outbox"
	"github.com/ariefcatur/rephone-market/internal/postgres"
	"github.com/ariefcatur/rephone-market/internal/tracing"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type Outcome string

const (
	OutcomeSettled     Outcome = "settled"
	OutcomeAlreadyPaid Outcome = "already_paid"
)

type SettleResult struct {
	Outcome       Outcome
	PaymentID     string
	Notifications int
}

type SellerNotice struct {
	ProductID   string
	SellerEmail string
}

// Store holds the settlement SQL and the payment reads.
type Store struct {
	DB       postgres.DBTX
	Producer string

	newID func() string
	now   func() time.Time
}

func NewStore(db postgres.DBTX, producer string) *Store {
	return &Store{DB: db, Producer: producer, newID: uuid.NewString, now: time.Now}
}

// Settle marks the order's payment Paid, moves the order to in_progress, flags
// the purchased products sold and queues one ProductSold event per product, all
// in one transaction. A payment that is already Paid is left untouched.
func (s *Store) Settle(ctx context.Context, n Notification) (SettleResult, error) {
	var res SettleResult
	err := postgres.WithTx(ctx, s.DB, func(tx pgx.Tx) error {
		var (
			paymentStatus orders.PaymentStatus
			orderStatus   orders.OrderStatus
		)
		err := tx.QueryRow(ctx, `
			SELECT p.id, p.payment_status, o.order_status
			FROM orders o
			JOIN payments p ON p.id = o.payment_id
			WHERE o.id = $1
			FOR UPDATE OF o, p`, n.OrderID).
			Scan(&res.PaymentID, &paymentStatus, &orderStatus)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: payment for order %s", orders.ErrNotFound, n.OrderID)
		}
		if err != nil {
			return fmt.Errorf("lock payment: %w", err)
		}

		if paymentStatus == orders.PaymentPaid {
			res.Outcome = OutcomeAlreadyPaid
			return nil
		}
		if !orders.CanTransition(orderStatus, orders.StatusInProgress) {
			return fmt.Errorf("%w: order %s is %s", orders.ErrConflict, n.OrderID, orderStatus)
		}

		if _, err := tx.Exec(ctx, `UPDATE payments SET payment_status = $1, transaction_id = $2 WHERE id = $3`,
			orders.PaymentPaid, n.Tracker, res.PaymentID); err != nil {
			return fmt.Errorf("update payment: %w", err)
		}
		if _, err := tx.Exec(ctx, `UPDATE orders SET order_status = $1 WHERE id = $2`,
			orders.StatusInProgress, n.OrderID); err != nil {
			return fmt.Errorf("update order: %w", err)
		}

		productIDs, err := purchasedProducts(ctx, tx, n.OrderID)
		if err != nil {
			return fmt.Errorf("purchased products: %w", err)
		}
		tag, err := tx.Exec(ctx, `UPDATE listed_products SET is_sold = true WHERE id = ANY($1) AND is_sold = false`, productIDs)
		if err != nil {
			return fmt.Errorf("mark sold: %w", err)
		}
		if tag.RowsAffected() != int64(len(productIDs)) {
			return fmt.Errorf("%w: order %s has products sold elsewhere", orders.ErrConflict, n.OrderID)
		}

		notices, err := sellerNotices(ctx, tx, productIDs)
		if err != nil {
			return fmt.Errorf("seller emails: %w", err)
		}
		for _, sn := range notices {
			if err := s.queueProductSold(ctx, tx, n.OrderID, sn); err != nil {
				return fmt.Errorf("queue notification: %w", err)
			}
		}

		res.Outcome = OutcomeSettled
		res.Notifications = len(notices)
		return nil
	})
	if err != nil {
		return SettleResult{}, err
	}
	return res, nil
}

func purchasedProducts(ctx context.Context, tx pgx.Tx, orderID string) ([]string, error) {
	rows, err := tx.Query(ctx, `
		SELECT oi.product_id
		FROM order_items oi
		JOIN sub_orders so ON so.id = oi.sub_order_id
		WHERE so.order_id = $1
		ORDER BY oi.product_id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// sellerNotices pairs each product with its own seller's email.
func sellerNotices(ctx context.Context, tx pgx.Tx, productIDs []string) ([]SellerNotice, error) {
	rows, err := tx.Query(ctx, `
		SELECT lp.id, u.email
		FROM listed_products lp
		JOIN sellers s ON s.id = lp.seller_id
		JOIN users u ON u.id = s.user_id
		WHERE lp.id = ANY($1)
		ORDER BY lp.id`, productIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SellerNotice
	for rows.Next() {
		var sn SellerNotice
		if err := rows.Scan(&sn.ProductID, &sn.SellerEmail); err != nil {
			return nil, err
		}
		out = append(out, sn)
	}
	return out, rows.Err()
}

func (s *Store) queueProductSold(ctx context.Context, tx pgx.Tx, orderID string, sn SellerNotice) error {
	env := orders.Envelope{
		EventID:       s.newID(),
		EventType:     orders.EventProductSold,
		EventVersion:  1,
		OccurredAt:    s.now().UTC(),
		Producer:      s.Producer,
		CorrelationID: orderID,
		Payload: kafka.MustMarshal(orders.ProductSoldPayload{
			OrderID:     orderID,
			ProductID:   sn.ProductID,
			SellerEmail: sn.SellerEmail,
		}),
	}
	return outbox.Insert(ctx, tx, outbox.Event{
		AggregateType: "order",
		AggregateID:   orderID,
		Type:          orders.EventProductSold,
		Payload:       kafka.MustMarshal(env),
		Headers:       tracing.InjectMap(ctx),
	})
}

// PaymentStatus reads the status of the payment attached to the order.
func (s *Store) PaymentStatus(ctx context.Context, orderID string) (orders.PaymentStatus, error) {
	var paymentID *string
	err := s.DB.QueryRow(ctx, `SELECT payment_id FROM orders WHERE id = $1`, orderID).Scan(&paymentID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("%w: order %s", orders.ErrNotFound, orderID)
	}
	if err != nil {
		return "", err
	}
	if paymentID == nil {
		return "", fmt.Errorf("%w: payment for order %s", orders.ErrNotFound, orderID)
	}

	var st orders.PaymentStatus
	err = s.DB.QueryRow(ctx, `SELECT payment_status FROM payments WHERE id = $1`, *paymentID).Scan(&st)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("%w: payment %s", orders.ErrNotFound, *paymentID)
	}
	return st, err
}
