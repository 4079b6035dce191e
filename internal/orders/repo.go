package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/ariefcatur/rephone-market/internal/postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type CreateOrderInput struct {
	Buyer         Buyer
	ProductIDs    []string
	PaymentMethod PaymentMethod
}

// Repo is the ledger store for the order graph: orders, sub orders, items and payments.
type Repo struct {
	DB          postgres.DBTX
	DeliveryFee decimal.Decimal

	newID func() string
}

func NewRepo(db postgres.DBTX, deliveryFee decimal.Decimal) *Repo {
	return &Repo{DB: db, DeliveryFee: deliveryFee, newID: uuid.NewString}
}

// CreateOrderTx persists the buyer, order, one sub order per seller, the order
// items and the pending payment in a single transaction.
func (r *Repo) CreateOrderTx(ctx context.Context, in CreateOrderInput) (Receipt, error) {
	var rc Receipt
	err := postgres.WithTx(ctx, r.DB, func(tx pgx.Tx) error {
		buyerID, err := upsertBuyer(ctx, tx, in.Buyer)
		if err != nil {
			return fmt.Errorf("upsert buyer: %w", err)
		}

		locked, err := LockProducts(ctx, tx, in.ProductIDs)
		if err != nil {
			return fmt.Errorf("lock products: %w", err)
		}
		products, err := available(in.ProductIDs, locked)
		if err != nil {
			return err
		}

		prices := make([]decimal.Decimal, 0, len(products))
		for _, p := range products {
			prices = append(prices, p.Price)
		}
		totals := ComputeTotals(prices, r.DeliveryFee)

		orderID := r.newID()
		b := in.Buyer
		if _, err := tx.Exec(ctx, `
			INSERT INTO orders(id, user_id, order_status, base_total, platform_fee, delivery_fee, tax, total_price,
				contact_name, contact_email, contact_phone, city, area, street, house_number, nearest_landmark)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
			orderID, buyerID, StatusPending, totals.BaseTotal, totals.PlatformFee, totals.DeliveryFee, totals.Tax, totals.TotalPrice,
			b.Name, b.Email, b.PhoneNumber, b.City, b.Area, b.Street, b.HouseNumber, b.NearestLandmark,
		); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		for _, g := range GroupBySeller(products) {
			subID := r.newID()
			if _, err := tx.Exec(ctx, `INSERT INTO sub_orders(id, order_id, seller_id) VALUES ($1, $2, $3)`,
				subID, orderID, g.SellerID); err != nil {
				return fmt.Errorf("insert sub order: %w", err)
			}
			for _, p := range g.Products {
				if _, err := tx.Exec(ctx, `INSERT INTO order_items(id, sub_order_id, product_id, unit_price) VALUES ($1, $2, $3, $4)`,
					r.newID(), subID, p.ID, p.Price); err != nil {
					return fmt.Errorf("insert order item: %w", err)
				}
			}
		}

		paymentID := r.newID()
		if _, err := tx.Exec(ctx, `
			INSERT INTO payments(id, order_id, payment_method, amount, payment_status)
			VALUES ($1, $2, $3, $4, $5)`,
			paymentID, orderID, in.PaymentMethod, totals.TotalPrice, PaymentPending,
		); err != nil {
			return fmt.Errorf("insert payment: %w", err)
		}
		if _, err := tx.Exec(ctx, `UPDATE orders SET payment_id = $1 WHERE id = $2`, paymentID, orderID); err != nil {
			return fmt.Errorf("link payment: %w", err)
		}

		rc = Receipt{OrderID: orderID, PaymentID: paymentID, PaymentMethod: in.PaymentMethod, Amount: totals.TotalPrice}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) {
			return Receipt{}, err
		}
		return Receipt{}, fmt.Errorf("%w: create order: %w", ErrTransaction, err)
	}
	return rc, nil
}

// upsertBuyer returns the users row for the buyer's email, creating it on first
// checkout. An existing row is never rewritten; the delivery details of each
// order live on the order itself.
func upsertBuyer(ctx context.Context, tx pgx.Tx, b Buyer) (string, error) {
	var id string
	err := tx.QueryRow(ctx, `
		INSERT INTO users(name, email, phone_number, city, area, street, house_number, nearest_landmark)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
		RETURNING id`,
		b.Name, b.Email, b.PhoneNumber, b.City, b.Area, b.Street, b.HouseNumber, b.NearestLandmark,
	).Scan(&id)
	return id, err
}

const orderColumns = `id, user_id, order_status, order_date, base_total, platform_fee, delivery_fee, tax, total_price, payment_id,
	contact_name, contact_email, contact_phone, city, area, street, house_number, nearest_landmark`

func (r *Repo) GetOrder(ctx context.Context, orderID string) (Order, error) {
	o, _, err := r.getOrder(ctx, orderID)
	return o, err
}

// getOrder reads the order together with the delivery details captured at checkout.
func (r *Repo) getOrder(ctx context.Context, orderID string) (Order, Buyer, error) {
	var (
		o Order
		b Buyer
	)
	err := r.DB.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, orderID).
		Scan(&o.ID, &o.UserID, &o.Status, &o.OrderDate, &o.BaseTotal, &o.PlatformFee, &o.DeliveryFee, &o.Tax, &o.TotalPrice, &o.PaymentID,
			&b.Name, &b.Email, &b.PhoneNumber, &b.City, &b.Area, &b.Street, &b.HouseNumber, &b.NearestLandmark)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, Buyer{}, fmt.Errorf("%w: order %s", ErrNotFound, orderID)
	}
	if err != nil {
		return Order{}, Buyer{}, err
	}
	b.ID = o.UserID
	return o, b, nil
}

// GetOrderDetails assembles the order, its delivery details and its sub orders
// with their items, in the order they were created.
func (r *Repo) GetOrderDetails(ctx context.Context, orderID string) (OrderDetails, error) {
	o, b, err := r.getOrder(ctx, orderID)
	if err != nil {
		return OrderDetails{}, err
	}
	subs, err := r.subOrders(ctx, orderID)
	if err != nil {
		return OrderDetails{}, err
	}
	return OrderDetails{Order: o, Buyer: b, SubOrders: subs}, nil
}

func (r *Repo) subOrders(ctx context.Context, orderID string) ([]SubOrder, error) {
	rows, err := r.DB.Query(ctx, `SELECT id, order_id, seller_id FROM sub_orders WHERE order_id = $1 ORDER BY seq`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subs := []SubOrder{}
	idx := map[string]int{}
	for rows.Next() {
		var s SubOrder
		if err := rows.Scan(&s.ID, &s.OrderID, &s.SellerID); err != nil {
			return nil, err
		}
		s.Items = []OrderItem{}
		idx[s.ID] = len(subs)
		subs = append(subs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	items, err := r.DB.Query(ctx, `
		SELECT oi.id, oi.sub_order_id, oi.product_id, oi.unit_price
		FROM order_items oi
		JOIN sub_orders so ON so.id = oi.sub_order_id
		WHERE so.order_id = $1
		ORDER BY oi.seq`, orderID)
	if err != nil {
		return nil, err
	}
	defer items.Close()

	for items.Next() {
		var it OrderItem
		if err := items.Scan(&it.ID, &it.SubOrderID, &it.ProductID, &it.UnitPrice); err != nil {
			return nil, err
		}
		if i, ok := idx[it.SubOrderID]; ok {
			subs[i].Items = append(subs[i].Items, it)
		}
	}
	return subs, items.Err()
}
