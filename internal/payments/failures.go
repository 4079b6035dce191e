package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ariefcatur/rephone-market/internal/orders"
	"github.com/ariefcatur/rephone-market/internal/postgres"
	"github.com/jackc/pgx/v5"
)

// Failure is a settlement that did not commit. At most one is open per order.
type Failure struct {
	ID         int64           `json:"id"`
	OrderID    string          `json:"orderId"`
	Tracker    string          `json:"tracker"`
	State      string          `json:"state"`
	Payload    json.RawMessage `json:"payload"`
	LastError  string          `json:"lastError"`
	Attempts   int             `json:"attempts"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
	ResolvedAt *time.Time      `json:"resolvedAt,omitempty"`
}

type FailureStore struct {
	DB postgres.DBTX
}

func (s *FailureStore) Record(ctx context.Context, n Notification, cause error) error {
	_, err := s.DB.Exec(ctx, `
		INSERT INTO settlement_failures (order_id, tracker, state, payload, last_error)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (order_id) WHERE resolved_at IS NULL DO UPDATE SET
			tracker = EXCLUDED.tracker,
			state = EXCLUDED.state,
			payload = EXCLUDED.payload,
			last_error = EXCLUDED.last_error,
			attempts = settlement_failures.attempts + 1,
			updated_at = now()`,
		n.OrderID, n.Tracker, n.State, []byte(n.Raw), cause.Error())
	return err
}

func (s *FailureStore) Resolve(ctx context.Context, orderID string) error {
	_, err := s.DB.Exec(ctx, `UPDATE settlement_failures SET resolved_at = now() WHERE order_id = $1 AND resolved_at IS NULL`, orderID)
	return err
}

const failureColumns = `id, order_id, tracker, state, payload, last_error, attempts, created_at, updated_at, resolved_at`

func (s *FailureStore) Open(ctx context.Context, orderID string) (Failure, error) {
	var f Failure
	err := s.DB.QueryRow(ctx, `SELECT `+failureColumns+` FROM settlement_failures WHERE order_id = $1 AND resolved_at IS NULL`, orderID).
		Scan(&f.ID, &f.OrderID, &f.Tracker, &f.State, &f.Payload, &f.LastError, &f.Attempts, &f.CreatedAt, &f.UpdatedAt, &f.ResolvedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Failure{}, fmt.Errorf("%w: no open settlement failure for order %s", orders.ErrNotFound, orderID)
	}
	return f, err
}

func (s *FailureStore) List(ctx context.Context) ([]Failure, error) {
	rows, err := s.DB.Query(ctx, `SELECT `+failureColumns+` FROM settlement_failures WHERE resolved_at IS NULL ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Failure{}
	for rows.Next() {
		var f Failure
		if err := rows.Scan(&f.ID, &f.OrderID, &f.Tracker, &f.State, &f.Payload, &f.LastError, &f.Attempts, &f.CreatedAt, &f.UpdatedAt, &f.ResolvedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
