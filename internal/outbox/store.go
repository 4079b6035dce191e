package outbox

import (
	"context"
	"time"

	"github.com/ariefcatur/rephone-market/internal/postgres"
	"github.com/jackc/pgx/v5"
)

// MaxRetries is how many failed dispatches an event gets before it is parked as failed.
const MaxRetries = 10

// Insert adds an event using q, normally the caller's open transaction.
func Insert(ctx context.Context, q postgres.DBTX, e Event) error {
	headers := e.Headers
	if headers == nil {
		headers = map[string]string{}
	}
	_, err := q.Exec(ctx, `
		INSERT INTO outbox (aggregate_type, aggregate_id, type, payload, headers, status)
		VALUES ($1, $2, $3, $4, $5, 'pending')`,
		e.AggregateType, e.AggregateID, e.Type, e.Payload, headers)
	return err
}

type PGStore struct {
	DB postgres.DBTX
}

// LockBatch leases up to batchSize pending events, plus in-progress ones whose
// lease ran out because a relay died mid-batch.
func (s *PGStore) LockBatch(ctx context.Context, relayID string, batchSize int, lease time.Duration) ([]Event, error) {
	var events []Event
	err := postgres.WithTx(ctx, s.DB, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			SELECT id, aggregate_type, aggregate_id, type, payload, headers, created_at, retry_count
			FROM outbox
			WHERE status = 'pending' OR (status = 'in_progress' AND lease_until < now())
			ORDER BY id
			FOR UPDATE SKIP LOCKED
			LIMIT $1`, batchSize)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var e Event
			if err := rows.Scan(&e.ID, &e.AggregateType, &e.AggregateID, &e.Type, &e.Payload, &e.Headers, &e.CreatedAt, &e.RetryCount); err != nil {
				return err
			}
			e.Status = StatusInProgress
			events = append(events, e)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		if len(events) == 0 {
			return nil
		}

		ids := make([]int64, 0, len(events))
		for _, e := range events {
			ids = append(ids, e.ID)
		}
		_, err = tx.Exec(ctx, `
			UPDATE outbox SET status = 'in_progress', relay_id = $1, lease_until = now() + $2::interval
			WHERE id = ANY($3)`, relayID, lease.String(), ids)
		return err
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (s *PGStore) MarkSent(ctx context.Context, ids []int64) error {
	_, err := s.DB.Exec(ctx, `UPDATE outbox SET status = 'sent', lease_until = NULL WHERE id = ANY($1)`, ids)
	return err
}

// MarkFailed puts the event back in the queue until it has used up MaxRetries.
func (s *PGStore) MarkFailed(ctx context.Context, id int64, errMsg string) error {
	_, err := s.DB.Exec(ctx, `
		UPDATE outbox
		SET retry_count = retry_count + 1,
		    last_error = $2,
		    lease_until = NULL,
		    status = CASE WHEN retry_count + 1 >= $3 THEN 'failed' ELSE 'pending' END
		WHERE id = $1`, id, errMsg, MaxRetries)
	return err
}
