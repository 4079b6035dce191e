package verification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ariefcatur/rephone-market/internal/orders"
	"github.com/ariefcatur/rephone-market/internal/postgres"
	"github.com/jackc/pgx/v5"
)

// Listing is a listed product as the moderation screens show it.
type Listing struct {
	ProductID   string                  `json:"productId"`
	IMEI        string                  `json:"imeiNumber"`
	PhoneImage  string                  `json:"phoneImage"`
	SubmitDate  time.Time               `json:"submitDate"`
	Status      orders.ModerationStatus `json:"status"`
	Brand       string                  `json:"phoneBrand"`
	Model       string                  `json:"phoneModel"`
	SellerType  string                  `json:"sellerType"`
	SellerName  string                  `json:"sellerName"`
	SellerEmail string                  `json:"sellerEmail"`
}

const listingQuery = `
	SELECT lp.id, lp.imei_number, lp.phone_image, lp.submit_date, lp.status,
	       COALESCE(ph.brand, ''), COALESCE(ph.model, ''),
	       COALESCE(s.seller_type, ''), COALESCE(u.name, ''), COALESCE(u.email, '')
	FROM listed_products lp
	LEFT JOIN phones ph ON ph.id = lp.phone_id
	LEFT JOIN sellers s ON s.id = lp.seller_id
	LEFT JOIN users u ON u.id = s.user_id`

type Store struct {
	DB postgres.DBTX
}

func scanListing(row pgx.Row) (Listing, error) {
	var l Listing
	err := row.Scan(&l.ProductID, &l.IMEI, &l.PhoneImage, &l.SubmitDate, &l.Status,
		&l.Brand, &l.Model, &l.SellerType, &l.SellerName, &l.SellerEmail)
	return l, err
}

func (s *Store) ByIMEI(ctx context.Context, imei string) (Listing, error) {
	l, err := scanListing(s.DB.QueryRow(ctx, listingQuery+` WHERE lp.imei_number = $1`, imei))
	if errors.Is(err, pgx.ErrNoRows) {
		return Listing{}, fmt.Errorf("%w: phone %s", orders.ErrNotFound, imei)
	}
	return l, err
}

func (s *Store) Pending(ctx context.Context) ([]Listing, error) {
	rows, err := s.DB.Query(ctx, listingQuery+` WHERE lp.status = $1 ORDER BY lp.submit_date`, orders.ModerationPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Listing{}
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *Store) SetStatus(ctx context.Context, imei string, st orders.ModerationStatus, adminID string) error {
	tag, err := s.DB.Exec(ctx, `UPDATE listed_products SET status = $1, approved_by = $2 WHERE imei_number = $3`, st, adminID, imei)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: phone %s", orders.ErrNotFound, imei)
	}
	return nil
}
