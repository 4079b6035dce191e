package orders

import (
	"context"
	"fmt"
	"strings"

	"github.com/ariefcatur/rephone-market/internal/postgres"
)

// LockProducts reads the listed products with the given ids and holds a row
// lock on each until the surrounding transaction ends. Rows are locked in id
// order so two checkouts sharing products cannot deadlock.
func LockProducts(ctx context.Context, q postgres.DBTX, ids []string) ([]ListedProduct, error) {
	rows, err := q.Query(ctx, `
		SELECT id, seller_id, price, is_sold, status
		FROM listed_products
		WHERE id = ANY($1)
		ORDER BY id
		FOR UPDATE`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ListedProduct
	for rows.Next() {
		var p ListedProduct
		if err := rows.Scan(&p.ID, &p.SellerID, &p.Price, &p.IsSold, &p.Status); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// available returns the locked products in request order, or NotFound/Conflict
// when an id is unknown or already sold.
func available(ids []string, locked []ListedProduct) ([]ListedProduct, error) {
	byID := make(map[string]ListedProduct, len(locked))
	for _, p := range locked {
		byID[p.ID] = p
	}

	var missing, sold []string
	out := make([]ListedProduct, 0, len(ids))
	for _, id := range ids {
		p, ok := byID[id]
		switch {
		case !ok:
			missing = append(missing, id)
		case p.IsSold:
			sold = append(sold, id)
		default:
			out = append(out, p)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: products %s", ErrNotFound, strings.Join(missing, ","))
	}
	if len(sold) > 0 {
		return nil, fmt.Errorf("%w: products already sold %s", ErrConflict, strings.Join(sold, ","))
	}
	return out, nil
}
