package orders

import "github.com/shopspring/decimal"

var (
	PlatformFeeRate = decimal.RequireFromString("0.013")
	SalesTaxRate    = decimal.RequireFromString("0.17")
)

type Totals struct {
	BaseTotal   decimal.Decimal
	PlatformFee decimal.Decimal
	DeliveryFee decimal.Decimal
	Tax         decimal.Decimal
	TotalPrice  decimal.Decimal
}

// ComputeTotals prices one order. The delivery fee is charged once per order,
// whatever the number of sellers. Fee and tax are rounded to 2 places.
func ComputeTotals(prices []decimal.Decimal, deliveryFee decimal.Decimal) Totals {
	base := decimal.Zero
	for _, p := range prices {
		base = base.Add(p)
	}
	fee := base.Mul(PlatformFeeRate).Round(2)
	tax := base.Mul(SalesTaxRate).Round(2)
	return Totals{
		BaseTotal:   base,
		PlatformFee: fee,
		DeliveryFee: deliveryFee,
		Tax:         tax,
		TotalPrice:  base.Add(fee).Add(deliveryFee).Add(tax),
	}
}

// SellerGroup is the slice of an order that becomes one sub order.
type SellerGroup struct {
	SellerID string
	Products []ListedProduct
}

// GroupBySeller partitions products by seller. Groups come out in the order
// their seller first appears, products keep their relative order.
func GroupBySeller(products []ListedProduct) []SellerGroup {
	idx := map[string]int{}
	var groups []SellerGroup
	for _, p := range products {
		i, ok := idx[p.SellerID]
		if !ok {
			i = len(groups)
			idx[p.SellerID] = i
			groups = append(groups, SellerGroup{SellerID: p.SellerID})
		}
		groups[i].Products = append(groups[i].Products, p)
	}
	return groups
}
