package orders

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestComputeTotals_TwoSellers(t *testing.T) {
	got := ComputeTotals([]decimal.Decimal{dec("10000"), dec("20000")}, dec("1000"))

	assert.True(t, got.BaseTotal.Equal(dec("30000")), got.BaseTotal.String())
	assert.True(t, got.PlatformFee.Equal(dec("390")), got.PlatformFee.String())
	assert.True(t, got.Tax.Equal(dec("5100")), got.Tax.String())
	assert.True(t, got.DeliveryFee.Equal(dec("1000")))
	assert.True(t, got.TotalPrice.Equal(dec("36490")), got.TotalPrice.String())
}

func TestComputeTotals_DeliveryFeeIsPerOrder(t *testing.T) {
	one := ComputeTotals([]decimal.Decimal{dec("5000")}, dec("1000"))
	many := ComputeTotals([]decimal.Decimal{dec("1000"), dec("1000"), dec("1000"), dec("1000"), dec("1000")}, dec("1000"))

	assert.True(t, one.DeliveryFee.Equal(many.DeliveryFee))
	assert.True(t, one.TotalPrice.Equal(many.TotalPrice))
	// 5000 * 1.183 + 1000
	assert.True(t, one.TotalPrice.Equal(dec("6915")), one.TotalPrice.String())
}

func TestComputeTotals_Rounding(t *testing.T) {
	got := ComputeTotals([]decimal.Decimal{dec("12345.67")}, dec("0"))

	assert.Equal(t, "160.49", got.PlatformFee.StringFixed(2))
	assert.Equal(t, "2098.76", got.Tax.StringFixed(2))
	assert.Equal(t, "14604.92", got.TotalPrice.StringFixed(2))
}

func TestGroupBySeller(t *testing.T) {
	products := []ListedProduct{
		{ID: "p1", SellerID: "s2", Price: dec("1")},
		{ID: "p2", SellerID: "s1", Price: dec("2")},
		{ID: "p3", SellerID: "s2", Price: dec("3")},
		{ID: "p4", SellerID: "s3", Price: dec("4")},
	}

	groups := GroupBySeller(products)
	require.Len(t, groups, 3)
	assert.Equal(t, "s2", groups[0].SellerID)
	assert.Equal(t, []string{"p1", "p3"}, []string{groups[0].Products[0].ID, groups[0].Products[1].ID})
	assert.Equal(t, "s1", groups[1].SellerID)
	assert.Equal(t, "s3", groups[2].SellerID)

	sum := decimal.Zero
	n := 0
	for _, g := range groups {
		for _, p := range g.Products {
			sum = sum.Add(p.Price)
			n++
		}
	}
	assert.Equal(t, len(products), n)
	assert.True(t, sum.Equal(dec("10")))
}
