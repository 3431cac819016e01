package analytics

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/domain/discount"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/pkg/logger"
	"github.com/your-org/storefront-backend/internal/testutil"
	"gorm.io/gorm"
)

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func seed(t *testing.T, db *gorm.DB, status order.OrderStatus, code, discountAmount string, items ...order.OrderItem) {
	subtotal := decimal.Zero
	for i := range items {
		subtotal = subtotal.Add(items[i].LineTotal())
	}
	o := &order.Order{
		UserID:         "u1",
		Status:         status,
		Subtotal:       subtotal,
		DiscountCode:   code,
		DiscountAmount: money(discountAmount),
		FinalAmount:    subtotal.Sub(money(discountAmount)),
		Items:          items,
	}
	require.NoError(t, order.Create(db, o))
}

func TestGetSummary(t *testing.T) {
	db := testutil.NewDB(t,
		&order.Order{}, &order.OrderItem{},
		&discount.Discount{}, &discount.Usage{}, &discount.Conflict{},
	)
	ledger := discount.NewService(db, logger.Discard(), discount.Options{})
	svc := NewService(db, ledger)
	ctx := context.Background()

	notebook := order.OrderItem{ProductID: 1, ProductName: "Notebook", Price: money("20"), Quantity: 2}
	pen := order.OrderItem{ProductID: 2, ProductName: "Pen", Price: money("5"), Quantity: 4}

	seed(t, db, order.OrderStatusPaid, "SAVE10", "6", notebook, pen)
	seed(t, db, order.OrderStatusShipped, "", "0", pen)
	seed(t, db, order.OrderStatusCancelled, "", "0", notebook)

	_, err := ledger.Create(ctx, &discount.CreateDiscountRequest{Code: "PUBLIC", Percentage: 5, MaxUses: 3, IsPublic: true})
	require.NoError(t, err)
	_, err = ledger.Create(ctx, &discount.CreateDiscountRequest{Code: "HIDDEN", Percentage: 5, MaxUses: 3})
	require.NoError(t, err)

	summary, err := svc.GetSummary(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(2), summary.TotalOrders)
	assert.Equal(t, int64(1), summary.DiscountedOrders)
	assert.Equal(t, int64(10), summary.ItemsSold)
	assert.True(t, money("80").Equal(summary.TotalRevenue), summary.TotalRevenue.String())
	assert.True(t, money("74").Equal(summary.NetRevenue), summary.NetRevenue.String())
	assert.True(t, money("6").Equal(summary.DiscountGiven), summary.DiscountGiven.String())
	assert.True(t, money("40").Equal(summary.AvgOrderValue), summary.AvgOrderValue.String())
	assert.Equal(t, int64(1), summary.ActivePublicDiscounts)

	require.Len(t, summary.TopProducts, 2)
	assert.Equal(t, "Pen", summary.TopProducts[0].ProductName)
	assert.Equal(t, int64(8), summary.TopProducts[0].TotalSold)
	assert.True(t, money("40").Equal(summary.TopProducts[0].Revenue))
	assert.Equal(t, "Notebook", summary.TopProducts[1].ProductName)
}

func TestGetSummary_Empty(t *testing.T) {
	db := testutil.NewDB(t, &order.Order{}, &order.OrderItem{}, &discount.Discount{}, &discount.Usage{})
	svc := NewService(db, discount.NewService(db, logger.Discard(), discount.Options{}))

	summary, err := svc.GetSummary(context.Background())
	require.NoError(t, err)

	assert.Zero(t, summary.TotalOrders)
	assert.True(t, summary.TotalRevenue.IsZero())
	assert.True(t, summary.AvgOrderValue.IsZero())
	assert.Empty(t, summary.TopProducts)
}
