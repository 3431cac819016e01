// internal/domain/analytics/service.go
package analytics

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"gorm.io/gorm"
)

const topProductsLimit = 5

// DiscountCounter reports redeemable public discounts
type DiscountCounter interface {
	CountActivePublic(ctx context.Context) (int64, error)
}

// Service handles analytics business logic
type Service struct {
	db        *gorm.DB
	discounts DiscountCounter
}

// NewService creates a new analytics service
func NewService(db *gorm.DB, discounts DiscountCounter) *Service {
	return &Service{
		db:        db,
		discounts: discounts,
	}
}

// Summary represents store-wide sales statistics. Cancelled orders are excluded.
type Summary struct {
	// Sales metrics
	TotalRevenue  decimal.Decimal `json:"total_revenue"` // Sum of subtotals
	NetRevenue    decimal.Decimal `json:"net_revenue"`   // Sum of final amounts
	DiscountGiven decimal.Decimal `json:"discount_given"`
	AvgOrderValue decimal.Decimal `json:"avg_order_value"`

	// Order metrics
	TotalOrders      int64 `json:"total_orders"`
	ItemsSold        int64 `json:"items_sold"`
	DiscountedOrders int64 `json:"discounted_orders"`

	// Discount metrics
	ActivePublicDiscounts int64 `json:"active_public_discounts"`

	TopProducts []ProductSalesData `json:"top_products"`
}

// ProductSalesData represents per product sales
type ProductSalesData struct {
	ProductID   uint            `json:"product_id"`
	ProductName string          `json:"product_name"`
	TotalSold   int64           `json:"total_sold"`
	Revenue     decimal.Decimal `json:"revenue"`
}

// GetSummary computes the dashboard summary
func (s *Service) GetSummary(ctx context.Context) (*Summary, error) {
	db := s.db.WithContext(ctx)
	summary := &Summary{TopProducts: []ProductSalesData{}}

	var totals struct {
		Revenue          decimal.Decimal
		NetRevenue       decimal.Decimal
		DiscountGiven    decimal.Decimal
		Orders           int64
		DiscountedOrders int64
	}
	err := db.Model(&order.Order{}).
		Select(`COALESCE(SUM(subtotal), 0) AS revenue,
			COALESCE(SUM(final_amount), 0) AS net_revenue,
			COALESCE(SUM(discount_amount), 0) AS discount_given,
			COUNT(*) AS orders,
			COUNT(NULLIF(discount_code, '')) AS discounted_orders`).
		Where("status <> ?", order.OrderStatusCancelled).
		Scan(&totals).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate orders: %w", err)
	}

	summary.TotalRevenue = totals.Revenue.Round(2)
	summary.NetRevenue = totals.NetRevenue.Round(2)
	summary.DiscountGiven = totals.DiscountGiven.Round(2)
	summary.TotalOrders = totals.Orders
	summary.DiscountedOrders = totals.DiscountedOrders
	summary.AvgOrderValue = decimal.Zero
	if totals.Orders > 0 {
		summary.AvgOrderValue = totals.Revenue.Div(decimal.NewFromInt(totals.Orders)).Round(2)
	}

	var items struct {
		ItemsSold int64
	}
	err = db.Table("order_items").
		Select("COALESCE(SUM(order_items.quantity), 0) AS items_sold").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.status <> ?", order.OrderStatusCancelled).
		Scan(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count items sold: %w", err)
	}
	summary.ItemsSold = items.ItemsSold

	err = db.Table("order_items").
		Select(`order_items.product_id,
			order_items.product_name,
			SUM(order_items.quantity) AS total_sold,
			SUM(order_items.price * order_items.quantity) AS revenue`).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.status <> ?", order.OrderStatusCancelled).
		Group("order_items.product_id, order_items.product_name").
		Order("total_sold DESC, order_items.product_id ASC").
		Limit(topProductsLimit).
		Scan(&summary.TopProducts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to rank products: %w", err)
	}
	for i := range summary.TopProducts {
		summary.TopProducts[i].Revenue = summary.TopProducts[i].Revenue.Round(2)
	}

	summary.ActivePublicDiscounts, err = s.discounts.CountActivePublic(ctx)
	if err != nil {
		return nil, err
	}

	return summary, nil
}
