// internal/domain/order/service.go
package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/your-org/storefront-backend/internal/pkg/apperror"
	"gorm.io/gorm"
)

// Service handles order queries. Orders are written only by checkout.
type Service struct {
	db *gorm.DB
}

// NewService creates a new order service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Create persists an order and its items on the given transaction
func Create(tx *gorm.DB, order *Order) error {
	for i := range order.Items {
		order.Items[i].Position = i
	}
	if err := tx.Create(order).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// ListUserOrders returns a user's orders with items, newest first
func (s *Service) ListUserOrders(ctx context.Context, userID string) ([]Order, error) {
	orders := []Order{}
	err := s.db.WithContext(ctx).
		Preload("Items", itemOrder).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve orders: %w", err)
	}
	return orders, nil
}

// Get returns one of the user's orders. Orders owned by someone else are
// reported as not found.
func (s *Service) Get(ctx context.Context, userID, orderID string) (*Order, error) {
	var order Order
	err := s.db.WithContext(ctx).
		Preload("Items", itemOrder).
		Where("id = ? AND user_id = ?", orderID, userID).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %s", apperror.ErrNotFound, orderID)
		}
		return nil, fmt.Errorf("failed to retrieve order: %w", err)
	}
	return &order, nil
}

// CountByStatus counts orders in any of the given statuses
func (s *Service) CountByStatus(ctx context.Context, statuses ...OrderStatus) (int64, error) {
	var count int64
	query := s.db.WithContext(ctx).Model(&Order{})
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return count, nil
}

// CountPaidOrders counts orders that count toward reward discounts
func (s *Service) CountPaidOrders(ctx context.Context) (int64, error) {
	return s.CountByStatus(ctx, OrderStatusPaid, OrderStatusShipped)
}

func itemOrder(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC, id ASC")
}
