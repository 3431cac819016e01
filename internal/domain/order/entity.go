// internal/domain/order/entity.go
package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderStatus represents the order status
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusPaid      OrderStatus = "PAID"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// Order is an immutable record of a settled checkout
type Order struct {
	ID     string      `gorm:"primaryKey;size:36" json:"id"`
	UserID string      `gorm:"not null;index;size:128" json:"user_id"`
	Status OrderStatus `gorm:"not null;size:20;index" json:"status"`

	// Financial Information
	Subtotal       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	DiscountCode   string          `gorm:"size:64;index" json:"discount_code,omitempty"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"discount_amount"`
	FinalAmount    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"final_amount"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`

	// Relationships
	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items"`
}

// OrderItem snapshots a product line at settlement time
type OrderItem struct {
	ID          uint            `gorm:"primaryKey" json:"-"`
	OrderID     string          `gorm:"not null;index;size:36" json:"-"`
	Position    int             `gorm:"not null;default:0" json:"-"`
	ProductID   uint            `gorm:"not null;index" json:"product_id"`
	ProductName string          `gorm:"not null;size:255" json:"product_name"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"` // Unit price
	Quantity    int             `gorm:"not null" json:"quantity"`
}

// TableName overrides
func (Order) TableName() string     { return "orders" }
func (OrderItem) TableName() string { return "order_items" }

// BeforeCreate assigns a UUID when the caller has not
func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

// LineTotal returns price * quantity
func (i *OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ItemCount returns the total quantity across lines
func (o *Order) ItemCount() int {
	total := 0
	for _, item := range o.Items {
		total += item.Quantity
	}
	return total
}

// HasDiscount reports whether a discount was applied
func (o *Order) HasDiscount() bool {
	return o.DiscountCode != ""
}

// CountsTowardRewards reports whether the order counts for the reward threshold
func (o *Order) CountsTowardRewards() bool {
	return o.Status == OrderStatusPaid || o.Status == OrderStatusShipped
}
