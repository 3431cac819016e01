// internal/domain/cart/entity.go
package cart

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cart is the single cart owned by a user
type Cart struct {
	ID        uint       `gorm:"primaryKey" json:"-"`
	UserID    string     `gorm:"uniqueIndex;not null;size:128" json:"user_id"`
	Items     []CartItem `gorm:"foreignKey:CartID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CartItem is one product line in a cart. Position keeps insertion order;
// a product appears at most once per cart.
type CartItem struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	CartID    uint      `gorm:"not null;uniqueIndex:idx_cart_items_cart_product" json:"-"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_cart_items_cart_product;index" json:"product_id"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	Position  int       `gorm:"not null;default:0" json:"-"`
	AddedAt   time.Time `json:"added_at"`
}

// TableName overrides
func (Cart) TableName() string     { return "carts" }
func (CartItem) TableName() string { return "cart_items" }

// CartTotals represents calculated cart totals for display. Checkout
// recomputes everything from the catalog, so these are estimates only.
type CartTotals struct {
	ItemCount     int             `json:"item_count"`     // Number of unique items
	TotalQuantity int             `json:"total_quantity"` // Sum of all quantities
	SubTotal      decimal.Decimal `json:"sub_total"`
}

// IsEmpty reports whether the cart has no lines
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// QuantityOf returns the quantity held for a product, zero when absent
func (c *Cart) QuantityOf(productID uint) int {
	if i := c.indexOf(productID); i >= 0 {
		return c.Items[i].Quantity
	}
	return 0
}

// Add merges quantity into an existing line or appends a new one
func (c *Cart) Add(productID uint, quantity int) {
	if i := c.indexOf(productID); i >= 0 {
		c.Items[i].Quantity += quantity
		return
	}
	c.Items = append(c.Items, CartItem{
		ProductID: productID,
		Quantity:  quantity,
		AddedAt:   time.Now().UTC(),
	})
}

// Set overwrites a line's quantity; zero removes the line
func (c *Cart) Set(productID uint, quantity int) {
	i := c.indexOf(productID)

	switch {
	case quantity == 0 && i >= 0:
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
	case quantity == 0:
		// nothing to remove
	case i >= 0:
		c.Items[i].Quantity = quantity
	default:
		c.Items = append(c.Items, CartItem{
			ProductID: productID,
			Quantity:  quantity,
			AddedAt:   time.Now().UTC(),
		})
	}
}

// Empty drops every line
func (c *Cart) Empty() {
	c.Items = []CartItem{}
}

func (c *Cart) indexOf(productID uint) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}
