// internal/domain/discount/entity.go
package discount

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Discount is a percentage-off code with a global usage cap
type Discount struct {
	Code          string     `gorm:"primaryKey;size:64" json:"code"`
	Percentage    int        `gorm:"not null" json:"percentage"`
	IsPublic      bool       `gorm:"not null;default:false;index" json:"is_public"`
	MaxUses       int        `gorm:"not null;default:1" json:"max_uses"`
	UsedCount     int        `gorm:"not null;default:0" json:"used_count"`
	ExpiresAt     *time.Time `gorm:"index" json:"expires_at,omitempty"`
	AutoGenerated bool       `gorm:"not null;default:false" json:"auto_generated"`
	CreatedAt     time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	// Relationships
	UsageHistory []Usage `gorm:"foreignKey:DiscountCode;references:Code;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"usage_history,omitempty"`
}

// Usage is one redemption of a discount. Rows are append-only.
type Usage struct {
	ID           uint      `gorm:"primaryKey" json:"-"`
	DiscountCode string    `gorm:"not null;size:64;index:idx_discount_usages_code_user" json:"-"`
	UserID       string    `gorm:"not null;size:128;index:idx_discount_usages_code_user" json:"user_id"`
	OrderID      string    `gorm:"not null;size:36" json:"order_id"`
	UsedAt       time.Time `json:"used_at"`
}

// Conflict records an order that kept a discount the ledger refused to consume
type Conflict struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	DiscountCode string    `gorm:"not null;size:64;index" json:"discount_code"`
	OrderID      string    `gorm:"not null;size:36;index" json:"order_id"`
	UserID       string    `gorm:"not null;size:128" json:"user_id"`
	Reason       string    `gorm:"size:255" json:"reason"`
	DetectedAt   time.Time `json:"detected_at"`
}

// TableName overrides
func (Discount) TableName() string { return "discounts" }
func (Usage) TableName() string    { return "discount_usages" }
func (Conflict) TableName() string { return "discount_conflicts" }

// NormalizeCode canonicalises user supplied codes
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsExpired reports whether the discount has passed its expiry at now
func (d *Discount) IsExpired(now time.Time) bool {
	return d.ExpiresAt != nil && !d.ExpiresAt.After(now)
}

// IsExhausted reports whether every allowed use has been taken
func (d *Discount) IsExhausted() bool {
	return d.UsedCount >= d.MaxUses
}

// IsActive reports whether the discount can still be redeemed at now
func (d *Discount) IsActive(now time.Time) bool {
	return !d.IsExpired(now) && !d.IsExhausted()
}

// RemainingUses returns how many redemptions are left
func (d *Discount) RemainingUses() int {
	if d.IsExhausted() {
		return 0
	}
	return d.MaxUses - d.UsedCount
}

// AmountFor returns the discount on subtotal, rounded to cents
func (d *Discount) AmountFor(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(decimal.NewFromInt(int64(d.Percentage))).Div(decimal.NewFromInt(100)).Round(2)
}
