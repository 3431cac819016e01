// internal/domain/cart/service.go
package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
	"gorm.io/gorm"
)

// ProductFinder is the catalog lookup the cart needs
type ProductFinder interface {
	GetProduct(ctx context.Context, id uint) (*product.Product, error)
}

// Service handles cart business logic
type Service struct {
	store    Store
	products ProductFinder
	logger   logrus.FieldLogger
}

// NewService creates a new cart service
func NewService(store Store, products ProductFinder, logger logrus.FieldLogger) *Service {
	return &Service{
		store:    store,
		products: products,
		logger:   logger,
	}
}

// CartItemResponse represents a cart item with product details
type CartItemResponse struct {
	ProductID uint             `json:"product_id"`
	Quantity  int              `json:"quantity"`
	Product   *product.Product `json:"product,omitempty"`
	AddedAt   time.Time        `json:"added_at"`
}

// CartResponse represents a shopping cart with items and summary
type CartResponse struct {
	UserID    string             `json:"user_id"`
	Items     []CartItemResponse `json:"items"`
	Totals    CartTotals         `json:"totals"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// AddToCartRequest represents add to cart request
type AddToCartRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,min=1"`
}

// UpdateCartItemRequest represents update cart item request
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"min=0"`
}

// GetOrCreateCart returns the user's cart, creating it on first access
func (s *Service) GetOrCreateCart(ctx context.Context, userID string) (*Cart, error) {
	return s.store.Load(ctx, userID)
}

// AddItem adds quantity units of a product, merging with an existing line.
// Stock is checked against the merged quantity.
func (s *Service) AddItem(ctx context.Context, userID string, productID uint, quantity int) (*Cart, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be greater than zero", apperror.ErrValidation)
	}

	prod, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	cart, err := s.store.Load(ctx, userID)
	if err != nil {
		return nil, err
	}

	requested := cart.QuantityOf(productID) + quantity
	if !prod.IsInStock(requested) {
		return nil, fmt.Errorf("%w: %s has %d available, requested %d",
			apperror.ErrInsufficientStock, prod.Name, prod.Stock, requested)
	}

	cart.Add(productID, quantity)
	if err := s.store.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("failed to save cart: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":    userID,
		"product_id": productID,
		"quantity":   requested,
	}).Debug("cart item added")

	return cart, nil
}

// SetItemQuantity overwrites a line's quantity. Zero removes the line and is
// idempotent. Stock is not checked here; checkout re-validates it.
func (s *Service) SetItemQuantity(ctx context.Context, userID string, productID uint, quantity int) (*Cart, error) {
	if quantity < 0 {
		return nil, fmt.Errorf("%w: quantity cannot be negative", apperror.ErrValidation)
	}

	cart, err := s.store.Load(ctx, userID)
	if err != nil {
		return nil, err
	}

	cart.Set(productID, quantity)
	if err := s.store.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("failed to save cart: %w", err)
	}

	return cart, nil
}

// Clear empties the user's cart
func (s *Service) Clear(ctx context.Context, userID string) error {
	return s.store.Clear(ctx, userID)
}

// Claim takes the cart's lines for settlement inside tx. See Store.Claim.
func (s *Service) Claim(ctx context.Context, tx *gorm.DB, userID string) (*Cart, func(context.Context) error, error) {
	return s.store.Claim(ctx, tx, userID)
}

// GetCartView returns the cart joined with current catalog data
func (s *Service) GetCartView(ctx context.Context, userID string) (*CartResponse, error) {
	cart, err := s.store.Load(ctx, userID)
	if err != nil {
		return nil, err
	}

	items := make([]CartItemResponse, len(cart.Items))
	for i, item := range cart.Items {
		items[i] = CartItemResponse{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			AddedAt:   item.AddedAt,
		}

		prod, err := s.products.GetProduct(ctx, item.ProductID)
		if err != nil {
			// Product removed since it was added; checkout will reject it.
			s.logger.WithError(err).WithField("product_id", item.ProductID).Debug("cart product unavailable")
			continue
		}
		items[i].Product = prod
	}

	return &CartResponse{
		UserID:    cart.UserID,
		Items:     items,
		Totals:    calculateTotals(items),
		CreatedAt: cart.CreatedAt,
		UpdatedAt: cart.UpdatedAt,
	}, nil
}

func calculateTotals(items []CartItemResponse) CartTotals {
	totals := CartTotals{
		ItemCount: len(items),
		SubTotal:  decimal.Zero,
	}

	for _, item := range items {
		totals.TotalQuantity += item.Quantity
		if item.Product != nil {
			totals.SubTotal = totals.SubTotal.Add(item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}
	}

	return totals
}
