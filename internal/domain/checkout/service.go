// internal/domain/checkout/service.go
package checkout

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/discount"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
	"gorm.io/gorm"
)

// Options tunes settlement
type Options struct {
	// StrictDiscount consumes the discount inside the order transaction.
	// When false the discount is consumed after commit and a rejection is
	// recorded as a conflict instead of failing the order.
	StrictDiscount bool
}

// Service settles carts into paid orders
type Service struct {
	db        *gorm.DB
	carts     *cart.Service
	ledger    *discount.Service
	generator *discount.Generator
	logger    logrus.FieldLogger
	opts      Options
}

// NewService creates a new checkout service. generator may be nil.
func NewService(
	db *gorm.DB,
	carts *cart.Service,
	ledger *discount.Service,
	generator *discount.Generator,
	logger logrus.FieldLogger,
	opts Options,
) *Service {
	return &Service{
		db:        db,
		carts:     carts,
		ledger:    ledger,
		generator: generator,
		logger:    logger,
		opts:      opts,
	}
}

// CheckoutRequest represents checkout data
type CheckoutRequest struct {
	DiscountCode string `json:"discount_code"`
}

// CheckoutSummary is a read-only price preview of the current cart
type CheckoutSummary struct {
	Cart           *cart.CartResponse `json:"cart"`
	DiscountCode   string             `json:"discount_code,omitempty"`
	Percentage     int                `json:"percentage,omitempty"`
	Subtotal       decimal.Decimal    `json:"subtotal"`
	DiscountAmount decimal.Decimal    `json:"discount_amount"`
	FinalAmount    decimal.Decimal    `json:"final_amount"`
}

// Settle turns the user's cart into a paid order. The cart claim, stock, the
// order and (in strict mode) the discount redemption commit or roll back
// together, so concurrent checkouts by one user settle the cart once.
func (s *Service) Settle(ctx context.Context, userID, discountCode string) (*order.Order, error) {
	userCart, err := s.carts.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve cart: %w", err)
	}
	if userCart.IsEmpty() {
		return nil, apperror.ErrEmptyCart
	}

	code := discount.NormalizeCode(discountCode)
	var applied *discount.Discount
	if code != "" {
		applied, err = s.ledger.Validate(ctx, code, userID)
		if err != nil {
			return nil, err
		}
	}

	log := s.logger.WithFields(logrus.Fields{
		"user_id":       userID,
		"discount_code": code,
	})

	placed := &order.Order{
		ID:     uuid.NewString(),
		UserID: userID,
		Status: order.OrderStatusPaid,
	}

	var restoreCart func(context.Context) error
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The cart read above may be stale; only claimed lines are settled.
		claimed, restore, err := s.carts.Claim(ctx, tx, userID)
		if err != nil {
			return err
		}
		restoreCart = restore
		if claimed.IsEmpty() {
			return apperror.ErrEmptyCart
		}

		items, err := reserveStock(tx, claimed.Items)
		if err != nil {
			return err
		}

		placed.Items = items
		placed.Subtotal = subtotalOf(items)
		placed.DiscountAmount = decimal.Zero
		if applied != nil {
			placed.DiscountCode = applied.Code
			placed.DiscountAmount = applied.AmountFor(placed.Subtotal)
		}
		placed.FinalAmount = placed.Subtotal.Sub(placed.DiscountAmount)

		if err := order.Create(tx, placed); err != nil {
			return err
		}

		if applied != nil && s.opts.StrictDiscount {
			if _, err := s.ledger.ConsumeTx(tx, applied.Code, userID, placed.ID); err != nil {
				if errors.Is(err, apperror.ErrDiscountRejected) {
					return fmt.Errorf("%w: %s", apperror.ErrInvalidDiscount, applied.Code)
				}
				return err
			}
		}
		return nil
	})
	if err != nil {
		if restoreCart != nil {
			if restoreErr := restoreCart(context.WithoutCancel(ctx)); restoreErr != nil {
				log.WithError(restoreErr).Error("failed to restore cart after rejected checkout")
			}
		}
		log.WithError(err).Info("checkout rejected")
		return nil, err
	}

	log = log.WithField("order_id", placed.ID)

	if applied != nil && !s.opts.StrictDiscount {
		s.consumeAfterCommit(ctx, log, placed)
	}

	if s.generator != nil {
		if code, generated, err := s.generator.CheckAndGenerate(ctx); err != nil {
			log.WithError(err).Error("reward discount generation failed")
		} else if generated {
			log.WithField("reward_code", code).Info("reward discount issued")
		}
	}

	log.WithFields(logrus.Fields{
		"subtotal":     placed.Subtotal.StringFixed(2),
		"final_amount": placed.FinalAmount.StringFixed(2),
		"items":        placed.ItemCount(),
	}).Info("order settled")

	return placed, nil
}

// Summary prices the current cart without reserving anything
func (s *Service) Summary(ctx context.Context, userID, discountCode string) (*CheckoutSummary, error) {
	view, err := s.carts.GetCartView(ctx, userID)
	if err != nil {
		return nil, err
	}

	summary := &CheckoutSummary{
		Cart:           view,
		Subtotal:       view.Totals.SubTotal,
		DiscountAmount: decimal.Zero,
	}

	if code := discount.NormalizeCode(discountCode); code != "" {
		applied, err := s.ledger.Validate(ctx, code, userID)
		if err != nil {
			return nil, err
		}
		summary.DiscountCode = applied.Code
		summary.Percentage = applied.Percentage
		summary.DiscountAmount = applied.AmountFor(summary.Subtotal)
	}

	summary.FinalAmount = summary.Subtotal.Sub(summary.DiscountAmount)
	return summary, nil
}

func (s *Service) consumeAfterCommit(ctx context.Context, log logrus.FieldLogger, placed *order.Order) {
	_, err := s.ledger.Consume(ctx, placed.DiscountCode, placed.UserID, placed.ID)
	if err == nil {
		return
	}

	log.WithError(err).Warn("discount rejected after order commit")
	if recErr := s.ledger.RecordConflict(ctx, placed.DiscountCode, placed.UserID, placed.ID, err.Error()); recErr != nil {
		log.WithError(recErr).Error("failed to record discount conflict")
	}
}

// reserveStock locks every product in id order, checks all quantities up
// front and then decrements each one with a guarded update. Carts that
// share products therefore lock them in the same order. Items keep the
// cart's order and snapshot the locked prices.
func reserveStock(tx *gorm.DB, lines []cart.CartItem) ([]order.OrderItem, error) {
	byID := make([]int, len(lines))
	for i := range byID {
		byID[i] = i
	}
	sort.Slice(byID, func(a, b int) bool {
		return lines[byID[a]].ProductID < lines[byID[b]].ProductID
	})

	products := make([]*product.Product, len(lines))
	for _, i := range byID {
		line := lines[i]
		p, err := product.FindForUpdate(tx, line.ProductID)
		if err != nil {
			return nil, err
		}
		if !p.IsInStock(line.Quantity) {
			return nil, fmt.Errorf("%w: %s has %d available, requested %d",
				apperror.ErrInsufficientStock, p.Name, p.Stock, line.Quantity)
		}
		products[i] = p
	}

	for _, i := range byID {
		if err := product.DecrementStock(tx, lines[i].ProductID, lines[i].Quantity); err != nil {
			return nil, err
		}
	}

	items := make([]order.OrderItem, len(lines))
	for i, line := range lines {
		items[i] = order.OrderItem{
			ProductID:   products[i].ID,
			ProductName: products[i].Name,
			Price:       products[i].Price,
			Quantity:    line.Quantity,
		}
	}
	return items, nil
}

func subtotalOf(items []order.OrderItem) decimal.Decimal {
	subtotal := decimal.Zero
	for i := range items {
		subtotal = subtotal.Add(items[i].LineTotal())
	}
	return subtotal
}
