// internal/domain/discount/service.go
package discount

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
	"gorm.io/gorm"
)

// Options tunes ledger policy
type Options struct {
	// OnePerUser rejects a second redemption of the same code by the same user
	OnePerUser bool
}

// Service is the discount ledger
type Service struct {
	db     *gorm.DB
	logger logrus.FieldLogger
	opts   Options
	now    func() time.Time
}

// NewService creates a new discount ledger
func NewService(db *gorm.DB, logger logrus.FieldLogger, opts Options) *Service {
	return &Service{
		db:     db,
		logger: logger,
		opts:   opts,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// CreateDiscountRequest represents admin discount creation data
type CreateDiscountRequest struct {
	Code       string     `json:"code" binding:"required"`
	Percentage int        `json:"percentage"`
	IsPublic   bool       `json:"is_public"`
	MaxUses    int        `json:"max_uses"`
	ExpiresAt  *time.Time `json:"expires_at"`

	autoGenerated bool
}

// ValidateResponse is what the storefront learns about a valid code
type ValidateResponse struct {
	Code       string `json:"code"`
	Percentage int    `json:"percentage"`
}

// Validate is a read-only pre-check. It does not reserve anything;
// Consume re-checks the same conditions atomically.
func (s *Service) Validate(ctx context.Context, code, userID string) (*Discount, error) {
	code = NormalizeCode(code)
	if code == "" {
		return nil, fmt.Errorf("%w: code is required", apperror.ErrInvalidDiscount)
	}

	var discount Discount
	if err := s.db.WithContext(ctx).Where("code = ?", code).First(&discount).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrInvalidDiscount
		}
		return nil, fmt.Errorf("failed to retrieve discount: %w", err)
	}

	if !discount.IsActive(s.now()) {
		return nil, apperror.ErrInvalidDiscount
	}

	if s.opts.OnePerUser {
		used, err := s.hasUsed(ctx, code, userID)
		if err != nil {
			return nil, err
		}
		if used {
			return nil, fmt.Errorf("%w: already redeemed by this user", apperror.ErrInvalidDiscount)
		}
	}

	return &discount, nil
}

// Consume atomically takes one use of a discount and records who used it
func (s *Service) Consume(ctx context.Context, code, userID, orderID string) (*Discount, error) {
	var consumed *Discount
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		consumed, err = s.ConsumeTx(tx, code, userID, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return consumed, nil
}

// ConsumeTx is Consume on a caller supplied transaction. The guard and the
// increment are one UPDATE, so concurrent callers cannot overdraw maxUses.
func (s *Service) ConsumeTx(tx *gorm.DB, code, userID, orderID string) (*Discount, error) {
	code = NormalizeCode(code)
	now := s.now()

	query := tx.Model(&Discount{}).
		Where("code = ?", code).
		Where("used_count < max_uses").
		Where("(expires_at IS NULL OR expires_at > ?)", now)

	if s.opts.OnePerUser {
		query = query.Where(
			"NOT EXISTS (SELECT 1 FROM discount_usages WHERE discount_usages.discount_code = discounts.code AND discount_usages.user_id = ?)",
			userID,
		)
	}

	result := query.UpdateColumn("used_count", gorm.Expr("used_count + 1"))
	if result.Error != nil {
		return nil, fmt.Errorf("failed to consume discount: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: %s", apperror.ErrDiscountRejected, code)
	}

	usage := Usage{
		DiscountCode: code,
		UserID:       userID,
		OrderID:      orderID,
		UsedAt:       now,
	}
	if err := tx.Create(&usage).Error; err != nil {
		return nil, fmt.Errorf("failed to record discount usage: %w", err)
	}

	var discount Discount
	if err := tx.Where("code = ?", code).First(&discount).Error; err != nil {
		return nil, fmt.Errorf("failed to reload discount: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"code":       code,
		"user_id":    userID,
		"order_id":   orderID,
		"used_count": discount.UsedCount,
		"max_uses":   discount.MaxUses,
	}).Info("discount consumed")

	return &discount, nil
}

// Create stores a new discount
func (s *Service) Create(ctx context.Context, req *CreateDiscountRequest) (*Discount, error) {
	code := NormalizeCode(req.Code)
	if code == "" {
		return nil, fmt.Errorf("%w: code is required", apperror.ErrValidation)
	}
	if req.Percentage < 1 || req.Percentage > 100 {
		return nil, fmt.Errorf("%w: percentage must be between 1 and 100", apperror.ErrValidation)
	}
	if req.MaxUses < 1 {
		return nil, fmt.Errorf("%w: max uses must be at least 1", apperror.ErrValidation)
	}

	var existing int64
	if err := s.db.WithContext(ctx).Model(&Discount{}).Where("code = ?", code).Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("failed to check discount code: %w", err)
	}
	if existing > 0 {
		return nil, fmt.Errorf("%w: %s", apperror.ErrDuplicateCode, code)
	}

	discount := Discount{
		Code:          code,
		Percentage:    req.Percentage,
		IsPublic:      req.IsPublic,
		MaxUses:       req.MaxUses,
		AutoGenerated: req.autoGenerated,
	}
	if req.ExpiresAt != nil {
		expiresAt := req.ExpiresAt.UTC()
		discount.ExpiresAt = &expiresAt
	}

	if err := s.db.WithContext(ctx).Create(&discount).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: %s", apperror.ErrDuplicateCode, code)
		}
		return nil, fmt.Errorf("failed to create discount: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"code":       discount.Code,
		"percentage": discount.Percentage,
		"max_uses":   discount.MaxUses,
		"public":     discount.IsPublic,
	}).Info("discount created")

	return &discount, nil
}

// Get returns a discount with its usage history
func (s *Service) Get(ctx context.Context, code string) (*Discount, error) {
	code = NormalizeCode(code)

	var discount Discount
	err := s.db.WithContext(ctx).
		Preload("UsageHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("used_at ASC, id ASC")
		}).
		Where("code = ?", code).
		First(&discount).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: discount %s", apperror.ErrNotFound, code)
		}
		return nil, fmt.Errorf("failed to retrieve discount: %w", err)
	}

	return &discount, nil
}

// ListPublicActive returns public, unexpired, unexhausted discounts, newest first
func (s *Service) ListPublicActive(ctx context.Context) ([]Discount, error) {
	discounts := []Discount{}
	err := s.db.WithContext(ctx).
		Where("is_public = ?", true).
		Where("used_count < max_uses").
		Where("(expires_at IS NULL OR expires_at > ?)", s.now()).
		Order("created_at DESC").
		Find(&discounts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve discounts: %w", err)
	}
	return discounts, nil
}

// ListAll returns every discount ever created, newest first
func (s *Service) ListAll(ctx context.Context) ([]Discount, error) {
	discounts := []Discount{}
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&discounts).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve discounts: %w", err)
	}
	return discounts, nil
}

// RecordConflict notes that orderID kept a discount the ledger refused
func (s *Service) RecordConflict(ctx context.Context, code, userID, orderID, reason string) error {
	conflict := Conflict{
		DiscountCode: NormalizeCode(code),
		OrderID:      orderID,
		UserID:       userID,
		Reason:       reason,
		DetectedAt:   s.now(),
	}
	if err := s.db.WithContext(ctx).Create(&conflict).Error; err != nil {
		return fmt.Errorf("failed to record discount conflict: %w", err)
	}
	return nil
}

// ListConflicts returns recorded conflicts, newest first
func (s *Service) ListConflicts(ctx context.Context) ([]Conflict, error) {
	conflicts := []Conflict{}
	if err := s.db.WithContext(ctx).Order("detected_at DESC, id DESC").Find(&conflicts).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve discount conflicts: %w", err)
	}
	return conflicts, nil
}

// CountActivePublic returns how many public discounts are currently redeemable
func (s *Service) CountActivePublic(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&Discount{}).
		Where("is_public = ?", true).
		Where("used_count < max_uses").
		Where("(expires_at IS NULL OR expires_at > ?)", s.now()).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count discounts: %w", err)
	}
	return count, nil
}

func (s *Service) hasUsed(ctx context.Context, code, userID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&Usage{}).
		Where("discount_code = ? AND user_id = ?", code, userID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check discount usage: %w", err)
	}
	return count > 0, nil
}
