// internal/domain/cart/store.go
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store persists carts. Writes replace the whole cart (last write wins).
type Store interface {
	// Load returns the user's cart, creating an empty one on first access
	Load(ctx context.Context, userID string) (*Cart, error)
	Save(ctx context.Context, cart *Cart) error
	// Clear empties the cart without deleting it
	Clear(ctx context.Context, userID string) error
	// Claim empties the cart for settlement and returns the lines it held.
	// tx is the settlement transaction. If settlement fails after the claim,
	// restore puts the lines back; stores that claim inside tx return a
	// no-op because the rollback already does.
	Claim(ctx context.Context, tx *gorm.DB, userID string) (claimed *Cart, restore func(context.Context) error, err error)
}

func noRestore(context.Context) error { return nil }

// DBStore keeps carts in the relational database
type DBStore struct {
	db *gorm.DB
}

// NewDBStore creates a database backed cart store
func NewDBStore(db *gorm.DB) *DBStore {
	return &DBStore{db: db}
}

// Load implements Store
func (s *DBStore) Load(ctx context.Context, userID string) (*Cart, error) {
	db := s.db.WithContext(ctx)

	cart, err := s.find(db, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Two first reads may race; the loser's insert becomes a no-op.
		now := time.Now().UTC()
		err = db.Clauses(clause.OnConflict{DoNothing: true}).
			Omit(clause.Associations).
			Create(&Cart{UserID: userID, CreatedAt: now, UpdatedAt: now}).Error
		if err != nil {
			return nil, fmt.Errorf("failed to create cart: %w", err)
		}
		cart, err = s.find(db, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve user cart: %w", err)
	}

	if cart.Items == nil {
		cart.Items = []CartItem{}
	}
	return cart, nil
}

func (s *DBStore) find(db *gorm.DB, userID string) (*Cart, error) {
	var cart Cart
	err := db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC, id ASC")
	}).Where("user_id = ?", userID).First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// Save implements Store. The cart row is locked for the whole rewrite so
// concurrent saves of one cart apply one after the other.
func (s *DBStore) Save(ctx context.Context, cart *Cart) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := lockCart(tx, cart.UserID)
		if err != nil {
			return fmt.Errorf("failed to find cart: %w", err)
		}
		cart.ID = locked.ID

		if err := tx.Where("cart_id = ?", cart.ID).Delete(&CartItem{}).Error; err != nil {
			return fmt.Errorf("failed to reset cart items: %w", err)
		}

		if len(cart.Items) > 0 {
			items := make([]CartItem, len(cart.Items))
			for i, item := range cart.Items {
				items[i] = CartItem{
					CartID:    cart.ID,
					ProductID: item.ProductID,
					Quantity:  item.Quantity,
					Position:  i,
					AddedAt:   item.AddedAt,
				}
			}
			if err := tx.Create(&items).Error; err != nil {
				return fmt.Errorf("failed to save cart items: %w", err)
			}
			cart.Items = items
		}

		cart.UpdatedAt = time.Now().UTC()
		return tx.Model(&Cart{}).Where("id = ?", cart.ID).
			UpdateColumn("updated_at", cart.UpdatedAt).Error
	})
}

// Claim implements Store. The cart row stays locked until tx ends, so a
// second settlement for the same user waits and then finds nothing.
func (s *DBStore) Claim(ctx context.Context, tx *gorm.DB, userID string) (*Cart, func(context.Context) error, error) {
	cart, err := lockCart(tx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &Cart{UserID: userID, Items: []CartItem{}}, noRestore, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to lock cart: %w", err)
	}

	cart.Items = []CartItem{}
	err = tx.Where("cart_id = ?", cart.ID).
		Order("position ASC, id ASC").
		Find(&cart.Items).Error
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load cart items: %w", err)
	}

	if len(cart.Items) > 0 {
		if err := tx.Where("cart_id = ?", cart.ID).Delete(&CartItem{}).Error; err != nil {
			return nil, nil, fmt.Errorf("failed to claim cart items: %w", err)
		}
	}

	return cart, noRestore, nil
}

func lockCart(tx *gorm.DB, userID string) (*Cart, error) {
	var cart Cart
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// Clear implements Store
func (s *DBStore) Clear(ctx context.Context, userID string) error {
	sub := s.db.Model(&Cart{}).Select("id").Where("user_id = ?", userID)
	err := s.db.WithContext(ctx).Where("cart_id IN (?)", sub).Delete(&CartItem{}).Error
	if err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// RedisStore keeps each cart as one JSON document under cart:user:<id>
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a Redis backed cart store. A zero ttl keeps carts forever.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func cartKey(userID string) string {
	return fmt.Sprintf("cart:user:%s", userID)
}

// Load implements Store
func (s *RedisStore) Load(ctx context.Context, userID string) (*Cart, error) {
	data, err := s.client.Get(ctx, cartKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		now := time.Now().UTC()
		cart := &Cart{
			UserID:    userID,
			Items:     []CartItem{},
			CreatedAt: now,
			UpdatedAt: now,
		}
		payload, err := json.Marshal(cart)
		if err != nil {
			return nil, err
		}
		if err := s.client.SetNX(ctx, cartKey(userID), payload, s.ttl).Err(); err != nil {
			return nil, fmt.Errorf("failed to create cart: %w", err)
		}
		return cart, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to retrieve user cart: %w", err)
	}

	var cart Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("failed to decode cart: %w", err)
	}
	if cart.Items == nil {
		cart.Items = []CartItem{}
	}
	return &cart, nil
}

// Save implements Store
func (s *RedisStore) Save(ctx context.Context, cart *Cart) error {
	cart.UpdatedAt = time.Now().UTC()
	if cart.CreatedAt.IsZero() {
		cart.CreatedAt = cart.UpdatedAt
	}

	payload, err := json.Marshal(cart)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, cartKey(cart.UserID), payload, s.ttl).Err()
}

// Claim implements Store. GETDEL takes the document atomically, so only one
// settlement can see the lines.
func (s *RedisStore) Claim(ctx context.Context, _ *gorm.DB, userID string) (*Cart, func(context.Context) error, error) {
	data, err := s.client.GetDel(ctx, cartKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return &Cart{UserID: userID, Items: []CartItem{}}, noRestore, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to claim cart: %w", err)
	}

	var cart Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, nil, fmt.Errorf("failed to decode cart: %w", err)
	}
	if len(cart.Items) == 0 {
		cart.Items = []CartItem{}
		return &cart, noRestore, nil
	}

	restore := func(ctx context.Context) error {
		return s.restore(ctx, &cart)
	}
	return &cart, restore, nil
}

// restore puts claimed lines back. Lines added since the claim are kept
// and claimed quantities are merged into them.
func (s *RedisStore) restore(ctx context.Context, claimed *Cart) error {
	payload, err := json.Marshal(claimed)
	if err != nil {
		return err
	}
	restored, err := s.client.SetNX(ctx, cartKey(claimed.UserID), payload, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to restore cart: %w", err)
	}
	if restored {
		return nil
	}

	current, err := s.Load(ctx, claimed.UserID)
	if err != nil {
		return err
	}
	merged := &Cart{
		UserID:    claimed.UserID,
		Items:     append([]CartItem{}, claimed.Items...),
		CreatedAt: claimed.CreatedAt,
	}
	for _, item := range current.Items {
		merged.Add(item.ProductID, item.Quantity)
	}
	return s.Save(ctx, merged)
}

// Clear implements Store
func (s *RedisStore) Clear(ctx context.Context, userID string) error {
	cart, err := s.Load(ctx, userID)
	if err != nil {
		return err
	}
	cart.Empty()
	return s.Save(ctx, cart)
}
