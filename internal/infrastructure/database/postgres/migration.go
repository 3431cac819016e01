// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/discount"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"gorm.io/gorm"
)

// Migration handles database migrations
type Migration struct {
	db     *gorm.DB
	logger logrus.FieldLogger
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB, logger logrus.FieldLogger) *Migration {
	return &Migration{
		db:     db,
		logger: logger,
	}
}

// Models lists every persisted model in dependency order
func Models() []interface{} {
	return []interface{}{
		// Catalog
		&product.Product{},

		// Cart domain
		&cart.Cart{},
		&cart.CartItem{},

		// Order domain
		&order.Order{},
		&order.OrderItem{},

		// Discount ledger
		&discount.Discount{},
		&discount.Usage{},
		&discount.Conflict{},
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	m.logger.Info("🔄 Running database auto-migrations...")

	for _, model := range Models() {
		m.logger.Debugf("Migrating model: %T", model)
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	m.logger.Info("✅ Database auto-migrations completed successfully")
	return nil
}

// CreateIndexes creates composite indexes the model tags cannot express
func (m *Migration) CreateIndexes() error {
	m.logger.Info("🔄 Creating additional database indexes...")

	indexes := []string{
		// Product indexes
		"CREATE INDEX IF NOT EXISTS idx_products_category_created ON products(category, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_products_price ON products(price)",

		// Order indexes
		"CREATE INDEX IF NOT EXISTS idx_orders_user_created ON orders(user_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_orders_status_created ON orders(status, created_at DESC)",

		// Order item indexes
		"CREATE INDEX IF NOT EXISTS idx_order_items_order_position ON order_items(order_id, position)",

		// Discount indexes
		"CREATE INDEX IF NOT EXISTS idx_discounts_public_created ON discounts(is_public, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_discount_conflicts_detected ON discount_conflicts(detected_at DESC)",
	}

	successCount := 0
	failCount := 0

	for _, indexSQL := range indexes {
		if err := m.db.Exec(indexSQL).Error; err != nil {
			m.logger.WithError(err).Warn("⚠️ Failed to create index")
			failCount++
		} else {
			successCount++
		}
	}

	m.logger.Infof("✅ Created %d indexes successfully (%d failed)", successCount, failCount)
	return nil
}

// SeedInitialData inserts a starter catalog and discounts. Existing rows are left alone.
func (m *Migration) SeedInitialData() error {
	m.logger.Info("🌱 Seeding initial data...")

	if err := m.seedProducts(); err != nil {
		return fmt.Errorf("failed to seed products: %w", err)
	}

	if err := m.seedDiscounts(); err != nil {
		return fmt.Errorf("failed to seed discounts: %w", err)
	}

	m.logger.Info("✅ Initial data seeded successfully")
	return nil
}

func (m *Migration) seedProducts() error {
	var productCount int64
	if err := m.db.Model(&product.Product{}).Count(&productCount).Error; err != nil {
		return err
	}
	if productCount > 0 {
		m.logger.Info("⏭️ Products already exist")
		return nil
	}

	products := []product.Product{
		{
			Name:        "Everyday Notebook",
			Description: "A5 dotted notebook with 192 pages and a lay-flat binding.",
			Category:    "stationery",
			Price:       decimal.RequireFromString("12.50"),
			Stock:       120,
		},
		{
			Name:        "Gel Pen Set",
			Description: "Pack of six quick-drying gel pens.",
			Category:    "stationery",
			Price:       decimal.RequireFromString("6.99"),
			Stock:       300,
		},
		{
			Name:        "Desk Lamp",
			Description: "Dimmable LED desk lamp with a USB charging port.",
			Category:    "home",
			Price:       decimal.RequireFromString("39.00"),
			Stock:       25,
		},
	}

	if err := m.db.Create(&products).Error; err != nil {
		return err
	}
	m.logger.Infof("✅ Created %d products", len(products))
	return nil
}

func (m *Migration) seedDiscounts() error {
	discounts := []discount.Discount{
		{Code: "WELCOME10", Percentage: 10, IsPublic: true, MaxUses: 1000},
		{Code: "SAVE20", Percentage: 20, IsPublic: true, MaxUses: 100},
		{Code: "BIGSALE50", Percentage: 50, IsPublic: false, MaxUses: 1},
	}

	for _, d := range discounts {
		result := m.db.Where("code = ?", d.Code).FirstOrCreate(&d)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected > 0 {
			m.logger.Infof("✅ Created discount: %s", d.Code)
		} else {
			m.logger.Infof("⏭️ Discount already exists: %s", d.Code)
		}
	}
	return nil
}

// DropAllTables drops all tables (use with extreme caution)
func (m *Migration) DropAllTables() error {
	m.logger.Warn("⚠️ WARNING: Dropping all database tables...")

	models := Models()
	for i := len(models) - 1; i >= 0; i-- {
		if err := m.db.Migrator().DropTable(models[i]); err != nil {
			return fmt.Errorf("failed to drop table for %T: %w", models[i], err)
		}
	}

	m.logger.Info("✅ All tables dropped successfully")
	return nil
}
