// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopcore/ecommerce-backend/internal/domain/admin"
	"github.com/shopcore/ecommerce-backend/internal/domain/cart"
	"github.com/shopcore/ecommerce-backend/internal/domain/coupon"
	"github.com/shopcore/ecommerce-backend/internal/domain/order"
	"github.com/shopcore/ecommerce-backend/internal/domain/product"
	"github.com/shopcore/ecommerce-backend/internal/domain/review"
	"github.com/shopcore/ecommerce-backend/internal/domain/user"
	"github.com/shopcore/ecommerce-backend/internal/domain/wishlist"
	"github.com/shopcore/ecommerce-backend/internal/pkg/auth"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Development seed account
const (
	SeedAdminEmail    = "admin@example.com"
	SeedAdminPassword = "Admin12345"
)

// Migration handles database migrations
type Migration struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB, logger *logrus.Logger) *Migration {
	return &Migration{
		db:     db,
		logger: logger,
	}
}

// Models lists every persisted model in dependency order
func Models() []interface{} {
	return []interface{}{
		// User domain
		&user.User{},
		&user.Address{},
		&admin.Application{},
		&admin.ArchivedApplication{},

		// Catalog
		&product.Category{},
		&product.SubCategory{},
		&product.Brand{},
		&product.Product{},
		&product.ProductImage{},

		// Cart and coupons
		&coupon.Coupon{},
		&coupon.Usage{},
		&cart.Cart{},
		&cart.Item{},

		// Orders
		&order.Order{},
		&order.OrderItem{},
		&order.Receipt{},

		&review.Review{},
		&wishlist.WishlistItem{},
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	m.logger.Info("Running database auto-migrations")

	for _, model := range Models() {
		m.logger.Debugf("Migrating model: %T", model)
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	m.logger.Info("Database auto-migrations completed")
	return nil
}

// CreateIndexes creates the composite indexes the list and dashboard queries use
func (m *Migration) CreateIndexes() error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_users_created_at ON users(created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_products_price ON products(price)",
		"CREATE INDEX IF NOT EXISTS idx_products_created_at ON products(created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_orders_user_created ON orders(user_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_orders_canceled_created ON orders(is_canceled, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_order_items_order_product ON order_items(order_id, product_id)",
		"CREATE INDEX IF NOT EXISTS idx_addresses_user_default ON addresses(user_id, is_default)",
		"CREATE INDEX IF NOT EXISTS idx_reviews_product_created ON reviews(product_id, created_at DESC)",
	}

	failed := 0
	for _, indexSQL := range indexes {
		if err := m.db.Exec(indexSQL).Error; err != nil {
			m.logger.WithError(err).Warn("Failed to create index")
			failed++
		}
	}

	m.logger.WithFields(logrus.Fields{
		"created": len(indexes) - failed,
		"failed":  failed,
	}).Info("Database indexes ensured")
	if failed > 0 {
		return fmt.Errorf("%d of %d indexes failed", failed, len(indexes))
	}
	return nil
}

// SeedInitialData inserts a superadmin and a few categories. Safe to run twice.
func (m *Migration) SeedInitialData(passwords *auth.PasswordManager) error {
	m.logger.Info("Seeding initial data")

	adminID, err := m.seedAdminUser(passwords)
	if err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	if err := m.seedCategories(adminID); err != nil {
		return fmt.Errorf("failed to seed categories: %w", err)
	}

	return nil
}

func (m *Migration) seedAdminUser(passwords *auth.PasswordManager) (uint, error) {
	var existing user.User
	err := m.db.Where("email = ?", SeedAdminEmail).First(&existing).Error
	if err == nil {
		m.logger.WithField("user_id", existing.ID).Debug("Admin user already exists")
		return existing.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}

	hash, err := passwords.HashPassword(SeedAdminPassword)
	if err != nil {
		return 0, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	adminUser := user.User{
		Email:           SeedAdminEmail,
		Password:        hash,
		FirstName:       "Admin",
		LastName:        "User",
		Role:            user.RoleSuperAdmin,
		EmailVerified:   true,
		EmailVerifiedAt: &now,
	}
	if err := m.db.Create(&adminUser).Error; err != nil {
		return 0, err
	}

	m.logger.WithField("email", SeedAdminEmail).Info("Created admin user")
	return adminUser.ID, nil
}

func (m *Migration) seedCategories(addedBy uint) error {
	for _, name := range []string{"electronics", "clothing", "books", "home & garden"} {
		var count int64
		if err := m.db.Model(&product.Category{}).Where("name = ?", name).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}

		category := product.Category{Name: name, Slug: product.Slugify(name), AddedBy: addedBy}
		if err := m.db.Create(&category).Error; err != nil {
			return err
		}
		m.logger.WithField("category", name).Info("Created category")
	}
	return nil
}

// GetTableInfo logs row counts per table
func (m *Migration) GetTableInfo() {
	var total int64
	for _, model := range Models() {
		stmt := &gorm.Statement{DB: m.db}
		if err := stmt.Parse(model); err != nil {
			continue
		}
		var count int64
		m.db.Model(model).Count(&count)
		total += count
		m.logger.WithFields(logrus.Fields{
			"table":   stmt.Schema.Table,
			"records": count,
		}).Debug("Table info")
	}
	m.logger.WithField("records", total).Info("Database table summary")
}
