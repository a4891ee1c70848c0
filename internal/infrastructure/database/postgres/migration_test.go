package postgres

import (
	"testing"

	"github.com/shopcore/ecommerce-backend/internal/domain/product"
	"github.com/shopcore/ecommerce-backend/internal/domain/user"
	"github.com/shopcore/ecommerce-backend/internal/pkg/auth"
	"github.com/shopcore/ecommerce-backend/internal/pkg/logger"
	"github.com/shopcore/ecommerce-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationCreatesEveryTable(t *testing.T) {
	db := testutil.NewDB(t)
	m := NewMigration(db, logger.Discard())

	require.NoError(t, m.RunAutoMigrations())
	require.NoError(t, m.CreateIndexes())

	for _, table := range []string{
		"users", "addresses", "admin_applications", "admin_application_archive",
		"categories", "sub_categories", "brands", "products", "product_images",
		"coupons", "coupon_usages", "carts", "cart_items",
		"orders", "order_items", "order_receipts", "reviews", "wishlist_items",
	} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}

func TestSeedInitialDataIsIdempotent(t *testing.T) {
	db := testutil.NewDB(t)
	m := NewMigration(db, logger.Discard())
	require.NoError(t, m.RunAutoMigrations())

	passwords := auth.NewPasswordManager(4)
	require.NoError(t, m.SeedInitialData(passwords))
	require.NoError(t, m.SeedInitialData(passwords))

	var admins []user.User
	require.NoError(t, db.Where("email = ?", SeedAdminEmail).Find(&admins).Error)
	require.Len(t, admins, 1)
	assert.Equal(t, user.RoleSuperAdmin, admins[0].Role)
	assert.True(t, admins[0].EmailVerified)
	assert.NoError(t, passwords.VerifyPassword(SeedAdminPassword, admins[0].Password))

	var categories int64
	require.NoError(t, db.Model(&product.Category{}).Count(&categories).Error)
	assert.Equal(t, int64(4), categories)

	m.GetTableInfo()
}
