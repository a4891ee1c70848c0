// internal/domain/product/stock.go
package product

import (
	"fmt"

	"github.com/shopcore/ecommerce-backend/internal/pkg/apperror"
	"gorm.io/gorm"
)

// DecrementStock takes qty units from a product only if enough remain.
// Callers run it inside the order transaction so a shortfall rolls back
// every line.
func DecrementStock(tx *gorm.DB, productID uint, qty int) error {
	result := tx.Model(&Product{}).
		Where("id = ? AND stock >= ?", productID, qty).
		Update("stock", gorm.Expr("stock - ?", qty))
	if result.Error != nil {
		return fmt.Errorf("failed to decrement stock: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		var product Product
		if err := tx.Select("id", "title").First(&product, productID).Error; err != nil {
			return notFound(err, "product not found", "get product")
		}
		return apperror.Validationf("insufficient stock for %s", product.Title)
	}
	return nil
}

// RestoreStock returns qty units to a product. Deleted products are skipped.
func RestoreStock(tx *gorm.DB, productID uint, qty int) error {
	err := tx.Model(&Product{}).
		Where("id = ?", productID).
		Update("stock", gorm.Expr("stock + ?", qty)).Error
	if err != nil {
		return fmt.Errorf("failed to restore stock: %w", err)
	}
	return nil
}

// Lookup loads a product for pricing decisions
func Lookup(tx *gorm.DB, productID uint) (*Product, error) {
	var product Product
	if err := tx.First(&product, productID).Error; err != nil {
		return nil, notFound(err, "product not found", "get product")
	}
	return &product, nil
}
