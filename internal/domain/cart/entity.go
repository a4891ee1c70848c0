// internal/domain/cart/entity.go
package cart

import (
	"time"
)

// Cart is the single shopping cart a user owns. Amounts are minor units.
type Cart struct {
	ID                      uint      `gorm:"primaryKey" json:"id"`
	UserID                  uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	Items                   []Item    `gorm:"foreignKey:CartID" json:"items"`
	TotalPrice              int64     `gorm:"not null;default:0" json:"total_price"`
	Discount                int       `gorm:"not null;default:0" json:"discount"`
	TotalPriceAfterDiscount *int64    `json:"total_price_after_discount,omitempty"`
	CouponCode              string    `gorm:"size:20" json:"coupon_code,omitempty"`
	Version                 int       `gorm:"not null;default:1" json:"version"`
	CreatedAt               time.Time `json:"created_at"`
	UpdatedAt               time.Time `json:"updated_at"`
}

// Item is one line of a cart. Price is the product's discounted price when
// the line was first added.
type Item struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	CartID    uint   `gorm:"not null;index" json:"-"`
	ProductID uint   `gorm:"not null;index" json:"product_id"`
	Title     string `gorm:"not null;size:60" json:"title"`
	Quantity  int    `gorm:"not null" json:"quantity"`
	Price     int64  `gorm:"not null" json:"price"`
}

// TableName overrides the table name
func (Cart) TableName() string { return "carts" }
func (Item) TableName() string { return "cart_items" }
