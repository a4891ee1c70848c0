package wishlist

import "time"

// WishlistItem is one product saved by a user. The unique pair keeps the
// wishlist a set.
type WishlistItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_wishlist_items_user_product" json:"user_id"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_wishlist_items_user_product;index" json:"product_id"`
	CreatedAt time.Time `json:"added_at"`
}

// TableName overrides the table name
func (WishlistItem) TableName() string {
	return "wishlist_items"
}
