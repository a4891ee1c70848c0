// internal/domain/review/entity.go
package review

import (
	"time"

	"github.com/shopcore/ecommerce-backend/internal/pkg/query"
)

// Review is a user's rating of a product they received. A user reviews a
// product at most once.
type Review struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_reviews_user_product" json:"user_id"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_reviews_user_product;index" json:"product_id"`
	Comment   string    `gorm:"type:text;not null" json:"comment"`
	Rate      int       `gorm:"not null" json:"rate"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Review) TableName() string { return "reviews" }

var Schema = query.Schema{
	Fields: map[string]query.FieldKind{
		"user_id": query.Number, "product_id": query.Number, "comment": query.String,
		"rate": query.Number, "created_at": query.Time, "updated_at": query.Time,
	},
	Searchable: []string{"comment"},
}
