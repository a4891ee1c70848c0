// internal/domain/coupon/entity.go
package coupon

import (
	"strings"
	"time"

	"github.com/shopcore/ecommerce-backend/internal/pkg/apperror"
	"github.com/shopcore/ecommerce-backend/internal/pkg/query"
)

// Coupon is a percentage discount valid inside [StartDate, EndDate]
type Coupon struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Code      string    `gorm:"uniqueIndex;not null;size:20" json:"code"`
	Amount    int       `gorm:"not null" json:"amount"`
	StartDate time.Time `gorm:"not null" json:"start_date"`
	EndDate   time.Time `gorm:"not null" json:"end_date"`
	AddedBy   uint      `gorm:"not null" json:"added_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Usage records that a user redeemed a coupon. The unique pair is what makes
// a coupon single-use per user.
type Usage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CouponID  uint      `gorm:"not null;uniqueIndex:idx_coupon_usages_coupon_user" json:"coupon_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_coupon_usages_coupon_user;index" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (Coupon) TableName() string { return "coupons" }
func (Usage) TableName() string  { return "coupon_usages" }

// NormalizeCode is the form codes are stored and looked up in
func NormalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// CheckWindow rejects a coupon outside its validity window
func (c *Coupon) CheckWindow(now time.Time) error {
	if now.Before(c.StartDate) {
		return apperror.Validation("coupon is not active yet")
	}
	if now.After(c.EndDate) {
		return apperror.Validation("coupon has expired")
	}
	return nil
}

var Schema = query.Schema{
	Fields: map[string]query.FieldKind{
		"code": query.String, "amount": query.Number, "start_date": query.Time,
		"end_date": query.Time, "added_by": query.Number, "created_at": query.Time,
	},
	Searchable: []string{"code"},
}
