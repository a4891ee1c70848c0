// internal/domain/order/entity.go
package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopcore/ecommerce-backend/internal/domain/cart"
	"github.com/shopcore/ecommerce-backend/internal/pkg/query"
)

// PaymentMethod is how an order is settled
type PaymentMethod string

const (
	PaymentMethodCash PaymentMethod = "cash"
	PaymentMethodCard PaymentMethod = "card"
)

// Order is an immutable snapshot of a cart plus lifecycle flags.
// Amounts are minor units.
type Order struct {
	ID                      uint          `gorm:"primaryKey" json:"id"`
	OrderNumber             string        `gorm:"uniqueIndex;not null;size:50" json:"order_number"`
	UserID                  uint          `gorm:"not null;index" json:"user_id"`
	TotalPrice              int64         `gorm:"not null" json:"total_price"`
	Discount                int           `gorm:"not null;default:0" json:"discount"`
	TotalPriceAfterDiscount int64         `gorm:"not null" json:"total_price_after_discount"`
	CouponCode              string        `gorm:"size:20" json:"coupon_code,omitempty"`
	Address                 Address       `gorm:"embedded;embeddedPrefix:address_" json:"address"`
	PaymentMethod           PaymentMethod `gorm:"not null;size:10;default:'cash'" json:"payment_method"`

	IsPlaced    bool  `gorm:"not null;default:false" json:"is_placed"`
	IsShipped   bool  `gorm:"not null;default:false" json:"is_shipped"`
	IsPaid      bool  `gorm:"not null;default:false" json:"is_paid"`
	IsDelivered bool  `gorm:"not null;default:false" json:"is_delivered"`
	IsCanceled  bool  `gorm:"not null;default:false;index" json:"is_canceled"`
	CanceledBy  *uint `json:"canceled_by,omitempty"`

	// PaymentSessionID is set for card orders; the unique index makes a
	// replayed gateway confirmation unable to create a second order.
	PaymentSessionID *string `gorm:"uniqueIndex;size:255" json:"payment_session_id,omitempty"`

	PaidAt      *time.Time `json:"paid_at,omitempty"`
	ShippedAt   *time.Time `json:"shipped_at,omitempty"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items"`
}

// OrderItem is a copied cart line
type OrderItem struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	OrderID    uint   `gorm:"not null;index" json:"order_id"`
	ProductID  uint   `gorm:"not null;index" json:"product_id"`
	Title      string `gorm:"not null;size:60" json:"title"`
	Quantity   int    `gorm:"not null" json:"quantity"`
	Price      int64  `gorm:"not null" json:"price"`       // Price per unit
	TotalPrice int64  `gorm:"not null" json:"total_price"` // Quantity * Price
}

// Address represents a shipping address (embedded in Order)
type Address struct {
	City           string `gorm:"size:100" json:"city" binding:"required"`
	State          string `gorm:"size:100" json:"state" binding:"required"`
	Street         string `gorm:"size:255" json:"street" binding:"required"`
	BuildingNumber string `gorm:"size:20" json:"building_number" binding:"required"`
	FlatNumber     string `gorm:"size:20" json:"flat_number" binding:"required"`
	ZipCode        string `gorm:"size:20" json:"zip_code" binding:"required"`
}

// Receipt points at the invoice PDF generated after checkout
type Receipt struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	OrderID       uint          `gorm:"uniqueIndex;not null" json:"order_id"`
	ReceiptURL    string        `gorm:"not null;size:500" json:"receipt_url"`
	StorageKey    string        `gorm:"not null;size:500" json:"-"`
	IsPaid        bool          `gorm:"not null;default:false" json:"is_paid"`
	IsDelivered   bool          `gorm:"not null;default:false" json:"is_delivered"`
	PaymentMethod PaymentMethod `gorm:"not null;size:10" json:"payment_method"`
	GeneratedAt   time.Time     `gorm:"not null" json:"generated_at"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// TableName overrides
func (Order) TableName() string     { return "orders" }
func (OrderItem) TableName() string { return "order_items" }
func (Receipt) TableName() string   { return "order_receipts" }

// Lines formats the address for invoices
func (a Address) Lines() []string {
	return []string{
		strings.TrimSpace(fmt.Sprintf("%s %s, flat %s", a.BuildingNumber, a.Street, a.FlatNumber)),
		strings.TrimSpace(fmt.Sprintf("%s, %s %s", a.City, a.State, a.ZipCode)),
	}
}

// IsZero reports whether no field was filled in
func (a Address) IsZero() bool {
	return a == Address{}
}

// FromCart copies a cart into a new placed order. Line items are duplicated
// so later product changes never touch historical orders.
func FromCart(c *cart.Cart, address Address, method PaymentMethod, now time.Time) *Order {
	o := &Order{
		OrderNumber:             NewOrderNumber(now),
		UserID:                  c.UserID,
		TotalPrice:              c.TotalPrice,
		Discount:                c.Discount,
		TotalPriceAfterDiscount: c.AmountDue(),
		CouponCode:              c.CouponCode,
		Address:                 address,
		PaymentMethod:           method,
		IsPlaced:                true,
		Items:                   make([]OrderItem, 0, len(c.Items)),
	}
	for _, item := range c.Items {
		o.Items = append(o.Items, OrderItem{
			ProductID:  item.ProductID,
			Title:      item.Title,
			Quantity:   item.Quantity,
			Price:      item.Price,
			TotalPrice: int64(item.Quantity) * item.Price,
		})
	}
	return o
}

// NewOrderNumber generates a unique order number
func NewOrderNumber(now time.Time) string {
	// Format: ORD-YYYYMMDD-XXXXXXXX
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("ORD-%s-%s", now.UTC().Format("20060102"), suffix)
}

// CanBeCancelled checks if order can be cancelled
func (o *Order) CanBeCancelled() bool {
	return !o.IsCanceled && !o.IsShipped
}

var Schema = query.Schema{
	Fields: map[string]query.FieldKind{
		"order_number": query.String, "user_id": query.Number, "total_price": query.Number,
		"discount": query.Number, "total_price_after_discount": query.Number,
		"coupon_code": query.String, "payment_method": query.String,
		"is_placed": query.Bool, "is_shipped": query.Bool, "is_paid": query.Bool,
		"is_delivered": query.Bool, "is_canceled": query.Bool, "address_city": query.String,
		"paid_at": query.Time, "created_at": query.Time, "updated_at": query.Time,
	},
	Searchable: []string{"order_number", "address_city"},
}
