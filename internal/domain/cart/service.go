// internal/domain/cart/service.go
package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopcore/ecommerce-backend/internal/config"
	"github.com/shopcore/ecommerce-backend/internal/domain/coupon"
	"github.com/shopcore/ecommerce-backend/internal/domain/product"
	"github.com/shopcore/ecommerce-backend/internal/pkg/apperror"
	"github.com/shopcore/ecommerce-backend/internal/pkg/metrics"
	"gorm.io/gorm"
)

// ErrStaleCart is returned when another request changed the cart first
var ErrStaleCart = apperror.Conflict("cart was modified concurrently")

// Service handles cart business logic
type Service struct {
	db      *gorm.DB
	config  *config.Config
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewService creates a new cart service
func NewService(db *gorm.DB, cfg *config.Config, m *metrics.Metrics) *Service {
	return &Service{
		db:      db,
		config:  cfg,
		metrics: m,
		now:     time.Now,
	}
}

// AddItemRequest represents add to cart request
type AddItemRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,min=1"`
}

// UpdateQuantityRequest represents update cart item request
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

// ApplyCouponRequest represents apply coupon request
type ApplyCouponRequest struct {
	Code string `json:"coupon" binding:"required,coupon_code"`
}

// GetCart retrieves the user's cart
func (s *Service) GetCart(ctx context.Context, userID uint) (*Cart, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeouts.Database)
	defer cancel()
	return Load(s.db.WithContext(ctx), userID)
}

// AddItem merges qty of a product into the cart, creating the cart on the
// first add. The merged quantity is checked against stock before anything
// changes.
func (s *Service) AddItem(ctx context.Context, userID uint, req *AddItemRequest) (*Cart, error) {
	if req.Quantity <= 0 {
		return nil, apperror.Validation("quantity must be greater than zero")
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.Timeouts.Database)
	defer cancel()

	var cart *Cart
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := product.Lookup(tx, req.ProductID)
		if err != nil {
			return err
		}
		if !p.IsInStock() {
			return apperror.Validation("product is out of stock")
		}

		existing, err := Load(tx, userID)
		if err != nil && !apperror.Is(err, apperror.KindNotFound) {
			return err
		}

		if existing == nil {
			if req.Quantity > p.Stock {
				return apperror.Validation("quantity exceeds stock")
			}
			cart = &Cart{
				UserID:  userID,
				Version: 1,
				Items:   []Item{{ProductID: p.ID, Title: p.Title, Quantity: req.Quantity, Price: p.SubPrice}},
			}
			cart.Recalculate()
			if err := tx.Create(cart).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return ErrStaleCart
				}
				return fmt.Errorf("failed to create cart: %w", err)
			}
			return nil
		}

		cart = existing
		if line, ok := cart.Line(p.ID); ok {
			merged := line.Quantity + req.Quantity
			if merged > p.Stock {
				return apperror.Validation("quantity exceeds stock")
			}
			line.Quantity = merged
		} else {
			if req.Quantity > p.Stock {
				return apperror.Validation("quantity exceeds stock")
			}
			cart.Items = append(cart.Items, Item{ProductID: p.ID, Title: p.Title, Quantity: req.Quantity, Price: p.SubPrice})
		}
		return save(tx, cart)
	})
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// UpdateQuantity replaces the quantity of a product already in the cart
func (s *Service) UpdateQuantity(ctx context.Context, userID, productID uint, qty int) (*Cart, error) {
	if qty <= 0 {
		return nil, apperror.Validation("quantity must be greater than zero")
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.Timeouts.Database)
	defer cancel()

	var cart *Cart
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := product.Lookup(tx, productID)
		if err != nil {
			return err
		}
		if cart, err = Load(tx, userID); err != nil {
			return err
		}
		line, ok := cart.Line(productID)
		if !ok {
			return apperror.NotFound("product not found in the cart")
		}
		if qty > p.Stock {
			return apperror.Validation("quantity exceeds stock")
		}
		line.Quantity = qty
		return save(tx, cart)
	})
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// RemoveItem pulls a product from the cart. Removing an absent product still
// succeeds.
func (s *Service) RemoveItem(ctx context.Context, userID, productID uint) (*Cart, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeouts.Database)
	defer cancel()

	var cart *Cart
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if cart, err = Load(tx, userID); err != nil {
			return err
		}
		cart.Remove(productID)
		return save(tx, cart)
	})
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// ClearCart deletes the cart without checking out
func (s *Service) ClearCart(ctx context.Context, userID uint) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeouts.Database)
	defer cancel()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, err := Load(tx, userID)
		if err != nil {
			return err
		}
		return Delete(tx, cart)
	})
}

// ApplyCoupon discounts the cart by a coupon's amount. Recording the usage
// and repricing the cart happen in one transaction, so a failed cart write
// leaves the coupon unused. A different coupon already on the cart is
// released in the same transaction.
func (s *Service) ApplyCoupon(ctx context.Context, userID uint, code string) (*Cart, error) {
	cart, err := s.applyCoupon(ctx, userID, code)
	if err != nil {
		s.metrics.CouponApplied(apperror.KindOf(err).String())
		return nil, err
	}
	s.metrics.CouponApplied("applied")
	return cart, nil
}

func (s *Service) applyCoupon(ctx context.Context, userID uint, code string) (*Cart, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeouts.Database)
	defer cancel()

	c, err := coupon.FindByCode(s.db.WithContext(ctx), code)
	if err != nil {
		return nil, err
	}
	if err := c.CheckWindow(s.now()); err != nil {
		return nil, err
	}

	var cart *Cart
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if cart, err = Load(tx, userID); err != nil {
			return err
		}
		if cart.CouponCode != "" && cart.CouponCode != c.Code {
			if err := coupon.ReleaseCode(tx, cart.CouponCode, userID); err != nil {
				return err
			}
		}
		if err := coupon.Redeem(tx, c.ID, userID); err != nil {
			return err
		}
		cart.ApplyDiscount(c.Code, c.Amount)
		return save(tx, cart)
	})
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// Load reads the user's cart with its lines
func Load(tx *gorm.DB, userID uint) (*Cart, error) {
	var cart Cart
	err := tx.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("user_id = ?", userID).
		First(&cart).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("cart not found")
		}
		return nil, fmt.Errorf("failed to retrieve cart: %w", err)
	}
	return &cart, nil
}

// Delete removes a cart and its lines if its version is still current.
// Run it inside a transaction so a stale version keeps the lines.
func Delete(tx *gorm.DB, cart *Cart) error {
	if err := tx.Where("cart_id = ?", cart.ID).Delete(&Item{}).Error; err != nil {
		return fmt.Errorf("failed to delete cart items: %w", err)
	}
	result := tx.Where("id = ? AND version = ?", cart.ID, cart.Version).Delete(&Cart{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete cart: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrStaleCart
	}
	return nil
}

// save reprices the cart and writes it only if nobody else wrote since it
// was loaded
func save(tx *gorm.DB, cart *Cart) error {
	cart.Recalculate()

	result := tx.Model(&Cart{}).
		Where("id = ? AND version = ?", cart.ID, cart.Version).
		Updates(map[string]interface{}{
			"total_price":                cart.TotalPrice,
			"discount":                   cart.Discount,
			"total_price_after_discount": cart.TotalPriceAfterDiscount,
			"coupon_code":                cart.CouponCode,
			"version":                    cart.Version + 1,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update cart: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrStaleCart
	}
	cart.Version++

	if err := tx.Where("cart_id = ?", cart.ID).Delete(&Item{}).Error; err != nil {
		return fmt.Errorf("failed to replace cart items: %w", err)
	}
	if len(cart.Items) == 0 {
		return nil
	}
	for i := range cart.Items {
		cart.Items[i].ID = 0
		cart.Items[i].CartID = cart.ID
	}
	if err := tx.Create(&cart.Items).Error; err != nil {
		return fmt.Errorf("failed to save cart items: %w", err)
	}
	return nil
}
