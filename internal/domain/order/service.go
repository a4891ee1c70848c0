// internal/domain/order/service.go
package order

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/shopcore/ecommerce-backend/internal/config"
	"github.com/shopcore/ecommerce-backend/internal/domain/coupon"
	"github.com/shopcore/ecommerce-backend/internal/domain/product"
	"github.com/shopcore/ecommerce-backend/internal/pkg/apperror"
	"github.com/shopcore/ecommerce-backend/internal/pkg/query"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Lifecycle transitions an admin may apply
const (
	StatusShipped   = "shipped"
	StatusDelivered = "delivered"
	StatusPaid      = "paid"
)

// Service handles order business logic
type Service struct {
	db     *gorm.DB
	config *config.Config
	parser query.Parser
	now    func() time.Time
}

// NewService creates a new order service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
		parser: query.NewParser(cfg.Query),
		now:    time.Now,
	}
}

// UpdateStatusRequest represents an admin lifecycle change
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=shipped delivered paid"`
}

// OrderResponse represents order response with pagination
type OrderResponse struct {
	Orders     []Order          `json:"orders"`
	Pagination query.Pagination `json:"pagination"`
}

// GetUserOrders lists one user's orders
func (s *Service) GetUserOrders(ctx context.Context, userID uint, values url.Values) (*OrderResponse, error) {
	return s.list(ctx, values, func(db *gorm.DB) *gorm.DB {
		return db.Where("user_id = ?", userID)
	})
}

// GetOrders lists every order
func (s *Service) GetOrders(ctx context.Context, values url.Values) (*OrderResponse, error) {
	return s.list(ctx, values, func(db *gorm.DB) *gorm.DB { return db })
}

func (s *Service) list(ctx context.Context, values url.Values, scope func(*gorm.DB) *gorm.DB) (*OrderResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeouts.Database)
	defer cancel()

	db := s.db.WithContext(ctx)
	orders := []Order{}
	pagination, err := query.Find(scope(db.Model(&Order{})), s.parser.Parse(values, Schema), &orders)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	if err := attachItems(db, orders); err != nil {
		return nil, err
	}
	return &OrderResponse{Orders: orders, Pagination: pagination}, nil
}

// GetOrder retrieves an order by ID
func (s *Service) GetOrder(ctx context.Context, id uint) (*Order, error) {
	return s.get(ctx, "id = ?", id)
}

// GetUserOrder retrieves an order only if it belongs to userID
func (s *Service) GetUserOrder(ctx context.Context, userID, id uint) (*Order, error) {
	return s.get(ctx, "id = ? AND user_id = ?", id, userID)
}

func (s *Service) get(ctx context.Context, cond string, args ...interface{}) (*Order, error) {
	var order Order
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where(cond, args...).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("order not found")
		}
		return nil, fmt.Errorf("failed to retrieve order: %w", err)
	}
	return &order, nil
}

// CancelOrder cancels the user's order before it ships. The stock taken at
// checkout goes back and the coupon becomes usable again, all in one
// transaction.
func (s *Service) CancelOrder(ctx context.Context, userID, orderID uint) (*Order, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeouts.Database)
	defer cancel()

	var order Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND user_id = ? AND is_canceled = ?", orderID, userID, false).
			First(&order).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("order not found")
			}
			return fmt.Errorf("failed to retrieve order: %w", err)
		}
		if !order.CanBeCancelled() {
			return apperror.InvalidState("order cannot be cancelled")
		}

		result := tx.Model(&Order{}).
			Where("id = ? AND is_canceled = ?", order.ID, false).
			Updates(map[string]interface{}{"is_canceled": true, "canceled_by": userID})
		if result.Error != nil {
			return fmt.Errorf("failed to cancel order: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return apperror.NotFound("order not found")
		}

		if err := tx.Where("order_id = ?", order.ID).Order("id ASC").Find(&order.Items).Error; err != nil {
			return fmt.Errorf("failed to load order items: %w", err)
		}
		for _, item := range order.Items {
			if err := product.RestoreStock(tx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		return coupon.ReleaseCode(tx, order.CouponCode, order.UserID)
	})
	if err != nil {
		return nil, err
	}

	order.IsCanceled = true
	order.CanceledBy = &userID
	return &order, nil
}

// UpdateStatus applies an admin lifecycle transition.
// shipped needs a placed, live order; delivered needs a shipped one.
func (s *Service) UpdateStatus(ctx context.Context, orderID uint, status string) (*Order, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeouts.Database)
	defer cancel()

	var order Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, orderID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("order not found")
			}
			return fmt.Errorf("failed to retrieve order: %w", err)
		}
		if order.IsCanceled {
			return apperror.InvalidState("order is canceled")
		}

		now := s.now().UTC()
		updates := map[string]interface{}{}
		receipt := map[string]interface{}{}
		switch status {
		case StatusShipped:
			if !order.IsPlaced || order.IsShipped {
				return apperror.InvalidState("order cannot be shipped")
			}
			updates["is_shipped"], updates["shipped_at"] = true, now
			order.IsShipped, order.ShippedAt = true, &now
		case StatusDelivered:
			if !order.IsShipped || order.IsDelivered {
				return apperror.InvalidState("order cannot be delivered")
			}
			updates["is_delivered"], updates["delivered_at"] = true, now
			receipt["is_delivered"] = true
			order.IsDelivered, order.DeliveredAt = true, &now
		case StatusPaid:
			if order.IsPaid {
				return apperror.InvalidState("order is already paid")
			}
			updates["is_paid"], updates["paid_at"] = true, now
			receipt["is_paid"] = true
			order.IsPaid, order.PaidAt = true, &now
		default:
			return apperror.Validationf("unknown order status %q", status)
		}

		if err := tx.Model(&Order{}).Where("id = ?", order.ID).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}
		if len(receipt) > 0 {
			if err := tx.Model(&Receipt{}).Where("order_id = ?", order.ID).Updates(receipt).Error; err != nil {
				return fmt.Errorf("failed to update receipt: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetReceipt returns the receipt of an order. userID of zero skips the
// ownership check for admins.
func (s *Service) GetReceipt(ctx context.Context, userID, orderID uint) (*Receipt, error) {
	if userID != 0 {
		if _, err := s.GetUserOrder(ctx, userID, orderID); err != nil {
			return nil, err
		}
	}

	var receipt Receipt
	if err := s.db.WithContext(ctx).Where("order_id = ?", orderID).First(&receipt).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("receipt not found")
		}
		return nil, fmt.Errorf("failed to retrieve receipt: %w", err)
	}
	return &receipt, nil
}

// attachItems loads the lines of a page of orders in one query
func attachItems(db *gorm.DB, orders []Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]uint, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}

	var items []OrderItem
	if err := db.Where("order_id IN ?", ids).Order("id ASC").Find(&items).Error; err != nil {
		return fmt.Errorf("failed to load order items: %w", err)
	}

	byOrder := make(map[uint][]OrderItem, len(orders))
	for _, item := range items {
		byOrder[item.OrderID] = append(byOrder[item.OrderID], item)
	}
	for i := range orders {
		orders[i].Items = byOrder[orders[i].ID]
		if orders[i].Items == nil {
			orders[i].Items = []OrderItem{}
		}
	}
	return nil
}
