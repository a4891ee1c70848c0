// internal/domain/checkout/service.go
package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/shopcore/ecommerce-backend/internal/config"
	"github.com/shopcore/ecommerce-backend/internal/domain/cart"
	"github.com/shopcore/ecommerce-backend/internal/domain/order"
	"github.com/shopcore/ecommerce-backend/internal/domain/product"
	"github.com/shopcore/ecommerce-backend/internal/pkg/apperror"
	"github.com/shopcore/ecommerce-backend/internal/pkg/email"
	"github.com/shopcore/ecommerce-backend/internal/pkg/metrics"
	"github.com/shopcore/ecommerce-backend/internal/pkg/payment"
	"github.com/shopcore/ecommerce-backend/internal/pkg/pdf"
	"github.com/shopcore/ecommerce-backend/internal/pkg/storage"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Metadata keys attached to payment sessions
const (
	metaUserID  = "user_id"
	metaAddress = "address"
)

// Customer is the buyer as checkout needs them
type Customer struct {
	ID        uint
	Name      string
	Email     string
	Addresses []order.Address
}

// CustomerDirectory resolves buyers
type CustomerDirectory interface {
	Customer(ctx context.Context, userID uint) (*Customer, error)
}

// InvoiceRenderer turns invoice data into a PDF
type InvoiceRenderer interface {
	RenderInvoice(inv pdf.Invoice) ([]byte, error)
}

// Dependencies are the collaborators checkout calls out to
type Dependencies struct {
	Gateway   payment.Gateway
	Customers CustomerDirectory
	Events    EventStore
	Invoices  InvoiceRenderer
	Storage   storage.Storage
	Mailer    email.Sender
	Metrics   *metrics.Metrics
	Logger    *logrus.Logger
}

// Service turns carts into orders
type Service struct {
	db     *gorm.DB
	config *config.Config
	deps   Dependencies
	now    func() time.Time
}

// NewService creates a new checkout service
func NewService(db *gorm.DB, cfg *config.Config, deps Dependencies) *Service {
	return &Service{
		db:     db,
		config: cfg,
		deps:   deps,
		now:    time.Now,
	}
}

// PlaceOrderRequest carries an optional address; the customer's first saved
// address is used when it is omitted
type PlaceOrderRequest struct {
	Address *order.Address `json:"address"`
}

// Result is a committed order plus any post-commit steps that failed
type Result struct {
	Order      *order.Order `json:"order"`
	ReceiptURL string       `json:"receipt_url,omitempty"`
	Warnings   []string     `json:"warnings,omitempty"`
}

// placement describes one cart-to-order transition
type placement struct {
	userID     uint
	cartID     uint
	address    order.Address
	method     order.PaymentMethod
	sessionID  string
	// amountPaid is what the gateway charged; card orders are paid only when it matches
	amountPaid int64
}

// PlaceCashOrder checks out the user's cart for cash on delivery
func (s *Service) PlaceCashOrder(ctx context.Context, userID uint, req *PlaceOrderRequest) (*Result, error) {
	customer, err := s.deps.Customers.Customer(ctx, userID)
	if err != nil {
		return nil, err
	}
	address, err := resolveAddress(req, customer)
	if err != nil {
		return nil, err
	}

	o, err := s.place(ctx, placement{userID: userID, address: address, method: order.PaymentMethodCash})
	if err != nil {
		return nil, err
	}
	return s.afterCommit(ctx, o, customer), nil
}

// CreatePaymentSession opens a hosted card checkout for the amount due
func (s *Service) CreatePaymentSession(ctx context.Context, userID uint, req *PlaceOrderRequest) (*payment.Session, error) {
	customer, err := s.deps.Customers.Customer(ctx, userID)
	if err != nil {
		return nil, err
	}
	address, err := resolveAddress(req, customer)
	if err != nil {
		return nil, err
	}

	dbCtx, cancel := context.WithTimeout(ctx, s.config.Timeouts.Database)
	c, err := cart.Load(s.db.WithContext(dbCtx), userID)
	cancel()
	if err != nil {
		if apperror.Is(err, apperror.KindNotFound) {
			return nil, apperror.Validation("cart is empty")
		}
		return nil, err
	}
	if len(c.Items) == 0 {
		return nil, apperror.Validation("cart is empty")
	}

	addressJSON, err := json.Marshal(address)
	if err != nil {
		return nil, fmt.Errorf("failed to encode address: %w", err)
	}

	payCtx, cancel := context.WithTimeout(ctx, s.config.Timeouts.Payment)
	defer cancel()

	session, err := s.deps.Gateway.CreateCheckoutSession(payCtx, payment.SessionRequest{
		AmountMinor:     c.AmountDue(),
		Currency:        s.config.External.Stripe.Currency,
		ProductName:     customer.Name,
		CustomerEmail:   customer.Email,
		ClientReference: strconv.FormatUint(uint64(c.ID), 10),
		Metadata: map[string]string{
			metaUserID:  strconv.FormatUint(uint64(userID), 10),
			metaAddress: string(addressJSON),
		},
	})
	if err != nil {
		return nil, apperror.Upstream("payment", err)
	}
	return session, nil
}

// HandleWebhook verifies a gateway notification and, for a completed
// checkout, places the paid card order. Replays of the same event or the
// same session are acknowledged without a second order.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) (*Result, error) {
	event, err := s.deps.Gateway.ParseEvent(payload, signature)
	if err != nil {
		if errors.Is(err, payment.ErrInvalidSignature) {
			return nil, apperror.Wrap(apperror.KindValidation, "invalid webhook signature", err)
		}
		return nil, apperror.Wrap(apperror.KindValidation, "invalid webhook payload", err)
	}

	log := s.deps.Logger.WithFields(logrus.Fields{"event_id": event.ID, "event_type": event.Type})
	if event.Type != payment.EventCheckoutCompleted || event.Session == nil {
		log.Debug("Ignoring payment event")
		return nil, nil
	}

	first, err := s.deps.Events.MarkProcessed(ctx, event.ID)
	if err != nil {
		return nil, apperror.Upstream("event store", err)
	}
	if !first {
		log.Info("Duplicate payment event")
		return nil, nil
	}

	result, err := s.completeSession(ctx, event.Session)
	if err != nil {
		if ferr := s.deps.Events.Forget(context.WithoutCancel(ctx), event.ID); ferr != nil {
			log.WithError(ferr).Warn("Failed to release payment event")
		}
		return nil, err
	}
	return result, nil
}

func (s *Service) completeSession(ctx context.Context, session *payment.CompletedSession) (*Result, error) {
	userID, err := strconv.ParseUint(session.Metadata[metaUserID], 10, 64)
	if err != nil {
		return nil, apperror.Validation("payment session has no user")
	}
	cartID, err := strconv.ParseUint(session.ClientReference, 10, 64)
	if err != nil {
		return nil, apperror.Validation("payment session has no cart")
	}
	var address order.Address
	if err := json.Unmarshal([]byte(session.Metadata[metaAddress]), &address); err != nil {
		return nil, apperror.Validation("payment session has no address")
	}

	var existing int64
	if err := s.db.WithContext(ctx).Model(&order.Order{}).
		Where("payment_session_id = ?", session.ID).Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("failed to check payment session: %w", err)
	}
	if existing > 0 {
		return nil, nil
	}

	customer, err := s.deps.Customers.Customer(ctx, uint(userID))
	if err != nil {
		return nil, err
	}

	o, err := s.place(ctx, placement{
		userID:     uint(userID),
		cartID:     uint(cartID),
		address:    address,
		method:     order.PaymentMethodCard,
		sessionID:  session.ID,
		amountPaid: session.AmountTotal,
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	result := s.afterCommit(ctx, o, customer)
	if !o.IsPaid {
		s.deps.Logger.WithFields(logrus.Fields{
			"order_id":    o.ID,
			"session_id":  session.ID,
			"amount_paid": session.AmountTotal,
			"amount_due":  o.TotalPriceAfterDiscount,
		}).Warn("Payment amount does not match order total, order left unpaid")
		result.Warnings = append(result.Warnings, "payment amount does not match order total")
	}
	return result, nil
}

// place runs the checkout transition in one transaction: snapshot the cart
// into an order, take stock for every line and delete the cart. Any short
// line rolls the whole order back.
func (s *Service) place(ctx context.Context, p placement) (*order.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeouts.Database)
	defer cancel()

	var placed *order.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := cart.Load(tx, p.userID)
		if err != nil {
			if apperror.Is(err, apperror.KindNotFound) {
				return apperror.Validation("cart is empty")
			}
			return err
		}
		if p.cartID != 0 && c.ID != p.cartID {
			return apperror.NotFound("cart not found")
		}
		if len(c.Items) == 0 {
			return apperror.Validation("cart is empty")
		}

		now := s.now().UTC()
		o := order.FromCart(c, p.address, p.method, now)
		if p.sessionID != "" {
			sessionID := p.sessionID
			o.PaymentSessionID = &sessionID
			if p.amountPaid == o.TotalPriceAfterDiscount {
				o.IsPaid = true
				o.PaidAt = &now
			}
		}
		if err := tx.Create(o).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return err
			}
			return fmt.Errorf("failed to create order: %w", err)
		}

		for _, item := range o.Items {
			if err := product.DecrementStock(tx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		if err := cart.Delete(tx, c); err != nil {
			return err
		}
		placed = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.deps.Metrics.OrderPlaced(string(placed.PaymentMethod))
	s.deps.Logger.WithFields(logrus.Fields{
		"order_id":       placed.ID,
		"order_number":   placed.OrderNumber,
		"user_id":        placed.UserID,
		"payment_method": placed.PaymentMethod,
	}).Info("Order placed")
	return placed, nil
}

func resolveAddress(req *PlaceOrderRequest, customer *Customer) (order.Address, error) {
	if req != nil && req.Address != nil && !req.Address.IsZero() {
		return *req.Address, nil
	}
	if len(customer.Addresses) > 0 {
		return customer.Addresses[0], nil
	}
	return order.Address{}, apperror.Validation("shipping address is required")
}
