package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/shopcore/ecommerce-backend/internal/domain/cart"
	"github.com/shopcore/ecommerce-backend/internal/domain/coupon"
	"github.com/shopcore/ecommerce-backend/internal/domain/order"
	"github.com/shopcore/ecommerce-backend/internal/domain/product"
	"github.com/shopcore/ecommerce-backend/internal/pkg/apperror"
	"github.com/shopcore/ecommerce-backend/internal/pkg/email"
	"github.com/shopcore/ecommerce-backend/internal/pkg/logger"
	"github.com/shopcore/ecommerce-backend/internal/pkg/payment"
	"github.com/shopcore/ecommerce-backend/internal/pkg/pdf"
	"github.com/shopcore/ecommerce-backend/internal/pkg/storage"
	"github.com/shopcore/ecommerce-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const buyerID = 7

var home = order.Address{City: "Cairo", State: "Giza", Street: "Nile St", BuildingNumber: "12", FlatNumber: "4", ZipCode: "12511"}

type fakeGateway struct {
	requests []payment.SessionRequest
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, req payment.SessionRequest) (*payment.Session, error) {
	g.requests = append(g.requests, req)
	return &payment.Session{ID: "cs_test_1", URL: "https://pay.example/cs_test_1"}, nil
}

func (g *fakeGateway) ParseEvent(payload []byte, signature string) (*payment.Event, error) {
	if signature != "valid" {
		return nil, payment.ErrInvalidSignature
	}
	var event payment.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

type fakeCustomers struct {
	addresses []order.Address
}

func (f *fakeCustomers) Customer(_ context.Context, userID uint) (*Customer, error) {
	return &Customer{ID: userID, Name: "Mona Adel", Email: "mona@example.com", Addresses: f.addresses}, nil
}

type memoryEvents struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (m *memoryEvents) MarkProcessed(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seen[id] {
		return false, nil
	}
	m.seen[id] = true
	return true, nil
}

func (m *memoryEvents) Forget(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.seen, id)
	return nil
}

type fakeInvoices struct {
	err error
}

func (f *fakeInvoices) RenderInvoice(inv pdf.Invoice) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-" + inv.Number), nil
}

type fakeMailer struct {
	err  error
	sent []*email.Email
}

func (f *fakeMailer) Send(_ context.Context, e *email.Email) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, e)
	return nil
}

type harness struct {
	db       *gorm.DB
	service  *Service
	carts    *cart.Service
	orders   *order.Service
	gateway  *fakeGateway
	invoices *fakeInvoices
	mailer   *fakeMailer
	store    *storage.Memory
	product  *product.Product
}

func newHarness(t *testing.T, stock int) *harness {
	t.Helper()
	db := testutil.NewDB(t,
		&product.Product{}, &cart.Cart{}, &cart.Item{}, &coupon.Coupon{}, &coupon.Usage{},
		&order.Order{}, &order.OrderItem{}, &order.Receipt{},
	)
	cfg := testutil.Config()

	h := &harness{
		db:       db,
		carts:    cart.NewService(db, cfg, nil),
		orders:   order.NewService(db, cfg),
		gateway:  &fakeGateway{},
		invoices: &fakeInvoices{},
		mailer:   &fakeMailer{},
		store:    storage.NewMemory("memory://"),
	}
	h.service = NewService(db, cfg, Dependencies{
		Gateway:   h.gateway,
		Customers: &fakeCustomers{addresses: []order.Address{home}},
		Events:    &memoryEvents{seen: map[string]bool{}},
		Invoices:  h.invoices,
		Storage:   h.store,
		Mailer:    h.mailer,
		Logger:    logger.Discard(),
	})

	h.product = &product.Product{Title: "product a", Slug: "product-a", Description: "test", Price: 100, Stock: stock}
	h.product.Reprice()
	require.NoError(t, db.Create(h.product).Error)
	return h
}

func (h *harness) addToCart(t *testing.T, qty int) {
	t.Helper()
	_, err := h.carts.AddItem(context.Background(), buyerID, &cart.AddItemRequest{ProductID: h.product.ID, Quantity: qty})
	require.NoError(t, err)
}

func (h *harness) stock(t *testing.T) int {
	t.Helper()
	p, err := product.Lookup(h.db, h.product.ID)
	require.NoError(t, err)
	return p.Stock
}

func (h *harness) count(t *testing.T, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, h.db.Model(model).Count(&n).Error)
	return n
}

func TestPlaceCashOrder(t *testing.T) {
	h := newHarness(t, 10)
	h.addToCart(t, 3)

	res, err := h.service.PlaceCashOrder(context.Background(), buyerID, &PlaceOrderRequest{})
	require.NoError(t, err)

	assert.Empty(t, res.Warnings)
	assert.Equal(t, int64(300), res.Order.TotalPriceAfterDiscount)
	assert.Equal(t, order.PaymentMethodCash, res.Order.PaymentMethod)
	assert.Equal(t, home, res.Order.Address)
	assert.False(t, res.Order.IsPaid)
	assert.NotEmpty(t, res.ReceiptURL)

	assert.Equal(t, 7, h.stock(t))
	_, err = h.carts.GetCart(context.Background(), buyerID)
	assert.True(t, apperror.Is(err, apperror.KindNotFound), "cart is deleted")

	assert.Equal(t, int64(1), h.count(t, &order.Receipt{}))
	require.Len(t, h.mailer.sent, 1)
	require.Len(t, h.mailer.sent[0].Attachments, 1)
	assert.Equal(t, "application/pdf", h.mailer.sent[0].Attachments[0].ContentType)
	assert.Equal(t, 1, h.store.Len())
}

func TestCheckoutThenCancelRestoresStock(t *testing.T) {
	h := newHarness(t, 10)
	h.addToCart(t, 4)

	res, err := h.service.PlaceCashOrder(context.Background(), buyerID, nil)
	require.NoError(t, err)
	assert.Equal(t, 6, h.stock(t))

	_, err = h.orders.CancelOrder(context.Background(), buyerID, res.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, h.stock(t))
}

func TestInsufficientStockRollsBack(t *testing.T) {
	h := newHarness(t, 10)
	h.addToCart(t, 5)
	require.NoError(t, h.db.Model(&product.Product{}).Where("id = ?", h.product.ID).Update("stock", 2).Error)

	_, err := h.service.PlaceCashOrder(context.Background(), buyerID, nil)
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	assert.Zero(t, h.count(t, &order.Order{}))
	assert.Zero(t, h.count(t, &order.OrderItem{}))
	assert.Equal(t, 2, h.stock(t))
	_, err = h.carts.GetCart(context.Background(), buyerID)
	assert.NoError(t, err, "cart survives a failed checkout")
}

func TestSideEffectFailuresKeepOrder(t *testing.T) {
	h := newHarness(t, 10)
	h.addToCart(t, 1)
	h.invoices.err = errors.New("wkhtmltopdf missing")
	h.mailer.err = errors.New("smtp down")

	res, err := h.service.PlaceCashOrder(context.Background(), buyerID, nil)
	require.NoError(t, err)

	require.Len(t, res.Warnings, 2)
	assert.Contains(t, res.Warnings[0], "invoice")
	assert.Contains(t, res.Warnings[1], "email")
	assert.Empty(t, res.ReceiptURL)

	assert.Equal(t, int64(1), h.count(t, &order.Order{}))
	assert.Equal(t, 9, h.stock(t))
}

func TestPlaceOrderNeedsCartAndAddress(t *testing.T) {
	h := newHarness(t, 10)

	_, err := h.service.PlaceCashOrder(context.Background(), buyerID, nil)
	assert.True(t, apperror.Is(err, apperror.KindValidation), "empty cart")

	h.service.deps.Customers = &fakeCustomers{}
	h.addToCart(t, 1)
	_, err = h.service.PlaceCashOrder(context.Background(), buyerID, nil)
	assert.True(t, apperror.Is(err, apperror.KindValidation), "no address")

	other := home
	other.City = "Alexandria"
	res, err := h.service.PlaceCashOrder(context.Background(), buyerID, &PlaceOrderRequest{Address: &other})
	require.NoError(t, err)
	assert.Equal(t, "Alexandria", res.Order.Address.City)
}

func TestCreatePaymentSessionChargesAmountDue(t *testing.T) {
	h := newHarness(t, 10)
	h.addToCart(t, 8)
	cp := &coupon.Coupon{Code: "save10", Amount: 10, StartDate: h.product.CreatedAt.AddDate(0, 0, -1), EndDate: h.product.CreatedAt.AddDate(0, 0, 1)}
	require.NoError(t, h.db.Create(cp).Error)
	_, err := h.carts.ApplyCoupon(context.Background(), buyerID, "SAVE10")
	require.NoError(t, err)

	session, err := h.service.CreatePaymentSession(context.Background(), buyerID, nil)
	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", session.ID)

	require.Len(t, h.gateway.requests, 1)
	req := h.gateway.requests[0]
	assert.Equal(t, int64(720), req.AmountMinor)
	assert.Equal(t, "egp", req.Currency)
	assert.Equal(t, "7", req.Metadata["user_id"])
	assert.Contains(t, req.Metadata["address"], "Nile St")
}

func webhookPayload(t *testing.T, h *harness, eventID, eventType string) []byte {
	t.Helper()
	require.Len(t, h.gateway.requests, 1)
	req := h.gateway.requests[0]
	payload, err := json.Marshal(payment.Event{
		ID:   eventID,
		Type: eventType,
		Session: &payment.CompletedSession{
			ID:              "cs_test_1",
			ClientReference: req.ClientReference,
			CustomerEmail:   req.CustomerEmail,
			AmountTotal:     req.AmountMinor,
			Metadata:        req.Metadata,
		},
	})
	require.NoError(t, err)
	return payload
}

func TestWebhookPlacesPaidOrderOnce(t *testing.T) {
	h := newHarness(t, 10)
	h.addToCart(t, 2)
	_, err := h.service.CreatePaymentSession(context.Background(), buyerID, nil)
	require.NoError(t, err)

	payload := webhookPayload(t, h, "evt_1", payment.EventCheckoutCompleted)
	res, err := h.service.HandleWebhook(context.Background(), payload, "valid")
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.True(t, res.Order.IsPaid)
	assert.NotNil(t, res.Order.PaidAt)
	assert.Equal(t, order.PaymentMethodCard, res.Order.PaymentMethod)
	assert.Equal(t, home, res.Order.Address)

	res, err = h.service.HandleWebhook(context.Background(), payload, "valid")
	require.NoError(t, err)
	assert.Nil(t, res, "same event replayed")

	again := webhookPayload(t, h, "evt_2", payment.EventCheckoutCompleted)
	res, err = h.service.HandleWebhook(context.Background(), again, "valid")
	require.NoError(t, err)
	assert.Nil(t, res, "same session under a new event id")

	assert.Equal(t, int64(1), h.count(t, &order.Order{}))
	assert.Equal(t, 8, h.stock(t))
}

func TestWebhookRejectsAndIgnores(t *testing.T) {
	h := newHarness(t, 10)
	h.addToCart(t, 1)
	_, err := h.service.CreatePaymentSession(context.Background(), buyerID, nil)
	require.NoError(t, err)

	payload := webhookPayload(t, h, "evt_1", payment.EventCheckoutCompleted)
	_, err = h.service.HandleWebhook(context.Background(), payload, "forged")
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	other := webhookPayload(t, h, "evt_2", "payment_intent.created")
	res, err := h.service.HandleWebhook(context.Background(), other, "valid")
	require.NoError(t, err)
	assert.Nil(t, res)
	assert.Zero(t, h.count(t, &order.Order{}))
}

func TestWebhookFailureCanBeRetried(t *testing.T) {
	h := newHarness(t, 10)
	h.addToCart(t, 3)
	_, err := h.service.CreatePaymentSession(context.Background(), buyerID, nil)
	require.NoError(t, err)
	payload := webhookPayload(t, h, "evt_1", payment.EventCheckoutCompleted)

	require.NoError(t, h.db.Model(&product.Product{}).Where("id = ?", h.product.ID).Update("stock", 1).Error)
	_, err = h.service.HandleWebhook(context.Background(), payload, "valid")
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	require.NoError(t, h.db.Model(&product.Product{}).Where("id = ?", h.product.ID).Update("stock", 10).Error)
	res, err := h.service.HandleWebhook(context.Background(), payload, "valid")
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, 7, h.stock(t))
}

func TestWebhookWithChangedCartLeavesOrderUnpaid(t *testing.T) {
	h := newHarness(t, 10)
	h.addToCart(t, 2)
	_, err := h.service.CreatePaymentSession(context.Background(), buyerID, nil)
	require.NoError(t, err)
	payload := webhookPayload(t, h, "evt_1", payment.EventCheckoutCompleted)

	h.addToCart(t, 3)
	res, err := h.service.HandleWebhook(context.Background(), payload, "valid")
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.False(t, res.Order.IsPaid)
	assert.Nil(t, res.Order.PaidAt)
	assert.NotEqual(t, int64(200), res.Order.TotalPriceAfterDiscount)
	require.NotEmpty(t, res.Warnings)
	assert.Contains(t, res.Warnings[len(res.Warnings)-1], "payment amount")

	var stored order.Order
	require.NoError(t, h.db.First(&stored, res.Order.ID).Error)
	assert.False(t, stored.IsPaid)
	require.NotNil(t, stored.PaymentSessionID)
	assert.Equal(t, "cs_test_1", *stored.PaymentSessionID)
}
