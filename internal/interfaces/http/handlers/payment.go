// internal/interfaces/http/handlers/payment.go
package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopcore/ecommerce-backend/internal/domain/checkout"
	"github.com/shopcore/ecommerce-backend/internal/pkg/apperror"
	"github.com/sirupsen/logrus"
)

// Stripe signs webhook bodies in this header
const stripeSignatureHeader = "Stripe-Signature"

// PaymentHandler handles card payment sessions and gateway webhooks
type PaymentHandler struct {
	checkoutService *checkout.Service
	logger          *logrus.Logger
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(checkoutService *checkout.Service, logger *logrus.Logger) *PaymentHandler {
	return &PaymentHandler{checkoutService: checkoutService, logger: logger}
}

// CreateCheckoutSession handles POST /orders/checkout-session
func (h *PaymentHandler) CreateCheckoutSession(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req checkout.PlaceOrderRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}

	session, err := h.checkoutService.CreatePaymentSession(c.Request.Context(), userID, &req)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Checkout session created successfully", session)
}

// WebhookHandler handles POST /webhooks/stripe. The raw body is needed for
// signature verification.
func (h *PaymentHandler) WebhookHandler(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		fail(c, apperror.Wrap(apperror.KindValidation, "failed to read webhook body", err))
		return
	}

	res, err := h.checkoutService.HandleWebhook(c.Request.Context(), payload, c.GetHeader(stripeSignatureHeader))
	if err != nil {
		h.logger.WithError(err).Warn("Payment webhook rejected")
		fail(c, err)
		return
	}

	body := gin.H{"received": true}
	if res != nil && res.Order != nil {
		body["order_id"] = res.Order.ID
	}
	c.JSON(http.StatusOK, body)
}
