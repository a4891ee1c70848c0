// internal/interfaces/http/handlers/checkout.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopcore/ecommerce-backend/internal/domain/checkout"
)

// CheckoutHandler turns the caller's cart into an order
type CheckoutHandler struct {
	checkoutService *checkout.Service
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(checkoutService *checkout.Service) *CheckoutHandler {
	return &CheckoutHandler{checkoutService: checkoutService}
}

// PlaceCashOrder handles POST /orders. The body may carry an address; the
// default saved address is used otherwise.
func (h *CheckoutHandler) PlaceCashOrder(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req checkout.PlaceOrderRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}

	res, err := h.checkoutService.PlaceCashOrder(c.Request.Context(), userID, &req)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, "Order placed successfully", res)
}
