// internal/interfaces/http/handlers/cart.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopcore/ecommerce-backend/internal/domain/cart"
)

// CartHandler handles cart endpoints
type CartHandler struct {
	cartService *cart.Service
}

// NewCartHandler creates a new cart handler
func NewCartHandler(cartService *cart.Service) *CartHandler {
	return &CartHandler{cartService: cartService}
}

// GetCart handles GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	res, err := h.cartService.GetCart(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Cart retrieved successfully", res)
}

// AddToCart handles POST /cart
func (h *CartHandler) AddToCart(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req cart.AddItemRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.cartService.AddItem(c.Request.Context(), userID, &req)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Item added to cart successfully", res)
}

// UpdateCartItem handles PUT /cart/items/:productId
func (h *CartHandler) UpdateCartItem(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	productID, ok := idParam(c, "productId")
	if !ok {
		return
	}
	var req cart.UpdateQuantityRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.cartService.UpdateQuantity(c.Request.Context(), userID, productID, req.Quantity)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Cart item updated successfully", res)
}

// RemoveFromCart handles DELETE /cart/items/:productId
func (h *CartHandler) RemoveFromCart(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	productID, ok := idParam(c, "productId")
	if !ok {
		return
	}

	res, err := h.cartService.RemoveItem(c.Request.Context(), userID, productID)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Item removed from cart successfully", res)
}

// ClearCart handles DELETE /cart
func (h *CartHandler) ClearCart(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.cartService.ClearCart(c.Request.Context(), userID); err != nil {
		fail(c, err)
		return
	}
	noContent(c)
}

// ApplyCoupon handles POST /cart/coupon
func (h *CartHandler) ApplyCoupon(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req cart.ApplyCouponRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.cartService.ApplyCoupon(c.Request.Context(), userID, req.Code)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Coupon applied successfully", res)
}
