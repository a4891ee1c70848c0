// internal/interfaces/http/handlers/wishlist.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopcore/ecommerce-backend/internal/domain/wishlist"
)

// WishlistHandler handles wishlist endpoints
type WishlistHandler struct {
	wishlistService *wishlist.Service
}

// NewWishlistHandler creates a new wishlist handler
func NewWishlistHandler(wishlistService *wishlist.Service) *WishlistHandler {
	return &WishlistHandler{wishlistService: wishlistService}
}

type addToWishlistRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
}

type moveToCartRequest struct {
	Quantity int `json:"quantity" binding:"omitempty,min=1"`
}

// GetWishlist handles GET /wishlist
func (h *WishlistHandler) GetWishlist(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	res, err := h.wishlistService.GetWishlist(c.Request.Context(), userID, c.Request.URL.Query())
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Wishlist retrieved successfully", res)
}

// AddToWishlist handles POST /wishlist
func (h *WishlistHandler) AddToWishlist(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req addToWishlistRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.wishlistService.AddToWishlist(c.Request.Context(), userID, req.ProductID); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Product added to wishlist successfully", nil)
}

// RemoveFromWishlist handles DELETE /wishlist/:productId
func (h *WishlistHandler) RemoveFromWishlist(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	productID, ok := idParam(c, "productId")
	if !ok {
		return
	}
	if err := h.wishlistService.RemoveFromWishlist(c.Request.Context(), userID, productID); err != nil {
		fail(c, err)
		return
	}
	noContent(c)
}

// ClearWishlist handles DELETE /wishlist
func (h *WishlistHandler) ClearWishlist(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.wishlistService.ClearWishlist(c.Request.Context(), userID); err != nil {
		fail(c, err)
		return
	}
	noContent(c)
}

// CheckWishlist handles GET /wishlist/:productId/status
func (h *WishlistHandler) CheckWishlist(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	productID, ok := idParam(c, "productId")
	if !ok {
		return
	}
	in, err := h.wishlistService.IsInWishlist(c.Request.Context(), userID, productID)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Wishlist status retrieved successfully", gin.H{"in_wishlist": in})
}

// MoveToCart handles POST /wishlist/:productId/move-to-cart
func (h *WishlistHandler) MoveToCart(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	productID, ok := idParam(c, "productId")
	if !ok {
		return
	}
	req := moveToCartRequest{Quantity: 1}
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	res, err := h.wishlistService.MoveToCart(c.Request.Context(), userID, productID, req.Quantity)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Product moved to cart successfully", res)
}
