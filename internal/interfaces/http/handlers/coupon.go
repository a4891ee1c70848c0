// internal/interfaces/http/handlers/coupon.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopcore/ecommerce-backend/internal/domain/coupon"
)

// CouponHandler handles admin coupon endpoints
type CouponHandler struct {
	coupons *coupon.Service
}

// NewCouponHandler creates a new coupon handler
func NewCouponHandler(coupons *coupon.Service) *CouponHandler {
	return &CouponHandler{coupons: coupons}
}

// GetCoupons handles GET /admin/coupons
func (h *CouponHandler) GetCoupons(c *gin.Context) {
	res, err := h.coupons.GetCoupons(c.Request.Context(), c.Request.URL.Query())
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Coupons retrieved successfully", res)
}

// GetCoupon handles GET /admin/coupons/:id
func (h *CouponHandler) GetCoupon(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	res, err := h.coupons.GetCoupon(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Coupon retrieved successfully", res)
}

// CreateCoupon handles POST /admin/coupons
func (h *CouponHandler) CreateCoupon(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req coupon.CreateRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.coupons.CreateCoupon(c.Request.Context(), &req, userID)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, "Coupon created successfully", res)
}

// UpdateCoupon handles PUT /admin/coupons/:id
func (h *CouponHandler) UpdateCoupon(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req coupon.UpdateRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.coupons.UpdateCoupon(c.Request.Context(), id, &req)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Coupon updated successfully", res)
}

// DeleteCoupon handles DELETE /admin/coupons/:id
func (h *CouponHandler) DeleteCoupon(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.coupons.DeleteCoupon(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	noContent(c)
}
