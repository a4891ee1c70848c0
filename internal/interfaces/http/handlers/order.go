// internal/interfaces/http/handlers/order.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopcore/ecommerce-backend/internal/domain/order"
)

// OrderHandler handles order endpoints for buyers and staff
type OrderHandler struct {
	orderService *order.Service
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService *order.Service) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// GetMyOrders handles GET /orders
func (h *OrderHandler) GetMyOrders(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	res, err := h.orderService.GetUserOrders(c.Request.Context(), userID, c.Request.URL.Query())
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Orders retrieved successfully", res)
}

// GetMyOrder handles GET /orders/:id
func (h *OrderHandler) GetMyOrder(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	res, err := h.orderService.GetUserOrder(c.Request.Context(), userID, id)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Order retrieved successfully", res)
}

// CancelOrder handles PATCH /orders/:id/cancel
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	res, err := h.orderService.CancelOrder(c.Request.Context(), userID, id)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Order cancelled successfully", res)
}

// GetOrders handles GET /admin/orders
func (h *OrderHandler) GetOrders(c *gin.Context) {
	res, err := h.orderService.GetOrders(c.Request.Context(), c.Request.URL.Query())
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Orders retrieved successfully", res)
}

// GetOrder handles GET /admin/orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	res, err := h.orderService.GetOrder(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Order retrieved successfully", res)
}

// GetUserOrders handles GET /admin/users/:id/orders
func (h *OrderHandler) GetUserOrders(c *gin.Context) {
	userID, ok := idParam(c, "id")
	if !ok {
		return
	}
	res, err := h.orderService.GetUserOrders(c.Request.Context(), userID, c.Request.URL.Query())
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Orders retrieved successfully", res)
}

// UpdateOrderStatus handles PATCH /admin/orders/:id/status
func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req order.UpdateStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.orderService.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Order status updated successfully", res)
}
