// internal/interfaces/http/handlers/analytics.go
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopcore/ecommerce-backend/internal/domain/analytics"
)

// AnalyticsHandler handles the staff dashboard
type AnalyticsHandler struct {
	analyticsService *analytics.Service
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(analyticsService *analytics.Service) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService}
}

// GetDashboard handles GET /admin/analytics/dashboard
func (h *AnalyticsHandler) GetDashboard(c *gin.Context) {
	stats, err := h.analyticsService.GetDashboardStats(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Dashboard data retrieved successfully", stats)
}

// GetSales handles GET /admin/analytics/sales?days=N
func (h *AnalyticsHandler) GetSales(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", "30"))
	if err != nil || days <= 0 {
		days = 30
	}
	if days > 365 {
		days = 365
	}

	sales, err := h.analyticsService.GetSalesAnalytics(c.Request.Context(), days)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Sales analytics retrieved successfully", sales)
}

// GetProducts handles GET /admin/analytics/products
func (h *AnalyticsHandler) GetProducts(c *gin.Context) {
	res, err := h.analyticsService.GetProductAnalytics(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Product analytics retrieved successfully", res)
}

// GetCustomers handles GET /admin/analytics/customers
func (h *AnalyticsHandler) GetCustomers(c *gin.Context) {
	res, err := h.analyticsService.GetCustomerAnalytics(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Customer analytics retrieved successfully", res)
}
