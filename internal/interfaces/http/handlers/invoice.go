// internal/interfaces/http/handlers/invoice.go
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"path"

	"github.com/gin-gonic/gin"
	"github.com/shopcore/ecommerce-backend/internal/domain/order"
	"github.com/shopcore/ecommerce-backend/internal/pkg/apperror"
	"github.com/shopcore/ecommerce-backend/internal/pkg/storage"
)

// InvoiceHandler serves the receipts generated after checkout
type InvoiceHandler struct {
	orderService *order.Service
	store        storage.Storage
}

// NewInvoiceHandler creates a new invoice handler
func NewInvoiceHandler(orderService *order.Service, store storage.Storage) *InvoiceHandler {
	return &InvoiceHandler{orderService: orderService, store: store}
}

// GetReceipt handles GET /orders/:id/receipt
func (h *InvoiceHandler) GetReceipt(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	h.receipt(c, userID)
}

// DownloadReceipt handles GET /orders/:id/receipt/download. Stores that can
// open objects stream the PDF; others redirect to its URL.
func (h *InvoiceHandler) DownloadReceipt(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	orderID, ok := idParam(c, "id")
	if !ok {
		return
	}
	receipt, err := h.orderService.GetReceipt(c.Request.Context(), userID, orderID)
	if err != nil {
		fail(c, err)
		return
	}

	opener, ok := h.store.(storage.Opener)
	if !ok || receipt.StorageKey == "" {
		c.Redirect(http.StatusFound, receipt.ReceiptURL)
		return
	}
	body, err := opener.Open(c.Request.Context(), receipt.StorageKey)
	if errors.Is(err, storage.ErrNotFound) {
		fail(c, apperror.NotFound("receipt not found"))
		return
	}
	if err != nil {
		fail(c, apperror.Upstream("storage", err))
		return
	}
	defer body.Close()

	c.DataFromReader(http.StatusOK, -1, "application/pdf", body, map[string]string{
		"Content-Disposition": fmt.Sprintf(`attachment; filename="%s"`, path.Base(receipt.StorageKey)),
	})
}

// AdminGetReceipt handles GET /admin/orders/:id/receipt
func (h *InvoiceHandler) AdminGetReceipt(c *gin.Context) {
	h.receipt(c, 0)
}

func (h *InvoiceHandler) receipt(c *gin.Context, userID uint) {
	orderID, ok := idParam(c, "id")
	if !ok {
		return
	}
	receipt, err := h.orderService.GetReceipt(c.Request.Context(), userID, orderID)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Receipt retrieved successfully", receipt)
}
