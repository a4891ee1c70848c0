// internal/interfaces/http/handlers/brand.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopcore/ecommerce-backend/internal/config"
	"github.com/shopcore/ecommerce-backend/internal/domain/product"
)

// BrandHandler handles brand endpoints
type BrandHandler struct {
	brands  *product.BrandService
	uploads uploads
}

// NewBrandHandler creates a new brand handler
func NewBrandHandler(brands *product.BrandService, cfg *config.Config) *BrandHandler {
	return &BrandHandler{brands: brands, uploads: uploads{config: cfg.Upload}}
}

// GetBrands handles GET /brands
func (h *BrandHandler) GetBrands(c *gin.Context) {
	res, err := h.brands.GetBrands(c.Request.Context(), c.Request.URL.Query())
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Brands retrieved successfully", res)
}

// GetBrand handles GET /brands/:id
func (h *BrandHandler) GetBrand(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	brand, err := h.brands.GetBrand(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Brand retrieved successfully", brand)
}

// CreateBrand handles POST /brands (multipart: name, sub_category_id, logo)
func (h *BrandHandler) CreateBrand(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req product.BrandRequest
	if !bindForm(c, &req) {
		return
	}
	logo, err := h.uploads.single(c, "logo")
	if err != nil {
		fail(c, err)
		return
	}

	brand, err := h.brands.CreateBrand(c.Request.Context(), &req, logo, userID)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, "Brand created successfully", brand)
}

// UpdateBrand handles PUT /brands/:id
func (h *BrandHandler) UpdateBrand(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req product.BrandRequest
	if !bindForm(c, &req) {
		return
	}
	logo, err := h.uploads.single(c, "logo")
	if err != nil {
		fail(c, err)
		return
	}

	brand, err := h.brands.UpdateBrand(c.Request.Context(), id, &req, logo)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Brand updated successfully", brand)
}

// DeleteBrand handles DELETE /brands/:id
func (h *BrandHandler) DeleteBrand(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.brands.DeleteBrand(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	noContent(c)
}
