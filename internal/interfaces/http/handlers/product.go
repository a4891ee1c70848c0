// internal/interfaces/http/handlers/product.go
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopcore/ecommerce-backend/internal/config"
	"github.com/shopcore/ecommerce-backend/internal/domain/product"
)

// ProductHandler handles product endpoints
type ProductHandler struct {
	products *product.Service
	uploads  uploads
}

// NewProductHandler creates a new product handler
func NewProductHandler(products *product.Service, cfg *config.Config) *ProductHandler {
	return &ProductHandler{products: products, uploads: uploads{config: cfg.Upload}}
}

// GetProducts handles GET /products. Filters, search, select, sort and page
// come from the query string.
func (h *ProductHandler) GetProducts(c *gin.Context) {
	res, err := h.products.GetProducts(c.Request.Context(), c.Request.URL.Query())
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Products retrieved successfully", res)
}

// GetProduct handles GET /products/:id where id is numeric or a slug
func (h *ProductHandler) GetProduct(c *gin.Context) {
	param := c.Param("id")

	var (
		p   *product.Product
		err error
	)
	if id, convErr := strconv.ParseUint(param, 10, 32); convErr == nil {
		p, err = h.products.GetProduct(c.Request.Context(), uint(id))
	} else {
		p, err = h.products.GetProductBySlug(c.Request.Context(), param)
	}
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Product retrieved successfully", p)
}

// CreateProduct handles POST /products (multipart: fields, image, cover_images)
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req product.ProductCreateRequest
	if !bindForm(c, &req) {
		return
	}
	files, ok := h.images(c)
	if !ok {
		return
	}

	p, err := h.products.CreateProduct(c.Request.Context(), &req, files, userID)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, "Product created successfully", p)
}

// UpdateProduct handles PUT /products/:id
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req product.ProductUpdateRequest
	if !bindForm(c, &req) {
		return
	}
	files, ok := h.images(c)
	if !ok {
		return
	}

	p, err := h.products.UpdateProduct(c.Request.Context(), id, &req, files)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Product updated successfully", p)
}

// DeleteProduct handles DELETE /products/:id
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.products.DeleteProduct(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	noContent(c)
}

func (h *ProductHandler) images(c *gin.Context) (product.ProductImages, bool) {
	image, err := h.uploads.single(c, "image")
	if err != nil {
		fail(c, err)
		return product.ProductImages{}, false
	}
	covers, err := h.uploads.many(c, "cover_images")
	if err != nil {
		fail(c, err)
		return product.ProductImages{}, false
	}
	return product.ProductImages{Image: image, Covers: covers}, true
}
