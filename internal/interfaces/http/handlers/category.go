// internal/interfaces/http/handlers/category.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopcore/ecommerce-backend/internal/config"
	"github.com/shopcore/ecommerce-backend/internal/domain/product"
)

// CategoryHandler handles category and subcategory endpoints
type CategoryHandler struct {
	categories    *product.CategoryService
	subCategories *product.SubCategoryService
	uploads       uploads
}

// NewCategoryHandler creates a new category handler
func NewCategoryHandler(categories *product.CategoryService, subCategories *product.SubCategoryService, cfg *config.Config) *CategoryHandler {
	return &CategoryHandler{
		categories:    categories,
		subCategories: subCategories,
		uploads:       uploads{config: cfg.Upload},
	}
}

// GetCategories handles GET /categories
func (h *CategoryHandler) GetCategories(c *gin.Context) {
	res, err := h.categories.GetCategories(c.Request.Context(), c.Request.URL.Query())
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Categories retrieved successfully", res)
}

// GetCategory handles GET /categories/:id
func (h *CategoryHandler) GetCategory(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	category, err := h.categories.GetCategory(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Category retrieved successfully", category)
}

// CreateCategory handles POST /categories (multipart: name, image)
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req product.CategoryRequest
	if !bindForm(c, &req) {
		return
	}
	image, err := h.uploads.single(c, "image")
	if err != nil {
		fail(c, err)
		return
	}

	category, err := h.categories.CreateCategory(c.Request.Context(), &req, image, userID)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, "Category created successfully", category)
}

// UpdateCategory handles PUT /categories/:id
func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req product.CategoryRequest
	if !bindForm(c, &req) {
		return
	}
	image, err := h.uploads.single(c, "image")
	if err != nil {
		fail(c, err)
		return
	}

	category, err := h.categories.UpdateCategory(c.Request.Context(), id, &req, image)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Category updated successfully", category)
}

// DeleteCategory handles DELETE /categories/:id
func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.categories.DeleteCategory(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	noContent(c)
}

// GetSubCategories handles GET /subcategories and GET /categories/:id/subcategories
func (h *CategoryHandler) GetSubCategories(c *gin.Context) {
	var categoryID uint
	if c.Param("id") != "" {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		categoryID = id
	}

	res, err := h.subCategories.GetSubCategories(c.Request.Context(), categoryID, c.Request.URL.Query())
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Subcategories retrieved successfully", res)
}

// GetSubCategory handles GET /subcategories/:id
func (h *CategoryHandler) GetSubCategory(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	sub, err := h.subCategories.GetSubCategory(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Subcategory retrieved successfully", sub)
}

// CreateSubCategory handles POST /subcategories
func (h *CategoryHandler) CreateSubCategory(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req product.SubCategoryCreateRequest
	if !bindForm(c, &req) {
		return
	}
	image, err := h.uploads.single(c, "image")
	if err != nil {
		fail(c, err)
		return
	}

	sub, err := h.subCategories.CreateSubCategory(c.Request.Context(), &req, image, userID)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, "Subcategory created successfully", sub)
}

// UpdateSubCategory handles PUT /subcategories/:id
func (h *CategoryHandler) UpdateSubCategory(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req product.SubCategoryUpdateRequest
	if !bindForm(c, &req) {
		return
	}
	image, err := h.uploads.single(c, "image")
	if err != nil {
		fail(c, err)
		return
	}

	sub, err := h.subCategories.UpdateSubCategory(c.Request.Context(), id, &req, image)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Subcategory updated successfully", sub)
}

// DeleteSubCategory handles DELETE /subcategories/:id
func (h *CategoryHandler) DeleteSubCategory(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.subCategories.DeleteSubCategory(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	noContent(c)
}
