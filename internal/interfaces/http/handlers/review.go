// internal/interfaces/http/handlers/review.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopcore/ecommerce-backend/internal/domain/review"
)

// ReviewHandler handles product review endpoints
type ReviewHandler struct {
	reviewService *review.Service
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(reviewService *review.Service) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

// GetProductReviews handles GET /products/:id/reviews
func (h *ReviewHandler) GetProductReviews(c *gin.Context) {
	productID, ok := idParam(c, "id")
	if !ok {
		return
	}
	res, err := h.reviewService.GetProductReviews(c.Request.Context(), productID, c.Request.URL.Query())
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Reviews retrieved successfully", res)
}

// AddReview handles POST /products/:id/reviews
func (h *ReviewHandler) AddReview(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	productID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req review.AddReviewRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.reviewService.AddReview(c.Request.Context(), userID, productID, &req)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, "Review added successfully", res)
}

// DeleteReview handles DELETE /products/:id/reviews/:reviewId
func (h *ReviewHandler) DeleteReview(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	productID, ok := idParam(c, "id")
	if !ok {
		return
	}
	reviewID, ok := idParam(c, "reviewId")
	if !ok {
		return
	}

	if err := h.reviewService.DeleteReview(c.Request.Context(), userID, productID, reviewID); err != nil {
		fail(c, err)
		return
	}
	noContent(c)
}
