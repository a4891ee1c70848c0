// internal/domain/review/service.go
package review

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/shopcore/ecommerce-backend/internal/config"
	"github.com/shopcore/ecommerce-backend/internal/domain/order"
	"github.com/shopcore/ecommerce-backend/internal/domain/product"
	"github.com/shopcore/ecommerce-backend/internal/pkg/apperror"
	"github.com/shopcore/ecommerce-backend/internal/pkg/query"
	"gorm.io/gorm"
)

// Service handles product reviews
type Service struct {
	db     *gorm.DB
	config *config.Config
	parser query.Parser
}

// NewService creates a new review service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{db: db, config: cfg, parser: query.NewParser(cfg.Query)}
}

// AddReviewRequest represents a new review
type AddReviewRequest struct {
	Comment string `json:"comment" binding:"required,min=3,max=1000"`
	Rate    int    `json:"rate" binding:"required,min=1,max=5"`
}

// ReviewListResponse represents a page of reviews
type ReviewListResponse struct {
	Reviews    []Review         `json:"reviews"`
	Pagination query.Pagination `json:"pagination"`
}

// AddReview records a review and refreshes the product's rating. Only a user
// with a delivered, non-canceled order containing the product may review it.
func (s *Service) AddReview(ctx context.Context, userID, productID uint, req *AddReviewRequest) (*Review, error) {
	if req.Rate < 1 || req.Rate > 5 {
		return nil, apperror.Validation("rating must be between 1 and 5")
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.Timeouts.Database)
	defer cancel()

	review := &Review{UserID: userID, ProductID: productID, Comment: strings.TrimSpace(req.Comment), Rate: req.Rate}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := product.Lookup(tx, productID); err != nil {
			return err
		}

		var existing int64
		if err := tx.Model(&Review{}).Where("user_id = ? AND product_id = ?", userID, productID).Count(&existing).Error; err != nil {
			return fmt.Errorf("failed to check reviews: %w", err)
		}
		if existing > 0 {
			return apperror.Conflict("you have already reviewed this product")
		}

		purchased, err := hasReceived(tx, userID, productID)
		if err != nil {
			return err
		}
		if !purchased {
			return apperror.Validation("you must have purchased this product to leave a review")
		}

		if err := tx.Create(review).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperror.Conflict("you have already reviewed this product")
			}
			return fmt.Errorf("failed to create review: %w", err)
		}
		return refreshRating(tx, productID)
	})
	if err != nil {
		return nil, err
	}
	return review, nil
}

// DeleteReview removes the user's own review and refreshes the rating
func (s *Service) DeleteReview(ctx context.Context, userID, productID, reviewID uint) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeouts.Database)
	defer cancel()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := product.Lookup(tx, productID); err != nil {
			return err
		}

		result := tx.Where("id = ? AND user_id = ? AND product_id = ?", reviewID, userID, productID).Delete(&Review{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete review: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return apperror.NotFound("review not found")
		}
		return refreshRating(tx, productID)
	})
}

// GetProductReviews lists a product's reviews through the query pipeline
func (s *Service) GetProductReviews(ctx context.Context, productID uint, values url.Values) (*ReviewListResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeouts.Database)
	defer cancel()

	db := s.db.WithContext(ctx)
	if _, err := product.Lookup(db, productID); err != nil {
		return nil, err
	}

	reviews := []Review{}
	pagination, err := query.Find(db.Model(&Review{}).Where("product_id = ?", productID), s.parser.Parse(values, Schema), &reviews)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return &ReviewListResponse{Reviews: reviews, Pagination: pagination}, nil
}

func hasReceived(tx *gorm.DB, userID, productID uint) (bool, error) {
	var count int64
	err := tx.Model(&order.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.user_id = ? AND order_items.product_id = ?", userID, productID).
		Where("orders.is_delivered = ? AND orders.is_canceled = ?", true, false).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check purchases: %w", err)
	}
	return count > 0, nil
}

// refreshRating recomputes rate_num and rate_avg from the stored reviews
func refreshRating(tx *gorm.DB, productID uint) error {
	var stats struct {
		Num int
		Avg float64
	}
	err := tx.Model(&Review{}).
		Select("COUNT(*) AS num, COALESCE(AVG(rate), 0) AS avg").
		Where("product_id = ?", productID).
		Scan(&stats).Error
	if err != nil {
		return fmt.Errorf("failed to compute rating: %w", err)
	}

	err = tx.Model(&product.Product{}).Where("id = ?", productID).
		Updates(map[string]interface{}{"rate_num": stats.Num, "rate_avg": stats.Avg}).Error
	if err != nil {
		return fmt.Errorf("failed to update rating: %w", err)
	}
	return nil
}
