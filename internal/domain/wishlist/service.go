package wishlist

import (
	"context"
	"fmt"
	"net/url"

	"github.com/shopcore/ecommerce-backend/internal/config"
	"github.com/shopcore/ecommerce-backend/internal/domain/cart"
	"github.com/shopcore/ecommerce-backend/internal/domain/product"
	"github.com/shopcore/ecommerce-backend/internal/pkg/apperror"
	"github.com/shopcore/ecommerce-backend/internal/pkg/query"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Service handles wishlist business logic
type Service struct {
	db          *gorm.DB
	config      *config.Config
	parser      query.Parser
	cartService *cart.Service
}

// NewService creates a new wishlist service
func NewService(db *gorm.DB, cfg *config.Config, carts *cart.Service) *Service {
	return &Service{
		db:          db,
		config:      cfg,
		parser:      query.NewParser(cfg.Query),
		cartService: carts,
	}
}

// WishlistResponse lists the saved products
type WishlistResponse struct {
	Products   []product.Product `json:"products"`
	Pagination query.Pagination  `json:"pagination"`
}

// GetWishlist lists the user's saved products through the query pipeline
func (s *Service) GetWishlist(ctx context.Context, userID uint, values url.Values) (*WishlistResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeouts.Database)
	defer cancel()

	db := s.db.WithContext(ctx)
	saved := db.Model(&WishlistItem{}).Select("product_id").Where("user_id = ?", userID)

	products := []product.Product{}
	pagination, err := query.Find(db.Model(&product.Product{}).Where("id IN (?)", saved), s.parser.Parse(values, product.ProductSchema), &products)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve wishlist: %w", err)
	}
	return &WishlistResponse{Products: products, Pagination: pagination}, nil
}

// AddToWishlist saves a product. Adding a product twice is a no-op.
func (s *Service) AddToWishlist(ctx context.Context, userID, productID uint) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeouts.Database)
	defer cancel()

	db := s.db.WithContext(ctx)
	if _, err := product.Lookup(db, productID); err != nil {
		return err
	}

	item := WishlistItem{UserID: userID, ProductID: productID}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&item).Error; err != nil {
		return fmt.Errorf("failed to add item to wishlist: %w", err)
	}
	return nil
}

// RemoveFromWishlist removes a saved product
func (s *Service) RemoveFromWishlist(ctx context.Context, userID, productID uint) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeouts.Database)
	defer cancel()

	result := s.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&WishlistItem{})
	if result.Error != nil {
		return fmt.Errorf("failed to remove item from wishlist: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperror.NotFound("product not found in wishlist")
	}
	return nil
}

// ClearWishlist removes all items from the wishlist
func (s *Service) ClearWishlist(ctx context.Context, userID uint) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeouts.Database)
	defer cancel()

	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&WishlistItem{}).Error; err != nil {
		return fmt.Errorf("failed to clear wishlist: %w", err)
	}
	return nil
}

// IsInWishlist checks if a product is in the user's wishlist
func (s *Service) IsInWishlist(ctx context.Context, userID, productID uint) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeouts.Database)
	defer cancel()

	var count int64
	err := s.db.WithContext(ctx).Model(&WishlistItem{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check wishlist: %w", err)
	}
	return count > 0, nil
}

// MoveToCart adds a saved product to the cart, then drops it from the wishlist
func (s *Service) MoveToCart(ctx context.Context, userID, productID uint, quantity int) (*cart.Cart, error) {
	inWishlist, err := s.IsInWishlist(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	if !inWishlist {
		return nil, apperror.NotFound("product not found in wishlist")
	}

	c, err := s.cartService.AddItem(ctx, userID, &cart.AddItemRequest{ProductID: productID, Quantity: quantity})
	if err != nil {
		return nil, err
	}
	if err := s.RemoveFromWishlist(ctx, userID, productID); err != nil {
		return nil, err
	}
	return c, nil
}
