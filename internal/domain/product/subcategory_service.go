// internal/domain/product/subcategory_service.go
package product

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/shopcore/ecommerce-backend/internal/config"
	"github.com/shopcore/ecommerce-backend/internal/pkg/apperror"
	"github.com/shopcore/ecommerce-backend/internal/pkg/query"
	"github.com/shopcore/ecommerce-backend/internal/pkg/storage"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// SubCategoryService handles subcategory business logic
type SubCategoryService struct {
	db     *gorm.DB
	config *config.Config
	parser query.Parser
	images images
}

func NewSubCategoryService(db *gorm.DB, cfg *config.Config, store storage.Storage, logger *logrus.Logger) *SubCategoryService {
	return &SubCategoryService{
		db:     db,
		config: cfg,
		parser: query.NewParser(cfg.Query),
		images: images{store: store, timeout: cfg.Timeouts.Storage, logger: logger},
	}
}

type SubCategoryCreateRequest struct {
	Name       string `form:"name" binding:"required,min=2,max=50"`
	CategoryID uint   `form:"category_id" binding:"required"`
}

type SubCategoryUpdateRequest struct {
	Name       string `form:"name" binding:"omitempty,min=2,max=50"`
	CategoryID uint   `form:"category_id"`
}

type SubCategoryListResponse struct {
	SubCategories []SubCategory    `json:"sub_categories"`
	Pagination    query.Pagination `json:"pagination"`
}

// CreateSubCategory adds a subcategory under an existing category
func (s *SubCategoryService) CreateSubCategory(ctx context.Context, req *SubCategoryCreateRequest, image *storage.Upload, addedBy uint) (*SubCategory, error) {
	if image == nil {
		return nil, apperror.Validation("subcategory image is required")
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.Timeouts.Database)
	defer cancel()

	if err := s.ensureCategory(ctx, req.CategoryID); err != nil {
		return nil, err
	}

	img, err := s.images.put(ctx, FolderSubCategories, image)
	if err != nil {
		return nil, err
	}

	name := normalizeName(req.Name)
	sub := &SubCategory{
		Name:       name,
		Slug:       Slugify(name),
		CategoryID: req.CategoryID,
		Image:      img,
		AddedBy:    addedBy,
	}
	if err := s.db.WithContext(ctx).Create(sub).Error; err != nil {
		s.images.remove(ctx, img.Key)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.Conflict("subcategory already exists in this category")
		}
		return nil, fmt.Errorf("failed to create subcategory: %w", err)
	}
	return sub, nil
}

// UpdateSubCategory applies the non-empty fields and optionally swaps the image
func (s *SubCategoryService) UpdateSubCategory(ctx context.Context, id uint, req *SubCategoryUpdateRequest, image *storage.Upload) (*SubCategory, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeouts.Database)
	defer cancel()

	var sub SubCategory
	if err := s.db.WithContext(ctx).First(&sub, id).Error; err != nil {
		return nil, notFound(err, "subcategory not found", "get subcategory")
	}

	if req.Name != "" {
		sub.Name = normalizeName(req.Name)
		sub.Slug = Slugify(sub.Name)
	}
	if req.CategoryID != 0 && req.CategoryID != sub.CategoryID {
		if err := s.ensureCategory(ctx, req.CategoryID); err != nil {
			return nil, err
		}
		sub.CategoryID = req.CategoryID
	}

	oldKey := ""
	if image != nil {
		img, err := s.images.put(ctx, FolderSubCategories, image)
		if err != nil {
			return nil, err
		}
		oldKey = sub.Image.Key
		sub.Image = img
	}

	if err := s.db.WithContext(ctx).Save(&sub).Error; err != nil {
		if image != nil {
			s.images.remove(ctx, sub.Image.Key)
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.Conflict("subcategory already exists in this category")
		}
		return nil, fmt.Errorf("failed to update subcategory: %w", err)
	}
	s.images.remove(ctx, oldKey)

	return &sub, nil
}

// DeleteSubCategory removes the subcategory and its products and detaches brands
func (s *SubCategoryService) DeleteSubCategory(ctx context.Context, id uint) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeouts.Database)
	defer cancel()

	var keys []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sub SubCategory
		if err := tx.First(&sub, id).Error; err != nil {
			return notFound(err, "subcategory not found", "get subcategory")
		}
		keys = append(keys, sub.Image.Key)

		productKeys, err := deleteProductsWhere(tx, "sub_category_id = ?", id)
		if err != nil {
			return err
		}
		keys = append(keys, productKeys...)

		if err := tx.Model(&Brand{}).Where("sub_category_id = ?", id).
			Update("sub_category_id", nil).Error; err != nil {
			return fmt.Errorf("failed to detach brands: %w", err)
		}
		if err := tx.Delete(&sub).Error; err != nil {
			return fmt.Errorf("failed to delete subcategory: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.images.remove(ctx, keys...)
	return nil
}

func (s *SubCategoryService) GetSubCategory(ctx context.Context, id uint) (*SubCategory, error) {
	var sub SubCategory
	if err := s.db.WithContext(ctx).First(&sub, id).Error; err != nil {
		return nil, notFound(err, "subcategory not found", "get subcategory")
	}
	return &sub, nil
}

// GetSubCategories lists subcategories, optionally scoped to one category
func (s *SubCategoryService) GetSubCategories(ctx context.Context, categoryID uint, values url.Values) (*SubCategoryListResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeouts.Database)
	defer cancel()

	db := s.db.WithContext(ctx).Model(&SubCategory{})
	if categoryID != 0 {
		if err := s.ensureCategory(ctx, categoryID); err != nil {
			return nil, err
		}
		db = db.Where("category_id = ?", categoryID)
	}

	subs := []SubCategory{}
	pagination, err := query.Find(db, s.parser.Parse(values, SubCategorySchema), &subs)
	if err != nil {
		return nil, fmt.Errorf("failed to list subcategories: %w", err)
	}
	return &SubCategoryListResponse{SubCategories: subs, Pagination: pagination}, nil
}

func (s *SubCategoryService) ensureCategory(ctx context.Context, id uint) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&Category{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check category: %w", err)
	}
	if count == 0 {
		return apperror.NotFound("category not found")
	}
	return nil
}
