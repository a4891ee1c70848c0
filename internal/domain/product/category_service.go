// internal/domain/product/category_service.go
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

// CategoryService handles category business logic
type CategoryService struct {
	db     *gorm.DB
	config *config.Config
	parser query.Parser
	images images
}

// NewCategoryService creates a new category service
func NewCategoryService(db *gorm.DB, cfg *config.Config, store storage.Storage, logger *logrus.Logger) *CategoryService {
	return &CategoryService{
		db:     db,
		config: cfg,
		parser: query.NewParser(cfg.Query),
		images: images{store: store, timeout: cfg.Timeouts.Storage, logger: logger},
	}
}

// CategoryRequest carries the multipart fields of create and update
type CategoryRequest struct {
	Name string `form:"name" binding:"required,min=2,max=50"`
}

// CategoryListResponse is one page of categories
type CategoryListResponse struct {
	Categories []Category       `json:"categories"`
	Pagination query.Pagination `json:"pagination"`
}

// CreateCategory stores the image and inserts the category
func (s *CategoryService) CreateCategory(ctx context.Context, req *CategoryRequest, image *storage.Upload, addedBy uint) (*Category, error) {
	if image == nil {
		return nil, apperror.Validation("category image is required")
	}
	name := normalizeName(req.Name)

	ctx, cancel := context.WithTimeout(ctx, s.config.Timeouts.Database)
	defer cancel()

	if err := s.ensureNameFree(ctx, name, 0); err != nil {
		return nil, err
	}

	img, err := s.images.put(ctx, FolderCategories, image)
	if err != nil {
		return nil, err
	}

	category := &Category{Name: name, Slug: Slugify(name), Image: img, AddedBy: addedBy}
	if err := s.db.WithContext(ctx).Create(category).Error; err != nil {
		s.images.remove(ctx, img.Key)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.Conflict("category already exists")
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return category, nil
}

// UpdateCategory renames the category and optionally replaces its image
func (s *CategoryService) UpdateCategory(ctx context.Context, id uint, req *CategoryRequest, image *storage.Upload) (*Category, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeouts.Database)
	defer cancel()

	var category Category
	if err := s.db.WithContext(ctx).First(&category, id).Error; err != nil {
		return nil, notFound(err, "category not found", "get category")
	}

	name := normalizeName(req.Name)
	if name != category.Name {
		if err := s.ensureNameFree(ctx, name, id); err != nil {
			return nil, err
		}
		category.Name = name
		category.Slug = Slugify(name)
	}

	oldKey := ""
	if image != nil {
		img, err := s.images.put(ctx, FolderCategories, image)
		if err != nil {
			return nil, err
		}
		oldKey = category.Image.Key
		category.Image = img
	}

	if err := s.db.WithContext(ctx).Save(&category).Error; err != nil {
		if image != nil {
			s.images.remove(ctx, category.Image.Key)
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.Conflict("category already exists")
		}
		return nil, fmt.Errorf("failed to update category: %w", err)
	}
	s.images.remove(ctx, oldKey)

	return &category, nil
}

// DeleteCategory removes the category with its subcategories and products.
// Brands attached to the removed subcategories are detached, not deleted.
func (s *CategoryService) DeleteCategory(ctx context.Context, id uint) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeouts.Database)
	defer cancel()

	var keys []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var category Category
		if err := tx.First(&category, id).Error; err != nil {
			return notFound(err, "category not found", "get category")
		}
		keys = append(keys, category.Image.Key)

		var subs []SubCategory
		if err := tx.Where("category_id = ?", id).Find(&subs).Error; err != nil {
			return fmt.Errorf("failed to load subcategories: %w", err)
		}
		subIDs := make([]uint, 0, len(subs))
		for _, sub := range subs {
			subIDs = append(subIDs, sub.ID)
			keys = append(keys, sub.Image.Key)
		}

		productKeys, err := deleteProductsWhere(tx, "category_id = ?", id)
		if err != nil {
			return err
		}
		keys = append(keys, productKeys...)

		if len(subIDs) > 0 {
			if err := tx.Model(&Brand{}).Where("sub_category_id IN ?", subIDs).
				Update("sub_category_id", nil).Error; err != nil {
				return fmt.Errorf("failed to detach brands: %w", err)
			}
			if err := tx.Where("id IN ?", subIDs).Delete(&SubCategory{}).Error; err != nil {
				return fmt.Errorf("failed to delete subcategories: %w", err)
			}
		}

		if err := tx.Delete(&category).Error; err != nil {
			return fmt.Errorf("failed to delete category: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.images.remove(ctx, keys...)
	return nil
}

// GetCategory returns a category with its subcategories
func (s *CategoryService) GetCategory(ctx context.Context, id uint) (*Category, error) {
	var category Category
	err := s.db.WithContext(ctx).
		Preload("SubCategories", func(db *gorm.DB) *gorm.DB { return db.Order("name ASC") }).
		First(&category, id).Error
	if err != nil {
		return nil, notFound(err, "category not found", "get category")
	}
	return &category, nil
}

// GetCategories lists categories through the query pipeline
func (s *CategoryService) GetCategories(ctx context.Context, values url.Values) (*CategoryListResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeouts.Database)
	defer cancel()

	categories := []Category{}
	q := s.parser.Parse(values, CategorySchema)
	pagination, err := query.Find(s.db.WithContext(ctx).Model(&Category{}), q, &categories)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return &CategoryListResponse{Categories: categories, Pagination: pagination}, nil
}

func (s *CategoryService) ensureNameFree(ctx context.Context, name string, exceptID uint) error {
	var count int64
	q := s.db.WithContext(ctx).Model(&Category{}).Where("name = ?", name)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check category name: %w", err)
	}
	if count > 0 {
		return apperror.Conflict("category already exists")
	}
	return nil
}

// deleteProductsWhere removes matching products and their cover images and
// returns the storage keys to clean up after commit
func deleteProductsWhere(tx *gorm.DB, cond string, args ...interface{}) ([]string, error) {
	var products []Product
	if err := tx.Preload("CoverImages").Where(cond, args...).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	if len(products) == 0 {
		return nil, nil
	}

	ids := make([]uint, 0, len(products))
	var keys []string
	for _, p := range products {
		ids = append(ids, p.ID)
		keys = append(keys, p.Image.Key)
		for _, img := range p.CoverImages {
			keys = append(keys, img.Key)
		}
	}

	if err := tx.Where("product_id IN ?", ids).Delete(&ProductImage{}).Error; err != nil {
		return nil, fmt.Errorf("failed to delete product images: %w", err)
	}
	if err := tx.Where("id IN ?", ids).Delete(&Product{}).Error; err != nil {
		return nil, fmt.Errorf("failed to delete products: %w", err)
	}
	return keys, nil
}
