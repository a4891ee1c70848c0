// internal/domain/product/service.go
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

// Service handles product business logic
type Service struct {
	db     *gorm.DB
	config *config.Config
	parser query.Parser
	images images
}

// NewService creates a new product service
func NewService(db *gorm.DB, cfg *config.Config, store storage.Storage, logger *logrus.Logger) *Service {
	return &Service{
		db:     db,
		config: cfg,
		parser: query.NewParser(cfg.Query),
		images: images{store: store, timeout: cfg.Timeouts.Storage, logger: logger},
	}
}

// ProductCreateRequest represents product creation data
type ProductCreateRequest struct {
	Title         string `form:"title" binding:"required,min=3,max=60"`
	Description   string `form:"description" binding:"required,min=10,max=900"`
	CategoryID    uint   `form:"category_id" binding:"required"`
	SubCategoryID uint   `form:"sub_category_id" binding:"required"`
	BrandID       uint   `form:"brand_id" binding:"required"`
	Price         int64  `form:"price" binding:"required,min=1"`
	Discount      int    `form:"discount" binding:"min=0,max=100"`
	Stock         int    `form:"stock" binding:"min=0"`
}

// ProductUpdateRequest represents product update data
type ProductUpdateRequest struct {
	Title         *string `form:"title" binding:"omitempty,min=3,max=60"`
	Description   *string `form:"description" binding:"omitempty,min=10,max=900"`
	CategoryID    *uint   `form:"category_id"`
	SubCategoryID *uint   `form:"sub_category_id"`
	BrandID       *uint   `form:"brand_id"`
	Price         *int64  `form:"price" binding:"omitempty,min=1"`
	Discount      *int    `form:"discount" binding:"omitempty,min=0,max=100"`
	Stock         *int    `form:"stock" binding:"omitempty,min=0"`
}

// ProductImages carries the uploaded files of a create or update call
type ProductImages struct {
	Image  *storage.Upload
	Covers []*storage.Upload
}

// ProductResponse represents product response with pagination
type ProductResponse struct {
	Products   []Product        `json:"products"`
	Pagination query.Pagination `json:"pagination"`
}

// GetProducts lists products through the query pipeline
func (s *Service) GetProducts(ctx context.Context, values url.Values) (*ProductResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeouts.Database)
	defer cancel()

	products := []Product{}
	pagination, err := query.Find(s.db.WithContext(ctx).Model(&Product{}), s.parser.Parse(values, ProductSchema), &products)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return &ProductResponse{Products: products, Pagination: pagination}, nil
}

// GetProduct retrieves a single product by ID with its cover images
func (s *Service) GetProduct(ctx context.Context, id uint) (*Product, error) {
	var product Product
	err := s.db.WithContext(ctx).
		Preload("CoverImages", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, id ASC")
		}).
		First(&product, id).Error
	if err != nil {
		return nil, notFound(err, "product not found", "retrieve product")
	}
	return &product, nil
}

// GetProductBySlug retrieves a single product by slug
func (s *Service) GetProductBySlug(ctx context.Context, slug string) (*Product, error) {
	var product Product
	err := s.db.WithContext(ctx).
		Preload("CoverImages", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, id ASC")
		}).
		Where("slug = ?", slug).
		First(&product).Error
	if err != nil {
		return nil, notFound(err, "product not found", "retrieve product")
	}
	return &product, nil
}

// CreateProduct creates a new product with its main and cover images
func (s *Service) CreateProduct(ctx context.Context, req *ProductCreateRequest, files ProductImages, addedBy uint) (*Product, error) {
	if files.Image == nil {
		return nil, apperror.Validation("product image is required")
	}
	if err := s.checkCovers(files.Covers); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.Timeouts.Database)
	defer cancel()

	title := normalizeName(req.Title)
	if err := s.ensureTitleFree(ctx, title, 0); err != nil {
		return nil, err
	}
	if err := s.checkRefs(ctx, req.CategoryID, req.SubCategoryID, req.BrandID); err != nil {
		return nil, err
	}

	product := Product{
		Title:         title,
		Slug:          Slugify(title),
		Description:   req.Description,
		CategoryID:    req.CategoryID,
		SubCategoryID: req.SubCategoryID,
		BrandID:       req.BrandID,
		Price:         req.Price,
		Discount:      req.Discount,
		Stock:         req.Stock,
		AddedBy:       addedBy,
	}
	product.Reprice()

	img, err := s.images.put(ctx, FolderProducts, files.Image)
	if err != nil {
		return nil, err
	}
	product.Image = img

	covers, err := s.putCovers(ctx, files.Covers)
	if err != nil {
		s.images.remove(ctx, img.Key)
		return nil, err
	}
	product.CoverImages = covers

	if err := s.db.WithContext(ctx).Create(&product).Error; err != nil {
		s.images.remove(ctx, uploadedKeys(img, covers)...)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.Conflict("product already exists")
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return &product, nil
}

// UpdateProduct applies the given fields. A new main image or a new set of
// cover images replaces the stored ones.
func (s *Service) UpdateProduct(ctx context.Context, id uint, req *ProductUpdateRequest, files ProductImages) (*Product, error) {
	if err := s.checkCovers(files.Covers); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.Timeouts.Database)
	defer cancel()

	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		title := normalizeName(*req.Title)
		if title != product.Title {
			if err := s.ensureTitleFree(ctx, title, id); err != nil {
				return nil, err
			}
			product.Title = title
			product.Slug = Slugify(title)
		}
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.CategoryID != nil {
		product.CategoryID = *req.CategoryID
	}
	if req.SubCategoryID != nil {
		product.SubCategoryID = *req.SubCategoryID
	}
	if req.BrandID != nil {
		product.BrandID = *req.BrandID
	}
	if req.CategoryID != nil || req.SubCategoryID != nil || req.BrandID != nil {
		if err := s.checkRefs(ctx, product.CategoryID, product.SubCategoryID, product.BrandID); err != nil {
			return nil, err
		}
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.Discount != nil {
		product.Discount = *req.Discount
	}
	if req.Stock != nil {
		product.Stock = *req.Stock
	}
	product.Reprice()

	var newImage Image
	if files.Image != nil {
		if newImage, err = s.images.put(ctx, FolderProducts, files.Image); err != nil {
			return nil, err
		}
	}
	newCovers, err := s.putCovers(ctx, files.Covers)
	if err != nil {
		s.images.remove(ctx, newImage.Key)
		return nil, err
	}

	var staleKeys []string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if files.Image != nil {
			staleKeys = append(staleKeys, product.Image.Key)
			product.Image = newImage
		}
		if len(newCovers) > 0 {
			for _, c := range product.CoverImages {
				staleKeys = append(staleKeys, c.Key)
			}
			if err := tx.Where("product_id = ?", product.ID).Delete(&ProductImage{}).Error; err != nil {
				return fmt.Errorf("failed to delete cover images: %w", err)
			}
			for i := range newCovers {
				newCovers[i].ProductID = product.ID
			}
			if err := tx.Create(&newCovers).Error; err != nil {
				return fmt.Errorf("failed to save cover images: %w", err)
			}
			product.CoverImages = newCovers
		}
		return tx.Omit("CoverImages").Save(product).Error
	})
	if err != nil {
		s.images.remove(ctx, uploadedKeys(newImage, newCovers)...)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.Conflict("product already exists")
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	s.images.remove(ctx, staleKeys...)
	return product, nil
}

// DeleteProduct removes a product and its stored images
func (s *Service) DeleteProduct(ctx context.Context, id uint) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeouts.Database)
	defer cancel()

	var keys []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		keys, err = deleteProductsWhere(tx, "id = ?", id)
		if err != nil {
			return err
		}
		if len(keys) == 0 {
			return apperror.NotFound("product not found")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.images.remove(ctx, keys...)
	return nil
}

func (s *Service) checkCovers(covers []*storage.Upload) error {
	if limit := s.config.Upload.MaxCoverImages; limit > 0 && len(covers) > limit {
		return apperror.Validationf("at most %d cover images are allowed", limit)
	}
	return nil
}

func (s *Service) putCovers(ctx context.Context, uploads []*storage.Upload) ([]ProductImage, error) {
	covers := make([]ProductImage, 0, len(uploads))
	for i, upload := range uploads {
		img, err := s.images.put(ctx, FolderProducts+"/covers", upload)
		if err != nil {
			keys := make([]string, 0, len(covers))
			for _, c := range covers {
				keys = append(keys, c.Key)
			}
			s.images.remove(ctx, keys...)
			return nil, err
		}
		covers = append(covers, ProductImage{URL: img.URL, Key: img.Key, SortOrder: i})
	}
	return covers, nil
}

func (s *Service) ensureTitleFree(ctx context.Context, title string, exceptID uint) error {
	var count int64
	q := s.db.WithContext(ctx).Model(&Product{}).Where("title = ?", title)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check product title: %w", err)
	}
	if count > 0 {
		return apperror.Conflict("product already exists")
	}
	return nil
}

// checkRefs verifies the catalog references and that the subcategory sits
// under the category
func (s *Service) checkRefs(ctx context.Context, categoryID, subCategoryID, brandID uint) error {
	db := s.db.WithContext(ctx)

	var category Category
	if err := db.Select("id").First(&category, categoryID).Error; err != nil {
		return notFound(err, "category not found", "check category")
	}
	var sub SubCategory
	if err := db.Select("id", "category_id").First(&sub, subCategoryID).Error; err != nil {
		return notFound(err, "subcategory not found", "check subcategory")
	}
	if sub.CategoryID != categoryID {
		return apperror.Validation("subcategory does not belong to category")
	}
	var brand Brand
	if err := db.Select("id").First(&brand, brandID).Error; err != nil {
		return notFound(err, "brand not found", "check brand")
	}
	return nil
}

func uploadedKeys(img Image, covers []ProductImage) []string {
	keys := []string{img.Key}
	for _, c := range covers {
		keys = append(keys, c.Key)
	}
	return keys
}
