// internal/domain/product/brand_service.go
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

// BrandService handles brand business logic
type BrandService struct {
	db     *gorm.DB
	config *config.Config
	parser query.Parser
	images images
}

func NewBrandService(db *gorm.DB, cfg *config.Config, store storage.Storage, logger *logrus.Logger) *BrandService {
	return &BrandService{
		db:     db,
		config: cfg,
		parser: query.NewParser(cfg.Query),
		images: images{store: store, timeout: cfg.Timeouts.Storage, logger: logger},
	}
}

type BrandRequest struct {
	Name          string `form:"name" binding:"required,min=2,max=50"`
	SubCategoryID *uint  `form:"sub_category_id"`
}

type BrandListResponse struct {
	Brands     []Brand          `json:"brands"`
	Pagination query.Pagination `json:"pagination"`
}

func (s *BrandService) CreateBrand(ctx context.Context, req *BrandRequest, logo *storage.Upload, addedBy uint) (*Brand, error) {
	if logo == nil {
		return nil, apperror.Validation("brand logo is required")
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.Timeouts.Database)
	defer cancel()

	if err := s.ensureSubCategory(ctx, req.SubCategoryID); err != nil {
		return nil, err
	}

	img, err := s.images.put(ctx, FolderBrands, logo)
	if err != nil {
		return nil, err
	}

	name := normalizeName(req.Name)
	brand := &Brand{
		Name:          name,
		Slug:          Slugify(name),
		Logo:          img,
		SubCategoryID: req.SubCategoryID,
		AddedBy:       addedBy,
	}
	if err := s.db.WithContext(ctx).Create(brand).Error; err != nil {
		s.images.remove(ctx, img.Key)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.Conflict("brand already exists")
		}
		return nil, fmt.Errorf("failed to create brand: %w", err)
	}
	return brand, nil
}

func (s *BrandService) UpdateBrand(ctx context.Context, id uint, req *BrandRequest, logo *storage.Upload) (*Brand, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeouts.Database)
	defer cancel()

	var brand Brand
	if err := s.db.WithContext(ctx).First(&brand, id).Error; err != nil {
		return nil, notFound(err, "brand not found", "get brand")
	}

	brand.Name = normalizeName(req.Name)
	brand.Slug = Slugify(brand.Name)
	if req.SubCategoryID != nil {
		if err := s.ensureSubCategory(ctx, req.SubCategoryID); err != nil {
			return nil, err
		}
		brand.SubCategoryID = req.SubCategoryID
	}

	oldKey := ""
	if logo != nil {
		img, err := s.images.put(ctx, FolderBrands, logo)
		if err != nil {
			return nil, err
		}
		oldKey = brand.Logo.Key
		brand.Logo = img
	}

	if err := s.db.WithContext(ctx).Save(&brand).Error; err != nil {
		if logo != nil {
			s.images.remove(ctx, brand.Logo.Key)
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.Conflict("brand already exists")
		}
		return nil, fmt.Errorf("failed to update brand: %w", err)
	}
	s.images.remove(ctx, oldKey)

	return &brand, nil
}

// DeleteBrand removes the brand together with its products
func (s *BrandService) DeleteBrand(ctx context.Context, id uint) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeouts.Database)
	defer cancel()

	var keys []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var brand Brand
		if err := tx.First(&brand, id).Error; err != nil {
			return notFound(err, "brand not found", "get brand")
		}
		keys = append(keys, brand.Logo.Key)

		productKeys, err := deleteProductsWhere(tx, "brand_id = ?", id)
		if err != nil {
			return err
		}
		keys = append(keys, productKeys...)

		if err := tx.Delete(&brand).Error; err != nil {
			return fmt.Errorf("failed to delete brand: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.images.remove(ctx, keys...)
	return nil
}

func (s *BrandService) GetBrand(ctx context.Context, id uint) (*Brand, error) {
	var brand Brand
	if err := s.db.WithContext(ctx).First(&brand, id).Error; err != nil {
		return nil, notFound(err, "brand not found", "get brand")
	}
	return &brand, nil
}

func (s *BrandService) GetBrands(ctx context.Context, values url.Values) (*BrandListResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeouts.Database)
	defer cancel()

	brands := []Brand{}
	pagination, err := query.Find(s.db.WithContext(ctx).Model(&Brand{}), s.parser.Parse(values, BrandSchema), &brands)
	if err != nil {
		return nil, fmt.Errorf("failed to list brands: %w", err)
	}
	return &BrandListResponse{Brands: brands, Pagination: pagination}, nil
}

func (s *BrandService) ensureSubCategory(ctx context.Context, id *uint) error {
	if id == nil {
		return nil
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&SubCategory{}).Where("id = ?", *id).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check subcategory: %w", err)
	}
	if count == 0 {
		return apperror.NotFound("subcategory not found")
	}
	return nil
}
