// internal/domain/product/entity.go
package product

import (
	"time"

	"github.com/shopcore/ecommerce-backend/internal/pkg/money"
	"github.com/shopcore/ecommerce-backend/internal/pkg/query"
)

// Image is a stored file reference embedded in catalog rows
type Image struct {
	URL string `gorm:"size:500" json:"url"`
	Key string `gorm:"size:500" json:"-"`
}

// Category represents product categories
type Category struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;not null;size:50" json:"name"`
	Slug      string    `gorm:"not null;size:80" json:"slug"`
	Image     Image     `gorm:"embedded;embeddedPrefix:image_" json:"image"`
	AddedBy   uint      `gorm:"not null" json:"added_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	SubCategories []SubCategory `gorm:"foreignKey:CategoryID" json:"sub_categories,omitempty"`
}

// SubCategory belongs to exactly one category
type SubCategory struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"not null;size:50;uniqueIndex:idx_sub_categories_category_name" json:"name"`
	Slug       string    `gorm:"not null;size:80" json:"slug"`
	CategoryID uint      `gorm:"not null;index;uniqueIndex:idx_sub_categories_category_name" json:"category_id"`
	Image      Image     `gorm:"embedded;embeddedPrefix:image_" json:"image"`
	AddedBy    uint      `gorm:"not null" json:"added_by"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Brand represents product brands
type Brand struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Name          string    `gorm:"uniqueIndex;not null;size:50" json:"name"`
	Slug          string    `gorm:"not null;size:80" json:"slug"`
	Logo          Image     `gorm:"embedded;embeddedPrefix:logo_" json:"logo"`
	SubCategoryID *uint     `gorm:"index" json:"sub_category_id"`
	AddedBy       uint      `gorm:"not null" json:"added_by"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Product represents the product entity. Prices are minor units.
type Product struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Title         string    `gorm:"uniqueIndex;not null;size:60" json:"title"`
	Slug          string    `gorm:"uniqueIndex;not null;size:80" json:"slug"`
	Description   string    `gorm:"type:text;not null" json:"description"`
	CategoryID    uint      `gorm:"not null;index" json:"category_id"`
	SubCategoryID uint      `gorm:"not null;index" json:"sub_category_id"`
	BrandID       uint      `gorm:"not null;index" json:"brand_id"`
	Price         int64     `gorm:"not null" json:"price"`
	Discount      int       `gorm:"not null;default:0" json:"discount"`
	SubPrice      int64     `gorm:"not null" json:"sub_price"`
	Stock         int       `gorm:"not null;default:0" json:"stock"`
	RateAvg       float64   `gorm:"not null;default:0" json:"rate_avg"`
	RateNum       int       `gorm:"not null;default:0" json:"rate_num"`
	Image         Image     `gorm:"embedded;embeddedPrefix:image_" json:"image"`
	AddedBy       uint      `gorm:"not null" json:"added_by"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	CoverImages []ProductImage `gorm:"foreignKey:ProductID" json:"cover_images,omitempty"`
}

// ProductImage is one of a product's cover images
type ProductImage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProductID uint      `gorm:"not null;index" json:"product_id"`
	URL       string    `gorm:"not null;size:500" json:"url"`
	Key       string    `gorm:"not null;size:500" json:"-"`
	SortOrder int       `gorm:"default:0" json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName overrides
func (Product) TableName() string      { return "products" }
func (Category) TableName() string     { return "categories" }
func (SubCategory) TableName() string  { return "sub_categories" }
func (Brand) TableName() string        { return "brands" }
func (ProductImage) TableName() string { return "product_images" }

// Reprice keeps SubPrice in step with Price and Discount
func (p *Product) Reprice() {
	p.SubPrice = money.ApplyDiscount(p.Price, p.Discount)
}

// IsInStock reports whether any units are left
func (p *Product) IsInStock() bool {
	return p.Stock > 0
}

// Fields exposed to list filters, projections and sorts
var (
	CategorySchema = query.Schema{
		Fields: map[string]query.FieldKind{
			"name": query.String, "slug": query.String, "added_by": query.Number,
			"created_at": query.Time, "updated_at": query.Time,
		},
		Searchable: []string{"name"},
	}

	SubCategorySchema = query.Schema{
		Fields: map[string]query.FieldKind{
			"name": query.String, "slug": query.String, "category_id": query.Number,
			"added_by": query.Number, "created_at": query.Time, "updated_at": query.Time,
		},
		Searchable: []string{"name"},
	}

	BrandSchema = query.Schema{
		Fields: map[string]query.FieldKind{
			"name": query.String, "slug": query.String, "sub_category_id": query.Number,
			"added_by": query.Number, "created_at": query.Time, "updated_at": query.Time,
		},
		Searchable: []string{"name"},
	}

	ProductSchema = query.Schema{
		Fields: map[string]query.FieldKind{
			"title": query.String, "slug": query.String, "description": query.String,
			"category_id": query.Number, "sub_category_id": query.Number, "brand_id": query.Number,
			"price": query.Number, "discount": query.Number, "sub_price": query.Number,
			"stock": query.Number, "rate_avg": query.Number, "rate_num": query.Number,
			"image_url": query.String, "added_by": query.Number, "created_at": query.Time, "updated_at": query.Time,
		},
		Searchable: []string{"title", "description"},
	}
)
