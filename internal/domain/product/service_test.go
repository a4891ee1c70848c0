package product

import (
	"context"
	"net/url"
	"testing"

	"github.com/shopcore/ecommerce-backend/internal/pkg/apperror"
	"github.com/shopcore/ecommerce-backend/internal/pkg/logger"
	"github.com/shopcore/ecommerce-backend/internal/pkg/storage"
	"github.com/shopcore/ecommerce-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type catalogFixture struct {
	db          *gorm.DB
	store       *storage.Memory
	categories  *CategoryService
	subs        *SubCategoryService
	brands      *BrandService
	products    *Service
	category    *Category
	subCategory *SubCategory
	brand       *Brand
}

func newCatalog(t *testing.T) *catalogFixture {
	t.Helper()
	db := testutil.NewDB(t, &Category{}, &SubCategory{}, &Brand{}, &Product{}, &ProductImage{})
	cfg := testutil.Config()
	store := storage.NewMemory("memory://")
	log := logger.Discard()

	f := &catalogFixture{
		db:         db,
		store:      store,
		categories: NewCategoryService(db, cfg, store, log),
		subs:       NewSubCategoryService(db, cfg, store, log),
		brands:     NewBrandService(db, cfg, store, log),
		products:   NewService(db, cfg, store, log),
	}

	ctx := context.Background()
	var err error
	f.category, err = f.categories.CreateCategory(ctx, &CategoryRequest{Name: "Shoes"}, testutil.Upload("c.png"), 1)
	require.NoError(t, err)
	f.subCategory, err = f.subs.CreateSubCategory(ctx, &SubCategoryCreateRequest{Name: "Running", CategoryID: f.category.ID}, testutil.Upload("s.png"), 1)
	require.NoError(t, err)
	f.brand, err = f.brands.CreateBrand(ctx, &BrandRequest{Name: "Acme", SubCategoryID: &f.subCategory.ID}, testutil.Upload("b.png"), 1)
	require.NoError(t, err)
	return f
}

func (f *catalogFixture) createProduct(t *testing.T, title string, price int64, discount, stock int) *Product {
	t.Helper()
	p, err := f.products.CreateProduct(context.Background(), &ProductCreateRequest{
		Title:         title,
		Description:   "a product used in tests",
		CategoryID:    f.category.ID,
		SubCategoryID: f.subCategory.ID,
		BrandID:       f.brand.ID,
		Price:         price,
		Discount:      discount,
		Stock:         stock,
	}, ProductImages{Image: testutil.Upload("p.png")}, 1)
	require.NoError(t, err)
	return p
}

func TestCreateProductPricesAndNormalizes(t *testing.T) {
	f := newCatalog(t)

	p, err := f.products.CreateProduct(context.Background(), &ProductCreateRequest{
		Title:         "  Trail Runner ",
		Description:   "lightweight trail shoe",
		CategoryID:    f.category.ID,
		SubCategoryID: f.subCategory.ID,
		BrandID:       f.brand.ID,
		Price:         1999,
		Discount:      15,
		Stock:         4,
	}, ProductImages{
		Image:  testutil.Upload("main.png"),
		Covers: []*storage.Upload{testutil.Upload("a.png"), testutil.Upload("b.png")},
	}, 7)
	require.NoError(t, err)

	assert.Equal(t, "trail runner", p.Title)
	assert.Equal(t, "trail-runner", p.Slug)
	assert.Equal(t, int64(1699), p.SubPrice)
	assert.NotEmpty(t, p.Image.URL)

	got, err := f.products.GetProduct(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Len(t, got.CoverImages, 2)
	// three fixture images plus main and two covers
	assert.Equal(t, 6, f.store.Len())
}

func TestCreateProductRejectsDuplicatesAndBadRefs(t *testing.T) {
	f := newCatalog(t)
	f.createProduct(t, "Runner", 100, 0, 1)
	ctx := context.Background()

	_, err := f.products.CreateProduct(ctx, &ProductCreateRequest{
		Title: "RUNNER", Description: "duplicate title here", CategoryID: f.category.ID,
		SubCategoryID: f.subCategory.ID, BrandID: f.brand.ID, Price: 100,
	}, ProductImages{Image: testutil.Upload("p.png")}, 1)
	assert.True(t, apperror.Is(err, apperror.KindConflict))

	other, err := f.categories.CreateCategory(ctx, &CategoryRequest{Name: "Hats"}, testutil.Upload("h.png"), 1)
	require.NoError(t, err)
	_, err = f.products.CreateProduct(ctx, &ProductCreateRequest{
		Title: "Cap", Description: "mismatched category", CategoryID: other.ID,
		SubCategoryID: f.subCategory.ID, BrandID: f.brand.ID, Price: 100,
	}, ProductImages{Image: testutil.Upload("p.png")}, 1)
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	_, err = f.products.CreateProduct(ctx, &ProductCreateRequest{
		Title: "Ghost", Description: "missing brand here", CategoryID: f.category.ID,
		SubCategoryID: f.subCategory.ID, BrandID: 999, Price: 100,
	}, ProductImages{Image: testutil.Upload("p.png")}, 1)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	_, err = f.products.CreateProduct(ctx, &ProductCreateRequest{
		Title: "No Image", Description: "image is missing", CategoryID: f.category.ID,
		SubCategoryID: f.subCategory.ID, BrandID: f.brand.ID, Price: 100,
	}, ProductImages{}, 1)
	assert.True(t, apperror.Is(err, apperror.KindValidation))
}

func TestUpdateProductReplacesImagesAndReprices(t *testing.T) {
	f := newCatalog(t)
	p := f.createProduct(t, "Runner", 1000, 0, 1)
	oldKey := p.Image.Key
	ctx := context.Background()

	discount := 25
	updated, err := f.products.UpdateProduct(ctx, p.ID, &ProductUpdateRequest{Discount: &discount},
		ProductImages{Image: testutil.Upload("new.png"), Covers: []*storage.Upload{testutil.Upload("c1.png")}})
	require.NoError(t, err)

	assert.Equal(t, int64(750), updated.SubPrice)
	assert.NotEqual(t, oldKey, updated.Image.Key)
	_, ok := f.store.Get(oldKey)
	assert.False(t, ok)

	got, err := f.products.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 25, got.Discount)
	assert.Len(t, got.CoverImages, 1)
}

func TestDeleteProduct(t *testing.T) {
	f := newCatalog(t)
	p := f.createProduct(t, "Runner", 100, 0, 1)
	ctx := context.Background()

	require.NoError(t, f.products.DeleteProduct(ctx, p.ID))
	_, err := f.products.GetProduct(ctx, p.ID)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	err = f.products.DeleteProduct(ctx, p.ID)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestGetProductsUsesPipeline(t *testing.T) {
	f := newCatalog(t)
	for _, title := range []string{"Red Shoes", "Blue Shoes", "Red Hat", "Green Socks"} {
		f.createProduct(t, title, 100, 0, 1)
	}

	res, err := f.products.GetProducts(context.Background(), url.Values{"search": {"RED"}})
	require.NoError(t, err)
	assert.Len(t, res.Products, 2)
	assert.Equal(t, int64(2), res.Pagination.Total)

	res, err = f.products.GetProducts(context.Background(), url.Values{"page": {"2"}})
	require.NoError(t, err)
	assert.Len(t, res.Products, 1)
	assert.Equal(t, 2, res.Pagination.TotalPages)
}

func TestStockGuards(t *testing.T) {
	f := newCatalog(t)
	p := f.createProduct(t, "Runner", 100, 0, 5)

	require.NoError(t, DecrementStock(f.db, p.ID, 3))
	err := DecrementStock(f.db, p.ID, 3)
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	require.NoError(t, RestoreStock(f.db, p.ID, 3))
	got, err := Lookup(f.db, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Stock)

	err = DecrementStock(f.db, 999, 1)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestDeleteCategoryCascades(t *testing.T) {
	f := newCatalog(t)
	f.createProduct(t, "Runner", 100, 0, 1)
	ctx := context.Background()

	require.NoError(t, f.categories.DeleteCategory(ctx, f.category.ID))

	var products, subs int64
	f.db.Model(&Product{}).Count(&products)
	f.db.Model(&SubCategory{}).Count(&subs)
	assert.Zero(t, products)
	assert.Zero(t, subs)

	brand, err := f.brands.GetBrand(ctx, f.brand.ID)
	require.NoError(t, err)
	assert.Nil(t, brand.SubCategoryID)
	// only the brand logo is left
	assert.Equal(t, 1, f.store.Len())
}

func TestCategoryNamesAreUnique(t *testing.T) {
	f := newCatalog(t)
	_, err := f.categories.CreateCategory(context.Background(), &CategoryRequest{Name: " SHOES"}, testutil.Upload("x.png"), 1)
	assert.True(t, apperror.Is(err, apperror.KindConflict))

	_, err = f.subs.CreateSubCategory(context.Background(),
		&SubCategoryCreateRequest{Name: "running", CategoryID: f.category.ID}, testutil.Upload("x.png"), 1)
	assert.True(t, apperror.Is(err, apperror.KindConflict))
}

func TestGetCategoryIncludesSubCategories(t *testing.T) {
	f := newCatalog(t)

	got, err := f.categories.GetCategory(context.Background(), f.category.ID)
	require.NoError(t, err)
	require.Len(t, got.SubCategories, 1)
	assert.Equal(t, "running", got.SubCategories[0].Name)

	list, err := f.subs.GetSubCategories(context.Background(), 999, nil)
	assert.Nil(t, list)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "red-shoes-2024", Slugify("  Red  Shoes, 2024! "))
	assert.Equal(t, "", Slugify("!!!"))
}
