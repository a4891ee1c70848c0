package analytics

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopcore/ecommerce-backend/internal/domain/order"
	"github.com/shopcore/ecommerce-backend/internal/domain/product"
	"github.com/shopcore/ecommerce-backend/internal/domain/user"
	"github.com/shopcore/ecommerce-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var now = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

type line struct {
	product *product.Product
	qty     int
	total   int64
}

type store struct {
	db     *gorm.DB
	orders int
}

func (s *store) order(t *testing.T, userID uint, at time.Time, method order.PaymentMethod, canceled bool, lines ...line) {
	t.Helper()
	s.orders++
	o := order.Order{
		OrderNumber:   fmt.Sprintf("ORD-%d", s.orders),
		UserID:        userID,
		PaymentMethod: method,
		IsPlaced:      true,
		IsCanceled:    canceled,
		CreatedAt:     at,
	}
	for _, l := range lines {
		o.Items = append(o.Items, order.OrderItem{
			ProductID: l.product.ID, Title: l.product.Title, Quantity: l.qty,
			Price: l.total / int64(l.qty), TotalPrice: l.total,
		})
		o.TotalPrice += l.total
	}
	o.TotalPriceAfterDiscount = o.TotalPrice
	require.NoError(t, s.db.Create(&o).Error)
}

func seed(t *testing.T) *Service {
	t.Helper()
	db := testutil.NewDB(t,
		&user.User{}, &product.Category{}, &product.SubCategory{}, &product.Product{},
		&order.Order{}, &order.OrderItem{},
	)

	users := []user.User{
		{Email: "a@example.com", Password: "x", FirstName: "Ann", LastName: "Lee", CreatedAt: now},
		{Email: "b@example.com", Password: "x", FirstName: "Bob", LastName: "Ray", CreatedAt: now.AddDate(0, -2, 0), IsBlocked: true},
	}
	require.NoError(t, db.Create(&users).Error)

	shoes := product.Category{Name: "shoes", Slug: "shoes"}
	require.NoError(t, db.Create(&shoes).Error)
	boot := &product.Product{Title: "boot", Slug: "boot", Description: "a boot", CategoryID: shoes.ID, Price: 100, Stock: 3}
	sock := &product.Product{Title: "sock", Slug: "sock", Description: "a sock", CategoryID: shoes.ID, Price: 50, Stock: 20}
	for _, p := range []*product.Product{boot, sock} {
		p.Reprice()
		require.NoError(t, db.Create(p).Error)
	}

	s := &store{db: db}
	s.order(t, users[0].ID, now.Add(-2*time.Hour), order.PaymentMethodCash, false, line{boot, 2, 500})
	s.order(t, users[0].ID, now.AddDate(0, 0, -1), order.PaymentMethodCard, false, line{sock, 1, 300})
	s.order(t, users[1].ID, now.AddDate(0, -1, -5), order.PaymentMethodCash, false, line{boot, 1, 700})
	s.order(t, users[1].ID, now.Add(-time.Hour), order.PaymentMethodCash, true, line{sock, 5, 999})

	svc := NewService(db, testutil.Config())
	svc.now = func() time.Time { return now }
	return svc
}

func TestDashboardStats(t *testing.T) {
	svc := seed(t)

	stats, err := svc.GetDashboardStats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(1500), stats.TotalRevenue)
	assert.Equal(t, int64(500), stats.RevenueToday)
	assert.Equal(t, int64(800), stats.RevenueThisMonth)
	assert.InDelta(t, 14.2857, stats.RevenueGrowth, 0.001)

	assert.Equal(t, int64(4), stats.TotalOrders)
	assert.Equal(t, int64(2), stats.OrdersToday)
	assert.Equal(t, int64(3), stats.OrdersThisMonth)
	assert.Equal(t, int64(1), stats.CanceledOrders)
	assert.Equal(t, int64(3), stats.PendingShipment)
	assert.Equal(t, int64(500), stats.AvgOrderValue)

	assert.Equal(t, int64(2), stats.TotalUsers)
	assert.Equal(t, int64(1), stats.BlockedUsers)
	assert.Equal(t, int64(1), stats.NewUsersThisMonth)

	assert.Equal(t, int64(2), stats.TotalProducts)
	assert.Equal(t, int64(1), stats.LowStockProducts)
	assert.Zero(t, stats.OutOfStockProducts)
	assert.InDelta(t, 50.0, stats.RepeatCustomerRate, 0.001)
}

func TestSalesAnalytics(t *testing.T) {
	svc := seed(t)

	sales, err := svc.GetSalesAnalytics(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, int64(2), sales.TotalSales)
	assert.Equal(t, int64(800), sales.TotalRevenue)
	assert.Equal(t, int64(400), sales.AvgOrderValue)

	require.Len(t, sales.DailyRevenue, 7)
	assert.Equal(t, "2026-03-09", sales.DailyRevenue[0].Date)
	assert.Equal(t, TimeSeriesData{Date: "2026-03-15", Value: 500, Count: 1}, sales.DailyRevenue[6])
	assert.Equal(t, TimeSeriesData{Date: "2026-03-14", Value: 300, Count: 1}, sales.DailyRevenue[5])

	assert.Equal(t, []StatusData{
		{Status: "cash", Count: 1, Value: 500},
		{Status: "card", Count: 1, Value: 300},
	}, sales.SalesByMethod)

	require.Len(t, sales.TopProducts, 2)
	assert.Equal(t, "boot", sales.TopProducts[0].ProductName)
	assert.Equal(t, int64(2), sales.TopProducts[0].TotalSold)
}

func TestProductAnalytics(t *testing.T) {
	svc := seed(t)

	res, err := svc.GetProductAnalytics(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(2), res.TotalProducts)
	assert.Equal(t, int64(3*100+20*50), res.InventoryValue)
	require.Len(t, res.LowStockProducts, 1)
	assert.Equal(t, "boot", res.LowStockProducts[0].ProductName)

	require.Len(t, res.CategorySales, 1)
	assert.Equal(t, CategoryData{CategoryID: 1, CategoryName: "shoes", Revenue: 1500, UnitsSold: 4}, res.CategorySales[0])

	require.Len(t, res.TopSellingProducts, 2)
	assert.Equal(t, int64(3), res.TopSellingProducts[0].TotalSold)
	assert.Equal(t, int64(2), res.TopSellingProducts[0].OrderCount)
}

func TestCustomerAnalytics(t *testing.T) {
	svc := seed(t)

	res, err := svc.GetCustomerAnalytics(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(2), res.TotalCustomers)
	assert.Equal(t, int64(1), res.RepeatCustomers)
	assert.Equal(t, int64(750), res.LifetimeValue)
	require.Len(t, res.TopCustomers, 2)
	assert.Equal(t, CustomerData{UserID: 1, Email: "a@example.com", TotalSpent: 800, OrderCount: 2}, res.TopCustomers[0])
}
