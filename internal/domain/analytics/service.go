// internal/domain/analytics/service.go
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/shopcore/ecommerce-backend/internal/config"
	"github.com/shopcore/ecommerce-backend/internal/domain/order"
	"github.com/shopcore/ecommerce-backend/internal/domain/product"
	"github.com/shopcore/ecommerce-backend/internal/domain/user"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

// LowStockThreshold is the stock level at or below which a product is flagged
const LowStockThreshold = 5

// Service handles analytics business logic
type Service struct {
	db     *gorm.DB
	config *config.Config
	now    func() time.Time
}

// NewService creates a new analytics service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
		now:    time.Now,
	}
}

// DashboardStats represents overall dashboard statistics.
// Revenue counts non-canceled orders after discount, in minor units.
type DashboardStats struct {
	// Sales metrics
	TotalRevenue     int64   `json:"total_revenue"`
	RevenueToday     int64   `json:"revenue_today"`
	RevenueThisMonth int64   `json:"revenue_this_month"`
	RevenueGrowth    float64 `json:"revenue_growth"` // Percentage

	// Order metrics
	TotalOrders     int64 `json:"total_orders"`
	OrdersToday     int64 `json:"orders_today"`
	OrdersThisMonth int64 `json:"orders_this_month"`
	CanceledOrders  int64 `json:"canceled_orders"`
	PendingShipment int64 `json:"pending_shipment"`

	// User metrics
	TotalUsers        int64 `json:"total_users"`
	BlockedUsers      int64 `json:"blocked_users"`
	NewUsersThisMonth int64 `json:"new_users_this_month"`

	// Product metrics
	TotalProducts      int64 `json:"total_products"`
	OutOfStockProducts int64 `json:"out_of_stock_products"`
	LowStockProducts   int64 `json:"low_stock_products"`

	// Conversion metrics
	AvgOrderValue      int64   `json:"avg_order_value"`
	RepeatCustomerRate float64 `json:"repeat_customer_rate"` // Percentage
}

// SalesAnalytics represents sales over a trailing window
type SalesAnalytics struct {
	Days          int                `json:"days"`
	DailyRevenue  []TimeSeriesData   `json:"daily_revenue"`
	TotalSales    int64              `json:"total_sales"`
	TotalRevenue  int64              `json:"total_revenue"`
	AvgOrderValue int64              `json:"avg_order_value"`
	TopProducts   []ProductSalesData `json:"top_products"`
	SalesByMethod []StatusData       `json:"sales_by_payment_method"`
}

// ProductAnalytics represents product analytics data
type ProductAnalytics struct {
	TotalProducts      int64              `json:"total_products"`
	TopSellingProducts []ProductSalesData `json:"top_selling_products"`
	CategorySales      []CategoryData     `json:"category_sales"`
	LowStockProducts   []LowStockData     `json:"low_stock_products"`
	InventoryValue     int64              `json:"inventory_value"`
}

// CustomerAnalytics represents customer analytics data
type CustomerAnalytics struct {
	TotalCustomers  int64          `json:"total_customers"`
	RepeatCustomers int64          `json:"repeat_customers"`
	TopCustomers    []CustomerData `json:"top_customers"`
	LifetimeValue   int64          `json:"customer_lifetime_value"`
}

// Supporting data structures
type TimeSeriesData struct {
	Date  string `json:"date"`
	Value int64  `json:"value"`
	Count int64  `json:"count"`
}

type ProductSalesData struct {
	ProductID   uint   `json:"product_id"`
	ProductName string `json:"product_name"`
	TotalSold   int64  `json:"total_sold"`
	Revenue     int64  `json:"revenue"`
	OrderCount  int64  `json:"order_count"`
}

type CategoryData struct {
	CategoryID   uint   `json:"category_id"`
	CategoryName string `json:"category_name"`
	Revenue      int64  `json:"revenue"`
	UnitsSold    int64  `json:"units_sold"`
}

type StatusData struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
	Value  int64  `json:"value"`
}

type LowStockData struct {
	ProductID    uint   `json:"product_id"`
	ProductName  string `json:"product_name"`
	CurrentStock int    `json:"current_stock"`
}

type CustomerData struct {
	UserID     uint   `json:"user_id"`
	Email      string `json:"email"`
	TotalSpent int64  `json:"total_spent"`
	OrderCount int64  `json:"order_count"`
}

// GetDashboardStats retrieves overall dashboard statistics
func (s *Service) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeouts.Database)
	defer cancel()

	db := s.db.WithContext(ctx)
	stats := &DashboardStats{}
	now := s.now().UTC()

	// Define time periods
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	thisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	lastMonth := thisMonth.AddDate(0, -1, 0)

	orders := func() *gorm.DB { return db.Model(&order.Order{}) }
	live := func() *gorm.DB { return orders().Where("is_canceled = ?", false) }
	revenue := "COALESCE(SUM(total_price_after_discount), 0)"

	var errs error
	scan := func(q *gorm.DB, dest interface{}) {
		errs = multierr.Append(errs, q.Scan(dest).Error)
	}
	count := func(q *gorm.DB, dest *int64) {
		errs = multierr.Append(errs, q.Count(dest).Error)
	}

	// Revenue metrics
	var lastMonthRevenue int64
	scan(live().Select(revenue), &stats.TotalRevenue)
	scan(live().Select(revenue).Where("created_at >= ?", today), &stats.RevenueToday)
	scan(live().Select(revenue).Where("created_at >= ?", thisMonth), &stats.RevenueThisMonth)
	scan(live().Select(revenue).Where("created_at >= ? AND created_at < ?", lastMonth, thisMonth), &lastMonthRevenue)

	// Order metrics
	count(orders(), &stats.TotalOrders)
	count(orders().Where("created_at >= ?", today), &stats.OrdersToday)
	count(orders().Where("created_at >= ?", thisMonth), &stats.OrdersThisMonth)
	count(orders().Where("is_canceled = ?", true), &stats.CanceledOrders)
	count(live().Where("is_shipped = ?", false), &stats.PendingShipment)

	// User metrics
	count(db.Model(&user.User{}), &stats.TotalUsers)
	count(db.Model(&user.User{}).Where("is_blocked = ?", true), &stats.BlockedUsers)
	count(db.Model(&user.User{}).Where("created_at >= ?", thisMonth), &stats.NewUsersThisMonth)

	// Product metrics
	count(db.Model(&product.Product{}), &stats.TotalProducts)
	count(db.Model(&product.Product{}).Where("stock <= 0"), &stats.OutOfStockProducts)
	count(db.Model(&product.Product{}).Where("stock > 0 AND stock <= ?", LowStockThreshold), &stats.LowStockProducts)

	// Repeat customer rate
	var buyers, repeat int64
	scan(live().Select("COUNT(DISTINCT user_id)"), &buyers)
	scan(db.Table("(?) AS per_user", live().Select("user_id").Group("user_id").Having("COUNT(*) > 1")).Select("COUNT(*)"), &repeat)

	if errs != nil {
		return nil, fmt.Errorf("failed to compute dashboard stats: %w", errs)
	}

	if lastMonthRevenue > 0 {
		stats.RevenueGrowth = float64(stats.RevenueThisMonth-lastMonthRevenue) / float64(lastMonthRevenue) * 100
	}
	if placed := stats.TotalOrders - stats.CanceledOrders; placed > 0 {
		stats.AvgOrderValue = stats.TotalRevenue / placed
	}
	if buyers > 0 {
		stats.RepeatCustomerRate = float64(repeat) / float64(buyers) * 100
	}
	return stats, nil
}

// GetSalesAnalytics retrieves sales analytics for the trailing days
func (s *Service) GetSalesAnalytics(ctx context.Context, days int) (*SalesAnalytics, error) {
	// Default to 30 days if not specified
	if days <= 0 {
		days = 30
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.Timeouts.Database)
	defer cancel()

	db := s.db.WithContext(ctx)
	now := s.now().UTC()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -(days - 1))

	var placed []order.Order
	err := db.Select("id", "total_price_after_discount", "payment_method", "created_at").
		Where("is_canceled = ? AND created_at >= ?", false, start).
		Order("created_at ASC").
		Find(&placed).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get orders: %w", err)
	}

	analytics := &SalesAnalytics{Days: days}

	// Bucketing in Go keeps the date math identical across databases.
	byDay := make(map[string]*TimeSeriesData, days)
	for i := 0; i < days; i++ {
		date := start.AddDate(0, 0, i).Format("2006-01-02")
		analytics.DailyRevenue = append(analytics.DailyRevenue, TimeSeriesData{Date: date})
	}
	for i := range analytics.DailyRevenue {
		byDay[analytics.DailyRevenue[i].Date] = &analytics.DailyRevenue[i]
	}

	byMethod := map[order.PaymentMethod]*StatusData{}
	for _, o := range placed {
		if bucket, ok := byDay[o.CreatedAt.UTC().Format("2006-01-02")]; ok {
			bucket.Value += o.TotalPriceAfterDiscount
			bucket.Count++
		}
		m, ok := byMethod[o.PaymentMethod]
		if !ok {
			m = &StatusData{Status: string(o.PaymentMethod)}
			byMethod[o.PaymentMethod] = m
		}
		m.Count++
		m.Value += o.TotalPriceAfterDiscount

		analytics.TotalSales++
		analytics.TotalRevenue += o.TotalPriceAfterDiscount
	}
	for _, method := range []order.PaymentMethod{order.PaymentMethodCash, order.PaymentMethodCard} {
		if m, ok := byMethod[method]; ok {
			analytics.SalesByMethod = append(analytics.SalesByMethod, *m)
		}
	}
	if analytics.TotalSales > 0 {
		analytics.AvgOrderValue = analytics.TotalRevenue / analytics.TotalSales
	}

	analytics.TopProducts, err = topProducts(db, start, 10)
	if err != nil {
		return nil, err
	}
	return analytics, nil
}

// GetProductAnalytics retrieves product analytics data
func (s *Service) GetProductAnalytics(ctx context.Context) (*ProductAnalytics, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeouts.Database)
	defer cancel()

	db := s.db.WithContext(ctx)
	analytics := &ProductAnalytics{}

	var errs error
	errs = multierr.Append(errs, db.Model(&product.Product{}).Count(&analytics.TotalProducts).Error)
	errs = multierr.Append(errs, db.Model(&product.Product{}).
		Select("COALESCE(SUM(stock * sub_price), 0)").Scan(&analytics.InventoryValue).Error)

	analytics.LowStockProducts = []LowStockData{}
	errs = multierr.Append(errs, db.Model(&product.Product{}).
		Select("id AS product_id, title AS product_name, stock AS current_stock").
		Where("stock <= ?", LowStockThreshold).
		Order("stock ASC, id ASC").
		Limit(20).
		Scan(&analytics.LowStockProducts).Error)

	analytics.CategorySales = []CategoryData{}
	errs = multierr.Append(errs, db.Table("order_items").
		Select("categories.id AS category_id, categories.name AS category_name, "+
			"COALESCE(SUM(order_items.total_price), 0) AS revenue, COALESCE(SUM(order_items.quantity), 0) AS units_sold").
		Joins("JOIN orders ON orders.id = order_items.order_id AND orders.is_canceled = ?", false).
		Joins("JOIN products ON products.id = order_items.product_id").
		Joins("JOIN categories ON categories.id = products.category_id").
		Group("categories.id, categories.name").
		Order("revenue DESC").
		Scan(&analytics.CategorySales).Error)

	if errs != nil {
		return nil, fmt.Errorf("failed to compute product analytics: %w", errs)
	}

	top, err := topProducts(db, time.Time{}, 10)
	if err != nil {
		return nil, err
	}
	analytics.TopSellingProducts = top
	return analytics, nil
}

// GetCustomerAnalytics retrieves customer analytics data
func (s *Service) GetCustomerAnalytics(ctx context.Context) (*CustomerAnalytics, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeouts.Database)
	defer cancel()

	db := s.db.WithContext(ctx)
	analytics := &CustomerAnalytics{TopCustomers: []CustomerData{}}
	live := db.Model(&order.Order{}).Where("is_canceled = ?", false)

	var revenue int64
	var errs error
	errs = multierr.Append(errs, live.Session(&gorm.Session{}).Select("COUNT(DISTINCT user_id)").Scan(&analytics.TotalCustomers).Error)
	errs = multierr.Append(errs, live.Session(&gorm.Session{}).Select("COALESCE(SUM(total_price_after_discount), 0)").Scan(&revenue).Error)
	errs = multierr.Append(errs, db.Table("(?) AS per_user",
		live.Session(&gorm.Session{}).Select("user_id").Group("user_id").Having("COUNT(*) > 1")).
		Select("COUNT(*)").Scan(&analytics.RepeatCustomers).Error)
	errs = multierr.Append(errs, db.Table("orders").
		Select("orders.user_id AS user_id, users.email AS email, "+
			"SUM(orders.total_price_after_discount) AS total_spent, COUNT(*) AS order_count").
		Joins("JOIN users ON users.id = orders.user_id").
		Where("orders.is_canceled = ?", false).
		Group("orders.user_id, users.email").
		Order("total_spent DESC, orders.user_id ASC").
		Limit(10).
		Scan(&analytics.TopCustomers).Error)
	if errs != nil {
		return nil, fmt.Errorf("failed to compute customer analytics: %w", errs)
	}

	if analytics.TotalCustomers > 0 {
		analytics.LifetimeValue = revenue / analytics.TotalCustomers
	}
	return analytics, nil
}

// topProducts ranks products by units sold in non-canceled orders since start
func topProducts(db *gorm.DB, since time.Time, limit int) ([]ProductSalesData, error) {
	q := db.Table("order_items").
		Select("order_items.product_id AS product_id, MAX(order_items.title) AS product_name, " +
			"SUM(order_items.quantity) AS total_sold, SUM(order_items.total_price) AS revenue, " +
			"COUNT(DISTINCT order_items.order_id) AS order_count").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.is_canceled = ?", false)
	if !since.IsZero() {
		q = q.Where("orders.created_at >= ?", since)
	}

	top := []ProductSalesData{}
	err := q.Group("order_items.product_id").
		Order("total_sold DESC, order_items.product_id ASC").
		Limit(limit).
		Scan(&top).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get top products: %w", err)
	}
	return top, nil
}
