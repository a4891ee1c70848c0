// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shopcore/ecommerce-backend/internal/config"
	"github.com/shopcore/ecommerce-backend/internal/domain/admin"
	"github.com/shopcore/ecommerce-backend/internal/domain/analytics"
	"github.com/shopcore/ecommerce-backend/internal/domain/cart"
	"github.com/shopcore/ecommerce-backend/internal/domain/checkout"
	"github.com/shopcore/ecommerce-backend/internal/domain/coupon"
	"github.com/shopcore/ecommerce-backend/internal/domain/order"
	"github.com/shopcore/ecommerce-backend/internal/domain/product"
	"github.com/shopcore/ecommerce-backend/internal/domain/review"
	"github.com/shopcore/ecommerce-backend/internal/domain/user"
	"github.com/shopcore/ecommerce-backend/internal/domain/wishlist"
	"github.com/shopcore/ecommerce-backend/internal/interfaces/http/handlers"
	"github.com/shopcore/ecommerce-backend/internal/interfaces/http/middleware"
	"github.com/shopcore/ecommerce-backend/internal/pkg/auth"
	"github.com/shopcore/ecommerce-backend/internal/pkg/email"
	"github.com/shopcore/ecommerce-backend/internal/pkg/metrics"
	"github.com/shopcore/ecommerce-backend/internal/pkg/payment"
	"github.com/shopcore/ecommerce-backend/internal/pkg/pdf"
	"github.com/shopcore/ecommerce-backend/internal/pkg/storage"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	roleAdmin      = "admin"
	roleSuperAdmin = "superadmin"
)

// Dependencies are the shared clients the API is built from. OTPs and Events
// default to Redis-backed stores when nil.
type Dependencies struct {
	DB      *gorm.DB
	Redis   *redis.Client
	Config  *config.Config
	Logger  *logrus.Logger
	Storage storage.Storage
	Gateway payment.Gateway
	Mailer  email.Sender
	Metrics *metrics.Metrics
	OTPs    user.OTPStore
	Events  checkout.EventStore
}

// SetupRoutes builds every service and registers the API under rg
func SetupRoutes(rg *gin.RouterGroup, deps Dependencies) {
	cfg := deps.Config
	db := deps.DB

	otps := deps.OTPs
	if otps == nil {
		otps = auth.NewOTPStore(deps.Redis, cfg.JWT.OTPExpiry)
	}
	events := deps.Events
	if events == nil {
		events = checkout.NewRedisEventStore(deps.Redis, checkout.DefaultEventTTL)
	}

	userService := user.NewService(db, cfg, otps, deps.Mailer, deps.Logger)
	addressService := user.NewAddressService(db, cfg)
	userAdminService := user.NewAdminService(db, cfg, deps.Logger)
	applicationService := admin.NewService(db, cfg, deps.Logger)

	categoryService := product.NewCategoryService(db, cfg, deps.Storage, deps.Logger)
	subCategoryService := product.NewSubCategoryService(db, cfg, deps.Storage, deps.Logger)
	brandService := product.NewBrandService(db, cfg, deps.Storage, deps.Logger)
	productService := product.NewService(db, cfg, deps.Storage, deps.Logger)

	cartService := cart.NewService(db, cfg, deps.Metrics)
	couponService := coupon.NewService(db, cfg)
	orderService := order.NewService(db, cfg)
	reviewService := review.NewService(db, cfg)
	wishlistService := wishlist.NewService(db, cfg, cartService)
	analyticsService := analytics.NewService(db, cfg)
	checkoutService := checkout.NewService(db, cfg, checkout.Dependencies{
		Gateway:   deps.Gateway,
		Customers: userService,
		Events:    events,
		Invoices:  pdf.NewService(cfg.Company),
		Storage:   deps.Storage,
		Mailer:    deps.Mailer,
		Metrics:   deps.Metrics,
		Logger:    deps.Logger,
	})

	jwtManager := auth.NewJWTManager(cfg)
	requireAuth := middleware.RequireAuth(jwtManager, userService)
	staffOnly := middleware.RequireRoles(roleAdmin, roleSuperAdmin)

	setupAuthRoutes(rg, handlers.NewAuthHandler(userService))
	setupUserRoutes(rg, requireAuth,
		handlers.NewUserProfileHandler(userService, applicationService),
		handlers.NewUserAddressHandler(addressService))
	setupCatalogRoutes(rg, requireAuth, staffOnly,
		handlers.NewCategoryHandler(categoryService, subCategoryService, cfg),
		handlers.NewBrandHandler(brandService, cfg),
		handlers.NewProductHandler(productService, cfg),
		handlers.NewReviewHandler(reviewService))
	setupShoppingRoutes(rg, requireAuth,
		handlers.NewCartHandler(cartService),
		handlers.NewWishlistHandler(wishlistService))

	orderHandler := handlers.NewOrderHandler(orderService)
	invoiceHandler := handlers.NewInvoiceHandler(orderService, deps.Storage)
	paymentHandler := handlers.NewPaymentHandler(checkoutService, deps.Logger)
	setupOrderRoutes(rg, requireAuth, orderHandler, invoiceHandler,
		handlers.NewCheckoutHandler(checkoutService), paymentHandler)

	rg.POST("/webhooks/stripe", paymentHandler.WebhookHandler)

	setupAdminRoutes(rg, requireAuth, staffOnly, adminHandlers{
		orders:       orderHandler,
		invoices:     invoiceHandler,
		coupons:      handlers.NewCouponHandler(couponService),
		users:        handlers.NewUserAdminHandler(userAdminService),
		applications: handlers.NewAdminApplicationHandler(applicationService),
		analytics:    handlers.NewAnalyticsHandler(analyticsService),
	})
}

// setupAuthRoutes sets up authentication related routes
func setupAuthRoutes(rg *gin.RouterGroup, h *handlers.AuthHandler) {
	auth := rg.Group("/auth")
	{
		auth.POST("/signup", h.SignUp)
		auth.POST("/verify-email", h.VerifyEmail)
		auth.POST("/resend-otp", h.ResendOTP)
		auth.POST("/signin", h.SignIn)
		auth.POST("/refresh", h.RefreshToken)
		auth.POST("/forgot-password", h.ForgotPassword)
		auth.POST("/reset-password", h.ResetPassword)
	}
}

// setupUserRoutes sets up the signed-in user's account routes
func setupUserRoutes(rg *gin.RouterGroup, requireAuth gin.HandlerFunc, profile *handlers.UserProfileHandler, addresses *handlers.UserAddressHandler) {
	me := rg.Group("/users/me")
	me.Use(requireAuth)
	{
		me.GET("", profile.GetProfile)
		me.PUT("", profile.UpdateProfile)
		me.PUT("/password", profile.ChangePassword)
		me.PUT("/email", profile.ChangeEmail)
		me.POST("/admin-application", profile.ApplyForRole)

		me.GET("/addresses", addresses.GetAddresses)
		me.POST("/addresses", addresses.CreateAddress)
		me.GET("/addresses/:id", addresses.GetAddress)
		me.PUT("/addresses/:id", addresses.UpdateAddress)
		me.DELETE("/addresses/:id", addresses.DeleteAddress)
		me.PUT("/addresses/:id/default", addresses.SetDefaultAddress)
	}
}

// setupCatalogRoutes sets up the public catalog with staff-only writes
func setupCatalogRoutes(rg *gin.RouterGroup, requireAuth, staffOnly gin.HandlerFunc, categories *handlers.CategoryHandler, brands *handlers.BrandHandler, products *handlers.ProductHandler, reviews *handlers.ReviewHandler) {
	rg.GET("/categories", categories.GetCategories)
	rg.GET("/categories/:id", categories.GetCategory)
	rg.GET("/categories/:id/subcategories", categories.GetSubCategories)
	rg.GET("/subcategories", categories.GetSubCategories)
	rg.GET("/subcategories/:id", categories.GetSubCategory)
	rg.GET("/brands", brands.GetBrands)
	rg.GET("/brands/:id", brands.GetBrand)
	rg.GET("/products", products.GetProducts)
	rg.GET("/products/:id", products.GetProduct)
	rg.GET("/products/:id/reviews", reviews.GetProductReviews)

	signedIn := rg.Group("")
	signedIn.Use(requireAuth)
	{
		signedIn.POST("/products/:id/reviews", reviews.AddReview)
		signedIn.DELETE("/products/:id/reviews/:reviewId", reviews.DeleteReview)
	}

	staff := rg.Group("")
	staff.Use(requireAuth, staffOnly)
	{
		staff.POST("/categories", categories.CreateCategory)
		staff.PUT("/categories/:id", categories.UpdateCategory)
		staff.DELETE("/categories/:id", categories.DeleteCategory)

		staff.POST("/subcategories", categories.CreateSubCategory)
		staff.PUT("/subcategories/:id", categories.UpdateSubCategory)
		staff.DELETE("/subcategories/:id", categories.DeleteSubCategory)

		staff.POST("/brands", brands.CreateBrand)
		staff.PUT("/brands/:id", brands.UpdateBrand)
		staff.DELETE("/brands/:id", brands.DeleteBrand)

		staff.POST("/products", products.CreateProduct)
		staff.PUT("/products/:id", products.UpdateProduct)
		staff.DELETE("/products/:id", products.DeleteProduct)
	}
}

// setupShoppingRoutes sets up cart and wishlist routes
func setupShoppingRoutes(rg *gin.RouterGroup, requireAuth gin.HandlerFunc, carts *handlers.CartHandler, wishlists *handlers.WishlistHandler) {
	cart := rg.Group("/cart")
	cart.Use(requireAuth)
	{
		cart.GET("", carts.GetCart)
		cart.POST("", carts.AddToCart)
		cart.DELETE("", carts.ClearCart)
		cart.PUT("/items/:productId", carts.UpdateCartItem)
		cart.DELETE("/items/:productId", carts.RemoveFromCart)
		cart.POST("/coupon", carts.ApplyCoupon)
	}

	wishlist := rg.Group("/wishlist")
	wishlist.Use(requireAuth)
	{
		wishlist.GET("", wishlists.GetWishlist)
		wishlist.POST("", wishlists.AddToWishlist)
		wishlist.DELETE("", wishlists.ClearWishlist)
		wishlist.DELETE("/:productId", wishlists.RemoveFromWishlist)
		wishlist.GET("/:productId/status", wishlists.CheckWishlist)
		wishlist.POST("/:productId/move-to-cart", wishlists.MoveToCart)
	}
}

// setupOrderRoutes sets up the buyer's order and payment routes
func setupOrderRoutes(rg *gin.RouterGroup, requireAuth gin.HandlerFunc, orders *handlers.OrderHandler, invoices *handlers.InvoiceHandler, checkouts *handlers.CheckoutHandler, payments *handlers.PaymentHandler) {
	group := rg.Group("/orders")
	group.Use(requireAuth)
	{
		group.GET("", orders.GetMyOrders)
		group.POST("", checkouts.PlaceCashOrder)
		group.POST("/checkout-session", payments.CreateCheckoutSession)
		group.GET("/:id", orders.GetMyOrder)
		group.PATCH("/:id/cancel", orders.CancelOrder)
		group.GET("/:id/receipt", invoices.GetReceipt)
		group.GET("/:id/receipt/download", invoices.DownloadReceipt)
	}
}

type adminHandlers struct {
	orders       *handlers.OrderHandler
	invoices     *handlers.InvoiceHandler
	coupons      *handlers.CouponHandler
	users        *handlers.UserAdminHandler
	applications *handlers.AdminApplicationHandler
	analytics    *handlers.AnalyticsHandler
}

// setupAdminRoutes sets up staff routes. Role applications are decided by superadmins only.
func setupAdminRoutes(rg *gin.RouterGroup, requireAuth, staffOnly gin.HandlerFunc, h adminHandlers) {
	admin := rg.Group("/admin")
	admin.Use(requireAuth, staffOnly)
	{
		orders := admin.Group("/orders")
		{
			orders.GET("", h.orders.GetOrders)
			orders.GET("/:id", h.orders.GetOrder)
			orders.PATCH("/:id/status", h.orders.UpdateOrderStatus)
			orders.GET("/:id/receipt", h.invoices.AdminGetReceipt)
		}

		coupons := admin.Group("/coupons")
		{
			coupons.GET("", h.coupons.GetCoupons)
			coupons.POST("", h.coupons.CreateCoupon)
			coupons.GET("/:id", h.coupons.GetCoupon)
			coupons.PUT("/:id", h.coupons.UpdateCoupon)
			coupons.DELETE("/:id", h.coupons.DeleteCoupon)
		}

		users := admin.Group("/users")
		{
			users.GET("", h.users.GetUsers)
			users.GET("/export", h.users.ExportUsers)
			users.GET("/:id", h.users.GetUser)
			users.GET("/:id/orders", h.orders.GetUserOrders)
			users.PATCH("/:id/status", h.users.UpdateUserStatus)
		}

		analytics := admin.Group("/analytics")
		{
			analytics.GET("/dashboard", h.analytics.GetDashboard)
			analytics.GET("/sales", h.analytics.GetSales)
			analytics.GET("/products", h.analytics.GetProducts)
			analytics.GET("/customers", h.analytics.GetCustomers)
		}

		applications := admin.Group("/applications")
		applications.Use(middleware.RequireRoles(roleSuperAdmin))
		{
			applications.GET("", h.applications.GetApplications)
			applications.GET("/archive", h.applications.GetArchivedApplications)
			applications.PATCH("/:id", h.applications.DecideApplication)
		}
	}
}
