// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/your-org/marketplace-backend/internal/config"
	"github.com/your-org/marketplace-backend/internal/interfaces/http/handlers"
	"github.com/your-org/marketplace-backend/internal/interfaces/http/middleware"
	"gorm.io/gorm"
)

// SetupRoutes wires every handler group onto the versioned API group.
func SetupRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config) {
	authHandler := handlers.NewAuthHandler(db, cfg)
	profileHandler := handlers.NewUserProfileHandler(db, cfg)
	addressHandler := handlers.NewUserAddressHandler(db, cfg)
	userAdminHandler := handlers.NewUserAdminHandler(db, cfg)
	storeHandler := handlers.NewStoreHandler(db, cfg)
	productHandler := handlers.NewProductHandler(db, cfg)
	categoryHandler := handlers.NewCategoryHandler(db, redisClient, cfg)
	reviewHandler := handlers.NewReviewHandler(db, cfg)
	cartHandler := handlers.NewCartHandler(db, cfg)
	wishlistHandler := handlers.NewWishlistHandler(db, cfg)
	orderHandler := handlers.NewOrderHandler(db, cfg)
	invoiceHandler := handlers.NewInvoiceHandler(db, cfg)
	inventoryHandler := handlers.NewInventoryHandler(db, cfg)
	loyaltyHandler := handlers.NewLoyaltyHandler(db, cfg)
	analyticsHandler := handlers.NewAnalyticsHandler(db, cfg)
	uploadHandler := handlers.NewUploadHandler(db, cfg)

	// Authentication
	auth := rg.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/register-supplier", authHandler.RegisterSupplier)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.RefreshToken)
		auth.POST("/forgot-password", authHandler.ForgotPassword)
		auth.POST("/reset-password", authHandler.ResetPassword)

		protected := auth.Group("")
		protected.Use(middleware.AuthMiddleware(cfg))
		{
			protected.POST("/logout", authHandler.Logout)
			protected.GET("/verify", authHandler.Verify)
		}
	}

	// Public catalog
	products := rg.Group("/products")
	{
		products.GET("", productHandler.GetProducts)
		products.GET("/:id", productHandler.GetProduct)
		products.GET("/slug/:slug", productHandler.GetProductBySlug)
		products.GET("/:id/reviews", reviewHandler.GetProductReviews)
	}

	categories := rg.Group("/categories")
	{
		categories.GET("", categoryHandler.GetCategories)
		categories.GET("/counts", categoryHandler.GetCategoriesWithProductCount)
		categories.GET("/:id", categoryHandler.GetCategory)
		categories.GET("/slug/:slug", categoryHandler.GetCategoryBySlug)
	}

	stores := rg.Group("/stores")
	{
		stores.GET("/top", storeHandler.TopStores)
		stores.GET("/:id", storeHandler.GetStore)
	}

	// Event ingestion accepts both anonymous and authenticated traffic
	events := rg.Group("/analytics")
	events.Use(middleware.OptionalAuthMiddleware(cfg))
	{
		events.POST("/events", analyticsHandler.TrackEvent)
	}

	// Authenticated customer surface
	authed := rg.Group("")
	authed.Use(middleware.AuthMiddleware(cfg))
	{
		users := authed.Group("/users")
		{
			users.GET("/profile", profileHandler.GetProfile)
			users.PUT("/profile", profileHandler.UpdateProfile)
			users.PUT("/password", profileHandler.ChangePassword)
			users.DELETE("/profile", profileHandler.Deactivate)

			users.GET("/addresses", addressHandler.GetAddresses)
			users.POST("/addresses", addressHandler.CreateAddress)
			users.GET("/addresses/:id", addressHandler.GetAddress)
			users.PUT("/addresses/:id", addressHandler.UpdateAddress)
			users.DELETE("/addresses/:id", addressHandler.DeleteAddress)
			users.PUT("/addresses/:id/default", addressHandler.SetDefaultAddress)
		}

		cart := authed.Group("/cart")
		{
			cart.GET("", cartHandler.GetCart)
			cart.POST("/items", cartHandler.AddItem)
			cart.PUT("/items/:id", cartHandler.UpdateItem)
			cart.DELETE("/items/:id", cartHandler.RemoveItem)
			cart.DELETE("", cartHandler.ClearCart)
		}

		wishlist := authed.Group("/wishlist")
		{
			wishlist.GET("", wishlistHandler.GetWishlist)
			wishlist.POST("/items", wishlistHandler.AddItem)
			wishlist.DELETE("/items/:id", wishlistHandler.RemoveItem)
			wishlist.POST("/items/:id/move-to-cart", wishlistHandler.MoveToCart)
			wishlist.DELETE("", wishlistHandler.ClearWishlist)
		}

		orders := authed.Group("/orders")
		{
			orders.POST("", orderHandler.CreateOrder)
			orders.POST("/from-cart", orderHandler.CreateOrderFromCart)
			orders.GET("", orderHandler.GetMyOrders)
			orders.GET("/:id", orderHandler.GetOrder)
			orders.PUT("/:id/cancel", orderHandler.CancelOrder)
			orders.GET("/:id/invoice", invoiceHandler.DownloadInvoice)
		}

		reviews := authed.Group("/reviews")
		{
			reviews.POST("", reviewHandler.CreateReview)
			reviews.PUT("/:id", reviewHandler.UpdateReview)
			reviews.DELETE("/:id", reviewHandler.DeleteReview)
		}

		loyalty := authed.Group("/loyalty")
		{
			loyalty.GET("", loyaltyHandler.GetSummary)
			loyalty.POST("/redeem", loyaltyHandler.Redeem)
			loyalty.GET("/history", loyaltyHandler.GetHistory)
		}

		uploads := authed.Group("/uploads")
		{
			uploads.POST("", uploadHandler.UploadImage)
			uploads.GET("", uploadHandler.GetMyUploads)
			uploads.DELETE("/:id", uploadHandler.DeleteUpload)
		}
	}

	// Supplier surface
	supplier := rg.Group("/supplier")
	supplier.Use(middleware.AuthMiddleware(cfg))
	supplier.Use(middleware.SupplierMiddleware())
	{
		supplier.POST("/store", storeHandler.CreateStore)
		supplier.GET("/store", storeHandler.GetMyStore)
		supplier.PUT("/store/:id", storeHandler.UpdateStore)

		supplier.GET("/products", productHandler.GetMyProducts)
		supplier.POST("/products", productHandler.CreateProduct)
		supplier.PUT("/products/:id", productHandler.UpdateProduct)
		supplier.DELETE("/products/:id", productHandler.DeleteProduct)
		supplier.GET("/products/:id/deletable", productHandler.CheckDeleteProduct)
		supplier.POST("/products/:id/stock", productHandler.AdjustStock)
		supplier.GET("/products/:id/movements", inventoryHandler.GetProductMovements)
		supplier.GET("/products/stats", productHandler.GetStats)

		supplier.GET("/orders", orderHandler.GetStoreOrders)
		supplier.GET("/orders/store/:store_id", orderHandler.GetOrdersByStore)
		supplier.PUT("/orders/:id/status", orderHandler.UpdateOrderStatus)
		supplier.GET("/orders/stats", orderHandler.GetOrderStats)

		supplier.GET("/inventory/movements", inventoryHandler.GetStoreMovements)
		supplier.GET("/analytics/overview", analyticsHandler.GetStoreOverview)
	}

	// Admin surface
	admin := rg.Group("/admin")
	admin.Use(middleware.AuthMiddleware(cfg))
	admin.Use(middleware.AdminMiddleware())
	{
		admin.GET("/users", userAdminHandler.GetUsers)
		admin.PUT("/users/:id/status", userAdminHandler.UpdateUserStatus)

		admin.GET("/products", productHandler.GetAllProducts)

		admin.GET("/categories", categoryHandler.GetAllCategories)
		admin.POST("/categories", categoryHandler.CreateCategory)
		admin.PUT("/categories/:id", categoryHandler.UpdateCategory)
		admin.DELETE("/categories/:id", categoryHandler.DeleteCategory)

		admin.GET("/orders", orderHandler.GetAllOrders)
		admin.PUT("/orders/:id/status", orderHandler.UpdateOrderStatus)

		admin.GET("/analytics/overview", analyticsHandler.GetGlobalOverview)
	}
}
