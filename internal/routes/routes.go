package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/bozor/internal/config"
	"github.com/example/bozor/internal/events"
	"github.com/example/bozor/internal/handlers"
	"github.com/example/bozor/internal/middleware"
	"github.com/example/bozor/internal/services"
)

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config, bus *events.Bus) {
	notifier := services.NewNotifyService(cfg.TelegramBotToken, cfg.TelegramAdminChat)
	cartService := services.NewCartService(db, bus)
	wishlistService := services.NewWishlistService(db, bus)
	orderService := services.NewOrderService(db, bus, notifier)

	authHandler := handlers.NewAuthHandler(db, cfg)
	catalogHandler := handlers.NewCatalogHandler(db)
	productHandler := handlers.NewProductHandler(db)
	cartHandler := handlers.NewCartHandler(cartService)
	wishlistHandler := handlers.NewWishlistHandler(wishlistService)
	couponHandler := handlers.NewCouponHandler(db)
	deliveryHandler := handlers.NewDeliveryHandler(db)
	orderHandler := handlers.NewOrderHandler(db, orderService)
	adminHandler := handlers.NewAdminHandler(db, orderService)
	profileHandler := handlers.NewProfileHandler(db)

	api := app.Group("/api")

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/verify", authHandler.Verify)

	// Public catalog
	api.Get("/categories", catalogHandler.ListCategories)
	api.Get("/categories/:id", catalogHandler.GetCategory)
	api.Get("/products", productHandler.ListProducts)
	api.Get("/products/:id", productHandler.GetProduct)
	api.Get("/delivery-charge", deliveryHandler.QuoteCharge)

	// Protected routes
	protected := api.Group("", middleware.AuthMiddleware(cfg))

	protected.Get("/cart", cartHandler.ListCart)
	protected.Post("/cart", cartHandler.AddToCart)
	protected.Put("/cart/:id", cartHandler.UpdateCartItem)
	protected.Delete("/cart/:id", cartHandler.RemoveCartItem)

	protected.Get("/wishlist", wishlistHandler.ListWishlist)
	protected.Post("/wishlist", wishlistHandler.AddToWishlist)
	protected.Delete("/wishlist/:product_id", wishlistHandler.RemoveFromWishlist)

	protected.Get("/coupons/offers", couponHandler.ListOffers)

	protected.Post("/orders", orderHandler.CreateOrder)
	protected.Get("/orders", orderHandler.ListOrders)
	protected.Get("/orders/:id", orderHandler.GetOrder)

	protected.Get("/profile", profileHandler.GetProfile)
	protected.Put("/profile", profileHandler.UpdateProfile)
	protected.Get("/profile/addresses", profileHandler.ListAddresses)
	protected.Post("/profile/addresses", profileHandler.CreateAddress)
	protected.Put("/profile/addresses/:id", profileHandler.UpdateAddress)
	protected.Delete("/profile/addresses/:id", profileHandler.DeleteAddress)

	// Admin routes
	admin := api.Group("/admin", middleware.AuthMiddleware(cfg), middleware.AdminOnly(db))

	admin.Get("/dashboard", adminHandler.DashboardStats)
	admin.Get("/orders", adminHandler.ListAllOrders)
	admin.Put("/orders/:id/status", adminHandler.UpdateOrderStatus)
	admin.Get("/users", adminHandler.ListAllUsers)
	admin.Put("/users/:id/role", adminHandler.UpdateUserRole)
	admin.Get("/products/export", adminHandler.ExportProducts)

	admin.Post("/categories", catalogHandler.CreateCategory)
	admin.Put("/categories/:id", catalogHandler.UpdateCategory)
	admin.Delete("/categories/:id", catalogHandler.DeleteCategory)

	admin.Post("/products", productHandler.CreateProduct)
	admin.Put("/products/:id", productHandler.UpdateProduct)
	admin.Delete("/products/:id", productHandler.DeleteProduct)

	admin.Get("/coupons", couponHandler.ListCoupons)
	admin.Post("/coupons", couponHandler.CreateCoupon)
	admin.Put("/coupons/:id", couponHandler.UpdateCoupon)
	admin.Delete("/coupons/:id", couponHandler.DeleteCoupon)

	admin.Get("/delivery-rules", deliveryHandler.ListRules)
	admin.Post("/delivery-rules", deliveryHandler.CreateRule)
	admin.Put("/delivery-rules/:id", deliveryHandler.UpdateRule)
	admin.Delete("/delivery-rules/:id", deliveryHandler.DeleteRule)
}
