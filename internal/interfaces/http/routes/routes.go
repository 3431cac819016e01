// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/interfaces/http/handlers"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
	"github.com/your-org/storefront-backend/internal/pkg/auth"
)

// Handlers groups the HTTP handlers mounted under the API prefix
type Handlers struct {
	Product   *handlers.ProductHandler
	Cart      *handlers.CartHandler
	Checkout  *handlers.CheckoutHandler
	Discount  *handlers.DiscountHandler
	Order     *handlers.OrderHandler
	Analytics *handlers.AnalyticsHandler
}

// SetupRoutes mounts every route group on rg
func SetupRoutes(rg *gin.RouterGroup, h *Handlers, jwtManager *auth.JWTManager) {
	SetupProductRoutes(rg, h)
	SetupDiscountRoutes(rg, h, jwtManager)
	SetupShoppingRoutes(rg, h, jwtManager)
	SetupAdminRoutes(rg, h, jwtManager)
}

// SetupProductRoutes sets up catalog routes
func SetupProductRoutes(rg *gin.RouterGroup, h *Handlers) {
	products := rg.Group("/products")
	{
		products.GET("", h.Product.GetProducts)
		products.GET("/:id", h.Product.GetProduct)
	}
}

// SetupDiscountRoutes sets up public discount routes
func SetupDiscountRoutes(rg *gin.RouterGroup, h *Handlers, jwtManager *auth.JWTManager) {
	discounts := rg.Group("/discounts")
	discounts.Use(middleware.OptionalAuthMiddleware(jwtManager)) // Per-user checks when signed in
	{
		discounts.GET("", h.Discount.GetPublicDiscounts)
		discounts.POST("/validate", h.Discount.ValidateDiscount)
	}
}

// SetupShoppingRoutes sets up cart, checkout and order routes
func SetupShoppingRoutes(rg *gin.RouterGroup, h *Handlers, jwtManager *auth.JWTManager) {
	authRequired := middleware.AuthMiddleware(jwtManager)

	cart := rg.Group("/cart")
	cart.Use(authRequired)
	{
		cart.GET("", h.Cart.GetCart)
		cart.POST("/items", h.Cart.AddToCart)
		cart.PUT("/items/:productId", h.Cart.UpdateCartItem)
		cart.DELETE("/items/:productId", h.Cart.RemoveFromCart)
		cart.DELETE("", h.Cart.ClearCart)
	}

	checkout := rg.Group("/checkout")
	checkout.Use(authRequired)
	{
		checkout.POST("", h.Checkout.Checkout)
		checkout.GET("/summary", h.Checkout.GetCheckoutSummary)
	}

	orders := rg.Group("/orders")
	orders.Use(authRequired)
	{
		orders.GET("", h.Order.GetUserOrders)
		orders.GET("/:id", h.Order.GetOrder)
	}
}

// SetupAdminRoutes sets up admin related routes
func SetupAdminRoutes(rg *gin.RouterGroup, h *Handlers, jwtManager *auth.JWTManager) {
	admin := rg.Group("/admin")
	admin.Use(middleware.AuthMiddleware(jwtManager)) // Require authentication
	admin.Use(middleware.AdminMiddleware())          // Require admin privileges
	{
		// Product management
		products := admin.Group("/products")
		{
			products.GET("", h.Product.GetProducts)
			products.POST("", h.Product.AdminCreateProduct)
			products.PUT("/:id", h.Product.AdminUpdateProduct)
			products.DELETE("/:id", h.Product.AdminDeleteProduct)
		}

		// Discount management
		discounts := admin.Group("/discounts")
		{
			discounts.GET("", h.Discount.AdminGetDiscounts)
			discounts.POST("", h.Discount.AdminCreateDiscount)
			discounts.POST("/generate", h.Discount.AdminGenerateDiscount)
			discounts.GET("/conflicts", h.Discount.AdminGetConflicts)
			discounts.GET("/:code", h.Discount.AdminGetDiscount)
		}

		// Analytics
		admin.GET("/analytics", h.Analytics.GetSummary)
	}
}
