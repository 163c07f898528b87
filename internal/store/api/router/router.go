package router

import (
	"storefront_support_service/internal/store/api/handlers"
	"storefront_support_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
)

// RegisterRoutes 註冊商店相關的路由
// @title Storefront Store Service API
// @version 1.0
// @description API documentation for the storefront catalog and orders
// @host localhost:8082
// @BasePath /
func RegisterRoutes(app *fiber.App, storeHandler *handlers.StoreHandler) {
	app.Get("/swagger/*", swagger.HandlerDefault)

	storeRoutes := app.Group("/store")
	// 瀏覽不需要登入
	storeRoutes.Get("/products/:id/image", storeHandler.GetProductImage)
	storeRoutes.Get("/products/:id", storeHandler.GetProduct)
	storeRoutes.Get("/search", storeHandler.Search)
	storeRoutes.Get("/featured", storeHandler.Featured)

	storeRoutes.Use(middlewares.JWTMiddleware())
	storeRoutes.Post("/checkout", storeHandler.Checkout)
	storeRoutes.Get("/orders", storeHandler.OrderHistory)

	adminRoutes := storeRoutes.Group("/admin", middlewares.AdminOnly())
	adminRoutes.Post("/products", storeHandler.AddProduct)
	adminRoutes.Put("/products/:id", storeHandler.UpdateProduct)
	adminRoutes.Delete("/products/:id", storeHandler.DeleteProduct)
	adminRoutes.Post("/products/:id/image", storeHandler.UploadProductImage)
	adminRoutes.Get("/orders", storeHandler.ListOrders)
	adminRoutes.Put("/orders/:id/status", storeHandler.UpdateOrderStatus)
}
