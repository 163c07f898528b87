package router

import (
	"storefront_support_service/internal/member/app"
	"storefront_support_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes 註冊會員相關的路由
func RegisterRoutes(r *fiber.App, memberHandler *app.MemberHandler) {
	memberRoutes := r.Group("/member")
	// 註冊與登入不需要帶 token
	memberRoutes.Post("/register", memberHandler.Register)
	memberRoutes.Post("/login", memberHandler.Login)

	memberRoutes.Use(middlewares.JWTMiddleware())
	memberRoutes.Post("/logout", memberHandler.Logout)
	memberRoutes.Get("/find", memberHandler.FindByEmail)

	adminRoutes := memberRoutes.Group("/admin", middlewares.AdminOnly())
	adminRoutes.Get("/users", memberHandler.ListMembers)
	adminRoutes.Put("/users/:id/role", memberHandler.UpdateRole)
}
