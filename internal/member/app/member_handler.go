package app

import (
	"context"
	"time"

	"storefront_support_service/internal/member/domain"
	"storefront_support_service/pkg/logger"
	"storefront_support_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// MemberHandler 處理會員相關的 HTTP 請求
type MemberHandler struct {
	Usecase MemberUseCase
}

// NewMemberHandler 建立新的 MemberHandler
func NewMemberHandler(uc MemberUseCase) *MemberHandler {
	return &MemberHandler{Usecase: uc}
}

// Register 注册新用户
// @Summary 注册新用户
// @Description 处理用户注册请求
// @Tags Members
// @Accept json
// @Produce json
// @Param request body string true "注册请求"
// @Success 200 {object} string "注册成功"
// @Failure 400 {object} string "请求错误"
// @Failure 500 {object} string "服务器错误"
// @Router /member/register [post]
func (h *MemberHandler) Register(c *fiber.Ctx) error {
	type request struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}

	var req request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}

	logger.Log.Debug("Register request", zap.String("email", req.Email))

	if err := h.Usecase.Register(context.Background(), req.Email, req.Password, req.Role); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"message": "register success"})
}

// Login 用户登录
// @Summary 用户登录
// @Description 用户通过邮箱和密码登录
// @Tags Members
// @Accept json
// @Produce json
// @Param request body string true "用户登录信息"
// @Success 200 {object} string "登录成功"
// @Failure 400 {object} string "请求错误"
// @Failure 401 {object} string "登录失败"
// @Router /member/login [post]
func (h *MemberHandler) Login(c *fiber.Ctx) error {
	type request struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	var req request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}

	logger.Log.Debug("Login", zap.String("Email", req.Email))

	token, err := h.Usecase.Login(context.Background(), req.Email, req.Password, time.Now())
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}

	// 寫入 cookie，WebSocket 跟後續請求可直接帶上
	c.Cookie(&fiber.Cookie{
		Name:  middlewares.CookieToken,
		Value: token,
	})

	return c.JSON(fiber.Map{"token": token, "message": "login success"})
}

// Logout 用户登出
// @Summary 用户登出
// @Description 注销用户会话
// @Tags Members
// @Accept json
// @Produce json
// @Param auth query string false "用户登出信息"
// @Success 200 {object} string "注销成功"
// @Failure 400 {object} string "请求错误"
// @Failure 500 {object} string "服务器错误"
// @Router /member/logout [post]
func (h *MemberHandler) Logout(c *fiber.Ctx) error {
	tokenStr := c.Query(middlewares.QueryToken)
	if tokenStr == "" {
		tokenStr = c.Cookies(middlewares.CookieToken)
	}

	if err := h.Usecase.Logout(context.Background(), tokenStr); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	c.ClearCookie(middlewares.CookieToken)
	return c.JSON(fiber.Map{"message": "logout success"})
}

// ListMembers 列出所有用户
// @Summary 列出所有用户
// @Description 管理员查看全部用户清单
// @Tags Members
// @Accept json
// @Produce json
// @Success 200 {object} string "用户清单"
// @Failure 500 {object} string "服务器错误"
// @Router /member/admin/users [get]
func (h *MemberHandler) ListMembers(c *fiber.Ctx) error {
	members, err := h.Usecase.ListMembers(context.Background())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	users := make([]fiber.Map, 0, len(members))
	for _, m := range members {
		users = append(users, fiber.Map{
			"id":     m.MemberID,
			"email":  m.Email,
			"role":   m.Role,
			"status": m.Status,
		})
	}
	return c.JSON(fiber.Map{"users": users})
}

// UpdateRole 变更用户角色
// @Summary 变更用户角色
// @Description 管理员调整用户的角色（customer/admin）
// @Tags Members
// @Accept json
// @Produce json
// @Param id path string true "用户 ID"
// @Param request body string true "角色"
// @Success 200 {object} string "变更成功"
// @Failure 400 {object} string "请求错误"
// @Failure 500 {object} string "服务器错误"
// @Router /member/admin/users/{id}/role [put]
func (h *MemberHandler) UpdateRole(c *fiber.Ctx) error {
	type request struct {
		Role string `json:"role"`
	}

	memberID := c.Params("id")
	var req request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}

	logger.Log.Debug("UpdateRole", zap.String("member_id", memberID), zap.String("role", req.Role))

	if err := h.Usecase.UpdateRole(context.Background(), memberID, req.Role); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"message": "role updated"})
}

// FindByEmail 查找用户信息
// @Summary 查找用户信息
// @Description 根据邮箱查找用户信息
// @Tags Members
// @Accept json
// @Produce json
// @Param email query string true "用户邮箱"
// @Success 200 {object} string "用户信息"
// @Failure 400 {object} string "请求错误"
// @Failure 404 {object} string "未找到用户"
// @Router /member/find [get]
func (h *MemberHandler) FindByEmail(c *fiber.Ctx) error {
	email := c.Query("email")
	if email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "email is required"})
	}

	member, err := h.Usecase.FindMember(context.Background(), &domain.MemberQuery{Email: &email})
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"user": fiber.Map{
			"id":    member.MemberID,
			"email": member.Email,
			"role":  member.Role,
		},
	})
}
