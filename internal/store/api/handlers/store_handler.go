package handlers

import (
	"context"
	"net/http"
	"strconv"

	"storefront_support_service/internal/store/app"
	"storefront_support_service/internal/store/domain"
	"storefront_support_service/pkg/logger"
	"storefront_support_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
)

// StoreHandler definition store REST handler
type StoreHandler struct {
	StoreUseCase app.StoreUseCase
}

// NewStoreHandler create StoreHandler
func NewStoreHandler(uc app.StoreUseCase) *StoreHandler {
	return &StoreHandler{StoreUseCase: uc}
}

// AddProduct godoc
// @Summary Add product
// @Description Creates a catalog product (admin only).
// @Tags Store
// @Accept json
// @Produce json
// @Param product body domain.UpsertProductReq true "Product fields"
// @Success 200 {object} domain.Product "Created product"
// @Failure 400 {object} string "Bad Request"
// @Router /store/admin/products [post]
func (h *StoreHandler) AddProduct(c *fiber.Ctx) error {
	var req domain.UpsertProductReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "解析商品資料失敗"})
	}

	product, err := h.StoreUseCase.AddProduct(req)
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(product)
}

// UpdateProduct godoc
// @Summary Update product
// @Description Updates catalog fields of one product (admin only).
// @Tags Store
// @Accept json
// @Produce json
// @Param id path int true "Product ID"
// @Param product body domain.UpsertProductReq true "Product fields"
// @Success 200 {object} domain.Product "Updated product"
// @Failure 400 {object} string "Bad Request"
// @Router /store/admin/products/{id} [put]
func (h *StoreHandler) UpdateProduct(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "商品 id 不合法"})
	}

	var req domain.UpsertProductReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "解析商品資料失敗"})
	}

	product, err := h.StoreUseCase.UpdateProduct(uint(id), req)
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(product)
}

// DeleteProduct godoc
// @Summary Delete product
// @Description Removes one product from the catalog (admin only).
// @Tags Store
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} string "ok"
// @Failure 400 {object} string "Bad Request"
// @Router /store/admin/products/{id} [delete]
func (h *StoreHandler) DeleteProduct(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "商品 id 不合法"})
	}

	if err := h.StoreUseCase.DeleteProduct(uint(id)); err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"msg": "刪除成功"})
}

// GetProduct godoc
// @Summary Get product
// @Description Retrieves one product by id.
// @Tags Store
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} domain.Product "Product"
// @Failure 404 {object} string "Product not found"
// @Router /store/products/{id} [get]
func (h *StoreHandler) GetProduct(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "商品 id 不合法"})
	}

	product, err := h.StoreUseCase.GetProduct(uint(id))
	if err != nil {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "找不到商品"})
	}
	return c.JSON(product)
}

// Search godoc
// @Summary Search products
// @Description Searches products by keyword on name and description.
// @Tags Store
// @Produce json
// @Param q query string true "Search keyword"
// @Success 200 {array} domain.Product "Matching products"
// @Failure 400 {object} string "Bad Request"
// @Router /store/search [get]
func (h *StoreHandler) Search(c *fiber.Ctx) error {
	keyword := c.Query("q")
	products, err := h.StoreUseCase.Search(keyword)
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "搜尋失敗"})
	}
	return c.JSON(products)
}

// Featured godoc
// @Summary Featured products
// @Description Lists featured products, best sellers first.
// @Tags Store
// @Produce json
// @Param limit query int false "Number of products"
// @Success 200 {array} domain.Product "Featured products"
// @Router /store/featured [get]
func (h *StoreHandler) Featured(c *fiber.Ctx) error {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil {
		logger.Log.Errorf("Featured limit transfer err :", err)
		limit = 10
	}

	products, err := h.StoreUseCase.Featured(limit)
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "查詢失敗"})
	}
	return c.JSON(products)
}

// UploadProductImage godoc
// @Summary Upload product image
// @Description Uploads a product image and queues a thumbnail job (admin only).
// @Tags Store
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Product ID"
// @Param file formData file true "Image file"
// @Success 200 {object} string "Object key"
// @Failure 400 {object} string "Bad Request"
// @Router /store/admin/products/{id}/image [post]
func (h *StoreHandler) UploadProductImage(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "商品 id 不合法"})
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "未檢測到檔案"})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "開啟檔案失敗"})
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	objectName, err := h.StoreUseCase.UploadProductImage(
		context.Background(), uint(id), fileHeader.Filename, file, fileHeader.Size, contentType)
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"msg":       "上傳成功，等待縮圖",
		"image_key": objectName,
	})
}

// GetProductImage godoc
// @Summary Get product image URL
// @Description Returns a presigned URL for the product image.
// @Tags Store
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} string "Image URL"
// @Failure 404 {object} string "Product has no image"
// @Router /store/products/{id}/image [get]
func (h *StoreHandler) GetProductImage(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "商品 id 不合法"})
	}

	url, err := h.StoreUseCase.ProductImageURL(context.Background(), uint(id))
	if err != nil {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"image_url": url})
}

// Checkout godoc
// @Summary Checkout
// @Description Places an order; totals are computed server-side and stock is checked per line.
// @Tags Store
// @Accept json
// @Produce json
// @Param items body []domain.CheckoutItemReq true "Order lines"
// @Success 200 {object} domain.Order "Placed order"
// @Failure 400 {object} string "Bad Request"
// @Router /store/checkout [post]
func (h *StoreHandler) Checkout(c *fiber.Ctx) error {
	customerID, _ := c.Locals(middlewares.TokenMemberID).(string)
	customerEmail, _ := c.Locals(middlewares.TokenEmail).(string)

	var items []domain.CheckoutItemReq
	if err := c.BodyParser(&items); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "解析結帳資料失敗"})
	}

	order, err := h.StoreUseCase.Checkout(context.Background(), customerID, customerEmail, items)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(order)
}

// OrderHistory godoc
// @Summary Order history
// @Description Lists the caller's orders, newest first.
// @Tags Store
// @Produce json
// @Success 200 {array} domain.Order "Orders"
// @Router /store/orders [get]
func (h *StoreHandler) OrderHistory(c *fiber.Ctx) error {
	customerID, _ := c.Locals(middlewares.TokenMemberID).(string)

	orders, err := h.StoreUseCase.OrderHistory(context.Background(), customerID)
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "查詢失敗"})
	}
	return c.JSON(orders)
}

// ListOrders godoc
// @Summary List all orders
// @Description Lists every order, newest first; filter by customer_id to inspect one customer (admin only).
// @Tags Store
// @Produce json
// @Param customer_id query string false "Customer ID"
// @Success 200 {array} domain.Order "Orders"
// @Router /store/admin/orders [get]
func (h *StoreHandler) ListOrders(c *fiber.Ctx) error {
	if customerID := c.Query("customer_id"); customerID != "" {
		orders, err := h.StoreUseCase.OrderHistory(context.Background(), customerID)
		if err != nil {
			return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "查詢失敗"})
		}
		return c.JSON(orders)
	}

	orders, err := h.StoreUseCase.ListOrders(context.Background())
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "查詢失敗"})
	}
	return c.JSON(orders)
}

// UpdateOrderStatus godoc
// @Summary Update order status
// @Description Moves an order along the fulfillment flow (admin only).
// @Tags Store
// @Accept json
// @Produce json
// @Param id path string true "Order ID"
// @Param status body string true "Next status"
// @Success 200 {object} string "ok"
// @Failure 400 {object} string "Illegal transition"
// @Router /store/admin/orders/{id}/status [put]
func (h *StoreHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	orderID := c.Params("id")

	var body struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "解析狀態失敗"})
	}

	if err := h.StoreUseCase.UpdateOrderStatus(context.Background(), orderID, domain.OrderStatus(body.Status)); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"msg": "更新成功"})
}
