package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"time"

	"storefront_support_service/internal/store/domain"
	"storefront_support_service/internal/store/repository"
	"storefront_support_service/pkg/database"
	errprocess "storefront_support_service/pkg/err"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/streadway/amqp"
)

// 商品圖片連結有效期
const productImageURLExpiry = 24 * time.Hour

// StoreUseCase 這裡封裝了對外提供的應用服務
type StoreUseCase interface {
	AddProduct(req domain.UpsertProductReq) (*domain.Product, error)
	UpdateProduct(id uint, req domain.UpsertProductReq) (*domain.Product, error)
	DeleteProduct(id uint) error
	GetProduct(id uint) (*domain.Product, error)
	Search(keyWord string) ([]domain.Product, error)
	Featured(limit int) ([]domain.Product, error)
	UploadProductImage(ctx context.Context, productID uint, fileName string, file io.Reader, size int64, contentType string) (string, error)
	ProductImageURL(ctx context.Context, productID uint) (string, error)

	Checkout(ctx context.Context, customerID, customerEmail string, items []domain.CheckoutItemReq) (*domain.Order, error)
	OrderHistory(ctx context.Context, customerID string) ([]domain.Order, error)
	ListOrders(ctx context.Context) ([]domain.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID string, next domain.OrderStatus) error
}

type storeUseCase struct {
	ProductRepo   repository.ProductRepo
	OrderRepo     repository.OrderRepo
	MinioClient   database.MinIOClientRepo
	RabbitChannel database.RabbitRepo // 用於發布縮圖工作訊息的 RabbitMQ Channel
	KafkaWriter   database.KafkaWriterRepo
}

// NewStoreUseCase 建立一個新的 StoreUseCase
func NewStoreUseCase(productRepo repository.ProductRepo,
	orderRepo repository.OrderRepo,
	minIO database.MinIOClientRepo,
	rabbitChannel database.RabbitRepo,
	kafkaWriter database.KafkaWriterRepo,
) StoreUseCase {
	return &storeUseCase{
		ProductRepo:   productRepo,
		OrderRepo:     orderRepo,
		MinioClient:   minIO,
		RabbitChannel: rabbitChannel,
		KafkaWriter:   kafkaWriter,
	}
}

// AddProduct 建立商品記錄
func (s *storeUseCase) AddProduct(req domain.UpsertProductReq) (*domain.Product, error) {
	product := domain.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		Category:    req.Category,
		Featured:    req.Featured,
	}
	if err := s.ProductRepo.Create(&product); err != nil {
		errMsg := fmt.Sprintf("product[%s] 資料庫建立商品失敗 : %v", req.Name, err)
		return nil, errprocess.Set(errMsg)
	}
	return &product, nil
}

// UpdateProduct 更新商品欄位，圖片 key 不在這裡動
func (s *storeUseCase) UpdateProduct(id uint, req domain.UpsertProductReq) (*domain.Product, error) {
	product, err := s.ProductRepo.GetByID(id)
	if err != nil {
		errMsg := fmt.Sprintf("productID[%d] 找不到商品 : %v", id, err)
		return nil, errprocess.Set(errMsg)
	}

	product.Name = req.Name
	product.Description = req.Description
	product.Price = req.Price
	product.Stock = req.Stock
	product.Category = req.Category
	product.Featured = req.Featured

	if err := s.ProductRepo.Update(product); err != nil {
		errMsg := fmt.Sprintf("productID[%d] 更新商品失敗 : %v", id, err)
		return nil, errprocess.Set(errMsg)
	}
	return product, nil
}

// DeleteProduct 刪除商品
func (s *storeUseCase) DeleteProduct(id uint) error {
	if err := s.ProductRepo.Delete(id); err != nil {
		errMsg := fmt.Sprintf("productID[%d] 刪除商品失敗 : %v", id, err)
		return errprocess.Set(errMsg)
	}
	return nil
}

// GetProduct get product
func (s *storeUseCase) GetProduct(id uint) (*domain.Product, error) {
	product, err := s.ProductRepo.GetByID(id)
	if err != nil {
		errMsg := fmt.Sprintf("productID[%d] 找不到商品 : %v", id, err)
		return nil, errprocess.Set(errMsg)
	}
	return product, nil
}

// Search search products
func (s *storeUseCase) Search(keyWord string) ([]domain.Product, error) {
	products, err := s.ProductRepo.SearchProducts(keyWord)
	if err != nil {
		errMsg := fmt.Sprintf("keyword[%s] search err : %v", keyWord, err)
		return nil, errprocess.Set(errMsg)
	}
	return products, nil
}

// Featured get featured products
func (s *storeUseCase) Featured(limit int) ([]domain.Product, error) {
	products, err := s.ProductRepo.FeaturedProducts(limit)
	if err != nil {
		errMsg := fmt.Sprintf("limit[%d] get featured err : %v", limit, err)
		return nil, errprocess.Set(errMsg)
	}
	return products, nil
}

// UploadProductImage 上傳商品圖片並發布縮圖工作：
//  1. 圖片串流上傳到 MinIO（products/{productID}/...）
//  2. 更新商品的 image key
//  3. 發布 image_process 工作訊息到 RabbitMQ
func (s *storeUseCase) UploadProductImage(ctx context.Context, productID uint, fileName string, file io.Reader, size int64, contentType string) (string, error) {
	product, err := s.ProductRepo.GetByID(productID)
	if err != nil {
		errMsg := fmt.Sprintf("productID[%d] 找不到商品 : %v", productID, err)
		return "", errprocess.Set(errMsg)
	}

	objectName := fmt.Sprintf("products/%d/%s%s", productID, uuid.New().String(), path.Ext(fileName))
	if err := s.MinioClient.UploadStream(ctx, objectName, file, size, contentType); err != nil {
		errMsg := fmt.Sprintf("productID[%d] 上傳 MinIO 失敗 : %v", productID, err)
		return "", errprocess.Set(errMsg)
	}

	product.ImageKey = objectName
	if err := s.ProductRepo.Update(product); err != nil {
		errMsg := fmt.Sprintf("productID[%d] 更新商品圖片記錄失敗 : %v", productID, err)
		return "", errprocess.Set(errMsg)
	}

	job := domain.ImageProcessJob{
		ProductID: productID,
		ImageKey:  objectName,
	}
	data, err := json.Marshal(job)
	if err != nil {
		errMsg := fmt.Sprintf("productID[%d] Job JSON 訊息序列化失敗 : %v", productID, err)
		return "", errprocess.Set(errMsg)
	}
	err = s.RabbitChannel.Publish(
		"",                    // 預設 exchange
		domain.ImageQueueName, // queue 名稱
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        data,
		},
	)
	if err != nil {
		errMsg := fmt.Sprintf("productID[%d] 發送 RabbitMQ 訊息失敗 : %v", productID, err)
		return "", errprocess.Set(errMsg)
	}

	return objectName, nil
}

// ProductImageURL 產生商品圖片的 Presigned URL
func (s *storeUseCase) ProductImageURL(ctx context.Context, productID uint) (string, error) {
	product, err := s.ProductRepo.GetByID(productID)
	if err != nil {
		errMsg := fmt.Sprintf("productID[%d] 找不到商品 : %v", productID, err)
		return "", errprocess.Set(errMsg)
	}
	if product.ImageKey == "" {
		errMsg := fmt.Sprintf("productID[%d] 商品沒有圖片", productID)
		return "", errprocess.Set(errMsg)
	}

	url, err := s.MinioClient.PresignGetURL(ctx, product.ImageKey, productImageURLExpiry)
	if err != nil {
		errMsg := fmt.Sprintf("productID[%d] 生成 Presigned URL 失敗 : %v", productID, err)
		return "", errprocess.Set(errMsg)
	}
	return url, nil
}

// Checkout 結帳：
//  1. 單價與名稱從資料庫取，不信任 client 端金額
//  2. 整筆在一個交易內扣庫存，任何一筆存量不足全部 rollback
//  3. 寫入訂單（pending）
//  4. 發布 order_events 事件到 Kafka
func (s *storeUseCase) Checkout(ctx context.Context, customerID, customerEmail string, items []domain.CheckoutItemReq) (*domain.Order, error) {
	if len(items) == 0 {
		return nil, errprocess.Set(fmt.Sprintf("customer[%s] 結帳清單為空", customerID))
	}

	order := domain.Order{
		CustomerID:    customerID,
		CustomerEmail: customerEmail,
		Status:        domain.OrderPending,
	}

	// 先驗證、計價，確定整筆都合法才去動庫存
	for _, item := range items {
		if item.Quantity <= 0 {
			errMsg := fmt.Sprintf("productID[%d] 數量[%d]不合法", item.ProductID, item.Quantity)
			return nil, errprocess.Set(errMsg)
		}

		product, err := s.ProductRepo.GetByID(item.ProductID)
		if err != nil {
			errMsg := fmt.Sprintf("productID[%d] 找不到商品 : %v", item.ProductID, err)
			return nil, errprocess.Set(errMsg)
		}

		subtotal := product.Price * int64(item.Quantity)
		order.Items = append(order.Items, domain.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			UnitPrice: product.Price,
			Quantity:  item.Quantity,
			Subtotal:  subtotal,
		})
		order.Total += subtotal
	}

	if err := s.ProductRepo.ReserveStock(items); err != nil {
		errMsg := fmt.Sprintf("customer[%s] 扣庫存失敗 : %v", customerID, err)
		return nil, errprocess.Set(errMsg)
	}

	orderID, err := s.OrderRepo.Insert(ctx, &order)
	if err != nil {
		errMsg := fmt.Sprintf("customer[%s] 寫入訂單失敗 : %v", customerID, err)
		return nil, errprocess.Set(errMsg)
	}

	event := domain.OrderEvent{
		OrderID:    orderID,
		CustomerID: customerID,
		Total:      order.Total,
		PlacedAt:   order.CreatedAt,
	}
	data, err := json.Marshal(event)
	if err != nil {
		errMsg := fmt.Sprintf("orderID[%s] 事件序列化失敗 : %v", orderID, err)
		return nil, errprocess.Set(errMsg)
	}
	if err := s.KafkaWriter.WriteMessages(ctx, kafka.Message{
		Key:   []byte(orderID),
		Value: data,
	}); err != nil {
		errMsg := fmt.Sprintf("orderID[%s] 發送 Kafka 事件失敗 : %v", orderID, err)
		return nil, errprocess.Set(errMsg)
	}

	return &order, nil
}

// OrderHistory 顧客的訂單紀錄，最新在前
func (s *storeUseCase) OrderHistory(ctx context.Context, customerID string) ([]domain.Order, error) {
	orders, err := s.OrderRepo.ListByCustomer(ctx, customerID)
	if err != nil {
		errMsg := fmt.Sprintf("customer[%s] 查詢訂單失敗 : %v", customerID, err)
		return nil, errprocess.Set(errMsg)
	}
	return orders, nil
}

// ListOrders admin 檢視全部訂單
func (s *storeUseCase) ListOrders(ctx context.Context) ([]domain.Order, error) {
	orders, err := s.OrderRepo.ListAll(ctx)
	if err != nil {
		errMsg := fmt.Sprintf("查詢全部訂單失敗 : %v", err)
		return nil, errprocess.Set(errMsg)
	}
	return orders, nil
}

// UpdateOrderStatus 依狀態機檢查後更新訂單狀態
func (s *storeUseCase) UpdateOrderStatus(ctx context.Context, orderID string, next domain.OrderStatus) error {
	order, err := s.OrderRepo.FindByID(ctx, orderID)
	if err != nil {
		errMsg := fmt.Sprintf("orderID[%s] 找不到訂單 : %v", orderID, err)
		return errprocess.Set(errMsg)
	}

	if !order.Status.CanTransition(next) {
		errMsg := fmt.Sprintf("orderID[%s] 狀態 %s 不可轉移為 %s", orderID, order.Status, next)
		return errprocess.Set(errMsg)
	}

	if err := s.OrderRepo.UpdateStatus(ctx, orderID, next); err != nil {
		errMsg := fmt.Sprintf("orderID[%s] 更新狀態失敗 : %v", orderID, err)
		return errprocess.Set(errMsg)
	}
	return nil
}
