package repository

import (
	"errors"

	"storefront_support_service/internal/store/domain"

	"gorm.io/gorm"
)

// ErrInsufficientStock 扣庫存時存量不足
var ErrInsufficientStock = errors.New("insufficient stock")

// ProductRepo definition product catalog operations
type ProductRepo interface {
	AutoMigrate() error
	Create(product *domain.Product) error
	GetByID(id uint) (*domain.Product, error)
	Update(product *domain.Product) error
	Delete(id uint) error
	SearchProducts(keyword string) ([]domain.Product, error)
	FeaturedProducts(limit int) ([]domain.Product, error)
	ReserveStock(items []domain.CheckoutItemReq) error
}

type productRepo struct {
	db *gorm.DB
}

// NewProductRepo create ProductRepo
func NewProductRepo(db *gorm.DB) ProductRepo {
	return &productRepo{db: db}
}

// AutoMigrate 依模型建立或更新 products 表
func (r *productRepo) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.Product{})
}

// Create product
func (r *productRepo) Create(product *domain.Product) error {
	return r.db.Create(product).Error
}

// GetByID get product by id
func (r *productRepo) GetByID(id uint) (*domain.Product, error) {
	var p domain.Product
	if err := r.db.First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// Update product, all fields
func (r *productRepo) Update(product *domain.Product) error {
	return r.db.Save(product).Error
}

// Delete product row
func (r *productRepo) Delete(id uint) error {
	return r.db.Delete(&domain.Product{}, id).Error
}

// SearchProducts 利用 PostgreSQL 的 ILIKE 實作模糊搜尋（名稱或描述包含 keyword）
func (r *productRepo) SearchProducts(keyword string) ([]domain.Product, error) {
	var products []domain.Product
	like := "%" + keyword + "%"
	if err := r.db.Where("name ILIKE ? OR description ILIKE ?", like, like).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// FeaturedProducts 精選商品優先，其餘依銷量降冪補位
func (r *productRepo) FeaturedProducts(limit int) ([]domain.Product, error) {
	var products []domain.Product
	if err := r.db.Order("featured DESC, sold_count DESC").Limit(limit).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// ReserveStock 整筆結帳在一個交易內扣庫存、加銷量，
// WHERE 帶存量條件避免超賣；任何一筆不足就 rollback，不會留下扣到一半的庫存
func (r *productRepo) ReserveStock(items []domain.CheckoutItemReq) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		for _, item := range items {
			res := tx.Model(&domain.Product{}).
				Where("id = ? AND stock >= ?", item.ProductID, item.Quantity).
				Updates(map[string]interface{}{
					"stock":      gorm.Expr("stock - ?", item.Quantity),
					"sold_count": gorm.Expr("sold_count + ?", item.Quantity),
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrInsufficientStock
			}
		}
		return nil
	})
}
