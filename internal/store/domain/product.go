package domain

import "time"

// ImageQueueName 商品圖片縮圖工作的 queue 名稱
const ImageQueueName = "image_process"

// Product 定義商品模型
type Product struct {
	ID          uint `gorm:"primaryKey"`
	Name        string
	Description string
	Price       int64  // 以分為單位，避免浮點誤差
	Stock       int
	Category    string
	ImageKey    string // 存於 MinIO 上的 object key
	Featured    bool
	SoldCount   uint // 銷售件數，精選排序用
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ImageProcessJob 商品圖片上傳後發布的縮圖工作
type ImageProcessJob struct {
	ProductID uint   `json:"product_id"`
	ImageKey  string `json:"image_key"`
}

// UpsertProductReq usecase add/update product request
type UpsertProductReq struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
	Stock       int    `json:"stock"`
	Category    string `json:"category"`
	Featured    bool   `json:"featured"`
}
