package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"storefront_support_service/internal/store/domain"
	"storefront_support_service/pkg/database"
	"storefront_support_service/pkg/logger"

	"github.com/disintegration/imaging"
	"github.com/streadway/amqp" // RabbitMQ 客戶端
)

// 縮圖最長邊
const thumbnailWidth = 320

// Consumer 定義一個消息消費者，將所有必要的依賴注入進來
type Consumer struct {
	rabbitChannel *amqp.Channel
	minioClient   database.MinIOClientRepo
	queueName     string
}

// NewConsumer 建構 Consumer 實例
func NewConsumer(rabbitChannel *amqp.Channel, minioClient database.MinIOClientRepo, queueName string) *Consumer {
	return &Consumer{
		rabbitChannel: rabbitChannel,
		minioClient:   minioClient,
		queueName:     queueName,
	}
}

// StartConsumer 開始消費訊息，並處理縮圖工作
func (c *Consumer) StartConsumer(ctx context.Context) {
	msgs, err := c.rabbitChannel.Consume(
		c.queueName, // 使用依賴注入進來的 queue name
		"",          // consumer tag，留空由系統分配
		false,       // autoAck 為 false，使用手動確認
		false,       // exclusive
		false,       // noLocal
		false,       // noWait
		nil,         // arguments
	)
	if err != nil {
		log.Fatalf("無法開始消費 RabbitMQ 訊息: %v", err)
	}

	log.Println("Consumer 已啟動，等待縮圖工作訊息...")

	for {
		select {
		case d, ok := <-msgs:
			if !ok {
				log.Println("RabbitMQ 消費 channel 已關閉")
				return
			}

			var job domain.ImageProcessJob
			if err := json.Unmarshal(d.Body, &job); err != nil {
				log.Printf("解析縮圖工作訊息失敗: %v", err)
				// 若解析失敗，拒絕並重新排入佇列
				if err := d.Nack(false, true); err != nil {
					log.Printf("Nack 訊息失敗: %v", err)
				}
				continue
			}

			log.Printf("收到縮圖工作訊息: ProductID=%d, ImageKey=%s", job.ProductID, job.ImageKey)

			if err := processImageJob(ctx, job, c.minioClient); err != nil {
				logger.Log.Errorf("處理縮圖工作失敗:", err)
				time.Sleep(10 * time.Second)
				if err := d.Nack(false, true); err != nil {
					log.Printf("Nack 訊息失敗: %v", err)
				}
				continue
			}

			if err := d.Ack(false); err != nil {
				log.Printf("確認訊息失敗: %v", err)
			} else {
				log.Printf("成功處理並確認訊息，ProductID: %d", job.ProductID)
			}
		case <-ctx.Done():
			log.Println("Consumer 收到停止訊號")
			return
		}
	}
}

// processImageJob 負責執行縮圖工作：
// 1. 從 MinIO 下載原始商品圖
// 2. 產生縮圖
// 3. 將縮圖上傳到 MinIO 的 thumbs/{productID}/ 目錄
// 4. 清理本地暫存檔案
func processImageJob(ctx context.Context, job domain.ImageProcessJob, mClient database.MinIOClientRepo) error {
	localInputPath := fmt.Sprintf("./tmp/%d_original%s", job.ProductID, filepath.Ext(job.ImageKey))
	localOutputPath := fmt.Sprintf("./tmp/%d_thumb%s", job.ProductID, filepath.Ext(job.ImageKey))

	if err := os.MkdirAll("./tmp", 0755); err != nil {
		return fmt.Errorf("建立暫存目錄失敗: %w", err)
	}

	log.Printf("下載原始商品圖，ProductID: %d, ObjectKey: %s", job.ProductID, job.ImageKey)
	if err := mClient.DownloadFile(ctx, job.ImageKey, localInputPath); err != nil {
		return fmt.Errorf("下載原始商品圖失敗: %w", err)
	}

	img, err := imaging.Open(localInputPath)
	if err != nil {
		return fmt.Errorf("讀取圖片失敗: %w", err)
	}
	// 寬度固定，高度等比
	thumb := imaging.Resize(img, thumbnailWidth, 0, imaging.Lanczos)
	if err := imaging.Save(thumb, localOutputPath); err != nil {
		return fmt.Errorf("儲存縮圖失敗: %w", err)
	}

	objectName := fmt.Sprintf("thumbs/%d/%s", job.ProductID, filepath.Base(job.ImageKey))
	log.Printf("上傳縮圖 %s 至 MinIO ObjectKey: %s", localOutputPath, objectName)
	if err := mClient.UploadFile(ctx, objectName, localOutputPath, getContentType(objectName)); err != nil {
		return fmt.Errorf("上傳縮圖失敗: %w", err)
	}

	if err := os.Remove(localInputPath); err != nil {
		log.Printf("警告：清理本地原始檔失敗: %v", err)
	}
	if err := os.Remove(localOutputPath); err != nil {
		log.Printf("警告：清理本地縮圖失敗: %v", err)
	}

	return nil
}

func getContentType(filename string) string {
	ext := filepath.Ext(filename)
	switch ext {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	default:
		return "application/octet-stream"
	}
}
