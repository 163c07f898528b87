package repository

import (
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"storefront_support_service/pkg/database"

	"github.com/google/uuid"
)

// 附件連結有效期，到期後需由訊息紀錄重新簽發
const attachmentURLExpiry = 7 * 24 * time.Hour

// AttachmentRepository definition upload(binary) -> URL
type AttachmentRepository interface {
	Upload(ctx context.Context, conversationID, fileName string, reader io.Reader, size int64, contentType string) (string, error)
}

type attachmentRepository struct {
	minioClient database.MinIOClientRepo
}

// NewMinIOAttachmentRepository create an AttachmentRepository
func NewMinIOAttachmentRepository(minioClient database.MinIOClientRepo) AttachmentRepository {
	return &attachmentRepository{minioClient: minioClient}
}

// Upload put the image into object storage and hand back a presigned URL
func (r *attachmentRepository) Upload(ctx context.Context, conversationID, fileName string, reader io.Reader, size int64, contentType string) (string, error) {
	objectName := fmt.Sprintf("chat/%s/%s%s", conversationID, uuid.New().String(), path.Ext(fileName))

	if err := r.minioClient.UploadStream(ctx, objectName, reader, size, contentType); err != nil {
		return "", fmt.Errorf("upload attachment [%s] : %w", objectName, err)
	}

	url, err := r.minioClient.PresignGetURL(ctx, objectName, attachmentURLExpiry)
	if err != nil {
		return "", fmt.Errorf("presign attachment [%s] : %w", objectName, err)
	}
	return url, nil
}
