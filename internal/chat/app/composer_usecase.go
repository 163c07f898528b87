package app

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"

	"storefront_support_service/internal/chat/domain"
	"storefront_support_service/internal/chat/repository"
	"storefront_support_service/pkg/logger"

	"go.uber.org/zap"
)

// MaxAttachmentBytes 附件上限 5 MiB，超過即拒收
const MaxAttachmentBytes = 5 * 1024 * 1024

var (
	// ErrAttachmentTooLarge attachment exceeds MaxAttachmentBytes
	ErrAttachmentTooLarge = errors.New("image size exceeds the 5MB limit")
	// ErrAttachmentNotImage attachment content type is not image/*
	ErrAttachmentNotImage = errors.New("only image files are allowed")
	// ErrSendInFlight a previous submission has not settled yet
	ErrSendInFlight = errors.New("send already in flight")
)

// PendingAttachment 暫存待上傳的圖片
type PendingAttachment struct {
	FileName    string
	ContentType string
	Size        int64
	Data        []byte
}

// MessageComposer 負責組裝並送出一則訊息（文字和/或圖片）。
// 一個 composer 綁一位 sender 和一個對話，draft 狀態存在記憶體。
type MessageComposer struct {
	sender         domain.Identity
	conversationID string

	convRepo repository.ConversationRepository
	msgRepo  repository.MessageRepository
	uploader repository.AttachmentRepository
	notifier repository.ChangeNotifier

	mu         sync.Mutex
	text       string
	attachment *PendingAttachment
	sending    bool
}

// NewMessageComposer create a composer bound to one sender and conversation
func NewMessageComposer(
	sender domain.Identity,
	conversationID string,
	convRepo repository.ConversationRepository,
	msgRepo repository.MessageRepository,
	uploader repository.AttachmentRepository,
	notifier repository.ChangeNotifier,
) *MessageComposer {
	return &MessageComposer{
		sender:         sender,
		conversationID: conversationID,
		convRepo:       convRepo,
		msgRepo:        msgRepo,
		uploader:       uploader,
		notifier:       notifier,
	}
}

// SetText update the draft text
func (c *MessageComposer) SetText(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.text = text
}

// Attach 驗證並暫存圖片。驗證在任何網路呼叫之前，失敗時 draft 文字保留。
func (c *MessageComposer) Attach(att PendingAttachment) error {
	if att.Size > MaxAttachmentBytes {
		return ErrAttachmentTooLarge
	}
	if !strings.HasPrefix(att.ContentType, "image/") {
		return ErrAttachmentNotImage
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.attachment = &att
	return nil
}

// ClearAttachment drop the staged image, keep the text
func (c *MessageComposer) ClearAttachment() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attachment = nil
}

// CanSend 有內容可送且前一次送出已結束
func (c *MessageComposer) CanSend() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canSendLocked()
}

func (c *MessageComposer) canSendLocked() bool {
	if c.sending {
		return false
	}
	return strings.TrimSpace(c.text) != "" || c.attachment != nil
}

// Send 送出目前的 draft：
//  1. 有附件先上傳，失敗記 log 後改送純文字
//  2. 寫入訊息（timestamp 由 store 指派）
//  3. 更新對話摘要並將對方未讀 +1
//  4. admin 第一次回覆時指派 admin_id
//  5. 完成後無條件清空 draft
//
// 空 draft 或送出中是 no-op，回傳空字串。
func (c *MessageComposer) Send(ctx context.Context) (string, error) {
	c.mu.Lock()
	if !c.canSendLocked() {
		c.mu.Unlock()
		return "", nil
	}
	c.sending = true
	text := strings.TrimSpace(c.text)
	att := c.attachment
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.sending = false
		c.mu.Unlock()
	}()

	imageURL := ""
	if att != nil {
		url, err := c.uploader.Upload(ctx, c.conversationID, att.FileName, bytes.NewReader(att.Data), att.Size, att.ContentType)
		if err != nil {
			// 上傳失敗降級成純文字送出，不中斷
			logger.Log.Error("attachment upload failed, sending text only",
				zap.String("conversation_id", c.conversationID),
				zap.String("file_name", att.FileName),
				zap.Error(err),
			)
		} else {
			imageURL = url
		}
	}

	msg := &domain.ChatMessage{
		ConversationID: c.conversationID,
		SenderID:       c.sender.ID,
		SenderEmail:    c.sender.Email,
		IsAdmin:        c.sender.IsAdmin,
		Text:           text,
		ImageURL:       imageURL,
	}

	msgID, err := c.msgRepo.Insert(ctx, msg)
	if err != nil {
		// 寫入失敗：draft 保留，sending 旗標由 defer 清掉
		return "", err
	}

	// 訊息寫入和摘要更新是兩筆寫入，中間沒有交易。
	// 併發讀者可能短暫看到新訊息但未讀數還沒動，接受。
	if err := c.convRepo.ApplyMessage(ctx, c.conversationID, msg.PreviewText(), c.sender.ID, c.sender.IsAdmin, msg.Timestamp); err != nil {
		logger.Log.Error("conversation summary update failed",
			zap.String("conversation_id", c.conversationID),
			zap.String("message_id", msgID),
			zap.Error(err),
		)
	}

	if c.sender.IsAdmin {
		if err := c.convRepo.AssignAdmin(ctx, c.conversationID, c.sender.ID, c.sender.Email); err != nil {
			logger.Log.Error("assign admin failed",
				zap.String("conversation_id", c.conversationID),
				zap.Error(err),
			)
		}
	}

	c.notifyChange()

	c.mu.Lock()
	c.text = ""
	c.attachment = nil
	c.mu.Unlock()

	return msgID, nil
}

func (c *MessageComposer) notifyChange() {
	if err := c.notifier.Publish(repository.MessagesChannel(c.conversationID), domain.Action(domain.SendMessage)); err != nil {
		logger.Log.Error("publish message change failed", zap.Error(err))
	}
	if err := c.notifier.Publish(repository.ConversationsChannel, domain.Action(domain.SendMessage)); err != nil {
		logger.Log.Error("publish conversation change failed", zap.Error(err))
	}
}
