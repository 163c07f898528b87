package app

import (
	"context"

	"storefront_support_service/internal/chat/domain"
	"storefront_support_service/internal/chat/repository"
	"storefront_support_service/pkg/logger"

	"go.uber.org/zap"
)

// ConversationSessionUseCase 顧客端對話 session：
// resolve-or-create 自己的對話，訂閱訊息流，每個 snapshot 順手把自己的未讀歸零。
// admin 從 directory 選定對話後也用同一個 session，只是帶入既有的對話 id。
type ConversationSessionUseCase struct {
	convRepo repository.ConversationRepository
	msgRepo  repository.MessageRepository
	notifier repository.ChangeNotifier
}

// NewConversationSessionUseCase create session use case
func NewConversationSessionUseCase(
	convRepo repository.ConversationRepository,
	msgRepo repository.MessageRepository,
	notifier repository.ChangeNotifier,
) *ConversationSessionUseCase {
	return &ConversationSessionUseCase{
		convRepo: convRepo,
		msgRepo:  msgRepo,
		notifier: notifier,
	}
}

// ResolveConversation 查出顧客的對話，沒有就建立。
// 兩個分頁同時第一次開聊可能各建一筆（接受的 race），查詢依 _id 升冪取第一筆，
// 所以之後每次 resolve 都回到同一個 id。
func (uc *ConversationSessionUseCase) ResolveConversation(ctx context.Context, customer domain.Identity) (string, error) {
	convs, err := uc.convRepo.FindByCustomer(ctx, customer.ID)
	if err != nil {
		return "", err
	}
	if len(convs) > 0 {
		return convs[0].ID, nil
	}

	// 新對話：admin 未讀 1 當作新對話通知，自己未讀 0
	conv := &domain.Conversation{
		CustomerID:     customer.ID,
		CustomerEmail:  customer.Email,
		LastMessage:    domain.ChatStartedPreview,
		UnreadCustomer: 0,
		UnreadAdmin:    1,
	}
	id, err := uc.convRepo.Create(ctx, conv)
	if err != nil {
		return "", err
	}

	if err := uc.notifier.Publish(repository.ConversationsChannel, domain.OpenChat); err != nil {
		logger.Log.Error("publish conversation created failed", zap.Error(err))
	}
	return id, nil
}

// Open 訂閱對話的訊息流（timestamp 升冪）。
// 每個 snapshot 都先 mark-as-read 再交給 onSnapshot——開著視窗就代表看過了，
// 跟訊息內容無關。回傳 unsubscribe handle。
func (uc *ConversationSessionUseCase) Open(ctx context.Context, viewer domain.Identity, conversationID string, onSnapshot func([]domain.ChatMessage)) (func(), error) {
	lq := repository.NewLiveQuery(uc.notifier, repository.MessagesChannel(conversationID),
		func(ctx context.Context) ([]domain.ChatMessage, error) {
			return uc.msgRepo.ListByConversation(ctx, conversationID)
		})

	return lq.OnSnapshot(ctx, func(msgs []domain.ChatMessage) {
		if err := uc.MarkAsRead(ctx, viewer, conversationID); err != nil {
			logger.Log.Error("mark as read failed",
				zap.String("conversation_id", conversationID),
				zap.Error(err),
			)
		}
		onSnapshot(msgs)
	})
}

// MarkAsRead 將觀看方自己的未讀計數歸零
func (uc *ConversationSessionUseCase) MarkAsRead(ctx context.Context, viewer domain.Identity, conversationID string) error {
	if err := uc.convRepo.ResetUnread(ctx, conversationID, viewer.IsAdmin); err != nil {
		return err
	}
	if err := uc.notifier.Publish(repository.ConversationsChannel, domain.GetUnread); err != nil {
		logger.Log.Error("publish unread reset failed", zap.Error(err))
	}
	return nil
}
