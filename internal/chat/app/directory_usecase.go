package app

import (
	"context"
	"fmt"
	"sync"

	"storefront_support_service/internal/chat/domain"
	"storefront_support_service/internal/chat/repository"
	"storefront_support_service/pkg/logger"

	"go.uber.org/zap"
)

// ConversationDirectoryUseCase admin 端對話列表：
// 訂閱全部對話（last_message_time 降冪，所有 admin 都看得到所有對話），
// 維護單一 active 選擇，提供級聯刪除。
type ConversationDirectoryUseCase struct {
	convRepo repository.ConversationRepository
	msgRepo  repository.MessageRepository
	notifier repository.ChangeNotifier

	mu     sync.Mutex
	active string
}

// NewConversationDirectoryUseCase create directory use case
func NewConversationDirectoryUseCase(
	convRepo repository.ConversationRepository,
	msgRepo repository.MessageRepository,
	notifier repository.ChangeNotifier,
) *ConversationDirectoryUseCase {
	return &ConversationDirectoryUseCase{
		convRepo: convRepo,
		msgRepo:  msgRepo,
		notifier: notifier,
	}
}

// Open 訂閱對話列表。snapshot 非空而且還沒有選擇時自動選第一筆（最新），
// 自動選擇也會把該對話的 admin 未讀歸零。
func (uc *ConversationDirectoryUseCase) Open(ctx context.Context, admin domain.Identity, onSnapshot func([]domain.Conversation)) (func(), error) {
	lq := repository.NewLiveQuery(uc.notifier, repository.ConversationsChannel,
		func(ctx context.Context) ([]domain.Conversation, error) {
			return uc.convRepo.ListByRecency(ctx)
		})

	return lq.OnSnapshot(ctx, func(convs []domain.Conversation) {
		uc.mu.Lock()
		needSelect := uc.active == "" && len(convs) > 0
		uc.mu.Unlock()

		if needSelect {
			if err := uc.Select(ctx, admin, convs[0].ID); err != nil {
				logger.Log.Error("auto select conversation failed",
					zap.String("conversation_id", convs[0].ID),
					zap.Error(err),
				)
			}
		}
		onSnapshot(convs)
	})
}

// Select 設定 active 對話並把自己（admin）的未讀歸零
func (uc *ConversationDirectoryUseCase) Select(ctx context.Context, admin domain.Identity, conversationID string) error {
	uc.mu.Lock()
	uc.active = conversationID
	uc.mu.Unlock()

	if err := uc.convRepo.ResetUnread(ctx, conversationID, true); err != nil {
		return err
	}
	if err := uc.notifier.Publish(repository.ConversationsChannel, domain.SelectConversation); err != nil {
		logger.Log.Error("publish select failed", zap.Error(err))
	}
	return nil
}

// Active current selection, empty when none
func (uc *ConversationDirectoryUseCase) Active() string {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.active
}

// Delete 級聯刪除：先刪訊息再刪對話本體。兩步不是交易，
// 任何一步失敗都回傳錯誤讓 admin 知道狀態不一致，不會假裝成功。
func (uc *ConversationDirectoryUseCase) Delete(ctx context.Context, conversationID string) error {
	deleted, err := uc.msgRepo.DeleteByConversation(ctx, conversationID)
	if err != nil {
		return fmt.Errorf("delete conversation %s: removing messages failed after %d deletions: %w", conversationID, deleted, err)
	}

	if err := uc.convRepo.Delete(ctx, conversationID); err != nil {
		return fmt.Errorf("delete conversation %s: %d messages removed but conversation record remains: %w", conversationID, deleted, err)
	}

	uc.mu.Lock()
	if uc.active == conversationID {
		uc.active = ""
	}
	uc.mu.Unlock()

	if err := uc.notifier.Publish(repository.ConversationsChannel, domain.DeleteConversation); err != nil {
		logger.Log.Error("publish delete failed", zap.Error(err))
	}
	if err := uc.notifier.Publish(repository.MessagesChannel(conversationID), domain.DeleteConversation); err != nil {
		logger.Log.Error("publish delete failed", zap.Error(err))
	}
	return nil
}
