package app

import (
	"context"

	"storefront_support_service/internal/chat/domain"
	"storefront_support_service/internal/chat/repository"
)

// UnreadBadgeUseCase 聊天按鈕上的未讀徽章：
// admin 加總所有對話的 unread_admin，顧客只看自己對話的 unread_customer。
type UnreadBadgeUseCase struct {
	convRepo repository.ConversationRepository
	notifier repository.ChangeNotifier
}

// NewUnreadBadgeUseCase create unread badge use case
func NewUnreadBadgeUseCase(convRepo repository.ConversationRepository, notifier repository.ChangeNotifier) *UnreadBadgeUseCase {
	return &UnreadBadgeUseCase{
		convRepo: convRepo,
		notifier: notifier,
	}
}

// Total current unread total for the viewer
func (uc *UnreadBadgeUseCase) Total(ctx context.Context, viewer domain.Identity) (int, error) {
	if viewer.IsAdmin {
		convs, err := uc.convRepo.ListByRecency(ctx)
		if err != nil {
			return 0, err
		}
		total := 0
		for _, conv := range convs {
			total += conv.UnreadAdmin
		}
		return total, nil
	}

	convs, err := uc.convRepo.FindByCustomer(ctx, viewer.ID)
	if err != nil {
		return 0, err
	}
	if len(convs) == 0 {
		return 0, nil
	}
	// 重複對話時只取 resolve 會選到的那一筆
	return convs[0].UnreadCustomer, nil
}

// Watch 每次對話列表變更重算未讀總數並推送
func (uc *UnreadBadgeUseCase) Watch(ctx context.Context, viewer domain.Identity, onTotal func(int)) (func(), error) {
	lq := repository.NewLiveQuery(uc.notifier, repository.ConversationsChannel,
		func(ctx context.Context) ([]int, error) {
			total, err := uc.Total(ctx, viewer)
			if err != nil {
				return nil, err
			}
			return []int{total}, nil
		})

	return lq.OnSnapshot(ctx, func(totals []int) {
		if len(totals) == 1 {
			onTotal(totals[0])
		}
	})
}
