package repository

import (
	"context"
	"sync"

	"storefront_support_service/pkg/logger"

	"go.uber.org/zap"
)

// SnapshotQuery 重新執行查詢，回傳完整結果集
type SnapshotQuery[T any] func(ctx context.Context) ([]T, error)

// LiveQuery 對 store 的常駐查詢：每次底層變更都重新查詢並推送完整結果。
// view 層只吃推送，不做本地補寫，送出方和其他訂閱者收斂到同一份 snapshot。
type LiveQuery[T any] struct {
	notifier ChangeNotifier
	channel  string
	query    SnapshotQuery[T]
}

// NewLiveQuery create a LiveQuery on one notify channel
func NewLiveQuery[T any](notifier ChangeNotifier, channel string, query SnapshotQuery[T]) *LiveQuery[T] {
	return &LiveQuery[T]{
		notifier: notifier,
		channel:  channel,
		query:    query,
	}
}

// OnSnapshot 先推一次目前結果，之後每個變更事件重新查詢再推。
// 回傳 unsubscribe handle。查詢失敗只記 log，訂閱不中斷。
func (lq *LiveQuery[T]) OnSnapshot(ctx context.Context, onSnapshot func([]T)) (func(), error) {
	subCtx, cancel := context.WithCancel(ctx)

	var mu sync.Mutex // snapshot 推送依事件序，不交錯
	deliver := func() {
		results, err := lq.query(subCtx)
		if err != nil {
			if subCtx.Err() != nil {
				return
			}
			logger.Log.Error("live query refresh failed",
				zap.String("channel", lq.channel),
				zap.Error(err),
			)
			return
		}
		mu.Lock()
		defer mu.Unlock()
		onSnapshot(results)
	}

	if err := lq.notifier.Subscribe(subCtx, lq.channel, func(_ []byte) {
		deliver()
	}); err != nil {
		cancel()
		return nil, err
	}

	// 初始 snapshot
	deliver()

	return cancel, nil
}
