package repository

import (
	"context"
	"errors"
	"sync"
	"testing"

	"storefront_support_service/pkg/logger"

	"github.com/stretchr/testify/assert"
)

// fakeNotifier 記住 handler，測試端自己觸發變更事件
type fakeNotifier struct {
	mu       sync.Mutex
	handlers map[string][]func(payload []byte)
	subErr   error
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{handlers: make(map[string][]func(payload []byte))}
}

func (f *fakeNotifier) Publish(channel string, message interface{}) error {
	f.mu.Lock()
	hs := append([]func(payload []byte){}, f.handlers[channel]...)
	f.mu.Unlock()

	for _, h := range hs {
		h([]byte("{}"))
	}
	return nil
}

func (f *fakeNotifier) Subscribe(ctx context.Context, channel string, handler func(payload []byte)) error {
	if f.subErr != nil {
		return f.subErr
	}
	f.mu.Lock()
	f.handlers[channel] = append(f.handlers[channel], handler)
	f.mu.Unlock()
	return nil
}

// 測試訂閱後先推初始 snapshot，每個變更事件重查再推
func TestLiveQuery_OnSnapshot(t *testing.T) {
	ctx := context.Background()
	notifier := newFakeNotifier()

	data := []string{"a"}
	var mu sync.Mutex
	query := func(ctx context.Context) ([]string, error) {
		mu.Lock()
		defer mu.Unlock()
		return append([]string{}, data...), nil
	}

	lq := NewLiveQuery(notifier, "test:channel", query)

	var snapshots [][]string
	unsub, err := lq.OnSnapshot(ctx, func(results []string) {
		snapshots = append(snapshots, results)
	})
	assert.NoError(t, err)
	assert.Len(t, snapshots, 1)
	assert.Equal(t, []string{"a"}, snapshots[0])

	// 模擬一筆寫入後的變更通知，訂閱端收到完整的新結果集
	mu.Lock()
	data = append(data, "b")
	mu.Unlock()
	assert.NoError(t, notifier.Publish("test:channel", "changed"))

	assert.Len(t, snapshots, 2)
	assert.Equal(t, []string{"a", "b"}, snapshots[1])

	unsub()
}

// 測試查詢失敗不中斷訂閱，下一個事件照常重查
func TestLiveQuery_QueryFailureKeepsSubscription(t *testing.T) {
	logger.SetNewNop() // 停用 Logger 避免測試時輸出
	ctx := context.Background()
	notifier := newFakeNotifier()

	var mu sync.Mutex
	fail := true
	query := func(ctx context.Context) ([]int, error) {
		mu.Lock()
		defer mu.Unlock()
		if fail {
			return nil, errors.New("query boom")
		}
		return []int{42}, nil
	}

	lq := NewLiveQuery(notifier, "test:channel", query)

	var snapshots [][]int
	unsub, err := lq.OnSnapshot(ctx, func(results []int) {
		snapshots = append(snapshots, results)
	})
	assert.NoError(t, err)
	// 初始查詢失敗，沒有 snapshot 但訂閱還在
	assert.Empty(t, snapshots)

	mu.Lock()
	fail = false
	mu.Unlock()
	assert.NoError(t, notifier.Publish("test:channel", "changed"))

	assert.Len(t, snapshots, 1)
	assert.Equal(t, []int{42}, snapshots[0])

	unsub()
}

// 測試 Subscribe 失敗時回傳錯誤，不會掛出半套訂閱
func TestLiveQuery_SubscribeFailure(t *testing.T) {
	ctx := context.Background()
	notifier := newFakeNotifier()
	notifier.subErr = errors.New("redis down")

	lq := NewLiveQuery(notifier, "test:channel", func(ctx context.Context) ([]string, error) {
		return nil, nil
	})

	unsub, err := lq.OnSnapshot(ctx, func([]string) {})
	assert.Error(t, err)
	assert.Nil(t, unsub)
}
