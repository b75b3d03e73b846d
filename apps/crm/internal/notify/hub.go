package notify

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"PipelineCRM/pkg/async"
	"PipelineCRM/pkg/logger"
)

// Subscriber 进程内订阅回调。
type Subscriber func(Change)

// Hub 进程内变更通知总线。
// 核心服务所有的"数据变了"都汇聚到这里，再分发给两类消费者：
// - 进程内订阅者（同步调用，回调自身负责不阻塞）；
// - WebSocket 连接（异步广播 JSON 帧，由 ConnectionManager 托管）。
type Hub struct {
	mu      sync.RWMutex
	nextId  int
	subs    map[int]Subscriber
	manager *ConnectionManager
}

// NewHub 创建通知总线。
func NewHub() *Hub {
	return &Hub{subs: make(map[int]Subscriber)}
}

// AttachManager 挂接 WebSocket 连接管理器。
// 不挂接时总线退化为纯进程内 pub/sub（测试场景）。
func (h *Hub) AttachManager(m *ConnectionManager) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.manager = m
}

// Subscribe 注册进程内订阅者，返回取消函数。
func (h *Hub) Subscribe(fn Subscriber) (cancel func()) {
	h.mu.Lock()
	id := h.nextId
	h.nextId++
	h.subs[id] = fn
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		delete(h.subs, id)
		h.mu.Unlock()
	}
}

// Publish 发布一条变更通知。
// 进程内订阅者在当前协程同步回调（panic 被吞掉，单个订阅者不拖垮发布方）；
// WebSocket 广播走协程池，不阻塞业务操作的返回路径。
func (h *Hub) Publish(ctx context.Context, change Change) {
	if change.At == 0 {
		change.At = time.Now().UnixMilli()
	}

	h.mu.RLock()
	subs := make([]Subscriber, 0, len(h.subs))
	for _, fn := range h.subs {
		subs = append(subs, fn)
	}
	manager := h.manager
	h.mu.RUnlock()

	for _, fn := range subs {
		h.deliver(ctx, fn, change)
	}

	if manager == nil {
		return
	}

	frame, err := json.Marshal(change)
	if err != nil {
		logger.Warn(ctx, "变更通知序列化失败",
			logger.ErrorField("error", err),
			logger.String("topic", change.Topic),
		)
		return
	}

	async.RunSafe(ctx, func(runCtx context.Context) {
		manager.Broadcast(frame)
	}, 5*time.Second)
}

// deliver 调用单个订阅者，隔离其 panic。
func (h *Hub) deliver(ctx context.Context, fn Subscriber, change Change) {
	defer func() {
		if r := recover(); r != nil {
			if logger.L() != nil {
				logger.Error(ctx, "通知订阅者 panic",
					logger.Any("panic", r),
					logger.String("topic", change.Topic),
				)
			}
		}
	}()
	fn(change)
}
