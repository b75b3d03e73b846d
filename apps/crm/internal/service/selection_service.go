package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"PipelineCRM/apps/crm/internal/notify"
	"PipelineCRM/config"
)

// selectionServiceImpl 多选状态服务实现。
// 选中状态同步生效，广播走一个小合并窗口：窗口内的连续变更
// 只产生一次通知，且与上一次签名相同的广播会被吸收掉。
// set/clear 语义上是"显式声明完整选区"，即使签名没变也强制发出。
type selectionServiceImpl struct {
	hub      *notify.Hub
	coalesce time.Duration

	mu      sync.Mutex
	ids     map[string]struct{}
	selType string

	subs   map[int]func(SelectionChange)
	nextId int

	scheduled     bool
	lastSignature string
	pendingForce  bool
	pendingReason string
}

// NewSelectionService 创建选区服务实例
func NewSelectionService(hub *notify.Hub, cfg config.CRMConfig) SelectionService {
	coalesce := cfg.SelectionCoalesceDelay
	if coalesce <= 0 {
		coalesce = config.DefaultCRMConfig().SelectionCoalesceDelay
	}
	return &selectionServiceImpl{
		hub:      hub,
		coalesce: coalesce,
		ids:      make(map[string]struct{}),
		selType:  SelectionTypeContacts,
		subs:     make(map[int]func(SelectionChange)),
	}
}

// Select 把一组id加入选区。
// 选区按类型互斥：类型切换时先清空旧选区再纳入新id。
func (s *selectionServiceImpl) Select(ids []string, selType, reason string) {
	if !IsValidSelectionType(selType) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.switchTypeLocked(selType)
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		s.ids[id] = struct{}{}
	}
	s.scheduleLocked(reason, false)
}

// Deselect 把一组id移出选区。不在选区里的id静默忽略。
// 类型与当前选区不符时整个调用视为无操作。
func (s *selectionServiceImpl) Deselect(ids []string, selType, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if selType != s.selType {
		return
	}
	for _, id := range ids {
		delete(s.ids, strings.TrimSpace(id))
	}
	s.scheduleLocked(reason, false)
}

// Toggle 翻转单个id的选中状态。
func (s *selectionServiceImpl) Toggle(id string, selType, reason string) {
	if !IsValidSelectionType(selType) {
		return
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.switchTypeLocked(selType)
	if _, selected := s.ids[id]; selected {
		delete(s.ids, id)
	} else {
		s.ids[id] = struct{}{}
	}
	s.scheduleLocked(reason, false)
}

// Set 用给定id集合整体替换选区。强制广播。
func (s *selectionServiceImpl) Set(ids []string, selType, reason string) {
	if !IsValidSelectionType(selType) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.selType = selType
	s.ids = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		s.ids[id] = struct{}{}
	}
	s.scheduleLocked(reason, true)
}

// Clear 清空选区，类型保持不变。强制广播。
func (s *selectionServiceImpl) Clear(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ids = make(map[string]struct{})
	s.scheduleLocked(reason, true)
}

// GetSelection 当前选中id的有序快照
func (s *selectionServiceImpl) GetSelection() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedIdsLocked()
}

func (s *selectionServiceImpl) GetSelectionType() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selType
}

// Subscribe 注册进程内选区变更回调，返回取消函数。
// 回调在合并窗口刷新协程里执行，不要在回调里做阻塞操作。
func (s *selectionServiceImpl) Subscribe(fn func(SelectionChange)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextId
	s.nextId++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// switchTypeLocked 切换选区类型，不同类型先清空现有选区
func (s *selectionServiceImpl) switchTypeLocked(selType string) {
	if s.selType != selType {
		s.ids = make(map[string]struct{})
		s.selType = selType
	}
}

func (s *selectionServiceImpl) sortedIdsLocked() []string {
	ids := make([]string, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// scheduleLocked 安排一次合并广播。
// 窗口内只挂一个定时器；force 会粘滞到本窗口的刷新上，
// 普通变更与强制变更落在同一窗口时按强制处理。
func (s *selectionServiceImpl) scheduleLocked(reason string, force bool) {
	if force {
		s.pendingForce = true
	}
	s.pendingReason = reason
	if s.scheduled {
		return
	}
	s.scheduled = true
	time.AfterFunc(s.coalesce, s.flush)
}

// flush 计算选区签名并广播。
// 签名为 "类型#有序id拼接"，与上次相同且非强制时吸收本次广播。
func (s *selectionServiceImpl) flush() {
	s.mu.Lock()
	s.scheduled = false
	force := s.pendingForce
	s.pendingForce = false
	reason := s.pendingReason

	ids := s.sortedIdsLocked()
	signature := s.selType + "#" + strings.Join(ids, ",")
	if signature == s.lastSignature && !force {
		s.mu.Unlock()
		return
	}
	s.lastSignature = signature

	change := SelectionChange{
		Ids:    ids,
		Type:   s.selType,
		Reason: reason,
		At:     time.Now().UnixMilli(),
	}
	subs := make([]func(SelectionChange), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(change)
	}

	if s.hub != nil {
		s.hub.Publish(context.Background(), notify.Change{
			Topic: notify.TopicSelection,
			Op:    notify.OpChanged,
			Ids:   change.Ids,
			Detail: map[string]interface{}{
				"type":   change.Type,
				"reason": change.Reason,
			},
		})
	}
}
