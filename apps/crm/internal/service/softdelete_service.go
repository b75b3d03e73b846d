package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"PipelineCRM/apps/crm/internal/notify"
	"PipelineCRM/apps/crm/internal/repository"
	"PipelineCRM/config"
	"PipelineCRM/pkg/logger"
	"PipelineCRM/pkg/metrics"
	"PipelineCRM/pkg/util"
)

// groupEntry 内存里的待删组与对应的终删定时器
type groupEntry struct {
	group *SoftDeleteGroup
	timer *time.Timer
}

// softDeleteServiceImpl 两阶段软删除服务实现。
// 第一阶段只打待删标记并留备份，窗口内可整组撤销；
// 窗口到期由定时器触发终删。组索引只在内存，进程重启后
// 由 Bootstrap 从存储里的待删标记恢复。
type softDeleteServiceImpl struct {
	docs     repository.IDocumentRepository
	hub      *notify.Hub
	toaster  notify.Toaster
	activity ActivityLogger

	ttl     time.Duration
	watched []string
	clock   func() time.Time

	mu     sync.Mutex
	groups map[string]*groupEntry
}

// NewSoftDeleteService 创建软删除服务实例
func NewSoftDeleteService(
	docs repository.IDocumentRepository,
	hub *notify.Hub,
	toaster notify.Toaster,
	activity ActivityLogger,
	cfg config.CRMConfig,
) SoftDeleteService {
	if toaster == nil {
		toaster = notify.NopToaster{}
	}
	if activity == nil {
		activity = NopActivityLogger{}
	}
	ttl := cfg.SoftDeleteTTL
	if ttl <= 0 {
		ttl = config.DefaultCRMConfig().SoftDeleteTTL
	}
	return &softDeleteServiceImpl{
		docs:     docs,
		hub:      hub,
		toaster:  toaster,
		activity: activity,
		ttl:      ttl,
		watched:  cfg.WatchedCollections,
		clock:    time.Now,
		groups:   make(map[string]*groupEntry),
	}
}

func (s *softDeleteServiceImpl) TTL() time.Duration {
	return s.ttl
}

// SoftDeleteSingle 软删除单条记录，等价于单元素的批量删除。
func (s *softDeleteServiceImpl) SoftDeleteSingle(ctx context.Context, store, id string) (*SoftDeleteGroup, error) {
	return s.SoftDeleteMany(ctx, []RecordRef{{Store: store, Id: id}})
}

// SoftDeleteMany 把一批记录作为一个撤销组进入待删状态。
// 跳过不存在、已终删、已处于待删状态的记录（重复删除按无操作处理）；
// 全部被跳过时不建组，返回 nil。每条记录入组前留下完整快照，
// 备份同时写入存储列，进程崩溃后恢复仍可撤销。
func (s *softDeleteServiceImpl) SoftDeleteMany(ctx context.Context, refs []RecordRef) (*SoftDeleteGroup, error) {
	now := s.clock().UnixMilli()

	var records []GroupRecord
	for _, ref := range refs {
		doc, err := s.docs.Get(ctx, ref.Store, ref.Id, repository.GetOpts{IncludeDeleted: true})
		if err != nil {
			// 单条读失败只跳过该记录，已入组的记录照常走撤销窗口
			repository.LogDBError(ctx, err)
			continue
		}
		if doc == nil || doc.IsDeleted {
			continue
		}
		if doc.DeletedAtPending != nil {
			// 已在别的组里等待终删，重复删除不造新组
			continue
		}

		snapshot := doc.Clone()

		pendingAt := now
		backup := make([]byte, len(doc.Data))
		copy(backup, doc.Data)

		doc.DeletedAtPending = &pendingAt
		doc.DeletedAt = nil
		doc.IsDeleted = false
		doc.PendingBackup = backup
		doc.UpdatedAt = now
		if err := s.docs.Put(ctx, doc); err != nil {
			repository.LogDBError(ctx, err)
			continue
		}

		records = append(records, GroupRecord{
			Store:     ref.Store,
			Id:        ref.Id,
			Snapshot:  snapshot,
			PendingAt: pendingAt,
		})
	}

	if len(records) == 0 {
		return nil, nil
	}

	group := &SoftDeleteGroup{
		Id:        fmt.Sprintf("%d:%s", now, util.NewUUID()[:8]),
		Records:   records,
		PendingAt: now,
		ExpiresAt: now + s.ttl.Milliseconds(),
	}
	s.register(group, s.ttl)

	ids := make([]string, 0, len(records))
	for _, record := range records {
		ids = append(ids, record.Id)
	}

	s.activity.Log(ctx, "记录进入待删除状态", map[string]interface{}{
		"groupId": group.Id,
		"count":   len(records),
	})
	metrics.SoftDeleteGroups.WithLabelValues("created").Inc()

	s.hub.Publish(ctx, notify.Change{
		Topic: notify.TopicRecords,
		Op:    notify.OpDeletePending,
		Ids:   ids,
		Detail: map[string]interface{}{
			"groupId":   group.Id,
			"store":     records[0].Store,
			"expiresAt": group.ExpiresAt,
		},
	})

	message := fmt.Sprintf("已删除 %d 条记录", len(records))
	s.toaster.Show(ctx, message, &notify.ToastAction{
		Label:    "撤销",
		Endpoint: "/api/v1/record/undo",
		ActionId: group.Id,
	}, s.ttl)

	return group, nil
}

// register 把组挂入内存索引并启动终删定时器
func (s *softDeleteServiceImpl) register(group *SoftDeleteGroup, remaining time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := &groupEntry{group: group}
	entry.timer = time.AfterFunc(remaining, func() {
		s.FinalizeGroup(context.Background(), group.Id)
	})
	s.groups[group.Id] = entry
}

// take 从内存索引摘下组并停掉定时器，组不存在时返回 nil。
// 撤销与终删都从这里走，保证同一组只被消费一次。
func (s *softDeleteServiceImpl) take(groupId string) *groupEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.groups[groupId]
	if !ok {
		return nil
	}
	delete(s.groups, groupId)
	entry.timer.Stop()
	return entry
}

// UndoGroup 整组撤销待删。
// 恢复优先用内存快照，进程重启后的组退回存储里的备份列；
// 组不存在（已终删或id有误）返回 false，不算错误。
func (s *softDeleteServiceImpl) UndoGroup(ctx context.Context, groupId string) bool {
	entry := s.take(groupId)
	if entry == nil {
		return false
	}
	entry.group.Undone = true
	now := s.clock().UnixMilli()

	var ids []string
	for _, record := range entry.group.Records {
		doc, err := s.docs.Get(ctx, record.Store, record.Id, repository.GetOpts{IncludeDeleted: true})
		if err != nil {
			repository.LogDBError(ctx, err)
			continue
		}
		if doc == nil {
			continue
		}

		if record.Snapshot != nil {
			doc.Data = record.Snapshot.Data
		} else if doc.PendingBackup != nil {
			doc.Data = doc.PendingBackup
		}
		doc.DeletedAtPending = nil
		doc.DeletedAt = nil
		doc.IsDeleted = false
		doc.PendingBackup = nil
		doc.UpdatedAt = now
		if err := s.docs.Put(ctx, doc); err != nil {
			repository.LogDBError(ctx, err)
			continue
		}
		ids = append(ids, record.Id)
	}

	s.activity.Log(ctx, "撤销删除", map[string]interface{}{
		"groupId": groupId,
		"count":   len(ids),
	})
	metrics.SoftDeleteGroups.WithLabelValues("undone").Inc()

	s.hub.Publish(ctx, notify.Change{
		Topic: notify.TopicRecords,
		Op:    notify.OpRestore,
		Ids:   ids,
		Detail: map[string]interface{}{
			"groupId": groupId,
		},
	})
	s.toaster.Show(ctx, "已恢复删除的记录", nil, 4*time.Second)

	return true
}

// FinalizeGroup 终删一个待删组。
// 定时器到期与手动调用共用此入口；组已被撤销或不存在时返回 false。
// 只终删仍带待删标记的记录，窗口内被单独恢复过的行不受影响。
func (s *softDeleteServiceImpl) FinalizeGroup(ctx context.Context, groupId string) bool {
	entry := s.take(groupId)
	if entry == nil || entry.group.Undone {
		return false
	}
	now := s.clock().UnixMilli()

	var ids []string
	for _, record := range entry.group.Records {
		doc, err := s.docs.Get(ctx, record.Store, record.Id, repository.GetOpts{IncludeDeleted: true})
		if err != nil {
			repository.LogDBError(ctx, err)
			continue
		}
		if doc == nil || doc.DeletedAtPending == nil {
			continue
		}

		doc.DeletedAtPending = nil
		doc.DeletedAt = &now
		doc.IsDeleted = true
		doc.PendingBackup = nil
		doc.UpdatedAt = now
		if err := s.docs.Put(ctx, doc); err != nil {
			repository.LogDBError(ctx, err)
			continue
		}
		ids = append(ids, record.Id)
	}

	logger.Info(ctx, "待删除组已终删",
		logger.String("group_id", groupId),
		logger.Int("count", len(ids)),
	)
	metrics.SoftDeleteGroups.WithLabelValues("finalized").Inc()

	s.hub.Publish(ctx, notify.Change{
		Topic: notify.TopicRecords,
		Op:    notify.OpDeleteFinalize,
		Ids:   ids,
		Detail: map[string]interface{}{
			"groupId": groupId,
		},
	})

	return true
}

// Bootstrap 启动时扫描受管集合，恢复上次进程留下的待删记录。
// 每条记录重建成单记录组，组id由集合、记录和原始待删时间拼出，
// 重启幂等。剩余窗口 = 原待删时间 + TTL - 当前时间；已耗尽的立即终删。
func (s *softDeleteServiceImpl) Bootstrap(ctx context.Context) error {
	now := s.clock().UnixMilli()
	recovered := 0

	for _, collection := range s.watched {
		docs, err := s.docs.ListPending(ctx, collection)
		if err != nil {
			repository.LogDBError(ctx, err)
			continue
		}

		for _, doc := range docs {
			if doc.DeletedAtPending == nil {
				continue
			}
			pendingAt := *doc.DeletedAtPending

			group := &SoftDeleteGroup{
				Id: fmt.Sprintf("boot:%s:%s:%d", collection, doc.DocId, pendingAt),
				Records: []GroupRecord{{
					Store:     collection,
					Id:        doc.DocId,
					PendingAt: pendingAt,
				}},
				PendingAt: pendingAt,
				ExpiresAt: pendingAt + s.ttl.Milliseconds(),
			}

			remaining := time.Duration(group.ExpiresAt-now) * time.Millisecond
			if remaining <= 0 {
				// 窗口在停机期间已耗尽，同步终删。
				// 先注册再摘下，走与定时器到期完全相同的路径。
				s.register(group, time.Minute)
				s.FinalizeGroup(ctx, group.Id)
			} else {
				s.register(group, remaining)
			}
			recovered++
			metrics.SoftDeleteGroups.WithLabelValues("recovered").Inc()
		}
	}

	if recovered > 0 {
		logger.Info(ctx, "恢复未决的待删除记录", logger.Int("count", recovered))
	}
	return nil
}

// Groups 当前内存中的待删组快照，按注册顺序无保证。
func (s *softDeleteServiceImpl) Groups() []*SoftDeleteGroup {
	s.mu.Lock()
	defer s.mu.Unlock()

	groups := make([]*SoftDeleteGroup, 0, len(s.groups))
	for _, entry := range s.groups {
		groups = append(groups, entry.group)
	}
	return groups
}

// Shutdown 停掉所有定时器。记录保持待删状态，
// 下次启动由 Bootstrap 按剩余窗口接管。
func (s *softDeleteServiceImpl) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, entry := range s.groups {
		entry.timer.Stop()
	}
	s.groups = make(map[string]*groupEntry)
}
