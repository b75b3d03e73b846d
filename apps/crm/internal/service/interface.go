package service

import (
	"context"
	"time"

	"PipelineCRM/model"
)

// ==================== 关系图服务 ====================

// NormalizedPair 规范化后的无序联系人对。
type NormalizedPair struct {
	FromId  string `json:"fromId"`
	ToId    string `json:"toId"`
	EdgeKey string `json:"edgeKey"`
}

// Neighbor 联系人的一个关联对端。
type Neighbor struct {
	ContactId string `json:"contactId"` // 对端联系人id
	Role      string `json:"role"`      // 关系角色
	EdgeId    string `json:"edgeId"`    // 承载该关系的边id
}

// LinkView 单个联系人的关联视图。
type LinkView struct {
	Edges     []*model.RelationshipEdge `json:"edges"`
	Neighbors []Neighbor                `json:"neighbors"`
}

// LinkResult 建立关系的结果。
// Changed 为 false 表示边已存在且角色未变，本次调用没有写存储。
type LinkResult struct {
	Edge    *model.RelationshipEdge `json:"edge"`
	Changed bool                    `json:"changed"`
}

// RepointResult 合并重连的统计结果。
type RepointResult struct {
	Moved   int `json:"moved"`   // 改写到新规范对的边数
	Dropped int `json:"dropped"` // 因自环/重复被丢弃的边数
	Merged  int `json:"merged"`  // 因目标对已有边被吸收的边数
}

// RelationshipService 联系人关系图服务接口
type RelationshipService interface {
	// NormalizePair 规范化无序对，空id/自环返回 ErrInvalidArgument
	NormalizePair(a, b string) (NormalizedPair, error)

	// LinkContacts 建立或更新关系（同对重复调用按角色幂等）
	LinkContacts(ctx context.Context, a, b, role string) (*LinkResult, error)

	// UnlinkContacts 解除关系，返回是否确有边被删除；对不存在的边幂等
	UnlinkContacts(ctx context.Context, a, b string) (bool, error)

	// ListLinksFor 查询单个联系人的全部关联
	ListLinksFor(ctx context.Context, contactId string) (*LinkView, error)

	// ListLinksForMany 批量查询多个联系人的关联（UI 批量水合角标时使用）
	ListLinksForMany(ctx context.Context, contactIds []string) (map[string][]Neighbor, error)

	// CountLinks 查询联系人关联数（走缓存，不物化边内容）
	CountLinks(ctx context.Context, contactId string) (int64, error)

	// RepointLinks 合并联系人时把 loser 的边整体改接到 winner 上
	RepointLinks(ctx context.Context, winnerId, loserId string) (*RepointResult, error)
}

// ==================== 软删除服务 ====================

// RecordRef 指向文档库中的一条记录。
type RecordRef struct {
	Store string `json:"store"` // 集合名
	Id    string `json:"id"`    // 文档id
}

// GroupRecord 撤销组内的一条记录及其删除前快照。
type GroupRecord struct {
	Store     string          `json:"store"`
	Id        string          `json:"id"`
	Snapshot  *model.Document `json:"-"` // 删除前深拷贝，撤销时恢复用
	PendingAt int64           `json:"pendingAt"`
}

// SoftDeleteGroup 一次删除操作产生的撤销组。
// 进程内注册表持有它直到撤销或终结；进程重启后由启动扫描按
// boot:<store>:<id>:<pendingAt> 的 id 规则重建。
type SoftDeleteGroup struct {
	Id        string        `json:"id"`
	Records   []GroupRecord `json:"records"`
	PendingAt int64         `json:"pendingAt"`
	ExpiresAt int64         `json:"expiresAt"`
	Undone    bool          `json:"undone"`
}

// SoftDeleteService 两阶段软删除服务接口
type SoftDeleteService interface {
	// SoftDeleteSingle 软删除单条记录；没有任何记录被标记时返回 (nil, nil)
	SoftDeleteSingle(ctx context.Context, store, id string) (*SoftDeleteGroup, error)

	// SoftDeleteMany 批量软删除，整批归入一个撤销组；单条失败跳过不中断
	SoftDeleteMany(ctx context.Context, refs []RecordRef) (*SoftDeleteGroup, error)

	// UndoGroup 撤销整组删除；组不存在（已终结/已撤销）时返回 false 且无副作用
	UndoGroup(ctx context.Context, groupId string) bool

	// FinalizeGroup 立即终结整组删除（定时器到期时内部调用，诊断接口也可直接触发）
	FinalizeGroup(ctx context.Context, groupId string) bool

	// Bootstrap 启动恢复：扫描待删除记录，过期的立即终结，未过期的续上剩余定时
	Bootstrap(ctx context.Context) error

	// Groups 返回当前注册表中所有撤销组的快照（诊断用）
	Groups() []*SoftDeleteGroup

	// TTL 返回撤销窗口时长
	TTL() time.Duration

	// Shutdown 停掉所有定时器；待删除行留在存储里，下次启动恢复
	Shutdown()
}

// ==================== 选区服务 ====================

// 选区类型闭集。类型互斥：切换类型时现有选区先被清空。
const (
	SelectionTypeContacts = "contacts"
	SelectionTypePartners = "partners"
	SelectionTypeCalendar = "calendar"
	SelectionTypeTasks    = "tasks"
)

// SelectionChange 选区变更广播载荷（合并窗口内的最终状态）。
type SelectionChange struct {
	Ids    []string `json:"ids"`    // 排序后的当前选中id
	Type   string   `json:"type"`   // 当前选区类型
	Reason string   `json:"reason"` // 最后一次变更的来源说明
	At     int64    `json:"at"`     // 毫秒时间戳
}

// SelectionService 进程内选区服务接口。
// 纯内存状态，不落盘；同一合并窗口内的多次变更只广播一次最终状态。
type SelectionService interface {
	Select(ids []string, selType, reason string)
	Deselect(ids []string, selType, reason string)
	Toggle(id string, selType, reason string)
	Set(ids []string, selType, reason string)
	Clear(reason string)
	GetSelection() []string
	GetSelectionType() string
	Subscribe(fn func(SelectionChange)) (cancel func())
}

// IsValidSelectionType 判断选区类型是否在闭集内。
func IsValidSelectionType(selType string) bool {
	switch selType {
	case SelectionTypeContacts, SelectionTypePartners, SelectionTypeCalendar, SelectionTypeTasks:
		return true
	default:
		return false
	}
}
