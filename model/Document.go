package model

import "gorm.io/datatypes"

// 文档库集合名。软删除服务按集合维度做启动恢复扫描，
// 新增集合需要同步加入 config.CRMConfig.WatchedCollections。
const (
	CollectionContacts = "contacts"
	CollectionPartners = "partners"
	CollectionTasks    = "tasks"
	CollectionDeals    = "deals"
	CollectionSettings = "settings"
)

// Document 通用文档行，按 (collection, doc_id) 复合主键组织。
// 软删除采用两阶段协议：
// - 待删除：deleted_at_pending 置毫秒时间戳，pending_backup 保存删除前快照（进程重启后据此重建撤销组）；
// - 已删除：deleted_at 置毫秒时间戳 + is_deleted=true，清空 pending_backup。
// 两个阶段互斥：待删除时 deleted_at 为空、is_deleted=false。
type Document struct {
	Collection       string         `gorm:"column:collection;type:varchar(32);primaryKey;comment:集合名"`
	DocId            string         `gorm:"column:doc_id;type:char(20);primaryKey;comment:文档id"`
	Data             datatypes.JSON `gorm:"column:data;comment:文档内容(JSON)"`
	DeletedAtPending *int64         `gorm:"column:deleted_at_pending;index:idx_doc_pending;comment:待删除标记时间(毫秒)"`
	DeletedAt        *int64         `gorm:"column:deleted_at;comment:删除终结时间(毫秒)"`
	IsDeleted        bool           `gorm:"column:is_deleted;not null;default:false;comment:是否已删除"`
	PendingBackup    datatypes.JSON `gorm:"column:pending_backup;comment:删除前快照(撤销用)"`
	CreatedAt        int64          `gorm:"column:created_at;not null;comment:创建时间(毫秒)"`
	UpdatedAt        int64          `gorm:"column:updated_at;not null;comment:更新时间(毫秒)"`
}

func (Document) TableName() string { return "crm_document" }

// Clone 返回文档的深拷贝。
// datatypes.JSON 底层是 []byte，必须复制底层切片，避免快照随原行一起被修改。
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	cp := *d
	cp.Data = append(datatypes.JSON(nil), d.Data...)
	cp.PendingBackup = append(datatypes.JSON(nil), d.PendingBackup...)
	if d.DeletedAtPending != nil {
		v := *d.DeletedAtPending
		cp.DeletedAtPending = &v
	}
	if d.DeletedAt != nil {
		v := *d.DeletedAt
		cp.DeletedAt = &v
	}
	return &cp
}
