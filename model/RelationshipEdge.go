package model

// 联系人关系角色（闭集）。未识别的输入在服务层统一归一化为 RoleOther。
const (
	RoleSpouse     = "spouse"     // 配偶
	RoleCoborrower = "coborrower" // 共同借款人
	RoleCobuyer    = "cobuyer"    // 共同购房人
	RoleGuarantor  = "guarantor"  // 担保人
	RoleOther      = "other"      // 其他
)

// EdgeKeySeparator 规范边键分隔符，edge_key = from_id + "::" + to_id。
const EdgeKeySeparator = "::"

// RelationshipEdge 维护联系人之间的无向关系边。
// 约束：
// - 规范方向 from_id < to_id（字典序），同一无序对只有一种存储表示；
// - uniqueIndex:uidx_edge_key 保证同一对联系人不出现重复边；
// - 不允许自环（from_id != to_id），在服务层归一化时拦截，存储层不做校验。
// 时间戳统一使用毫秒时间戳，由服务层写入（不用 gorm 自动时间，便于测试控制）。
type RelationshipEdge struct {
	Id        string `gorm:"column:id;type:char(20);primaryKey;comment:边id(snowflake)"`
	FromId    string `gorm:"column:from_id;type:char(20);not null;index:idx_edge_from;comment:规范方向起点联系人id"`
	ToId      string `gorm:"column:to_id;type:char(20);not null;index:idx_edge_to;comment:规范方向终点联系人id"`
	EdgeKey   string `gorm:"column:edge_key;type:varchar(64);not null;uniqueIndex:uidx_edge_key;comment:规范边键 from::to"`
	Role      string `gorm:"column:role;type:varchar(16);not null;default:other;comment:关系角色"`
	CreatedAt int64  `gorm:"column:created_at;not null;comment:创建时间(毫秒)"`
	UpdatedAt int64  `gorm:"column:updated_at;not null;comment:更新时间(毫秒)"`
}

func (RelationshipEdge) TableName() string { return "relationship_edge" }

// OtherEnd 返回边上 contactId 的对端。
// contactId 不在边上时返回空串，调用方需自行判断。
func (e *RelationshipEdge) OtherEnd(contactId string) string {
	switch contactId {
	case e.FromId:
		return e.ToId
	case e.ToId:
		return e.FromId
	default:
		return ""
	}
}

// NormalizeRole 将任意输入归一化到角色闭集。
func NormalizeRole(role string) string {
	switch role {
	case RoleSpouse, RoleCoborrower, RoleCobuyer, RoleGuarantor:
		return role
	default:
		return RoleOther
	}
}
