package dto

import (
	"PipelineCRM/apps/crm/internal/service"
)

// ==================== 软删除相关 DTO ====================

// RecordRefItem 记录定位 DTO
type RecordRefItem struct {
	Store string `json:"store" binding:"required,max=64"` // 集合名
	Id    string `json:"id" binding:"required,max=64"`    // 文档id
}

// SoftDeleteSingleRequest 单条软删除请求 DTO
type SoftDeleteSingleRequest struct {
	Store string `json:"store" binding:"required,max=64"` // 集合名
	Id    string `json:"id" binding:"required,max=64"`    // 文档id
}

// SoftDeleteRequest 批量软删除请求 DTO
type SoftDeleteRequest struct {
	Records []*RecordRefItem `json:"records" binding:"required,min=1,max=500,dive"` // 待删除记录列表
}

// SoftDeleteResponse 软删除响应 DTO
type SoftDeleteResponse struct {
	GroupId   string   `json:"groupId"`   // 撤销组id，空表示没有记录被标记
	Ids       []string `json:"ids"`       // 实际进入待删状态的文档id
	ExpiresAt int64    `json:"expiresAt"` // 撤销窗口截止（毫秒时间戳）
}

// UndoRequest 撤销删除请求 DTO
type UndoRequest struct {
	GroupId string `json:"groupId" binding:"required,max=128"` // 撤销组id
}

// UndoResponse 撤销删除响应 DTO
type UndoResponse struct {
	Restored bool `json:"restored"` // 是否确有记录被恢复
}

// FinalizeRequest 立即终删请求 DTO（诊断用）
type FinalizeRequest struct {
	GroupId string `json:"groupId" binding:"required,max=128"` // 撤销组id
}

// FinalizeResponse 立即终删响应 DTO
type FinalizeResponse struct {
	Finalized bool `json:"finalized"` // 是否确有组被终删
}

// GroupItem 撤销组信息 DTO
type GroupItem struct {
	Id        string   `json:"id"`        // 组id
	Ids       []string `json:"ids"`       // 组内文档id
	Store     string   `json:"store"`     // 首条记录所属集合
	PendingAt int64    `json:"pendingAt"` // 进入待删状态的时间（毫秒时间戳）
	ExpiresAt int64    `json:"expiresAt"` // 撤销窗口截止（毫秒时间戳）
}

// ListGroupsResponse 撤销组列表响应 DTO
type ListGroupsResponse struct {
	Groups []*GroupItem `json:"groups"` // 当前注册表中的撤销组
}

// ==================== 软删除 DTO 转换函数 ====================

// ConvertSoftDeleteResponse 将服务层撤销组转换为 DTO
func ConvertSoftDeleteResponse(group *service.SoftDeleteGroup) *SoftDeleteResponse {
	if group == nil {
		return &SoftDeleteResponse{Ids: []string{}}
	}
	ids := make([]string, 0, len(group.Records))
	for _, record := range group.Records {
		ids = append(ids, record.Id)
	}
	return &SoftDeleteResponse{
		GroupId:   group.Id,
		Ids:       ids,
		ExpiresAt: group.ExpiresAt,
	}
}

// ConvertGroupItem 将服务层撤销组转换为列表项 DTO
func ConvertGroupItem(group *service.SoftDeleteGroup) *GroupItem {
	if group == nil {
		return nil
	}
	ids := make([]string, 0, len(group.Records))
	store := ""
	for i, record := range group.Records {
		if i == 0 {
			store = record.Store
		}
		ids = append(ids, record.Id)
	}
	return &GroupItem{
		Id:        group.Id,
		Ids:       ids,
		Store:     store,
		PendingAt: group.PendingAt,
		ExpiresAt: group.ExpiresAt,
	}
}

// ConvertListGroupsResponse 将服务层撤销组列表转换为 DTO
func ConvertListGroupsResponse(groups []*service.SoftDeleteGroup) *ListGroupsResponse {
	items := make([]*GroupItem, 0, len(groups))
	for _, group := range groups {
		items = append(items, ConvertGroupItem(group))
	}
	return &ListGroupsResponse{Groups: items}
}
