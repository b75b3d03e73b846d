package dto

import (
	"PipelineCRM/apps/crm/internal/service"
)

// ==================== 关系图相关 DTO ====================

// LinkContactsRequest 建立关系请求 DTO
type LinkContactsRequest struct {
	ContactA string `json:"contactA" binding:"required,max=64"` // 联系人A的id
	ContactB string `json:"contactB" binding:"required,max=64"` // 联系人B的id
	Role     string `json:"role" binding:"omitempty,max=32"`    // 关系角色，缺省为 other
}

// LinkContactsResponse 建立关系响应 DTO
type LinkContactsResponse struct {
	EdgeId  string `json:"edgeId"`  // 承载关系的边id
	EdgeKey string `json:"edgeKey"` // 规范化边键
	FromId  string `json:"fromId"`  // 规范化后的小端
	ToId    string `json:"toId"`    // 规范化后的大端
	Role    string `json:"role"`    // 最终角色
	Changed bool   `json:"changed"` // 本次调用是否写了存储
}

// UnlinkContactsRequest 解除关系请求 DTO
type UnlinkContactsRequest struct {
	ContactA string `json:"contactA" binding:"required,max=64"` // 联系人A的id
	ContactB string `json:"contactB" binding:"required,max=64"` // 联系人B的id
}

// UnlinkContactsResponse 解除关系响应 DTO
type UnlinkContactsResponse struct {
	Changed bool `json:"changed"` // 是否确有边被删除
}

// ListLinksRequest 查询单个联系人关联请求 DTO
type ListLinksRequest struct {
	ContactId string `form:"contactId" json:"contactId" binding:"required,max=64"` // 联系人id
}

// NeighborItem 关联对端 DTO
type NeighborItem struct {
	ContactId string `json:"contactId"` // 对端联系人id
	Role      string `json:"role"`      // 关系角色
	EdgeId    string `json:"edgeId"`    // 边id
}

// ListLinksResponse 查询单个联系人关联响应 DTO
type ListLinksResponse struct {
	ContactId string          `json:"contactId"` // 查询主体
	Neighbors []*NeighborItem `json:"neighbors"` // 关联对端列表
	Total     int             `json:"total"`     // 关联总数
}

// ListLinksManyRequest 批量查询关联请求 DTO
type ListLinksManyRequest struct {
	ContactIds []string `json:"contactIds" binding:"required,min=1,max=500"` // 联系人id列表
}

// ListLinksManyResponse 批量查询关联响应 DTO
type ListLinksManyResponse struct {
	Links map[string][]*NeighborItem `json:"links"` // 联系人id到关联列表的映射
}

// CountLinksRequest 查询关联数请求 DTO
type CountLinksRequest struct {
	ContactId string `form:"contactId" json:"contactId" binding:"required,max=64"` // 联系人id
}

// CountLinksResponse 查询关联数响应 DTO
type CountLinksResponse struct {
	ContactId string `json:"contactId"` // 联系人id
	Count     int64  `json:"count"`     // 关联数
}

// RepointLinksRequest 合并改接请求 DTO
type RepointLinksRequest struct {
	WinnerId string `json:"winnerId" binding:"required,max=64"` // 合并后保留的联系人id
	LoserId  string `json:"loserId" binding:"required,max=64"`  // 被合并的联系人id
}

// RepointLinksResponse 合并改接响应 DTO
type RepointLinksResponse struct {
	Moved   int `json:"moved"`   // 改写到新规范对的边数
	Dropped int `json:"dropped"` // 被丢弃的边数
	Merged  int `json:"merged"`  // 被吸收的边数
}

// ==================== 关系图 DTO 转换函数 ====================

// ConvertLinkContactsResponse 将服务层建边结果转换为 DTO
func ConvertLinkContactsResponse(result *service.LinkResult) *LinkContactsResponse {
	if result == nil || result.Edge == nil {
		return nil
	}
	return &LinkContactsResponse{
		EdgeId:  result.Edge.Id,
		EdgeKey: result.Edge.EdgeKey,
		FromId:  result.Edge.FromId,
		ToId:    result.Edge.ToId,
		Role:    result.Edge.Role,
		Changed: result.Changed,
	}
}

// ConvertNeighborItems 将服务层关联列表转换为 DTO
func ConvertNeighborItems(neighbors []service.Neighbor) []*NeighborItem {
	items := make([]*NeighborItem, 0, len(neighbors))
	for _, neighbor := range neighbors {
		items = append(items, &NeighborItem{
			ContactId: neighbor.ContactId,
			Role:      neighbor.Role,
			EdgeId:    neighbor.EdgeId,
		})
	}
	return items
}

// ConvertListLinksResponse 将服务层关联视图转换为 DTO
func ConvertListLinksResponse(contactId string, view *service.LinkView) *ListLinksResponse {
	if view == nil {
		return &ListLinksResponse{ContactId: contactId, Neighbors: []*NeighborItem{}}
	}
	neighbors := ConvertNeighborItems(view.Neighbors)
	return &ListLinksResponse{
		ContactId: contactId,
		Neighbors: neighbors,
		Total:     len(neighbors),
	}
}

// ConvertListLinksManyResponse 将服务层批量关联结果转换为 DTO
func ConvertListLinksManyResponse(links map[string][]service.Neighbor) *ListLinksManyResponse {
	result := make(map[string][]*NeighborItem, len(links))
	for contactId, neighbors := range links {
		result[contactId] = ConvertNeighborItems(neighbors)
	}
	return &ListLinksManyResponse{Links: result}
}

// ConvertRepointLinksResponse 将服务层改接统计转换为 DTO
func ConvertRepointLinksResponse(result *service.RepointResult) *RepointLinksResponse {
	if result == nil {
		return nil
	}
	return &RepointLinksResponse{
		Moved:   result.Moved,
		Dropped: result.Dropped,
		Merged:  result.Merged,
	}
}
