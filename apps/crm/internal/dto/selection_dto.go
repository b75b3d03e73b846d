package dto

// ==================== 选区相关 DTO ====================

// SelectRequest 加选请求 DTO
type SelectRequest struct {
	Ids    []string `json:"ids" binding:"required,min=1,max=1000"`                          // 要选中的id列表
	Type   string   `json:"type" binding:"required,oneof=contacts partners calendar tasks"` // 选区类型
	Reason string   `json:"reason" binding:"omitempty,max=64"`                              // 变更来源说明
}

// DeselectRequest 去选请求 DTO
type DeselectRequest struct {
	Ids    []string `json:"ids" binding:"required,min=1,max=1000"`                          // 要移出的id列表
	Type   string   `json:"type" binding:"required,oneof=contacts partners calendar tasks"` // 选区类型
	Reason string   `json:"reason" binding:"omitempty,max=64"`                              // 变更来源说明
}

// ToggleRequest 翻转选中状态请求 DTO
type ToggleRequest struct {
	Id     string `json:"id" binding:"required,max=64"`                                   // 目标id
	Type   string `json:"type" binding:"required,oneof=contacts partners calendar tasks"` // 选区类型
	Reason string `json:"reason" binding:"omitempty,max=64"`                              // 变更来源说明
}

// SetSelectionRequest 整体替换选区请求 DTO（ids 可为空表示清到空选区）
type SetSelectionRequest struct {
	Ids    []string `json:"ids" binding:"max=1000"`                                         // 新选区的id列表
	Type   string   `json:"type" binding:"required,oneof=contacts partners calendar tasks"` // 选区类型
	Reason string   `json:"reason" binding:"omitempty,max=64"`                              // 变更来源说明
}

// ClearSelectionRequest 清空选区请求 DTO
type ClearSelectionRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=64"` // 变更来源说明
}

// SelectionStateResponse 选区状态响应 DTO
type SelectionStateResponse struct {
	Ids  []string `json:"ids"`  // 当前选中的id（有序）
	Type string   `json:"type"` // 当前选区类型
}
