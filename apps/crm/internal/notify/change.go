package notify

// 变更通知主题。
const (
	TopicRelationships = "relationships" // 关系图变更
	TopicRecords       = "records"       // 文档软删除生命周期
	TopicSelection     = "selection"     // 选区变更
	TopicToast         = "toast"         // UI 提示
)

// 变更通知操作。
const (
	OpLink           = "link"            // 建立/更新关系
	OpUnlink         = "unlink"          // 解除关系
	OpRepointed      = "repointed"       // 合并重连完成
	OpDeletePending  = "delete-pending"  // 进入待删除状态
	OpRestore        = "restore"         // 撤销恢复
	OpDeleteFinalize = "delete-finalize" // 删除终结
	OpChanged        = "changed"         // 通用变更（选区等）
)

// Change 结构化变更通知。
// 载荷只用于判断相关性，不是权威增量：消费方（UI）收到后应重新查询而不是信任 Detail。
type Change struct {
	Topic  string                 `json:"topic"`
	Op     string                 `json:"op"`
	Ids    []string               `json:"ids,omitempty"`
	Detail map[string]interface{} `json:"detail,omitempty"`
	At     int64                  `json:"at"` // 毫秒时间戳
}
