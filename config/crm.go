package config

import "time"

// CRMConfig 核心业务参数。
// SoftDeleteTTL 与 RepointYieldEvery 历史上是写死的常量（15s / 200），
// 这里开放成配置项，默认值保持原语义。
type CRMConfig struct {
	SoftDeleteTTL          time.Duration `json:"softDeleteTtl" yaml:"softDeleteTtl"`                   // 软删除撤销窗口
	RepointYieldEvery      int           `json:"repointYieldEvery" yaml:"repointYieldEvery"`           // 合并重连时每处理多少条边让出调度
	SelectionCoalesceDelay time.Duration `json:"selectionCoalesceDelay" yaml:"selectionCoalesceDelay"` // 选区变更广播合并窗口
	LinkCountCacheSize     int           `json:"linkCountCacheSize" yaml:"linkCountCacheSize"`         // 关联数角标缓存容量
	WatchedCollections     []string      `json:"watchedCollections" yaml:"watchedCollections"`         // 软删除启动恢复扫描的集合
}

// DefaultCRMConfig 返回默认业务参数。
func DefaultCRMConfig() CRMConfig {
	return CRMConfig{
		SoftDeleteTTL:          15 * time.Second,
		RepointYieldEvery:      200,
		SelectionCoalesceDelay: 10 * time.Millisecond,
		LinkCountCacheSize:     1024,
		WatchedCollections: []string{
			"contacts",
			"partners",
			"tasks",
			"deals",
			"settings",
		},
	}
}
