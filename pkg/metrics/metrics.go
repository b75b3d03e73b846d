package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 进程内指标集中定义。
// 本地应用同样保留 /metrics：桌面端排障时可直接 curl 查看各操作计数。

var (
	// HTTPRequestsTotal HTTP 请求总数
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_http_requests_total",
			Help: "HTTP 请求总数（按方法/路径/状态码）",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration HTTP 请求耗时分布
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crm_http_request_duration_seconds",
			Help:    "HTTP 请求耗时分布",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// RelationshipOps 关系图操作计数
	RelationshipOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_relationship_ops_total",
			Help: "关系图操作计数（link/unlink/repoint，changed 表示是否实际发生变更）",
		},
		[]string{"op", "changed"},
	)

	// RepointEdges 合并重连的边处理结果计数
	RepointEdges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_repoint_edges_total",
			Help: "合并重连时边的处理结果（moved/dropped/merged/failed）",
		},
		[]string{"result"},
	)

	// SoftDeleteGroups 软删除撤销组计数
	SoftDeleteGroups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_softdelete_groups_total",
			Help: "软删除撤销组按结局计数（created/undone/finalized/recovered）",
		},
		[]string{"outcome"},
	)

	// WSConnections 当前 WebSocket 连接数
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "crm_ws_connections",
			Help: "当前在线 WebSocket 连接数",
		},
	)
)
