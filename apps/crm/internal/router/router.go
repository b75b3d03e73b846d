package router

import (
	"PipelineCRM/apps/crm/internal/middleware"
	"PipelineCRM/apps/crm/internal/notify"
	v1 "PipelineCRM/apps/crm/internal/router/v1"
	"PipelineCRM/config"
	"PipelineCRM/pkg/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// InitRouter 初始化路由
// 处理器全部依赖注入，路由层不持有任何业务状态
func InitRouter(
	cfg config.ServerConfig,
	relationshipHandler *v1.RelationshipHandler,
	recordHandler *v1.RecordHandler,
	selectionHandler *v1.SelectionHandler,
	wsHandler *notify.WSHandler,
) *gin.Engine {
	r := gin.New()

	// 恢复中间件
	r.Use(middleware.GinRecovery(true))

	// 追踪中间件 (生成 trace_id)
	r.Use(util.TraceLogger())

	// 客户端 IP 中间件
	r.Use(middleware.ClientIPMiddleware())

	// 日志中间件
	r.Use(middleware.GinLogger())

	// Prometheus 监控中间件
	r.Use(middleware.PrometheusMiddleware())

	// 跨域中间件
	r.Use(middleware.CorsMiddleware())

	// IP 限流中间件
	r.Use(middleware.IPRateLimitMiddleware(cfg.RateLimitRate, cfg.RateLimitBurst))

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	// Prometheus 指标暴露接口
	// Prometheus 会定时访问这个接口来拉取监控数据
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 变更推送 WebSocket
	r.GET("/ws", wsHandler.ServeWS)

	// API 路由组
	api := r.Group("/api/v1")
	api.Use(middleware.TimeoutMiddleware(cfg.RequestTimeout))
	{
		// 关系图接口
		relationship := api.Group("/relationship")
		{
			relationship.POST("/link", relationshipHandler.Link)
			relationship.POST("/unlink", relationshipHandler.Unlink)
			relationship.GET("/list", relationshipHandler.List)
			relationship.POST("/list-many", relationshipHandler.ListMany)
			relationship.GET("/count", relationshipHandler.Count)
			relationship.POST("/repoint", relationshipHandler.Repoint)
		}

		// 记录软删除接口
		record := api.Group("/record")
		{
			record.POST("/delete", recordHandler.Delete)
			record.POST("/delete-many", recordHandler.DeleteMany)
			record.POST("/undo", recordHandler.Undo)
			record.POST("/finalize", recordHandler.Finalize)
			record.GET("/groups", recordHandler.Groups)
		}

		// 选区接口
		selection := api.Group("/selection")
		{
			selection.GET("", selectionHandler.Get)
			selection.POST("/select", selectionHandler.Select)
			selection.POST("/deselect", selectionHandler.Deselect)
			selection.POST("/toggle", selectionHandler.Toggle)
			selection.POST("/set", selectionHandler.Set)
			selection.POST("/clear", selectionHandler.Clear)
		}
	}

	return r
}
