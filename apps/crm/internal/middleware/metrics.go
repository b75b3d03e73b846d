package middleware

import (
	"strconv"
	"time"

	"PipelineCRM/pkg/metrics"

	"github.com/gin-gonic/gin"
)

// PrometheusMiddleware 采集 HTTP 请求指标
// path 维度用注册的路由模板（c.FullPath），避免按实参路径把标签打爆
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
