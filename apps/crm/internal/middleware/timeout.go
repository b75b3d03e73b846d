package middleware

import (
	"context"
	"time"

	"PipelineCRM/consts"
	"PipelineCRM/pkg/logger"
	"PipelineCRM/pkg/result"

	"github.com/gin-gonic/gin"
)

// TimeoutMiddleware 请求超时控制中间件
// 不额外开协程，只替换请求 context，依赖下游对 ctx 的感知。
// 处理结束后若 ctx 已超时且响应还没写出去，由这里兜底返回超时错误。
func TimeoutMiddleware(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		if ctx.Err() == context.DeadlineExceeded {
			if !c.Writer.Written() {
				logCtx := NewContextWithGin(c)
				logger.Warn(logCtx, "请求超时",
					logger.String("path", c.Request.URL.Path),
					logger.Duration("timeout", timeout),
				)
				result.Fail(c, nil, consts.CodeTimeoutError)
			}
		}
	}
}
