package middleware

import (
	"net"
	"net/http"
	"net/http/httputil"
	"os"
	"strings"

	"PipelineCRM/consts"
	"PipelineCRM/pkg/logger"
	"PipelineCRM/pkg/result"

	"github.com/gin-gonic/gin"
)

// GinRecovery 恢复处理器 panic 并记录堆栈
// stack 为 true 时日志携带完整调用栈
func GinRecovery(stack bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				// 客户端断连引发的写错误不算 panic，按连接中断处理
				var brokenPipe bool
				if ne, ok := err.(*net.OpError); ok {
					var se *os.SyscallError
					if seErr, ok := ne.Err.(*os.SyscallError); ok {
						se = seErr
					}
					if se != nil {
						errMsg := strings.ToLower(se.Error())
						if strings.Contains(errMsg, "broken pipe") || strings.Contains(errMsg, "connection reset by peer") {
							brokenPipe = true
						}
					}
				}

				ctx := NewContextWithGin(c)
				httpRequest, _ := httputil.DumpRequest(c.Request, false)

				if brokenPipe {
					logger.Warn(ctx, "连接中断",
						logger.String("path", c.Request.URL.Path),
						logger.Any("error", err),
						logger.String("request", string(httpRequest)),
					)
					c.Abort()
					return
				}

				if stack {
					logger.Error(ctx, "处理器panic",
						logger.Any("error", err),
						logger.String("request", string(httpRequest)),
						logger.Stack("stack"),
					)
				} else {
					logger.Error(ctx, "处理器panic",
						logger.Any("error", err),
						logger.String("request", string(httpRequest)),
					)
				}

				if !c.Writer.Written() {
					c.Status(http.StatusInternalServerError)
					result.Fail(c, nil, consts.CodeInternalError)
				}
				c.Abort()
			}
		}()
		c.Next()
	}
}
