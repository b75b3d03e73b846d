package ctxmeta

import (
	"context"

	"github.com/gin-gonic/gin"
)

// ctx key 统一用字符串常量，与日志字段名保持一致。
const (
	KeyTraceID  = "trace_id"
	KeyClientIP = "client_ip"
)

// WithTraceID 将 trace_id 写入 ctx。
func WithTraceID(ctx context.Context, traceID string) context.Context {
	if traceID == "" {
		return ctx
	}
	return context.WithValue(ctx, KeyTraceID, traceID)
}

// TraceID 从 ctx 读取 trace_id，不存在时返回空串。
func TraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(KeyTraceID).(string); ok {
		return v
	}
	return ""
}

// TraceIDFromGin 从 gin 上下文读取 trace_id（由 util.TraceLogger 写入）。
func TraceIDFromGin(c *gin.Context) string {
	return c.GetString(KeyTraceID)
}

// WithClientIP 将客户端 IP 写入 ctx。
func WithClientIP(ctx context.Context, ip string) context.Context {
	if ip == "" {
		return ctx
	}
	return context.WithValue(ctx, KeyClientIP, ip)
}

// Propagate 提取父 ctx 中需要跨协程透传的元信息，生成新的后台 ctx。
// 用于 async.RunSafe：异步任务不继承父 ctx 的取消信号，但保留排障字段。
func Propagate(parent context.Context) context.Context {
	ctx := context.Background()
	ctx = WithTraceID(ctx, TraceID(parent))
	if ip, ok := parent.Value(KeyClientIP).(string); ok && ip != "" {
		ctx = WithClientIP(ctx, ip)
	}
	return ctx
}
