package service

import (
	"context"

	"PipelineCRM/pkg/logger"
)

// ActivityLogger 活动流记录器。
// 图操作和软删除在变更成功后调用它留一条人类可读的活动记录，
// 活动流是尽力而为的旁路输出，失败一律吞掉，不影响主流程。
type ActivityLogger interface {
	Log(ctx context.Context, summary string, meta map[string]interface{})
}

// zapActivityLogger 把活动记录写进结构化日志。
type zapActivityLogger struct{}

// NewActivityLogger 创建基于日志的活动记录器。
func NewActivityLogger() ActivityLogger {
	return &zapActivityLogger{}
}

func (l *zapActivityLogger) Log(ctx context.Context, summary string, meta map[string]interface{}) {
	defer func() {
		// 活动记录失败静默忽略
		_ = recover()
	}()
	if logger.L() == nil {
		return
	}
	logger.Info(ctx, "活动记录: "+summary,
		logger.Any("meta", meta),
	)
}

// NopActivityLogger 空实现。
type NopActivityLogger struct{}

func (NopActivityLogger) Log(context.Context, string, map[string]interface{}) {}
