package repository

import (
	"context"
	"errors"
	"strings"

	"PipelineCRM/pkg/logger"

	"gorm.io/gorm"
)

// ==================== Repository 层统一错误定义 ====================

var (
	// ErrRecordNotFound 记录不存在
	ErrRecordNotFound = errors.New("record not found")

	// ErrDuplicateKey 唯一键冲突
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrDatabase 数据库操作错误
	ErrDatabase = errors.New("database error")
)

// WrapDBError 将 gorm/sqlite 错误归一化为仓储层错误。
// 上层只需要关心三类：没找到 / 唯一键冲突 / 其他数据库错误。
func WrapDBError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrRecordNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicateKey
	case isUniqueViolation(err):
		return ErrDuplicateKey
	default:
		return errors.Join(ErrDatabase, err)
	}
}

// isUniqueViolation 识别 sqlite 的唯一约束冲突。
// go-sqlite3 的错误文本固定包含 "UNIQUE constraint failed"，
// gorm 的 Translator 不一定开启，这里兜底做一次文本匹配。
func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// LogDBError 记录数据库错误（warn 级别）。
// 软删除/图操作对单条失败采取跳过策略，调用方用它留痕后继续处理。
func LogDBError(ctx context.Context, err error) {
	if err == nil || logger.L() == nil {
		return
	}
	logger.Warn(ctx, "数据库操作失败",
		logger.ErrorField("error", err),
	)
}
