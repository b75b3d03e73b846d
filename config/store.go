package config

import (
	"strconv"
	"time"
)

// StoreConfig 内嵌 SQLite 存储配置。
// 说明：本地单用户应用，数据文件放在用户数据目录下；
// BusyTimeout 用于缓解同进程多连接下的 SQLITE_BUSY。
type StoreConfig struct {
	Path        string        `json:"path" yaml:"path"`               // 数据库文件路径，空串表示内存库（仅测试）
	BusyTimeout time.Duration `json:"busyTimeout" yaml:"busyTimeout"` // 锁等待超时
	LogSQL      bool          `json:"logSql" yaml:"logSql"`           // 是否打印 SQL（调试用）
}

// DefaultStoreConfig 返回本地开发的默认配置。
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		Path:        "crm.db",
		BusyTimeout: 5 * time.Second,
	}
}

// DSN 拼接 SQLite 连接串。
// 文件库启用 WAL，读不被写阻塞；_busy_timeout 单位毫秒；
// 空路径回退到共享内存库，方便测试复用同一份数据。
func (c StoreConfig) DSN() string {
	if c.Path == "" {
		return "file::memory:?cache=shared"
	}
	return c.Path + "?_journal_mode=WAL&_busy_timeout=" + strconv.FormatInt(c.BusyTimeout.Milliseconds(), 10)
}
