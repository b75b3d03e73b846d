package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStoreConfigDSN(t *testing.T) {
	cfg := StoreConfig{Path: "crm.db", BusyTimeout: 5 * time.Second}
	assert.Equal(t, "crm.db?_journal_mode=WAL&_busy_timeout=5000", cfg.DSN())

	// 内存库不走 WAL，仅测试用
	assert.Equal(t, "file::memory:?cache=shared", StoreConfig{}.DSN())
}
