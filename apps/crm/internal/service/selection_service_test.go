package service

import (
	"sync"
	"testing"
	"time"

	"PipelineCRM/apps/crm/internal/notify"
	"PipelineCRM/config"
	"PipelineCRM/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var selectionLoggerOnce sync.Once

func initSelectionTestLogger() {
	selectionLoggerOnce.Do(func() {
		logger.ReplaceGlobal(zap.NewNop())
	})
}

func newTestSelectionService(t *testing.T) (SelectionService, chan SelectionChange) {
	t.Helper()
	initSelectionTestLogger()
	cfg := config.DefaultCRMConfig()
	cfg.SelectionCoalesceDelay = 5 * time.Millisecond
	svc := NewSelectionService(notify.NewHub(), cfg)

	changes := make(chan SelectionChange, 16)
	cancel := svc.Subscribe(func(change SelectionChange) {
		changes <- change
	})
	t.Cleanup(cancel)
	return svc, changes
}

func waitChange(t *testing.T, changes chan SelectionChange) SelectionChange {
	t.Helper()
	select {
	case change := <-changes:
		return change
	case <-time.After(2 * time.Second):
		t.Fatal("等待选区广播超时")
		return SelectionChange{}
	}
}

// settle 等过一个合并窗口，确认没有额外广播漏出来
func assertNoChange(t *testing.T, changes chan SelectionChange) {
	t.Helper()
	select {
	case change := <-changes:
		t.Fatalf("不应有额外广播: %+v", change)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSelectionBasics(t *testing.T) {
	svc, changes := newTestSelectionService(t)

	svc.Select([]string{"c2", "c1"}, SelectionTypeContacts, "test")
	change := waitChange(t, changes)
	assert.Equal(t, []string{"c1", "c2"}, change.Ids)
	assert.Equal(t, SelectionTypeContacts, change.Type)

	assert.Equal(t, []string{"c1", "c2"}, svc.GetSelection())
	assert.Equal(t, SelectionTypeContacts, svc.GetSelectionType())

	svc.Deselect([]string{"c1"}, SelectionTypeContacts, "test")
	change = waitChange(t, changes)
	assert.Equal(t, []string{"c2"}, change.Ids)
}

func TestSelectionToggle(t *testing.T) {
	svc, changes := newTestSelectionService(t)

	svc.Toggle("c1", SelectionTypeContacts, "test")
	change := waitChange(t, changes)
	assert.Equal(t, []string{"c1"}, change.Ids)

	svc.Toggle("c1", SelectionTypeContacts, "test")
	change = waitChange(t, changes)
	assert.Empty(t, change.Ids)
}

func TestSelectionTypeExclusive(t *testing.T) {
	svc, changes := newTestSelectionService(t)

	svc.Select([]string{"c1", "c2"}, SelectionTypeContacts, "test")
	waitChange(t, changes)

	// 切换类型时旧选区被清空
	svc.Select([]string{"t1"}, SelectionTypeTasks, "test")
	change := waitChange(t, changes)
	assert.Equal(t, []string{"t1"}, change.Ids)
	assert.Equal(t, SelectionTypeTasks, change.Type)
	assert.Equal(t, []string{"t1"}, svc.GetSelection())
}

func TestSelectionCoalesce(t *testing.T) {
	svc, changes := newTestSelectionService(t)

	// 同一窗口内的连续变更只广播一次最终状态
	svc.Select([]string{"c1"}, SelectionTypeContacts, "burst")
	svc.Select([]string{"c2"}, SelectionTypeContacts, "burst")
	svc.Select([]string{"c3"}, SelectionTypeContacts, "burst")

	change := waitChange(t, changes)
	assert.Equal(t, []string{"c1", "c2", "c3"}, change.Ids)
	assertNoChange(t, changes)
}

func TestSelectionSignatureDedup(t *testing.T) {
	svc, changes := newTestSelectionService(t)

	svc.Select([]string{"c1"}, SelectionTypeContacts, "test")
	waitChange(t, changes)

	// 净状态没变（加了又翻掉），签名相同，广播被吸收
	svc.Toggle("c2", SelectionTypeContacts, "noop")
	svc.Toggle("c2", SelectionTypeContacts, "noop")
	assertNoChange(t, changes)
}

func TestSelectionForceEmit(t *testing.T) {
	svc, changes := newTestSelectionService(t)

	svc.Set([]string{"c1"}, SelectionTypeContacts, "test")
	waitChange(t, changes)

	// set 即使签名不变也强制广播
	svc.Set([]string{"c1"}, SelectionTypeContacts, "test")
	change := waitChange(t, changes)
	assert.Equal(t, []string{"c1"}, change.Ids)

	// clear 同理，连续两次都要广播
	svc.Clear("test")
	change = waitChange(t, changes)
	assert.Empty(t, change.Ids)

	svc.Clear("test")
	change = waitChange(t, changes)
	assert.Empty(t, change.Ids)
}

func TestSelectionInvalidType(t *testing.T) {
	svc, changes := newTestSelectionService(t)

	svc.Select([]string{"c1"}, "bogus", "test")
	assertNoChange(t, changes)
	assert.Empty(t, svc.GetSelection())
	require.False(t, IsValidSelectionType("bogus"))
}

func TestSelectionUnsubscribe(t *testing.T) {
	svc, changes := newTestSelectionService(t)

	extra := make(chan SelectionChange, 16)
	cancel := svc.Subscribe(func(change SelectionChange) {
		extra <- change
	})

	svc.Select([]string{"c1"}, SelectionTypeContacts, "test")
	waitChange(t, changes)
	waitChange(t, extra)

	// 退订后不再收到广播，其他订阅者不受影响
	cancel()
	svc.Select([]string{"c2"}, SelectionTypeContacts, "test")
	waitChange(t, changes)
	assertNoChange(t, extra)
}
