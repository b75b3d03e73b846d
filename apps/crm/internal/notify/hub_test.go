package notify

import (
	"context"
	"sync"
	"testing"

	"PipelineCRM/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var hubLoggerOnce sync.Once

func initHubTestLogger() {
	hubLoggerOnce.Do(func() {
		logger.ReplaceGlobal(zap.NewNop())
	})
}

func TestHubPublishDeliversToSubscribers(t *testing.T) {
	initHubTestLogger()
	hub := NewHub()

	var got []Change
	cancel := hub.Subscribe(func(change Change) {
		got = append(got, change)
	})
	defer cancel()

	hub.Publish(context.Background(), Change{
		Topic: TopicRelationships,
		Op:    OpLink,
		Ids:   []string{"c1", "c2"},
	})

	require.Len(t, got, 1)
	assert.Equal(t, TopicRelationships, got[0].Topic)
	assert.Equal(t, OpLink, got[0].Op)
	// 未填时间戳由总线补齐
	assert.NotZero(t, got[0].At)
}

func TestHubSubscribeCancel(t *testing.T) {
	initHubTestLogger()
	hub := NewHub()

	count := 0
	cancel := hub.Subscribe(func(Change) { count++ })

	hub.Publish(context.Background(), Change{Topic: TopicRecords, Op: OpRestore})
	cancel()
	hub.Publish(context.Background(), Change{Topic: TopicRecords, Op: OpRestore})

	assert.Equal(t, 1, count)
}

func TestHubSubscriberPanicIsolated(t *testing.T) {
	initHubTestLogger()
	hub := NewHub()

	cancelBad := hub.Subscribe(func(Change) { panic("订阅者崩了") })
	defer cancelBad()

	delivered := false
	cancel := hub.Subscribe(func(Change) { delivered = true })
	defer cancel()

	// panic 被隔离，其余订阅者照常收到
	hub.Publish(context.Background(), Change{Topic: TopicSelection, Op: OpChanged})
	assert.True(t, delivered)
}

func TestHubToaster(t *testing.T) {
	initHubTestLogger()
	hub := NewHub()

	var got []Change
	cancel := hub.Subscribe(func(change Change) {
		got = append(got, change)
	})
	defer cancel()

	toaster := NewHubToaster(hub)
	toaster.Show(context.Background(), "已删除 2 条记录", &ToastAction{
		Label:    "撤销",
		Endpoint: "/api/v1/record/undo",
		ActionId: "g1",
	}, 0)

	require.Len(t, got, 1)
	assert.Equal(t, TopicToast, got[0].Topic)
	assert.Equal(t, "已删除 2 条记录", got[0].Detail["message"])
}
