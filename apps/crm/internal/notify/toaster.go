package notify

import (
	"context"
	"time"
)

// ToastAction 提示上的可点按钮（典型：软删除后的"撤销"）。
// ActionId 由 UI 原样带回对应的 HTTP 接口（如 /record/undo 的 groupId）。
type ToastAction struct {
	Label    string `json:"label"`
	Endpoint string `json:"endpoint"`
	ActionId string `json:"actionId"`
}

// Toaster UI 提示输出端。
// 核心服务只依赖这个接口；提示属于尽力而为的输出，失败不回传。
type Toaster interface {
	Show(ctx context.Context, message string, action *ToastAction, duration time.Duration)
}

// hubToaster 把提示作为 toast 主题的通知帧广播给 UI。
type hubToaster struct {
	hub *Hub
}

// NewHubToaster 创建基于通知总线的 Toaster。
func NewHubToaster(hub *Hub) Toaster {
	return &hubToaster{hub: hub}
}

func (t *hubToaster) Show(ctx context.Context, message string, action *ToastAction, duration time.Duration) {
	detail := map[string]interface{}{
		"message":  message,
		"duration": duration.Milliseconds(),
	}
	if action != nil {
		detail["action"] = action
	}
	t.hub.Publish(ctx, Change{
		Topic:  TopicToast,
		Op:     OpChanged,
		Detail: detail,
	})
}

// NopToaster 空实现，测试与无 UI 场景使用。
type NopToaster struct{}

func (NopToaster) Show(context.Context, string, *ToastAction, time.Duration) {}
