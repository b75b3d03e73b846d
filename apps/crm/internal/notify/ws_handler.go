package notify

import (
	"context"
	"net/http"

	"PipelineCRM/pkg/ctxmeta"
	"PipelineCRM/pkg/logger"
	"PipelineCRM/pkg/util"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// 服务只监听回环地址，UI 以 file:// 或 localhost 方式加载时 Origin 五花八门，
	// 这里放开来源校验。
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// WSHandler 负责处理 /ws 接入请求。
// 职责边界：
// - 处理 HTTP 层升级与错误响应；
// - 调用 manager 维护连接生命周期。
type WSHandler struct {
	connManager *ConnectionManager
}

// NewWSHandler 创建 WebSocket 入口处理器。
func NewWSHandler(connManager *ConnectionManager) *WSHandler {
	return &WSHandler{connManager: connManager}
}

// ServeWS 处理 WebSocket 握手与接入。
// 连接建立后 UI 即开始收到变更/提示帧；上行帧无业务语义。
func (h *WSHandler) ServeWS(c *gin.Context) {
	connCtx := context.Background()
	if traceID := ctxmeta.TraceIDFromGin(c); traceID != "" {
		connCtx = ctxmeta.WithTraceID(connCtx, traceID)
	}

	conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn(connCtx, "WebSocket 升级失败",
			logger.ErrorField("error", err),
		)
		return
	}

	client := NewClient(conn, util.NewUUID())
	if !h.connManager.Register(client) {
		// 停机中，直接断开
		client.Close()
		return
	}

	logger.Info(connCtx, "UI 推送连接建立",
		logger.String("conn_id", client.ConnId()),
		logger.Int("online", h.connManager.Count()),
	)

	client.Run(connCtx, func() {
		h.connManager.Unregister(client)
		logger.Info(connCtx, "UI 推送连接断开",
			logger.String("conn_id", client.ConnId()),
			logger.Int("online", h.connManager.Count()),
		)
	})
}
