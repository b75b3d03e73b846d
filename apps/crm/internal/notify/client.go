package notify

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	defaultSendQueueSize = 64
	wsWriteTimeout       = 5 * time.Second
)

// CloseHandler 连接关闭回调，用于在读写循环退出后从 manager 注销。
type CloseHandler func()

// Client 封装单条 UI 推送连接。
// 设计要点：
// - send 队列削峰，业务协程永不直接阻塞在网络写上；
// - done 统一关闭信号，读写循环都监听该信号退出；
// - once 保证 Close 幂等。
// 本地 UI 的上行帧没有业务语义（只有浏览器的 ping/close），读循环只负责探活。
type Client struct {
	conn   *websocket.Conn
	connId string
	send   chan []byte
	done   chan struct{}
	once   sync.Once
}

// NewClient 创建连接包装对象。
func NewClient(conn *websocket.Conn, connId string) *Client {
	return &Client{
		conn:   conn,
		connId: connId,
		send:   make(chan []byte, defaultSendQueueSize),
		done:   make(chan struct{}),
	}
}

// ConnId 返回连接唯一标识。
func (c *Client) ConnId() string {
	return c.connId
}

// Done 返回连接关闭信号通道。
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Enqueue 将待发送帧投递到写队列。
// 返回 false 表示连接已关闭或队列已满；UI 重连后会全量重查，丢帧无害。
func (c *Client) Enqueue(msg []byte) bool {
	if len(msg) == 0 {
		return true
	}
	cloned := append([]byte(nil), msg...)
	select {
	case <-c.done:
		return false
	case c.send <- cloned:
		return true
	default:
		return false
	}
}

// Run 启动读写循环并阻塞等待 readLoop 结束。
// writeLoop 在独立协程运行；退出时保证调用 Close 和 onClose。
func (c *Client) Run(ctx context.Context, onClose CloseHandler) {
	defer func() {
		c.Close()
		if onClose != nil {
			onClose()
		}
	}()

	go c.writeLoop(ctx)
	c.readLoop(ctx)
}

// Close 幂等关闭连接。
func (c *Client) Close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

// readLoop 持续读取上行帧并丢弃。
// 读到错误即认为连接断开；不读的话感知不到浏览器侧的关闭。
func (c *Client) readLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		default:
		}

		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writeLoop 持续从 send 队列取帧写入连接。
// 每次写操作设置超时，避免慢连接长期占用写协程。
func (c *Client) writeLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.Close()
				return
			}
		}
	}
}
