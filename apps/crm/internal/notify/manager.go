package notify

import (
	"sync"

	"PipelineCRM/pkg/metrics"
)

// ConnectionManager 管理所有在线 UI 推送连接。
// 本地应用通常只有一两个窗口，但多开（主窗口 + 弹出的联系人详情）是常态，
// 所以仍然按连接 id 索引并支持广播。
type ConnectionManager struct {
	mu       sync.RWMutex
	clients  map[string]*Client
	shutdown bool
}

// NewConnectionManager 创建连接管理器实例。
func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{
		clients: make(map[string]*Client),
	}
}

// Register 注册一条连接。
// 停机阶段拒绝注册，返回 false。
func (m *ConnectionManager) Register(client *Client) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.shutdown {
		return false
	}

	m.clients[client.ConnId()] = client
	metrics.WSConnections.Set(float64(len(m.clients)))
	return true
}

// Unregister 注销一条连接。
// 只有当 map 中当前连接与入参一致时才删除，防止误删同 id 的新连接。
func (m *ConnectionManager) Unregister(client *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.clients[client.ConnId()]
	if !ok || current != client {
		return
	}

	delete(m.clients, client.ConnId())
	metrics.WSConnections.Set(float64(len(m.clients)))
}

// Broadcast 向所有在线连接广播一帧。
// 返回成功入队的连接数。
func (m *ConnectionManager) Broadcast(msg []byte) int {
	m.mu.RLock()
	clients := make([]*Client, 0, len(m.clients))
	for _, client := range m.clients {
		clients = append(clients, client)
	}
	m.mu.RUnlock()

	sent := 0
	for _, client := range clients {
		if client.Enqueue(msg) {
			sent++
		}
	}
	return sent
}

// Count 返回当前在线连接数。
func (m *ConnectionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

// Shutdown 关闭全部连接并阻止后续注册。
// 用于进程优雅退出阶段。
func (m *ConnectionManager) Shutdown() {
	m.mu.Lock()
	if m.shutdown {
		m.mu.Unlock()
		return
	}
	m.shutdown = true
	clients := make([]*Client, 0, len(m.clients))
	for _, client := range m.clients {
		clients = append(clients, client)
	}
	m.clients = make(map[string]*Client)
	metrics.WSConnections.Set(0)
	m.mu.Unlock()

	for _, client := range clients {
		client.Close()
	}
}
