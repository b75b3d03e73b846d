package config

import "time"

// ServerConfig 本地 HTTP 服务配置。
// 默认只监听回环地址：UI 与服务同机运行，不对外暴露。
type ServerConfig struct {
	Addr            string        `json:"addr" yaml:"addr"`                       // 监听地址
	ReadTimeout     time.Duration `json:"readTimeout" yaml:"readTimeout"`         // 读取超时
	WriteTimeout    time.Duration `json:"writeTimeout" yaml:"writeTimeout"`       // 写入超时
	IdleTimeout     time.Duration `json:"idleTimeout" yaml:"idleTimeout"`         // 空闲超时
	RequestTimeout  time.Duration `json:"requestTimeout" yaml:"requestTimeout"`   // 单请求处理超时（timeout 中间件）
	ShutdownTimeout time.Duration `json:"shutdownTimeout" yaml:"shutdownTimeout"` // 优雅停机等待时间
	RateLimitRate   float64       `json:"rateLimitRate" yaml:"rateLimitRate"`     // 每秒令牌数（按 IP）
	RateLimitBurst  int           `json:"rateLimitBurst" yaml:"rateLimitBurst"`   // 令牌桶容量
}

// DefaultServerConfig 返回本地开发的默认配置。
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:            "127.0.0.1:8090",
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    10 * time.Second,
		IdleTimeout:     60 * time.Second,
		RequestTimeout:  5 * time.Second,
		ShutdownTimeout: 30 * time.Second,
		RateLimitRate:   50.0,
		RateLimitBurst:  100,
	}
}
