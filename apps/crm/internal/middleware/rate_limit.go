package middleware

import (
	"PipelineCRM/consts"
	"PipelineCRM/pkg/logger"
	"PipelineCRM/pkg/result"

	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

// ==================== IP 级别限流 ====================

// ipRateLimiter 进程内 IP 级别令牌桶限流器。
// 每个来源 IP 一个桶，桶挂在 LRU 里，长期不来的 IP 自动被淘汰。
type ipRateLimiter struct {
	limiters *lru.Cache[string, *rate.Limiter]
	rate     rate.Limit
	burst    int
}

// newIPRateLimiter 创建 IP 限流器
// r: 每秒产生的令牌数；burst: 令牌桶容量；size: 最多跟踪的 IP 数
func newIPRateLimiter(r float64, burst, size int) (*ipRateLimiter, error) {
	limiters, err := lru.New[string, *rate.Limiter](size)
	if err != nil {
		return nil, err
	}
	return &ipRateLimiter{
		limiters: limiters,
		rate:     rate.Limit(r),
		burst:    burst,
	}, nil
}

// Allow 检查是否允许该 IP 的一次请求通过
func (l *ipRateLimiter) Allow(ip string) bool {
	limiter, ok := l.limiters.Get(ip)
	if !ok {
		limiter = rate.NewLimiter(l.rate, l.burst)
		// 并发首访可能各建一个桶，多放行一两个请求无所谓
		l.limiters.Add(ip, limiter)
	}
	return limiter.Allow()
}

// IPRateLimitMiddleware 基于进程内令牌桶的 IP 级别限流中间件
// 参数：
//   - r: 每秒产生的令牌数
//   - burst: 令牌桶容量
func IPRateLimitMiddleware(r float64, burst int) gin.HandlerFunc {
	limiter, err := newIPRateLimiter(r, burst, 4096)
	if err != nil {
		// LRU 只在容量非法时报错，固定容量下不会走到；放行兜底
		logger.Warn(nil, "限流器初始化失败，跳过限流", logger.ErrorField("error", err))
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		ip := ClientIPFromGinContext(c)
		if ip == "" {
			c.Next()
			return
		}

		if !limiter.Allow(ip) {
			ctx := NewContextWithGin(c)
			logger.Warn(ctx, "IP 请求被限流",
				logger.String("ip", ip),
				logger.String("path", c.Request.URL.Path),
				logger.String("method", c.Request.Method),
			)
			result.Fail(c, nil, consts.CodeTooManyRequests)
			c.Abort()
			return
		}

		c.Next()
	}
}
