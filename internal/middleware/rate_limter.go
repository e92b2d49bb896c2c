package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"listing_studio/pkg/logger"
)

// ==================== 客户端限流 ====================

// clientEntry 单个客户端的令牌桶
type clientEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter 按客户端限流（用户 ID，未登录时按 IP）
// 保护上游市场 API 不被单个前端刷爆
type RateLimiter struct {
	rps   rate.Limit
	burst int

	mu      sync.Mutex
	clients map[string]*clientEntry
	now     func() time.Time
}

// NewRateLimiter 创建限流器
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{
		rps:     rate.Limit(rps),
		burst:   burst,
		clients: make(map[string]*clientEntry),
		now:     time.Now,
	}
}

// allow 获取或创建客户端令牌桶并尝试取一个令牌
func (r *RateLimiter) allow(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.clients[key]
	if !ok {
		entry = &clientEntry{limiter: rate.NewLimiter(r.rps, r.burst)}
		r.clients[key] = entry
	}
	entry.lastSeen = r.now()
	return entry.limiter.AllowN(entry.lastSeen, 1)
}

// Cleanup 清理闲置超过 idle 的客户端，返回清理数量
func (r *RateLimiter) Cleanup(idle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-idle)
	removed := 0
	for key, entry := range r.clients {
		if entry.lastSeen.Before(cutoff) {
			delete(r.clients, key)
			removed++
		}
	}
	return removed
}

// Limit Gin 中间件
// 需放在 JWTAuth 之后才能按用户限流
func (r *RateLimiter) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if userID := GetUserID(c); userID > 0 {
			key = "user:" + strconv.FormatInt(userID, 10)
		}

		if !r.allow(key) {
			logger.L().Warnf("[RateLimit] 请求过于频繁 client=%s path=%s", key, c.FullPath())
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"code":    429,
				"message": "Too many requests, please slow down",
			})
			return
		}
		c.Next()
	}
}
