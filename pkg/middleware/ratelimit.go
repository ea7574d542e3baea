package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/d60-Lab/fanout-timeline/pkg/response"
)

type limiterEntry struct {
	l        *rate.Limiter
	lastSeen time.Time
}

// limiterPool 每个调用方（viewer 或 IP）一个令牌桶
type limiterPool struct {
	mu    sync.Mutex
	m     map[string]*limiterEntry
	rps   rate.Limit
	burst int
	ttl   time.Duration
}

func (p *limiterPool) get(key string, now time.Time) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	if e, ok := p.m[key]; ok {
		e.lastSeen = now
		return e.l
	}
	// 顺带清理长期不活跃的桶
	for k, e := range p.m {
		if now.Sub(e.lastSeen) > p.ttl {
			delete(p.m, k)
		}
	}
	l := rate.NewLimiter(p.rps, p.burst)
	p.m[key] = &limiterEntry{l: l, lastSeen: now}
	return l
}

// RateLimit 非阻塞限流，超限返回 429。rps <= 0 时不限流。
func RateLimit(rps float64, burst int) gin.HandlerFunc {
	if rps <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if burst <= 0 {
		burst = int(rps)
		if burst < 1 {
			burst = 1
		}
	}
	pool := &limiterPool{m: make(map[string]*limiterEntry), rps: rate.Limit(rps), burst: burst, ttl: 10 * time.Minute}
	return func(c *gin.Context) {
		key := ViewerID(c)
		if key == "" {
			key = "ip:" + c.ClientIP()
		}
		if !pool.get(key, time.Now()).Allow() {
			response.TooManyRequests(c)
			return
		}
		c.Next()
	}
}
