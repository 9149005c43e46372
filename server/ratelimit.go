package server

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// limiters idle for longer than this are dropped once the table grows past pruneAbove
const (
	limiterIdle = 10 * time.Minute
	pruneAbove  = 4096
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter implements token bucket rate limiting per client IP.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	rate     rate.Limit
	burst    int
}

// NewRateLimiter creates a limiter allowing perSecond requests with the given burst.
// A non-positive perSecond disables limiting.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		limiters: make(map[string]*limiterEntry),
		rate:     rate.Limit(perSecond),
		burst:    burst,
	}
}

func (rl *RateLimiter) get(key string) *rate.Limiter {
	now := time.Now()
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if e, ok := rl.limiters[key]; ok {
		e.lastSeen = now
		return e.limiter
	}
	if len(rl.limiters) >= pruneAbove {
		for k, e := range rl.limiters {
			if now.Sub(e.lastSeen) > limiterIdle {
				delete(rl.limiters, k)
			}
		}
	}
	l := rate.NewLimiter(rl.rate, rl.burst)
	rl.limiters[key] = &limiterEntry{limiter: l, lastSeen: now}
	return l
}

// Allow reports whether a request for key may proceed.
func (rl *RateLimiter) Allow(key string) bool {
	if rl == nil || rl.rate <= 0 {
		return true
	}
	return rl.get(key).Allow()
}

// Middleware limits requests by client IP.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow("ip:" + c.ClientIP()) {
			c.Header("X-RateLimit-Limit", strconv.Itoa(rl.burst))
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":             "rate_limited",
				"error_description": "too many requests",
			})
			return
		}
		c.Next()
	}
}
