package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiterConfig holds per-session limits for state-changing requests
type RateLimiterConfig struct {
	PerMinute       int
	Burst           int
	CleanupInterval time.Duration
}

type sessionLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter throttles POSTs per browser session.
// Safe methods are never limited.
type RateLimiter struct {
	limit rate.Limit
	burst int
	ttl   time.Duration

	mu       sync.Mutex
	limiters map[string]*sessionLimiter

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter creates the limiter and starts its cleanup loop.
// A PerMinute of zero or less disables limiting.
func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 5 * time.Minute
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = cfg.PerMinute
	}

	rl := &RateLimiter{
		limit:    rate.Limit(float64(cfg.PerMinute) / 60.0),
		burst:    burst,
		ttl:      cfg.CleanupInterval * 2,
		limiters: make(map[string]*sessionLimiter),
		stopCh:   make(chan struct{}),
	}
	if cfg.PerMinute <= 0 {
		rl.limit = rate.Inf
	}

	go rl.cleanupLoop(cfg.CleanupInterval)
	return rl
}

// Stop ends the cleanup goroutine
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// Middleware rejects excess mutations. onLimited, if set, writes the
// response itself; otherwise a bare 429 is sent.
func (rl *RateLimiter) Middleware(onLimited func(c *gin.Context)) gin.HandlerFunc {
	return func(c *gin.Context) {
		if isSafeMethod(c.Request.Method) {
			c.Next()
			return
		}

		key, ok := SessionIDFromGin(c)
		if !ok {
			key = c.ClientIP()
		}

		if !rl.allow(key) {
			c.Header("Retry-After", strconv.Itoa(rl.retryAfterSeconds()))
			if onLimited != nil {
				onLimited(c)
				c.Abort()
				return
			}
			c.AbortWithStatus(http.StatusTooManyRequests)
			return
		}

		c.Next()
	}
}

// Len returns the number of tracked sessions
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

func (rl *RateLimiter) allow(key string) bool {
	rl.mu.Lock()
	sl, ok := rl.limiters[key]
	if !ok {
		sl = &sessionLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.limiters[key] = sl
	}
	sl.lastAccess = time.Now()
	rl.mu.Unlock()

	return sl.limiter.Allow()
}

func (rl *RateLimiter) retryAfterSeconds() int {
	if rl.limit == rate.Inf || rl.limit <= 0 {
		return 1
	}
	secs := int(math.Ceil(1.0 / float64(rl.limit)))
	if secs < 1 {
		secs = 1
	}
	return secs
}

func (rl *RateLimiter) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup(time.Now())
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *RateLimiter) cleanup(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, sl := range rl.limiters {
		if now.Sub(sl.lastAccess) > rl.ttl {
			delete(rl.limiters, key)
		}
	}
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}
