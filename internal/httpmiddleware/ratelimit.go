package httpmiddleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const limiterIdle = 5 * time.Minute

// IPRateLimiter keeps one token bucket per client IP. Buckets idle for
// longer than limiterIdle are dropped.
type IPRateLimiter struct {
	limit rate.Limit
	burst int
	now   func() time.Time

	mu        sync.Mutex
	state     map[string]*visitor
	lastSweep time.Time
}

type visitor struct {
	limiter *rate.Limiter
	seen    time.Time
}

// NewIPRateLimiter allows perMinute requests per IP with bursts of half that.
func NewIPRateLimiter(perMinute int) *IPRateLimiter {
	if perMinute <= 0 {
		perMinute = 1
	}
	return &IPRateLimiter{
		limit: rate.Every(time.Minute / time.Duration(perMinute)),
		burst: max(perMinute/2, 1),
		now:   time.Now,
		state: make(map[string]*visitor),
	}
}

// GinMiddleware returns gin handler enforcing per-IP limits.
func (l *IPRateLimiter) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}
		if !l.allow(ip) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"message": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

func (l *IPRateLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if now.Sub(l.lastSweep) > limiterIdle {
		for k, v := range l.state {
			if now.Sub(v.seen) > limiterIdle {
				delete(l.state, k)
			}
		}
		l.lastSweep = now
	}
	v, ok := l.state[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.state[key] = v
	}
	v.seen = now
	return v.limiter.AllowN(now, 1)
}
