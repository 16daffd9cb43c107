package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/AnTengye/projectbrief/pkg/logger"
	"github.com/gin-gonic/gin"
)

// RateLimiter counts requests per key in fixed windows
type RateLimiter struct {
	mu        sync.Mutex
	counts    map[string]int
	lastReset time.Time
	rate      int           // requests per window
	window    time.Duration // time window
	now       func() time.Time
}

func NewRateLimiter(rate int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		counts:    make(map[string]int),
		lastReset: time.Now(),
		rate:      rate,
		window:    window,
		now:       time.Now,
	}
}

// Allow records one request for key and reports whether it fits the window.
func (l *RateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now := l.now(); now.Sub(l.lastReset) > l.window {
		l.counts = make(map[string]int)
		l.lastReset = now
	}

	if l.counts[key] >= l.rate {
		return false
	}
	l.counts[key]++
	return true
}

// RateLimit limits requests per client IP. Sessions are free to mint, so
// they are not used as the key.
func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			logger.Warn(c.Request.Context(), "rate limit exceeded",
				"client_ip", c.ClientIP(),
				"path", c.FullPath(),
			)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, errorBody(c, "Rate limit exceeded. Please try again later."))
			return
		}

		c.Next()
	}
}
