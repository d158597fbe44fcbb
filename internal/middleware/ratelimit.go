package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bloodlink/bloodlink/pkg/errors"
	"github.com/bloodlink/bloodlink/pkg/response"
)

type rateWindow struct {
	hits    int
	resetAt time.Time
}

type rateLimiter struct {
	mu      sync.Mutex
	windows map[string]*rateWindow
	limit   int
	period  time.Duration
}

func (l *rateLimiter) take(key string, now time.Time) (remaining int, resetIn time.Duration, allowed bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || now.After(w.resetAt) {
		w = &rateWindow{resetAt: now.Add(l.period)}
		l.windows[key] = w
	}
	w.hits++

	remaining = l.limit - w.hits
	if remaining < 0 {
		remaining = 0
	}
	return remaining, w.resetAt.Sub(now), w.hits <= l.limit
}

func (l *rateLimiter) sweep(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, w := range l.windows {
		if now.After(w.resetAt) {
			delete(l.windows, key)
		}
	}
}

// RateLimit caps requests per client IP and route within a fixed window.
// State lives in process memory, which is enough for a single instance;
// a multi-instance deployment would front this with its load balancer.
func RateLimit(limit int, period time.Duration) gin.HandlerFunc {
	if limit <= 0 || period <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	l := &rateLimiter{
		windows: make(map[string]*rateWindow),
		limit:   limit,
		period:  period,
	}

	// Drop expired windows so the map does not grow without bound.
	go func() {
		tick := time.NewTicker(period)
		defer tick.Stop()
		for now := range tick.C {
			l.sweep(now)
		}
	}()

	return func(c *gin.Context) {
		remaining, resetIn, allowed := l.take(c.ClientIP()+"|"+c.FullPath(), time.Now())

		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.Itoa(int(resetIn.Seconds())))

		if !allowed {
			response.Error(c, errors.ErrRateLimit)
			c.Abort()
			return
		}

		c.Next()
	}
}
