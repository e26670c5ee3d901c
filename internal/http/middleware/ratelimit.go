package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

type ipWindow struct {
	start time.Time
	count int
}

var (
	ipMu      sync.Mutex
	ipWindows = make(map[string]*ipWindow)
)

// SimpleRateLimit is an in-process per-IP fixed window, used where a redis
// round trip is overkill (the auth endpoint).
func SimpleRateLimit(maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		now := time.Now()

		ipMu.Lock()
		w, ok := ipWindows[ip]
		if !ok || now.Sub(w.start) > window {
			ipWindows[ip] = &ipWindow{start: now, count: 1}
			ipMu.Unlock()
			c.Next()
			return
		}
		w.count++
		over := w.count > maxRequests
		ipMu.Unlock()

		if over {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
