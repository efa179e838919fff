package middlewares

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// visitor holds the rate limiter and the last time we saw this IP.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter hands out one token bucket per client IP.
type Limiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	every    time.Duration
	burst    int
	idle     time.Duration
}

// NewLimiter allows one request per every on average with the given burst.
// Buckets idle for longer than ten minutes are forgotten.
func NewLimiter(every time.Duration, burst int) *Limiter {
	return &Limiter{
		visitors: make(map[string]*visitor),
		every:    every,
		burst:    burst,
		idle:     10 * time.Minute,
	}
}

func (l *Limiter) get(ip string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, exists := l.visitors[ip]
	if !exists {
		l.sweep(now)
		v = &visitor{limiter: rate.NewLimiter(rate.Every(l.every), l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter
}

func (l *Limiter) sweep(now time.Time) {
	for ip, v := range l.visitors {
		if now.Sub(v.lastSeen) > l.idle {
			delete(l.visitors, ip)
		}
	}
}

func (l *Limiter) Middleware(message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.get(c.ClientIP(), time.Now()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": message})
			return
		}
		c.Next()
	}
}

// RateLimitMiddleware applies the general per-IP limit for all routes.
func RateLimitMiddleware() gin.HandlerFunc {
	return NewLimiter(time.Second, 100).Middleware("Too many requests. Please slow down.")
}

// LoginRateLimitMiddleware applies a stricter per-IP limit for register and
// login.
func LoginRateLimitMiddleware() gin.HandlerFunc {
	return NewLimiter(10*time.Second, 10).Middleware("Too many authentication attempts. Please wait and try again.")
}
