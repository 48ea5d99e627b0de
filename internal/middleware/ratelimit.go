// Package middleware provides the gin middleware chain of the graph builder API.
package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// maxClients caps tracked client addresses.
const maxClients = 100_000

const limiterIdle = 10 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter applies a token bucket per client IP.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientLimiter
	limit   rate.Limit
	burst   int
}

// NewRateLimiter allows perSecond requests per client with the given burst.
// Idle clients are evicted by a goroutine that stops when ctx is cancelled.
func NewRateLimiter(ctx context.Context, perSecond float64, burst int) *RateLimiter {
	rl := &RateLimiter{
		clients: make(map[string]*clientLimiter),
		limit:   rate.Limit(perSecond),
		burst:   burst,
	}
	go rl.cleanupLoop(ctx)

	return rl
}

func (rl *RateLimiter) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(limiterIdle / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			rl.mu.Lock()
			for ip, cl := range rl.clients {
				if now.Sub(cl.lastSeen) > limiterIdle {
					delete(rl.clients, ip)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// allow reports whether ip may proceed. ok is false when the client table is full.
func (rl *RateLimiter) allow(ip string) (allowed, ok bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cl, found := rl.clients[ip]
	if !found {
		if len(rl.clients) >= maxClients {
			return false, false
		}

		cl = &clientLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[ip] = cl
	}

	cl.lastSeen = time.Now()

	return cl.limiter.Allow(), true
}

// Handler returns the rate limiting middleware.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		// ClientIP ignores forwarding headers: the router trusts no proxies.
		allowed, ok := rl.allow(c.ClientIP())
		if !ok {
			respondError(c, http.StatusTooManyRequests, "rate_limited", "too many clients")
			return
		}

		if !allowed {
			respondError(c, http.StatusTooManyRequests, "rate_limited", "rate limit exceeded")
			return
		}

		c.Next()
	}
}
