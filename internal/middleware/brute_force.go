package middleware

import (
	"context"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// BruteForceConfig bounds repeated authentication failures per client.
type BruteForceConfig struct {
	MaxAttempts int
	Window      time.Duration
	Lockout     time.Duration
	MaxClients  int
}

// DefaultBruteForceConfig locks a client out for five minutes after five
// failures within fifteen minutes.
var DefaultBruteForceConfig = BruteForceConfig{
	MaxAttempts: 5,
	Window:      15 * time.Minute,
	Lockout:     5 * time.Minute,
	MaxClients:  10000,
}

const bruteForceCleanup = time.Minute

type failureRecord struct {
	attempts  int
	firstFail time.Time
	lockedAt  time.Time
}

// BruteForceGuard tracks authentication failures per client address.
type BruteForceGuard struct {
	cfg     BruteForceConfig
	now     func() time.Time
	mu      sync.Mutex
	records map[string]*failureRecord
	log     *logrus.Logger
}

// NewBruteForceGuard creates a guard whose cleanup goroutine stops when ctx is cancelled.
func NewBruteForceGuard(ctx context.Context, cfg BruteForceConfig, log *logrus.Logger) *BruteForceGuard {
	g := &BruteForceGuard{
		cfg:     cfg,
		now:     time.Now,
		records: make(map[string]*failureRecord),
		log:     log,
	}
	go g.cleanupLoop(ctx)

	return g
}

// IsBlocked reports whether client is currently locked out.
func (g *BruteForceGuard) IsBlocked(client string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	rec, ok := g.records[client]
	if !ok || rec.lockedAt.IsZero() {
		return false
	}

	return g.now().Sub(rec.lockedAt) < g.cfg.Lockout
}

// RecordFailure counts one failed authentication for client.
func (g *BruteForceGuard) RecordFailure(client string) {
	now := g.now()

	g.mu.Lock()
	defer g.mu.Unlock()

	rec, ok := g.records[client]
	if !ok || now.Sub(rec.firstFail) > g.cfg.Window {
		g.records[client] = &failureRecord{attempts: 1, firstFail: now}
		return
	}

	rec.attempts++
	if rec.attempts >= g.cfg.MaxAttempts && rec.lockedAt.IsZero() {
		rec.lockedAt = now
		g.log.WithField("client_ip", client).Warn("client locked out after repeated auth failures")
	}
}

// Reset clears failure tracking for client after a successful authentication.
func (g *BruteForceGuard) Reset(client string) {
	g.mu.Lock()
	delete(g.records, client)
	g.mu.Unlock()
}

func (g *BruteForceGuard) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(bruteForceCleanup)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.sweep()
		}
	}
}

// sweep drops expired records, then the oldest ones beyond MaxClients.
func (g *BruteForceGuard) sweep() {
	now := g.now()

	g.mu.Lock()
	defer g.mu.Unlock()

	for k, rec := range g.records {
		expired := now.Sub(rec.firstFail) >= g.cfg.Window
		if !rec.lockedAt.IsZero() {
			expired = now.Sub(rec.lockedAt) >= g.cfg.Lockout
		}

		if expired {
			delete(g.records, k)
		}
	}

	excess := len(g.records) - g.cfg.MaxClients
	if excess <= 0 {
		return
	}

	clients := make([]string, 0, len(g.records))
	for k := range g.records {
		clients = append(clients, k)
	}

	slices.SortFunc(clients, func(a, b string) int {
		return g.records[a].firstFail.Compare(g.records[b].firstFail)
	})

	for _, k := range clients[:excess] {
		delete(g.records, k)
	}
}

// BruteForceMiddleware rejects requests from locked-out clients.
func BruteForceMiddleware(guard *BruteForceGuard) gin.HandlerFunc {
	return func(c *gin.Context) {
		if guard.IsBlocked(c.ClientIP()) {
			respondError(c, http.StatusTooManyRequests, "rate_limited", "too many failed authentication attempts")
			return
		}

		c.Next()
	}
}
