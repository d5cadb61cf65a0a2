package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/Cozta1/sistema-encomendas-V2/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ── Fixed-window limiter ──────────────────────────────────────────────────────

type window struct {
	count int
	end   time.Time
}

// windowLimiter counts requests per key (client IP) in fixed windows.
type windowLimiter struct {
	mu      sync.Mutex
	entries map[string]*window
	limit   int
	period  time.Duration
	now     func() time.Time
}

func newWindowLimiter(limit int, period time.Duration) *windowLimiter {
	l := &windowLimiter{
		entries: make(map[string]*window),
		limit:   limit,
		period:  period,
		now:     time.Now,
	}
	limitersMu.Lock()
	limiters = append(limiters, l)
	limitersMu.Unlock()
	return l
}

// allow records one hit for key and reports whether it is within the limit,
// plus the end of the current window.
func (l *windowLimiter) allow(key string) (bool, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.entries[key]
	if !ok || now.After(w.end) {
		w = &window{end: now.Add(l.period)}
		l.entries[key] = w
	}
	w.count++
	return w.count <= l.limit, w.end
}

func (l *windowLimiter) purge() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	purged := 0
	for key, w := range l.entries {
		if now.After(w.end) {
			delete(l.entries, key)
			purged++
		}
	}
	return purged
}

func (l *windowLimiter) handler(msg string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, end := l.allow(c.ClientIP())
		if !ok {
			retry := int(time.Until(end).Seconds()) + 1
			c.Header("Retry-After", strconv.Itoa(retry))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New(msg))
			return
		}
		c.Next()
	}
}

// LoginRateLimiter limits credential endpoints (login, password reset) to
// 20 attempts per minute per IP.
func LoginRateLimiter() gin.HandlerFunc {
	return newWindowLimiter(20, time.Minute).
		handler("Muitas tentativas de login. Tente novamente em 1 minuto.")
}

// RateLimiter is the general API limiter: limit requests per window per IP.
func RateLimiter(limit int, period time.Duration) gin.HandlerFunc {
	return newWindowLimiter(limit, period).
		handler("Muitas requisições. Tente novamente em instantes.")
}

// ── Purge goroutine ───────────────────────────────────────────────────────────
// Periodically drops expired windows so IPs that never return don't accumulate.

const purgeInterval = 5 * time.Minute

var (
	limiters   []*windowLimiter
	limitersMu sync.Mutex
)

func init() {
	go purgeExpiredEntries()
}

func purgeExpiredEntries() {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()

	for range ticker.C {
		limitersMu.Lock()
		current := append([]*windowLimiter(nil), limiters...)
		limitersMu.Unlock()

		purged := 0
		for _, l := range current {
			purged += l.purge()
		}
		if purged > 0 {
			log.Debug().Int("entries_purged", purged).Msg("rate limiter windows purged")
		}
	}
}
