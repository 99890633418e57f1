// Package ratelimit throttles API clients with one token bucket per key.
package ratelimit

import (
	"sync"
	"time"

	xhttp "FXRisk/pkg/http"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter keeps a token bucket per key and forgets keys idle longer than idleTTL.
type Limiter struct {
	mu      sync.Mutex
	m       map[string]*entry
	rps     rate.Limit
	burst   int
	idleTTL time.Duration
	lastGC  time.Time
	now     func() time.Time
}

func New(rps float64, burst int) *Limiter {
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		m:       make(map[string]*entry),
		rps:     rate.Limit(rps),
		burst:   burst,
		idleTTL: 10 * time.Minute,
		now:     time.Now,
	}
}

// Allow reports whether one request for key may proceed now.
func (l *Limiter) Allow(key string) bool {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.m[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.m[key] = e
	}
	e.lastSeen = now
	l.gc(now)
	return e.limiter.AllowN(now, 1)
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.m)
}

func (l *Limiter) gc(now time.Time) {
	if now.Sub(l.lastGC) < l.idleTTL {
		return
	}
	l.lastGC = now
	for k, e := range l.m {
		if now.Sub(e.lastSeen) > l.idleTTL {
			delete(l.m, k)
		}
	}
}

// Middleware rejects requests over the per-client-IP rate with 429.
// A non-positive rps disables limiting.
func (l *Limiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if l.rps <= 0 || l.Allow(c.RealIP()) {
				return next(c)
			}
			c.Response().Header().Set("Retry-After", "1")
			return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("rate limit exceeded"))
		}
	}
}
