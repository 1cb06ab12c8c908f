package ratelimit

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/svm-engineering/storefront/internal/middleware/auth"
)

const staleAfter = 3 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter hands out one token bucket per caller. Authenticated callers are
// keyed by user id, anonymous ones by client IP. The limiter runs ahead of
// the auth middleware, so it resolves the identity from the Authorization
// header itself instead of relying on the request context.
type Limiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	limit     rate.Limit
	burst     int
	jwtSecret []byte
	done      chan struct{}
	closeOnce sync.Once
}

func New(limit rate.Limit, burst int, jwtSecret []byte) *Limiter {
	l := &Limiter{
		visitors:  make(map[string]*visitor),
		limit:     limit,
		burst:     burst,
		jwtSecret: jwtSecret,
		done:      make(chan struct{}),
	}
	go l.sweep()
	return l
}

// Close stops the background sweeper.
func (l *Limiter) Close() {
	l.closeOnce.Do(func() { close(l.done) })
}

func (l *Limiter) Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !l.visitorFor(l.keyFor(c)).Allow() {
			return c.JSON(http.StatusTooManyRequests, echo.Map{
				"success": false,
				"error":   http.StatusText(http.StatusTooManyRequests),
			})
		}
		return next(c)
	}
}

func (l *Limiter) keyFor(c echo.Context) string {
	if id, ok := auth.UserID(c); ok {
		return fmt.Sprintf("user:%d", id)
	}
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if id, ok := auth.Subject(header, l.jwtSecret); ok {
		return fmt.Sprintf("user:%d", id)
	}
	return "ip:" + c.RealIP()
}

func (l *Limiter) visitorFor(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = time.Now()
	return v.limiter
}

func (l *Limiter) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
		}

		l.mu.Lock()
		for key, v := range l.visitors {
			if time.Since(v.lastSeen) > staleAfter {
				delete(l.visitors, key)
			}
		}
		l.mu.Unlock()
	}
}
