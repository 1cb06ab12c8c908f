package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	authmw "github.com/svm-engineering/storefront/internal/middleware/auth"
)

var testSecret = []byte("limiter-secret")

func newLimiter(t *testing.T, limit rate.Limit, burst int) *Limiter {
	t.Helper()
	l := New(limit, burst, testSecret)
	t.Cleanup(l.Close)
	return l
}

// newRouter installs the limiter as group middleware ahead of auth, the same
// order Register uses in production.
func newRouter(l *Limiter) *echo.Echo {
	e := echo.New()
	g := e.Group("", l.Middleware)
	g.GET("/ping", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, authmw.RequireAuth(testSecret))
	g.GET("/public", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	return e
}

func bearer(t *testing.T, userID uint) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":   float64(userID),
		"email": "user@example.com",
		"role":  "user",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	require.NoError(t, err)
	return "Bearer " + tok
}

func ping(e *echo.Echo, path, authHeader string) int {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set(echo.HeaderAuthorization, authHeader)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec.Code
}

func TestLimiterAllowsWithinBurst(t *testing.T) {
	e := newRouter(newLimiter(t, rate.Limit(1), 3))

	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, ping(e, "/public", ""))
	}
}

func TestLimiterRejectsBeyondBurst(t *testing.T) {
	e := newRouter(newLimiter(t, rate.Limit(1), 2))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		codes = append(codes, ping(e, "/public", ""))
	}
	require.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestLimiterKeysAuthenticatedCallersSeparately(t *testing.T) {
	l := newLimiter(t, rate.Limit(1), 1)
	e := newRouter(l)

	// Two users behind the same IP each get their own bucket, even though
	// the limiter runs before RequireAuth.
	require.Equal(t, http.StatusOK, ping(e, "/ping", bearer(t, 1)))
	require.Equal(t, http.StatusOK, ping(e, "/ping", bearer(t, 2)))

	// The first user's bucket is exhausted, the second request trips it.
	require.Equal(t, http.StatusTooManyRequests, ping(e, "/ping", bearer(t, 1)))

	// The anonymous (IP-keyed) bucket is untouched.
	require.Equal(t, http.StatusOK, ping(e, "/public", ""))
}

func TestLimiterKeysGarbageTokensByIP(t *testing.T) {
	l := newLimiter(t, rate.Limit(1), 1)
	e := newRouter(l)

	// A token that fails verification must not mint a fresh bucket, or the
	// IP limit could be bypassed with made-up subjects.
	require.Equal(t, http.StatusOK, ping(e, "/public", "Bearer garbage"))
	require.Equal(t, http.StatusTooManyRequests, ping(e, "/public", "Bearer other-garbage"))
}
