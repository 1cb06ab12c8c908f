package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

var errNoBearer = errors.New("no bearer token")

func claimsFromHeader(header string, jwtSecret []byte) (jwt.MapClaims, error) {
	raw := strings.TrimPrefix(header, "Bearer ")
	if raw == header || raw == "" {
		return nil, errNoBearer
	}

	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}
	if !tok.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid claims")
	}
	return claims, nil
}

// Subject verifies the bearer token in an Authorization header and reports
// its subject. Callers that run before RequireAuth (the rate limiter) use it
// to key on the user id without touching the request context.
func Subject(header string, jwtSecret []byte) (uint, bool) {
	if header == "" {
		return 0, false
	}
	claims, err := claimsFromHeader(header, jwtSecret)
	if err != nil {
		return 0, false
	}
	sub, ok := claims["sub"].(float64)
	if !ok {
		return 0, false
	}
	return uint(sub), true
}

// Echo context keys populated by RequireAuth.
const (
	ContextUserID = "userID"
	ContextEmail  = "userEmail"
	ContextRole   = "userRole"
)

// RequireAuth extracts the bearer token from the Authorization header,
// verifies it, and attaches the caller identity to the request context.
func RequireAuth(jwtSecret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return unauthorized(c, "authentication required")
			}

			claims, err := claimsFromHeader(header, jwtSecret)
			if err != nil {
				if errors.Is(err, errNoBearer) {
					return unauthorized(c, "authentication required")
				}
				return unauthorized(c, "invalid token")
			}
			sub, ok := claims["sub"].(float64)
			if !ok {
				return unauthorized(c, "invalid token")
			}
			role, ok := claims["role"].(string)
			if !ok {
				return unauthorized(c, "invalid token")
			}
			email, _ := claims["email"].(string)

			c.Set(ContextUserID, uint(sub))
			c.Set(ContextEmail, email)
			c.Set(ContextRole, role)
			return next(c)
		}
	}
}

// RequireRole gates a route on the caller's role claim. It must run after
// RequireAuth.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get(ContextRole).(string)
			if !ok {
				return unauthorized(c, "authentication required")
			}
			if !allowed[role] {
				return c.JSON(http.StatusForbidden, echo.Map{
					"success": false,
					"error":   "forbidden",
				})
			}
			return next(c)
		}
	}
}

// UserID reports the authenticated caller, if any.
func UserID(c echo.Context) (uint, bool) {
	id, ok := c.Get(ContextUserID).(uint)
	return id, ok
}

func Email(c echo.Context) string {
	email, _ := c.Get(ContextEmail).(string)
	return email
}

func Role(c echo.Context) string {
	role, _ := c.Get(ContextRole).(string)
	return role
}

func unauthorized(c echo.Context, msg string) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{
		"success": false,
		"error":   msg,
	})
}
