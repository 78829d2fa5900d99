// Package middleware contains the echo middleware guarding the admin API
// and protecting the booking endpoints: JWT validation, role checks, a
// Redis token-bucket rate limiter and a Redis response cache.
package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// Context keys set by JWTAuth.
const (
	ctxSubject = "user_id"
	ctxRole    = "role"
)

// JWTAuth returns a middleware that validates an HS256 Bearer token and
// stores its "sub" and "role" claims in the context.  Tokens without an
// expiry are rejected; cmd/admintoken issues compatible tokens.
func JWTAuth(secret string) echo.MiddlewareFunc {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(auth, "Bearer ") {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			claims := jwt.MapClaims{}
			tok, err := parser.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			sub, _ := claims.GetSubject()
			role, _ := claims["role"].(string)
			c.Set(ctxSubject, sub)
			c.Set(ctxRole, role)
			return next(c)
		}
	}
}
