package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RoleAdmin is the role claim required by the admin API.
const RoleAdmin = "ADMIN"

// RequireRole rejects requests whose role claim (set by JWTAuth) is not
// one of roles with 403 Forbidden.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get(ctxRole).(string)
			if !ok || !allowed[role] {
				return echo.NewHTTPError(http.StatusForbidden, "forbidden")
			}
			return next(c)
		}
	}
}
