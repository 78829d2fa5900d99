package middleware

import "github.com/labstack/echo/v4"

// subject returns the authenticated admin's subject, or "anon" on the
// public API where no token is presented.
func subject(c echo.Context) string {
	if s, ok := c.Get(ctxSubject).(string); ok && s != "" {
		return s
	}
	return "anon"
}

// clientIP returns the caller's address as echo resolves it.
func clientIP(c echo.Context) string {
	if ip := c.RealIP(); ip != "" {
		return ip
	}
	return "unknown"
}
