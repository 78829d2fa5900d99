package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/theater-booking/internal/middleware"
)

// RegisterPublic registers the customer-facing endpoints under /v1.  They
// need no token.  Booking writes are rate limited; the date listing is
// cached in Redis and the cache is dropped whenever a booking changes.
func RegisterPublic(e *echo.Echo, d Deps) {
	limit := middleware.NewTokenBucket(d.RateLimit, d.Redis, d.Log)
	invalidate := middleware.InvalidateCache(d.Cache, d.Redis, d.Log)
	cache := middleware.NewRedisCache(d.Cache, d.Redis, d.Log)

	g := e.Group("/v1")

	g.POST("/reservations", d.Reservations.Create, limit, invalidate)
	g.PATCH("/reservations/cancel", d.Reservations.Cancel, limit, invalidate)
	g.GET("/reservations", d.Reservations.List)
	g.GET("/reservations/:id", d.Reservations.Get)

	g.GET("/screenings", d.Screenings.ListByDate, cache)
	g.GET("/screenings/:id", d.Screenings.Get)
	g.GET("/screenings/:id/seats", d.Screenings.Seats)
}
