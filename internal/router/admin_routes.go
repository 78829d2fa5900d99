package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/theater-booking/internal/middleware"
)

// RegisterAdmin registers the admin endpoints under /v1/admin.  Every
// route requires a valid JWT carrying the ADMIN role.
func RegisterAdmin(e *echo.Echo, d Deps) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(d.JWTSecret),
		middleware.RequireRole(middleware.RoleAdmin),
	)
	invalidate := middleware.InvalidateCache(d.Cache, d.Redis, d.Log)

	g.GET("/reservations", d.Reservations.ListByDate)
	g.GET("/screenings", d.Screenings.AdminListByDate)
	g.POST("/screenings", d.Screenings.Create, invalidate)
	g.DELETE("/screenings/:id", d.Screenings.Delete, invalidate)
}
