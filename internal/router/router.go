// Package router assembles the echo instance and registers every route.
package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/theater-booking/internal/config"
	"github.com/iliyamo/theater-booking/internal/handler"
	"github.com/iliyamo/theater-booking/internal/logging"
)

// Deps carries what the routes need.  Redis may be nil; rate limiting
// and caching are then skipped.
type Deps struct {
	Reservations *handler.ReservationHandler
	Screenings   *handler.ScreeningHandler
	Health       echo.HandlerFunc
	Responder    handler.Responder

	JWTSecret string
	RateLimit config.RateLimitConfig
	Cache     config.CacheConfig
	Redis     *redis.Client
	Log       logrus.FieldLogger
}

// New returns an echo instance with the shared middleware, the validator,
// the envelope error handler and every route registered.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = d.Responder.HTTPErrorHandler

	e.Use(echomw.RequestID())
	e.Use(logging.RequestLogger(d.Log))
	e.Use(echomw.Recover())

	e.GET("/healthz", d.Health)
	RegisterPublic(e, d)
	RegisterAdmin(e, d)
	return e
}
