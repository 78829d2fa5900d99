// Package logging configures logrus and provides the request logging
// middleware.
package logging

import (
	"os"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// New returns a logger at the given level ("debug", "info", ...).  The
// development environment gets text output; everything else gets JSON.
// An unknown level falls back to info.
func New(level, env string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
	if env == "development" || env == "dev" {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	}
	return log
}

// RequestLogger logs one line per request with method, path, status,
// latency and request id.  Errors returned by handlers are logged at error
// level.
func RequestLogger(log logrus.FieldLogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			started := time.Now()
			err := next(c)
			if err != nil {
				// Let echo render the error so the logged status is final.
				c.Error(err)
			}

			req, res := c.Request(), c.Response()
			id := req.Header.Get(echo.HeaderXRequestID)
			if id == "" {
				id = res.Header().Get(echo.HeaderXRequestID)
			}
			entry := log.WithFields(logrus.Fields{
				"method":     req.Method,
				"path":       req.URL.Path,
				"route":      c.Path(),
				"status":     res.Status,
				"latency_ms": time.Since(started).Milliseconds(),
				"request_id": id,
				"remote_ip":  c.RealIP(),
			})
			switch {
			case err != nil:
				entry.WithError(err).Error("request failed")
			case res.Status >= 500:
				entry.Error("request handled")
			default:
				entry.Info("request handled")
			}
			return nil
		}
	}
}
