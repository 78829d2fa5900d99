package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/theater-booking/internal/config"
	"github.com/iliyamo/theater-booking/internal/database"
	"github.com/iliyamo/theater-booking/internal/handler"
	"github.com/iliyamo/theater-booking/internal/logging"
	"github.com/iliyamo/theater-booking/internal/queue"
	"github.com/iliyamo/theater-booking/internal/repository"
	"github.com/iliyamo/theater-booking/internal/router"
	"github.com/iliyamo/theater-booking/internal/service/booking"
	"github.com/iliyamo/theater-booking/internal/service/screening"
)

func main() {
	cfg := config.Load()
	log := logging.New(cfg.LogLevel, cfg.Env)
	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}

// run owns every resource so its deferred closes happen before main exits.
func run(cfg config.Config, log *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	if cfg.DBAutoMigrate {
		if err := database.InitSchema(ctx, db); err != nil {
			return fmt.Errorf("initialize schema: %w", err)
		}
		log.Info("schema initialized")
	}

	// Redis is optional: without it rate limiting and caching are skipped.
	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb == nil {
		log.Warn("redis unavailable; rate limiting and response cache disabled")
	} else {
		defer rdb.Close()
	}

	publisher := queue.NewPublisher(cfg.AMQPURL, log)
	defer publisher.Close()

	screenings := repository.NewScreeningRepo(db)
	theaters := repository.NewTheaterRepo(db)
	movies := repository.NewMovieRepo(db)
	reservations := repository.NewReservationRepo(db)

	bookingSvc := booking.NewService(database.NewTransactor(db), screenings, theaters, reservations, booking.Options{
		Location:      cfg.Location,
		PosterBaseURL: cfg.PosterBaseURL,
		Publisher:     publisher,
		Logger:        log,
	})
	screeningSvc := screening.NewService(screenings, movies, theaters, log)

	res := handler.NewResponder(cfg.Location)
	e := router.New(router.Deps{
		Reservations: handler.NewReservationHandler(bookingSvc, res),
		Screenings:   handler.NewScreeningHandler(bookingSvc, screeningSvc, res),
		Health:       handler.Health(db),
		Responder:    res,
		JWTSecret:    cfg.JWTSecret,
		RateLimit:    config.LoadRateLimitConfig(),
		Cache:        config.LoadCacheConfig(),
		Redis:        rdb,
		Log:          log,
	})

	consumer := queue.NewConsumer(cfg.AMQPURL, cfg.BookingLogDir, log)
	go func() {
		if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.WithError(err).Error("booking consumer stopped")
		}
	}()

	return serve(ctx, e, ":"+cfg.Port, log)
}

// serve runs e until ctx is done or the listener fails, then shuts it down
// gracefully.  A listener failure is returned.
func serve(ctx context.Context, e *echo.Echo, addr string, log logrus.FieldLogger) error {
	serverErr := make(chan error, 1)
	go func() {
		log.WithField("addr", addr).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case runErr = <-serverErr:
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
	return runErr
}
