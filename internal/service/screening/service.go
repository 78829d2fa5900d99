// Package screening schedules and removes screenings for administrators.
package screening

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/theater-booking/internal/model"
	"github.com/iliyamo/theater-booking/internal/repository"
	"github.com/iliyamo/theater-booking/internal/service/booking"
)

// Store persists screenings.
type Store interface {
	Create(ctx context.Context, s *model.Screening) error
	FindOverlapping(ctx context.Context, theaterID string, start, end time.Time) ([]model.Screening, error)
	SoftDelete(ctx context.Context, id string) error
}

// MovieFinder looks up movies.
type MovieFinder interface {
	GetByID(ctx context.Context, id string) (*model.Movie, error)
}

// TheaterFinder looks up theaters.
type TheaterFinder interface {
	GetByID(ctx context.Context, id string) (*model.Theater, error)
}

type Service struct {
	store    Store
	movies   MovieFinder
	theaters TheaterFinder
	log      logrus.FieldLogger
	newID    func() string
}

func NewService(store Store, movies MovieFinder, theaters TheaterFinder, log logrus.FieldLogger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{
		store:    store,
		movies:   movies,
		theaters: theaters,
		log:      log.WithField("component", "screening"),
		newID:    uuid.NewString,
	}
}

// ScheduleInput describes a new screening.  Kind defaults to "00".
type ScheduleInput struct {
	MovieID   string              `json:"movie_id" validate:"required,uuid"`
	TheaterID string              `json:"theater_id" validate:"required,uuid"`
	Kind      model.ScreeningKind `json:"kind"`
	StartTime time.Time           `json:"start_time" validate:"required"`
	EndTime   time.Time           `json:"end_time" validate:"required"`
	ReadyTime *time.Time          `json:"ready_time"`
}

// Schedule creates a screening.  The movie and theater must exist and the
// theater must be free for the whole [start, end) interval.
func (s *Service) Schedule(ctx context.Context, in ScheduleInput) (*model.Screening, error) {
	if strings.TrimSpace(in.MovieID) == "" || strings.TrimSpace(in.TheaterID) == "" {
		return nil, booking.Validation("movie_id and theater_id are required")
	}
	if in.Kind == "" {
		in.Kind = model.KindDefault
	}
	if !in.Kind.Valid() {
		return nil, booking.Validation("unknown screening kind %q", string(in.Kind))
	}
	if in.StartTime.IsZero() || in.EndTime.IsZero() {
		return nil, booking.Validation("start_time and end_time are required")
	}
	start, end := in.StartTime.UTC(), in.EndTime.UTC()
	scr := &model.Screening{
		Kind:      in.Kind,
		StartTime: &start,
		EndTime:   &end,
		MovieID:   in.MovieID,
		TheaterID: in.TheaterID,
	}
	if err := scr.Validate(); err != nil {
		return nil, booking.Validation("%s", err.Error())
	}
	if in.ReadyTime != nil {
		ready := in.ReadyTime.UTC()
		if ready.After(start) {
			return nil, booking.Validation("ready_time must not be after start_time")
		}
		scr.ReadyTime = &ready
	}

	fields := logrus.Fields{"movie_id": in.MovieID, "theater_id": in.TheaterID}
	if _, err := s.movies.GetByID(ctx, in.MovieID); err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return nil, booking.NotFound("movie does not exist")
		}
		return nil, s.fail(err, "failed to schedule screening", fields)
	}
	if _, err := s.theaters.GetByID(ctx, in.TheaterID); err != nil {
		if errors.Is(err, repository.ErrTheaterNotFound) {
			return nil, booking.NotFound("theater does not exist")
		}
		return nil, s.fail(err, "failed to schedule screening", fields)
	}

	overlaps, err := s.store.FindOverlapping(ctx, in.TheaterID, start, end)
	if err != nil {
		return nil, s.fail(err, "failed to schedule screening", fields)
	}
	if len(overlaps) > 0 {
		return nil, booking.Conflict("theater already has a screening at that time: " + overlaps[0].ID)
	}

	scr.ID = s.newID()
	if err := s.store.Create(ctx, scr); err != nil {
		return nil, s.fail(err, "failed to schedule screening", fields)
	}
	s.log.WithFields(fields).WithField("screening_id", scr.ID).Info("screening scheduled")
	return scr, nil
}

// Remove soft-deletes a screening.  Its reservations stay readable.
func (s *Service) Remove(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return booking.Validation("screening id is required")
	}
	if err := s.store.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrScreeningNotFound) {
			return booking.NotFound("screening does not exist")
		}
		return s.fail(err, "failed to delete screening", logrus.Fields{"screening_id": id})
	}
	s.log.WithField("screening_id", id).Info("screening removed")
	return nil
}

func (s *Service) fail(err error, msg string, fields logrus.Fields) error {
	s.log.WithFields(fields).WithError(err).Error(msg)
	return booking.Transaction(msg, err)
}
