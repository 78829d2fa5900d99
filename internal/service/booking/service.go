// Package booking implements reservation creation with seat-overlap
// prevention, cancellation, and the read models built around them.
//
// Every write runs inside one transaction.  A booking locks its screening
// row before reading the seats already held, so concurrent bookings for
// the same screening are checked one after another and an active seat can
// never be held twice.
package booking

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/theater-booking/internal/model"
	"github.com/iliyamo/theater-booking/internal/queue"
	"github.com/iliyamo/theater-booking/internal/repository"
)

// Transactor runs fn in a single transaction, committing only if fn
// returns nil.
type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error
}

// ScreeningStore is the screening side of the catalog.
type ScreeningStore interface {
	LockTx(ctx context.Context, tx *sql.Tx, id string) (*model.Screening, error)
	GetDetail(ctx context.Context, id string) (*repository.ScreeningDetail, error)
	ListByStartRange(ctx context.Context, from, to time.Time) ([]repository.ScreeningListRow, error)
}

// TheaterStore provides seat layouts.
type TheaterStore interface {
	SeatLayout(ctx context.Context, theaterID string) (model.SeatLayout, error)
	SeatLayoutTx(ctx context.Context, tx *sql.Tx, theaterID string) (model.SeatLayout, error)
}

// ReservationStore persists reservations.
type ReservationStore interface {
	CreateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error
	ActiveSeatsTx(ctx context.Context, tx *sql.Tx, screeningID string) ([]model.SeatList, error)
	LockStatusTx(ctx context.Context, tx *sql.Tx, id string) (model.ReservationStatus, error)
	UpdateStatusTx(ctx context.Context, tx *sql.Tx, id string, status model.ReservationStatus) error
	ListActiveByScreening(ctx context.Context, screeningID string) ([]model.Reservation, error)
	GetDetail(ctx context.Context, id string) (*repository.ReservationDetail, error)
	ListByCustomer(ctx context.Context, name, phone string) ([]repository.ReservationDetail, error)
	ListCreatedBetween(ctx context.Context, from, to time.Time) ([]repository.ReservationDetail, error)
}

// EventPublisher receives reservation events after commit.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.ReservationEvent) error
}

// Options configures a Service.  Zero values fall back to UTC, no poster
// base, the standard logrus logger and no event publishing.
type Options struct {
	Location      *time.Location
	PosterBaseURL string
	Publisher     EventPublisher
	Logger        logrus.FieldLogger
}

// Service is the booking engine and its query layer.
type Service struct {
	tx           Transactor
	screenings   ScreeningStore
	theaters     TheaterStore
	reservations ReservationStore

	loc        *time.Location
	posterBase string
	publisher  EventPublisher
	log        logrus.FieldLogger

	newID func() string
	now   func() time.Time
}

// NewService wires a Service.
func NewService(tx Transactor, screenings ScreeningStore, theaters TheaterStore, reservations ReservationStore, opts Options) *Service {
	s := &Service{
		tx:           tx,
		screenings:   screenings,
		theaters:     theaters,
		reservations: reservations,
		loc:          opts.Location,
		posterBase:   opts.PosterBaseURL,
		publisher:    opts.Publisher,
		log:          opts.Logger,
		newID:        uuid.NewString,
		now:          time.Now,
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.log == nil {
		s.log = logrus.StandardLogger()
	}
	s.log = s.log.WithField("component", "booking")
	return s
}

// CreateReservationInput is a booking request.
type CreateReservationInput struct {
	ScreeningID  string   `json:"screening_id" validate:"required,uuid"`
	Seat         []string `json:"seat" validate:"required,min=1,dive,required"`
	Amount       int      `json:"amount" validate:"gte=0"`
	Name         string   `json:"name" validate:"required"`
	Phone        string   `json:"phone" validate:"required"`
	PaymentPrice int      `json:"payment_price" validate:"gte=0"`
}

func (in CreateReservationInput) validate() error {
	if strings.TrimSpace(in.ScreeningID) == "" {
		return Validation("screening_id is required")
	}
	if len(in.Seat) == 0 {
		return Validation("seat must not be empty")
	}
	for _, code := range in.Seat {
		if strings.TrimSpace(code) == "" {
			return Validation("seat codes must not be blank")
		}
		if !model.ValidSeatCode(code) {
			return Validation("invalid seat code %q: expected a row label and seat number such as A1", code)
		}
	}
	if dup := model.SeatList(in.Seat).Duplicates(); len(dup) > 0 {
		return Validation("seat listed more than once: %s", strings.Join(dup, ", "))
	}
	if in.Amount < 0 {
		return Validation("amount must not be negative")
	}
	if in.PaymentPrice < 0 {
		return Validation("payment_price must not be negative")
	}
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Phone) == "" {
		return Validation("name and phone are required")
	}
	return nil
}

// CreateReservation books the requested seats on a screening.  It fails
// with NotFound if the screening does not exist, Validation if a seat is
// not part of the theater's layout, and Conflict if any seat is held by an
// active reservation on the same screening.  Nothing is persisted on
// failure.
func (s *Service) CreateReservation(ctx context.Context, in CreateReservationInput) (*model.Reservation, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	res := &model.Reservation{
		ID:           s.newID(),
		ScreeningID:  in.ScreeningID,
		Seat:         append(model.SeatList(nil), in.Seat...),
		Status:       model.StatusConfirmed,
		Amount:       in.Amount,
		Name:         in.Name,
		Phone:        in.Phone,
		PaymentPrice: in.PaymentPrice,
	}

	err := s.tx.WithTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		scr, err := s.screenings.LockTx(ctx, tx, in.ScreeningID)
		if err != nil {
			if errors.Is(err, repository.ErrScreeningNotFound) {
				return NotFound("screening does not exist")
			}
			return err
		}

		layout, err := s.theaters.SeatLayoutTx(ctx, tx, scr.TheaterID)
		if err != nil {
			return err
		}
		if len(layout) > 0 {
			for _, code := range res.Seat {
				if !layout.Has(code) {
					return Validation("seat %s does not exist in this theater", code)
				}
			}
		}

		held, err := s.reservations.ActiveSeatsTx(ctx, tx, scr.ID)
		if err != nil {
			return err
		}
		if taken := conflicts(held, res.Seat); len(taken) > 0 {
			return Conflict("seat already reserved: " + strings.Join(taken, ", "))
		}
		return s.reservations.CreateTx(ctx, tx, res)
	})
	if err != nil {
		return nil, s.mask(err, "failed to create reservation", logrus.Fields{"screening_id": in.ScreeningID})
	}

	s.publish(ctx, queue.ReservationEvent{
		Type:          queue.ReservationCreated,
		ReservationID: res.ID,
		ScreeningID:   res.ScreeningID,
		Seats:         res.Seat,
		Amount:        res.Amount,
		Name:          res.Name,
		PaymentPrice:  res.PaymentPrice,
		Status:        res.Status.String(),
		OccurredAt:    s.now().UTC().Format(time.RFC3339),
	})
	return res, nil
}

// conflicts returns the requested seats present in any held list, in
// request order.  Matching is exact per seat code.
func conflicts(held []model.SeatList, requested model.SeatList) []string {
	taken := make(map[string]struct{})
	for _, list := range held {
		for _, code := range list {
			taken[code] = struct{}{}
		}
	}
	var out []string
	for _, code := range requested {
		if _, ok := taken[code]; ok {
			out = append(out, code)
		}
	}
	return out
}

// CancelReservation moves a reservation of any status to CANCELLED.  The
// row is kept; its seats become available again.
func (s *Service) CancelReservation(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return Validation("reservation_id is required")
	}
	var prev model.ReservationStatus
	err := s.tx.WithTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		st, err := s.reservations.LockStatusTx(ctx, tx, id)
		if err != nil {
			if errors.Is(err, repository.ErrReservationNotFound) {
				return NotFound("reservation does not exist")
			}
			return err
		}
		prev = st
		return s.reservations.UpdateStatusTx(ctx, tx, id, model.StatusCancelled)
	})
	if err != nil {
		return s.mask(err, "failed to cancel reservation", logrus.Fields{"reservation_id": id})
	}

	s.publish(ctx, queue.ReservationEvent{
		Type:           queue.ReservationCancelled,
		ReservationID:  id,
		Status:         model.StatusCancelled.String(),
		PreviousStatus: prev.String(),
		OccurredAt:     s.now().UTC().Format(time.RFC3339),
	})
	return nil
}

// mask passes domain errors through and replaces anything else with a
// TransactionFailure carrying msg.  The cause is logged, not returned to
// clients.
func (s *Service) mask(err error, msg string, fields logrus.Fields) error {
	if KindOf(err) != 0 {
		return err
	}
	s.log.WithFields(fields).WithError(err).Error(msg)
	return Transaction(msg, err)
}

func (s *Service) publish(ctx context.Context, ev queue.ReservationEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"event":          ev.Type,
			"reservation_id": ev.ReservationID,
		}).Warn("publish reservation event failed")
	}
}
