package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/theater-booking/internal/model"
	"github.com/iliyamo/theater-booking/internal/repository"
	"github.com/iliyamo/theater-booking/internal/service/booking"
)

// BookingService is the booking engine as seen by the HTTP layer.
type BookingService interface {
	CreateReservation(ctx context.Context, in booking.CreateReservationInput) (*model.Reservation, error)
	CancelReservation(ctx context.Context, id string) error
	GetReservationDetail(ctx context.Context, id string) (*repository.ReservationDetail, error)
	ListReservations(ctx context.Context, name, phone string) ([]repository.ReservationDetail, error)
	ListReservationsByDate(ctx context.Context, startDate, endDate string) ([]repository.ReservationDetail, error)
	GetScreening(ctx context.Context, id string) (*repository.ScreeningDetail, error)
	GetScreeningSeatMap(ctx context.Context, id string) (*booking.SeatMap, error)
	GetDateScreeningList(ctx context.Context, date string) ([]booking.MovieScreenings, error)
	GetDateTheaterScreeningList(ctx context.Context, date, theaterID string) ([]booking.MovieScreenings, error)
}

// ReservationHandler serves the customer reservation endpoints.  No
// account is needed; customers identify themselves by name and phone.
type ReservationHandler struct {
	svc BookingService
	res Responder
}

func NewReservationHandler(svc BookingService, res Responder) *ReservationHandler {
	if svc == nil {
		panic("nil booking service passed to NewReservationHandler")
	}
	return &ReservationHandler{svc: svc, res: res}
}

// Create handles POST /v1/reservations.
func (h *ReservationHandler) Create(c echo.Context) error {
	var in booking.CreateReservationInput
	if msg, ok := bindAndValidate(c, &in); !ok {
		return h.res.fail(c, http.StatusBadRequest, msg)
	}
	r, err := h.svc.CreateReservation(c.Request().Context(), in)
	if err != nil {
		return h.res.failErr(c, err)
	}
	return h.res.ok(c, http.StatusCreated, r)
}

type cancelRequest struct {
	ReservationID string `json:"reservation_id" validate:"required,uuid"`
}

// Cancel handles PATCH /v1/reservations/cancel.  Data is true on success.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	var in cancelRequest
	if msg, ok := bindAndValidate(c, &in); !ok {
		return h.res.fail(c, http.StatusBadRequest, msg)
	}
	if err := h.svc.CancelReservation(c.Request().Context(), in.ReservationID); err != nil {
		return h.res.failErr(c, err)
	}
	return h.res.ok(c, http.StatusOK, true)
}

// Get handles GET /v1/reservations/:id.
func (h *ReservationHandler) Get(c echo.Context) error {
	d, err := h.svc.GetReservationDetail(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.res.failErr(c, err)
	}
	return h.res.ok(c, http.StatusOK, d)
}

// List handles GET /v1/reservations?name=&phone=.
func (h *ReservationHandler) List(c echo.Context) error {
	list, err := h.svc.ListReservations(c.Request().Context(), c.QueryParam("name"), c.QueryParam("phone"))
	if err != nil {
		return h.res.failErr(c, err)
	}
	return h.res.ok(c, http.StatusOK, list)
}

// ListByDate handles GET /v1/admin/reservations?start_date=&end_date=.
// Both dates are inclusive calendar days.
func (h *ReservationHandler) ListByDate(c echo.Context) error {
	list, err := h.svc.ListReservationsByDate(c.Request().Context(), c.QueryParam("start_date"), c.QueryParam("end_date"))
	if err != nil {
		return h.res.failErr(c, err)
	}
	return h.res.ok(c, http.StatusOK, list)
}
