package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/theater-booking/internal/model"
	"github.com/iliyamo/theater-booking/internal/service/booking"
	"github.com/iliyamo/theater-booking/internal/service/screening"
)

// ScreeningAdmin schedules and removes screenings.
type ScreeningAdmin interface {
	Schedule(ctx context.Context, in screening.ScheduleInput) (*model.Screening, error)
	Remove(ctx context.Context, id string) error
}

// ScreeningHandler serves the public screening reads and the admin
// scheduling endpoints.
type ScreeningHandler struct {
	svc   BookingService
	admin ScreeningAdmin
	res   Responder
}

func NewScreeningHandler(svc BookingService, admin ScreeningAdmin, res Responder) *ScreeningHandler {
	return &ScreeningHandler{svc: svc, admin: admin, res: res}
}

// ListByDate handles GET /v1/screenings?date=YYYY-MM-DD.
func (h *ScreeningHandler) ListByDate(c echo.Context) error {
	date := c.QueryParam("date")
	if date == "" {
		return h.res.fail(c, http.StatusBadRequest, "date is required")
	}
	movies, err := h.svc.GetDateScreeningList(c.Request().Context(), date)
	if err != nil {
		return h.res.failErr(c, err)
	}
	return h.res.ok(c, http.StatusOK, movies)
}

// AdminListByDate handles GET /v1/admin/screenings?date=YYYY-MM-DD and
// the same listing for one theater with &theater_id=.  It is never cached.
func (h *ScreeningHandler) AdminListByDate(c echo.Context) error {
	date := c.QueryParam("date")
	if date == "" {
		return h.res.fail(c, http.StatusBadRequest, "date is required")
	}
	var (
		movies []booking.MovieScreenings
		err    error
	)
	if theaterID := c.QueryParam("theater_id"); theaterID != "" {
		movies, err = h.svc.GetDateTheaterScreeningList(c.Request().Context(), date, theaterID)
	} else {
		movies, err = h.svc.GetDateScreeningList(c.Request().Context(), date)
	}
	if err != nil {
		return h.res.failErr(c, err)
	}
	return h.res.ok(c, http.StatusOK, movies)
}

// Get handles GET /v1/screenings/:id.
func (h *ScreeningHandler) Get(c echo.Context) error {
	d, err := h.svc.GetScreening(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.res.failErr(c, err)
	}
	return h.res.ok(c, http.StatusOK, d)
}

// Seats handles GET /v1/screenings/:id/seats.
func (h *ScreeningHandler) Seats(c echo.Context) error {
	m, err := h.svc.GetScreeningSeatMap(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.res.failErr(c, err)
	}
	return h.res.ok(c, http.StatusOK, m)
}

// Create handles POST /v1/admin/screenings.
func (h *ScreeningHandler) Create(c echo.Context) error {
	var in screening.ScheduleInput
	if msg, ok := bindAndValidate(c, &in); !ok {
		return h.res.fail(c, http.StatusBadRequest, msg)
	}
	s, err := h.admin.Schedule(c.Request().Context(), in)
	if err != nil {
		return h.res.failErr(c, err)
	}
	return h.res.ok(c, http.StatusCreated, s)
}

// Delete handles DELETE /v1/admin/screenings/:id.
func (h *ScreeningHandler) Delete(c echo.Context) error {
	if err := h.admin.Remove(c.Request().Context(), c.Param("id")); err != nil {
		return h.res.failErr(c, err)
	}
	return h.res.ok(c, http.StatusOK, true)
}
