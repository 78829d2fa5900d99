package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/theater-booking/internal/model"
	"github.com/iliyamo/theater-booking/internal/repository"
	"github.com/iliyamo/theater-booking/internal/service/booking"
	"github.com/iliyamo/theater-booking/internal/service/screening"
)

type mockBooking struct{ mock.Mock }

func (m *mockBooking) CreateReservation(ctx context.Context, in booking.CreateReservationInput) (*model.Reservation, error) {
	args := m.Called(ctx, in)
	if v := args.Get(0); v != nil {
		return v.(*model.Reservation), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockBooking) CancelReservation(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockBooking) GetReservationDetail(ctx context.Context, id string) (*repository.ReservationDetail, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*repository.ReservationDetail), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockBooking) ListReservations(ctx context.Context, name, phone string) ([]repository.ReservationDetail, error) {
	args := m.Called(ctx, name, phone)
	if v := args.Get(0); v != nil {
		return v.([]repository.ReservationDetail), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockBooking) ListReservationsByDate(ctx context.Context, startDate, endDate string) ([]repository.ReservationDetail, error) {
	args := m.Called(ctx, startDate, endDate)
	if v := args.Get(0); v != nil {
		return v.([]repository.ReservationDetail), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockBooking) GetScreening(ctx context.Context, id string) (*repository.ScreeningDetail, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*repository.ScreeningDetail), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockBooking) GetScreeningSeatMap(ctx context.Context, id string) (*booking.SeatMap, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*booking.SeatMap), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockBooking) GetDateTheaterScreeningList(ctx context.Context, date, theaterID string) ([]booking.MovieScreenings, error) {
	args := m.Called(ctx, date, theaterID)
	if v := args.Get(0); v != nil {
		return v.([]booking.MovieScreenings), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockBooking) GetDateScreeningList(ctx context.Context, date string) ([]booking.MovieScreenings, error) {
	args := m.Called(ctx, date)
	if v := args.Get(0); v != nil {
		return v.([]booking.MovieScreenings), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockAdmin struct{ mock.Mock }

func (m *mockAdmin) Schedule(ctx context.Context, in screening.ScheduleInput) (*model.Screening, error) {
	args := m.Called(ctx, in)
	if v := args.Get(0); v != nil {
		return v.(*model.Screening), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAdmin) Remove(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type envelope struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data"`
	Error     string          `json:"error"`
	Timestamp string          `json:"timestamp"`
}

func setupTestServer(svc *mockBooking, admin *mockAdmin) *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	res := Responder{loc: time.UTC, now: func() time.Time { return time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC) }}
	rh := NewReservationHandler(svc, res)
	sh := NewScreeningHandler(svc, admin, res)
	e.POST("/v1/reservations", rh.Create)
	e.GET("/v1/reservations", rh.List)
	e.GET("/v1/reservations/:id", rh.Get)
	e.PATCH("/v1/reservations/cancel", rh.Cancel)
	e.GET("/v1/screenings", sh.ListByDate)
	e.GET("/v1/screenings/:id", sh.Get)
	e.GET("/v1/screenings/:id/seats", sh.Seats)
	e.GET("/v1/admin/reservations", rh.ListByDate)
	e.GET("/v1/admin/screenings", sh.AdminListByDate)
	e.POST("/v1/admin/screenings", sh.Create)
	e.DELETE("/v1/admin/screenings/:id", sh.Delete)
	return e
}

func do(e *echo.Echo, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	var env envelope
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	return rec, env
}

const (
	screeningUUID   = "7c9e6679-7425-40de-944b-e07fc1f90ae7"
	reservationUUID = "3f2504e0-4f89-41d3-9a0c-0305e82c3301"
	missingUUID     = "9b2d7f0e-1c4a-4e55-8f3e-2a6b1d0c9e11"
	movieUUID       = "0b6f1c2e-8d3a-4f5b-9c7e-1a2b3c4d5e6f"
	theaterUUID     = "5d8e9f0a-1b2c-4d3e-8f4a-5b6c7d8e9f0a"
)

func TestReservationHandler_Create(t *testing.T) {
	svc := new(mockBooking)
	e := setupTestServer(svc, new(mockAdmin))

	in := booking.CreateReservationInput{
		ScreeningID: screeningUUID, Seat: []string{"A1", "A2"}, Amount: 2,
		Name: "Kim", Phone: "010-1234-5678", PaymentPrice: 24000,
	}
	svc.On("CreateReservation", mock.Anything, in).Return(&model.Reservation{
		ID: "res-1", ScreeningID: screeningUUID, Seat: model.SeatList{"A1", "A2"},
		Status: model.StatusConfirmed, Amount: 2, Name: "Kim", Phone: "010-1234-5678", PaymentPrice: 24000,
	}, nil)

	rec, env := do(e, http.MethodPost, "/v1/reservations",
		`{"screening_id":"`+screeningUUID+`","seat":["A1","A2"],"amount":2,"name":"Kim","phone":"010-1234-5678","payment_price":24000}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, env.Success)
	var got model.Reservation
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "res-1", got.ID)
	assert.Equal(t, model.StatusConfirmed, got.Status)
	assert.Contains(t, string(env.Data), `"status":"CONFIRMED"`)
	svc.AssertExpectations(t)
}

func TestReservationHandler_CreateErrors(t *testing.T) {
	body := `{"screening_id":"` + screeningUUID + `","seat":["A1"],"amount":1,"name":"Kim","phone":"010","payment_price":0}`
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"not found", booking.NotFound("screening does not exist"), http.StatusNotFound, "screening does not exist"},
		{"conflict", booking.Conflict("seat already reserved: A1"), http.StatusConflict, "seat already reserved: A1"},
		{"transaction", booking.Transaction("failed to create reservation", errors.New("deadlock")), http.StatusInternalServerError, "failed to create reservation"},
		{"unclassified", errors.New("boom"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := new(mockBooking)
			e := setupTestServer(svc, new(mockAdmin))
			svc.On("CreateReservation", mock.Anything, mock.Anything).Return(nil, tc.err)

			rec, env := do(e, http.MethodPost, "/v1/reservations", body)

			assert.Equal(t, tc.status, rec.Code)
			assert.False(t, env.Success)
			assert.Equal(t, tc.message, env.Error)
			assert.Equal(t, "2024-05-01 12:30:00", env.Timestamp)
			var code int
			require.NoError(t, json.Unmarshal(env.Data, &code))
			assert.Equal(t, tc.status, code)
			assert.NotContains(t, rec.Body.String(), "deadlock")
		})
	}
}

func TestReservationHandler_CreateRejectsInvalidBody(t *testing.T) {
	tests := map[string]string{
		"empty seats":        `{"screening_id":"` + screeningUUID + `","seat":[],"amount":1,"name":"Kim","phone":"010"}`,
		"missing name":       `{"screening_id":"` + screeningUUID + `","seat":["A1"],"amount":1,"phone":"010"}`,
		"negative price":     `{"screening_id":"` + screeningUUID + `","seat":["A1"],"amount":1,"name":"Kim","phone":"010","payment_price":-5}`,
		"screening not uuid": `{"screening_id":"scr-1","seat":["A1"],"amount":1,"name":"Kim","phone":"010"}`,
		"malformed":          `{"screening_id":`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			svc := new(mockBooking)
			e := setupTestServer(svc, new(mockAdmin))

			rec, env := do(e, http.MethodPost, "/v1/reservations", body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.False(t, env.Success)
			assert.NotEmpty(t, env.Error)
			svc.AssertNotCalled(t, "CreateReservation", mock.Anything, mock.Anything)
		})
	}
}

func TestReservationHandler_Cancel(t *testing.T) {
	svc := new(mockBooking)
	e := setupTestServer(svc, new(mockAdmin))
	svc.On("CancelReservation", mock.Anything, reservationUUID).Return(nil)
	svc.On("CancelReservation", mock.Anything, missingUUID).Return(booking.NotFound("reservation does not exist"))

	rec, env := do(e, http.MethodPatch, "/v1/reservations/cancel", `{"reservation_id":"`+reservationUUID+`"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `true`, string(env.Data))

	rec, env = do(e, http.MethodPatch, "/v1/reservations/cancel", `{"reservation_id":"`+missingUUID+`"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "reservation does not exist", env.Error)

	rec, _ = do(e, http.MethodPatch, "/v1/reservations/cancel", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = do(e, http.MethodPatch, "/v1/reservations/cancel", `{"reservation_id":"res-1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "reservation_id must be a UUID", env.Error)
	svc.AssertNumberOfCalls(t, "CancelReservation", 2)
}

func TestReservationHandler_List(t *testing.T) {
	svc := new(mockBooking)
	e := setupTestServer(svc, new(mockAdmin))
	svc.On("ListReservations", mock.Anything, "Kim", "010-1234-5678").Return([]repository.ReservationDetail{
		{Reservation: model.Reservation{ID: "res-2", Status: model.StatusConfirmed}},
		{Reservation: model.Reservation{ID: "res-1", Status: model.StatusCancelled}},
	}, nil)

	rec, env := do(e, http.MethodGet, "/v1/reservations?name=Kim&phone=010-1234-5678", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	var got []repository.ReservationDetail
	require.NoError(t, json.Unmarshal(env.Data, &got))
	require.Len(t, got, 2)
	assert.Equal(t, "res-2", got[0].ID)
	assert.Equal(t, model.StatusCancelled, got[1].Status)
}

func TestReservationHandler_Get(t *testing.T) {
	svc := new(mockBooking)
	e := setupTestServer(svc, new(mockAdmin))
	svc.On("GetReservationDetail", mock.Anything, "res-1").Return(&repository.ReservationDetail{
		Reservation: model.Reservation{ID: "res-1", Seat: model.SeatList{"B2", "A1"}, Status: model.StatusConfirmed},
		Screening: repository.ReservationScreening{
			ID:    "scr-1",
			Movie: repository.MovieSummary{ID: "m1", ImgURL: "p.jpg", PosterURL: "https://cdn.example.com/p.jpg"},
		},
	}, nil)

	rec, env := do(e, http.MethodGet, "/v1/reservations/res-1", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"seat":["B2","A1"]`)
	assert.Contains(t, string(env.Data), `"poster_url":"https://cdn.example.com/p.jpg"`)
	assert.NotContains(t, string(env.Data), `"p.jpg"`)
}

func TestScreeningHandler_ListByDate(t *testing.T) {
	svc := new(mockBooking)
	e := setupTestServer(svc, new(mockAdmin))
	svc.On("GetDateScreeningList", mock.Anything, "2024-05-10").Return([]booking.MovieScreenings{
		{
			MovieSummary: repository.MovieSummary{ID: "m1", Title: "Dune"},
			Theaters: []booking.TheaterScreenings{{
				TheaterSummary: repository.TheaterSummary{ID: "t1", Name: "Hall 1"},
				Screenings:     []booking.ScreeningSlot{{ID: "scr-1", ReservationAmount: 3}},
			}},
		},
	}, nil)

	rec, env := do(e, http.MethodGet, "/v1/screenings?date=2024-05-10", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"reservation_amount":3`)
	assert.Contains(t, string(env.Data), `"title":"Dune"`)

	rec, env = do(e, http.MethodGet, "/v1/screenings", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "date is required", env.Error)
}

func TestScreeningHandler_AdminListByDate(t *testing.T) {
	svc := new(mockBooking)
	e := setupTestServer(svc, new(mockAdmin))
	all := []booking.MovieScreenings{{MovieSummary: repository.MovieSummary{ID: "m1"}}}
	oneTheater := []booking.MovieScreenings{{MovieSummary: repository.MovieSummary{ID: "m2"}}}
	svc.On("GetDateScreeningList", mock.Anything, "2024-05-10").Return(all, nil)
	svc.On("GetDateTheaterScreeningList", mock.Anything, "2024-05-10", "t1").Return(oneTheater, nil)

	rec, env := do(e, http.MethodGet, "/v1/admin/screenings?date=2024-05-10", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"id":"m1"`)

	rec, env = do(e, http.MethodGet, "/v1/admin/screenings?date=2024-05-10&theater_id=t1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"id":"m2"`)

	rec, env = do(e, http.MethodGet, "/v1/admin/screenings?theater_id=t1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "date is required", env.Error)
	svc.AssertExpectations(t)
}

func TestScreeningHandler_SeatsNotFound(t *testing.T) {
	svc := new(mockBooking)
	e := setupTestServer(svc, new(mockAdmin))
	svc.On("GetScreeningSeatMap", mock.Anything, "scr-x").Return(nil, booking.NotFound("screening does not exist"))

	rec, env := do(e, http.MethodGet, "/v1/screenings/scr-x/seats", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "screening does not exist", env.Error)
}

func TestScreeningHandler_AdminCreateAndDelete(t *testing.T) {
	admin := new(mockAdmin)
	e := setupTestServer(new(mockBooking), admin)
	start := time.Date(2024, 5, 10, 10, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)
	admin.On("Schedule", mock.Anything, mock.MatchedBy(func(in screening.ScheduleInput) bool {
		return in.MovieID == movieUUID && in.TheaterID == theaterUUID && in.StartTime.Equal(start) && in.EndTime.Equal(end)
	})).Return(&model.Screening{ID: "scr-new", Kind: model.KindDefault, MovieID: movieUUID, TheaterID: theaterUUID}, nil)
	admin.On("Remove", mock.Anything, "scr-new").Return(nil)
	admin.On("Remove", mock.Anything, "scr-busy").Return(booking.Conflict("conflict"))

	rec, env := do(e, http.MethodPost, "/v1/admin/screenings",
		`{"movie_id":"`+movieUUID+`","theater_id":"`+theaterUUID+`","start_time":"2024-05-10T10:00:00Z","end_time":"2024-05-10T12:00:00Z"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, string(env.Data), `"id":"scr-new"`)

	rec, _ = do(e, http.MethodPost, "/v1/admin/screenings", `{"theater_id":"`+theaterUUID+`"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(e, http.MethodDelete, "/v1/admin/screenings/scr-new", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = do(e, http.MethodDelete, "/v1/admin/screenings/scr-busy", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	admin.AssertExpectations(t)
}

func TestReservationHandler_ListByDate(t *testing.T) {
	svc := new(mockBooking)
	e := setupTestServer(svc, new(mockAdmin))
	svc.On("ListReservationsByDate", mock.Anything, "2024-05-01", "2024-05-31").Return([]repository.ReservationDetail{}, nil)
	svc.On("ListReservationsByDate", mock.Anything, "bad", "").Return(nil, booking.Validation("start_date must be a date in YYYY-MM-DD format"))

	rec, env := do(e, http.MethodGet, "/v1/admin/reservations?start_date=2024-05-01&end_date=2024-05-31", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, string(env.Data))

	rec, _ = do(e, http.MethodGet, "/v1/admin/reservations?start_date=bad", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) PingContext(ctx context.Context) error { return f(ctx) }

func TestHealth(t *testing.T) {
	e := echo.New()
	e.GET("/healthz", Health(pingerFunc(func(context.Context) error { return nil })))
	e.GET("/healthz-down", Health(pingerFunc(func(context.Context) error { return errors.New("down") })))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz-down", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
