package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/theater-booking/internal/model"
	"github.com/iliyamo/theater-booking/internal/repository"
)

const dateLayout = "2006-01-02"

// HeldSeats is one active reservation as shown on a seat map.  Customer
// contact details are not exposed.
type HeldSeats struct {
	ReservationID string                  `json:"reservation_id"`
	Seat          model.SeatList          `json:"seat"`
	Status        model.ReservationStatus `json:"status"`
	Amount        int                     `json:"amount"`
}

// SeatMap is a screening with its theater layout and every active
// reservation on it.
type SeatMap struct {
	repository.ScreeningDetail
	Layout       model.SeatLayout `json:"seats"`
	Reservations []HeldSeats      `json:"reservations"`
}

// ScreeningSlot is one screening in a date listing.
type ScreeningSlot struct {
	ID                string              `json:"id"`
	Kind              model.ScreeningKind `json:"kind"`
	StartTime         *time.Time          `json:"start_time"`
	EndTime           *time.Time          `json:"end_time"`
	ReadyTime         *time.Time          `json:"ready_time"`
	ReservationAmount int                 `json:"reservation_amount"`
}

// TheaterScreenings groups a movie's screenings in one theater.
type TheaterScreenings struct {
	repository.TheaterSummary
	Screenings []ScreeningSlot `json:"screenings"`
}

// MovieScreenings groups a movie's screenings by theater.
type MovieScreenings struct {
	repository.MovieSummary
	Theaters []TheaterScreenings `json:"theaters"`
}

// GetScreening returns a screening with its movie and theater.
func (s *Service) GetScreening(ctx context.Context, id string) (*repository.ScreeningDetail, error) {
	d, err := s.screenings.GetDetail(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrScreeningNotFound) {
			return nil, NotFound("screening does not exist")
		}
		return nil, s.mask(err, "failed to load screening", logrus.Fields{"screening_id": id})
	}
	d.Movie.PosterURL = s.posterURL(d.Movie.ImgURL)
	return d, nil
}

// GetScreeningSeatMap returns the screening, its theater's seat layout and
// its active reservations with decoded seat lists.
func (s *Service) GetScreeningSeatMap(ctx context.Context, id string) (*SeatMap, error) {
	d, err := s.GetScreening(ctx, id)
	if err != nil {
		return nil, err
	}
	fields := logrus.Fields{"screening_id": id}
	layout, err := s.theaters.SeatLayout(ctx, d.TheaterID)
	if err != nil {
		return nil, s.mask(err, "failed to load seat layout", fields)
	}
	active, err := s.reservations.ListActiveByScreening(ctx, id)
	if err != nil {
		return nil, s.mask(err, "failed to load reservations", fields)
	}
	held := make([]HeldSeats, 0, len(active))
	for _, r := range active {
		held = append(held, HeldSeats{ReservationID: r.ID, Seat: r.Seat, Status: r.Status, Amount: r.Amount})
	}
	return &SeatMap{ScreeningDetail: *d, Layout: layout, Reservations: held}, nil
}

// GetDateScreeningList lists every screening starting on date (YYYY-MM-DD
// in the reference timezone) grouped movie -> theater -> screening.
// Movies and theaters appear in the order their first screening starts.
func (s *Service) GetDateScreeningList(ctx context.Context, date string) ([]MovieScreenings, error) {
	from, err := s.parseDay(date, "date")
	if err != nil {
		return nil, err
	}
	rows, err := s.screenings.ListByStartRange(ctx, from, from.AddDate(0, 0, 1))
	if err != nil {
		return nil, s.mask(err, "failed to list screenings", logrus.Fields{"date": date})
	}
	return s.groupByMovie(rows), nil
}

// GetDateTheaterScreeningList is GetDateScreeningList restricted to the
// screenings of one theater.  An unknown theater yields an empty list.
func (s *Service) GetDateTheaterScreeningList(ctx context.Context, date, theaterID string) ([]MovieScreenings, error) {
	if strings.TrimSpace(theaterID) == "" {
		return nil, Validation("theater_id is required")
	}
	from, err := s.parseDay(date, "date")
	if err != nil {
		return nil, err
	}
	rows, err := s.screenings.ListByStartRange(ctx, from, from.AddDate(0, 0, 1))
	if err != nil {
		return nil, s.mask(err, "failed to list screenings", logrus.Fields{"date": date, "theater_id": theaterID})
	}
	kept := rows[:0]
	for _, r := range rows {
		if r.Theater.ID == theaterID {
			kept = append(kept, r)
		}
	}
	return s.groupByMovie(kept), nil
}

func (s *Service) groupByMovie(rows []repository.ScreeningListRow) []MovieScreenings {
	out := []MovieScreenings{}
	movieIdx := make(map[string]int)
	theaterIdx := make(map[[2]string]int)
	for _, r := range rows {
		mi, ok := movieIdx[r.Movie.ID]
		if !ok {
			m := r.Movie
			m.PosterURL = s.posterURL(m.ImgURL)
			out = append(out, MovieScreenings{MovieSummary: m, Theaters: []TheaterScreenings{}})
			mi = len(out) - 1
			movieIdx[r.Movie.ID] = mi
		}
		key := [2]string{r.Movie.ID, r.Theater.ID}
		ti, ok := theaterIdx[key]
		if !ok {
			out[mi].Theaters = append(out[mi].Theaters, TheaterScreenings{TheaterSummary: r.Theater, Screenings: []ScreeningSlot{}})
			ti = len(out[mi].Theaters) - 1
			theaterIdx[key] = ti
		}
		out[mi].Theaters[ti].Screenings = append(out[mi].Theaters[ti].Screenings, ScreeningSlot{
			ID:                r.ScreeningID,
			Kind:              r.Kind,
			StartTime:         r.StartTime,
			EndTime:           r.EndTime,
			ReadyTime:         r.ReadyTime,
			ReservationAmount: r.ReservationAmount,
		})
	}
	return out
}

// GetReservationDetail returns a reservation of any status with its
// screening, movie and theater.
func (s *Service) GetReservationDetail(ctx context.Context, id string) (*repository.ReservationDetail, error) {
	d, err := s.reservations.GetDetail(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return nil, NotFound("reservation does not exist")
		}
		return nil, s.mask(err, "failed to load reservation", logrus.Fields{"reservation_id": id})
	}
	d.Screening.Movie.PosterURL = s.posterURL(d.Screening.Movie.ImgURL)
	return d, nil
}

// ListReservations returns the reservations booked under name and phone,
// latest screening first.
func (s *Service) ListReservations(ctx context.Context, name, phone string) ([]repository.ReservationDetail, error) {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(phone) == "" {
		return nil, Validation("name and phone are required")
	}
	list, err := s.reservations.ListByCustomer(ctx, name, phone)
	if err != nil {
		return nil, s.mask(err, "failed to list reservations", nil)
	}
	return s.withPosters(list), nil
}

// ListReservationsByDate returns reservations created between the start
// and end calendar days, both inclusive, newest first.
func (s *Service) ListReservationsByDate(ctx context.Context, startDate, endDate string) ([]repository.ReservationDetail, error) {
	from, err := s.parseDay(startDate, "start_date")
	if err != nil {
		return nil, err
	}
	until, err := s.parseDay(endDate, "end_date")
	if err != nil {
		return nil, err
	}
	if until.Before(from) {
		return nil, Validation("end_date must not be before start_date")
	}
	list, err := s.reservations.ListCreatedBetween(ctx, from, until.AddDate(0, 0, 1))
	if err != nil {
		return nil, s.mask(err, "failed to list reservations", logrus.Fields{"start_date": startDate, "end_date": endDate})
	}
	return s.withPosters(list), nil
}

func (s *Service) withPosters(list []repository.ReservationDetail) []repository.ReservationDetail {
	for i := range list {
		list[i].Screening.Movie.PosterURL = s.posterURL(list[i].Screening.Movie.ImgURL)
	}
	return list
}

// parseDay parses YYYY-MM-DD as the start of that day in the reference
// timezone.
func (s *Service) parseDay(v, field string) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, strings.TrimSpace(v), s.loc)
	if err != nil {
		return time.Time{}, Validation("%s must be a date in YYYY-MM-DD format", field)
	}
	return t, nil
}

// posterURL resolves a stored poster reference against the poster base.
// Absolute URLs are returned unchanged.
func (s *Service) posterURL(img string) string {
	if img == "" {
		return ""
	}
	if strings.HasPrefix(img, "http://") || strings.HasPrefix(img, "https://") || s.posterBase == "" {
		return img
	}
	return strings.TrimRight(s.posterBase, "/") + "/" + strings.TrimLeft(img, "/")
}
