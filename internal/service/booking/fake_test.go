package booking

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/theater-booking/internal/model"
	"github.com/iliyamo/theater-booking/internal/queue"
	"github.com/iliyamo/theater-booking/internal/repository"
)

// memStore is an in-memory stand-in for the MySQL repositories.  WithTx
// serializes transactions (as the screening row lock does) and restores
// the reservation table when fn fails, so a failed booking leaves no row.
type memStore struct {
	txMu sync.Mutex

	mu           sync.Mutex
	screenings   map[string]repository.ScreeningDetail
	layouts      map[string]model.SeatLayout
	reservations []model.Reservation

	createErr error // returned by CreateTx when set
	listErr   error // returned by read paths when set
	clock     time.Time

	inTx          bool
	poolReadsInTx int  // pool reads made while a transaction was open
}

func newMemStore() *memStore {
	return &memStore{
		screenings: make(map[string]repository.ScreeningDetail),
		layouts:    make(map[string]model.SeatLayout),
		clock:      time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (m *memStore) addScreening(id, movieID, theaterID string, start time.Time) {
	end := start.Add(2 * time.Hour)
	st := start
	m.screenings[id] = repository.ScreeningDetail{
		Screening: model.Screening{
			ID: id, Kind: model.KindDefault, StartTime: &st, EndTime: &end,
			MovieID: movieID, TheaterID: theaterID,
		},
		Movie:   repository.MovieSummary{ID: movieID, Title: "Movie " + movieID, Genre: []string{}, ImgURL: "posters/" + movieID + ".jpg"},
		Theater: repository.TheaterSummary{ID: theaterID, Name: "Hall " + theaterID, Type: model.Theater2D},
	}
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.reservations)
}

func (m *memStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	snapshot := append([]model.Reservation(nil), m.reservations...)
	m.mu.Unlock()

	m.setInTx(true)
	defer m.setInTx(false)

	if err := fn(ctx, nil); err != nil {
		m.mu.Lock()
		m.reservations = snapshot
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *memStore) setInTx(v bool) {
	m.mu.Lock()
	m.inTx = v
	m.mu.Unlock()
}

func (m *memStore) LockTx(_ context.Context, _ *sql.Tx, id string) (*model.Screening, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.screenings[id]
	if !ok {
		return nil, repository.ErrScreeningNotFound
	}
	s := d.Screening
	return &s, nil
}

func (m *memStore) GetDetail(_ context.Context, id string) (*repository.ScreeningDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	d, ok := m.screenings[id]
	if !ok {
		return nil, repository.ErrScreeningNotFound
	}
	return &d, nil
}

func (m *memStore) ListByStartRange(_ context.Context, from, to time.Time) ([]repository.ScreeningListRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var rows []repository.ScreeningListRow
	for _, d := range m.screenings {
		if d.StartTime == nil || d.StartTime.Before(from) || !d.StartTime.Before(to) {
			continue
		}
		total := 0
		for _, r := range m.reservations {
			if r.ScreeningID == d.ID && r.Status.Active() {
				total += r.Amount
			}
		}
		rows = append(rows, repository.ScreeningListRow{
			ScreeningID: d.ID, Kind: d.Kind, StartTime: d.StartTime, EndTime: d.EndTime,
			Movie: d.Movie, Theater: d.Theater, ReservationAmount: total,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].StartTime.Equal(*rows[j].StartTime) {
			return rows[i].StartTime.Before(*rows[j].StartTime)
		}
		return rows[i].ScreeningID < rows[j].ScreeningID
	})
	return rows, nil
}

// SeatLayout reads through the pool.  Transactions must use SeatLayoutTx.
func (m *memStore) SeatLayout(_ context.Context, theaterID string) (model.SeatLayout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inTx {
		m.poolReadsInTx++
	}
	return m.layouts[theaterID], nil
}

func (m *memStore) SeatLayoutTx(_ context.Context, _ *sql.Tx, theaterID string) (model.SeatLayout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.layouts[theaterID], nil
}

func (m *memStore) CreateTx(_ context.Context, _ *sql.Tx, res *model.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.clock = m.clock.Add(time.Minute)
	res.CreatedAt = m.clock
	stored := *res
	// Store the encoded form and decode it back, as the seat column does.
	raw, err := res.Seat.Value()
	if err != nil {
		return err
	}
	if err := stored.Seat.Scan(raw); err != nil {
		return err
	}
	m.reservations = append(m.reservations, stored)
	return nil
}

func (m *memStore) ActiveSeatsTx(_ context.Context, _ *sql.Tx, screeningID string) ([]model.SeatList, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.SeatList
	for _, r := range m.reservations {
		if r.ScreeningID == screeningID && r.Status.Active() {
			out = append(out, r.Seat)
		}
	}
	return out, nil
}

func (m *memStore) LockStatusTx(_ context.Context, _ *sql.Tx, id string) (model.ReservationStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reservations {
		if r.ID == id {
			return r.Status, nil
		}
	}
	return 0, repository.ErrReservationNotFound
}

func (m *memStore) UpdateStatusTx(_ context.Context, _ *sql.Tx, id string, status model.ReservationStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.reservations {
		if m.reservations[i].ID == id {
			m.reservations[i].Status = status
			return nil
		}
	}
	return errors.New("no such row")
}

func (m *memStore) ListActiveByScreening(_ context.Context, screeningID string) ([]model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Reservation{}
	for _, r := range m.reservations {
		if r.ScreeningID == screeningID && r.Status.Active() {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) detail(r model.Reservation) repository.ReservationDetail {
	d := m.screenings[r.ScreeningID]
	return repository.ReservationDetail{
		Reservation: r,
		Screening: repository.ReservationScreening{
			ID: d.ID, Kind: d.Kind, StartTime: d.StartTime, EndTime: d.EndTime,
			Movie: d.Movie, Theater: d.Theater,
		},
	}
}

// reservationView exposes memStore as a ReservationStore.  Its GetDetail
// shadows the screening lookup.
type reservationView struct{ *memStore }

func (v reservationView) GetDetail(_ context.Context, id string) (*repository.ReservationDetail, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, r := range v.reservations {
		if r.ID == id {
			d := v.detail(r)
			return &d, nil
		}
	}
	return nil, repository.ErrReservationNotFound
}

func (v reservationView) ListByCustomer(_ context.Context, name, phone string) ([]repository.ReservationDetail, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := []repository.ReservationDetail{}
	for _, r := range v.reservations {
		if r.Name == name && r.Phone == phone {
			out = append(out, v.detail(r))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Screening.StartTime.After(*out[j].Screening.StartTime)
	})
	return out, nil
}

func (v reservationView) ListCreatedBetween(_ context.Context, from, to time.Time) ([]repository.ReservationDetail, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := []repository.ReservationDetail{}
	for i := len(v.reservations) - 1; i >= 0; i-- {
		r := v.reservations[i]
		if !r.CreatedAt.Before(from) && r.CreatedAt.Before(to) {
			out = append(out, v.detail(r))
		}
	}
	return out, nil
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.ReservationEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.ReservationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) all() []queue.ReservationEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]queue.ReservationEvent(nil), p.events...)
}
