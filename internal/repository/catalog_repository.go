package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/iliyamo/theater-booking/internal/model"
)

// MovieRepo reads movies.  Movie CRUD lives outside this service.
type MovieRepo struct {
	db *sql.DB
}

// NewMovieRepo constructs a MovieRepo.
func NewMovieRepo(db *sql.DB) *MovieRepo { return &MovieRepo{db: db} }

// GetByID returns a live movie or ErrMovieNotFound.
func (r *MovieRepo) GetByID(ctx context.Context, id string) (*model.Movie, error) {
	const q = `SELECT id, title, genre, deliberation, price, showtime, img_url, status, open_date, created_at
               FROM movies WHERE id = ? AND deleted_at IS NULL`
	var m model.Movie
	var genre string
	var open sql.NullTime
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&m.ID, &m.Title, &genre, &m.Rating, &m.Price, &m.Runtime, &m.ImgURL, &m.Status, &open, &m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMovieNotFound
		}
		return nil, err
	}
	m.Genre = splitGenre(genre)
	m.OpenDate = timePtr(open)
	return &m, nil
}

// TheaterRepo reads theaters and their seat layouts.
type TheaterRepo struct {
	db *sql.DB
}

// NewTheaterRepo constructs a TheaterRepo.
func NewTheaterRepo(db *sql.DB) *TheaterRepo { return &TheaterRepo{db: db} }

// GetByID returns a live theater (without its layout) or ErrTheaterNotFound.
func (r *TheaterRepo) GetByID(ctx context.Context, id string) (*model.Theater, error) {
	const q = `SELECT id, name, type, number_seats FROM theaters WHERE id = ? AND deleted_at IS NULL`
	var t model.Theater
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&t.ID, &t.Name, &t.Type, &t.NumberSeats); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTheaterNotFound
		}
		return nil, err
	}
	return &t, nil
}

// SeatLayout returns the theater's seat lines ordered by row label.  An
// empty layout means the theater has no seat definitions.
func (r *TheaterRepo) SeatLayout(ctx context.Context, theaterID string) (model.SeatLayout, error) {
	return seatLayout(ctx, r.db, theaterID)
}

// SeatLayoutTx is SeatLayout on the connection of an open transaction, so
// a booking never waits on the pool while holding its screening lock.
func (r *TheaterRepo) SeatLayoutTx(ctx context.Context, tx *sql.Tx, theaterID string) (model.SeatLayout, error) {
	return seatLayout(ctx, tx, theaterID)
}

func seatLayout(ctx context.Context, q querier, theaterID string) (model.SeatLayout, error) {
	const stmt = "SELECT id, line, `rows` FROM seats WHERE theater_id = ? AND deleted_at IS NULL ORDER BY line ASC"
	rows, err := q.QueryContext(ctx, stmt, theaterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	layout := model.SeatLayout{}
	for rows.Next() {
		var line model.SeatLine
		var raw string
		if err := rows.Scan(&line.ID, &line.Line, &raw); err != nil {
			return nil, err
		}
		nums, err := parseSeatNumbers(raw)
		if err != nil {
			return nil, fmt.Errorf("seat line %s: %w", line.ID, err)
		}
		line.Numbers = nums
		layout = append(layout, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return layout, nil
}

// parseSeatNumbers accepts a JSON array ("[1,2,3]") or a comma-separated
// list ("1,2,3") of seat numbers.
func parseSeatNumbers(raw string) ([]int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []int{}, nil
	}
	if strings.HasPrefix(raw, "[") {
		var nums []int
		if err := json.Unmarshal([]byte(raw), &nums); err != nil {
			return nil, err
		}
		return nums, nil
	}
	var nums []int
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid seat number %q", p)
		}
		nums = append(nums, n)
	}
	return nums, nil
}
