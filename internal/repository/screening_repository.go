package repository

// This file defines the screening repository.  A screening is a scheduled
// showing of a movie in a theater.  Soft-deleted screenings stay in the
// table with deleted_at set and are invisible to every lookup here except
// reservation read paths, which must keep resolving old bookings.

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/theater-booking/internal/model"
)

// ScreeningRepo manages persistence for screenings.
type ScreeningRepo struct {
	db *sql.DB
}

// NewScreeningRepo constructs a ScreeningRepo with the given DB handle.
func NewScreeningRepo(db *sql.DB) *ScreeningRepo {
	return &ScreeningRepo{db: db}
}

// ScreeningDetail is a screening joined with its movie and theater.
type ScreeningDetail struct {
	model.Screening
	Movie   MovieSummary   `json:"movie"`
	Theater TheaterSummary `json:"theater"`
}

// ScreeningListRow is one screening of a date listing with the headcount
// of its active reservations.
type ScreeningListRow struct {
	ScreeningID       string
	Kind              model.ScreeningKind
	StartTime         *time.Time
	EndTime           *time.Time
	ReadyTime         *time.Time
	Movie             MovieSummary
	Theater           TheaterSummary
	ReservationAmount int
}

const screeningCols = `s.id, s.kind, s.start_time, s.end_time, s.ready_time, s.movie_id, s.theater_id, s.created_at`

func scanScreening(row scanner) (*model.Screening, error) {
	var s model.Screening
	var start, end, ready sql.NullTime
	if err := row.Scan(&s.ID, &s.Kind, &start, &end, &ready, &s.MovieID, &s.TheaterID, &s.CreatedAt); err != nil {
		return nil, err
	}
	s.StartTime, s.EndTime, s.ReadyTime = timePtr(start), timePtr(end), timePtr(ready)
	return &s, nil
}

// LockTx loads a live screening and takes a row lock on it for the rest of
// the transaction.  Bookings on the same screening serialize on this lock,
// so their seat checks never interleave.
func (r *ScreeningRepo) LockTx(ctx context.Context, tx *sql.Tx, id string) (*model.Screening, error) {
	const q = `SELECT ` + screeningCols + ` FROM screening s WHERE s.id = ? AND s.deleted_at IS NULL FOR UPDATE`
	s, err := scanScreening(tx.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrScreeningNotFound
	}
	return s, err
}

// GetDetail returns a live screening with its movie and theater.
func (r *ScreeningRepo) GetDetail(ctx context.Context, id string) (*ScreeningDetail, error) {
	const q = `SELECT ` + screeningCols + `,
                      m.id, m.title, m.genre, m.deliberation, m.showtime, m.img_url,
                      t.id, t.name, t.type
               FROM screening s
               JOIN movies m   ON m.id = s.movie_id
               JOIN theaters t ON t.id = s.theater_id
               WHERE s.id = ? AND s.deleted_at IS NULL`
	var d ScreeningDetail
	var start, end, ready sql.NullTime
	var genre string
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&d.ID, &d.Kind, &start, &end, &ready, &d.MovieID, &d.TheaterID, &d.CreatedAt,
		&d.Movie.ID, &d.Movie.Title, &genre, &d.Movie.Rating, &d.Movie.Runtime, &d.Movie.ImgURL,
		&d.Theater.ID, &d.Theater.Name, &d.Theater.Type,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrScreeningNotFound
		}
		return nil, err
	}
	d.StartTime, d.EndTime, d.ReadyTime = timePtr(start), timePtr(end), timePtr(ready)
	d.Movie.Genre = splitGenre(genre)
	return &d, nil
}

// ListByStartRange returns live screenings whose start_time lies in
// [from, to), ordered by start time.  ReservationAmount sums the amount of
// every reservation on the screening that is not cancelled.
func (r *ScreeningRepo) ListByStartRange(ctx context.Context, from, to time.Time) ([]ScreeningListRow, error) {
	const q = `SELECT s.id, s.kind, s.start_time, s.end_time, s.ready_time,
                      m.id, m.title, m.genre, m.deliberation, m.showtime, m.img_url,
                      t.id, t.name, t.type,
                      COALESCE(ra.total, 0)
               FROM screening s
               JOIN movies m   ON m.id = s.movie_id
               JOIN theaters t ON t.id = s.theater_id
               LEFT JOIN (
                   SELECT screening_id, SUM(amount) AS total
                   FROM reservation
                   WHERE status <> ?
                   GROUP BY screening_id
               ) ra ON ra.screening_id = s.id
               WHERE s.deleted_at IS NULL AND s.start_time >= ? AND s.start_time < ?
               ORDER BY s.start_time ASC, s.id ASC`
	rows, err := r.db.QueryContext(ctx, q, model.StatusCancelled, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ScreeningListRow
	for rows.Next() {
		var row ScreeningListRow
		var start, end, ready sql.NullTime
		var genre string
		if err := rows.Scan(
			&row.ScreeningID, &row.Kind, &start, &end, &ready,
			&row.Movie.ID, &row.Movie.Title, &genre, &row.Movie.Rating, &row.Movie.Runtime, &row.Movie.ImgURL,
			&row.Theater.ID, &row.Theater.Name, &row.Theater.Type,
			&row.ReservationAmount,
		); err != nil {
			return nil, err
		}
		row.StartTime, row.EndTime, row.ReadyTime = timePtr(start), timePtr(end), timePtr(ready)
		row.Movie.Genre = splitGenre(genre)
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Create inserts a screening.  The caller supplies the ID; created_at is
// read back from the database.
func (r *ScreeningRepo) Create(ctx context.Context, s *model.Screening) error {
	const q = `INSERT INTO screening (id, kind, start_time, end_time, ready_time, movie_id, theater_id)
               VALUES (?, ?, ?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, q,
		s.ID, s.Kind, nullTime(s.StartTime), nullTime(s.EndTime), nullTime(s.ReadyTime), s.MovieID, s.TheaterID,
	); err != nil {
		return err
	}
	return r.db.QueryRowContext(ctx, `SELECT created_at FROM screening WHERE id = ?`, s.ID).Scan(&s.CreatedAt)
}

// FindOverlapping finds live screenings in the theater whose time overlaps
// [start, end).  A screening overlaps when it starts before the proposed
// end and ends after the proposed start.
func (r *ScreeningRepo) FindOverlapping(ctx context.Context, theaterID string, start, end time.Time) ([]model.Screening, error) {
	const q = `SELECT ` + screeningCols + `
               FROM screening s
               WHERE s.theater_id = ? AND s.deleted_at IS NULL
                 AND NOT (s.end_time <= ? OR s.start_time >= ?)`
	rows, err := r.db.QueryContext(ctx, q, theaterID, start.UTC(), end.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var overlaps []model.Screening
	for rows.Next() {
		s, err := scanScreening(rows)
		if err != nil {
			return nil, err
		}
		overlaps = append(overlaps, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return overlaps, nil
}

// SoftDelete marks a live screening deleted.  Reservations keep pointing
// at it.  It returns ErrScreeningNotFound when nothing was updated.
func (r *ScreeningRepo) SoftDelete(ctx context.Context, id string) error {
	const q = `UPDATE screening SET deleted_at = UTC_TIMESTAMP() WHERE id = ? AND deleted_at IS NULL`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrScreeningNotFound
	}
	return nil
}
