package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/theater-booking/internal/model"
)

// ReservationRepo provides persistence for reservations.  Reservations are
// never deleted; cancellation is a status change.  All timestamps are
// stored in UTC.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// ReservationScreening is the screening projection attached to a
// reservation detail.
type ReservationScreening struct {
	ID        string              `json:"id"`
	Kind      model.ScreeningKind `json:"kind"`
	StartTime *time.Time          `json:"start_time"`
	EndTime   *time.Time          `json:"end_time"`
	ReadyTime *time.Time          `json:"ready_time"`
	Movie     MovieSummary        `json:"movie"`
	Theater   TheaterSummary      `json:"theater"`
}

// ReservationDetail is a reservation joined with its screening, movie and
// theater.
type ReservationDetail struct {
	model.Reservation
	Screening ReservationScreening `json:"screening"`
}

const reservationCols = `r.id, r.screening_id, r.seat, r.status, r.amount, r.name, r.phone, r.payment_price, r.created_at`

// Soft-deleted screenings are still joined so old bookings stay readable.
const reservationDetailSelect = `SELECT ` + reservationCols + `,
                      s.kind, s.start_time, s.end_time, s.ready_time,
                      m.id, m.title, m.genre, m.deliberation, m.showtime, m.img_url,
                      t.id, t.name, t.type
               FROM reservation r
               JOIN screening s ON s.id = r.screening_id
               JOIN movies m    ON m.id = s.movie_id
               JOIN theaters t  ON t.id = s.theater_id`

func scanReservation(row scanner) (*model.Reservation, error) {
	var res model.Reservation
	if err := row.Scan(
		&res.ID, &res.ScreeningID, &res.Seat, &res.Status, &res.Amount,
		&res.Name, &res.Phone, &res.PaymentPrice, &res.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &res, nil
}

func scanReservationDetail(row scanner) (*ReservationDetail, error) {
	var d ReservationDetail
	var start, end, ready sql.NullTime
	var genre string
	if err := row.Scan(
		&d.ID, &d.ScreeningID, &d.Seat, &d.Status, &d.Amount,
		&d.Name, &d.Phone, &d.PaymentPrice, &d.CreatedAt,
		&d.Screening.Kind, &start, &end, &ready,
		&d.Screening.Movie.ID, &d.Screening.Movie.Title, &genre, &d.Screening.Movie.Rating,
		&d.Screening.Movie.Runtime, &d.Screening.Movie.ImgURL,
		&d.Screening.Theater.ID, &d.Screening.Theater.Name, &d.Screening.Theater.Type,
	); err != nil {
		return nil, err
	}
	d.Screening.ID = d.ScreeningID
	d.Screening.StartTime, d.Screening.EndTime, d.Screening.ReadyTime = timePtr(start), timePtr(end), timePtr(ready)
	d.Screening.Movie.Genre = splitGenre(genre)
	return &d, nil
}

// CreateTx inserts a reservation within the scope of an existing
// transaction and reads back created_at.  The caller supplies the ID and
// must commit or roll back the transaction.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	const q = `INSERT INTO reservation (id, screening_id, seat, status, amount, name, phone, payment_price)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, q,
		res.ID, res.ScreeningID, res.Seat, res.Status, res.Amount, res.Name, res.Phone, res.PaymentPrice,
	); err != nil {
		return err
	}
	return tx.QueryRowContext(ctx, `SELECT created_at FROM reservation WHERE id = ?`, res.ID).Scan(&res.CreatedAt)
}

// ActiveSeatsTx returns the decoded seat lists of every non-cancelled
// reservation on the screening.
func (r *ReservationRepo) ActiveSeatsTx(ctx context.Context, tx *sql.Tx, screeningID string) ([]model.SeatList, error) {
	const q = `SELECT seat FROM reservation WHERE screening_id = ? AND status <> ?`
	rows, err := tx.QueryContext(ctx, q, screeningID, model.StatusCancelled)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.SeatList
	for rows.Next() {
		var seats model.SeatList
		if err := rows.Scan(&seats); err != nil {
			return nil, err
		}
		out = append(out, seats)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// LockStatusTx returns the reservation's status and locks its row.  It
// returns ErrReservationNotFound when the id does not exist.
func (r *ReservationRepo) LockStatusTx(ctx context.Context, tx *sql.Tx, id string) (model.ReservationStatus, error) {
	var st model.ReservationStatus
	err := tx.QueryRowContext(ctx, `SELECT status FROM reservation WHERE id = ? FOR UPDATE`, id).Scan(&st)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrReservationNotFound
	}
	return st, err
}

// UpdateStatusTx sets the reservation's status.
func (r *ReservationRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id string, status model.ReservationStatus) error {
	_, err := tx.ExecContext(ctx, `UPDATE reservation SET status = ? WHERE id = ?`, status, id)
	return err
}

// ListActiveByScreening returns the screening's non-cancelled
// reservations in creation order.
func (r *ReservationRepo) ListActiveByScreening(ctx context.Context, screeningID string) ([]model.Reservation, error) {
	const q = `SELECT ` + reservationCols + `
               FROM reservation r
               WHERE r.screening_id = ? AND r.status <> ?
               ORDER BY r.created_at ASC, r.id ASC`
	rows, err := r.db.QueryContext(ctx, q, screeningID, model.StatusCancelled)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Reservation{}
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetDetail returns a single reservation of any status with its screening
// projection, or ErrReservationNotFound.
func (r *ReservationRepo) GetDetail(ctx context.Context, id string) (*ReservationDetail, error) {
	d, err := scanReservationDetail(r.db.QueryRowContext(ctx, reservationDetailSelect+` WHERE r.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReservationNotFound
	}
	return d, err
}

// ListByCustomer returns every reservation booked under the name and
// phone, newest screening first.
func (r *ReservationRepo) ListByCustomer(ctx context.Context, name, phone string) ([]ReservationDetail, error) {
	return r.listDetails(ctx, reservationDetailSelect+`
               WHERE r.name = ? AND r.phone = ?
               ORDER BY s.start_time DESC, r.created_at DESC`, name, phone)
}

// ListCreatedBetween returns reservations created in [from, to), newest first.
func (r *ReservationRepo) ListCreatedBetween(ctx context.Context, from, to time.Time) ([]ReservationDetail, error) {
	return r.listDetails(ctx, reservationDetailSelect+`
               WHERE r.created_at >= ? AND r.created_at < ?
               ORDER BY r.created_at DESC`, from.UTC(), to.UTC())
}

func (r *ReservationRepo) listDetails(ctx context.Context, q string, args ...any) ([]ReservationDetail, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []ReservationDetail{}
	for rows.Next() {
		d, err := scanReservationDetail(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
