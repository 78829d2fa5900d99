// Package repository holds the MySQL data access layer.  Sentinel errors
// defined here let the service layer tell a missing row apart from a
// database failure.
package repository

import (
	"context"
	"database/sql"
	"errors"
)

var (
	// ErrScreeningNotFound is returned when a screening id does not exist
	// or the screening has been soft-deleted.
	ErrScreeningNotFound = errors.New("screening not found")

	// ErrReservationNotFound is returned when a reservation id does not exist.
	ErrReservationNotFound = errors.New("reservation not found")

	ErrMovieNotFound   = errors.New("movie not found")
	ErrTheaterNotFound = errors.New("theater not found")
)

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}
