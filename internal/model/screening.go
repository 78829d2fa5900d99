package model

import (
	"errors"
	"time"
)

// ScreeningKind is the presentation slot of a screening.
type ScreeningKind string

const (
	KindDefault ScreeningKind = "00"
	KindMorning ScreeningKind = "01"
	KindNight   ScreeningKind = "02"
)

// Valid reports whether k is a known kind code.
func (k ScreeningKind) Valid() bool {
	switch k {
	case KindDefault, KindMorning, KindNight:
		return true
	}
	return false
}

// ErrScreeningTimes is returned by Screening.Validate when end is not after start.
var ErrScreeningTimes = errors.New("end_time must be after start_time")

// Screening is one scheduled showing of a movie in a theater.  Times are
// nullable until the showing is scheduled.  Deleted screenings are kept
// with DeletedAt set.
type Screening struct {
	ID        string        `json:"id"`         // screening.id
	Kind      ScreeningKind `json:"kind"`       // screening.kind
	StartTime *time.Time    `json:"start_time"` // screening.start_time
	EndTime   *time.Time    `json:"end_time"`   // screening.end_time
	ReadyTime *time.Time    `json:"ready_time"` // screening.ready_time
	MovieID   string        `json:"movie_id"`   // screening.movie_id
	TheaterID string        `json:"theater_id"` // screening.theater_id
	CreatedAt time.Time     `json:"created_at"` // screening.created_at
	DeletedAt *time.Time    `json:"-"`          // screening.deleted_at
}

// Validate checks start_time < end_time when both are set.
func (s Screening) Validate() error {
	if s.StartTime != nil && s.EndTime != nil && !s.EndTime.After(*s.StartTime) {
		return ErrScreeningTimes
	}
	return nil
}
