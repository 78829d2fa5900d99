package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ReservationStatus is the lifecycle state of a reservation.  It is
// persisted as the two-character code used by the reservation table and
// rendered as its symbolic name in JSON.
type ReservationStatus uint8

const (
	StatusConfirmed           ReservationStatus = iota + 1 // 00
	StatusBankTransferPending                              // 10
	StatusCancelled                                        // 20
	StatusRefunded                                         // 30
	StatusTemporary                                        // 40
)

var statusCodes = map[ReservationStatus]string{
	StatusConfirmed:           "00",
	StatusBankTransferPending: "10",
	StatusCancelled:           "20",
	StatusRefunded:            "30",
	StatusTemporary:           "40",
}

var statusNames = map[ReservationStatus]string{
	StatusConfirmed:           "CONFIRMED",
	StatusBankTransferPending: "BANK_TRANSFER_PENDING",
	StatusCancelled:           "CANCELLED",
	StatusRefunded:            "REFUNDED",
	StatusTemporary:           "TEMPORARY",
}

// ParseStatusCode maps a stored code back to its status.
func ParseStatusCode(code string) (ReservationStatus, error) {
	for s, c := range statusCodes {
		if c == code {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown reservation status code %q", code)
}

// ParseStatusName maps a symbolic name (as used in JSON) to its status.
func ParseStatusName(name string) (ReservationStatus, error) {
	for s, n := range statusNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown reservation status %q", name)
}

// Code returns the persisted two-character code.
func (s ReservationStatus) Code() string { return statusCodes[s] }

func (s ReservationStatus) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return fmt.Sprintf("ReservationStatus(%d)", uint8(s))
}

// Active reports whether the reservation still holds its seats.
func (s ReservationStatus) Active() bool { return s != StatusCancelled }

// Value implements driver.Valuer.
func (s ReservationStatus) Value() (driver.Value, error) {
	c, ok := statusCodes[s]
	if !ok {
		return nil, fmt.Errorf("invalid reservation status %d", uint8(s))
	}
	return c, nil
}

// Scan implements sql.Scanner.
func (s *ReservationStatus) Scan(src any) error {
	var code string
	switch v := src.(type) {
	case string:
		code = v
	case []byte:
		code = string(v)
	default:
		return fmt.Errorf("cannot scan %T into ReservationStatus", src)
	}
	parsed, err := ParseStatusCode(code)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s ReservationStatus) MarshalJSON() ([]byte, error) {
	n, ok := statusNames[s]
	if !ok {
		return nil, fmt.Errorf("invalid reservation status %d", uint8(s))
	}
	return json.Marshal(n)
}

func (s *ReservationStatus) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	parsed, err := ParseStatusName(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Reservation is a booking of one or more seats against a single
// screening.  Seats are stored as a serialized list in one column.
//
// Fields:
//  ID           – opaque UUID.
//  ScreeningID  – screening the seats belong to.
//  Seat         – ordered seat codes ("A1", "A2", ...).
//  Status       – lifecycle state; every status except CANCELLED holds seats.
//  Amount       – headcount.
//  Name, Phone  – customer contact (no account is required).
//  PaymentPrice – amount charged.
//  CreatedAt    – creation timestamp.
type Reservation struct {
	ID           string            `json:"id"`            // reservation.id
	ScreeningID  string            `json:"screening_id"`  // reservation.screening_id
	Seat         SeatList          `json:"seat"`          // reservation.seat (JSON text)
	Status       ReservationStatus `json:"status"`        // reservation.status
	Amount       int               `json:"amount"`        // reservation.amount
	Name         string            `json:"name"`          // reservation.name
	Phone        string            `json:"phone"`         // reservation.phone
	PaymentPrice int               `json:"payment_price"` // reservation.payment_price
	CreatedAt    time.Time         `json:"created_at"`    // reservation.created_at
}
