package model

// TheaterType is the presentation format of a theater.
type TheaterType string

const (
	Theater2D   TheaterType = "00"
	Theater3D   TheaterType = "10"
	Theater4D   TheaterType = "20"
	TheaterIMAX TheaterType = "30"
)

// Theater is a screening room.  Its seat layout is the reference for valid
// seat codes; booking reads it but never mutates it.
type Theater struct {
	ID          string      `json:"id"`           // theaters.id
	Name        string      `json:"name"`         // theaters.name
	Type        TheaterType `json:"type"`         // theaters.type
	NumberSeats int         `json:"number_seats"` // theaters.number_seats
	Seats       SeatLayout  `json:"seats"`        // seats rows for this theater
}
