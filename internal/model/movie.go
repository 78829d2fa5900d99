package model

import "time"

// Rating is a movie content-rating code.
type Rating string

const (
	RatingAll Rating = "00"
	Rating12  Rating = "10"
	Rating15  Rating = "20"
	Rating19  Rating = "30"
)

// MovieStatus is a movie lifecycle code.
type MovieStatus string

const (
	MovieShowing    MovieStatus = "00"
	MoviePreBooking MovieStatus = "10"
	MovieEnded      MovieStatus = "20"
)

// Movie is a title that can be scheduled into screenings.  Booking never
// modifies it.
//
// Fields:
//  Genre    – stored as a comma-separated list.
//  Price    – ticket price.
//  Runtime  – minutes.
//  ImgURL   – poster object path or absolute URL.
//  OpenDate – release date (nullable).
type Movie struct {
	ID        string      `json:"id"`           // movies.id
	Title     string      `json:"title"`        // movies.title
	Genre     []string    `json:"genre"`        // movies.genre
	Rating    Rating      `json:"deliberation"` // movies.deliberation
	Price     int         `json:"price"`        // movies.price
	Runtime   int         `json:"showtime"`     // movies.showtime
	ImgURL    string      `json:"img_url"`      // movies.img_url
	Status    MovieStatus `json:"status"`       // movies.status
	OpenDate  *time.Time  `json:"open_date"`    // movies.open_date
	CreatedAt time.Time   `json:"created_at"`   // movies.created_at
}
