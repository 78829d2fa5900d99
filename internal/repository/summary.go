package repository

import (
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/theater-booking/internal/model"
)

// MovieSummary is the movie projection attached to screening and
// reservation read models.  PosterURL is filled in by the service.
type MovieSummary struct {
	ID        string       `json:"id"`
	Title     string       `json:"title"`
	Genre     []string     `json:"genre"`
	Rating    model.Rating `json:"deliberation"`
	Runtime   int          `json:"showtime"`
	ImgURL    string       `json:"-"`
	PosterURL string       `json:"poster_url"`
}

// TheaterSummary is the theater projection attached to read models.
type TheaterSummary struct {
	ID   string            `json:"id"`
	Name string            `json:"name"`
	Type model.TheaterType `json:"type"`
}

// splitGenre decodes the comma-separated genre column.
func splitGenre(s string) []string {
	out := []string{}
	for _, g := range strings.Split(s, ",") {
		if g = strings.TrimSpace(g); g != "" {
			out = append(out, g)
		}
	}
	return out
}

// timePtr converts a nullable DATETIME to *time.Time in UTC.
func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
