// Package queue defines the reservation events exchanged over RabbitMQ and
// the publisher and consumer that move them.
package queue

import "fmt"

// Queue names.  Each event type is routed through the default exchange to
// the durable queue of the same name.
const (
	ReservationCreated   = "reservation.created"
	ReservationCancelled = "reservation.cancelled"
)

// Queues lists every queue the consumer drains.
var Queues = []string{ReservationCreated, ReservationCancelled}

// ReservationEvent is published after a reservation is created or
// cancelled.  It carries enough for downstream consumers to log or notify
// without querying the primary database.  The customer's phone number is
// deliberately not included.
type ReservationEvent struct {
	Type           string   `json:"type"`
	ReservationID  string   `json:"reservation_id"`
	ScreeningID    string   `json:"screening_id,omitempty"`
	Seats          []string `json:"seats,omitempty"`
	Amount         int      `json:"amount,omitempty"`
	Name           string   `json:"name,omitempty"`
	PaymentPrice   int      `json:"payment_price,omitempty"`
	Status         string   `json:"status"`
	PreviousStatus string   `json:"previous_status,omitempty"`
	OccurredAt     string   `json:"occurred_at"`
}

// queueFor returns the queue an event type is routed to.
func queueFor(eventType string) (string, error) {
	for _, q := range Queues {
		if q == eventType {
			return q, nil
		}
	}
	return "", fmt.Errorf("unknown event type %q", eventType)
}
