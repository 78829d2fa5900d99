package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

const (
	bookingLogFile = "booking.log"
	maxBackoff     = 30 * time.Second
)

// Consumer drains the reservation queues and appends one line per event
// to <logDir>/booking.log.
type Consumer struct {
	url    string
	logDir string
	log    logrus.FieldLogger

	mu sync.Mutex // serializes writes to the log file
}

// NewConsumer returns a Consumer for the broker at url writing into logDir.
func NewConsumer(url, logDir string, log logrus.FieldLogger) *Consumer {
	return &Consumer{url: url, logDir: logDir, log: log.WithField("component", "booking-consumer")}
}

// Run connects to the broker and consumes until ctx is cancelled.  Broken
// connections are redialed with exponential backoff capped at 30s.  It
// returns ctx.Err() on shutdown.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.WithError(err).Warnf("failed to dial broker; retrying in %s", backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			backoff = min(backoff*2, maxBackoff)
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.WithError(err).Warn("consume loop ended; reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.log.WithError(err).Warn("set QoS failed")
	}

	deliveries := make(chan amqp.Delivery)
	var wg sync.WaitGroup
	done := make(chan struct{})
	defer close(done)
	for _, name := range Queues {
		if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
			return fmt.Errorf("queue declare %s: %w", name, err)
		}
		msgs, err := ch.Consume(name, "", false, false, false, false, nil)
		if err != nil {
			return fmt.Errorf("queue consume %s: %w", name, err)
		}
		wg.Add(1)
		go func(msgs <-chan amqp.Delivery) {
			defer wg.Done()
			for d := range msgs {
				select {
				case deliveries <- d:
				case <-done:
					return
				}
			}
		}(msgs)
	}
	closed := make(chan struct{})
	go func() {
		wg.Wait()
		close(closed)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-closed:
			return errors.New("deliveries channel closed")
		case d := <-deliveries:
			if err := c.handle(d.Body); err != nil {
				c.log.WithError(err).Error("handle message failed")
				_ = d.Nack(false, false) // do not requeue; avoids a poison loop
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *Consumer) handle(body []byte) error {
	var ev ReservationEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := os.MkdirAll(c.logDir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", c.logDir, err)
	}
	f, err := os.OpenFile(filepath.Join(c.logDir, bookingLogFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(FormatLine(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// FormatLine renders ev as one newline-terminated booking log line.
func FormatLine(ev ReservationEvent) string {
	seats := "[" + strings.Join(ev.Seats, ",") + "]"
	switch ev.Type {
	case ReservationCancelled:
		return fmt.Sprintf("[%s] Reservation cancelled | reservation_id=%s | previous_status=%s\n",
			ev.OccurredAt, ev.ReservationID, ev.PreviousStatus)
	default:
		return fmt.Sprintf("[%s] Reservation created | reservation_id=%s | screening_id=%s | name=%q | amount=%d | payment_price=%d | status=%s | seats=%s\n",
			ev.OccurredAt, ev.ReservationID, ev.ScreeningID, ev.Name, ev.Amount, ev.PaymentPrice, ev.Status, seats)
	}
}

// sleep waits for d or until ctx is done, reporting whether d elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
