package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// Publisher sends reservation events to RabbitMQ.  It keeps one connection
// and channel open and redials after any failure.  Messages are persistent
// and their queues durable so events survive broker restarts.
type Publisher struct {
	url string
	log logrus.FieldLogger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewPublisher returns a Publisher for the broker at url.  No connection
// is made until the first Publish.
func NewPublisher(url string, log logrus.FieldLogger) *Publisher {
	return &Publisher{url: url, log: log}
}

// Publish routes ev to the queue named by its Type.
func (p *Publisher) Publish(ctx context.Context, ev ReservationEvent) error {
	name, err := queueFor(ev.Type)
	if err != nil {
		return err
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		return err
	}
	// Idempotent; durable so the queue outlives the broker.
	if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
		p.reset()
		return fmt.Errorf("queue declare: %w", err)
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         ev.Type,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", name, false, false, pub); err != nil {
		p.reset()
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// Close releases the broker connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil {
		return nil
	}
	err := p.conn.Close()
	p.conn, p.ch = nil, nil
	return err
}

// channel returns the open channel, dialing first if needed.  p.mu must be held.
func (p *Publisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.reset()
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return nil, fmt.Errorf("dial broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("channel open: %w", err)
	}
	p.conn, p.ch = conn, ch
	p.log.WithField("component", "publisher").Debug("connected to broker")
	return ch, nil
}

// reset drops the current connection.  p.mu must be held.
func (p *Publisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.conn, p.ch = nil, nil
}
