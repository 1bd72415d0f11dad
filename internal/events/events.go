// Package events publishes domain events to a RabbitMQ topic exchange.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Routing keys.
const (
	KeyReviewSubmitted  = "review.submitted"
	KeyBookingRequested = "booking.requested"
)

// ReviewSubmitted is emitted after a review is stored and the professional's
// aggregate has been recomputed.
type ReviewSubmitted struct {
	ReviewID       string  `json:"review_id"`
	ProfessionalID string  `json:"professional_id"`
	UserID         string  `json:"user_id"`
	Rating         float64 `json:"rating"`
	NewAverage     float64 `json:"new_average"`
	TotalReviews   int     `json:"total_reviews"`
}

// BookingRequested is emitted when a client asks a professional for a slot.
type BookingRequested struct {
	BookingID      string `json:"booking_id"`
	ProfessionalID string `json:"professional_id"`
	UserID         string `json:"user_id"`
	BookingDate    string `json:"booking_date"`
	BookingTime    string `json:"booking_time"`
}

// Publisher sends an event under a routing key.
type Publisher interface {
	Publish(ctx context.Context, key string, payload any) error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, string, any) error { return nil }

// channel is the subset of *amqp.Channel used for publishing.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQP publishes JSON messages on a durable topic exchange. A single channel
// is shared, so publishes are serialized.
type AMQP struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       channel
	exchange string
	now      func() time.Time
}

// Dial connects to url and declares exchange.
func Dial(url, exchange string) (*AMQP, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &AMQP{conn: conn, ch: ch, exchange: exchange, now: time.Now}, nil
}

// Publish marshals payload and sends it as a persistent message.
func (p *AMQP) Publish(ctx context.Context, key string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    p.now(),
		Type:         key,
		Body:         body,
	})
}

// Close releases the channel and connection.
func (p *AMQP) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
