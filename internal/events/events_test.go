package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

type stubChannel struct {
	exchange, key string
	msg           amqp.Publishing
	err           error
	closed        bool
}

func (s *stubChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	s.exchange, s.key, s.msg = exchange, key, msg
	return s.err
}

func (s *stubChannel) Close() error { s.closed = true; return nil }

func TestAMQP_Publish(t *testing.T) {
	ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	ch := &stubChannel{}
	p := &AMQP{ch: ch, exchange: "planora.events", now: func() time.Time { return ts }}

	ev := ReviewSubmitted{ReviewID: "r1", ProfessionalID: "p1", UserID: "u1", Rating: 5, NewAverage: 4.5, TotalReviews: 2}
	if err := p.Publish(context.Background(), KeyReviewSubmitted, ev); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if ch.exchange != "planora.events" || ch.key != KeyReviewSubmitted {
		t.Fatalf("routed to %q/%q", ch.exchange, ch.key)
	}
	if ch.msg.ContentType != "application/json" || ch.msg.DeliveryMode != amqp.Persistent || !ch.msg.Timestamp.Equal(ts) {
		t.Fatalf("unexpected publishing: %+v", ch.msg)
	}
	var got ReviewSubmitted
	if err := json.Unmarshal(ch.msg.Body, &got); err != nil || got != ev {
		t.Fatalf("body round trip: %+v err=%v", got, err)
	}

	if err := p.Close(); err != nil || !ch.closed {
		t.Fatalf("Close: %v closed=%v", err, ch.closed)
	}
}

func TestAMQP_PublishErrors(t *testing.T) {
	ch := &stubChannel{err: errors.New("channel closed")}
	p := &AMQP{ch: ch, exchange: "x", now: time.Now}

	if err := p.Publish(context.Background(), KeyBookingRequested, BookingRequested{BookingID: "b"}); err == nil {
		t.Fatalf("expected channel error")
	}
	if err := p.Publish(context.Background(), "k", func() {}); err == nil {
		t.Fatalf("expected marshal error")
	}
}

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	if err := p.Publish(context.Background(), KeyReviewSubmitted, nil); err != nil {
		t.Fatalf("Nop should never fail: %v", err)
	}
}
