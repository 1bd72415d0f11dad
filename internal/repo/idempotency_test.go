package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/planora/planora-backend/internal/domain"
)

func TestGetIdempotency_EmptyScopeOrKey_ReturnsNotFound(t *testing.T) {
	db := newTestDB(t)
	now := time.Now().UTC()

	if rec, err := GetIdempotency(context.Background(), db, "u1", "   ", "k1", now); rec != nil || err != ErrNotFound {
		t.Fatalf("expected (nil, ErrNotFound) for empty scope, got (%v, %v)", rec, err)
	}
	if rec, err := GetIdempotency(context.Background(), db, "u1", "/api/reviews", "", now); rec != nil || err != ErrNotFound {
		t.Fatalf("expected (nil, ErrNotFound) for empty key, got (%v, %v)", rec, err)
	}
}

func TestGetIdempotency_ExpiredOrMissing_ReturnsNotFound(t *testing.T) {
	db := newTestDB(t)
	now := time.Now().UTC()

	exp := &domain.Idempotency{
		ID:         "expired",
		UserID:     "u1",
		Scope:      "/api/reviews",
		Key:        "k1",
		ResourceID: "r1",
		Status:     201,
		CreatedAt:  now.Add(-2 * time.Hour),
		ExpiresAt:  now.Add(-time.Hour),
	}
	if err := db.Create(exp).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, err := GetIdempotency(context.Background(), db, "u1", "/api/reviews", "k1", now); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for expired record, got %v", err)
	}
	if _, err := GetIdempotency(context.Background(), db, "u2", "/api/reviews", "k1", now); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for other user, got %v", err)
	}
}

func TestCreateIdempotency_ThenGet_AndDuplicate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	rec, err := CreateIdempotency(ctx, db, "u1", "/api/bookings", "k1", "b1", 201, time.Hour)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.ID == "" || rec.ExpiresAt.Sub(rec.CreatedAt) != time.Hour {
		t.Fatalf("unexpected record: %+v", rec)
	}

	got, err := GetIdempotency(ctx, db, "u1", "/api/bookings", "k1", time.Now().UTC())
	if err != nil || got.ResourceID != "b1" {
		t.Fatalf("get: rec=%+v err=%v", got, err)
	}

	if _, err := CreateIdempotency(ctx, db, "u1", "/api/bookings", "k1", "b2", 201, time.Hour); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestIdempotencyStore_LookupRemember(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	s := IdempotencyStore{DB: db, TTL: time.Hour}

	if _, ok, err := s.Lookup(ctx, "u1", "/api/reviews", "k9"); ok || err != nil {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
	if err := s.Remember(ctx, "u1", "/api/reviews", "k9", "rev-1", 201); err != nil {
		t.Fatalf("remember: %v", err)
	}
	// second writer loses silently
	if err := s.Remember(ctx, "u1", "/api/reviews", "k9", "rev-2", 201); err != nil {
		t.Fatalf("duplicate remember should be swallowed, got %v", err)
	}
	id, ok, err := s.Lookup(ctx, "u1", "/api/reviews", "k9")
	if err != nil || !ok || id != "rev-1" {
		t.Fatalf("expected rev-1, got id=%q ok=%v err=%v", id, ok, err)
	}
}
