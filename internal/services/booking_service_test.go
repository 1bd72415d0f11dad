package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/planora/planora-backend/internal/auth"
	"github.com/planora/planora-backend/internal/domain"
	"github.com/planora/planora-backend/internal/events"
	"github.com/planora/planora-backend/internal/repo"
)

func newBookingService(t *testing.T) (*BookingService, *stubPublisher, string, string) {
	t.Helper()
	db := newTestDB(t)
	pub := &stubPublisher{}
	s := &BookingService{
		Bookings:      repo.NewStore[domain.Booking](db),
		Users:         repo.NewStore[domain.User](db),
		Professionals: repo.NewStore[domain.Professional](db),
		Events:        pub,
	}
	return s, pub, seedProfessional(t, db, "Meera", "Architect", "Pune", 1000), seedUser(t, db, "Kiran", "98765")
}

func TestBooking_CreateAndListForUser(t *testing.T) {
	ctx := context.Background()
	s, pub, pid, uid := newBookingService(t)
	caller := auth.Identity{ID: uid, Role: auth.RoleUser}

	first, err := s.Create(ctx, caller, BookingInput{ProfessionalID: pid, BookingDate: "2025-03-01", BookingTime: "10:00", Message: "site visit"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	second, err := s.Create(ctx, caller, BookingInput{ProfessionalID: pid, BookingDate: "2025-03-02"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	b, _ := s.Bookings.Get(ctx, first)
	if b.Status != domain.BookingPending || b.UserID != uid {
		t.Fatalf("unexpected booking: %+v", b)
	}
	if len(pub.events) != 2 || pub.events[0].key != events.KeyBookingRequested {
		t.Fatalf("events: %+v", pub.events)
	}

	views, err := s.ListForUser(ctx, uid)
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if len(views) != 2 || views[0].ID != second {
		t.Fatalf("expected newest first, got %+v", views)
	}
	for _, v := range views {
		if v.ProfessionalName != "Meera" || v.Specialization != "Architect" {
			t.Fatalf("enrichment missing: %+v", v)
		}
	}
}

func TestBooking_CreateValidation(t *testing.T) {
	ctx := context.Background()
	s, pub, _, uid := newBookingService(t)
	caller := auth.Identity{ID: uid, Role: auth.RoleUser}

	if _, err := s.Create(ctx, caller, BookingInput{ProfessionalID: "ghost", BookingDate: "2025-01-01"}); !errors.Is(err, ErrProfessionalNotFound) {
		t.Fatalf("expected ErrProfessionalNotFound, got %v", err)
	}
	if _, err := s.Create(ctx, caller, BookingInput{BookingDate: "2025-01-01"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if len(pub.events) != 0 {
		t.Fatalf("no events for rejected bookings")
	}
}

func TestBooking_ListForProfessional(t *testing.T) {
	ctx := context.Background()
	s, _, pid, uid := newBookingService(t)

	if _, err := s.Create(ctx, auth.Identity{ID: uid, Role: auth.RoleUser}, BookingInput{ProfessionalID: pid, BookingDate: "d"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	// booking whose author has no user record
	if _, err := s.Bookings.Add(ctx, &domain.Booking{UserID: "deleted", ProfessionalID: pid, Status: domain.BookingPending}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, err := s.ListForProfessional(ctx, auth.Identity{ID: pid, Role: auth.RoleUser}); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for user role, got %v", err)
	}

	views, err := s.ListForProfessional(ctx, auth.Identity{ID: pid, Role: auth.RoleProfessional})
	if err != nil {
		t.Fatalf("ListForProfessional: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("expected 2 bookings, got %d", len(views))
	}
	if views[0].UserName != "Unknown" || views[0].UserEmail != "" {
		t.Fatalf("missing user should read Unknown: %+v", views[0])
	}
	if views[1].UserName != "Kiran" || views[1].UserEmail != "Kiran@user.test" || views[1].UserPhone != "98765" {
		t.Fatalf("user enrichment: %+v", views[1])
	}
}

func TestLookupAll_DedupAndErrors(t *testing.T) {
	ctx := context.Background()
	var calls atomic.Int32
	get := func(_ context.Context, id string) (*string, error) {
		calls.Add(1)
		switch id {
		case "missing":
			return nil, repo.ErrNotFound
		case "boom":
			return nil, errors.New("boom")
		}
		v := "doc-" + id
		return &v, nil
	}

	out, err := lookupAll(ctx, []string{"a", "a", "", "missing", "b"}, get)
	if err != nil {
		t.Fatalf("lookupAll: %v", err)
	}
	if calls.Load() != 3 || len(out) != 2 || *out["a"] != "doc-a" || out["missing"] != nil {
		t.Fatalf("calls=%d out=%v", calls.Load(), out)
	}

	if _, err := lookupAll(ctx, []string{"boom"}, get); err == nil {
		t.Fatalf("expected error")
	}
}
