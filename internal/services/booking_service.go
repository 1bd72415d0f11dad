// Package services – BookingService
//
// Bookings are consultation requests from a client to a professional. Lists
// are enriched with the counterpart's display data; lookups for distinct
// counterparts run concurrently with a bounded fan-out.
package services

import (
	"context"
	"errors"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/planora/planora-backend/internal/auth"
	"github.com/planora/planora-backend/internal/domain"
	"github.com/planora/planora-backend/internal/events"
	"github.com/planora/planora-backend/internal/repo"
)

const (
	unknownName    = "Unknown"
	enrichParallel = 8
)

// BookingInput is the create payload.
type BookingInput struct {
	ProfessionalID string
	BookingDate    string
	BookingTime    string
	Message        string
}

// BookingView is a booking plus counterpart details. Client views carry the
// professional fields, professional views carry the user fields.
type BookingView struct {
	domain.Booking
	ProfessionalName string `json:"professional_name,omitempty"`
	Specialization   string `json:"specialization,omitempty"`
	UserName         string `json:"user_name,omitempty"`
	UserEmail        string `json:"user_email,omitempty"`
	UserPhone        string `json:"user_phone,omitempty"`
}

// BookingService creates and lists bookings.
type BookingService struct {
	Bookings      repo.DocumentStore[domain.Booking]
	Users         repo.DocumentStore[domain.User]
	Professionals repo.DocumentStore[domain.Professional]
	Events        events.Publisher
}

// Create stores a pending booking for the caller.
func (s *BookingService) Create(ctx context.Context, caller auth.Identity, in BookingInput) (string, error) {
	in.ProfessionalID = strings.TrimSpace(in.ProfessionalID)
	if err := required(map[string]string{
		"professional_id": in.ProfessionalID,
		"booking_date":    in.BookingDate,
	}); err != nil {
		return "", err
	}
	if _, err := s.Professionals.Get(ctx, in.ProfessionalID); err != nil {
		return "", notFound(err, ErrProfessionalNotFound)
	}

	b := &domain.Booking{
		UserID:         caller.ID,
		ProfessionalID: in.ProfessionalID,
		BookingDate:    strings.TrimSpace(in.BookingDate),
		BookingTime:    strings.TrimSpace(in.BookingTime),
		Message:        strings.TrimSpace(in.Message),
		Status:         domain.BookingPending,
	}
	id, err := s.Bookings.Add(ctx, b)
	if err != nil {
		return "", err
	}
	publish(ctx, s.Events, events.KeyBookingRequested, events.BookingRequested{
		BookingID:      id,
		ProfessionalID: b.ProfessionalID,
		UserID:         b.UserID,
		BookingDate:    b.BookingDate,
		BookingTime:    b.BookingTime,
	})
	return id, nil
}

// ListForUser returns the caller's bookings, newest first, with the
// professional's name and specialization.
func (s *BookingService) ListForUser(ctx context.Context, userID string) ([]BookingView, error) {
	items, err := s.Bookings.Query(ctx, repo.Query{
		Filters: []repo.Filter{repo.Eq("user_id", userID)},
		Desc:    true,
	})
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(items))
	for _, b := range items {
		ids = append(ids, b.ProfessionalID)
	}
	pros, err := lookupAll(ctx, ids, s.Professionals.Get)
	if err != nil {
		return nil, err
	}

	out := make([]BookingView, len(items))
	for i, b := range items {
		v := BookingView{Booking: b, ProfessionalName: unknownName}
		if p := pros[b.ProfessionalID]; p != nil {
			v.ProfessionalName, v.Specialization = p.Name, p.Specialization
		}
		out[i] = v
	}
	return out, nil
}

// ListForProfessional returns bookings addressed to the caller, who must be
// a professional, with the requesting user's contact details.
func (s *BookingService) ListForProfessional(ctx context.Context, caller auth.Identity) ([]BookingView, error) {
	if err := auth.RequireRole(caller, auth.RoleProfessional); err != nil {
		return nil, err
	}
	items, err := s.Bookings.Query(ctx, repo.Query{
		Filters: []repo.Filter{repo.Eq("professional_id", caller.ID)},
		Desc:    true,
	})
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(items))
	for _, b := range items {
		ids = append(ids, b.UserID)
	}
	users, err := lookupAll(ctx, ids, s.Users.Get)
	if err != nil {
		return nil, err
	}

	out := make([]BookingView, len(items))
	for i, b := range items {
		v := BookingView{Booking: b, UserName: unknownName}
		if u := users[b.UserID]; u != nil {
			v.UserName, v.UserEmail, v.UserPhone = u.Name, u.Email, u.Phone
		}
		out[i] = v
	}
	return out, nil
}

// lookupAll fetches each distinct non-empty id once. Missing documents map
// to nil; any other error cancels the remaining lookups.
func lookupAll[T any](ctx context.Context, ids []string, get func(context.Context, string) (*T, error)) (map[string]*T, error) {
	out := make(map[string]*T)
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(enrichParallel)
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		id := id
		g.Go(func() error {
			doc, err := get(gctx, id)
			if errors.Is(err, repo.ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			mu.Lock()
			out[id] = doc
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
