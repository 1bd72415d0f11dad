// Package services – ReviewService
//
// Submitting a review stores it and then recomputes the professional's rating
// aggregate from the full review set. The two steps are not one transaction;
// see package rating for the consequence under concurrent submissions.
package services

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/planora/planora-backend/internal/auth"
	"github.com/planora/planora-backend/internal/domain"
	"github.com/planora/planora-backend/internal/events"
	"github.com/planora/planora-backend/internal/rating"
	"github.com/planora/planora-backend/internal/repo"
)

// Rating bounds.
const (
	MinRating = 1
	MaxRating = 5
)

// anonymousName is stored when the author has no client account.
const anonymousName = "Anonymous"

// ReviewInput is the submission payload.
type ReviewInput struct {
	ProfessionalID string
	ProjectID      string
	Rating         float64
	ReviewText     string
}

// Recomputer refreshes a professional's rating aggregate.
type Recomputer interface {
	Recompute(ctx context.Context, professionalID string) (rating.Aggregate, error)
}

// ReviewService stores reviews and keeps aggregates current.
type ReviewService struct {
	Reviews       repo.DocumentStore[domain.Review]
	Users         repo.DocumentStore[domain.User]
	Professionals repo.DocumentStore[domain.Professional]
	Ratings       Recomputer
	Events        events.Publisher
}

// Submit validates and stores a review, then recomputes the aggregate. When
// recomputation fails the review stays stored and its id is returned with
// the error.
func (s *ReviewService) Submit(ctx context.Context, caller auth.Identity, in ReviewInput) (string, rating.Aggregate, error) {
	tr := otel.Tracer("services/ReviewService")
	ctx, span := tr.Start(ctx, "Submit",
		trace.WithAttributes(
			attribute.String("user.id", caller.ID),
			attribute.String("professional.id", in.ProfessionalID),
		),
	)
	defer span.End()

	in.ProfessionalID = strings.TrimSpace(in.ProfessionalID)
	if in.ProfessionalID == "" {
		return "", rating.Aggregate{}, invalid("missing professional_id")
	}
	if math.IsNaN(in.Rating) || in.Rating < MinRating || in.Rating > MaxRating {
		return "", rating.Aggregate{}, ErrInvalidRating
	}
	if _, err := s.Professionals.Get(ctx, in.ProfessionalID); err != nil {
		return "", rating.Aggregate{}, notFound(err, ErrProfessionalNotFound)
	}

	name := anonymousName
	if u, err := s.Users.Get(ctx, caller.ID); err == nil && u.Name != "" {
		name = u.Name
	}

	id, err := s.Reviews.Add(ctx, &domain.Review{
		UserID:         caller.ID,
		UserName:       name,
		ProfessionalID: in.ProfessionalID,
		ProjectID:      strings.TrimSpace(in.ProjectID),
		Rating:         in.Rating,
		ReviewText:     strings.TrimSpace(in.ReviewText),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "store review")
		return "", rating.Aggregate{}, err
	}
	reviewsSubmitted.Inc()

	agg, err := s.Ratings.Recompute(ctx, in.ProfessionalID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "recompute rating")
		return id, rating.Aggregate{}, fmt.Errorf("recompute rating: %w", err)
	}
	span.SetAttributes(
		attribute.Float64("rating.average", agg.Rating),
		attribute.Int("rating.total", agg.TotalReviews),
	)

	publish(ctx, s.Events, events.KeyReviewSubmitted, events.ReviewSubmitted{
		ReviewID:       id,
		ProfessionalID: in.ProfessionalID,
		UserID:         caller.ID,
		Rating:         in.Rating,
		NewAverage:     agg.Rating,
		TotalReviews:   agg.TotalReviews,
	})
	return id, agg, nil
}
