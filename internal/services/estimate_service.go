package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/planora/planora-backend/internal/domain"
	"github.com/planora/planora-backend/internal/estimate"
	"github.com/planora/planora-backend/internal/repo"
)

// EstimateInput is the estimation request. Area is already parsed.
type EstimateInput struct {
	ProjectType  string
	Area         float64
	Location     string
	QualityLevel string
	NumRooms     int
}

// EstimateService runs the estimation engine and keeps an audit record of
// every request.
type EstimateService struct {
	Estimates repo.DocumentStore[domain.CostEstimate]
}

// Estimate computes and stores a breakdown. The returned breakdown is
// unrounded, exactly as stored.
func (s *EstimateService) Estimate(ctx context.Context, userID string, in EstimateInput) (string, estimate.Breakdown, error) {
	tr := otel.Tracer("services/EstimateService")
	ctx, span := tr.Start(ctx, "Estimate",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("project.type", in.ProjectType),
			attribute.String("quality.level", in.QualityLevel),
		),
	)
	defer span.End()

	if in.NumRooms < 0 {
		return "", estimate.Breakdown{}, invalid("num_rooms must not be negative")
	}
	b, err := estimate.Compute(strings.TrimSpace(in.ProjectType), in.Area, strings.TrimSpace(in.QualityLevel))
	if errors.Is(err, estimate.ErrInvalidArea) {
		return "", estimate.Breakdown{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if err != nil {
		return "", estimate.Breakdown{}, err
	}

	id, err := s.Estimates.Add(ctx, &domain.CostEstimate{
		UserID:       userID,
		ProjectType:  strings.TrimSpace(in.ProjectType),
		Area:         in.Area,
		Location:     strings.TrimSpace(in.Location),
		QualityLevel: strings.TrimSpace(in.QualityLevel),
		NumRooms:     in.NumRooms,
		MaterialCost: b.MaterialCost,
		LaborCost:    b.LaborCost,
		DesignCost:   b.DesignCost,
		PermitCost:   b.PermitCost,
		TotalCost:    b.TotalCost,
	})
	if err != nil {
		span.RecordError(err)
		return "", estimate.Breakdown{}, fmt.Errorf("store estimate: %w", err)
	}
	estimatesComputed.WithLabelValues(projectTypeLabel(in.ProjectType)).Inc()
	span.SetAttributes(attribute.Float64("estimate.total", b.TotalCost))
	return id, b, nil
}

// List returns the caller's estimates, newest first.
func (s *EstimateService) List(ctx context.Context, userID string) ([]domain.CostEstimate, error) {
	return s.Estimates.Query(ctx, repo.Query{
		Filters: []repo.Filter{repo.Eq("user_id", userID)},
		Desc:    true,
	})
}

func projectTypeLabel(t string) string {
	t = strings.TrimSpace(t)
	if estimate.Known(t) {
		return t
	}
	return "other"
}
