package services

import (
	"context"
	"strings"

	"github.com/planora/planora-backend/internal/domain"
	"github.com/planora/planora-backend/internal/repo"
)

const (
	profileProjectLimit = 6
	profileReviewLimit  = 10
)

// ProfessionalFilter narrows the directory listing. Zero values mean no
// constraint.
type ProfessionalFilter struct {
	Specialization string
	City           string
	MinRating      *float64
	MaxRate        *float64
}

// ProfessionalProfile is a professional with a sample of their portfolio and
// their most recent reviews.
type ProfessionalProfile struct {
	Professional *domain.Professional `json:"professional"`
	Projects     []domain.Project     `json:"projects"`
	Reviews      []domain.Review      `json:"reviews"`
}

// ProfessionalService serves the public professional directory.
type ProfessionalService struct {
	Professionals repo.DocumentStore[domain.Professional]
	Projects      repo.DocumentStore[domain.Project]
	Reviews       repo.DocumentStore[domain.Review]
}

// List returns professionals matching every set filter, in registration
// order.
func (s *ProfessionalService) List(ctx context.Context, f ProfessionalFilter) ([]domain.Professional, error) {
	var filters []repo.Filter
	if v := strings.TrimSpace(f.Specialization); v != "" {
		filters = append(filters, repo.Eq("specialization", v))
	}
	if v := strings.TrimSpace(f.City); v != "" {
		filters = append(filters, repo.Eq("city", v))
	}
	if f.MinRating != nil {
		filters = append(filters, repo.Filter{Field: "rating", Op: repo.OpGte, Value: *f.MinRating})
	}
	if f.MaxRate != nil {
		filters = append(filters, repo.Filter{Field: "hourly_rate", Op: repo.OpLte, Value: *f.MaxRate})
	}
	return s.Professionals.Query(ctx, repo.Query{Filters: filters})
}

// Profile returns the professional, up to six of their projects and their
// ten newest reviews.
func (s *ProfessionalService) Profile(ctx context.Context, id string) (*ProfessionalProfile, error) {
	p, err := s.Professionals.Get(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrProfessionalNotFound)
	}
	projects, err := s.Projects.Query(ctx, repo.Query{
		Filters: []repo.Filter{repo.Eq("professional_id", id)},
		Limit:   profileProjectLimit,
	})
	if err != nil {
		return nil, err
	}
	reviews, err := s.Reviews.Query(ctx, repo.Query{
		Filters: []repo.Filter{repo.Eq("professional_id", id)},
		Desc:    true,
		Limit:   profileReviewLimit,
	})
	if err != nil {
		return nil, err
	}
	return &ProfessionalProfile{Professional: p, Projects: projects, Reviews: reviews}, nil
}
