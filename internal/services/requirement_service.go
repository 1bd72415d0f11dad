package services

import (
	"context"

	"gorm.io/datatypes"

	"github.com/planora/planora-backend/internal/domain"
	"github.com/planora/planora-backend/internal/repo"
)

// reservedRequirementKeys are owned by the server and dropped from the
// client's free-form body.
var reservedRequirementKeys = []string{"id", "user_id", "status", "created_at", "updated_at"}

// RequirementService stores free-form project briefs.
type RequirementService struct {
	Requirements repo.DocumentStore[domain.Requirement]
}

// Submit stores details for the caller with status "submitted".
func (s *RequirementService) Submit(ctx context.Context, userID string, details map[string]any) (string, error) {
	if len(details) == 0 {
		return "", invalid("empty requirement")
	}
	m := make(datatypes.JSONMap, len(details))
	for k, v := range details {
		m[k] = v
	}
	for _, k := range reservedRequirementKeys {
		delete(m, k)
	}
	return s.Requirements.Add(ctx, &domain.Requirement{
		UserID:  userID,
		Status:  domain.RequirementSubmitted,
		Details: m,
	})
}

// List returns the caller's requirements, newest first.
func (s *RequirementService) List(ctx context.Context, userID string) ([]domain.Requirement, error) {
	return s.Requirements.Query(ctx, repo.Query{
		Filters: []repo.Filter{repo.Eq("user_id", userID)},
		Desc:    true,
	})
}
