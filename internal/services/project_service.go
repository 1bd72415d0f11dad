// Package services – ProjectService
//
// Projects are portfolio entries with up to ten images. When a professional
// creates one it is attributed to them and their project counter is
// refreshed from a count over the table.
package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/planora/planora-backend/internal/auth"
	"github.com/planora/planora-backend/internal/domain"
	"github.com/planora/planora-backend/internal/repo"
)

// DefaultMaxProjectImages caps images per project.
const DefaultMaxProjectImages = 10

// ProjectInput is the create payload.
type ProjectInput struct {
	Title       string
	Category    string
	Location    string
	Area        string
	Budget      string
	Description string
}

// ProjectDetail is a project enriched with its professional's public data.
type ProjectDetail struct {
	domain.Project
	ArchitectName  string   `json:"architect_name,omitempty"`
	Specialization string   `json:"specialization,omitempty"`
	Rating         *float64 `json:"rating,omitempty"`
}

// ProjectService lists, reads and creates projects.
type ProjectService struct {
	DB            *gorm.DB
	Projects      repo.DocumentStore[domain.Project]
	Professionals repo.DocumentStore[domain.Professional]
	Files         FileStore
	MaxImages     int
}

// List filters by exact category and a case-insensitive substring of the
// location.
func (s *ProjectService) List(ctx context.Context, category, location string) ([]domain.Project, error) {
	var q repo.Query
	if c := strings.TrimSpace(category); c != "" {
		q.Filters = append(q.Filters, repo.Eq("category", c))
	}
	items, err := s.Projects.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	needle := strings.TrimSpace(location)
	if needle == "" {
		return items, nil
	}
	fold := cases.Fold()
	needle = fold.String(needle)
	out := make([]domain.Project, 0, len(items))
	for _, p := range items {
		if p.Location != "" && strings.Contains(fold.String(p.Location), needle) {
			out = append(out, p)
		}
	}
	return out, nil
}

// Get returns the project with its professional's name, specialization and
// rating when the project is attributed and the professional still exists.
func (s *ProjectService) Get(ctx context.Context, id string) (*ProjectDetail, error) {
	p, err := s.Projects.Get(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrProjectNotFound)
	}
	d := &ProjectDetail{Project: *p}
	if p.ProfessionalID == "" {
		return d, nil
	}
	pro, err := s.Professionals.Get(ctx, p.ProfessionalID)
	switch {
	case err == nil:
		rating := pro.Rating
		d.ArchitectName, d.Specialization, d.Rating = pro.Name, pro.Specialization, &rating
	case errors.Is(err, repo.ErrNotFound):
		// attributed to a professional that no longer exists
	default:
		return nil, err
	}
	return d, nil
}

// Create stores a project owned by the caller. Images are saved first and
// referenced by their public URLs; they are removed again if the project
// cannot be stored.
func (s *ProjectService) Create(ctx context.Context, caller auth.Identity, in ProjectInput, images []Upload) (string, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return "", invalid("missing title")
	}
	limit := s.MaxImages
	if limit <= 0 {
		limit = DefaultMaxProjectImages
	}
	if len(images) > limit {
		return "", fmt.Errorf("%w: at most %d images", ErrTooManyFiles, limit)
	}

	saved := &savedUploads{files: s.Files}
	urls := make([]string, 0, len(images))
	for _, img := range images {
		f, err := saved.save(img)
		if err != nil {
			saved.discard()
			return "", fmt.Errorf("store image: %w", err)
		}
		urls = append(urls, f.URL)
	}

	p := &domain.Project{
		Title:       in.Title,
		Slug:        Slugify(in.Title),
		Category:    strings.TrimSpace(in.Category),
		Location:    strings.TrimSpace(in.Location),
		Area:        strings.TrimSpace(in.Area),
		Budget:      strings.TrimSpace(in.Budget),
		Description: strings.TrimSpace(in.Description),
		UserID:      caller.ID,
		Images:      urls,
	}
	if caller.Role == auth.RoleProfessional {
		p.ProfessionalID = caller.ID
	}
	id, err := s.Projects.Add(ctx, p)
	if err != nil {
		saved.discard()
		return "", err
	}

	if p.ProfessionalID != "" && s.DB != nil {
		n, err := repo.CountProjectsByProfessional(ctx, s.DB, p.ProfessionalID)
		if err != nil {
			return id, fmt.Errorf("count projects: %w", err)
		}
		if err := s.Professionals.Update(ctx, p.ProfessionalID, repo.Patch{"total_projects": int(n)}); err != nil {
			return id, fmt.Errorf("update project count: %w", err)
		}
	}
	return id, nil
}

var slugSpaceRE = regexp.MustCompile(`\s+`)

// Slugify lowercases title and replaces whitespace runs with hyphens.
func Slugify(title string) string {
	lower := cases.Lower(language.Und).String(strings.TrimSpace(title))
	return slugSpaceRE.ReplaceAllString(lower, "-")
}
