package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/planora/planora-backend/internal/auth"
	"github.com/planora/planora-backend/internal/domain"
	"github.com/planora/planora-backend/internal/repo"
)

// CollaborationService shares files on a project between its parties.
type CollaborationService struct {
	Collaborations repo.DocumentStore[domain.Collaboration]
	Files          FileStore
}

// Upload stores file and records it against projectID with the caller as
// uploader.
func (s *CollaborationService) Upload(ctx context.Context, caller auth.Identity, projectID, description string, file *Upload) (string, error) {
	if file == nil {
		return "", ErrMissingFile
	}
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return "", invalid("missing project_id")
	}

	f, err := s.Files.Save(file.Name, file.Body)
	if err != nil {
		return "", fmt.Errorf("store file: %w", err)
	}
	id, err := s.Collaborations.Add(ctx, &domain.Collaboration{
		ProjectID:    projectID,
		UploaderType: string(caller.Role),
		UploaderID:   caller.ID,
		FileName:     f.OriginalName,
		FilePath:     f.URL,
		FileType:     f.ContentType,
		FileSize:     f.Size,
		Description:  strings.TrimSpace(description),
	})
	if err != nil {
		_ = s.Files.Remove(f.Path)
		return "", err
	}
	return id, nil
}

// List returns a project's shared files, newest first.
func (s *CollaborationService) List(ctx context.Context, projectID string) ([]domain.Collaboration, error) {
	return s.Collaborations.Query(ctx, repo.Query{
		Filters: []repo.Filter{repo.Eq("project_id", projectID)},
		Desc:    true,
	})
}
