package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/planora/planora-backend/internal/domain"
)

// CountProjectsByProfessional returns how many portfolio projects are
// attributed to professionalID. Used to refresh Professional.TotalProjects.
func CountProjectsByProfessional(ctx context.Context, db *gorm.DB, professionalID string) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Project{}).
		Where("professional_id = ?", professionalID).
		Count(&n).Error
	return n, err
}
