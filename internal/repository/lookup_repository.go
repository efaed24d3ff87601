package repository

import (
	"context"

	"github.com/yukikurage/issue-tracker-api/internal/models"
	"gorm.io/gorm"
)

// GormLookupRepository reads the reference tables
type GormLookupRepository struct {
	db *gorm.DB
}

// NewLookupRepository creates a new LookupRepository
func NewLookupRepository(db *gorm.DB) LookupRepository {
	return &GormLookupRepository{db: db}
}

func (r *GormLookupRepository) Statuses(ctx context.Context) ([]models.Status, error) {
	rows := []models.Status{}
	return rows, r.db.WithContext(ctx).Order("id").Find(&rows).Error
}

func (r *GormLookupRepository) Priorities(ctx context.Context) ([]models.Priority, error) {
	rows := []models.Priority{}
	return rows, r.db.WithContext(ctx).Order("id").Find(&rows).Error
}

func (r *GormLookupRepository) Types(ctx context.Context) ([]models.IssueType, error) {
	rows := []models.IssueType{}
	return rows, r.db.WithContext(ctx).Order("id").Find(&rows).Error
}

func (r *GormLookupRepository) Roles(ctx context.Context) ([]models.Role, error) {
	rows := []models.Role{}
	return rows, r.db.WithContext(ctx).Order("id").Find(&rows).Error
}
