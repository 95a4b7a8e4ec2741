package postgres

import (
	"context"

	"github.com/SAP-F-2025/marksheet-service/internal/models"
	"github.com/SAP-F-2025/marksheet-service/internal/repositories"
	"gorm.io/gorm"
)

type ImportJobPostgreSQL struct {
	db *gorm.DB
}

func NewImportJobPostgreSQL(db *gorm.DB) repositories.ImportJobRepository {
	return &ImportJobPostgreSQL{db: db}
}

func (r *ImportJobPostgreSQL) Create(ctx context.Context, tx *gorm.DB, job *models.ImportJob) error {
	return getDB(r.db, tx).WithContext(ctx).Create(job).Error
}

func (r *ImportJobPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.ImportJob, error) {
	var job models.ImportJob
	if err := getDB(r.db, tx).WithContext(ctx).First(&job, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *ImportJobPostgreSQL) Update(ctx context.Context, tx *gorm.DB, job *models.ImportJob) error {
	return getDB(r.db, tx).WithContext(ctx).Save(job).Error
}

func (r *ImportJobPostgreSQL) ListRecent(ctx context.Context, tx *gorm.DB, limit int) ([]*models.ImportJob, error) {
	var jobs []*models.ImportJob
	if limit <= 0 {
		limit = 20
	}
	if err := getDB(r.db, tx).WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}
