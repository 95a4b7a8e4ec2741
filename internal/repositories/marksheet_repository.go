package repositories

import (
	"context"

	"github.com/SAP-F-2025/marksheet-service/internal/models"
	"gorm.io/gorm"
)

// MarksheetRepository interface for marksheet persistence and analytics queries
type MarksheetRepository interface {
	// Basic operations
	Create(ctx context.Context, tx *gorm.DB, marksheet *models.Marksheet) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Marksheet, error)
	GetByRollNo(ctx context.Context, tx *gorm.DB, rollNo string) (*models.Marksheet, error)
	ExistsByRollNo(ctx context.Context, tx *gorm.DB, rollNo string) (bool, error)
	DeleteAll(ctx context.Context, tx *gorm.DB) (int64, error)

	// Query operations
	List(ctx context.Context, tx *gorm.DB, filters MarksheetFilters) ([]*models.Marksheet, int64, error)
	ListWithSubjects(ctx context.Context, tx *gorm.DB, filter models.MarksheetFilter) ([]*models.Marksheet, error)

	// Analytics
	GetPerformanceMetrics(ctx context.Context, tx *gorm.DB, filter models.MarksheetFilter) (*models.PerformanceMetrics, error)
	GetTopPerformers(ctx context.Context, tx *gorm.DB, filter models.MarksheetFilter, limit int) ([]models.Performer, error)
	GetBranchPerformance(ctx context.Context, tx *gorm.DB, filter models.MarksheetFilter) ([]models.GroupPerformance, error)
	GetSubjectPerformance(ctx context.Context, tx *gorm.DB, filter models.MarksheetFilter) ([]models.GroupPerformance, error)
	GetBelowPercentage(ctx context.Context, tx *gorm.DB, threshold float64, filter models.MarksheetFilter) ([]models.Performer, error)
	GetAtOrAbovePercentage(ctx context.Context, tx *gorm.DB, threshold float64, filter models.MarksheetFilter) ([]models.Performer, error)
	GetGradeDistribution(ctx context.Context, tx *gorm.DB, filter models.MarksheetFilter) (*models.GradeDistribution, error)
	GetSemesterStats(ctx context.Context, tx *gorm.DB) ([]models.SemesterStat, error)
	GetBranchStats(ctx context.Context, tx *gorm.DB) ([]models.BranchStat, error)
	GetOverview(ctx context.Context, tx *gorm.DB) (*OverviewStats, error)
}

// ImportJobRepository interface for import job bookkeeping
type ImportJobRepository interface {
	Create(ctx context.Context, tx *gorm.DB, job *models.ImportJob) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.ImportJob, error)
	Update(ctx context.Context, tx *gorm.DB, job *models.ImportJob) error
	ListRecent(ctx context.Context, tx *gorm.DB, limit int) ([]*models.ImportJob, error)
}
