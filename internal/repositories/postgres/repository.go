package postgres

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/marksheet-service/internal/repositories"
	"gorm.io/gorm"
)

type Repository struct {
	db        *gorm.DB
	marksheet repositories.MarksheetRepository
	importJob repositories.ImportJobRepository
}

func NewRepository(db *gorm.DB) repositories.Repository {
	return &Repository{
		db:        db,
		marksheet: NewMarksheetPostgreSQL(db),
		importJob: NewImportJobPostgreSQL(db),
	}
}

func (r *Repository) Marksheet() repositories.MarksheetRepository {
	return r.marksheet
}

func (r *Repository) ImportJob() repositories.ImportJobRepository {
	return r.importJob
}

func (r *Repository) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func (r *Repository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database handle: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// getDB returns tx when the caller runs inside a transaction.
func getDB(db, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return db
}
