package repositories

import (
	"context"
	"errors"

	"github.com/SAP-F-2025/marksheet-service/internal/models"
	"gorm.io/gorm"
)

// Repository groups the repositories of the service and owns transactions.
type Repository interface {
	Marksheet() MarksheetRepository
	ImportJob() ImportJobRepository

	// WithTransaction runs fn inside a database transaction. Repository
	// methods called with the given tx join it; a nil tx uses the pool.
	WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error
	Ping(ctx context.Context) error
	Close() error
}

// ===== SHARED FILTER STRUCTS =====

type MarksheetFilters struct {
	models.MarksheetFilter

	Search    string `json:"search" form:"search"` // matches name or roll number
	Limit     int    `json:"limit" form:"limit"`
	Offset    int    `json:"offset" form:"offset"`
	SortBy    string `json:"sort_by" form:"sort_by"`       // "created_at", "percentage", "name"
	SortOrder string `json:"sort_order" form:"sort_order"` // "asc", "desc"
}

// ===== SHARED STATISTICS STRUCTS =====

type OverviewStats struct {
	Total         int     `json:"total"`
	Passed        int     `json:"passed"`
	AvgPercentage float64 `json:"avg_percentage"`
	MinPercentage float64 `json:"min_percentage"`
	MaxPercentage float64 `json:"max_percentage"`
}

type BulkCreateResult struct {
	Created    int      `json:"created_count"`
	Duplicates []string `json:"duplicates,omitempty"`
	Invalid    []string `json:"invalid,omitempty"`
}

// ===== ERROR HELPERS =====

func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicateError reports a unique constraint violation. It relies on the
// connection being opened with TranslateError enabled.
func IsDuplicateError(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
