package services

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/SAP-F-2025/marksheet-service/internal/cache"
	"github.com/SAP-F-2025/marksheet-service/internal/models"
	"github.com/SAP-F-2025/marksheet-service/internal/repositories"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

// MockMarksheetRepository is a mock implementation of MarksheetRepository
type MockMarksheetRepository struct {
	mock.Mock
}

func (m *MockMarksheetRepository) Create(ctx context.Context, tx *gorm.DB, marksheet *models.Marksheet) error {
	args := m.Called(ctx, tx, marksheet)
	return args.Error(0)
}

func (m *MockMarksheetRepository) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Marksheet, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Marksheet), args.Error(1)
}

func (m *MockMarksheetRepository) GetByRollNo(ctx context.Context, tx *gorm.DB, rollNo string) (*models.Marksheet, error) {
	args := m.Called(ctx, tx, rollNo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Marksheet), args.Error(1)
}

func (m *MockMarksheetRepository) ExistsByRollNo(ctx context.Context, tx *gorm.DB, rollNo string) (bool, error) {
	args := m.Called(ctx, tx, rollNo)
	return args.Bool(0), args.Error(1)
}

func (m *MockMarksheetRepository) DeleteAll(ctx context.Context, tx *gorm.DB) (int64, error) {
	args := m.Called(ctx, tx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMarksheetRepository) List(ctx context.Context, tx *gorm.DB, filters repositories.MarksheetFilters) ([]*models.Marksheet, int64, error) {
	args := m.Called(ctx, tx, filters)
	return args.Get(0).([]*models.Marksheet), args.Get(1).(int64), args.Error(2)
}

func (m *MockMarksheetRepository) ListWithSubjects(ctx context.Context, tx *gorm.DB, filter models.MarksheetFilter) ([]*models.Marksheet, error) {
	args := m.Called(ctx, tx, filter)
	return args.Get(0).([]*models.Marksheet), args.Error(1)
}

func (m *MockMarksheetRepository) GetPerformanceMetrics(ctx context.Context, tx *gorm.DB, filter models.MarksheetFilter) (*models.PerformanceMetrics, error) {
	args := m.Called(ctx, tx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PerformanceMetrics), args.Error(1)
}

func (m *MockMarksheetRepository) GetTopPerformers(ctx context.Context, tx *gorm.DB, filter models.MarksheetFilter, limit int) ([]models.Performer, error) {
	args := m.Called(ctx, tx, filter, limit)
	return args.Get(0).([]models.Performer), args.Error(1)
}

func (m *MockMarksheetRepository) GetBranchPerformance(ctx context.Context, tx *gorm.DB, filter models.MarksheetFilter) ([]models.GroupPerformance, error) {
	args := m.Called(ctx, tx, filter)
	return args.Get(0).([]models.GroupPerformance), args.Error(1)
}

func (m *MockMarksheetRepository) GetSubjectPerformance(ctx context.Context, tx *gorm.DB, filter models.MarksheetFilter) ([]models.GroupPerformance, error) {
	args := m.Called(ctx, tx, filter)
	return args.Get(0).([]models.GroupPerformance), args.Error(1)
}

func (m *MockMarksheetRepository) GetBelowPercentage(ctx context.Context, tx *gorm.DB, threshold float64, filter models.MarksheetFilter) ([]models.Performer, error) {
	args := m.Called(ctx, tx, threshold, filter)
	return args.Get(0).([]models.Performer), args.Error(1)
}

func (m *MockMarksheetRepository) GetAtOrAbovePercentage(ctx context.Context, tx *gorm.DB, threshold float64, filter models.MarksheetFilter) ([]models.Performer, error) {
	args := m.Called(ctx, tx, threshold, filter)
	return args.Get(0).([]models.Performer), args.Error(1)
}

func (m *MockMarksheetRepository) GetGradeDistribution(ctx context.Context, tx *gorm.DB, filter models.MarksheetFilter) (*models.GradeDistribution, error) {
	args := m.Called(ctx, tx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GradeDistribution), args.Error(1)
}

func (m *MockMarksheetRepository) GetSemesterStats(ctx context.Context, tx *gorm.DB) ([]models.SemesterStat, error) {
	args := m.Called(ctx, tx)
	return args.Get(0).([]models.SemesterStat), args.Error(1)
}

func (m *MockMarksheetRepository) GetBranchStats(ctx context.Context, tx *gorm.DB) ([]models.BranchStat, error) {
	args := m.Called(ctx, tx)
	return args.Get(0).([]models.BranchStat), args.Error(1)
}

func (m *MockMarksheetRepository) GetOverview(ctx context.Context, tx *gorm.DB) (*repositories.OverviewStats, error) {
	args := m.Called(ctx, tx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repositories.OverviewStats), args.Error(1)
}

// MockImportJobRepository is a mock implementation of ImportJobRepository
type MockImportJobRepository struct {
	mock.Mock
}

func (m *MockImportJobRepository) Create(ctx context.Context, tx *gorm.DB, job *models.ImportJob) error {
	args := m.Called(ctx, tx, job)
	return args.Error(0)
}

func (m *MockImportJobRepository) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.ImportJob, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ImportJob), args.Error(1)
}

func (m *MockImportJobRepository) Update(ctx context.Context, tx *gorm.DB, job *models.ImportJob) error {
	args := m.Called(ctx, tx, job)
	return args.Error(0)
}

func (m *MockImportJobRepository) ListRecent(ctx context.Context, tx *gorm.DB, limit int) ([]*models.ImportJob, error) {
	args := m.Called(ctx, tx, limit)
	return args.Get(0).([]*models.ImportJob), args.Error(1)
}

// MockRepository is a mock implementation of the main Repository interface.
// Transactions run the callback directly with a nil tx.
type MockRepository struct {
	marksheetRepo *MockMarksheetRepository
	importJobRepo *MockImportJobRepository
}

func newMockRepository() *MockRepository {
	return &MockRepository{
		marksheetRepo: &MockMarksheetRepository{},
		importJobRepo: &MockImportJobRepository{},
	}
}

func (m *MockRepository) Marksheet() repositories.MarksheetRepository { return m.marksheetRepo }
func (m *MockRepository) ImportJob() repositories.ImportJobRepository { return m.importJobRepo }

func (m *MockRepository) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func (m *MockRepository) Ping(ctx context.Context) error { return nil }
func (m *MockRepository) Close() error                   { return nil }

// memoryCache is an in-process CacheService that round-trips values
// through JSON like the Redis implementation.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	deleted []string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]byte)}
}

func (c *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = data
	return nil
}

func (c *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	data, ok := c.entries[key]
	c.mu.Unlock()
	if !ok {
		return cache.ErrCacheMiss
	}
	return json.Unmarshal(data, dest)
}

func (c *memoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

func (c *memoryCache) DeletePattern(ctx context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleted = append(c.deleted, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
	return nil
}

func (c *memoryCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *memoryCache) deletedPatterns() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.deleted...)
}
