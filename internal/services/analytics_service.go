package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/SAP-F-2025/marksheet-service/internal/cache"
	"github.com/SAP-F-2025/marksheet-service/internal/models"
	"github.com/SAP-F-2025/marksheet-service/internal/repositories"
	"github.com/SAP-F-2025/marksheet-service/internal/validator"
)

// AnalyticsService provides performance analytics over stored marksheets
type AnalyticsService interface {
	GetPerformanceMetrics(ctx context.Context, filter models.MarksheetFilter) (*models.PerformanceMetrics, error)
	GetTopPerformers(ctx context.Context, req *TopPerformersRequest) ([]models.Performer, error)
	GetPerformersByType(ctx context.Context, req *PerformersByTypeRequest) (*PerformersByTypeResponse, error)
	GetAtRiskStudents(ctx context.Context, filter models.MarksheetFilter) ([]models.Performer, error)
	GetStarPerformers(ctx context.Context, filter models.MarksheetFilter) ([]models.Performer, error)
	GetGradeDistribution(ctx context.Context, filter models.MarksheetFilter) (*GradeDistributionResponse, error)
	GetSemesterStats(ctx context.Context) ([]models.SemesterStat, error)

	// BuildDashboard computes a fresh dashboard snapshot, bypassing the cache.
	BuildDashboard(ctx context.Context) (*models.DashboardSnapshot, error)
}

// AnalyticsCachePrefix prefixes every analytics cache key. Writers of
// marksheet data drop all keys under it.
const AnalyticsCachePrefix = "analytics:"

// DefaultTopPerformersLimit is the number of performers returned when the
// request does not set one.
const DefaultTopPerformersLimit = 10

// Consistency score bounds; an empty data set scores defaultConsistencyScore.
const (
	minConsistencyScore     = 60.0
	maxConsistencyScore     = 95.0
	defaultConsistencyScore = 85.0
)

// ===== REQUEST / RESPONSE TYPES =====

type TopPerformersRequest struct {
	models.MarksheetFilter
	Limit int `json:"limit" validate:"omitempty,min=1,max=100"`
}

type PerformersByTypeRequest struct {
	models.MarksheetFilter
	Type string `json:"type" validate:"omitempty,performer_type"`
}

type PerformersByTypeResponse struct {
	Type       string                    `json:"type"`
	Performers []models.Performer        `json:"performers,omitempty"`
	Groups     []models.GroupPerformance `json:"groups,omitempty"`
}

type GradeDistributionResponse struct {
	models.GradeDistribution
	Total int `json:"total"`
}

type analyticsService struct {
	repo      repositories.Repository
	cache     cache.CacheService
	cacheTTL  time.Duration
	logger    *slog.Logger
	validator *validator.Validator
	now       func() time.Time
}

func NewAnalyticsService(
	repo repositories.Repository,
	cache cache.CacheService,
	cacheTTL time.Duration,
	logger *slog.Logger,
	validator *validator.Validator,
) AnalyticsService {
	return &analyticsService{
		repo:      repo,
		cache:     cache,
		cacheTTL:  cacheTTL,
		logger:    logger,
		validator: validator,
		now:       time.Now,
	}
}

// ===== QUERIES =====

func (s *analyticsService) GetPerformanceMetrics(ctx context.Context, filter models.MarksheetFilter) (*models.PerformanceMetrics, error) {
	return cached(ctx, s, filterKey("metrics", filter), func() (*models.PerformanceMetrics, error) {
		metrics, err := s.repo.Marksheet().GetPerformanceMetrics(ctx, nil, filter)
		if err != nil {
			return nil, fmt.Errorf("failed to get performance metrics: %w", err)
		}
		return metrics, nil
	})
}

func (s *analyticsService) GetTopPerformers(ctx context.Context, req *TopPerformersRequest) ([]models.Performer, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	limit := req.Limit
	if limit == 0 {
		limit = DefaultTopPerformersLimit
	}

	key := fmt.Sprintf("%s:%d", filterKey("top", req.MarksheetFilter), limit)
	return cached(ctx, s, key, func() ([]models.Performer, error) {
		performers, err := s.repo.Marksheet().GetTopPerformers(ctx, nil, req.MarksheetFilter, limit)
		if err != nil {
			return nil, fmt.Errorf("failed to get top performers: %w", err)
		}
		return nonNil(performers), nil
	})
}

// GetPerformersByType ranks students overall, or groups them by branch or
// by subject.
func (s *analyticsService) GetPerformersByType(ctx context.Context, req *PerformersByTypeRequest) (*PerformersByTypeResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	performerType := req.Type
	if performerType == "" {
		performerType = validator.PerformerOverall
	}

	return cached(ctx, s, filterKey("by_type:"+performerType, req.MarksheetFilter), func() (*PerformersByTypeResponse, error) {
		resp := &PerformersByTypeResponse{Type: performerType}
		var err error
		switch performerType {
		case validator.PerformerBranch:
			resp.Groups, err = s.repo.Marksheet().GetBranchPerformance(ctx, nil, req.MarksheetFilter)
		case validator.PerformerSubject:
			resp.Groups, err = s.repo.Marksheet().GetSubjectPerformance(ctx, nil, req.MarksheetFilter)
		default:
			resp.Performers, err = s.repo.Marksheet().GetTopPerformers(ctx, nil, req.MarksheetFilter, DefaultTopPerformersLimit)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get %s performers: %w", performerType, err)
		}
		return resp, nil
	})
}

func (s *analyticsService) GetAtRiskStudents(ctx context.Context, filter models.MarksheetFilter) ([]models.Performer, error) {
	return cached(ctx, s, filterKey("at_risk", filter), func() ([]models.Performer, error) {
		students, err := s.repo.Marksheet().GetBelowPercentage(ctx, nil, models.AtRiskThreshold, filter)
		if err != nil {
			return nil, fmt.Errorf("failed to get at-risk students: %w", err)
		}
		return nonNil(students), nil
	})
}

func (s *analyticsService) GetStarPerformers(ctx context.Context, filter models.MarksheetFilter) ([]models.Performer, error) {
	return cached(ctx, s, filterKey("stars", filter), func() ([]models.Performer, error) {
		students, err := s.repo.Marksheet().GetAtOrAbovePercentage(ctx, nil, models.StarThreshold, filter)
		if err != nil {
			return nil, fmt.Errorf("failed to get star performers: %w", err)
		}
		return nonNil(students), nil
	})
}

func (s *analyticsService) GetGradeDistribution(ctx context.Context, filter models.MarksheetFilter) (*GradeDistributionResponse, error) {
	return cached(ctx, s, filterKey("grades", filter), func() (*GradeDistributionResponse, error) {
		dist, err := s.repo.Marksheet().GetGradeDistribution(ctx, nil, filter)
		if err != nil {
			return nil, fmt.Errorf("failed to get grade distribution: %w", err)
		}
		total := dist.APlus + dist.A + dist.BPlus + dist.B + dist.C + dist.D + dist.F
		return &GradeDistributionResponse{GradeDistribution: *dist, Total: total}, nil
	})
}

func (s *analyticsService) GetSemesterStats(ctx context.Context) ([]models.SemesterStat, error) {
	return cached(ctx, s, AnalyticsCachePrefix+"semesters", func() ([]models.SemesterStat, error) {
		stats, err := s.repo.Marksheet().GetSemesterStats(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to get semester stats: %w", err)
		}
		return nonNil(stats), nil
	})
}

// ===== DASHBOARD =====

func (s *analyticsService) BuildDashboard(ctx context.Context) (*models.DashboardSnapshot, error) {
	md := s.repo.Marksheet()
	all := models.MarksheetFilter{}

	overview, err := md.GetOverview(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get overview: %w", err)
	}
	branchStats, err := md.GetBranchStats(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get branch stats: %w", err)
	}
	top, err := md.GetTopPerformers(ctx, nil, all, DefaultTopPerformersLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top performers: %w", err)
	}
	atRisk, err := md.GetBelowPercentage(ctx, nil, models.AtRiskThreshold, all)
	if err != nil {
		return nil, fmt.Errorf("failed to get at-risk students: %w", err)
	}
	stars, err := md.GetAtOrAbovePercentage(ctx, nil, models.StarThreshold, all)
	if err != nil {
		return nil, fmt.Errorf("failed to get star performers: %w", err)
	}
	grades, err := md.GetGradeDistribution(ctx, nil, all)
	if err != nil {
		return nil, fmt.Errorf("failed to get grade distribution: %w", err)
	}
	semesters, err := md.GetSemesterStats(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get semester stats: %w", err)
	}

	return &models.DashboardSnapshot{
		TotalStudents:     overview.Total,
		Passed:            overview.Passed,
		Failed:            overview.Total - overview.Passed,
		AvgPercentage:     overview.AvgPercentage,
		MinPercentage:     overview.MinPercentage,
		MaxPercentage:     overview.MaxPercentage,
		ConsistencyScore:  ConsistencyScore(overview),
		AtRiskCount:       len(atRisk),
		StarCount:         len(stars),
		BranchStats:       nonNil(branchStats),
		SemesterStats:     nonNil(semesters),
		GradeDistribution: *grades,
		TopPerformers:     nonNil(top),
		GeneratedAt:       s.now(),
	}, nil
}

// ConsistencyScore rates how tightly percentages cluster: half the spread
// between the best and worst result is taken off 100, clamped to [60, 95]
// and rounded to one decimal.
func ConsistencyScore(overview *repositories.OverviewStats) float64 {
	if overview == nil || overview.Total == 0 || overview.MaxPercentage == 0 {
		return defaultConsistencyScore
	}
	score := 100 - (overview.MaxPercentage-overview.MinPercentage)/2
	score = math.Min(maxConsistencyScore, math.Max(minConsistencyScore, score))
	return math.Round(score*10) / 10
}

// ===== HELPERS =====

// cached serves key from the cache, loading and storing it on a miss. Cache
// failures are logged and fall through to the loader.
func cached[T any](ctx context.Context, s *analyticsService, key string, load func() (T, error)) (T, error) {
	var value T
	err := s.cache.Get(ctx, key, &value)
	if err == nil {
		return value, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("Analytics cache read failed", "key", key, "error", err)
	}

	value, err = load()
	if err != nil {
		return value, err
	}
	if err := s.cache.Set(ctx, key, value, s.cacheTTL); err != nil {
		s.logger.Warn("Analytics cache write failed", "key", key, "error", err)
	}
	return value, nil
}

func filterKey(name string, filter models.MarksheetFilter) string {
	part := func(v string) string {
		if v == "" {
			return models.FilterAll
		}
		return v
	}
	return fmt.Sprintf("%s%s:%s:%s:%s", AnalyticsCachePrefix, name,
		part(filter.Branch), part(filter.Semester), part(filter.ExamType))
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
