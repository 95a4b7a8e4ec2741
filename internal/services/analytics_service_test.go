package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SAP-F-2025/marksheet-service/internal/models"
	"github.com/SAP-F-2025/marksheet-service/internal/repositories"
	"github.com/SAP-F-2025/marksheet-service/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestAnalyticsService() (AnalyticsService, *MockRepository, *memoryCache) {
	repo := newMockRepository()
	memCache := newMemoryCache()
	return NewAnalyticsService(repo, memCache, time.Minute, discardLogger(), validator.New()), repo, memCache
}

func TestConsistencyScore(t *testing.T) {
	tests := []struct {
		name     string
		overview *repositories.OverviewStats
		want     float64
	}{
		{"no data", nil, 85},
		{"empty table", &repositories.OverviewStats{}, 85},
		{"tight spread", &repositories.OverviewStats{Total: 3, MinPercentage: 78, MaxPercentage: 82}, 95},
		{"moderate spread", &repositories.OverviewStats{Total: 3, MinPercentage: 40, MaxPercentage: 63}, 88.5},
		{"wide spread", &repositories.OverviewStats{Total: 3, MinPercentage: 5, MaxPercentage: 99}, 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ConsistencyScore(tt.overview))
		})
	}
}

func TestAnalyticsService_GetTopPerformers(t *testing.T) {
	t.Run("defaults the limit and serves repeats from cache", func(t *testing.T) {
		svc, repo, memCache := newTestAnalyticsService()
		filter := models.MarksheetFilter{Branch: "CSE"}
		repo.marksheetRepo.On("GetTopPerformers", mock.Anything, mock.Anything, filter, DefaultTopPerformersLimit).
			Return([]models.Performer{{ID: 1, Name: "Asha", Percentage: 97.5}}, nil).Once()

		first, err := svc.GetTopPerformers(context.Background(), &TopPerformersRequest{MarksheetFilter: filter})
		require.NoError(t, err)
		second, err := svc.GetTopPerformers(context.Background(), &TopPerformersRequest{MarksheetFilter: filter})
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, 1, memCache.len())
		repo.marksheetRepo.AssertNumberOfCalls(t, "GetTopPerformers", 1)
	})

	t.Run("rejects an out of range limit", func(t *testing.T) {
		svc, _, _ := newTestAnalyticsService()

		_, err := svc.GetTopPerformers(context.Background(), &TopPerformersRequest{Limit: 500})
		assert.True(t, IsValidation(err))
	})

	t.Run("returns an empty list rather than nil", func(t *testing.T) {
		svc, repo, _ := newTestAnalyticsService()
		repo.marksheetRepo.On("GetTopPerformers", mock.Anything, mock.Anything, mock.Anything, 3).
			Return([]models.Performer(nil), nil)

		performers, err := svc.GetTopPerformers(context.Background(), &TopPerformersRequest{Limit: 3})
		require.NoError(t, err)
		assert.NotNil(t, performers)
		assert.Empty(t, performers)
	})
}

func TestAnalyticsService_GetPerformersByType(t *testing.T) {
	svc, repo, _ := newTestAnalyticsService()
	ctx := context.Background()

	repo.marksheetRepo.On("GetBranchPerformance", mock.Anything, mock.Anything, mock.Anything).
		Return([]models.GroupPerformance{{Name: "CSE", Count: 4, AvgPercentage: 71.2}}, nil)
	repo.marksheetRepo.On("GetTopPerformers", mock.Anything, mock.Anything, mock.Anything, DefaultTopPerformersLimit).
		Return([]models.Performer{{ID: 2}}, nil)

	byBranch, err := svc.GetPerformersByType(ctx, &PerformersByTypeRequest{Type: "branch"})
	require.NoError(t, err)
	assert.Equal(t, "branch", byBranch.Type)
	require.Len(t, byBranch.Groups, 1)
	assert.Empty(t, byBranch.Performers)

	overall, err := svc.GetPerformersByType(ctx, &PerformersByTypeRequest{})
	require.NoError(t, err)
	assert.Equal(t, validator.PerformerOverall, overall.Type)
	assert.Len(t, overall.Performers, 1)

	_, err = svc.GetPerformersByType(ctx, &PerformersByTypeRequest{Type: "teacher"})
	assert.True(t, IsValidation(err))
}

func TestAnalyticsService_GetGradeDistribution(t *testing.T) {
	svc, repo, _ := newTestAnalyticsService()
	repo.marksheetRepo.On("GetGradeDistribution", mock.Anything, mock.Anything, mock.Anything).
		Return(&models.GradeDistribution{APlus: 2, A: 3, B: 1, F: 4}, nil)

	dist, err := svc.GetGradeDistribution(context.Background(), models.MarksheetFilter{})
	require.NoError(t, err)
	assert.Equal(t, 10, dist.Total)
	assert.Equal(t, 4, dist.F)
}

func TestAnalyticsService_ErrorsAreNotCached(t *testing.T) {
	svc, repo, memCache := newTestAnalyticsService()
	repo.marksheetRepo.On("GetSemesterStats", mock.Anything, mock.Anything).
		Return([]models.SemesterStat(nil), errors.New("timeout"))

	_, err := svc.GetSemesterStats(context.Background())
	require.Error(t, err)
	assert.Equal(t, 0, memCache.len())
}

func TestAnalyticsService_BuildDashboard(t *testing.T) {
	svc, repo, _ := newTestAnalyticsService()
	repo.marksheetRepo.On("GetOverview", mock.Anything, mock.Anything).
		Return(&repositories.OverviewStats{Total: 10, Passed: 8, AvgPercentage: 66.4, MinPercentage: 31, MaxPercentage: 94}, nil)
	repo.marksheetRepo.On("GetBranchStats", mock.Anything, mock.Anything).
		Return([]models.BranchStat{{Branch: "CSE", Count: 10, AvgPercentage: 66.4}}, nil)
	repo.marksheetRepo.On("GetTopPerformers", mock.Anything, mock.Anything, models.MarksheetFilter{}, DefaultTopPerformersLimit).
		Return([]models.Performer{{ID: 1}, {ID: 2}}, nil)
	repo.marksheetRepo.On("GetBelowPercentage", mock.Anything, mock.Anything, models.AtRiskThreshold, models.MarksheetFilter{}).
		Return([]models.Performer{{ID: 9}, {ID: 10}}, nil)
	repo.marksheetRepo.On("GetAtOrAbovePercentage", mock.Anything, mock.Anything, models.StarThreshold, models.MarksheetFilter{}).
		Return([]models.Performer{{ID: 1}}, nil)
	repo.marksheetRepo.On("GetGradeDistribution", mock.Anything, mock.Anything, models.MarksheetFilter{}).
		Return(&models.GradeDistribution{APlus: 1, A: 3, B: 4, F: 2}, nil)
	repo.marksheetRepo.On("GetSemesterStats", mock.Anything, mock.Anything).
		Return([]models.SemesterStat{{Semester: "3", Count: 10}}, nil)

	snapshot, err := svc.BuildDashboard(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 10, snapshot.TotalStudents)
	assert.Equal(t, 2, snapshot.Failed)
	assert.Equal(t, 2, snapshot.AtRiskCount)
	assert.Equal(t, 1, snapshot.StarCount)
	assert.Equal(t, 68.5, snapshot.ConsistencyScore)
	assert.Len(t, snapshot.TopPerformers, 2)
	assert.Equal(t, 3, snapshot.GradeDistribution.A)
	assert.Equal(t, 2, snapshot.GradeDistribution.F)
	require.Len(t, snapshot.SemesterStats, 1)
	assert.Equal(t, "3", snapshot.SemesterStats[0].Semester)
	assert.False(t, snapshot.GeneratedAt.IsZero())
}
