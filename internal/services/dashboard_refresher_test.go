package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/SAP-F-2025/marksheet-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDashboardAnalytics answers BuildDashboard from a queue of builders.
type fakeDashboardAnalytics struct {
	AnalyticsService

	mu       sync.Mutex
	builders []func() (*models.DashboardSnapshot, error)
	calls    atomic.Int32
}

func (f *fakeDashboardAnalytics) BuildDashboard(ctx context.Context) (*models.DashboardSnapshot, error) {
	f.calls.Add(1)
	f.mu.Lock()
	if len(f.builders) == 0 {
		f.mu.Unlock()
		return &models.DashboardSnapshot{}, nil
	}
	build := f.builders[0]
	f.builders = f.builders[1:]
	f.mu.Unlock()
	return build()
}

func TestDashboardRefresher_SnapshotBuildsOnFirstUse(t *testing.T) {
	analytics := &fakeDashboardAnalytics{builders: []func() (*models.DashboardSnapshot, error){
		func() (*models.DashboardSnapshot, error) { return &models.DashboardSnapshot{TotalStudents: 7}, nil },
	}}
	r := NewDashboardRefresher(analytics, time.Hour, discardLogger())

	assert.Nil(t, r.Latest())

	snapshot, err := r.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, snapshot.TotalStudents)

	again, err := r.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Same(t, snapshot, again)
	assert.Equal(t, int32(1), analytics.calls.Load())
}

func TestDashboardRefresher_LastFinishedRefreshWins(t *testing.T) {
	release := make(chan struct{})
	analytics := &fakeDashboardAnalytics{builders: []func() (*models.DashboardSnapshot, error){
		func() (*models.DashboardSnapshot, error) {
			<-release
			return &models.DashboardSnapshot{TotalStudents: 1}, nil
		},
		func() (*models.DashboardSnapshot, error) { return &models.DashboardSnapshot{TotalStudents: 2}, nil },
	}}
	r := NewDashboardRefresher(analytics, time.Hour, discardLogger())
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := r.Refresh(ctx)
		assert.NoError(t, err)
	}()
	require.Eventually(t, func() bool { return analytics.calls.Load() == 1 }, time.Second, time.Millisecond)

	_, err := r.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, r.Latest().TotalStudents)

	close(release)
	wg.Wait()
	assert.Equal(t, 1, r.Latest().TotalStudents)
}

func TestDashboardRefresher_FailedRefreshKeepsPrevious(t *testing.T) {
	analytics := &fakeDashboardAnalytics{builders: []func() (*models.DashboardSnapshot, error){
		func() (*models.DashboardSnapshot, error) { return &models.DashboardSnapshot{TotalStudents: 3}, nil },
		func() (*models.DashboardSnapshot, error) { return nil, errors.New("db down") },
	}}
	r := NewDashboardRefresher(analytics, time.Hour, discardLogger())

	_, err := r.Refresh(context.Background())
	require.NoError(t, err)
	_, err = r.Refresh(context.Background())
	require.Error(t, err)
	assert.Equal(t, 3, r.Latest().TotalStudents)
}

func TestDashboardRefresher_RunTicksUntilCancelled(t *testing.T) {
	analytics := &fakeDashboardAnalytics{}
	r := NewDashboardRefresher(analytics, 5*time.Millisecond, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return analytics.calls.Load() >= 3 }, time.Second, time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.NotNil(t, r.Latest())
}

func TestDashboardRefresher_RecoversFromPanics(t *testing.T) {
	analytics := &fakeDashboardAnalytics{builders: []func() (*models.DashboardSnapshot, error){
		func() (*models.DashboardSnapshot, error) { panic("boom") },
	}}
	r := NewDashboardRefresher(analytics, time.Hour, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return analytics.calls.Load() == 1 }, time.Second, time.Millisecond)
	cancel()
	<-done
	assert.Nil(t, r.Latest())
}

func TestDashboardRefresher_RunWaitsForInFlightRefresh(t *testing.T) {
	release := make(chan struct{})
	analytics := &fakeDashboardAnalytics{builders: []func() (*models.DashboardSnapshot, error){
		func() (*models.DashboardSnapshot, error) {
			<-release
			return &models.DashboardSnapshot{TotalStudents: 3}, nil
		},
	}}
	r := NewDashboardRefresher(analytics, time.Hour, discardLogger())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()
	require.Eventually(t, func() bool { return analytics.calls.Load() == 1 }, time.Second, time.Millisecond)

	cancel()
	select {
	case <-done:
		t.Fatal("Run returned while a refresh was still running")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after the refresh finished")
	}
	assert.Equal(t, 3, r.Latest().TotalStudents)
}
