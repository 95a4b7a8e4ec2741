package services

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/SAP-F-2025/marksheet-service/internal/models"
)

// DefaultDashboardRefreshInterval applies when no interval is configured.
const DefaultDashboardRefreshInterval = 30 * time.Second

// DashboardRefresher rebuilds the dashboard snapshot on a fixed interval.
// Each tick starts its own refresh without waiting for the previous one, so
// refreshes may overlap; whichever finishes last is kept.
type DashboardRefresher struct {
	analytics     AnalyticsService
	interval      time.Duration
	logger        *slog.Logger
	serviceLogger *ServiceLogger

	latest atomic.Pointer[models.DashboardSnapshot]
	wg     sync.WaitGroup
}

func NewDashboardRefresher(analytics AnalyticsService, interval time.Duration, logger *slog.Logger) *DashboardRefresher {
	if interval <= 0 {
		interval = DefaultDashboardRefreshInterval
	}
	return &DashboardRefresher{
		analytics:     analytics,
		interval:      interval,
		logger:        logger,
		serviceLogger: NewServiceLogger(logger, LogConfig{Service: "marksheet-service", Component: "dashboard"}),
	}
}

// Run refreshes once immediately and then on every tick until ctx is done.
// It returns after in-flight refreshes have finished.
func (r *DashboardRefresher) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	defer r.wg.Wait()

	r.trigger(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.trigger(ctx)
		}
	}
}

func (r *DashboardRefresher) trigger(ctx context.Context) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				r.serviceLogger.LogRecovery(ctx, "refresh_dashboard", rec, debug.Stack())
			}
		}()
		if _, err := r.Refresh(ctx); err != nil && ctx.Err() == nil {
			r.logger.Warn("Dashboard refresh failed", "error", err)
		}
	}()
}

// Refresh builds a snapshot now and stores it as the latest.
func (r *DashboardRefresher) Refresh(ctx context.Context) (*models.DashboardSnapshot, error) {
	snapshot, err := r.analytics.BuildDashboard(ctx)
	if err != nil {
		return nil, err
	}
	r.latest.Store(snapshot)
	return snapshot, nil
}

// Latest returns the most recently stored snapshot, or nil before the first
// refresh completes.
func (r *DashboardRefresher) Latest() *models.DashboardSnapshot {
	return r.latest.Load()
}

// Snapshot returns the latest snapshot, building one if none exists yet.
func (r *DashboardRefresher) Snapshot(ctx context.Context) (*models.DashboardSnapshot, error) {
	if snapshot := r.Latest(); snapshot != nil {
		return snapshot, nil
	}
	return r.Refresh(ctx)
}
