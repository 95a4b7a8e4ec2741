package services

import (
	"log/slog"
	"time"

	"github.com/SAP-F-2025/marksheet-service/internal/cache"
	"github.com/SAP-F-2025/marksheet-service/internal/events"
	"github.com/SAP-F-2025/marksheet-service/internal/marksheet"
	"github.com/SAP-F-2025/marksheet-service/internal/repositories"
	"github.com/SAP-F-2025/marksheet-service/internal/validator"
)

// ServiceManager wires the services together and hands them to the handlers.
type ServiceManager interface {
	Session() SessionService
	Marksheet() MarksheetService
	ImportExport() ImportExportService
	Analytics() AnalyticsService
	Notifications() NotificationEventService
	Dashboard() *DashboardRefresher
}

type ServiceOptions struct {
	SubmitFallback           time.Duration
	SessionIdleTimeout       time.Duration
	DashboardRefreshInterval time.Duration
	AnalyticsCacheTTL        time.Duration
	MaxUploadSize            int64
	Bounds                   *marksheet.Bounds
}

type serviceManager struct {
	session       SessionService
	marksheet     MarksheetService
	importExport  ImportExportService
	analytics     AnalyticsService
	notifications NotificationEventService
	dashboard     *DashboardRefresher
}

func NewServiceManager(
	repo repositories.Repository,
	cacheService cache.CacheService,
	publisher events.EventPublisher,
	opts ServiceOptions,
	logger *slog.Logger,
	validator *validator.Validator,
) ServiceManager {
	notifications := NewNotificationEventService(publisher, logger, validator)
	marksheets := NewMarksheetService(repo, cacheService, notifications, logger, validator)
	analytics := NewAnalyticsService(repo, cacheService, opts.AnalyticsCacheTTL, logger, validator)

	return &serviceManager{
		session: NewSessionService(marksheets, notifications, SessionConfig{
			Bounds:         opts.Bounds,
			SubmitFallback: opts.SubmitFallback,
			IdleTimeout:    opts.SessionIdleTimeout,
		}, logger, validator),
		marksheet:     marksheets,
		importExport:  NewImportExportService(repo, notifications, logger, opts.MaxUploadSize),
		analytics:     analytics,
		notifications: notifications,
		dashboard:     NewDashboardRefresher(analytics, opts.DashboardRefreshInterval, logger),
	}
}

func (m *serviceManager) Session() SessionService                 { return m.session }
func (m *serviceManager) Marksheet() MarksheetService             { return m.marksheet }
func (m *serviceManager) ImportExport() ImportExportService       { return m.importExport }
func (m *serviceManager) Analytics() AnalyticsService             { return m.analytics }
func (m *serviceManager) Notifications() NotificationEventService { return m.notifications }
func (m *serviceManager) Dashboard() *DashboardRefresher          { return m.dashboard }
