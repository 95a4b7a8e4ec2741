package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/marksheet-service/internal/events"
	"github.com/SAP-F-2025/marksheet-service/internal/marksheet"
	"github.com/SAP-F-2025/marksheet-service/internal/models"
	"github.com/SAP-F-2025/marksheet-service/internal/repositories"
	"github.com/SAP-F-2025/marksheet-service/internal/validator"
)

// NotificationEventService publishes user notices and domain events through
// the event publisher.
type NotificationEventService interface {
	// Form notices
	SessionNotifier(sessionID string) marksheet.Notifier

	// Marksheet notifications
	NotifyMarksheetCreated(ctx context.Context, m *models.Marksheet) error
	NotifyBulkCreated(ctx context.Context, result *repositories.BulkCreateResult) error
	NotifyDataCleared(ctx context.Context, deleted int64) error
	NotifyImportCompleted(ctx context.Context, job *models.ImportJob) error

	// System notifications
	SendBulkNotification(ctx context.Context, notification *NotificationRequest) error
}

type NotificationRequest struct {
	Type        models.NotificationType     `json:"type" validate:"required"`
	Title       string                      `json:"title" validate:"required,not_blank,max=200"`
	Message     string                      `json:"message" validate:"required,not_blank"`
	Priority    models.NotificationPriority `json:"priority" validate:"min=1,max=4"`
	Metadata    map[string]interface{}      `json:"metadata,omitempty"`
	ScheduledAt *time.Time                  `json:"scheduled_at,omitempty"`
}

type notificationEventService struct {
	eventPublisher events.EventPublisher
	logger         *slog.Logger
	validator      *validator.Validator
}

func NewNotificationEventService(
	eventPublisher events.EventPublisher,
	logger *slog.Logger,
	validator *validator.Validator,
) NotificationEventService {
	return &notificationEventService{
		eventPublisher: eventPublisher,
		logger:         logger,
		validator:      validator,
	}
}

// ===== FORM NOTICES =====

// sessionNotifier forwards the notices of one form session as events.
// Publishing failures are logged; a notice never fails the form event.
type sessionNotifier struct {
	sessionID string
	service   *notificationEventService
}

func (s *notificationEventService) SessionNotifier(sessionID string) marksheet.Notifier {
	return &sessionNotifier{sessionID: sessionID, service: s}
}

func (n *sessionNotifier) Notify(ctx context.Context, level marksheet.NoticeLevel, message string) {
	event := events.NewFormNoticeEvent(n.sessionID, string(level), message)
	if err := n.service.eventPublisher.PublishNotificationEvent(ctx, event); err != nil {
		n.service.logger.Warn("Failed to publish form notice",
			"session_id", n.sessionID,
			"level", level,
			"error", err)
	}
}

// ===== MARKSHEET NOTIFICATIONS =====

func (s *notificationEventService) NotifyMarksheetCreated(ctx context.Context, m *models.Marksheet) error {
	s.logger.Info("Publishing marksheet created event", "marksheet_id", m.ID, "roll_no", m.RollNo)
	return s.eventPublisher.PublishNotificationEvent(ctx, events.NewMarksheetCreatedEvent(m))
}

func (s *notificationEventService) NotifyBulkCreated(ctx context.Context, result *repositories.BulkCreateResult) error {
	s.logger.Info("Publishing bulk created event",
		"created_count", result.Created,
		"duplicate_count", len(result.Duplicates))
	return s.eventPublisher.PublishNotificationEvent(ctx, events.NewBulkCreatedEvent(result.Created, result.Duplicates))
}

func (s *notificationEventService) NotifyDataCleared(ctx context.Context, deleted int64) error {
	s.logger.Info("Publishing data cleared event", "deleted_count", deleted)
	return s.eventPublisher.PublishNotificationEvent(ctx, events.NewDataClearedEvent(deleted))
}

func (s *notificationEventService) NotifyImportCompleted(ctx context.Context, job *models.ImportJob) error {
	s.logger.Info("Publishing import completed event",
		"job_id", job.ID,
		"status", job.Status,
		"success_count", job.SuccessCount)
	return s.eventPublisher.PublishNotificationEvent(ctx, events.NewImportCompletedEvent(job))
}

// ===== SYSTEM NOTIFICATIONS =====

func (s *notificationEventService) SendBulkNotification(ctx context.Context, notification *NotificationRequest) error {
	if err := s.validator.Validate(notification); err != nil {
		return fmt.Errorf("invalid notification request: %w", err)
	}

	metadata := notification.Metadata
	if notification.ScheduledAt != nil {
		if metadata == nil {
			metadata = map[string]interface{}{}
		}
		metadata["scheduled_at"] = notification.ScheduledAt.Format(time.RFC3339)
	}

	s.logger.Info("Publishing bulk notification event",
		"type", notification.Type,
		"priority", notification.Priority)

	event := events.NewBulkNotificationEvent(
		notification.Type,
		notification.Title,
		notification.Message,
		notification.Priority,
		metadata,
	)
	return s.eventPublisher.PublishNotificationEvent(ctx, event)
}
