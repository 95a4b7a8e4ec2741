package events

import (
	"time"

	"github.com/SAP-F-2025/marksheet-service/internal/models"
	"github.com/google/uuid"
)

// EventType represents different types of notification events
type EventType string

const (
	// Form events
	EventFormNotice EventType = "form.notice"

	// Marksheet events
	EventMarksheetCreated EventType = "marksheet.created"
	EventBulkCreated      EventType = "marksheet.bulk_created"
	EventDataCleared      EventType = "marksheet.data_cleared"

	// Import events
	EventImportCompleted EventType = "import.completed"

	// System events
	EventBulkNotification EventType = "system.bulk_notification"
)

const (
	eventSource  = "marksheet-service"
	eventVersion = "1.0"
)

// NotificationEvent is the base event structure for all notification events
type NotificationEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// FormNoticeEvent carries one user-facing notice of a form session.
type FormNoticeEvent struct {
	SessionID string `json:"session_id,omitempty"`
	Level     string `json:"level"`
	Message   string `json:"message"`
}

type MarksheetCreatedEvent struct {
	MarksheetID  uint      `json:"marksheet_id"`
	StudentName  string    `json:"student_name"`
	RollNo       string    `json:"roll_no"`
	Branch       string    `json:"branch"`
	Semester     string    `json:"semester"`
	Percentage   float64   `json:"percentage"`
	Grade        string    `json:"grade"`
	SubjectCount int       `json:"subject_count"`
	CreatedAt    time.Time `json:"created_at"`
}

type BulkCreatedEvent struct {
	CreatedCount   int      `json:"created_count"`
	DuplicateRolls []string `json:"duplicate_rolls,omitempty"`
}

type DataClearedEvent struct {
	DeletedCount int64     `json:"deleted_count"`
	ClearedAt    time.Time `json:"cleared_at"`
}

type ImportCompletedEvent struct {
	JobID        string `json:"job_id"`
	FileName     string `json:"file_name"`
	TotalRows    int    `json:"total_rows"`
	SuccessCount int    `json:"success_count"`
	SkippedCount int    `json:"skipped_count"`
	Status       string `json:"status"`
}

// System notification event payload

type BulkNotificationEvent struct {
	Type     models.NotificationType     `json:"type"`
	Title    string                      `json:"title"`
	Message  string                      `json:"message"`
	Priority models.NotificationPriority `json:"priority"`
	Metadata map[string]interface{}      `json:"metadata,omitempty"`
}

// Event factory functions

func newEvent(eventType EventType, data interface{}) *NotificationEvent {
	return &NotificationEvent{
		ID:        GenerateEventID(),
		Type:      eventType,
		Timestamp: time.Now(),
		Source:    eventSource,
		Version:   eventVersion,
		Data:      data,
	}
}

func NewFormNoticeEvent(sessionID, level, message string) *NotificationEvent {
	return newEvent(EventFormNotice, FormNoticeEvent{
		SessionID: sessionID,
		Level:     level,
		Message:   message,
	})
}

func NewMarksheetCreatedEvent(m *models.Marksheet) *NotificationEvent {
	return newEvent(EventMarksheetCreated, MarksheetCreatedEvent{
		MarksheetID:  m.ID,
		StudentName:  m.Name,
		RollNo:       m.RollNo,
		Branch:       m.Branch,
		Semester:     m.Semester,
		Percentage:   m.Percentage,
		Grade:        m.Grade,
		SubjectCount: len(m.Subjects),
		CreatedAt:    m.CreatedAt,
	})
}

func NewBulkCreatedEvent(created int, duplicates []string) *NotificationEvent {
	return newEvent(EventBulkCreated, BulkCreatedEvent{
		CreatedCount:   created,
		DuplicateRolls: duplicates,
	})
}

func NewDataClearedEvent(deleted int64) *NotificationEvent {
	return newEvent(EventDataCleared, DataClearedEvent{
		DeletedCount: deleted,
		ClearedAt:    time.Now(),
	})
}

func NewImportCompletedEvent(job *models.ImportJob) *NotificationEvent {
	return newEvent(EventImportCompleted, ImportCompletedEvent{
		JobID:        job.ID,
		FileName:     job.FileName,
		TotalRows:    job.TotalRows,
		SuccessCount: job.SuccessCount,
		SkippedCount: job.SkippedCount,
		Status:       string(job.Status),
	})
}

func NewBulkNotificationEvent(notificationType models.NotificationType, title, message string, priority models.NotificationPriority, metadata map[string]interface{}) *NotificationEvent {
	return newEvent(EventBulkNotification, BulkNotificationEvent{
		Type:     notificationType,
		Title:    title,
		Message:  message,
		Priority: priority,
		Metadata: metadata,
	})
}

// GenerateEventID returns a new random event id
func GenerateEventID() string {
	return uuid.NewString()
}
