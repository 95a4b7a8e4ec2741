package models

type NotificationType string
type NotificationPriority int

const (
	// Notification types
	NotificationFormNotice        NotificationType = "form_notice"
	NotificationMarksheetCreated  NotificationType = "marksheet_created"
	NotificationImportCompleted   NotificationType = "import_completed"
	NotificationDataCleared       NotificationType = "data_cleared"
	NotificationSystemMaintenance NotificationType = "system_maintenance"

	// Priority levels
	PriorityLow      NotificationPriority = 1
	PriorityNormal   NotificationPriority = 2
	PriorityHigh     NotificationPriority = 3
	PriorityCritical NotificationPriority = 4
)
