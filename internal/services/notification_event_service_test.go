package services

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/SAP-F-2025/marksheet-service/internal/events"
	"github.com/SAP-F-2025/marksheet-service/internal/marksheet"
	"github.com/SAP-F-2025/marksheet-service/internal/models"
	"github.com/SAP-F-2025/marksheet-service/internal/repositories"
	"github.com/SAP-F-2025/marksheet-service/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestNotificationService() (NotificationEventService, *events.MockEventPublisher) {
	logger := discardLogger()
	publisher := events.NewMockEventPublisher(logger)
	return NewNotificationEventService(publisher, logger, validator.New()), publisher
}

func TestNotificationEventService_SessionNotifier(t *testing.T) {
	service, publisher := newTestNotificationService()

	notifier := service.SessionNotifier("session-1")
	notifier.Notify(context.Background(), marksheet.NoticeSuccess, "Subject added successfully!")

	published := publisher.GetPublishedEvents()
	require.Len(t, published, 1)
	assert.Equal(t, events.EventFormNotice, published[0].Type)

	data, ok := published[0].Data.(events.FormNoticeEvent)
	require.True(t, ok)
	assert.Equal(t, "session-1", data.SessionID)
	assert.Equal(t, "success", data.Level)
	assert.Equal(t, "Subject added successfully!", data.Message)
}

func TestNotificationEventService_DomainEvents(t *testing.T) {
	service, publisher := newTestNotificationService()
	ctx := context.Background()

	require.NoError(t, service.NotifyMarksheetCreated(ctx, &models.Marksheet{ID: 7, RollNo: "CS-01", Grade: "A"}))
	require.NoError(t, service.NotifyBulkCreated(ctx, &repositories.BulkCreateResult{Created: 2, Duplicates: []string{"CS-01"}}))
	require.NoError(t, service.NotifyDataCleared(ctx, 12))
	require.NoError(t, service.NotifyImportCompleted(ctx, &models.ImportJob{ID: "job-1", Status: models.ImportCompleted}))

	published := publisher.GetPublishedEvents()
	require.Len(t, published, 4)
	assert.Equal(t, events.EventMarksheetCreated, published[0].Type)
	assert.Equal(t, events.EventBulkCreated, published[1].Type)
	assert.Equal(t, events.EventDataCleared, published[2].Type)
	assert.Equal(t, events.EventImportCompleted, published[3].Type)

	bulk, ok := published[1].Data.(events.BulkCreatedEvent)
	require.True(t, ok)
	assert.Equal(t, 2, bulk.CreatedCount)
	assert.Equal(t, []string{"CS-01"}, bulk.DuplicateRolls)
}

func TestNotificationEventService_SendBulkNotification(t *testing.T) {
	service, publisher := newTestNotificationService()
	ctx := context.Background()

	t.Run("publishes a well formed event", func(t *testing.T) {
		publisher.ClearEvents()
		err := service.SendBulkNotification(ctx, &NotificationRequest{
			Type:     models.NotificationSystemMaintenance,
			Title:    "Maintenance",
			Message:  "Results portal is offline tonight",
			Priority: models.PriorityHigh,
		})
		require.NoError(t, err)

		published := publisher.GetPublishedEvents()
		require.Len(t, published, 1)
		event := published[0]
		assert.NotEmpty(t, event.ID)
		assert.Equal(t, "marksheet-service", event.Source)
		assert.Equal(t, "1.0", event.Version)
		assert.False(t, event.Timestamp.IsZero())
		assert.Equal(t, events.EventBulkNotification, event.Type)
	})

	t.Run("rejects an invalid request", func(t *testing.T) {
		publisher.ClearEvents()
		err := service.SendBulkNotification(ctx, &NotificationRequest{
			Type:     models.NotificationSystemMaintenance,
			Title:    "  ",
			Message:  "x",
			Priority: models.PriorityLow,
		})
		require.Error(t, err)
		assert.True(t, IsValidation(err))
		assert.Empty(t, publisher.GetPublishedEvents())
	})
}

func BenchmarkNotificationEventService_SessionNotifier(b *testing.B) {
	service, _ := newTestNotificationService()
	notifier := service.SessionNotifier("bench")
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		notifier.Notify(ctx, marksheet.NoticeInfo, "Subject removed!")
	}
}
