package events

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/SAP-F-2025/marksheet-service/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func TestMockEventPublisher(t *testing.T) {
	publisher := NewMockEventPublisher(testLogger())
	ctx := context.Background()

	require.NoError(t, publisher.PublishNotificationEvent(ctx, NewFormNoticeEvent("s-1", "success", "Subject added successfully!")))
	require.NoError(t, publisher.PublishNotificationEvent(ctx, NewDataClearedEvent(3)))

	published := publisher.GetPublishedEvents()
	require.Len(t, published, 2)
	assert.Equal(t, EventFormNotice, published[0].Type)
	assert.Equal(t, EventDataCleared, published[1].Type)

	publisher.ClearEvents()
	assert.Empty(t, publisher.GetPublishedEvents())
}

func TestEventFactories(t *testing.T) {
	marksheet := &models.Marksheet{
		ID:         7,
		Name:       "Asha Rao",
		RollNo:     "CS-042",
		Percentage: 82.5,
		Grade:      "A",
		Subjects:   []models.Subject{{Name: "Math"}, {Name: "Physics"}},
	}

	event := NewMarksheetCreatedEvent(marksheet)

	assert.Equal(t, EventMarksheetCreated, event.Type)
	assert.Equal(t, "marksheet-service", event.Source)
	assert.Equal(t, "1.0", event.Version)
	_, err := uuid.Parse(event.ID)
	assert.NoError(t, err)
	assert.WithinDuration(t, time.Now(), event.Timestamp, time.Second)

	data, ok := event.Data.(MarksheetCreatedEvent)
	require.True(t, ok)
	assert.Equal(t, uint(7), data.MarksheetID)
	assert.Equal(t, 2, data.SubjectCount)

	assert.NotEqual(t, GenerateEventID(), GenerateEventID())
}

func TestChannelEventPublisher_RoundTrip(t *testing.T) {
	publisher := NewChannelEventPublisher(PublisherConfig{TopicName: "notifications", Logger: testLogger()})
	defer publisher.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	messages, err := publisher.Subscribe(ctx)
	require.NoError(t, err)

	sent := NewFormNoticeEvent("s-9", "error", "Marks cannot exceed 50!")
	require.NoError(t, publisher.PublishNotificationEvent(ctx, sent))

	select {
	case msg := <-messages:
		msg.Ack()
		assert.Equal(t, string(EventFormNotice), msg.Metadata.Get("event_type"))
		received, err := DecodeNotificationEvent(msg)
		require.NoError(t, err)
		assert.Equal(t, sent.ID, received.ID)
		assert.Equal(t, EventFormNotice, received.Type)
	case <-ctx.Done():
		t.Fatal("no message received")
	}
}
