package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"discovery-service/internal/models"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// EventPublisher handles publishing domain events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishSearchPerformed publishes a SearchPerformed event. Events for one
// user are keyed together so their history stays ordered.
func (ep *EventPublisher) PublishSearchPerformed(ctx context.Context, userID *int64, term string) error {
	event := &models.SearchPerformedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeSearchPerformed,
			Timestamp: time.Now(),
		},
		UserID:     userID,
		SearchItem: term,
	}

	key := "anonymous"
	if userID != nil {
		key = fmt.Sprintf("user-%d", *userID)
	}
	return ep.producer.PublishEvent(ctx, key, event)
}

// EventHandler routes incoming events to registered handlers
type EventHandler struct {
	onSearchPerformed func(context.Context, *models.SearchPerformedEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnSearchPerformed registers a handler for SearchPerformed events
func (eh *EventHandler) OnSearchPerformed(handler func(context.Context, *models.SearchPerformedEvent) error) {
	eh.onSearchPerformed = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	switch baseEvent.EventType {
	case models.EventTypeSearchPerformed:
		if eh.onSearchPerformed != nil {
			var event models.SearchPerformedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal SearchPerformed event: %w", err)
			}
			return eh.onSearchPerformed(ctx, &event)
		}
	}

	return nil
}
