package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"restaurant-ops/internal/models"
	"restaurant-ops/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// eventWriter is satisfied by Producer.
type eventWriter interface {
	PublishEvent(ctx context.Context, key, eventType string, event interface{}) error
}

// EventPublisher handles publishing order events
type EventPublisher struct {
	producer eventWriter
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// orderKey keeps every event of one order on the same partition.
func orderKey(orderID string) string {
	return "order-" + orderID
}

// PublishOrderCreated publishes ORDER_CREATED
func (ep *EventPublisher) PublishOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error {
	return ep.producer.PublishEvent(ctx, orderKey(event.OrderID), event.EventType, event)
}

// PublishOrderStatusChanged publishes ORDER_STATUS_CHANGED
func (ep *EventPublisher) PublishOrderStatusChanged(ctx context.Context, event *models.OrderStatusChangedEvent) error {
	return ep.producer.PublishEvent(ctx, orderKey(event.OrderID), event.EventType, event)
}

// EventHandler handles incoming events
type EventHandler struct {
	onOrderCreated       func(context.Context, *models.OrderCreatedEvent) error
	onOrderStatusChanged func(context.Context, *models.OrderStatusChangedEvent) error
	logger               *zap.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{logger: util.GetLogger()}
}

// OnOrderCreated registers a handler for ORDER_CREATED events
func (eh *EventHandler) OnOrderCreated(handler func(context.Context, *models.OrderCreatedEvent) error) {
	eh.onOrderCreated = handler
}

// OnOrderStatusChanged registers a handler for ORDER_STATUS_CHANGED events
func (eh *EventHandler) OnOrderStatusChanged(handler func(context.Context, *models.OrderStatusChangedEvent) error) {
	eh.onOrderStatusChanged = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	eventType, err := eventTypeOf(msg)
	if err != nil {
		return err
	}

	eh.logger.Debug("Handling event",
		zap.String("event_type", eventType),
		zap.String("key", string(msg.Key)))

	switch eventType {
	case models.EventTypeOrderCreated:
		if eh.onOrderCreated != nil {
			var event models.OrderCreatedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal %s event: %w", eventType, err)
			}
			return eh.onOrderCreated(ctx, &event)
		}

	case models.EventTypeOrderStatusChanged:
		if eh.onOrderStatusChanged != nil {
			var event models.OrderStatusChangedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal %s event: %w", eventType, err)
			}
			return eh.onOrderStatusChanged(ctx, &event)
		}

	default:
		eh.logger.Warn("Unhandled event type", zap.String("event_type", eventType))
	}

	return nil
}

// eventTypeOf reads the type header, falling back to the payload for untagged messages.
func eventTypeOf(msg kafka.Message) (string, error) {
	for _, h := range msg.Headers {
		if h.Key == EventTypeHeader {
			return string(h.Value), nil
		}
	}
	var base models.BaseEvent
	if err := json.Unmarshal(msg.Value, &base); err != nil {
		return "", fmt.Errorf("failed to unmarshal base event: %w", err)
	}
	return base.EventType, nil
}
