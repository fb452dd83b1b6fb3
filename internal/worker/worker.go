package worker

import (
	"context"
	"fmt"

	"restaurant-ops/internal/broker"
	"restaurant-ops/internal/models"
	"restaurant-ops/internal/util"

	"go.uber.org/zap"
)

// ReadyNotifier turns transitions into ready into pickup notifications
type ReadyNotifier struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	logger       *zap.Logger
	// announce delivers the message; it logs by default.
	announce func(msg string, fields ...zap.Field)
}

// NewReadyNotifier creates a new ready notifier
func NewReadyNotifier(consumer *broker.Consumer) *ReadyNotifier {
	n := &ReadyNotifier{
		consumer:     consumer,
		eventHandler: broker.NewEventHandler(),
		logger:       util.GetLogger(),
	}
	n.announce = n.logger.Info
	n.eventHandler.OnOrderStatusChanged(n.HandleStatusChanged)
	return n
}

// Start starts the worker
func (n *ReadyNotifier) Start(ctx context.Context) error {
	n.logger.Info("Starting ready notifier")
	return n.consumer.StartConsuming(ctx, n.eventHandler.HandleMessage)
}

// Stop stops the worker
func (n *ReadyNotifier) Stop() error {
	n.logger.Info("Stopping ready notifier")
	return n.consumer.Close()
}

// HandleStatusChanged announces orders that just became ready. Other transitions are ignored.
func (n *ReadyNotifier) HandleStatusChanged(_ context.Context, event *models.OrderStatusChangedEvent) error {
	if event.To != models.StatusReady {
		return nil
	}

	fields := []zap.Field{
		zap.String("order_id", event.OrderID),
		zap.String("fulfillment_type", string(event.FulfillmentType)),
		zap.String("customer", event.CustomerName),
	}
	if event.ReadyAt != nil {
		fields = append(fields, zap.Duration("prep_duration", event.ReadyAt.Sub(event.CreatedAt)))
	}
	n.announce(ReadyMessage(event), fields...)

	util.OrderReadyNotificationsTotal.WithLabelValues(string(event.FulfillmentType)).Inc()
	return nil
}

// ReadyMessage is the text shown to staff when an order is ready.
func ReadyMessage(event *models.OrderStatusChangedEvent) string {
	switch event.FulfillmentType {
	case models.FulfillmentDineIn:
		return fmt.Sprintf("Order for table %s is ready to serve", event.TableNumber)
	case models.FulfillmentPickup:
		return fmt.Sprintf("Order for car %s is ready for pickup", event.CarNumber)
	}
	return fmt.Sprintf("Order %s is ready for the courier", shortID(event.OrderID))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
