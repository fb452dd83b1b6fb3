package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types
const (
	EventTypeOrderCreated       = "ORDER_CREATED"
	EventTypeOrderStatusChanged = "ORDER_STATUS_CHANGED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

func newBaseEvent(eventType string, at time.Time) BaseEvent {
	return BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: at,
	}
}

// OrderCreatedEvent published when an order enters the kitchen queue
type OrderCreatedEvent struct {
	BaseEvent
	OrderID         string          `json:"order_id"`
	CustomerID      string          `json:"customer_id"`
	Total           decimal.Decimal `json:"total"`
	FulfillmentType FulfillmentType `json:"fulfillment_type"`
	ItemCount       int             `json:"item_count"`
}

// OrderStatusChangedEvent published after every accepted transition
type OrderStatusChangedEvent struct {
	BaseEvent
	OrderID         string          `json:"order_id"`
	From            OrderStatus     `json:"from"`
	To              OrderStatus     `json:"to"`
	Revision        int64           `json:"revision"`
	FulfillmentType FulfillmentType `json:"fulfillment_type"`
	TableNumber     string          `json:"table_number,omitempty"`
	CarNumber       string          `json:"car_number,omitempty"`
	CustomerName    string          `json:"customer_name"`
	CreatedAt       time.Time       `json:"created_at"`
	ReadyAt         *time.Time      `json:"ready_at,omitempty"`
}

// NewOrderCreatedEvent builds the event for a freshly created order.
func NewOrderCreatedEvent(o *Order) *OrderCreatedEvent {
	return &OrderCreatedEvent{
		BaseEvent:       newBaseEvent(EventTypeOrderCreated, o.CreatedAt),
		OrderID:         o.ID,
		CustomerID:      o.Customer.ID,
		Total:           o.Total,
		FulfillmentType: o.FulfillmentType,
		ItemCount:       len(o.Items),
	}
}

// NewOrderStatusChangedEvent builds the event for a transition that left the order in o.Status.
func NewOrderStatusChangedEvent(o *Order, from OrderStatus, at time.Time) *OrderStatusChangedEvent {
	return &OrderStatusChangedEvent{
		BaseEvent:       newBaseEvent(EventTypeOrderStatusChanged, at),
		OrderID:         o.ID,
		From:            from,
		To:              o.Status,
		Revision:        o.Revision,
		FulfillmentType: o.FulfillmentType,
		TableNumber:     o.TableNumber,
		CarNumber:       o.CarNumber,
		CustomerName:    o.Customer.FullName,
		CreatedAt:       o.CreatedAt,
		ReadyAt:         o.ReadyAt,
	}
}
