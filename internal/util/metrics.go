package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Total number of orders created",
	}, []string{"fulfillment_type"})

	OrdersRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_rejected_total",
		Help: "Total number of order creations that failed",
	}, []string{"reason"})

	OrderIdempotentReplaysTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "order_idempotent_replays_total",
		Help: "Total number of create requests answered from an earlier idempotency key",
	})

	OrderStatusTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_status_transitions_total",
		Help: "Total number of applied status transitions",
	}, []string{"from", "to"})

	OrderTransitionsRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_transition_rejected_total",
		Help: "Total number of rejected status transitions",
	}, []string{"reason"})

	OrderReadyLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "order_ready_latency_seconds",
		Help:    "Time from order creation to ready",
		Buckets: []float64{60, 180, 300, 600, 900, 1200, 1800, 2700, 3600},
	}, []string{"fulfillment_type"})

	OrderReadyNotificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_ready_notifications_total",
		Help: "Total number of ready notifications emitted by the worker",
	}, []string{"fulfillment_type"})

	EventsPublishFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_events_publish_failed_total",
		Help: "Total number of order events that could not be published",
	}, []string{"event_type"})

	CustomerUpsertRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "customer_upsert_retries_total",
		Help: "Total number of customer upserts retried after a concurrent first order",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
