package service

import (
	"context"
	"errors"
	"time"

	"restaurant-ops/internal/dashboard"
	"restaurant-ops/internal/models"
	"restaurant-ops/internal/store"
	"restaurant-ops/internal/util"
	"restaurant-ops/internal/views"

	"go.uber.org/zap"
)

const (
	defaultIdempotencyTTL = 24 * time.Hour
	defaultLockTTL        = 10 * time.Second

	// idempotencyWriteTimeout bounds the key writes that run after the order is stored.
	idempotencyWriteTimeout = 5 * time.Second
)

// EventPublisher publishes order events. Implemented by broker.EventPublisher.
type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error
	PublishOrderStatusChanged(ctx context.Context, event *models.OrderStatusChangedEvent) error
}

// IdempotencyStore remembers which order a client key created. Implemented by redisclient.Client.
type IdempotencyStore interface {
	ReserveIdempotencyKey(ctx context.Context, key string, ttl time.Duration) (orderID string, reserved bool, err error)
	CompleteIdempotencyKey(ctx context.Context, key, orderID string, ttl time.Duration) error
	ReleaseIdempotencyKey(ctx context.Context, key string) error
}

// Locker serializes writes to one order across replicas. Implemented by redisclient.Client.
type Locker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (token string, acquired bool, err error)
	ReleaseLock(ctx context.Context, key, token string) error
}

// Options holds the optional collaborators of an OrderService. Nil fields are disabled.
type Options struct {
	Publisher      EventPublisher
	Idempotency    IdempotencyStore
	Locker         Locker
	Location       *time.Location
	IdempotencyTTL time.Duration
	LockTTL        time.Duration
	Clock          func() time.Time
}

// OrderService is the order lifecycle engine: it validates input, drives the status
// machine through the store and fans out events and metrics after each write.
type OrderService struct {
	store          store.DataSource
	publisher      EventPublisher
	idempotency    IdempotencyStore
	locker         Locker
	location       *time.Location
	idempotencyTTL time.Duration
	lockTTL        time.Duration
	now            func() time.Time
	logger         *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(ds store.DataSource, opts Options) *OrderService {
	s := &OrderService{
		store:          ds,
		publisher:      opts.Publisher,
		idempotency:    opts.Idempotency,
		locker:         opts.Locker,
		location:       opts.Location,
		idempotencyTTL: opts.IdempotencyTTL,
		lockTTL:        opts.LockTTL,
		now:            opts.Clock,
		logger:         util.GetLogger(),
	}
	if s.location == nil {
		s.location = time.UTC
	}
	if s.idempotencyTTL <= 0 {
		s.idempotencyTTL = defaultIdempotencyTTL
	}
	if s.lockTTL <= 0 {
		s.lockTTL = defaultLockTTL
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// CreateOrder validates req and persists a new order in status new.
// With an idempotency key, a repeated request returns the order created first.
func (s *OrderService) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CreateOrder")
	defer span.End()

	catalog, err := s.catalogFor(ctx, req)
	if err != nil {
		util.RecordError(span, err)
		util.OrdersRejectedTotal.WithLabelValues(rejectReason(err)).Inc()
		return nil, err
	}

	in, err := req.toNewOrder(catalog, s.now())
	if err != nil {
		util.OrdersRejectedTotal.WithLabelValues(rejectReason(err)).Inc()
		return nil, err
	}

	key := req.IdempotencyKey
	if key != "" && s.idempotency != nil {
		existingID, reserved, err := s.idempotency.ReserveIdempotencyKey(ctx, key, s.idempotencyTTL)
		if err != nil {
			err = models.NewStoreError("reserve idempotency key", err)
			util.RecordError(span, err)
			util.OrdersRejectedTotal.WithLabelValues(rejectReason(err)).Inc()
			return nil, err
		}
		if !reserved {
			return s.replay(ctx, key, existingID)
		}
	} else {
		key = ""
	}

	order, err := s.store.CreateOrder(ctx, in)
	if err != nil {
		if key != "" {
			relCtx, cancel := detachedContext()
			relErr := s.idempotency.ReleaseIdempotencyKey(relCtx, key)
			cancel()
			if relErr != nil {
				s.logger.Warn("Failed to release idempotency key",
					zap.String("idempotency_key", key), zap.Error(relErr))
			}
		}
		util.RecordError(span, err)
		util.OrdersRejectedTotal.WithLabelValues(rejectReason(err)).Inc()
		return nil, err
	}

	if key != "" {
		doneCtx, cancel := detachedContext()
		err := s.idempotency.CompleteIdempotencyKey(doneCtx, key, order.ID, s.idempotencyTTL)
		cancel()
		if err != nil {
			s.logger.Warn("Failed to complete idempotency key",
				zap.String("idempotency_key", key),
				zap.String("order_id", order.ID),
				zap.Error(err))
		}
	}

	util.OrdersCreatedTotal.WithLabelValues(string(order.FulfillmentType)).Inc()
	s.logger.Info("Order created",
		zap.String("order_id", order.ID),
		zap.String("customer_id", order.Customer.ID),
		zap.String("fulfillment_type", string(order.FulfillmentType)),
		zap.String("total", order.Total.String()))

	if s.publisher != nil {
		if err := s.publisher.PublishOrderCreated(ctx, models.NewOrderCreatedEvent(order)); err != nil {
			util.EventsPublishFailedTotal.WithLabelValues(models.EventTypeOrderCreated).Inc()
			s.logger.Error("Failed to publish OrderCreated event", zap.String("order_id", order.ID), zap.Error(err))
		}
	}

	return order, nil
}

// detachedContext outlives a cancelled request so a stored order never leaves its
// idempotency key pending until the TTL expires.
func detachedContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), idempotencyWriteTimeout)
}

func (s *OrderService) replay(ctx context.Context, key, orderID string) (*models.Order, error) {
	if orderID == "" {
		return nil, models.ConflictError("request with idempotency key %q is still in progress", key)
	}

	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	util.OrderIdempotentReplaysTotal.Inc()
	s.logger.Info("Duplicate order request detected",
		zap.String("idempotency_key", key),
		zap.String("order_id", order.ID))
	return order, nil
}

// catalogFor loads the menu only when the request references it.
func (s *OrderService) catalogFor(ctx context.Context, req *CreateOrderRequest) (map[string]models.MenuItem, error) {
	if !req.referencesCatalog() {
		return nil, nil
	}
	items, err := s.store.ListMenuItems(ctx)
	if err != nil {
		return nil, err
	}
	catalog := make(map[string]models.MenuItem, len(items))
	for _, item := range items {
		catalog[item.ID] = item
	}
	return catalog, nil
}

// AdvanceStatus moves an order to the next status of its lifecycle.
// A non-zero expectedRevision must match the stored revision.
func (s *OrderService) AdvanceStatus(ctx context.Context, orderID string, expectedRevision int64) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.AdvanceStatus")
	defer span.End()

	order, err := s.withOrderLock(ctx, orderID, func(current *models.Order) (*models.Order, error) {
		next, ok := current.Status.Next()
		if !ok {
			return nil, &models.TransitionError{From: current.Status}
		}
		return s.applyStatus(ctx, current, next, expectedRevision)
	})
	util.RecordError(span, err)
	return order, err
}

// UpdateOrderStatus moves an order to target, which must be the next status.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID string, target models.OrderStatus, expectedRevision int64) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.UpdateOrderStatus")
	defer span.End()

	order, err := s.withOrderLock(ctx, orderID, func(current *models.Order) (*models.Order, error) {
		return s.applyStatus(ctx, current, target, expectedRevision)
	})
	util.RecordError(span, err)
	return order, err
}

// withOrderLock loads the order under the per-order lock and runs fn on it.
func (s *OrderService) withOrderLock(ctx context.Context, orderID string, fn func(*models.Order) (*models.Order, error)) (*models.Order, error) {
	if s.locker != nil {
		lockKey := "order:" + orderID
		token, acquired, err := s.locker.AcquireLock(ctx, lockKey, s.lockTTL)
		if err != nil {
			util.OrderTransitionsRejectedTotal.WithLabelValues("store").Inc()
			return nil, models.NewStoreError("acquire order lock", err)
		}
		if !acquired {
			util.OrderTransitionsRejectedTotal.WithLabelValues("conflict").Inc()
			return nil, models.ConflictError("order %s is being updated", orderID)
		}
		defer func() {
			if err := s.locker.ReleaseLock(context.Background(), lockKey, token); err != nil {
				s.logger.Warn("Failed to release order lock", zap.String("order_id", orderID), zap.Error(err))
			}
		}()
	}

	current, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		util.OrderTransitionsRejectedTotal.WithLabelValues(rejectReason(err)).Inc()
		return nil, err
	}
	order, err := fn(current)
	if err != nil {
		util.OrderTransitionsRejectedTotal.WithLabelValues(rejectReason(err)).Inc()
		s.logger.Info("Status change rejected",
			zap.String("order_id", orderID),
			zap.String("status", string(current.Status)),
			zap.Error(err))
		return nil, err
	}
	return order, nil
}

func (s *OrderService) applyStatus(ctx context.Context, current *models.Order, target models.OrderStatus, expectedRevision int64) (*models.Order, error) {
	from := current.Status
	if !models.CanTransition(from, target) {
		if _, ok := from.Next(); !ok {
			return nil, &models.TransitionError{From: from}
		}
		return nil, &models.TransitionError{From: from, To: target}
	}

	at := s.now()
	order, err := s.store.UpdateOrderStatus(ctx, models.StatusUpdate{
		OrderID:          current.ID,
		Status:           target,
		ExpectedRevision: expectedRevision,
		At:               at,
	})
	if err != nil {
		return nil, err
	}

	util.OrderStatusTransitionsTotal.WithLabelValues(string(from), string(order.Status)).Inc()
	if order.Status == models.StatusReady && order.ReadyAt != nil {
		util.OrderReadyLatency.WithLabelValues(string(order.FulfillmentType)).
			Observe(order.ReadyAt.Sub(order.CreatedAt).Seconds())
	}
	s.logger.Info("Order status changed",
		zap.String("order_id", order.ID),
		zap.String("from", string(from)),
		zap.String("to", string(order.Status)),
		zap.Int64("revision", order.Revision))

	if s.publisher != nil {
		if err := s.publisher.PublishOrderStatusChanged(ctx, models.NewOrderStatusChangedEvent(order, from, at)); err != nil {
			util.EventsPublishFailedTotal.WithLabelValues(models.EventTypeOrderStatusChanged).Inc()
			s.logger.Error("Failed to publish OrderStatusChanged event", zap.String("order_id", order.ID), zap.Error(err))
		}
	}
	return order, nil
}

// ListMenu returns the catalog.
func (s *OrderService) ListMenu(ctx context.Context) ([]models.MenuItem, error) {
	return s.store.ListMenuItems(ctx)
}

// ListOrders returns every order, newest first.
func (s *OrderService) ListOrders(ctx context.Context) ([]models.Order, error) {
	return s.store.ListOrders(ctx)
}

// GetOrder retrieves an order by ID
func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	return s.store.GetOrder(ctx, orderID)
}

// SearchCustomers lists customers matching query by name or phone.
func (s *OrderService) SearchCustomers(ctx context.Context, query string) ([]models.Customer, error) {
	customers, err := s.store.ListCustomers(ctx)
	if err != nil {
		return nil, err
	}
	return views.FilterCustomers(customers, query), nil
}

// Dashboard computes the metrics as of now in the configured timezone.
func (s *OrderService) Dashboard(ctx context.Context) (models.DashboardMetrics, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.Dashboard")
	defer span.End()

	orders, err := s.store.ListOrders(ctx)
	if err != nil {
		util.RecordError(span, err)
		return models.DashboardMetrics{}, err
	}
	return dashboard.Compute(orders, s.now().In(s.location)), nil
}

// RoleView builds the projection a staff role works from.
func (s *OrderService) RoleView(ctx context.Context, role string) (interface{}, error) {
	r, err := views.ParseRole(role)
	if err != nil {
		return nil, err
	}
	orders, err := s.store.ListOrders(ctx)
	if err != nil {
		return nil, err
	}
	return views.For(r, orders, s.now().In(s.location))
}

// rejectReason is the metric label for a failed operation.
func rejectReason(err error) string {
	switch {
	case errors.Is(err, models.ErrValidation):
		return "validation"
	case errors.Is(err, models.ErrNotFound):
		return "not_found"
	case errors.Is(err, models.ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, models.ErrConflict):
		return "conflict"
	case errors.Is(err, models.ErrStore):
		return "store"
	}
	return "internal"
}
