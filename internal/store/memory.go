package store

import (
	"context"
	"sort"
	"sync"

	"restaurant-ops/internal/models"

	"github.com/google/uuid"
)

// Seed is the initial state of a MemoryStore.
type Seed struct {
	MenuItems []models.MenuItem
	Customers []models.Customer
	Orders    []models.Order
}

// MemoryStore is the volatile, process-lifetime DataSource. Each instance owns its state.
type MemoryStore struct {
	mu        sync.RWMutex
	menuItems []models.MenuItem
	customers []models.Customer
	orders    []models.Order
	closed    bool
}

// NewMemoryStore creates a store holding copies of seed.
func NewMemoryStore(seed Seed) *MemoryStore {
	s := &MemoryStore{
		menuItems: append([]models.MenuItem(nil), seed.MenuItems...),
		customers: append([]models.Customer(nil), seed.Customers...),
		orders:    make([]models.Order, 0, len(seed.Orders)),
	}
	for _, o := range seed.Orders {
		s.orders = append(s.orders, o.Clone())
	}
	sort.SliceStable(s.orders, func(i, j int) bool {
		return s.orders[i].CreatedAt.After(s.orders[j].CreatedAt)
	})
	return s
}

// ListMenuItems returns the catalog ordered by category then name
func (s *MemoryStore) ListMenuItems(ctx context.Context) ([]models.MenuItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx, "list menu items"); err != nil {
		return nil, err
	}

	items := append([]models.MenuItem(nil), s.menuItems...)
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Category != items[j].Category {
			return items[i].Category < items[j].Category
		}
		return items[i].Name < items[j].Name
	})
	return items, nil
}

// ListOrders returns deep copies, newest first
func (s *MemoryStore) ListOrders(ctx context.Context) ([]models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx, "list orders"); err != nil {
		return nil, err
	}

	orders := make([]models.Order, len(s.orders))
	for i, o := range s.orders {
		orders[i] = o.Clone()
	}
	return orders, nil
}

// ListCustomers returns customers, most recent order first
func (s *MemoryStore) ListCustomers(ctx context.Context) ([]models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx, "list customers"); err != nil {
		return nil, err
	}

	customers := append([]models.Customer(nil), s.customers...)
	sort.SliceStable(customers, func(i, j int) bool {
		return customers[i].LastOrderAt.After(customers[j].LastOrderAt)
	})
	return customers, nil
}

// GetOrder retrieves an order by ID
func (s *MemoryStore) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx, "get order"); err != nil {
		return nil, err
	}

	idx := s.orderIndex(id)
	if idx < 0 {
		return nil, models.NotFoundError("order", id)
	}
	order := s.orders[idx].Clone()
	return &order, nil
}

// CreateOrder upserts the customer by phone and prepends the new order
func (s *MemoryStore) CreateOrder(ctx context.Context, in models.NewOrder) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx, "create order"); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	customer := s.upsertCustomer(in)
	order := buildOrder(uuid.New().String(), in, customer)
	for i := range order.Items {
		if order.Items[i].ID == "" {
			order.Items[i].ID = uuid.New().String()
		}
	}

	s.orders = append([]models.Order{order}, s.orders...)
	created := order.Clone()
	return &created, nil
}

// upsertCustomer must be called with the write lock held.
func (s *MemoryStore) upsertCustomer(in models.NewOrder) models.Customer {
	id := in.Customer
	if key := id.MatchKey(); key != "" {
		for i := range s.customers {
			if s.customers[i].PhoneNormalized == key {
				updated := s.customers[i]
				updated.RecordOrder(id, in.Total, in.CreatedAt)
				s.customers[i] = updated
				return updated
			}
		}
	}

	customer := models.NewCustomerFromOrder(id, in.Total, in.CreatedAt)
	s.customers = append([]models.Customer{customer}, s.customers...)
	return customer
}

// UpdateOrderStatus applies a validated transition as a single record replacement
func (s *MemoryStore) UpdateOrderStatus(ctx context.Context, upd models.StatusUpdate) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx, "update order status"); err != nil {
		return nil, err
	}

	idx := s.orderIndex(upd.OrderID)
	if idx < 0 {
		return nil, models.NotFoundError("order", upd.OrderID)
	}

	next := s.orders[idx].Clone()
	if err := checkRevision(&next, upd.ExpectedRevision); err != nil {
		return nil, err
	}
	if err := next.SetStatus(upd.Status, upd.At); err != nil {
		return nil, err
	}

	s.orders[idx] = next
	updated := next.Clone()
	return &updated, nil
}

// UpsertMenuItem inserts or replaces a catalog entry by ID
func (s *MemoryStore) UpsertMenuItem(ctx context.Context, item models.MenuItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx, "upsert menu item"); err != nil {
		return err
	}

	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	for i := range s.menuItems {
		if s.menuItems[i].ID == item.ID {
			s.menuItems[i] = item
			return nil
		}
	}
	s.menuItems = append(s.menuItems, item)
	return nil
}

// Close marks the store unusable. Later calls fail with a store error.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *MemoryStore) orderIndex(id string) int {
	for i := range s.orders {
		if s.orders[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *MemoryStore) check(ctx context.Context, op string) error {
	if s.closed {
		return models.NewStoreError(op, errStoreClosed)
	}
	if err := ctx.Err(); err != nil {
		return models.NewStoreError(op, err)
	}
	return nil
}
