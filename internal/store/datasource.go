package store

import (
	"context"

	"restaurant-ops/internal/models"
)

// DataSource is the data-access contract shared by the volatile and the Postgres store.
// Both return the same shapes and the same models error taxonomy.
type DataSource interface {
	// ListMenuItems returns the catalog ordered by category then name.
	ListMenuItems(ctx context.Context) ([]models.MenuItem, error)
	// ListOrders returns every order, newest first.
	ListOrders(ctx context.Context) ([]models.Order, error)
	// ListCustomers returns every customer, most recent order first.
	ListCustomers(ctx context.Context) ([]models.Customer, error)
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	// CreateOrder upserts the customer and persists the order in status new, atomically.
	CreateOrder(ctx context.Context, in models.NewOrder) (*models.Order, error)
	// UpdateOrderStatus validates the transition table and the optional expected revision.
	UpdateOrderStatus(ctx context.Context, upd models.StatusUpdate) (*models.Order, error)
	UpsertMenuItem(ctx context.Context, item models.MenuItem) error
	Close() error
}

var (
	_ DataSource = (*MemoryStore)(nil)
	_ DataSource = (*Store)(nil)
)

// buildOrder materializes an order from a validated NewOrder and its resolved customer.
func buildOrder(id string, in models.NewOrder, customer models.Customer) models.Order {
	items := make([]models.OrderItem, len(in.Items))
	for i, item := range in.Items {
		item.OrderID = id
		item.Position = i
		items[i] = item
	}
	return models.Order{
		ID:              id,
		Status:          models.StatusNew,
		FulfillmentType: in.Fulfillment.Type(),
		TableNumber:     models.TableNumber(in.Fulfillment),
		CarNumber:       models.CarNumber(in.Fulfillment),
		Customer:        customer,
		Items:           items,
		Total:           in.Total,
		CreatedAt:       in.CreatedAt,
		PrepTimeMinutes: in.PrepTimeMinutes,
		Note:            in.Note,
		Source:          in.Source,
		Revision:        1,
	}
}

// checkRevision enforces optimistic concurrency when the caller supplied a revision.
func checkRevision(order *models.Order, expected int64) error {
	if expected != 0 && order.Revision != expected {
		return models.ConflictError("order %s is at revision %d, caller expected %d", order.ID, order.Revision, expected)
	}
	return nil
}
