package store

import (
	"context"
	"testing"
	"time"

	"restaurant-ops/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrder(identity models.CustomerIdentity, at time.Time, prices ...int64) models.NewOrder {
	items := make([]models.OrderItem, len(prices))
	for i, p := range prices {
		items[i] = models.OrderItem{Name: "item", Price: decimal.NewFromInt(p), Quantity: 1}
	}
	return models.NewOrder{
		Customer:    identity,
		Fulfillment: models.DineIn{Table: "A3"},
		Items:       items,
		Total:       models.ItemsTotal(items),
		CreatedAt:   at,
	}
}

// runContract exercises the DataSource behaviour every implementation must share.
func runContract(t *testing.T, newDS func(t *testing.T) DataSource) {
	ctx := context.Background()
	t0 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("create and advance", func(t *testing.T) {
		ds := newDS(t)

		order, err := ds.CreateOrder(ctx, newTestOrder(models.CustomerIdentity{FullName: "Sara"}, t0, 48, 28))
		require.NoError(t, err)
		assert.Equal(t, models.StatusNew, order.Status)
		assert.True(t, decimal.NewFromInt(76).Equal(order.Total))
		assert.Equal(t, "A3", order.TableNumber)
		assert.Len(t, order.Items, 2)
		assert.Nil(t, order.ReadyAt)
		assert.Equal(t, int64(1), order.Revision)

		order, err = ds.UpdateOrderStatus(ctx, models.StatusUpdate{OrderID: order.ID, Status: models.StatusPreparing, At: t0})
		require.NoError(t, err)
		assert.Equal(t, models.StatusPreparing, order.Status)
		assert.Nil(t, order.ReadyAt)

		readyAt := t0.Add(10 * time.Minute)
		order, err = ds.UpdateOrderStatus(ctx, models.StatusUpdate{OrderID: order.ID, Status: models.StatusReady, At: readyAt})
		require.NoError(t, err)
		require.NotNil(t, order.ReadyAt)
		assert.True(t, readyAt.Equal(*order.ReadyAt))

		_, err = ds.UpdateOrderStatus(ctx, models.StatusUpdate{OrderID: order.ID, Status: models.StatusReady, At: t0.Add(time.Hour)})
		assert.ErrorIs(t, err, models.ErrInvalidTransition)

		stored, err := ds.GetOrder(ctx, order.ID)
		require.NoError(t, err)
		assert.True(t, readyAt.Equal(*stored.ReadyAt))
		assert.True(t, decimal.NewFromInt(76).Equal(stored.Total))
	})

	t.Run("create rejects invalid orders", func(t *testing.T) {
		ds := newDS(t)
		invalid := map[string]func(in *models.NewOrder){
			"no fulfillment": func(in *models.NewOrder) { in.Fulfillment = nil },
			"no items":       func(in *models.NewOrder) { in.Items = nil; in.Total = decimal.Zero },
			"zero quantity":  func(in *models.NewOrder) { in.Items[0].Quantity = 0 },
			"negative price": func(in *models.NewOrder) { in.Items[0].Price = decimal.NewFromInt(-1) },
			"wrong total":    func(in *models.NewOrder) { in.Total = decimal.NewFromInt(1) },
			"price scale": func(in *models.NewOrder) {
				in.Items[0].Price = decimal.RequireFromString("1.2345")
				in.Total = models.ItemsTotal(in.Items)
			},
		}
		for name, mutate := range invalid {
			in := newTestOrder(models.CustomerIdentity{FullName: "Sara", Phone: "+966500000001"}, t0, 10)
			mutate(&in)
			_, err := ds.CreateOrder(ctx, in)
			assert.ErrorIs(t, err, models.ErrValidation, name)
		}

		orders, err := ds.ListOrders(ctx)
		require.NoError(t, err)
		assert.Empty(t, orders)
		customers, err := ds.ListCustomers(ctx)
		require.NoError(t, err)
		assert.Empty(t, customers)
	})

	t.Run("skip ahead is rejected", func(t *testing.T) {
		ds := newDS(t)
		order, err := ds.CreateOrder(ctx, newTestOrder(models.CustomerIdentity{}, t0, 10))
		require.NoError(t, err)

		_, err = ds.UpdateOrderStatus(ctx, models.StatusUpdate{OrderID: order.ID, Status: models.StatusReady, At: t0})
		assert.ErrorIs(t, err, models.ErrInvalidTransition)
	})

	t.Run("unknown order", func(t *testing.T) {
		ds := newDS(t)
		_, err := ds.GetOrder(ctx, "00000000-0000-0000-0000-000000000000")
		assert.ErrorIs(t, err, models.ErrNotFound)

		_, err = ds.UpdateOrderStatus(ctx, models.StatusUpdate{OrderID: "missing", Status: models.StatusPreparing, At: t0})
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("stale revision", func(t *testing.T) {
		ds := newDS(t)
		order, err := ds.CreateOrder(ctx, newTestOrder(models.CustomerIdentity{}, t0, 10))
		require.NoError(t, err)

		_, err = ds.UpdateOrderStatus(ctx, models.StatusUpdate{
			OrderID: order.ID, Status: models.StatusPreparing, ExpectedRevision: order.Revision, At: t0,
		})
		require.NoError(t, err)

		_, err = ds.UpdateOrderStatus(ctx, models.StatusUpdate{
			OrderID: order.ID, Status: models.StatusReady, ExpectedRevision: order.Revision, At: t0,
		})
		assert.ErrorIs(t, err, models.ErrConflict)
	})

	t.Run("repeated phone updates one customer", func(t *testing.T) {
		ds := newDS(t)
		first, err := ds.CreateOrder(ctx, newTestOrder(models.CustomerIdentity{FullName: "Sara", Phone: "+966500000001"}, t0, 20))
		require.NoError(t, err)
		second, err := ds.CreateOrder(ctx, newTestOrder(models.CustomerIdentity{FullName: "Sara A.", Phone: "966 500 000 001"}, t0.Add(time.Hour), 30))
		require.NoError(t, err)

		assert.Equal(t, first.Customer.ID, second.Customer.ID)
		assert.Equal(t, 2, second.Customer.VisitCount)
		assert.True(t, decimal.NewFromInt(50).Equal(second.Customer.TotalSpend))
		assert.Equal(t, "Sara A.", second.Customer.FullName)

		// The first order keeps the snapshot taken when it was created.
		stored, err := ds.GetOrder(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, stored.Customer.VisitCount)
		assert.Equal(t, "Sara", stored.Customer.FullName)

		customers, err := ds.ListCustomers(ctx)
		require.NoError(t, err)
		require.Len(t, customers, 1)
		assert.Equal(t, 2, customers[0].VisitCount)
	})

	t.Run("anonymous orders never merge", func(t *testing.T) {
		ds := newDS(t)
		a, err := ds.CreateOrder(ctx, newTestOrder(models.CustomerIdentity{}, t0, 10))
		require.NoError(t, err)
		b, err := ds.CreateOrder(ctx, newTestOrder(models.CustomerIdentity{Phone: "n/a"}, t0, 12))
		require.NoError(t, err)

		assert.NotEqual(t, a.Customer.ID, b.Customer.ID)
		assert.Equal(t, models.AnonymousCustomerName, a.Customer.FullName)
		assert.Equal(t, 1, a.Customer.VisitCount)
		assert.Equal(t, 1, b.Customer.VisitCount)
	})

	t.Run("orders newest first", func(t *testing.T) {
		ds := newDS(t)
		older, err := ds.CreateOrder(ctx, newTestOrder(models.CustomerIdentity{}, t0, 10))
		require.NoError(t, err)
		newer, err := ds.CreateOrder(ctx, newTestOrder(models.CustomerIdentity{}, t0.Add(time.Minute), 10))
		require.NoError(t, err)

		orders, err := ds.ListOrders(ctx)
		require.NoError(t, err)
		require.Len(t, orders, 2)
		assert.Equal(t, newer.ID, orders[0].ID)
		assert.Equal(t, older.ID, orders[1].ID)
	})

	t.Run("menu items", func(t *testing.T) {
		ds := newDS(t)
		require.NoError(t, ds.UpsertMenuItem(ctx, models.MenuItem{ID: "tiramisu", Name: "Tiramisu", Category: "Desserts", Price: decimal.NewFromInt(28), IsAvailable: true, PrepTimeMinutes: 5}))
		require.NoError(t, ds.UpsertMenuItem(ctx, models.MenuItem{ID: "burger", Name: "Burger", Category: "Mains", Price: decimal.NewFromInt(48), IsAvailable: true, PrepTimeMinutes: 15}))
		require.NoError(t, ds.UpsertMenuItem(ctx, models.MenuItem{ID: "burger", Name: "Smoked Burger", Category: "Mains", Price: decimal.NewFromInt(50), IsAvailable: true, PrepTimeMinutes: 15}))

		items, err := ds.ListMenuItems(ctx)
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, "Tiramisu", items[0].Name)
		assert.Equal(t, "Smoked Burger", items[1].Name)
		assert.True(t, decimal.NewFromInt(50).Equal(items[1].Price))
	})
}
