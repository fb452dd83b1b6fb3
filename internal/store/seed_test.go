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

func TestDemoSeed(t *testing.T) {
	now := time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)
	seed := DemoSeed(now)

	require.Len(t, seed.Orders, 3)
	assert.True(t, decimal.NewFromInt(86).Equal(seed.Orders[0].Total))
	assert.True(t, decimal.NewFromInt(40).Equal(seed.Orders[1].Total))
	assert.True(t, decimal.NewFromInt(60).Equal(seed.Orders[2].Total))
	for _, o := range seed.Orders {
		assert.Equal(t, o.Status == models.StatusReady, o.ReadyAt != nil, o.ID)
	}

	s := NewMemoryStore(seed)
	ctx := context.Background()

	orders, err := s.ListOrders(ctx)
	require.NoError(t, err)
	assert.Equal(t, "order-002", orders[0].ID)

	menu, err := s.ListMenuItems(ctx)
	require.NoError(t, err)
	assert.Len(t, menu, len(StarterMenu()))

	// A returning guest matches the seeded customer by phone.
	order, err := s.CreateOrder(ctx, newTestOrder(models.CustomerIdentity{Phone: "966 500 000 002"}, now, 18))
	require.NoError(t, err)
	assert.Equal(t, "customer-ali", order.Customer.ID)
	assert.Equal(t, 10, order.Customer.VisitCount)
}
