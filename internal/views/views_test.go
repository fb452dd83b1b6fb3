package views

import (
	"testing"
	"time"

	"restaurant-ops/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)

func prep(m int) *int { return &m }

func testOrders() []models.Order {
	return []models.Order{
		{ID: "o1", Status: models.StatusNew, FulfillmentType: models.FulfillmentDineIn, TableNumber: "A3",
			Total: decimal.NewFromInt(76), CreatedAt: t0.Add(-1 * time.Minute), PrepTimeMinutes: prep(15)},
		{ID: "o2", Status: models.StatusPreparing, FulfillmentType: models.FulfillmentPickup, CarNumber: "KSA-123",
			Total: decimal.NewFromInt(40), CreatedAt: t0.Add(-2 * time.Minute), PrepTimeMinutes: prep(7)},
		{ID: "o3", Status: models.StatusReady, FulfillmentType: models.FulfillmentDelivery,
			Total: decimal.NewFromInt(60), CreatedAt: t0.Add(-3 * time.Minute)},
		{ID: "o4", Status: models.StatusNew, FulfillmentType: models.FulfillmentDineIn, TableNumber: "B1",
			Total: decimal.NewFromInt(18), CreatedAt: t0.Add(-4 * time.Minute), PrepTimeMinutes: prep(0)},
	}
}

func ids(orders []models.Order) []string {
	out := make([]string, len(orders))
	for i, o := range orders {
		out[i] = o.ID
	}
	return out
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{"waiter", RoleWaiter, false},
		{"Chef", RoleChef, false},
		{" cashier ", RoleCashier, false},
		{"manager", RoleManager, false},
		{"owner", RoleManager, false},
		{"admin", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRole(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, models.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWaiterPartitions(t *testing.T) {
	v := Waiter(testOrders())

	assert.Equal(t, []string{"o1", "o4"}, ids(v.ByStatus.New))
	assert.Equal(t, []string{"o2"}, ids(v.ByStatus.Preparing))
	assert.Equal(t, []string{"o3"}, ids(v.ByStatus.Ready))
	assert.Equal(t, []string{"o1", "o4"}, ids(v.ByFulfillment.DineIn))
	assert.Equal(t, []string{"o2"}, ids(v.ByFulfillment.Pickup))
	assert.Equal(t, []string{"o3"}, ids(v.ByFulfillment.Delivery))
	assert.Equal(t, 2, v.StatusCounts[models.StatusNew])
	assert.Equal(t, 2, v.FulfillmentCounts[models.FulfillmentDineIn])
}

func TestWaiterEmpty(t *testing.T) {
	v := Waiter(nil)

	assert.NotNil(t, v.ByStatus.New)
	assert.NotNil(t, v.ByFulfillment.Delivery)
	assert.Len(t, v.StatusCounts, 3)
	assert.Len(t, v.FulfillmentCounts, 3)
}

func TestCashierChannelMix(t *testing.T) {
	v := Cashier(testOrders())

	assert.Equal(t, RoleCashier, v.Role)
	require.Len(t, v.ChannelMix, 3)
	assert.Equal(t, models.FulfillmentDineIn, v.ChannelMix[0].FulfillmentType)
	assert.Equal(t, 2, v.ChannelMix[0].Orders)
	assert.True(t, decimal.NewFromInt(94).Equal(v.ChannelMix[0].Revenue))
	assert.Equal(t, 1, v.ChannelMix[1].Orders)
	assert.True(t, decimal.NewFromInt(40).Equal(v.ChannelMix[1].Revenue))
	assert.Equal(t, 1, v.ChannelMix[2].Orders)
}

func TestChefAveragePrepTime(t *testing.T) {
	v := Chef(testOrders())

	// o3 has no estimate and o4 has 0; both are left out.
	assert.Equal(t, 11.0, v.AvgPrepTimeMinutes)
	assert.Equal(t, []string{"o2"}, ids(v.ByStatus.Preparing))

	assert.Equal(t, 0.0, AveragePrepTime(nil))
	assert.Equal(t, 0.0, AveragePrepTime([]models.Order{{PrepTimeMinutes: prep(0)}}))
	assert.Equal(t, 3.3, AveragePrepTime([]models.Order{{PrepTimeMinutes: prep(3)}, {PrepTimeMinutes: prep(3)}, {PrepTimeMinutes: prep(4)}}))
}

func TestManagerRecentOrders(t *testing.T) {
	orders := testOrders()
	orders = append(orders,
		models.Order{ID: "o5", Status: models.StatusReady, CreatedAt: t0.Add(-10 * time.Minute), Total: decimal.NewFromInt(1)},
		models.Order{ID: "o6", Status: models.StatusNew, CreatedAt: t0, Total: decimal.NewFromInt(1)},
	)

	v := Manager(orders, t0)

	assert.Equal(t, []string{"o6", "o1", "o2", "o3", "o4"}, ids(v.RecentOrders))
	assert.Equal(t, 6, v.Metrics.TotalOrdersToday)
	assert.Equal(t, "o1", orders[0].ID)
}

func TestFor(t *testing.T) {
	orders := testOrders()

	v, err := For(RoleChef, orders, t0)
	require.NoError(t, err)
	assert.IsType(t, ChefView{}, v)

	v, err = For(RoleManager, orders, t0)
	require.NoError(t, err)
	assert.IsType(t, ManagerView{}, v)

	_, err = For(Role("janitor"), orders, t0)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestFilterCustomers(t *testing.T) {
	customers := []models.Customer{
		{ID: "1", FullName: "Sara Ahmed", Phone: "+966500000001"},
		{ID: "2", FullName: "Omar", Phone: "+966511111111"},
		{ID: "3", FullName: models.AnonymousCustomerName},
	}

	assert.Len(t, FilterCustomers(customers, ""), 3)
	assert.Equal(t, "1", FilterCustomers(customers, "sara")[0].ID)
	assert.Equal(t, "2", FilterCustomers(customers, "5111")[0].ID)
	assert.Len(t, FilterCustomers(customers, "+9665"), 2)
	assert.Empty(t, FilterCustomers(customers, "nobody"))
}
