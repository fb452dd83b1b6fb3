// Package views projects the shared order set into what each staff role sees.
// Nothing here writes; every function works on the slice it is given.
package views

import (
	"math"
	"sort"
	"strings"
	"time"

	"restaurant-ops/internal/dashboard"
	"restaurant-ops/internal/models"

	"github.com/shopspring/decimal"
)

// Role is a staff role.
type Role string

const (
	RoleWaiter  Role = "waiter"
	RoleChef    Role = "chef"
	RoleCashier Role = "cashier"
	RoleManager Role = "manager"

	roleOwner = "owner"
)

const recentOrdersLimit = 5

// ParseRole accepts a role name case-insensitively. "owner" is treated as manager.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleWaiter, RoleChef, RoleCashier, RoleManager:
		return r, nil
	case roleOwner:
		return RoleManager, nil
	}
	return "", models.NewValidationError("role", "unknown role "+s)
}

// StatusBoard partitions orders by status.
type StatusBoard struct {
	New       []models.Order `json:"new"`
	Preparing []models.Order `json:"preparing"`
	Ready     []models.Order `json:"ready"`
}

// FulfillmentBoard partitions orders by fulfillment type.
type FulfillmentBoard struct {
	DineIn   []models.Order `json:"dine_in"`
	Pickup   []models.Order `json:"pickup"`
	Delivery []models.Order `json:"delivery"`
}

// WaiterView is the floor view.
type WaiterView struct {
	Role              Role                           `json:"role"`
	ByStatus          StatusBoard                    `json:"by_status"`
	ByFulfillment     FulfillmentBoard               `json:"by_fulfillment"`
	StatusCounts      map[models.OrderStatus]int     `json:"status_counts"`
	FulfillmentCounts map[models.FulfillmentType]int `json:"fulfillment_counts"`
}

// ChannelMix is the share of one fulfillment type.
type ChannelMix struct {
	FulfillmentType models.FulfillmentType `json:"fulfillment_type"`
	Orders          int                    `json:"orders"`
	Revenue         decimal.Decimal        `json:"revenue"`
}

// CashierView adds the channel mix to the floor view.
type CashierView struct {
	WaiterView
	ChannelMix []ChannelMix `json:"channel_mix"`
}

// ChefView is the kitchen view.
type ChefView struct {
	Role               Role                       `json:"role"`
	ByStatus           StatusBoard                `json:"by_status"`
	StatusCounts       map[models.OrderStatus]int `json:"status_counts"`
	AvgPrepTimeMinutes float64                    `json:"avg_prep_time_minutes"`
}

// ManagerView is the full dashboard plus the latest orders.
type ManagerView struct {
	Role         Role                    `json:"role"`
	Metrics      models.DashboardMetrics `json:"metrics"`
	RecentOrders []models.Order          `json:"recent_orders"`
}

// For builds the view of role over orders. ref is only used by the manager metrics.
func For(role Role, orders []models.Order, ref time.Time) (interface{}, error) {
	switch role {
	case RoleWaiter:
		return Waiter(orders), nil
	case RoleCashier:
		return Cashier(orders), nil
	case RoleChef:
		return Chef(orders), nil
	case RoleManager:
		return Manager(orders, ref), nil
	}
	return nil, models.NewValidationError("role", "unknown role "+string(role))
}

// Waiter partitions orders by status and fulfillment type.
func Waiter(orders []models.Order) WaiterView {
	v := WaiterView{
		Role:              RoleWaiter,
		ByStatus:          partitionByStatus(orders),
		ByFulfillment:     FulfillmentBoard{DineIn: []models.Order{}, Pickup: []models.Order{}, Delivery: []models.Order{}},
		StatusCounts:      statusCounts(orders),
		FulfillmentCounts: make(map[models.FulfillmentType]int, len(models.FulfillmentTypes)),
	}
	for _, ft := range models.FulfillmentTypes {
		v.FulfillmentCounts[ft] = 0
	}
	for _, o := range orders {
		switch o.FulfillmentType {
		case models.FulfillmentDineIn:
			v.ByFulfillment.DineIn = append(v.ByFulfillment.DineIn, o)
		case models.FulfillmentPickup:
			v.ByFulfillment.Pickup = append(v.ByFulfillment.Pickup, o)
		case models.FulfillmentDelivery:
			v.ByFulfillment.Delivery = append(v.ByFulfillment.Delivery, o)
		default:
			continue
		}
		v.FulfillmentCounts[o.FulfillmentType]++
	}
	return v
}

// Cashier is the waiter view plus count and revenue per fulfillment type.
func Cashier(orders []models.Order) CashierView {
	w := Waiter(orders)
	w.Role = RoleCashier

	index := make(map[models.FulfillmentType]int, len(models.FulfillmentTypes))
	mix := make([]ChannelMix, len(models.FulfillmentTypes))
	for i, ft := range models.FulfillmentTypes {
		index[ft] = i
		mix[i] = ChannelMix{FulfillmentType: ft, Revenue: decimal.Zero}
	}
	for _, o := range orders {
		i, ok := index[o.FulfillmentType]
		if !ok {
			continue
		}
		mix[i].Orders++
		mix[i].Revenue = mix[i].Revenue.Add(o.Total)
	}
	return CashierView{WaiterView: w, ChannelMix: mix}
}

// Chef partitions orders by status and averages the prep estimate of orders that have one.
func Chef(orders []models.Order) ChefView {
	return ChefView{
		Role:               RoleChef,
		ByStatus:           partitionByStatus(orders),
		StatusCounts:       statusCounts(orders),
		AvgPrepTimeMinutes: AveragePrepTime(orders),
	}
}

// AveragePrepTime is the mean prep estimate over orders with a positive estimate,
// rounded to one decimal. Orders without an estimate are excluded, not counted as 0.
func AveragePrepTime(orders []models.Order) float64 {
	var sum, n int
	for _, o := range orders {
		if o.PrepTimeMinutes != nil && *o.PrepTimeMinutes > 0 {
			sum += *o.PrepTimeMinutes
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return math.Round(float64(sum)/float64(n)*10) / 10
}

// Manager returns the dashboard metrics at ref and the most recent orders.
func Manager(orders []models.Order, ref time.Time) ManagerView {
	return ManagerView{
		Role:         RoleManager,
		Metrics:      dashboard.Compute(orders, ref),
		RecentOrders: RecentOrders(orders, recentOrdersLimit),
	}
}

// RecentOrders returns up to limit orders by created_at descending without reordering orders.
func RecentOrders(orders []models.Order, limit int) []models.Order {
	recent := append([]models.Order(nil), orders...)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].CreatedAt.After(recent[j].CreatedAt)
	})
	if len(recent) > limit {
		recent = recent[:limit]
	}
	if recent == nil {
		recent = []models.Order{}
	}
	return recent
}

// FilterCustomers keeps customers whose name or phone contains query, ignoring case.
// An empty query returns every customer.
func FilterCustomers(customers []models.Customer, query string) []models.Customer {
	q := strings.ToLower(strings.TrimSpace(query))
	out := []models.Customer{}
	for _, c := range customers {
		if q == "" ||
			strings.Contains(strings.ToLower(c.FullName), q) ||
			strings.Contains(strings.ToLower(c.Phone), q) {
			out = append(out, c)
		}
	}
	return out
}

func partitionByStatus(orders []models.Order) StatusBoard {
	b := StatusBoard{New: []models.Order{}, Preparing: []models.Order{}, Ready: []models.Order{}}
	for _, o := range orders {
		switch o.Status {
		case models.StatusNew:
			b.New = append(b.New, o)
		case models.StatusPreparing:
			b.Preparing = append(b.Preparing, o)
		case models.StatusReady:
			b.Ready = append(b.Ready, o)
		}
	}
	return b
}

func statusCounts(orders []models.Order) map[models.OrderStatus]int {
	counts := make(map[models.OrderStatus]int, len(models.Statuses))
	for _, st := range models.Statuses {
		counts[st] = 0
	}
	for _, o := range orders {
		if _, ok := counts[o.Status]; ok {
			counts[o.Status]++
		}
	}
	return counts
}
