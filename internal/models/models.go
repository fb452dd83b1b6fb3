package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MenuItem represents a catalog entry. The lifecycle engine only reads it.
type MenuItem struct {
	ID              string          `db:"id" json:"id"`
	Name            string          `db:"name" json:"name"`
	Category        string          `db:"category" json:"category"`
	Price           decimal.Decimal `db:"price" json:"price"`
	IsAvailable     bool            `db:"is_available" json:"is_available"`
	PrepTimeMinutes int             `db:"prep_time_minutes" json:"prep_time_minutes"`
}

// Customer represents a guest identified by normalized phone, or an anonymous one-off guest.
type Customer struct {
	ID              string          `db:"id" json:"id"`
	FullName        string          `db:"full_name" json:"full_name"`
	Phone           string          `db:"phone" json:"phone"`
	PhoneNormalized string          `db:"phone_normalized" json:"-"`
	TotalSpend      decimal.Decimal `db:"total_spend" json:"total_spend"`
	VisitCount      int             `db:"visit_count" json:"visit_count"`
	LastOrderAt     time.Time       `db:"last_order_at" json:"last_order_at"`
	FavoriteDish    string          `db:"favorite_dish" json:"favorite_dish,omitempty"`
	Revision        int64           `db:"revision" json:"revision"`
}

// OrderItem is a line of an order. Name and price are snapshots of the catalog at order time.
type OrderItem struct {
	ID         string          `db:"id" json:"id"`
	OrderID    string          `db:"order_id" json:"-"`
	MenuItemID string          `db:"menu_item_id" json:"menu_item_id,omitempty"`
	Name       string          `db:"name" json:"name"`
	Price      decimal.Decimal `db:"price" json:"price"`
	Quantity   int             `db:"quantity" json:"quantity"`
	Notes      string          `db:"notes" json:"notes,omitempty"`
	Position   int             `db:"position" json:"-"`
}

// LineTotal returns price * quantity.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order represents a customer order moving through the kitchen.
type Order struct {
	ID              string          `json:"id"`
	Status          OrderStatus     `json:"status"`
	FulfillmentType FulfillmentType `json:"fulfillment_type"`
	TableNumber     string          `json:"table_number,omitempty"`
	CarNumber       string          `json:"car_number,omitempty"`
	Customer        Customer        `json:"customer"`
	Items           []OrderItem     `json:"items"`
	Total           decimal.Decimal `json:"total"`
	CreatedAt       time.Time       `json:"created_at"`
	ReadyAt         *time.Time      `json:"ready_at,omitempty"`
	PrepTimeMinutes *int            `json:"prep_time_minutes,omitempty"`
	Note            string          `json:"note,omitempty"`
	Source          string          `json:"source,omitempty"`
	Revision        int64           `json:"revision"`
}

// Clone returns a deep copy so callers never share item slices or timestamps.
func (o Order) Clone() Order {
	c := o
	c.Items = append([]OrderItem(nil), o.Items...)
	if o.ReadyAt != nil {
		t := *o.ReadyAt
		c.ReadyAt = &t
	}
	if o.PrepTimeMinutes != nil {
		p := *o.PrepTimeMinutes
		c.PrepTimeMinutes = &p
	}
	return c
}

// ItemsTotal sums price * quantity over items.
func ItemsTotal(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// NewOrder is a validated order ready to be persisted. Built by the lifecycle engine.
type NewOrder struct {
	Customer        CustomerIdentity
	Fulfillment     Fulfillment
	Items           []OrderItem
	Total           decimal.Decimal
	PrepTimeMinutes *int
	Note            string
	Source          string
	CreatedAt       time.Time
}

// MaxPriceScale is the number of decimal places stored for prices and totals.
const MaxPriceScale = 3

// Validate checks the invariants every store relies on. Stores call it before persisting,
// so callers that bypass the lifecycle engine get the same validation errors.
func (in NewOrder) Validate() error {
	if in.Fulfillment == nil {
		return NewValidationError("fulfillment_type", "required")
	}
	if len(in.Items) == 0 {
		return NewValidationError("items", "at least one item is required")
	}
	for i, item := range in.Items {
		field := fmt.Sprintf("items[%d]", i)
		if strings.TrimSpace(item.Name) == "" {
			return NewValidationError(field+".name", "required")
		}
		if item.Quantity <= 0 {
			return NewValidationError(field+".quantity", "must be positive")
		}
		if item.Price.IsNegative() {
			return NewValidationError(field+".price", "must not be negative")
		}
		if !item.Price.Equal(item.Price.Truncate(MaxPriceScale)) {
			return NewValidationError(field+".price", fmt.Sprintf("at most %d decimal places", MaxPriceScale))
		}
	}
	if !in.Total.Equal(ItemsTotal(in.Items)) {
		return NewValidationError("total", "does not match the sum of the items")
	}
	if in.PrepTimeMinutes != nil && *in.PrepTimeMinutes < 0 {
		return NewValidationError("prep_time_minutes", "must not be negative")
	}
	return nil
}

// StatusUpdate asks a store to move an order to Status.
// ExpectedRevision of zero skips the optimistic revision check.
type StatusUpdate struct {
	OrderID          string
	Status           OrderStatus
	ExpectedRevision int64
	At               time.Time
}

// TopMenuItem is a best seller entry on the dashboard.
type TopMenuItem struct {
	Name      string `json:"name"`
	TotalSold int    `json:"total_sold"`
}

// HourlySale is the revenue of one hour of the day.
type HourlySale struct {
	HourLabel string          `json:"hour_label"`
	Total     decimal.Decimal `json:"total"`
}

// DashboardMetrics is derived from the order set on every request and never stored.
type DashboardMetrics struct {
	TotalOrdersToday  int                 `json:"total_orders_today"`
	TotalSalesToday   decimal.Decimal     `json:"total_sales_today"`
	TotalRevenueToday decimal.Decimal     `json:"total_revenue_today"`
	TotalRevenueWeek  decimal.Decimal     `json:"total_revenue_week"`
	TotalRevenueMonth decimal.Decimal     `json:"total_revenue_month"`
	AvgTicketSize     decimal.Decimal     `json:"avg_ticket_size"`
	ReadyPercentage   float64             `json:"ready_percentage"`
	ActiveCustomers   int                 `json:"active_customers"`
	TopMenuItems      []TopMenuItem       `json:"top_menu_items"`
	HourlySales       []HourlySale        `json:"hourly_sales"`
	StatusBreakdown   map[OrderStatus]int `json:"status_breakdown"`
}
