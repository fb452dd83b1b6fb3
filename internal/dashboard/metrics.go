// Package dashboard derives dashboard metrics from the order set.
//
// Compute never mutates its input and keeps no state, so concurrent readers may call it
// freely. "Local" time is the location of the reference instant.
package dashboard

import (
	"fmt"
	"sort"
	"time"

	"restaurant-ops/internal/models"

	"github.com/shopspring/decimal"
)

const topMenuItemsLimit = 5

// Windows holds the start instants of the dashboard windows.
type Windows struct {
	Day   time.Time
	Week  time.Time
	Month time.Time
}

// WindowsAt returns local midnight of ref's day, of the most recent Sunday on or
// before it, and of the first of its month.
func WindowsAt(ref time.Time) Windows {
	loc := ref.Location()
	y, m, d := ref.Date()
	return Windows{
		Day:   time.Date(y, m, d, 0, 0, 0, 0, loc),
		Week:  time.Date(y, m, d-int(ref.Weekday()), 0, 0, 0, 0, loc),
		Month: time.Date(y, m, 1, 0, 0, 0, 0, loc),
	}
}

// Compute builds DashboardMetrics for orders as seen at ref.
func Compute(orders []models.Order, ref time.Time) models.DashboardMetrics {
	w := WindowsAt(ref)

	metrics := models.DashboardMetrics{
		TotalSalesToday:   decimal.Zero,
		TotalRevenueWeek:  decimal.Zero,
		TotalRevenueMonth: decimal.Zero,
		AvgTicketSize:     decimal.Zero,
		TopMenuItems:      []models.TopMenuItem{},
		HourlySales:       []models.HourlySale{},
		StatusBreakdown:   make(map[models.OrderStatus]int, len(models.Statuses)),
	}
	for _, st := range models.Statuses {
		metrics.StatusBreakdown[st] = 0
	}

	var today []models.Order
	for _, o := range orders {
		if !o.CreatedAt.Before(w.Month) {
			metrics.TotalRevenueMonth = metrics.TotalRevenueMonth.Add(o.Total)
		}
		if !o.CreatedAt.Before(w.Week) {
			metrics.TotalRevenueWeek = metrics.TotalRevenueWeek.Add(o.Total)
		}
		if !o.CreatedAt.Before(w.Day) {
			today = append(today, o)
		}
	}

	customers := make(map[string]struct{})
	for _, o := range today {
		metrics.TotalSalesToday = metrics.TotalSalesToday.Add(o.Total)
		if _, ok := metrics.StatusBreakdown[o.Status]; ok {
			metrics.StatusBreakdown[o.Status]++
		}
		customers[o.Customer.ID] = struct{}{}
	}
	metrics.TotalOrdersToday = len(today)
	metrics.TotalRevenueToday = metrics.TotalSalesToday
	metrics.ActiveCustomers = len(customers)

	if n := len(today); n > 0 {
		metrics.AvgTicketSize = metrics.TotalSalesToday.Div(decimal.NewFromInt(int64(n))).Round(2)
		metrics.ReadyPercentage = float64(metrics.StatusBreakdown[models.StatusReady]) / float64(n) * 100
	}

	metrics.TopMenuItems = topMenuItems(today, topMenuItemsLimit)
	metrics.HourlySales = hourlySales(today, ref.Location())
	return metrics
}

// topMenuItems sums quantities by item name. Ties keep first-encountered order.
func topMenuItems(orders []models.Order, limit int) []models.TopMenuItem {
	index := make(map[string]int)
	items := []models.TopMenuItem{}
	for _, o := range orders {
		for _, item := range o.Items {
			i, ok := index[item.Name]
			if !ok {
				i = len(items)
				index[item.Name] = i
				items = append(items, models.TopMenuItem{Name: item.Name})
			}
			items[i].TotalSold += item.Quantity
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].TotalSold > items[j].TotalSold
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items
}

// hourlySales buckets order totals by local hour of creation, non-empty hours only.
func hourlySales(orders []models.Order, loc *time.Location) []models.HourlySale {
	var buckets [24]decimal.Decimal
	var seen [24]bool
	for _, o := range orders {
		h := o.CreatedAt.In(loc).Hour()
		if !seen[h] {
			seen[h] = true
			buckets[h] = decimal.Zero
		}
		buckets[h] = buckets[h].Add(o.Total)
	}

	sales := []models.HourlySale{}
	for h := 0; h < 24; h++ {
		if seen[h] {
			sales = append(sales, models.HourlySale{
				HourLabel: fmt.Sprintf("%02d:00", h),
				Total:     buckets[h],
			})
		}
	}
	return sales
}
