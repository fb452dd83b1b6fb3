package store

import (
	"time"

	"restaurant-ops/internal/models"

	"github.com/shopspring/decimal"
)

// StarterMenu is the catalog a fresh install starts from.
func StarterMenu() []models.MenuItem {
	item := func(id, name, category string, price int64, prep int) models.MenuItem {
		return models.MenuItem{
			ID:              id,
			Name:            name,
			Category:        category,
			Price:           decimal.NewFromInt(price),
			IsAvailable:     true,
			PrepTimeMinutes: prep,
		}
	}
	return []models.MenuItem{
		item("item-espresso", "Double Espresso", "Hot Drinks", 18, 3),
		item("item-cappuccino", "Cappuccino", "Hot Drinks", 22, 4),
		item("item-burger", "Smoked Beef Burger", "Mains", 48, 15),
		item("item-salad", "Superfood Salad", "Starters", 32, 7),
		item("item-tiramisu", "Tiramisu", "Desserts", 28, 5),
	}
}

// DemoSeed is the starter menu plus a few customers and orders placed shortly before now,
// so a volatile store has something to show on first start.
func DemoSeed(now time.Time) Seed {
	menu := StarterMenu()
	byID := make(map[string]models.MenuItem, len(menu))
	for _, m := range menu {
		byID[m.ID] = m
	}
	line := func(orderID string, n int, menuID string, price int64) models.OrderItem {
		return models.OrderItem{
			ID:         orderID + "-item-" + string(rune('0'+n)),
			OrderID:    orderID,
			MenuItemID: menuID,
			Name:       byID[menuID].Name,
			Price:      decimal.NewFromInt(price),
			Quantity:   1,
			Position:   n - 1,
		}
	}
	customer := func(id, name, phone string, spend int64, visits int, ago time.Duration, favorite string) models.Customer {
		return models.Customer{
			ID:              id,
			FullName:        name,
			Phone:           phone,
			PhoneNormalized: models.NormalizePhone(phone),
			TotalSpend:      decimal.NewFromInt(spend),
			VisitCount:      visits,
			LastOrderAt:     now.Add(-ago),
			FavoriteDish:    favorite,
			Revision:        1,
		}
	}

	sara := customer("customer-sara", "Sara Almutairi", "+966500000001", 820, 6, 30*time.Minute, byID["item-burger"].Name)
	ali := customer("customer-ali", "Ali Alshehri", "+966500000002", 1240, 9, 75*time.Minute, byID["item-espresso"].Name)
	lina := customer("customer-lina", "Lina Alhassan", "+966500000003", 365, 3, 140*time.Minute, byID["item-salad"].Name)

	prep := 15
	readyAt := now.Add(-15 * time.Minute)
	orders := []models.Order{
		{
			ID: "order-001", Status: models.StatusPreparing,
			FulfillmentType: models.FulfillmentDineIn, TableNumber: "A3",
			Customer: sara,
			Items: []models.OrderItem{
				line("order-001", 1, "item-burger", 48),
				line("order-001", 2, "item-tiramisu", 28),
				line("order-001", 3, "item-espresso", 10),
			},
			CreatedAt:       now.Add(-25 * time.Minute),
			Source:          "Family hall",
			PrepTimeMinutes: &prep,
			Revision:        2,
		},
		{
			ID: "order-002", Status: models.StatusNew,
			FulfillmentType: models.FulfillmentPickup, CarNumber: "KSA-204",
			Customer: ali,
			Items: []models.OrderItem{
				line("order-002", 1, "item-cappuccino", 22),
				line("order-002", 2, "item-espresso", 18),
			},
			CreatedAt: now.Add(-10 * time.Minute),
			Source:    "Restaurant app",
			Revision:  1,
		},
		{
			ID: "order-003", Status: models.StatusReady,
			FulfillmentType: models.FulfillmentDineIn, TableNumber: "B2",
			Customer: lina,
			Items: []models.OrderItem{
				line("order-003", 1, "item-salad", 32),
				line("order-003", 2, "item-tiramisu", 28),
			},
			CreatedAt: now.Add(-55 * time.Minute),
			ReadyAt:   &readyAt,
			Source:    "Main hall",
			Revision:  3,
		},
	}
	for i := range orders {
		orders[i].Total = models.ItemsTotal(orders[i].Items)
	}

	return Seed{
		MenuItems: menu,
		Customers: []models.Customer{sara, ali, lina},
		Orders:    orders,
	}
}
