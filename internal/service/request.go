package service

import (
	"fmt"
	"strings"
	"time"

	"restaurant-ops/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateOrderRequest represents a request to create an order.
// The fulfillment companion field required depends on FulfillmentType.
type CreateOrderRequest struct {
	CustomerName    string             `json:"customer_name"`
	CustomerPhone   string             `json:"customer_phone"`
	FulfillmentType string             `json:"fulfillment_type" binding:"required"`
	TableNumber     string             `json:"table_number,omitempty"`
	CarNumber       string             `json:"car_number,omitempty"`
	Items           []OrderItemRequest `json:"items" binding:"required"`
	PrepTimeMinutes *int               `json:"prep_time_minutes,omitempty"`
	Note            string             `json:"note,omitempty"`
	Source          string             `json:"source,omitempty"`
	IdempotencyKey  string             `json:"idempotency_key,omitempty"`
}

// OrderItemRequest represents an item in an order. Items referencing the catalog
// take name and price from it; free-form items must carry both.
type OrderItemRequest struct {
	MenuItemID string           `json:"menu_item_id,omitempty"`
	Name       string           `json:"name,omitempty"`
	Price      *decimal.Decimal `json:"price,omitempty"`
	Quantity   int              `json:"quantity"`
	Notes      string           `json:"notes,omitempty"`
}

// referencesCatalog reports whether any item needs a menu lookup.
func (r *CreateOrderRequest) referencesCatalog() bool {
	for _, item := range r.Items {
		if item.MenuItemID != "" {
			return true
		}
	}
	return false
}

// toNewOrder validates the request against catalog and builds the store input.
func (r *CreateOrderRequest) toNewOrder(catalog map[string]models.MenuItem, now time.Time) (models.NewOrder, error) {
	fulfillment, err := models.ParseFulfillment(strings.TrimSpace(r.FulfillmentType), r.TableNumber, r.CarNumber)
	if err != nil {
		return models.NewOrder{}, err
	}
	if len(r.Items) == 0 {
		return models.NewOrder{}, models.NewValidationError("items", "at least one item is required")
	}
	if r.PrepTimeMinutes != nil && *r.PrepTimeMinutes < 0 {
		return models.NewOrder{}, models.NewValidationError("prep_time_minutes", "must not be negative")
	}

	items := make([]models.OrderItem, 0, len(r.Items))
	maxPrep := 0
	for i, req := range r.Items {
		field := fmt.Sprintf("items[%d]", i)
		if req.Quantity <= 0 {
			return models.NewOrder{}, models.NewValidationError(field+".quantity", "must be positive")
		}

		item := models.OrderItem{
			ID:         uuid.New().String(),
			MenuItemID: req.MenuItemID,
			Name:       strings.TrimSpace(req.Name),
			Quantity:   req.Quantity,
			Notes:      strings.TrimSpace(req.Notes),
		}
		if req.Price != nil {
			item.Price = *req.Price
		}

		if req.MenuItemID != "" {
			menuItem, ok := catalog[req.MenuItemID]
			if !ok {
				return models.NewOrder{}, models.NewValidationError(field+".menu_item_id", "unknown menu item "+req.MenuItemID)
			}
			if !menuItem.IsAvailable {
				return models.NewOrder{}, models.NewValidationError(field+".menu_item_id", menuItem.Name+" is not available")
			}
			item.Name = menuItem.Name
			item.Price = menuItem.Price
			if menuItem.PrepTimeMinutes > maxPrep {
				maxPrep = menuItem.PrepTimeMinutes
			}
		} else if req.Price == nil {
			return models.NewOrder{}, models.NewValidationError(field+".price", "required for items outside the menu")
		}

		if item.Name == "" {
			return models.NewOrder{}, models.NewValidationError(field+".name", "required")
		}
		if item.Price.IsNegative() {
			return models.NewOrder{}, models.NewValidationError(field+".price", "must not be negative")
		}
		items = append(items, item)
	}

	// Items cook in parallel, so the slowest one sets the estimate.
	prep := r.PrepTimeMinutes
	if prep == nil && maxPrep > 0 {
		prep = &maxPrep
	}

	in := models.NewOrder{
		Customer: models.CustomerIdentity{
			FullName: strings.TrimSpace(r.CustomerName),
			Phone:    strings.TrimSpace(r.CustomerPhone),
		},
		Fulfillment:     fulfillment,
		Items:           items,
		Total:           models.ItemsTotal(items),
		PrepTimeMinutes: prep,
		Note:            strings.TrimSpace(r.Note),
		Source:          strings.TrimSpace(r.Source),
		CreatedAt:       now,
	}
	if err := in.Validate(); err != nil {
		return models.NewOrder{}, err
	}
	return in, nil
}
