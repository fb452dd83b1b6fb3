package models

import "strings"

// FulfillmentType is how an order is served.
type FulfillmentType string

const (
	FulfillmentDineIn   FulfillmentType = "dine-in"
	FulfillmentPickup   FulfillmentType = "pickup"
	FulfillmentDelivery FulfillmentType = "delivery"
)

// FulfillmentTypes lists every fulfillment type.
var FulfillmentTypes = []FulfillmentType{FulfillmentDineIn, FulfillmentPickup, FulfillmentDelivery}

const minCarNumberLength = 3

// Fulfillment is one of DineIn, Pickup or Delivery, each carrying its own required field.
type Fulfillment interface {
	Type() FulfillmentType
	tableNumber() string
	carNumber() string
}

// DineIn is served at a table.
type DineIn struct{ Table string }

// Pickup is collected by a customer waiting in a car.
type Pickup struct{ Car string }

// Delivery is handed to an external courier.
type Delivery struct{}

func (DineIn) Type() FulfillmentType   { return FulfillmentDineIn }
func (d DineIn) tableNumber() string   { return d.Table }
func (DineIn) carNumber() string       { return "" }
func (Pickup) Type() FulfillmentType   { return FulfillmentPickup }
func (Pickup) tableNumber() string     { return "" }
func (p Pickup) carNumber() string     { return p.Car }
func (Delivery) Type() FulfillmentType { return FulfillmentDelivery }
func (Delivery) tableNumber() string   { return "" }
func (Delivery) carNumber() string     { return "" }

// TableNumber returns the table of a dine-in fulfillment, empty otherwise.
func TableNumber(f Fulfillment) string { return f.tableNumber() }

// CarNumber returns the car of a pickup fulfillment, empty otherwise.
func CarNumber(f Fulfillment) string { return f.carNumber() }

// ParseFulfillment validates the flat boundary fields and returns the matching variant.
// Companion fields that do not belong to the type are dropped.
func ParseFulfillment(kind, table, car string) (Fulfillment, error) {
	switch FulfillmentType(kind) {
	case FulfillmentDineIn:
		table = strings.TrimSpace(table)
		if table == "" {
			return nil, NewValidationError("table_number", "required for dine-in orders")
		}
		return DineIn{Table: table}, nil
	case FulfillmentPickup:
		car = strings.TrimSpace(car)
		if len([]rune(car)) < minCarNumberLength {
			return nil, NewValidationError("car_number", "at least 3 characters required for pickup orders")
		}
		return Pickup{Car: car}, nil
	case FulfillmentDelivery:
		return Delivery{}, nil
	}
	return nil, NewValidationError("fulfillment_type", "unknown fulfillment type "+kind)
}
