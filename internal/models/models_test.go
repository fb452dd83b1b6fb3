package models

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validNewOrder() NewOrder {
	items := []OrderItem{
		{Name: "Burger", Price: decimal.NewFromInt(48), Quantity: 1},
		{Name: "Karak", Price: decimal.RequireFromString("4.125"), Quantity: 2},
	}
	return NewOrder{
		Fulfillment: DineIn{Table: "A3"},
		Items:       items,
		Total:       ItemsTotal(items),
	}
}

func TestNewOrderValidate(t *testing.T) {
	require.NoError(t, validNewOrder().Validate())

	tests := []struct {
		name   string
		field  string
		mutate func(in *NewOrder)
	}{
		{"nil fulfillment", "fulfillment_type", func(in *NewOrder) { in.Fulfillment = nil }},
		{"no items", "items", func(in *NewOrder) { in.Items = nil }},
		{"blank name", "items[0].name", func(in *NewOrder) { in.Items[0].Name = " " }},
		{"zero quantity", "items[1].quantity", func(in *NewOrder) { in.Items[1].Quantity = 0 }},
		{"negative price", "items[0].price", func(in *NewOrder) { in.Items[0].Price = decimal.NewFromInt(-2) }},
		{"four decimals", "items[1].price", func(in *NewOrder) {
			in.Items[1].Price = decimal.RequireFromString("4.1255")
			in.Total = ItemsTotal(in.Items)
		}},
		{"total mismatch", "total", func(in *NewOrder) { in.Total = in.Total.Add(decimal.NewFromInt(1)) }},
		{"negative prep time", "prep_time_minutes", func(in *NewOrder) { p := -1; in.PrepTimeMinutes = &p }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validNewOrder()
			tt.mutate(&in)

			err := in.Validate()
			require.True(t, errors.Is(err, ErrValidation), "got %v", err)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestNewOrderValidateAcceptsTrailingZeros(t *testing.T) {
	in := validNewOrder()
	in.Items[0].Price = decimal.RequireFromString("48.5000")
	in.Total = ItemsTotal(in.Items)
	assert.NoError(t, in.Validate())
}
