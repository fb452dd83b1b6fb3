package models

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusNext(t *testing.T) {
	next, ok := StatusNew.Next()
	assert.True(t, ok)
	assert.Equal(t, StatusPreparing, next)

	next, ok = StatusPreparing.Next()
	assert.True(t, ok)
	assert.Equal(t, StatusReady, next)

	_, ok = StatusReady.Next()
	assert.False(t, ok)
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
		want     bool
	}{
		{StatusNew, StatusPreparing, true},
		{StatusPreparing, StatusReady, true},
		{StatusNew, StatusReady, false},
		{StatusPreparing, StatusNew, false},
		{StatusReady, StatusReady, false},
		{StatusReady, StatusNew, false},
		{StatusNew, StatusNew, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus("preparing")
	require.NoError(t, err)
	assert.Equal(t, StatusPreparing, st)

	_, err = ParseStatus("cancelled")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSetStatusStampsReadyOnce(t *testing.T) {
	order := &Order{
		Status:   StatusNew,
		Total:    decimal.NewFromInt(76),
		Revision: 1,
	}
	t0 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, order.SetStatus(StatusPreparing, t0))
	assert.Nil(t, order.ReadyAt)
	assert.Equal(t, int64(2), order.Revision)

	require.NoError(t, order.SetStatus(StatusReady, t0.Add(time.Minute)))
	require.NotNil(t, order.ReadyAt)
	readyAt := *order.ReadyAt

	err := order.SetStatus(StatusReady, t0.Add(time.Hour))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, readyAt, *order.ReadyAt)
	assert.True(t, decimal.NewFromInt(76).Equal(order.Total))
	assert.Equal(t, int64(3), order.Revision)
}

func TestSetStatusRejectsSkipAhead(t *testing.T) {
	order := &Order{Status: StatusNew}
	err := order.SetStatus(StatusReady, time.Now())

	var te *TransitionError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, StatusNew, te.From)
	assert.Equal(t, StatusReady, te.To)
	assert.Equal(t, StatusNew, order.Status)
}

func TestParseFulfillment(t *testing.T) {
	f, err := ParseFulfillment("dine-in", " A3 ", "XYZ")
	require.NoError(t, err)
	assert.Equal(t, DineIn{Table: "A3"}, f)
	assert.Equal(t, "", CarNumber(f))

	_, err = ParseFulfillment("dine-in", "  ", "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = ParseFulfillment("pickup", "", "12")
	assert.ErrorIs(t, err, ErrValidation)

	f, err = ParseFulfillment("pickup", "4", "ABC 123")
	require.NoError(t, err)
	assert.Equal(t, "ABC 123", CarNumber(f))
	assert.Equal(t, "", TableNumber(f))

	f, err = ParseFulfillment("delivery", "", "")
	require.NoError(t, err)
	assert.Equal(t, FulfillmentDelivery, f.Type())

	_, err = ParseFulfillment("drive-thru", "", "")
	assert.ErrorIs(t, err, ErrValidation)
}
