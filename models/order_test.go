package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOrderStatus(t *testing.T) {
	for in, want := range map[string]OrderStatus{
		"pending":    OrderStatusPending,
		"PROCESSING": OrderStatusProcessing,
		" shipped ":  OrderStatusShipped,
		"Delivered":  OrderStatusDelivered,
	} {
		got, err := ParseOrderStatus(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	for _, in := range []string{"", "cancelled", "returned", "confirmed"} {
		_, err := ParseOrderStatus(in)
		assert.ErrorIs(t, err, ErrUnknownStatus, in)
	}
}

func TestCanAdvanceTo(t *testing.T) {
	all := []OrderStatus{OrderStatusPending, OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered}
	for i, from := range all {
		for j, to := range all {
			assert.Equal(t, j > i, from.CanAdvanceTo(to), "%s -> %s", from, to)
		}
		assert.False(t, from.CanAdvanceTo("lost"))
	}
	assert.False(t, OrderStatus("lost").CanAdvanceTo(OrderStatusDelivered))
	assert.True(t, OrderStatusDelivered.Final())
	assert.False(t, OrderStatusShipped.Final())
}

func TestOrderLinesTotal(t *testing.T) {
	o := Order{Lines: []OrderLine{
		{Quantity: 2, UnitPrice: decimal.RequireFromString("3.00")},
		{Quantity: 1, UnitPrice: decimal.RequireFromString("5.00")},
	}}
	assert.True(t, o.LinesTotal().Equal(decimal.RequireFromString("11")))
}
