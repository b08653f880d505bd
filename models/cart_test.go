package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCartRecalculate(t *testing.T) {
	c := Cart{Items: []CartItem{
		{ID: "1", BeerID: "a", Quantity: 2, UnitPrice: decimal.RequireFromString("3.00")},
		{ID: "2", BeerID: "b", Quantity: 1, UnitPrice: decimal.RequireFromString("5.00")},
	}}
	c.Recalculate()
	assert.Equal(t, "11", c.TotalPrice.String())

	assert.False(t, c.RemoveItem("missing"))
	assert.True(t, c.RemoveItem("1"))
	c.Recalculate()
	assert.Equal(t, "5", c.TotalPrice.String())

	_, ok := c.ItemForBeer("a")
	assert.False(t, ok)
	item, ok := c.Item("2")
	assert.True(t, ok)
	assert.Equal(t, "b", item.BeerID)
}

func TestCartClear(t *testing.T) {
	c := Cart{Items: []CartItem{{ID: "1", Quantity: 1, UnitPrice: decimal.NewFromInt(4)}}}
	c.Recalculate()
	c.Clear()

	assert.True(t, c.Empty())
	assert.NotNil(t, c.Items)
	assert.True(t, c.TotalPrice.IsZero())
}

func TestBeerInStock(t *testing.T) {
	b := Beer{Quantity: 3}
	assert.True(t, b.InStock(3))
	assert.False(t, b.InStock(4))
	assert.False(t, b.InStock(0))
}
