package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCart_DecodeBackendPayload(t *testing.T) {
	raw := `{
		"id": 3,
		"items": [
			{"id": 10, "product": {"id": 1, "name": "Desk Lamp"}, "quantity": 2,
			 "price_when_added": "40.00", "current_price": 42.5, "price_changed": true, "subtotal": "80.00"}
		],
		"total_items": 2, "total_price": "80.00", "item_count": 1
	}`

	var cart Cart
	require.NoError(t, json.Unmarshal([]byte(raw), &cart))
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "Desk Lamp", cart.Items[0].Product.Name)
	assert.True(t, decimal.RequireFromString("42.5").Equal(cart.Items[0].CurrentPrice))
	assert.True(t, decimal.RequireFromString("80").Equal(cart.ComputedSubtotal()))
	assert.Equal(t, 2, cart.BadgeCount())
}

func TestCart_RemoveAndApplySummary(t *testing.T) {
	cart := &Cart{
		Items: []CartItem{
			{ID: 1, Quantity: 1, PriceWhenAdded: decimal.NewFromInt(5)},
			{ID: 2, Quantity: 3, PriceWhenAdded: decimal.NewFromInt(2)},
		},
		TotalItems: 4,
		ItemCount:  2,
	}

	assert.False(t, cart.RemoveItem(99))
	assert.True(t, cart.RemoveItem(1))
	cart.ApplySummary(CartSummary{TotalItems: 3, TotalPrice: decimal.NewFromInt(6)})
	assert.Equal(t, 3, cart.TotalItems)
	assert.Equal(t, 2, cart.ItemCount, "missing item_count keeps previous value")

	assert.True(t, cart.RemoveItem(2))
	cart.ApplySummary(CartSummary{TotalItems: 0, TotalPrice: decimal.Zero})
	assert.True(t, cart.IsEmpty())
	assert.Equal(t, 0, cart.ItemCount)
}

func TestCart_BadgeCountTreatsMissingQuantityAsOne(t *testing.T) {
	cart := &Cart{Items: []CartItem{{ID: 1}, {ID: 2, Quantity: 4}}}
	assert.Equal(t, 5, cart.BadgeCount())

	assert.Equal(t, 5, cart.HeaderCount(), "total_items missing")
	cart.TotalItems = 7
	assert.Equal(t, 7, cart.HeaderCount(), "server total wins")

	var nilCart *Cart
	assert.Equal(t, 0, nilCart.BadgeCount())
	assert.Equal(t, 0, nilCart.HeaderCount())
	assert.True(t, nilCart.IsEmpty())
}
