package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderStatus(t *testing.T) {
	tests := []struct {
		status    OrderStatus
		valid     bool
		canCancel bool
		step      int
		terminal  bool
		label     string
	}{
		{StatusPending, true, true, 1, false, "Pending"},
		{"Confirmed", true, true, 2, false, "Confirmed"},
		{StatusProcessing, true, false, 3, false, "Processing"},
		{StatusShipped, true, false, 4, false, "Shipped"},
		{StatusDelivered, true, false, 5, true, "Delivered"},
		{StatusCancelled, true, false, 0, true, "Cancelled"},
		{StatusRefunded, true, false, 0, true, "Refunded"},
		{"lost", false, false, 0, false, "Lost"},
		{"", false, false, 0, false, "Unknown"},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.status.IsValid())
			assert.Equal(t, tt.canCancel, tt.status.CanCancel())
			assert.Equal(t, tt.step, tt.status.Step())
			assert.Equal(t, tt.terminal, tt.status.IsTerminal())
			assert.Equal(t, tt.label, tt.status.Label())
		})
	}
}

func TestTransactionType_IsRefund(t *testing.T) {
	assert.True(t, TransactionRefund.IsRefund())
	assert.True(t, TransactionType("PARTIAL_REFUND").IsRefund())
	assert.False(t, TransactionPayment.IsRefund())
}

func TestOrderSource_NotesLabel(t *testing.T) {
	assert.Equal(t, "Buy Now", SourceBuyNow.NotesLabel())
	assert.Equal(t, "Cart", SourceCart.NotesLabel())
}

func TestTransactionOrder_AcceptsReferenceOrObject(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		orderID string
		id      int64
	}{
		{"object", `{"order":{"id":7,"order_id":"ORD-7","status":"shipped"}}`, "ORD-7", 7},
		{"string reference", `{"order":"ORD-9"}`, "ORD-9", 0},
		{"numeric reference", `{"order":12}`, "12", 12},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tx Transaction
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &tx))
			require.NotNil(t, tx.Order)
			assert.Equal(t, tt.orderID, tx.Order.OrderID)
			assert.Equal(t, tt.id, tx.Order.ID)
		})
	}
}
