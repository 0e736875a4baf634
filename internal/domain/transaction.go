package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionPayment       TransactionType = "payment"
	TransactionRefund        TransactionType = "refund"
	TransactionPartialRefund TransactionType = "partial_refund"
)

// IsRefund covers both full and partial refunds; those render negative.
func (t TransactionType) IsRefund() bool {
	n := TransactionType(strings.ToLower(string(t)))
	return n == TransactionRefund || n == TransactionPartialRefund
}

type TransactionStatus string

const (
	TransactionCompleted  TransactionStatus = "completed"
	TransactionPending    TransactionStatus = "pending"
	TransactionProcessing TransactionStatus = "processing"
	TransactionFailed     TransactionStatus = "failed"
	TransactionCancelled  TransactionStatus = "cancelled"
)

type TransactionOrder struct {
	ID          int64           `json:"id,omitempty"`
	OrderID     string          `json:"order_id"`
	Status      string          `json:"status,omitempty"`
	TotalAmount decimal.Decimal `json:"total_amount,omitempty"`
}

// UnmarshalJSON accepts either the nested order object or a bare order
// reference (string or number).
func (o *TransactionOrder) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	switch trimmed[0] {
	case '{':
		type plain TransactionOrder
		var p plain
		if err := json.Unmarshal(trimmed, &p); err != nil {
			return err
		}
		*o = TransactionOrder(p)
		return nil
	case '"':
		var ref string
		if err := json.Unmarshal(trimmed, &ref); err != nil {
			return err
		}
		o.OrderID = ref
		return nil
	}
	id, err := strconv.ParseInt(string(trimmed), 10, 64)
	if err != nil {
		return err
	}
	o.ID = id
	o.OrderID = strconv.FormatInt(id, 10)
	return nil
}

type Transaction struct {
	ID                   int64             `json:"id"`
	TransactionID        string            `json:"transaction_id"`
	TransactionType      TransactionType   `json:"transaction_type"`
	Amount               decimal.Decimal   `json:"amount"`
	Currency             string            `json:"currency,omitempty"`
	Status               TransactionStatus `json:"status"`
	StatusDisplay        string            `json:"status_display,omitempty"`
	PaymentMethod        string            `json:"payment_method,omitempty"`
	PaymentMethodDisplay string            `json:"payment_method_display,omitempty"`
	MaskedPaymentInfo    any               `json:"masked_payment_info,omitempty"`
	Gateway              string            `json:"gateway,omitempty"`
	GatewayTransactionID string            `json:"gateway_transaction_id,omitempty"`
	FailureReason        string            `json:"failure_reason,omitempty"`
	IsSuccessful         bool              `json:"is_successful,omitempty"`
	Order                *TransactionOrder `json:"order,omitempty"`
	CreatedAt            string            `json:"created_at,omitempty"`
	ProcessedAt          string            `json:"processed_at,omitempty"`
}
