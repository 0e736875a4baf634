package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderSource string

const (
	SourceCart   OrderSource = "cart"
	SourceBuyNow OrderSource = "buy_now"
)

// NotesLabel is the wording used in the order notes.
func (s OrderSource) NotesLabel() string {
	if s == SourceBuyNow {
		return "Buy Now"
	}
	return "Cart"
}

// OrderReceipt is the gateway's local record of a confirmed checkout, used to
// render the confirmation banner after the redirect.
type OrderReceipt struct {
	ID                uint64          `json:"-" gorm:"primaryKey;autoIncrement"`
	OrderID           string          `json:"order_id" gorm:"size:64;not null;uniqueIndex"`
	SessionID         string          `json:"-" gorm:"size:64;index"`
	CustomerEmail     string          `json:"customer_email" gorm:"size:255"`
	Source            OrderSource     `json:"source" gorm:"size:16;not null"`
	ShippingMethod    string          `json:"shipping_method" gorm:"size:64"`
	ItemCount         int             `json:"item_count"`
	Subtotal          decimal.Decimal `json:"subtotal" gorm:"type:decimal(12,2)"`
	ShippingCost      decimal.Decimal `json:"shipping_cost" gorm:"type:decimal(12,2)"`
	TaxAmount         decimal.Decimal `json:"tax_amount" gorm:"type:decimal(12,2)"`
	TotalAmount       decimal.Decimal `json:"total_amount" gorm:"type:decimal(12,2)"`
	EstimatedDelivery string          `json:"estimated_delivery" gorm:"size:32"`
	CreatedAt         time.Time       `json:"created_at" gorm:"autoCreateTime"`
}
