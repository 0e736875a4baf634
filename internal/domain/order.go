package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusConfirmed  OrderStatus = "confirmed"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
	StatusRefunded   OrderStatus = "refunded"
)

// orderProgress is the forward path; cancelled and refunded sit off it.
var orderProgress = []OrderStatus{
	StatusPending,
	StatusConfirmed,
	StatusProcessing,
	StatusShipped,
	StatusDelivered,
}

func (s OrderStatus) normalized() OrderStatus {
	return OrderStatus(strings.ToLower(strings.TrimSpace(string(s))))
}

func (s OrderStatus) IsValid() bool {
	switch s.normalized() {
	case StatusPending, StatusConfirmed, StatusProcessing, StatusShipped,
		StatusDelivered, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

// CanCancel is true only before processing starts.
func (s OrderStatus) CanCancel() bool {
	n := s.normalized()
	return n == StatusPending || n == StatusConfirmed
}

func (s OrderStatus) IsTerminal() bool {
	n := s.normalized()
	return n == StatusDelivered || n == StatusCancelled || n == StatusRefunded
}

// Step is the 1-based position on the forward path, 0 for side states.
func (s OrderStatus) Step() int {
	n := s.normalized()
	for i, st := range orderProgress {
		if st == n {
			return i + 1
		}
	}
	return 0
}

func (s OrderStatus) Label() string {
	n := string(s.normalized())
	if n == "" {
		return "Unknown"
	}
	return strings.ToUpper(n[:1]) + n[1:]
}

type StatusHistoryEntry struct {
	ID            int64       `json:"id"`
	Status        OrderStatus `json:"status"`
	StatusDisplay string      `json:"status_display,omitempty"`
	Notes         string      `json:"notes,omitempty"`
	ChangedByName string      `json:"changed_by_name,omitempty"`
	CreatedAt     string      `json:"created_at"`
}

type OrderItem struct {
	ID           int64           `json:"id,omitempty"`
	ProductID    int64           `json:"product_id,omitempty"`
	ProductName  string          `json:"product_name"`
	ProductImage string          `json:"product_image,omitempty"`
	ProductSKU   string          `json:"product_sku,omitempty"`
	Variant      *Variant        `json:"variant,omitempty"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	TotalPrice   decimal.Decimal `json:"total_price"`
}

type Order struct {
	ID                    int64                `json:"id"`
	OrderID               string               `json:"order_id"`
	Status                OrderStatus          `json:"status"`
	StatusDisplay         string               `json:"status_display,omitempty"`
	PaymentStatus         string               `json:"payment_status,omitempty"`
	PaymentStatusDisplay  string               `json:"payment_status_display,omitempty"`
	CustomerName          string               `json:"customer_name,omitempty"`
	CustomerEmail         string               `json:"customer_email,omitempty"`
	CustomerPhone         string               `json:"customer_phone,omitempty"`
	ShippingFirstName     string               `json:"shipping_first_name,omitempty"`
	ShippingLastName      string               `json:"shipping_last_name,omitempty"`
	ShippingAddressLine1  string               `json:"shipping_address_line_1,omitempty"`
	ShippingCity          string               `json:"shipping_city,omitempty"`
	ShippingState         string               `json:"shipping_state,omitempty"`
	ShippingPostalCode    string               `json:"shipping_postal_code,omitempty"`
	FullShippingAddress   string               `json:"full_shipping_address,omitempty"`
	ShippingMethod        string               `json:"shipping_method,omitempty"`
	ShippingCost          decimal.Decimal      `json:"shipping_cost"`
	IsFreeShipping        bool                 `json:"is_free_shipping,omitempty"`
	Subtotal              decimal.Decimal      `json:"subtotal"`
	TaxAmount             decimal.Decimal      `json:"tax_amount"`
	TotalAmount           decimal.Decimal      `json:"total_amount"`
	ItemCount             int                  `json:"item_count,omitempty"`
	TotalItems            int                  `json:"total_items,omitempty"`
	Items                 []OrderItem          `json:"items,omitempty"`
	TrackingNumber        string               `json:"tracking_number,omitempty"`
	EstimatedDeliveryDate string               `json:"estimated_delivery_date,omitempty"`
	IsDeliveryOverdue     bool                 `json:"is_delivery_overdue,omitempty"`
	Notes                 string               `json:"notes,omitempty"`
	StatusHistory         []StatusHistoryEntry `json:"status_history,omitempty"`
	Transaction           *Transaction         `json:"transaction,omitempty"`
	CreatedAt             string               `json:"created_at,omitempty"`
}

// OrderStats is the backend's overall_stats block on the order list.
type OrderStats struct {
	TotalOrders     int             `json:"total_orders"`
	PendingOrders   int             `json:"pending_orders"`
	DeliveredOrders int             `json:"delivered_orders"`
	CancelledOrders int             `json:"cancelled_orders"`
	TotalSpent      decimal.Decimal `json:"total_spent"`
}

type OrderPage struct {
	Page[Order]
	OverallStats *OrderStats `json:"overall_stats,omitempty"`
}
