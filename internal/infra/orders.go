package infra

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"storefront/internal/domain"

	"github.com/shopspring/decimal"
)

type OrderLine struct {
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type PaymentInfo struct {
	CardNumber string `json:"card_number"`
	Expiry     string `json:"expiry"`
	CVV        string `json:"cvv"`
}

// CreateOrderRequest is the body of POST /api/orders/create/.
type CreateOrderRequest struct {
	Items                 []OrderLine `json:"items"`
	CustomerEmail         string      `json:"customer_email"`
	CustomerPhone         string      `json:"customer_phone"`
	ShippingFirstName     string      `json:"shipping_first_name"`
	ShippingLastName      string      `json:"shipping_last_name"`
	ShippingAddressLine1  string      `json:"shipping_address_line_1"`
	ShippingCity          string      `json:"shipping_city"`
	ShippingState         string      `json:"shipping_state"`
	ShippingPostalCode    string      `json:"shipping_postal_code"`
	ShippingCountry       string      `json:"shipping_country"`
	BillingSameAsShipping bool        `json:"billing_same_as_shipping"`
	ShippingMethod        string      `json:"shipping_method"`
	ShippingCost          string      `json:"shipping_cost"`
	Notes                 string      `json:"notes"`
	Subtotal              string      `json:"subtotal"`
	TaxAmount             string      `json:"tax_amount"`
	TotalAmount           string      `json:"total_amount"`
	DeliveryInstructions  string      `json:"delivery_instructions"`
	EstimatedDelivery     string      `json:"estimated_delivery"`
	PaymentInfo           PaymentInfo `json:"payment_info"`
}

type CreateOrderResult struct {
	Success bool          `json:"success"`
	OrderID string        `json:"order_id"`
	Message string        `json:"message"`
	Order   *domain.Order `json:"order,omitempty"`
}

type ActionResult struct {
	Message string `json:"message"`
}

type ReorderResult struct {
	Message          string            `json:"message"`
	AvailableItems   []json.RawMessage `json:"available_items"`
	UnavailableItems []json.RawMessage `json:"unavailable_items,omitempty"`
}

// CreateOrder posts the order. A 2xx answer without success=true is returned
// as an *APIError so callers read the same failure fields either way.
func (c *StoreClient) CreateOrder(ctx context.Context, token string, payload CreateOrderRequest) (*CreateOrderResult, error) {
	var raw json.RawMessage
	err := c.do(ctx, request{
		method:   http.MethodPost,
		path:     "/api/orders/create/",
		endpoint: "orders.create",
		token:    token,
		body:     payload,
	}, &raw)
	if err != nil {
		return nil, err
	}
	var out CreateOrderResult
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, err
		}
	}
	if !out.Success {
		return nil, &APIError{Endpoint: "orders.create", Status: http.StatusOK, Body: raw}
	}
	return &out, nil
}

func (c *StoreClient) ListOrders(ctx context.Context, token string, query url.Values) (*domain.OrderPage, error) {
	var page domain.OrderPage
	err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     "/api/orders/list/",
		endpoint: "orders.list",
		token:    token,
		query:    query,
	}, &page)
	if err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *StoreClient) GetOrder(ctx context.Context, token, orderID string) (*domain.Order, error) {
	var out struct {
		Order *domain.Order `json:"order"`
	}
	err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     pathID("/api/orders/detail/%s/", orderID),
		endpoint: "orders.detail",
		token:    token,
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.Order == nil {
		return nil, &APIError{Endpoint: "orders.detail", Status: http.StatusNotFound}
	}
	return out.Order, nil
}

func (c *StoreClient) CancelOrder(ctx context.Context, token, orderID string) (*ActionResult, error) {
	var out ActionResult
	err := c.do(ctx, request{
		method:   http.MethodPatch,
		path:     pathID("/api/orders/cancel/%s/", orderID),
		endpoint: "orders.cancel",
		token:    token,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *StoreClient) Reorder(ctx context.Context, token, orderID string) (*ReorderResult, error) {
	var out ReorderResult
	err := c.do(ctx, request{
		method:   http.MethodPost,
		path:     pathID("/api/orders/reorder/%s/", orderID),
		endpoint: "orders.reorder",
		token:    token,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *StoreClient) GetInvoice(ctx context.Context, token, orderID string) (json.RawMessage, error) {
	var raw json.RawMessage
	err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     pathID("/api/orders/invoice/%s/", orderID),
		endpoint: "orders.invoice",
		token:    token,
	}, &raw)
	return raw, err
}

func (c *StoreClient) ListTransactions(ctx context.Context, token string, query url.Values) (*domain.Page[domain.Transaction], error) {
	var page domain.Page[domain.Transaction]
	err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     "/api/orders/transactions/",
		endpoint: "transactions.list",
		token:    token,
		query:    query,
	}, &page)
	if err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *StoreClient) GetTransaction(ctx context.Context, token, transactionID string) (*domain.Transaction, error) {
	var tx domain.Transaction
	err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     pathID("/api/orders/transactions/%s/", transactionID),
		endpoint: "transactions.detail",
		token:    token,
	}, &tx)
	if err != nil {
		return nil, err
	}
	return &tx, nil
}
