package infra

import (
	"context"
	"net/http"

	"storefront/internal/domain"

	"github.com/shopspring/decimal"
)

type AddToCartResult struct {
	Message string             `json:"message"`
	Cart    domain.CartSummary `json:"cart"`
}

type QuickAddResult struct {
	Message     string             `json:"message"`
	CartSummary domain.CartSummary `json:"cart_summary"`
}

type UpdatedCartItem struct {
	ID       int64           `json:"id"`
	Quantity int             `json:"quantity"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

type UpdateCartItemResult struct {
	Message     string             `json:"message"`
	Item        UpdatedCartItem    `json:"item"`
	CartSummary domain.CartSummary `json:"cart_summary"`
}

type RemoveCartItemResult struct {
	Message     string             `json:"message"`
	CartSummary domain.CartSummary `json:"cart_summary"`
}

func (c *StoreClient) GetCart(ctx context.Context, token string) (*domain.Cart, error) {
	var cart domain.Cart
	err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     "/api/cart/",
		endpoint: "cart.get",
		token:    token,
	}, &cart)
	if err != nil {
		return nil, err
	}
	if cart.Items == nil {
		cart.Items = []domain.CartItem{}
	}
	return &cart, nil
}

func (c *StoreClient) AddToCart(ctx context.Context, token string, productID int64, quantity int) (*AddToCartResult, error) {
	var out AddToCartResult
	err := c.do(ctx, request{
		method:   http.MethodPost,
		path:     "/api/cart/add/",
		endpoint: "cart.add",
		token:    token,
		body: map[string]any{
			"product_id": productID,
			"quantity":   quantity,
		},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *StoreClient) QuickAdd(ctx context.Context, token string, productID int64) (*QuickAddResult, error) {
	var out QuickAddResult
	err := c.do(ctx, request{
		method:   http.MethodPost,
		path:     pathID("/api/cart/quick-add/%s/", productID),
		endpoint: "cart.quick_add",
		token:    token,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *StoreClient) UpdateCartItem(ctx context.Context, token string, itemID int64, quantity int) (*UpdateCartItemResult, error) {
	var out UpdateCartItemResult
	err := c.do(ctx, request{
		method:   http.MethodPut,
		path:     pathID("/api/cart/items/%s/", itemID),
		endpoint: "cart.update_item",
		token:    token,
		body:     map[string]int{"quantity": quantity},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *StoreClient) RemoveCartItem(ctx context.Context, token string, itemID int64) (*RemoveCartItemResult, error) {
	var out RemoveCartItemResult
	err := c.do(ctx, request{
		method:   http.MethodDelete,
		path:     pathID("/api/cart/items/%s/remove/", itemID),
		endpoint: "cart.remove_item",
		token:    token,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *StoreClient) ClearCart(ctx context.Context, token string) error {
	return c.do(ctx, request{
		method:   http.MethodDelete,
		path:     "/api/cart/clear/",
		endpoint: "cart.clear",
		token:    token,
	}, nil)
}
