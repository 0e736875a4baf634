package infra

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"storefront/internal/domain"
)

func (c *StoreClient) ListProducts(ctx context.Context, query url.Values) (*domain.ProductPage, error) {
	var page domain.ProductPage
	err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     "/api/products/products/",
		endpoint: "products.list",
		query:    query,
	}, &page)
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// GetProduct returns nil, nil when the product does not exist.
func (c *StoreClient) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	var p domain.Product
	err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     pathID("/api/products/products/%s/", id),
		endpoint: "products.detail",
	}, &p)
	if apiErr, ok := AsAPIError(err); ok && apiErr.NotFound() {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *StoreClient) GetProductFilters(ctx context.Context) (json.RawMessage, error) {
	var raw json.RawMessage
	err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     "/api/products/filters/",
		endpoint: "products.filters",
	}, &raw)
	return raw, err
}
