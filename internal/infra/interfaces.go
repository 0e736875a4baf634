package infra

import (
	"context"
	"encoding/json"
	"net/url"

	"storefront/internal/domain"
)

type CatalogAPI interface {
	ListProducts(ctx context.Context, query url.Values) (*domain.ProductPage, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	GetProductFilters(ctx context.Context) (json.RawMessage, error)
}

type CartAPI interface {
	GetCart(ctx context.Context, token string) (*domain.Cart, error)
	AddToCart(ctx context.Context, token string, productID int64, quantity int) (*AddToCartResult, error)
	QuickAdd(ctx context.Context, token string, productID int64) (*QuickAddResult, error)
	UpdateCartItem(ctx context.Context, token string, itemID int64, quantity int) (*UpdateCartItemResult, error)
	RemoveCartItem(ctx context.Context, token string, itemID int64) (*RemoveCartItemResult, error)
	ClearCart(ctx context.Context, token string) error
}

type OrderAPI interface {
	CreateOrder(ctx context.Context, token string, payload CreateOrderRequest) (*CreateOrderResult, error)
	ListOrders(ctx context.Context, token string, query url.Values) (*domain.OrderPage, error)
	GetOrder(ctx context.Context, token, orderID string) (*domain.Order, error)
	CancelOrder(ctx context.Context, token, orderID string) (*ActionResult, error)
	Reorder(ctx context.Context, token, orderID string) (*ReorderResult, error)
	GetInvoice(ctx context.Context, token, orderID string) (json.RawMessage, error)
}

type TransactionAPI interface {
	ListTransactions(ctx context.Context, token string, query url.Values) (*domain.Page[domain.Transaction], error)
	GetTransaction(ctx context.Context, token, transactionID string) (*domain.Transaction, error)
}

type AccountAPI interface {
	Login(ctx context.Context, creds domain.Credentials) (*domain.LoginResult, error)
	Signup(ctx context.Context, req domain.SignupRequest) (*domain.SignupResult, error)
	GetProfile(ctx context.Context, token string) (*domain.Profile, error)
	UpdateProfile(ctx context.Context, token string, profile domain.Profile) (*domain.Profile, error)
	GetDashboard(ctx context.Context, token string) (*domain.Dashboard, error)
}

// StoreAPI is the whole backend surface.
type StoreAPI interface {
	CatalogAPI
	CartAPI
	OrderAPI
	TransactionAPI
	AccountAPI
}

var _ StoreAPI = (*StoreClient)(nil)
