package mocks

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	"storefront/internal/domain"
	"storefront/internal/infra"

	"github.com/stretchr/testify/mock"
)

type MockStoreAPI struct {
	mock.Mock
}

type MockReceiptRepository struct {
	mock.Mock
}

type MockPublisher struct {
	mock.Mock
}

type MockProductCache struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, message any) error {
	args := m.Called(ctx, topic, message)
	return args.Error(0)
}

func (m *MockStoreAPI) ListProducts(ctx context.Context, query url.Values) (*domain.ProductPage, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProductPage), args.Error(1)
}

func (m *MockStoreAPI) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockStoreAPI) GetProductFilters(ctx context.Context) (json.RawMessage, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

func (m *MockStoreAPI) GetCart(ctx context.Context, token string) (*domain.Cart, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Cart), args.Error(1)
}

func (m *MockStoreAPI) AddToCart(ctx context.Context, token string, productID int64, quantity int) (*infra.AddToCartResult, error) {
	args := m.Called(ctx, token, productID, quantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*infra.AddToCartResult), args.Error(1)
}

func (m *MockStoreAPI) QuickAdd(ctx context.Context, token string, productID int64) (*infra.QuickAddResult, error) {
	args := m.Called(ctx, token, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*infra.QuickAddResult), args.Error(1)
}

func (m *MockStoreAPI) UpdateCartItem(ctx context.Context, token string, itemID int64, quantity int) (*infra.UpdateCartItemResult, error) {
	args := m.Called(ctx, token, itemID, quantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*infra.UpdateCartItemResult), args.Error(1)
}

func (m *MockStoreAPI) RemoveCartItem(ctx context.Context, token string, itemID int64) (*infra.RemoveCartItemResult, error) {
	args := m.Called(ctx, token, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*infra.RemoveCartItemResult), args.Error(1)
}

func (m *MockStoreAPI) ClearCart(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockStoreAPI) CreateOrder(ctx context.Context, token string, payload infra.CreateOrderRequest) (*infra.CreateOrderResult, error) {
	args := m.Called(ctx, token, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*infra.CreateOrderResult), args.Error(1)
}

func (m *MockStoreAPI) ListOrders(ctx context.Context, token string, query url.Values) (*domain.OrderPage, error) {
	args := m.Called(ctx, token, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OrderPage), args.Error(1)
}

func (m *MockStoreAPI) GetOrder(ctx context.Context, token, orderID string) (*domain.Order, error) {
	args := m.Called(ctx, token, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockStoreAPI) CancelOrder(ctx context.Context, token, orderID string) (*infra.ActionResult, error) {
	args := m.Called(ctx, token, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*infra.ActionResult), args.Error(1)
}

func (m *MockStoreAPI) Reorder(ctx context.Context, token, orderID string) (*infra.ReorderResult, error) {
	args := m.Called(ctx, token, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*infra.ReorderResult), args.Error(1)
}

func (m *MockStoreAPI) GetInvoice(ctx context.Context, token, orderID string) (json.RawMessage, error) {
	args := m.Called(ctx, token, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

func (m *MockStoreAPI) ListTransactions(ctx context.Context, token string, query url.Values) (*domain.Page[domain.Transaction], error) {
	args := m.Called(ctx, token, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Page[domain.Transaction]), args.Error(1)
}

func (m *MockStoreAPI) GetTransaction(ctx context.Context, token, transactionID string) (*domain.Transaction, error) {
	args := m.Called(ctx, token, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockStoreAPI) Login(ctx context.Context, creds domain.Credentials) (*domain.LoginResult, error) {
	args := m.Called(ctx, creds)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LoginResult), args.Error(1)
}

func (m *MockStoreAPI) Signup(ctx context.Context, req domain.SignupRequest) (*domain.SignupResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SignupResult), args.Error(1)
}

func (m *MockStoreAPI) GetProfile(ctx context.Context, token string) (*domain.Profile, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Profile), args.Error(1)
}

func (m *MockStoreAPI) UpdateProfile(ctx context.Context, token string, profile domain.Profile) (*domain.Profile, error) {
	args := m.Called(ctx, token, profile)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Profile), args.Error(1)
}

func (m *MockStoreAPI) GetDashboard(ctx context.Context, token string) (*domain.Dashboard, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Dashboard), args.Error(1)
}

func (m *MockReceiptRepository) Save(ctx context.Context, receipt *domain.OrderReceipt) error {
	args := m.Called(ctx, receipt)
	return args.Error(0)
}

func (m *MockReceiptRepository) FindByOrderID(ctx context.Context, orderID string) (*domain.OrderReceipt, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OrderReceipt), args.Error(1)
}

func (m *MockReceiptRepository) ListBySession(ctx context.Context, sessionID string, limit int) ([]domain.OrderReceipt, error) {
	args := m.Called(ctx, sessionID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.OrderReceipt), args.Error(1)
}

func (m *MockProductCache) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockProductCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockProductCache) ProductKey(id int64) string {
	args := m.Called(id)
	return args.String(0)
}
