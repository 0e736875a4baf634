package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"testing"

	"storefront/internal/domain"
	"storefront/internal/mocks"
	pkgerrors "storefront/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestProductQuery_ActiveFilters(t *testing.T) {
	assert.Equal(t, 0, ProductQuery{}.ActiveFilters())
	assert.Equal(t, 2, ProductQuery{Search: "lamp", MinPrice: "10", MaxPrice: "20"}.ActiveFilters())
	assert.Equal(t, 4, ProductQuery{Search: "a", Category: "b", Brand: "c", MaxPrice: "5"}.ActiveFilters())
}

func TestCatalogService_List(t *testing.T) {
	api := new(mocks.MockStoreAPI)
	svc := NewCatalogService(api, nil, nil)

	want := url.Values{"page": {"1"}, "ordering": {"-created_at"}, "category": {"3"}}
	api.On("ListProducts", mock.Anything, want).Return(&domain.ProductPage{
		Page:    domain.Page[domain.Product]{Count: 25, Results: []domain.Product{*CreateMockProduct(1, "Lamp", "10.00", true)}},
		Filters: json.RawMessage(`{"categories":[]}`),
	}, nil)

	list, err := svc.List(context.Background(), ProductQuery{Category: "3"})
	require.NoError(t, err)
	assert.Equal(t, 3, list.TotalPages)
	assert.Equal(t, 1, list.ActiveFilters)
	assert.JSONEq(t, `{"categories":[]}`, string(list.Filters))
	api.AssertExpectations(t)
}

func TestCatalogService_GetWithCache(t *testing.T) {
	ctx := context.Background()
	key := "sf:product:1"

	t.Run("miss populates cache", func(t *testing.T) {
		api := new(mocks.MockStoreAPI)
		cache := new(mocks.MockProductCache)
		svc := NewCatalogService(api, nil, nil)
		svc.SetRedisClient(cache, 0)

		cache.On("ProductKey", int64(1)).Return(key)
		cache.On("Get", mock.Anything, key).Return("", errors.New("redis: key not found"))
		api.On("GetProduct", mock.Anything, int64(1)).Return(CreateMockProduct(1, "Lamp", "10.00", true), nil)
		cache.On("Set", mock.Anything, key, mock.Anything, svc.cacheTTL).Return(nil)

		p, err := svc.Get(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "Lamp", p.Name)
		cache.AssertExpectations(t)
	})

	t.Run("hit skips backend", func(t *testing.T) {
		api := new(mocks.MockStoreAPI)
		cache := new(mocks.MockProductCache)
		svc := NewCatalogService(api, nil, nil)
		svc.SetRedisClient(cache, 0)

		cache.On("ProductKey", int64(1)).Return(key)
		cache.On("Get", mock.Anything, key).Return(`{"id":1,"name":"Cached Lamp","price":"10"}`, nil)

		p, err := svc.Get(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "Cached Lamp", p.Name)
		api.AssertNotCalled(t, "GetProduct", mock.Anything, mock.Anything)
	})

	t.Run("not found", func(t *testing.T) {
		api := new(mocks.MockStoreAPI)
		svc := NewCatalogService(api, nil, nil)
		api.On("GetProduct", mock.Anything, int64(2)).Return(nil, nil)

		_, err := svc.Get(ctx, 2)
		typed := pkgerrors.As(err)
		require.NotNil(t, typed)
		assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
		assert.Equal(t, "Product not found", typed.Message())
	})
}

func TestCatalogService_WarmupProductCache(t *testing.T) {
	api := new(mocks.MockStoreAPI)
	cache := new(mocks.MockProductCache)
	svc := NewCatalogService(api, nil, nil)
	svc.SetRedisClient(cache, 0)

	api.On("GetProduct", mock.Anything, int64(1)).Return(CreateMockProduct(1, "Lamp", "10.00", true), nil)
	api.On("GetProduct", mock.Anything, int64(2)).Return(nil, networkError())
	api.On("GetProduct", mock.Anything, int64(3)).Return(nil, nil)
	cache.On("ProductKey", int64(1)).Return("sf:product:1")
	cache.On("Set", mock.Anything, "sf:product:1", mock.Anything, svc.cacheTTL).Return(nil).Once()

	err := svc.WarmupProductCache(context.Background(), []int64{1, 2, 3})
	assert.NoError(t, err)
	cache.AssertExpectations(t)
	api.AssertExpectations(t)
}

func TestBuyNowLink(t *testing.T) {
	assert.Equal(t, "/Pages/checkout?product=5&quantity=2", BuyNowLink(5, 2))
	assert.Equal(t, "/Pages/checkout?product=5&quantity=1", BuyNowLink(5, 0))
}
