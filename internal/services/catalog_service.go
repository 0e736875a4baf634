package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"storefront/internal/domain"
	"storefront/internal/infra"
	"storefront/internal/metrics"
	pkgerrors "storefront/pkg/errors"
	"storefront/pkg/logger"
)

const (
	ProductPageSize        = 12
	DefaultProductOrdering = "-created_at"
	ShopPath               = "/Pages/shop"
	CheckoutPath           = "/Pages/checkout"
)

// productCache is the subset of the redis client used for cache-aside.
type productCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	ProductKey(id int64) string
}

type ProductQuery struct {
	Page     int    `form:"page"`
	Ordering string `form:"ordering"`
	Search   string `form:"search"`
	Category string `form:"category"`
	Brand    string `form:"brand"`
	MinPrice string `form:"min_price"`
	MaxPrice string `form:"max_price"`
}

// ActiveFilters counts the filters the shop sidebar shows as applied. A price
// range counts once.
func (q ProductQuery) ActiveFilters() int {
	n := 0
	for _, v := range []string{q.Search, q.Category, q.Brand} {
		if strings.TrimSpace(v) != "" {
			n++
		}
	}
	if strings.TrimSpace(q.MinPrice) != "" || strings.TrimSpace(q.MaxPrice) != "" {
		n++
	}
	return n
}

func (q ProductQuery) values() url.Values {
	v := url.Values{}
	page := q.Page
	if page < 1 {
		page = 1
	}
	v.Set("page", strconv.Itoa(page))
	ordering := strings.TrimSpace(q.Ordering)
	if ordering == "" {
		ordering = DefaultProductOrdering
	}
	v.Set("ordering", ordering)
	setIfPresent(v, "search", q.Search)
	setIfPresent(v, "category", q.Category)
	setIfPresent(v, "brand", q.Brand)
	setIfPresent(v, "min_price", q.MinPrice)
	setIfPresent(v, "max_price", q.MaxPrice)
	return v
}

type ProductList struct {
	Products      []domain.Product `json:"products"`
	Count         int              `json:"count"`
	Page          int              `json:"page"`
	TotalPages    int              `json:"total_pages"`
	Filters       json.RawMessage  `json:"filters,omitempty"`
	ActiveFilters int              `json:"active_filters"`
}

type CatalogService struct {
	api      infra.CatalogAPI
	cache    productCache
	cacheTTL time.Duration
	metrics  *metrics.Metrics
	logg     *logger.Logger
}

func NewCatalogService(api infra.CatalogAPI, m *metrics.Metrics, logg *logger.Logger) *CatalogService {
	if logg == nil {
		logg = logger.Nop()
	}
	return &CatalogService{api: api, metrics: m, logg: logg, cacheTTL: 5 * time.Minute}
}

// SetRedisClient enables the product cache.
func (s *CatalogService) SetRedisClient(client productCache, ttl time.Duration) {
	s.cache = client
	if ttl > 0 {
		s.cacheTTL = ttl
	}
}

func (s *CatalogService) List(ctx context.Context, q ProductQuery) (*ProductList, error) {
	page, err := s.api.ListProducts(ctx, q.values())
	if err != nil {
		return nil, publicError(err, "Failed to load products")
	}
	current := q.Page
	if current < 1 {
		current = 1
	}
	results := page.Results
	if results == nil {
		results = []domain.Product{}
	}
	return &ProductList{
		Products:      results,
		Count:         page.Count,
		Page:          current,
		TotalPages:    totalPages(page.Count, ProductPageSize),
		Filters:       page.Filters,
		ActiveFilters: q.ActiveFilters(),
	}, nil
}

func (s *CatalogService) Get(ctx context.Context, id int64) (*domain.Product, error) {
	p, err := s.getProductWithCache(ctx, id)
	if err != nil {
		return nil, publicError(err, "Failed to load product")
	}
	if p == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Product not found").WithRedirect(ShopPath)
	}
	return p, nil
}

func (s *CatalogService) Filters(ctx context.Context) (json.RawMessage, error) {
	raw, err := s.api.GetProductFilters(ctx)
	if err != nil {
		return nil, publicError(err, "Failed to load filters")
	}
	return raw, nil
}

// BuyNowLink is the checkout URL for a single product.
func BuyNowLink(productID int64, quantity int) string {
	if quantity < 1 {
		quantity = 1
	}
	return fmt.Sprintf("%s?product=%d&quantity=%d", CheckoutPath, productID, quantity)
}

func (s *CatalogService) getProductWithCache(ctx context.Context, id int64) (*domain.Product, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, s.cache.ProductKey(id))
		if err == nil {
			var p domain.Product
			if jsonErr := json.Unmarshal([]byte(cached), &p); jsonErr == nil {
				s.metrics.CacheHit()
				return &p, nil
			}
		}
		s.metrics.CacheMiss()
	}

	p, err := s.api.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil && p != nil {
		s.store(ctx, p)
	}
	return p, nil
}

func (s *CatalogService) store(ctx context.Context, p *domain.Product) {
	data, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, s.cache.ProductKey(p.ID), data, s.cacheTTL); err != nil {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"product_id": p.ID, "error": err.Error()}), "catalog.cache_set_failed")
	}
}

// WarmupProductCache preloads products; per-id failures are logged and skipped.
func (s *CatalogService) WarmupProductCache(ctx context.Context, ids []int64) error {
	if s.cache == nil {
		return nil
	}

	warmed := 0
	for _, id := range ids {
		p, err := s.api.GetProduct(ctx, id)
		if err != nil {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"product_id": id, "error": err.Error()}), "catalog.warmup_failed")
			continue
		}
		if p != nil {
			s.store(ctx, p)
			warmed++
		}
	}
	s.logg.Info(s.logg.WithField(ctx, "warmed", warmed), "catalog.warmup_complete")
	return nil
}

func totalPages(count, size int) int {
	if count <= 0 || size <= 0 {
		return 1
	}
	return int(math.Ceil(float64(count) / float64(size)))
}

func setIfPresent(v url.Values, key, value string) {
	if value = strings.TrimSpace(value); value != "" {
		v.Set(key, value)
	}
}
