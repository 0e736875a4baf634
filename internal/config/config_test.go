package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.App.Port)
	assert.True(t, cfg.App.IsDev())
	assert.Equal(t, DefaultBackendURL, cfg.Backend.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, "sf_session", cfg.Session.CookieName)
	assert.Equal(t, 3*time.Second, cfg.UI.RedirectDelay)
	assert.False(t, cfg.Redis.Enabled())
	assert.False(t, cfg.DB.Enabled())
	assert.False(t, cfg.RabbitMQ.Enabled())

	cart := cfg.Pricing.CartPolicy()
	assert.True(t, decimal.NewFromInt(100).Equal(cart.FreeShippingOver))
	assert.True(t, decimal.RequireFromString("15.99").Equal(cart.FlatShipping))
	assert.True(t, decimal.RequireFromString("0.08").Equal(cart.TaxRate))

	checkout := cfg.Pricing.CheckoutPolicy()
	assert.True(t, decimal.NewFromInt(50).Equal(checkout.FreeStandardFrom))
	require.Len(t, checkout.Options, 3)
	assert.True(t, checkout.Options[0].Price.IsZero())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STOREFRONT_APP_ENV", "production")
	t.Setenv("STOREFRONT_BACKEND_URL", "http://backend.local")
	t.Setenv("STOREFRONT_REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("STOREFRONT_SHIPPING_STANDARD_PRICE", "4.99")
	t.Setenv("STOREFRONT_SHIPPING_OVERNIGHT_PRICE", "35")
	t.Setenv("STOREFRONT_PRODUCT_WARMUP_IDS", "1,2,3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.App.IsProd())
	assert.Equal(t, "http://backend.local", cfg.Backend.BaseURL)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, []int64{1, 2, 3}, cfg.Catalog.WarmupIDs)

	checkout := cfg.Pricing.CheckoutPolicy()
	assert.True(t, decimal.RequireFromString("4.99").Equal(checkout.Options[0].Price))
	assert.True(t, decimal.NewFromInt(35).Equal(checkout.Options[2].Price))
}

func TestLoad_BuildsMySQLDSN(t *testing.T) {
	t.Setenv("MYSQL_HOST", "db")
	t.Setenv("MYSQL_USER", "shop")
	t.Setenv("MYSQL_PASSWORD", "secret")
	t.Setenv("MYSQL_DATABASE", "storefront")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.DB.Enabled())
	assert.Equal(t, "shop:secret@tcp(db:3306)/storefront?charset=utf8mb4&parseTime=True&loc=Local", cfg.DB.DSN)
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("STOREFRONT_DB_DRIVER", "oracle")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_RejectsBadDecimal(t *testing.T) {
	t.Setenv("STOREFRONT_TAX_RATE", "eight percent")
	_, err := Load()
	assert.Error(t, err)
}
