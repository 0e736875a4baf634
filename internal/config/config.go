package config

import (
	"fmt"
	"strings"
	"time"

	"storefront/internal/pricing"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

const (
	EnvPrefix = "STOREFRONT"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	DefaultBackendURL = "https://store-backend-e1ed.onrender.com"
)

type Config struct {
	App      AppConfig
	Backend  BackendConfig
	Redis    RedisConfig
	DB       DBConfig
	RabbitMQ RabbitMQConfig
	Session  SessionConfig
	Pricing  PricingConfig
	Catalog  CatalogConfig
	UI       UIConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.DB.ensureDSN()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch strings.ToLower(c.DB.Driver) {
	case DriverMySQL, DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported db driver %q", c.DB.Driver)
	}
	if c.Backend.Timeout <= 0 {
		return fmt.Errorf("backend timeout must be positive")
	}
	if c.Pricing.TaxRate.IsNegative() {
		return fmt.Errorf("tax rate must not be negative")
	}
	return nil
}

type AppConfig struct {
	Env       string `envconfig:"STOREFRONT_APP_ENV" default:"development"`
	Port      string `envconfig:"STOREFRONT_APP_PORT" default:"8080"`
	LogLevel  string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"STOREFRONT_LOG_FORMAT" default:"json"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type BackendConfig struct {
	BaseURL string        `envconfig:"STOREFRONT_BACKEND_URL" default:"https://store-backend-e1ed.onrender.com"`
	Timeout time.Duration `envconfig:"STOREFRONT_BACKEND_TIMEOUT" default:"10s"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"20"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"2s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"500ms"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"500ms"`
}

func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type DBConfig struct {
	Driver string `envconfig:"STOREFRONT_DB_DRIVER" default:"mysql"`
	DSN    string `envconfig:"STOREFRONT_DB_DSN"`

	// MySQL fields, used to build the DSN when it is not given directly.
	MySQLHost     string `envconfig:"MYSQL_HOST"`
	MySQLPort     string `envconfig:"MYSQL_PORT" default:"3306"`
	MySQLUser     string `envconfig:"MYSQL_USER"`
	MySQLPassword string `envconfig:"MYSQL_PASSWORD"`
	MySQLDatabase string `envconfig:"MYSQL_DATABASE"`

	MaxOpenConns    int           `envconfig:"STOREFRONT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOREFRONT_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_LIFETIME" default:"5m"`
	ConnMaxIdleTime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_IDLE_TIME" default:"1m"`
}

func (d DBConfig) Enabled() bool {
	return d.DSN != ""
}

func (d *DBConfig) ensureDSN() {
	if d.DSN != "" || d.MySQLHost == "" || !strings.EqualFold(d.Driver, DriverMySQL) {
		return
	}
	d.DSN = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.MySQLUser, d.MySQLPassword, d.MySQLHost, d.MySQLPort, d.MySQLDatabase)
}

type RabbitMQConfig struct {
	URL      string `envconfig:"STOREFRONT_RABBITMQ_URL"`
	Exchange string `envconfig:"STOREFRONT_RABBITMQ_EXCHANGE" default:"storefront.exchange"`
}

func (r RabbitMQConfig) Enabled() bool {
	return r.URL != ""
}

type SessionConfig struct {
	CookieName   string        `envconfig:"STOREFRONT_SESSION_COOKIE" default:"sf_session"`
	TTL          time.Duration `envconfig:"STOREFRONT_SESSION_TTL" default:"168h"`
	SecureCookie bool          `envconfig:"STOREFRONT_SESSION_SECURE_COOKIE" default:"false"`
}

type PricingConfig struct {
	TaxRate              decimal.Decimal `envconfig:"STOREFRONT_TAX_RATE" default:"0.08"`
	CartFreeShippingOver decimal.Decimal `envconfig:"STOREFRONT_CART_FREE_SHIPPING_OVER" default:"100.00"`
	CartFlatShipping     decimal.Decimal `envconfig:"STOREFRONT_CART_FLAT_SHIPPING" default:"15.99"`
	FreeStandardFrom     decimal.Decimal `envconfig:"STOREFRONT_CHECKOUT_FREE_STANDARD_FROM" default:"50.00"`
	StandardPrice        decimal.Decimal `envconfig:"STOREFRONT_SHIPPING_STANDARD_PRICE" default:"0.00"`
	ExpressPrice         decimal.Decimal `envconfig:"STOREFRONT_SHIPPING_EXPRESS_PRICE" default:"15.99"`
	OvernightPrice       decimal.Decimal `envconfig:"STOREFRONT_SHIPPING_OVERNIGHT_PRICE" default:"29.99"`
}

func (p PricingConfig) CartPolicy() pricing.CartPolicy {
	return pricing.CartPolicy{
		FreeShippingOver: p.CartFreeShippingOver,
		FlatShipping:     p.CartFlatShipping,
		TaxRate:          p.TaxRate,
	}
}

func (p PricingConfig) CheckoutPolicy() pricing.CheckoutPolicy {
	opts := pricing.DefaultShippingOptions(p.StandardPrice)
	for i := range opts {
		switch opts[i].ID {
		case pricing.TierExpress:
			opts[i].Price = p.ExpressPrice
		case pricing.TierOvernight:
			opts[i].Price = p.OvernightPrice
		}
	}
	return pricing.CheckoutPolicy{
		FreeStandardFrom: p.FreeStandardFrom,
		TaxRate:          p.TaxRate,
		Options:          opts,
	}
}

type CatalogConfig struct {
	CacheTTL    time.Duration `envconfig:"STOREFRONT_PRODUCT_CACHE_TTL" default:"5m"`
	WarmupIDs   []int64       `envconfig:"STOREFRONT_PRODUCT_WARMUP_IDS"`
	WarmupDelay time.Duration `envconfig:"STOREFRONT_PRODUCT_WARMUP_DELAY" default:"5s"`
}

type UIConfig struct {
	RedirectDelay time.Duration `envconfig:"STOREFRONT_REDIRECT_DELAY" default:"3s"`
	NoticeDismiss time.Duration `envconfig:"STOREFRONT_NOTICE_DISMISS" default:"3s"`
}
