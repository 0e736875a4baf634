package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/config"
	httpctrl "storefront/internal/controllers/http"
	"storefront/internal/events"
	"storefront/internal/infra"
	"storefront/internal/infra/database"
	"storefront/internal/infra/rabbitmq"
	"storefront/internal/infra/redis"
	"storefront/internal/metrics"
	"storefront/internal/repository"
	mysqlrepo "storefront/internal/repository/mysql"
	"storefront/internal/services"
	"storefront/internal/session"
	"storefront/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the storefront gateway",
	Long: `Start the HTTP gateway. Redis, the receipts database and RabbitMQ are
optional: each is enabled when its connection settings are present.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func newLogger(cfg *config.Config) *logger.Logger {
	return logger.New(logger.Options{
		ServiceName: "storefront",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
	})
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logg := newLogger(cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	bus := events.NewBus(logg)
	bus.OnDrop(func(t events.Topic) { m.EventDropped(string(t)) })

	store := infra.NewStoreClient(cfg.Backend.BaseURL,
		infra.WithTimeout(cfg.Backend.Timeout),
		infra.WithObserver(m),
	)

	var (
		closers []func() error
		checks  []httpctrl.HealthCheck
	)

	var sessionStore session.Store = session.NewMemoryStore()
	var cache *redis.Client
	if cfg.Redis.Enabled() {
		cache, err = redis.New(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		closers = append(closers, cache.Close)
		checks = append(checks, httpctrl.HealthCheck{Name: "redis", Check: cache.Ping})
		sessionStore = session.NewRedisStore(cache)
	} else {
		logg.Warn(ctx, "redis.disabled")
	}

	var receipts repository.ReceiptRepository
	if cfg.DB.Enabled() {
		db, err := database.Open(cfg.DB)
		if err != nil {
			return fmt.Errorf("db: connect: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return fmt.Errorf("db: %w", err)
		}
		closers = append(closers, sqlDB.Close)
		checks = append(checks, httpctrl.HealthCheck{Name: "db", Check: sqlDB.PingContext})
		receipts = mysqlrepo.NewReceiptRepository(db)
	} else {
		logg.Warn(ctx, "receipts.disabled")
	}

	if cfg.RabbitMQ.Enabled() {
		publisher, err := rabbitmq.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, logg)
		if err != nil {
			return fmt.Errorf("failed to init publisher: %w", err)
		}
		closers = append(closers, func() error {
			publisher.Close()
			return nil
		})
		go events.NewForwarder(bus, publisher, logg).Run(ctx)
	}

	sessions := session.NewManager(sessionStore, bus, cfg.Session.TTL, logg)

	catalog := services.NewCatalogService(store, m, logg)
	if cache != nil {
		catalog.SetRedisClient(cache, cfg.Catalog.CacheTTL)
		if len(cfg.Catalog.WarmupIDs) > 0 {
			go func() {
				select {
				case <-ctx.Done():
					return
				case <-time.After(cfg.Catalog.WarmupDelay):
				}
				if err := catalog.WarmupProductCache(ctx, cfg.Catalog.WarmupIDs); err != nil {
					logg.Error(ctx, "catalog.warmup_failed", err)
				}
			}()
		}
	}

	svc := httpctrl.Services{
		Catalog:      catalog,
		Cart:         services.NewCartService(store, catalog, sessions, cfg.Pricing.CartPolicy(), m, logg),
		Checkout:     services.NewCheckoutService(store, catalog, sessions, receipts, bus, cfg.Pricing.CheckoutPolicy(), cfg.UI.RedirectDelay, m, logg),
		Orders:       services.NewOrderService(store, sessions, logg),
		Transactions: services.NewTransactionService(store, sessions, logg),
		Accounts:     services.NewAccountService(store, sessions, logg),
	}
	handler := httpctrl.NewHandler(svc, sessions, bus, logg, httpctrl.Options{
		CookieName:    cfg.Session.CookieName,
		CookieTTL:     cfg.Session.TTL,
		SecureCookie:  cfg.Session.SecureCookie || cfg.App.IsProd(),
		NoticeDismiss: cfg.UI.NoticeDismiss,
		Gatherer:      reg,
		HealthChecks:  checks,
	})

	if !cfg.App.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           httpctrl.NewRouter(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(logg.WithField(ctx, "addr", srv.Addr), "server.start")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		stop()
		logg.Error(ctx, "server.failed", err)
		return shutdown(nil, bus, closers, err)
	}

	logg.Info(context.Background(), "server.shutdown")
	return shutdown(srv, bus, closers, nil)
}

// shutdown closes the bus so event streams end, drains the server, then
// releases infrastructure in reverse order of acquisition.
func shutdown(srv *http.Server, bus *events.Bus, closers []func() error, cause error) error {
	errs := cause
	bus.Close()
	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		errs = multierr.Append(errs, srv.Shutdown(ctx))
	}
	for i := len(closers) - 1; i >= 0; i-- {
		errs = multierr.Append(errs, closers[i]())
	}
	return errs
}
