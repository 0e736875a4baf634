package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"storefront/internal/domain"
	"storefront/internal/events"
	"storefront/internal/pricing"
	"storefront/internal/services"
	"storefront/internal/session"
	pkgerrors "storefront/pkg/errors"
	"storefront/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"
)

// Services groups the domain services served over HTTP.
type Services struct {
	Catalog      *services.CatalogService
	Cart         *services.CartService
	Checkout     *services.CheckoutService
	Orders       *services.OrderService
	Transactions *services.TransactionService
	Accounts     *services.AccountService
}

// HealthCheck is one dependency probed by /healthz.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type Options struct {
	CookieName    string
	CookieTTL     time.Duration
	SecureCookie  bool
	NoticeDismiss time.Duration
	Gatherer      prometheus.Gatherer
	HealthChecks  []HealthCheck
}

type Handler struct {
	svc      Services
	sessions *session.Manager
	bus      *events.Bus
	logg     *logger.Logger
	opts     Options
}

func NewHandler(svc Services, sessions *session.Manager, bus *events.Bus, logg *logger.Logger, opts Options) *Handler {
	if logg == nil {
		logg = logger.Nop()
	}
	if opts.CookieName == "" {
		opts.CookieName = "sf_session"
	}
	return &Handler{svc: svc, sessions: sessions, bus: bus, logg: logg, opts: opts}
}

// NewRouter builds the gin engine with the gateway middleware chain.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestID(h.logg), Logging(h.logg))
	h.RegisterRoutes(r)
	return r
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/healthz", h.Health)
	if h.opts.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.opts.Gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api", h.Session())
	api.POST("/auth/login", h.Login)
	api.POST("/auth/signup", h.Signup)
	api.POST("/auth/logout", h.Logout)
	api.GET("/session", h.SessionState)
	api.GET("/session/events", h.SessionEvents)

	api.GET("/products", h.ListProducts)
	api.GET("/products/filters", h.ProductFilters)
	api.GET("/products/:id", h.GetProduct)
	api.GET("/checkout/quote", h.Quote)

	authed := api.Group("", h.RequireSession())

	authed.GET("/account", h.AccountOverview)
	authed.GET("/account/profile", h.GetProfile)
	authed.PUT("/account/profile", h.UpdateProfile)
	authed.GET("/account/dashboard", h.Dashboard)

	authed.GET("/cart", h.GetCart)
	authed.POST("/cart/items", h.AddToCart)
	authed.POST("/cart/quick-add/:productId", h.QuickAdd)
	authed.PUT("/cart/items/:itemId", h.UpdateCartItem)
	authed.DELETE("/cart/items/:itemId", h.RemoveCartItem)
	authed.DELETE("/cart", h.ClearCart)

	authed.GET("/checkout", h.PrepareCheckout)
	authed.POST("/checkout", h.PlaceOrder)
	authed.GET("/checkout/confirmation/:orderId", h.Confirmation)
	authed.GET("/checkout/receipts", h.RecentReceipts)

	authed.GET("/orders", h.ListOrders)
	authed.GET("/orders/:id", h.GetOrder)
	authed.PATCH("/orders/:id/cancel", h.CancelOrder)
	authed.POST("/orders/:id/reorder", h.Reorder)
	authed.GET("/orders/:id/invoice", h.Invoice)

	authed.GET("/transactions", h.ListTransactions)
	authed.GET("/transactions/:id", h.GetTransaction)
	authed.GET("/transactions/:id/receipt", h.TransactionReceipt)
}

func (h *Handler) Health(c *gin.Context) {
	resp := HealthResponse{Status: "ok"}
	var errs error
	for _, hc := range h.opts.HealthChecks {
		if resp.Checks == nil {
			resp.Checks = make(map[string]string, len(h.opts.HealthChecks))
		}
		if err := hc.Check(c.Request.Context()); err != nil {
			errs = multierr.Append(errs, err)
			resp.Checks[hc.Name] = err.Error()
			continue
		}
		resp.Checks[hc.Name] = "ok"
	}
	if errs != nil {
		resp.Status = "degraded"
		h.logg.Warn(h.logg.WithField(c.Request.Context(), "error", errs.Error()), "health.degraded")
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Auth and session

func (h *Handler) Login(c *gin.Context) {
	var req domain.Credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	out, err := h.svc.Accounts.Login(c.Request.Context(), sessionID(c), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) Signup(c *gin.Context) {
	var req domain.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	out, err := h.svc.Accounts.Signup(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (h *Handler) Logout(c *gin.Context) {
	out, err := h.svc.Accounts.Logout(c.Request.Context(), sessionID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) SessionState(c *gin.Context) {
	sess, err := h.sessions.Load(c.Request.Context(), sessionID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionResponse(sess))
}

func sessionResponse(sess *session.Session) SessionResponse {
	resp := SessionResponse{SessionID: sess.ID, Authenticated: sess.Authenticated(), CartCount: sess.CartBadge()}
	if resp.Authenticated {
		resp.User = sess.User
	}
	return resp
}

// Account

func (h *Handler) AccountOverview(c *gin.Context) {
	out, err := h.svc.Accounts.Overview(c.Request.Context(), currentSession(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) GetProfile(c *gin.Context) {
	p, err := h.svc.Accounts.Profile(c.Request.Context(), currentSession(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var req domain.Profile
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	out, err := h.svc.Accounts.UpdateProfile(c.Request.Context(), currentSession(c), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) Dashboard(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Accounts.Dashboard(c.Request.Context(), currentSession(c)))
}

// Catalog

func (h *Handler) ListProducts(c *gin.Context) {
	var q services.ProductQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.badRequest(c, err)
		return
	}
	list, err := h.svc.Catalog.List(c.Request.Context(), q)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) ProductFilters(c *gin.Context) {
	raw, err := h.svc.Catalog.Filters(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", raw)
}

func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := h.int64Param(c, "id", "Invalid product ID")
	if !ok {
		return
	}
	p, err := h.svc.Catalog.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": p, "buy_now": services.BuyNowLink(p.ID, 1)})
}

// Cart

func (h *Handler) GetCart(c *gin.Context) {
	view, err := h.svc.Cart.Get(c.Request.Context(), currentSession(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) AddToCart(c *gin.Context) {
	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}
	upd, err := h.svc.Cart.Add(c.Request.Context(), currentSession(c), req.ProductID, qty)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, upd)
}

func (h *Handler) QuickAdd(c *gin.Context) {
	id, ok := h.int64Param(c, "productId", "Invalid product ID")
	if !ok {
		return
	}
	upd, err := h.svc.Cart.QuickAdd(c.Request.Context(), currentSession(c), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, upd)
}

func (h *Handler) UpdateCartItem(c *gin.Context) {
	id, ok := h.int64Param(c, "itemId", "Invalid cart item ID")
	if !ok {
		return
	}
	var req UpdateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	view, err := h.svc.Cart.UpdateQuantity(c.Request.Context(), currentSession(c), id, *req.Quantity)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) RemoveCartItem(c *gin.Context) {
	id, ok := h.int64Param(c, "itemId", "Invalid cart item ID")
	if !ok {
		return
	}
	view, err := h.svc.Cart.RemoveItem(c.Request.Context(), currentSession(c), id, confirmed(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) ClearCart(c *gin.Context) {
	view, err := h.svc.Cart.Clear(c.Request.Context(), currentSession(c), confirmed(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Checkout

func (h *Handler) PrepareCheckout(c *gin.Context) {
	var q services.CheckoutQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.badRequest(c, err)
		return
	}
	view, err := h.svc.Checkout.Prepare(c.Request.Context(), currentSession(c), q)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) PlaceOrder(c *gin.Context) {
	var req services.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	conf, err := h.svc.Checkout.PlaceOrder(c.Request.Context(), currentSession(c), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, conf)
}

func (h *Handler) Quote(c *gin.Context) {
	subtotal, err := pricing.ParseAmount(c.Query("subtotal"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	quote, err := h.svc.Checkout.Quote(subtotal, c.Query("shipping"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

func (h *Handler) Confirmation(c *gin.Context) {
	receipt, err := h.svc.Checkout.Confirmation(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	if receipt.SessionID != "" && receipt.SessionID != sessionID(c) {
		h.writeError(c, pkgerrors.New(pkgerrors.CodeNotFound, "Order confirmation not found"))
		return
	}
	c.JSON(http.StatusOK, receipt)
}

func (h *Handler) RecentReceipts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	receipts, err := h.svc.Checkout.RecentReceipts(c.Request.Context(), currentSession(c), limit)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"receipts": receipts})
}

// Orders

func (h *Handler) ListOrders(c *gin.Context) {
	var q services.OrderQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.badRequest(c, err)
		return
	}
	list, err := h.svc.Orders.List(c.Request.Context(), currentSession(c), q)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) GetOrder(c *gin.Context) {
	detail, err := h.svc.Orders.Get(c.Request.Context(), currentSession(c), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *Handler) CancelOrder(c *gin.Context) {
	res, err := h.svc.Orders.Cancel(c.Request.Context(), currentSession(c), c.Param("id"), confirmed(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Reorder(c *gin.Context) {
	res, err := h.svc.Orders.Reorder(c.Request.Context(), currentSession(c), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Invoice(c *gin.Context) {
	raw, err := h.svc.Orders.Invoice(c.Request.Context(), currentSession(c), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", raw)
}

// Transactions

func (h *Handler) ListTransactions(c *gin.Context) {
	var q services.TransactionQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.badRequest(c, err)
		return
	}
	list, err := h.svc.Transactions.List(c.Request.Context(), currentSession(c), q)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) GetTransaction(c *gin.Context) {
	tx, err := h.svc.Transactions.Get(c.Request.Context(), currentSession(c), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tx)
}

func (h *Handler) TransactionReceipt(c *gin.Context) {
	data, filename, err := h.svc.Transactions.Receipt(c.Request.Context(), currentSession(c), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/json", data)
}

func currentSession(c *gin.Context) *session.Session {
	sess, _ := c.MustGet(ctxSession).(*session.Session)
	return sess
}

func confirmed(c *gin.Context) bool {
	ok, _ := strconv.ParseBool(c.Query("confirm"))
	return ok
}

func (h *Handler) int64Param(c *gin.Context, name, message string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		h.writeError(c, pkgerrors.New(pkgerrors.CodeValidation, message))
		return 0, false
	}
	return id, true
}
