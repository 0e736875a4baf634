package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"storefront/internal/domain"
	"storefront/internal/events"
	"storefront/internal/infra"
	"storefront/internal/metrics"
	"storefront/internal/pricing"
	"storefront/internal/repository"
	"storefront/internal/session"
	pkgerrors "storefront/pkg/errors"
	"storefront/pkg/logger"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	ShippingCountry = "United States"

	msgOrderNetwork  = "Network error. Please check your connection and try again."
	msgOrderFallback = "Failed to place order. Please try again."

	maxRecentReceipts = 20
)

type CheckoutLine struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Image     string          `json:"image,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type CheckoutQuery struct {
	ProductID int64  `form:"product"`
	Quantity  int    `form:"quantity"`
	Shipping  string `form:"shipping"`
}

func (q CheckoutQuery) quantity() int {
	if q.Quantity < 1 {
		return 1
	}
	return q.Quantity
}

type CheckoutView struct {
	Source            domain.OrderSource       `json:"source"`
	Items             []CheckoutLine           `json:"items"`
	Totals            pricing.Totals           `json:"totals"`
	Shipping          pricing.ShippingOption   `json:"shipping"`
	ShippingOptions   []pricing.ShippingOption `json:"shipping_options"`
	EstimatedDelivery string                   `json:"estimated_delivery"`
	Form              CheckoutForm             `json:"form"`
}

type CheckoutRequest struct {
	CheckoutForm
	ProductID int64 `json:"product_id,omitempty"`
	Quantity  int   `json:"quantity,omitempty"`
}

type OrderConfirmation struct {
	OrderID           string         `json:"order_id"`
	Message           string         `json:"message"`
	EstimatedDelivery string         `json:"estimated_delivery"`
	Totals            pricing.Totals `json:"totals"`
	Redirect          string         `json:"redirect"`
	RedirectAfterMs   int64          `json:"redirect_after_ms"`
}

// Quote is the totals block for a given subtotal and tier.
type Quote struct {
	Totals            pricing.Totals         `json:"totals"`
	Shipping          pricing.ShippingOption `json:"shipping"`
	EstimatedDelivery string                 `json:"estimated_delivery"`
}

type checkoutItems struct {
	source   domain.OrderSource
	lines    []CheckoutLine
	subtotal decimal.Decimal
}

type CheckoutService struct {
	backend
	store         infra.StoreAPI
	products      productLookup
	receipts      repository.ReceiptRepository
	events        events.Publisher
	policy        pricing.CheckoutPolicy
	redirectDelay time.Duration
	metrics       *metrics.Metrics
	now           func() time.Time
}

func NewCheckoutService(
	store infra.StoreAPI,
	products productLookup,
	sessions *session.Manager,
	receipts repository.ReceiptRepository,
	pub events.Publisher,
	policy pricing.CheckoutPolicy,
	redirectDelay time.Duration,
	m *metrics.Metrics,
	logg *logger.Logger,
) *CheckoutService {
	if logg == nil {
		logg = logger.Nop()
	}
	return &CheckoutService{
		backend:       backend{sessions: sessions, logg: logg},
		store:         store,
		products:      products,
		receipts:      receipts,
		events:        pub,
		policy:        policy,
		redirectDelay: redirectDelay,
		metrics:       m,
		now:           time.Now,
	}
}

// Prepare loads the items and the prefilled form concurrently.
func (s *CheckoutService) Prepare(ctx context.Context, sess *session.Session, q CheckoutQuery) (*CheckoutView, error) {
	var (
		items *checkoutItems
		form  CheckoutForm
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = s.loadItems(gctx, sess, q.ProductID, q.quantity())
		return err
	})
	g.Go(func() error {
		form = s.prefill(gctx, sess)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	quote, err := s.Quote(items.subtotal, q.Shipping)
	if err != nil {
		return nil, err
	}
	form.ShippingMethod = quote.Shipping.ID

	return &CheckoutView{
		Source:            items.source,
		Items:             items.lines,
		Totals:            quote.Totals,
		Shipping:          quote.Shipping,
		ShippingOptions:   s.policy.Options,
		EstimatedDelivery: quote.EstimatedDelivery,
		Form:              form,
	}, nil
}

func (s *CheckoutService) Quote(subtotal decimal.Decimal, tier string) (*Quote, error) {
	totals, opt, err := s.policy.Totals(subtotal, tier)
	if err != nil {
		return nil, err
	}
	return &Quote{Totals: totals, Shipping: opt, EstimatedDelivery: opt.EstimatedDelivery(s.now())}, nil
}

func (s *CheckoutService) PlaceOrder(ctx context.Context, sess *session.Session, req CheckoutRequest) (conf *OrderConfirmation, err error) {
	source := domain.SourceCart
	if req.ProductID > 0 {
		source = domain.SourceBuyNow
	}
	defer func() { s.metrics.OrderPlaced(string(source), err) }()

	form := req.CheckoutForm
	if err := form.Validate(); err != nil {
		return nil, err
	}

	qty := req.Quantity
	if qty < 1 {
		qty = 1
	}
	items, err := s.loadItems(ctx, sess, req.ProductID, qty)
	if err != nil {
		return nil, err
	}

	quote, err := s.Quote(items.subtotal, form.ShippingMethod)
	if err != nil {
		return nil, err
	}

	payload := buildOrderPayload(form, items, quote)
	ctx = s.logg.WithSessionID(ctx, sess.ID)

	res, err := s.store.CreateOrder(ctx, sess.AccessToken, payload)
	if err != nil {
		return nil, s.orderError(ctx, sess, err)
	}

	orderID := res.OrderID
	s.afterOrder(ctx, sess, items.source)
	s.publish(ctx, events.OrderPlaced(domain.OrderPlacedEvent{
		SessionID: sess.ID,
		OrderID:   orderID,
		Total:     quote.Totals.Total,
		Source:    items.source,
		PlacedAt:  s.now().UTC(),
	}))
	s.saveReceipt(ctx, &domain.OrderReceipt{
		OrderID:           orderID,
		SessionID:         sess.ID,
		CustomerEmail:     form.Email,
		Source:            items.source,
		ShippingMethod:    quote.Shipping.Name,
		ItemCount:         countUnits(items.lines),
		Subtotal:          quote.Totals.Subtotal,
		ShippingCost:      quote.Totals.Shipping,
		TaxAmount:         quote.Totals.Tax,
		TotalAmount:       quote.Totals.Total,
		EstimatedDelivery: quote.EstimatedDelivery,
	})

	s.logg.Info(s.logg.WithField(ctx, "order_id", orderID), "checkout.order_placed")

	return &OrderConfirmation{
		OrderID:           orderID,
		Message:           fmt.Sprintf("Order %s placed successfully! Expected delivery: %s", orderID, quote.EstimatedDelivery),
		EstimatedDelivery: quote.EstimatedDelivery,
		Totals:            quote.Totals,
		Redirect:          fmt.Sprintf("%s?order_success=%s", ShopPath, orderID),
		RedirectAfterMs:   s.redirectDelay.Milliseconds(),
	}, nil
}

// Confirmation returns the receipt shown after the post-order redirect.
func (s *CheckoutService) Confirmation(ctx context.Context, orderID string) (*domain.OrderReceipt, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if s.receipts == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Order confirmation not found")
	}
	receipt, err := s.receipts.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "Failed to load order confirmation")
	}
	if receipt == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Order confirmation not found")
	}
	return receipt, nil
}

// RecentReceipts lists the receipts of orders placed from this session,
// newest first.
func (s *CheckoutService) RecentReceipts(ctx context.Context, sess *session.Session, limit int) ([]domain.OrderReceipt, error) {
	if s.receipts == nil {
		return []domain.OrderReceipt{}, nil
	}
	if limit <= 0 || limit > maxRecentReceipts {
		limit = maxRecentReceipts
	}
	receipts, err := s.receipts.ListBySession(ctx, sess.ID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "Failed to load recent orders")
	}
	if receipts == nil {
		receipts = []domain.OrderReceipt{}
	}
	return receipts, nil
}

func (s *CheckoutService) loadItems(ctx context.Context, sess *session.Session, productID int64, qty int) (*checkoutItems, error) {
	if productID > 0 {
		return s.loadBuyNow(ctx, productID, qty)
	}

	cart, err := s.store.GetCart(ctx, sess.AccessToken)
	if err != nil {
		typed := s.translate(ctx, sess, err, failure{op: "checkout.cart", fallback: "Failed to load cart", network: msgNetworkRetry})
		if e := pkgerrors.As(typed); e != nil && e.Redirect() == "" {
			e.WithRedirect(CartPath)
		}
		return nil, typed
	}
	if cart.IsEmpty() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "Your cart is empty").WithRedirect(CartPath)
	}

	lines := make([]CheckoutLine, 0, len(cart.Items))
	for _, it := range cart.Items {
		lines = append(lines, CheckoutLine{
			ProductID: it.Product.ID,
			Name:      it.Product.Name,
			Image:     it.Product.MainImage,
			Quantity:  it.Quantity,
			UnitPrice: it.PriceWhenAdded,
		})
	}
	subtotal := cart.TotalPrice
	if subtotal.IsZero() {
		subtotal = cart.ComputedSubtotal()
	}
	return &checkoutItems{source: domain.SourceCart, lines: lines, subtotal: subtotal}, nil
}

func (s *CheckoutService) loadBuyNow(ctx context.Context, productID int64, qty int) (*checkoutItems, error) {
	p, err := s.products.Get(ctx, productID)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "Product not found").WithRedirect(ShopPath)
		}
		code := pkgerrors.CodeDependency
		if typed := pkgerrors.As(err); typed != nil {
			code = typed.Code()
		}
		return nil, pkgerrors.Wrap(code, err, "Failed to load product").WithRedirect(ShopPath)
	}
	if !p.IsInStock {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("%s is out of stock", p.Name)).WithRedirect(ShopPath)
	}
	return &checkoutItems{
		source: domain.SourceBuyNow,
		lines: []CheckoutLine{{
			ProductID: p.ID,
			Name:      p.Name,
			Image:     p.MainImage,
			Quantity:  qty,
			UnitPrice: p.Price,
		}},
		subtotal: p.Price.Mul(decimal.NewFromInt(int64(qty))),
	}, nil
}

// prefill never fails: without a profile it falls back to the session user.
func (s *CheckoutService) prefill(ctx context.Context, sess *session.Session) CheckoutForm {
	var form CheckoutForm
	profile, err := s.store.GetProfile(ctx, sess.AccessToken)
	if err == nil && profile != nil {
		form.FullName = strings.TrimSpace(profile.FirstName + " " + profile.LastName)
		form.Email = profile.Email
		form.Phone = profile.Phone
		form.Address = profile.Address.Street
		form.City = profile.Address.City
		form.State = profile.Address.State
		form.PostalCode = profile.Address.PostalCode
		return form
	}
	if err != nil {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"session_id": sess.ID, "error": err.Error()}), "checkout.profile_prefill_failed")
	}
	if sess.User != nil {
		form.FullName = sess.User.FullName()
		form.Email = sess.User.Email
	}
	return form
}

func buildOrderPayload(form CheckoutForm, items *checkoutItems, quote *Quote) infra.CreateOrderRequest {
	first, last := SplitName(form.FullName)
	lines := make([]infra.OrderLine, 0, len(items.lines))
	for _, l := range items.lines {
		lines = append(lines, infra.OrderLine{ProductID: l.ProductID, Quantity: l.Quantity, UnitPrice: l.UnitPrice})
	}
	instructions := form.DeliveryInstructions
	if instructions == "" {
		instructions = "None"
	}
	return infra.CreateOrderRequest{
		Items:                 lines,
		CustomerEmail:         form.Email,
		CustomerPhone:         form.Phone,
		ShippingFirstName:     first,
		ShippingLastName:      last,
		ShippingAddressLine1:  form.Address,
		ShippingCity:          form.City,
		ShippingState:         form.State,
		ShippingPostalCode:    form.PostalCode,
		ShippingCountry:       ShippingCountry,
		BillingSameAsShipping: true,
		ShippingMethod:        quote.Shipping.Name,
		ShippingCost:          quote.Totals.Shipping.StringFixed(2),
		Notes:                 fmt.Sprintf("Order placed via %s checkout. Delivery Instructions: %s", items.source.NotesLabel(), instructions),
		Subtotal:              quote.Totals.Subtotal.StringFixed(2),
		TaxAmount:             quote.Totals.Tax.StringFixed(2),
		TotalAmount:           quote.Totals.Total.StringFixed(2),
		DeliveryInstructions:  form.DeliveryInstructions,
		EstimatedDelivery:     quote.EstimatedDelivery,
		PaymentInfo: infra.PaymentInfo{
			CardNumber: stripSpaces(form.CardNumber),
			Expiry:     form.Expiry,
			CVV:        form.CVV,
		},
	}
}

// orderError picks the most specific text the backend gave: message, then
// error, then the first unavailable item.
func (s *CheckoutService) orderError(ctx context.Context, sess *session.Session, err error) error {
	apiErr, ok := infra.AsAPIError(err)
	if !ok || apiErr.Unauthorized() {
		return s.translate(ctx, sess, err, failure{op: "checkout.create_order", fallback: msgOrderFallback, network: msgOrderNetwork})
	}

	code := pkgerrors.CodeRejected
	if apiErr.ServerSide() {
		code = pkgerrors.CodeDependency
	}
	s.logg.Warn(s.logg.WithField(ctx, "status", apiErr.Status), "checkout.order_rejected")
	return pkgerrors.Wrap(code, err, orderFailureMessage(apiErr))
}

func orderFailureMessage(apiErr *infra.APIError) string {
	if msg, ok := apiErr.Text("message"); ok {
		return msg
	}
	if raw, ok := apiErr.Field("error"); ok && string(raw) != "null" {
		var text string
		if json.Unmarshal(raw, &text) == nil {
			if text = strings.TrimSpace(text); text != "" {
				return text
			}
		}
		if msg, ok := infra.FirstObjectText(raw); ok {
			return msg
		}
		return "Validation error occurred"
	}
	if item, ok := apiErr.Text("items"); ok {
		return "Product availability issue: " + item
	}
	return msgOrderFallback
}

// afterOrder resets the header badge. A cart checkout also empties the server
// cart; buy-now leaves the cart alone.
func (s *CheckoutService) afterOrder(ctx context.Context, sess *session.Session, source domain.OrderSource) {
	if source == domain.SourceBuyNow {
		s.publish(ctx, events.CartUpdated(sess.ID, sess.CartBadge()))
		return
	}
	if err := s.store.ClearCart(ctx, sess.AccessToken); err != nil {
		s.logg.Error(ctx, "checkout.clear_cart_failed", err)
		if forgetErr := s.sessions.ForgetCartCount(ctx, sess.ID); forgetErr != nil {
			s.logg.Error(ctx, "checkout.forget_cart_count_failed", forgetErr)
		}
		return
	}
	if err := s.sessions.SetCartCount(ctx, sess.ID, 0); err != nil {
		s.logg.Error(ctx, "checkout.reset_cart_count_failed", err)
	}
}

func (s *CheckoutService) saveReceipt(ctx context.Context, receipt *domain.OrderReceipt) {
	if s.receipts == nil {
		return
	}
	if err := s.receipts.Save(ctx, receipt); err != nil {
		s.logg.Error(s.logg.WithField(ctx, "order_id", receipt.OrderID), "checkout.save_receipt_failed", err)
	}
}

func (s *CheckoutService) publish(ctx context.Context, evt events.Event) {
	if s.events == nil {
		return
	}
	s.events.Publish(ctx, evt)
}

func countUnits(lines []CheckoutLine) int {
	n := 0
	for _, l := range lines {
		n += l.Quantity
	}
	return n
}
