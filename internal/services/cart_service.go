package services

import (
	"context"
	"fmt"

	"storefront/internal/domain"
	"storefront/internal/infra"
	"storefront/internal/metrics"
	"storefront/internal/pricing"
	"storefront/internal/session"
	pkgerrors "storefront/pkg/errors"
	"storefront/pkg/logger"
)

const CartPath = "/Pages/cart"

var cartErrorKeys = []string{"detail", "error", "message"}

// productLookup resolves a product before it is added to the cart.
type productLookup interface {
	Get(ctx context.Context, id int64) (*domain.Product, error)
}

// CartView is the cart page state.
type CartView struct {
	Cart     *domain.Cart   `json:"cart"`
	Totals   pricing.Totals `json:"totals"`
	Empty    bool           `json:"empty"`
	ShopLink string         `json:"shop_link,omitempty"`
	Notice   string         `json:"notice,omitempty"`
}

// CartUpdate is returned by the add actions on product pages, which only need
// the new badge count.
type CartUpdate struct {
	Notice  string             `json:"notice"`
	Summary domain.CartSummary `json:"cart_summary"`
	Count   int                `json:"cart_count"`
}

type CartService struct {
	backend
	api      infra.CartAPI
	products productLookup
	policy   pricing.CartPolicy
	metrics  *metrics.Metrics
}

func NewCartService(api infra.CartAPI, products productLookup, sessions *session.Manager, policy pricing.CartPolicy, m *metrics.Metrics, logg *logger.Logger) *CartService {
	if logg == nil {
		logg = logger.Nop()
	}
	return &CartService{
		backend:  backend{sessions: sessions, logg: logg},
		api:      api,
		products: products,
		policy:   policy,
		metrics:  m,
	}
}

func (s *CartService) Get(ctx context.Context, sess *session.Session) (*CartView, error) {
	cart, err := s.load(ctx, sess)
	if err != nil {
		return nil, err
	}
	s.mirror(ctx, sess, cart.HeaderCount())
	return s.view(cart, "")
}

func (s *CartService) Add(ctx context.Context, sess *session.Session, productID int64, quantity int) (upd *CartUpdate, err error) {
	defer func() { s.metrics.CartMutation("add", err) }()

	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Quantity must be at least 1").
			WithDetails(map[string]int{"quantity": quantity})
	}

	name := "Item"
	if s.products != nil {
		p, lookupErr := s.products.Get(ctx, productID)
		if lookupErr != nil {
			return nil, lookupErr
		}
		if !p.IsInStock {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("%s is out of stock", p.Name))
		}
		name = p.Name
	}

	res, err := s.api.AddToCart(ctx, sess.AccessToken, productID, quantity)
	if err != nil {
		return nil, s.translate(ctx, sess, err, failure{
			op:       "cart.add",
			fallback: "Failed to add item to cart",
			network:  msgNetworkRetry,
			keys:     cartErrorKeys,
		})
	}

	s.mirror(ctx, sess, res.Cart.TotalItems)
	return &CartUpdate{
		Notice:  fmt.Sprintf("%s added to cart!", name),
		Summary: res.Cart,
		Count:   res.Cart.TotalItems,
	}, nil
}

func (s *CartService) QuickAdd(ctx context.Context, sess *session.Session, productID int64) (upd *CartUpdate, err error) {
	defer func() { s.metrics.CartMutation("quick_add", err) }()

	res, err := s.api.QuickAdd(ctx, sess.AccessToken, productID)
	if err != nil {
		return nil, s.translate(ctx, sess, err, failure{
			op:       "cart.quick_add",
			fallback: "Failed to add item to cart",
			network:  msgNetworkRetry,
			keys:     cartErrorKeys,
		})
	}

	s.mirror(ctx, sess, res.CartSummary.TotalItems)
	notice := res.Message
	if notice == "" {
		notice = "Item added to cart!"
	}
	return &CartUpdate{Notice: notice, Summary: res.CartSummary, Count: res.CartSummary.TotalItems}, nil
}

// UpdateQuantity below 1 leaves the cart untouched and just returns it.
func (s *CartService) UpdateQuantity(ctx context.Context, sess *session.Session, itemID int64, quantity int) (view *CartView, err error) {
	cart, err := s.load(ctx, sess)
	if err != nil {
		return nil, err
	}
	if quantity < 1 {
		return s.view(cart, "")
	}

	defer func() { s.metrics.CartMutation("update", err) }()

	item, ok := cart.Item(itemID)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Item not found in cart").WithDetails(map[string]int64{"item_id": itemID})
	}

	res, err := s.api.UpdateCartItem(ctx, sess.AccessToken, itemID, quantity)
	if err != nil {
		return nil, s.translate(ctx, sess, err, failure{
			op:       "cart.update",
			fallback: "Failed to update quantity",
			network:  msgNetworkRetry,
			keys:     cartErrorKeys,
		})
	}

	item.Quantity = quantity
	if res.Item.Quantity > 0 {
		item.Quantity = res.Item.Quantity
	}
	item.Subtotal = res.Item.Subtotal
	cart.ApplySummary(res.CartSummary)

	s.mirror(ctx, sess, cart.HeaderCount())
	return s.view(cart, res.Message)
}

func (s *CartService) RemoveItem(ctx context.Context, sess *session.Session, itemID int64, confirmed bool) (view *CartView, err error) {
	cart, err := s.load(ctx, sess)
	if err != nil {
		return nil, err
	}
	item, ok := cart.Item(itemID)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Item not found in cart").WithDetails(map[string]int64{"item_id": itemID})
	}
	if !confirmed {
		return nil, pkgerrors.New(pkgerrors.CodeConfirmationRequired, fmt.Sprintf("Remove %s from your cart?", item.Product.Name)).
			WithDetails(map[string]int64{"item_id": itemID})
	}

	defer func() { s.metrics.CartMutation("remove", err) }()

	res, err := s.api.RemoveCartItem(ctx, sess.AccessToken, itemID)
	if err != nil {
		return nil, s.translate(ctx, sess, err, failure{
			op:       "cart.remove",
			fallback: "Failed to remove item",
			network:  msgNetworkRetry,
			keys:     cartErrorKeys,
		})
	}

	cart.RemoveItem(itemID)
	cart.ApplySummary(res.CartSummary)

	s.mirror(ctx, sess, cart.HeaderCount())
	return s.view(cart, res.Message)
}

func (s *CartService) Clear(ctx context.Context, sess *session.Session, confirmed bool) (view *CartView, err error) {
	if !confirmed {
		return nil, pkgerrors.New(pkgerrors.CodeConfirmationRequired, "Remove all items from your cart?")
	}

	defer func() { s.metrics.CartMutation("clear", err) }()

	if err := s.api.ClearCart(ctx, sess.AccessToken); err != nil {
		return nil, s.translate(ctx, sess, err, failure{
			op:       "cart.clear",
			fallback: "Failed to clear cart",
			network:  msgNetworkRetry,
			keys:     cartErrorKeys,
		})
	}

	s.mirror(ctx, sess, 0)
	return s.view(domain.EmptyCart(), "Cart cleared")
}

func (s *CartService) load(ctx context.Context, sess *session.Session) (*domain.Cart, error) {
	cart, err := s.api.GetCart(ctx, sess.AccessToken)
	if err != nil {
		return nil, s.translate(ctx, sess, err, failure{
			op:       "cart.get",
			fallback: "Failed to load cart",
			network:  msgNetworkRetry,
			keys:     cartErrorKeys,
		})
	}
	return cart, nil
}

func (s *CartService) view(cart *domain.Cart, notice string) (*CartView, error) {
	if cart.IsEmpty() {
		return &CartView{Cart: cart, Empty: true, ShopLink: ShopPath, Notice: notice}, nil
	}
	subtotal := cart.TotalPrice
	if subtotal.IsZero() {
		subtotal = cart.ComputedSubtotal()
	}
	totals, err := s.policy.Totals(subtotal)
	if err != nil {
		return nil, err
	}
	return &CartView{Cart: cart, Totals: totals, Notice: notice}, nil
}

// mirror stores the badge count. A failure only costs the header a stale
// number, so it is logged.
func (s *CartService) mirror(ctx context.Context, sess *session.Session, count int) {
	if s.sessions == nil || sess == nil {
		return
	}
	if err := s.sessions.SetCartCount(ctx, sess.ID, count); err != nil {
		s.logg.Error(s.logg.WithSessionID(ctx, sess.ID), "cart.mirror_count_failed", err)
	}
}
