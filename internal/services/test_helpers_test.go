package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"storefront/internal/domain"
	"storefront/internal/events"
	"storefront/internal/infra"
	"storefront/internal/session"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const (
	TestAccessToken  = "access-token"
	TestProductID    = int64(1)
	TestProductName  = "Test Product"
	TestProductPrice = "40.00"
	TestOrderID      = "ORD-1001"
	TestItemID       = int64(11)
)

func CreateMockProduct(id int64, name, price string, inStock bool) *domain.Product {
	return &domain.Product{
		ID:        id,
		Name:      name,
		Price:     decimal.RequireFromString(price),
		IsInStock: inStock,
	}
}

func CreateMockCartItem(id, productID int64, name, price string, qty int) domain.CartItem {
	p := decimal.RequireFromString(price)
	return domain.CartItem{
		ID:             id,
		Product:        domain.CartProduct{ID: productID, Name: name},
		Quantity:       qty,
		PriceWhenAdded: p,
		CurrentPrice:   p,
		Subtotal:       p.Mul(decimal.NewFromInt(int64(qty))),
	}
}

// CreateMockCart builds a cart whose aggregates match its items.
func CreateMockCart(items ...domain.CartItem) *domain.Cart {
	cart := &domain.Cart{Items: items}
	for _, it := range items {
		cart.TotalItems += it.Quantity
	}
	cart.ItemCount = len(items)
	cart.TotalPrice = cart.ComputedSubtotal()
	return cart
}

func CreateMockOrder(orderID string, status domain.OrderStatus) *domain.Order {
	return &domain.Order{
		ID:          1,
		OrderID:     orderID,
		Status:      status,
		Subtotal:    decimal.RequireFromString("80.00"),
		TaxAmount:   decimal.RequireFromString("6.40"),
		TotalAmount: decimal.RequireFromString("86.40"),
		CreatedAt:   "2025-03-01T10:00:00Z",
	}
}

func CreateMockTransaction(id string, kind domain.TransactionType, status domain.TransactionStatus, amount string) domain.Transaction {
	return domain.Transaction{
		TransactionID:   id,
		TransactionType: kind,
		Status:          status,
		Amount:          decimal.RequireFromString(amount),
		PaymentMethod:   "credit_card",
		CreatedAt:       "2025-03-01T10:00:00Z",
	}
}

func apiError(status int, body string) error {
	return &infra.APIError{Endpoint: "test", Status: status, Body: []byte(body)}
}

func networkError() error {
	return &infra.NetworkError{Endpoint: "test", Err: errors.New("connection refused")}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordingPublisher) Publish(_ context.Context, evt events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

func (r *recordingPublisher) topics() []events.Topic {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Topic, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Topic)
	}
	return out
}

func (r *recordingPublisher) last(topic events.Topic) (events.Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Topic == topic {
			return r.events[i], true
		}
	}
	return events.Event{}, false
}

// newSignedInSession returns a manager over an in-memory store and a session
// that is already logged in.
func newSignedInSession(t *testing.T) (*session.Manager, *session.Session, *recordingPublisher) {
	t.Helper()
	ctx := context.Background()
	pub := &recordingPublisher{}
	m := session.NewManager(session.NewMemoryStore(), pub, time.Hour, nil)
	sid := m.Begin()
	require.NoError(t, m.SignIn(ctx, sid, domain.LoginResult{
		Access:  TestAccessToken,
		Refresh: "refresh-token",
		User:    &domain.User{Username: "ada", Email: "ada@example.com", FirstName: "Ada", LastName: "Lovelace", CustomerID: "C-1"},
	}))
	sess, err := m.Require(ctx, sid)
	require.NoError(t, err)
	return m, sess, pub
}
