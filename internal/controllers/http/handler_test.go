package http

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"storefront/internal/domain"
	"storefront/internal/events"
	"storefront/internal/infra"
	"storefront/internal/mocks"
	"storefront/internal/pricing"
	"storefront/internal/services"
	"storefront/internal/session"
	"storefront/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testToken = "access-token"

type testServer struct {
	router   *gin.Engine
	api      *mocks.MockStoreAPI
	sessions *session.Manager
	bus      *events.Bus
}

func newTestServer(t *testing.T, checks ...HealthCheck) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	api := new(mocks.MockStoreAPI)
	bus := events.NewBus(logger.Nop())
	t.Cleanup(bus.Close)
	sessions := session.NewManager(session.NewMemoryStore(), bus, time.Hour, nil)

	catalog := services.NewCatalogService(api, nil, nil)
	svc := Services{
		Catalog:      catalog,
		Cart:         services.NewCartService(api, catalog, sessions, pricing.DefaultCartPolicy(), nil, nil),
		Checkout:     services.NewCheckoutService(api, catalog, sessions, nil, bus, pricing.DefaultCheckoutPolicy(), 3*time.Second, nil, nil),
		Orders:       services.NewOrderService(api, sessions, nil),
		Transactions: services.NewTransactionService(api, sessions, nil),
		Accounts:     services.NewAccountService(api, sessions, nil),
	}
	h := NewHandler(svc, sessions, bus, nil, Options{
		CookieTTL:     time.Hour,
		NoticeDismiss: 3 * time.Second,
		HealthChecks:  checks,
	})
	return &testServer{router: NewRouter(h), api: api, sessions: sessions, bus: bus}
}

func (s *testServer) signIn(t *testing.T) string {
	t.Helper()
	sid := uuid.NewString()
	require.NoError(t, s.sessions.SignIn(context.Background(), sid, domain.LoginResult{
		Access: testToken,
		User:   &domain.User{Username: "ada", Email: "ada@example.com"},
	}))
	return sid
}

func (s *testServer) do(method, path, sid, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if sid != "" {
		req.Header.Set(sessionIDHeader, sid)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorEnvelope {
	t.Helper()
	var env errorEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestHealth(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		srv := newTestServer(t, HealthCheck{Name: "redis", Check: func(context.Context) error { return nil }})
		w := srv.do(http.MethodGet, "/healthz", "", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"ok","checks":{"redis":"ok"}}`, w.Body.String())
	})

	t.Run("degraded", func(t *testing.T) {
		srv := newTestServer(t, HealthCheck{Name: "redis", Check: func(context.Context) error { return errors.New("dial tcp: refused") }})
		w := srv.do(http.MethodGet, "/healthz", "", "")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), "degraded")
	})
}

func TestSession_AllocatesID(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(http.MethodGet, "/api/session", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	sid := w.Header().Get(sessionIDHeader)
	_, err := uuid.Parse(sid)
	require.NoError(t, err)
	assert.Contains(t, w.Header().Get("Set-Cookie"), "sf_session="+sid)

	var resp SessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Authenticated)
	assert.Equal(t, 0, resp.CartCount)
}

func TestRequireSession_RedirectsToLogin(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(http.MethodGet, "/api/cart", uuid.NewString(), "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	env := decodeError(t, w)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)
	assert.Equal(t, session.LoginPath, env.Redirect)
	assert.Zero(t, env.DismissAfterMs)
	srv.api.AssertNotCalled(t, "GetCart", mock.Anything, mock.Anything)
}

func TestLogin_ThenSessionState(t *testing.T) {
	srv := newTestServer(t)
	sid := uuid.NewString()
	srv.api.On("Login", mock.Anything, domain.Credentials{Username: "ada", Password: "secret"}).Return(&domain.LoginResult{
		Access: testToken, Refresh: "r", User: &domain.User{Username: "ada"},
	}, nil)

	w := srv.do(http.MethodPost, "/api/auth/login", sid, `{"username":"ada","password":"secret"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Login successful")

	w = srv.do(http.MethodGet, "/api/session", sid, "")
	var resp SessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Authenticated)
	assert.Equal(t, "ada", resp.User.Username)

	w = srv.do(http.MethodPost, "/api/auth/logout", sid, "")
	require.Equal(t, http.StatusOK, w.Code)
	w = srv.do(http.MethodGet, "/api/session", sid, "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Authenticated)
}

func TestAddToCart(t *testing.T) {
	t.Run("mirrors the badge", func(t *testing.T) {
		srv := newTestServer(t)
		sid := srv.signIn(t)
		srv.api.On("GetProduct", mock.Anything, int64(1)).Return(&domain.Product{ID: 1, Name: "Lamp", Price: decimal.RequireFromString("40"), IsInStock: true}, nil)
		srv.api.On("AddToCart", mock.Anything, testToken, int64(1), 2).Return(&infra.AddToCartResult{
			Cart: domain.CartSummary{TotalItems: 2, ItemCount: 1, TotalPrice: decimal.RequireFromString("80")},
		}, nil)

		w := srv.do(http.MethodPost, "/api/cart/items", sid, `{"product_id":1,"quantity":2}`)
		require.Equal(t, http.StatusOK, w.Code)

		var upd services.CartUpdate
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &upd))
		assert.Equal(t, "Lamp added to cart!", upd.Notice)
		assert.Equal(t, 2, upd.Count)

		w = srv.do(http.MethodGet, "/api/session", sid, "")
		var resp SessionResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 2, resp.CartCount)
	})

	t.Run("invalid body", func(t *testing.T) {
		srv := newTestServer(t)
		sid := srv.signIn(t)

		w := srv.do(http.MethodPost, "/api/cart/items", sid, `{"quantity":2}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		env := decodeError(t, w)
		assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
		assert.Equal(t, int64(3000), env.DismissAfterMs)
	})

	t.Run("expired token", func(t *testing.T) {
		srv := newTestServer(t)
		sid := srv.signIn(t)
		srv.api.On("QuickAdd", mock.Anything, testToken, int64(5)).Return(nil, &infra.APIError{Endpoint: "cart.quick_add", Status: http.StatusUnauthorized, Body: []byte(`{}`)})

		w := srv.do(http.MethodPost, "/api/cart/quick-add/5", sid, "")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		env := decodeError(t, w)
		assert.Equal(t, "Your session has expired. Please log in again.", env.Error.Message)
		assert.Equal(t, session.LoginPath, env.Redirect)

		_, err := srv.sessions.Require(context.Background(), sid)
		assert.Error(t, err)
	})
}

func TestClearCart_RequiresConfirmation(t *testing.T) {
	srv := newTestServer(t)
	sid := srv.signIn(t)

	w := srv.do(http.MethodDelete, "/api/cart", sid, "")
	assert.Equal(t, http.StatusPreconditionRequired, w.Code)
	assert.Equal(t, "Remove all items from your cart?", decodeError(t, w).Error.Message)
	srv.api.AssertNotCalled(t, "ClearCart", mock.Anything, mock.Anything)

	srv.api.On("ClearCart", mock.Anything, testToken).Return(nil)
	w = srv.do(http.MethodDelete, "/api/cart?confirm=true", sid, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Cart cleared")
}

func TestQuote(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantTotals map[string]string
	}{
		{
			name:       "free standard shipping",
			query:      "subtotal=60&shipping=standard",
			wantStatus: http.StatusOK,
			wantTotals: map[string]string{"subtotal": "60.00", "shipping": "0.00", "tax": "4.80", "total": "64.80"},
		},
		{
			name:       "express",
			query:      "subtotal=60&shipping=express",
			wantStatus: http.StatusOK,
			wantTotals: map[string]string{"subtotal": "60.00", "shipping": "15.99", "tax": "4.80", "total": "80.79"},
		},
		{name: "bad amount", query: "subtotal=abc", wantStatus: http.StatusBadRequest},
		{name: "unknown tier", query: "subtotal=10&shipping=drone", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t)
			w := srv.do(http.MethodGet, "/api/checkout/quote?"+tt.query, "", "")
			require.Equal(t, tt.wantStatus, w.Code)
			if tt.wantTotals == nil {
				return
			}
			var body struct {
				Totals map[string]string `json:"totals"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantTotals, body.Totals)
		})
	}
}

func TestGetProduct(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(http.MethodGet, "/api/products/abc", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid product ID", decodeError(t, w).Error.Message)

	srv.api.On("GetProduct", mock.Anything, int64(7)).Return(nil, nil)
	w = srv.do(http.MethodGet, "/api/products/7", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, services.ShopPath, decodeError(t, w).Redirect)
}

func TestTransactionReceipt(t *testing.T) {
	srv := newTestServer(t)
	sid := srv.signIn(t)
	srv.api.On("GetTransaction", mock.Anything, testToken, "TX-1").Return(&domain.Transaction{
		TransactionID:   "TX-1",
		TransactionType: domain.TransactionPayment,
		Status:          domain.TransactionCompleted,
		Amount:          decimal.RequireFromString("64.80"),
	}, nil)

	w := srv.do(http.MethodGet, "/api/transactions/TX-1/receipt", sid, "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="receipt_TX-1.json"`, w.Header().Get("Content-Disposition"))
	assert.Contains(t, w.Body.String(), `"transaction_id"`)
}

func TestSessionEvents(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.router)
	defer ts.Close()

	sid := uuid.NewString()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/session/events", nil)
	require.NoError(t, err)
	req.Header.Set(sessionIDHeader, sid)

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	reader := bufio.NewReader(resp.Body)
	readEvent(t, reader, "session")

	srv.bus.Publish(context.Background(), events.CartUpdated(uuid.NewString(), 9))
	srv.bus.Publish(context.Background(), events.CartUpdated(sid, 3))

	data := readEvent(t, reader, string(events.TopicCartUpdated))
	assert.JSONEq(t, `{"session_id":"`+sid+`","count":3}`, data)
}

// readEvent scans the stream until the named event and returns its data.
func readEvent(t *testing.T, r *bufio.Reader, name string) string {
	t.Helper()
	var current string
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "event:"):
			current = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:") && current == name:
			return strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		}
	}
}
