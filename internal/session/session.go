// Package session holds the shopper's credentials and the mirrored cart count
// on the gateway side, replacing browser storage.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"storefront/internal/domain"
	"storefront/internal/events"
	pkgerrors "storefront/pkg/errors"
	"storefront/pkg/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/multierr"
)

const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyUserData     = "user_data"
	KeyCartItems    = "cart_items"

	LoginPath = "/auth/login"
)

var allKeys = []string{KeyAccessToken, KeyRefreshToken, KeyUserData, KeyCartItems}

type Session struct {
	ID           string       `json:"id"`
	AccessToken  string       `json:"-"`
	RefreshToken string       `json:"-"`
	User         *domain.User `json:"user,omitempty"`
	// CartCount is nil until a cart call has mirrored it.
	CartCount *int `json:"cart_count,omitempty"`
}

// Authenticated needs both the token and the user blob.
func (s *Session) Authenticated() bool {
	return s != nil && s.AccessToken != "" && s.User != nil
}

func (s *Session) CartBadge() int {
	if s == nil || s.CartCount == nil {
		return 0
	}
	return *s.CartCount
}

type Manager struct {
	store  Store
	events events.Publisher
	ttl    time.Duration
	logg   *logger.Logger
	now    func() time.Time
}

func NewManager(store Store, pub events.Publisher, ttl time.Duration, logg *logger.Logger) *Manager {
	if logg == nil {
		logg = logger.Nop()
	}
	return &Manager{store: store, events: pub, ttl: ttl, logg: logg, now: time.Now}
}

// Begin allocates a new session id.
func (m *Manager) Begin() string {
	return uuid.NewString()
}

func (m *Manager) Load(ctx context.Context, sessionID string) (*Session, error) {
	s := &Session{ID: sessionID}
	if sessionID == "" {
		return s, nil
	}

	var err error
	if s.AccessToken, err = m.get(ctx, sessionID, KeyAccessToken); err != nil {
		return nil, err
	}
	if s.RefreshToken, err = m.get(ctx, sessionID, KeyRefreshToken); err != nil {
		return nil, err
	}

	rawUser, err := m.get(ctx, sessionID, KeyUserData)
	if err != nil {
		return nil, err
	}
	if rawUser != "" {
		var u domain.User
		if jsonErr := json.Unmarshal([]byte(rawUser), &u); jsonErr != nil {
			// A corrupt blob means logged out.
			m.logg.Warn(m.logg.WithSessionID(ctx, sessionID), "session.user_data_corrupt")
			if clearErr := m.Clear(ctx, sessionID); clearErr != nil {
				return nil, clearErr
			}
			return &Session{ID: sessionID}, nil
		}
		s.User = &u
	}

	rawCount, err := m.get(ctx, sessionID, KeyCartItems)
	if err != nil {
		return nil, err
	}
	if rawCount != "" {
		if n, convErr := strconv.Atoi(rawCount); convErr == nil {
			s.CartCount = &n
		}
	}
	return s, nil
}

// Require loads the session and fails with a login redirect when it is not
// authenticated.
func (m *Manager) Require(ctx context.Context, sessionID string) (*Session, error) {
	s, err := m.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !s.Authenticated() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "Please log in to continue").WithRedirect(LoginPath)
	}
	return s, nil
}

func (m *Manager) SignIn(ctx context.Context, sessionID string, res domain.LoginResult) error {
	ttl := m.ttlFor(res.Access)

	var err error
	if res.Access != "" {
		err = multierr.Append(err, m.store.Set(ctx, sessionID, KeyAccessToken, res.Access, ttl))
	}
	if res.Refresh != "" {
		err = multierr.Append(err, m.store.Set(ctx, sessionID, KeyRefreshToken, res.Refresh, ttl))
	}
	if res.User != nil {
		raw, jsonErr := json.Marshal(res.User)
		if jsonErr != nil {
			err = multierr.Append(err, jsonErr)
		} else {
			err = multierr.Append(err, m.store.Set(ctx, sessionID, KeyUserData, string(raw), ttl))
		}
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to store session")
	}

	m.publish(ctx, events.SessionChanged(sessionID, res.Access != "" && res.User != nil))
	return nil
}

// Clear removes every stored key and announces the logout.
func (m *Manager) Clear(ctx context.Context, sessionID string) error {
	if err := m.store.Delete(ctx, sessionID, allKeys...); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to clear session")
	}
	m.publish(ctx, events.SessionChanged(sessionID, false))
	return nil
}

// SetCartCount mirrors the cart total and announces it to the header.
func (m *Manager) SetCartCount(ctx context.Context, sessionID string, count int) error {
	if count < 0 {
		count = 0
	}
	token, err := m.get(ctx, sessionID, KeyAccessToken)
	if err != nil {
		return err
	}
	if err := m.store.Set(ctx, sessionID, KeyCartItems, strconv.Itoa(count), m.ttlFor(token)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to store cart count")
	}
	m.publish(ctx, events.CartUpdated(sessionID, count))
	return nil
}

// ForgetCartCount drops the mirror so the header falls back to zero.
func (m *Manager) ForgetCartCount(ctx context.Context, sessionID string) error {
	if err := m.store.Delete(ctx, sessionID, KeyCartItems); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to clear cart count")
	}
	m.publish(ctx, events.CartUpdated(sessionID, 0))
	return nil
}

// UpdateUser applies fn to the stored user blob and saves it back.
func (m *Manager) UpdateUser(ctx context.Context, sessionID string, fn func(*domain.User)) (*domain.User, error) {
	s, err := m.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	u := domain.User{}
	if s.User != nil {
		u = *s.User
	}
	fn(&u)
	raw, err := json.Marshal(u)
	if err != nil {
		return nil, err
	}
	if err := m.store.Set(ctx, sessionID, KeyUserData, string(raw), m.ttlFor(s.AccessToken)); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to store user")
	}
	return &u, nil
}

// expiredTokenTTL is how long credentials whose token already expired are kept.
// Stores treat a zero TTL as no expiry, so it stays positive.
const expiredTokenTTL = time.Second

// ttlFor caps the configured TTL at the access token's remaining lifetime.
// The signature is not checked; the backend remains the authority.
func (m *Manager) ttlFor(token string) time.Duration {
	ttl := m.ttl
	if token == "" {
		return ttl
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return ttl
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return ttl
	}
	remaining := exp.Time.Sub(m.now())
	if remaining <= 0 {
		return expiredTokenTTL
	}
	if ttl <= 0 || remaining < ttl {
		return remaining
	}
	return ttl
}

func (m *Manager) get(ctx context.Context, sessionID, key string) (string, error) {
	val, err := m.store.Get(ctx, sessionID, key)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "session store unavailable")
	}
	return val, nil
}

func (m *Manager) publish(ctx context.Context, evt events.Event) {
	if m.events == nil {
		return
	}
	m.events.Publish(ctx, evt)
}
