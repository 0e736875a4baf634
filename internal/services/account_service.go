package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"storefront/internal/domain"
	"storefront/internal/infra"
	"storefront/internal/session"
	pkgerrors "storefront/pkg/errors"
	"storefront/pkg/logger"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	HomePath = "/"

	ProfileStatusUnavailable = "unavailable"
	memberSinceFallback      = "Recently joined"

	msgProfileSavedLocally = "Profile updated locally! Changes will be synced when the backend API is ready."
)

// Outcome is the message and follow-up navigation of an account action.
type Outcome struct {
	Message  string       `json:"message"`
	Redirect string       `json:"redirect,omitempty"`
	User     *domain.User `json:"user,omitempty"`
}

type ProfileUpdate struct {
	Message string          `json:"message"`
	Profile *domain.Profile `json:"profile"`
	// Local is true when only the session copy was updated.
	Local bool `json:"local"`
}

type AccountOverview struct {
	Profile   *domain.Profile   `json:"profile"`
	Dashboard *domain.Dashboard `json:"dashboard"`
}

type AccountService struct {
	backend
	api infra.AccountAPI
}

func NewAccountService(api infra.AccountAPI, sessions *session.Manager, logg *logger.Logger) *AccountService {
	if logg == nil {
		logg = logger.Nop()
	}
	return &AccountService{backend: backend{sessions: sessions, logg: logg}, api: api}
}

func (s *AccountService) Login(ctx context.Context, sessionID string, creds domain.Credentials) (*Outcome, error) {
	creds.Username = strings.TrimSpace(creds.Username)
	if creds.Username == "" || creds.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Please fill in all fields")
	}

	res, err := s.api.Login(ctx, creds)
	if err != nil {
		return nil, publicError(err, "Login failed. Please check your credentials.", "detail", "non_field_errors")
	}
	if err := s.sessions.SignIn(ctx, sessionID, *res); err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithSessionID(ctx, sessionID), "account.login")
	return &Outcome{Message: "Login successful", Redirect: HomePath, User: res.User}, nil
}

var signupErrorFields = []struct{ key, label string }{
	{"username", "Username"},
	{"email", "Email"},
	{"password", "Password"},
}

func (s *AccountService) Signup(ctx context.Context, req domain.SignupRequest) (*Outcome, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Please fill in all fields")
	}
	if req.Password != req.Password2 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Passwords do not match").
			WithDetails(map[string]string{"password2": "Passwords do not match"})
	}

	res, err := s.api.Signup(ctx, req)
	if err != nil {
		if apiErr, ok := infra.AsAPIError(err); ok && !apiErr.ServerSide() {
			for _, f := range signupErrorFields {
				if msg, found := apiErr.Text(f.key); found {
					return nil, pkgerrors.Wrap(pkgerrors.CodeRejected, err, fmt.Sprintf("%s: %s", f.label, msg))
				}
			}
		}
		return nil, publicError(err, "Registration failed. Please try again.", "detail", "message")
	}

	return &Outcome{
		Message:  fmt.Sprintf("Account created successfully! Your Customer ID is: %s", res.CustomerID),
		Redirect: session.LoginPath,
		User:     res.User,
	}, nil
}

func (s *AccountService) Logout(ctx context.Context, sessionID string) (*Outcome, error) {
	if err := s.sessions.Clear(ctx, sessionID); err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithSessionID(ctx, sessionID), "account.logout")
	return &Outcome{Message: "Logged out", Redirect: HomePath}, nil
}

// Profile falls back to the session copy of the user when the backend cannot
// serve it. An expired token still ends the session.
func (s *AccountService) Profile(ctx context.Context, sess *session.Session) (*domain.Profile, error) {
	p, err := s.api.GetProfile(ctx, sess.AccessToken)
	if err == nil {
		return p, nil
	}
	if apiErr, ok := infra.AsAPIError(err); ok && apiErr.Unauthorized() {
		return nil, s.translate(ctx, sess, err, failure{op: "account.profile", fallback: "Failed to load profile"})
	}
	s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"session_id": sess.ID, "error": err.Error()}), "account.profile_fallback")
	return fallbackProfile(sess.User), nil
}

func (s *AccountService) UpdateProfile(ctx context.Context, sess *session.Session, in domain.Profile) (*ProfileUpdate, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.TrimSpace(in.Email)
	in.Username = strings.TrimSpace(in.Username)

	saved, err := s.api.UpdateProfile(ctx, sess.AccessToken, in)
	if err == nil {
		if _, syncErr := s.sessions.UpdateUser(ctx, sess.ID, mergeProfile(*saved, in)); syncErr != nil {
			s.logg.Error(s.logg.WithSessionID(ctx, sess.ID), "account.sync_user_failed", syncErr)
		}
		return &ProfileUpdate{Message: "Profile updated successfully!", Profile: saved}, nil
	}

	typed := pkgerrors.As(s.translate(ctx, sess, err, failure{
		op:       "account.profile_update",
		fallback: "Failed to update profile",
		keys:     []string{"detail"},
	}))
	if typed.Code() != pkgerrors.CodeDependency {
		return nil, typed
	}

	if _, syncErr := s.sessions.UpdateUser(ctx, sess.ID, mergeProfile(in, in)); syncErr != nil {
		return nil, syncErr
	}
	local := in
	local.APIStatus = ProfileStatusUnavailable
	return &ProfileUpdate{Message: msgProfileSavedLocally, Profile: &local, Local: true}, nil
}

// Dashboard never fails the page; on any error the counters read zero.
func (s *AccountService) Dashboard(ctx context.Context, sess *session.Session) *domain.Dashboard {
	d, err := s.api.GetDashboard(ctx, sess.AccessToken)
	if err != nil || d == nil {
		if err != nil {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"session_id": sess.ID, "error": err.Error()}), "account.dashboard_unavailable")
		}
		return emptyDashboard()
	}
	if d.RecentActivity == nil {
		d.RecentActivity = []json.RawMessage{}
	}
	return d
}

// Overview loads the profile and the dashboard concurrently for the account
// page.
func (s *AccountService) Overview(ctx context.Context, sess *session.Session) (*AccountOverview, error) {
	out := &AccountOverview{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.Profile(gctx, sess)
		out.Profile = p
		return err
	})
	g.Go(func() error {
		out.Dashboard = s.Dashboard(gctx, sess)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func emptyDashboard() *domain.Dashboard {
	return &domain.Dashboard{TotalSpent: decimal.Zero, RecentActivity: []json.RawMessage{}}
}

func fallbackProfile(u *domain.User) *domain.Profile {
	p := &domain.Profile{MemberSince: memberSinceFallback, APIStatus: ProfileStatusUnavailable}
	if u == nil {
		return p
	}
	p.FirstName = u.FirstName
	p.LastName = u.LastName
	p.Email = u.Email
	p.Username = u.Username
	p.CustomerID = u.CustomerID
	return p
}

// mergeProfile copies the non-empty identity fields into the stored user,
// preferring what the backend saved over what was submitted.
func mergeProfile(saved, submitted domain.Profile) func(*domain.User) {
	pick := func(a, b string) string {
		if a != "" {
			return a
		}
		return b
	}
	return func(u *domain.User) {
		if v := pick(saved.Username, submitted.Username); v != "" {
			u.Username = v
		}
		if v := pick(saved.Email, submitted.Email); v != "" {
			u.Email = v
		}
		if v := pick(saved.FirstName, submitted.FirstName); v != "" {
			u.FirstName = v
		}
		if v := pick(saved.LastName, submitted.LastName); v != "" {
			u.LastName = v
		}
	}
}
