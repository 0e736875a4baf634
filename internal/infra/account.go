package infra

import (
	"context"
	"net/http"

	"storefront/internal/domain"
)

func (c *StoreClient) Login(ctx context.Context, creds domain.Credentials) (*domain.LoginResult, error) {
	var out domain.LoginResult
	err := c.do(ctx, request{
		method:   http.MethodPost,
		path:     "/api/auth/login/",
		endpoint: "auth.login",
		body:     creds,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *StoreClient) Signup(ctx context.Context, req domain.SignupRequest) (*domain.SignupResult, error) {
	var out domain.SignupResult
	err := c.do(ctx, request{
		method:   http.MethodPost,
		path:     "/api/auth/signup/",
		endpoint: "auth.signup",
		body:     req,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *StoreClient) GetProfile(ctx context.Context, token string) (*domain.Profile, error) {
	var out domain.Profile
	err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     "/api/account/profile/",
		endpoint: "account.profile",
		token:    token,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *StoreClient) UpdateProfile(ctx context.Context, token string, profile domain.Profile) (*domain.Profile, error) {
	var out domain.Profile
	err := c.do(ctx, request{
		method:   http.MethodPut,
		path:     "/api/account/profile/",
		endpoint: "account.profile_update",
		token:    token,
		body:     profile,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *StoreClient) GetDashboard(ctx context.Context, token string) (*domain.Dashboard, error) {
	var out domain.Dashboard
	err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     "/api/account/dashboard/",
		endpoint: "account.dashboard",
		token:    token,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
