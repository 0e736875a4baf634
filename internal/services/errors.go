package services

import (
	"context"

	"storefront/internal/infra"
	"storefront/internal/session"
	pkgerrors "storefront/pkg/errors"
	"storefront/pkg/logger"
)

const (
	msgNetworkRetry   = "Network error. Please try again."
	msgNetworkConnect = "Network error. Please check your connection."
	msgSessionExpired = "Your session has expired. Please log in again."
)

// failure describes how one backend call surfaces its errors to the shopper.
type failure struct {
	op       string
	fallback string
	network  string
	notFound string
	keys     []string
	// opaque failures always show fallback, never backend text.
	opaque bool
}

// backend is embedded by every service that calls the shop API on behalf of a
// session.
type backend struct {
	sessions *session.Manager
	logg     *logger.Logger
}

// translate maps a backend error to the typed error shown to the shopper.
// A 401 ends the session.
func (b backend) translate(ctx context.Context, sess *session.Session, err error, f failure) error {
	if err == nil {
		return nil
	}
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}

	ctx = b.logg.WithField(ctx, "op", f.op)

	if infra.IsNetworkError(err) {
		b.logg.Warn(b.logg.WithField(ctx, "error", err.Error()), "backend.unreachable")
		msg := f.network
		if msg == "" {
			msg = msgNetworkConnect
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
	}

	apiErr, ok := infra.AsAPIError(err)
	if !ok {
		b.logg.Error(ctx, "backend.unexpected_error", err)
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, f.fallback)
	}

	keys := f.keys
	switch {
	case f.opaque:
		keys = nil
	case keys == nil:
		keys = []string{"detail", "message"}
	}

	switch {
	case apiErr.Unauthorized():
		if sess != nil && b.sessions != nil {
			if clearErr := b.sessions.Clear(ctx, sess.ID); clearErr != nil {
				b.logg.Error(ctx, "session.clear_failed", clearErr)
			}
		}
		return pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, msgSessionExpired).WithRedirect(session.LoginPath)
	case apiErr.NotFound() && f.notFound != "":
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, f.notFound)
	case apiErr.ServerSide():
		b.logg.Warn(b.logg.WithField(ctx, "status", apiErr.Status), "backend.server_error")
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, apiErr.UserMessage(f.fallback, keys...))
	}
	return pkgerrors.Wrap(pkgerrors.CodeRejected, err, apiErr.UserMessage(f.fallback, keys...))
}

// publicError maps failures of calls made without a session: catalog reads,
// login and signup. A 401 there is a rejected request, not an expired session.
func publicError(err error, fallback string, keys ...string) error {
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	if infra.IsNetworkError(err) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msgNetworkConnect)
	}
	if len(keys) == 0 {
		keys = []string{"detail", "message"}
	}
	if apiErr, ok := infra.AsAPIError(err); ok {
		code := pkgerrors.CodeRejected
		if apiErr.ServerSide() {
			code = pkgerrors.CodeDependency
		}
		return pkgerrors.Wrap(code, err, apiErr.UserMessage(fallback, keys...))
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, fallback)
}
