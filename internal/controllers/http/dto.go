package http

import "storefront/internal/domain"

type AddToCartRequest struct {
	ProductID int64 `json:"product_id" binding:"required,gt=0"`
	Quantity  *int  `json:"quantity"`
}

type UpdateQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// SessionResponse feeds the header: login state and the cart badge.
type SessionResponse struct {
	SessionID     string       `json:"session_id"`
	Authenticated bool         `json:"authenticated"`
	User          *domain.User `json:"user,omitempty"`
	CartCount     int          `json:"cart_count"`
}

type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type errorEnvelope struct {
	Error          errorBody `json:"error"`
	Redirect       string    `json:"redirect,omitempty"`
	DismissAfterMs int64     `json:"dismiss_after_ms,omitempty"`
}
