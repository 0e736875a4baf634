package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type CartUpdatedEvent struct {
	SessionID string `json:"session_id"`
	Count     int    `json:"count"`
}

type SessionChangedEvent struct {
	SessionID     string `json:"session_id"`
	Authenticated bool   `json:"authenticated"`
}

type OrderPlacedEvent struct {
	SessionID string          `json:"session_id"`
	OrderID   string          `json:"order_id"`
	Total     decimal.Decimal `json:"total"`
	Source    OrderSource     `json:"source"`
	PlacedAt  time.Time       `json:"placed_at"`
}
