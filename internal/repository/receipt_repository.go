package repository

import (
	"context"

	"storefront/internal/domain"
)

// ReceiptRepository stores confirmations of orders placed through the gateway.
type ReceiptRepository interface {
	Save(ctx context.Context, receipt *domain.OrderReceipt) error
	FindByOrderID(ctx context.Context, orderID string) (*domain.OrderReceipt, error)
	ListBySession(ctx context.Context, sessionID string, limit int) ([]domain.OrderReceipt, error)
}
