package mysql

import (
	"context"
	"errors"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type receiptRepo struct {
	db *gorm.DB
}

func NewReceiptRepository(db *gorm.DB) repository.ReceiptRepository {
	return &receiptRepo{db: db}
}

// Save inserts the receipt, or refreshes it when the same order id was
// already recorded (a resubmitted confirmation).
func (r *receiptRepo) Save(ctx context.Context, receipt *domain.OrderReceipt) error {
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "order_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"session_id", "customer_email", "source", "shipping_method", "item_count",
			"subtotal", "shipping_cost", "tax_amount", "total_amount", "estimated_delivery",
		}),
	}).Create(receipt)
	if result.Error != nil {
		return result.Error
	}
	if receipt.ID == 0 {
		// Upserts on some drivers do not report the id back.
		var stored domain.OrderReceipt
		if err := r.db.WithContext(ctx).Select("id").Where("order_id = ?", receipt.OrderID).First(&stored).Error; err != nil {
			return err
		}
		receipt.ID = stored.ID
	}
	return nil
}

func (r *receiptRepo) FindByOrderID(ctx context.Context, orderID string) (*domain.OrderReceipt, error) {
	var o domain.OrderReceipt
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&o).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}

func (r *receiptRepo) ListBySession(ctx context.Context, sessionID string, limit int) ([]domain.OrderReceipt, error) {
	if limit <= 0 {
		limit = 10
	}
	var out []domain.OrderReceipt
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
