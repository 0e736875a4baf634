package mysql

import (
	"context"
	"testing"

	"storefront/internal/domain"
	"storefront/internal/infra/database"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	return db
}

func receipt(orderID, session string, total string) *domain.OrderReceipt {
	return &domain.OrderReceipt{
		OrderID:           orderID,
		SessionID:         session,
		CustomerEmail:     "ada@example.com",
		Source:            domain.SourceCart,
		ShippingMethod:    "Standard Shipping",
		ItemCount:         2,
		Subtotal:          decimal.RequireFromString("60.00"),
		ShippingCost:      decimal.Zero,
		TaxAmount:         decimal.RequireFromString("4.80"),
		TotalAmount:       decimal.RequireFromString(total),
		EstimatedDelivery: "Wed, Jan 8",
	}
}

func TestReceiptRepo_SaveAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewReceiptRepository(newTestDB(t))

	r := receipt("ORD-1", "sess-1", "64.80")
	require.NoError(t, repo.Save(ctx, r))
	assert.NotZero(t, r.ID)

	got, err := repo.FindByOrderID(ctx, "ORD-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Standard Shipping", got.ShippingMethod)
	assert.True(t, decimal.RequireFromString("64.80").Equal(got.TotalAmount))

	missing, err := repo.FindByOrderID(ctx, "ORD-404")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestReceiptRepo_SaveIsIdempotentPerOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewReceiptRepository(newTestDB(t))

	require.NoError(t, repo.Save(ctx, receipt("ORD-2", "sess-1", "64.80")))
	require.NoError(t, repo.Save(ctx, receipt("ORD-2", "sess-1", "70.00")))

	list, err := repo.ListBySession(ctx, "sess-1", 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, decimal.RequireFromString("70").Equal(list[0].TotalAmount))
}

func TestReceiptRepo_ListBySession(t *testing.T) {
	ctx := context.Background()
	repo := NewReceiptRepository(newTestDB(t))

	require.NoError(t, repo.Save(ctx, receipt("ORD-A", "sess-1", "10.00")))
	require.NoError(t, repo.Save(ctx, receipt("ORD-B", "sess-1", "20.00")))
	require.NoError(t, repo.Save(ctx, receipt("ORD-C", "sess-2", "30.00")))

	list, err := repo.ListBySession(ctx, "sess-1", 5)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
