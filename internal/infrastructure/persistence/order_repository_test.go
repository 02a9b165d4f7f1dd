package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderdash/backend/internal/domain/orders"
	"github.com/orderdash/backend/internal/infrastructure/persistence/models"
)

func testOrder(id string, number int64) *orders.CanonicalOrder {
	received := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	o := &orders.CanonicalOrder{
		OrderID:     id,
		ReceivedAt:  &received,
		Source:      "EBAY",
		Currency:    "GBP",
		TotalCharge: decimal.NewFromFloat(25.50),
		Items: []orders.CanonicalOrderItem{
			{SKU: "SKU-A", Title: "Thing", Quantity: 1, PricePerUnit: decimal.NewFromFloat(25.50)},
		},
		Shipping: &orders.ShippingDetail{Vendor: "Royal Mail", TrackingNumber: "RM1"},
		RawData:  `{"pkOrderID":"` + id + `"}`,
	}
	if number != 0 {
		o.OrderNumber = &number
	}
	return o
}

func TestGormOrderRepository_Save(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, testOrder("ord-1", 101)))

	var parent models.OrderModel
	require.NoError(t, db.First(&parent, "external_order_id = ?", "ord-1").Error)
	assert.Equal(t, "ebay", parent.Channel)

	// Children carry the parent's generated ID.
	var itemCount, shippingCount int64
	require.NoError(t, db.Model(&models.OrderItemModel{}).Where("order_id = ?", parent.ID).Count(&itemCount).Error)
	require.NoError(t, db.Model(&models.OrderShippingModel{}).Where("order_id = ?", parent.ID).Count(&shippingCount).Error)
	assert.Equal(t, int64(1), itemCount)
	assert.Equal(t, int64(1), shippingCount)
}

func TestGormOrderRepository_SaveDuplicateIdentifier(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, testOrder("ord-dup", 201)))

	err := repo.Save(ctx, testOrder("ord-dup", 202))
	require.Error(t, err)
	assert.ErrorIs(t, err, orders.ErrOrderExists)

	// The losing transaction must leave no orphaned children behind.
	var itemCount int64
	require.NoError(t, db.Model(&models.OrderItemModel{}).Count(&itemCount).Error)
	assert.Equal(t, int64(1), itemCount)
}

func TestGormOrderRepository_SaveDuplicateNumber(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, testOrder("ord-x", 300)))
	err := repo.Save(ctx, testOrder("ord-y", 300))
	assert.ErrorIs(t, err, orders.ErrOrderExists)
}

func TestGormOrderRepository_ExistingKeys(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, testOrder("ord-a", 401)))
	require.NoError(t, repo.Save(ctx, testOrder("ord-b", 0)))

	keys, err := repo.ExistingKeys(ctx,
		[]string{"ord-a", "ord-b", "ord-missing"},
		[]int64{401, 999})
	require.NoError(t, err)

	assert.True(t, keys.Contains(testOrder("ord-a", 0)))
	assert.True(t, keys.Contains(testOrder("ord-b", 0)))
	assert.True(t, keys.Contains(testOrder("", 401)))
	assert.False(t, keys.Contains(testOrder("ord-missing", 999)))
}

func TestGormOrderRepository_ExistingKeysEmptyInput(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormOrderRepository(db)

	keys, err := repo.ExistingKeys(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Zero(t, keys.Len())
}

func TestGormOrderRepository_MarkProcessed(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, testOrder("ord-open", 501)))

	processed := time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC)
	fresher := testOrder("ord-open", 501)
	fresher.ProcessedAt = &processed
	fresher.IsPaid = true
	fresher.Status = orders.StatusPaid

	updated, err := repo.MarkProcessed(ctx, fresher)
	require.NoError(t, err)
	assert.True(t, updated)

	var model models.OrderModel
	require.NoError(t, db.First(&model, "external_order_id = ?", "ord-open").Error)
	require.NotNil(t, model.ProcessedAt)
	assert.Equal(t, "processed", model.StatusText)
	assert.True(t, model.IsPaid)

	// A second pass finds the row already processed and touches nothing.
	updated, err = repo.MarkProcessed(ctx, fresher)
	require.NoError(t, err)
	assert.False(t, updated)
}

func TestGormOrderRepository_MarkProcessedSkipsUnprocessed(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, testOrder("ord-keep", 601)))
	updated, err := repo.MarkProcessed(ctx, testOrder("ord-keep", 601))
	require.NoError(t, err)
	assert.False(t, updated)

	var model models.OrderModel
	require.NoError(t, db.First(&model, "external_order_id = ?", "ord-keep").Error)
	assert.Nil(t, model.ProcessedAt)
}

func TestGormOrderRepository_MarkProcessedWithoutIdentity(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormOrderRepository(db)

	processed := time.Now()
	_, err := repo.MarkProcessed(context.Background(), &orders.CanonicalOrder{ProcessedAt: &processed})
	assert.ErrorIs(t, err, orders.ErrMissingIdentity)
}
