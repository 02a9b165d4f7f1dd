package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/orderdash/backend/internal/domain/orders"
	"github.com/orderdash/backend/internal/infrastructure/persistence/models"
)

// GormOrderRepository implements orders.Repository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Save persists one order and its related records in a single transaction.
// The parent row is inserted first so its generated ID can be stamped onto
// the child rows; either everything lands or nothing does. A unique-index
// rejection surfaces as orders.ErrOrderExists so the caller can treat the
// race loser as a skip rather than a failure.
func (r *GormOrderRepository) Save(ctx context.Context, order *orders.CanonicalOrder) error {
	set := models.AssembleOrderRecordSet(order)
	set.BackfillParentID(uuid.New())

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&set.Order).Error; err != nil {
			return err
		}
		if len(set.Items) > 0 {
			if err := tx.Create(&set.Items).Error; err != nil {
				return err
			}
		}
		if set.Shipping != nil {
			if err := tx.Create(set.Shipping).Error; err != nil {
				return err
			}
		}
		if len(set.Notes) > 0 {
			if err := tx.Create(&set.Notes).Error; err != nil {
				return err
			}
		}
		if len(set.Properties) > 0 {
			if err := tx.Create(&set.Properties).Error; err != nil {
				return err
			}
		}
		if len(set.Identifiers) > 0 {
			if err := tx.Create(&set.Identifiers).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return orders.ErrOrderExists
		}
		return err
	}
	return nil
}

// ExistingKeys resolves which of the given remote keys are already stored,
// in one batched query per key kind.
func (r *GormOrderRepository) ExistingKeys(ctx context.Context, ids []string, numbers []int64) (orders.KeySet, error) {
	var foundIDs []string
	if len(ids) > 0 {
		if err := r.db.WithContext(ctx).
			Model(&models.OrderModel{}).
			Where("external_order_id IN ?", ids).
			Pluck("external_order_id", &foundIDs).Error; err != nil {
			return orders.KeySet{}, err
		}
	}

	var foundNumbers []int64
	if len(numbers) > 0 {
		if err := r.db.WithContext(ctx).
			Model(&models.OrderModel{}).
			Where("order_number IN ?", numbers).
			Pluck("order_number", &foundNumbers).Error; err != nil {
			return orders.KeySet{}, err
		}
	}

	return orders.NewKeySet(foundIDs, foundNumbers), nil
}

// MarkProcessed promotes a stored row to processed using a fresher remote
// copy: processed timestamp, paid state and remote status are taken from the
// incoming order. Rows already marked processed are left alone, reported by
// a false return so callers can count the no-op as a skip.
func (r *GormOrderRepository) MarkProcessed(ctx context.Context, order *orders.CanonicalOrder) (bool, error) {
	if !order.IsProcessed() {
		return false, nil
	}

	query := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("processed_at IS NULL")
	switch {
	case order.OrderID != "":
		query = query.Where("external_order_id = ?", order.OrderID)
	case order.OrderNumber != nil:
		query = query.Where("order_number = ?", *order.OrderNumber)
	default:
		return false, orders.ErrMissingIdentity
	}

	res := query.Updates(map[string]any{
		"processed_at":  order.ProcessedAt,
		"status_text":   "processed",
		"remote_status": order.Status,
		"is_paid":       order.IsPaid,
		"paid_at":       order.PaidAt,
		"updated_at":    time.Now(),
	})
	return res.RowsAffected > 0, res.Error
}

// isUniqueViolation detects a unique-index rejection across the drivers in
// play: gorm's translated error, Postgres error 23505 and SQLite's message
// in tests.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint")
}

// Ensure GormOrderRepository implements the domain contract
var _ orders.Repository = (*GormOrderRepository)(nil)
