package persistence

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/orderdash/backend/internal/domain/syncstate"
	"github.com/orderdash/backend/internal/infrastructure/persistence/models"
)

// GormFailedSyncRepository implements syncstate.FailedSyncRepository using GORM
type GormFailedSyncRepository struct {
	db *gorm.DB
}

// NewGormFailedSyncRepository creates a new GormFailedSyncRepository
func NewGormFailedSyncRepository(db *gorm.DB) *GormFailedSyncRepository {
	return &GormFailedSyncRepository{db: db}
}

// Save creates or updates a failed record.
func (r *GormFailedSyncRepository) Save(ctx context.Context, record *syncstate.FailedSyncRecord) error {
	model := &models.FailedSyncRecordModel{}
	model.FromDomain(record)
	return r.db.WithContext(ctx).Save(model).Error
}

// FindRetryable returns unresolved records whose next-retry time has
// elapsed, oldest first.
func (r *GormFailedSyncRepository) FindRetryable(ctx context.Context, now time.Time, limit int) ([]syncstate.FailedSyncRecord, error) {
	var recordModels []models.FailedSyncRecordModel
	if err := r.db.WithContext(ctx).
		Where("resolved = ? AND next_retry_at <= ?", false, now).
		Order("next_retry_at ASC").
		Limit(limit).
		Find(&recordModels).Error; err != nil {
		return nil, err
	}
	return failedRecordsToDomain(recordModels), nil
}

// FindRecent returns the most recent records, newest first.
func (r *GormFailedSyncRepository) FindRecent(ctx context.Context, limit int) ([]syncstate.FailedSyncRecord, error) {
	var recordModels []models.FailedSyncRecordModel
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&recordModels).Error; err != nil {
		return nil, err
	}
	return failedRecordsToDomain(recordModels), nil
}

func failedRecordsToDomain(recordModels []models.FailedSyncRecordModel) []syncstate.FailedSyncRecord {
	records := make([]syncstate.FailedSyncRecord, len(recordModels))
	for i, model := range recordModels {
		records[i] = *model.ToDomain()
	}
	return records
}

// Ensure GormFailedSyncRepository implements the domain contract
var _ syncstate.FailedSyncRepository = (*GormFailedSyncRepository)(nil)
