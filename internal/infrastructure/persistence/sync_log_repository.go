package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/orderdash/backend/internal/domain/syncstate"
	"github.com/orderdash/backend/internal/infrastructure/persistence/models"
)

// GormSyncLogRepository implements syncstate.SyncLogRepository using GORM
type GormSyncLogRepository struct {
	db *gorm.DB
}

// NewGormSyncLogRepository creates a new GormSyncLogRepository
func NewGormSyncLogRepository(db *gorm.DB) *GormSyncLogRepository {
	return &GormSyncLogRepository{db: db}
}

// Save writes one run summary.
func (r *GormSyncLogRepository) Save(ctx context.Context, log *syncstate.SyncLog) error {
	model := &models.SyncLogModel{}
	model.FromDomain(log)
	return r.db.WithContext(ctx).Create(model).Error
}

// FindRecent returns the most recent run summaries, newest first.
func (r *GormSyncLogRepository) FindRecent(ctx context.Context, limit int) ([]syncstate.SyncLog, error) {
	var logModels []models.SyncLogModel
	if err := r.db.WithContext(ctx).
		Order("started_at DESC").
		Limit(limit).
		Find(&logModels).Error; err != nil {
		return nil, err
	}

	logs := make([]syncstate.SyncLog, len(logModels))
	for i, model := range logModels {
		logs[i] = *model.ToDomain()
	}
	return logs, nil
}

// Ensure GormSyncLogRepository implements the domain contract
var _ syncstate.SyncLogRepository = (*GormSyncLogRepository)(nil)
