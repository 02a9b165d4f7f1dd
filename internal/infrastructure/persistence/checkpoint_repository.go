package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/orderdash/backend/internal/domain/syncstate"
	"github.com/orderdash/backend/internal/infrastructure/persistence/models"
)

// GormCheckpointRepository implements syncstate.CheckpointRepository using GORM
type GormCheckpointRepository struct {
	db *gorm.DB
}

// NewGormCheckpointRepository creates a new GormCheckpointRepository
func NewGormCheckpointRepository(db *gorm.DB) *GormCheckpointRepository {
	return &GormCheckpointRepository{db: db}
}

// GetOrCreate returns the checkpoint for a (sync type, source) pair,
// creating the initial pending row if it does not exist. The insert is an
// on-conflict-do-nothing upsert followed by a read, so two processes
// bootstrapping concurrently converge on the same row.
func (r *GormCheckpointRepository) GetOrCreate(ctx context.Context, syncType syncstate.SyncType, source string) (*syncstate.SyncCheckpoint, error) {
	if !syncType.IsValid() {
		return nil, syncstate.ErrInvalidSyncType
	}

	fresh := models.SyncCheckpointModelFromDomain(syncstate.NewSyncCheckpoint(syncType, source))
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "sync_type"}, {Name: "source"}},
			DoNothing: true,
		}).
		Create(fresh).Error; err != nil {
		return nil, err
	}

	var model models.SyncCheckpointModel
	if err := r.db.WithContext(ctx).
		Where("sync_type = ? AND source = ?", syncType.String(), source).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, syncstate.ErrCheckpointNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save persists the checkpoint's current state.
func (r *GormCheckpointRepository) Save(ctx context.Context, checkpoint *syncstate.SyncCheckpoint) error {
	model := models.SyncCheckpointModelFromDomain(checkpoint)
	return r.db.WithContext(ctx).Save(model).Error
}

// FindAll returns every checkpoint ordered by sync type.
func (r *GormCheckpointRepository) FindAll(ctx context.Context) ([]syncstate.SyncCheckpoint, error) {
	var checkpointModels []models.SyncCheckpointModel
	if err := r.db.WithContext(ctx).
		Order("sync_type ASC, source ASC").
		Find(&checkpointModels).Error; err != nil {
		return nil, err
	}

	checkpoints := make([]syncstate.SyncCheckpoint, len(checkpointModels))
	for i, model := range checkpointModels {
		checkpoints[i] = *model.ToDomain()
	}
	return checkpoints, nil
}

// Ensure GormCheckpointRepository implements the domain contract
var _ syncstate.CheckpointRepository = (*GormCheckpointRepository)(nil)
