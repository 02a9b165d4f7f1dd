package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/orderdash/backend/internal/domain/syncstate"
	"github.com/orderdash/backend/internal/infrastructure/persistence/models"
)

// GormConnectionRepository implements syncstate.ConnectionRepository using GORM
type GormConnectionRepository struct {
	db *gorm.DB
}

// NewGormConnectionRepository creates a new GormConnectionRepository
func NewGormConnectionRepository(db *gorm.DB) *GormConnectionRepository {
	return &GormConnectionRepository{db: db}
}

// Get returns the connection state for an account.
func (r *GormConnectionRepository) Get(ctx context.Context, accountID string) (*syncstate.RemoteConnection, error) {
	var model models.RemoteConnectionModel
	if err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, syncstate.ErrConnectionNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save upserts the connection state keyed by account.
func (r *GormConnectionRepository) Save(ctx context.Context, conn *syncstate.RemoteConnection) error {
	model := &models.RemoteConnectionModel{}
	model.FromDomain(conn)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "account_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"token", "server", "token_expires_at", "status", "last_auth_at", "updated_at",
			}),
		}).
		Create(model).Error
}

// Ensure GormConnectionRepository implements the domain contract
var _ syncstate.ConnectionRepository = (*GormConnectionRepository)(nil)
