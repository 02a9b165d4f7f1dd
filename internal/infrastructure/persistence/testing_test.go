package persistence

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/orderdash/backend/internal/infrastructure/persistence/models"
)

// newTestDB opens an isolated in-memory SQLite database with the full schema
// migrated. Good enough for repository behavior; the unique indexes behave
// the same as in Postgres for the cases tested here.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=private"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.OrderModel{},
		&models.OrderItemModel{},
		&models.OrderShippingModel{},
		&models.OrderNoteModel{},
		&models.OrderPropertyModel{},
		&models.OrderIdentifierModel{},
		&models.SyncCheckpointModel{},
		&models.FailedSyncRecordModel{},
		&models.SyncLogModel{},
		&models.RemoteConnectionModel{},
	))

	return db
}
