package persistence

import (
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// openMockDB wires a Database around a sqlmock connection. Pings are
// monitored so ExpectPing works; GORM's implicit transaction wrapping is
// disabled so expectations match the raw statements.
func openMockDB(t *testing.T) (*Database, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	conn, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       conn,
		DriverName: "postgres",
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	return &Database{DB: gormDB}, mock, conn
}

func TestDatabaseStats(t *testing.T) {
	t.Run("reports pool counters", func(t *testing.T) {
		db, _, conn := openMockDB(t)
		defer conn.Close()

		stats, err := db.Stats()
		require.NoError(t, err)

		assert.GreaterOrEqual(t, stats.OpenConnections, 0)
		assert.Equal(t, stats.OpenConnections, stats.InUse+stats.Idle)
		assert.GreaterOrEqual(t, stats.WaitCount, int64(0))
	})
}

func TestDatabasePing(t *testing.T) {
	db, mock, conn := openMockDB(t)
	defer conn.Close()

	mock.ExpectPing()

	require.NoError(t, db.Ping())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabaseClose(t *testing.T) {
	db, mock, _ := openMockDB(t)

	mock.ExpectClose()

	require.NoError(t, db.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabaseTransaction(t *testing.T) {
	type syncLogRow struct {
		ID     uint
		Status string
	}

	t.Run("commits when the callback succeeds", func(t *testing.T) {
		db, mock, conn := openMockDB(t)
		defer conn.Close()

		mock.ExpectBegin()
		// The postgres driver inserts via Query with a RETURNING clause.
		mock.ExpectQuery(`INSERT INTO "sync_log_rows"`).
			WithArgs("completed").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
		mock.ExpectCommit()

		err := db.Transaction(func(tx *gorm.DB) error {
			return tx.Create(&syncLogRow{Status: "completed"}).Error
		})

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when the callback fails", func(t *testing.T) {
		db, mock, conn := openMockDB(t)
		defer conn.Close()

		mock.ExpectBegin()
		mock.ExpectRollback()

		err := db.Transaction(func(tx *gorm.DB) error {
			return assert.AnError
		})

		assert.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
