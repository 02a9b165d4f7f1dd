package syncstate

import (
	"context"
	"time"
)

// CheckpointRepository persists sync checkpoints.
type CheckpointRepository interface {
	// GetOrCreate returns the checkpoint for a (sync type, source) pair,
	// creating the initial pending row atomically if it does not exist.
	// Creation is an upsert so two processes starting simultaneously cannot
	// race a duplicate row into existence.
	GetOrCreate(ctx context.Context, syncType SyncType, source string) (*SyncCheckpoint, error)

	// Save persists the checkpoint's current state.
	Save(ctx context.Context, checkpoint *SyncCheckpoint) error

	// FindAll returns every checkpoint, for the operational surface.
	FindAll(ctx context.Context) ([]SyncCheckpoint, error)
}

// FailedSyncRepository persists failed-order records.
type FailedSyncRepository interface {
	// Save creates or updates a failed record.
	Save(ctx context.Context, record *FailedSyncRecord) error

	// FindRetryable returns unresolved records whose next-retry time has
	// elapsed, oldest first, up to limit.
	FindRetryable(ctx context.Context, now time.Time, limit int) ([]FailedSyncRecord, error)

	// FindRecent returns the most recent records, for inspection.
	FindRecent(ctx context.Context, limit int) ([]FailedSyncRecord, error)
}

// SyncLogRepository persists per-run summaries.
type SyncLogRepository interface {
	// Save writes one run summary.
	Save(ctx context.Context, log *SyncLog) error

	// FindRecent returns the most recent run summaries, newest first.
	FindRecent(ctx context.Context, limit int) ([]SyncLog, error)
}

// ConnectionRepository persists remote connection state.
type ConnectionRepository interface {
	// Get returns the connection state for an account, or
	// ErrConnectionNotFound.
	Get(ctx context.Context, accountID string) (*RemoteConnection, error)

	// Save creates or updates the connection state.
	Save(ctx context.Context, conn *RemoteConnection) error
}
