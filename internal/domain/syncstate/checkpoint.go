package syncstate

import (
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Sync types
// ---------------------------------------------------------------------------

// SyncType identifies one of the independent synchronization pipelines.
// Each (sync type, source) pair owns exactly one checkpoint row, so the two
// pipelines may run concurrently without sharing mutable state.
type SyncType string

const (
	// SyncTypeOpenOrders pulls the windowed open-orders view
	SyncTypeOpenOrders SyncType = "open_orders"
	// SyncTypeProcessedOrders pulls the processed-orders date search
	SyncTypeProcessedOrders SyncType = "processed_orders"
)

// IsValid returns true if the sync type is known.
func (t SyncType) IsValid() bool {
	switch t {
	case SyncTypeOpenOrders, SyncTypeProcessedOrders:
		return true
	default:
		return false
	}
}

// String returns the string representation of SyncType.
func (t SyncType) String() string {
	return string(t)
}

// ---------------------------------------------------------------------------
// Checkpoint status
// ---------------------------------------------------------------------------

// CheckpointStatus represents the state of a sync checkpoint.
type CheckpointStatus string

const (
	CheckpointStatusPending    CheckpointStatus = "pending"
	CheckpointStatusInProgress CheckpointStatus = "in_progress"
	CheckpointStatusCompleted  CheckpointStatus = "completed"
	CheckpointStatusFailed     CheckpointStatus = "failed"
)

// IsValid returns true if the status is valid.
func (s CheckpointStatus) IsValid() bool {
	switch s {
	case CheckpointStatusPending, CheckpointStatusInProgress,
		CheckpointStatusCompleted, CheckpointStatusFailed:
		return true
	default:
		return false
	}
}

const (
	// StalenessWindow is how long an in_progress checkpoint blocks new runs
	// before it is considered stuck and eligible for forced retry.
	StalenessWindow = 60 * time.Minute

	// IncrementalFallback is the safety window used when the checkpoint has
	// never completed, guarding against a stale or never-set boundary.
	IncrementalFallback = 7 * 24 * time.Hour

	// InitialLookback is the historical start assigned to a freshly created
	// checkpoint.
	InitialLookback = 365 * 24 * time.Hour
)

// ---------------------------------------------------------------------------
// SyncCheckpoint
// ---------------------------------------------------------------------------

// SyncCheckpoint persists per-sync-type progress and is the sole authority
// for whether a sync is currently allowed to run. Its in_progress flag is a
// cooperative lock, not a database lock, so staleness self-healing in
// ShouldSync is what recovers from a crashed run. All transitions go
// through the named methods; rows are never deleted.
type SyncCheckpoint struct {
	ID              uuid.UUID
	SyncType        SyncType
	Source          string
	Status          CheckpointStatus
	LastSyncAt      time.Time
	SyncStartedAt   *time.Time
	SyncCompletedAt *time.Time
	SyncedCount     int
	CreatedCount    int
	UpdatedCount    int
	FailedCount     int
	Metadata        map[string]string
	ErrorMessage    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewSyncCheckpoint creates the initial checkpoint for a (sync type, source)
// pair: pending, with the last-sync boundary defaulted a year back.
func NewSyncCheckpoint(syncType SyncType, source string) *SyncCheckpoint {
	now := time.Now()
	return &SyncCheckpoint{
		ID:         uuid.New(),
		SyncType:   syncType,
		Source:     source,
		Status:     CheckpointStatusPending,
		LastSyncAt: now.Add(-InitialLookback),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// StartSync marks the checkpoint in progress. Allowed from any state; a
// stuck in_progress row is restarted the same way after the staleness
// window elapses.
func (c *SyncCheckpoint) StartSync() {
	now := time.Now()
	c.Status = CheckpointStatusInProgress
	c.SyncStartedAt = &now
	c.SyncCompletedAt = nil
	c.ErrorMessage = ""
	c.UpdatedAt = now
}

// CompleteSync marks the run successful, advances the incremental boundary
// to now and stores the run counters.
func (c *SyncCheckpoint) CompleteSync(synced, created, updated, failed int, metadata map[string]string) {
	now := time.Now()
	c.Status = CheckpointStatusCompleted
	c.SyncCompletedAt = &now
	c.LastSyncAt = now
	c.SyncedCount = synced
	c.CreatedCount = created
	c.UpdatedCount = updated
	c.FailedCount = failed
	if metadata != nil {
		c.Metadata = metadata
	}
	c.UpdatedAt = now
}

// FailSync marks the run failed with the causing message. The incremental
// boundary is left untouched so the next run re-covers the window.
func (c *SyncCheckpoint) FailSync(message string) {
	now := time.Now()
	c.Status = CheckpointStatusFailed
	c.SyncCompletedAt = &now
	c.ErrorMessage = message
	c.UpdatedAt = now
}

// ShouldSync reports whether a new run may start. A run in progress blocks
// until the staleness window elapses (self-healing after a crash);
// otherwise a run is due once intervalMinutes have passed since the last
// successful sync.
func (c *SyncCheckpoint) ShouldSync(intervalMinutes int) bool {
	if c.Status == CheckpointStatusInProgress {
		if c.SyncStartedAt != nil && time.Since(*c.SyncStartedAt) < StalenessWindow {
			return false
		}
		return true
	}
	return time.Since(c.LastSyncAt) >= time.Duration(intervalMinutes)*time.Minute
}

// IncrementalStartDate returns the lower bound of the next sync window: the
// last successful sync time when the checkpoint completed, else the fixed
// safety fallback.
func (c *SyncCheckpoint) IncrementalStartDate() time.Time {
	if c.Status == CheckpointStatusCompleted {
		return c.LastSyncAt
	}
	return time.Now().Add(-IncrementalFallback)
}
