package syncstate

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RunStatus is the outcome of one sync run as recorded in the sync log.
type RunStatus string

const (
	RunStatusCompleted RunStatus = "completed"
	RunStatusPartial   RunStatus = "partial"
	RunStatusFailed    RunStatus = "failed"
	RunStatusSkipped   RunStatus = "skipped"
)

// SyncLog is the per-run summary surfaced to the dashboard. The
// orchestrator writes exactly one row per run.
type SyncLog struct {
	ID           uuid.UUID
	SyncType     SyncType
	Status       RunStatus
	StartedAt    time.Time
	CompletedAt  time.Time
	FetchedCount int
	CreatedCount int
	UpdatedCount int
	SkippedCount int
	FailedCount  int
	ErrorMessage string
	CreatedAt    time.Time
}

// NewSyncLog starts a log entry for a run beginning now.
func NewSyncLog(syncType SyncType) *SyncLog {
	now := time.Now()
	return &SyncLog{
		ID:        uuid.New(),
		SyncType:  syncType,
		StartedAt: now,
		CreatedAt: now,
	}
}

// Finish closes the entry with its outcome and counters.
func (l *SyncLog) Finish(status RunStatus, fetched, created, updated, skipped, failed int, errMessage string) {
	l.Status = status
	l.CompletedAt = time.Now()
	l.FetchedCount = fetched
	l.CreatedCount = created
	l.UpdatedCount = updated
	l.SkippedCount = skipped
	l.FailedCount = failed
	l.ErrorMessage = errMessage
}

// Duration returns how long the run took.
func (l *SyncLog) Duration() time.Duration {
	if l.CompletedAt.IsZero() {
		return 0
	}
	return l.CompletedAt.Sub(l.StartedAt)
}

// DurationString renders the run duration for humans, e.g. "1m32s".
func (l *SyncLog) DurationString() string {
	d := l.Duration()
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.Round(time.Second).String()
}
